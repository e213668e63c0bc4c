package config

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/spf13/afero"

	"github.com/tsawler/tabulary/builtin"
	"github.com/tsawler/tabulary/field"
	"github.com/tsawler/tabulary/run"
)

// Config configures a Loader.
type Config struct {
	// FS is the filesystem manifests are read from.
	// Default: the OS filesystem.
	FS afero.Fs

	// Catalog resolves hook names to factories.
	// Default: builtin.Default()
	Catalog *builtin.Catalog

	// MaxExtendsDepth bounds how long an extends chain may get.
	// Default: 10
	MaxExtendsDepth int
}

// DefaultConfig returns the default loader configuration.
func DefaultConfig() Config {
	return Config{
		FS:              afero.NewOsFs(),
		Catalog:         builtin.Default(),
		MaxExtendsDepth: 10,
	}
}

// Result is a loaded manifest resolved into engine inputs.
type Result struct {
	// Registry holds the declared fields with every hook bound.
	Registry *field.Registry

	// Settings are the defaults with the manifest overlay applied.
	Settings run.Settings

	// Manifest is the merged document, extends chain flattened.
	Manifest Manifest
}

// Loader loads registry manifests.
type Loader struct {
	cfg      Config
	validate *validator.Validate
}

// NewLoader creates a loader. Zero Config fields fall back to the defaults.
func NewLoader(cfg Config) *Loader {
	def := DefaultConfig()
	if cfg.FS == nil {
		cfg.FS = def.FS
	}
	if cfg.Catalog == nil {
		cfg.Catalog = def.Catalog
	}
	if cfg.MaxExtendsDepth <= 0 {
		cfg.MaxExtendsDepth = def.MaxExtendsDepth
	}
	return &Loader{cfg: cfg, validate: validator.New()}
}

// Load reads and resolves the manifest at path with the default
// configuration.
func Load(path string) (*Result, error) {
	return NewLoader(DefaultConfig()).Load(path)
}

// Load reads the manifest at path, follows its extends chain, validates the
// merged document, and resolves every hook through the catalog.
func (l *Loader) Load(path string) (*Result, error) {
	manifest, err := l.resolve(path, map[string]bool{}, 0)
	if err != nil {
		return nil, err
	}
	if err := l.validate.Struct(&manifest); err != nil {
		return nil, run.Configurationf(run.StageConfigure, "manifest %s: %v", path, err)
	}
	registry, err := l.build(manifest)
	if err != nil {
		return nil, err
	}
	settings := manifest.Settings.apply(run.DefaultSettings())
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &Result{Registry: registry, Settings: settings, Manifest: manifest}, nil
}

// resolve reads one manifest file and recursively folds in its parent.
func (l *Loader) resolve(path string, visited map[string]bool, depth int) (Manifest, error) {
	if depth > l.cfg.MaxExtendsDepth {
		return Manifest{}, run.Configurationf(run.StageConfigure,
			"manifest %s: extends chain deeper than %d", path, l.cfg.MaxExtendsDepth)
	}
	clean := filepath.Clean(path)
	if visited[clean] {
		return Manifest{}, run.Configurationf(run.StageConfigure,
			"manifest %s: extends cycle", clean)
	}
	visited[clean] = true

	data, err := afero.ReadFile(l.cfg.FS, clean)
	if err != nil {
		return Manifest{}, run.Configurationf(run.StageConfigure, "read manifest: %v", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, run.Configurationf(run.StageConfigure, "parse manifest %s: %v", clean, err)
	}
	if err := resolveNames(&m); err != nil {
		return Manifest{}, fmt.Errorf("manifest %s: %w", clean, err)
	}
	if m.Extends == "" {
		return m, nil
	}

	parentPath := m.Extends
	if !filepath.IsAbs(parentPath) {
		parentPath = filepath.Join(filepath.Dir(clean), parentPath)
	}
	parent, err := l.resolve(parentPath, visited, depth+1)
	if err != nil {
		return Manifest{}, err
	}
	return overlay(parent, m)
}

// build resolves the manifest's hooks through the catalog into a registry.
// Fields register first so every factory sees the full field list.
func (l *Loader) build(m Manifest) (*field.Registry, error) {
	reg := field.NewRegistry()
	for _, f := range m.Fields {
		def := field.Definition{
			Name:     f.Name,
			Label:    f.Label,
			Required: f.Required,
			Kind:     field.Kind(f.Kind),
		}
		if err := reg.AddField(def); err != nil {
			return nil, err
		}
	}
	defs := reg.Fields()

	// Detectors run in binding order, so priority is applied here; transform
	// and validator ordering is the registry's job.
	for _, h := range sortHooks(m.RowDetectors) {
		det, err := l.cfg.Catalog.RowDetector(h.Use, builtin.FactoryContext{
			Fields: defs,
			Params: builtin.Params(h.Params),
		})
		if err != nil {
			return nil, err
		}
		reg.AddRowDetector(det)
	}

	for _, f := range m.Fields {
		ctx := builtin.FactoryContext{Fields: defs, Field: f.Name}
		for _, h := range sortHooks(f.Detectors) {
			ctx.Params = builtin.Params(h.Params)
			det, err := l.cfg.Catalog.ColumnDetector(h.Use, ctx)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.Name, err)
			}
			if err := reg.BindColumnDetector(f.Name, det); err != nil {
				return nil, err
			}
		}
		for _, h := range f.Transforms {
			ctx.Params = builtin.Params(h.Params)
			tr, err := l.cfg.Catalog.Transform(h.Use, ctx)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.Name, err)
			}
			if err := reg.BindTransform(f.Name, h.Priority, tr); err != nil {
				return nil, err
			}
		}
		for _, h := range f.Validators {
			ctx.Params = builtin.Params(h.Params)
			v, err := l.cfg.Catalog.Validator(h.Use, ctx)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.Name, err)
			}
			if err := reg.BindValidator(f.Name, h.Priority, v); err != nil {
				return nil, err
			}
		}
	}
	return reg, nil
}

// sortHooks orders hook specs by priority, keeping document order for ties.
func sortHooks(hooks []HookSpec) []HookSpec {
	out := make([]HookSpec, len(hooks))
	copy(out, hooks)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}
