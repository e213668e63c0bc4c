package builtin

import (
	"sort"

	"github.com/tsawler/tabulary/field"
	"github.com/tsawler/tabulary/run"
)

// FactoryContext carries what a factory needs to build one hook instance.
type FactoryContext struct {
	// Fields is the ordered field list of the registry under construction.
	Fields []field.Definition

	// Field is the name of the field the hook is being bound to. Empty for
	// row detectors, which are not field-scoped.
	Field string

	// Params are the manifest parameters for this hook entry.
	Params Params
}

// Factory signatures for the four hook kinds.
type (
	RowDetectorFactory    func(ctx FactoryContext) (field.RowDetector, error)
	ColumnDetectorFactory func(ctx FactoryContext) (field.ColumnDetector, error)
	TransformFactory      func(ctx FactoryContext) (field.Transform, error)
	ValidatorFactory      func(ctx FactoryContext) (field.Validator, error)
)

// Catalog holds named hook factories. The configuration loader resolves
// manifest hook names through a catalog; the shipped hooks register into
// the default one.
type Catalog struct {
	rowDetectors    map[string]RowDetectorFactory
	columnDetectors map[string]ColumnDetectorFactory
	transforms      map[string]TransformFactory
	validators      map[string]ValidatorFactory
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		rowDetectors:    make(map[string]RowDetectorFactory),
		columnDetectors: make(map[string]ColumnDetectorFactory),
		transforms:      make(map[string]TransformFactory),
		validators:      make(map[string]ValidatorFactory),
	}
}

// RegisterRowDetector registers a row detector factory.
func (c *Catalog) RegisterRowDetector(name string, f RowDetectorFactory) {
	c.rowDetectors[name] = f
}

// RegisterColumnDetector registers a column detector factory.
func (c *Catalog) RegisterColumnDetector(name string, f ColumnDetectorFactory) {
	c.columnDetectors[name] = f
}

// RegisterTransform registers a transform factory.
func (c *Catalog) RegisterTransform(name string, f TransformFactory) {
	c.transforms[name] = f
}

// RegisterValidator registers a validator factory.
func (c *Catalog) RegisterValidator(name string, f ValidatorFactory) {
	c.validators[name] = f
}

// RowDetector builds the named row detector.
func (c *Catalog) RowDetector(name string, ctx FactoryContext) (field.RowDetector, error) {
	f, ok := c.rowDetectors[name]
	if !ok {
		return nil, run.Configurationf(run.StageConfigure, "unknown row detector %q", name)
	}
	return f(ctx)
}

// ColumnDetector builds the named column detector.
func (c *Catalog) ColumnDetector(name string, ctx FactoryContext) (field.ColumnDetector, error) {
	f, ok := c.columnDetectors[name]
	if !ok {
		return nil, run.Configurationf(run.StageConfigure, "unknown column detector %q", name)
	}
	return f(ctx)
}

// Transform builds the named transform.
func (c *Catalog) Transform(name string, ctx FactoryContext) (field.Transform, error) {
	f, ok := c.transforms[name]
	if !ok {
		return nil, run.Configurationf(run.StageConfigure, "unknown transform %q", name)
	}
	return f(ctx)
}

// Validator builds the named validator.
func (c *Catalog) Validator(name string, ctx FactoryContext) (field.Validator, error) {
	f, ok := c.validators[name]
	if !ok {
		return nil, run.Configurationf(run.StageConfigure, "unknown validator %q", name)
	}
	return f(ctx)
}

// ListRowDetectors returns the registered row detector names, sorted.
func (c *Catalog) ListRowDetectors() []string { return sortedKeys(c.rowDetectors) }

// ListColumnDetectors returns the registered column detector names, sorted.
func (c *Catalog) ListColumnDetectors() []string { return sortedKeys(c.columnDetectors) }

// ListTransforms returns the registered transform names, sorted.
func (c *Catalog) ListTransforms() []string { return sortedKeys(c.transforms) }

// ListValidators returns the registered validator names, sorted.
func (c *Catalog) ListValidators() []string { return sortedKeys(c.validators) }

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Global catalog

var defaultCatalog = NewCatalog()

// Default returns the catalog the shipped hooks register into.
func Default() *Catalog { return defaultCatalog }

// RegisterRowDetector registers a row detector factory globally.
func RegisterRowDetector(name string, f RowDetectorFactory) {
	defaultCatalog.RegisterRowDetector(name, f)
}

// RegisterColumnDetector registers a column detector factory globally.
func RegisterColumnDetector(name string, f ColumnDetectorFactory) {
	defaultCatalog.RegisterColumnDetector(name, f)
}

// RegisterTransform registers a transform factory globally.
func RegisterTransform(name string, f TransformFactory) {
	defaultCatalog.RegisterTransform(name, f)
}

// RegisterValidator registers a validator factory globally.
func RegisterValidator(name string, f ValidatorFactory) {
	defaultCatalog.RegisterValidator(name, f)
}

func init() {
	// Register the shipped hooks.
	RegisterRowDetector("header_keywords", headerKeywordsFactory)
	RegisterRowDetector("value_shapes", valueShapesFactory)
	RegisterRowDetector("blank_rows", blankRowsFactory)

	RegisterColumnDetector("header_match", headerMatchFactory)
	RegisterColumnDetector("kind_sniffer", kindSnifferFactory)
	RegisterColumnDetector("value_pattern", valuePatternFactory)

	RegisterTransform("trim", trimFactory)
	RegisterTransform("normalize_text", textNormalizeFactory)
	RegisterTransform("normalize_number", numberFactory)
	RegisterTransform("normalize_date", dateFactory)
	RegisterTransform("map_values", mapValuesFactory)
	RegisterTransform("concat", concatFactory)

	RegisterValidator("required", requiredFactory)
	RegisterValidator("pattern", patternFactory)
	RegisterValidator("one_of", oneOfFactory)
	RegisterValidator("range", rangeFactory)
	RegisterValidator("unique", uniqueFactory)
}
