// Package config loads registry manifests from YAML. A manifest declares
// the target fields, binds hooks to them by catalog name, and overlays run
// settings; loading resolves the hook names through a builtin catalog and
// produces a ready field.Registry plus run.Settings.
//
// Manifests can extend one another with the extends key: the child overlays
// its parent's settings value by value, replaces same-name fields wholesale,
// and appends its new fields after the parent's. Every load failure is a
// configuration error.
package config

import (
	"strings"

	"dario.cat/mergo"
	"github.com/gosimple/slug"

	"github.com/tsawler/tabulary/run"
)

// Manifest is the top-level document of a registry manifest file.
type Manifest struct {
	// Version is free-form and uninterpreted; callers that want it can read
	// it off the merged manifest.
	Version string `yaml:"version"`

	// Extends names a parent manifest to overlay, resolved relative to this
	// file's directory unless absolute. Empty on a merged manifest.
	Extends string `yaml:"extends"`

	// Settings overlays the default run settings.
	Settings SettingsSpec `yaml:"settings"`

	// RowDetectors are the registry-wide row detectors, ordered by priority.
	// A child manifest with a non-empty list replaces its parent's list.
	RowDetectors []HookSpec `yaml:"row_detectors" validate:"dive"`

	// Fields declares the output fields. Declaration order is output column
	// order.
	Fields []FieldSpec `yaml:"fields" validate:"dive"`
}

// SettingsSpec overlays run.Settings. Fields are pointers so an extends
// overlay can tell "absent" from an explicit zero.
type SettingsSpec struct {
	MappingThreshold       *float64          `yaml:"mapping_threshold"        validate:"omitempty,gte=0,lte=1"`
	TiePolicy              *string           `yaml:"tie_policy"               validate:"omitempty,oneof=leftmost leave_unmapped"`
	IncludeDerivedFields   *bool             `yaml:"include_derived_fields"`
	IncludeUnmappedColumns *bool             `yaml:"include_unmapped_columns"`
	UnmappedHeaderPrefix   *string           `yaml:"unmapped_header_prefix"`
	DetectorSampleSize     *int              `yaml:"detector_sample_size"`
	Metadata               map[string]string `yaml:"metadata"`
}

// apply overlays the spec's set values onto base.
func (s SettingsSpec) apply(base run.Settings) run.Settings {
	out := base.Clone()
	if s.MappingThreshold != nil {
		out.MappingScoreThreshold = *s.MappingThreshold
	}
	if s.TiePolicy != nil {
		out.MappingTieResolution = run.TiePolicy(*s.TiePolicy)
	}
	if s.IncludeDerivedFields != nil {
		out.IncludeDerivedFields = *s.IncludeDerivedFields
	}
	if s.IncludeUnmappedColumns != nil {
		out.IncludeUnmappedColumns = *s.IncludeUnmappedColumns
	}
	if s.UnmappedHeaderPrefix != nil {
		out.UnmappedHeaderPrefix = *s.UnmappedHeaderPrefix
	}
	if s.DetectorSampleSize != nil {
		out.DetectorSampleSize = *s.DetectorSampleSize
	}
	if len(s.Metadata) > 0 {
		if out.Metadata == nil {
			out.Metadata = make(map[string]string, len(s.Metadata))
		}
		for k, v := range s.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// FieldSpec declares one output field and the hooks bound to it.
type FieldSpec struct {
	// Name is the canonical field identifier. Empty derives it from Label.
	Name string `yaml:"name"`

	// Label is the human-readable output header.
	Label string `yaml:"label"`

	// Kind is the expected value domain.
	Kind string `yaml:"kind" validate:"omitempty,oneof=string number date boolean any"`

	// Required marks the field for missing-field reporting.
	Required bool `yaml:"required"`

	Detectors  []HookSpec `yaml:"detectors"  validate:"dive"`
	Transforms []HookSpec `yaml:"transforms" validate:"dive"`
	Validators []HookSpec `yaml:"validators" validate:"dive"`
}

// HookSpec names one catalog hook. Use is the catalog name; Params go to
// the factory untouched.
type HookSpec struct {
	Use      string         `yaml:"use" validate:"required"`
	Priority int            `yaml:"priority"`
	Params   map[string]any `yaml:"params"`
}

// resolveNames fills missing field names from labels. Merging by name and
// catalog binding both need every field named first.
func resolveNames(m *Manifest) error {
	for i := range m.Fields {
		f := &m.Fields[i]
		if f.Name != "" {
			continue
		}
		if strings.TrimSpace(f.Label) == "" {
			return run.Configurationf(run.StageConfigure,
				"field %d has neither name nor label", i)
		}
		f.Name = strings.ReplaceAll(slug.Make(f.Label), "-", "_")
	}
	return nil
}

// overlay merges child onto parent. Settings merge value by value, fields
// of the same name are replaced wholesale, child-only fields append after
// the parent's, and a non-empty child row-detector list replaces the
// parent's. Both manifests must have resolved field names.
func overlay(parent, child Manifest) (Manifest, error) {
	out := child
	out.Extends = ""

	merged := parent.Settings
	if err := mergo.Merge(&merged, child.Settings, mergo.WithOverride); err != nil {
		return Manifest{}, run.Configurationf(run.StageConfigure, "merge settings: %v", err)
	}
	out.Settings = merged

	if out.Version == "" {
		out.Version = parent.Version
	}
	if len(child.RowDetectors) == 0 {
		out.RowDetectors = parent.RowDetectors
	}

	byName := make(map[string]FieldSpec, len(child.Fields))
	for _, f := range child.Fields {
		byName[f.Name] = f
	}
	fields := make([]FieldSpec, 0, len(parent.Fields)+len(child.Fields))
	seen := make(map[string]bool, len(parent.Fields))
	for _, f := range parent.Fields {
		if override, ok := byName[f.Name]; ok {
			f = override
		}
		fields = append(fields, f)
		seen[f.Name] = true
	}
	for _, f := range child.Fields {
		if !seen[f.Name] {
			fields = append(fields, f)
		}
	}
	out.Fields = fields
	return out, nil
}
