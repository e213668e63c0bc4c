// Package field defines the target schema for normalization: field
// definitions, the hook interfaces (row detectors, column detectors,
// transforms, validators), and the registry that owns both the ordered field
// list and every hook binding. The registry is assembled up front, then read
// by the pipeline; it must not be modified while a run is in progress.
package field

import "strings"

// Kind describes the value domain a field expects. Kinds steer the builtin
// column detectors and transforms; the engine itself treats all cell values
// as strings.
type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindDate    Kind = "date"
	KindBoolean Kind = "boolean"
	KindAny     Kind = "any"
)

// Valid reports whether the kind is one of the known values.
func (k Kind) Valid() bool {
	switch k {
	case KindString, KindNumber, KindDate, KindBoolean, KindAny:
		return true
	}
	return false
}

// Definition describes one target field. Definitions are immutable once
// registered.
type Definition struct {
	// Name is the canonical field identifier, unique within a registry.
	Name string

	// Label is the human-readable header used in output. Empty falls back
	// to Name.
	Label string

	// Required marks fields that should be reported when no source column
	// satisfies them. A missing required field is never fatal.
	Required bool

	// Kind is the expected value domain.
	// Default: KindAny
	Kind Kind
}

// DisplayLabel returns the label to use in output headers.
func (d Definition) DisplayLabel() string {
	if strings.TrimSpace(d.Label) != "" {
		return d.Label
	}
	return d.Name
}
