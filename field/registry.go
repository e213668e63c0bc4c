package field

import (
	"sort"

	"github.com/tsawler/tabulary/run"
)

// TransformBinding ties a transform to a field with an execution priority.
type TransformBinding struct {
	Field     string
	Priority  int
	Transform Transform

	seq int
}

// ValidatorBinding ties a validator to a field with an execution priority.
type ValidatorBinding struct {
	Field     string
	Priority  int
	Validator Validator

	seq int
}

// Registry owns the ordered field definitions and every hook binding for a
// normalization run. Field order is registration order and determines output
// column order; hook order is priority ascending, then field registration
// order, then binding order. That ordering is part of the engine's contract:
// hooks observe each other's effects in exactly that sequence.
type Registry struct {
	defs   []Definition
	byName map[string]int

	rowDetectors    []RowDetector
	columnDetectors map[string][]ColumnDetector

	transforms []TransformBinding
	validators []ValidatorBinding
	nextSeq    int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName:          make(map[string]int),
		columnDetectors: make(map[string][]ColumnDetector),
	}
}

// AddField registers a field definition. Names must be unique and non-empty;
// an empty kind defaults to KindAny.
func (r *Registry) AddField(def Definition) error {
	if def.Name == "" {
		return run.Configurationf(run.StageConfigure, "field with empty name")
	}
	if _, exists := r.byName[def.Name]; exists {
		return run.Configurationf(run.StageConfigure, "duplicate field %q", def.Name)
	}
	if def.Kind == "" {
		def.Kind = KindAny
	}
	if !def.Kind.Valid() {
		return run.Configurationf(run.StageConfigure, "field %q has unknown kind %q", def.Name, def.Kind)
	}
	r.byName[def.Name] = len(r.defs)
	r.defs = append(r.defs, def)
	return nil
}

// Fields returns the field definitions in registration order.
func (r *Registry) Fields() []Definition {
	out := make([]Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// FieldNames returns the field names in registration order.
func (r *Registry) FieldNames() []string {
	out := make([]string, len(r.defs))
	for i, d := range r.defs {
		out[i] = d.Name
	}
	return out
}

// Has reports whether a field name is registered. It satisfies the patch
// package's FieldSet.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Lookup returns the definition for a field name.
func (r *Registry) Lookup(name string) (Definition, bool) {
	idx, ok := r.byName[name]
	if !ok {
		return Definition{}, false
	}
	return r.defs[idx], true
}

// Len returns the number of registered fields.
func (r *Registry) Len() int {
	return len(r.defs)
}

// AddRowDetector registers a row detector. Row detectors are global to the
// registry and run in registration order.
func (r *Registry) AddRowDetector(d RowDetector) {
	r.rowDetectors = append(r.rowDetectors, d)
}

// RowDetectors returns the registered row detectors in registration order.
func (r *Registry) RowDetectors() []RowDetector {
	return r.rowDetectors
}

// BindColumnDetector binds a column detector to a field. The field must
// already be registered.
func (r *Registry) BindColumnDetector(fieldName string, d ColumnDetector) error {
	if !r.Has(fieldName) {
		return run.Configurationf(run.StageConfigure,
			"column detector %q bound to unknown field %q", d.Name(), fieldName)
	}
	r.columnDetectors[fieldName] = append(r.columnDetectors[fieldName], d)
	return nil
}

// ColumnDetectors returns the detectors bound to a field in binding order.
func (r *Registry) ColumnDetectors(fieldName string) []ColumnDetector {
	return r.columnDetectors[fieldName]
}

// BindTransform binds a transform to a field with the given priority.
func (r *Registry) BindTransform(fieldName string, priority int, tr Transform) error {
	if !r.Has(fieldName) {
		return run.Configurationf(run.StageConfigure,
			"transform %q bound to unknown field %q", tr.Name(), fieldName)
	}
	r.transforms = append(r.transforms, TransformBinding{
		Field:     fieldName,
		Priority:  priority,
		Transform: tr,
		seq:       r.nextSeq,
	})
	r.nextSeq++
	return nil
}

// BindValidator binds a validator to a field with the given priority.
func (r *Registry) BindValidator(fieldName string, priority int, v Validator) error {
	if !r.Has(fieldName) {
		return run.Configurationf(run.StageConfigure,
			"validator %q bound to unknown field %q", v.Name(), fieldName)
	}
	r.validators = append(r.validators, ValidatorBinding{
		Field:     fieldName,
		Priority:  priority,
		Validator: v,
		seq:       r.nextSeq,
	})
	r.nextSeq++
	return nil
}

// Transforms returns all transform bindings in execution order: priority
// ascending, then field registration order, then binding order.
func (r *Registry) Transforms() []TransformBinding {
	out := make([]TransformBinding, len(r.transforms))
	copy(out, r.transforms)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		fi, fj := r.byName[out[i].Field], r.byName[out[j].Field]
		if fi != fj {
			return fi < fj
		}
		return out[i].seq < out[j].seq
	})
	return out
}

// Validators returns all validator bindings in execution order, using the
// same ordering rules as Transforms.
func (r *Registry) Validators() []ValidatorBinding {
	out := make([]ValidatorBinding, len(r.validators))
	copy(out, r.validators)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		fi, fj := r.byName[out[i].Field], r.byName[out[j].Field]
		if fi != fj {
			return fi < fj
		}
		return out[i].seq < out[j].seq
	})
	return out
}
