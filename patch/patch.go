// Package patch defines the change-set model the normalization pipeline is
// built around. Transforms and validators return results in whichever shape
// is most natural to them; the engine collapses every shape into a Patch at
// the hook boundary and merges patches into the table's committed state. All
// length and field-registration invariants are enforced during that collapse,
// so code downstream of NormalizeTransform and NormalizeValidator can trust
// every vector it sees.
package patch

// Patch is a normalized change set for one table: replacement value vectors
// and issue vectors keyed by field name, plus free-form metadata. Every
// vector's length equals the table's data row count.
type Patch struct {
	// Values maps field name to a full replacement column vector.
	Values map[string][]string

	// Issues maps field name to a per-row issue vector. Entries may be nil
	// for clean cells.
	Issues map[string][]IssueCell

	// Meta carries hook-provided metadata, merged key-wise across patches.
	Meta map[string]any
}

// New creates an empty Patch.
func New() *Patch {
	return &Patch{
		Values: make(map[string][]string),
		Issues: make(map[string][]IssueCell),
		Meta:   make(map[string]any),
	}
}

// IsEmpty reports whether the patch changes nothing.
func (p *Patch) IsEmpty() bool {
	if p == nil {
		return true
	}
	return len(p.Values) == 0 && len(p.Issues) == 0 && len(p.Meta) == 0
}

// IssueCount returns the total number of issues across all fields and rows.
func (p *Patch) IssueCount() int {
	if p == nil {
		return 0
	}
	n := 0
	for _, cells := range p.Issues {
		for _, cell := range cells {
			n += len(cell)
		}
	}
	return n
}
