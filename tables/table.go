package tables

import (
	"github.com/tsawler/tabulary/layout"
	"github.com/tsawler/tabulary/mapping"
	"github.com/tsawler/tabulary/patch"
)

// Column describes one output column of a normalized table.
type Column struct {
	// Header is the display header: the field label for mapped and
	// derived columns, or the synthetic header for unmapped source
	// columns carried through.
	Header string `json:"header"`

	// Field is the registered field name backing this column. Empty for
	// unmapped source columns.
	Field string `json:"field,omitempty"`

	// Source is the zero-based source column index the values came
	// from, or -1 for derived columns with no single source.
	Source int `json:"source"`

	// Derived is true when the column's field was never mapped to a
	// source column and its values were produced entirely by
	// transforms.
	Derived bool `json:"derived,omitempty"`
}

// NormalizedTable is the assembled output for one detected region.
type NormalizedTable struct {
	// Sheet is the name of the sheet the region was found on.
	Sheet string `json:"sheet"`

	// Region records where the table sat in the source sheet.
	Region layout.Region `json:"region"`

	// Columns is the output column layout, in order: satisfied fields
	// in registration order, then derived fields, then unmapped source
	// columns (the latter two subject to run settings).
	Columns []Column `json:"columns"`

	// Rows holds the normalized cell values, row-major, aligned with
	// Columns. Nil when the region has no data rows.
	Rows [][]string `json:"rows"`

	// Issues maps field names to dense per-row issue vectors collected
	// from validators. Fields without findings are absent.
	Issues map[string][]patch.IssueCell `json:"issues,omitempty"`

	// MissingRequired lists required fields that no source column
	// satisfied, in field registration order.
	MissingRequired []string `json:"missing_required,omitempty"`

	// Mapping retains the full column mapping result, including raw
	// detector scores, for callers that want to inspect how columns
	// were assigned.
	Mapping *mapping.Result `json:"mapping,omitempty"`

	// Meta is the merged hook metadata for the table.
	Meta map[string]any `json:"meta,omitempty"`

	// Summary counts rows, columns, fields and issues for this table.
	Summary Summary `json:"summary"`
}

// Field returns the values of the named field column, or nil when the
// table has no column for it.
func (t *NormalizedTable) Field(name string) []string {
	if name == "" {
		return nil
	}
	for i, col := range t.Columns {
		if col.Field != name {
			continue
		}
		out := make([]string, len(t.Rows))
		for r, row := range t.Rows {
			if i < len(row) {
				out[r] = row[i]
			}
		}
		return out
	}
	return nil
}

// IssueCount returns the total number of issues attached to the table.
func (t *NormalizedTable) IssueCount() int {
	n := 0
	for _, cells := range t.Issues {
		for _, cell := range cells {
			n += len(cell)
		}
	}
	return n
}
