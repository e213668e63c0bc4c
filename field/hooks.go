package field

import (
	"github.com/tsawler/tabulary/patch"
	"github.com/tsawler/tabulary/run"
)

// Well-known row classes emitted by row detectors. The class map returned by
// a detector is open: detectors may vote for other labels, but the boundary
// detector only acts on header and data rows.
const (
	ClassHeader  = "header"
	ClassData    = "data"
	ClassUnknown = "unknown"
)

// RowContext carries one row to a row detector.
type RowContext struct {
	// Sheet is the name of the sheet being classified.
	Sheet string

	// Index is the zero-based row index within the sheet.
	Index int

	// Values are the row's cell values as read.
	Values []string

	// Meta is the caller-supplied run metadata.
	Meta map[string]string

	// State is the shared per-run scratch state.
	State *run.State
}

// RowDetector votes on what a row is. DetectRow returns score deltas keyed
// by row class; a nil or empty map is an abstention. Deltas accumulate
// additively across detectors. An error is recorded as a diagnostic and
// treated as an abstention.
type RowDetector interface {
	Name() string
	DetectRow(ctx RowContext) (map[string]float64, error)
}

// ColumnContext carries one (source column, candidate field) pair to a
// column detector.
type ColumnContext struct {
	// Sheet is the name of the sheet being mapped.
	Sheet string

	// Column is the source column index within the table region.
	Column int

	// Header is the column's header cell value.
	Header string

	// Values is the column's full data vector.
	Values []string

	// Sample is the leading slice of Values, sized per settings.
	Sample []string

	// Field is the candidate field being scored.
	Field Definition

	// Meta is the caller-supplied run metadata.
	Meta map[string]string

	// State is the shared per-run scratch state.
	State *run.State
}

// ColumnDetector scores how well one source column matches one field.
// Returned deltas accumulate additively with every other detector bound to
// the field; zero is an abstention. An error is recorded as a diagnostic and
// treated as an abstention.
type ColumnDetector interface {
	Name() string
	ScoreColumn(ctx ColumnContext) (float64, error)
}

// TableView is the read-only view of a table's committed state handed to
// transforms and validators. Vectors reflect every previously applied patch.
type TableView interface {
	// RowCount returns the number of data rows.
	RowCount() int

	// Field returns the committed vector for a field, or false when the
	// field has no values yet.
	Field(name string) ([]string, bool)
}

// TableContext carries the committed table state to a transform or
// validator invocation.
type TableContext struct {
	// Sheet is the name of the sheet being normalized.
	Sheet string

	// Field is the definition the hook is bound to.
	Field Definition

	// Values is the committed vector for the bound field, or nil when the
	// field has no values yet.
	Values []string

	// Table is the read-only view of all committed vectors.
	Table TableView

	// Meta is the caller-supplied run metadata.
	Meta map[string]string

	// State is the shared per-run scratch state.
	State *run.State
}

// Transform rewrites field values. Any returned error aborts the run as a
// pipeline error.
type Transform interface {
	Name() string
	Apply(ctx TableContext) (patch.TransformResult, error)
}

// Validator inspects field values and reports issues. Validators must not
// write values. Any returned error aborts the run as a pipeline error.
type Validator interface {
	Name() string
	Validate(ctx TableContext) (patch.ValidatorResult, error)
}
