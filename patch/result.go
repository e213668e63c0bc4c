package patch

// resultShape discriminates the return shapes hooks may use.
type resultShape int

const (
	shapeNone resultShape = iota
	shapeVector
	shapeVectors
	shapePatch
	shapeRecords
	shapeIssueVector
)

// TransformResult is what a transform hook returns. Construct one with
// NoChange, Vector, Vectors, or Changed; the zero value behaves like
// NoChange.
type TransformResult struct {
	shape   resultShape
	vector  []string
	vectors map[string][]string
	patch   *Patch
}

// NoChange reports that the transform left the table untouched.
func NoChange() TransformResult {
	return TransformResult{shape: shapeNone}
}

// Vector returns a full replacement vector for the field the transform was
// invoked for. The engine takes ownership of the slice.
func Vector(values []string) TransformResult {
	return TransformResult{shape: shapeVector, vector: values}
}

// Vectors returns replacement vectors for several fields at once, keyed by
// field name. This is how a transform writes derived fields.
func Vectors(byField map[string][]string) TransformResult {
	return TransformResult{shape: shapeVectors, vectors: byField}
}

// Changed returns a full patch envelope: values, issues, and metadata.
func Changed(p *Patch) TransformResult {
	return TransformResult{shape: shapePatch, patch: p}
}

// ValidatorResult is what a validator hook returns. Construct one with
// NoFindings, Findings, IssueVector, or Flagged; the zero value behaves like
// NoFindings.
type ValidatorResult struct {
	shape   resultShape
	records []IssueRecord
	cells   []IssueCell
	patch   *Patch
}

// NoFindings reports a clean pass.
func NoFindings() ValidatorResult {
	return ValidatorResult{shape: shapeNone}
}

// Findings returns sparse issue records, each addressed to an explicit row.
func Findings(records ...IssueRecord) ValidatorResult {
	return ValidatorResult{shape: shapeRecords, records: records}
}

// IssueVector returns one issue cell per data row for the field the
// validator was invoked for. The vector length must equal the row count;
// nil cells mark clean rows.
func IssueVector(cells []IssueCell) ValidatorResult {
	return ValidatorResult{shape: shapeIssueVector, cells: cells}
}

// Flagged returns a full patch envelope. Validators may attach issues and
// metadata this way but must not write values.
func Flagged(p *Patch) ValidatorResult {
	return ValidatorResult{shape: shapePatch, patch: p}
}
