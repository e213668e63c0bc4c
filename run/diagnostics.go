package run

import "fmt"

// DetectorFailure records a detector that returned an error. Failures are
// isolated: the detector is treated as having abstained and the run
// continues.
type DetectorFailure struct {
	// Stage is the pipeline stage the detector ran in (StageClassify or
	// StageMapping).
	Stage string

	// Detector is the detector's registered name.
	Detector string

	// Sheet is the name of the sheet being processed.
	Sheet string

	// Row is the row index for row detectors, -1 otherwise.
	Row int

	// Column is the source column index for column detectors, -1 otherwise.
	Column int

	// Field is the candidate field for column detectors, "" otherwise.
	Field string

	// Err is the error the detector returned.
	Err error
}

func (f DetectorFailure) String() string {
	switch {
	case f.Row >= 0:
		return fmt.Sprintf("%s: detector %q failed on sheet %q row %d: %v",
			f.Stage, f.Detector, f.Sheet, f.Row, f.Err)
	case f.Column >= 0:
		return fmt.Sprintf("%s: detector %q failed on sheet %q column %d field %q: %v",
			f.Stage, f.Detector, f.Sheet, f.Column, f.Field, f.Err)
	default:
		return fmt.Sprintf("%s: detector %q failed on sheet %q: %v",
			f.Stage, f.Detector, f.Sheet, f.Err)
	}
}

// Diagnostics accumulates non-fatal detector failures over a run.
type Diagnostics struct {
	failures []DetectorFailure
}

// NewDiagnostics creates an empty Diagnostics collector.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{}
}

// AddFailure records a detector failure.
func (d *Diagnostics) AddFailure(f DetectorFailure) {
	d.failures = append(d.failures, f)
}

// Failures returns all recorded failures in arrival order.
func (d *Diagnostics) Failures() []DetectorFailure {
	return d.failures
}

// Len returns the number of recorded failures.
func (d *Diagnostics) Len() int {
	return len(d.failures)
}
