package tables

import (
	"time"

	"github.com/google/uuid"
)

// Totals aggregates counters across every table in a run.
type Totals struct {
	Tables           int `json:"tables"`
	Rows             int `json:"rows"`
	Issues           int `json:"issues"`
	DetectorFailures int `json:"detector_failures"`
}

// Report is the result of one normalization run. It carries the tables
// produced for every input sheet plus run identity and timing, so a
// single report is enough to render output or audit what happened.
type Report struct {
	// RunID uniquely identifies the run.
	RunID string `json:"run_id"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Duration is the wall-clock time the run took.
	Duration time.Duration `json:"duration"`

	// Sheets is the number of input sheets processed, including sheets
	// that produced no tables.
	Sheets int `json:"sheets"`

	// Tables holds every normalized table, in sheet order then region
	// order within each sheet.
	Tables []*NormalizedTable `json:"tables"`

	// Failures lists detector errors that were skipped during the run.
	// Detector failures never abort a run; they are recorded here and
	// logged as they happen.
	Failures []string `json:"failures,omitempty"`

	// Totals aggregates the per-table summaries.
	Totals Totals `json:"totals"`
}

func newReport(sheets int) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Sheets:    sheets,
	}
}

// finish stamps the duration and recomputes the aggregate totals.
func (r *Report) finish(failures []string) {
	r.Duration = time.Since(r.StartedAt)
	r.Failures = failures
	r.Totals = Totals{DetectorFailures: len(failures)}
	for _, t := range r.Tables {
		r.Totals.Tables++
		r.Totals.Rows += t.Summary.Rows.Total
		r.Totals.Issues += t.Summary.Validation.Total
	}
}

// TablesFor returns the tables produced for the named sheet, in region
// order.
func (r *Report) TablesFor(sheet string) []*NormalizedTable {
	var out []*NormalizedTable
	for _, t := range r.Tables {
		if t.Sheet == sheet {
			out = append(out, t)
		}
	}
	return out
}
