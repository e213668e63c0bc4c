package layout

import (
	"github.com/tsawler/tabulary/field"
	"github.com/tsawler/tabulary/logger"
	"github.com/tsawler/tabulary/run"
	"github.com/tsawler/tabulary/sheet"
)

// RowScore holds the classification outcome for one row.
type RowScore struct {
	// Index is the zero-based row index within the sheet.
	Index int

	// Class is the winning row class, or field.ClassUnknown when no class
	// accumulated a positive score.
	Class string

	// Scores holds the accumulated score per class, including classes that
	// did not win. Retained for diagnostics and fallback region selection.
	Scores map[string]float64
}

// ClassifierConfig holds the inputs a Classifier needs for one run.
type ClassifierConfig struct {
	// Detectors are the row detectors to consult, in registration order.
	Detectors []field.RowDetector

	// Metadata is the caller-supplied run metadata passed to detectors.
	Metadata map[string]string

	// State is the shared per-run scratch state. A nil State gets a fresh one.
	State *run.State

	// Diagnostics collects detector failures. A nil value gets a fresh
	// collector.
	Diagnostics *run.Diagnostics

	// Logger receives a warning per detector failure. A nil value is
	// replaced with a no-op logger.
	Logger logger.Logger
}

// Classifier assigns a row class to every row of a sheet by accumulating
// detector votes.
type Classifier struct {
	detectors []field.RowDetector
	meta      map[string]string
	state     *run.State
	diags     *run.Diagnostics
	log       logger.Logger
}

// NewClassifier creates a Classifier from the given configuration.
func NewClassifier(cfg ClassifierConfig) *Classifier {
	if cfg.State == nil {
		cfg.State = run.NewState()
	}
	if cfg.Diagnostics == nil {
		cfg.Diagnostics = run.NewDiagnostics()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	return &Classifier{
		detectors: cfg.Detectors,
		meta:      cfg.Metadata,
		state:     cfg.State,
		diags:     cfg.Diagnostics,
		log:       cfg.Logger,
	}
}

// Classify scores every row of the sheet and returns one RowScore per row,
// in row order.
func (c *Classifier) Classify(s sheet.Sheet) []RowScore {
	out := make([]RowScore, len(s.Rows))

	for i, row := range s.Rows {
		scores := make(map[string]float64)
		ctx := field.RowContext{
			Sheet:  s.Name,
			Index:  i,
			Values: row,
			Meta:   c.meta,
			State:  c.state,
		}

		for _, d := range c.detectors {
			deltas, err := d.DetectRow(ctx)
			if err != nil {
				c.diags.AddFailure(run.DetectorFailure{
					Stage:    run.StageClassify,
					Detector: d.Name(),
					Sheet:    s.Name,
					Row:      i,
					Column:   -1,
					Err:      err,
				})
				c.log.Warn("row detector failed",
					"detector", d.Name(), "sheet", s.Name, "row", i, "error", err)
				continue
			}
			for class, delta := range deltas {
				scores[class] += delta
			}
		}

		out[i] = RowScore{Index: i, Class: winningClass(scores), Scores: scores}
	}

	return out
}

// winningClass picks the class with the highest positive accumulated score.
// Ties break toward the lexicographically smallest label; no positive score
// means unknown.
func winningClass(scores map[string]float64) string {
	best := ""
	var bestScore float64

	for class, score := range scores {
		if score <= 0 {
			continue
		}
		switch {
		case best == "" || score > bestScore:
			best = class
			bestScore = score
		case score == bestScore && class < best:
			best = class
		}
	}

	if best == "" {
		return field.ClassUnknown
	}
	return best
}
