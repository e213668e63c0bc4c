package tabulary

import (
	"fmt"
	"strings"

	"github.com/tsawler/tabulary/sheet"
	"github.com/tsawler/tabulary/tables"
)

// Warning codes.
const (
	// WarnEmptySheet marks an input sheet that produced no tables.
	WarnEmptySheet = "empty_sheet"

	// WarnInferredHeader marks a table whose header row was inferred rather
	// than detected.
	WarnInferredHeader = "inferred_header"

	// WarnMissingRequired marks a table with a required field no source
	// column satisfied.
	WarnMissingRequired = "missing_required"

	// WarnDetectorFailed marks a detector error that was skipped during the
	// run.
	WarnDetectorFailed = "detector_failed"
)

// Warning describes a non-fatal condition found during a run. Warnings never
// stop a run; they point at places in the output worth checking.
type Warning struct {
	// Code identifies the condition.
	Code string

	// Sheet names the input sheet involved, when one is.
	Sheet string

	// Message describes the condition.
	Message string
}

func (w Warning) String() string {
	if w.Sheet != "" {
		return fmt.Sprintf("[%s] sheet %q: %s", w.Code, w.Sheet, w.Message)
	}
	return fmt.Sprintf("[%s] %s", w.Code, w.Message)
}

// FormatWarnings joins warnings into a printable string, one per line.
func FormatWarnings(warnings []Warning) string {
	if len(warnings) == 0 {
		return ""
	}
	lines := make([]string, len(warnings))
	for i, w := range warnings {
		lines[i] = w.String()
	}
	return strings.Join(lines, "\n")
}

// collectWarnings derives warnings from a finished report: sheets that
// yielded nothing, inferred headers, unsatisfied required fields, and
// detector failures, in that order.
func collectWarnings(report *tables.Report, sheets []sheet.Sheet) []Warning {
	var out []Warning

	produced := make(map[string]int, len(sheets))
	for _, t := range report.Tables {
		produced[t.Sheet]++
	}
	for _, s := range sheets {
		if produced[s.Name] == 0 {
			out = append(out, Warning{
				Code:    WarnEmptySheet,
				Sheet:   s.Name,
				Message: "no table regions detected",
			})
		}
	}

	for _, t := range report.Tables {
		if t.Region.HeaderInferred {
			out = append(out, Warning{
				Code:    WarnInferredHeader,
				Sheet:   t.Sheet,
				Message: fmt.Sprintf("header inferred at row %d", t.Region.HeaderRow),
			})
		}
		for _, name := range t.MissingRequired {
			out = append(out, Warning{
				Code:    WarnMissingRequired,
				Sheet:   t.Sheet,
				Message: fmt.Sprintf("required field %q has no source column", name),
			})
		}
	}

	for _, failure := range report.Failures {
		out = append(out, Warning{Code: WarnDetectorFailed, Message: failure})
	}
	return out
}
