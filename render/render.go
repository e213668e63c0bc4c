// Package render writes normalized tables and run reports to output
// formats. Renderers consume the assembled output only; they never reach
// back into the engine.
package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/tsawler/tabulary/run"
	"github.com/tsawler/tabulary/tables"
)

// Config controls table rendering.
type Config struct {
	// IncludeHeader writes the column header row before the data rows.
	// Default: true
	IncludeHeader bool

	// Delimiter separates CSV fields.
	// Default: ','
	Delimiter rune
}

// DefaultConfig returns the default rendering configuration.
func DefaultConfig() Config {
	return Config{
		IncludeHeader: true,
		Delimiter:     ',',
	}
}

// headers returns the display headers of the table's columns.
func headers(t *tables.NormalizedTable) []string {
	out := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		out[i] = col.Header
	}
	return out
}

// CSV writes the table as delimiter-separated values.
func CSV(w io.Writer, t *tables.NormalizedTable, cfg Config) error {
	cw := csv.NewWriter(w)
	if cfg.Delimiter != 0 {
		cw.Comma = cfg.Delimiter
	}

	if cfg.IncludeHeader && len(t.Columns) > 0 {
		if err := cw.Write(headers(t)); err != nil {
			return run.Pipeline(run.StageRender, fmt.Errorf("writing header: %w", err))
		}
	}
	for _, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return run.Pipeline(run.StageRender, fmt.Errorf("writing row: %w", err))
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return run.Pipeline(run.StageRender, err)
	}
	return nil
}

// Text renders the table as tab-separated plain text.
func Text(t *tables.NormalizedTable, cfg Config) string {
	var result strings.Builder

	if cfg.IncludeHeader && len(t.Columns) > 0 {
		result.WriteString(strings.Join(headers(t), "\t"))
		result.WriteString("\n")
	}
	for _, row := range t.Rows {
		result.WriteString(strings.Join(row, "\t"))
		result.WriteString("\n")
	}

	return result.String()
}

// Markdown renders the table as a markdown table. The column headers form
// the header row; markdown has no headerless table, so Config does not
// apply here.
func Markdown(t *tables.NormalizedTable) string {
	if len(t.Columns) == 0 {
		return ""
	}

	var result strings.Builder

	result.WriteString("|")
	for _, h := range headers(t) {
		result.WriteString(" ")
		result.WriteString(escapeMarkdown(h))
		result.WriteString(" |")
	}
	result.WriteString("\n")

	result.WriteString("|")
	for range t.Columns {
		result.WriteString("---|")
	}
	result.WriteString("\n")

	for _, row := range t.Rows {
		result.WriteString("|")
		for _, cell := range row {
			result.WriteString(" ")
			result.WriteString(escapeMarkdown(cell))
			result.WriteString(" |")
		}
		result.WriteString("\n")
	}

	return result.String()
}

// escapeMarkdown escapes special markdown characters in table cells.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}

// JSON writes the run report as JSON. With indent set the output is
// pretty-printed.
func JSON(w io.Writer, report *tables.Report, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(report); err != nil {
		return run.Pipeline(run.StageRender, fmt.Errorf("encoding report: %w", err))
	}
	return nil
}
