package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/tsawler/tabulary/run"
	"github.com/tsawler/tabulary/tables"
)

// Excel caps worksheet names at 31 characters.
const maxSheetNameLen = 31

// XLSX writes every table of the report as a worksheet, one table per
// sheet, with a bold header row. When the report carries validation
// issues a final Issues sheet lists them per table, field, and row.
func XLSX(w io.Writer, report *tables.Report) error {
	f, err := buildWorkbook(report)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return run.Pipeline(run.StageRender, fmt.Errorf("writing workbook: %w", err))
	}
	return nil
}

// XLSXFile writes the report's workbook to the file at path.
func XLSXFile(path string, report *tables.Report) error {
	f, err := buildWorkbook(report)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return run.Pipeline(run.StageRender, fmt.Errorf("saving workbook: %w", err))
	}
	return nil
}

// XLSXBytes renders the report's workbook into memory.
func XLSXBytes(report *tables.Report) ([]byte, error) {
	f, err := buildWorkbook(report)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, run.Pipeline(run.StageRender, fmt.Errorf("writing workbook: %w", err))
	}
	return buf.Bytes(), nil
}

func buildWorkbook(report *tables.Report) (*excelize.File, error) {
	f := excelize.NewFile()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, run.Pipeline(run.StageRender, fmt.Errorf("creating header style: %w", err))
	}

	// Source sheets can yield several tables; number their worksheets.
	perSheet := make(map[string]int)
	for _, t := range report.Tables {
		perSheet[t.Sheet]++
	}
	seen := make(map[string]int)
	used := make(map[string]bool)

	for _, t := range report.Tables {
		base := t.Sheet
		if base == "" {
			base = "Table"
		}
		seen[t.Sheet]++
		if perSheet[t.Sheet] > 1 {
			base = fmt.Sprintf("%s (%d)", base, seen[t.Sheet])
		}
		name := worksheetName(base, used)

		if len(used) == 1 {
			// Rename the default sheet instead of leaving it empty.
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return nil, run.Pipeline(run.StageRender, fmt.Errorf("naming sheet %q: %w", name, err))
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, run.Pipeline(run.StageRender, fmt.Errorf("adding sheet %q: %w", name, err))
		}

		if err := writeTable(f, name, t, headerStyle); err != nil {
			return nil, err
		}
	}

	if reportHasIssues(report) {
		if err := writeIssueSheet(f, report, used, headerStyle); err != nil {
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

func writeTable(f *excelize.File, name string, t *tables.NormalizedTable, headerStyle int) error {
	row := 1
	if len(t.Columns) > 0 {
		cells := make([]interface{}, len(t.Columns))
		for i, col := range t.Columns {
			cells[i] = col.Header
		}
		if err := setRow(f, name, row, cells); err != nil {
			return err
		}
		last, _ := excelize.CoordinatesToCellName(len(t.Columns), 1)
		if err := f.SetCellStyle(name, "A1", last, headerStyle); err != nil {
			return run.Pipeline(run.StageRender, fmt.Errorf("styling header: %w", err))
		}
		row++
	}

	for _, r := range t.Rows {
		cells := make([]interface{}, len(r))
		for i, v := range r {
			cells[i] = v
		}
		if err := setRow(f, name, row, cells); err != nil {
			return err
		}
		row++
	}
	return nil
}

// writeIssueSheet appends one sheet listing every validation issue in the
// report: table order, then field name, then row.
func writeIssueSheet(f *excelize.File, report *tables.Report, used map[string]bool, headerStyle int) error {
	name := worksheetName("Issues", used)
	if _, err := f.NewSheet(name); err != nil {
		return run.Pipeline(run.StageRender, fmt.Errorf("adding sheet %q: %w", name, err))
	}

	header := []interface{}{"Table", "Field", "Row", "Severity", "Code", "Message"}
	if err := setRow(f, name, 1, header); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(name, "A1", last, headerStyle); err != nil {
		return run.Pipeline(run.StageRender, fmt.Errorf("styling header: %w", err))
	}

	rowNum := 2
	for _, t := range report.Tables {
		fields := make([]string, 0, len(t.Issues))
		for field := range t.Issues {
			fields = append(fields, field)
		}
		sort.Strings(fields)

		for _, field := range fields {
			for rowIdx, cell := range t.Issues[field] {
				for _, issue := range cell {
					cells := []interface{}{
						t.Sheet,
						field,
						rowIdx,
						issue.Severity.String(),
						issue.Code,
						issue.Message,
					}
					if err := setRow(f, name, rowNum, cells); err != nil {
						return err
					}
					rowNum++
				}
			}
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, cells []interface{}) error {
	if len(cells) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return run.Pipeline(run.StageRender, err)
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return run.Pipeline(run.StageRender, fmt.Errorf("writing row %d: %w", row, err))
	}
	return nil
}

// worksheetName makes base safe for Excel and unique within the workbook.
func worksheetName(base string, used map[string]bool) string {
	base = sanitizeSheetName(base)
	name := strings.TrimRight(truncateRunes(base, maxSheetNameLen), " ")
	for i := 2; used[name]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		name = strings.TrimRight(truncateRunes(base, maxSheetNameLen-len(suffix)), " ") + suffix
	}
	used[name] = true
	return name
}

var sheetNameSanitizer = strings.NewReplacer(
	"[", "(",
	"]", ")",
	":", "-",
	"*", "-",
	"?", "-",
	"/", "-",
	"\\", "-",
)

func sanitizeSheetName(name string) string {
	name = strings.TrimSpace(sheetNameSanitizer.Replace(name))
	// Excel also rejects names that begin or end with an apostrophe.
	name = strings.Trim(name, "'")
	if name == "" {
		return "Sheet"
	}
	return name
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// reportHasIssues reports whether any table carries validation issues.
func reportHasIssues(report *tables.Report) bool {
	for _, t := range report.Tables {
		if len(t.Issues) > 0 {
			return true
		}
	}
	return false
}
