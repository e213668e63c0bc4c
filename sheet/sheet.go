// Package sheet defines the rectangular cell-value model every input reader
// produces and the normalization engine consumes. Cell values are plain
// strings; the engine never sees source-format types.
package sheet

import "strings"

// Sheet is a snapshot of one worksheet's cell values. Rows may be ragged;
// consumers that need rectangular access should go through Cell, which pads
// with empty strings.
type Sheet struct {
	// Name is the worksheet name, or a reader-assigned name for formats
	// without one (CSV files, HTML tables).
	Name string

	// Rows holds cell values in row-major order.
	Rows [][]string
}

// New creates a Sheet with the given name and rows.
func New(name string, rows [][]string) Sheet {
	return Sheet{Name: name, Rows: rows}
}

// RowCount returns the number of rows.
func (s Sheet) RowCount() int {
	return len(s.Rows)
}

// MaxWidth returns the widest row's cell count.
func (s Sheet) MaxWidth() int {
	width := 0
	for _, row := range s.Rows {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}

// Cell returns the value at (row, col), or "" when out of range.
func (s Sheet) Cell(row, col int) string {
	if row < 0 || row >= len(s.Rows) {
		return ""
	}
	r := s.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}

// IsEmpty reports whether the sheet contains no non-empty cell.
func (s Sheet) IsEmpty() bool {
	for _, row := range s.Rows {
		if !IsEmptyRow(row) {
			return false
		}
	}
	return true
}

// TrimTrailing returns a copy with the trailing run of empty rows removed
// and each remaining row's trailing empty cells dropped. Leading and
// interior empty rows survive, so row indices keep their meaning for
// region detection. Input readers apply this before handing sheets to the
// engine.
func (s Sheet) TrimTrailing() Sheet {
	last := -1
	for i, row := range s.Rows {
		if !IsEmptyRow(row) {
			last = i
		}
	}
	if last == -1 {
		return Sheet{Name: s.Name}
	}

	rows := make([][]string, last+1)
	for i := 0; i <= last; i++ {
		src := s.Rows[i]
		width := len(src)
		for width > 0 && IsEmptyCell(src[width-1]) {
			width--
		}
		row := make([]string, width)
		copy(row, src[:width])
		rows[i] = row
	}

	return Sheet{Name: s.Name, Rows: rows}
}

// Clip returns a copy of the sheet reduced to the bounding box of non-empty
// content: leading and trailing empty rows and fully-empty right-hand columns
// are removed. Interior empty rows and columns are preserved. An empty sheet
// clips to zero rows.
func (s Sheet) Clip() Sheet {
	minRow, maxRow := -1, -1
	maxCol := -1

	for i, row := range s.Rows {
		rowHasContent := false
		for j, cell := range row {
			if !IsEmptyCell(cell) {
				rowHasContent = true
				if j > maxCol {
					maxCol = j
				}
			}
		}
		if rowHasContent {
			if minRow == -1 {
				minRow = i
			}
			maxRow = i
		}
	}

	if minRow == -1 {
		return Sheet{Name: s.Name}
	}

	rows := make([][]string, 0, maxRow-minRow+1)
	for i := minRow; i <= maxRow; i++ {
		src := s.Rows[i]
		if len(src) > maxCol+1 {
			src = src[:maxCol+1]
		}
		row := make([]string, len(src))
		copy(row, src)
		rows = append(rows, row)
	}

	return Sheet{Name: s.Name, Rows: rows}
}

// IsEmptyCell reports whether a cell value is empty or whitespace-only.
func IsEmptyCell(v string) bool {
	return strings.TrimSpace(v) == ""
}

// IsEmptyRow reports whether every cell in the row is empty.
func IsEmptyRow(row []string) bool {
	for _, cell := range row {
		if !IsEmptyCell(cell) {
			return false
		}
	}
	return true
}
