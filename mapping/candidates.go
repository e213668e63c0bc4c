// Package mapping assigns source columns to registered fields. Candidate
// columns are sliced out of a table region, scored against every field by the
// registry's column detectors, and resolved into at most one column per field
// and at most one field per column.
package mapping

import (
	"github.com/tsawler/tabulary/layout"
	"github.com/tsawler/tabulary/sheet"
)

// SourceColumn is one column sliced from a table region.
type SourceColumn struct {
	// Index is the column's position within the region, zero-based.
	Index int

	// Header is the value of the header-row cell for this column.
	Header string

	// Values holds the column's data cells, one per region data row. Rows
	// shorter than the region's width contribute empty strings.
	Values []string
}

// Columns slices a region of a sheet into source columns. The region's width
// is the widest row between the header row and the last data row; every
// column vector has exactly region.RowCount() values.
func Columns(s sheet.Sheet, region layout.Region) []SourceColumn {
	width := regionWidth(s, region)
	rowCount := region.RowCount()

	out := make([]SourceColumn, width)
	for col := 0; col < width; col++ {
		values := make([]string, rowCount)
		for i := 0; i < rowCount; i++ {
			values[i] = s.Cell(region.DataStart+i, col)
		}
		out[col] = SourceColumn{
			Index:  col,
			Header: s.Cell(region.HeaderRow, col),
			Values: values,
		}
	}
	return out
}

// regionWidth returns the maximum row width across the region's header and
// data rows.
func regionWidth(s sheet.Sheet, region layout.Region) int {
	width := 0
	consider := func(row int) {
		if row >= 0 && row < len(s.Rows) && len(s.Rows[row]) > width {
			width = len(s.Rows[row])
		}
	}
	consider(region.HeaderRow)
	for i := region.DataStart; i < region.DataEnd; i++ {
		consider(i)
	}
	return width
}
