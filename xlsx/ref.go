package xlsx

import (
	"fmt"
	"strconv"
	"strings"
)

// Merge is a merged cell region in 0-indexed, inclusive coordinates. Only
// the top-left cell of a merge carries a value; the spanned cells read as
// empty.
type Merge struct {
	StartRow int
	StartCol int
	EndRow   int
	EndCol   int
}

// ParseCellRef parses a cell reference like "A1" or "AA100" into column and
// row indices (0-indexed).
func ParseCellRef(ref string) (col, row int, err error) {
	if ref == "" {
		return 0, 0, fmt.Errorf("empty cell reference")
	}

	// Find where letters end and numbers begin
	i := 0
	for i < len(ref) && isLetter(ref[i]) {
		i++
	}

	if i == 0 {
		return 0, 0, fmt.Errorf("invalid cell reference: no column letters")
	}
	if i == len(ref) {
		return 0, 0, fmt.Errorf("invalid cell reference: no row number")
	}

	colPart := ref[:i]
	rowPart := ref[i:]

	col = ColumnToIndex(colPart)
	if col < 0 {
		return 0, 0, fmt.Errorf("invalid column: %s", colPart)
	}

	// Rows are 1-indexed in the file format
	rowNum, err := strconv.Atoi(rowPart)
	if err != nil || rowNum < 1 {
		return 0, 0, fmt.Errorf("invalid row: %s", rowPart)
	}
	row = rowNum - 1

	return col, row, nil
}

// ColumnToIndex converts a column letter(s) to a 0-indexed column number.
// A=0, B=1, ..., Z=25, AA=26, AB=27, etc.
func ColumnToIndex(col string) int {
	col = strings.ToUpper(col)
	result := 0
	for _, c := range col {
		if c < 'A' || c > 'Z' {
			return -1
		}
		result = result*26 + int(c-'A') + 1
	}
	return result - 1
}

// IndexToColumn converts a 0-indexed column number to column letter(s).
// 0=A, 1=B, ..., 25=Z, 26=AA, 27=AB, etc.
func IndexToColumn(index int) string {
	if index < 0 {
		return ""
	}

	result := ""
	index++ // Convert to 1-indexed for calculation
	for index > 0 {
		index-- // Adjust for 0-based modulo
		result = string(rune('A'+index%26)) + result
		index /= 26
	}
	return result
}

// CellRef creates a cell reference string from column and row indices
// (0-indexed).
func CellRef(col, row int) string {
	return fmt.Sprintf("%s%d", IndexToColumn(col), row+1)
}

func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

/// ParseRangeRef parses a range reference like "A1:D10" into a Merge.
func ParseRangeRef(ref string) (Merge, error) {
	parts := strings.Split(ref, ":")
	if len(parts) != 2 {
		return Merge{}, fmt.Errorf("invalid range reference: %s", ref)
	}

	startCol, startRow, err := ParseCellRef(parts[0])
	if err != nil {
		return Merge{}, fmt.Errorf("invalid start cell: %w", err)
	}

	endCol, endRow, err := ParseCellRef(parts[1])
	if err != nil {
		return Merge{}, fmt.Errorf("invalid end cell: %w", err)
	}

	return Merge{
		StartRow: startRow,
		StartCol: startCol,
		EndRow:   endRow,
		EndCol:   endCol,
	}, nil
}
