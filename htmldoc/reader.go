// Package htmldoc extracts tables from HTML documents into sheets.
package htmldoc

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/tsawler/tabulary/run"
	"github.com/tsawler/tabulary/sheet"
)

// Span attributes are clamped to the HTML spec limits.
const (
	maxColSpan = 1000
	maxRowSpan = 65534
)

// Open reads the HTML file at path and extracts its tables.
func Open(path string) ([]sheet.Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, run.Input(run.StageRead, fmt.Errorf("opening file: %w", err))
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Read(f, name)
}

// Read parses HTML from r and returns one sheet per <table>, in document
// order. A table's <caption> names its sheet; tables without one are named
// after the document, numbered when there is more than one. Tables with no
// content are dropped.
func Read(r io.Reader, name string) ([]sheet.Sheet, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, run.Input(run.StageRead, fmt.Errorf("parsing HTML: %w", err))
	}

	var captions []string
	var grids [][][]string
	for _, tbl := range collectTables(doc) {
		trimmed := sheet.New("", tableGrid(tableRows(tbl))).TrimTrailing()
		if len(trimmed.Rows) == 0 {
			continue
		}
		captions = append(captions, tableCaption(tbl))
		grids = append(grids, trimmed.Rows)
	}

	if len(grids) == 0 {
		return nil, run.Inputf(run.StageRead, "document has no tables")
	}

	sheets := make([]sheet.Sheet, len(grids))
	for i, rows := range grids {
		sheets[i] = sheet.Sheet{
			Name: tableName(name, captions[i], i, len(grids)),
			Rows: rows,
		}
	}
	return sheets, nil
}

// tableName picks a sheet name for the table at index.
func tableName(docName, caption string, index, total int) string {
	if caption != "" {
		return caption
	}
	if total == 1 {
		return docName
	}
	return fmt.Sprintf("%s (%d)", docName, index+1)
}

// collectTables finds every table element in document order. Tables nested
// inside another table's cells are collected in their own right.
func collectTables(n *html.Node) []*html.Node {
	var tables []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "table" {
			tables = append(tables, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return tables
}

// tableRows lists the tr elements of one table in source order, looking
// through thead, tbody, and tfoot sections. Rows of nested tables are not
// included.
func tableRows(tbl *html.Node) []*html.Node {
	var rows []*html.Node
	for c := tbl.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "thead", "tbody", "tfoot":
			for tr := c.FirstChild; tr != nil; tr = tr.NextSibling {
				if tr.Type == html.ElementNode && tr.Data == "tr" {
					rows = append(rows, tr)
				}
			}
		case "tr":
			rows = append(rows, c)
		}
	}
	return rows
}

// tableGrid expands the rows of a table into a cell grid. Row and column
// spans occupy their full rectangle with the value in the top-left cell
// only, matching how merged workbook regions read.
func tableGrid(trs []*html.Node) [][]string {
	type pos struct{ row, col int }
	reserved := make(map[pos]bool)
	grid := make([][]string, len(trs))

	for r, tr := range trs {
		col := 0
		for c := tr.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode || (c.Data != "td" && c.Data != "th") {
				continue
			}
			for reserved[pos{r, col}] {
				col++
			}

			rowSpan := spanAttr(c, "rowspan", maxRowSpan)
			colSpan := spanAttr(c, "colspan", maxColSpan)
			if rowSpan > len(trs)-r {
				rowSpan = len(trs) - r
			}

			text := cellText(c)
			for dr := 0; dr < rowSpan; dr++ {
				for dc := 0; dc < colSpan; dc++ {
					val := ""
					if dr == 0 && dc == 0 {
						val = text
					}
					putCell(grid, r+dr, col+dc, val)
					if dr > 0 {
						reserved[pos{r + dr, col + dc}] = true
					}
				}
			}
			col += colSpan
		}
	}
	return grid
}

// putCell writes val at (row, col), growing the row as needed.
func putCell(grid [][]string, row, col int, val string) {
	for len(grid[row]) <= col {
		grid[row] = append(grid[row], "")
	}
	if val != "" {
		grid[row][col] = val
	}
}

// spanAttr reads a rowspan or colspan attribute, defaulting to 1.
func spanAttr(n *html.Node, key string, max int) int {
	for _, attr := range n.Attr {
		if attr.Key != key {
			continue
		}
		v, err := strconv.Atoi(strings.TrimSpace(attr.Val))
		if err != nil || v < 1 {
			return 1
		}
		if v > max {
			return max
		}
		return v
	}
	return 1
}

// tableCaption returns the text of the table's caption element, if any.
func tableCaption(tbl *html.Node) string {
	for c := tbl.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "caption" {
			return cellText(c)
		}
	}
	return ""
}

// cellText extracts the text content of a cell with whitespace collapsed.
// Script, style, and similar non-content elements are skipped, as are
// nested tables, which become sheets of their own.
func cellText(n *html.Node) string {
	var b strings.Builder
	collectCellText(n, &b)
	return strings.Join(strings.Fields(b.String()), " ")
}

func collectCellText(n *html.Node, b *strings.Builder) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			b.WriteString(c.Data)
		case html.ElementNode:
			if skipInCell(c.Data) {
				continue
			}
			if c.Data == "br" {
				b.WriteString(" ")
			}
			collectCellText(c, b)
		}
	}
}

func skipInCell(tagName string) bool {
	switch tagName {
	case "script", "style", "noscript", "template", "svg", "math", "iframe", "object", "embed", "table":
		return true
	}
	return false
}
