// Package xlsx reads Office Open XML workbooks into sheets. Cell values
// collapse to plain strings at read time: shared and inline strings resolve,
// booleans become TRUE/FALSE, and numbers keep their raw form.
package xlsx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/tsawler/tabulary/run"
	"github.com/tsawler/tabulary/sheet"
)

// Workbook holds the fully materialized content of one XLSX file.
type Workbook struct {
	// Sheets are the worksheets in workbook order, width-trimmed with
	// trailing empty rows removed.
	Sheets []sheet.Sheet

	// Merges lists merged cell regions per sheet name.
	Merges map[string][]Merge
}

// Open reads the XLSX file at path.
func Open(path string) (*Workbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, run.Input(run.StageRead, fmt.Errorf("opening file: %w", err))
	}
	return Read(bytes.NewReader(data), int64(len(data)))
}

// Read reads an XLSX workbook from r.
func Read(r io.ReaderAt, size int64) (*Workbook, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, run.Input(run.StageRead, fmt.Errorf("opening ZIP archive: %w", err))
	}

	p := &parser{
		files:     make(map[string]*zip.File, len(zr.File)),
		sheetRels: make(map[string]string),
	}
	for _, f := range zr.File {
		p.files[f.Name] = f
	}

	if err := p.validate(); err != nil {
		return nil, err
	}
	if err := p.parseRelationships(); err != nil {
		return nil, run.Input(run.StageRead, fmt.Errorf("parsing relationships: %w", err))
	}
	if err := p.parseWorkbook(); err != nil {
		return nil, run.Input(run.StageRead, fmt.Errorf("parsing workbook: %w", err))
	}

	// Shared strings are optional
	if err := p.parseSharedStrings(); err != nil {
		return nil, run.Input(run.StageRead, fmt.Errorf("parsing shared strings: %w", err))
	}

	return p.parseWorksheets()
}

// parser accumulates workbook parts while reading.
type parser struct {
	files         map[string]*zip.File
	workbook      *workbookXML
	sharedStrings []string
	sheetRels     map[string]string // RID -> target path
}

// validate checks that required workbook members exist.
func (p *parser) validate() error {
	required := []string{
		"[Content_Types].xml",
		"xl/workbook.xml",
	}
	for _, name := range required {
		if _, ok := p.files[name]; !ok {
			return run.Inputf(run.StageRead, "missing required member: %s", name)
		}
	}
	return nil
}

// fileContent reads one member of the ZIP archive.
func (p *parser) fileContent(name string) ([]byte, error) {
	f, ok := p.files[name]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// parseRelationships parses the workbook relationships file.
func (p *parser) parseRelationships() error {
	data, err := p.fileContent("xl/_rels/workbook.xml.rels")
	if err != nil {
		// Try alternate location
		data, err = p.fileContent("xl/_rels/workbook.rels")
		if err != nil {
			return nil // Relationships are optional
		}
	}

	var rels relationshipsXML
	if err := xml.Unmarshal(data, &rels); err != nil {
		return err
	}
	for _, rel := range rels.Relationship {
		p.sheetRels[rel.ID] = rel.Target
	}
	return nil
}

// parseWorkbook parses the main workbook file.
func (p *parser) parseWorkbook() error {
	data, err := p.fileContent("xl/workbook.xml")
	if err != nil {
		return err
	}
	p.workbook = &workbookXML{}
	return xml.Unmarshal(data, p.workbook)
}

// parseSharedStrings parses the shared strings table, if present.
func (p *parser) parseSharedStrings() error {
	data, err := p.fileContent("xl/sharedStrings.xml")
	if err != nil {
		return nil
	}

	var sst sharedStringsXML
	if err := xml.Unmarshal(data, &sst); err != nil {
		return err
	}

	p.sharedStrings = make([]string, len(sst.SI))
	for i, si := range sst.SI {
		if si.T != "" {
			p.sharedStrings[i] = si.T
		} else {
			// Rich text - concatenate all runs
			var text strings.Builder
			for _, r := range si.R {
				text.WriteString(r.T)
			}
			p.sharedStrings[i] = text.String()
		}
	}
	return nil
}

// parseWorksheets parses every worksheet the workbook names. A sheet that
// cannot be located or parsed fails the whole read: a workbook that loses
// sheets silently would report totals that do not match the file.
func (p *parser) parseWorksheets() (*Workbook, error) {
	refs := p.workbook.Sheets.Sheet
	if len(refs) == 0 {
		return nil, run.Inputf(run.StageRead, "workbook has no sheets")
	}

	wb := &Workbook{
		Sheets: make([]sheet.Sheet, 0, len(refs)),
		Merges: make(map[string][]Merge),
	}

	for i, ref := range refs {
		name := ref.Name
		if name == "" {
			name = fmt.Sprintf("Sheet%d", i+1)
		}

		data, err := p.worksheetContent(ref, i)
		if err != nil {
			return nil, run.Input(run.StageRead, fmt.Errorf("sheet %q: %w", name, err))
		}

		s, merges, err := p.parseWorksheet(data, name)
		if err != nil {
			return nil, run.Input(run.StageRead, fmt.Errorf("sheet %q: %w", name, err))
		}

		wb.Sheets = append(wb.Sheets, s)
		if len(merges) > 0 {
			wb.Merges[name] = merges
		}
	}

	return wb, nil
}

// worksheetContent locates and reads one worksheet part, resolving the
// relationship target and falling back to the conventional path.
func (p *parser) worksheetContent(ref sheetRefXML, index int) ([]byte, error) {
	target := p.sheetRels[ref.RID]
	if target == "" {
		target = fmt.Sprintf("worksheets/sheet%d.xml", index+1)
	}

	if !strings.HasPrefix(target, "xl/") && !strings.HasPrefix(target, "/") {
		target = "xl/" + target
	}
	target = strings.TrimPrefix(target, "/")

	data, err := p.fileContent(target)
	if err != nil {
		target = strings.TrimPrefix(target, "xl/")
		data, err = p.fileContent("xl/" + target)
		if err != nil {
			return nil, err
		}
	}
	return data, nil
}

// parseWorksheet parses a single worksheet into a sheet.
func (p *parser) parseWorksheet(data []byte, name string) (sheet.Sheet, []Merge, error) {
	var ws worksheetXML
	if err := xml.Unmarshal(data, &ws); err != nil {
		return sheet.Sheet{}, nil, err
	}

	var merges []Merge
	if ws.MergeCells != nil {
		for _, mc := range ws.MergeCells.MergeCell {
			m, err := ParseRangeRef(mc.Ref)
			if err != nil {
				continue
			}
			merges = append(merges, m)
		}
	}

	// Resolve each cell's position once. Explicit references win; cells
	// and rows without them fall back to sequential placement, since some
	// writers omit the attributes.
	type placedCell struct {
		col   int
		value string
	}
	placed := make(map[int][]placedCell)
	maxRow, maxCol := -1, -1

	lastRow := -1
	for _, row := range ws.SheetData.Rows {
		rowIdx := row.R - 1
		if row.R == 0 {
			rowIdx = lastRow + 1
		}
		if rowIdx < 0 {
			continue
		}
		lastRow = rowIdx

		lastCol := -1
		for _, c := range row.Cells {
			col, _, err := ParseCellRef(c.R)
			if c.R == "" || err != nil {
				col = lastCol + 1
			}
			lastCol = col

			placed[rowIdx] = append(placed[rowIdx], placedCell{col: col, value: p.cellValue(c)})
			if col > maxCol {
				maxCol = col
			}
		}
		if rowIdx > maxRow {
			maxRow = rowIdx
		}
	}

	if maxRow < 0 {
		return sheet.New(name, nil), merges, nil
	}

	rows := make([][]string, maxRow+1)
	for i := range rows {
		rows[i] = make([]string, maxCol+1)
	}
	for rowIdx, cells := range placed {
		for _, c := range cells {
			rows[rowIdx][c.col] = c.value
		}
	}

	// A merge carries its value in the top-left cell only; blank anything
	// a writer duplicated into the spanned cells.
	for _, m := range merges {
		for row := m.StartRow; row <= m.EndRow && row < len(rows); row++ {
			for col := m.StartCol; col <= m.EndCol && col < len(rows[row]); col++ {
				if row == m.StartRow && col == m.StartCol {
					continue
				}
				rows[row][col] = ""
			}
		}
	}

	return sheet.New(name, rows).TrimTrailing(), merges, nil
}

// cellValue resolves one cell to its string form.
func (p *parser) cellValue(c cellXML) string {
	switch c.T {
	case "s": // Shared string
		idx, err := strconv.Atoi(c.V)
		if err == nil && idx >= 0 && idx < len(p.sharedStrings) {
			return p.sharedStrings[idx]
		}
		return ""
	case "b": // Boolean
		if c.V == "1" {
			return "TRUE"
		}
		return "FALSE"
	case "inlineStr":
		if c.Is != nil {
			return c.Is.text()
		}
		return ""
	default: // Number, formula string, error, or untyped
		return c.V
	}
}
