// Package ods reads OpenDocument spreadsheets into sheets. Cell values
// collapse to plain strings at read time: typed cells yield their stored
// value (not the formatted display text), booleans become TRUE/FALSE, and
// covered cells of merged regions read as empty.
package ods

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

// maxRepeat caps the expansion of number-columns-repeated and
// number-rows-repeated. Writers declare filler at sheet edges spanning the
// whole grid (over a million rows); anything the cap lets through at the
// edges is dropped by TrimTrailing.
const maxRepeat = 1000

// Open reads the ODS file at path.
func Open(path string) ([]sheet.Sheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, run.Input(run.StageRead, fmt.Errorf("opening file: %w", err))
	}
	return Read(bytes.NewReader(data), int64(len(data)))
}

// Read reads an ODS document from r.
func Read(r io.ReaderAt, size int64) ([]sheet.Sheet, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, run.Input(run.StageRead, fmt.Errorf("opening ZIP archive: %w", err))
	}

	content, err := memberContent(zr, "content.xml")
	if err != nil {
		return nil, run.Input(run.StageRead, err)
	}

	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil, run.Input(run.StageRead, fmt.Errorf("parsing content: %w", err))
	}

	sheets := make([]sheet.Sheet, 0, len(doc.Body.Spreadsheet.Tables))
	for _, t := range doc.Body.Spreadsheet.Tables {
		sheets = append(sheets, sheet.New(t.Name, expandRows(t)).TrimTrailing())
	}
	if len(sheets) == 0 {
		return nil, run.Inputf(run.StageRead, "document has no sheets")
	}
	return sheets, nil
}

// memberContent reads one member of the ZIP archive.
func memberContent(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("missing required member: %s", name)
}

// expandRows materializes a table's grid: header rows first, then body
// rows, with row and cell repetitions applied.
func expandRows(t tableXML) [][]string {
	declared := append(append([]rowXML{}, t.HeaderRows.Rows...), t.Rows...)

	var rows [][]string
	for _, r := range declared {
		cells := expandCells(r)
		for n := repeatCount(r.Repeated); n > 0; n-- {
			rows = append(rows, append([]string(nil), cells...))
		}
	}
	return rows
}

// expandCells materializes one row, walking cells and covered cells in
// document order so merged regions keep their grid positions.
func expandCells(r rowXML) []string {
	var cells []string
	for _, item := range r.Items {
		value := ""
		if item.XMLName.Local == "table-cell" {
			value = item.value()
		}
		for n := repeatCount(item.Repeated); n > 0; n-- {
			cells = append(cells, value)
		}
	}
	return cells
}

// repeatCount parses a *-repeated attribute value. Missing or malformed
// counts mean one.
func repeatCount(s string) int {
	if s == "" {
		return 1
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	if n > maxRepeat {
		return maxRepeat
	}
	return n
}

// documentXML is the content.xml root (<office:document-content>).
type documentXML struct {
	XMLName xml.Name `xml:"document-content"`
	Body    bodyXML  `xml:"body"`
}

type bodyXML struct {
	Spreadsheet spreadsheetXML `xml:"spreadsheet"`
}

type spreadsheetXML struct {
	Tables []tableXML `xml:"table"`
}

// tableXML is one sheet (<table:table>).
type tableXML struct {
	Name       string        `xml:"name,attr"`
	HeaderRows headerRowsXML `xml:"table-header-rows"`
	Rows       []rowXML      `xml:"table-row"`
}

// headerRowsXML unwraps an optional <table:table-header-rows> group.
type headerRowsXML struct {
	Rows []rowXML `xml:"table-row"`
}

// rowXML is one row (<table:table-row>). Items collects table-cell and
// covered-table-cell children in document order; a split into separate
// slices would lose the interleaving that merged regions depend on.
type rowXML struct {
	Repeated string    `xml:"number-rows-repeated,attr"`
	Items    []cellXML `xml:",any"`
}

// cellXML is a cell or covered cell, distinguished by XMLName.
type cellXML struct {
	XMLName     xml.Name
	Repeated    string         `xml:"number-columns-repeated,attr"`
	ValueType   string         `xml:"value-type,attr"`
	Value       string         `xml:"value,attr"`
	DateValue   string         `xml:"date-value,attr"`
	TimeValue   string         `xml:"time-value,attr"`
	BoolValue   string         `xml:"boolean-value,attr"`
	StringValue string         `xml:"string-value,attr"`
	Paragraphs  []paragraphXML `xml:"p"`
}

// value extracts the cell's stored value. Typed cells prefer the typed
// attribute over the formatted paragraph text, so "1,234.50 EUR" reads as
// "1234.5".
func (c cellXML) value() string {
	switch c.ValueType {
	case "float", "percentage", "currency":
		if c.Value != "" {
			return c.Value
		}
	case "date":
		if c.DateValue != "" {
			return c.DateValue
		}
	case "time":
		if c.TimeValue != "" {
			return c.TimeValue
		}
	case "boolean":
		switch c.BoolValue {
		case "true":
			return "TRUE"
		case "false":
			return "FALSE"
		}
	case "string":
		if c.StringValue != "" {
			return c.StringValue
		}
	}

	texts := make([]string, 0, len(c.Paragraphs))
	for _, p := range c.Paragraphs {
		texts = append(texts, p.Text)
	}
	return strings.Join(texts, "\n")
}

// paragraphXML is one <text:p>. The custom unmarshal flattens nested spans
// and expands the ODF whitespace elements (text:s, text:tab,
// text:line-break) that writers use instead of literal whitespace.
type paragraphXML struct {
	Text string
}

func (p *paragraphXML) UnmarshalXML(d *xml.Decoder, _ xml.StartElement) error {
	var sb strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "s":
				count := 1
				for _, a := range t.Attr {
					if a.Name.Local == "c" {
						if n, err := strconv.Atoi(a.Value); err == nil && n > 0 {
							count = n
						}
					}
				}
				sb.WriteString(strings.Repeat(" ", count))
			case "tab":
				sb.WriteByte('\t')
			case "line-break":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			depth--
		case xml.CharData:
			sb.Write(t)
		}
	}
	p.Text = sb.String()
	return nil
}
