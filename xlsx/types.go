package xlsx

import "encoding/xml"

// workbookXML represents the xl/workbook.xml file structure.
type workbookXML struct {
	XMLName xml.Name  `xml:"workbook"`
	Sheets  sheetsXML `xml:"sheets"`
}

type sheetsXML struct {
	Sheet []sheetRefXML `xml:"sheet"`
}

type sheetRefXML struct {
	Name    string `xml:"name,attr"`
	SheetID string `xml:"sheetId,attr"`
	RID     string `xml:"id,attr"` // r:id attribute for relationship
}

// worksheetXML represents a xl/worksheets/sheet*.xml file structure.
type worksheetXML struct {
	XMLName    xml.Name       `xml:"worksheet"`
	SheetData  sheetDataXML   `xml:"sheetData"`
	MergeCells *mergeCellsXML `xml:"mergeCells"`
}

type sheetDataXML struct {
	Rows []rowXML `xml:"row"`
}

type rowXML struct {
	R     int       `xml:"r,attr"` // Row number (1-indexed; 0 when omitted)
	Cells []cellXML `xml:"c"`
}

type cellXML struct {
	R  string        `xml:"r,attr"` // Cell reference (e.g., "A1")
	T  string        `xml:"t,attr"` // Type: s=shared string, n=number, b=bool, str=formula string, e=error
	V  string        `xml:"v"`      // Value
	Is *inlineStrXML `xml:"is"`     // Inline string (optional)
}

type inlineStrXML struct {
	T string       `xml:"t"` // Simple text
	R []runTextXML `xml:"r"` // Rich text runs
}

// text returns the inline string content, concatenating rich text runs.
func (is *inlineStrXML) text() string {
	if is.T != "" {
		return is.T
	}
	var b []byte
	for _, r := range is.R {
		b = append(b, r.T...)
	}
	return string(b)
}

type runTextXML struct {
	T string `xml:"t"`
}

type mergeCellsXML struct {
	MergeCell []mergeCellXML `xml:"mergeCell"`
}

type mergeCellXML struct {
	Ref string `xml:"ref,attr"` // e.g., "A1:B2"
}

// sharedStringsXML represents the xl/sharedStrings.xml file structure.
type sharedStringsXML struct {
	XMLName xml.Name `xml:"sst"`
	SI      []siXML  `xml:"si"`
}

type siXML struct {
	T string       `xml:"t"` // Simple text
	R []runTextXML `xml:"r"` // Rich text runs
}

// relationshipsXML represents .rels files.
type relationshipsXML struct {
	XMLName      xml.Name          `xml:"Relationships"`
	Relationship []relationshipXML `xml:"Relationship"`
}

type relationshipXML struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}
