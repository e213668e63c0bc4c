// Package format provides input format detection for the tabulary library.
package format

import (
	"archive/zip"
	"bytes"
	"io"
	"path/filepath"
	"strings"
)

// Format represents a supported input format.
type Format int

const (
	// Unknown indicates an unrecognized format.
	Unknown Format = iota
	// XLSX indicates an Office Open XML workbook.
	XLSX
	// CSV indicates comma- or semicolon-delimited text.
	CSV
	// TSV indicates tab-delimited text.
	TSV
	// HTML indicates an HTML document.
	HTML
	// ODS indicates an OpenDocument spreadsheet.
	ODS
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case XLSX:
		return "XLSX"
	case CSV:
		return "CSV"
	case TSV:
		return "TSV"
	case HTML:
		return "HTML"
	case ODS:
		return "ODS"
	default:
		return "Unknown"
	}
}

// Extension returns the typical file extension for the format.
func (f Format) Extension() string {
	switch f {
	case XLSX:
		return ".xlsx"
	case CSV:
		return ".csv"
	case TSV:
		return ".tsv"
	case HTML:
		return ".html"
	case ODS:
		return ".ods"
	default:
		return ""
	}
}

// Detect determines file format from filename extension.
func Detect(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".xlsx":
		return XLSX
	case ".csv":
		return CSV
	case ".tsv", ".tab":
		return TSV
	case ".html", ".htm":
		return HTML
	case ".ods":
		return ODS
	default:
		return Unknown
	}
}

// DetectFromMagic checks leading bytes to determine format. Returns Unknown
// for ZIP data, which needs member inspection; use DetectFromReader for that.
func DetectFromMagic(data []byte) Format {
	if len(data) < 4 {
		return Unknown
	}

	// ZIP magic: PK\x03\x04. Could be XLSX or any other ZIP container.
	if data[0] == 0x50 && data[1] == 0x4B && data[2] == 0x03 && data[3] == 0x04 {
		return Unknown
	}

	if detectHTMLMagic(data) {
		return HTML
	}

	return Unknown
}

// detectHTMLMagic checks if the data looks like HTML content.
func detectHTMLMagic(data []byte) bool {
	start := 0
	for start < len(data) && (data[start] == ' ' || data[start] == '\t' || data[start] == '\n' || data[start] == '\r') {
		start++
	}
	if start >= len(data) {
		return false
	}
	data = data[start:]

	upper := strings.ToUpper(string(data))
	if strings.HasPrefix(upper, "<!DOCTYPE HTML") {
		return true
	}
	if strings.HasPrefix(upper, "<HTML") {
		return true
	}
	// XML declaration followed by html-like content could be XHTML.
	if strings.HasPrefix(upper, "<?XML") && strings.Contains(upper[:min(500, len(upper))], "<HTML") {
		return true
	}

	return false
}

// DetectFromReader inspects content to determine format. This is more
// reliable than extension-based detection: it distinguishes XLSX from other
// ZIP containers and sniffs the delimiter of plain-text input.
func DetectFromReader(r io.ReaderAt, size int64) (Format, error) {
	magic := make([]byte, 512)
	n, err := r.ReadAt(magic, 0)
	if err != nil && err != io.EOF {
		return Unknown, err
	}
	magic = magic[:n]

	if len(magic) >= 4 && magic[0] == 0x50 && magic[1] == 0x4B && magic[2] == 0x03 && magic[3] == 0x04 {
		return detectZIPFormat(r, size)
	}

	if detectHTMLMagic(magic) {
		return HTML, nil
	}

	if f := detectDelimited(magic); f != Unknown {
		return f, nil
	}

	return Unknown, nil
}

// odsMimetype is the declared media type of an OpenDocument spreadsheet.
const odsMimetype = "application/vnd.oasis.opendocument.spreadsheet"

// detectZIPFormat inspects a ZIP archive for workbook members. Office Open
// XML workbooks carry an xl/ tree; OpenDocument packages declare their
// media type in the mimetype member.
func detectZIPFormat(r io.ReaderAt, size int64) (Format, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return Unknown, err
	}

	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "xl/") {
			return XLSX, nil
		}
	}

	for _, f := range zr.File {
		if f.Name != "mimetype" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return Unknown, err
		}
		data, err := io.ReadAll(io.LimitReader(rc, 256))
		rc.Close()
		if err != nil {
			return Unknown, err
		}
		if strings.TrimSpace(string(data)) == odsMimetype {
			return ODS, nil
		}
		break
	}

	return Unknown, nil
}

// detectDelimited classifies text content as CSV or TSV by counting
// candidate delimiters on the first line. Binary content never matches,
// and content without a line break is left Unknown: one line of text is
// not enough evidence for a table.
func detectDelimited(data []byte) Format {
	if len(data) == 0 || bytes.IndexByte(data, 0) >= 0 {
		return Unknown
	}

	i := bytes.IndexByte(data, '\n')
	if i < 0 {
		return Unknown
	}
	line := data[:i]

	tabs := bytes.Count(line, []byte{'\t'})
	commas := bytes.Count(line, []byte{','}) + bytes.Count(line, []byte{';'})

	switch {
	case tabs > 0 && tabs >= commas:
		return TSV
	case commas > 0:
		return CSV
	default:
		return Unknown
	}
}
