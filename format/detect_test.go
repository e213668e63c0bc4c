package format

import (
	"archive/zip"
	"bytes"
	"testing"
)

func TestFormat_String(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{XLSX, "XLSX"},
		{CSV, "CSV"},
		{TSV, "TSV"},
		{HTML, "HTML"},
		{ODS, "ODS"},
		{Unknown, "Unknown"},
		{Format(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.format.String(); got != tt.want {
			t.Errorf("Format(%d).String() = %q, want %q", tt.format, got, tt.want)
		}
	}
}

func TestFormat_Extension(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{XLSX, ".xlsx"},
		{CSV, ".csv"},
		{TSV, ".tsv"},
		{HTML, ".html"},
		{ODS, ".ods"},
		{Unknown, ""},
	}

	for _, tt := range tests {
		if got := tt.format.Extension(); got != tt.want {
			t.Errorf("Format(%d).Extension() = %q, want %q", tt.format, got, tt.want)
		}
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		filename string
		want     Format
	}{
		{"book.xlsx", XLSX},
		{"book.XLSX", XLSX},
		{"book.Xlsx", XLSX},
		{"export.csv", CSV},
		{"export.CSV", CSV},
		{"export.tsv", TSV},
		{"export.tab", TSV},
		{"page.html", HTML},
		{"page.HTML", HTML},
		{"page.htm", HTML},
		{"book.ods", ODS},
		{"book.ODS", ODS},
		{"notes.txt", Unknown},
		{"book", Unknown},
		{"", Unknown},
		{"/path/to/book.xlsx", XLSX},
		{"/path/to/export.csv", CSV},
		{"/path/to/page.html", HTML},
	}

	for _, tt := range tests {
		if got := Detect(tt.filename); got != tt.want {
			t.Errorf("Detect(%q) = %v, want %v", tt.filename, got, tt.want)
		}
	}
}

func TestDetectFromMagic(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Format
	}{
		{
			name: "ZIP magic bytes",
			data: []byte{0x50, 0x4B, 0x03, 0x04, 0x00, 0x00, 0x00, 0x00},
			want: Unknown, // ZIP needs member inspection
		},
		{
			name: "HTML with DOCTYPE",
			data: []byte("<!DOCTYPE html>\n<html>"),
			want: HTML,
		},
		{
			name: "HTML with html tag",
			data: []byte("<html><head>"),
			want: HTML,
		},
		{
			name: "HTML with whitespace before DOCTYPE",
			data: []byte("  \n  <!DOCTYPE HTML PUBLIC"),
			want: HTML,
		},
		{
			name: "empty data",
			data: []byte{},
			want: Unknown,
		},
		{
			name: "short data",
			data: []byte{0x50, 0x4B},
			want: Unknown,
		},
		{
			name: "random data",
			data: []byte{0x01, 0x02, 0x03, 0x04, 0x05},
			want: Unknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFromMagic(tt.data); got != tt.want {
				t.Errorf("DetectFromMagic() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectFromReader_XLSX(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range []string{"[Content_Types].xml", "xl/workbook.xml"} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("creating zip member: %v", err)
		}
		w.Write([]byte("<x/>"))
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}

	data := buf.Bytes()
	format, err := DetectFromReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("DetectFromReader() error = %v", err)
	}
	if format != XLSX {
		t.Errorf("DetectFromReader() = %v, want XLSX", format)
	}
}

func TestDetectFromReader_ZIPWithoutWorkbook(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("creating zip member: %v", err)
	}
	w.Write([]byte("<x/>"))
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}

	data := buf.Bytes()
	format, err := DetectFromReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("DetectFromReader() error = %v", err)
	}
	if format != Unknown {
		t.Errorf("DetectFromReader() = %v, want Unknown", format)
	}
}

func TestDetectFromReader_ODS(t *testing.T) {
	tests := []struct {
		name     string
		mimetype string
		want     Format
	}{
		{"spreadsheet", "application/vnd.oasis.opendocument.spreadsheet", ODS},
		{"text document", "application/vnd.oasis.opendocument.text", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			zw := zip.NewWriter(&buf)
			for name, content := range map[string]string{
				"mimetype":    tt.mimetype,
				"content.xml": "<x/>",
			} {
				w, err := zw.Create(name)
				if err != nil {
					t.Fatalf("creating zip member: %v", err)
				}
				w.Write([]byte(content))
			}
			if err := zw.Close(); err != nil {
				t.Fatalf("closing zip: %v", err)
			}

			data := buf.Bytes()
			format, err := DetectFromReader(bytes.NewReader(data), int64(len(data)))
			if err != nil {
				t.Fatalf("DetectFromReader() error = %v", err)
			}
			if format != tt.want {
				t.Errorf("DetectFromReader() = %v, want %v", format, tt.want)
			}
		})
	}
}

func TestDetectFromReader_HTML(t *testing.T) {
	data := []byte("<!DOCTYPE html>\n<html><head><title>Test</title></head><body></body></html>")
	r := bytes.NewReader(data)

	format, err := DetectFromReader(r, int64(len(data)))
	if err != nil {
		t.Fatalf("DetectFromReader() error = %v", err)
	}
	if format != HTML {
		t.Errorf("DetectFromReader() = %v, want HTML", format)
	}
}

func TestDetectFromReader_Delimited(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Format
	}{
		{"comma separated", "name,qty,price\nwidget,3,1.50\n", CSV},
		{"semicolon separated", "name;qty;price\nwidget;3;1,50\n", CSV},
		{"tab separated", "name\tqty\tprice\nwidget\t3\t1.50\n", TSV},
		{"single line without break", "Hello, World! This is plain text.", Unknown},
		{"prose without delimiters", "first line\nsecond line\n", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := bytes.NewReader([]byte(tt.data))
			format, err := DetectFromReader(r, int64(len(tt.data)))
			if err != nil {
				t.Fatalf("DetectFromReader() error = %v", err)
			}
			if format != tt.want {
				t.Errorf("DetectFromReader() = %v, want %v", format, tt.want)
			}
		})
	}
}
