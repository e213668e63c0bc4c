package ods

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/tsawler/tabulary/run"
	"github.com/tsawler/tabulary/sheet"
)

const mimetypeODS = "application/vnd.oasis.opendocument.spreadsheet"

// buildDocument assembles an ODS archive in memory around the given
// content.xml body.
func buildDocument(t *testing.T, content string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range map[string]string{
		"mimetype":    mimetypeODS,
		"content.xml": content,
	} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("Failed to create %s in zip: %v", name, err)
		}
		if _, err := w.Write([]byte(data)); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close zip writer: %v", err)
	}
	return buf.Bytes()
}

// contentXML wraps table markup in the document skeleton.
func contentXML(tables string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<office:document-content
    xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0"
    xmlns:table="urn:oasis:names:tc:opendocument:xmlns:table:1.0"
    xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0">
  <office:body>
    <office:spreadsheet>` + tables + `</office:spreadsheet>
  </office:body>
</office:document-content>`
}

func readDocument(t *testing.T, content string) []sheet.Sheet {
	t.Helper()

	data := buildDocument(t, content)
	sheets, err := Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	return sheets
}

func TestReadBasicSheet(t *testing.T) {
	sheets := readDocument(t, contentXML(`
      <table:table table:name="Orders">
        <table:table-row>
          <table:table-cell office:value-type="string"><text:p>Name</text:p></table:table-cell>
          <table:table-cell office:value-type="string"><text:p>Qty</text:p></table:table-cell>
        </table:table-row>
        <table:table-row>
          <table:table-cell office:value-type="string"><text:p>widget</text:p></table:table-cell>
          <table:table-cell office:value-type="float" office:value="2"><text:p>2</text:p></table:table-cell>
        </table:table-row>
      </table:table>`))

	if len(sheets) != 1 {
		t.Fatalf("got %d sheets, want 1", len(sheets))
	}
	s := sheets[0]
	if s.Name != "Orders" {
		t.Errorf("sheet name = %q, want Orders", s.Name)
	}
	want := [][]string{
		{"Name", "Qty"},
		{"widget", "2"},
	}
	if !reflect.DeepEqual(s.Rows, want) {
		t.Errorf("rows = %v, want %v", s.Rows, want)
	}
}

func TestTypedValuesBeatDisplayText(t *testing.T) {
	sheets := readDocument(t, contentXML(`
      <table:table table:name="Typed">
        <table:table-row>
          <table:table-cell office:value-type="float" office:value="1234.5"><text:p>1,234.50 EUR</text:p></table:table-cell>
          <table:table-cell office:value-type="date" office:date-value="2024-01-15"><text:p>15/01/2024</text:p></table:table-cell>
          <table:table-cell office:value-type="boolean" office:boolean-value="true"><text:p>WAHR</text:p></table:table-cell>
          <table:table-cell office:value-type="percentage" office:value="0.25"><text:p>25%</text:p></table:table-cell>
        </table:table-row>
      </table:table>`))

	want := []string{"1234.5", "2024-01-15", "TRUE", "0.25"}
	if !reflect.DeepEqual(sheets[0].Rows[0], want) {
		t.Errorf("row = %v, want %v", sheets[0].Rows[0], want)
	}
}

func TestRepeatedColumnsAndRows(t *testing.T) {
	sheets := readDocument(t, contentXML(`
      <table:table table:name="Repeat">
        <table:table-row>
          <table:table-cell office:value-type="string" table:number-columns-repeated="3"><text:p>x</text:p></table:table-cell>
          <table:table-cell office:value-type="string"><text:p>end</text:p></table:table-cell>
        </table:table-row>
        <table:table-row table:number-rows-repeated="2">
          <table:table-cell office:value-type="float" office:value="1"/>
          <table:table-cell table:number-columns-repeated="2"/>
          <table:table-cell office:value-type="float" office:value="4"/>
        </table:table-row>
      </table:table>`))

	want := [][]string{
		{"x", "x", "x", "end"},
		{"1", "", "", "4"},
		{"1", "", "", "4"},
	}
	if !reflect.DeepEqual(sheets[0].Rows, want) {
		t.Errorf("rows = %v, want %v", sheets[0].Rows, want)
	}
}

func TestCoveredCellsKeepGridPositions(t *testing.T) {
	// A1:B1 merged: the covered cell must still occupy column 1.
	sheets := readDocument(t, contentXML(`
      <table:table table:name="Merged">
        <table:table-row>
          <table:table-cell office:value-type="string" table:number-columns-spanned="2"><text:p>span</text:p></table:table-cell>
          <table:covered-table-cell/>
          <table:table-cell office:value-type="string"><text:p>right</text:p></table:table-cell>
        </table:table-row>
      </table:table>`))

	want := []string{"span", "", "right"}
	if !reflect.DeepEqual(sheets[0].Rows[0], want) {
		t.Errorf("row = %v, want %v", sheets[0].Rows[0], want)
	}
}

func TestTrailingFillerTrimmed(t *testing.T) {
	sheets := readDocument(t, contentXML(`
      <table:table table:name="Filler">
        <table:table-row>
          <table:table-cell office:value-type="string"><text:p>a</text:p></table:table-cell>
          <table:table-cell table:number-columns-repeated="16384"/>
        </table:table-row>
        <table:table-row table:number-rows-repeated="1048576"/>
      </table:table>`))

	want := [][]string{{"a"}}
	if !reflect.DeepEqual(sheets[0].Rows, want) {
		t.Errorf("rows = %v, want %v", sheets[0].Rows, want)
	}
}

func TestHeaderRowsComeFirst(t *testing.T) {
	sheets := readDocument(t, contentXML(`
      <table:table table:name="Wrapped">
        <table:table-header-rows>
          <table:table-row>
            <table:table-cell office:value-type="string"><text:p>h</text:p></table:table-cell>
          </table:table-row>
        </table:table-header-rows>
        <table:table-row>
          <table:table-cell office:value-type="string"><text:p>d</text:p></table:table-cell>
        </table:table-row>
      </table:table>`))

	want := [][]string{{"h"}, {"d"}}
	if !reflect.DeepEqual(sheets[0].Rows, want) {
		t.Errorf("rows = %v, want %v", sheets[0].Rows, want)
	}
}

func TestMultipleSheets(t *testing.T) {
	sheets := readDocument(t, contentXML(`
      <table:table table:name="Q1">
        <table:table-row><table:table-cell office:value-type="string"><text:p>a</text:p></table:table-cell></table:table-row>
      </table:table>
      <table:table table:name="Q2">
        <table:table-row><table:table-cell office:value-type="string"><text:p>b</text:p></table:table-cell></table:table-row>
      </table:table>`))

	if len(sheets) != 2 {
		t.Fatalf("got %d sheets, want 2", len(sheets))
	}
	if sheets[0].Name != "Q1" || sheets[1].Name != "Q2" {
		t.Errorf("sheet names = %q, %q", sheets[0].Name, sheets[1].Name)
	}
}

func TestWhitespaceElements(t *testing.T) {
	sheets := readDocument(t, contentXML(`
      <table:table table:name="WS">
        <table:table-row>
          <table:table-cell office:value-type="string"><text:p>a<text:s text:c="3"/>b<text:tab/>c</text:p></table:table-cell>
          <table:table-cell office:value-type="string"><text:p><text:span>nested </text:span><text:span>spans</text:span></text:p></table:table-cell>
        </table:table-row>
      </table:table>`))

	want := []string{"a   b\tc", "nested spans"}
	if !reflect.DeepEqual(sheets[0].Rows[0], want) {
		t.Errorf("row = %v, want %v", sheets[0].Rows[0], want)
	}
}

func TestMultipleParagraphsJoin(t *testing.T) {
	sheets := readDocument(t, contentXML(`
      <table:table table:name="Para">
        <table:table-row>
          <table:table-cell office:value-type="string"><text:p>line one</text:p><text:p>line two</text:p></table:table-cell>
        </table:table-row>
      </table:table>`))

	if got := sheets[0].Rows[0][0]; got != "line one\nline two" {
		t.Errorf("cell = %q, want joined lines", got)
	}
}

func TestMissingContentXML(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("mimetype")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(mimetypeODS)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	_, err = Read(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err == nil {
		t.Fatal("expected error for missing content.xml")
	}
	if !run.IsKind(err, run.KindInput) {
		t.Errorf("Read() error = %v, want KindInput", err)
	}
	if !strings.Contains(err.Error(), "content.xml") {
		t.Errorf("error = %v, want content.xml mention", err)
	}
}

func TestNoSheets(t *testing.T) {
	data := buildDocument(t, contentXML(""))
	_, err := Read(bytes.NewReader(data), int64(len(data)))
	if err == nil {
		t.Fatal("expected error for document without sheets")
	}
	if !run.IsKind(err, run.KindInput) {
		t.Errorf("Read() error = %v, want KindInput", err)
	}
}

func TestNotAZip(t *testing.T) {
	data := []byte("not a zip archive")
	_, err := Read(bytes.NewReader(data), int64(len(data)))
	if err == nil {
		t.Fatal("expected error for non-zip input")
	}
	if !run.IsKind(err, run.KindInput) {
		t.Errorf("Read() error = %v, want KindInput", err)
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.ods")
	data := buildDocument(t, contentXML(`
      <table:table table:name="Orders">
        <table:table-row>
          <table:table-cell office:value-type="string"><text:p>a</text:p></table:table-cell>
        </table:table-row>
      </table:table>`))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	sheets, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if len(sheets) != 1 || sheets[0].Name != "Orders" {
		t.Errorf("sheets = %v", sheets)
	}

	if _, err := Open(filepath.Join(t.TempDir(), "missing.ods")); err == nil {
		t.Error("expected error for missing file")
	}
}
