package tabulary

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/tsawler/tabulary/builtin"
	"github.com/tsawler/tabulary/field"
	"github.com/tsawler/tabulary/run"
	"github.com/tsawler/tabulary/sheet"
	"github.com/tsawler/tabulary/tables"
)

// testRegistry builds a registry wired to the builtin header and shape
// detectors. Without explicit definitions it registers name and qty.
func testRegistry(t *testing.T, defs ...field.Definition) *field.Registry {
	t.Helper()
	if len(defs) == 0 {
		defs = []field.Definition{
			{Name: "name", Label: "Name", Required: true, Kind: field.KindString},
			{Name: "qty", Label: "Qty", Kind: field.KindNumber},
		}
	}

	reg := field.NewRegistry()
	for _, def := range defs {
		if err := reg.AddField(def); err != nil {
			t.Fatalf("AddField(%s): %v", def.Name, err)
		}
	}

	cat := builtin.Default()
	for _, use := range []string{"header_keywords", "value_shapes", "blank_rows"} {
		det, err := cat.RowDetector(use, builtin.FactoryContext{Fields: reg.Fields()})
		if err != nil {
			t.Fatalf("RowDetector(%s): %v", use, err)
		}
		reg.AddRowDetector(det)
	}
	for _, name := range reg.FieldNames() {
		det, err := cat.ColumnDetector("header_match", builtin.FactoryContext{
			Fields: reg.Fields(),
			Field:  name,
		})
		if err != nil {
			t.Fatalf("ColumnDetector(header_match) for %s: %v", name, err)
		}
		if err := reg.BindColumnDetector(name, det); err != nil {
			t.Fatalf("BindColumnDetector(%s): %v", name, err)
		}
	}
	return reg
}

// ordersSheet is a clean two-field table with a keyword header row.
func ordersSheet(name string) sheet.Sheet {
	return sheet.New(name, [][]string{
		{"Name", "Qty"},
		{"widget", "2"},
		{"gadget", "5"},
	})
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func table0(t *testing.T, report *tables.Report) *tables.NormalizedTable {
	t.Helper()
	if len(report.Tables) == 0 {
		t.Fatal("report has no tables")
	}
	return report.Tables[0]
}

func TestOpenMissingFile(t *testing.T) {
	_, _, err := Open("nonexistent.csv").Normalize()
	if err == nil {
		t.Fatal("expected error for non-existent file")
	}
	if !run.IsKind(err, run.KindInput) {
		t.Errorf("error = %v, want KindInput", err)
	}
}

func TestOpenNoInput(t *testing.T) {
	_, _, err := Open("").Normalize()
	if err == nil {
		t.Fatal("expected error for empty filename")
	}
	if !run.IsKind(err, run.KindConfiguration) {
		t.Errorf("error = %v, want KindConfiguration", err)
	}
}

func TestNormalizeCSV(t *testing.T) {
	path := writeFile(t, "orders.csv", "Name,Qty\nwidget,2\ngadget,5\n")

	report, warnings, err := Open(path).WithRegistry(testRegistry(t)).Normalize()
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
	if len(report.Tables) != 1 {
		t.Fatalf("got %d tables, want 1", len(report.Tables))
	}

	table := report.Tables[0]
	if table.Sheet != "orders" {
		t.Errorf("sheet = %q, want orders", table.Sheet)
	}
	if got := table.Field("name"); !reflect.DeepEqual(got, []string{"widget", "gadget"}) {
		t.Errorf("name values = %v", got)
	}
	if got := table.Field("qty"); !reflect.DeepEqual(got, []string{"2", "5"}) {
		t.Errorf("qty values = %v", got)
	}
}

func TestNormalizeTSV(t *testing.T) {
	path := writeFile(t, "orders.tsv", "Name\tQty\nwidget\t2\n")

	report, _, err := Open(path).WithRegistry(testRegistry(t)).Normalize()
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if got := table0(t, report).Field("name"); !reflect.DeepEqual(got, []string{"widget"}) {
		t.Errorf("name values = %v", got)
	}
}

func TestNormalizeODS(t *testing.T) {
	content := `<?xml version="1.0" encoding="UTF-8"?>
<office:document-content
    xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0"
    xmlns:table="urn:oasis:names:tc:opendocument:xmlns:table:1.0"
    xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0">
  <office:body><office:spreadsheet>
    <table:table table:name="orders">
      <table:table-row>
        <table:table-cell office:value-type="string"><text:p>Name</text:p></table:table-cell>
        <table:table-cell office:value-type="string"><text:p>Qty</text:p></table:table-cell>
      </table:table-row>
      <table:table-row>
        <table:table-cell office:value-type="string"><text:p>widget</text:p></table:table-cell>
        <table:table-cell office:value-type="float" office:value="2"><text:p>2</text:p></table:table-cell>
      </table:table-row>
    </table:table>
  </office:spreadsheet></office:body>
</office:document-content>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range map[string]string{
		"mimetype":    "application/vnd.oasis.opendocument.spreadsheet",
		"content.xml": content,
	} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(data)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "orders.ods")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	report, _, err := Open(path).WithRegistry(testRegistry(t)).Normalize()
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	table := table0(t, report)
	if table.Sheet != "orders" {
		t.Errorf("sheet = %q, want orders", table.Sheet)
	}
	if got := table.Field("qty"); !reflect.DeepEqual(got, []string{"2"}) {
		t.Errorf("qty values = %v", got)
	}
}

func TestUnrecognizedFormat(t *testing.T) {
	path := writeFile(t, "blob.bin", "\x00\x01\x02\x03\x00\x01\x02\x03")

	_, _, err := Open(path).Normalize()
	if err == nil {
		t.Fatal("expected error for unrecognized format")
	}
	if !strings.Contains(err.Error(), "unrecognized input format") {
		t.Errorf("error = %v, want unrecognized input format", err)
	}
}

func TestContentSniffing(t *testing.T) {
	// Extension says nothing, content is CSV.
	path := writeFile(t, "export.data", "Name,Qty\nwidget,2\ngadget,5\n")

	report, _, err := Open(path).WithRegistry(testRegistry(t)).Normalize()
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if len(report.Tables) != 1 {
		t.Fatalf("got %d tables, want 1", len(report.Tables))
	}
}

func TestFromSheets(t *testing.T) {
	report, warnings, err := FromSheets(ordersSheet("orders")).
		WithRegistry(testRegistry(t)).
		Normalize()
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
	if got := table0(t, report).Field("qty"); !reflect.DeepEqual(got, []string{"2", "5"}) {
		t.Errorf("qty values = %v", got)
	}
	if report.RunID == "" {
		t.Error("expected a run ID")
	}
}

func TestSheetSelection(t *testing.T) {
	n := FromSheets(ordersSheet("first"), ordersSheet("second"), ordersSheet("third")).
		WithRegistry(testRegistry(t))

	report, _, err := n.Sheets("third", "first").Normalize()
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	// Document order wins over argument order.
	var got []string
	for _, table := range report.Tables {
		got = append(got, table.Sheet)
	}
	if !reflect.DeepEqual(got, []string{"first", "third"}) {
		t.Errorf("sheets = %v, want [first third]", got)
	}
}

func TestSheetSelectionCumulative(t *testing.T) {
	report, _, err := FromSheets(ordersSheet("a"), ordersSheet("b"), ordersSheet("c")).
		WithRegistry(testRegistry(t)).
		Sheets("a").
		Sheets("c").
		Normalize()
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if len(report.Tables) != 2 {
		t.Errorf("got %d tables, want 2", len(report.Tables))
	}
}

func TestSheetSelectionMissing(t *testing.T) {
	_, _, err := FromSheets(ordersSheet("orders")).
		Sheets("Zebra", "Alpha").
		Normalize()
	if err == nil {
		t.Fatal("expected error for unknown sheet names")
	}
	if !run.IsKind(err, run.KindInput) {
		t.Errorf("error = %v, want KindInput", err)
	}
	// Missing names are reported sorted.
	if !strings.Contains(err.Error(), "Alpha, Zebra") {
		t.Errorf("error = %v, want sorted missing names", err)
	}
}

func TestSheetNames(t *testing.T) {
	names, err := FromSheets(ordersSheet("q1"), ordersSheet("q2")).SheetNames()
	if err != nil {
		t.Fatalf("SheetNames() error: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"q1", "q2"}) {
		t.Errorf("names = %v", names)
	}
}

func TestChainingDoesNotMutate(t *testing.T) {
	base := FromSheets(ordersSheet("orders")).WithRegistry(testRegistry(t))
	strict := base.Threshold(0.99).TiePolicy(run.TieLeaveUnmapped)

	if base.options.settings.MappingScoreThreshold == 0.99 {
		t.Error("Threshold() mutated the base normalizer")
	}
	if strict.options.settings.MappingScoreThreshold != 0.99 {
		t.Error("Threshold() not applied to the derived normalizer")
	}
	if strict.options.settings.MappingTieResolution != run.TieLeaveUnmapped {
		t.Error("TiePolicy() not applied to the derived normalizer")
	}

	// Both chains still run independently.
	if _, _, err := base.Normalize(); err != nil {
		t.Errorf("base Normalize() error: %v", err)
	}
	if _, _, err := strict.Normalize(); err != nil {
		t.Errorf("strict Normalize() error: %v", err)
	}
}

func TestIncludeUnmapped(t *testing.T) {
	s := sheet.New("orders", [][]string{
		{"Name", "Qty", "Notes"},
		{"widget", "2", "rush"},
	})

	report, _, err := FromSheets(s).
		WithRegistry(testRegistry(t)).
		IncludeUnmapped().
		Normalize()
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	table := table0(t, report)
	if len(table.Columns) != 3 {
		t.Fatalf("got %d columns, want 3 (two fields plus carried column)", len(table.Columns))
	}
	last := table.Columns[len(table.Columns)-1]
	if last.Field != "" {
		t.Errorf("carried column bound to field %q, want unmapped", last.Field)
	}
}

func TestWarnings(t *testing.T) {
	blank := sheet.New("blank", [][]string{{"", ""}, {"", ""}})
	reg := testRegistry(t,
		field.Definition{Name: "name", Label: "Name", Kind: field.KindString},
		field.Definition{Name: "qty", Label: "Qty", Kind: field.KindNumber},
		field.Definition{Name: "sku", Label: "SKU", Required: true, Kind: field.KindString},
	)

	_, warnings, err := FromSheets(ordersSheet("orders"), blank).
		WithRegistry(reg).
		Normalize()
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}

	codes := make(map[string]int)
	for _, w := range warnings {
		codes[w.Code]++
	}
	if codes[WarnEmptySheet] != 1 {
		t.Errorf("empty_sheet warnings = %d, want 1 (got %v)", codes[WarnEmptySheet], warnings)
	}
	if codes[WarnMissingRequired] != 1 {
		t.Errorf("missing_required warnings = %d, want 1 (got %v)", codes[WarnMissingRequired], warnings)
	}

	out := FormatWarnings(warnings)
	if !strings.Contains(out, `required field "sku"`) {
		t.Errorf("FormatWarnings() = %q, want sku mention", out)
	}
}

func TestNormalizeFile(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "orders.yaml")
	input := filepath.Join(dir, "orders.csv")

	manifestYAML := `version: "1"
row_detectors:
  - use: header_keywords
  - use: value_shapes
fields:
  - name: name
    label: Name
    detectors:
      - use: header_match
  - name: qty
    label: Qty
    detectors:
      - use: header_match
`
	if err := os.WriteFile(manifest, []byte(manifestYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(input, []byte("Name,Qty\nwidget,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	report, _, err := NormalizeFile(input, manifest)
	if err != nil {
		t.Fatalf("NormalizeFile() error: %v", err)
	}
	if got := table0(t, report).Field("name"); !reflect.DeepEqual(got, []string{"widget"}) {
		t.Errorf("name values = %v", got)
	}
}

func TestNormalizeFileBadManifest(t *testing.T) {
	input := writeFile(t, "orders.csv", "Name,Qty\nwidget,2\n")

	_, _, err := NormalizeFile(input, filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing manifest")
	}
	if !run.IsKind(err, run.KindConfiguration) {
		t.Errorf("error = %v, want KindConfiguration", err)
	}
}

func TestMust(t *testing.T) {
	names := Must(FromSheets(ordersSheet("orders")).SheetNames())
	if !reflect.DeepEqual(names, []string{"orders"}) {
		t.Errorf("names = %v", names)
	}

	defer func() {
		if recover() == nil {
			t.Error("expected Must to panic on error")
		}
	}()
	Must(Open("nonexistent.csv").SheetNames())
}

func TestMustNormalize(t *testing.T) {
	report := MustNormalize(FromSheets(ordersSheet("orders")).
		WithRegistry(testRegistry(t)).
		Normalize())
	if len(report.Tables) != 1 {
		t.Errorf("got %d tables, want 1", len(report.Tables))
	}

	defer func() {
		if recover() == nil {
			t.Error("expected MustNormalize to panic on error")
		}
	}()
	MustNormalize(Open("nonexistent.csv").Normalize())
}

func TestWarningString(t *testing.T) {
	w := Warning{Code: WarnEmptySheet, Sheet: "blank", Message: "no table regions detected"}
	if got := w.String(); got != `[empty_sheet] sheet "blank": no table regions detected` {
		t.Errorf("String() = %q", got)
	}

	w = Warning{Code: WarnDetectorFailed, Message: "boom"}
	if got := w.String(); got != "[detector_failed] boom" {
		t.Errorf("String() = %q", got)
	}

	if got := FormatWarnings(nil); got != "" {
		t.Errorf("FormatWarnings(nil) = %q, want empty", got)
	}
}
