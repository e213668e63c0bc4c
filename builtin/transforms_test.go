package builtin

import (
	"reflect"
	"testing"

	"github.com/tsawler/tabulary/field"
	"github.com/tsawler/tabulary/patch"
)

type fieldSet map[string]bool

func (s fieldSet) Has(name string) bool { return s[name] }

var testFields = fieldSet{
	"name": true, "amount": true, "when": true, "status": true,
	"full_name": true, "first": true, "last": true,
}

// stubView is a minimal committed-state view for table-scoped hooks.
type stubView struct {
	rows int
	data map[string][]string
}

func (v stubView) RowCount() int { return v.rows }

func (v stubView) Field(name string) ([]string, bool) {
	vec, ok := v.data[name]
	return vec, ok
}

func applyTransform(t *testing.T, tr field.Transform, ctx field.TableContext, rows int) *patch.Patch {
	t.Helper()
	res, err := tr.Apply(ctx)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	p, err := patch.NormalizeTransform(res, ctx.Field.Name, rows, testFields)
	if err != nil {
		t.Fatalf("NormalizeTransform: %v", err)
	}
	return p
}

func TestTrim(t *testing.T) {
	tr := NewTrim(DefaultTrimConfig())
	ctx := field.TableContext{
		Field:  field.Definition{Name: "name"},
		Values: []string{"  widget ", "a\t b", "ok"},
	}

	p := applyTransform(t, tr, ctx, 3)
	want := []string{"widget", "a b", "ok"}
	if !reflect.DeepEqual(p.Values["name"], want) {
		t.Errorf("Expected %v, got %v", want, p.Values["name"])
	}
}

func TestTrimNoChangeIsNoOp(t *testing.T) {
	tr := NewTrim(DefaultTrimConfig())
	ctx := field.TableContext{
		Field:  field.Definition{Name: "name"},
		Values: []string{"a", "b"},
	}

	p := applyTransform(t, tr, ctx, 2)
	if !p.IsEmpty() {
		t.Errorf("Expected an empty patch for unchanged values, got %+v", p)
	}
}

func TestTrimWithoutCollapse(t *testing.T) {
	tr := NewTrim(TrimConfig{Collapse: false})
	ctx := field.TableContext{
		Field:  field.Definition{Name: "name"},
		Values: []string{" a  b "},
	}

	p := applyTransform(t, tr, ctx, 1)
	if got := p.Values["name"][0]; got != "a  b" {
		t.Errorf("Expected inner whitespace kept, got %q", got)
	}
}

func TestTextNormalize(t *testing.T) {
	tr, err := NewTextNormalize(TextNormalizeConfig{Case: "lower", StripDiacritics: true})
	if err != nil {
		t.Fatalf("NewTextNormalize: %v", err)
	}
	ctx := field.TableContext{
		Field:  field.Definition{Name: "name"},
		Values: []string{"Café", "BAR"},
	}

	p := applyTransform(t, tr, ctx, 2)
	want := []string{"cafe", "bar"}
	if !reflect.DeepEqual(p.Values["name"], want) {
		t.Errorf("Expected %v, got %v", want, p.Values["name"])
	}
}

func TestTextNormalizeRejectsUnknownCase(t *testing.T) {
	if _, err := NewTextNormalize(TextNormalizeConfig{Case: "title"}); err == nil {
		t.Error("Expected an error for an unknown case mode")
	}
}

func TestNumberCanonicalizesAndFlags(t *testing.T) {
	tr := NewNumber(NumberConfig{})
	ctx := field.TableContext{
		Field:  field.Definition{Name: "amount"},
		Values: []string{"1,234.50", "€ 99", "twelve", "", "7"},
	}

	p := applyTransform(t, tr, ctx, 5)

	want := []string{"1234.5", "99", "twelve", "", "7"}
	if !reflect.DeepEqual(p.Values["amount"], want) {
		t.Errorf("Expected %v, got %v", want, p.Values["amount"])
	}

	cells := p.Issues["amount"]
	if len(cells) != 5 {
		t.Fatalf("Expected a dense issue vector, got %d cells", len(cells))
	}
	if len(cells[2]) != 1 || cells[2][0].Code != "invalid_number" {
		t.Errorf("Expected invalid_number on row 2, got %+v", cells[2])
	}
	if cells[2][0].Severity != patch.SeverityWarning {
		t.Errorf("Expected warning severity, got %s", cells[2][0].Severity)
	}
	if len(cells[3]) != 0 {
		t.Errorf("Expected empty cells unflagged, got %+v", cells[3])
	}
}

func TestDateCanonicalizes(t *testing.T) {
	tr := NewDate(DateConfig{})
	ctx := field.TableContext{
		Field:  field.Definition{Name: "when"},
		Values: []string{"2026/01/31", "Jan 2, 2026", "soon", ""},
	}

	p := applyTransform(t, tr, ctx, 4)

	want := []string{"2026-01-31", "2026-01-02", "soon", ""}
	if !reflect.DeepEqual(p.Values["when"], want) {
		t.Errorf("Expected %v, got %v", want, p.Values["when"])
	}
	cells := p.Issues["when"]
	if len(cells[2]) != 1 || cells[2][0].Code != "invalid_date" {
		t.Errorf("Expected invalid_date on row 2, got %+v", cells[2])
	}
}

func TestDateCustomOutput(t *testing.T) {
	tr := NewDate(DateConfig{Output: "02/01/2006"})
	ctx := field.TableContext{
		Field:  field.Definition{Name: "when"},
		Values: []string{"2026-01-31"},
	}

	p := applyTransform(t, tr, ctx, 1)
	if got := p.Values["when"][0]; got != "31/01/2026" {
		t.Errorf("Expected 31/01/2026, got %q", got)
	}
}

func TestMapValues(t *testing.T) {
	tr, err := NewMapValues(MapValuesConfig{
		Mapping: map[string]string{"y": "yes", "N": "no"},
		Fold:    true,
	})
	if err != nil {
		t.Fatalf("NewMapValues: %v", err)
	}
	ctx := field.TableContext{
		Field:  field.Definition{Name: "status"},
		Values: []string{"Y", "n", "maybe", ""},
	}

	p := applyTransform(t, tr, ctx, 4)
	want := []string{"yes", "no", "maybe", ""}
	if !reflect.DeepEqual(p.Values["status"], want) {
		t.Errorf("Expected %v, got %v", want, p.Values["status"])
	}
}

func TestMapValuesDefault(t *testing.T) {
	cfg := DefaultMapValuesConfig()
	cfg.Mapping = map[string]string{"y": "yes"}
	cfg.Default = "unknown"
	cfg.HasDefault = true
	tr, err := NewMapValues(cfg)
	if err != nil {
		t.Fatalf("NewMapValues: %v", err)
	}
	ctx := field.TableContext{
		Field:  field.Definition{Name: "status"},
		Values: []string{"y", "whatever"},
	}

	p := applyTransform(t, tr, ctx, 2)
	want := []string{"yes", "unknown"}
	if !reflect.DeepEqual(p.Values["status"], want) {
		t.Errorf("Expected %v, got %v", want, p.Values["status"])
	}
}

func TestMapValuesRequiresMapping(t *testing.T) {
	if _, err := NewMapValues(MapValuesConfig{}); err == nil {
		t.Error("Expected an error for an empty mapping")
	}
}

func TestConcatBuildsDerivedValues(t *testing.T) {
	tr, err := NewConcat(ConcatConfig{Sources: []string{"first", "last"}})
	if err != nil {
		t.Fatalf("NewConcat: %v", err)
	}
	view := stubView{rows: 2, data: map[string][]string{
		"first": {"Ada", "Grace"},
		"last":  {"Lovelace", ""},
	}}
	ctx := field.TableContext{
		Field: field.Definition{Name: "full_name"},
		Table: view,
	}

	p := applyTransform(t, tr, ctx, 2)
	want := []string{"Ada Lovelace", "Grace"}
	if !reflect.DeepEqual(p.Values["full_name"], want) {
		t.Errorf("Expected %v, got %v", want, p.Values["full_name"])
	}
}

func TestConcatMissingSourceReadsEmpty(t *testing.T) {
	tr, err := NewConcat(ConcatConfig{Sources: []string{"first", "middle"}, Separator: "-"})
	if err != nil {
		t.Fatalf("NewConcat: %v", err)
	}
	view := stubView{rows: 1, data: map[string][]string{"first": {"Ada"}}}
	ctx := field.TableContext{Field: field.Definition{Name: "full_name"}, Table: view}

	p := applyTransform(t, tr, ctx, 1)
	if got := p.Values["full_name"][0]; got != "Ada" {
		t.Errorf("Expected missing sources skipped, got %q", got)
	}
}

func TestConcatRequiresSources(t *testing.T) {
	if _, err := NewConcat(ConcatConfig{}); err == nil {
		t.Error("Expected an error for missing sources")
	}
}

func TestTransformsNoChangeOnNilValues(t *testing.T) {
	trims := NewTrim(DefaultTrimConfig())
	num := NewNumber(NumberConfig{})
	date := NewDate(DateConfig{})
	ctx := field.TableContext{Field: field.Definition{Name: "amount"}}

	for _, tr := range []field.Transform{trims, num, date} {
		res, err := tr.Apply(ctx)
		if err != nil {
			t.Fatalf("%s: %v", tr.Name(), err)
		}
		p, err := patch.NormalizeTransform(res, "amount", 3, testFields)
		if err != nil {
			t.Fatalf("%s: NormalizeTransform: %v", tr.Name(), err)
		}
		if !p.IsEmpty() {
			t.Errorf("%s: Expected a no-op on nil values, got %+v", tr.Name(), p)
		}
	}
}
