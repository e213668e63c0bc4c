package builtin

import (
	"fmt"
	"strings"

	"github.com/tsawler/tabulary/field"
	"github.com/tsawler/tabulary/patch"
	"github.com/tsawler/tabulary/run"
	"github.com/tsawler/tabulary/sheet"
)

// TrimConfig configures whitespace trimming.
type TrimConfig struct {
	// Collapse also folds internal whitespace runs to a single space.
	// Default: true.
	Collapse bool
}

// DefaultTrimConfig returns the default trim configuration.
func DefaultTrimConfig() TrimConfig {
	return TrimConfig{Collapse: true}
}

// Trim strips leading and trailing whitespace from every value.
type Trim struct {
	collapse bool
}

// NewTrim creates the transform.
func NewTrim(cfg TrimConfig) *Trim {
	return &Trim{collapse: cfg.Collapse}
}

func (tr *Trim) Name() string { return "trim" }

func (tr *Trim) Apply(ctx field.TableContext) (patch.TransformResult, error) {
	if ctx.Values == nil {
		return patch.NoChange(), nil
	}
	changed := false
	out := make([]string, len(ctx.Values))
	for i, v := range ctx.Values {
		nv := strings.TrimSpace(v)
		if tr.collapse {
			nv = strings.Join(strings.Fields(nv), " ")
		}
		out[i] = nv
		if nv != v {
			changed = true
		}
	}
	if !changed {
		return patch.NoChange(), nil
	}
	return patch.Vector(out), nil
}

// TextNormalizeConfig configures text normalization.
type TextNormalizeConfig struct {
	// Case is "lower", "upper" or "" for unchanged. Default: "".
	Case string

	// StripDiacritics removes combining marks. Default: false.
	StripDiacritics bool
}

// TextNormalize rewrites values to a canonical textual form.
type TextNormalize struct {
	casing     string
	diacritics bool
}

// NewTextNormalize creates the transform.
func NewTextNormalize(cfg TextNormalizeConfig) (*TextNormalize, error) {
	switch cfg.Case {
	case "", "lower", "upper":
	default:
		return nil, run.Configurationf(run.StageConfigure,
			"normalize_text: unknown case %q", cfg.Case)
	}
	return &TextNormalize{casing: cfg.Case, diacritics: cfg.StripDiacritics}, nil
}

func (tr *TextNormalize) Name() string { return "normalize_text" }

func (tr *TextNormalize) Apply(ctx field.TableContext) (patch.TransformResult, error) {
	if ctx.Values == nil {
		return patch.NoChange(), nil
	}
	changed := false
	out := make([]string, len(ctx.Values))
	for i, v := range ctx.Values {
		nv := v
		if tr.diacritics {
			nv = stripDiacritics(nv)
		}
		switch tr.casing {
		case "lower":
			nv = strings.ToLower(nv)
		case "upper":
			nv = strings.ToUpper(nv)
		}
		out[i] = nv
		if nv != v {
			changed = true
		}
	}
	if !changed {
		return patch.NoChange(), nil
	}
	return patch.Vector(out), nil
}

// NumberConfig configures number canonicalization.
type NumberConfig struct {
	// Currency lists the currency markers stripped before parsing.
	// Default: "$€£¥".
	Currency string
}

// Number rewrites parseable values to canonical decimal form ("1,234.50"
// becomes "1234.5") and attaches a warning issue to values that parse as
// nothing numeric. Empty cells pass through untouched.
type Number struct {
	currency string
}

// NewNumber creates the transform.
func NewNumber(cfg NumberConfig) *Number {
	return &Number{currency: cfg.Currency}
}

func (tr *Number) Name() string { return "normalize_number" }

func (tr *Number) Apply(ctx field.TableContext) (patch.TransformResult, error) {
	if ctx.Values == nil {
		return patch.NoChange(), nil
	}
	name := ctx.Field.Name
	changed := false
	out := make([]string, len(ctx.Values))
	var issues []patch.IssueCell
	for i, v := range ctx.Values {
		out[i] = v
		if sheet.IsEmptyCell(v) {
			continue
		}
		d, ok := canonNumber(v, tr.currency)
		if !ok {
			if issues == nil {
				issues = make([]patch.IssueCell, len(ctx.Values))
			}
			issues[i] = append(issues[i], patch.Issue{
				Message:  fmt.Sprintf("cannot parse %q as a number", v),
				Severity: patch.SeverityWarning,
				Code:     "invalid_number",
			})
			continue
		}
		if s := d.String(); s != v {
			out[i] = s
			changed = true
		}
	}
	switch {
	case issues == nil && !changed:
		return patch.NoChange(), nil
	case issues == nil:
		return patch.Vector(out), nil
	}
	p := patch.New()
	p.Values[name] = out
	p.Issues[name] = issues
	return patch.Changed(p), nil
}

// DateConfig configures date canonicalization.
type DateConfig struct {
	// Layouts are the input layouts tried in order. Default: the common
	// ISO, slash and written forms.
	Layouts []string

	// Output is the layout dates are rewritten to. Default: "2006-01-02".
	Output string
}

// Date rewrites parseable dates to one canonical layout and attaches a
// warning issue to values no layout accepts. Empty cells pass through.
type Date struct {
	layouts []string
	output  string
}

// NewDate creates the transform.
func NewDate(cfg DateConfig) *Date {
	if len(cfg.Layouts) == 0 {
		cfg.Layouts = defaultDateLayouts
	}
	if cfg.Output == "" {
		cfg.Output = "2006-01-02"
	}
	return &Date{layouts: cfg.Layouts, output: cfg.Output}
}

func (tr *Date) Name() string { return "normalize_date" }

func (tr *Date) Apply(ctx field.TableContext) (patch.TransformResult, error) {
	if ctx.Values == nil {
		return patch.NoChange(), nil
	}
	name := ctx.Field.Name
	changed := false
	out := make([]string, len(ctx.Values))
	var issues []patch.IssueCell
	for i, v := range ctx.Values {
		out[i] = v
		if sheet.IsEmptyCell(v) {
			continue
		}
		ts, ok := parseDate(v, tr.layouts)
		if !ok {
			if issues == nil {
				issues = make([]patch.IssueCell, len(ctx.Values))
			}
			issues[i] = append(issues[i], patch.Issue{
				Message:  fmt.Sprintf("cannot parse %q as a date", v),
				Severity: patch.SeverityWarning,
				Code:     "invalid_date",
			})
			continue
		}
		if s := ts.Format(tr.output); s != v {
			out[i] = s
			changed = true
		}
	}
	switch {
	case issues == nil && !changed:
		return patch.NoChange(), nil
	case issues == nil:
		return patch.Vector(out), nil
	}
	p := patch.New()
	p.Values[name] = out
	p.Issues[name] = issues
	return patch.Changed(p), nil
}

// MapValuesConfig configures dictionary mapping.
type MapValuesConfig struct {
	// Mapping maps source values to replacements.
	Mapping map[string]string

	// Fold matches keys case-insensitively with diacritics stripped.
	// Default: true.
	Fold bool

	// Default replaces unmatched non-empty values when HasDefault is set;
	// otherwise unmatched values pass through.
	Default    string
	HasDefault bool
}

// DefaultMapValuesConfig returns the default mapping configuration.
func DefaultMapValuesConfig() MapValuesConfig {
	return MapValuesConfig{Fold: true}
}

// MapValues replaces values through a dictionary: "Y"/"yes"/"Ja" to "yes"
// and the like.
type MapValues struct {
	mapping    map[string]string
	fold       bool
	def        string
	hasDefault bool
}

// NewMapValues creates the transform. The mapping is required.
func NewMapValues(cfg MapValuesConfig) (*MapValues, error) {
	if len(cfg.Mapping) == 0 {
		return nil, run.Configurationf(run.StageConfigure, "map_values: mapping required")
	}
	mapping := make(map[string]string, len(cfg.Mapping))
	for k, v := range cfg.Mapping {
		if cfg.Fold {
			k = foldKey(k)
		} else {
			k = strings.TrimSpace(k)
		}
		mapping[k] = v
	}
	return &MapValues{
		mapping:    mapping,
		fold:       cfg.Fold,
		def:        cfg.Default,
		hasDefault: cfg.HasDefault,
	}, nil
}

func (tr *MapValues) Name() string { return "map_values" }

func (tr *MapValues) Apply(ctx field.TableContext) (patch.TransformResult, error) {
	if ctx.Values == nil {
		return patch.NoChange(), nil
	}
	changed := false
	out := make([]string, len(ctx.Values))
	for i, v := range ctx.Values {
		out[i] = v
		if sheet.IsEmptyCell(v) {
			continue
		}
		key := strings.TrimSpace(v)
		if tr.fold {
			key = foldKey(v)
		}
		if mapped, ok := tr.mapping[key]; ok {
			out[i] = mapped
		} else if tr.hasDefault {
			out[i] = tr.def
		}
		if out[i] != v {
			changed = true
		}
	}
	if !changed {
		return patch.NoChange(), nil
	}
	return patch.Vector(out), nil
}

// ConcatConfig configures derived-value concatenation.
type ConcatConfig struct {
	// Sources are the field names joined, in order.
	Sources []string

	// Separator sits between parts. Default: " ".
	Separator string

	// KeepEmpty keeps empty parts and their separators. Default: false.
	KeepEmpty bool
}

// Concat joins the committed values of other fields into the bound field.
// Bound to a field no source column satisfies, it produces a derived field.
type Concat struct {
	sources   []string
	separator string
	keepEmpty bool
}

// NewConcat creates the transform. At least one source is required.
func NewConcat(cfg ConcatConfig) (*Concat, error) {
	if len(cfg.Sources) == 0 {
		return nil, run.Configurationf(run.StageConfigure, "concat: sources required")
	}
	if cfg.Separator == "" {
		cfg.Separator = " "
	}
	return &Concat{
		sources:   cfg.Sources,
		separator: cfg.Separator,
		keepEmpty: cfg.KeepEmpty,
	}, nil
}

func (tr *Concat) Name() string { return "concat" }

func (tr *Concat) Apply(ctx field.TableContext) (patch.TransformResult, error) {
	n := ctx.Table.RowCount()
	out := make([]string, n)
	for i := 0; i < n; i++ {
		parts := make([]string, 0, len(tr.sources))
		for _, src := range tr.sources {
			v := ""
			if vec, ok := ctx.Table.Field(src); ok && i < len(vec) {
				v = vec[i]
			}
			if v == "" && !tr.keepEmpty {
				continue
			}
			parts = append(parts, v)
		}
		out[i] = strings.Join(parts, tr.separator)
	}
	return patch.Vector(out), nil
}

func trimFactory(ctx FactoryContext) (field.Transform, error) {
	cfg := DefaultTrimConfig()
	cfg.Collapse = ctx.Params.Bool("collapse", cfg.Collapse)
	return NewTrim(cfg), nil
}

func textNormalizeFactory(ctx FactoryContext) (field.Transform, error) {
	return NewTextNormalize(TextNormalizeConfig{
		Case:            ctx.Params.String("case", ""),
		StripDiacritics: ctx.Params.Bool("strip_diacritics", false),
	})
}

func numberFactory(ctx FactoryContext) (field.Transform, error) {
	return NewNumber(NumberConfig{
		Currency: ctx.Params.String("currency", ""),
	}), nil
}

func dateFactory(ctx FactoryContext) (field.Transform, error) {
	return NewDate(DateConfig{
		Layouts: ctx.Params.Strings("layouts"),
		Output:  ctx.Params.String("output", ""),
	}), nil
}

func mapValuesFactory(ctx FactoryContext) (field.Transform, error) {
	cfg := DefaultMapValuesConfig()
	cfg.Mapping = ctx.Params.StringMap("mapping")
	cfg.Fold = ctx.Params.Bool("fold", cfg.Fold)
	if ctx.Params.Has("default") {
		cfg.Default = ctx.Params.String("default", "")
		cfg.HasDefault = true
	}
	return NewMapValues(cfg)
}

func concatFactory(ctx FactoryContext) (field.Transform, error) {
	return NewConcat(ConcatConfig{
		Sources:   ctx.Params.Strings("sources"),
		Separator: ctx.Params.String("separator", ""),
		KeepEmpty: ctx.Params.Bool("keep_empty", false),
	})
}
