package builtin

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tsawler/tabulary/field"
	"github.com/tsawler/tabulary/patch"
	"github.com/tsawler/tabulary/run"
	"github.com/tsawler/tabulary/sheet"
)

// severityParam reads and validates an optional severity parameter.
func severityParam(p Params, def patch.Severity) (patch.Severity, error) {
	sev := patch.Severity(p.String("severity", string(def)))
	if !sev.Valid() {
		return "", run.Configurationf(run.StageConfigure, "unknown severity %q", sev)
	}
	return sev, nil
}

// Required reports an issue for every blank cell of the bound field. A
// field with no committed values at all is the mapper's unsatisfied
// condition, already surfaced on the table, and produces no findings here.
type Required struct {
	severity patch.Severity
}

// NewRequired creates the validator. The default severity is error.
func NewRequired(severity patch.Severity) *Required {
	if severity == "" {
		severity = patch.SeverityError
	}
	return &Required{severity: severity}
}

func (v *Required) Name() string { return "required" }

func (v *Required) Validate(ctx field.TableContext) (patch.ValidatorResult, error) {
	if ctx.Values == nil {
		return patch.NoFindings(), nil
	}
	var cells []patch.IssueCell
	for i, val := range ctx.Values {
		if !sheet.IsEmptyCell(val) {
			continue
		}
		if cells == nil {
			cells = make([]patch.IssueCell, len(ctx.Values))
		}
		cells[i] = append(cells[i], patch.Issue{
			Message:  "value required",
			Severity: v.severity,
			Code:     "required_missing",
		})
	}
	if cells == nil {
		return patch.NoFindings(), nil
	}
	return patch.IssueVector(cells), nil
}

// PatternValidator reports non-empty values that fail a regular expression.
type PatternValidator struct {
	re       *regexp.Regexp
	message  string
	severity patch.Severity
}

// NewPatternValidator creates the validator. The pattern is required; the
// default severity is warning.
func NewPatternValidator(pattern, message string, severity patch.Severity) (*PatternValidator, error) {
	if pattern == "" {
		return nil, run.Configurationf(run.StageConfigure, "pattern: pattern required")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, run.Configurationf(run.StageConfigure, "pattern: %v", err)
	}
	if severity == "" {
		severity = patch.SeverityWarning
	}
	return &PatternValidator{re: re, message: message, severity: severity}, nil
}

func (v *PatternValidator) Name() string { return "pattern" }

func (v *PatternValidator) Validate(ctx field.TableContext) (patch.ValidatorResult, error) {
	if ctx.Values == nil {
		return patch.NoFindings(), nil
	}
	var records []patch.IssueRecord
	for i, val := range ctx.Values {
		if sheet.IsEmptyCell(val) || v.re.MatchString(val) {
			continue
		}
		msg := v.message
		if msg == "" {
			msg = fmt.Sprintf("%q does not match the expected format", val)
		}
		records = append(records, patch.IssueRecord{
			Row: i,
			Issue: patch.Issue{
				Message:  msg,
				Severity: v.severity,
				Code:     "pattern_mismatch",
			},
		})
	}
	if len(records) == 0 {
		return patch.NoFindings(), nil
	}
	return patch.Findings(records...), nil
}

// OneOf reports non-empty values outside an allowed set.
type OneOf struct {
	allowed  map[string]bool
	display  string
	fold     bool
	severity patch.Severity
}

// NewOneOf creates the validator. The allowed set is required; the default
// severity is warning and comparisons fold by default.
func NewOneOf(values []string, fold bool, severity patch.Severity) (*OneOf, error) {
	if len(values) == 0 {
		return nil, run.Configurationf(run.StageConfigure, "one_of: values required")
	}
	if severity == "" {
		severity = patch.SeverityWarning
	}
	allowed := make(map[string]bool, len(values))
	for _, val := range values {
		key := strings.TrimSpace(val)
		if fold {
			key = foldKey(val)
		}
		allowed[key] = true
	}
	return &OneOf{
		allowed:  allowed,
		display:  strings.Join(values, ", "),
		fold:     fold,
		severity: severity,
	}, nil
}

func (v *OneOf) Name() string { return "one_of" }

func (v *OneOf) Validate(ctx field.TableContext) (patch.ValidatorResult, error) {
	if ctx.Values == nil {
		return patch.NoFindings(), nil
	}
	var records []patch.IssueRecord
	for i, val := range ctx.Values {
		if sheet.IsEmptyCell(val) {
			continue
		}
		key := strings.TrimSpace(val)
		if v.fold {
			key = foldKey(val)
		}
		if v.allowed[key] {
			continue
		}
		records = append(records, patch.IssueRecord{
			Row: i,
			Issue: patch.Issue{
				Message:  fmt.Sprintf("%q is not one of: %s", val, v.display),
				Severity: v.severity,
				Code:     "not_allowed",
			},
		})
	}
	if len(records) == 0 {
		return patch.NoFindings(), nil
	}
	return patch.Findings(records...), nil
}

// RangeConfig configures the numeric range validator.
type RangeConfig struct {
	// Min and Max bound the value when set; either may be omitted.
	Min, Max       string
	HasMin, HasMax bool

	// Currency lists the currency markers stripped before parsing.
	// Default: "$€£¥".
	Currency string

	// Severity of the findings. Default: warning.
	Severity patch.Severity
}

// Range reports non-empty values that do not parse as numbers or fall
// outside the configured bounds.
type Range struct {
	min, max       decimal.Decimal
	hasMin, hasMax bool
	currency       string
	severity       patch.Severity
}

// NewRange creates the validator. At least one bound is required.
func NewRange(cfg RangeConfig) (*Range, error) {
	if !cfg.HasMin && !cfg.HasMax {
		return nil, run.Configurationf(run.StageConfigure, "range: min or max required")
	}
	if cfg.Severity == "" {
		cfg.Severity = patch.SeverityWarning
	}
	r := &Range{currency: cfg.Currency, severity: cfg.Severity}
	if cfg.HasMin {
		d, err := decimal.NewFromString(cfg.Min)
		if err != nil {
			return nil, run.Configurationf(run.StageConfigure, "range: bad min %q", cfg.Min)
		}
		r.min, r.hasMin = d, true
	}
	if cfg.HasMax {
		d, err := decimal.NewFromString(cfg.Max)
		if err != nil {
			return nil, run.Configurationf(run.StageConfigure, "range: bad max %q", cfg.Max)
		}
		r.max, r.hasMax = d, true
	}
	if r.hasMin && r.hasMax && r.min.GreaterThan(r.max) {
		return nil, run.Configurationf(run.StageConfigure,
			"range: min %s greater than max %s", r.min, r.max)
	}
	return r, nil
}

func (v *Range) Name() string { return "range" }

func (v *Range) Validate(ctx field.TableContext) (patch.ValidatorResult, error) {
	if ctx.Values == nil {
		return patch.NoFindings(), nil
	}
	var cells []patch.IssueCell
	flag := func(i int, message, code string) {
		if cells == nil {
			cells = make([]patch.IssueCell, len(ctx.Values))
		}
		cells[i] = append(cells[i], patch.Issue{
			Message:  message,
			Severity: v.severity,
			Code:     code,
		})
	}
	for i, val := range ctx.Values {
		if sheet.IsEmptyCell(val) {
			continue
		}
		d, ok := canonNumber(val, v.currency)
		if !ok {
			flag(i, fmt.Sprintf("%q is not numeric", val), "not_numeric")
			continue
		}
		if v.hasMin && d.LessThan(v.min) {
			flag(i, fmt.Sprintf("%s is below the minimum %s", d, v.min), "below_minimum")
		}
		if v.hasMax && d.GreaterThan(v.max) {
			flag(i, fmt.Sprintf("%s is above the maximum %s", d, v.max), "above_maximum")
		}
	}
	if cells == nil {
		return patch.NoFindings(), nil
	}
	return patch.IssueVector(cells), nil
}

// Unique reports values that repeat within the column. The first occurrence
// stays clean; every later duplicate is flagged with the row it repeats.
type Unique struct {
	fold     bool
	severity patch.Severity
}

// NewUnique creates the validator. The default severity is warning.
func NewUnique(fold bool, severity patch.Severity) *Unique {
	if severity == "" {
		severity = patch.SeverityWarning
	}
	return &Unique{fold: fold, severity: severity}
}

func (v *Unique) Name() string { return "unique" }

func (v *Unique) Validate(ctx field.TableContext) (patch.ValidatorResult, error) {
	if ctx.Values == nil {
		return patch.NoFindings(), nil
	}
	seen := make(map[string]int, len(ctx.Values))
	var records []patch.IssueRecord
	for i, val := range ctx.Values {
		if sheet.IsEmptyCell(val) {
			continue
		}
		key := strings.TrimSpace(val)
		if v.fold {
			key = foldKey(val)
		}
		if first, dup := seen[key]; dup {
			records = append(records, patch.IssueRecord{
				Row: i,
				Issue: patch.Issue{
					Message:  fmt.Sprintf("duplicate of row %d", first),
					Severity: v.severity,
					Code:     "duplicate_value",
				},
			})
			continue
		}
		seen[key] = i
	}
	if len(records) == 0 {
		return patch.NoFindings(), nil
	}
	return patch.Findings(records...), nil
}

func requiredFactory(ctx FactoryContext) (field.Validator, error) {
	sev, err := severityParam(ctx.Params, patch.SeverityError)
	if err != nil {
		return nil, err
	}
	return NewRequired(sev), nil
}

func patternFactory(ctx FactoryContext) (field.Validator, error) {
	sev, err := severityParam(ctx.Params, patch.SeverityWarning)
	if err != nil {
		return nil, err
	}
	return NewPatternValidator(
		ctx.Params.String("pattern", ""),
		ctx.Params.String("message", ""),
		sev,
	)
}

func oneOfFactory(ctx FactoryContext) (field.Validator, error) {
	sev, err := severityParam(ctx.Params, patch.SeverityWarning)
	if err != nil {
		return nil, err
	}
	return NewOneOf(ctx.Params.Strings("values"), ctx.Params.Bool("fold", true), sev)
}

func rangeFactory(ctx FactoryContext) (field.Validator, error) {
	sev, err := severityParam(ctx.Params, patch.SeverityWarning)
	if err != nil {
		return nil, err
	}
	return NewRange(RangeConfig{
		Min:      ctx.Params.String("min", ""),
		Max:      ctx.Params.String("max", ""),
		HasMin:   ctx.Params.Has("min"),
		HasMax:   ctx.Params.Has("max"),
		Currency: ctx.Params.String("currency", ""),
		Severity: sev,
	})
}

func uniqueFactory(ctx FactoryContext) (field.Validator, error) {
	sev, err := severityParam(ctx.Params, patch.SeverityWarning)
	if err != nil {
		return nil, err
	}
	return NewUnique(ctx.Params.Bool("fold", false), sev), nil
}
