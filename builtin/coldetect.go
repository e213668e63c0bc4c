package builtin

import (
	"regexp"
	"strings"

	"github.com/tsawler/tabulary/field"
	"github.com/tsawler/tabulary/run"
	"github.com/tsawler/tabulary/sheet"
)

// HeaderMatchConfig configures the header match detector.
type HeaderMatchConfig struct {
	// Aliases are additional accepted header spellings for the bound
	// field. Default: none.
	Aliases []string

	// AllowContains also scores, at reduced strength, headers that
	// contain the field name or an alias as a whole word. Default: true.
	AllowContains bool

	// Weight scales the score. Default: 1.
	Weight float64
}

// DefaultHeaderMatchConfig returns the default header match configuration.
func DefaultHeaderMatchConfig() HeaderMatchConfig {
	return HeaderMatchConfig{AllowContains: true, Weight: 1}
}

// HeaderMatch scores a column by comparing its folded header against the
// bound field's name, label and configured aliases. An exact match scores
// the full weight; a whole-word containment scores 0.6 of it.
type HeaderMatch struct {
	aliases  []string
	contains bool
	weight   float64
}

// NewHeaderMatch creates the detector.
func NewHeaderMatch(cfg HeaderMatchConfig) *HeaderMatch {
	if cfg.Weight <= 0 {
		cfg.Weight = 1
	}
	aliases := make([]string, 0, len(cfg.Aliases))
	for _, a := range cfg.Aliases {
		if k := foldKey(a); k != "" {
			aliases = append(aliases, k)
		}
	}
	return &HeaderMatch{aliases: aliases, contains: cfg.AllowContains, weight: cfg.Weight}
}

func (d *HeaderMatch) Name() string { return "header_match" }

func (d *HeaderMatch) ScoreColumn(ctx field.ColumnContext) (float64, error) {
	header := foldKey(ctx.Header)
	if header == "" {
		return 0, nil
	}

	targets := make([]string, 0, 2+len(d.aliases))
	targets = append(targets, foldKey(ctx.Field.Name))
	if ctx.Field.Label != "" {
		targets = append(targets, foldKey(ctx.Field.Label))
	}
	targets = append(targets, d.aliases...)

	for _, t := range targets {
		if t != "" && header == t {
			return d.weight, nil
		}
	}
	if d.contains {
		for _, t := range targets {
			if t != "" && containsWord(header, t) {
				return 0.6 * d.weight, nil
			}
		}
	}
	return 0, nil
}

// containsWord reports whether hay contains needle bounded by word edges.
// Both are assumed folded, so words are separated by single spaces.
func containsWord(hay, needle string) bool {
	idx := strings.Index(hay, needle)
	for idx >= 0 {
		before := idx == 0 || hay[idx-1] == ' '
		end := idx + len(needle)
		after := end == len(hay) || hay[end] == ' '
		if before && after {
			return true
		}
		next := strings.Index(hay[idx+1:], needle)
		if next < 0 {
			return false
		}
		idx += 1 + next
	}
	return false
}

// KindSnifferConfig configures the kind sniffer.
type KindSnifferConfig struct {
	// Weight scales the score. Default: 1.
	Weight float64

	// DateLayouts override the layouts used to recognize dates.
	DateLayouts []string
}

// KindSniffer scores a column by how well its sampled values match the
// bound field's declared kind. Fields of kind string or any produce no
// evidence; their values match anything.
type KindSniffer struct {
	weight  float64
	layouts []string
}

// NewKindSniffer creates the sniffer.
func NewKindSniffer(cfg KindSnifferConfig) *KindSniffer {
	if cfg.Weight <= 0 {
		cfg.Weight = 1
	}
	if len(cfg.DateLayouts) == 0 {
		cfg.DateLayouts = defaultDateLayouts
	}
	return &KindSniffer{weight: cfg.Weight, layouts: cfg.DateLayouts}
}

func (d *KindSniffer) Name() string { return "kind_sniffer" }

func (d *KindSniffer) ScoreColumn(ctx field.ColumnContext) (float64, error) {
	var match func(string) bool
	switch ctx.Field.Kind {
	case field.KindNumber:
		match = func(s string) bool {
			_, ok := canonNumber(s, "")
			return ok
		}
	case field.KindDate:
		match = func(s string) bool {
			_, ok := parseDate(s, d.layouts)
			return ok
		}
	case field.KindBoolean:
		match = looksBool
	default:
		return 0, nil
	}

	nonEmpty, hits := 0, 0
	for _, v := range ctx.Sample {
		if sheet.IsEmptyCell(v) {
			continue
		}
		nonEmpty++
		if match(v) {
			hits++
		}
	}
	if nonEmpty == 0 {
		return 0, nil
	}
	return d.weight * float64(hits) / float64(nonEmpty), nil
}

// ValuePatternConfig configures the value pattern detector.
type ValuePatternConfig struct {
	// Pattern is the regular expression sampled values must match.
	Pattern string

	// Weight scales the score. Default: 1.
	Weight float64
}

// ValuePattern scores a column by the share of sampled non-empty values
// matching a regular expression.
type ValuePattern struct {
	re     *regexp.Regexp
	weight float64
}

// NewValuePattern creates the detector. The pattern is required.
func NewValuePattern(cfg ValuePatternConfig) (*ValuePattern, error) {
	if cfg.Pattern == "" {
		return nil, run.Configurationf(run.StageConfigure, "value_pattern: pattern required")
	}
	re, err := regexp.Compile(cfg.Pattern)
	if err != nil {
		return nil, run.Configurationf(run.StageConfigure, "value_pattern: %v", err)
	}
	if cfg.Weight <= 0 {
		cfg.Weight = 1
	}
	return &ValuePattern{re: re, weight: cfg.Weight}, nil
}

func (d *ValuePattern) Name() string { return "value_pattern" }

func (d *ValuePattern) ScoreColumn(ctx field.ColumnContext) (float64, error) {
	nonEmpty, hits := 0, 0
	for _, v := range ctx.Sample {
		if sheet.IsEmptyCell(v) {
			continue
		}
		nonEmpty++
		if d.re.MatchString(v) {
			hits++
		}
	}
	if nonEmpty == 0 {
		return 0, nil
	}
	return d.weight * float64(hits) / float64(nonEmpty), nil
}

func headerMatchFactory(ctx FactoryContext) (field.ColumnDetector, error) {
	cfg := DefaultHeaderMatchConfig()
	cfg.Aliases = ctx.Params.Strings("aliases")
	cfg.AllowContains = ctx.Params.Bool("contains", cfg.AllowContains)
	cfg.Weight = ctx.Params.Float("weight", cfg.Weight)
	return NewHeaderMatch(cfg), nil
}

func kindSnifferFactory(ctx FactoryContext) (field.ColumnDetector, error) {
	return NewKindSniffer(KindSnifferConfig{
		Weight:      ctx.Params.Float("weight", 0),
		DateLayouts: ctx.Params.Strings("date_layouts"),
	}), nil
}

func valuePatternFactory(ctx FactoryContext) (field.ColumnDetector, error) {
	return NewValuePattern(ValuePatternConfig{
		Pattern: ctx.Params.String("pattern", ""),
		Weight:  ctx.Params.Float("weight", 0),
	})
}
