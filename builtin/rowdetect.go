package builtin

import (
	"github.com/tsawler/tabulary/field"
	"github.com/tsawler/tabulary/sheet"
)

// HeaderKeywordsConfig configures the header keyword detector.
type HeaderKeywordsConfig struct {
	// Keywords are accepted header words beyond the registered field
	// names and labels. Default: none.
	Keywords []string

	// MinShare is the share of non-empty cells that must match the
	// vocabulary before the row receives a header vote. Default: 0.5.
	MinShare float64

	// Weight scales the vote. Default: 1.
	Weight float64
}

// HeaderKeywords votes header on rows whose non-empty cells mostly match
// the registered field vocabulary. Cells and vocabulary are compared
// folded, so "E-Mail" matches a field labelled "email".
type HeaderKeywords struct {
	keys     map[string]bool
	minShare float64
	weight   float64
}

// NewHeaderKeywords creates the detector from the field vocabulary plus any
// configured extra keywords.
func NewHeaderKeywords(fields []field.Definition, cfg HeaderKeywordsConfig) *HeaderKeywords {
	if cfg.MinShare <= 0 {
		cfg.MinShare = 0.5
	}
	if cfg.Weight <= 0 {
		cfg.Weight = 1
	}
	keys := make(map[string]bool)
	for _, def := range fields {
		keys[foldKey(def.Name)] = true
		if def.Label != "" {
			keys[foldKey(def.Label)] = true
		}
	}
	for _, kw := range cfg.Keywords {
		keys[foldKey(kw)] = true
	}
	delete(keys, "")
	return &HeaderKeywords{keys: keys, minShare: cfg.MinShare, weight: cfg.Weight}
}

func (d *HeaderKeywords) Name() string { return "header_keywords" }

func (d *HeaderKeywords) DetectRow(ctx field.RowContext) (map[string]float64, error) {
	if len(d.keys) == 0 {
		return nil, nil
	}
	nonEmpty, matched := 0, 0
	for _, v := range ctx.Values {
		if sheet.IsEmptyCell(v) {
			continue
		}
		nonEmpty++
		if d.keys[foldKey(v)] {
			matched++
		}
	}
	if nonEmpty == 0 {
		return nil, nil
	}
	share := float64(matched) / float64(nonEmpty)
	if share < d.minShare {
		return nil, nil
	}
	return map[string]float64{field.ClassHeader: d.weight * share}, nil
}

// ValueShapesConfig configures the value shape profiler.
type ValueShapesConfig struct {
	// MinShare is the share of non-empty cells that must look like data
	// values before the row receives a data vote. Default: 0.5.
	MinShare float64

	// Weight scales the vote. Default: 1.
	Weight float64

	// DateLayouts override the layouts used to recognize dates.
	DateLayouts []string
}

// ValueShapes votes data on rows where enough cells look like values:
// numbers, dates or booleans. It never votes header, leaving that evidence
// to the vocabulary detector.
type ValueShapes struct {
	minShare float64
	weight   float64
	layouts  []string
}

// NewValueShapes creates the profiler.
func NewValueShapes(cfg ValueShapesConfig) *ValueShapes {
	if cfg.MinShare <= 0 {
		cfg.MinShare = 0.5
	}
	if cfg.Weight <= 0 {
		cfg.Weight = 1
	}
	if len(cfg.DateLayouts) == 0 {
		cfg.DateLayouts = defaultDateLayouts
	}
	return &ValueShapes{minShare: cfg.MinShare, weight: cfg.Weight, layouts: cfg.DateLayouts}
}

func (d *ValueShapes) Name() string { return "value_shapes" }

func (d *ValueShapes) DetectRow(ctx field.RowContext) (map[string]float64, error) {
	nonEmpty, valueish := 0, 0
	for _, v := range ctx.Values {
		if sheet.IsEmptyCell(v) {
			continue
		}
		nonEmpty++
		if _, ok := canonNumber(v, ""); ok {
			valueish++
			continue
		}
		if _, ok := parseDate(v, d.layouts); ok {
			valueish++
			continue
		}
		if looksBool(v) {
			valueish++
		}
	}
	if nonEmpty == 0 {
		return nil, nil
	}
	share := float64(valueish) / float64(nonEmpty)
	if share < d.minShare {
		return nil, nil
	}
	return map[string]float64{field.ClassData: d.weight * share}, nil
}

// BlankRowsConfig configures the blank row penalizer.
type BlankRowsConfig struct {
	// MinShare is the share of blank cells at which the penalty applies.
	// Default: 0.6.
	MinShare float64

	// Weight scales the penalty. Default: 1.
	Weight float64
}

// BlankRows votes against both header and data on rows that are mostly
// blank. Separator rows between stacked tables then classify as unknown
// instead of bridging two regions.
type BlankRows struct {
	minShare float64
	weight   float64
}

// NewBlankRows creates the penalizer.
func NewBlankRows(cfg BlankRowsConfig) *BlankRows {
	if cfg.MinShare <= 0 {
		cfg.MinShare = 0.6
	}
	if cfg.Weight <= 0 {
		cfg.Weight = 1
	}
	return &BlankRows{minShare: cfg.MinShare, weight: cfg.Weight}
}

func (d *BlankRows) Name() string { return "blank_rows" }

func (d *BlankRows) DetectRow(ctx field.RowContext) (map[string]float64, error) {
	share := 1.0
	if len(ctx.Values) > 0 {
		blank := 0
		for _, v := range ctx.Values {
			if sheet.IsEmptyCell(v) {
				blank++
			}
		}
		share = float64(blank) / float64(len(ctx.Values))
	}
	if share < d.minShare {
		return nil, nil
	}
	penalty := -d.weight * share
	return map[string]float64{
		field.ClassHeader: penalty,
		field.ClassData:   penalty,
	}, nil
}

func headerKeywordsFactory(ctx FactoryContext) (field.RowDetector, error) {
	return NewHeaderKeywords(ctx.Fields, HeaderKeywordsConfig{
		Keywords: ctx.Params.Strings("keywords"),
		MinShare: ctx.Params.Float("min_share", 0),
		Weight:   ctx.Params.Float("weight", 0),
	}), nil
}

func valueShapesFactory(ctx FactoryContext) (field.RowDetector, error) {
	return NewValueShapes(ValueShapesConfig{
		MinShare:    ctx.Params.Float("min_share", 0),
		Weight:      ctx.Params.Float("weight", 0),
		DateLayouts: ctx.Params.Strings("date_layouts"),
	}), nil
}

func blankRowsFactory(ctx FactoryContext) (field.RowDetector, error) {
	return NewBlankRows(BlankRowsConfig{
		MinShare: ctx.Params.Float("min_share", 0),
		Weight:   ctx.Params.Float("weight", 0),
	}), nil
}
