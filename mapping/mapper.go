package mapping

import (
	"fmt"
	"sort"

	"github.com/tsawler/tabulary/field"
	"github.com/tsawler/tabulary/logger"
	"github.com/tsawler/tabulary/run"
)

// MappedColumn records the assignment of one source column to one field, or
// a placeholder for a field no column satisfied.
type MappedColumn struct {
	// Field is the target field name.
	Field string `json:"field"`

	// SourceColumn is the source column index, or -1 for a placeholder.
	SourceColumn int `json:"source_column"`

	// Header is the source column's header cell, "" for a placeholder.
	Header string `json:"header,omitempty"`

	// Score is the accumulated detector score that won the assignment.
	Score float64 `json:"score"`

	// Satisfied is true when a source column was actually assigned.
	Satisfied bool `json:"satisfied"`
}

// UnmappedColumn records a source column no field claimed.
type UnmappedColumn struct {
	// SourceColumn is the source column index.
	SourceColumn int `json:"source_column"`

	// Header is the column's original header cell.
	Header string `json:"header,omitempty"`

	// Synthetic is the generated output header, prefix plus the 1-based
	// column number.
	Synthetic string `json:"synthetic"`
}

// Result is the outcome of mapping one region's columns.
type Result struct {
	// Mapped holds exactly one entry per registered field, in field order.
	// Unsatisfied fields appear as placeholders with SourceColumn -1.
	Mapped []MappedColumn `json:"mapped"`

	// Unmapped holds the source columns no field claimed, in column order.
	Unmapped []UnmappedColumn `json:"unmapped,omitempty"`

	// Scores holds the accumulated per-field score map for every source
	// column, indexed by column. Kept for diagnostics and inspection.
	Scores []map[string]float64 `json:"scores,omitempty"`
}

// MappedFor returns the mapped entry for a field name.
func (r *Result) MappedFor(name string) (MappedColumn, bool) {
	for _, mc := range r.Mapped {
		if mc.Field == name {
			return mc, true
		}
	}
	return MappedColumn{}, false
}

// MapperConfig holds the inputs a Mapper needs for one run.
type MapperConfig struct {
	// Registry supplies field order and column detector bindings.
	Registry *field.Registry

	// Settings supplies the score threshold, tie policy, sample size, and
	// synthetic header prefix.
	Settings run.Settings

	// Metadata is the caller-supplied run metadata passed to detectors.
	Metadata map[string]string

	// State is the shared per-run scratch state. A nil State gets a fresh one.
	State *run.State

	// Diagnostics collects detector failures. A nil value gets a fresh
	// collector.
	Diagnostics *run.Diagnostics

	// Logger receives a warning per detector failure. A nil value is
	// replaced with a no-op logger.
	Logger logger.Logger
}

// Mapper scores source columns against registered fields and resolves the
// assignment.
type Mapper struct {
	registry *field.Registry
	settings run.Settings
	meta     map[string]string
	state    *run.State
	diags    *run.Diagnostics
	log      logger.Logger
}

// NewMapper creates a Mapper from the given configuration.
func NewMapper(cfg MapperConfig) *Mapper {
	if cfg.State == nil {
		cfg.State = run.NewState()
	}
	if cfg.Diagnostics == nil {
		cfg.Diagnostics = run.NewDiagnostics()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	return &Mapper{
		registry: cfg.Registry,
		settings: cfg.Settings,
		meta:     cfg.Metadata,
		state:    cfg.State,
		diags:    cfg.Diagnostics,
		log:      cfg.Logger,
	}
}

// candidate is one column competing for one field.
type candidate struct {
	column int
	score  float64
}

// Map scores every (column, field) pair and resolves the assignment.
//
// A column's winning field is the one with the highest accumulated score;
// equal scores go to the field registered first. Columns whose winning score
// is not positive, or falls below the mapping score threshold, stay
// unmapped. When several columns win the same field, the contest is settled
// by the configured tie policy: leftmost keeps the best candidate by score,
// then by column position; leave_unmapped treats the ambiguity as no
// evidence and unmaps every competitor. Columns that lose a contest are not
// reassigned to their second-best field.
func (m *Mapper) Map(sheetName string, columns []SourceColumn) *Result {
	defs := m.registry.Fields()

	// Step 1: accumulate detector scores for every (column, field) pair.
	scores := make([]map[string]float64, len(columns))
	for i, col := range columns {
		scores[i] = m.scoreColumn(sheetName, col, defs)
	}

	// Step 2: pick each column's winning field.
	winners := make([]string, len(columns))
	for i := range columns {
		winners[i] = m.winningField(scores[i], defs)
	}

	// Step 3: resolve collisions per field, in field order.
	taken := make(map[int]string, len(columns))
	var mapped []MappedColumn
	for _, def := range defs {
		var candidates []candidate
		for i := range columns {
			if winners[i] == def.Name {
				candidates = append(candidates, candidate{column: i, score: scores[i][def.Name]})
			}
		}

		mc, winner := m.resolveField(def, candidates)
		mapped = append(mapped, mc)
		if winner >= 0 {
			taken[winner] = def.Name
			mapped[len(mapped)-1].Header = columns[winner].Header
		}
	}

	// Step 4: everything unclaimed becomes an unmapped column.
	var unmapped []UnmappedColumn
	for i, col := range columns {
		if _, ok := taken[i]; ok {
			continue
		}
		unmapped = append(unmapped, UnmappedColumn{
			SourceColumn: i,
			Header:       col.Header,
			Synthetic:    fmt.Sprintf("%s%d", m.settings.UnmappedHeaderPrefix, i+1),
		})
	}

	return &Result{Mapped: mapped, Unmapped: unmapped, Scores: scores}
}

// scoreColumn runs every detector bound to every field against one column.
func (m *Mapper) scoreColumn(sheetName string, col SourceColumn, defs []field.Definition) map[string]float64 {
	scores := make(map[string]float64, len(defs))
	sample := m.settings.Sample(col.Values)

	for _, def := range defs {
		ctx := field.ColumnContext{
			Sheet:  sheetName,
			Column: col.Index,
			Header: col.Header,
			Values: col.Values,
			Sample: sample,
			Field:  def,
			Meta:   m.meta,
			State:  m.state,
		}
		for _, d := range m.registry.ColumnDetectors(def.Name) {
			delta, err := d.ScoreColumn(ctx)
			if err != nil {
				m.diags.AddFailure(run.DetectorFailure{
					Stage:    run.StageMapping,
					Detector: d.Name(),
					Sheet:    sheetName,
					Row:      -1,
					Column:   col.Index,
					Field:    def.Name,
					Err:      err,
				})
				m.log.Warn("column detector failed",
					"detector", d.Name(), "sheet", sheetName,
					"column", col.Index, "field", def.Name, "error", err)
				continue
			}
			scores[def.Name] += delta
		}
	}
	return scores
}

// winningField returns the field with the highest positive accumulated score
// for one column, or "" when nothing scored positive. Equal scores go to the
// field registered first, which is the iteration order of defs.
func (m *Mapper) winningField(scores map[string]float64, defs []field.Definition) string {
	best := ""
	var bestScore float64
	for _, def := range defs {
		score := scores[def.Name]
		if score <= 0 {
			continue
		}
		if best == "" || score > bestScore {
			best = def.Name
			bestScore = score
		}
	}
	if best != "" && bestScore < m.settings.MappingScoreThreshold {
		return ""
	}
	return best
}

// resolveField picks the winning column for one field from its candidates.
// Any contested field, tied or not, is subject to the tie policy. It returns
// the mapped entry and the winning column index, or -1 when the field stays
// unsatisfied.
func (m *Mapper) resolveField(def field.Definition, candidates []candidate) (MappedColumn, int) {
	placeholder := MappedColumn{Field: def.Name, SourceColumn: -1}

	if len(candidates) == 0 {
		return placeholder, -1
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].column < candidates[j].column
	})

	if len(candidates) > 1 && m.settings.MappingTieResolution == run.TieLeaveUnmapped {
		m.log.Debug("contested field left unmapped",
			"field", def.Name, "columns", len(candidates))
		return placeholder, -1
	}

	top := candidates[0]
	return MappedColumn{
		Field:        def.Name,
		SourceColumn: top.column,
		Score:        top.score,
		Satisfied:    true,
	}, top.column
}
