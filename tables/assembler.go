package tables

import (
	"fmt"

	"github.com/tsawler/tabulary/field"
	"github.com/tsawler/tabulary/layout"
	"github.com/tsawler/tabulary/logger"
	"github.com/tsawler/tabulary/mapping"
	"github.com/tsawler/tabulary/patch"
	"github.com/tsawler/tabulary/run"
	"github.com/tsawler/tabulary/sheet"
)

// AssemblerConfig configures an Assembler.
type AssemblerConfig struct {
	// Registry supplies the field definitions and every hook consulted
	// during the run. A nil registry behaves as an empty one.
	Registry *field.Registry

	// Settings control mapping, sampling and output shape. They are
	// validated when a run starts.
	Settings run.Settings

	// Logger receives progress and detector failure logs. A nil value is
	// replaced with a no-op logger.
	Logger logger.Logger
}

// Assembler runs the normalization pipeline over sheets. An Assembler is
// stateless between runs; per-run scratch state and diagnostics are created
// fresh for every Run.
type Assembler struct {
	registry *field.Registry
	settings run.Settings
	log      logger.Logger
}

// NewAssembler creates an Assembler with default settings and no logging.
func NewAssembler(registry *field.Registry) *Assembler {
	return NewAssemblerWithConfig(AssemblerConfig{
		Registry: registry,
		Settings: run.DefaultSettings(),
	})
}

// NewAssemblerWithConfig creates an Assembler from the given configuration.
func NewAssemblerWithConfig(cfg AssemblerConfig) *Assembler {
	if cfg.Registry == nil {
		cfg.Registry = field.NewRegistry()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	return &Assembler{
		registry: cfg.Registry,
		settings: cfg.Settings,
		log:      cfg.Logger,
	}
}

// Run normalizes every sheet and returns the run report. Sheets are
// processed in order and each table lands on the report in region order.
//
// Detector failures never abort a run; they are logged and recorded on the
// report. A hook error, or a hook result that violates the patch rules,
// aborts the run with a pipeline error.
func (a *Assembler) Run(sheets []sheet.Sheet) (*Report, error) {
	if err := a.settings.Validate(); err != nil {
		return nil, err
	}

	report := newReport(len(sheets))
	state := run.NewState()
	diags := run.NewDiagnostics()

	a.log.Info("run started", "run_id", report.RunID, "sheets", len(sheets))

	for _, s := range sheets {
		tables, err := a.normalizeSheet(s, state, diags)
		if err != nil {
			return nil, err
		}
		report.Tables = append(report.Tables, tables...)
	}

	failures := make([]string, 0, diags.Len())
	for _, f := range diags.Failures() {
		failures = append(failures, f.String())
	}
	report.finish(failures)

	a.log.Info("run finished", "run_id", report.RunID,
		"tables", report.Totals.Tables, "rows", report.Totals.Rows,
		"issues", report.Totals.Issues, "duration", report.Duration)
	return report, nil
}

// NormalizeSheet runs the pipeline for a single sheet and returns one
// normalized table per detected region. Sheets with no detectable content
// return no tables and no error.
func (a *Assembler) NormalizeSheet(s sheet.Sheet) ([]*NormalizedTable, error) {
	if err := a.settings.Validate(); err != nil {
		return nil, err
	}
	return a.normalizeSheet(s, run.NewState(), run.NewDiagnostics())
}

func (a *Assembler) normalizeSheet(s sheet.Sheet, state *run.State, diags *run.Diagnostics) ([]*NormalizedTable, error) {
	// Step 1: classify every row by accumulating detector votes.
	classifier := layout.NewClassifier(layout.ClassifierConfig{
		Detectors:   a.registry.RowDetectors(),
		Metadata:    a.settings.Metadata,
		State:       state,
		Diagnostics: diags,
		Logger:      a.log,
	})
	scores := classifier.Classify(s)

	// Step 2: cut the sheet into table regions.
	regions := layout.DetectRegions(s, scores)
	if len(regions) == 0 {
		a.log.Debug("no table regions found", "sheet", s.Name)
		return nil, nil
	}

	// Step 3: map columns and assemble each region independently.
	mapper := mapping.NewMapper(mapping.MapperConfig{
		Registry:    a.registry,
		Settings:    a.settings,
		Metadata:    a.settings.Metadata,
		State:       state,
		Diagnostics: diags,
		Logger:      a.log,
	})

	tables := make([]*NormalizedTable, 0, len(regions))
	for _, region := range regions {
		t, err := a.assembleRegion(s, region, mapper, state)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}

	a.log.Info("sheet normalized", "sheet", s.Name, "tables", len(tables))
	return tables, nil
}

// committedState is the mutable value store hooks operate on. Transform
// patches land here as they are accepted, so later hooks observe earlier
// hooks' values.
type committedState struct {
	rowCount int
	values   map[string][]string
}

func newCommittedState(rowCount int) *committedState {
	return &committedState{rowCount: rowCount, values: make(map[string][]string)}
}

func (cs *committedState) RowCount() int { return cs.rowCount }

func (cs *committedState) Field(name string) ([]string, bool) {
	vec, ok := cs.values[name]
	return vec, ok
}

func (a *Assembler) assembleRegion(s sheet.Sheet, region layout.Region, mapper *mapping.Mapper, state *run.State) (*NormalizedTable, error) {
	// Step 1: slice the region into padded source column vectors.
	columns := mapping.Columns(s, region)

	// Step 2: resolve which source column feeds which field.
	res := mapper.Map(s.Name, columns)

	rowCount := region.RowCount()

	// Step 3: seed the committed state with a copy of every mapped source
	// vector. Copies keep the source sheet untouched no matter what the
	// transforms do.
	cs := newCommittedState(rowCount)
	for _, mc := range res.Mapped {
		if !mc.Satisfied {
			continue
		}
		vec := make([]string, rowCount)
		copy(vec, columns[mc.SourceColumn].Values)
		cs.values[mc.Field] = vec
	}

	// Step 4: run transforms, then validators, committing each patch as it
	// is accepted. Regions without data rows skip hooks entirely.
	acc := patch.New()
	if rowCount > 0 {
		if err := a.applyTransforms(s.Name, cs, acc, state); err != nil {
			return nil, err
		}
		if err := a.applyValidators(s.Name, cs, acc, state); err != nil {
			return nil, err
		}
	}

	// Step 5: lay out the output columns and rows.
	t := &NormalizedTable{
		Sheet:   s.Name,
		Region:  region,
		Mapping: res,
	}
	t.Columns = a.buildColumns(res, cs)
	t.Rows = buildRows(t.Columns, columns, cs, rowCount)
	if len(acc.Issues) > 0 {
		t.Issues = acc.Issues
	}
	if len(acc.Meta) > 0 {
		t.Meta = acc.Meta
	}
	for _, mc := range res.Mapped {
		if mc.Satisfied {
			continue
		}
		if _, derived := cs.values[mc.Field]; derived {
			continue
		}
		if def, ok := a.registry.Lookup(mc.Field); ok && def.Required {
			t.MissingRequired = append(t.MissingRequired, mc.Field)
		}
	}

	// Step 6: count rows, columns, fields and issues.
	t.Summary = a.summarize(columns, res, cs, t.Issues)

	if len(t.MissingRequired) > 0 {
		a.log.Warn("required fields unsatisfied",
			"sheet", s.Name, "header_row", region.HeaderRow, "fields", t.MissingRequired)
	}
	a.log.Debug("region assembled", "sheet", s.Name,
		"header_row", region.HeaderRow, "rows", rowCount, "columns", len(t.Columns))
	return t, nil
}

// applyTransforms runs every transform binding in execution order. Values
// from each accepted patch are committed immediately so later hooks see
// them; issues and metadata accumulate on acc.
func (a *Assembler) applyTransforms(sheetName string, cs *committedState, acc *patch.Patch, state *run.State) error {
	for _, b := range a.registry.Transforms() {
		def, _ := a.registry.Lookup(b.Field)
		res, err := b.Transform.Apply(field.TableContext{
			Sheet:  sheetName,
			Field:  def,
			Values: cs.values[b.Field],
			Table:  cs,
			Meta:   a.settings.Metadata,
			State:  state,
		})
		if err != nil {
			return run.Pipeline(run.StagePatch,
				fmt.Errorf("transform %q on field %q: %w", b.Transform.Name(), b.Field, err))
		}
		p, err := patch.NormalizeTransform(res, b.Field, cs.rowCount, a.registry)
		if err != nil {
			return fmt.Errorf("transform %q on field %q: %w", b.Transform.Name(), b.Field, err)
		}
		for name, vec := range p.Values {
			cs.values[name] = vec
		}
		if err := patch.Merge(acc, p); err != nil {
			return err
		}
	}
	return nil
}

// applyValidators runs every validator binding in execution order.
// Validators only contribute issues and metadata; a patch that tries to
// write values is rejected during normalization.
func (a *Assembler) applyValidators(sheetName string, cs *committedState, acc *patch.Patch, state *run.State) error {
	for _, b := range a.registry.Validators() {
		def, _ := a.registry.Lookup(b.Field)
		res, err := b.Validator.Validate(field.TableContext{
			Sheet:  sheetName,
			Field:  def,
			Values: cs.values[b.Field],
			Table:  cs,
			Meta:   a.settings.Metadata,
			State:  state,
		})
		if err != nil {
			return run.Pipeline(run.StagePatch,
				fmt.Errorf("validator %q on field %q: %w", b.Validator.Name(), b.Field, err))
		}
		p, err := patch.NormalizeValidator(res, b.Field, cs.rowCount, a.registry)
		if err != nil {
			return fmt.Errorf("validator %q on field %q: %w", b.Validator.Name(), b.Field, err)
		}
		if err := patch.Merge(acc, p); err != nil {
			return err
		}
	}
	return nil
}

// buildColumns fixes the output column order: satisfied fields in field
// registration order, then derived fields, then unmapped source columns,
// the latter two subject to run settings.
func (a *Assembler) buildColumns(res *mapping.Result, cs *committedState) []Column {
	var cols []Column
	for _, mc := range res.Mapped {
		if !mc.Satisfied {
			continue
		}
		def, _ := a.registry.Lookup(mc.Field)
		cols = append(cols, Column{
			Header: def.DisplayLabel(),
			Field:  mc.Field,
			Source: mc.SourceColumn,
		})
	}
	if a.settings.IncludeDerivedFields {
		for _, mc := range res.Mapped {
			if mc.Satisfied {
				continue
			}
			if _, ok := cs.values[mc.Field]; !ok {
				continue
			}
			def, _ := a.registry.Lookup(mc.Field)
			cols = append(cols, Column{
				Header:  def.DisplayLabel(),
				Field:   mc.Field,
				Source:  -1,
				Derived: true,
			})
		}
	}
	if a.settings.IncludeUnmappedColumns {
		for _, uc := range res.Unmapped {
			cols = append(cols, Column{
				Header: uc.Synthetic,
				Source: uc.SourceColumn,
			})
		}
	}
	return cols
}

// buildRows materializes the output grid. Field columns read from the
// committed state; unmapped columns carry the source values through as is.
func buildRows(cols []Column, columns []mapping.SourceColumn, cs *committedState, rowCount int) [][]string {
	if rowCount == 0 {
		return nil
	}
	rows := make([][]string, rowCount)
	for i := range rows {
		row := make([]string, len(cols))
		for j, col := range cols {
			if col.Field != "" {
				if vec := cs.values[col.Field]; i < len(vec) {
					row[j] = vec[i]
				}
				continue
			}
			if vals := columns[col.Source].Values; i < len(vals) {
				row[j] = vals[i]
			}
		}
		rows[i] = row
	}
	return rows
}

func (a *Assembler) summarize(columns []mapping.SourceColumn, res *mapping.Result, cs *committedState, issues map[string][]patch.IssueCell) Summary {
	var sum Summary

	sum.Rows.Total = cs.rowCount
	for i := 0; i < cs.rowCount; i++ {
		empty := true
		for _, col := range columns {
			if i < len(col.Values) && !sheet.IsEmptyCell(col.Values[i]) {
				empty = false
				break
			}
		}
		if empty {
			sum.Rows.Empty++
		} else {
			sum.Rows.NonEmpty++
		}
	}

	sum.Columns.Total = len(columns)
	for _, col := range columns {
		empty := true
		for _, v := range col.Values {
			if !sheet.IsEmptyCell(v) {
				empty = false
				break
			}
		}
		if empty {
			sum.Columns.Empty++
		} else {
			sum.Columns.NonEmpty++
		}
	}
	for _, mc := range res.Mapped {
		if mc.Satisfied {
			sum.Columns.Mapped++
		}
	}
	sum.Columns.Unmapped = sum.Columns.Total - sum.Columns.Mapped

	sum.Fields.Total = a.registry.Len()
	for _, mc := range res.Mapped {
		switch {
		case mc.Satisfied:
			sum.Fields.Mapped++
		default:
			if _, ok := cs.values[mc.Field]; ok {
				sum.Fields.Derived++
			} else {
				sum.Fields.Unmapped++
			}
		}
	}

	sum.Validation = countIssues(issues)
	return sum
}
