package tabulary

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/tsawler/tabulary/csvdoc"
	"github.com/tsawler/tabulary/field"
	"github.com/tsawler/tabulary/format"
	"github.com/tsawler/tabulary/htmldoc"
	"github.com/tsawler/tabulary/logger"
	"github.com/tsawler/tabulary/ods"
	"github.com/tsawler/tabulary/run"
	"github.com/tsawler/tabulary/sheet"
	"github.com/tsawler/tabulary/tables"
	"github.com/tsawler/tabulary/xlsx"
)

// Normalizer provides a fluent interface for turning spreadsheet-like
// documents into normalized tables. Each configuration method returns a new
// Normalizer instance, making it safe for concurrent use and allowing method
// chaining.
type Normalizer struct {
	// Source
	filename string
	format   format.Format

	// Loaded input
	sheets []sheet.Sheet
	loaded bool

	// Configuration
	options NormalizeOptions

	// Accumulated error (fail-fast)
	err error
}

// clone creates a shallow copy of the Normalizer with a deep copy of options.
// This ensures immutability - each chain method returns a new instance.
func (n *Normalizer) clone() *Normalizer {
	return &Normalizer{
		filename: n.filename,
		format:   n.format,
		sheets:   n.sheets,
		loaded:   n.loaded,
		options:  n.options.clone(),
		err:      n.err,
	}
}

// ============================================================================
// Configuration Methods (return new Normalizer instance)
// ============================================================================

// WithRegistry sets the field registry the run consults. Without one, no
// fields are mapped and every column stays unmapped.
//
// Example:
//
//	report, _, err := tabulary.Open("orders.xlsx").WithRegistry(reg).Normalize()
func (n *Normalizer) WithRegistry(reg *field.Registry) *Normalizer {
	newN := n.clone()
	newN.options.registry = reg
	return newN
}

// WithSettings replaces the run settings wholesale. Later chain methods like
// Threshold still apply on top.
//
// Example:
//
//	report, _, err := tabulary.Open("orders.xlsx").
//	    WithRegistry(reg).
//	    WithSettings(settings).
//	    Normalize()
func (n *Normalizer) WithSettings(s run.Settings) *Normalizer {
	newN := n.clone()
	newN.options.settings = s.Clone()
	return newN
}

// Threshold sets the minimum score a column must reach to map to a field.
//
// Example:
//
//	report, _, err := tabulary.Open("orders.xlsx").
//	    WithRegistry(reg).
//	    Threshold(0.8).
//	    Normalize()
func (n *Normalizer) Threshold(v float64) *Normalizer {
	newN := n.clone()
	newN.options.settings.MappingScoreThreshold = v
	return newN
}

// TiePolicy sets how the mapper resolves score ties between columns.
//
// Example:
//
//	report, _, err := tabulary.Open("orders.xlsx").
//	    WithRegistry(reg).
//	    TiePolicy(run.TieLeaveUnmapped).
//	    Normalize()
func (n *Normalizer) TiePolicy(p run.TiePolicy) *Normalizer {
	newN := n.clone()
	newN.options.settings.MappingTieResolution = p
	return newN
}

// IncludeUnmapped carries unmapped source columns into the output under
// synthetic headers.
//
// Example:
//
//	report, _, err := tabulary.Open("orders.xlsx").
//	    WithRegistry(reg).
//	    IncludeUnmapped().
//	    Normalize()
func (n *Normalizer) IncludeUnmapped() *Normalizer {
	newN := n.clone()
	newN.options.settings.IncludeUnmappedColumns = true
	return newN
}

// Sheets restricts the run to the named sheets. Multiple calls are
// cumulative; document order is preserved regardless of argument order.
//
// Example:
//
//	report, _, err := tabulary.Open("orders.xlsx").
//	    WithRegistry(reg).
//	    Sheets("Q1", "Q2").
//	    Normalize()
func (n *Normalizer) Sheets(names ...string) *Normalizer {
	newN := n.clone()
	newN.options.sheetNames = append(newN.options.sheetNames, names...)
	return newN
}

// WithCSV sets the reader configuration used for delimited text input.
//
// Example:
//
//	report, _, err := tabulary.Open("export.csv").
//	    WithCSV(csvdoc.Config{Delimiter: ';', LazyQuotes: true}).
//	    WithRegistry(reg).
//	    Normalize()
func (n *Normalizer) WithCSV(cfg csvdoc.Config) *Normalizer {
	newN := n.clone()
	newN.options.csv = cfg
	return newN
}

// WithLogger sets the logger the run reports progress and detector failures
// to. Without one the run is silent.
//
// Example:
//
//	report, _, err := tabulary.Open("orders.xlsx").
//	    WithRegistry(reg).
//	    WithLogger(logger.NewLogger(nil)).
//	    Normalize()
func (n *Normalizer) WithLogger(log logger.Logger) *Normalizer {
	newN := n.clone()
	newN.options.log = log
	return newN
}

// ============================================================================
// Terminal Operations (execute the run and return results)
// ============================================================================

// Normalize reads the input, runs the normalization pipeline over the
// selected sheets, and returns the run report.
//
// Returns the report, any warnings collected during processing, and an error
// if the run failed. Warnings indicate non-fatal conditions (empty sheets,
// inferred headers, unsatisfied required fields, detector failures) where
// the run succeeded but results deserve a look.
//
// Example:
//
//	report, warnings, err := tabulary.Open("orders.xlsx").
//	    WithRegistry(reg).
//	    Normalize()
//	if len(warnings) > 0 {
//	    log.Println("Warnings:", tabulary.FormatWarnings(warnings))
//	}
func (n *Normalizer) Normalize() (*tables.Report, []Warning, error) {
	if n.err != nil {
		return nil, nil, n.err
	}
	if err := n.load(); err != nil {
		return nil, nil, err
	}
	selected, err := n.selectSheets()
	if err != nil {
		return nil, nil, err
	}

	asm := tables.NewAssemblerWithConfig(tables.AssemblerConfig{
		Registry: n.options.registry,
		Settings: n.options.settings,
		Logger:   n.options.log,
	})
	report, err := asm.Run(selected)
	if err != nil {
		return nil, nil, err
	}
	return report, collectWarnings(report, selected), nil
}

// Tables is a convenience terminal that returns just the normalized tables.
//
// Example:
//
//	tbls, warnings, err := tabulary.Open("orders.xlsx").WithRegistry(reg).Tables()
func (n *Normalizer) Tables() ([]*tables.NormalizedTable, []Warning, error) {
	report, warnings, err := n.Normalize()
	if err != nil {
		return nil, warnings, err
	}
	return report.Tables, warnings, nil
}

// SheetNames reads the input and returns the sheet names in document order,
// before any Sheets selection is applied.
//
// Example:
//
//	names, err := tabulary.Open("orders.xlsx").SheetNames()
func (n *Normalizer) SheetNames() ([]string, error) {
	if n.err != nil {
		return nil, n.err
	}
	if err := n.load(); err != nil {
		return nil, err
	}
	names := make([]string, len(n.sheets))
	for i, s := range n.sheets {
		names[i] = s.Name
	}
	return names, nil
}

// ============================================================================
// Internal helpers
// ============================================================================

// load materializes the input sheets. Extension-based detection runs first;
// when the extension says nothing, the content is sniffed.
func (n *Normalizer) load() error {
	if n.loaded {
		return nil
	}
	if n.filename == "" {
		return run.Configurationf(run.StageRead, "no input specified")
	}

	f := n.format
	if f == format.Unknown {
		var err error
		if f, err = detectContent(n.filename); err != nil {
			return err
		}
	}

	switch f {
	case format.XLSX:
		wb, err := xlsx.Open(n.filename)
		if err != nil {
			return err
		}
		n.sheets = wb.Sheets

	case format.CSV:
		s, err := csvdoc.Open(n.filename, n.options.csv)
		if err != nil {
			return err
		}
		n.sheets = []sheet.Sheet{s}

	case format.TSV:
		cfg := n.options.csv
		if cfg.Delimiter == 0 {
			cfg.Delimiter = '\t'
		}
		s, err := csvdoc.Open(n.filename, cfg)
		if err != nil {
			return err
		}
		n.sheets = []sheet.Sheet{s}

	case format.HTML:
		sheets, err := htmldoc.Open(n.filename)
		if err != nil {
			return err
		}
		n.sheets = sheets

	case format.ODS:
		sheets, err := ods.Open(n.filename)
		if err != nil {
			return err
		}
		n.sheets = sheets

	default:
		return run.Inputf(run.StageRead, "unrecognized input format: %s", n.filename)
	}

	n.loaded = true
	return nil
}

// detectContent sniffs the file content when the extension gives nothing.
func detectContent(path string) (format.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return format.Unknown, run.Input(run.StageRead, fmt.Errorf("opening file: %w", err))
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return format.Unknown, run.Input(run.StageRead, fmt.Errorf("reading file: %w", err))
	}
	detected, err := format.DetectFromReader(f, info.Size())
	if err != nil {
		return format.Unknown, run.Input(run.StageRead, fmt.Errorf("detecting format: %w", err))
	}
	return detected, nil
}

// selectSheets applies the Sheets filter in document order and rejects names
// the input does not have.
func (n *Normalizer) selectSheets() ([]sheet.Sheet, error) {
	if len(n.options.sheetNames) == 0 {
		return n.sheets, nil
	}

	want := make(map[string]bool, len(n.options.sheetNames))
	for _, name := range n.options.sheetNames {
		want[name] = true
	}

	selected := make([]sheet.Sheet, 0, len(want))
	for _, s := range n.sheets {
		if want[s.Name] {
			selected = append(selected, s)
			delete(want, s.Name)
		}
	}
	if len(want) > 0 {
		missing := make([]string, 0, len(want))
		for name := range want {
			missing = append(missing, name)
		}
		sort.Strings(missing)
		return nil, run.Inputf(run.StageRead,
			"sheets not found in input: %s", strings.Join(missing, ", "))
	}
	return selected, nil
}
