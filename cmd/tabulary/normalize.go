package main

import (
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/tsawler/tabulary"
	"github.com/tsawler/tabulary/config"
	"github.com/tsawler/tabulary/csvdoc"
	"github.com/tsawler/tabulary/render"
	"github.com/tsawler/tabulary/run"
	"github.com/tsawler/tabulary/tables"
)

type normalizeOptions struct {
	out             string
	format          string
	sheets          []string
	threshold       float64
	tie             string
	includeUnmapped bool
	reportPath      string
	delimiter       string
}

func (a *app) normalizeCmd() *cobra.Command {
	opts := &normalizeOptions{}

	cmd := &cobra.Command{
		Use:   "normalize <file> [file...]",
		Short: "Normalize the tables in one or more documents",
		Long: `Normalize reads each input, detects its table regions, maps the columns
against the manifest's field registry, and writes the normalized tables.

Without a manifest the run degrades to detection only: regions are still
found and their columns are carried through under synthetic headers.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runNormalize(cmd, args, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.out, "out", "o", "", "output file (default stdout)")
	flags.StringVarP(&opts.format, "format", "f", "", "output format: csv, tsv, text, markdown, json, xlsx")
	flags.StringArrayVarP(&opts.sheets, "sheet", "s", nil, "sheet to include, repeatable (default all)")
	flags.Float64Var(&opts.threshold, "threshold", 0, "minimum mapping score a column must reach")
	flags.StringVar(&opts.tie, "tie", "", "mapping tie policy: leftmost or leave_unmapped")
	flags.BoolVar(&opts.includeUnmapped, "include-unmapped", false, "carry unmapped source columns into the output")
	flags.StringVar(&opts.reportPath, "report", "", "also write the JSON run report to this file")
	flags.StringVar(&opts.delimiter, "delimiter", "", "input field delimiter for delimited text (default sniffed)")
	return cmd
}

func (a *app) runNormalize(cmd *cobra.Command, args []string, opts *normalizeOptions) error {
	outFormat := opts.format
	if outFormat == "" {
		outFormat = a.settings.Format
	}
	if len(args) > 1 && opts.out != "" {
		return fmt.Errorf("--out takes a single input, got %d", len(args))
	}
	if len(args) > 1 && opts.reportPath != "" {
		return fmt.Errorf("--report takes a single input, got %d", len(args))
	}
	if outFormat == "xlsx" && opts.out == "" {
		return fmt.Errorf("xlsx output needs --out")
	}

	res, err := a.loadManifest()
	if err != nil {
		return err
	}
	if res == nil {
		a.log.Info("no manifest given, carrying source columns through unmapped")
	}

	for i, input := range args {
		n, err := a.buildNormalizer(cmd, input, res, opts)
		if err != nil {
			return err
		}
		report, warnings, err := n.Normalize()
		if err != nil {
			return fmt.Errorf("%s: %w", input, err)
		}
		for _, w := range warnings {
			a.log.Warn(w.Message, "code", w.Code, "sheet", w.Sheet)
		}

		if i > 0 {
			fmt.Fprintln(cmd.OutOrStdout())
		}
		if err := a.writeOutput(cmd, report, outFormat, opts); err != nil {
			return fmt.Errorf("%s: %w", input, err)
		}
		if opts.reportPath != "" {
			if err := writeReportFile(opts.reportPath, report); err != nil {
				return fmt.Errorf("%s: %w", input, err)
			}
		}

		a.log.Info("normalized", "input", input,
			"tables", report.Totals.Tables, "rows", report.Totals.Rows,
			"issues", report.Totals.Issues, "duration", report.Duration)
	}
	return nil
}

// buildNormalizer assembles the fluent chain for one input from the
// manifest and the command's flag overrides.
func (a *app) buildNormalizer(cmd *cobra.Command, input string, res *config.Result, opts *normalizeOptions) (*tabulary.Normalizer, error) {
	n := tabulary.Open(input).WithLogger(a.log)
	if res != nil {
		n = n.WithRegistry(res.Registry).WithSettings(res.Settings)
	} else {
		n = n.IncludeUnmapped()
	}
	if len(opts.sheets) > 0 {
		n = n.Sheets(opts.sheets...)
	}

	flags := cmd.Flags()
	if flags.Changed("threshold") {
		n = n.Threshold(opts.threshold)
	}
	if flags.Changed("tie") {
		policy := run.TiePolicy(opts.tie)
		if policy != run.TieLeftmost && policy != run.TieLeaveUnmapped {
			return nil, fmt.Errorf("unknown tie policy %q", opts.tie)
		}
		n = n.TiePolicy(policy)
	}
	if opts.includeUnmapped {
		n = n.IncludeUnmapped()
	}
	if opts.delimiter != "" {
		r, size := utf8.DecodeRuneInString(opts.delimiter)
		if size != len(opts.delimiter) || r == utf8.RuneError {
			return nil, fmt.Errorf("delimiter must be a single character, got %q", opts.delimiter)
		}
		cfg := csvdoc.DefaultConfig()
		cfg.Delimiter = r
		n = n.WithCSV(cfg)
	}
	return n, nil
}

func (a *app) writeOutput(cmd *cobra.Command, report *tables.Report, outFormat string, opts *normalizeOptions) error {
	if outFormat == "xlsx" {
		return render.XLSXFile(opts.out, report)
	}

	var w io.Writer = cmd.OutOrStdout()
	if opts.out != "" {
		f, err := os.Create(opts.out)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch outFormat {
	case "csv":
		return writeDelimited(w, report, ',')
	case "tsv":
		return writeDelimited(w, report, '\t')
	case "text":
		for i, t := range report.Tables {
			if i > 0 {
				fmt.Fprintln(w)
			}
			if _, err := fmt.Fprint(w, render.Text(t, render.DefaultConfig())); err != nil {
				return err
			}
		}
		return nil
	case "markdown", "md":
		for i, t := range report.Tables {
			if i > 0 {
				fmt.Fprintln(w)
			}
			if _, err := fmt.Fprint(w, render.Markdown(t)); err != nil {
				return err
			}
		}
		return nil
	case "json":
		return render.JSON(w, report, true)
	default:
		return fmt.Errorf("unknown output format %q", outFormat)
	}
}

func writeDelimited(w io.Writer, report *tables.Report, delim rune) error {
	cfg := render.DefaultConfig()
	cfg.Delimiter = delim
	for i, t := range report.Tables {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := render.CSV(w, t, cfg); err != nil {
			return err
		}
	}
	return nil
}

func writeReportFile(path string, report *tables.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	defer f.Close()
	if err := render.JSON(f, report, true); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
