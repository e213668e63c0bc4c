package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tsawler/tabulary"
	"github.com/tsawler/tabulary/tables"
)

func (a *app) inspectCmd() *cobra.Command {
	var sheets []string

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show detected regions and column mappings without writing tables",
		Long: `Inspect runs detection and mapping over a document and prints what was
found: every region, where its header sits, which source column each
field mapped to and at what score, and the columns nothing claimed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInspect(cmd, args[0], sheets)
		},
	}
	cmd.Flags().StringArrayVarP(&sheets, "sheet", "s", nil, "sheet to include, repeatable (default all)")
	return cmd
}

func (a *app) runInspect(cmd *cobra.Command, input string, sheets []string) error {
	res, err := a.loadManifest()
	if err != nil {
		return err
	}

	n := tabulary.Open(input).WithLogger(a.log)
	if res != nil {
		n = n.WithRegistry(res.Registry).WithSettings(res.Settings)
	}
	if len(sheets) > 0 {
		n = n.Sheets(sheets...)
	}

	report, warnings, err := n.Normalize()
	if err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s: %d sheet(s), %d table(s)\n", input, report.Sheets, report.Totals.Tables)
	for _, t := range report.Tables {
		printRegion(w, t)
	}
	if len(warnings) > 0 {
		fmt.Fprintf(w, "\nwarnings:\n")
		for _, warn := range warnings {
			fmt.Fprintf(w, "  %s\n", warn)
		}
	}
	return nil
}

func printRegion(w io.Writer, t *tables.NormalizedTable) {
	r := t.Region
	fmt.Fprintf(w, "\nsheet %q: rows %d-%d, header row %d", t.Sheet, r.HeaderRow, r.DataEnd-1, r.HeaderRow)
	if r.HeaderInferred {
		fmt.Fprint(w, " (inferred)")
	}
	fmt.Fprintf(w, ", %d data row(s)\n", r.RowCount())

	if t.Mapping == nil {
		return
	}
	for _, mc := range t.Mapping.Mapped {
		if mc.Satisfied {
			fmt.Fprintf(w, "  %-24s <- column %d %q (score %.2f)\n", mc.Field, mc.SourceColumn, mc.Header, mc.Score)
		} else {
			fmt.Fprintf(w, "  %-24s    no source column\n", mc.Field)
		}
	}
	for _, uc := range t.Mapping.Unmapped {
		fmt.Fprintf(w, "  unmapped: column %d %q -> %s\n", uc.SourceColumn, uc.Header, uc.Synthetic)
	}
}
