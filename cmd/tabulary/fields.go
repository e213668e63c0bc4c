package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tsawler/tabulary/field"
)

func (a *app) fieldsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fields",
		Short: "Print the fields and hooks a manifest registers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runFields(cmd)
		},
	}
}

func (a *app) runFields(cmd *cobra.Command) error {
	res, err := a.loadManifest()
	if err != nil {
		return err
	}
	if res == nil {
		return fmt.Errorf("fields needs a manifest (--manifest)")
	}

	w := cmd.OutOrStdout()
	reg := res.Registry

	transforms := make(map[string][]string)
	for _, b := range reg.Transforms() {
		transforms[b.Field] = append(transforms[b.Field], b.Transform.Name())
	}
	validators := make(map[string][]string)
	for _, b := range reg.Validators() {
		validators[b.Field] = append(validators[b.Field], b.Validator.Name())
	}

	for _, def := range reg.Fields() {
		printField(w, def)
		for _, d := range reg.ColumnDetectors(def.Name) {
			fmt.Fprintf(w, "    detector   %s\n", d.Name())
		}
		for _, name := range transforms[def.Name] {
			fmt.Fprintf(w, "    transform  %s\n", name)
		}
		for _, name := range validators[def.Name] {
			fmt.Fprintf(w, "    validator  %s\n", name)
		}
	}

	if ds := reg.RowDetectors(); len(ds) > 0 {
		fmt.Fprintln(w, "\nrow detectors:")
		for _, d := range ds {
			fmt.Fprintf(w, "    %s\n", d.Name())
		}
	}

	s := res.Settings
	fmt.Fprintf(w, "\nsettings: threshold=%.2f tie=%s derived=%t unmapped=%t sample=%d\n",
		s.MappingScoreThreshold, s.MappingTieResolution,
		s.IncludeDerivedFields, s.IncludeUnmappedColumns, s.DetectorSampleSize)
	return nil
}

func printField(w io.Writer, def field.Definition) {
	fmt.Fprintf(w, "%s  kind=%s", def.Name, def.Kind)
	if def.Required {
		fmt.Fprint(w, " required")
	}
	if def.Label != "" && def.Label != def.Name {
		fmt.Fprintf(w, " label=%q", def.Label)
	}
	fmt.Fprintln(w)
}
