package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tsawler/tabulary/config"
	"github.com/tsawler/tabulary/logger"
)

// app carries the state subcommands share: resolved process settings and
// the logger built from them.
type app struct {
	settings Settings
	log      logger.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "tabulary",
		Short: "Detect and normalize tables in spreadsheet-like documents",
		Long: `tabulary reads spreadsheet-like documents (XLSX, ODS, CSV, TSV, HTML),
detects the table regions inside them, and normalizes the columns against
a field registry described by a YAML manifest.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			applyFlagOverrides(&s, cmd.Root().PersistentFlags())
			a.settings = s
			a.log = buildLogger(s)
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.String("log-level", defaultSettings().LogLevel, "minimum log level: debug, info, warn, error")
	flags.Bool("log-json", false, "write logs as JSON lines")
	flags.BoolP("quiet", "q", false, "suppress all logging")
	flags.StringP("manifest", "m", "", "registry manifest (YAML)")

	root.AddCommand(
		a.normalizeCmd(),
		a.inspectCmd(),
		a.fieldsCmd(),
	)
	return root
}

func buildLogger(s Settings) logger.Logger {
	if s.Quiet {
		return logger.Nop()
	}
	return logger.NewLogger(&logger.Config{
		Level:      logger.LogLevel(s.LogLevel),
		Output:     os.Stderr,
		JSON:       s.LogJSON,
		TimeFormat: "15:04:05",
	})
}

// loadManifest loads the manifest configured for this invocation, or
// returns nil when none was given.
func (a *app) loadManifest() (*config.Result, error) {
	if a.settings.Manifest == "" {
		return nil, nil
	}
	return config.Load(a.settings.Manifest)
}
