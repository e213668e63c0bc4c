package tabulary

import (
	"github.com/tsawler/tabulary/csvdoc"
	"github.com/tsawler/tabulary/field"
	"github.com/tsawler/tabulary/logger"
	"github.com/tsawler/tabulary/run"
)

// NormalizeOptions holds the configuration a Normalizer chain accumulates.
type NormalizeOptions struct {
	// Registry and run settings
	registry *field.Registry
	settings run.Settings

	// Sheet selection (empty means all sheets)
	sheetNames []string

	// Reader configuration for delimited text input
	csv csvdoc.Config

	// Logging
	log logger.Logger
}

// defaultNormalizeOptions returns the default normalization options.
func defaultNormalizeOptions() NormalizeOptions {
	return NormalizeOptions{
		settings: run.DefaultSettings(),
		csv:      csvdoc.DefaultConfig(),
	}
}

// clone creates a deep copy of NormalizeOptions.
func (o NormalizeOptions) clone() NormalizeOptions {
	newOpts := o
	newOpts.settings = o.settings.Clone()

	if o.sheetNames != nil {
		newOpts.sheetNames = make([]string, len(o.sheetNames))
		copy(newOpts.sheetNames, o.sheetNames)
	}

	return newOpts
}
