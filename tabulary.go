// Package tabulary provides a fluent API for detecting tables in messy
// spreadsheet-like documents and normalizing them against a field registry.
//
// Basic usage:
//
//	report, warnings, err := tabulary.Open("orders.xlsx").WithRegistry(reg).Normalize()
//	if err != nil {
//	    // handle error
//	}
//	if len(warnings) > 0 {
//	    log.Println("Warnings:", tabulary.FormatWarnings(warnings))
//	}
//
// With options:
//
//	report, _, err := tabulary.Open("orders.xlsx").
//	    WithRegistry(reg).
//	    Sheets("Q1", "Q2").
//	    Threshold(0.8).
//	    IncludeUnmapped().
//	    Normalize()
//
// For advanced use cases, the lower-level tables, mapping, and layout
// packages are also available.
package tabulary

import (
	"github.com/tsawler/tabulary/config"
	"github.com/tsawler/tabulary/format"
	"github.com/tsawler/tabulary/sheet"
	"github.com/tsawler/tabulary/tables"
)

// Open opens a spreadsheet-like file and returns a Normalizer for fluent
// configuration. The file format is detected from the extension, falling
// back to content sniffing when the extension is unrecognized. Nothing is
// read until a terminal operation like Normalize() runs.
//
// Example:
//
//	report, warnings, err := tabulary.Open("orders.xlsx").WithRegistry(reg).Normalize()
func Open(filename string) *Normalizer {
	return &Normalizer{
		filename: filename,
		format:   format.Detect(filename),
		options:  defaultNormalizeOptions(),
	}
}

// FromSheets creates a Normalizer from already-materialized sheets. This is
// useful when the input comes from somewhere other than a file, or when a
// custom reader has already done the parsing.
//
// Example:
//
//	s := sheet.New("orders", rows)
//	report, warnings, err := tabulary.FromSheets(s).WithRegistry(reg).Normalize()
func FromSheets(sheets ...sheet.Sheet) *Normalizer {
	return &Normalizer{
		sheets:  sheets,
		loaded:  true,
		options: defaultNormalizeOptions(),
	}
}

// NormalizeFile loads a registry manifest and runs the full pipeline over a
// file in one call. It is the quickest path from a manifest plus an input
// document to a report.
//
// Example:
//
//	report, warnings, err := tabulary.NormalizeFile("orders.xlsx", "invoices.yaml")
func NormalizeFile(input, manifestPath string) (*tables.Report, []Warning, error) {
	res, err := config.Load(manifestPath)
	if err != nil {
		return nil, nil, err
	}
	return Open(input).
		WithRegistry(res.Registry).
		WithSettings(res.Settings).
		Normalize()
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	names := tabulary.Must(tabulary.Open("orders.xlsx").SheetNames())
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// MustNormalize is a helper that wraps a call to Normalize() or Tables() and
// panics if the error is non-nil. It discards warnings and returns just the
// value. It is intended for use in scripts or tests where error handling
// would be cumbersome.
//
// Example:
//
//	report := tabulary.MustNormalize(tabulary.Open("orders.xlsx").WithRegistry(reg).Normalize())
func MustNormalize[T any](val T, _ []Warning, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
