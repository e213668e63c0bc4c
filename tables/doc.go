// Package tables assembles normalized tables from classified sheet
// regions. It is the orchestration layer of the pipeline: the packages
// layout and mapping decide where tables are and which source columns
// feed which fields, and this package runs the registered hooks over
// the mapped values and produces the final output model.
//
// # Assembly
//
// [Assembler] drives the full pipeline for one or more sheets. For each
// sheet it classifies rows, detects table regions, maps columns to
// fields, applies transforms and validators in registry order, and
// emits one [NormalizedTable] per region. [Assembler.Run] wraps the
// per-sheet work in a [Report] that carries run identity, timing and
// aggregate totals.
//
// # Output model
//
// A [NormalizedTable] holds the output column layout ([Column]), the
// normalized cell values in row-major order, and the per-field issue
// vectors produced by validators. [Summary] counts rows, columns,
// fields and issues for the table; its counters partition exactly, so
// callers can rely on Empty+NonEmpty == Total style arithmetic.
//
// Hook execution is strictly ordered: transforms run before validators,
// and within each phase bindings run in ascending priority, then field
// registration order, then binding order. Values committed by one
// transform are visible to every later hook. Validators can attach
// issues but never change values.
package tables
