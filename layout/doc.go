// Package layout locates tabular structure inside raw sheets: it classifies
// rows and carves the sheet into table regions.
//
// # Row Classification
//
// Rows are classified by the row detectors registered on the field registry.
// Each detector votes with score deltas keyed by row class ("header", "data",
// or any other label), and deltas accumulate additively across detectors. A
// row's class is the label with the highest accumulated score; a row with no
// positive score is "unknown". Equal scores break toward the
// lexicographically smallest label so classification is deterministic.
//
// A detector that returns an error does not abort the run: the failure is
// logged, recorded in the run diagnostics, and the detector is treated as
// having abstained for that row.
//
// # Region Detection
//
// [DetectRegions] walks the classified rows with a two-state machine. A
// header row opens a region; a data row with no header above it opens a
// region with an inferred header. While a region's header is only inferred,
// a later header row upgrades the region in place instead of splitting the
// sheet. A header row arriving below a confirmed header closes the open
// region and starts the next one, so one sheet can carry several stacked
// tables.
//
// Sheets where no row ever classifies as header or data fall back to a
// single region anchored at the most header-like row.
package layout
