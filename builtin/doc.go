// Package builtin ships the detectors, transforms and validators a usable
// normalization setup starts from, plus the named [Catalog] the
// configuration loader resolves manifest hook names through.
//
// # Row detectors
//
// [HeaderKeywords] votes header on rows matching the field vocabulary,
// [ValueShapes] votes data on rows of numbers, dates and booleans, and
// [BlankRows] votes against both on mostly-blank rows.
//
// # Column detectors
//
// [HeaderMatch] compares folded headers against field names, labels and
// aliases; [KindSniffer] scores sampled values against the field's declared
// kind; [ValuePattern] scores them against a regular expression.
//
// # Transforms and validators
//
// Transforms canonicalize values: [Trim], [TextNormalize], [Number],
// [Date], [MapValues] and the derived-field builder [Concat]. Validators
// attach issues without touching values: [Required], [PatternValidator],
// [OneOf], [Range] and [Unique].
//
// Every hook is also registered by name in the default catalog, so
// manifests refer to "header_match" or "normalize_number" and configure
// them with parameters.
package builtin
