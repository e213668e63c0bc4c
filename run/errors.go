// Package run holds the shared plumbing for a single normalization run:
// tunable settings, the typed error taxonomy, detector failure diagnostics,
// and the scratch state threaded through every hook invocation.
package run

import (
	"errors"
	"fmt"
)

// Kind classifies fatal errors by where the fault lies.
type Kind string

const (
	// KindConfiguration indicates an invalid registry, settings, or manifest.
	KindConfiguration Kind = "configuration"

	// KindInput indicates unreadable or structurally invalid input data.
	KindInput Kind = "input"

	// KindPipeline indicates a contract violation surfaced mid-run, such as
	// a patch vector of the wrong length or a write to an unknown field.
	KindPipeline Kind = "pipeline"
)

// Pipeline stage names used in errors and diagnostics.
const (
	StageConfigure = "configure"
	StageRead      = "read"
	StageClassify  = "classify_rows"
	StageRegions   = "detect_regions"
	StageMapping   = "map_columns"
	StagePatch     = "apply_patches"
	StageAssemble  = "assemble"
	StageRender    = "render"
)

// Error is the fatal error type for a normalization run. Any error returned
// from the engine wraps (or is) an *Error; inspect it with errors.As or the
// IsKind helper.
type Error struct {
	Kind  Kind
	Stage string
	Err   error
}

func (e *Error) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s error at %s: %v", e.Kind, e.Stage, e.Err)
	}
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an Error with the given kind, stage, and cause.
func NewError(kind Kind, stage string, err error) *Error {
	return &Error{Kind: kind, Stage: stage, Err: err}
}

// Configuration wraps err as a configuration error.
func Configuration(stage string, err error) *Error {
	return NewError(KindConfiguration, stage, err)
}

// Configurationf creates a configuration error from a format string.
func Configurationf(stage, format string, args ...any) *Error {
	return NewError(KindConfiguration, stage, fmt.Errorf(format, args...))
}

// Input wraps err as an input error.
func Input(stage string, err error) *Error {
	return NewError(KindInput, stage, err)
}

// Inputf creates an input error from a format string.
func Inputf(stage, format string, args ...any) *Error {
	return NewError(KindInput, stage, fmt.Errorf(format, args...))
}

// Pipeline wraps err as a pipeline error.
func Pipeline(stage string, err error) *Error {
	return NewError(KindPipeline, stage, err)
}

// Pipelinef creates a pipeline error from a format string.
func Pipelinef(stage, format string, args ...any) *Error {
	return NewError(KindPipeline, stage, fmt.Errorf(format, args...))
}

// IsKind reports whether any error in err's chain is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind == kind
	}
	return false
}

// KindOf returns the kind of the first *Error in err's chain, if any.
func KindOf(err error) (Kind, bool) {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind, true
	}
	return "", false
}
