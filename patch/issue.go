package patch

import "fmt"

// Severity grades a validation issue.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

func (s Severity) String() string {
	return string(s)
}

// Valid reports whether the severity is one of the known grades.
func (s Severity) Valid() bool {
	return s == SeverityInfo || s == SeverityWarning || s == SeverityError
}

// Issue is a single validation finding attached to one cell.
type Issue struct {
	// Message describes the finding. Required.
	Message string `json:"message"`

	// Severity grades the finding. Empty defaults to SeverityWarning when
	// the issue is normalized into a patch.
	Severity Severity `json:"severity"`

	// Code is an optional machine-readable identifier, such as
	// "required_missing" or "out_of_range".
	Code string `json:"code,omitempty"`

	// Meta carries optional hook-specific detail.
	Meta map[string]any `json:"meta,omitempty"`
}

// IssueCell is the list of issues attached to one cell. A nil IssueCell
// means the cell is clean.
type IssueCell []Issue

// IssueRecord is a sparse validation finding: an issue addressed to a
// specific row, and optionally a specific field. An empty Field means the
// field the validator was invoked for.
type IssueRecord struct {
	Row   int
	Field string
	Issue Issue
}

// normalizeIssue applies the severity default and rejects malformed issues.
func normalizeIssue(iss Issue) (Issue, error) {
	if iss.Message == "" {
		return iss, fmt.Errorf("issue with empty message")
	}
	if iss.Severity == "" {
		iss.Severity = SeverityWarning
	}
	if !iss.Severity.Valid() {
		return iss, fmt.Errorf("unknown issue severity %q", iss.Severity)
	}
	return iss, nil
}
