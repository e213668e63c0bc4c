package tables

import "github.com/tsawler/tabulary/patch"

// RowStats counts the data rows of a region. Empty and NonEmpty
// partition Total: a row is empty when every source cell in the region
// is blank after trimming.
type RowStats struct {
	Total    int `json:"total"`
	Empty    int `json:"empty"`
	NonEmpty int `json:"non_empty"`
}

// ColumnStats counts the source columns of a region. Empty/NonEmpty and
// Mapped/Unmapped each partition Total. A column is empty when it has
// no non-blank data cell, so in a region without data rows every column
// counts as empty.
type ColumnStats struct {
	Total    int `json:"total"`
	Empty    int `json:"empty"`
	NonEmpty int `json:"non_empty"`
	Mapped   int `json:"mapped"`
	Unmapped int `json:"unmapped"`
}

// FieldStats counts the registered fields. Mapped, Derived and Unmapped
// partition Total: a field is mapped when a source column satisfied it,
// derived when transforms produced its values without a source column,
// and unmapped otherwise.
type FieldStats struct {
	Total    int `json:"total"`
	Mapped   int `json:"mapped"`
	Derived  int `json:"derived"`
	Unmapped int `json:"unmapped"`
}

// ValidationStats counts validator findings. The per-severity counts
// sum to Total.
type ValidationStats struct {
	Total      int            `json:"total"`
	BySeverity map[string]int `json:"by_severity,omitempty"`
}

// Summary aggregates the counters for one normalized table.
type Summary struct {
	Rows       RowStats        `json:"rows"`
	Columns    ColumnStats     `json:"columns"`
	Fields     FieldStats      `json:"fields"`
	Validation ValidationStats `json:"validation"`
}

func countIssues(issues map[string][]patch.IssueCell) ValidationStats {
	stats := ValidationStats{}
	for _, cells := range issues {
		for _, cell := range cells {
			for _, issue := range cell {
				stats.Total++
				if stats.BySeverity == nil {
					stats.BySeverity = make(map[string]int)
				}
				stats.BySeverity[string(issue.Severity)]++
			}
		}
	}
	return stats
}
