package run

// TiePolicy selects how the column mapper resolves two columns that tie for
// the same field with identical scores.
type TiePolicy string

const (
	// TieLeftmost keeps the column with the lowest index and unmaps the rest.
	TieLeftmost TiePolicy = "leftmost"

	// TieLeaveUnmapped refuses to guess: all tied columns stay unmapped and
	// the field is left unsatisfied.
	TieLeaveUnmapped TiePolicy = "leave_unmapped"
)

func (p TiePolicy) String() string {
	return string(p)
}

// Valid reports whether the policy is one of the known values.
func (p TiePolicy) Valid() bool {
	return p == TieLeftmost || p == TieLeaveUnmapped
}

// Settings holds the tunable parameters for a normalization run.
type Settings struct {
	// MappingScoreThreshold is the minimum accumulated score a column must
	// reach to be mapped to a field.
	// Default: 0.5
	MappingScoreThreshold float64

	// MappingTieResolution selects the tie-break policy when two columns
	// score identically for one field.
	// Default: TieLeftmost
	MappingTieResolution TiePolicy

	// IncludeDerivedFields controls whether fields written only by
	// transforms (never mapped from a source column) appear as output
	// columns.
	// Default: true
	IncludeDerivedFields bool

	// IncludeUnmappedColumns controls whether unmapped source columns are
	// carried into the output under synthetic headers.
	// Default: false
	IncludeUnmappedColumns bool

	// UnmappedHeaderPrefix is the prefix for synthetic headers assigned to
	// unmapped columns. The 1-based source column number is appended.
	// Default: "column_"
	UnmappedHeaderPrefix string

	// DetectorSampleSize is the number of leading data values handed to
	// column detectors as the sample slice. Zero or negative means the full
	// column.
	// Default: 20
	DetectorSampleSize int

	// Metadata is caller-supplied run metadata, visible to every hook.
	Metadata map[string]string
}

// DefaultSettings returns the default run settings.
func DefaultSettings() Settings {
	return Settings{
		MappingScoreThreshold:  0.5,
		MappingTieResolution:   TieLeftmost,
		IncludeDerivedFields:   true,
		IncludeUnmappedColumns: false,
		UnmappedHeaderPrefix:   "column_",
		DetectorSampleSize:     20,
	}
}

// Validate checks the settings for values the pipeline cannot run with.
func (s Settings) Validate() error {
	if s.MappingScoreThreshold < 0 || s.MappingScoreThreshold > 1 {
		return Configurationf(StageConfigure,
			"mapping score threshold %v out of range [0, 1]", s.MappingScoreThreshold)
	}
	if !s.MappingTieResolution.Valid() {
		return Configurationf(StageConfigure,
			"unknown tie resolution policy %q", s.MappingTieResolution)
	}
	return nil
}

// Clone returns a deep copy of the settings.
func (s Settings) Clone() Settings {
	out := s
	if s.Metadata != nil {
		out.Metadata = make(map[string]string, len(s.Metadata))
		for k, v := range s.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// Sample returns the leading slice of values used for detector sampling,
// honoring DetectorSampleSize.
func (s Settings) Sample(values []string) []string {
	if s.DetectorSampleSize <= 0 || len(values) <= s.DetectorSampleSize {
		return values
	}
	return values[:s.DetectorSampleSize]
}
