package run

// State is the mutable scratch space shared by every hook in one run. Row
// detectors, column detectors, transforms, and validators all receive the
// same State so they can pass hints forward (a locale guessed from headers,
// a date layout fixed by the first parse, and so on).
//
// The pipeline is single-threaded, so State does no locking. It must not be
// shared across concurrent runs.
type State struct {
	values map[string]any
}

// NewState creates an empty State.
func NewState() *State {
	return &State{values: make(map[string]any)}
}

// Get returns the value stored under key and whether it was present.
func (s *State) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// GetString returns the string stored under key, or "" when absent or not a
// string.
func (s *State) GetString(key string) string {
	if v, ok := s.values[key]; ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return ""
}

// Set stores value under key, replacing any previous value.
func (s *State) Set(key string, value any) {
	s.values[key] = value
}

// Delete removes key from the state.
func (s *State) Delete(key string) {
	delete(s.values, key)
}

// Len returns the number of stored keys.
func (s *State) Len() int {
	return len(s.values)
}
