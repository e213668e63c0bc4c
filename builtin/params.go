package builtin

import (
	"fmt"
	"sort"
)

// Params carries the raw manifest parameters for one hook entry. Values
// arrive as decoded YAML, so the getters coerce the scalar types YAML
// produces.
type Params map[string]any

// Has reports whether a key is present.
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// String returns a string parameter or the default.
func (p Params) String(key, def string) string {
	v, ok := p[key]
	if !ok {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// Bool returns a boolean parameter or the default.
func (p Params) Bool(key string, def bool) bool {
	v, ok := p[key]
	if !ok {
		return def
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return def
}

// Float returns a numeric parameter or the default.
func (p Params) Float(key string, def float64) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case uint64:
		return float64(v)
	default:
		return def
	}
}

// Strings returns a list parameter. A single string becomes a one-element
// list; absent keys return nil.
func (p Params) Strings(key string) []string {
	switch v := p[key].(type) {
	case nil:
		return nil
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			} else {
				out = append(out, fmt.Sprintf("%v", item))
			}
		}
		return out
	default:
		return nil
	}
}

// StringMap returns a mapping parameter with both keys and values coerced
// to strings. Absent keys return nil.
func (p Params) StringMap(key string) map[string]string {
	out := map[string]string{}
	switch v := p[key].(type) {
	case map[string]string:
		for k, val := range v {
			out[k] = val
		}
	case map[string]any:
		for k, val := range v {
			if s, ok := val.(string); ok {
				out[k] = s
			} else {
				out[k] = fmt.Sprintf("%v", val)
			}
		}
	case map[any]any:
		for k, val := range v {
			out[fmt.Sprintf("%v", k)] = fmt.Sprintf("%v", val)
		}
	default:
		return nil
	}
	return out
}

// Keys returns the parameter names in sorted order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
