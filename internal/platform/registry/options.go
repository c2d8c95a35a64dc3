// internal/platform/registry/options.go
package registry

import (
	"time"
)

// Options holds per-worker settings loaded from the `workers:` section of the
// config file. Accessors fall back to the given default when the key is
// missing or has an unexpected type.
type Options map[string]interface{}

// GetString returns a non-empty string value.
func (o Options) GetString(key, def string) string {
	if val, ok := o[key].(string); ok && val != "" {
		return val
	}
	return def
}

// GetInt accepts int and float64 (numbers decoded from JSON).
func (o Options) GetInt(key string, def int) int {
	switch val := o[key].(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		return int(val)
	}
	return def
}

// GetFloat accepts float64 and int.
func (o Options) GetFloat(key string, def float64) float64 {
	switch val := o[key].(type) {
	case float64:
		return val
	case int:
		return float64(val)
	}
	return def
}

// GetBool returns a bool value.
func (o Options) GetBool(key string, def bool) bool {
	if val, ok := o[key].(bool); ok {
		return val
	}
	return def
}

// GetDuration accepts a time.Duration, a duration string ("5s") or a number of
// seconds.
func (o Options) GetDuration(key string, def time.Duration) time.Duration {
	switch val := o[key].(type) {
	case time.Duration:
		return val
	case string:
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	case int:
		return time.Duration(val) * time.Second
	case float64:
		return time.Duration(val * float64(time.Second))
	}
	return def
}

// GetStrings accepts []string and []interface{} holding only strings.
func (o Options) GetStrings(key string, def []string) []string {
	switch val := o[key].(type) {
	case []string:
		return val
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return def
			}
			out = append(out, s)
		}
		return out
	}
	return def
}
