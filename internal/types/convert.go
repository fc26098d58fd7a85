package types

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ToString converts a loosely-typed JSON value to a string.
// Numbers are formatted without exponent, nil and unsupported types become "".
func ToString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}

// ToBool converts a loosely-typed JSON value to a bool.
// Accepts booleans, "true"/"false" strings and numbers (non-zero is true).
func ToBool(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return err == nil && parsed
	case float64:
		return b != 0
	case json.Number:
		f, err := b.Float64()
		return err == nil && f != 0
	case int:
		return b != 0
	default:
		return false
	}
}

// FirstString returns the first non-empty string value found under keys.
func FirstString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s := ToString(m[k]); s != "" {
			return s
		}
	}
	return ""
}
