package utils

import (
	"encoding/json"
	"strconv"
	"strings"
)

// The mailcow API types numeric fields inconsistently: the same field can arrive
// as a JSON number, a numeric string, an empty string or be missing entirely.
// All values cross through these coercers before any arithmetic.

// AsInt64 converts an untyped API value to int64, falling back to def
func AsInt64(value interface{}, def int64) int64 {
	switch v := value.(type) {
	case nil:
		return def
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
		if f, err := v.Float64(); err == nil {
			return int64(f)
		}
		return def
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return def
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int64(f)
		}
		return def
	case bool:
		if v {
			return 1
		}
		return 0
	default:
		return def
	}
}

// AsInt converts an untyped API value to int, falling back to def
func AsInt(value interface{}, def int) int {
	return int(AsInt64(value, int64(def)))
}

// AsBool interprets mailcow's "1"/"0", 1/0 and native booleans
func AsBool(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v == "1" || strings.EqualFold(v, "true")
	case int:
		return v == 1
	case float64:
		return v == 1
	case json.Number:
		return v.String() == "1"
	default:
		return false
	}
}

// AsString converts an untyped API value to string, empty on mismatch
func AsString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case nil:
		return ""
	default:
		return ""
	}
}
