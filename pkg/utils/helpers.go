package utils

import (
	"strconv"
	"strings"
	"time"
)

// ParseDuration safely parses a duration string like "5m", falling back to the
// given default on empty or bad input.
func ParseDuration(d string, fallback time.Duration) time.Duration {
	if d == "" {
		return fallback
	}
	duration, err := time.ParseDuration(d)
	if err != nil {
		return fallback
	}
	return duration
}

// ParseValue coerces a string into the narrowest sensible type.
func ParseValue(s string) interface{} {
	s = strings.TrimSpace(s)

	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// Numeric converts supported payload value types to float64. The second return
// reports whether the value was numeric at all.
func Numeric(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// ParseTimestamp accepts the timestamp shapes upstream providers actually send:
// RFC3339 strings, unix seconds and unix milliseconds.
func ParseTimestamp(v interface{}) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, true
	case string:
		if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(val)); err == nil {
			return ts, true
		}
		return time.Time{}, false
	case int, int32, int64, float32, float64:
		n, _ := Numeric(val)
		// Heuristic cutover: values past the year ~33658 in seconds are millis.
		if n > 1e12 {
			return time.UnixMilli(int64(n)).UTC(), true
		}
		return time.Unix(int64(n), 0).UTC(), true
	default:
		return time.Time{}, false
	}
}
