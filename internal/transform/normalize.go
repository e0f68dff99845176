package transform

import (
	"strings"
	"time"
)

// The upstream preprocessor replaces SQL NULLs with 0 before export, and
// the source system itself uses 0/1 as "no value" markers in free-text
// columns. Normalization therefore treats numeric 0, numeric 1 and the
// string "0" as absent.

// NormalizeText sanitizes a raw scalar into a canonical string form.
// Sentinel values collapse to the empty string, strings are trimmed, and
// any other type passes through unchanged. It never panics.
func NormalizeText(v interface{}) interface{} {
	if isSentinel(v) {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return v
}

// IsPresent reports whether an optional field carries real data. Fields
// that fail this check are omitted from the output document entirely
// rather than emitted as empty structures.
func IsPresent(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		s := strings.TrimSpace(val)
		return s != "" && s != "0"
	case float64:
		return val != 0 && val != 1
	case int:
		return val != 0 && val != 1
	case int64:
		return val != 0 && val != 1
	default:
		return true
	}
}

// hasValue is the looser presence check used for coded integer fields,
// where 1 is a legitimate code rather than an absence marker. Only nil,
// numeric 0, "0" and the empty string count as absent here.
func hasValue(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		s := strings.TrimSpace(val)
		return s != "" && s != "0"
	case float64:
		return val != 0
	case int:
		return val != 0
	case int64:
		return val != 0
	default:
		return true
	}
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
}

// NormalizeDate parses a raw value into calendar-date form (YYYY-MM-DD).
// Absent, sentinel or unparsable input yields "" rather than an error.
func NormalizeDate(v interface{}) string {
	t, ok := parseTime(v)
	if !ok {
		return ""
	}
	return t.Format("2006-01-02")
}

// NormalizeDateTime parses a raw value into a full RFC3339 timestamp.
// Date-only input becomes midnight UTC. Absent, sentinel or unparsable
// input yields "".
func NormalizeDateTime(v interface{}) string {
	t, ok := parseTime(v)
	if !ok {
		return ""
	}
	return t.Format(time.RFC3339)
}

func parseTime(v interface{}) (time.Time, bool) {
	if isSentinel(v) {
		return time.Time{}, false
	}
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func isSentinel(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == "0"
	case float64:
		return val == 0 || val == 1
	case int:
		return val == 0 || val == 1
	case int64:
		return val == 0 || val == 1
	default:
		return false
	}
}
