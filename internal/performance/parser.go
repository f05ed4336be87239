// Package performance extracts analyzable numbers from the free-form values
// athletes type into their training logs ("20kg", "20,5", "12-10-8", plain
// numbers). Parsing is total: unparseable input yields nil, never an error,
// so messy athlete text can never block execution recording.
package performance

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// First decimal number in the string; comma accepted as decimal separator.
// For dash-separated rep schemes like "12-10-8" this matches the leading
// "12", which is the convention the evolution view expects.
var numberPattern = regexp.MustCompile(`-?\d+(?:[.,]\d+)?`)

// ParseLoad extracts a numeric load from values like 20, "20kg", "20,5".
// Returns nil when no number can be found.
func ParseLoad(value interface{}) *float64 {
	return parseNumeric(value)
}

// ParseReps extracts a numeric rep count from values like 12, "12-10-8"
// (first number wins), "8+". Returns nil when no number can be found.
func ParseReps(value interface{}) *float64 {
	return parseNumeric(value)
}

func parseNumeric(value interface{}) *float64 {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case float64:
		return &v
	case float32:
		f := float64(v)
		return &f
	case int:
		f := float64(v)
		return &f
	case int32:
		f := float64(v)
		return &f
	case int64:
		f := float64(v)
		return &f
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return &f
		}
		return nil
	case string:
		return parseString(v)
	default:
		return nil
	}
}

func parseString(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	match := numberPattern.FindString(raw)
	if match == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.Replace(match, ",", ".", 1), 64)
	if err != nil {
		return nil
	}
	return &f
}

// Summary is the per-record reduction of a performed payload: the maximum
// load and maximum reps observed, with the raw strings the athlete entered
// kept alongside for display.
type Summary struct {
	LoadValue *float64
	LoadRaw   *string
	RepsValue *float64
	RepsRaw   *string
}

// MaxLoadAndReps reduces a performed payload to one summary load and one
// summary reps value. When the payload carries a "setDetails" sequence of
// per-set entries, all entries are scanned and the per-field maximum wins;
// otherwise the payload's top-level "load"/"reps" fields act as a single
// entry. A nil or non-numeric payload yields an empty summary.
func MaxLoadAndReps(performed map[string]interface{}) Summary {
	var s Summary
	if performed == nil {
		return s
	}

	if details, ok := performed["setDetails"].([]interface{}); ok {
		for _, entry := range details {
			row, ok := entry.(map[string]interface{})
			if !ok {
				continue
			}
			s.takeLoad(row["load"])
			s.takeReps(row["reps"])
		}
		return s
	}

	s.takeLoad(performed["load"])
	s.takeReps(performed["reps"])
	return s
}

func (s *Summary) takeLoad(raw interface{}) {
	value := ParseLoad(raw)
	if value == nil {
		return
	}
	if s.LoadValue == nil || *value > *s.LoadValue {
		s.LoadValue = value
		s.LoadRaw = rawString(raw)
	}
}

func (s *Summary) takeReps(raw interface{}) {
	value := ParseReps(raw)
	if value == nil {
		return
	}
	if s.RepsValue == nil || *value > *s.RepsValue {
		s.RepsValue = value
		s.RepsRaw = rawString(raw)
	}
}

// Merge folds another summary into s, keeping the field-wise maximum. Used
// when the same exercise shows up via more than one record within a single
// execution.
func (s *Summary) Merge(other Summary) {
	if other.LoadValue != nil && (s.LoadValue == nil || *other.LoadValue > *s.LoadValue) {
		s.LoadValue = other.LoadValue
		s.LoadRaw = other.LoadRaw
	}
	if other.RepsValue != nil && (s.RepsValue == nil || *other.RepsValue > *s.RepsValue) {
		s.RepsValue = other.RepsValue
		s.RepsRaw = other.RepsRaw
	}
}

// HasData reports whether the summary carries at least one numeric value.
func (s Summary) HasData() bool {
	return s.LoadValue != nil || s.RepsValue != nil
}

func rawString(raw interface{}) *string {
	if raw == nil {
		return nil
	}
	var out string
	switch v := raw.(type) {
	case string:
		out = v
	case json.Number:
		out = v.String()
	case float64:
		out = strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		out = strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		out = strconv.Itoa(v)
	case int32:
		out = strconv.FormatInt(int64(v), 10)
	case int64:
		out = strconv.FormatInt(v, 10)
	default:
		return nil
	}
	return &out
}
