package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is the result of coercing a JSON value that should be numeric.
// Valid is false when the value was missing, null, non-numeric or not finite.
type Number struct {
	Value float64
	Valid bool
}

// ValidNumber wraps v as a successfully parsed Number.
func ValidNumber(v float64) Number {
	return Number{Value: v, Valid: true}
}

// ParseNumber coerces a raw JSON value holding either a number or a numeric
// string. It never returns an error; callers inspect Valid.
func ParseNumber(raw json.RawMessage) Number {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Number{}
	}

	text := string(raw)
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Number{}
		}
		text = strings.TrimSpace(s)
	}
	if text == "" {
		return Number{}
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Number{}
	}
	return ValidNumber(v)
}

// maxCount is 2^63; float64 values at or above it do not fit in an int64.
const maxCount = float64(math.MaxInt64)

// ParseCount coerces a raw case total. On top of the ParseNumber rules,
// negative totals and totals too large for an int64 are parse failures.
func ParseCount(raw json.RawMessage) Number {
	n := ParseNumber(raw)
	if !n.Valid || n.Value < 0 || n.Value >= maxCount {
		return Number{}
	}
	return n
}

// Float returns the value, or NaN when the parse failed.
func (n Number) Float() float64 {
	if !n.Valid {
		return math.NaN()
	}
	return n.Value
}

// Count returns the value truncated toward zero as a case count, or 0 when
// the parse failed or the value does not fit in an int64.
func (n Number) Count() int64 {
	if !n.Valid || n.Value <= -maxCount || n.Value >= maxCount {
		return 0
	}
	return int64(n.Value)
}
