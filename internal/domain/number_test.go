package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		want  float64
		valid bool
	}{
		{"json number", `12.5`, 12.5, true},
		{"negative number", `-97.7431`, -97.7431, true},
		{"numeric string", `"33.9391"`, 33.9391, true},
		{"padded string", `" 42 "`, 42, true},
		{"exponent", `1e3`, 1000, true},
		{"null", `null`, 0, false},
		{"empty", ``, 0, false},
		{"empty string", `""`, 0, false},
		{"text", `"n/a"`, 0, false},
		{"NaN string", `"NaN"`, 0, false},
		{"infinity string", `"Inf"`, 0, false},
		{"bool", `true`, 0, false},
		{"object", `{}`, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseNumber(json.RawMessage(tt.raw))
			assert.Equal(t, tt.valid, got.Valid)
			if tt.valid {
				assert.InDelta(t, tt.want, got.Value, 1e-12)
			}
		})
	}
}

func TestNumber_Float(t *testing.T) {
	assert.Equal(t, 3.5, ValidNumber(3.5).Float())
	assert.True(t, math.IsNaN(Number{}.Float()))
}

func TestNumber_Count(t *testing.T) {
	assert.Equal(t, int64(12), ValidNumber(12.9).Count())
	assert.Equal(t, int64(-3), ValidNumber(-3.7).Count())
	assert.Equal(t, int64(0), Number{}.Count())
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		want  int64
		valid bool
	}{
		{"integer", `328`, 328, true},
		{"numeric string", `"70823"`, 70823, true},
		{"zero", `"0"`, 0, true},
		{"largest exact float below 2^63", `9223372036854774784`, 9223372036854774784, true},
		{"2^63", `9223372036854775808`, 0, false},
		{"exponent overflow", `"1e19"`, 0, false},
		{"huge", `1e300`, 0, false},
		{"negative", `-5`, 0, false},
		{"negative string", `"-1e19"`, 0, false},
		{"text", `"n/a"`, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCount(json.RawMessage(tt.raw))
			assert.Equal(t, tt.valid, got.Valid)
			assert.Equal(t, tt.want, got.Count())
		})
	}
}

func TestNumber_CountOutOfRange(t *testing.T) {
	assert.Equal(t, int64(0), ValidNumber(1e19).Count())
	assert.Equal(t, int64(0), ValidNumber(-1e19).Count())
}
