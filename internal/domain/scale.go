package domain

import (
	"fmt"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

const (
	minRadius    = 4.0
	radiusFactor = 3.5
)

// Radius maps a magnitude to a marker radius: 4 for non-positive (or NaN)
// values, otherwise max(4, log10(v+1)*3.5).
func Radius(v float64) float64 {
	if !(v > 0) {
		return minRadius
	}
	return math.Max(minRadius, math.Log10(v+1)*radiusFactor)
}

// Gradient is a two-colour sequential ramp interpolated linearly in RGB.
type Gradient struct {
	Start colorful.Color
	End   colorful.Color
}

// NewGradient parses two "#rrggbb" endpoints.
func NewGradient(start, end string) (Gradient, error) {
	s, err := colorful.Hex(start)
	if err != nil {
		return Gradient{}, fmt.Errorf("gradient start %q: %w", start, err)
	}
	e, err := colorful.Hex(end)
	if err != nil {
		return Gradient{}, fmt.Errorf("gradient end %q: %w", end, err)
	}
	return Gradient{Start: s, End: e}, nil
}

func mustGradient(start, end string) Gradient {
	g, err := NewGradient(start, end)
	if err != nil {
		panic(err)
	}
	return g
}

// At returns the colour at position t as "#rrggbb". t is clamped to [0, 1];
// NaN is treated as 0.
func (g Gradient) At(t float64) string {
	switch {
	case !(t > 0):
		return g.Start.Hex()
	case t >= 1:
		return g.End.Hex()
	default:
		return g.Start.BlendRgb(g.End, t).Hex()
	}
}

var gradients = map[Metric]Gradient{
	MetricConfirmed: mustGradient("#e0f2fe", "#1e40af"),
	MetricDeath:     mustGradient("#fee5d9", "#67000d"),
	MetricRecovered: mustGradient("#e0f3db", "#31a354"),
	MetricActive:    mustGradient("#e0f7fa", "#006064"),
}

// GradientFor returns the fixed ramp used for a metric. Unknown metrics get
// the confirmed ramp.
func GradientFor(m Metric) Gradient {
	if g, ok := gradients[m]; ok {
		return g
	}
	return gradients[MetricConfirmed]
}

// ColorScale binds a gradient to a domain.
type ColorScale struct {
	Gradient Gradient
	Domain   ColorDomain
}

// NewColorScale creates a scale over d.
func NewColorScale(g Gradient, d ColorDomain) ColorScale {
	return ColorScale{Gradient: g, Domain: d}
}

// Color maps v into the domain and returns the interpolated colour.
// Values outside the domain clamp to the nearest endpoint. A degenerate
// domain (max <= min) maps everything to the start colour.
func (s ColorScale) Color(v float64) string {
	span := s.Domain.Max - s.Domain.Min
	if !(span > 0) {
		return s.Gradient.At(0)
	}
	return s.Gradient.At((v - s.Domain.Min) / span)
}
