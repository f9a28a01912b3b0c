package domain

import (
	"fmt"
	"strings"
)

// Category is an OData entity set holding one kind of case count.
type Category string

const (
	CategoryConfirmed Category = "Confirmed"
	CategoryDeath     Category = "Death"
	CategoryRecovered Category = "Recovered"
)

// Categories lists every source category in merge order.
var Categories = []Category{CategoryConfirmed, CategoryDeath, CategoryRecovered}

// TotalField is the alias the aggregation query assigns to the summed
// Cases column, e.g. "TotalConfirmed".
func (c Category) TotalField() string {
	return "Total" + string(c)
}

// Metric selects one numeric column of a CountryStat for scaling and views.
type Metric string

const (
	MetricConfirmed Metric = "confirmed"
	MetricDeath     Metric = "death"
	MetricRecovered Metric = "recovered"
	MetricActive    Metric = "active"
)

// Metrics lists every supported metric.
var Metrics = []Metric{MetricConfirmed, MetricDeath, MetricRecovered, MetricActive}

// ParseMetric accepts a metric name case-insensitively. "deaths" is accepted
// as an alias for "death".
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "confirmed":
		return MetricConfirmed, nil
	case "death", "deaths":
		return MetricDeath, nil
	case "recovered":
		return MetricRecovered, nil
	case "active":
		return MetricActive, nil
	default:
		return "", fmt.Errorf("unknown metric %q", s)
	}
}

// Value returns the metric's column from a CountryStat.
func (m Metric) Value(s CountryStat) int64 {
	switch m {
	case MetricConfirmed:
		return s.TotalConfirmed
	case MetricDeath:
		return s.TotalDeath
	case MetricRecovered:
		return s.TotalRecovered
	case MetricActive:
		return s.TotalActive
	default:
		return 0
	}
}
