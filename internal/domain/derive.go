package domain

// Totals holds the global sum of every metric.
type Totals struct {
	Confirmed int64 `json:"confirmed"`
	Death     int64 `json:"death"`
	Recovered int64 `json:"recovered"`
	Active    int64 `json:"active"`
}

// Of returns the global total for a metric.
func (t Totals) Of(m Metric) int64 {
	switch m {
	case MetricConfirmed:
		return t.Confirmed
	case MetricDeath:
		return t.Death
	case MetricRecovered:
		return t.Recovered
	case MetricActive:
		return t.Active
	default:
		return 0
	}
}

// SumTotals adds up every metric across stats.
func SumTotals(stats []CountryStat) Totals {
	var t Totals
	for _, s := range stats {
		t.Confirmed += s.TotalConfirmed
		t.Death += s.TotalDeath
		t.Recovered += s.TotalRecovered
		t.Active += s.TotalActive
	}
	return t
}

// TotalActive is the global active count.
func TotalActive(stats []CountryStat) int64 {
	var total int64
	for _, s := range stats {
		total += s.TotalActive
	}
	return total
}

// Percentage returns value as a share of total in percent, or 0 when total is
// not positive.
func Percentage(value, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(value) / float64(total) * 100
}

// WithPercentages returns a copy of stats with PercentageActive filled in.
// The input slice is not modified.
func WithPercentages(stats []CountryStat) []CountryStat {
	total := TotalActive(stats)
	out := make([]CountryStat, len(stats))
	for i, s := range stats {
		s.PercentageActive = Percentage(s.TotalActive, total)
		out[i] = s
	}
	return out
}

// DomainOf returns [0, max(metric values, 1)].
func DomainOf(stats []CountryStat, m Metric) ColorDomain {
	highest := int64(1)
	for _, s := range stats {
		if v := m.Value(s); v > highest {
			highest = v
		}
	}
	return ColorDomain{Min: 0, Max: float64(highest)}
}
