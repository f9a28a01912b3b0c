package domain

import "time"

// Snapshot is the immutable result of one successful fetch cycle. Stats is
// shared with every reader and must not be modified; views copy before
// reordering.
type Snapshot struct {
	Cycle     uint64        `json:"cycle"`
	FetchedAt time.Time     `json:"fetched_at"`
	Stats     []CountryStat `json:"stats"`
	Totals    Totals        `json:"totals"`
}

// NewSnapshot derives percentages and totals for merged stats and stamps the
// snapshot with the current time.
func NewSnapshot(cycle uint64, stats []CountryStat) *Snapshot {
	derived := WithPercentages(stats)
	return &Snapshot{
		Cycle:     cycle,
		FetchedAt: clock.Now().UTC(),
		Stats:     derived,
		Totals:    SumTotals(derived),
	}
}

// Domain returns the colour/size domain for a metric.
func (s *Snapshot) Domain(m Metric) ColorDomain {
	return DomainOf(s.Stats, m)
}

// ColorScale returns the metric's gradient over the current domain.
func (s *Snapshot) ColorScale(m Metric) ColorScale {
	return NewColorScale(GradientFor(m), s.Domain(m))
}

// Share returns an entry's metric value as a percentage of the global total.
func (s *Snapshot) Share(stat CountryStat, m Metric) float64 {
	if m == MetricActive {
		return stat.PercentageActive
	}
	return Percentage(m.Value(stat), s.Totals.Of(m))
}
