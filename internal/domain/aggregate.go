package domain

import (
	"fmt"
	"math"
	"strings"
)

// GeometryMode selects how coordinates of several rows for the same country
// are combined.
type GeometryMode string

const (
	// GeometryRunningAverage halves toward each new row: lat = (prev + row) / 2.
	GeometryRunningAverage GeometryMode = "running"
	// GeometryMean is the arithmetic mean of the contributing rows, taken per
	// axis over the rows whose coordinate parsed.
	GeometryMean GeometryMode = "mean"
)

// ParseGeometryMode validates a configured geometry mode. Empty selects the
// running average.
func ParseGeometryMode(s string) (GeometryMode, error) {
	switch GeometryMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", GeometryRunningAverage:
		return GeometryRunningAverage, nil
	case GeometryMean:
		return GeometryMean, nil
	default:
		return "", fmt.Errorf("unknown geometry mode %q", s)
	}
}

// CategoryRows holds the raw rows of one fetch cycle, one slice per category.
type CategoryRows struct {
	Confirmed []RawLocationRow
	Death     []RawLocationRow
	Recovered []RawLocationRow
}

// Aggregator merges category rows into per-country stats.
type Aggregator struct {
	mode GeometryMode
}

// NewAggregator creates an Aggregator. An unrecognised mode falls back to the
// running average.
func NewAggregator(mode GeometryMode) *Aggregator {
	if mode != GeometryMean {
		mode = GeometryRunningAverage
	}
	return &Aggregator{mode: mode}
}

// Aggregate merges rows with the running-average geometry.
func Aggregate(rows CategoryRows) []CountryStat {
	return NewAggregator(GeometryRunningAverage).Aggregate(rows)
}

// Aggregate reduces the three row sets into one CountryStat per country, in
// the order countries first appear among the confirmed rows.
//
// Confirmed rows create or extend entries. Death and recovered rows are added
// to existing entries only; rows for countries without confirmed data are
// dropped. Active counts are set last and floored at zero.
func (a *Aggregator) Aggregate(rows CategoryRows) []CountryStat {
	acc := newAccumulator(len(rows.Confirmed))

	for _, row := range rows.Confirmed {
		acc.addConfirmed(row, a.mode)
	}
	for _, row := range rows.Death {
		if s := acc.lookup(row.CountryRegion); s != nil {
			s.TotalDeath += row.TotalCases.Count()
		}
	}
	for _, row := range rows.Recovered {
		if s := acc.lookup(row.CountryRegion); s != nil {
			s.TotalRecovered += row.TotalCases.Count()
		}
	}

	for i := range acc.stats {
		acc.stats[i].TotalActive = activeCases(acc.stats[i])
	}
	return acc.stats
}

func activeCases(s CountryStat) int64 {
	active := s.TotalConfirmed - s.TotalDeath - s.TotalRecovered
	if active < 0 {
		return 0
	}
	return active
}

// accumulator keeps insertion order alongside a key index.
type accumulator struct {
	stats []CountryStat
	index map[string]int

	// Used by GeometryMean only.
	lat  []axisMean
	long []axisMean
}

// axisMean accumulates one coordinate, skipping values that did not parse.
type axisMean struct {
	sum float64
	n   int
}

func (m *axisMean) add(v float64) {
	if math.IsNaN(v) {
		return
	}
	m.sum += v
	m.n++
}

func (m axisMean) value() float64 {
	if m.n == 0 {
		return math.NaN()
	}
	return m.sum / float64(m.n)
}

func newAccumulator(capacity int) *accumulator {
	return &accumulator{
		stats: make([]CountryStat, 0, capacity),
		index: make(map[string]int, capacity),
	}
}

func (a *accumulator) lookup(country string) *CountryStat {
	i, ok := a.index[country]
	if !ok {
		return nil
	}
	return &a.stats[i]
}

func (a *accumulator) addConfirmed(row RawLocationRow, mode GeometryMode) {
	lat, long := row.Lat.Float(), row.Long.Float()

	i, ok := a.index[row.CountryRegion]
	if !ok {
		a.index[row.CountryRegion] = len(a.stats)
		a.stats = append(a.stats, CountryStat{
			CountryRegion:  row.CountryRegion,
			Lat:            lat,
			Long:           long,
			TotalConfirmed: row.TotalCases.Count(),
		})
		var latMean, longMean axisMean
		latMean.add(lat)
		longMean.add(long)
		a.lat = append(a.lat, latMean)
		a.long = append(a.long, longMean)
		return
	}

	s := &a.stats[i]
	s.TotalConfirmed += row.TotalCases.Count()

	switch mode {
	case GeometryMean:
		a.lat[i].add(lat)
		a.long[i].add(long)
		s.Lat = a.lat[i].value()
		s.Long = a.long[i].value()
	default:
		s.Lat = (s.Lat + lat) / 2
		s.Long = (s.Long + long) / 2
	}
}
