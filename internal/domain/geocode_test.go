package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// --- mock geocoder ---

type mockGeocoder struct {
	results map[string]GeocodingResult
	err     error
	calls   []string
}

func (m *mockGeocoder) ForwardGeocode(_ context.Context, country string) (GeocodingResult, error) {
	m.calls = append(m.calls, country)
	return m.results[country], m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func missingGeometryStats() []CountryStat {
	return []CountryStat{
		{CountryRegion: "Italy", Lat: 41.87, Long: 12.56, TotalConfirmed: 10},
		{CountryRegion: "Kosovo", Lat: math.NaN(), Long: 21.1, TotalConfirmed: 5, TotalActive: 5},
		{CountryRegion: "Atlantis", Lat: math.NaN(), Long: math.NaN(), TotalConfirmed: 1},
	}
}

// --- tests ---

func TestFillMissingGeometry_NilGeocoder(t *testing.T) {
	stats := missingGeometryStats()
	report := FillMissingGeometry(context.Background(), stats, nil, discardLogger())

	assert.Equal(t, BackfillReport{}, report)
	assert.False(t, stats[1].HasGeometry())
}

func TestFillMissingGeometry_FillsOnlyMissing(t *testing.T) {
	geo := &mockGeocoder{results: map[string]GeocodingResult{
		"Kosovo": {Lat: 42.6, Long: 20.9, PlaceName: "Kosovo", Confidence: 1},
	}}
	stats := missingGeometryStats()

	report := FillMissingGeometry(context.Background(), stats, geo, discardLogger())

	assert.Equal(t, BackfillReport{Filled: 1, Unresolved: 1}, report)
	assert.Equal(t, []string{"Kosovo", "Atlantis"}, geo.calls, "entries with geometry are not looked up")

	assert.Equal(t, 42.6, stats[1].Lat)
	assert.Equal(t, 20.9, stats[1].Long)
	assert.Equal(t, int64(5), stats[1].TotalActive, "counts are untouched")
	assert.False(t, stats[2].HasGeometry())
	assert.Equal(t, 41.87, stats[0].Lat)
}

func TestFillMissingGeometry_ErrorsDegradeGracefully(t *testing.T) {
	geo := &mockGeocoder{err: errors.New("mapbox API error: status 401")}
	stats := missingGeometryStats()

	report := FillMissingGeometry(context.Background(), stats, geo, discardLogger())

	assert.Equal(t, BackfillReport{Unresolved: 2}, report)
	assert.Len(t, stats, 3)
	assert.False(t, stats[1].HasGeometry())
}

func TestFillMissingGeometry_StopsOnCancelledContext(t *testing.T) {
	geo := &mockGeocoder{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := FillMissingGeometry(ctx, missingGeometryStats(), geo, discardLogger())

	assert.Equal(t, 2, report.Unresolved)
	assert.Empty(t, geo.calls)
}
