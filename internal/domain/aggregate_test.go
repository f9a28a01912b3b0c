package domain

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(country string, lat, long float64, total int64) RawLocationRow {
	return RawLocationRow{
		CountryRegion: country,
		Lat:           ValidNumber(lat),
		Long:          ValidNumber(long),
		TotalCases:    ValidNumber(float64(total)),
	}
}

func TestAggregate_DuplicateConfirmedRowsMerge(t *testing.T) {
	stats := Aggregate(CategoryRows{
		Confirmed: []RawLocationRow{row("US", 40, -100, 10), row("US", 30, -80, 20)},
		Death:     []RawLocationRow{row("US", 0, 0, 5)},
		Recovered: []RawLocationRow{row("US", 0, 0, 3)},
	})

	require.Len(t, stats, 1)
	us := stats[0]
	assert.Equal(t, "US", us.CountryRegion)
	assert.Equal(t, int64(30), us.TotalConfirmed)
	assert.Equal(t, int64(5), us.TotalDeath)
	assert.Equal(t, int64(3), us.TotalRecovered)
	assert.Equal(t, int64(22), us.TotalActive)
	assert.Equal(t, (40.0+30.0)/2, us.Lat)
	assert.Equal(t, (-100.0+-80.0)/2, us.Long)
}

func TestAggregate_RunningAverageWeightsLaterRows(t *testing.T) {
	stats := Aggregate(CategoryRows{
		Confirmed: []RawLocationRow{
			row("CA", 0, 0, 1),
			row("CA", 8, 16, 1),
			row("CA", 16, 32, 1),
		},
	})

	require.Len(t, stats, 1)
	// ((0+8)/2 + 16)/2 = 10, not the arithmetic mean 8.
	assert.Equal(t, 10.0, stats[0].Lat)
	assert.Equal(t, 20.0, stats[0].Long)
}

func TestAggregate_MeanGeometryMode(t *testing.T) {
	stats := NewAggregator(GeometryMean).Aggregate(CategoryRows{
		Confirmed: []RawLocationRow{
			row("CA", 0, 0, 1),
			row("CA", 8, 16, 1),
			row("CA", 16, 32, 1),
		},
	})

	require.Len(t, stats, 1)
	assert.Equal(t, 8.0, stats[0].Lat)
	assert.Equal(t, 16.0, stats[0].Long)
	assert.Equal(t, int64(3), stats[0].TotalConfirmed)
}

func TestAggregate_MeanGeometrySkipsUnparsedAxis(t *testing.T) {
	badLat := row("IT", 0, 5, 1)
	badLat.Lat = Number{}

	stats := NewAggregator(GeometryMean).Aggregate(CategoryRows{
		Confirmed: []RawLocationRow{
			row("IT", 10, 10, 1),
			badLat,
			row("IT", 20, 20, 1),
		},
	})

	require.Len(t, stats, 1)
	assert.InDelta(t, 15.0, stats[0].Lat, 1e-12, "latitude averages the two rows that parsed")
	assert.InDelta(t, 35.0/3, stats[0].Long, 1e-12)
	assert.Equal(t, int64(3), stats[0].TotalConfirmed)
}

func TestAggregate_MeanGeometryAllUnparsed(t *testing.T) {
	bad := row("XK", 0, 0, 4)
	bad.Lat = Number{}
	bad.Long = Number{}

	stats := NewAggregator(GeometryMean).Aggregate(CategoryRows{Confirmed: []RawLocationRow{bad, bad}})

	require.Len(t, stats, 1)
	assert.False(t, stats[0].HasGeometry())
	assert.Equal(t, int64(8), stats[0].TotalConfirmed)
}

func TestAggregate_DeathAndRecoveredNeverCreateEntries(t *testing.T) {
	stats := Aggregate(CategoryRows{
		Confirmed: []RawLocationRow{row("FR", 46, 2, 5)},
		Death:     []RawLocationRow{row("DE", 51, 10, 9)},
		Recovered: []RawLocationRow{row("IT", 41, 12, 4)},
	})

	require.Len(t, stats, 1)
	assert.Equal(t, "FR", stats[0].CountryRegion)
	assert.Equal(t, int64(0), stats[0].TotalDeath)
	assert.Equal(t, int64(0), stats[0].TotalRecovered)
	assert.Equal(t, int64(5), stats[0].TotalActive)
}

func TestAggregate_PreservesFirstSeenOrder(t *testing.T) {
	stats := Aggregate(CategoryRows{
		Confirmed: []RawLocationRow{
			row("Zambia", 0, 0, 1),
			row("Albania", 0, 0, 100),
			row("Zambia", 0, 0, 1),
			row("Mexico", 0, 0, 50),
		},
	})

	got := make([]string, 0, len(stats))
	for _, s := range stats {
		got = append(got, s.CountryRegion)
	}
	assert.Equal(t, []string{"Zambia", "Albania", "Mexico"}, got)
}

func TestAggregate_ActiveFlooredAtZero(t *testing.T) {
	stats := Aggregate(CategoryRows{
		Confirmed: []RawLocationRow{row("BR", 0, 0, 10)},
		Death:     []RawLocationRow{row("BR", 0, 0, 8)},
		Recovered: []RawLocationRow{row("BR", 0, 0, 7)},
	})

	require.Len(t, stats, 1)
	assert.Equal(t, int64(0), stats[0].TotalActive)
}

func TestAggregate_KeysAreExact(t *testing.T) {
	stats := Aggregate(CategoryRows{
		Confirmed: []RawLocationRow{row("Korea, South", 0, 0, 10), row("korea, south", 0, 0, 1)},
		Death:     []RawLocationRow{row("Korea, South ", 0, 0, 4)},
	})

	require.Len(t, stats, 2)
	assert.Equal(t, int64(0), stats[0].TotalDeath)
}

func TestAggregate_BadCoordinatesKeepCounts(t *testing.T) {
	bad := row("VN", 0, 0, 7)
	bad.Lat = Number{}

	stats := Aggregate(CategoryRows{
		Confirmed: []RawLocationRow{row("VN", 14, 108, 3), bad},
		Death:     []RawLocationRow{row("VN", 0, 0, 1)},
	})

	require.Len(t, stats, 1)
	assert.True(t, math.IsNaN(stats[0].Lat))
	assert.Equal(t, (108.0+0.0)/2, stats[0].Long)
	assert.False(t, stats[0].HasGeometry())
	assert.Equal(t, int64(10), stats[0].TotalConfirmed)
	assert.Equal(t, int64(9), stats[0].TotalActive)
}

func TestAggregate_InvalidTotalContributesNothing(t *testing.T) {
	r := row("PE", 0, 0, 0)
	r.TotalCases = Number{}

	stats := Aggregate(CategoryRows{
		Confirmed: []RawLocationRow{r, row("PE", 0, 0, 4)},
	})

	require.Len(t, stats, 1)
	assert.Equal(t, int64(4), stats[0].TotalConfirmed)
}

func TestAggregate_EndToEndScenario(t *testing.T) {
	stats := Aggregate(CategoryRows{
		Confirmed: []RawLocationRow{row("VN", 14, 108, 10), row("VN", 16, 106, 5)},
		Death:     []RawLocationRow{row("VN", 0, 0, 2)},
		Recovered: []RawLocationRow{row("VN", 0, 0, 1)},
	})
	stats = WithPercentages(stats)

	want := []CountryStat{{
		CountryRegion:    "VN",
		Lat:              15,
		Long:             107,
		TotalConfirmed:   15,
		TotalDeath:       2,
		TotalRecovered:   1,
		TotalActive:      12,
		PercentageActive: 100,
	}}
	if diff := cmp.Diff(want, stats, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Fatalf("aggregate mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_Empty(t *testing.T) {
	assert.Empty(t, Aggregate(CategoryRows{}))
}

func TestParseGeometryMode(t *testing.T) {
	mode, err := ParseGeometryMode("")
	require.NoError(t, err)
	assert.Equal(t, GeometryRunningAverage, mode)

	mode, err = ParseGeometryMode("MEAN")
	require.NoError(t, err)
	assert.Equal(t, GeometryMean, mode)

	_, err = ParseGeometryMode("centroid")
	require.Error(t, err)
}
