package domain

import (
	"context"
	"log/slog"
)

// BackfillReport counts the entries FillMissingGeometry looked at.
type BackfillReport struct {
	Filled     int
	Unresolved int
}

// FillMissingGeometry looks up a position for every entry whose source
// coordinates did not parse. Lookup failures leave the entry without geometry
// (graceful degradation); they never drop it or change its counts. Entries
// with geometry are not touched. Stats is modified in place.
func FillMissingGeometry(ctx context.Context, stats []CountryStat, geocoder Geocoder, logger *slog.Logger) BackfillReport {
	var report BackfillReport
	if geocoder == nil {
		return report
	}

	for i := range stats {
		s := &stats[i]
		if s.HasGeometry() {
			continue
		}
		if ctx.Err() != nil {
			report.Unresolved++
			continue
		}

		result, err := geocoder.ForwardGeocode(ctx, s.CountryRegion)
		if err != nil {
			logger.Warn("forward geocoding failed", "country", s.CountryRegion, "error", err)
			report.Unresolved++
			continue
		}
		if !result.Found() {
			logger.Debug("no geocoding match", "country", s.CountryRegion)
			report.Unresolved++
			continue
		}

		s.Lat = result.Lat
		s.Long = result.Long
		report.Filled++
	}
	return report
}
