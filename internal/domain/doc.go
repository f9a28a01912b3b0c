// Package domain models per-country epidemiological case statistics and the
// pure functions that merge, derive and scale them.
//
// # Data Source
//
// Case data comes from an OData service exposing one entity set per case
// category (Confirmed, Death, Recovered). Each set is queried with a
// server-side aggregation that groups raw case events by location and sums
// the Cases column:
//
//	$apply=groupby((ProvinceState,CountryRegion,Lat,Long),aggregate(Cases with sum as TotalConfirmed))
//
// One row comes back per province/state, so a country with several provinces
// appears several times in every category.
//
// # Numeric Coercion
//
// Lat, Long and the Total* columns arrive either as JSON numbers or as
// numeric strings ("12.5"). [ParseNumber] turns each into a tagged [Number]
// instead of silently producing NaN. A failed coordinate leaves the merged
// entry with NaN geometry (it is hidden from map views but still counted);
// a failed total contributes nothing to the sum.
//
// # Merge Rules
//
// See [Aggregator]. Confirmed rows create entries; death and recovered rows
// only add to entries that already exist. Country keys are compared exactly,
// with no trimming or case folding.
//
// Coordinates are merged with a running pairwise average:
//
//	lat = (prevLat + row.Lat) / 2
//
// which weights later rows more heavily than earlier ones. Map placement in
// existing dashboards depends on it, so it is the default. [GeometryMean]
// offers the arithmetic mean instead.
//
// # Derived Metrics
//
//	active     = max(0, confirmed - death - recovered)
//	percentage = active / Σactive * 100   (0 when Σactive == 0)
//	domain     = [0, max(values, 1)]
//
// Marker radius is logarithmic with a floor of 4 (see [Radius]); fill colours
// interpolate linearly in RGB between two fixed endpoints per metric (see
// [Gradient]).
package domain
