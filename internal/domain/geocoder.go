package domain

import "context"

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat        float64
	Long       float64
	PlaceName  string
	Confidence float64 // 0.0–1.0 provider confidence score
}

// Found reports whether the provider matched the query.
func (r GeocodingResult) Found() bool {
	return r.PlaceName != ""
}

// Geocoder resolves a country name to a representative coordinate.
type Geocoder interface {
	ForwardGeocode(ctx context.Context, country string) (GeocodingResult, error)
}
