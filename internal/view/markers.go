package view

import "github.com/couchcryptid/covid-stats-service/internal/domain"

// Marker is one proportional circle on the world map.
type Marker struct {
	Country    string  `json:"country"`
	Lat        float64 `json:"lat"`
	Long       float64 `json:"long"`
	Value      int64   `json:"value"`
	Radius     float64 `json:"radius"`
	Color      string  `json:"color"`
	Percentage float64 `json:"percentage"`
	Confirmed  int64   `json:"confirmed"`
	Death      int64   `json:"death"`
	Recovered  int64   `json:"recovered"`
	Active     int64   `json:"active"`
}

// MarkerLayer is the marker set for one metric together with the domain its
// colours were computed over.
type MarkerLayer struct {
	Metric  domain.Metric      `json:"metric"`
	Domain  domain.ColorDomain `json:"domain"`
	Markers []Marker           `json:"markers"`
}

// Markers builds the map layer for m. Entries without a finite position are
// left out; they still count towards the domain and totals.
func Markers(snap *domain.Snapshot, m domain.Metric) MarkerLayer {
	scale := snap.ColorScale(m)
	markers := make([]Marker, 0, len(snap.Stats))

	for _, s := range snap.Stats {
		if !s.HasGeometry() {
			continue
		}
		v := m.Value(s)
		markers = append(markers, Marker{
			Country:    s.CountryRegion,
			Lat:        s.Lat,
			Long:       s.Long,
			Value:      v,
			Radius:     domain.Radius(float64(v)),
			Color:      scale.Color(float64(v)),
			Percentage: snap.Share(s, m),
			Confirmed:  s.TotalConfirmed,
			Death:      s.TotalDeath,
			Recovered:  s.TotalRecovered,
			Active:     s.TotalActive,
		})
	}

	return MarkerLayer{Metric: m, Domain: scale.Domain, Markers: markers}
}
