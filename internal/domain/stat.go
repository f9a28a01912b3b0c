package domain

import (
	"encoding/json"
	"math"
)

// RawLocationRow is one grouped row returned by a category query: the summed
// cases for a single (province, country, lat, long) group.
type RawLocationRow struct {
	CountryRegion string
	ProvinceState *string
	Lat           Number
	Long          Number
	TotalCases    Number
}

// CountryStat is the merged record for one country/region across all three
// categories. Lat and Long are NaN when any contributing coordinate failed to
// parse.
type CountryStat struct {
	CountryRegion    string  `json:"country_region"`
	Lat              float64 `json:"lat"`
	Long             float64 `json:"long"`
	TotalConfirmed   int64   `json:"total_confirmed"`
	TotalDeath       int64   `json:"total_death"`
	TotalRecovered   int64   `json:"total_recovered"`
	TotalActive      int64   `json:"total_active"`
	PercentageActive float64 `json:"percentage_active"`
}

// HasGeometry reports whether the entry can be placed on a map.
func (s CountryStat) HasGeometry() bool {
	return !math.IsNaN(s.Lat) && !math.IsNaN(s.Long) &&
		!math.IsInf(s.Lat, 0) && !math.IsInf(s.Long, 0)
}

// countryStatJSON shadows the coordinate fields so NaN encodes as null.
type countryStatJSON struct {
	countryStatAlias
	Lat  *float64 `json:"lat"`
	Long *float64 `json:"long"`
}

type countryStatAlias CountryStat

// MarshalJSON encodes missing geometry as null; encoding/json rejects NaN.
func (s CountryStat) MarshalJSON() ([]byte, error) {
	return json.Marshal(countryStatJSON{
		countryStatAlias: countryStatAlias(s),
		Lat:              finiteOrNil(s.Lat),
		Long:             finiteOrNil(s.Long),
	})
}

// UnmarshalJSON restores null coordinates as NaN.
func (s *CountryStat) UnmarshalJSON(data []byte) error {
	var v countryStatJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = CountryStat(v.countryStatAlias)
	s.Lat = nilToNaN(v.Lat)
	s.Long = nilToNaN(v.Long)
	return nil
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func nilToNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// ColorDomain is the numeric range a colour scale is parameterised over.
type ColorDomain struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}
