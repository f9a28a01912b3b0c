package view

import (
	"cmp"
	"slices"

	"github.com/couchcryptid/covid-stats-service/internal/domain"
)

// TreemapNode is one tile in a treemap.
type TreemapNode struct {
	Name       string  `json:"name"`
	Size       int64   `json:"size"`
	Percentage float64 `json:"percentage"`
	Color      string  `json:"color"`
}

// Treemap returns one tile per country sized by m, largest first. Tile colours
// come from the metric's palette by merge order, so a country keeps its colour
// while its rank changes. The active treemap omits countries with no active
// cases.
func Treemap(snap *domain.Snapshot, m domain.Metric) []TreemapNode {
	total := snap.Totals.Of(m)
	nodes := make([]TreemapNode, 0, len(snap.Stats))

	for i, s := range snap.Stats {
		size := m.Value(s)
		if m == domain.MetricActive && size <= 0 {
			continue
		}
		nodes = append(nodes, TreemapNode{
			Name:       s.CountryRegion,
			Size:       size,
			Percentage: domain.Percentage(size, total),
			Color:      domain.PaletteColor(m, i),
		})
	}

	slices.SortStableFunc(nodes, func(a, b TreemapNode) int {
		return cmp.Compare(b.Size, a.Size)
	})
	return nodes
}
