package domain

// Categorical palettes for treemap tiles. Tiles are coloured by the entry's
// position in merge order, so a country keeps its colour while sizes change.
var palettes = map[Metric][]string{
	MetricConfirmed: {
		"#6366F1", "#EF4444", "#10B981", "#8B5CF6", "#F59E0B",
		"#EC4899", "#22D3EE", "#F97316", "#14B8A6", "#F43F5E",
		"#60A5FA", "#A3E635", "#F87171", "#818CF8", "#34D399",
	},
	MetricActive: {
		"#F59E0B", "#10B981", "#EF4444", "#6366F1", "#F97316",
		"#8B5CF6", "#22D3EE", "#14B8A6", "#F43F5E", "#60A5FA",
		"#A3E635", "#F87171", "#818CF8", "#34D399", "#EC4899",
	},
	MetricRecovered: {
		"#10B981", "#60A5FA", "#FBBF24", "#F43F5E", "#6366F1",
		"#EC4899", "#34D399", "#F97316", "#22D3EE", "#A3E635",
		"#818CF8", "#F87171", "#14B8A6", "#8B5CF6", "#F59E0B",
	},
}

// PaletteColor returns the tile colour for the entry at index.
// Death tiles share the confirmed palette.
func PaletteColor(m Metric, index int) string {
	p, ok := palettes[m]
	if !ok {
		p = palettes[MetricConfirmed]
	}
	if index < 0 {
		index = -index
	}
	return p[index%len(p)]
}
