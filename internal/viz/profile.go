package viz

import (
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/asphaltsim/internal/analysis"
)

// Profile plots values as a line graph.
func Profile(values []float64, caption string, height, width int) string {
	if len(values) == 0 {
		return ""
	}
	return asciigraph.Plot(values,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

// CenterlineProfile plots the middle column of field from top to bottom.
func CenterlineProfile(field [][]float64, caption string, height, width int) string {
	if len(field) == 0 || len(field[0]) == 0 {
		return ""
	}
	return Profile(analysis.Column(field, len(field[0])/2), caption, height, width)
}
