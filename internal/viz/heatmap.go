package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Downsample averages field into at most rows x cols blocks.
func Downsample(field [][]float64, rows, cols int) [][]float64 {
	if len(field) == 0 || len(field[0]) == 0 || rows <= 0 || cols <= 0 {
		return nil
	}
	srcRows, srcCols := len(field), len(field[0])
	rows = min(rows, srcRows)
	cols = min(cols, srcCols)

	out := make([][]float64, rows)
	for r := 0; r < rows; r++ {
		r0, r1 := r*srcRows/rows, (r+1)*srcRows/rows
		out[r] = make([]float64, cols)
		for c := 0; c < cols; c++ {
			c0, c1 := c*srcCols/cols, (c+1)*srcCols/cols
			sum := 0.0
			for i := r0; i < r1; i++ {
				for j := c0; j < c1; j++ {
					sum += field[i][j]
				}
			}
			out[r][c] = sum / float64((r1-r0)*(c1-c0))
		}
	}
	return out
}

// HeatColor maps norm in [0,1] onto the theme's cold-mid-hot ramp.
func HeatColor(norm float64, t Theme) lipgloss.Color {
	if math.IsNaN(norm) {
		norm = 0
	}
	if norm < 0.5 {
		return mix(t.Cold, t.Mid, norm*2)
	}
	return mix(t.Mid, t.Hot, (norm-0.5)*2)
}

func fieldBounds(field [][]float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, row := range field {
		for _, v := range row {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	return lo, hi
}

// Heatmap renders field as one coloured block per cell, averaged down to at
// most width columns. Rows are halved so cells stay roughly square.
func Heatmap(field [][]float64, width int, t Theme) string {
	if len(field) == 0 || len(field[0]) == 0 {
		return ""
	}
	cols := min(width, len(field[0]))
	rows := max(1, len(field)*cols/len(field[0])/2)
	grid := Downsample(field, rows, cols)

	lo, hi := fieldBounds(grid)
	span := hi - lo
	if span == 0 {
		span = 1
	}

	var b strings.Builder
	for _, row := range grid {
		for _, v := range row {
			color := HeatColor((v-lo)/span, t)
			b.WriteString(lipgloss.NewStyle().Foreground(color).Render("█"))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Legend renders the colour ramp between lo and hi.
func Legend(lo, hi float64, width int, t Theme) string {
	var b strings.Builder
	b.WriteString(mutedStyle(t).Render(fmt.Sprintf("%.3g ", lo)))
	for i := 0; i < width; i++ {
		norm := 0.0
		if width > 1 {
			norm = float64(i) / float64(width-1)
		}
		b.WriteString(lipgloss.NewStyle().Foreground(HeatColor(norm, t)).Render("█"))
	}
	b.WriteString(mutedStyle(t).Render(fmt.Sprintf(" %.3g", hi)))
	return b.String()
}

// FieldView is a titled heatmap with its legend.
func FieldView(title string, field [][]float64, width int, t Theme) string {
	if len(field) == 0 {
		return ""
	}
	lo, hi := fieldBounds(field)
	return titleStyle(t).Render(title) + "\n" +
		Heatmap(field, width, t) +
		Legend(lo, hi, min(width, 24), t) + "\n"
}
