package analysis

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/asphaltsim/internal/mixture"
)

type Stats struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

func FieldStats(f [][]float64) Stats {
	flat := Flatten(f)
	if len(flat) == 0 {
		return Stats{}
	}
	return Stats{
		Min:  floats.Min(flat),
		Max:  floats.Max(flat),
		Mean: stat.Mean(flat, nil),
		Std:  stat.PopStdDev(flat, nil),
	}
}

// Flatten concatenates the rows of f.
func Flatten(f [][]float64) []float64 {
	n := 0
	for _, row := range f {
		n += len(row)
	}
	out := make([]float64, 0, n)
	for _, row := range f {
		out = append(out, row...)
	}
	return out
}

// Column returns f[r][col] for every row, or nil when col is out of range.
func Column(f [][]float64, col int) []float64 {
	if len(f) == 0 || col < 0 || col >= len(f[0]) {
		return nil
	}
	out := make([]float64, len(f))
	for r := range f {
		out[r] = f[r][col]
	}
	return out
}

func Row(f [][]float64, row int) []float64 {
	if row < 0 || row >= len(f) {
		return nil
	}
	out := make([]float64, len(f[row]))
	copy(out, f[row])
	return out
}

type Summary struct {
	Rows         int                `json:"rows"`
	Cols         int                `json:"cols"`
	Fractions    map[string]float64 `json:"fractions"`
	Temperature  Stats              `json:"temperature"`
	Displacement Stats              `json:"displacement"`
}

func Summarize(g *mixture.Grid) Summary {
	s := Summary{
		Rows:         g.Rows(),
		Cols:         g.Cols(),
		Fractions:    make(map[string]float64, len(mixture.Categories)),
		Temperature:  FieldStats(g.Temperatures()),
		Displacement: FieldStats(g.Displacements()),
	}
	counts := g.Counts()
	for _, cat := range mixture.Categories {
		s.Fractions[cat.String()] = float64(counts[cat]) / float64(g.Len())
	}
	return s
}

// Metrics flattens the summary into named scalars.
func (s Summary) Metrics() map[string]float64 {
	m := map[string]float64{
		"temperature_min":   s.Temperature.Min,
		"temperature_max":   s.Temperature.Max,
		"temperature_mean":  s.Temperature.Mean,
		"temperature_std":   s.Temperature.Std,
		"displacement_min":  s.Displacement.Min,
		"displacement_max":  s.Displacement.Max,
		"displacement_mean": s.Displacement.Mean,
		"displacement_std":  s.Displacement.Std,
	}
	for name, f := range s.Fractions {
		m["fraction_"+name] = f
	}
	return m
}
