package thermal

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/asphaltsim/internal/mixture"
)

const DefaultStabilityFactor = 0.9

// Boundary holds the fixed temperature of each grid edge. Corner cells take
// the top or bottom value.
type Boundary struct {
	Top    float64 `yaml:"top" json:"top"`
	Bottom float64 `yaml:"bottom" json:"bottom"`
	Left   float64 `yaml:"left" json:"left"`
	Right  float64 `yaml:"right" json:"right"`
}

func UniformBoundary(t float64) Boundary {
	return Boundary{Top: t, Bottom: t, Left: t, Right: t}
}

type Config struct {
	Boundary        Boundary
	Initial         float64
	StabilityFactor float64
}

// DefaultConfig clamps every edge to ambient and seeds the interior at zero.
func DefaultConfig(ambient float64) Config {
	return Config{
		Boundary:        UniformBoundary(ambient),
		StabilityFactor: DefaultStabilityFactor,
	}
}

type Model struct {
	grid       *mixture.Grid
	cfg        Config
	maxTC      float64
	dt         float64
	k          []float64
	cur, next  []float64
	applied    bool
	iterations int
	lastChange float64
}

// New validates maxTC and the grid conductivities against the stability
// bound and prepares the solver buffers.
func New(grid *mixture.Grid, maxTC float64, cfg Config) (*Model, error) {
	if grid == nil {
		return nil, fmt.Errorf("%w: nil grid", mixture.ErrInvalidParameter)
	}
	if math.IsNaN(maxTC) || math.IsInf(maxTC, 0) || maxTC <= 0 {
		return nil, &mixture.ParameterError{Name: "max_thermal_conductivity", Value: maxTC, Reason: "must be positive and finite"}
	}
	if cfg.StabilityFactor <= 0 || cfg.StabilityFactor > 1 {
		return nil, &mixture.ParameterError{Name: "stability_factor", Value: cfg.StabilityFactor, Reason: "must lie in (0, 1]"}
	}
	for _, v := range []float64{cfg.Boundary.Top, cfg.Boundary.Bottom, cfg.Boundary.Left, cfg.Boundary.Right, cfg.Initial} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &mixture.ParameterError{Name: "temperature", Value: v, Reason: "must be finite"}
		}
	}

	n := grid.Len()
	m := &Model{
		grid:  grid,
		cfg:   cfg,
		maxTC: maxTC,
		dt:    cfg.StabilityFactor / (4 * maxTC),
		k:     make([]float64, n),
		cur:   make([]float64, n),
		next:  make([]float64, n),
	}
	for i := 0; i < n; i++ {
		k := grid.Cell(i).ThermalConductivity()
		if k < 0 || k > maxTC {
			return nil, &mixture.ParameterError{Name: "thermal_conductivity", Value: k,
				Reason: fmt.Sprintf("outside stability range [0, %g]", maxTC)}
		}
		m.k[i] = k
	}
	return m, nil
}

// ApplyBoundaryConditions seeds edge cells with the boundary temperatures and
// interior cells with the initial temperature.
func (m *Model) ApplyBoundaryConditions() {
	rows, cols := m.grid.Rows(), m.grid.Cols()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			m.grid.At(r, c).Temperature = m.seed(r, c)
		}
	}
	m.applied = true
}

func (m *Model) seed(r, c int) float64 {
	b := m.cfg.Boundary
	switch {
	case r == 0:
		return b.Top
	case r == m.grid.Rows()-1:
		return b.Bottom
	case c == 0:
		return b.Left
	case c == m.grid.Cols()-1:
		return b.Right
	default:
		return m.cfg.Initial
	}
}

// Simulate advances the field by iterations synchronous steps, starting from
// the temperatures currently stored in the grid. On cancellation the
// completed steps are kept and ctx.Err() is returned.
func (m *Model) Simulate(ctx context.Context, iterations int) (*mixture.Grid, error) {
	if iterations < 0 {
		return nil, &mixture.ParameterError{Name: "thermal_iterations", Value: float64(iterations), Reason: "must be non-negative"}
	}
	if !m.applied {
		return nil, fmt.Errorf("%w: thermal simulate before boundary conditions", mixture.ErrIllegalState)
	}

	for i := range m.cur {
		m.cur[i] = m.grid.Cell(i).Temperature
	}
	copy(m.next, m.cur)

	rows, cols := m.grid.Rows(), m.grid.Cols()
	for it := 0; it < iterations; it++ {
		select {
		case <-ctx.Done():
			m.store()
			return nil, ctx.Err()
		default:
		}

		change := 0.0
		for r := 1; r < rows-1; r++ {
			for c := 1; c < cols-1; c++ {
				i := r*cols + c
				lap := m.cur[i-1] + m.cur[i+1] + m.cur[i-cols] + m.cur[i+cols] - 4*m.cur[i]
				d := m.dt * m.k[i] * lap
				m.next[i] = m.cur[i] + d
				change = math.Max(change, math.Abs(d))
			}
		}
		m.cur, m.next = m.next, m.cur
		m.iterations++
		m.lastChange = change

		if math.IsNaN(change) || math.IsInf(change, 0) {
			return nil, fmt.Errorf("%w: iteration %d", mixture.ErrUnstable, m.iterations)
		}
	}

	m.store()
	return m.grid, nil
}

func (m *Model) store() {
	for i, t := range m.cur {
		m.grid.Cell(i).Temperature = t
	}
}

// TimeStep is the stability-bounded step size.
func (m *Model) TimeStep() float64 { return m.dt }

// Iterations is the total number of steps performed by this model.
func (m *Model) Iterations() int { return m.iterations }

// LastChange is the largest per-cell update of the most recent step.
func (m *Model) LastChange() float64 { return m.lastChange }
