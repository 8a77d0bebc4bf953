// Package mechanics solves the displacement of a material grid under an
// applied edge load.
//
// Each pair of 4-neighbour cells is joined by a two-node bar element whose
// stiffness is the series combination of the cells' moduli,
//
//	k(i,j) = 2 E(i) E(j) / (E(i) + E(j))
//
// and the assembled system sum_j k(i,j) (u(j) - u(i)) + f(i) = 0 is relaxed
// with successive over-relaxation. One edge is clamped at zero displacement
// and the load is shared equally by the cells of the opposite edge.
package mechanics

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/asphaltsim/internal/mixture"
)

// Edge selects a side of the grid.
type Edge string

const (
	EdgeTop    Edge = "top"
	EdgeBottom Edge = "bottom"
	EdgeLeft   Edge = "left"
	EdgeRight  Edge = "right"
)

// Opposite returns the edge across the grid from e.
func (e Edge) Opposite() Edge {
	switch e {
	case EdgeTop:
		return EdgeBottom
	case EdgeBottom:
		return EdgeTop
	case EdgeLeft:
		return EdgeRight
	default:
		return EdgeLeft
	}
}

// ParseEdge maps an edge name to its Edge.
func ParseEdge(name string) (Edge, error) {
	e := Edge(name)
	if !e.valid() {
		return "", fmt.Errorf("%w: unknown edge %q", mixture.ErrInvalidParameter, name)
	}
	return e, nil
}

func (e Edge) valid() bool {
	switch e {
	case EdgeTop, EdgeBottom, EdgeLeft, EdgeRight:
		return true
	}
	return false
}

// State tracks the model lifecycle.
type State int

const (
	Uninitialized State = iota
	Configured
	Solved
)

func (s State) String() string {
	switch s {
	case Configured:
		return "configured"
	case Solved:
		return "solved"
	default:
		return "uninitialized"
	}
}

type Config struct {
	Clamp     Edge
	Tolerance float64
	MaxSweeps int
	// Relaxation is the SOR factor in (0, 2); zero selects 2/(1+sin(pi/2n))
	// for the longest grid side n.
	Relaxation float64

	ThermalSoftening     float64
	ReferenceTemperature float64
	MinStiffnessRatio    float64
}

func DefaultConfig() Config {
	return Config{
		Clamp:                EdgeBottom,
		Tolerance:            1e-9,
		MaxSweeps:            50000,
		ReferenceTemperature: 25,
		MinStiffnessRatio:    0.05,
	}
}

type Model struct {
	grid  *mixture.Grid
	cfg   Config
	state State
	load  float64

	modulus   []float64
	fixed     []bool
	force     []float64
	sweeps    int
	converged bool
}

func New(grid *mixture.Grid, cfg Config) (*Model, error) {
	if grid == nil {
		return nil, fmt.Errorf("%w: nil grid", mixture.ErrInvalidParameter)
	}
	if !cfg.Clamp.valid() {
		return nil, fmt.Errorf("%w: unknown clamp edge %q", mixture.ErrInvalidParameter, cfg.Clamp)
	}
	if !(cfg.Tolerance > 0) {
		return nil, &mixture.ParameterError{Name: "tolerance", Value: cfg.Tolerance, Reason: "must be positive"}
	}
	if cfg.MaxSweeps <= 0 {
		return nil, &mixture.ParameterError{Name: "max_sweeps", Value: float64(cfg.MaxSweeps), Reason: "must be positive"}
	}
	if cfg.Relaxation < 0 || cfg.Relaxation >= 2 {
		return nil, &mixture.ParameterError{Name: "relaxation", Value: cfg.Relaxation, Reason: "must lie in (0, 2) or be zero"}
	}
	if cfg.ThermalSoftening < 0 || math.IsNaN(cfg.ThermalSoftening) {
		return nil, &mixture.ParameterError{Name: "thermal_softening", Value: cfg.ThermalSoftening, Reason: "must be non-negative"}
	}
	if cfg.ThermalSoftening > 0 && !(cfg.MinStiffnessRatio > 0 && cfg.MinStiffnessRatio <= 1) {
		return nil, &mixture.ParameterError{Name: "min_stiffness_ratio", Value: cfg.MinStiffnessRatio, Reason: "must lie in (0, 1]"}
	}

	for i := 0; i < grid.Len(); i++ {
		e := grid.Cell(i).ElasticModulus()
		if math.IsNaN(e) || math.IsInf(e, 0) || e <= 0 {
			return nil, &mixture.ParameterError{Name: "elastic_modulus", Value: e, Reason: "must be positive and finite"}
		}
	}

	n := grid.Len()
	return &Model{
		grid:    grid,
		cfg:     cfg,
		modulus: make([]float64, n),
		fixed:   make([]bool, n),
		force:   make([]float64, n),
	}, nil
}

// Inputs lists the grid fields produced upstream that Simulate reads.
func (m *Model) Inputs() []mixture.Field {
	if m.cfg.ThermalSoftening > 0 {
		return []mixture.Field{mixture.FieldTemperature}
	}
	return nil
}

func (m *Model) onEdge(e Edge, r, c int) bool {
	switch e {
	case EdgeTop:
		return r == 0
	case EdgeBottom:
		return r == m.grid.Rows()-1
	case EdgeLeft:
		return c == 0
	default:
		return c == m.grid.Cols()-1
	}
}

// ApplyBoundaryConditions clamps the configured edge to zero displacement and
// spreads load over the opposite edge. The first call zeroes the whole
// field; later calls keep the current displacements as the starting guess.
func (m *Model) ApplyBoundaryConditions(load float64) error {
	if math.IsNaN(load) || math.IsInf(load, 0) {
		return &mixture.ParameterError{Name: "load", Value: load, Reason: "must be finite"}
	}

	rows, cols := m.grid.Rows(), m.grid.Cols()
	loaded := m.cfg.Clamp.Opposite()
	share := load / float64(cols)
	if loaded == EdgeLeft || loaded == EdgeRight {
		share = load / float64(rows)
	}

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			i := m.grid.Index(r, c)
			cell := m.grid.Cell(i)
			m.fixed[i] = m.onEdge(m.cfg.Clamp, r, c)
			m.force[i] = 0
			if !m.fixed[i] && m.onEdge(loaded, r, c) {
				m.force[i] = share
			}
			if m.fixed[i] || m.state == Uninitialized {
				cell.Displacement = 0
			}
		}
	}

	m.load = load
	m.state = Configured
	return nil
}

func (m *Model) effectiveModulus(cell *mixture.Material) float64 {
	e := cell.ElasticModulus()
	if m.cfg.ThermalSoftening == 0 {
		return e
	}
	f := 1 - m.cfg.ThermalSoftening*(cell.Temperature-m.cfg.ReferenceTemperature)
	return e * math.Min(1, math.Max(m.cfg.MinStiffnessRatio, f))
}

func series(a, b float64) float64 {
	return 2 * a * b / (a + b)
}

// Simulate relaxes the assembled system until the largest update falls below
// Tolerance relative to the largest displacement.
func (m *Model) Simulate(ctx context.Context) (*mixture.Grid, error) {
	if m.state == Uninitialized {
		return nil, fmt.Errorf("%w: mechanical simulate before boundary conditions", mixture.ErrIllegalState)
	}

	rows, cols := m.grid.Rows(), m.grid.Cols()
	n := m.grid.Len()
	u := make([]float64, n)
	for i := 0; i < n; i++ {
		cell := m.grid.Cell(i)
		u[i] = cell.Displacement
		m.modulus[i] = m.effectiveModulus(cell)
	}

	omega := m.cfg.Relaxation
	if omega == 0 {
		omega = 2 / (1 + math.Sin(math.Pi/float64(2*max(rows, cols, 2))))
	}

	neighbours := [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	m.converged = false
	m.sweeps = 0
	for m.sweeps < m.cfg.MaxSweeps {
		select {
		case <-ctx.Done():
			m.store(u)
			return nil, ctx.Err()
		default:
		}

		delta, scale := 0.0, 0.0
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				i := r*cols + c
				if m.fixed[i] {
					continue
				}
				diag, sum := 0.0, m.force[i]
				for _, d := range neighbours {
					rr, cc := r+d[0], c+d[1]
					if rr < 0 || rr >= rows || cc < 0 || cc >= cols {
						continue
					}
					j := rr*cols + cc
					k := series(m.modulus[i], m.modulus[j])
					diag += k
					sum += k * u[j]
				}
				if diag == 0 {
					continue
				}
				step := omega * (sum/diag - u[i])
				u[i] += step
				delta = math.Max(delta, math.Abs(step))
				scale = math.Max(scale, math.Abs(u[i]))
			}
		}
		m.sweeps++

		if math.IsNaN(delta) || math.IsInf(delta, 0) {
			return nil, fmt.Errorf("%w: sweep %d", mixture.ErrUnstable, m.sweeps)
		}
		if delta <= m.cfg.Tolerance*scale {
			m.converged = true
			break
		}
	}

	m.store(u)
	if !m.converged {
		return nil, fmt.Errorf("%w: %d sweeps", mixture.ErrNotConverged, m.sweeps)
	}
	m.state = Solved
	return m.grid, nil
}

func (m *Model) store(u []float64) {
	for i, v := range u {
		m.grid.Cell(i).Displacement = v
	}
}

func (m *Model) State() State    { return m.state }
func (m *Model) Load() float64   { return m.load }
func (m *Model) Sweeps() int     { return m.sweeps }
func (m *Model) Converged() bool { return m.converged }
