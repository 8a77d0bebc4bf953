package engine

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/san-kum/asphaltsim/internal/mechanics"
	"github.com/san-kum/asphaltsim/internal/mixture"
	"github.com/san-kum/asphaltsim/internal/thermal"
	"github.com/san-kum/asphaltsim/internal/volume"
)

const (
	DefaultSliceID  = 50
	DefaultAmbient  = 50.0
	DefaultLoad     = 800.0
	DefaultThermal  = 200
	DefaultMech     = 1
	DefaultChemical = 1
)

// Params carries the (modulus, conductivity, chemical) triple of each phase.
type Params struct {
	Aggregate mixture.Properties `json:"aggregate" yaml:"aggregate"`
	Mastic    mixture.Properties `json:"mastic" yaml:"mastic"`
	AirVoid   mixture.Properties `json:"air_void" yaml:"air_void"`
}

type Config struct {
	SliceID   int
	Thermal   thermal.Config
	Load      float64
	Mechanics mechanics.Config
}

func DefaultConfig() Config {
	return Config{
		SliceID:   DefaultSliceID,
		Thermal:   thermal.DefaultConfig(DefaultAmbient),
		Load:      DefaultLoad,
		Mechanics: mechanics.DefaultConfig(),
	}
}

// Iterations groups the per-model iteration counts of a cycle.
type Iterations struct {
	Thermal    int `json:"thermal" yaml:"thermal"`
	Mechanical int `json:"mechanical" yaml:"mechanical"`
	Chemical   int `json:"chemical" yaml:"chemical"`
}

func DefaultIterations() Iterations {
	return Iterations{Thermal: DefaultThermal, Mechanical: DefaultMech, Chemical: DefaultChemical}
}

// CycleStats describes one finished or failed cycle.
type CycleStats struct {
	SliceID            int
	Rows, Cols         int
	ThermalIterations  int
	TimeStep           float64
	LoadSteps          int
	MechanicalSweeps   int
	ThermalDuration    time.Duration
	MechanicalDuration time.Duration
	Err                error
}

type Observer interface {
	OnCycle(stats CycleStats)
}

type Engine struct {
	cfg       Config
	templates mixture.Templates
	grid      *mixture.Grid
	thermal   *thermal.Model
	mechanics *mechanics.Model
	observers []Observer
	log       *log.Entry
}

// New cuts cfg.SliceID out of vol and builds the material grid. The slice
// index is checked before anything else is constructed.
func New(params Params, vol *volume.Volume, cfg Config) (*Engine, error) {
	if vol == nil {
		return nil, fmt.Errorf("%w: nil volume", mixture.ErrInvalidParameter)
	}
	if cfg.SliceID < 0 || cfg.SliceID >= vol.Depth() {
		return nil, &mixture.RangeError{What: "slice", Index: cfg.SliceID, Len: vol.Depth()}
	}

	labels, err := vol.Slice(cfg.SliceID)
	if err != nil {
		return nil, err
	}
	return NewFromLabels(params, labels, cfg)
}

// NewFromLabels builds an engine over an already extracted slice.
func NewFromLabels(params Params, labels [][]int, cfg Config) (*Engine, error) {
	tpl, err := mixture.NewTemplates(params.Aggregate, params.Mastic, params.AirVoid)
	if err != nil {
		return nil, err
	}
	grid, err := mixture.Build(labels, tpl)
	if err != nil {
		return nil, fmt.Errorf("slice %d: %w", cfg.SliceID, err)
	}

	e := &Engine{
		cfg:       cfg,
		templates: tpl,
		grid:      grid,
		log:       log.WithField("slice", cfg.SliceID),
	}
	e.log.WithFields(log.Fields{
		"rows": grid.Rows(),
		"cols": grid.Cols(),
	}).Debug("materials grid created")
	return e, nil
}

func (e *Engine) AddObserver(o Observer) { e.observers = append(e.observers, o) }

func (e *Engine) Grid() *mixture.Grid          { return e.grid }
func (e *Engine) Templates() mixture.Templates { return e.templates }
func (e *Engine) Config() Config               { return e.cfg }
func (e *Engine) Thermal() *thermal.Model      { return e.thermal }
func (e *Engine) Mechanics() *mechanics.Model  { return e.mechanics }

// RunCycle runs the thermal model for thermalIterations steps, then solves
// the mechanical model with the configured load applied in
// mechanicalIterations equal increments. chemicalIterations is accepted for
// parameter compatibility; no chemical model runs. A failed cycle returns no
// grid.
func (e *Engine) RunCycle(ctx context.Context, thermalIterations, mechanicalIterations, chemicalIterations int) (*mixture.Grid, error) {
	stats := CycleStats{SliceID: e.cfg.SliceID, Rows: e.grid.Rows(), Cols: e.grid.Cols()}
	grid, err := e.runCycle(ctx, thermalIterations, mechanicalIterations, chemicalIterations, &stats)
	stats.Err = err
	for _, o := range e.observers {
		o.OnCycle(stats)
	}
	if err != nil {
		e.log.WithError(err).Warn("simulation cycle failed")
		return nil, err
	}
	return grid, nil
}

func (e *Engine) runCycle(ctx context.Context, thermalIters, mechIters, chemIters int, stats *CycleStats) (*mixture.Grid, error) {
	if thermalIters < 0 {
		return nil, &mixture.ParameterError{Name: "thermal_iterations", Value: float64(thermalIters), Reason: "must be non-negative"}
	}
	if mechIters < 1 {
		return nil, &mixture.ParameterError{Name: "mech_iterations", Value: float64(mechIters), Reason: "must be at least 1"}
	}
	if chemIters < 0 {
		return nil, &mixture.ParameterError{Name: "chemical_iterations", Value: float64(chemIters), Reason: "must be non-negative"}
	}

	start := time.Now()
	maxTC := e.templates.MaxConductivity()
	tm, err := thermal.New(e.grid, maxTC, e.cfg.Thermal)
	if err != nil {
		return nil, fmt.Errorf("thermal model: %w", err)
	}
	e.thermal = tm
	stats.TimeStep = tm.TimeStep()

	tm.ApplyBoundaryConditions()
	if _, err := tm.Simulate(ctx, thermalIters); err != nil {
		stats.ThermalIterations = tm.Iterations()
		return nil, fmt.Errorf("thermal model: %w", err)
	}
	stats.ThermalIterations = tm.Iterations()
	stats.ThermalDuration = time.Since(start)
	e.log.WithFields(log.Fields{
		"iterations": thermalIters,
		"dt":         tm.TimeStep(),
		"max_tc":     maxTC,
		"change":     tm.LastChange(),
	}).Debug("thermal stage done")

	start = time.Now()
	mm, err := mechanics.New(e.grid, e.cfg.Mechanics)
	if err != nil {
		return nil, fmt.Errorf("mechanical model: %w", err)
	}
	e.mechanics = mm
	e.log.WithField("inputs", mm.Inputs()).Debug("mechanical stage reads upstream fields")

	for step := 1; step <= mechIters; step++ {
		load := e.cfg.Load * float64(step) / float64(mechIters)
		if err := mm.ApplyBoundaryConditions(load); err != nil {
			return nil, fmt.Errorf("mechanical model: %w", err)
		}
		_, err := mm.Simulate(ctx)
		stats.MechanicalSweeps += mm.Sweeps()
		if err != nil {
			return nil, fmt.Errorf("mechanical model (load step %d/%d): %w", step, mechIters, err)
		}
		stats.LoadSteps = step
	}
	stats.MechanicalDuration = time.Since(start)

	if chemIters > 0 {
		e.log.WithField("chemical_iterations", chemIters).Debug("no chemical model, iterations ignored")
	}

	e.log.WithFields(log.Fields{
		"thermal_iterations": stats.ThermalIterations,
		"load":               e.cfg.Load,
		"load_steps":         stats.LoadSteps,
		"sweeps":             stats.MechanicalSweeps,
		"elapsed":            stats.ThermalDuration + stats.MechanicalDuration,
	}).Info("simulation cycle complete")
	return e.grid, nil
}
