// Package experiment turns a file configuration into an engine run and
// collects what a run produced.
package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/asphaltsim/internal/analysis"
	"github.com/san-kum/asphaltsim/internal/config"
	"github.com/san-kum/asphaltsim/internal/engine"
	"github.com/san-kum/asphaltsim/internal/mixture"
	"github.com/san-kum/asphaltsim/internal/storage"
	"github.com/san-kum/asphaltsim/internal/volume"
)

type Experiment struct {
	cfg       *config.Config
	vol       *volume.Volume
	observers []engine.Observer
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{cfg: cfg}
}

// Setup attaches the volume and observers. A nil volume is loaded or
// generated from the configuration.
func (e *Experiment) Setup(vol *volume.Volume, observers ...engine.Observer) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	if vol == nil {
		v, err := e.cfg.LoadVolume()
		if err != nil {
			return fmt.Errorf("volume: %w", err)
		}
		vol = v
	}
	e.vol = vol
	e.observers = observers
	return nil
}

func (e *Experiment) Volume() *volume.Volume { return e.vol }

type Result struct {
	Config    *config.Config
	Grid      *mixture.Grid
	Summary   analysis.Summary
	Timestamp time.Time
}

func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if e.vol == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	ecfg, err := e.cfg.Engine()
	if err != nil {
		return nil, err
	}
	eng, err := engine.New(e.cfg.Params(), e.vol, ecfg)
	if err != nil {
		return nil, err
	}
	for _, o := range e.observers {
		eng.AddObserver(o)
	}

	it := e.cfg.Iterations()
	grid, err := eng.RunCycle(ctx, it.Thermal, it.Mechanical, it.Chemical)
	if err != nil {
		return nil, err
	}
	return &Result{
		Config:    e.cfg,
		Grid:      grid,
		Summary:   analysis.Summarize(grid),
		Timestamp: time.Now(),
	}, nil
}

// Metadata describes the result for the run store.
func (r *Result) Metadata() storage.RunMetadata {
	return storage.RunMetadata{
		Name:               r.Config.Name,
		Timestamp:          r.Timestamp,
		SliceID:            r.Config.SliceID,
		ThermalIterations:  r.Config.ThermalIterations,
		MechIterations:     r.Config.MechIterations,
		ChemicalIterations: r.Config.ChemicalIterations,
		AmbientTemperature: r.Config.AmbientTemperature,
		Load:               r.Config.Load,
		Materials:          r.Config.Params(),
		Metrics:            r.Summary.Metrics(),
	}
}

// Save stores the result and returns its run id.
func (r *Result) Save(st storage.Store) (string, error) {
	return st.Save(r.Metadata(), storage.FieldsFromGrid(r.Grid))
}
