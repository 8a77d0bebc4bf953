package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/asphaltsim/internal/engine"
	"github.com/san-kum/asphaltsim/internal/mechanics"
	"github.com/san-kum/asphaltsim/internal/mixture"
	"github.com/san-kum/asphaltsim/internal/thermal"
	"github.com/san-kum/asphaltsim/internal/volume"
)

const (
	DefaultSliceID            = engine.DefaultSliceID
	DefaultThermalIterations  = engine.DefaultThermal
	DefaultMechIterations     = engine.DefaultMech
	DefaultChemicalIterations = engine.DefaultChemical
	DefaultAmbient            = engine.DefaultAmbient
	DefaultLoad               = engine.DefaultLoad
	DefaultVolumeSize         = 64
	DefaultVolumeDepth        = 100
)

type Config struct {
	Name               string          `yaml:"name,omitempty"`
	SliceID            int             `yaml:"slice_id"`
	ThermalIterations  int             `yaml:"thermal_iterations"`
	MechIterations     int             `yaml:"mech_iterations"`
	ChemicalIterations int             `yaml:"chemical_iterations"`
	AmbientTemperature float64         `yaml:"ambient_temperature"`
	InitialTemperature float64         `yaml:"initial_temperature"`
	StabilityFactor    float64         `yaml:"stability_factor"`
	Boundary           BoundaryConfig  `yaml:"boundary,omitempty"`
	Load               float64         `yaml:"load"`
	Materials          MaterialsConfig `yaml:"materials"`
	Mechanics          MechanicsConfig `yaml:"mechanics"`
	Volume             VolumeConfig    `yaml:"volume"`
}

// BoundaryConfig overrides the ambient temperature per edge. Unset edges use
// the ambient value.
type BoundaryConfig struct {
	Top    *float64 `yaml:"top,omitempty"`
	Bottom *float64 `yaml:"bottom,omitempty"`
	Left   *float64 `yaml:"left,omitempty"`
	Right  *float64 `yaml:"right,omitempty"`
}

// MaterialsConfig holds (elastic modulus, thermal conductivity, chemical
// value) per phase.
type MaterialsConfig struct {
	Aggregate [3]float64 `yaml:"aggregate"`
	Mastic    [3]float64 `yaml:"mastic"`
	AirVoid   [3]float64 `yaml:"air_void"`
}

type MechanicsConfig struct {
	Clamp                string  `yaml:"clamp"`
	Tolerance            float64 `yaml:"tolerance"`
	MaxSweeps            int     `yaml:"max_sweeps"`
	Relaxation           float64 `yaml:"relaxation"`
	ThermalSoftening     float64 `yaml:"thermal_softening"`
	ReferenceTemperature float64 `yaml:"reference_temperature"`
	MinStiffnessRatio    float64 `yaml:"min_stiffness_ratio"`
}

// VolumeConfig points at a volume file or, when Path is empty, describes a
// synthetic mixture.
type VolumeConfig struct {
	Path              string  `yaml:"path,omitempty"`
	Size              int     `yaml:"size"`
	Depth             int     `yaml:"depth"`
	Seed              int64   `yaml:"seed"`
	AggregateFraction float64 `yaml:"aggregate_fraction"`
	AirVoidFraction   float64 `yaml:"air_void_fraction"`
}

func DefaultMaterials() MaterialsConfig {
	return MaterialsConfig{
		Aggregate: [3]float64{30000, 2.0, 0.0},
		Mastic:    [3]float64{3000, 0.8, 1.0},
		AirVoid:   [3]float64{10, 0.025, 0.0},
	}
}

func DefaultConfig() *Config {
	mech := mechanics.DefaultConfig()
	gen := volume.DefaultGenerateOptions()
	return &Config{
		SliceID:            DefaultSliceID,
		ThermalIterations:  DefaultThermalIterations,
		MechIterations:     DefaultMechIterations,
		ChemicalIterations: DefaultChemicalIterations,
		AmbientTemperature: DefaultAmbient,
		StabilityFactor:    thermal.DefaultStabilityFactor,
		Load:               DefaultLoad,
		Materials:          DefaultMaterials(),
		Mechanics: MechanicsConfig{
			Clamp:                string(mech.Clamp),
			Tolerance:            mech.Tolerance,
			MaxSweeps:            mech.MaxSweeps,
			Relaxation:           mech.Relaxation,
			ThermalSoftening:     mech.ThermalSoftening,
			ReferenceTemperature: mech.ReferenceTemperature,
			MinStiffnessRatio:    mech.MinStiffnessRatio,
		},
		Volume: VolumeConfig{
			Size:              DefaultVolumeSize,
			Depth:             DefaultVolumeDepth,
			Seed:              gen.Seed,
			AggregateFraction: gen.AggregateFraction,
			AirVoidFraction:   gen.AirVoidFraction,
		},
	}
}

func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads path on top of a copy of base; keys missing from the file
// keep the base values.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base.Clone()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the values that the engine cannot check itself before a
// cycle starts.
func (c *Config) Validate() error {
	switch {
	case c.SliceID < 0:
		return &mixture.RangeError{What: "slice", Index: c.SliceID, Len: c.Volume.Depth}
	case c.ThermalIterations < 0:
		return &mixture.ParameterError{Name: "thermal_iterations", Value: float64(c.ThermalIterations), Reason: "must be non-negative"}
	case c.MechIterations < 1:
		return &mixture.ParameterError{Name: "mech_iterations", Value: float64(c.MechIterations), Reason: "must be at least 1"}
	case c.ChemicalIterations < 0:
		return &mixture.ParameterError{Name: "chemical_iterations", Value: float64(c.ChemicalIterations), Reason: "must be non-negative"}
	}
	if _, err := mechanics.ParseEdge(c.Mechanics.Clamp); err != nil {
		return err
	}
	if c.Volume.Path == "" {
		if c.Volume.Size <= 0 || c.Volume.Depth <= 0 {
			return fmt.Errorf("%w: synthetic volume %dx%dx%d", mixture.ErrInvalidParameter,
				c.Volume.Size, c.Volume.Size, c.Volume.Depth)
		}
		if c.SliceID >= c.Volume.Depth {
			return &mixture.RangeError{What: "slice", Index: c.SliceID, Len: c.Volume.Depth}
		}
	}
	return nil
}

func (c *Config) Params() engine.Params {
	return engine.Params{
		Aggregate: mixture.Triple(c.Materials.Aggregate),
		Mastic:    mixture.Triple(c.Materials.Mastic),
		AirVoid:   mixture.Triple(c.Materials.AirVoid),
	}
}

func (c *Config) Iterations() engine.Iterations {
	return engine.Iterations{
		Thermal:    c.ThermalIterations,
		Mechanical: c.MechIterations,
		Chemical:   c.ChemicalIterations,
	}
}

func (c *Config) boundary() thermal.Boundary {
	b := thermal.UniformBoundary(c.AmbientTemperature)
	for _, o := range []struct {
		v   *float64
		dst *float64
	}{
		{c.Boundary.Top, &b.Top},
		{c.Boundary.Bottom, &b.Bottom},
		{c.Boundary.Left, &b.Left},
		{c.Boundary.Right, &b.Right},
	} {
		if o.v != nil {
			*o.dst = *o.v
		}
	}
	return b
}

// Engine translates the file configuration into the engine's.
func (c *Config) Engine() (engine.Config, error) {
	clamp, err := mechanics.ParseEdge(c.Mechanics.Clamp)
	if err != nil {
		return engine.Config{}, err
	}
	return engine.Config{
		SliceID: c.SliceID,
		Thermal: thermal.Config{
			Boundary:        c.boundary(),
			Initial:         c.InitialTemperature,
			StabilityFactor: c.StabilityFactor,
		},
		Load: c.Load,
		Mechanics: mechanics.Config{
			Clamp:                clamp,
			Tolerance:            c.Mechanics.Tolerance,
			MaxSweeps:            c.Mechanics.MaxSweeps,
			Relaxation:           c.Mechanics.Relaxation,
			ThermalSoftening:     c.Mechanics.ThermalSoftening,
			ReferenceTemperature: c.Mechanics.ReferenceTemperature,
			MinStiffnessRatio:    c.Mechanics.MinStiffnessRatio,
		},
	}, nil
}

// LoadVolume reads the configured volume file or generates the synthetic
// mixture.
func (c *Config) LoadVolume() (*volume.Volume, error) {
	if c.Volume.Path != "" {
		return volume.Load(c.Volume.Path)
	}
	opts := volume.DefaultGenerateOptions()
	opts.NX, opts.NY, opts.NZ = c.Volume.Size, c.Volume.Size, c.Volume.Depth
	opts.Seed = c.Volume.Seed
	opts.AggregateFraction = c.Volume.AggregateFraction
	opts.AirVoidFraction = c.Volume.AirVoidFraction
	return volume.Generate(opts)
}

// Clone returns a deep copy, boundary overrides included.
func (c *Config) Clone() *Config {
	cp := *c
	for _, p := range []**float64{&cp.Boundary.Top, &cp.Boundary.Bottom, &cp.Boundary.Left, &cp.Boundary.Right} {
		if *p != nil {
			v := **p
			*p = &v
		}
	}
	return &cp
}
