package experiment

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/asphaltsim/internal/config"
	"github.com/san-kum/asphaltsim/internal/mixture"
)

// param reads and writes one numeric setting of a config.
type param struct {
	get func(c *config.Config) float64
	set func(c *config.Config, v float64) error
}

// intParam rounds to the nearest integer; values outside the int32 range
// are rejected.
func intParam(name string, field func(*config.Config) *int) param {
	return param{
		get: func(c *config.Config) float64 { return float64(*field(c)) },
		set: func(c *config.Config, v float64) error {
			r := math.Round(v)
			if r < math.MinInt32 || r > math.MaxInt32 {
				return &mixture.ParameterError{Name: name, Value: v, Reason: "out of integer range"}
			}
			*field(c) = int(r)
			return nil
		},
	}
}

func floatParam(field func(*config.Config) *float64) param {
	return param{
		get: func(c *config.Config) float64 { return *field(c) },
		set: func(c *config.Config, v float64) error { *field(c) = v; return nil },
	}
}

// edgeParam reads the ambient temperature while the edge is not overridden.
func edgeParam(field func(*config.Config) **float64) param {
	return param{
		get: func(c *config.Config) float64 {
			if p := *field(c); p != nil {
				return *p
			}
			return c.AmbientTemperature
		},
		set: func(c *config.Config, v float64) error { *field(c) = &v; return nil },
	}
}

func materialParam(idx int, field func(*config.Config) *[3]float64) param {
	return param{
		get: func(c *config.Config) float64 { return field(c)[idx] },
		set: func(c *config.Config, v float64) error { field(c)[idx] = v; return nil },
	}
}

var params = map[string]param{
	"slice_id":              intParam("slice_id", func(c *config.Config) *int { return &c.SliceID }),
	"thermal_iterations":    intParam("thermal_iterations", func(c *config.Config) *int { return &c.ThermalIterations }),
	"mech_iterations":       intParam("mech_iterations", func(c *config.Config) *int { return &c.MechIterations }),
	"chemical_iterations":   intParam("chemical_iterations", func(c *config.Config) *int { return &c.ChemicalIterations }),
	"ambient_temperature":   floatParam(func(c *config.Config) *float64 { return &c.AmbientTemperature }),
	"initial_temperature":   floatParam(func(c *config.Config) *float64 { return &c.InitialTemperature }),
	"stability_factor":      floatParam(func(c *config.Config) *float64 { return &c.StabilityFactor }),
	"load":                  floatParam(func(c *config.Config) *float64 { return &c.Load }),
	"boundary.top":          edgeParam(func(c *config.Config) **float64 { return &c.Boundary.Top }),
	"boundary.bottom":       edgeParam(func(c *config.Config) **float64 { return &c.Boundary.Bottom }),
	"boundary.left":         edgeParam(func(c *config.Config) **float64 { return &c.Boundary.Left }),
	"boundary.right":        edgeParam(func(c *config.Config) **float64 { return &c.Boundary.Right }),
	"thermal_softening":     floatParam(func(c *config.Config) *float64 { return &c.Mechanics.ThermalSoftening }),
	"reference_temperature": floatParam(func(c *config.Config) *float64 { return &c.Mechanics.ReferenceTemperature }),
	"tolerance":             floatParam(func(c *config.Config) *float64 { return &c.Mechanics.Tolerance }),
	"relaxation":            floatParam(func(c *config.Config) *float64 { return &c.Mechanics.Relaxation }),
}

func init() {
	phases := map[string]func(*config.Config) *[3]float64{
		"aggregate": func(c *config.Config) *[3]float64 { return &c.Materials.Aggregate },
		"mastic":    func(c *config.Config) *[3]float64 { return &c.Materials.Mastic },
		"air_void":  func(c *config.Config) *[3]float64 { return &c.Materials.AirVoid },
	}
	for phase, field := range phases {
		for i, prop := range []string{"elastic_modulus", "thermal_conductivity", "chemical_value"} {
			params[phase+"."+prop] = materialParam(i, field)
		}
	}
}

func lookup(name string) (param, error) {
	p, ok := params[name]
	if !ok {
		return param{}, fmt.Errorf("%w: unknown parameter %q", mixture.ErrInvalidParameter, name)
	}
	return p, nil
}

// SetParam assigns a named numeric parameter on cfg. Non-finite values are
// rejected with ErrInvalidParameter.
func SetParam(cfg *config.Config, name string, value float64) error {
	p, err := lookup(name)
	if err != nil {
		return err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return &mixture.ParameterError{Name: name, Value: value, Reason: "must be finite"}
	}
	return p.set(cfg, value)
}

func GetParam(cfg *config.Config, name string) (float64, error) {
	p, err := lookup(name)
	if err != nil {
		return 0, err
	}
	return p.get(cfg), nil
}

// Apply returns a copy of base with every parameter in values set.
func Apply(base *config.Config, values map[string]float64) (*config.Config, error) {
	cfg := base.Clone()
	for name, v := range values {
		if err := SetParam(cfg, name, v); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func ParamNames() []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
