package mixture

import (
	"fmt"
	"math"
)

// Category is the phase code stored in a labelled slice.
type Category uint8

const (
	AirVoid   Category = 0
	Mastic    Category = 1
	Aggregate Category = 2
)

// Categories lists every phase in label order.
var Categories = []Category{AirVoid, Mastic, Aggregate}

func (c Category) String() string {
	switch c {
	case AirVoid:
		return "air_void"
	case Mastic:
		return "mastic"
	case Aggregate:
		return "aggregate"
	default:
		return fmt.Sprintf("category(%d)", uint8(c))
	}
}

// ParseLabel maps a raw slice label to its category.
func ParseLabel(label int) (Category, bool) {
	switch label {
	case 0:
		return AirVoid, true
	case 1:
		return Mastic, true
	case 2:
		return Aggregate, true
	}
	return 0, false
}

// Properties is the physical triple of a phase.
type Properties struct {
	ElasticModulus      float64 `json:"elastic_modulus" yaml:"elastic_modulus"`
	ThermalConductivity float64 `json:"thermal_conductivity" yaml:"thermal_conductivity"`
	ChemicalValue       float64 `json:"chemical_value" yaml:"chemical_value"`
}

// Triple builds Properties from the (modulus, conductivity, chemical) order
// used by material parameter lists.
func Triple(v [3]float64) Properties {
	return Properties{ElasticModulus: v[0], ThermalConductivity: v[1], ChemicalValue: v[2]}
}

func (p Properties) validate(cat Category) error {
	check := []struct {
		name string
		v    float64
	}{
		{"elastic_modulus", p.ElasticModulus},
		{"thermal_conductivity", p.ThermalConductivity},
		{"chemical_value", p.ChemicalValue},
	}
	for _, c := range check {
		if math.IsNaN(c.v) || math.IsInf(c.v, 0) {
			return &ParameterError{Name: cat.String() + "." + c.name, Value: c.v, Reason: "must be finite"}
		}
	}
	if p.ThermalConductivity < 0 {
		return &ParameterError{Name: cat.String() + ".thermal_conductivity", Value: p.ThermalConductivity, Reason: "must be non-negative"}
	}
	return nil
}

// Material is one cell of the grid. The property triple is fixed at
// construction; Temperature and Displacement are simulation state.
type Material struct {
	props    Properties
	category Category

	Temperature  float64
	Displacement float64
}

// NewMaterial returns a material with zeroed state.
func NewMaterial(cat Category, p Properties) Material {
	return Material{props: p, category: cat}
}

func (m Material) Properties() Properties       { return m.props }
func (m Material) Category() Category           { return m.category }
func (m Material) ElasticModulus() float64      { return m.props.ElasticModulus }
func (m Material) ThermalConductivity() float64 { return m.props.ThermalConductivity }
func (m Material) ChemicalValue() float64       { return m.props.ChemicalValue }

// Templates holds the canonical material of every category for one run.
type Templates struct {
	byCategory [3]Material
}

// NewTemplates validates the three triples and builds the canonical set.
func NewTemplates(aggregate, mastic, airVoid Properties) (Templates, error) {
	var t Templates
	for cat, p := range [3]Properties{AirVoid: airVoid, Mastic: mastic, Aggregate: aggregate} {
		if err := p.validate(Category(cat)); err != nil {
			return Templates{}, err
		}
		t.byCategory[cat] = NewMaterial(Category(cat), p)
	}
	return t, nil
}

// For returns a copy of the template of cat.
func (t Templates) For(cat Category) Material {
	return t.byCategory[cat]
}

// MaxConductivity is the highest thermal conductivity among the templates.
func (t Templates) MaxConductivity() float64 {
	hi := 0.0
	for _, m := range t.byCategory {
		hi = math.Max(hi, m.ThermalConductivity())
	}
	return hi
}

// Field names a scalar per-cell quantity produced by a model.
type Field string

const (
	FieldTemperature  Field = "temperature"
	FieldDisplacement Field = "displacement"
)
