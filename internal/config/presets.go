package config

import "sort"

func ptr(v float64) *float64 { return &v }

// Presets are named overrides applied on top of DefaultConfig.
var Presets = map[string]func(*Config){
	"default": func(c *Config) {},
	"hot-summer": func(c *Config) {
		c.AmbientTemperature = 60
		c.InitialTemperature = 35
		c.ThermalIterations = 400
		c.Mechanics.ThermalSoftening = 0.01
	},
	"winter": func(c *Config) {
		c.AmbientTemperature = -10
		c.InitialTemperature = 5
		c.ThermalIterations = 400
	},
	"surface-heating": func(c *Config) {
		c.AmbientTemperature = 20
		c.InitialTemperature = 20
		c.Boundary.Top = ptr(60)
		c.ThermalIterations = 600
	},
	"heavy-axle": func(c *Config) {
		c.Load = 1600
		c.MechIterations = 4
	},
	"porous": func(c *Config) {
		c.Volume.AggregateFraction = 0.5
		c.Volume.AirVoidFraction = 0.2
	},
	"quick": func(c *Config) {
		c.SliceID = 4
		c.ThermalIterations = 50
		c.Volume.Size = 24
		c.Volume.Depth = 8
	},
}

// GetPreset returns DefaultConfig with the named preset applied, or nil.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Name = name
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
