package automation

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/asphaltsim/internal/config"
	"github.com/san-kum/asphaltsim/internal/engine"
	"github.com/san-kum/asphaltsim/internal/experiment"
	"github.com/san-kum/asphaltsim/internal/storage"
	"github.com/san-kum/asphaltsim/internal/volume"
)

// Scenario defines a scripted sequence of simulation cycles
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Preset      string         `yaml:"preset"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a single cycle in a scenario. Preset replaces the scenario
// base; Params are applied on top.
type ScenarioStep struct {
	Name   string             `yaml:"name"`
	Preset string             `yaml:"preset"`
	Params map[string]float64 `yaml:"params"`
	SaveAs string             `yaml:"save_as"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}
	return &scenario, nil
}

type StepResult struct {
	Step   int
	Name   string
	Result *experiment.Result
	RunID  string
}

// volumeCache shares loaded volumes between steps with the same volume
// settings.
type volumeCache map[config.VolumeConfig]*volume.Volume

func (c volumeCache) get(cfg *config.Config) (*volume.Volume, error) {
	if v, ok := c[cfg.Volume]; ok {
		return v, nil
	}
	v, err := cfg.LoadVolume()
	if err != nil {
		return nil, err
	}
	c[cfg.Volume] = v
	return v, nil
}

func resolve(name string, base *config.Config) (*config.Config, error) {
	if name == "" {
		return base.Clone(), nil
	}
	cfg := config.GetPreset(name)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset %q", name)
	}
	return cfg, nil
}

// RunScenario executes all steps in order. When st is not nil every step
// result is saved. The results of the steps finished before a failure are
// returned with the error.
func RunScenario(ctx context.Context, scenario *Scenario, base *config.Config, st storage.Store, observers ...engine.Observer) ([]StepResult, error) {
	root, err := resolve(scenario.Preset, base)
	if err != nil {
		return nil, err
	}

	cache := volumeCache{}
	results := make([]StepResult, 0, len(scenario.Steps))
	for i, step := range scenario.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step%d", i+1)
		}
		logger := log.WithFields(log.Fields{"scenario": scenario.Name, "step": name})
		logger.Infof("running step %d/%d", i+1, len(scenario.Steps))

		stepBase, err := resolve(step.Preset, root)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		cfg, err := experiment.Apply(stepBase, step.Params)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		cfg.Name = name
		if step.SaveAs != "" {
			cfg.Name = step.SaveAs
		}

		if err := cfg.Validate(); err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		vol, err := cache.get(cfg)
		if err != nil {
			return results, fmt.Errorf("step %d volume: %w", i+1, err)
		}

		exp := experiment.New(cfg)
		if err := exp.Setup(vol, observers...); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}
		res, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		sr := StepResult{Step: i + 1, Name: name, Result: res}
		if st != nil {
			if sr.RunID, err = res.Save(st); err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
			logger.WithField("run", sr.RunID).Info("step saved")
		}
		results = append(results, sr)
	}

	return results, nil
}

// MonteCarloConfig perturbs named parameters of Base by a relative amount
type MonteCarloConfig struct {
	Base         *config.Config
	Params       []string
	Perturbation float64
	NumTrials    int
	Seed         int64
}

// MonteCarloResult holds one perturbed trial
type MonteCarloResult struct {
	TrialID int
	Params  map[string]float64
	Metrics map[string]float64
	Err     error
}

// RunMonteCarlo runs NumTrials cycles with every listed parameter scaled by
// a uniform factor in [1-Perturbation, 1+Perturbation]. Failed trials are
// recorded, not returned as errors; cancellation stops the loop.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, vol *volume.Volume, observers ...engine.Observer) ([]MonteCarloResult, error) {
	if cfg.NumTrials <= 0 {
		return nil, fmt.Errorf("monte carlo needs at least one trial")
	}
	baseValues, err := currentValues(cfg.Base, cfg.Params)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	results := make([]MonteCarloResult, 0, cfg.NumTrials)
	for trial := 0; trial < cfg.NumTrials; trial++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		values := make(map[string]float64, len(cfg.Params))
		for _, name := range cfg.Params {
			values[name] = baseValues[name] * (1 + (rng.Float64()-0.5)*2*cfg.Perturbation)
		}

		r := MonteCarloResult{TrialID: trial, Params: values}
		trialCfg, err := experiment.Apply(cfg.Base, values)
		if err != nil {
			return results, err
		}
		exp := experiment.New(trialCfg)
		if r.Err = exp.Setup(vol, observers...); r.Err == nil {
			var res *experiment.Result
			if res, r.Err = exp.Run(ctx); r.Err == nil {
				r.Metrics = res.Summary.Metrics()
			}
		}
		results = append(results, r)

		if (trial+1)%10 == 0 {
			log.Infof("monte carlo: %d/%d trials complete", trial+1, cfg.NumTrials)
		}
	}

	return results, nil
}

func currentValues(cfg *config.Config, names []string) (map[string]float64, error) {
	out := make(map[string]float64, len(names))
	for _, name := range names {
		v, err := experiment.GetParam(cfg, name)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

// MonteCarloStats counts finished and failed trials
func MonteCarloStats(results []MonteCarloResult) (okCount int, failedCount int) {
	for _, r := range results {
		if r.Err == nil {
			okCount++
		} else {
			failedCount++
		}
	}
	return
}

// MetricSpread returns min and max of a metric over the finished trials.
func MetricSpread(results []MonteCarloResult, metric string) (lo, hi float64, ok bool) {
	values := make([]float64, 0, len(results))
	for _, r := range results {
		if v, found := r.Metrics[metric]; r.Err == nil && found {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return 0, 0, false
	}
	sort.Float64s(values)
	return values[0], values[len(values)-1], true
}
