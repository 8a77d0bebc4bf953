package metrics

import (
	"sync"

	"github.com/san-kum/asphaltsim/internal/engine"
)

// Metric aggregates one scalar over observed cycles.
type Metric interface {
	Name() string
	Observe(s engine.CycleStats)
	Value() float64
	Reset()
}

// SuccessRate is the fraction of cycles that finished without error.
type SuccessRate struct {
	failures int
	samples  int
}

func NewSuccessRate() *SuccessRate { return &SuccessRate{} }

func (s *SuccessRate) Name() string { return "success_rate" }

func (s *SuccessRate) Observe(c engine.CycleStats) {
	s.samples++
	if c.Err != nil {
		s.failures++
	}
}

func (s *SuccessRate) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.failures)/float64(s.samples)
}

func (s *SuccessRate) Reset() {
	s.failures = 0
	s.samples = 0
}

// SweepsPerStep is the mean number of relaxation sweeps per load increment.
type SweepsPerStep struct {
	sweeps int
	steps  int
}

func NewSweepsPerStep() *SweepsPerStep { return &SweepsPerStep{} }

func (s *SweepsPerStep) Name() string { return "sweeps_per_step" }

func (s *SweepsPerStep) Observe(c engine.CycleStats) {
	if c.Err != nil {
		return
	}
	s.sweeps += c.MechanicalSweeps
	s.steps += c.LoadSteps
}

func (s *SweepsPerStep) Value() float64 {
	if s.steps == 0 {
		return 0
	}
	return float64(s.sweeps) / float64(s.steps)
}

func (s *SweepsPerStep) Reset() {
	s.sweeps = 0
	s.steps = 0
}

// CycleSeconds is the mean wall time of a successful cycle.
type CycleSeconds struct {
	total   float64
	samples int
}

func NewCycleSeconds() *CycleSeconds { return &CycleSeconds{} }

func (c *CycleSeconds) Name() string { return "cycle_seconds" }

func (c *CycleSeconds) Observe(s engine.CycleStats) {
	if s.Err != nil {
		return
	}
	c.total += (s.ThermalDuration + s.MechanicalDuration).Seconds()
	c.samples++
}

func (c *CycleSeconds) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.total / float64(c.samples)
}

func (c *CycleSeconds) Reset() {
	c.total = 0
	c.samples = 0
}

// Tracker feeds every observed cycle to its metrics. It is safe for the
// concurrent callbacks of engine.RunSlices.
type Tracker struct {
	mu      sync.Mutex
	metrics []Metric
}

func NewTracker(metrics ...Metric) *Tracker {
	if len(metrics) == 0 {
		metrics = []Metric{NewSuccessRate(), NewSweepsPerStep(), NewCycleSeconds()}
	}
	return &Tracker{metrics: metrics}
}

func (t *Tracker) OnCycle(s engine.CycleStats) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, m := range t.metrics {
		m.Observe(s)
	}
}

func (t *Tracker) Values() map[string]float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]float64, len(t.metrics))
	for _, m := range t.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, m := range t.metrics {
		m.Reset()
	}
}
