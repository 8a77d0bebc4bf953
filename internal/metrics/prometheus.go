package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/san-kum/asphaltsim/internal/engine"
)

const namespace = "asphaltsim"

// Recorder exports cycle statistics as Prometheus metrics on its own
// registry.
type Recorder struct {
	registry          *prometheus.Registry
	cycles            *prometheus.CounterVec
	thermalIterations prometheus.Counter
	loadSteps         prometheus.Counter
	sweeps            prometheus.Counter
	stageDuration     *prometheus.HistogramVec
	timeStep          prometheus.Gauge
	gridCells         prometheus.Gauge
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Simulation cycles by result.",
		}, []string{"result"}),
		thermalIterations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "thermal_iterations_total",
			Help:      "Explicit diffusion steps performed.",
		}),
		loadSteps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_steps_total",
			Help:      "Mechanical load increments solved.",
		}),
		sweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mechanical_sweeps_total",
			Help:      "Relaxation sweeps of the displacement solver.",
		}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time per model stage.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"stage"}),
		timeStep: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "thermal_time_step",
			Help:      "Diffusion time step of the last cycle.",
		}),
		gridCells: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "grid_cells",
			Help:      "Cells in the last simulated grid.",
		}),
	}
	r.registry.MustRegister(r.cycles, r.thermalIterations, r.loadSteps, r.sweeps,
		r.stageDuration, r.timeStep, r.gridCells)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

func (r *Recorder) OnCycle(s engine.CycleStats) {
	result := "ok"
	if s.Err != nil {
		result = "error"
	}
	r.cycles.WithLabelValues(result).Inc()
	r.thermalIterations.Add(float64(s.ThermalIterations))
	r.loadSteps.Add(float64(s.LoadSteps))
	r.sweeps.Add(float64(s.MechanicalSweeps))
	r.gridCells.Set(float64(s.Rows * s.Cols))
	if s.TimeStep > 0 {
		r.timeStep.Set(s.TimeStep)
	}
	if s.Err == nil {
		r.stageDuration.WithLabelValues("thermal").Observe(s.ThermalDuration.Seconds())
		r.stageDuration.WithLabelValues("mechanical").Observe(s.MechanicalDuration.Seconds())
	}
}

// WriteTextfile writes the current metrics in the node exporter textfile
// format.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

var (
	_ engine.Observer = (*Recorder)(nil)
	_ engine.Observer = (*Tracker)(nil)
)
