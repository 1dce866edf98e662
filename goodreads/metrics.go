package goodreads

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the read-marking workflow.
type Metrics struct {
	Registry     *prometheus.Registry
	StepsTotal   *prometheus.CounterVec
	StepDuration prometheus.Histogram
	ErrorsTotal  *prometheus.CounterVec
	ShelvesTotal prometheus.Counter
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	steps := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_steps_total",
			Help: "Workflow steps completed, by step name.",
		},
		[]string{"step"},
	)
	stepDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "workflow_step_duration_seconds",
			Help:    "Time spent in each workflow step.",
			Buckets: prometheus.DefBuckets,
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_errors_total",
			Help: "Workflow failures by error type.",
		},
		[]string{"error_type"},
	)
	shelves := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "workflow_shelves_applied_total",
			Help: "Shelves applied to books across runs.",
		},
	)

	registry.MustRegister(steps, stepDuration, errorsTotal, shelves)

	return &Metrics{
		Registry:     registry,
		StepsTotal:   steps,
		StepDuration: stepDuration,
		ErrorsTotal:  errorsTotal,
		ShelvesTotal: shelves,
	}
}

// IncStep records a completed workflow step.
func (m *Metrics) IncStep(step string) {
	if m == nil {
		return
	}
	m.StepsTotal.WithLabelValues(step).Inc()
}

// ObserveStep records how long a step took.
func (m *Metrics) ObserveStep(d time.Duration) {
	if m == nil {
		return
	}
	m.StepDuration.Observe(d.Seconds())
}

// IncError records a failed run by error type.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// AddShelves records the number of shelves applied.
func (m *Metrics) AddShelves(n int) {
	if m == nil {
		return
	}
	m.ShelvesTotal.Add(float64(n))
}
