package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PayrollMetrics captures payroll run health signals.
type PayrollMetrics struct {
	runs               *prometheus.CounterVec
	runDuration        *prometheus.HistogramVec
	employeesProcessed prometheus.Counter
	adjustments        prometheus.Counter
	registry           *prometheus.Registry
}

// NewPayrollMetrics registers the payroll collectors on reg.
// A nil reg uses a fresh registry so repeated construction in tests never collides.
func NewPayrollMetrics(reg *prometheus.Registry) *PayrollMetrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hris",
		Subsystem: "payroll",
		Name:      "runs_total",
		Help:      "Payroll runs by outcome.",
	}, []string{"outcome"})
	runDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "hris",
		Subsystem: "payroll",
		Name:      "run_duration_seconds",
		Help:      "Wall time of payroll runs.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"outcome"})
	employeesProcessed := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hris",
		Subsystem: "payroll",
		Name:      "employees_processed_total",
		Help:      "Pay calculations written by payroll runs.",
	})
	adjustments := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hris",
		Subsystem: "payroll",
		Name:      "adjustments_total",
		Help:      "Manual pay adjustments applied.",
	})

	reg.MustRegister(runs, runDuration, employeesProcessed, adjustments)

	return &PayrollMetrics{
		runs:               runs,
		runDuration:        runDuration,
		employeesProcessed: employeesProcessed,
		adjustments:        adjustments,
		registry:           reg,
	}
}

func (m *PayrollMetrics) ObserveRun(outcome string, duration time.Duration, employees int) {
	m.runs.WithLabelValues(outcome).Inc()
	m.runDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	if employees > 0 {
		m.employeesProcessed.Add(float64(employees))
	}
}

func (m *PayrollMetrics) IncAdjustment() {
	m.adjustments.Inc()
}

// TrackSubscribers exposes the number of connected event stream clients,
// read from count at scrape time.
func (m *PayrollMetrics) TrackSubscribers(count func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "hris",
		Subsystem: "payroll",
		Name:      "event_subscribers",
		Help:      "Clients connected to the payroll event stream.",
	}, func() float64 { return float64(count()) }))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *PayrollMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
