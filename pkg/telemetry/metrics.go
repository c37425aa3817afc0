package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for the derivation engine.
// When disabled, every method is a no-op so callers never need nil checks.
type Metrics struct {
	config MetricsConfig

	// Resolution metrics
	resolutions *prometheus.CounterVec

	// Plan execution metrics
	planExecutions *prometheus.CounterVec
	planDuration   *prometheus.HistogramVec

	// Recipe metrics
	recipeExecutions *prometheus.CounterVec
	recipeDuration   *prometheus.HistogramVec

	// Error metrics
	errorsByKind *prometheus.CounterVec

	// System metrics
	activeExecutions prometheus.Gauge

	registry *prometheus.Registry
	server   *http.Server
}

// NopMetrics returns a disabled collector whose methods are all no-ops.
func NopMetrics() *Metrics {
	return &Metrics{}
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "fieldforge"
	}
	buckets := cfg.DurationBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	m := &Metrics{
		config:   cfg,
		registry: prometheus.NewRegistry(),
	}

	m.resolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Cookbook resolutions by outcome.",
		},
		[]string{"outcome"},
	)

	m.planExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_executions_total",
			Help:      "Plan executions by mode and outcome.",
		},
		[]string{"mode", "outcome"},
	)

	m.planDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "plan_duration_seconds",
			Help:      "Plan execution duration by mode.",
			Buckets:   buckets,
		},
		[]string{"mode"},
	)

	m.recipeExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recipe_executions_total",
			Help:      "Recipe executions by recipe, mode and outcome.",
		},
		[]string{"recipe", "mode", "outcome"},
	)

	m.recipeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recipe_duration_seconds",
			Help:      "Recipe execution duration by recipe and mode.",
			Buckets:   buckets,
		},
		[]string{"recipe", "mode"},
	)

	m.errorsByKind = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Engine errors by kind.",
		},
		[]string{"kind"},
	)

	m.activeExecutions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_executions",
			Help:      "Plan executions currently in flight.",
		},
	)

	collectors := []prometheus.Collector{
		m.resolutions,
		m.planExecutions,
		m.planDuration,
		m.recipeExecutions,
		m.recipeDuration,
		m.errorsByKind,
		m.activeExecutions,
	}
	for _, c := range collectors {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}

	return m, nil
}

// RecordResolution records a cookbook resolution outcome ("ok" or "error").
func (m *Metrics) RecordResolution(outcome string) {
	if m.resolutions == nil {
		return
	}
	m.resolutions.WithLabelValues(outcome).Inc()
}

// RecordPlanExecution records a completed plan execution.
func (m *Metrics) RecordPlanExecution(mode, outcome string, duration time.Duration) {
	if m.planExecutions == nil {
		return
	}
	m.planExecutions.WithLabelValues(mode, outcome).Inc()
	m.planDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordRecipeExecution records one recipe execution within a plan.
func (m *Metrics) RecordRecipeExecution(recipe, mode, outcome string, duration time.Duration) {
	if m.recipeExecutions == nil {
		return
	}
	m.recipeExecutions.WithLabelValues(recipe, mode, outcome).Inc()
	m.recipeDuration.WithLabelValues(recipe, mode).Observe(duration.Seconds())
}

// RecordError records an engine error by kind.
func (m *Metrics) RecordError(kind string) {
	if m.errorsByKind == nil {
		return
	}
	m.errorsByKind.WithLabelValues(kind).Inc()
}

// ExecutionStarted increments the in-flight execution gauge.
func (m *Metrics) ExecutionStarted() {
	if m.activeExecutions == nil {
		return
	}
	m.activeExecutions.Inc()
}

// ExecutionFinished decrements the in-flight execution gauge.
func (m *Metrics) ExecutionFinished() {
	if m.activeExecutions == nil {
		return
	}
	m.activeExecutions.Dec()
}

// Handler returns the HTTP handler serving the metrics registry.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve starts the metrics HTTP endpoint if one is configured. It returns
// immediately; the server runs until Close.
func (m *Metrics) Serve() error {
	if !m.config.Enabled || m.config.ListenAddress == "" {
		return nil
	}
	path := m.config.Path
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())
	m.server = &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		_ = m.server.ListenAndServe()
	}()
	return nil
}

// Close shuts down the metrics HTTP endpoint if it is running.
func (m *Metrics) Close() error {
	if m.server != nil {
		return m.server.Close()
	}
	return nil
}
