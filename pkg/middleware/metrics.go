package middleware

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/pathway"
	"github.com/vango-dev/pathway/pkg/loader"
	"github.com/vango-dev/pathway/pkg/router"
	"github.com/vango-dev/pathway/pkg/search"
)

// MetricsConfig configures the Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "pathway").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for hook duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "pathway",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the router's Prometheus collectors.
type Metrics struct {
	hookCalls     *prometheus.CounterVec
	hookDuration  *prometheus.HistogramVec
	hookErrors    *prometheus.CounterVec
	navigations   *prometheus.CounterVec
	cacheSize     prometheus.Gauge
	loading       prometheus.Gauge
	lastResolveAt prometheus.Gauge
}

// Prometheus registers the router metrics on the configured registry.
// Registering twice on one registry panics, so create one Metrics per
// registry and share it between routers.
//
// Metrics collected:
//   - pathway_hook_calls_total: hook calls by phase, route and status
//   - pathway_hook_duration_seconds: hook duration by phase and route
//   - pathway_hook_errors_total: hook errors by phase, route and error type
//   - pathway_navigations_total: router events by type
//   - pathway_cached_matches: match records in the cache after a commit
//   - pathway_navigation_loading: 1 while a navigation is loading
//   - pathway_last_resolved_timestamp_seconds: time of the last commit
//
// Example:
//
//	m := middleware.Prometheus(middleware.WithNamespace("myapp"))
//	r, _ := pathway.New(routes, pathway.Options{
//	    Interceptors: []loader.Interceptor{m.Interceptor()},
//	})
//	defer m.Attach(r)()
func Prometheus(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		hookCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "hook_calls_total",
			Help:        "Total number of route hook calls",
			ConstLabels: config.ConstLabels,
		}, []string{"phase", "route", "status"}),

		hookDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "hook_duration_seconds",
			Help:        "Route hook duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"phase", "route"}),

		hookErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "hook_errors_total",
			Help:        "Total number of failed route hook calls",
			ConstLabels: config.ConstLabels,
		}, []string{"phase", "route", "error_type"}),

		navigations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigations_total",
			Help:        "Total number of router events by type",
			ConstLabels: config.ConstLabels,
		}, []string{"event"}),

		cacheSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "cached_matches",
			Help:        "Number of match records held in the cache",
			ConstLabels: config.ConstLabels,
		}),

		loading: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigation_loading",
			Help:        "1 while a navigation is loading, 0 when idle",
			ConstLabels: config.ConstLabels,
		}),

		lastResolveAt: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "last_resolved_timestamp_seconds",
			Help:        "Unix time of the last committed navigation",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// Interceptor returns a loader interceptor that times every hook call.
func (m *Metrics) Interceptor() loader.Interceptor {
	return func(ctx context.Context, call loader.Call, next func(ctx context.Context) error) error {
		start := time.Now()
		err := next(ctx)

		phase := string(call.Phase)
		m.hookDuration.WithLabelValues(phase, call.RouteID).Observe(time.Since(start).Seconds())

		status := outcome(err)
		if status == "error" {
			m.hookErrors.WithLabelValues(phase, call.RouteID, categorizeError(err)).Inc()
		}
		m.hookCalls.WithLabelValues(phase, call.RouteID, status).Inc()
		return err
	}
}

// Attach counts r's events until the returned function is called.
func (m *Metrics) Attach(r *pathway.Router) (detach func()) {
	observe := func(ev pathway.Event) {
		m.navigations.WithLabelValues(string(ev.Type)).Inc()
		if ev.Type == pathway.EventBeforeLoad || r.State().IsLoading() {
			m.loading.Set(1)
		} else {
			m.loading.Set(0)
		}
		if ev.Type == pathway.EventResolved {
			m.cacheSize.Set(float64(r.Cache().Len()))
			m.lastResolveAt.SetToCurrentTime()
		}
	}

	types := []pathway.EventType{
		pathway.EventBeforeLoad,
		pathway.EventResolved,
		pathway.EventSuperseded,
		pathway.EventBlocked,
		pathway.EventRedirected,
	}
	offs := make([]func(), 0, len(types))
	for _, t := range types {
		offs = append(offs, r.On(t, observe))
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}

// outcome labels a hook result. Redirect and not-found are control flow,
// not failures.
func outcome(err error) string {
	if err == nil {
		return "success"
	}
	if _, ok := router.IsRedirect(err); ok {
		return "redirect"
	}
	if _, ok := router.IsNotFound(err); ok {
		return "not_found"
	}
	return "error"
}

// categorizeError returns a low-cardinality category for err.
func categorizeError(err error) string {
	var pe *loader.PanicError
	switch {
	case errors.As(err, &pe):
		return "panic"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, search.ErrValidation):
		return "validation"
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"):
		return "timeout"
	case strings.Contains(msg, "unauthorized"):
		return "unauthorized"
	case strings.Contains(msg, "forbidden"):
		return "forbidden"
	case strings.Contains(msg, "panic"):
		return "panic"
	default:
		return "internal"
	}
}
