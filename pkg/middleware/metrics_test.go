package middleware

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/vango-dev/pathway"
	"github.com/vango-dev/pathway/pkg/loader"
)

func value(t *testing.T, c prometheus.Metric) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	switch {
	case m.Counter != nil:
		return m.GetCounter().GetValue()
	case m.Gauge != nil:
		return m.GetGauge().GetValue()
	}
	t.Fatalf("metric %v is neither counter nor gauge", c.Desc())
	return 0
}

func sampleCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

func TestPrometheusInterceptor(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := Prometheus(WithRegistry(reg))
	r := newRouter(t, m.Interceptor())

	navigate(t, r, "/posts")
	if got := value(t, m.hookCalls.WithLabelValues("loader", "/posts", "success")); got != 1 {
		t.Fatalf("hook_calls_total(loader,/posts,success) = %v, want 1", got)
	}
	if got := sampleCount(t, m.hookDuration.WithLabelValues("loader", "/posts")); got != 1 {
		t.Fatalf("hook_duration_seconds samples = %d, want 1", got)
	}

	navigate(t, r, "/broken")
	if got := value(t, m.hookCalls.WithLabelValues("loader", "/broken", "error")); got != 1 {
		t.Fatalf("hook_calls_total(loader,/broken,error) = %v, want 1", got)
	}
	if got := value(t, m.hookErrors.WithLabelValues("loader", "/broken", "internal")); got != 1 {
		t.Fatalf("hook_errors_total(loader,/broken,internal) = %v, want 1", got)
	}

	navigate(t, r, "/moved")
	if got := value(t, m.hookCalls.WithLabelValues("beforeLoad", "/moved", "redirect")); got != 1 {
		t.Fatalf("hook_calls_total(beforeLoad,/moved,redirect) = %v, want 1", got)
	}
	if got := value(t, m.hookErrors.WithLabelValues("beforeLoad", "/moved", "internal")); got != 0 {
		t.Fatalf("redirects must not count as errors, got %v", got)
	}
}

func TestPrometheusAttach(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := Prometheus(WithRegistry(reg), WithNamespace("app"))
	r := newRouter(t)
	detach := m.Attach(r)

	navigate(t, r, "/posts")
	navigate(t, r, "/moved")

	if got := value(t, m.navigations.WithLabelValues(string(pathway.EventResolved))); got != 2 {
		t.Fatalf("navigations_total(resolved) = %v, want 2", got)
	}
	if got := value(t, m.navigations.WithLabelValues(string(pathway.EventRedirected))); got != 1 {
		t.Fatalf("navigations_total(redirected) = %v, want 1", got)
	}
	if got := value(t, m.loading); got != 0 {
		t.Fatalf("navigation_loading = %v, want 0 once idle", got)
	}
	if got := value(t, m.cacheSize); got != float64(r.Cache().Len()) {
		t.Fatalf("cached_matches = %v, want %d", got, r.Cache().Len())
	}
	if value(t, m.lastResolveAt) == 0 {
		t.Fatal("expected last_resolved_timestamp_seconds to be set")
	}

	detach()
	navigate(t, r, "/posts")
	if got := value(t, m.navigations.WithLabelValues(string(pathway.EventResolved))); got != 2 {
		t.Fatalf("navigations_total(resolved) after detach = %v, want 2", got)
	}
}

func TestPrometheusNamesAndLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := Prometheus(
		WithRegistry(reg),
		WithNamespace("app"),
		WithSubsystem("router"),
		WithConstLabels(prometheus.Labels{"env": "test"}),
		WithBuckets([]float64{0.01, 0.1}),
	)
	err := m.Interceptor()(context.Background(), loader.Call{RouteID: "/x", Phase: loader.PhaseLoader}, func(context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("interceptor error: %v", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "app_router_hook_calls_total" {
			found = true
			labels := f.GetMetric()[0].GetLabel()
			hasEnv := false
			for _, l := range labels {
				if l.GetName() == "env" && l.GetValue() == "test" {
					hasEnv = true
				}
			}
			if !hasEnv {
				t.Fatalf("missing const label env=test in %v", labels)
			}
		}
	}
	if !found {
		t.Fatal("expected app_router_hook_calls_total to be registered")
	}
}
