// Package middleware instruments pathway routers.
//
// This package includes:
//   - Prometheus metrics for hook calls and router events
//   - OpenTelemetry spans for hook calls and navigations
//
// Both plug in the same way: an interceptor wraps every lazy, beforeLoad
// and loader call, and Attach subscribes to the router's events.
//
// # Prometheus Metrics
//
//	m := middleware.Prometheus(middleware.WithNamespace("myapp"))
//	r, _ := pathway.New(routes, pathway.Options{
//	    Interceptors: []loader.Interceptor{m.Interceptor()},
//	})
//	detach := m.Attach(r)
//	defer detach()
//
// Then expose the registry:
//
//	http.Handle("/metrics", promhttp.Handler())
//
// # OpenTelemetry
//
// The tracer uses the global OpenTelemetry tracer provider unless
// WithTracerProvider is given. A hook reaches its own span through
// SpanFromContext:
//
//	tr := middleware.OpenTelemetry(middleware.WithCallFilter(func(c loader.Call) bool {
//	    return c.Phase != loader.PhaseLazy
//	}))
package middleware
