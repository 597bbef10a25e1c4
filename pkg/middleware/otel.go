package middleware

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/pathway"
	"github.com/vango-dev/pathway/pkg/loader"
	"github.com/vango-dev/pathway/pkg/router"
)

// Default tracer name for pathway routers.
const defaultTracerName = "pathway"

// OTelConfig configures the OpenTelemetry tracing.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "pathway").
	TracerName string

	// TracerProvider supplies the tracer. Default: otel.GetTracerProvider().
	TracerProvider trace.TracerProvider

	// IncludeMatchID adds the match id, which carries path params, to hook
	// spans. Param values may be sensitive, so it is disabled by default.
	IncludeMatchID bool

	// Filter determines which hook calls to trace.
	// If nil, all calls are traced.
	Filter func(call loader.Call) bool

	// AttributeExtractor adds custom attributes to each hook span.
	AttributeExtractor func(call loader.Call) []attribute.KeyValue

	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry tracing.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithIncludeMatchID enables the match id attribute.
func WithIncludeMatchID(include bool) OTelOption {
	return func(c *OTelConfig) {
		c.IncludeMatchID = include
	}
}

// WithCallFilter sets a filter function for hook calls.
func WithCallFilter(filter func(call loader.Call) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(call loader.Call) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// Tracer traces hook calls and navigations.
type Tracer struct {
	config OTelConfig
}

// OpenTelemetry creates a Tracer.
//
// Hook spans are named "pathway.<phase> <route id>" and carry the route id,
// phase and preload flags. Hooks can add to them through SpanFromContext.
// Navigation spans are named "pathway.navigate <pathname>" and cover one
// generation from beforeLoad to resolved or superseded.
//
// Example:
//
//	tr := middleware.OpenTelemetry(middleware.WithTracerName("my-app"))
//	r, _ := pathway.New(routes, pathway.Options{
//	    Interceptors: []loader.Interceptor{tr.Interceptor()},
//	})
//	defer tr.Attach(r)()
func OpenTelemetry(opts ...OTelOption) *Tracer {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	if config.TracerProvider == nil {
		config.TracerProvider = otel.GetTracerProvider()
	}
	config.tracer = config.TracerProvider.Tracer(config.TracerName)
	return &Tracer{config: config}
}

// Interceptor returns a loader interceptor that opens a span per hook call.
func (t *Tracer) Interceptor() loader.Interceptor {
	return func(ctx context.Context, call loader.Call, next func(ctx context.Context) error) error {
		if t.config.Filter != nil && !t.config.Filter(call) {
			return next(ctx)
		}

		attrs := []attribute.KeyValue{
			attribute.String("pathway.route_id", call.RouteID),
			attribute.String("pathway.phase", string(call.Phase)),
			attribute.Bool("pathway.preload", call.Preload),
			attribute.Bool("pathway.background", call.Background),
		}
		if t.config.IncludeMatchID {
			attrs = append(attrs, attribute.String("pathway.match_id", call.MatchID))
		}
		if t.config.AttributeExtractor != nil {
			attrs = append(attrs, t.config.AttributeExtractor(call)...)
		}

		spanCtx, span := t.config.tracer.Start(ctx,
			fmt.Sprintf("pathway.%s %s", call.Phase, call.RouteID),
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(attrs...),
		)
		defer span.End()

		err := next(spanCtx)
		recordResult(span, err)
		return err
	}
}

func recordResult(span trace.Span, err error) {
	switch {
	case err == nil:
		span.SetStatus(codes.Ok, "")
	case isSignal(err):
		span.SetAttributes(attribute.String("pathway.signal", outcome(err)))
		span.SetStatus(codes.Ok, "")
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

func isSignal(err error) bool {
	if _, ok := router.IsRedirect(err); ok {
		return true
	}
	_, ok := router.IsNotFound(err)
	return ok
}

// Attach opens a span per navigation generation of r until the returned
// function is called. One Tracer may be attached to many routers.
func (t *Tracer) Attach(r *pathway.Router) (detach func()) {
	var (
		mu    sync.Mutex
		spans = make(map[uint64]trace.Span)
	)
	start := func(ev pathway.Event) {
		_, span := t.config.tracer.Start(context.Background(),
			"pathway.navigate "+ev.To.Pathname,
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(
				attribute.String("pathway.href", ev.To.Href),
				attribute.String("pathway.from", ev.From.Href),
				attribute.String("pathway.action", string(ev.Action)),
				attribute.Int64("pathway.generation", int64(ev.Generation)),
			),
		)
		mu.Lock()
		// A newer generation settles every older one, including loads that
		// ended in a followed redirect and never resolve.
		for gen, old := range spans {
			if gen < ev.Generation {
				old.AddEvent("replaced")
				old.End()
				delete(spans, gen)
			}
		}
		spans[ev.Generation] = span
		mu.Unlock()
	}
	finish := func(ev pathway.Event) {
		mu.Lock()
		span, ok := spans[ev.Generation]
		delete(spans, ev.Generation)
		mu.Unlock()
		if !ok {
			return
		}
		span.AddEvent(string(ev.Type))
		if ev.Type == pathway.EventResolved {
			st := r.State()
			span.SetAttributes(
				attribute.Int("pathway.status_code", st.StatusCode),
				attribute.Int("pathway.matches", len(st.Matches)),
			)
		}
		span.End()
	}
	redirected := func(ev pathway.Event) {
		mu.Lock()
		span, ok := spans[ev.Generation]
		mu.Unlock()
		if ok && ev.Redirect != nil {
			span.AddEvent("redirected", trace.WithAttributes(attribute.String("pathway.redirect", ev.Redirect.Error())))
		}
	}

	offs := []func(){
		r.On(pathway.EventBeforeLoad, start),
		r.On(pathway.EventRedirected, redirected),
		r.On(pathway.EventResolved, finish),
		r.On(pathway.EventSuperseded, finish),
	}
	return func() {
		for _, off := range offs {
			off()
		}
		mu.Lock()
		for gen, span := range spans {
			span.End()
			delete(spans, gen)
		}
		mu.Unlock()
	}
}

// SpanFromContext returns the hook span ctx carries, or a non-recording
// span when there is none.
//
// Example:
//
//	Loader: func(ctx context.Context, c *pathway.LoaderContext) (any, error) {
//	    middleware.SpanFromContext(ctx).SetAttributes(attribute.Int("rows", n))
//	    ...
//	}
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}
