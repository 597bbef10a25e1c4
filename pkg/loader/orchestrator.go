package loader

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/vango-dev/pathway/pkg/match"
	"github.com/vango-dev/pathway/pkg/router"
)

// Cache timing defaults.
const (
	DefaultStaleTime        time.Duration = 0
	DefaultGCMaxAge         = 30 * time.Minute
	DefaultPreloadStaleTime = 30 * time.Second
	DefaultPreloadGCMaxAge  = 30 * time.Minute
)

// Options configures an Orchestrator.
type Options struct {
	// Clock drives staleness and eviction. Nil means the wall clock.
	Clock clock.Clock

	// Logger receives load diagnostics. Nil means slog.Default().
	Logger *slog.Logger

	// Route defaults, overridden per route by RouteDef timings. Nil means
	// the package default.
	StaleTime        *time.Duration
	GCMaxAge         *time.Duration
	PreloadStaleTime *time.Duration
	PreloadGCMaxAge  *time.Duration

	// Context is the base context every route's context builds on.
	Context map[string]any

	// Interceptors wrap every lazy, beforeLoad and loader call.
	Interceptors []Interceptor

	// OnRevalidate is called with a copy of the record after a background
	// load applied its result.
	OnRevalidate func(match.Record)
}

// Orchestrator builds match records for structural matches and runs their
// hooks. Records live in the shared cache; everything handed out is a copy.
type Orchestrator struct {
	tree  *router.Tree
	cache *match.Cache
	clock clock.Clock
	log   *slog.Logger

	staleTime        time.Duration
	gcMaxAge         time.Duration
	preloadStaleTime time.Duration
	preloadGCMaxAge  time.Duration

	base         map[string]any
	interceptors []Interceptor
	onRevalidate func(match.Record)

	attempts atomic.Uint64
	bg       sync.WaitGroup
}

// New creates an orchestrator over tree and cache.
func New(tree *router.Tree, cache *match.Cache, opts Options) *Orchestrator {
	o := &Orchestrator{
		tree:             tree,
		cache:            cache,
		clock:            opts.Clock,
		log:              opts.Logger,
		staleTime:        orDefault(opts.StaleTime, DefaultStaleTime),
		gcMaxAge:         orDefault(opts.GCMaxAge, DefaultGCMaxAge),
		preloadStaleTime: orDefault(opts.PreloadStaleTime, DefaultPreloadStaleTime),
		preloadGCMaxAge:  orDefault(opts.PreloadGCMaxAge, DefaultPreloadGCMaxAge),
		base:             opts.Context,
		interceptors:     opts.Interceptors,
		onRevalidate:     opts.OnRevalidate,
	}
	if o.clock == nil {
		o.clock = clock.New()
	}
	if o.log == nil {
		o.log = slog.Default()
	}
	return o
}

func orDefault(d *time.Duration, def time.Duration) time.Duration {
	if d == nil {
		return def
	}
	return *d
}

// Cache returns the shared match cache.
func (o *Orchestrator) Cache() *match.Cache { return o.cache }

// Tree returns the route tree.
func (o *Orchestrator) Tree() *router.Tree { return o.tree }

// Clock returns the orchestrator's clock.
func (o *Orchestrator) Clock() clock.Clock { return o.clock }

// StaleTime returns how long a record's data stays fresh.
func (o *Orchestrator) StaleTime(def *router.RouteDef, preload bool) time.Duration {
	if preload {
		if def != nil && def.PreloadStaleTime != nil {
			return *def.PreloadStaleTime
		}
		return o.preloadStaleTime
	}
	if def != nil && def.StaleTime != nil {
		return *def.StaleTime
	}
	return o.staleTime
}

// MaxAge returns how long an unused record stays cached.
func (o *Orchestrator) MaxAge(r *match.Record) time.Duration {
	n, err := o.tree.Node(r.RouteID)
	if err != nil {
		return 0
	}
	def := n.Def()
	if r.Preload {
		if def.PreloadGCMaxAge != nil {
			return *def.PreloadGCMaxAge
		}
		return o.preloadGCMaxAge
	}
	if def.GCMaxAge != nil {
		return *def.GCMaxAge
	}
	return o.gcMaxAge
}

// Evict removes unused records past their gc max age, keeping the ids in keep.
func (o *Orchestrator) Evict(keep map[string]bool) []string {
	evicted := o.cache.Evict(match.EvictPolicy{
		Now:    o.clock.Now(),
		Keep:   keep,
		MaxAge: o.MaxAge,
	})
	if len(evicted) > 0 {
		o.log.Debug("evicted matches", "count", len(evicted), "ids", evicted)
	}
	return evicted
}

// Invalidate marks records accepted by filter for reload on next access.
func (o *Orchestrator) Invalidate(filter func(match.Record) bool) []string {
	ids := o.cache.Invalidate(filter)
	o.log.Debug("invalidated matches", "count", len(ids))
	return ids
}

// WaitBackground blocks until every stale-while-revalidate load has settled.
func (o *Orchestrator) WaitBackground() {
	o.bg.Wait()
}

// call runs fn through the interceptor chain, converting a panic into an error.
func (o *Orchestrator) call(ctx context.Context, c Call, fn func(ctx context.Context) error) error {
	return chain(o.interceptors, c, func(ctx context.Context) (err error) {
		defer func() {
			if v := recover(); v != nil {
				err = &PanicError{Value: v}
			}
		}()
		return fn(ctx)
	})(ctx)
}

func mergeContext(layers ...map[string]any) map[string]any {
	out := make(map[string]any)
	for _, l := range layers {
		for k, v := range l {
			out[k] = v
		}
	}
	return out
}
