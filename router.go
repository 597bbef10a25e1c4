package pathway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/vango-dev/pathway/pkg/history"
	"github.com/vango-dev/pathway/pkg/loader"
	"github.com/vango-dev/pathway/pkg/match"
	"github.com/vango-dev/pathway/pkg/router"
	"github.com/vango-dev/pathway/pkg/store"
)

// Router coordinates history, matching and loading.
//
// Every load gets a generation number. Only the newest generation may
// publish state; an older one that settles later is discarded, although
// the records it loaded stay cached for reuse.
type Router struct {
	opts    Options
	tree    *router.Tree
	cache   *match.Cache
	orch    *loader.Orchestrator
	history history.History
	store   *store.Store[State]
	events  emitter
	log     *slog.Logger

	base       context.Context
	cancelBase context.CancelFunc

	mu        sync.Mutex
	gen       uint64
	revision  uint64
	state     State
	cancelGen context.CancelFunc
	cancelNav context.CancelFunc
	resolved  history.Location
	closed    bool

	// driving counts transitions the router itself makes on history, whose
	// notifications it must not load a second time.
	driving atomic.Int32
	async   sync.WaitGroup

	preloads singleflight.Group
	unsub    func()
}

// New builds the route tree from routes and creates a router over it.
// Configuration defects in routes are returned here.
func New(routes []*router.RouteDef, opts Options) (*Router, error) {
	treeOpts := []router.Option{router.WithCaseSensitive(opts.CaseSensitive)}
	if opts.MatchCacheSize != 0 {
		treeOpts = append(treeOpts, router.WithMatchCacheSize(opts.MatchCacheSize))
	}
	if opts.Logger != nil {
		treeOpts = append(treeOpts, router.WithLogger(opts.Logger))
	}
	tree, err := router.Build(routes, treeOpts...)
	if err != nil {
		return nil, err
	}
	return NewWithTree(tree, opts), nil
}

// NewWithTree creates a router over an already built tree.
func NewWithTree(tree *router.Tree, opts Options) *Router {
	r := &Router{
		opts:    opts,
		tree:    tree,
		cache:   match.NewCache(),
		history: opts.History,
		log:     opts.Logger,
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	if r.history == nil {
		r.history = history.NewMemory(history.MemoryOptions{})
	}
	r.base, r.cancelBase = context.WithCancel(context.Background())

	r.orch = loader.New(tree, r.cache, loader.Options{
		Clock:            opts.Clock,
		Logger:           r.log,
		StaleTime:        opts.DefaultStaleTime,
		GCMaxAge:         opts.DefaultGCMaxAge,
		PreloadStaleTime: opts.DefaultPreloadStaleTime,
		PreloadGCMaxAge:  opts.DefaultPreloadGCMaxAge,
		Context:          opts.Context,
		Interceptors:     opts.Interceptors,
		OnRevalidate:     r.refresh,
	})

	loc, _ := r.parseLocation(r.history.Location())
	r.state = State{Status: StatusIdle, Location: loc}
	r.store = store.New(r.state)
	r.unsub = r.history.Subscribe(r.onHistory)
	return r
}

// Tree returns the route tree.
func (r *Router) Tree() *router.Tree { return r.tree }

// Cache returns the match cache.
func (r *Router) Cache() *match.Cache { return r.cache }

// History returns the router's history.
func (r *Router) History() history.History { return r.history }

// Store returns the observable state store.
func (r *Router) Store() *store.Store[State] { return r.store }

// State returns the latest published state.
func (r *Router) State() State { return r.store.Get() }

// Subscribe registers fn for every state change.
func (r *Router) Subscribe(fn store.Listener[State]) func() {
	return r.store.Subscribe(fn)
}

// On registers fn for events of type t.
func (r *Router) On(t EventType, fn func(Event)) func() {
	return r.events.on(t, fn)
}

// Wait blocks until loads started by external history changes and
// background revalidations have settled.
func (r *Router) Wait() {
	r.async.Wait()
	r.orch.WaitBackground()
}

// Close cancels every in-flight load and detaches from history.
func (r *Router) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	if r.cancelNav != nil {
		r.cancelNav()
	}
	r.mu.Unlock()

	r.unsub()
	r.cancelBase()
	r.Wait()
}

// Load matches and loads the current history location.
func (r *Router) Load(ctx context.Context) error {
	return r.load(ctx, loadOptions{follow: true})
}

type loadOptions struct {
	// follow navigates to redirect targets instead of committing them.
	follow    bool
	redirects int
	action    history.Action
}

func (r *Router) load(ctx context.Context, lo loadOptions) error {
	hloc := r.history.Location()
	loc, err := r.parseLocation(hloc)
	if err != nil {
		return err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	// A navigation cancelled before it got here must not take a generation
	// from the one that cancelled it.
	if err := ctx.Err(); err != nil {
		r.mu.Unlock()
		return err
	}
	r.gen++
	gen := r.gen
	if r.cancelGen != nil {
		r.cancelGen()
	}
	genCtx, cancel := context.WithCancel(r.base)
	r.cancelGen = cancel
	prev := r.state
	fromHistory := r.resolved
	r.mu.Unlock()

	// The caller's ctx bounds the foreground load only. Background
	// revalidation keeps running until a newer generation starts.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	from := prev.ResolvedLocation
	ev := Event{
		From:        from,
		To:          loc,
		PathChanged: from.Pathname != loc.Pathname,
		HrefChanged: from.Href != loc.Href,
		Generation:  gen,
		Action:      lo.action,
	}
	r.emit(EventBeforeLoad, ev)
	if ev.HrefChanged && r.opts.Scroll != nil && r.opts.ScrollTarget != nil && fromHistory.Href != "" {
		r.opts.Scroll.Save(fromHistory, r.opts.ScrollTarget.Positions())
	}

	res := r.tree.MatchLocation(loc.Pathname, router.MatchOptions{NotFoundMode: r.opts.notFoundMode()})
	records := r.orch.Build(loader.BuildInput{Match: res, Location: loc, Committed: prev.ids()})

	r.publish(gen, func(s *State) {
		s.Status = StatusPending
		s.Location = loc
		s.PendingMatches = records
		s.Generation = gen
	})

	result, loadErr := r.orch.Load(genCtx, records, loader.LoadOptions{Location: loc})

	if !r.current(gen) {
		r.log.Debug("navigation superseded", "generation", gen, "href", loc.Href)
		ev.Type = EventSuperseded
		r.events.emit(ev)
		return nil
	}
	if loadErr != nil {
		r.publish(gen, func(s *State) {
			s.Status = StatusIdle
			s.Location = s.ResolvedLocation
			s.PendingMatches = nil
		})
		if err := ctx.Err(); err != nil {
			return err
		}
		return loadErr
	}

	if rd := result.Redirect; rd != nil {
		ev.Redirect = rd
		r.emit(EventRedirected, ev)
		if lo.follow {
			return r.followRedirect(ctx, rd, lo)
		}
	}

	committed, ok := r.commit(gen, loc, hloc, res, result)
	if !ok {
		ev.Type = EventSuperseded
		r.events.emit(ev)
		return nil
	}

	r.emit(EventLoad, ev)
	r.runLifecycle(prev.Matches, committed.Matches)
	if evicted := r.orch.Evict(committed.ids()); len(evicted) > 0 {
		r.log.Debug("evicted matches", "count", len(evicted))
	}
	if ev.HrefChanged && r.opts.Scroll != nil && r.opts.ScrollTarget != nil {
		r.opts.Scroll.Restore(hloc, r.opts.ScrollTarget)
	}
	r.emit(EventResolved, ev)
	return nil
}

func (r *Router) followRedirect(ctx context.Context, rd *router.RedirectError, lo loadOptions) error {
	if lo.redirects >= r.opts.maxRedirects() {
		return fmt.Errorf("%w: stopped at %s", ErrTooManyRedirects, rd.Error())
	}
	href, err := r.redirectHref(rd)
	if err != nil {
		return err
	}
	r.log.Debug("navigation redirected", "to", href)

	r.driving.Add(1)
	_, err = r.history.Replace(ctx, href, nil, history.NavigateOptions{IgnoreBlocker: true})
	r.driving.Add(-1)
	if err != nil {
		return err
	}
	lo.redirects++
	lo.action = history.Replace
	return r.load(ctx, lo)
}

func (r *Router) redirectHref(rd *router.RedirectError) (string, error) {
	if rd.Href != "" {
		return rd.Href, nil
	}
	loc, err := r.BuildLocation(ToOptions{To: rd.To, Params: rd.Params, Search: rd.Search, Hash: rd.Hash})
	if err != nil {
		return "", err
	}
	return loc.Href, nil
}

// commit publishes result as the committed state if gen is still current.
func (r *Router) commit(gen uint64, loc router.Location, hloc history.Location, res router.MatchResult, result loader.Result) (State, bool) {
	r.mu.Lock()
	if gen != r.gen {
		r.mu.Unlock()
		return State{}, false
	}
	r.revision++
	next := r.state
	next.Status = StatusIdle
	next.Location = loc
	next.ResolvedLocation = loc
	next.Matches = newer(result.Matches, r.state.PendingMatches)
	next.PendingMatches = nil
	next.StatusCode = statusCode(res, result)
	next.Redirect = result.Redirect
	next.Generation = gen
	next.Revision = r.revision
	r.state = next
	r.resolved = hloc
	r.mu.Unlock()

	r.set(next)
	return next, true
}

// newer returns matches with every record replaced by its copy in refreshed
// when a background revalidation fetched that copy after matches were taken.
func newer(matches, refreshed []match.Record) []match.Record {
	var out []match.Record
	for i, m := range matches {
		for _, p := range refreshed {
			if p.ID != m.ID || p.FetchCount <= m.FetchCount {
				continue
			}
			if out == nil {
				out = append([]match.Record(nil), matches...)
			}
			out[i] = p
		}
	}
	if out == nil {
		return matches
	}
	return out
}

// publish applies fn to the state if gen is still current.
func (r *Router) publish(gen uint64, fn func(*State)) {
	r.mu.Lock()
	if gen != r.gen {
		r.mu.Unlock()
		return
	}
	r.revision++
	next := r.state
	fn(&next)
	next.Revision = r.revision
	r.state = next
	r.mu.Unlock()

	r.set(next)
}

// set hands next to the store unless a later revision got there first.
func (r *Router) set(next State) {
	r.store.Set(func(prev State) State {
		if prev.Revision > next.Revision {
			return prev
		}
		return next
	})
}

func (r *Router) current(gen uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return gen == r.gen
}

// refresh republishes a record a background load updated.
func (r *Router) refresh(rec match.Record) {
	r.mu.Lock()
	replace := func(list []match.Record) ([]match.Record, bool) {
		for i, m := range list {
			if m.ID == rec.ID {
				out := append([]match.Record(nil), list...)
				out[i] = rec
				return out, true
			}
		}
		return list, false
	}
	matches, inCommitted := replace(r.state.Matches)
	pending, inPending := replace(r.state.PendingMatches)
	if !inCommitted && !inPending {
		r.mu.Unlock()
		return
	}
	r.revision++
	next := r.state
	next.Matches = matches
	next.PendingMatches = pending
	next.Revision = r.revision
	r.state = next
	r.mu.Unlock()

	r.set(next)
}

// runLifecycle calls OnLeave, OnEnter and OnStay after a commit.
func (r *Router) runLifecycle(prev, next []match.Record) {
	before := make(map[string]bool, len(prev))
	for _, m := range prev {
		before[m.ID] = true
	}
	after := make(map[string]bool, len(next))
	for _, m := range next {
		after[m.ID] = true
	}

	for _, m := range prev {
		if !after[m.ID] {
			if def := r.def(m.RouteID); def != nil && def.OnLeave != nil {
				def.OnLeave(m)
			}
		}
	}
	for _, m := range next {
		def := r.def(m.RouteID)
		if def == nil {
			continue
		}
		switch {
		case before[m.ID]:
			if def.OnStay != nil {
				def.OnStay(m)
			}
		case def.OnEnter != nil:
			def.OnEnter(m)
		}
	}
}

func (r *Router) def(routeID string) *router.RouteDef {
	n, err := r.tree.Node(routeID)
	if err != nil {
		return nil
	}
	return n.Def()
}

func (r *Router) emit(t EventType, ev Event) {
	ev.Type = t
	r.events.emit(ev)
}

// onHistory loads transitions made on the history by someone else.
func (r *Router) onHistory(ev history.Event) {
	if r.driving.Load() > 0 {
		return
	}
	r.async.Add(1)
	go func() {
		defer r.async.Done()
		err := r.load(r.base, loadOptions{follow: true, action: ev.Action})
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, ErrClosed) {
			r.log.Warn("history load failed", "href", ev.Location.Href, "error", err)
		}
	}()
}
