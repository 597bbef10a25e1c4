package loader

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/pathway/pkg/match"
	"github.com/vango-dev/pathway/pkg/router"
)

// LoadOptions configures Load.
type LoadOptions struct {
	Location router.Location
	Preload  bool
}

// Result is the outcome of Load.
type Result struct {
	// Matches are copies of the records after loading, root first.
	Matches []match.Record

	// Redirect is the shallowest redirect raised during this load.
	Redirect *router.RedirectError

	// NotFound is the shallowest not-found signal raised during this load,
	// and NotFoundIndex the match that raised it.
	NotFound      *router.NotFoundError
	NotFoundIndex int

	// Err is the shallowest hook or validation error.
	Err error
}

// Load runs beforeLoad root to leaf, then every loader concurrently.
//
// A route's beforeLoad sees the merged context of its ancestors, and no
// loader starts before every beforeLoad has resolved. A failing beforeLoad,
// search or param error stops every deeper route. A failing loader cancels
// the loaders of its descendants only.
//
// Fresh records are reused without calling their loader. Stale records with
// data keep it and revalidate in the background; their revalidation starts
// after the result is collected, so Load returns the data they had. Results
// of a load whose context was cancelled are discarded and Load returns the
// context's error.
func (o *Orchestrator) Load(ctx context.Context, matches []match.Record, opts LoadOptions) (Result, error) {
	n := len(matches)
	ids := make([]string, n)
	for i, m := range matches {
		ids[i] = m.ID
		if !o.cache.Has(m.ID) {
			cp := m.Clone()
			o.cache.Put(&cp)
		}
	}

	signals := make([]error, n)
	defs := make([]*router.RouteDef, n)
	contexts := make([]map[string]any, n)

	firstBad := n
	parentCtx := o.base
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return o.collect(ids, signals), err
		}
		rec, _ := o.cache.Get(id)
		if rec.SearchError != nil || rec.ParamsError != nil {
			signals[i] = rec.Error
			firstBad = i
			break
		}

		node, err := o.tree.Node(rec.RouteID)
		if err != nil {
			signals[i] = o.settle(id, PhaseLazy, err, opts.Preload)
			firstBad = i
			break
		}
		def, err := o.resolveLazy(ctx, node, rec, opts.Preload)
		if err != nil {
			signals[i] = o.settle(id, PhaseLazy, err, opts.Preload)
			firstBad = i
			break
		}
		defs[i] = def

		routeCtx := mergeContext(parentCtx, rec.RouteContext)
		if rec.Dehydrated {
			routeCtx = mergeContext(routeCtx, rec.Context)
		} else if def.BeforeLoad != nil {
			var out map[string]any
			call := Call{RouteID: rec.RouteID, MatchID: id, Phase: PhaseBeforeLoad, Preload: opts.Preload}
			err := o.call(ctx, call, func(ctx context.Context) error {
				var err error
				out, err = def.BeforeLoad(ctx, &router.BeforeLoadContext{
					RouteID:  rec.RouteID,
					MatchID:  id,
					Params:   rec.Params,
					Search:   rec.Search,
					Context:  mergeContext(routeCtx),
					Location: opts.Location,
					Preload:  opts.Preload,
					Cause:    rec.Cause,
				})
				return err
			})
			if ctx.Err() != nil {
				return o.collect(ids, signals), ctx.Err()
			}
			if err != nil {
				signals[i] = o.settle(id, PhaseBeforeLoad, err, opts.Preload)
				firstBad = i
				break
			}
			routeCtx = mergeContext(routeCtx, out)
		}

		o.cache.Update(id, func(r *match.Record) { r.Context = routeCtx })
		contexts[i] = routeCtx
		parentCtx = routeCtx
	}

	// One context per loader so a failing route can cancel its descendants.
	ctxs := make([]context.Context, firstBad)
	cancels := make([]context.CancelFunc, firstBad)
	for i := range ctxs {
		ctxs[i], cancels[i] = context.WithCancel(ctx)
	}
	defer func() {
		for _, cancel := range cancels {
			cancel()
		}
	}()

	revalidate := make([]func(), firstBad)
	var g errgroup.Group
	for i := 0; i < firstBad; i++ {
		g.Go(func() error {
			bg, sig := o.loadMatch(ctxs[i], ctx, ids[i], defs[i], contexts[i], opts)
			revalidate[i] = bg
			if sig != nil {
				signals[i] = sig
				for j := i + 1; j < firstBad; j++ {
					cancels[j]()
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	res := o.collect(ids, signals)
	if err := ctx.Err(); err != nil {
		return res, err
	}
	for _, bg := range revalidate {
		if bg == nil {
			continue
		}
		o.bg.Add(1)
		go func() {
			defer o.bg.Done()
			bg()
		}()
	}
	return res, nil
}

// resolveLazy returns the route's definition, loading its lazy part first.
func (o *Orchestrator) resolveLazy(ctx context.Context, node *router.Node, rec match.Record, preload bool) (*router.RouteDef, error) {
	def := node.Def()
	if def.Lazy == nil {
		return def, nil
	}
	call := Call{RouteID: rec.RouteID, MatchID: rec.ID, Phase: PhaseLazy, Preload: preload}
	err := o.call(ctx, call, func(ctx context.Context) error {
		var err error
		def, err = o.tree.ResolveLazy(ctx, node.ID())
		return err
	})
	return def, err
}

// loadMatch runs one route's loader if its record needs it. It returns the
// revalidation to start afterwards for a stale record, and the error or
// signal the foreground load settled with.
func (o *Orchestrator) loadMatch(ctx, navCtx context.Context, id string, def *router.RouteDef, routeCtx map[string]any, opts LoadOptions) (func(), error) {
	rec, ok := o.cache.Get(id)
	if !ok {
		return nil, nil
	}
	if rec.Dehydrated {
		o.cache.Update(id, func(r *match.Record) { r.Dehydrated = false })
		return nil, nil
	}

	now := o.clock.Now()
	if def.Loader == nil {
		o.cache.Update(id, func(r *match.Record) {
			if r.Status != match.StatusSuccess {
				r.Status = match.StatusSuccess
				r.Error = nil
				r.Redirect = nil
				r.UpdatedAt = now
			}
			r.Invalid = false
		})
		return nil, nil
	}

	var deps any
	if def.LoaderDeps != nil {
		deps = def.LoaderDeps(router.DepsContext{Search: rec.Search})
	}
	key := depsKey(deps)

	lc := &router.LoaderContext{
		RouteID:  rec.RouteID,
		MatchID:  id,
		Params:   rec.Params,
		Search:   rec.Search,
		Deps:     deps,
		Context:  routeCtx,
		Location: opts.Location,
		Preload:  opts.Preload,
		Cause:    rec.Cause,
	}

	depsChanged := rec.Status == match.StatusSuccess && key != rec.DepsKey
	reload := rec.Status != match.StatusSuccess || rec.Invalid || depsChanged
	if !reload {
		if def.ShouldReload != nil {
			reload = def.ShouldReload(lc)
		} else {
			reload = rec.Age(now) > o.StaleTime(def, opts.Preload)
		}
	}
	if !reload {
		return nil, nil
	}

	if rec.Status == match.StatusSuccess && !depsChanged {
		if rec.IsFetching {
			return nil, nil
		}
		// Stale while revalidate: keep serving the data and refresh it
		// under the navigation's context.
		return func() {
			o.fetch(navCtx, id, def, lc, deps, key, opts.Preload, true)
		}, nil
	}
	return nil, o.fetch(ctx, id, def, lc, deps, key, opts.Preload, false)
}

// fetch calls the loader and applies its result unless a newer attempt
// started or ctx was cancelled meanwhile.
func (o *Orchestrator) fetch(ctx context.Context, id string, def *router.RouteDef, lc *router.LoaderContext, deps any, key string, preload, background bool) error {
	attempt := o.attempts.Add(1)
	var lctx context.Context
	o.cache.Update(id, func(r *match.Record) {
		lctx = r.Begin(ctx, attempt)
		r.FetchCount++
		if !background {
			r.Status = match.StatusPending
		}
	})
	if lctx == nil {
		return nil
	}

	var data any
	call := Call{RouteID: lc.RouteID, MatchID: id, Phase: PhaseLoader, Preload: preload, Background: background}
	err := o.call(lctx, call, func(ctx context.Context) error {
		var err error
		data, err = def.Loader(ctx, lc)
		return err
	})

	cancelled := lctx.Err() != nil
	now := o.clock.Now()
	var settled error
	applied := false
	o.cache.Update(id, func(r *match.Record) {
		if !r.Finish(attempt) {
			return
		}
		applied = !cancelled
		if cancelled {
			if r.Status == match.StatusSuccess {
				r.Invalid = true
			}
			return
		}
		if err == nil {
			r.Status = match.StatusSuccess
			r.LoaderData = data
			r.Error = nil
			r.Redirect = nil
			r.Invalid = false
			r.UpdatedAt = now
			r.LoaderDeps = deps
			r.DepsKey = key
			return
		}
		settled = applySignal(r, PhaseLoader, err)
		r.UpdatedAt = now
	})
	if settled != nil && !cancelled {
		o.logFailure(lc.RouteID, PhaseLoader, settled, preload)
	}
	if background && applied && o.onRevalidate != nil {
		if rec, ok := o.cache.Get(id); ok {
			o.onRevalidate(rec)
		}
	}
	return settled
}

// settle records a hook failure on id and returns the stored error.
func (o *Orchestrator) settle(id string, phase Phase, err error, preload bool) error {
	var settled error
	o.cache.Update(id, func(r *match.Record) {
		settled = applySignal(r, phase, err)
		r.IsFetching = false
	})
	if settled != nil {
		o.logFailure(id, phase, settled, preload)
	}
	return settled
}

func (o *Orchestrator) logFailure(id string, phase Phase, err error, preload bool) {
	if _, ok := router.IsRedirect(err); ok {
		o.log.Debug("route redirected", "route", id, "phase", phase, "to", err.Error())
		return
	}
	if _, ok := router.IsNotFound(err); ok {
		o.log.Debug("route not found", "route", id, "phase", phase)
		return
	}
	o.log.Warn("route hook failed", "route", id, "phase", phase, "preload", preload, "error", err)
}

// applySignal maps a hook error onto the record's status.
func applySignal(r *match.Record, phase Phase, err error) error {
	if rd, ok := router.IsRedirect(err); ok {
		r.Status = match.StatusRedirected
		r.Redirect = rd
		r.Error = nil
		return rd
	}
	if nf, ok := router.IsNotFound(err); ok {
		r.Status = match.StatusNotFound
		r.Error = nf
		return nf
	}
	var le *LoaderError
	if !errors.As(err, &le) {
		le = &LoaderError{RouteID: r.RouteID, MatchID: r.ID, Phase: phase, Err: err}
	}
	r.Status = match.StatusError
	r.Error = le
	return le
}

// collect copies the records and picks the shallowest signals.
func (o *Orchestrator) collect(ids []string, signals []error) Result {
	res := Result{NotFoundIndex: -1}
	for _, id := range ids {
		if rec, ok := o.cache.Get(id); ok {
			res.Matches = append(res.Matches, rec)
		}
	}
	for i, sig := range signals {
		if sig == nil {
			continue
		}
		if rd, ok := router.IsRedirect(sig); ok {
			if res.Redirect == nil {
				res.Redirect = rd
			}
			continue
		}
		if nf, ok := router.IsNotFound(sig); ok {
			if res.NotFound == nil {
				res.NotFound, res.NotFoundIndex = nf, i
			}
			continue
		}
		if res.Err == nil {
			res.Err = sig
		}
	}
	return res
}
