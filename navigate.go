package pathway

import (
	"context"

	"github.com/vango-dev/pathway/pkg/history"
	"github.com/vango-dev/pathway/pkg/loader"
	"github.com/vango-dev/pathway/pkg/match"
	"github.com/vango-dev/pathway/pkg/router"
)

// NavigateOptions describes a navigation.
type NavigateOptions struct {
	ToOptions

	// Href navigates to a literal href and skips location building.
	Href string

	// Replace replaces the current history entry instead of pushing.
	Replace bool

	// IgnoreBlocker skips every registered blocker.
	IgnoreBlocker bool

	// ResetScroll set to false keeps the scroll position after commit.
	ResetScroll *bool
}

// Navigate moves history to the destination and loads it. A navigation
// vetoed by a blocker returns nil after emitting EventBlocked. Starting a
// navigation abandons any earlier one still waiting on a blocker.
func (r *Router) Navigate(ctx context.Context, opts NavigateOptions) error {
	href := opts.Href
	var state map[string]any
	if href == "" {
		loc, err := r.BuildLocation(opts.ToOptions)
		if err != nil {
			return err
		}
		href = loc.Href
		state = opts.State
	}

	cur := r.State().ResolvedLocation
	next, err := r.parseLocation(history.ParseHref(href, nil, ""))
	if err != nil {
		return err
	}
	action := history.Push
	if opts.Replace {
		action = history.Replace
	}
	r.emit(EventBeforeNavigate, Event{
		From:        cur,
		To:          next,
		PathChanged: cur.Pathname != next.Pathname,
		HrefChanged: cur.Href != next.Href,
		Action:      action,
	})

	return r.transition(ctx, action, func(ctx context.Context) (bool, error) {
		hopts := history.NavigateOptions{IgnoreBlocker: opts.IgnoreBlocker}
		if opts.Replace {
			return r.history.Replace(ctx, href, state, hopts)
		}
		return r.history.Push(ctx, href, state, hopts)
	}, opts.ResetScroll)
}

// Back navigates one history entry back and loads it.
func (r *Router) Back(ctx context.Context) error {
	return r.transition(ctx, history.Back, func(ctx context.Context) (bool, error) {
		return r.history.Back(ctx, history.NavigateOptions{})
	}, nil)
}

// Forward navigates one history entry forward and loads it.
func (r *Router) Forward(ctx context.Context) error {
	return r.transition(ctx, history.Forward, func(ctx context.Context) (bool, error) {
		return r.history.Forward(ctx, history.NavigateOptions{})
	}, nil)
}

// Go moves delta history entries and loads the result.
func (r *Router) Go(ctx context.Context, delta int) error {
	return r.transition(ctx, history.Go, func(ctx context.Context) (bool, error) {
		return r.history.Go(ctx, delta, history.NavigateOptions{})
	}, nil)
}

// transition runs move on history under a navigation context that the
// next navigation cancels, then loads the new location.
func (r *Router) transition(ctx context.Context, action history.Action, move func(context.Context) (bool, error), resetScroll *bool) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	if r.cancelNav != nil {
		r.cancelNav()
	}
	navCtx, cancel := context.WithCancel(ctx)
	r.cancelNav = cancel
	r.mu.Unlock()
	defer cancel()

	r.driving.Add(1)
	ok, err := move(navCtx)
	r.driving.Add(-1)
	if err != nil {
		if ctx.Err() == nil {
			// Abandoned for a newer navigation while a blocker decided.
			return nil
		}
		return err
	}
	if !ok {
		r.log.Debug("navigation blocked", "action", action)
		r.emit(EventBlocked, Event{From: r.State().ResolvedLocation, Action: action})
		return nil
	}
	if resetScroll != nil && !*resetScroll && r.opts.Scroll != nil {
		r.opts.Scroll.SkipNextReset()
	}
	err = r.load(navCtx, loadOptions{follow: true, action: action})
	if err != nil && ctx.Err() == nil && navCtx.Err() != nil {
		r.log.Debug("navigation superseded before load", "action", action)
		return nil
	}
	return err
}

// Block registers a blocker on history.
func (r *Router) Block(b history.Blocker) (unblock func()) {
	return r.history.Block(b)
}

// Preload builds and loads the destination's matches without committing.
// Concurrent preloads of the same href share one load. Redirects and
// not-found signals are not followed.
func (r *Router) Preload(ctx context.Context, opts ToOptions) ([]match.Record, error) {
	loc, err := r.BuildLocation(opts)
	if err != nil {
		return nil, err
	}
	v, err, _ := r.preloads.Do(loc.Href, func() (any, error) {
		res := r.tree.MatchLocation(loc.Pathname, router.MatchOptions{NotFoundMode: r.opts.notFoundMode()})
		records := r.orch.Build(loader.BuildInput{
			Match:     res,
			Location:  loc,
			Preload:   true,
			Committed: r.State().ids(),
		})
		result, err := r.orch.Load(ctx, records, loader.LoadOptions{Location: loc, Preload: true})
		if err != nil {
			return nil, err
		}
		return result.Matches, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]match.Record), nil
}

// Invalidate marks the records accepted by filter, or every record when
// filter is nil, and reloads the current location.
func (r *Router) Invalidate(ctx context.Context, filter func(match.Record) bool) error {
	r.orch.Invalidate(filter)
	return r.Load(ctx)
}

// ClearCache removes cached records accepted by filter, or all of them when
// filter is nil. Committed records are kept.
func (r *Router) ClearCache(filter func(match.Record) bool) []string {
	return r.cache.Clear(r.State().ids(), filter)
}
