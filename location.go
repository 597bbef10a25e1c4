package pathway

import (
	"fmt"
	"path"
	"strings"

	"github.com/vango-dev/pathway/pkg/history"
	"github.com/vango-dev/pathway/pkg/routepath"
	"github.com/vango-dev/pathway/pkg/router"
	"github.com/vango-dev/pathway/pkg/search"
)

// ToOptions describes a destination.
type ToOptions struct {
	// To is a route id, a full route path such as "/posts/$postId", or a
	// pathname. Paths starting with "." resolve against From. Empty means
	// the current location.
	To string

	// From is the route id or path relative targets resolve against. Empty
	// means the current leaf route.
	From string

	// Params fill the destination's path params. For an empty or relative
	// To they are merged over the current params.
	Params map[string]string

	// Search is the destination search. SearchFunc, when set, derives it
	// from the current search instead. With neither, the search is empty
	// unless a route middleware retains keys.
	Search     map[string]any
	SearchFunc func(current map[string]any) map[string]any

	// Hash is the fragment without "#".
	Hash string

	// State is attached to the history entry.
	State map[string]any
}

// BuildLocation resolves opts against the current location. It runs the
// search middlewares of every route on the destination's match chain.
func (r *Router) BuildLocation(opts ToOptions) (router.Location, error) {
	current := r.State()
	cur := current.Location
	if cur.Pathname == "" {
		cur = current.ResolvedLocation
	}

	target, relative, err := r.resolveTarget(opts, current)
	if err != nil {
		return router.Location{}, err
	}

	params := make(map[string]string)
	if opts.To == "" || relative {
		if leaf, ok := current.Leaf(); ok {
			for k, v := range leaf.Params {
				params[k] = v
			}
		}
	}
	for k, v := range opts.Params {
		params[k] = v
	}

	pathname, err := r.interpolate(target, params)
	if err != nil {
		return router.Location{}, err
	}
	canon, err := routepath.Canonicalize(pathname, r.opts.TrailingSlash)
	if err != nil {
		return router.Location{}, fmt.Errorf("%w %q: %w", ErrNoRoute, opts.To, err)
	}
	pathname = canon.Pathname

	final := func(prev map[string]any) map[string]any {
		switch {
		case opts.SearchFunc != nil:
			return search.Normalize(opts.SearchFunc(clone(prev)))
		case opts.Search != nil:
			return search.Normalize(opts.Search)
		}
		return map[string]any{}
	}
	var mws []search.Middleware
	for _, n := range r.tree.MatchLocation(pathname, router.MatchOptions{NotFoundMode: router.NotFoundRoot}).Nodes {
		mws = append(mws, n.Def().SearchMiddlewares...)
	}
	dest := search.Run(mws, clone(cur.Search), final)

	return newLocation(pathname, dest, opts.Hash, opts.State), nil
}

// resolveTarget returns the pattern or pathname opts points at.
func (r *Router) resolveTarget(opts ToOptions, current State) (string, bool, error) {
	to := opts.To
	if to == "" {
		if leaf, ok := current.Leaf(); ok {
			if n, err := r.tree.Node(leaf.RouteID); err == nil {
				return n.FullPath(), false, nil
			}
		}
		return current.ResolvedLocation.Pathname, false, nil
	}
	if !strings.HasPrefix(to, ".") {
		if n, err := r.tree.Lookup(to); err == nil && !n.IsRoot() {
			return n.FullPath(), false, nil
		}
		if strings.HasPrefix(to, "/") {
			return to, false, nil
		}
		return "", false, fmt.Errorf("%w %q", ErrNoRoute, to)
	}

	from := opts.From
	if from == "" {
		if leaf, ok := current.Leaf(); ok {
			from = leaf.RouteID
		}
	}
	base := "/"
	if from != "" {
		if n, err := r.tree.Lookup(from); err == nil {
			base = n.FullPath()
		} else if strings.HasPrefix(from, "/") {
			base = from
		}
	}
	return path.Join(base, to), true, nil
}

// interpolate fills params into target when it is a pattern.
func (r *Router) interpolate(target string, params map[string]string) (string, error) {
	if !strings.ContainsAny(target, "$*{") {
		return target, nil
	}
	p, err := routepath.Compile(target)
	if err != nil {
		return "", fmt.Errorf("%w %q: %w", ErrNoRoute, target, err)
	}
	out, err := p.Build(p.EncodeParams(params))
	if err != nil {
		return "", fmt.Errorf("%w %q: %w", ErrNoRoute, target, err)
	}
	return out, nil
}

// parseLocation converts a history entry into the location hooks see.
func (r *Router) parseLocation(h history.Location) (router.Location, error) {
	canon, err := routepath.Canonicalize(h.Pathname, r.opts.TrailingSlash)
	if err != nil {
		return router.Location{}, err
	}
	loc := newLocation(canon.Pathname, search.Parse(h.Search), strings.TrimPrefix(h.Hash, "#"), h.State.Values)
	// Keep the raw search so unrecognised encodings survive a round trip.
	if h.Search != "" {
		loc.SearchStr = h.Search
		loc.Href = loc.Pathname + loc.SearchStr
		if loc.Hash != "" {
			loc.Href += "#" + loc.Hash
		}
	}
	return loc, nil
}

func newLocation(pathname string, s map[string]any, hash string, state map[string]any) router.Location {
	loc := router.Location{
		Pathname: pathname,
		Search:   s,
		Hash:     hash,
		State:    state,
	}
	if str := search.Stringify(s); str != "" {
		loc.SearchStr = "?" + str
	}
	loc.Href = pathname + loc.SearchStr
	if hash != "" {
		loc.Href += "#" + hash
	}
	return loc
}

func clone(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
