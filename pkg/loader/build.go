package loader

import (
	"encoding/json"
	"fmt"

	perrors "github.com/vango-dev/pathway/internal/errors"
	"github.com/vango-dev/pathway/pkg/match"
	"github.com/vango-dev/pathway/pkg/router"
	"github.com/vango-dev/pathway/pkg/search"
)

// BuildInput is a structural match to turn into records.
type BuildInput struct {
	Match router.MatchResult

	// Location carries the raw parsed search in Location.Search.
	Location router.Location

	// Preload builds records for a preload rather than a navigation.
	Preload bool

	// Committed holds the ids currently on screen; reused ones stay, others enter.
	Committed map[string]bool
}

// Build creates or reuses one record per matched route, root first, and
// returns copies. Search validation and param parsing happen here; their
// failures put the record in StatusError without running any hook.
func (o *Orchestrator) Build(in BuildInput) []match.Record {
	nodes := in.Match.Nodes
	steps := make([]search.Step, len(nodes))
	for i, n := range nodes {
		steps[i] = search.Step{RouteID: n.ID(), Validator: n.Def().ValidateSearch}
	}
	resolved := search.Resolve(steps, in.Location.Search)

	out := make([]match.Record, 0, len(nodes))
	params := map[string]string{}
	paramsFailed := false
	parentCtx := o.base

	for i, n := range nodes {
		def := n.Def()

		var paramsErr error
		if !paramsFailed {
			paramsErr = o.parseParams(n, def, in.Match.Params, params)
			paramsFailed = paramsErr != nil
		}
		id := match.ID(n.ID(), params, n.ParamNames())

		cause := match.CauseEnter
		switch {
		case in.Preload:
			cause = match.CausePreload
		case in.Committed[id]:
			cause = match.CauseStay
		}

		pathname := "/"
		if i < len(in.Match.Pathnames) {
			pathname = in.Match.Pathnames[i]
		}
		res := resolved[i]

		_, created := o.cache.GetOrCreate(id, func() *match.Record {
			r := &match.Record{
				RouteID:   n.ID(),
				Status:    match.StatusPending,
				Preload:   in.Preload,
				CreatedAt: o.clock.Now(),
			}
			if def.Context != nil {
				r.RouteContext = def.Context(&router.RouteContext{
					RouteID:  n.ID(),
					MatchID:  id,
					Params:   cloneParams(params),
					Search:   res.Search,
					Context:  mergeContext(parentCtx),
					Location: in.Location,
					Cause:    cause,
				})
			}
			r.Context = mergeContext(parentCtx, r.RouteContext)
			return r
		})

		o.cache.Update(id, func(r *match.Record) {
			// A preload must not disturb a record that is already on screen.
			if in.Preload && !created && in.Committed[id] {
				return
			}
			r.Index = i
			r.Pathname = pathname
			r.Params = cloneParams(params)
			r.Search = res.Search
			r.StrictSearch = res.Strict
			r.Cause = cause
			r.GlobalNotFound = in.Match.NotFoundRouteID != "" && in.Match.NotFoundRouteID == n.ID()
			if !in.Preload {
				r.Preload = false
			}

			hadInputError := r.SearchError != nil || r.ParamsError != nil
			r.SearchError = res.Err
			r.ParamsError = paramsErr
			switch {
			case r.SearchError != nil:
				r.Status, r.Error = match.StatusError, r.SearchError
			case r.ParamsError != nil:
				r.Status, r.Error = match.StatusError, r.ParamsError
			case hadInputError:
				r.Status, r.Error = match.StatusPending, nil
			}
		})

		cur, _ := o.cache.Get(id)
		parentCtx = cur.Context
		out = append(out, cur)
	}
	return out
}

// parseParams decodes the params n's path adds and runs its ParseParams,
// accumulating into params.
func (o *Orchestrator) parseParams(n *router.Node, def *router.RouteDef, raw, params map[string]string) error {
	own := make(map[string]string)
	for _, name := range n.ParamNames() {
		if v, ok := raw[name]; ok {
			own[name] = v
		}
	}
	decoded, err := n.FullPattern().DecodeParams(own)
	if err != nil {
		return perrors.New("E212").WithRoute(n.ID(), n.FullPath()).Wrap(err)
	}
	for k, v := range decoded {
		params[k] = v
	}

	if def.ParseParams == nil {
		return nil
	}
	parsed, err := def.ParseParams(cloneParams(params))
	if err != nil {
		return perrors.New("E212").WithRoute(n.ID(), n.FullPath()).Wrap(err)
	}
	for k, v := range parsed {
		params[k] = v
	}
	return nil
}

// depsKey is the comparison key of a LoaderDeps value.
func depsKey(v any) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%#v", v)
	}
	return string(data)
}

func cloneParams(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
