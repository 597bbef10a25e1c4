package match

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Status is the lifecycle state of a match record.
type Status string

const (
	StatusPending    Status = "pending"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
	StatusRedirected Status = "redirected"
	StatusNotFound   Status = "notFound"
)

// Cause says why a record is being loaded.
type Cause string

const (
	CauseEnter   Cause = "enter"
	CauseStay    Cause = "stay"
	CausePreload Cause = "preload"
)

// Record is one matched route instance for a concrete location.
//
// Records handed out by Cache and the router are copies. Only the loader
// orchestrator mutates the cached original.
type Record struct {
	ID      string
	RouteID string
	Index   int

	Pathname string
	Params   map[string]string

	// Search is the merged search visible to this route; StrictSearch only
	// holds keys declared by this route and its ancestors.
	Search       map[string]any
	StrictSearch map[string]any

	Status     Status
	LoaderData any
	Error      error

	// SearchError and ParamsError are recorded during matching; either one
	// puts the record in StatusError without running its loader.
	SearchError error
	ParamsError error

	UpdatedAt  time.Time
	IsFetching bool

	// CreatedAt is when the record was first built. A record that never
	// loaded ages from here.
	CreatedAt time.Time

	// Invalid forces the next load to refetch regardless of staleTime.
	Invalid bool

	// Preload marks a record that was only loaded ahead of navigation and
	// has not been committed yet.
	Preload bool

	// LoaderDeps is the value the route's LoaderDeps returned when the
	// record was last loaded.
	LoaderDeps any
	DepsKey    string

	// RouteContext is the output of the route's context factory; Context is
	// the merged ancestor, route and beforeLoad context.
	RouteContext map[string]any
	Context      map[string]any

	Cause      Cause
	FetchCount int

	// Dehydrated records came from a server snapshot and skip their first load.
	Dehydrated bool

	// GlobalNotFound marks the record chosen to render a not-found boundary.
	GlobalNotFound bool

	// Redirect holds the target when Status is StatusRedirected.
	Redirect any

	attempt uint64
	cancel  context.CancelFunc
}

// Clone returns a copy that shares no maps with r.
func (r *Record) Clone() Record {
	c := *r
	c.Params = cloneStrings(r.Params)
	c.Search = cloneAny(r.Search)
	c.StrictSearch = cloneAny(r.StrictSearch)
	c.RouteContext = cloneAny(r.RouteContext)
	c.Context = cloneAny(r.Context)
	c.cancel = nil
	return c
}

// Attempt returns the token of the record's current load.
func (r *Record) Attempt() uint64 {
	return r.attempt
}

// Begin starts load attempt number attempt, cancelling any previous one,
// and returns the context the load must observe.
func (r *Record) Begin(parent context.Context, attempt uint64) context.Context {
	if r.cancel != nil {
		r.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	r.attempt = attempt
	r.cancel = cancel
	r.IsFetching = true
	return ctx
}

// Finish clears the in-flight state if attempt is still current.
func (r *Record) Finish(attempt uint64) bool {
	if r.attempt != attempt {
		return false
	}
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.IsFetching = false
	return true
}

// Abort cancels the in-flight load, if any.
func (r *Record) Abort() {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

// Age returns how long ago the record last loaded successfully.
func (r *Record) Age(now time.Time) time.Duration {
	if r.UpdatedAt.IsZero() {
		return time.Duration(1<<63 - 1)
	}
	return now.Sub(r.UpdatedAt)
}

// ID builds the stable id of a match from its route id and the params used
// by the route's path. Params are sorted and escaped, so the same logical
// match always gets the same id.
func ID(routeID string, params map[string]string, used []string) string {
	if len(used) == 0 {
		return routeID
	}
	names := append([]string(nil), used...)
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(routeID)
	b.WriteByte('?')
	for i, name := range names {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params[name]))
	}
	return b.String()
}

func cloneStrings(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneAny(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
