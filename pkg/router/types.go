package router

import (
	"context"
	"time"

	"github.com/vango-dev/pathway/pkg/match"
	"github.com/vango-dev/pathway/pkg/search"
)

// RootRouteID is the id given to the root route when it declares none.
const RootRouteID = "__root__"

// NotFoundMode selects which route handles locations that match nothing.
type NotFoundMode string

const (
	// NotFoundFuzzy hands not-found to the deepest partially matched route
	// that can render children.
	NotFoundFuzzy NotFoundMode = "fuzzy"
	// NotFoundRoot always hands not-found to the root route.
	NotFoundRoot NotFoundMode = "root"
)

// Location is a parsed location as seen by route hooks.
type Location struct {
	Pathname  string         `json:"pathname"`
	Search    map[string]any `json:"search"`
	SearchStr string         `json:"searchStr"`
	Hash      string         `json:"hash"`
	Href      string         `json:"href"`
	State     map[string]any `json:"state,omitempty"`
}

// RouteDef is an authored route definition. A tree is built from a flat list
// of definitions linked through GetParentRoute or ParentID.
type RouteDef struct {
	// ID is optional; when empty it is derived from the parent id and Path.
	ID string

	// Path is the pattern relative to the parent. Empty, "_name" and "(name)"
	// paths are pathless.
	Path string

	// GetParentRoute returns the parent definition. It is called during Build,
	// after every definition exists, so package-level route variables may
	// reference each other in any order.
	GetParentRoute func() *RouteDef

	// ParentID links to the parent by id when no thunk is given.
	ParentID string

	// CaseSensitive overrides the tree-wide case sensitivity for this route.
	CaseSensitive *bool

	// ValidateSearch validates this route's search keys.
	ValidateSearch search.Validator

	// SearchMiddlewares rewrite the search when building locations to this route.
	SearchMiddlewares []search.Middleware

	// ParseParams converts the decoded path params. An error puts the match
	// in the error state.
	ParseParams func(params map[string]string) (map[string]string, error)

	// LoaderDeps derives the value that decides whether cached loader data
	// can be reused.
	LoaderDeps func(c DepsContext) any

	// Context runs once when a match record is created.
	Context func(c *RouteContext) map[string]any

	// BeforeLoad runs serially root to leaf before any loader. Its result is
	// merged into the context passed to descendants.
	BeforeLoad func(ctx context.Context, c *BeforeLoadContext) (map[string]any, error)

	// Loader produces the route's data.
	Loader func(ctx context.Context, c *LoaderContext) (any, error)

	// ShouldReload, when set, decides whether a fresh successful record is
	// reloaded anyway.
	ShouldReload func(c *LoaderContext) bool

	// Lazy resolves the hook fields of this route the first time it loads.
	Lazy func(ctx context.Context) (*RouteDef, error)

	// Cache timings. Nil means the router default.
	StaleTime        *time.Duration
	PreloadStaleTime *time.Duration
	GCMaxAge         *time.Duration
	PreloadGCMaxAge  *time.Duration

	// HandlesNotFound marks a route that renders its own not-found boundary.
	HandlesNotFound bool

	// Lifecycle hooks run after a navigation commits.
	OnEnter func(m match.Record)
	OnStay  func(m match.Record)
	OnLeave func(m match.Record)

	// Meta is free-form data for tooling.
	Meta map[string]any
}

// Duration returns a pointer to d, for RouteDef timing fields.
func Duration(d time.Duration) *time.Duration {
	return &d
}

// Bool returns a pointer to b.
func Bool(b bool) *bool {
	return &b
}

// DepsContext is passed to LoaderDeps.
type DepsContext struct {
	Search map[string]any
}

// RouteContext is passed to a route's context factory.
type RouteContext struct {
	RouteID  string
	MatchID  string
	Params   map[string]string
	Search   map[string]any
	Deps     any
	Context  map[string]any
	Location Location
	Cause    match.Cause
}

// BeforeLoadContext is passed to BeforeLoad.
type BeforeLoadContext struct {
	RouteID  string
	MatchID  string
	Params   map[string]string
	Search   map[string]any
	Context  map[string]any
	Location Location
	Preload  bool
	Cause    match.Cause
}

// LoaderContext is passed to Loader and ShouldReload.
type LoaderContext struct {
	RouteID  string
	MatchID  string
	Params   map[string]string
	Search   map[string]any
	Deps     any
	Context  map[string]any
	Location Location
	Preload  bool
	Cause    match.Cause
}

// mergeLazy overlays the hook and timing fields a lazy definition supplies.
func (d *RouteDef) mergeLazy(lazy *RouteDef) *RouteDef {
	merged := *d
	merged.Lazy = nil
	if lazy == nil {
		return &merged
	}
	if lazy.Loader != nil {
		merged.Loader = lazy.Loader
	}
	if lazy.BeforeLoad != nil {
		merged.BeforeLoad = lazy.BeforeLoad
	}
	if lazy.LoaderDeps != nil {
		merged.LoaderDeps = lazy.LoaderDeps
	}
	if lazy.ShouldReload != nil {
		merged.ShouldReload = lazy.ShouldReload
	}
	if lazy.OnEnter != nil {
		merged.OnEnter = lazy.OnEnter
	}
	if lazy.OnStay != nil {
		merged.OnStay = lazy.OnStay
	}
	if lazy.OnLeave != nil {
		merged.OnLeave = lazy.OnLeave
	}
	if lazy.StaleTime != nil {
		merged.StaleTime = lazy.StaleTime
	}
	if lazy.PreloadStaleTime != nil {
		merged.PreloadStaleTime = lazy.PreloadStaleTime
	}
	if lazy.GCMaxAge != nil {
		merged.GCMaxAge = lazy.GCMaxAge
	}
	if lazy.PreloadGCMaxAge != nil {
		merged.PreloadGCMaxAge = lazy.PreloadGCMaxAge
	}
	if lazy.Meta != nil {
		merged.Meta = lazy.Meta
	}
	return &merged
}
