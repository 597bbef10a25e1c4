// Package pathway is a route matcher and match-state cache for client-side
// routers.
//
// This is the recommended import for most applications:
//
//	import "github.com/vango-dev/pathway"
//
// Usage:
//
//	root := &pathway.RouteDef{}
//	posts := &pathway.RouteDef{Path: "posts", GetParentRoute: func() *pathway.RouteDef { return root }}
//	post := &pathway.RouteDef{
//		Path:           "$postId",
//		GetParentRoute: func() *pathway.RouteDef { return posts },
//		Loader: func(ctx context.Context, c *pathway.LoaderContext) (any, error) {
//			return db.Post(ctx, c.Params["postId"])
//		},
//	}
//
//	r, err := pathway.New([]*pathway.RouteDef{root, posts, post}, pathway.Options{})
//	err = r.Navigate(ctx, pathway.NavigateOptions{ToOptions: pathway.ToOptions{
//		To:     "/posts/$postId",
//		Params: map[string]string{"postId": "42"},
//	}})
//	leaf, _ := r.State().Leaf()
package pathway

import (
	"time"

	"github.com/vango-dev/pathway/pkg/match"
	"github.com/vango-dev/pathway/pkg/router"
)

// =============================================================================
// Route definitions (pkg/router exposed as pathway.*)
// =============================================================================

// RouteDef is an authored route definition.
type RouteDef = router.RouteDef

// Location is a parsed location as route hooks see it.
type Location = router.Location

// Hook contexts.
type (
	DepsContext       = router.DepsContext
	RouteContext      = router.RouteContext
	BeforeLoadContext = router.BeforeLoadContext
	LoaderContext     = router.LoaderContext
)

// RootRouteID is the id of a root route that declares none.
const RootRouteID = router.RootRouteID

// Not-found modes.
const (
	NotFoundFuzzy = router.NotFoundFuzzy
	NotFoundRoot  = router.NotFoundRoot
)

// =============================================================================
// Match records
// =============================================================================

// Match is one matched route instance.
type Match = match.Record

// Match statuses.
const (
	MatchPending    = match.StatusPending
	MatchSuccess    = match.StatusSuccess
	MatchError      = match.StatusError
	MatchRedirected = match.StatusRedirected
	MatchNotFound   = match.StatusNotFound
)

// =============================================================================
// Control-flow signals
// =============================================================================

// Redirect returns a signal that sends the navigation to href.
func Redirect(href string) *router.RedirectError { return router.Redirect(href) }

// RedirectTo returns a signal that sends the navigation to a route.
func RedirectTo(to string, params map[string]string) *router.RedirectError {
	return router.RedirectTo(to, params)
}

// NotFound returns a signal that renders the nearest not-found route.
func NotFound() *router.NotFoundError { return router.NotFound() }

// Duration returns a pointer to d, for optional timing fields.
func Duration(d time.Duration) *time.Duration { return router.Duration(d) }

// Version is the module version reported by the CLI.
var Version = "dev"
