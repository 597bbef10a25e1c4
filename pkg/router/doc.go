// Package router builds route trees and matches locations against them.
//
// A tree is built from a flat list of RouteDef values. Each definition names
// its parent either through a GetParentRoute thunk or a ParentID, so package
// level route variables can be declared in any order:
//
//	var rootRoute = &router.RouteDef{}
//	var postsRoute = &router.RouteDef{
//		Path:           "posts",
//		GetParentRoute: func() *router.RouteDef { return rootRoute },
//	}
//	var postRoute = &router.RouteDef{
//		Path:           "$postId",
//		GetParentRoute: func() *router.RouteDef { return postsRoute },
//	}
//
//	tree, err := router.Build([]*router.RouteDef{rootRoute, postsRoute, postRoute})
//
// # Matching
//
// MatchLocation walks the tree and returns the chain of routes that consumes
// the whole pathname. When several chains do, the one ending at the most
// specific route wins: static segments beat params, params beat optional
// params, and wildcards come last. Equally specific routes resolve to the one
// declared last and are reported by Lint.
//
//	res := tree.MatchLocation("/posts/42", router.MatchOptions{})
//	// res.Nodes  → [__root__, /posts, /posts/$postId]
//	// res.Params → {"postId": "42"}
//
// Locations that match nothing are reported through NotFoundRouteID rather
// than an error.
//
// # Signals
//
// Hooks return Redirect or NotFound values as errors to redirect the
// navigation or render a not-found boundary.
package router
