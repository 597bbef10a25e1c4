// Package inspect serves a JSON view of a live router for tooling.
//
// The handler lists the route tree, matches pathnames without loading,
// drives navigations, and streams committed states over a websocket:
//
//	srv := inspect.New(r, inspect.Options{Gatherer: registry})
//	mux.Handle("/_pathway/", http.StripPrefix("/_pathway", srv.Handler()))
//
// The API mutates router state. Mount it behind authentication or only in
// development.
package inspect
