// Package ssr carries router state from a server render to client
// hydration.
//
// A render produces a Snapshot: the committed matches with their loader
// data, the status code and any redirect. A Context scopes one render and is
// passed down through context.Context. Snapshots can be persisted in a
// Store (memory, disk or S3) and fetched by id.
//
//	h := ssr.NewHandler(func(r *http.Request) (ssr.Renderer, error) {
//		return pathway.New(routes, pathway.Options{})
//	}, ssr.HandlerOptions{Store: ssr.NewMemoryStore(0)})
package ssr
