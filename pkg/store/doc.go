// Package store provides a small generic observable value.
//
// The router publishes its state through a Store so UI bindings, the
// inspector and tests can all observe commits without knowing about each
// other. Bindings adapt Subscribe to their own reactivity at the boundary.
//
//	s := store.New(0)
//	unsubscribe := s.Subscribe(func(next, prev int) {
//	    fmt.Println(prev, "->", next)
//	})
//	defer unsubscribe()
//	s.Set(func(n int) int { return n + 1 })
package store
