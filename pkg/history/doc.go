// Package history keeps the stack of locations a router navigates over.
//
// Memory is the in-process implementation. Every entry carries a key that
// survives Back and Forward, and transitions can be vetoed by blockers:
//
//	h := history.NewMemory(history.MemoryOptions{InitialEntries: []string{"/"}})
//	unblock := h.Block(func(ctx context.Context, a history.BlockerArgs) bool {
//		return a.Current.Pathname == "/editor"
//	})
//	defer unblock()
//	ok, err := h.Push(ctx, "/posts?page=2", nil, history.NavigateOptions{})
package history
