package router

import (
	"context"
	"fmt"

	perrors "github.com/vango-dev/pathway/internal/errors"
)

// ResolveLazy loads the lazy part of a route, once. Concurrent callers share
// the same load. A failed load is retried by the next call.
func (t *Tree) ResolveLazy(ctx context.Context, id string) (*RouteDef, error) {
	n, err := t.Node(id)
	if err != nil {
		return nil, err
	}
	def := n.Def()
	if def.Lazy == nil {
		return def, nil
	}

	v, err, _ := t.lazy.Do(id, func() (any, error) {
		if cur := n.Def(); cur.Lazy == nil {
			return cur, nil
		}
		lazy, err := def.Lazy(ctx)
		if err != nil {
			return nil, err
		}
		merged := def.mergeLazy(lazy)
		n.def.Store(merged)
		t.logger.Debug("lazy route resolved", "route", id)
		return merged, nil
	})
	if err != nil {
		return nil, perrors.New("E207").WithRoute(id, n.FullPath()).Wrap(fmt.Errorf("%w: %w", ErrLazyRoute, err))
	}
	return v.(*RouteDef), nil
}
