package pathway

import (
	"context"

	"github.com/vango-dev/pathway/pkg/history"
	"github.com/vango-dev/pathway/pkg/ssr"
)

var _ ssr.Renderer = (*Router)(nil)

// Dehydrate captures the committed state for a client to hydrate from.
func (r *Router) Dehydrate() *ssr.Snapshot {
	st := r.State()
	snap := &ssr.Snapshot{
		Href:       st.ResolvedLocation.Href,
		StatusCode: st.StatusCode,
		Matches:    make([]ssr.Match, 0, len(st.Matches)),
		Manifest:   make(map[string]string, r.tree.Len()),
		CreatedAt:  r.orch.Clock().Now().UTC(),
	}
	if st.Redirect != nil {
		if href, err := r.redirectHref(st.Redirect); err == nil {
			snap.Redirect = href
		}
	}
	for _, m := range st.Matches {
		snap.Matches = append(snap.Matches, ssr.FromRecord(m))
	}
	for _, n := range r.tree.Nodes() {
		snap.Manifest[n.ID()] = n.FullPath()
	}
	return snap
}

// Hydrate seeds the cache with a server snapshot. The seeded records skip
// their first load, so the following Load reuses the server's data.
func (r *Router) Hydrate(snap *ssr.Snapshot) {
	if snap == nil {
		return
	}
	now := r.orch.Clock().Now()
	for _, m := range snap.Matches {
		r.cache.Put(m.Record(now))
	}
	r.log.Debug("hydrated matches", "count", len(snap.Matches), "href", snap.Href)
}

// Render loads href without following redirects and returns the snapshot.
// When ctx carries an ssr.Context the snapshot is recorded on it too.
func (r *Router) Render(ctx context.Context, href string) (*ssr.Snapshot, error) {
	r.driving.Add(1)
	_, err := r.history.Replace(ctx, href, nil, history.NavigateOptions{IgnoreBlocker: true})
	r.driving.Add(-1)
	if err != nil {
		return nil, err
	}
	if err := r.load(ctx, loadOptions{follow: false, action: history.Replace}); err != nil {
		return nil, err
	}

	snap := r.Dehydrate()
	if sc, ok := ssr.FromContext(ctx); ok {
		snap.ID = sc.RequestID
		sc.SetSnapshot(snap)
	}
	return snap, nil
}
