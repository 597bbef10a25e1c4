package ssr

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vango-dev/pathway/pkg/routepath"
)

// SnapshotHeader carries the id of the stored snapshot on render responses.
const SnapshotHeader = "X-Pathway-Snapshot"

// Renderer runs one server render.
type Renderer interface {
	Render(ctx context.Context, href string) (*Snapshot, error)
}

// Factory creates the renderer for a request. Every request gets its own
// router so no match state leaks between requests.
type Factory func(r *http.Request) (Renderer, error)

// HandlerOptions configures NewHandler.
type HandlerOptions struct {
	// Store persists snapshots. Nil disables persistence and the snapshot
	// endpoint.
	Store Store

	// TrailingSlash is the canonical form request paths redirect to.
	TrailingSlash routepath.TrailingSlash

	// Logger receives render failures. Nil means slog.Default().
	Logger *slog.Logger
}

// NewHandler serves renders as JSON snapshots:
//
//	GET /_pathway/snapshots/{id}  previously stored snapshot
//	GET /*                        render the requested location
//
// Non-canonical paths get a 308 to their canonical form. A render that ends
// in a redirect answers with the redirect's status and Location header.
func NewHandler(factory Factory, opts HandlerOptions) http.Handler {
	h := &handler{factory: factory, store: opts.Store, trailing: opts.TrailingSlash, log: opts.Logger}
	if h.log == nil {
		h.log = slog.Default()
	}

	r := chi.NewRouter()
	if h.store != nil {
		r.Get("/_pathway/snapshots/{id}", h.snapshot)
	}
	r.Get("/*", h.render)
	return r
}

type handler struct {
	factory  Factory
	store    Store
	trailing routepath.TrailingSlash
	log      *slog.Logger
}

func (h *handler) render(w http.ResponseWriter, r *http.Request) {
	input := r.URL.EscapedPath()
	if r.URL.RawQuery != "" {
		input += "?" + r.URL.RawQuery
	}
	canon, err := routepath.Canonicalize(input, h.trailing)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid path")
		return
	}
	if canon.Changed {
		target := canon.Pathname
		if canon.Search != "" {
			target += "?" + canon.Search
		}
		http.Redirect(w, r, target, http.StatusPermanentRedirect)
		return
	}

	sc := NewContext(r)
	ctx := WithContext(r.Context(), sc)

	renderer, err := h.factory(r)
	if err != nil {
		h.log.Error("ssr: create renderer", "error", err, "request_id", sc.RequestID)
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}
	snap, err := renderer.Render(ctx, r.URL.RequestURI())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		h.log.Error("ssr: render", "path", r.URL.Path, "error", err, "request_id", sc.RequestID)
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}
	if snap.ID == "" {
		snap.ID = sc.RequestID
	}
	sc.SetSnapshot(snap)

	if h.store != nil && snap.Redirect == "" {
		if err := h.store.Put(ctx, snap); err != nil {
			h.log.Warn("ssr: store snapshot", "id", snap.ID, "error", err)
		} else {
			w.Header().Set(SnapshotHeader, snap.ID)
		}
	}

	for k, vs := range sc.Headers() {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}

	status := snap.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	if snap.Redirect != "" {
		w.Header().Set("Location", snap.Redirect)
	}
	writeJSON(w, status, snap)
}

func (h *handler) snapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.store.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, ErrSnapshotNotFound) {
		writeError(w, http.StatusNotFound, "snapshot not found")
		return
	}
	if err != nil {
		h.log.Error("ssr: load snapshot", "error", err)
		writeError(w, http.StatusInternalServerError, "snapshot unavailable")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
