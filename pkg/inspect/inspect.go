package inspect

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/pathway"
	"github.com/vango-dev/pathway/pkg/match"
	"github.com/vango-dev/pathway/pkg/router"
	"github.com/vango-dev/pathway/pkg/search"
	"github.com/vango-dev/pathway/pkg/ssr"
)

// DefaultWriteTimeout bounds one websocket write.
const DefaultWriteTimeout = 10 * time.Second

// Options configures a Server.
type Options struct {
	// Gatherer serves /metrics. Nil means prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	// CheckOrigin validates websocket origins. Nil accepts same-origin
	// requests only.
	CheckOrigin func(r *http.Request) bool

	// WriteTimeout bounds each websocket write. Default: 10s.
	WriteTimeout time.Duration

	// Logger is the structured logger. Nil means slog.Default().
	Logger *slog.Logger
}

// Server exposes a router over HTTP.
type Server struct {
	router   *pathway.Router
	gatherer prometheus.Gatherer
	timeout  time.Duration
	upgrader websocket.Upgrader
	log      *slog.Logger
}

// New creates a Server for r.
func New(r *pathway.Router, opts Options) *Server {
	s := &Server{
		router:   r,
		gatherer: opts.Gatherer,
		timeout:  opts.WriteTimeout,
		upgrader: websocket.Upgrader{CheckOrigin: opts.CheckOrigin},
		log:      opts.Logger,
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}
	if s.timeout <= 0 {
		s.timeout = DefaultWriteTimeout
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

// Handler returns the HTTP API:
//
//	GET  /routes      route tree and lint warnings
//	GET  /match       structural match of ?path=, optional ?mode=root|fuzzy
//	POST /navigate    navigate and return the committed state
//	GET  /state       committed state
//	GET  /state/ws    websocket stream of committed states
//	POST /invalidate  invalidate all records, or ?route=id, and reload
//	GET  /metrics     Prometheus metrics
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/routes", s.routes)
	r.Get("/match", s.match)
	r.Post("/navigate", s.navigate)
	r.Get("/state", s.state)
	r.Get("/state/ws", s.stream)
	r.Post("/invalidate", s.invalidate)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return r
}

// RouteInfo describes one route of the tree.
type RouteInfo struct {
	ID              string   `json:"id"`
	Path            string   `json:"path"`
	FullPath        string   `json:"fullPath"`
	Parent          string   `json:"parent,omitempty"`
	Depth           int      `json:"depth"`
	Rank            int      `json:"rank"`
	Params          []string `json:"params,omitempty"`
	HandlesNotFound bool     `json:"handlesNotFound,omitempty"`
	Lazy            bool     `json:"lazy,omitempty"`
}

// Routes lists the tree's routes in declaration order.
func Routes(t *router.Tree) []RouteInfo {
	nodes := t.Nodes()
	out := make([]RouteInfo, 0, len(nodes))
	for _, n := range nodes {
		info := RouteInfo{
			ID:       n.ID(),
			Path:     n.Path(),
			FullPath: n.FullPath(),
			Depth:    n.Depth(),
			Rank:     n.Rank(),
			Params:   n.ParamNames(),
		}
		if p := n.Parent(); p != nil {
			info.Parent = p.ID()
		}
		if def := n.Def(); def != nil {
			info.HandlesNotFound = def.HandlesNotFound
			info.Lazy = def.Lazy != nil
		}
		out = append(out, info)
	}
	return out
}

type routesResponse struct {
	Routes   []RouteInfo      `json:"routes"`
	Warnings []router.Warning `json:"warnings,omitempty"`
}

func (s *Server) routes(w http.ResponseWriter, r *http.Request) {
	t := s.router.Tree()
	writeJSON(w, http.StatusOK, routesResponse{Routes: Routes(t), Warnings: t.Lint()})
}

// MatchInfo is the structural match of a pathname.
type MatchInfo struct {
	Pathname        string            `json:"pathname"`
	Routes          []string          `json:"routes"`
	Params          map[string]string `json:"params,omitempty"`
	NotFoundRouteID string            `json:"notFoundRouteId,omitempty"`
}

func (s *Server) match(w http.ResponseWriter, r *http.Request) {
	pathname := r.URL.Query().Get("path")
	if pathname == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	mode := router.NotFoundMode(r.URL.Query().Get("mode"))
	switch mode {
	case "":
		mode = router.NotFoundFuzzy
	case router.NotFoundFuzzy, router.NotFoundRoot:
	default:
		writeError(w, http.StatusBadRequest, "mode must be fuzzy or root")
		return
	}

	res := s.router.Tree().MatchLocation(pathname, router.MatchOptions{NotFoundMode: mode})
	info := MatchInfo{
		Pathname:        pathname,
		Routes:          make([]string, len(res.Nodes)),
		Params:          res.Params,
		NotFoundRouteID: res.NotFoundRouteID,
	}
	for i, n := range res.Nodes {
		info.Routes[i] = n.ID()
	}
	writeJSON(w, http.StatusOK, info)
}

type navigateRequest struct {
	Href    string            `json:"href"`
	To      string            `json:"to"`
	Params  map[string]string `json:"params"`
	Search  map[string]any    `json:"search"`
	Hash    string            `json:"hash"`
	Replace bool              `json:"replace"`
}

func (s *Server) navigate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	err := s.router.Navigate(r.Context(), pathway.NavigateOptions{
		ToOptions: pathway.ToOptions{To: req.To, Params: req.Params, Search: req.Search, Hash: req.Hash},
		Href:      req.Href,
		Replace:   req.Replace,
	})
	switch {
	case errors.Is(err, pathway.ErrNoRoute):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.log.Warn("inspect: navigate", "href", req.Href, "to", req.To, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, NewStateView(s.router.State()))
}

func (s *Server) state(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, NewStateView(s.router.State()))
}

func (s *Server) invalidate(w http.ResponseWriter, r *http.Request) {
	var filter func(match.Record) bool
	if id := r.URL.Query().Get("route"); id != "" {
		filter = func(m match.Record) bool { return m.RouteID == id }
	}
	if err := s.router.Invalidate(r.Context(), filter); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, NewStateView(s.router.State()))
}

// StateView is the JSON form of a router state.
type StateView struct {
	Status           pathway.Status  `json:"status"`
	Location         router.Location `json:"location"`
	ResolvedLocation router.Location `json:"resolvedLocation"`
	Matches          []ssr.Match     `json:"matches"`
	StatusCode       int             `json:"statusCode"`
	Redirect         string          `json:"redirect,omitempty"`
	Generation       uint64          `json:"generation"`
	Revision         uint64          `json:"revision"`
}

// NewStateView converts st for encoding.
func NewStateView(st pathway.State) StateView {
	v := StateView{
		Status:           st.Status,
		Location:         st.Location,
		ResolvedLocation: st.ResolvedLocation,
		Matches:          make([]ssr.Match, len(st.Matches)),
		StatusCode:       st.StatusCode,
		Generation:       st.Generation,
		Revision:         st.Revision,
	}
	for i, m := range st.Matches {
		v.Matches[i] = ssr.FromRecord(m)
	}
	if st.Redirect != nil {
		v.Redirect = st.Redirect.Error()
	}
	v.Location.Search = search.Normalize(v.Location.Search)
	v.ResolvedLocation.Search = search.Normalize(v.ResolvedLocation.Search)
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
