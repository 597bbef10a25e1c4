package pathway

import (
	"net/http"

	"github.com/vango-dev/pathway/pkg/loader"
	"github.com/vango-dev/pathway/pkg/match"
	"github.com/vango-dev/pathway/pkg/router"
)

// Status is the router's loading state.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
)

// State is the observable router state. Matches only ever holds the records
// of one committed navigation.
type State struct {
	Status Status

	// Location is the location being loaded, or the committed one when idle.
	Location router.Location

	// ResolvedLocation is the location Matches belong to.
	ResolvedLocation router.Location

	// Matches are the committed records, root first.
	Matches []match.Record

	// PendingMatches are the records of the navigation in progress.
	PendingMatches []match.Record

	// StatusCode is the HTTP status the committed matches map to.
	StatusCode int

	// Redirect is set when the committed navigation ended in a redirect
	// that was not followed.
	Redirect *router.RedirectError

	// Generation is the navigation the state belongs to.
	Generation uint64

	// Revision increases with every published change.
	Revision uint64
}

// IsLoading reports whether a navigation is in progress.
func (s State) IsLoading() bool { return s.Status == StatusPending }

// Leaf returns the deepest committed match.
func (s State) Leaf() (match.Record, bool) {
	if len(s.Matches) == 0 {
		return match.Record{}, false
	}
	return s.Matches[len(s.Matches)-1], true
}

// Match returns the committed match for routeID.
func (s State) Match(routeID string) (match.Record, bool) {
	for _, m := range s.Matches {
		if m.RouteID == routeID {
			return m, true
		}
	}
	return match.Record{}, false
}

// ids returns the set of committed match ids.
func (s State) ids() map[string]bool {
	out := make(map[string]bool, len(s.Matches))
	for _, m := range s.Matches {
		out[m.ID] = true
	}
	return out
}

// statusCode maps a finished load to an HTTP status.
func statusCode(res router.MatchResult, result loader.Result) int {
	switch {
	case result.Redirect != nil:
		if result.Redirect.StatusCode != 0 {
			return result.Redirect.StatusCode
		}
		return http.StatusTemporaryRedirect
	case result.NotFound != nil, res.NotFoundRouteID != "":
		return http.StatusNotFound
	case result.Err != nil:
		return http.StatusInternalServerError
	}
	return http.StatusOK
}
