package ssr

import (
	"encoding/json"
	"time"

	"github.com/vango-dev/pathway/pkg/match"
)

// Snapshot is the serializable router state handed from a server render to
// client hydration.
type Snapshot struct {
	// ID identifies the render that produced the snapshot.
	ID string `json:"id"`

	Href       string `json:"href"`
	StatusCode int    `json:"statusCode"`

	// Redirect is the target href when the render ended in a redirect.
	Redirect string `json:"redirect,omitempty"`

	Matches []Match `json:"matches"`

	// Manifest maps every route id to its full path.
	Manifest map[string]string `json:"manifest,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// Match is the dehydrated form of a match record.
type Match struct {
	ID         string            `json:"id"`
	RouteID    string            `json:"routeId"`
	Status     match.Status      `json:"status"`
	LoaderData any               `json:"loaderData,omitempty"`
	Params     map[string]string `json:"params,omitempty"`
	Search     map[string]any    `json:"search,omitempty"`
	Context    map[string]any    `json:"context,omitempty"`
	Error      string            `json:"error,omitempty"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// Leaf returns the deepest match, if any.
func (s *Snapshot) Leaf() (Match, bool) {
	if s == nil || len(s.Matches) == 0 {
		return Match{}, false
	}
	return s.Matches[len(s.Matches)-1], true
}

// FromRecord dehydrates a record. Context values are only kept when they
// are plain data the JSON encoder can carry.
func FromRecord(r match.Record) Match {
	m := Match{
		ID:         r.ID,
		RouteID:    r.RouteID,
		Status:     r.Status,
		LoaderData: r.LoaderData,
		Params:     r.Params,
		Search:     r.Search,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.Error != nil {
		m.Error = r.Error.Error()
	}
	if len(r.Context) > 0 {
		if _, err := json.Marshal(r.Context); err == nil {
			m.Context = r.Context
		}
	}
	return m
}

// Record rehydrates m. The result is marked Dehydrated so its first client
// load is skipped.
func (m Match) Record(now time.Time) *match.Record {
	updated := m.UpdatedAt
	if updated.IsZero() {
		updated = now
	}
	return &match.Record{
		ID:         m.ID,
		RouteID:    m.RouteID,
		Status:     m.Status,
		LoaderData: m.LoaderData,
		Params:     m.Params,
		Search:     m.Search,
		Context:    m.Context,
		UpdatedAt:  updated,
		Dehydrated: true,
	}
}
