package history

import (
	"context"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// DefaultOrigin resolves relative hrefs when no origin is configured.
const DefaultOrigin = "http://localhost"

// Action is the kind of history transition.
type Action string

const (
	Push    Action = "PUSH"
	Replace Action = "REPLACE"
	Back    Action = "BACK"
	Forward Action = "FORWARD"
	Go      Action = "GO"
)

// State is the state attached to a history entry.
type State struct {
	// Key identifies the entry. It survives Back and Forward, which is what
	// scroll restoration keys on.
	Key string

	// Index is the entry's position in the stack.
	Index int

	// Values is the caller-supplied state.
	Values map[string]any
}

// Location is a parsed history entry.
type Location struct {
	Href     string // path + search + hash
	URL      string // absolute URL
	Pathname string
	Search   string // including the leading "?", or empty
	Hash     string // including the leading "#", or empty
	State    State
}

// Event is delivered to subscribers after the location changed.
type Event struct {
	Location Location
	Action   Action

	// Delta is the argument of Go; zero otherwise.
	Delta int
}

// BlockerArgs describes a pending transition.
type BlockerArgs struct {
	Current Location
	Next    Location
	Action  Action
}

// Blocker decides whether a transition may proceed. Returning true blocks
// it. A blocker may wait, for example on a confirmation prompt; it should
// return when ctx is done.
type Blocker func(ctx context.Context, args BlockerArgs) bool

// NavigateOptions modifies a single transition.
type NavigateOptions struct {
	IgnoreBlocker bool
}

// History is a stack of locations with blocking and subscribers.
//
// Transition methods report whether the transition happened. They return
// false with a nil error when a blocker vetoed it, and ctx's error when ctx
// ended while a blocker was deciding.
type History interface {
	Location() Location
	Len() int
	Subscribe(fn func(Event)) (unsubscribe func())

	Push(ctx context.Context, href string, state map[string]any, opts NavigateOptions) (bool, error)
	Replace(ctx context.Context, href string, state map[string]any, opts NavigateOptions) (bool, error)
	Go(ctx context.Context, delta int, opts NavigateOptions) (bool, error)
	Back(ctx context.Context, opts NavigateOptions) (bool, error)
	Forward(ctx context.Context, opts NavigateOptions) (bool, error)
	CanGoBack() bool

	CreateHref(href string) string
	Block(b Blocker) (unblock func())
	Destroy()
}

// NewKey returns a fresh entry key.
func NewKey() string {
	return uuid.NewString()
}

// ParseHref splits href into a Location. Relative hrefs resolve against
// origin, or DefaultOrigin when origin is empty. A nil state gets index 0
// and a fresh key.
func ParseHref(href string, state *State, origin string) Location {
	if origin == "" {
		origin = DefaultOrigin
	}
	abs := href
	if u, err := url.Parse(href); err != nil || !u.IsAbs() {
		base, berr := url.Parse(origin)
		if berr == nil {
			if ref, rerr := url.Parse(href); rerr == nil {
				abs = base.ResolveReference(ref).String()
			}
		}
	}

	full := stripOrigin(abs)
	if !strings.HasPrefix(full, "/") {
		full = "/" + full
	}
	loc := Location{Href: full, URL: abs}

	path := full
	if i := strings.IndexByte(path, '#'); i >= 0 {
		loc.Hash = path[i:]
		path = path[:i]
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		loc.Search = path[i:]
		path = path[:i]
	}
	loc.Pathname = path

	if state != nil {
		loc.State = *state
		loc.State.Values = cloneValues(state.Values)
	} else {
		loc.State = State{Key: NewKey()}
	}
	return loc
}

func stripOrigin(abs string) string {
	u, err := url.Parse(abs)
	if err != nil || !u.IsAbs() {
		return abs
	}
	origin := u.Scheme + "://" + u.Host
	return strings.TrimPrefix(abs, origin)
}

func cloneValues(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
