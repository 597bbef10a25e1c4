package pathway

import (
	"sort"
	"sync"

	"github.com/vango-dev/pathway/pkg/history"
	"github.com/vango-dev/pathway/pkg/router"
)

// EventType names a router event.
type EventType string

const (
	// EventBeforeNavigate fires when Navigate is called, before blockers run.
	EventBeforeNavigate EventType = "beforeNavigate"
	// EventBeforeLoad fires when a navigation generation starts loading.
	EventBeforeLoad EventType = "beforeLoad"
	// EventLoad fires after a generation committed.
	EventLoad EventType = "load"
	// EventResolved fires after lifecycle hooks and scroll restoration ran.
	EventResolved EventType = "resolved"
	// EventSuperseded fires when a newer generation made a load obsolete.
	EventSuperseded EventType = "superseded"
	// EventBlocked fires when a blocker vetoed a navigation.
	EventBlocked EventType = "blocked"
	// EventRedirected fires when a load ended in a redirect.
	EventRedirected EventType = "redirected"
)

// Event describes a navigation step.
type Event struct {
	Type EventType

	From router.Location
	To   router.Location

	PathChanged bool
	HrefChanged bool

	Generation uint64

	// Action is the history transition that caused the event, when known.
	Action history.Action

	Redirect *router.RedirectError
}

type emitter struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[EventType]map[uint64]func(Event)
}

func (e *emitter) on(t EventType, fn func(Event)) func() {
	e.mu.Lock()
	if e.subs == nil {
		e.subs = make(map[EventType]map[uint64]func(Event))
	}
	if e.subs[t] == nil {
		e.subs[t] = make(map[uint64]func(Event))
	}
	e.nextID++
	id := e.nextID
	e.subs[t][id] = fn
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.subs[t], id)
			e.mu.Unlock()
		})
	}
}

func (e *emitter) emit(ev Event) {
	e.mu.Lock()
	subs := e.subs[ev.Type]
	ids := make([]uint64, 0, len(subs))
	for id := range subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fns := make([]func(Event), len(ids))
	for i, id := range ids {
		fns[i] = subs[id]
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
