// Package scroll remembers scroll positions per history entry.
//
// Positions are saved for the location being left and restored when an
// entry with the same key is shown again. A location without saved window
// position resets to the top.
package scroll

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vango-dev/pathway/pkg/history"
)

// Window is the selector of the document scroll position.
const Window = "window"

// DefaultCapacity is the number of history entries kept by default.
const DefaultCapacity = 256

// Position is a scroll offset.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Target is a scrollable surface.
type Target interface {
	// Positions returns the current offset of every tracked element, keyed
	// by selector. The document uses Window.
	Positions() map[string]Position

	// ScrollTo moves the element named by selector.
	ScrollTo(selector string, p Position)
}

// KeyFunc names the cache slot of a location.
type KeyFunc func(history.Location) string

// DefaultKey uses the entry key, falling back to the href for locations
// that have none.
func DefaultKey(loc history.Location) string {
	if loc.State.Key != "" {
		return loc.State.Key
	}
	return loc.Href
}

// Option configures a Manager.
type Option func(*Manager)

// WithKey sets the function that names cache slots.
func WithKey(fn KeyFunc) Option {
	return func(m *Manager) { m.key = fn }
}

// WithCapacity bounds the number of remembered entries.
func WithCapacity(n int) Option {
	return func(m *Manager) { m.capacity = n }
}

// Manager saves and restores scroll positions.
type Manager struct {
	key      KeyFunc
	capacity int
	cache    *lru.Cache[string, map[string]Position]

	mu        sync.Mutex
	skipReset bool
}

// New creates a manager.
func New(opts ...Option) *Manager {
	m := &Manager{key: DefaultKey, capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(m)
	}
	if m.capacity <= 0 {
		m.capacity = DefaultCapacity
	}
	m.cache, _ = lru.New[string, map[string]Position](m.capacity)
	return m
}

// Save records positions for the location being left.
func (m *Manager) Save(from history.Location, positions map[string]Position) {
	if len(positions) == 0 {
		return
	}
	cp := make(map[string]Position, len(positions))
	for k, v := range positions {
		cp[k] = v
	}
	m.cache.Add(m.key(from), cp)
}

// Saved returns the positions stored for loc.
func (m *Manager) Saved(loc history.Location) (map[string]Position, bool) {
	p, ok := m.cache.Get(m.key(loc))
	if !ok {
		return nil, false
	}
	cp := make(map[string]Position, len(p))
	for k, v := range p {
		cp[k] = v
	}
	return cp, true
}

// SkipNextReset keeps the current scroll position on the next Restore.
func (m *Manager) SkipNextReset() {
	m.mu.Lock()
	m.skipReset = true
	m.mu.Unlock()
}

// Restore applies the positions saved for to onto t. Without a saved window
// position the window scrolls to the top, unless SkipNextReset was called.
// It reports whether anything was restored.
func (m *Manager) Restore(to history.Location, t Target) bool {
	m.mu.Lock()
	skip := m.skipReset
	m.skipReset = false
	m.mu.Unlock()
	if skip {
		return false
	}

	saved, ok := m.Saved(to)
	for sel, p := range saved {
		t.ScrollTo(sel, p)
	}
	if _, hasWindow := saved[Window]; !hasWindow {
		t.ScrollTo(Window, Position{})
	}
	return ok
}

// Len returns the number of remembered entries.
func (m *Manager) Len() int { return m.cache.Len() }

// Clear forgets every saved position.
func (m *Manager) Clear() { m.cache.Purge() }
