package history

import (
	"context"
	"sort"
	"sync"
)

// MemoryOptions configures a memory history.
type MemoryOptions struct {
	// InitialEntries defaults to ["/"].
	InitialEntries []string

	// InitialIndex selects the current entry, clamped to the stack. Zero
	// means the last entry.
	InitialIndex int

	// Origin resolves relative hrefs. Empty means DefaultOrigin.
	Origin string

	// OnBlocked is called when a blocker vetoes a transition.
	OnBlocked func(BlockerArgs)
}

// Memory is an in-process History. It is what the router uses on servers,
// in tests and in tools.
type Memory struct {
	origin    string
	onBlocked func(BlockerArgs)

	mu       sync.Mutex
	entries  []string
	states   []State
	index    int
	blockers map[uint64]Blocker
	subs     map[uint64]func(Event)
	nextID   uint64
	closed   bool
}

var _ History = (*Memory)(nil)

// NewMemory creates a memory history.
func NewMemory(opts MemoryOptions) *Memory {
	entries := append([]string(nil), opts.InitialEntries...)
	if len(entries) == 0 {
		entries = []string{"/"}
	}
	index := len(entries) - 1
	if opts.InitialIndex != 0 {
		index = clamp(opts.InitialIndex, 0, len(entries)-1)
	}

	m := &Memory{
		origin:    opts.Origin,
		onBlocked: opts.OnBlocked,
		entries:   entries,
		states:    make([]State, len(entries)),
		index:     index,
		blockers:  make(map[uint64]Blocker),
		subs:      make(map[uint64]func(Event)),
	}
	for i := range m.states {
		m.states[i] = State{Key: NewKey(), Index: i}
	}
	return m
}

// Location returns the current entry.
func (m *Memory) Location() Location {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locationLocked(m.index)
}

// Len returns the number of entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Index returns the current position in the stack.
func (m *Memory) Index() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index
}

// Subscribe registers fn for every completed transition.
func (m *Memory) Subscribe(fn func(Event)) func() {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.subs[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
		})
	}
}

// Block registers b for every later transition.
func (m *Memory) Block(b Blocker) func() {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.blockers[id] = b
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.blockers, id)
			m.mu.Unlock()
		})
	}
}

// Push adds href after the current entry, dropping any forward entries.
func (m *Memory) Push(ctx context.Context, href string, state map[string]any, opts NavigateOptions) (bool, error) {
	m.mu.Lock()
	next := State{Key: NewKey(), Index: m.index + 1, Values: cloneValues(state)}
	m.mu.Unlock()

	return m.transition(ctx, Push, 0, opts, ParseHref(href, &next, m.origin), func() {
		if m.index < len(m.entries)-1 {
			m.entries = m.entries[:m.index+1]
			m.states = m.states[:m.index+1]
		}
		next.Index = len(m.entries)
		m.entries = append(m.entries, href)
		m.states = append(m.states, next)
		m.index = len(m.entries) - 1
	})
}

// Replace swaps the current entry for href under a fresh key.
func (m *Memory) Replace(ctx context.Context, href string, state map[string]any, opts NavigateOptions) (bool, error) {
	m.mu.Lock()
	next := State{Key: NewKey(), Index: m.index, Values: cloneValues(state)}
	m.mu.Unlock()

	return m.transition(ctx, Replace, 0, opts, ParseHref(href, &next, m.origin), func() {
		next.Index = m.index
		m.entries[m.index] = href
		m.states[m.index] = next
	})
}

// Go moves delta entries, clamped to the stack.
func (m *Memory) Go(ctx context.Context, delta int, opts NavigateOptions) (bool, error) {
	return m.move(ctx, Go, delta, opts)
}

// Back moves one entry back.
func (m *Memory) Back(ctx context.Context, opts NavigateOptions) (bool, error) {
	return m.move(ctx, Back, -1, opts)
}

// Forward moves one entry forward.
func (m *Memory) Forward(ctx context.Context, opts NavigateOptions) (bool, error) {
	return m.move(ctx, Forward, 1, opts)
}

// CanGoBack reports whether the current entry is not the first one.
func (m *Memory) CanGoBack() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[m.index].Index != 0
}

// CreateHref returns href unchanged.
func (m *Memory) CreateHref(href string) string { return href }

// Destroy drops every subscriber and blocker.
func (m *Memory) Destroy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = make(map[uint64]func(Event))
	m.blockers = make(map[uint64]Blocker)
	m.closed = true
}

func (m *Memory) move(ctx context.Context, action Action, delta int, opts NavigateOptions) (bool, error) {
	m.mu.Lock()
	target := clamp(m.index+delta, 0, len(m.entries)-1)
	next := m.locationLocked(target)
	m.mu.Unlock()

	eventDelta := 0
	if action == Go {
		eventDelta = delta
	}
	return m.transition(ctx, action, eventDelta, opts, next, func() {
		m.index = clamp(m.index+delta, 0, len(m.entries)-1)
	})
}

// transition asks the blockers about next, then applies task and notifies.
func (m *Memory) transition(ctx context.Context, action Action, delta int, opts NavigateOptions, next Location, task func()) (bool, error) {
	if !opts.IgnoreBlocker {
		m.mu.Lock()
		current := m.locationLocked(m.index)
		blockers := make([]Blocker, 0, len(m.blockers))
		for _, id := range sortedIDs(m.blockers) {
			blockers = append(blockers, m.blockers[id])
		}
		m.mu.Unlock()

		args := BlockerArgs{Current: current, Next: next, Action: action}
		for _, b := range blockers {
			blocked := b(ctx, args)
			if err := ctx.Err(); err != nil {
				return false, err
			}
			if blocked {
				if m.onBlocked != nil {
					m.onBlocked(args)
				}
				return false, nil
			}
		}
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false, nil
	}
	task()
	ev := Event{Location: m.locationLocked(m.index), Action: action, Delta: delta}
	subs := make([]func(Event), 0, len(m.subs))
	for _, id := range sortedIDs(m.subs) {
		subs = append(subs, m.subs[id])
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
	return true, nil
}

func (m *Memory) locationLocked(i int) Location {
	st := m.states[i]
	return ParseHref(m.entries[i], &st, m.origin)
}

func sortedIDs[T any](m map[uint64]T) []uint64 {
	ids := make([]uint64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
