package store

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Listener is called with the new value after every Set.
type Listener[T any] func(next, prev T)

// Store is a publish/subscribe container for a single value.
//
// Set applies its updater under the store lock, so concurrent updaters
// never observe a torn value. Listeners run after the lock is released,
// in subscription order, on the goroutine that called Set. A listener must
// not call Set on the same store synchronously.
type Store[T any] struct {
	mu        sync.RWMutex
	state     T
	version   uint64
	listeners map[uint64]Listener[T]

	// notifyMu serialises listener delivery so listeners see versions in order.
	notifyMu sync.Mutex
}

var listenerID uint64

func nextListenerID() uint64 {
	return atomic.AddUint64(&listenerID, 1)
}

// New creates a store holding initial.
func New[T any](initial T) *Store[T] {
	return &Store[T]{
		state:     initial,
		listeners: make(map[uint64]Listener[T]),
	}
}

// Get returns the current value.
func (s *Store[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Version returns the number of updates applied so far.
func (s *Store[T]) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Set replaces the value with updater(current) and notifies listeners.
func (s *Store[T]) Set(updater func(T) T) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	prev := s.state
	next := updater(prev)
	s.state = next
	s.version++
	listeners := s.snapshotLocked()
	s.mu.Unlock()

	for _, l := range listeners {
		l(next, prev)
	}
}

// Replace sets the value directly.
func (s *Store[T]) Replace(v T) {
	s.Set(func(T) T { return v })
}

// Subscribe registers fn and returns a function that removes it.
// The unsubscribe function is safe to call more than once.
func (s *Store[T]) Subscribe(fn Listener[T]) (unsubscribe func()) {
	id := nextListenerID()

	s.mu.Lock()
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Len returns the number of active listeners.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.listeners)
}

func (s *Store[T]) snapshotLocked() []Listener[T] {
	ids := make([]uint64, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]Listener[T], len(ids))
	for i, id := range ids {
		out[i] = s.listeners[id]
	}
	return out
}
