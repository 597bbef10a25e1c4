package scroll

import (
	"testing"

	"github.com/vango-dev/pathway/pkg/history"
)

type fakeTarget struct {
	current map[string]Position
	moves   map[string]Position
}

func newTarget() *fakeTarget {
	return &fakeTarget{current: map[string]Position{}, moves: map[string]Position{}}
}

func (f *fakeTarget) Positions() map[string]Position { return f.current }

func (f *fakeTarget) ScrollTo(sel string, p Position) {
	f.current[sel] = p
	f.moves[sel] = p
}

func loc(key, href string) history.Location {
	return history.Location{Href: href, Pathname: href, State: history.State{Key: key}}
}

func TestSaveRestore(t *testing.T) {
	m := New()
	target := newTarget()
	a := loc("k1", "/a")
	b := loc("k2", "/b")

	m.Save(a, map[string]Position{Window: {Y: 400}, "#list": {Y: 80}})
	if !m.Restore(a, target) {
		t.Fatal("Restore(a) found nothing")
	}
	if target.moves[Window].Y != 400 || target.moves["#list"].Y != 80 {
		t.Errorf("restored %+v", target.moves)
	}

	target = newTarget()
	target.current[Window] = Position{Y: 999}
	if m.Restore(b, target) {
		t.Error("Restore(b) reported a hit")
	}
	if got := target.current[Window]; got != (Position{}) {
		t.Errorf("unknown entry must reset to top, got %+v", got)
	}
}

func TestSkipNextReset(t *testing.T) {
	m := New()
	target := newTarget()
	target.current[Window] = Position{Y: 50}

	m.SkipNextReset()
	m.Restore(loc("k", "/x"), target)
	if got := target.current[Window]; got.Y != 50 {
		t.Errorf("skipped reset moved window to %+v", got)
	}

	m.Restore(loc("k", "/x"), target)
	if got := target.current[Window]; got.Y != 0 {
		t.Errorf("second restore should reset, got %+v", got)
	}
}

func TestKeyFallsBackToHref(t *testing.T) {
	m := New()
	m.Save(loc("", "/plain"), map[string]Position{Window: {Y: 10}})
	if _, ok := m.Saved(loc("", "/plain")); !ok {
		t.Error("href key not used")
	}
}

func TestCapacity(t *testing.T) {
	m := New(WithCapacity(2))
	for _, k := range []string{"a", "b", "c"} {
		m.Save(loc(k, "/"+k), map[string]Position{Window: {Y: 1}})
	}
	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}
	if _, ok := m.Saved(loc("a", "/a")); ok {
		t.Error("oldest entry should be evicted")
	}
	m.Clear()
	if m.Len() != 0 {
		t.Error("Clear left entries")
	}
}
