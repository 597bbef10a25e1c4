package history

import (
	"context"
	"errors"
	"testing"
)

func TestParseHref(t *testing.T) {
	tests := []struct {
		href     string
		pathname string
		search   string
		hash     string
		full     string
	}{
		{"/posts", "/posts", "", "", "/posts"},
		{"/posts?page=2", "/posts", "?page=2", "", "/posts?page=2"},
		{"/posts#top", "/posts", "", "#top", "/posts#top"},
		{"/posts?page=2#top", "/posts", "?page=2", "#top", "/posts?page=2#top"},
		{"http://example.com/a/b?x=1", "/a/b", "?x=1", "", "/a/b?x=1"},
		{"", "/", "", "", "/"},
	}
	for _, tt := range tests {
		loc := ParseHref(tt.href, nil, "")
		if loc.Pathname != tt.pathname || loc.Search != tt.search || loc.Hash != tt.hash || loc.Href != tt.full {
			t.Errorf("ParseHref(%q) = {%q %q %q %q}, want {%q %q %q %q}",
				tt.href, loc.Pathname, loc.Search, loc.Hash, loc.Href,
				tt.pathname, tt.search, tt.hash, tt.full)
		}
		if loc.State.Key == "" {
			t.Errorf("ParseHref(%q) did not assign a key", tt.href)
		}
	}
}

func TestMemoryStack(t *testing.T) {
	ctx := context.Background()
	h := NewMemory(MemoryOptions{})

	if got := h.Location().Pathname; got != "/" {
		t.Fatalf("initial pathname = %q, want /", got)
	}
	if h.CanGoBack() {
		t.Error("CanGoBack() on a fresh history = true")
	}

	for _, href := range []string{"/a", "/b", "/c"} {
		if ok, err := h.Push(ctx, href, nil, NavigateOptions{}); !ok || err != nil {
			t.Fatalf("Push(%q) = %v, %v", href, ok, err)
		}
	}
	if h.Len() != 4 || h.Location().Pathname != "/c" {
		t.Fatalf("after pushes: len=%d at %q", h.Len(), h.Location().Pathname)
	}
	keyC := h.Location().State.Key

	h.Back(ctx, NavigateOptions{})
	h.Back(ctx, NavigateOptions{})
	if got := h.Location().Pathname; got != "/a" {
		t.Fatalf("after two Back = %q, want /a", got)
	}
	h.Forward(ctx, NavigateOptions{})
	h.Forward(ctx, NavigateOptions{})
	if got := h.Location().State.Key; got != keyC {
		t.Errorf("entry key changed across Back/Forward: %q != %q", got, keyC)
	}

	h.Go(ctx, -10, NavigateOptions{})
	if h.Index() != 0 {
		t.Errorf("Go(-10) index = %d, want 0", h.Index())
	}

	h.Go(ctx, 1, NavigateOptions{})
	h.Push(ctx, "/branch", nil, NavigateOptions{})
	if h.Len() != 3 {
		t.Errorf("push after Back must drop forward entries, len = %d", h.Len())
	}

	before := h.Location().State.Key
	h.Replace(ctx, "/replaced", map[string]any{"from": "test"}, NavigateOptions{})
	loc := h.Location()
	if loc.Pathname != "/replaced" || loc.State.Key == before || loc.State.Values["from"] != "test" {
		t.Errorf("Replace produced %+v", loc)
	}
	if h.Len() != 3 {
		t.Errorf("Replace changed len to %d", h.Len())
	}
}

func TestMemoryInitialIndex(t *testing.T) {
	h := NewMemory(MemoryOptions{InitialEntries: []string{"/a", "/b", "/c"}, InitialIndex: 1})
	if got := h.Location().Pathname; got != "/b" {
		t.Errorf("pathname = %q, want /b", got)
	}
	h = NewMemory(MemoryOptions{InitialEntries: []string{"/a", "/b"}, InitialIndex: 9})
	if got := h.Location().Pathname; got != "/b" {
		t.Errorf("clamped pathname = %q, want /b", got)
	}
}

func TestMemorySubscribe(t *testing.T) {
	ctx := context.Background()
	h := NewMemory(MemoryOptions{})

	var events []Event
	unsubscribe := h.Subscribe(func(e Event) { events = append(events, e) })

	h.Push(ctx, "/a", nil, NavigateOptions{})
	h.Go(ctx, -1, NavigateOptions{})
	unsubscribe()
	h.Push(ctx, "/b", nil, NavigateOptions{})

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Action != Push || events[0].Location.Pathname != "/a" {
		t.Errorf("first event = %+v", events[0])
	}
	if events[1].Action != Go || events[1].Delta != -1 || events[1].Location.Pathname != "/" {
		t.Errorf("second event = %+v", events[1])
	}
}

func TestMemoryBlockers(t *testing.T) {
	ctx := context.Background()
	var blockedArgs []BlockerArgs
	h := NewMemory(MemoryOptions{OnBlocked: func(a BlockerArgs) { blockedArgs = append(blockedArgs, a) }})

	unblock := h.Block(func(ctx context.Context, a BlockerArgs) bool {
		return a.Next.Pathname == "/forbidden"
	})

	ok, err := h.Push(ctx, "/forbidden", nil, NavigateOptions{})
	if ok || err != nil {
		t.Fatalf("blocked Push = %v, %v", ok, err)
	}
	if h.Location().Pathname != "/" {
		t.Errorf("blocked push moved to %q", h.Location().Pathname)
	}
	if len(blockedArgs) != 1 || blockedArgs[0].Action != Push || blockedArgs[0].Current.Pathname != "/" {
		t.Errorf("OnBlocked args = %+v", blockedArgs)
	}

	if ok, _ := h.Push(ctx, "/forbidden", nil, NavigateOptions{IgnoreBlocker: true}); !ok {
		t.Error("IgnoreBlocker push was blocked")
	}

	h.Push(ctx, "/next", nil, NavigateOptions{})
	if ok, _ := h.Back(ctx, NavigateOptions{}); ok {
		t.Error("Back onto a blocked location must be vetoed")
	}

	unblock()
	if ok, _ := h.Back(ctx, NavigateOptions{}); !ok {
		t.Error("Back after unblock was vetoed")
	}
}

func TestMemoryBlockerContext(t *testing.T) {
	h := NewMemory(MemoryOptions{})
	h.Block(func(ctx context.Context, a BlockerArgs) bool {
		<-ctx.Done()
		return false
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ok, err := h.Push(ctx, "/a", nil, NavigateOptions{})
	if ok || !errors.Is(err, context.Canceled) {
		t.Errorf("Push with a cancelled blocker = %v, %v", ok, err)
	}
	if h.Len() != 1 {
		t.Errorf("abandoned push changed the stack")
	}
}

func TestMemoryDestroy(t *testing.T) {
	h := NewMemory(MemoryOptions{})
	called := false
	h.Subscribe(func(Event) { called = true })
	h.Destroy()
	if ok, _ := h.Push(context.Background(), "/a", nil, NavigateOptions{}); ok {
		t.Error("Push after Destroy succeeded")
	}
	if called {
		t.Error("subscriber called after Destroy")
	}
}
