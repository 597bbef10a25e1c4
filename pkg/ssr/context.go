package ssr

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"
)

// Context is the state of one server render. It replaces process-wide
// hydration globals: the server creates one per request and passes it down
// through context.Context.
type Context struct {
	RequestID string
	Request   *http.Request

	mu       sync.Mutex
	snapshot *Snapshot
	headers  http.Header
}

// NewContext creates a render context with a fresh request id.
func NewContext(r *http.Request) *Context {
	return &Context{
		RequestID: uuid.NewString(),
		Request:   r,
		headers:   make(http.Header),
	}
}

// SetSnapshot records the render's dehydrated state.
func (c *Context) SetSnapshot(s *Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = s
}

// Snapshot returns the recorded snapshot, or nil.
func (c *Context) Snapshot() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// Header adds a response header to send with the render.
func (c *Context) Header(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headers.Add(key, value)
}

// Headers returns a copy of the headers added so far.
func (c *Context) Headers() http.Header {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.headers.Clone()
}

type ctxKey struct{}

// WithContext attaches c to ctx.
func WithContext(ctx context.Context, c *Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext returns the render context attached to ctx.
func FromContext(ctx context.Context) (*Context, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Context)
	return c, ok
}
