package router

import (
	"errors"
	"fmt"
)

// Tree build and lookup errors. Build and Node return coded errors that wrap
// these, so errors.Is works on either.
var (
	ErrDuplicateRouteID = errors.New("duplicate route id")
	ErrRouteNotFound    = errors.New("route not found")
	ErrParentNotFound   = errors.New("parent route not found")
	ErrInvalidRoot      = errors.New("invalid root route")
	ErrLazyRoute        = errors.New("lazy route failed")
)

// RedirectError is returned from BeforeLoad or Loader to redirect the
// navigation. It is a control-flow signal, never shown as an error.
type RedirectError struct {
	// Href is a full target location. When set it wins over To.
	Href string

	// To is a route id or full path; Params fill its dynamic segments.
	To     string
	Params map[string]string
	Search map[string]any
	Hash   string

	Replace    bool
	StatusCode int
}

// Redirect creates a redirect to href.
func Redirect(href string) *RedirectError {
	return &RedirectError{Href: href, StatusCode: 307}
}

// RedirectTo creates a redirect to a route id or path with params.
func RedirectTo(to string, params map[string]string) *RedirectError {
	return &RedirectError{To: to, Params: params, StatusCode: 307}
}

// WithSearch sets the target search.
func (r *RedirectError) WithSearch(search map[string]any) *RedirectError {
	r.Search = search
	return r
}

// WithHash sets the target hash.
func (r *RedirectError) WithHash(hash string) *RedirectError {
	r.Hash = hash
	return r
}

// WithReplace makes the redirect replace the current history entry.
func (r *RedirectError) WithReplace() *RedirectError {
	r.Replace = true
	return r
}

// WithStatus sets the HTTP status used during server rendering.
func (r *RedirectError) WithStatus(code int) *RedirectError {
	r.StatusCode = code
	return r
}

// Error implements error.
func (r *RedirectError) Error() string {
	if r.Href != "" {
		return "redirect to " + r.Href
	}
	return "redirect to " + r.To
}

// IsRedirect reports whether err carries a redirect and returns it.
func IsRedirect(err error) (*RedirectError, bool) {
	var r *RedirectError
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// NotFoundError is returned from BeforeLoad or Loader to render the nearest
// not-found boundary instead of the route.
type NotFoundError struct {
	// RouteID optionally names the route whose boundary should render.
	RouteID string
	Data    any
}

// NotFound creates a not-found signal.
func NotFound() *NotFoundError {
	return &NotFoundError{}
}

// ForRoute targets the not-found boundary of a specific route.
func (n *NotFoundError) ForRoute(id string) *NotFoundError {
	n.RouteID = id
	return n
}

// WithData attaches data for the boundary to render.
func (n *NotFoundError) WithData(data any) *NotFoundError {
	n.Data = data
	return n
}

// Error implements error.
func (n *NotFoundError) Error() string {
	if n.RouteID != "" {
		return fmt.Sprintf("not found (route %s)", n.RouteID)
	}
	return "not found"
}

// IsNotFound reports whether err carries a not-found signal and returns it.
func IsNotFound(err error) (*NotFoundError, bool) {
	var n *NotFoundError
	if errors.As(err, &n) {
		return n, true
	}
	return nil, false
}
