package pathway

import "errors"

var (
	// ErrClosed is returned by a router after Close.
	ErrClosed = errors.New("pathway: router closed")

	// ErrTooManyRedirects is returned when redirects chain past MaxRedirects.
	ErrTooManyRedirects = errors.New("pathway: too many redirects")

	// ErrNoRoute is returned by BuildLocation when To names no route and is
	// not a valid path.
	ErrNoRoute = errors.New("pathway: no route for target")
)
