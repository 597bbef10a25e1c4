package errors

import (
	"errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryRoute      Category = "route"
	CategoryMatch      Category = "match"
	CategoryValidation Category = "validation"
	CategoryLoader     Category = "loader"
	CategoryConfig     Category = "config"
	CategoryManifest   Category = "manifest"
	CategoryCLI        Category = "cli"
)

// Location identifies where in a route definition or manifest the error occurred.
type Location struct {
	// Source is the manifest file or definition origin (may be empty).
	Source string

	// RouteID is the route the error refers to.
	RouteID string

	// Path is the route path pattern, if known.
	Path string
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	s := l.RouteID
	if l.Path != "" && l.Path != l.RouteID {
		s += " (" + l.Path + ")"
	}
	if l.Source != "" {
		if s == "" {
			return l.Source
		}
		return l.Source + ": " + s
	}
	return s
}

// PathwayError is a structured error with a code, route location and a fix hint.
type PathwayError struct {
	// Code is a unique error identifier (e.g., "E201").
	Code string

	// Category is the error type (route, loader, config, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Location is the route the error refers to.
	Location *Location

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *PathwayError) Error() string {
	msg := e.Message
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *PathwayError) Unwrap() error {
	return e.Wrapped
}

// WithRoute attaches the offending route to the error.
func (e *PathwayError) WithRoute(id, path string) *PathwayError {
	if e.Location == nil {
		e.Location = &Location{}
	}
	e.Location.RouteID = id
	e.Location.Path = path
	return e
}

// WithSource records the manifest or file the error came from.
func (e *PathwayError) WithSource(source string) *PathwayError {
	if e.Location == nil {
		e.Location = &Location{}
	}
	e.Location.Source = source
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *PathwayError) WithSuggestion(s string) *PathwayError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *PathwayError) WithDetail(d string) *PathwayError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *PathwayError) Wrap(err error) *PathwayError {
	e.Wrapped = err
	return e
}

// New creates a PathwayError from a registered error code.
func New(code string) *PathwayError {
	template, ok := registry[code]
	if !ok {
		return &PathwayError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &PathwayError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
	}
}

// Newf creates a new PathwayError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *PathwayError {
	return &PathwayError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a PathwayError.
func FromError(err error, code string) *PathwayError {
	if err == nil {
		return nil
	}
	var pe *PathwayError
	if errors.As(err, &pe) {
		return pe
	}
	return New(code).Wrap(err)
}

// Code returns the code of the first PathwayError in err's chain, or "".
func Code(err error) string {
	var pe *PathwayError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}
