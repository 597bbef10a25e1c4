package loader

import (
	"errors"
	"fmt"
)

// ErrLoader is matched by every *LoaderError.
var ErrLoader = errors.New("route hook failed")

// LoaderError is stored on a match whose beforeLoad, loader or lazy
// resolution failed.
type LoaderError struct {
	RouteID string
	MatchID string
	Phase   Phase
	Err     error
}

func (e *LoaderError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.RouteID, e.Phase, e.Err)
}

func (e *LoaderError) Unwrap() error { return e.Err }

// Is reports whether target is ErrLoader.
func (e *LoaderError) Is(target error) bool { return target == ErrLoader }

// PanicError is the error recorded when a hook panics.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
