package search

import (
	"errors"
	"fmt"
)

// Outcome tags the result of a validator call.
type Outcome uint8

const (
	// OK means the input validated.
	OK Outcome = iota
	// Fallback means the input was rejected and a declared fallback was substituted.
	Fallback
	// Failed means the input was rejected with no fallback.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return "ok"
	case Fallback:
		return "fallback"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Result is what a Validator returns. Value holds only the keys the
// validator declares.
type Result struct {
	Value   map[string]any
	Outcome Outcome
	Err     error
}

// Validator checks and transforms the search input for one route.
type Validator interface {
	Validate(input map[string]any) Result
}

// ValidatorFunc adapts a plain function to Validator. A returned error
// yields Failed.
type ValidatorFunc func(input map[string]any) (map[string]any, error)

// Validate implements Validator.
func (f ValidatorFunc) Validate(input map[string]any) Result {
	out, err := f(input)
	if err != nil {
		return Result{Outcome: Failed, Err: err}
	}
	return Result{Value: out, Outcome: OK}
}

type fallbackValidator struct {
	inner    Validator
	fallback func(input map[string]any, err error) map[string]any
}

func (v fallbackValidator) Validate(input map[string]any) Result {
	res := call(v.inner, input)
	if res.Outcome != Failed {
		return res
	}
	return Result{Value: v.fallback(input, res.Err), Outcome: Fallback, Err: res.Err}
}

// WithFallback substitutes value whenever v fails.
func WithFallback(v Validator, value map[string]any) Validator {
	return fallbackValidator{inner: v, fallback: func(map[string]any, error) map[string]any {
		return clone(value)
	}}
}

// Catch substitutes the result of fn whenever v fails.
func Catch(v Validator, fn func(input map[string]any, err error) map[string]any) Validator {
	return fallbackValidator{inner: v, fallback: fn}
}

// call runs a validator, turning a panic into a Failed result.
func call(v Validator, input map[string]any) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("%v", r)
			}
			res = Result{Outcome: Failed, Err: err}
		}
	}()
	res = v.Validate(input)
	if res.Outcome == Failed && res.Err == nil {
		res.Err = errors.New("search rejected")
	}
	return res
}

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("search validation failed")

// ValidationError reports which route rejected the search.
type ValidationError struct {
	RouteID string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("search validation failed for route %q: %v", e.RouteID, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrValidation) true.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func clone(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Merge returns a new map with over's keys written on top of base.
func Merge(base, over map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}
