package search

// Step is one route in a matched chain, root first.
type Step struct {
	RouteID   string
	Validator Validator
}

// Resolved is the search state of one matched route.
type Resolved struct {
	RouteID string

	// Search is the raw query merged with the validated output of this
	// route and its ancestors. Descendant output never appears here.
	Search map[string]any

	// Strict holds only keys declared by validators from the root down to this route.
	Strict map[string]any

	Outcome Outcome

	// Err is a *ValidationError when this route's validator failed.
	Err error
}

// Resolve runs each step's validator in order. The input to a validator is
// the raw query merged with every ancestor's validated output. A failing
// route records its error and passes its parent's search through unchanged,
// so later routes still resolve.
func Resolve(steps []Step, raw map[string]any) []Resolved {
	acc := clone(raw)
	strict := map[string]any{}
	out := make([]Resolved, len(steps))

	for i, step := range steps {
		r := Resolved{RouteID: step.RouteID, Outcome: OK}

		if step.Validator != nil {
			res := call(step.Validator, clone(acc))
			r.Outcome = res.Outcome
			switch res.Outcome {
			case Failed:
				r.Err = &ValidationError{RouteID: step.RouteID, Err: res.Err}
			default:
				acc = Merge(acc, res.Value)
				strict = Merge(strict, res.Value)
			}
		}

		r.Search = clone(acc)
		r.Strict = clone(strict)
		out[i] = r
	}
	return out
}

// FirstError returns the error of the shallowest failing route, if any.
func FirstError(resolved []Resolved) (int, error) {
	for i, r := range resolved {
		if r.Err != nil {
			return i, r.Err
		}
	}
	return -1, nil
}
