package loader

import "context"

// Phase names the hook an interceptor wraps.
type Phase string

const (
	PhaseLazy       Phase = "lazy"
	PhaseBeforeLoad Phase = "beforeLoad"
	PhaseLoader     Phase = "loader"
)

// Call describes one hook invocation.
type Call struct {
	RouteID string
	MatchID string
	Phase   Phase
	Preload bool

	// Background is set for stale-while-revalidate loads.
	Background bool
}

// Interceptor wraps every hook invocation. It must call next to run the
// hook, and may inspect or replace the returned error.
type Interceptor func(ctx context.Context, call Call, next func(ctx context.Context) error) error

// chain builds fn wrapped by interceptors, the first one outermost.
func chain(interceptors []Interceptor, call Call, fn func(ctx context.Context) error) func(ctx context.Context) error {
	next := fn
	for i := len(interceptors) - 1; i >= 0; i-- {
		ic, inner := interceptors[i], next
		next = func(ctx context.Context) error {
			return ic(ctx, call, inner)
		}
	}
	return next
}
