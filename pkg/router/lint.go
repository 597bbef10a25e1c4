package router

import (
	"fmt"

	"github.com/vango-dev/pathway/pkg/routepath"
)

// Warning is a non-fatal defect in a route tree.
type Warning struct {
	Code    string `json:"code"`
	RouteID string `json:"routeId"`
	OtherID string `json:"otherId,omitempty"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}

// Lint reports routes whose full patterns are equally specific. Matching
// still resolves them, preferring the route declared last.
func (t *Tree) Lint() []Warning {
	var out []Warning
	for i := 0; i < len(t.ranked); i++ {
		for j := i + 1; j < len(t.ranked); j++ {
			a, b := t.ranked[i], t.ranked[j]
			if routepath.Compare(a.full, b.full) != 0 {
				break
			}
			out = append(out, Warning{
				Code:    "E206",
				RouteID: a.id,
				OtherID: b.id,
				Message: fmt.Sprintf("routes %q and %q match the same locations (%s); %q wins",
					a.id, b.id, a.FullPath(), a.id),
			})
		}
	}
	return out
}
