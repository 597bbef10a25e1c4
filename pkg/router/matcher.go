package router

import (
	"strings"

	"github.com/vango-dev/pathway/pkg/routepath"
)

// MatchOptions configures MatchLocation.
type MatchOptions struct {
	NotFoundMode NotFoundMode
}

// MatchResult is the structural match of a pathname.
type MatchResult struct {
	// Nodes runs from the root to the deepest matched route.
	Nodes []*Node

	// Pathnames holds, per node, the part of the pathname matched so far.
	Pathnames []string

	// Params are the raw captured params. Deeper routes overwrite ancestors.
	Params map[string]string

	// NotFoundRouteID is set when the pathname did not fully match; it names
	// the route whose not-found boundary should render.
	NotFoundRouteID string
}

// Leaf returns the deepest matched node.
func (r MatchResult) Leaf() *Node {
	if len(r.Nodes) == 0 {
		return nil
	}
	return r.Nodes[len(r.Nodes)-1]
}

func (r MatchResult) clone() MatchResult {
	out := MatchResult{
		Nodes:           append([]*Node(nil), r.Nodes...),
		Pathnames:       append([]string(nil), r.Pathnames...),
		Params:          make(map[string]string, len(r.Params)),
		NotFoundRouteID: r.NotFoundRouteID,
	}
	for k, v := range r.Params {
		out.Params[k] = v
	}
	return out
}

// MatchLocation matches a canonical pathname against the tree. It is pure:
// the same tree and pathname always give the same result.
//
// Every way of consuming the pathname through the tree is explored; among
// the chains that consume it completely, the one ending at the most specific
// route wins. If none does, the location is not found and the result
// depends on the mode: NotFoundRoot yields only the root, NotFoundFuzzy
// yields the longest partial chain with its nearest route that can render
// children as the not-found route.
func (t *Tree) MatchLocation(pathname string, opts MatchOptions) MatchResult {
	mode := opts.NotFoundMode
	if mode == "" {
		mode = NotFoundFuzzy
	}

	key := string(mode) + "\x00" + pathname
	if t.memo != nil {
		if r, ok := t.memo.Get(key); ok {
			return r.clone()
		}
	}

	result := t.match(pathname, mode)
	if t.memo != nil {
		t.memo.Add(key, result.clone())
	}
	return result
}

type chain struct {
	nodes    []*Node
	consumed []int
	params   map[string]string
}

type matchState struct {
	segments []string
	best     *chain
	partial  *chain
}

func (s *matchState) offer(c *chain) {
	leaf := c.nodes[len(c.nodes)-1]
	if s.best == nil || leaf.rank < s.best.nodes[len(s.best.nodes)-1].rank {
		s.best = c
	}
}

func (s *matchState) offerPartial(c *chain) {
	if s.partial == nil {
		s.partial = c
		return
	}
	got, have := c.consumed[len(c.consumed)-1], s.partial.consumed[len(s.partial.consumed)-1]
	if got > have || (got == have && len(c.nodes) > len(s.partial.nodes)) {
		s.partial = c
	}
}

func (t *Tree) match(pathname string, mode NotFoundMode) MatchResult {
	st := &matchState{segments: routepath.Split(pathname)}
	start := &chain{
		nodes:    []*Node{t.root},
		consumed: []int{0},
		params:   map[string]string{},
	}
	st.partial = start
	t.descend(t.root, 0, start, st)

	if st.best != nil {
		return st.result(st.best, "")
	}

	if mode == NotFoundRoot || st.partial == start {
		return st.result(start, t.root.id)
	}
	c := st.partial
	notFound := t.root.id
	for i := len(c.nodes) - 1; i >= 0; i-- {
		n := c.nodes[i]
		if len(n.kids) > 0 || n.Def().HandlesNotFound {
			notFound = n.id
			break
		}
	}
	return st.result(c, notFound)
}

func (t *Tree) descend(n *Node, si int, c *chain, st *matchState) {
	rest := st.segments[si:]
	for _, child := range n.kids {
		for _, r := range child.pattern.Prefixes(rest) {
			next := si + r.Consumed
			params := make(map[string]string, len(c.params)+len(r.Params))
			for k, v := range c.params {
				params[k] = v
			}
			for k, v := range r.Params {
				params[k] = v
			}
			nc := &chain{
				nodes:    append(append([]*Node(nil), c.nodes...), child),
				consumed: append(append([]int(nil), c.consumed...), next),
				params:   params,
			}
			if next == len(st.segments) && child.IsTerminal() {
				st.offer(nc)
			}
			if r.Consumed > 0 || !child.pattern.Pathless() {
				st.offerPartial(nc)
			}
			t.descend(child, next, nc, st)
		}
	}
}

func (s *matchState) result(c *chain, notFound string) MatchResult {
	out := MatchResult{
		Nodes:           c.nodes,
		Pathnames:       make([]string, len(c.nodes)),
		Params:          c.params,
		NotFoundRouteID: notFound,
	}
	for i, n := range c.consumed {
		out.Pathnames[i] = "/" + strings.Join(s.segments[:n], "/")
	}
	return out
}
