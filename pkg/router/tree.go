package router

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/multierr"
	"golang.org/x/sync/singleflight"

	perrors "github.com/vango-dev/pathway/internal/errors"
	"github.com/vango-dev/pathway/pkg/routepath"
)

// DefaultMatchCacheSize is the number of pathnames whose match results are memoised.
const DefaultMatchCacheSize = 512

// Node is a route in a built tree.
type Node struct {
	id      string
	pattern *routepath.Pattern
	full    *routepath.Pattern
	parent  *Node
	kids    []*Node

	// index is the declaration order; rank the specificity order among
	// terminal nodes, -1 otherwise.
	index int
	depth int
	rank  int

	def atomic.Pointer[RouteDef]
}

// ID returns the route id.
func (n *Node) ID() string { return n.id }

// Path returns the route's own path pattern.
func (n *Node) Path() string { return n.pattern.String() }

// FullPath returns the pattern from the root to this route.
func (n *Node) FullPath() string {
	if n.parent == nil {
		return "/"
	}
	return n.full.String()
}

// Pattern returns the compiled own pattern.
func (n *Node) Pattern() *routepath.Pattern { return n.pattern }

// FullPattern returns the compiled pattern from the root.
func (n *Node) FullPattern() *routepath.Pattern { return n.full }

// Parent returns the parent node, nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the child nodes, most specific first.
func (n *Node) Children() []*Node { return append([]*Node(nil), n.kids...) }

// Depth is 0 for the root.
func (n *Node) Depth() int { return n.depth }

// IsRoot reports whether n is the tree root.
func (n *Node) IsRoot() bool { return n.parent == nil }

// Rank is the position of n in the specificity order, or -1 if n can never
// be the last match of a location.
func (n *Node) Rank() int { return n.rank }

// IsTerminal reports whether a location may end at this route.
func (n *Node) IsTerminal() bool { return n.parent != nil && !n.pattern.Pathless() }

// Def returns the current definition, including resolved lazy fields.
func (n *Node) Def() *RouteDef { return n.def.Load() }

// ParamNames returns the path params the route's full path uses.
func (n *Node) ParamNames() []string { return n.full.ParamNames() }

// Chain returns the nodes from the root down to n.
func (n *Node) Chain() []*Node {
	chain := make([]*Node, n.depth+1)
	for cur := n; cur != nil; cur = cur.parent {
		chain[cur.depth] = cur
	}
	return chain
}

// Tree is an immutable route tree. Only lazy definitions change after Build.
type Tree struct {
	root   *Node
	nodes  []*Node
	byID   map[string]*Node
	ranked []*Node

	logger *slog.Logger
	memo   *lru.Cache[string, MatchResult]
	lazy   singleflight.Group
}

type treeOptions struct {
	caseSensitive bool
	cacheSize     int
	logger        *slog.Logger
}

// Option configures Build.
type Option func(*treeOptions)

// WithCaseSensitive sets the default case sensitivity of static segments.
func WithCaseSensitive(enabled bool) Option {
	return func(o *treeOptions) { o.caseSensitive = enabled }
}

// WithMatchCacheSize sets how many match results are memoised. Zero or less
// disables the memo.
func WithMatchCacheSize(size int) Option {
	return func(o *treeOptions) { o.cacheSize = size }
}

// WithLogger sets the logger used for build diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *treeOptions) { o.logger = logger }
}

// Build links definitions into a tree. Parents are resolved after every
// definition is registered, so definitions may be listed in any order.
// All static defects found are returned together.
func Build(defs []*RouteDef, opts ...Option) (*Tree, error) {
	o := treeOptions{cacheSize: DefaultMatchCacheSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	b := &builder{defs: defs, opts: o}
	t, err := b.build()
	if err != nil {
		return nil, err
	}
	t.logger = o.logger
	if o.cacheSize > 0 {
		t.memo, _ = lru.New[string, MatchResult](o.cacheSize)
	}

	for _, w := range t.Lint() {
		t.logger.Warn("ambiguous routes", "code", w.Code, "route", w.RouteID, "other", w.OtherID)
	}
	t.logger.Debug("route tree built", "routes", len(t.nodes), "terminal", len(t.ranked))
	return t, nil
}

// MustBuild is like Build but panics on error.
func MustBuild(defs []*RouteDef, opts ...Option) *Tree {
	t, err := Build(defs, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

type builder struct {
	defs []*RouteDef
	opts treeOptions

	parent []int
	ids    []string
	done   []bool
	byID   map[string]int
	errs   error
}

const (
	parentUnresolved = -2
	parentNone       = -1
)

func (b *builder) build() (*Tree, error) {
	n := len(b.defs)
	b.parent = make([]int, n)
	b.ids = make([]string, n)
	b.done = make([]bool, n)
	b.byID = make(map[string]int, n)

	byPtr := make(map[*RouteDef]int, n)
	for i, def := range b.defs {
		if def == nil {
			b.fail(perrors.New("E203").WithDetail(fmt.Sprintf("route definition %d is nil", i)))
			b.done[i] = true
			continue
		}
		if _, dup := byPtr[def]; !dup {
			byPtr[def] = i
		}
	}

	// First pass: parents that can be resolved without ids.
	rootIdx := -1
	for i, def := range b.defs {
		if def == nil {
			continue
		}
		switch {
		case def.GetParentRoute != nil:
			p := def.GetParentRoute()
			j, ok := byPtr[p]
			if p == nil || !ok {
				b.fail(perrors.New("E204").WithRoute(def.ID, def.Path).Wrap(ErrParentNotFound).
					WithSuggestion("Include the parent definition in the list passed to Build"))
				b.done[i] = true
				continue
			}
			b.parent[i] = j
		case def.ParentID != "":
			b.parent[i] = parentUnresolved
		default:
			b.parent[i] = parentNone
			if rootIdx >= 0 {
				b.fail(perrors.New("E205").WithRoute(def.ID, def.Path).Wrap(ErrInvalidRoot).
					WithDetail("more than one route has no parent"))
				b.done[i] = true
				continue
			}
			rootIdx = i
		}
	}
	if rootIdx < 0 {
		b.fail(perrors.New("E205").Wrap(ErrInvalidRoot).WithDetail("no route without a parent"))
		return nil, b.errs
	}

	// Second pass: derive ids top down until nothing changes. Anything left
	// has a missing parent id or sits on a parent cycle.
	for progress := true; progress; {
		progress = false
		for i, def := range b.defs {
			if b.done[i] {
				continue
			}
			if b.parent[i] == parentUnresolved {
				j, ok := b.byID[def.ParentID]
				if !ok {
					continue
				}
				b.parent[i] = j
			}
			if p := b.parent[i]; p >= 0 {
				if !b.done[p] {
					continue
				}
				if b.ids[p] == "" {
					// The parent already failed and was reported.
					b.done[i] = true
					progress = true
					continue
				}
			}
			b.assign(i)
			progress = true
		}
	}
	for i, def := range b.defs {
		if b.done[i] {
			continue
		}
		b.fail(perrors.New("E204").WithRoute(def.ID, def.Path).Wrap(ErrParentNotFound).
			WithDetail(fmt.Sprintf("parent %q is missing or part of a cycle", parentName(def))))
	}
	if b.errs != nil {
		return nil, b.errs
	}

	return b.link()
}

func parentName(def *RouteDef) string {
	if def.ParentID != "" {
		return def.ParentID
	}
	if p := def.GetParentRoute(); p != nil {
		if p.ID != "" {
			return p.ID
		}
		return p.Path
	}
	return ""
}

func (b *builder) fail(err error) {
	b.errs = multierr.Append(b.errs, err)
}

// assign derives the id of definition i, whose parent id is already known.
func (b *builder) assign(i int) {
	b.done[i] = true
	def := b.defs[i]

	var id string
	if p := b.parent[i]; p < 0 {
		id = def.ID
		if id == "" {
			id = RootRouteID
		}
	} else {
		var err error
		id, err = childID(b.ids[p], def)
		if err != nil {
			b.fail(err)
			b.ids[i] = ""
			return
		}
	}

	if _, dup := b.byID[id]; dup {
		b.fail(perrors.New("E201").WithRoute(id, def.Path).Wrap(fmt.Errorf("%w: %q", ErrDuplicateRouteID, id)).
			WithSuggestion("Give one of the routes an explicit ID"))
		b.ids[i] = ""
		return
	}
	b.ids[i] = id
	b.byID[id] = i
}

// childID joins the parent id with the route's id segment. An ID starting
// with "/" is used as is.
func childID(parentID string, def *RouteDef) (string, error) {
	if strings.HasPrefix(def.ID, "/") {
		return def.ID, nil
	}
	seg := def.ID
	if seg == "" {
		seg = def.Path
	}
	if seg == "" {
		return "", perrors.New("E203").
			WithDetail(fmt.Sprintf("route under %q has neither a path nor an id", parentID)).
			WithSuggestion("Pathless layout routes need an ID")
	}
	if seg != "/" {
		seg = strings.TrimLeft(seg, "/")
	}
	base := parentID
	if base == RootRouteID {
		base = ""
	}
	return joinPaths(base, seg), nil
}

func joinPaths(parts ...string) string {
	joined := "/" + strings.Join(parts, "/")
	for strings.Contains(joined, "//") {
		joined = strings.ReplaceAll(joined, "//", "/")
	}
	return joined
}

// link compiles patterns and wires nodes once every id is known.
func (b *builder) link() (*Tree, error) {
	t := &Tree{byID: make(map[string]*Node, len(b.defs))}

	nodes := make([]*Node, len(b.defs))
	var compile func(i int) *Node
	compile = func(i int) *Node {
		if nodes[i] != nil {
			return nodes[i]
		}
		def := b.defs[i]
		node := &Node{id: b.ids[i], index: i, rank: -1}
		node.def.Store(def)

		caseSensitive := b.opts.caseSensitive
		if def.CaseSensitive != nil {
			caseSensitive = *def.CaseSensitive
		}

		path := def.Path
		if b.parent[i] < 0 {
			path = ""
		}
		pattern, err := routepath.Compile(path, routepath.CaseSensitive(caseSensitive))
		if err != nil {
			b.fail(perrors.New("E203").WithRoute(node.id, def.Path).Wrap(err))
			pattern = routepath.MustCompile("")
		}
		node.pattern = pattern

		if p := b.parent[i]; p >= 0 {
			parent := compile(p)
			node.parent = parent
			node.depth = parent.depth + 1
			node.full = parent.full.Join(pattern)
			parent.kids = append(parent.kids, node)
		} else {
			node.full = pattern
			t.root = node
		}
		nodes[i] = node
		return node
	}
	for i := range b.defs {
		if b.ids[i] == "" {
			continue
		}
		compile(i)
	}
	if b.errs != nil {
		return nil, b.errs
	}

	for _, node := range nodes {
		if node == nil {
			continue
		}
		t.nodes = append(t.nodes, node)
		t.byID[node.id] = node
		if node.IsTerminal() {
			t.ranked = append(t.ranked, node)
		}
		sort.SliceStable(node.kids, func(a, c int) bool {
			return routepath.Compare(node.kids[a].full, node.kids[c].full) < 0
		})
	}

	// Equal specificity keeps the last declared route first.
	sort.SliceStable(t.ranked, func(a, c int) bool {
		if cmp := routepath.Compare(t.ranked[a].full, t.ranked[c].full); cmp != 0 {
			return cmp < 0
		}
		return t.ranked[a].index > t.ranked[c].index
	})
	for i, node := range t.ranked {
		node.rank = i
	}
	return t, nil
}

// Root returns the root node.
func (t *Tree) Root() *Node { return t.root }

// Len returns the number of routes.
func (t *Tree) Len() int { return len(t.nodes) }

// Nodes returns every node in declaration order.
func (t *Tree) Nodes() []*Node { return append([]*Node(nil), t.nodes...) }

// Ranked returns the terminal nodes, most specific first.
func (t *Tree) Ranked() []*Node { return append([]*Node(nil), t.ranked...) }

// Node returns the node with the given id.
func (t *Tree) Node(id string) (*Node, error) {
	if n, ok := t.byID[id]; ok {
		return n, nil
	}
	return nil, perrors.New("E202").WithRoute(id, "").Wrap(fmt.Errorf("%w: %q", ErrRouteNotFound, id))
}

// Lookup resolves a navigation target given as a route id or a full path
// pattern such as "/posts/$postId".
func (t *Tree) Lookup(to string) (*Node, error) {
	if n, ok := t.byID[to]; ok {
		return n, nil
	}
	candidates := []string{to}
	if strings.HasSuffix(to, "/") && to != "/" {
		candidates = append(candidates, strings.TrimRight(to, "/"))
	} else {
		candidates = append(candidates, to+"/")
	}
	for _, c := range candidates {
		for _, n := range t.ranked {
			if n.FullPath() == c {
				return n, nil
			}
		}
	}
	return t.Node(to)
}
