package router

import (
	"reflect"
	"strings"
	"testing"
)

func TestMatchLocation(t *testing.T) {
	tree := blogTree(t)

	tests := []struct {
		name      string
		pathname  string
		mode      NotFoundMode
		want      []string
		params    map[string]string
		notFound  string
		pathnames []string
	}{
		{
			name:     "index",
			pathname: "/",
			want:     []string{RootRouteID, "/"},
			params:   map[string]string{},
		},
		{
			name:     "nested index",
			pathname: "/posts",
			want:     []string{RootRouteID, "/posts", "/posts/"},
			params:   map[string]string{},
		},
		{
			name:      "param",
			pathname:  "/posts/42",
			want:      []string{RootRouteID, "/posts", "/posts/$postId"},
			params:    map[string]string{"postId": "42"},
			pathnames: []string{"/", "/posts", "/posts/42"},
		},
		{
			name:     "static beats param",
			pathname: "/users/active",
			want:     []string{RootRouteID, "/users/active"},
			params:   map[string]string{},
		},
		{
			name:     "param sibling",
			pathname: "/users/42",
			want:     []string{RootRouteID, "/users/$id"},
			params:   map[string]string{"id": "42"},
		},
		{
			name:     "pathless layout",
			pathname: "/settings",
			want:     []string{RootRouteID, "/_auth", "/_auth/settings"},
			params:   map[string]string{},
		},
		{
			name:     "case insensitive",
			pathname: "/Settings",
			want:     []string{RootRouteID, "/_auth", "/_auth/settings"},
			params:   map[string]string{},
		},
		{
			name:     "wildcard",
			pathname: "/files/a/b/c.txt",
			want:     []string{RootRouteID, "/files/$"},
			params:   map[string]string{"_splat": "a/b/c.txt"},
		},
		{
			name:     "root mode not found",
			pathname: "/unknown-path/deeper/still",
			mode:     NotFoundRoot,
			want:     []string{RootRouteID},
			params:   map[string]string{},
			notFound: RootRouteID,
		},
		{
			name:     "root mode partial match still pinned to root",
			pathname: "/posts/42/comments",
			mode:     NotFoundRoot,
			want:     []string{RootRouteID},
			params:   map[string]string{},
			notFound: RootRouteID,
		},
		{
			name:     "fuzzy keeps partial chain",
			pathname: "/posts/42/comments",
			mode:     NotFoundFuzzy,
			want:     []string{RootRouteID, "/posts", "/posts/$postId"},
			params:   map[string]string{"postId": "42"},
			notFound: "/posts",
		},
		{
			name:     "fuzzy with nothing matched",
			pathname: "/nowhere",
			mode:     NotFoundFuzzy,
			want:     []string{RootRouteID},
			params:   map[string]string{},
			notFound: RootRouteID,
		},
		{
			name:     "wildcard matches an empty remainder",
			pathname: "/files",
			mode:     NotFoundRoot,
			want:     []string{RootRouteID, "/files/$"},
			params:   map[string]string{"_splat": ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := tree.MatchLocation(tt.pathname, MatchOptions{NotFoundMode: tt.mode})
			if got := ids(res.Nodes); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Nodes = %v, want %v", got, tt.want)
			}
			if !reflect.DeepEqual(res.Params, tt.params) {
				t.Errorf("Params = %v, want %v", res.Params, tt.params)
			}
			if res.NotFoundRouteID != tt.notFound {
				t.Errorf("NotFoundRouteID = %q, want %q", res.NotFoundRouteID, tt.notFound)
			}
			if tt.pathnames != nil && !reflect.DeepEqual(res.Pathnames, tt.pathnames) {
				t.Errorf("Pathnames = %v, want %v", res.Pathnames, tt.pathnames)
			}
		})
	}
}

func TestMatchSpecificityIgnoresDeclarationOrder(t *testing.T) {
	for _, order := range [][]string{{"users/$id", "users/active"}, {"users/active", "users/$id"}} {
		root := &RouteDef{}
		defs := []*RouteDef{root}
		for _, p := range order {
			defs = append(defs, &RouteDef{Path: p, GetParentRoute: func() *RouteDef { return root }})
		}
		tree := MustBuild(defs)

		if got := tree.MatchLocation("/users/active", MatchOptions{}).Leaf().ID(); got != "/users/active" {
			t.Errorf("order %v: /users/active matched %q", order, got)
		}
		res := tree.MatchLocation("/users/42", MatchOptions{})
		if res.Leaf().ID() != "/users/$id" || res.Params["id"] != "42" {
			t.Errorf("order %v: /users/42 matched %q %v", order, res.Leaf().ID(), res.Params)
		}
	}
}

func TestMatchOptionalSegments(t *testing.T) {
	root := &RouteDef{}
	parent := func() *RouteDef { return root }
	tree := MustBuild([]*RouteDef{
		root,
		{Path: "{-$lang}/about", GetParentRoute: parent},
		{Path: "post-{$id}.html", GetParentRoute: parent},
	})

	tests := []struct {
		pathname string
		want     string
		params   map[string]string
	}{
		{"/about", "/{-$lang}/about", map[string]string{}},
		{"/fr/about", "/{-$lang}/about", map[string]string{"lang": "fr"}},
		{"/post-7.html", "/post-{$id}.html", map[string]string{"id": "7"}},
	}
	for _, tt := range tests {
		res := tree.MatchLocation(tt.pathname, MatchOptions{})
		if res.NotFoundRouteID != "" {
			t.Errorf("%s: not found", tt.pathname)
			continue
		}
		if res.Leaf().ID() != tt.want || !reflect.DeepEqual(res.Params, tt.params) {
			t.Errorf("%s: matched %q %v, want %q %v", tt.pathname, res.Leaf().ID(), res.Params, tt.want, tt.params)
		}
	}
}

func TestMatchChildParamsOverrideParent(t *testing.T) {
	root := &RouteDef{}
	org := &RouteDef{Path: "$id", GetParentRoute: func() *RouteDef { return root }}
	tree := MustBuild([]*RouteDef{
		root,
		org,
		{Path: "repos/$id", GetParentRoute: func() *RouteDef { return org }},
	})

	res := tree.MatchLocation("/acme/repos/widget", MatchOptions{})
	if res.Params["id"] != "widget" {
		t.Errorf("Params = %v, want deeper id to win", res.Params)
	}
}

func TestMatchCaseSensitive(t *testing.T) {
	root := &RouteDef{}
	parent := func() *RouteDef { return root }
	tree := MustBuild([]*RouteDef{
		root,
		{Path: "About", GetParentRoute: parent},
		{Path: "Loose", GetParentRoute: parent, CaseSensitive: Bool(false)},
	}, WithCaseSensitive(true))

	if tree.MatchLocation("/about", MatchOptions{}).NotFoundRouteID == "" {
		t.Error("case sensitive tree should not match /about")
	}
	if tree.MatchLocation("/About", MatchOptions{}).NotFoundRouteID != "" {
		t.Error("/About should match")
	}
	if tree.MatchLocation("/loose", MatchOptions{}).NotFoundRouteID != "" {
		t.Error("route override should make /loose match")
	}
}

func TestMatchFuzzyHandlesNotFound(t *testing.T) {
	root := &RouteDef{}
	docs := &RouteDef{Path: "docs", GetParentRoute: func() *RouteDef { return root }, HandlesNotFound: true}
	tree := MustBuild([]*RouteDef{root, docs})

	res := tree.MatchLocation("/docs/missing", MatchOptions{NotFoundMode: NotFoundFuzzy})
	if res.NotFoundRouteID != "/docs" {
		t.Errorf("NotFoundRouteID = %q, want /docs", res.NotFoundRouteID)
	}
}

func TestMatchIsDeterministic(t *testing.T) {
	uncached := blogTree(t, WithMatchCacheSize(0))
	cached := blogTree(t)

	paths := []string{"/", "/posts", "/posts/9", "/users/active", "/files/x", "/nope/x"}
	for _, p := range paths {
		first := uncached.MatchLocation(p, MatchOptions{})
		for i := 0; i < 3; i++ {
			again := cached.MatchLocation(p, MatchOptions{})
			if strings.Join(ids(first.Nodes), ",") != strings.Join(ids(again.Nodes), ",") ||
				!reflect.DeepEqual(first.Params, again.Params) ||
				first.NotFoundRouteID != again.NotFoundRouteID {
				t.Errorf("%s: results differ: %v vs %v", p, ids(first.Nodes), ids(again.Nodes))
			}
		}
	}
}

func TestMatchResultIsACopy(t *testing.T) {
	tree := blogTree(t)
	res := tree.MatchLocation("/posts/1", MatchOptions{})
	res.Params["postId"] = "mutated"
	res.Nodes[0] = nil

	again := tree.MatchLocation("/posts/1", MatchOptions{})
	if again.Params["postId"] != "1" || again.Nodes[0] == nil {
		t.Error("memoised result must not be shared with callers")
	}
}
