package pathway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/pathway/pkg/routepath"
)

func TestBuildLocation(t *testing.T) {
	a := newApp(t, Options{}, nil)
	a.navigate(t, "/posts/3?tab=info#top")

	tests := []struct {
		name     string
		opts     ToOptions
		wantHref string
		wantErr  bool
	}{
		{name: "route id with params", opts: ToOptions{To: "/posts/$postId", Params: map[string]string{"postId": "9"}}, wantHref: "/posts/9"},
		{name: "plain pathname", opts: ToOptions{To: "/login"}, wantHref: "/login"},
		{name: "empty keeps current params", opts: ToOptions{}, wantHref: "/posts/3"},
		{name: "empty with new params", opts: ToOptions{Params: map[string]string{"postId": "4"}}, wantHref: "/posts/4"},
		{name: "relative parent", opts: ToOptions{To: ".."}, wantHref: "/posts"},
		{name: "relative from route", opts: ToOptions{To: "./7", From: "/posts"}, wantHref: "/posts/7"},
		{name: "search object", opts: ToOptions{To: "/posts", Search: map[string]any{"page": 2}}, wantHref: "/posts?page=2"},
		{
			name: "search func sees current",
			opts: ToOptions{SearchFunc: func(cur map[string]any) map[string]any {
				cur["page"] = 1
				return cur
			}},
			wantHref: "/posts/3?page=1&tab=info",
		},
		{name: "hash", opts: ToOptions{To: "/login", Hash: "form"}, wantHref: "/login#form"},
		{name: "params are encoded", opts: ToOptions{To: "/posts/$postId", Params: map[string]string{"postId": "a b"}}, wantHref: "/posts/a%20b"},
		{name: "unknown route id", opts: ToOptions{To: "nowhere"}, wantErr: true},
		{name: "missing param", opts: ToOptions{To: "/posts/$postId", Params: map[string]string{}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := a.r.BuildLocation(tt.opts)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrNoRoute)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHref, loc.Href)
		})
	}
}

func TestBuildLocationTrailingSlash(t *testing.T) {
	a := newApp(t, Options{TrailingSlash: routepath.TrailingSlashAlways}, nil)

	loc, err := a.r.BuildLocation(ToOptions{To: "/posts"})
	require.NoError(t, err)
	assert.Equal(t, "/posts/", loc.Pathname)
}

func TestParseLocationKeepsRawSearch(t *testing.T) {
	a := newApp(t, Options{}, nil)
	a.navigate(t, "/posts?b=2&a=1")

	loc := a.r.State().ResolvedLocation
	assert.Equal(t, "?b=2&a=1", loc.SearchStr)
	assert.Equal(t, "/posts?b=2&a=1", loc.Href)
	assert.Equal(t, map[string]any{"a": float64(1), "b": float64(2)}, loc.Search)
}
