package inspect

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/pathway"
	"github.com/vango-dev/pathway/pkg/history"
	"github.com/vango-dev/pathway/pkg/router"
)

type fixture struct {
	r     *pathway.Router
	srv   *httptest.Server
	loads atomic.Int32
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{}
	root := &pathway.RouteDef{}
	parent := func() *pathway.RouteDef { return root }
	posts := &pathway.RouteDef{
		Path:           "posts",
		GetParentRoute: parent,
		Loader: func(ctx context.Context, c *pathway.LoaderContext) (any, error) {
			return int(f.loads.Add(1)), nil
		},
	}
	post := &pathway.RouteDef{
		Path:           "$postId",
		GetParentRoute: func() *pathway.RouteDef { return posts },
	}

	staleForever := pathway.Duration(time.Hour)
	r, err := pathway.New([]*pathway.RouteDef{root, posts, post}, pathway.Options{
		History:          history.NewMemory(history.MemoryOptions{}),
		DefaultStaleTime: staleForever,
	})
	require.NoError(t, err)
	t.Cleanup(r.Close)
	f.r = r

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "inspect_test_total"}))
	f.srv = httptest.NewServer(New(r, Options{Gatherer: reg}).Handler())
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fixture) get(t *testing.T, path string, v any) int {
	t.Helper()
	resp, err := http.Get(f.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func (f *fixture) post(t *testing.T, path string, body any, v any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	resp, err := http.Post(f.srv.URL+path, "application/json", &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func TestRoutes(t *testing.T) {
	f := newFixture(t)

	var got routesResponse
	require.Equal(t, http.StatusOK, f.get(t, "/routes", &got))
	require.Len(t, got.Routes, 3)
	assert.Equal(t, router.RootRouteID, got.Routes[0].ID)
	assert.Equal(t, "/posts/$postId", got.Routes[2].ID)
	assert.Equal(t, "/posts", got.Routes[2].Parent)
	assert.Equal(t, []string{"postId"}, got.Routes[2].Params)
	assert.Equal(t, 2, got.Routes[2].Depth)
}

func TestMatch(t *testing.T) {
	f := newFixture(t)

	var got MatchInfo
	require.Equal(t, http.StatusOK, f.get(t, "/match?path=/posts/7", &got))
	assert.Equal(t, []string{router.RootRouteID, "/posts", "/posts/$postId"}, got.Routes)
	assert.Equal(t, "7", got.Params["postId"])
	assert.Empty(t, got.NotFoundRouteID)

	got = MatchInfo{}
	require.Equal(t, http.StatusOK, f.get(t, "/match?path=/posts/7/extra&mode=root", &got))
	assert.Equal(t, router.RootRouteID, got.NotFoundRouteID)

	assert.Equal(t, http.StatusBadRequest, f.get(t, "/match", nil))
	assert.Equal(t, http.StatusBadRequest, f.get(t, "/match?path=/&mode=strict", nil))
	assert.Zero(t, f.loads.Load(), "matching must not run loaders")
}

func TestNavigateAndState(t *testing.T) {
	f := newFixture(t)

	var got StateView
	require.Equal(t, http.StatusOK, f.post(t, "/navigate", map[string]any{"href": "/posts/3"}, &got))
	assert.Equal(t, pathway.StatusIdle, got.Status)
	assert.Equal(t, "/posts/3", got.ResolvedLocation.Pathname)
	require.Len(t, got.Matches, 3)
	assert.Equal(t, "/posts/$postId", got.Matches[2].RouteID)
	assert.Equal(t, http.StatusOK, got.StatusCode)

	got = StateView{}
	body := map[string]any{"to": "/posts/$postId", "params": map[string]string{"postId": "4"}, "search": map[string]any{"tab": "info"}}
	require.Equal(t, http.StatusOK, f.post(t, "/navigate", body, &got))
	assert.Equal(t, "/posts/4", got.Location.Pathname)
	assert.Equal(t, "info", got.Location.Search["tab"])

	var st StateView
	require.Equal(t, http.StatusOK, f.get(t, "/state", &st))
	assert.Equal(t, got.Revision, st.Revision)

	assert.Equal(t, http.StatusBadRequest, f.post(t, "/navigate", map[string]any{"to": "nowhere"}, nil))

	resp, err := http.Post(f.srv.URL+"/navigate", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInvalidate(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusOK, f.post(t, "/navigate", map[string]any{"href": "/posts"}, nil))
	require.EqualValues(t, 1, f.loads.Load())

	require.Equal(t, http.StatusOK, f.post(t, "/invalidate?route=/posts", nil, nil))
	f.r.Wait()
	assert.EqualValues(t, 2, f.loads.Load())

	leaf, ok := f.r.State().Leaf()
	require.True(t, ok)
	assert.Equal(t, 2, leaf.LoaderData)
}

func TestMetrics(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "inspect_test_total")
}

func TestStateStream(t *testing.T) {
	f := newFixture(t)

	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/state/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var first StateView
	require.NoError(t, conn.ReadJSON(&first))
	assert.Empty(t, first.Matches)

	require.NoError(t, f.r.Navigate(context.Background(), pathway.NavigateOptions{Href: "/posts/9"}))

	// Updates coalesce, so read until the committed navigation shows up.
	for {
		var next StateView
		require.NoError(t, conn.ReadJSON(&next))
		assert.Equal(t, pathway.StatusIdle, next.Status)
		if next.ResolvedLocation.Pathname == "/posts/9" {
			require.Len(t, next.Matches, 3)
			break
		}
	}
}
