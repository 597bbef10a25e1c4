package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/pathway/internal/errors"
	"github.com/vango-dev/pathway/pkg/inspect"
	"github.com/vango-dev/pathway/pkg/ssr"
)

const manifestJSON = `{
  "routes": [
    {"path": "/", "data": {"title": "Blog"}},
    {"path": "posts", "data": ["a", "b"]},
    {"path": "$postId", "parent": "/posts"},
    {"id": "legacy", "path": "old", "redirect": "/posts"}
  ]
}`

// writeProject writes pathway.json and routes.json into a temp dir and returns
// the config path.
func writeProject(t *testing.T, config string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "routes.json"), []byte(manifestJSON), 0o644))
	path := filepath.Join(dir, "pathway.json")
	require.NoError(t, os.WriteFile(path, []byte(config), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRoutesCommand(t *testing.T) {
	cfg := writeProject(t, `{"log": {"level": "error"}}`)

	out, err := run(t, "-c", cfg, "routes", "--json")
	require.NoError(t, err)

	var routes []inspect.RouteInfo
	require.NoError(t, json.Unmarshal([]byte(out), &routes))
	require.Len(t, routes, 4)
	assert.Equal(t, "/posts/$postId", routes[2].FullPath)
	assert.Equal(t, "/posts", routes[2].Parent)
}

func TestMatchCommand(t *testing.T) {
	cfg := writeProject(t, `{"log": {"level": "error"}}`)

	out, err := run(t, "-c", cfg, "match", "/posts/42/", "--json")
	require.NoError(t, err)

	var info inspect.MatchInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "/posts/42", info.Pathname)
	assert.Equal(t, []string{"__root__", "/posts", "/posts/$postId"}, info.Routes)
	assert.Equal(t, "42", info.Params["postId"])
}

func TestMatchCommandLoads(t *testing.T) {
	cfg := writeProject(t, `{"log": {"level": "error"}}`)

	out, err := run(t, "-c", cfg, "match", "/posts", "--load")
	require.NoError(t, err)
	var snap ssr.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, 200, snap.StatusCode)
	require.Len(t, snap.Matches, 2)
	assert.Equal(t, []any{"a", "b"}, snap.Matches[1].LoaderData)

	out, err = run(t, "-c", cfg, "match", "/old", "--load")
	require.NoError(t, err)
	snap = ssr.Snapshot{}
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, 307, snap.StatusCode)
	assert.Equal(t, "/posts", snap.Redirect)
}

func TestLintCommand(t *testing.T) {
	cfg := writeProject(t, `{"log": {"level": "error"}}`)
	_, err := run(t, "-c", cfg, "lint", "--strict")
	require.NoError(t, err)
}

func TestInvalidConfig(t *testing.T) {
	cfg := writeProject(t, `{"router": {"notFoundMode": "nearest"}}`)
	_, err := run(t, "-c", cfg, "routes")
	require.Error(t, err)
	assert.Equal(t, "E243", errors.Code(err))
}

func TestMissingManifest(t *testing.T) {
	cfg := writeProject(t, `{"manifest": "missing.json"}`)
	_, err := run(t, "-c", cfg, "routes")
	require.Error(t, err)
	assert.Equal(t, "E251", errors.Code(err))
}

func TestOpenStore(t *testing.T) {
	cfg := writeProject(t, `{"snapshots": {"store": "disk", "dir": "snaps"}}`)
	p, err := loadProject(&projectFlags{config: cfg}, &bytes.Buffer{})
	require.NoError(t, err)

	store, err := openStore(p.cfg)
	require.NoError(t, err)
	require.IsType(t, &ssr.DiskStore{}, store)
	assert.DirExists(t, filepath.Join(filepath.Dir(cfg), "snaps"))

	p.cfg.Snapshots.Store = "none"
	store, err = openStore(p.cfg)
	require.NoError(t, err)
	assert.Nil(t, store)
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "init", dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "pathway.json"))

	out, err := run(t, "-c", filepath.Join(dir, "pathway.json"), "routes", "--json")
	require.NoError(t, err)
	var routes []inspect.RouteInfo
	require.NoError(t, json.Unmarshal([]byte(out), &routes))
	assert.Len(t, routes, 3)

	_, err = run(t, "init", dir)
	assert.Error(t, err, "init must not overwrite without --force")
}
