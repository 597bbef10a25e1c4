package ssr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/vango-dev/pathway/pkg/match"
)

type fakeRenderer struct {
	snap *Snapshot
	err  error
	href string
	sc   *Context
}

func (f *fakeRenderer) Render(ctx context.Context, href string) (*Snapshot, error) {
	f.href = href
	f.sc, _ = FromContext(ctx)
	if f.err != nil {
		return nil, f.err
	}
	cp := *f.snap
	return &cp, nil
}

func TestHandlerRendersSnapshot(t *testing.T) {
	r := &fakeRenderer{snap: &Snapshot{
		Href:       "/posts/1",
		StatusCode: http.StatusOK,
		Matches:    []Match{{ID: "__root__", RouteID: "__root__", Status: match.StatusSuccess}},
	}}
	store := NewMemoryStore(8)
	h := NewHandler(func(*http.Request) (Renderer, error) { return r, nil }, HandlerOptions{Store: store})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/posts/1?page=2", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if r.href != "/posts/1?page=2" {
		t.Errorf("rendered %q", r.href)
	}
	if r.sc == nil || r.sc.RequestID == "" {
		t.Fatal("render ran without a request context")
	}

	id := rec.Header().Get(SnapshotHeader)
	if id != r.sc.RequestID {
		t.Errorf("snapshot header = %q, want %q", id, r.sc.RequestID)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/_pathway/snapshots/"+id, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("snapshot fetch status = %d", rec.Code)
	}
	var got Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Href != "/posts/1" || len(got.Matches) != 1 {
		t.Errorf("stored snapshot = %+v", got)
	}
}

func TestHandlerStatusAndRedirect(t *testing.T) {
	tests := []struct {
		name     string
		snap     *Snapshot
		err      error
		status   int
		location string
	}{
		{"not found", &Snapshot{StatusCode: 404}, nil, 404, ""},
		{"redirect", &Snapshot{StatusCode: 307, Redirect: "/login"}, nil, 307, "/login"},
		{"render error", nil, errors.New("boom"), 500, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeRenderer{snap: tt.snap, err: tt.err}
			h := NewHandler(func(*http.Request) (Renderer, error) { return r, nil }, HandlerOptions{})
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest("GET", "/x", nil))
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if got := rec.Header().Get("Location"); got != tt.location {
				t.Errorf("Location = %q, want %q", got, tt.location)
			}
		})
	}
}

func TestHandlerCanonicalRedirect(t *testing.T) {
	h := NewHandler(func(*http.Request) (Renderer, error) {
		t.Fatal("render must not run for non-canonical paths")
		return nil, nil
	}, HandlerOptions{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/blog//post/?a=1", nil))
	if rec.Code != http.StatusPermanentRedirect {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/blog/post?a=1" {
		t.Errorf("Location = %q", got)
	}
}

func TestStores(t *testing.T) {
	disk, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	stores := map[string]Store{
		"memory": NewMemoryStore(0),
		"disk":   disk,
		"s3":     NewS3Store(newFakeS3(), "bucket", "snaps/"),
	}
	ctx := context.Background()
	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			snap := &Snapshot{ID: "req-1", Href: "/a", StatusCode: 200, CreatedAt: time.Now().UTC()}
			if err := s.Put(ctx, snap); err != nil {
				t.Fatal(err)
			}
			got, err := s.Get(ctx, "req-1")
			if err != nil {
				t.Fatal(err)
			}
			if got.Href != "/a" || got.StatusCode != 200 {
				t.Errorf("Get = %+v", got)
			}
			if err := s.Delete(ctx, "req-1"); err != nil {
				t.Fatal(err)
			}
			if _, err := s.Get(ctx, "req-1"); !errors.Is(err, ErrSnapshotNotFound) {
				t.Errorf("Get after Delete err = %v", err)
			}
		})
	}
}

func TestDiskStoreRejectsPathIDs(t *testing.T) {
	disk, _ := NewDiskStore(t.TempDir())
	if _, err := disk.Get(context.Background(), "../etc/passwd"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestRecordRoundTrip(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rec := match.Record{
		ID:         "/posts/$id?id=1",
		RouteID:    "/posts/$id",
		Status:     match.StatusSuccess,
		LoaderData: "hello",
		Params:     map[string]string{"id": "1"},
		Context:    map[string]any{"user": "ada"},
		UpdatedAt:  now,
	}
	m := FromRecord(rec)
	back := m.Record(time.Now())
	if back.ID != rec.ID || back.LoaderData != "hello" || !back.Dehydrated || !back.UpdatedAt.Equal(now) {
		t.Errorf("round trip = %+v", back)
	}
	if back.Context["user"] != "ada" {
		t.Errorf("context lost: %+v", back.Context)
	}

	rec.Context = map[string]any{"fn": func() {}}
	if FromRecord(rec).Context != nil {
		t.Error("context with non-JSON values must be dropped")
	}
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: map[string][]byte{}} }

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[*in.Bucket+"/"+*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, *in.Bucket+"/"+*in.Key)
	return &s3.DeleteObjectOutput{}, nil
}
