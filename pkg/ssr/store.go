package ssr

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrSnapshotNotFound is returned when a store has no snapshot for an id.
var ErrSnapshotNotFound = errors.New("ssr: snapshot not found")

// DefaultMemoryCapacity bounds a MemoryStore created with capacity <= 0.
const DefaultMemoryCapacity = 1024

// Store persists rendered snapshots so a client can fetch them by id.
type Store interface {
	Put(ctx context.Context, s *Snapshot) error
	Get(ctx context.Context, id string) (*Snapshot, error)
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps the most recent snapshots in process.
type MemoryStore struct {
	cache *lru.Cache[string, []byte]
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a store holding at most capacity snapshots.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	c, _ := lru.New[string, []byte](capacity)
	return &MemoryStore{cache: c}
}

// Put stores an encoded copy of s.
func (m *MemoryStore) Put(_ context.Context, s *Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.cache.Add(s.ID, data)
	return nil
}

// Get decodes the snapshot stored under id.
func (m *MemoryStore) Get(_ context.Context, id string) (*Snapshot, error) {
	data, ok := m.cache.Get(id)
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return decode(data)
}

// Delete removes id.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.cache.Remove(id)
	return nil
}

// Len returns the number of stored snapshots.
func (m *MemoryStore) Len() int { return m.cache.Len() }

// DiskStore writes one JSON file per snapshot.
type DiskStore struct {
	dir string
}

var _ Store = (*DiskStore)(nil)

// NewDiskStore creates dir if needed and stores snapshots in it.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &DiskStore{dir: dir}, nil
}

// Put writes s atomically.
func (d *DiskStore) Put(_ context.Context, s *Snapshot) error {
	if !validID(s.ID) {
		return ErrSnapshotNotFound
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	tmp := d.path(s.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, d.path(s.ID))
}

// Get reads the snapshot stored under id.
func (d *DiskStore) Get(_ context.Context, id string) (*Snapshot, error) {
	if !validID(id) {
		return nil, ErrSnapshotNotFound
	}
	data, err := os.ReadFile(d.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	return decode(data)
}

// Delete removes id. Missing snapshots are not an error.
func (d *DiskStore) Delete(_ context.Context, id string) error {
	if !validID(id) {
		return nil
	}
	err := os.Remove(d.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Cleanup removes snapshots older than maxAge.
func (d *DiskStore) Cleanup(maxAge time.Duration) error {
	cutoff := time.Now().Add(-maxAge)
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			os.Remove(filepath.Join(d.dir, entry.Name()))
		}
	}
	return nil
}

func (d *DiskStore) path(id string) string {
	return filepath.Join(d.dir, id+".json")
}

// validID keeps ids from naming files outside the store directory.
func validID(id string) bool {
	if id == "" || len(id) > 128 {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

func decode(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
