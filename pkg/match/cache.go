package match

import (
	"sync"
	"time"
)

// Cache is an ordered id → record map. There is at most one record per id;
// replacing a record keeps its original position.
type Cache struct {
	mu      sync.Mutex
	order   []string
	records map[string]*Record
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{records: make(map[string]*Record)}
}

// Len returns the number of cached records.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// Get returns a copy of the record with the given id.
func (c *Cache) Get(id string) (Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.records[id]
	if !ok {
		return Record{}, false
	}
	return r.Clone(), true
}

// Has reports whether a record with id exists.
func (c *Cache) Has(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.records[id]
	return ok
}

// Put stores rec, replacing any record with the same id.
func (c *Cache) Put(rec *Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.records[rec.ID]; ok {
		if old != rec {
			old.Abort()
		}
	} else {
		c.order = append(c.order, rec.ID)
	}
	c.records[rec.ID] = rec
}

// GetOrCreate returns the cached record for id, or stores and returns the
// result of create. The second result reports whether the record was created.
func (c *Cache) GetOrCreate(id string, create func() *Record) (*Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.records[id]; ok {
		return r, false
	}
	r := create()
	r.ID = id
	c.records[id] = r
	c.order = append(c.order, id)
	return r, true
}

// Update runs fn on the cached record under the cache lock. It returns false
// if no record with id exists.
func (c *Cache) Update(id string, fn func(r *Record)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.records[id]
	if !ok {
		return false
	}
	fn(r)
	return true
}

// Delete removes a record and cancels its in-flight load.
func (c *Cache) Delete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleteLocked(id)
}

func (c *Cache) deleteLocked(id string) {
	r, ok := c.records[id]
	if !ok {
		return
	}
	r.Abort()
	delete(c.records, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// All returns copies of every record in insertion order.
func (c *Cache) All() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Record, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.records[id].Clone())
	}
	return out
}

// Invalidate marks every record accepted by filter as invalid. Errored
// records go back to pending so the next load retries them.
func (c *Cache) Invalidate(filter func(Record) bool) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var ids []string
	for _, id := range c.order {
		r := c.records[id]
		if filter != nil && !filter(r.Clone()) {
			continue
		}
		r.Invalid = true
		if r.Status == StatusError {
			r.Status = StatusPending
			r.Error = nil
		}
		ids = append(ids, id)
	}
	return ids
}

// EvictPolicy decides which records may be removed.
type EvictPolicy struct {
	Now time.Time

	// Keep holds ids that must stay, typically the committed and pending matches.
	Keep map[string]bool

	// MaxAge returns the gc max age that applies to r.
	MaxAge func(r *Record) time.Duration
}

// Evict removes records that are not kept, not loading, and either errored
// or older than their max age. A pending record nothing is loading ages from
// its creation. It returns the evicted ids.
func (c *Cache) Evict(p EvictPolicy) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var evicted []string
	for _, id := range append([]string(nil), c.order...) {
		r := c.records[id]
		if p.Keep[id] || r.IsFetching {
			continue
		}
		age := r.Age(p.Now)
		if r.Status == StatusPending {
			if r.CreatedAt.IsZero() {
				continue
			}
			age = p.Now.Sub(r.CreatedAt)
		}
		if r.Status == StatusError || (p.MaxAge != nil && age > p.MaxAge(r)) {
			c.deleteLocked(id)
			evicted = append(evicted, id)
		}
	}
	return evicted
}

// Clear removes every record accepted by filter except those in keep.
func (c *Cache) Clear(keep map[string]bool, filter func(Record) bool) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var removed []string
	for _, id := range append([]string(nil), c.order...) {
		if keep[id] {
			continue
		}
		if filter != nil && !filter(c.records[id].Clone()) {
			continue
		}
		c.deleteLocked(id)
		removed = append(removed, id)
	}
	return removed
}
