package pipeline

import (
	"cmp"
	"encoding/binary"
	"hash/fnv"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gpucmd/chip"
	"github.com/gogpu/gpucmd/pm4"
)

// DefaultCacheLimit is the soft limit of a Cache created with limit <= 0.
const DefaultCacheLimit = 256

// Cache reuses built pipelines for metadata already seen on the same
// revision. Register order does not matter: metadata that builds the same
// image hits the same entry.
//
// Cache is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[cacheKey]*cacheEntry
	limit   int
	tick    int64

	hits   atomic.Uint64
	misses atomic.Uint64
}

type cacheKey struct {
	revision string
	hash     uint64
}

type cacheEntry struct {
	name     string
	writes   []pm4.RegWrite // sorted
	pipeline *ComputePipeline
	atime    int64
}

// CacheStats reports cache occupancy and effectiveness.
type CacheStats struct {
	Len    int
	Limit  int
	Hits   uint64
	Misses uint64
}

// NewCache returns a cache holding about limit pipelines.
func NewCache(limit int) *Cache {
	if limit <= 0 {
		limit = DefaultCacheLimit
	}
	return &Cache{entries: make(map[cacheKey]*cacheEntry), limit: limit}
}

// Get returns the pipeline for meta on caps, building it on a miss.
// Build errors are not cached.
func (c *Cache) Get(caps chip.Caps, meta *Metadata) (*ComputePipeline, error) {
	writes := canonical(meta)
	key := cacheKey{revision: caps.Name, hash: hashWrites(meta.Name, writes)}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.tick++
	if e, ok := c.entries[key]; ok && e.name == meta.Name && slices.Equal(e.writes, writes) {
		e.atime = c.tick
		c.hits.Add(1)
		return e.pipeline, nil
	}
	c.misses.Add(1)

	p, err := New(caps, meta)
	if err != nil {
		return nil, err
	}
	c.entries[key] = &cacheEntry{name: meta.Name, writes: writes, pipeline: p, atime: c.tick}
	if len(c.entries) > c.limit {
		c.evictOldest()
	}
	return p, nil
}

// Len returns the number of cached pipelines.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every cached pipeline. Statistics are kept.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
	c.tick = 0
}

// Stats returns current cache statistics.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Len:    c.Len(),
		Limit:  c.limit,
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}
}

// evictOldest drops the least recently used quarter of the entries.
// Caller must hold c.mu.
func (c *Cache) evictOldest() {
	target := max(c.limit*3/4, 1)
	keys := make([]cacheKey, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b cacheKey) int {
		return cmp.Compare(c.entries[a].atime, c.entries[b].atime)
	})
	for _, k := range keys[:len(keys)-target] {
		delete(c.entries, k)
	}
}

// canonical returns every register write of meta sorted by address.
func canonical(meta *Metadata) []pm4.RegWrite {
	writes := meta.writes()
	slices.SortFunc(writes, func(a, b pm4.RegWrite) int {
		return cmp.Compare(a.Reg, b.Reg)
	})
	return writes
}

// hashWrites computes the FNV-1a hash of a name and its sorted writes.
func hashWrites(name string, writes []pm4.RegWrite) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name)) // fnv.Write never returns an error
	buf := make([]byte, 0, 8*len(writes))
	for _, w := range writes {
		buf = binary.LittleEndian.AppendUint32(buf, w.Reg)
		buf = binary.LittleEndian.AppendUint32(buf, w.Value)
	}
	_, _ = h.Write(buf)
	return h.Sum64()
}
