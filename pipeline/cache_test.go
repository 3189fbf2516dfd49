package pipeline

import (
	"errors"
	"sync"
	"testing"

	"github.com/gogpu/gpucmd/pm4"
)

func TestCacheHitsIgnoreRegisterOrder(t *testing.T) {
	c := NewCache(0)
	caps := mustCaps(t, "vega10")

	a, err := c.Get(caps, fixtureMetadata())
	if err != nil {
		t.Fatal(err)
	}
	reordered := fixtureMetadata()
	for i, j := 0, len(reordered.Registers)-1; i < j; i, j = i+1, j-1 {
		reordered.Registers[i], reordered.Registers[j] = reordered.Registers[j], reordered.Registers[i]
	}
	b, err := c.Get(caps, reordered)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("reordered metadata built a second pipeline")
	}

	st := c.Stats()
	if st.Hits != 1 || st.Misses != 1 || st.Len != 1 || st.Limit != DefaultCacheLimit {
		t.Errorf("Stats = %+v", st)
	}
}

func TestCacheKeysByRevisionAndContents(t *testing.T) {
	c := NewCache(8)
	meta := fixtureMetadata()

	vega, _ := c.Get(mustCaps(t, "vega10"), meta)
	navi, _ := c.Get(mustCaps(t, "navi10"), meta)
	if vega == navi {
		t.Error("pipelines of different revisions shared an entry")
	}

	changed := fixtureMetadata()
	changed.Set(pm4.ComputeNumThreadX, 128)
	other, _ := c.Get(mustCaps(t, "vega10"), changed)
	if other == vega {
		t.Error("different metadata hit the same entry")
	}
	if c.Len() != 3 {
		t.Errorf("Len = %d, want 3", c.Len())
	}
}

func TestCacheDoesNotStoreFailures(t *testing.T) {
	c := NewCache(4)
	if _, err := c.Get(mustCaps(t, "vega10"), &Metadata{}); !errors.Is(err, ErrEmptyMetadata) {
		t.Fatalf("Get error = %v, want ErrEmptyMetadata", err)
	}
	if c.Len() != 0 {
		t.Errorf("failed build was cached")
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache(4)
	caps := mustCaps(t, "raven")
	metas := make([]*Metadata, 5)
	for i := range metas {
		metas[i] = &Metadata{UserData: []uint32{uint32(i)}}
	}

	first, _ := c.Get(caps, metas[0])
	for _, m := range metas[1:4] {
		c.Get(caps, m)
	}
	// Touch the oldest entry so it survives eviction.
	c.Get(caps, metas[0])
	c.Get(caps, metas[4])

	if c.Len() != 3 {
		t.Fatalf("Len after eviction = %d, want 3", c.Len())
	}
	again, _ := c.Get(caps, metas[0])
	if again != first {
		t.Error("recently used entry was evicted")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d", c.Len())
	}
}

func TestCacheConcurrent(t *testing.T) {
	c := NewCache(16)
	caps := mustCaps(t, "navi14")

	var wg sync.WaitGroup
	results := make([]*ComputePipeline, 32)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := c.Get(caps, fixtureMetadata())
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = p
		}()
	}
	wg.Wait()

	for _, p := range results[1:] {
		if p != results[0] {
			t.Fatal("concurrent Gets built more than one pipeline")
		}
	}
	if st := c.Stats(); st.Misses != 1 || st.Hits != 31 {
		t.Errorf("Stats = %+v, want 1 miss and 31 hits", st)
	}
}
