// Package cachelayer holds the two read-mostly caches §5 calls out as
// shared per-run resources: the Sun ephemeris (recomputed only when the
// instant changes) and a bounded LRU of parsed vector layers, read once
// per path and read-only after insertion.
package cachelayer

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/lanot-mx/ceniza/internal/solar"
)

// EphemerisCache memoizes the single most recent solar.Ephemeris
// computation, since every pixel of a moment shares one ephemeris and
// consecutive moments in a range are usually minutes apart.
type EphemerisCache struct {
	mu   sync.Mutex
	at   time.Time
	eph  solar.Ephemeris
	have bool
}

// Get returns the cached ephemeris for t if present, else computes,
// caches, and returns a fresh one.
func (c *EphemerisCache) Get(t time.Time) solar.Ephemeris {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.have && c.at.Equal(t) {
		return c.eph
	}
	c.eph = solar.ComputeEphemeris(t)
	c.at = t
	c.have = true
	return c.eph
}

// VectorLayerCache bounds the number of parsed vector layers kept
// in memory, evicting least-recently-used entries. Each path is read and
// parsed once; the cached value is read-only after insertion, so no
// additional locking around the Value itself is required.
type VectorLayerCache[V any] struct {
	cache *lru.Cache[string, V]
}

// NewVectorLayerCache creates a cache holding up to size entries.
func NewVectorLayerCache[V any](size int) (*VectorLayerCache[V], error) {
	c, err := lru.New[string, V](size)
	if err != nil {
		return nil, err
	}
	return &VectorLayerCache[V]{cache: c}, nil
}

// GetOrLoad returns the cached value for path, calling load and caching
// its result on a miss.
func (c *VectorLayerCache[V]) GetOrLoad(path string, load func(string) (V, error)) (V, error) {
	if v, ok := c.cache.Get(path); ok {
		return v, nil
	}
	v, err := load(path)
	if err != nil {
		var zero V
		return zero, err
	}
	c.cache.Add(path, v)
	return v, nil
}
