package generate

import (
	"sync"
	"time"

	"github.com/vybelabs/numen/pkg/model"
)

// scoreCache keeps precomputed fragment rank scores per
// (persona, pair, tag) with a TTL. Stale entries are recomputed, never
// served past expiry.
type scoreCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]*scoreCacheEntry
}

type scoreCacheEntry struct {
	scores  map[model.FragmentID]float64
	expires time.Time
}

func newScoreCache(ttl time.Duration) *scoreCache {
	return &scoreCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*scoreCacheEntry),
	}
}

func (c *scoreCache) get(key string) (map[model.FragmentID]float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.scores, true
}

func (c *scoreCache) put(key string, scores map[model.FragmentID]float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &scoreCacheEntry{
		scores:  scores,
		expires: c.now().Add(c.ttl),
	}
}
