package cache

import (
	"sync"
	"time"

	"github.com/jedisct1/go-sieve-cache/pkg/sievecache"
)

const defaultCapacity = 1024

// MemoryCache is a bounded in-memory implementation of the Cache
// interface backed by a SIEVE cache, so a long run against many hosts
// evicts the policies it no longer visits instead of growing without
// limit. Entries older than the configured TTL are treated as absent;
// a TTL of zero disables expiry.
//
// The adapter stores values as plain strings without any persistence.
type MemoryCache struct {
	mu    sync.Mutex
	store *sievecache.SieveCache[string, entry]
	ttl   time.Duration

	// test seam; nil means time.Now
	now func() time.Time
}

type entry struct {
	value    string
	storedAt time.Time
}

// NewMemoryCache creates an in-memory cache bounded to capacity entries
// with the given TTL. A non-positive capacity falls back to a default;
// a non-positive TTL means entries never expire.
func NewMemoryCache(capacity int, ttl time.Duration) *MemoryCache {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	store, err := sievecache.New[string, entry](capacity)
	if err != nil {
		// Only reachable with an invalid capacity, which is handled above.
		panic(err)
	}
	return &MemoryCache{
		store: store,
		ttl:   ttl,
	}
}

// Get retrieves a value from the cache by key. Expired entries are
// removed on access and reported as missing.
func (c *MemoryCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.store.Get(key)
	if !ok {
		return "", false
	}
	if c.ttl > 0 && c.timeNow().Sub(e.storedAt) > c.ttl {
		c.store.Remove(key)
		return "", false
	}
	return e.value, true
}

// Put stores a key-value pair, evicting a cold entry when the cache is
// at capacity.
func (c *MemoryCache) Put(key string, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.Insert(key, entry{value: value, storedAt: c.timeNow()})
}

// Size returns the number of stored entries; expired entries that have not
// been accessed since they expired are still counted. Primarily useful for
// testing and diagnostics.
func (c *MemoryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.store.Len()
}

// Clear removes all entries. Primarily useful for testing.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.Clear()
}

func (c *MemoryCache) timeNow() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}
