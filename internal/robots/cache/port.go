package cache

// Cache defines the port interface for robots.txt policy caching.
// This interface follows the port-adapter pattern, allowing different
// cache implementations to be swapped without changing the fetcher logic.
//
// The cache uses simple key-value storage (strings only) to ensure
// flexibility and avoid tight coupling to specific data structures.
// Implementations are responsible for serialization/deserialization,
// for bounding their memory, and for expiring stale entries.
type Cache interface {
	// Get retrieves a value from the cache by key.
	// Returns the cached value and true if found and still fresh, or
	// empty string and false otherwise.
	Get(key string) (string, bool)

	// Put stores a key-value pair in the cache.
	// If the key already exists, the value is overwritten.
	Put(key string, value string)
}
