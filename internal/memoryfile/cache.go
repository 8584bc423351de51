package memoryfile

import "sync"

// Cache is the read-through cache keyed by absolute path. Writes through
// Manager.Append evict their own key on success; the fsnotify watcher
// evicts keys for files edited by some other process.
type Cache struct {
	mu       sync.RWMutex
	contents map[string]string
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{contents: make(map[string]string)}
}

// Get returns the cached content for path, if present.
func (c *Cache) Get(path string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	content, ok := c.contents[path]
	return content, ok
}

// Put stores content for path.
func (c *Cache) Put(path, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.contents[path] = content
}

// Evict drops path's cached content, if any.
func (c *Cache) Evict(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.contents, path)
}
