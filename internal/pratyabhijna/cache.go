package pratyabhijna

import "sync"

// Cache holds one built Context per session id until explicitly evicted.
// Pratyabhijna context is built once at session start and read many times
// during the session, so callers cache it rather than rebuilding per read.
type Cache struct {
	mu       sync.RWMutex
	contexts map[string]Context
}

// NewCache builds an empty cache.
func NewCache() *Cache {
	return &Cache{contexts: make(map[string]Context)}
}

// Get returns the cached context for sessionID, if any.
func (c *Cache) Get(sessionID string) (Context, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ctx, ok := c.contexts[sessionID]
	return ctx, ok
}

// Put caches ctx under its SessionID.
func (c *Cache) Put(ctx Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.contexts[ctx.SessionID] = ctx
}

// Evict removes the cached context for sessionID, if any.
func (c *Cache) Evict(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.contexts, sessionID)
}

// ClearCache removes every cached context.
func (c *Cache) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.contexts = make(map[string]Context)
}
