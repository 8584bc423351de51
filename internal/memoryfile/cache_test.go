package memoryfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheGetMissing(t *testing.T) {
	c := NewCache()
	_, ok := c.Get("/nope")
	assert.False(t, ok)
}

func TestCachePutAndGet(t *testing.T) {
	c := NewCache()
	c.Put("/path", "content")
	v, ok := c.Get("/path")
	assert.True(t, ok)
	assert.Equal(t, "content", v)
}

func TestCacheEvict(t *testing.T) {
	c := NewCache()
	c.Put("/path", "content")
	c.Evict("/path")
	_, ok := c.Get("/path")
	assert.False(t, ok)
}
