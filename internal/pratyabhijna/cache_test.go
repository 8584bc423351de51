package pratyabhijna_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sriinnu/chitragupta/internal/pratyabhijna"
)

func TestCachePutGetEvict(t *testing.T) {
	c := pratyabhijna.NewCache()
	c.Put(pratyabhijna.Context{SessionID: "sess-1", Project: "projA"})

	got, ok := c.Get("sess-1")
	assert.True(t, ok)
	assert.Equal(t, "projA", got.Project)

	c.Evict("sess-1")
	_, ok = c.Get("sess-1")
	assert.False(t, ok)
}

func TestCacheClearCache(t *testing.T) {
	c := pratyabhijna.NewCache()
	c.Put(pratyabhijna.Context{SessionID: "sess-1"})
	c.Put(pratyabhijna.Context{SessionID: "sess-2"})
	c.ClearCache()

	_, ok := c.Get("sess-1")
	assert.False(t, ok)
	_, ok = c.Get("sess-2")
	assert.False(t, ok)
}
