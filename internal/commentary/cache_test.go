package commentary

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLCache(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewTTLCache[string, int](time.Minute)
	c.now = func() time.Time { return now }

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Set("a", 1)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(59 * time.Second)
	_, ok = c.Get("a")
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok = c.Get("a")
	assert.False(t, ok)

	c.Set("b", 2)
	assert.Equal(t, 1, c.Len(), "expired entries are swept on write")

	c.Invalidate()
	assert.Equal(t, 0, c.Len())
}

func TestTTLCache_Disabled(t *testing.T) {
	c := NewTTLCache[string, int](0)
	c.Set("a", 1)
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}
