package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetReturnsStoredPayload(t *testing.T) {
	c := NewExtractCache(time.Minute, 8)
	c.Set("k1", []byte("payload"))

	got, ok := c.Get("k1")
	require.True(t, ok)
	assert.Equal(t, []byte("payload"), got)
}

func TestGetMissesAfterTTL(t *testing.T) {
	c := NewExtractCache(time.Minute, 8)
	now := time.Now()
	c.SetClock(func() time.Time { return now })

	c.Set("k1", []byte("payload"))

	now = now.Add(59 * time.Second)
	_, ok := c.Get("k1")
	assert.True(t, ok, "entry should still be live just before the TTL")

	now = now.Add(2 * time.Second)
	_, ok = c.Get("k1")
	assert.False(t, ok, "entry must not be served past its expiry")
	assert.Equal(t, 0, c.Len(), "expired entry is removed on access")
}

func TestCapacityEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewExtractCache(time.Minute, 3)
	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))
	c.Set("c", []byte("3"))

	// Touching "a" protects it from the next eviction.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("d", []byte("4"))

	assert.Equal(t, 3, c.Len())
	_, ok = c.Get("b")
	assert.False(t, ok, "least-recently-used key must be the one evicted")
	for _, key := range []string{"a", "c", "d"} {
		_, ok := c.Get(key)
		assert.True(t, ok, "key %s should survive", key)
	}
}

func TestCapacityEvictsExactlyOne(t *testing.T) {
	const max = 4
	c := NewExtractCache(time.Minute, max)
	for i := 0; i < max+1; i++ {
		c.Set(fmt.Sprintf("k%d", i), []byte("v"))
	}

	assert.Equal(t, max, c.Len())
	_, ok := c.Get("k0")
	assert.False(t, ok)
	_, ok = c.Get("k1")
	assert.True(t, ok)
}

func TestSetUpdatesExistingKey(t *testing.T) {
	c := NewExtractCache(time.Minute, 2)
	c.Set("k1", []byte("old"))
	c.Set("k1", []byte("new"))

	assert.Equal(t, 1, c.Len())
	got, ok := c.Get("k1")
	require.True(t, ok)
	assert.Equal(t, []byte("new"), got)
}

func TestConfigureShrinksAndPrunes(t *testing.T) {
	c := NewExtractCache(time.Minute, 8)
	now := time.Now()
	c.SetClock(func() time.Time { return now })

	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("k%d", i), []byte("v"))
	}

	c.Configure(time.Minute, 2)
	assert.Equal(t, 2, c.Len(), "configure must enforce the new capacity")

	now = now.Add(2 * time.Minute)
	c.Configure(time.Minute, 2)
	assert.Equal(t, 0, c.Len(), "configure must drop expired entries")
}

func TestHitCountIncrements(t *testing.T) {
	c := NewExtractCache(time.Minute, 8)
	c.Set("k1", []byte("v"))

	for i := 0; i < 3; i++ {
		_, ok := c.Get("k1")
		require.True(t, ok)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	item := c.items["k1"].Value.(*cacheItem)
	assert.Equal(t, 3, item.entry.HitCount)
}

func TestReset(t *testing.T) {
	c := NewExtractCache(time.Minute, 8)
	c.Set("k1", []byte("v"))
	c.Reset()

	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("k1")
	assert.False(t, ok)
}
