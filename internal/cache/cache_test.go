package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGetRoundTrip(t *testing.T) {
	c := New(true)

	etag := c.Set("k", []byte(`{"a":1}`), time.Minute)
	require.NotEmpty(t, etag)

	data, got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte(`{"a":1}`), data)
	assert.Equal(t, etag, got)
}

func TestGetMissingKey(t *testing.T) {
	c := New(true)
	_, _, ok := c.Get("absent")
	assert.False(t, ok)
}

func TestExpiredEntryNotReturned(t *testing.T) {
	c := New(true)
	c.Set("k", []byte("v"), -time.Second)

	_, _, ok := c.Get("k")
	assert.False(t, ok)
}

func TestDisabledCacheStillComputesETag(t *testing.T) {
	c := New(false)

	etag := c.Set("k", []byte("v"), time.Minute)
	assert.NotEmpty(t, etag, "conditional requests need an ETag even without caching")

	_, _, ok := c.Get("k")
	assert.False(t, ok)
}

func TestETagStableForSameBytes(t *testing.T) {
	assert.Equal(t, ComputeETag([]byte("payload")), ComputeETag([]byte("payload")))
	assert.NotEqual(t, ComputeETag([]byte("a")), ComputeETag([]byte("b")))
}

func TestCheckETagMatch(t *testing.T) {
	etag := ComputeETag([]byte("v"))
	assert.True(t, CheckETagMatch(etag, etag))
	assert.True(t, CheckETagMatch("*", etag))
	assert.False(t, CheckETagMatch("", etag))
	assert.False(t, CheckETagMatch(`W/"other"`, etag))
}

func TestCloseIsIdempotent(t *testing.T) {
	c := New(true)
	c.Close()
	assert.NotPanics(t, c.Close)

	// The cache itself keeps working after Close; only eviction stops.
	c.Set("k", []byte("v"), time.Minute)
	_, _, ok := c.Get("k")
	assert.True(t, ok)
}

func TestStats(t *testing.T) {
	c := New(true)
	c.Set("live", []byte("v"), time.Minute)
	c.Set("dead", []byte("v"), -time.Second)

	stats := c.Stats()
	assert.Equal(t, true, stats["enabled"])
	assert.Equal(t, 2, stats["total_keys"])
	assert.Equal(t, 1, stats["active_keys"])
	assert.Equal(t, 1, stats["expired_keys"])
}
