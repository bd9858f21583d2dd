package cache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchLoadsOnMissAndCachesOnHit(t *testing.T) {
	calls := 0
	c := New[string](2, nil, nil, nil)

	v, err := c.Fetch("a", func() (string, error) { calls++; return "room-a", nil })
	require.NoError(t, err)
	assert.Equal(t, "room-a", v)

	v, err = c.Fetch("a", func() (string, error) { calls++; return "should-not-load", nil })
	require.NoError(t, err)
	assert.Equal(t, "room-a", v)
	assert.Equal(t, 1, calls)
}

func TestFetchPropagatesLoadError(t *testing.T) {
	c := New[string](2, nil, nil, nil)
	_, err := c.Fetch("a", func() (string, error) { return "", errors.New("disk error") })
	require.Error(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestEvictsLRUTailOverCapacity(t *testing.T) {
	c := New[string](2, nil, nil, nil)
	mustFetch(t, c, "a")
	mustFetch(t, c, "b")
	mustFetch(t, c, "c") // evicts "a"

	assert.Equal(t, 2, c.Len())
	_, ok := c.Peek("a")
	assert.False(t, ok)
	_, ok = c.Peek("b")
	assert.True(t, ok)
	_, ok = c.Peek("c")
	assert.True(t, ok)
}

func TestFetchPromotesToMRUAndProtectsFromEviction(t *testing.T) {
	c := New[string](2, nil, nil, nil)
	mustFetch(t, c, "a")
	mustFetch(t, c, "b")
	// touch "a" so "b" becomes the LRU tail
	mustFetch(t, c, "a")
	mustFetch(t, c, "c") // evicts "b", not "a"

	_, ok := c.Peek("a")
	assert.True(t, ok)
	_, ok = c.Peek("b")
	assert.False(t, ok)
}

func TestNonEvictableEntryIsRePromotedNotEvicted(t *testing.T) {
	locked := map[string]bool{"room-a": true}
	evictable := func(v string) bool { return !locked[v] }
	var evicted []string
	c := New[string](2, evictable, func(key, v string) { evicted = append(evicted, key) }, nil)

	mustFetch(t, c, "a")
	mustFetch(t, c, "b")
	mustFetch(t, c, "c")

	// "a" is the LRU tail but non-evictable, so it is re-promoted to MRU
	// and the next tail, "b", is evicted in its place.
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []string{"b"}, evicted)
	_, ok := c.Peek("a")
	assert.True(t, ok)
}

func TestOnEvictFiresForRemovedEntries(t *testing.T) {
	var evicted []string
	c := New[string](1, nil, func(key, v string) { evicted = append(evicted, key) }, nil)
	mustFetch(t, c, "a")
	mustFetch(t, c, "b")
	assert.Equal(t, []string{"a"}, evicted)
}

func TestReplacePreservesPositionAndDoesNotTriggerOnEvict(t *testing.T) {
	var evicted []string
	c := New[string](5, nil, func(key, v string) { evicted = append(evicted, key) }, nil)
	mustFetch(t, c, "a")
	c.Replace("a", "room-a-v2")

	v, ok := c.Peek("a")
	require.True(t, ok)
	assert.Equal(t, "room-a-v2", v)
	assert.Empty(t, evicted)
}

func TestReloadMergesOldAndFreshValues(t *testing.T) {
	c := New[string](5, nil, nil, nil)
	mustFetch(t, c, "a")

	merged, err := c.Reload("a", func() (string, error) { return "fresh-a", nil },
		func(old, fresh string) string { return old + "+" + fresh })
	require.NoError(t, err)
	assert.Equal(t, "room-a+fresh-a", merged)

	v, _ := c.Peek("a")
	assert.Equal(t, "room-a+fresh-a", v)
}

func TestRemoveDeletesWithoutRunningOnEvict(t *testing.T) {
	var evicted []string
	c := New[string](5, nil, func(key, v string) { evicted = append(evicted, key) }, nil)
	mustFetch(t, c, "a")

	assert.True(t, c.Remove("a"))
	assert.False(t, c.Remove("a"))
	assert.Empty(t, evicted)
}

func mustFetch(t *testing.T, c *Cache[string], key string) {
	t.Helper()
	_, err := c.Fetch(key, func() (string, error) { return "room-" + key, nil })
	require.NoError(t, err)
}
