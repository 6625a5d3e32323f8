package cache_test

import (
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU_GetAfterSet(t *testing.T) {
	c := cache.NewLRU[string, int](3)
	c.Set("a", 1)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := cache.NewLRU[string, int](3)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)
	c.Set("d", 4)

	assert.Equal(t, 3, c.Len())
	assert.False(t, c.Has("a"), "oldest key is evicted")
	_, ok := c.Get("a")
	assert.False(t, ok)
	for _, k := range []string{"b", "c", "d"} {
		assert.True(t, c.Has(k), k)
	}
}

func TestLRU_GetProtectsFromEviction(t *testing.T) {
	c := cache.NewLRU[string, int](3)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	_, _ = c.Get("a")
	c.Set("d", 4)

	assert.True(t, c.Has("a"))
	assert.False(t, c.Has("b"), "b became least recently used")
}

func TestLRU_SetExistingUpdatesAndPromotes(t *testing.T) {
	c := cache.NewLRU[string, int](2)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 10)
	c.Set("c", 3)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 10, v)
	assert.False(t, c.Has("b"))
	assert.Equal(t, 2, c.Len())
}

func TestLRU_HasDoesNotPromote(t *testing.T) {
	c := cache.NewLRU[string, int](2)
	c.Set("a", 1)
	c.Set("b", 2)

	assert.True(t, c.Has("a"))
	c.Set("c", 3)

	assert.False(t, c.Has("a"))
}

func TestLRU_EvictionCallbackFiresOncePerInsert(t *testing.T) {
	c := cache.NewLRU[int, string](2)
	var evicted []int
	c.OnEvict(func(k int, _ string) { evicted = append(evicted, k) })

	for i := 0; i < 5; i++ {
		c.Set(i, fmt.Sprint(i))
	}
	c.Delete(4)
	c.Clear()

	assert.Equal(t, []int{0, 1, 2}, evicted)
}

func TestLRU_DeleteAndClear(t *testing.T) {
	c := cache.NewLRU[string, string](4)
	c.Set("a", "x")
	c.Set("b", "y")

	assert.True(t, c.Delete("a"))
	assert.False(t, c.Delete("a"))
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 4, c.Capacity())
}

func TestLRU_KeysInRecencyOrder(t *testing.T) {
	c := cache.NewLRU[string, int](3)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)
	_, _ = c.Get("a")

	assert.Equal(t, []string{"a", "c", "b"}, c.Keys())

	var replay []string
	c.Entries(func(k string, _ int) { replay = append(replay, k) })
	assert.Equal(t, []string{"b", "c", "a"}, replay)
}

func TestLRU_MemoryUsage(t *testing.T) {
	c := cache.NewLRU[string, string](4)
	assert.Zero(t, c.MemoryUsage())

	c.Set("k", "value")
	small := c.MemoryUsage()
	c.Set("k2", "a much longer value than before")

	assert.Positive(t, small)
	assert.Greater(t, c.MemoryUsage(), small)
}

func TestLRU_MinimumCapacity(t *testing.T) {
	c := cache.NewLRU[string, int](0)
	c.Set("a", 1)
	c.Set("b", 2)

	assert.Equal(t, 1, c.Capacity())
	assert.Equal(t, []string{"b"}, c.Keys())
}
