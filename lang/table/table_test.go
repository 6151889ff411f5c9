package table_test

import (
	"fmt"
	"testing"

	"ember/lang/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fnvHash(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

func TestSetGetDelete(t *testing.T) {
	tb := table.New[string, int](fnvHash)
	assert.True(t, tb.Set("a", 1))
	assert.False(t, tb.Set("a", 2), "overwriting an existing key is not new")

	v, ok := tb.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = tb.Get("missing")
	assert.False(t, ok)

	assert.True(t, tb.Delete("a"))
	_, ok = tb.Get("a")
	assert.False(t, ok)
	assert.False(t, tb.Delete("a"), "double delete reports not-found")
}

func TestTombstoneDoesNotBreakProbeChain(t *testing.T) {
	tb := table.New[string, int](fnvHash)
	for i := 0; i < 50; i++ {
		tb.Set(fmt.Sprintf("key%d", i), i)
	}
	// delete every other key, leaving tombstones interleaved with live
	// entries that may share a probe sequence.
	for i := 0; i < 50; i += 2 {
		require.True(t, tb.Delete(fmt.Sprintf("key%d", i)))
	}
	for i := 1; i < 50; i += 2 {
		v, ok := tb.Get(fmt.Sprintf("key%d", i))
		require.True(t, ok, "key%d should survive interleaved deletes", i)
		assert.Equal(t, i, v)
	}
}

func TestGrowPreservesAllEntries(t *testing.T) {
	tb := table.New[string, int](fnvHash)
	const n = 500
	for i := 0; i < n; i++ {
		tb.Set(fmt.Sprintf("k%d", i), i*i)
	}
	assert.Equal(t, n, tb.Count())
	for i := 0; i < n; i++ {
		v, ok := tb.Get(fmt.Sprintf("k%d", i))
		require.True(t, ok)
		assert.Equal(t, i*i, v)
	}
}

func TestDeleteWhereWeakCleanup(t *testing.T) {
	tb := table.New[string, bool](fnvHash)
	tb.Set("live", true)
	tb.Set("dead", false)

	tb.DeleteWhere(func(_ string, reachable bool) bool { return reachable })

	_, ok := tb.Get("live")
	assert.True(t, ok)
	_, ok = tb.Get("dead")
	assert.False(t, ok)
}

func TestCopyInto(t *testing.T) {
	src := table.New[string, int](fnvHash)
	src.Set("a", 1)
	src.Set("b", 2)

	dst := table.New[string, int](fnvHash)
	dst.Set("b", 99) // should be overwritten by the copy
	src.CopyInto(dst)

	v, ok := dst.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	v, ok = dst.Get("b")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestBeforeGrowHookFires(t *testing.T) {
	tb := table.New[string, int](fnvHash)
	fired := 0
	tb.BeforeGrow = func(newCap int) { fired++ }
	for i := 0; i < 20; i++ {
		tb.Set(fmt.Sprintf("k%d", i), i)
	}
	assert.Greater(t, fired, 0)
}
