package allocator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAllocator(t *testing.T) *Allocator {
	t.Helper()
	a, err := New(Config{
		InitialChunk:  64,
		MaxRegionSize: 1 << 20,
		DebugChecks:   true,
	})
	require.NoError(t, err)
	return a
}

func TestNewProducesAnEmptyHeap(t *testing.T) {
	a := newTestAllocator(t)
	stats := a.Stats()
	assert.Equal(t, uint32(0), stats.AllocatedSize)
	assert.Equal(t, 1, stats.FreeBlockCount)
	assert.Equal(t, 1, stats.ExtensionCount)
}

func TestAllocateThenRelease(t *testing.T) {
	a := newTestAllocator(t)

	p, ok := a.Allocate(24)
	require.True(t, ok)
	assert.NotEqual(t, NilPtr, p)

	stats := a.Stats()
	assert.True(t, stats.AllocatedSize > 0)

	a.Release(p)
	stats = a.Stats()
	assert.Equal(t, uint32(0), stats.AllocatedSize)
	assert.Equal(t, 1, stats.FreeBlockCount)
}

func TestAllocateWritesSurviveRelease(t *testing.T) {
	a := newTestAllocator(t)

	p, ok := a.Allocate(32)
	require.True(t, ok)

	buf := a.ToBytes(p, 32)
	for i := range buf {
		buf[i] = byte(i)
	}

	buf = a.ToBytes(p, 32)
	for i, b := range buf {
		assert.Equal(t, byte(i), b)
	}
}

func TestZeroedZeroesPayload(t *testing.T) {
	a := newTestAllocator(t)

	p, ok := a.Allocate(16)
	require.True(t, ok)
	buf := a.ToBytes(p, 16)
	for i := range buf {
		buf[i] = 0xFF
	}
	a.Release(p)

	z, ok := a.Zeroed(4, 8)
	require.True(t, ok)
	for _, b := range a.ToBytes(z, 32) {
		assert.Equal(t, byte(0), b)
	}
}

func TestZeroedOverflowFails(t *testing.T) {
	a := newTestAllocator(t)
	_, ok := a.Zeroed(1<<20, 1<<20)
	assert.False(t, ok)
}

func TestManyAllocationsPassInvariantCheck(t *testing.T) {
	a := newTestAllocator(t)

	var ptrs []Ptr
	for i := 0; i < 200; i++ {
		p, ok := a.Allocate(uint32(8 + i%40))
		require.True(t, ok)
		ptrs = append(ptrs, p)
	}
	for i, p := range ptrs {
		if i%3 == 0 {
			a.Release(p)
		}
	}
	assert.Empty(t, a.Check(0))
}

func TestResizeGrowAndShrink(t *testing.T) {
	a := newTestAllocator(t)

	p, ok := a.Allocate(8)
	require.True(t, ok)
	buf := a.ToBytes(p, 8)
	copy(buf, []byte("deadbeef"))

	grown, ok := a.Resize(p, 200)
	require.True(t, ok)
	assert.Equal(t, []byte("deadbeef"), a.ToBytes(grown, 8))

	shrunk, ok := a.Resize(grown, 4)
	require.True(t, ok)
	assert.Equal(t, []byte("dead"), a.ToBytes(shrunk, 4))

	assert.Empty(t, a.Check(0))
}

func TestAllocateGrowsRegionWhenExhausted(t *testing.T) {
	a := newTestAllocator(t)

	for i := 0; i < 32; i++ {
		_, ok := a.Allocate(64)
		require.True(t, ok)
	}
	assert.Empty(t, a.Check(0))
}

func TestAllocateFailsWhenRegionCapped(t *testing.T) {
	a, err := New(Config{
		InitialChunk:  64,
		MaxRegionSize: 512,
	})
	require.NoError(t, err)

	_, ok := a.Allocate(1 << 20)
	assert.False(t, ok)
}

func TestNewFailsWhenSkeletonDoesNotFit(t *testing.T) {
	_, err := New(Config{
		InitialChunk:  64,
		MaxRegionSize: 64,
	})
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestAllocateZeroReturnsNilSuccessfully(t *testing.T) {
	a := newTestAllocator(t)
	p, ok := a.Allocate(0)
	assert.True(t, ok)
	assert.Equal(t, NilPtr, p)
}

func TestResizeNilActsLikeAllocate(t *testing.T) {
	a := newTestAllocator(t)
	p, ok := a.Resize(NilPtr, 16)
	require.True(t, ok)
	assert.NotEqual(t, NilPtr, p)
	assert.True(t, a.Stats().AllocatedSize > 0)
}

func TestStatsTracksExtensionsAndRequestedSize(t *testing.T) {
	a := newTestAllocator(t)

	before := a.Stats()
	assert.Equal(t, 1, before.ExtensionCount)

	p, ok := a.Allocate(40)
	require.True(t, ok)
	after := a.Stats()
	assert.True(t, after.RequestedSize >= 40)
	assert.True(t, after.AllocatedSize > after.RequestedSize)

	for i := 0; i < 64; i++ {
		_, ok := a.Allocate(64)
		require.True(t, ok)
	}
	grown := a.Stats()
	assert.True(t, grown.ExtensionCount > before.ExtensionCount)

	a.Release(p)
}

func TestResizeToZeroActsLikeRelease(t *testing.T) {
	a := newTestAllocator(t)
	p, ok := a.Allocate(16)
	require.True(t, ok)

	q, ok := a.Resize(p, 0)
	require.True(t, ok)
	assert.Equal(t, NilPtr, q)
	assert.Equal(t, uint32(0), a.Stats().AllocatedSize)
}
