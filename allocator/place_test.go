package allocator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdjustedSize(t *testing.T) {
	table := []struct {
		name     string
		n        uint32
		expected uint32
	}{
		{name: "zero rounds to minimum", n: 0, expected: MinBlockSize},
		{name: "tiny rounds to minimum", n: 1, expected: MinBlockSize},
		{name: "exactly fills minimum", n: 12, expected: MinBlockSize},
		{name: "just over minimum", n: 13, expected: 24},
		{name: "already aligned payload", n: 24, expected: 32},
	}

	for _, tt := range table {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adjustedSize(tt.n))
		})
	}
}

func TestFindFitDistinguishesBinsWithSpacers(t *testing.T) {
	h := newTestHeap(t, 512, 1<<16)

	small, ok := allocate(h, 16)
	require.True(t, ok)
	spacer1, ok := allocate(h, 8)
	require.True(t, ok)
	big, ok := allocate(h, 80)
	require.True(t, ok)
	spacer2, ok := allocate(h, 8)
	require.True(t, ok)

	releaseBlock(h, small)
	releaseBlock(h, big)

	// small (24 bytes) lands in a lower bin than a 40-byte request needs;
	// findFit must skip past it to big (88 bytes) rather than settling
	// for whatever bin the request's own size maps to.
	p := findFit(h, 40)
	assert.Equal(t, big, p)

	_ = spacer1
	_ = spacer2
}

func TestFindFitBestExitsEarlyOnSufficientSlack(t *testing.T) {
	h := newTestHeap(t, 512, 1<<16)

	a, ok := allocate(h, 32) // adjustedSize(32) == 40
	require.True(t, ok)
	require.Equal(t, uint32(40), h.size(a))
	spacer1, ok := allocate(h, 8)
	require.True(t, ok)
	b, ok := allocate(h, 40) // adjustedSize(40) == 48
	require.True(t, ok)
	require.Equal(t, uint32(48), h.size(b))
	spacer2, ok := allocate(h, 8)
	require.True(t, ok)
	_, _ = spacer1, spacer2

	// LIFO order: releasing a then b puts b at the bin's head with a right
	// behind it, so a scan that visits b first sees slack 48-40=8 < 16 and
	// must commit to b immediately rather than continuing on to the
	// smaller, exact-fit a.
	releaseBlock(h, a)
	releaseBlock(h, b)
	require.Equal(t, b, h.headOf(h.binOf(40)))
	require.Equal(t, a, h.nextFree(b))

	p := findFit(h, 40)
	assert.Equal(t, b, p)
}

func TestPlaceSplitsWhenRemainderIsLargeEnough(t *testing.T) {
	h := newTestHeap(t, 128, 1<<16)

	p, ok := allocate(h, 8)
	require.True(t, ok)
	assert.Equal(t, uint32(MinBlockSize), h.size(p))

	succ := h.succ(p)
	assert.False(t, h.allocated(succ))
	assert.Empty(t, check(h, 0))
}

func TestPlaceDoesNotSplitWhenRemainderTooSmall(t *testing.T) {
	h := newTestHeap(t, 24, 1<<16)

	p, ok := allocate(h, 16)
	require.True(t, ok)
	// The sole 24-byte free block fits a 24-byte request with an 0-byte
	// remainder: no split, the whole block becomes allocated.
	assert.Equal(t, uint32(24), h.size(p))
	assert.True(t, h.isEpilogue(h.succ(p)))
}
