package allocator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCleanHeapHasNoDiagnostics(t *testing.T) {
	h := newTestHeap(t, 256, 1<<16)

	p, ok := allocate(h, 16)
	require.True(t, ok)
	q, ok := allocate(h, 32)
	require.True(t, ok)
	releaseBlock(h, p)
	_ = q

	assert.Empty(t, check(h, 0))
}

func TestCheckReportsMissedCoalesce(t *testing.T) {
	h := newTestHeap(t, 256, 1<<16)

	p, ok := allocate(h, 16)
	require.True(t, ok)
	q, ok := allocate(h, 16)
	require.True(t, ok)

	// Mark both free without going through releaseBlock, so the missed
	// coalesce between two adjacent free blocks survives the check.
	size := h.size(p)
	h.writeHeaderPreservingPrevAlloc(p, size, false)
	h.writeFooter(p, size)
	insertFree(h, p)

	size = h.size(q)
	h.writeHeaderPreservingPrevAlloc(q, size, false)
	h.writeFooter(q, size)
	h.setSuccPrevAllocated(p, false)
	insertFree(h, q)

	diags := check(h, 7)
	require.NotEmpty(t, diags)
	found := false
	for _, d := range diags {
		if d.Line != 7 {
			t.Fatalf("diagnostic carried the wrong line hint: %+v", d)
		}
		if containsSubstring(d.Message, "missed coalesce") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCheckReportsFreeBlockNotInList(t *testing.T) {
	h := newTestHeap(t, 128, 1<<16)

	p, ok := allocate(h, 16)
	require.True(t, ok)
	size := h.size(p)
	h.writeHeaderPreservingPrevAlloc(p, size, false)
	h.writeFooter(p, size)
	h.setSuccPrevAllocated(p, false)
	// Deliberately skip insertFree: the block is free but absent from
	// every bin's list.

	diags := check(h, 0)
	assert.NotEmpty(t, diags)
}

func TestCheckReportsHeadWithNonNilPrev(t *testing.T) {
	h := newTestHeap(t, 128, 1<<16)

	p, ok := allocate(h, 16)
	require.True(t, ok)
	releaseBlock(h, p)

	bin := h.binOf(h.size(p))
	require.Equal(t, p, h.headOf(bin))
	h.setPrevFree(p, Ptr(123)) // corrupt: the head must have prev == NIL

	diags := check(h, 0)
	found := false
	for _, d := range diags {
		if containsSubstring(d.Message, "non-NIL prev") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCheckReportsTailMismatch(t *testing.T) {
	h := newTestHeap(t, 128, 1<<16)

	p, ok := allocate(h, 16)
	require.True(t, ok)
	releaseBlock(h, p)

	bin := h.binOf(h.size(p))
	require.Equal(t, p, h.tailOf(bin))
	h.setTailOf(bin, Ptr(123)) // corrupt: forward walk still ends at p, not 123

	diags := check(h, 0)
	found := false
	for _, d := range diags {
		if containsSubstring(d.Message, "tail points at") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCheckViewHeapAppendsInfoSeverityDump(t *testing.T) {
	h := newTestHeap(t, 128, 1<<16)
	h.viewHeap = true

	p, ok := allocate(h, 16)
	require.True(t, ok)
	_ = p

	diags := check(h, 0)
	require.NotEmpty(t, diags)
	for _, d := range diags {
		assert.Equal(t, SeverityInfo, d.Severity)
	}
}

func TestCheckViewFreeListAppendsInfoSeverityDump(t *testing.T) {
	h := newTestHeap(t, 128, 1<<16)
	h.viewFreeList = true

	diags := check(h, 0)
	require.NotEmpty(t, diags)
	for _, d := range diags {
		assert.Equal(t, SeverityInfo, d.Severity)
	}
}

func containsSubstring(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
