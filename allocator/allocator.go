// Package allocator implements a general-purpose dynamic memory allocator
// over a flat byte Region: segregated free lists, boundary-tag headers and
// footers with a prevAllocated bit that elides footers on allocated
// blocks, best-fit placement, immediate coalescing, in-place resize, and
// 32-bit pointer compression relative to a fixed anchor address.
package allocator

import "fmt"

// Allocator is the public entry point. It is not safe for concurrent use
// without external synchronization; callers running it from multiple
// goroutines must hold their own lock around every method call.
type Allocator struct {
	heap        *Heap
	debugChecks bool
}

// New builds an Allocator backed by cfg.Region (or a fresh region of the
// requested Config.RegionKind when cfg.Region is nil), reserving the
// skeleton and an initial free chunk. It returns ErrExhausted if even the
// skeleton and initial chunk don't fit within Config.MaxRegionSize.
func New(cfg Config) (*Allocator, error) {
	cfg = cfg.withDefaults()
	cfg.validate()

	region := cfg.Region
	if region == nil {
		var err error
		region, err = newDefaultRegion(cfg)
		if err != nil {
			return nil, err
		}
	}

	h, err := newHeap(region, cfg)
	if err != nil {
		return nil, err
	}
	a := &Allocator{heap: h, debugChecks: cfg.DebugChecks}
	a.selfCheck()
	return a, nil
}

// selfCheck panics with the first diagnostic found when debugChecks is
// enabled. It is a programmer-error detector for use in tests and
// development builds, not a recovery mechanism: once it fires the heap is
// already corrupt.
func (a *Allocator) selfCheck() {
	if !a.debugChecks {
		return
	}
	for _, d := range check(a.heap, 0) {
		if d.Severity == SeverityError {
			panic("allocator: invariant violated: " + d.String())
		}
	}
}

func newDefaultRegion(cfg Config) (Region, error) {
	switch cfg.RegionKind {
	case RegionMmap:
		if !mmapAvailable {
			return NewSliceRegion(cfg.MaxRegionSize), nil
		}
		return NewMmapRegion(cfg.MaxRegionSize)
	default:
		return NewSliceRegion(cfg.MaxRegionSize), nil
	}
}

// Allocate reserves at least n bytes and returns a Ptr to the payload. ok
// is false only when the region could not be grown far enough to satisfy
// the request; NilPtr, false in that case.
func (a *Allocator) Allocate(n uint32) (Ptr, bool) {
	p, ok := allocate(a.heap, n)
	a.selfCheck()
	return p, ok
}

// Release returns the block at ptr to its free list, coalescing it with
// any free physical neighbours. Releasing NilPtr is a no-op. Releasing an
// already-free block corrupts the heap; callers own that invariant,
// exactly as with free(3).
func (a *Allocator) Release(ptr Ptr) {
	if ptr == NilPtr {
		return
	}
	releaseBlock(a.heap, ptr)
	a.selfCheck()
}

// Resize changes the usable size of the block at ptr to n bytes, growing
// or shrinking in place where possible and falling back to allocate+copy+
// release otherwise. ok is false only when growth required a new block
// and the region was exhausted; ptr is left untouched in that case.
func (a *Allocator) Resize(ptr Ptr, n uint32) (Ptr, bool) {
	p, ok := resize(a.heap, ptr, n)
	a.selfCheck()
	return p, ok
}

// Zeroed allocates room for count elements of size bytes each and
// zero-fills the payload, mirroring calloc. It reports an overflow in the
// count*size multiplication as ok=false without touching the heap.
func (a *Allocator) Zeroed(count, size uint32) (Ptr, bool) {
	total := uint64(count) * uint64(size)
	if total > uint64(^uint32(0)) {
		return NilPtr, false
	}
	n := uint32(total)

	ptr, ok := allocate(a.heap, n)
	if !ok {
		return NilPtr, false
	}
	buf := a.heap.bytes(ptr, n)
	for i := range buf {
		buf[i] = 0
	}
	a.selfCheck()
	return ptr, true
}

// Check walks the heap and its free lists looking for invariant
// violations, returning one Diagnostic per problem found. lineHint is
// carried into every Diagnostic unchanged, letting a trace driver report
// which trace line produced a corrupt heap; pass 0 when there is none.
func (a *Allocator) Check(lineHint int) []Diagnostic {
	return check(a.heap, lineHint)
}

// Stats reports point-in-time occupancy of the region.
func (a *Allocator) Stats() Stats {
	return computeStats(a.heap)
}

// ToBytes returns a slice view over ptr's payload, valid until the next
// call that may grow the backing region (Allocate, Resize, Zeroed).
// Callers must not retain it across such a call.
func (a *Allocator) ToBytes(ptr Ptr, length uint32) []byte {
	return a.heap.bytes(ptr, length)
}

// Stats summarizes the state of an Allocator's region at the moment it was
// read. RequestedSize is the sum of live payload capacity (block size
// minus header overhead), not the exact byte counts passed to Allocate:
// the heap never retains a block's original request, only its rounded
// size, so RequestedSize measures usable space rather than the original
// ask. The gap between RequestedSize and AllocatedSize is pure header
// overhead; the gap between AllocatedSize and TotalSize is fragmentation.
type Stats struct {
	TotalSize      uint32
	AllocatedSize  uint32
	RequestedSize  uint32
	FreeBlockCount int
	ExtensionCount int
}

func (s Stats) String() string {
	return fmt.Sprintf("total=%d allocated=%d requested=%d freeBlocks=%d extensions=%d",
		s.TotalSize, s.AllocatedSize, s.RequestedSize, s.FreeBlockCount, s.ExtensionCount)
}

func computeStats(h *Heap) Stats {
	var s Stats
	s.TotalSize = uint32(len(h.region.Bytes()))
	s.ExtensionCount = h.extensions

	heapHigh := Ptr(s.TotalSize - h.anchor)
	for p := h.firstBlock(); p < heapHigh; p = h.succ(p) {
		size := h.size(p)
		if size == 0 {
			break
		}
		if h.allocated(p) {
			s.AllocatedSize += size
			s.RequestedSize += size - WordSize
		} else {
			s.FreeBlockCount++
		}
	}
	return s
}
