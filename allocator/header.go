package allocator

// Ptr addresses a block's payload as an offset, in bytes, from the heap's
// anchor (the prologue block's own address). It stands in for a raw
// pointer: the anchor can move when a SliceRegion reallocates, but every
// Ptr the allocator hands out stays valid across that move because it is
// relative, not absolute.
type Ptr uint32

// NilPtr is the sentinel "no block" value. It is safe to reuse offset 0 for
// this purpose because offset 0 names the prologue's own address, and the
// prologue is permanently allocated, so it is never inserted into a free
// list and never returned by Allocate.
const NilPtr Ptr = 0

const (
	allocBit     uint32 = 1 << 0
	prevAllocBit uint32 = 1 << 1
	sizeMask     uint32 = ^uint32(Alignment - 1)
)

// packHeader packs a block's size, prevAllocated flag and allocated flag
// into the 32-bit word stored at the block's header, and, for free blocks,
// mirrored at its footer via packFooter.
func packHeader(size uint32, prevAllocated, allocated bool) uint32 {
	word := size & sizeMask
	if prevAllocated {
		word |= prevAllocBit
	}
	if allocated {
		word |= allocBit
	}
	return word
}

// packFooter packs a free block's footer. A footer never records a
// prevAllocated bit of its own: only its size and allocated state, both of
// which must mirror the block's header.
func packFooter(size uint32, allocated bool) uint32 {
	return packHeader(size, false, allocated)
}

func headerSize(word uint32) uint32 {
	return word & sizeMask
}

func headerAllocated(word uint32) bool {
	return word&allocBit != 0
}

func headerPrevAllocated(word uint32) bool {
	return word&prevAllocBit != 0
}

// withSizeAllocated rewrites the size and allocated bits of an existing
// header word, preserving whatever prevAllocated bit it already carried.
// This is the "preserving" write the placement and resize engines rely on
// when transitioning a block between free and allocated without disturbing
// what its header already knows about its predecessor.
func withSizeAllocated(word uint32, size uint32, allocated bool) uint32 {
	word = (word &^ sizeMask) | (size & sizeMask)
	if allocated {
		word |= allocBit
	} else {
		word &^= allocBit
	}
	return word
}

func withPrevAllocated(word uint32, prevAllocated bool) uint32 {
	if prevAllocated {
		return word | prevAllocBit
	}
	return word &^ prevAllocBit
}
