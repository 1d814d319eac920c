package allocator

import "encoding/binary"

// Heap owns the segregated-list, boundary-tag heap laid out inside a
// Region. All addressing is relative to anchor, the buffer index of the
// prologue's own block pointer (Ptr(0)). Every other address the heap
// hands out or stores is a Ptr — an offset from anchor — never a raw slice
// index, so the heap keeps working correctly across a Region growth that
// relocates the backing array.
type Heap struct {
	region Region
	anchor uint32
	sizes  [NBins]uint32

	initialChunk uint32
	fitPolicy    FitPolicy
	insertPolicy InsertPolicy

	viewHeap     bool
	viewFreeList bool
	extensions   int
}

const (
	// arraysWords is the word count of the three parallel seglist arrays
	// (head offsets, tail offsets, bin bounds).
	arraysWords = 3 * NBins
	// skeletonWords is arraysWords plus the four words described in
	// SPEC_FULL.md §4.2: padding, prologue header, prologue footer,
	// epilogue header.
	skeletonWords = arraysWords + 4

	// prologueSize is the size, in bytes, of the synthetic prologue
	// block: a header word and a footer word, no payload.
	prologueSize = 2 * WordSize
)

// newHeap reserves the skeleton from region and installs the prologue,
// epilogue and empty seglist arrays, then extends the region by
// cfg.InitialChunk bytes to seed the first free block.
func newHeap(region Region, cfg Config) (*Heap, error) {
	skeletonBytes := alignUp(skeletonWords*WordSize, Alignment)
	base, ok := region.Extend(skeletonBytes)
	if !ok {
		return nil, ErrExhausted
	}

	h := &Heap{
		region:       region,
		anchor:       base + arraysWords*WordSize + 2*WordSize,
		sizes:        binSizes(),
		initialChunk: cfg.InitialChunk,
		fitPolicy:    cfg.FitPolicy,
		insertPolicy: cfg.InsertPolicy,
		viewHeap:     cfg.ViewHeap,
		viewFreeList: cfg.ViewFreeList,
	}

	buf := region.Bytes()
	for i := 0; i < arraysWords; i++ {
		binary.LittleEndian.PutUint32(buf[base+uint32(i)*WordSize:], 0)
	}
	for i, bound := range h.sizes {
		off := base + (2*NBins+uint32(i))*WordSize
		binary.LittleEndian.PutUint32(buf[off:], bound)
	}

	prologueHeaderIdx := base + arraysWords*WordSize + WordSize
	binary.LittleEndian.PutUint32(buf[prologueHeaderIdx:], packHeader(prologueSize, false, true))
	binary.LittleEndian.PutUint32(buf[h.anchor:], packFooter(prologueSize, true))
	epilogueIdx := h.anchor + WordSize
	binary.LittleEndian.PutUint32(buf[epilogueIdx:], packHeader(0, true, true))

	if _, err := h.extend(cfg.InitialChunk); err != nil {
		return nil, err
	}
	return h, nil
}

func alignUp(n, align uint32) uint32 {
	return (n + align - 1) &^ (align - 1)
}

// bufIndex converts a Ptr into an absolute index into the region's current
// backing slice.
func (h *Heap) bufIndex(p Ptr) uint32 {
	return h.anchor + uint32(p)
}

func (h *Heap) hdrIndex(p Ptr) uint32 {
	return h.bufIndex(p) - WordSize
}

func (h *Heap) ftrIndex(p Ptr, size uint32) uint32 {
	return h.hdrIndex(p) + size - WordSize
}

func (h *Heap) readWord(idx uint32) uint32 {
	return binary.LittleEndian.Uint32(h.region.Bytes()[idx:])
}

func (h *Heap) writeWord(idx uint32, v uint32) {
	binary.LittleEndian.PutUint32(h.region.Bytes()[idx:], v)
}

// header returns the raw header word of the block at p.
func (h *Heap) header(p Ptr) uint32 { return h.readWord(h.hdrIndex(p)) }

// footer returns the raw footer word of the free block at p, whose size is
// size.
func (h *Heap) footer(p Ptr, size uint32) uint32 { return h.readWord(h.ftrIndex(p, size)) }

// size returns a block's size in bytes, read from its header.
func (h *Heap) size(p Ptr) uint32 { return headerSize(h.header(p)) }

// allocated reports a block's allocated bit.
func (h *Heap) allocated(p Ptr) bool { return headerAllocated(h.header(p)) }

// prevAllocated reports whether the block immediately preceding p is
// allocated, read from p's own header (the whole point of the bit).
func (h *Heap) prevAllocated(p Ptr) bool { return headerPrevAllocated(h.header(p)) }

// succ returns the block physically following p.
func (h *Heap) succ(p Ptr) Ptr { return p + Ptr(h.size(p)) }

// pred returns the block physically preceding p. Only valid when
// !prevAllocated(p): only then is pred guaranteed to carry a footer.
func (h *Heap) pred(p Ptr) Ptr {
	predSize := headerSize(h.readWord(h.hdrIndex(p) - WordSize))
	return p - Ptr(predSize)
}

// isEpilogue reports whether p is the sentinel zero-size block at the
// heap's current high-water mark.
func (h *Heap) isEpilogue(p Ptr) bool {
	return h.bufIndex(p) == uint32(len(h.region.Bytes()))
}

// writeHeader fully rewrites a block's header.
func (h *Heap) writeHeader(p Ptr, size uint32, prevAllocated, allocated bool) {
	h.writeWord(h.hdrIndex(p), packHeader(size, prevAllocated, allocated))
}

// writeHeaderPreservingPrevAlloc rewrites only the size and allocated bits
// of a block's header, leaving whatever prevAllocated bit it already
// carried untouched. Essential on free<->alloc transitions where the
// predecessor's state has not changed.
func (h *Heap) writeHeaderPreservingPrevAlloc(p Ptr, size uint32, allocated bool) {
	idx := h.hdrIndex(p)
	h.writeWord(idx, withSizeAllocated(h.readWord(idx), size, allocated))
}

// writeFooter writes a free block's footer.
func (h *Heap) writeFooter(p Ptr, size uint32) {
	h.writeWord(h.ftrIndex(p, size), packFooter(size, false))
}

// setSuccPrevAllocated sets or clears the prevAllocated bit of the block
// immediately following p.
func (h *Heap) setSuccPrevAllocated(p Ptr, prevAllocated bool) {
	succ := h.succ(p)
	idx := h.hdrIndex(succ)
	h.writeWord(idx, withPrevAllocated(h.readWord(idx), prevAllocated))
}

// nextFree and prevFree read a free block's intrusive doubly linked list
// siblings, stored at payload offsets 0 and 4.
func (h *Heap) nextFree(p Ptr) Ptr { return Ptr(h.readWord(h.bufIndex(p))) }
func (h *Heap) prevFree(p Ptr) Ptr { return Ptr(h.readWord(h.bufIndex(p) + WordSize)) }

func (h *Heap) setNextFree(p Ptr, v Ptr) { h.writeWord(h.bufIndex(p), uint32(v)) }
func (h *Heap) setPrevFree(p Ptr, v Ptr) { h.writeWord(h.bufIndex(p)+WordSize, uint32(v)) }

// binOf returns the bin index a block of the given size belongs in.
func (h *Heap) binOf(size uint32) int { return binOf(h.sizes, size) }

func (h *Heap) headArrayIndex(bin int) uint32 { return h.arraysBase() + uint32(bin)*WordSize }
func (h *Heap) tailArrayIndex(bin int) uint32 { return h.arraysBase() + (NBins+uint32(bin))*WordSize }

func (h *Heap) arraysBase() uint32 { return h.anchor - arraysWords*WordSize - 2*WordSize }

func (h *Heap) headOf(bin int) Ptr    { return Ptr(h.readWord(h.headArrayIndex(bin))) }
func (h *Heap) tailOf(bin int) Ptr    { return Ptr(h.readWord(h.tailArrayIndex(bin))) }
func (h *Heap) setHeadOf(bin int, p Ptr) { h.writeWord(h.headArrayIndex(bin), uint32(p)) }
func (h *Heap) setTailOf(bin int, p Ptr) { h.writeWord(h.tailArrayIndex(bin), uint32(p)) }

// bytes returns a slice view over a block's payload, valid until the next
// call that may grow the region.
func (h *Heap) bytes(p Ptr, length uint32) []byte {
	idx := h.bufIndex(p)
	return h.region.Bytes()[idx : idx+length]
}

// firstBlock returns the Ptr of the block immediately after the prologue,
// the starting point of a heap walk.
func (h *Heap) firstBlock() Ptr { return h.succ(NilPtr) }
