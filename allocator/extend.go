package allocator

// extend grows the region by at least n bytes (rounded up to Alignment),
// turning the freshly reserved span into a single free block that replaces
// the old epilogue, then immediately coalesces it with whatever the heap's
// previous tail block was. It returns the Ptr of the resulting free block.
func (h *Heap) extend(n uint32) (Ptr, error) {
	size := alignUp(n, Alignment)
	if size < MinBlockSize {
		size = MinBlockSize
	}

	oldHigh := uint32(len(h.region.Bytes()))
	base, ok := h.region.Extend(size)
	if !ok {
		return NilPtr, ErrExhausted
	}
	if base != oldHigh {
		// Region implementations only ever append at the current high
		// water mark; a mismatch means a Region contract violation.
		panic("allocator: region.Extend returned a non-contiguous base")
	}

	newBlock := Ptr(oldHigh - h.anchor)

	// oldHigh - WordSize held the old epilogue header; its prevAllocated
	// bit still accurately describes whatever block used to be last.
	prevAlloc := headerPrevAllocated(h.readWord(oldHigh - WordSize))

	h.writeHeader(newBlock, size, prevAlloc, false)
	h.writeFooter(newBlock, size)

	newHigh := uint32(len(h.region.Bytes()))
	h.writeWord(newHigh-WordSize, packHeader(0, false, true))

	insertFree(h, newBlock)
	h.extensions++
	return coalesce(h, newBlock), nil
}
