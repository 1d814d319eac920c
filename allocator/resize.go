package allocator

// capacity returns the usable payload bytes of an allocated block: its
// total size minus the header word. An allocated block never writes a
// footer, so that word is reclaimed as payload rather than sitting idle.
func capacity(h *Heap, p Ptr) uint32 {
	return h.size(p) - WordSize
}

// resize implements in-place growth and shrinkage with a copying fallback,
// mirroring realloc semantics. It returns NilPtr, false only when growth
// requires a new block and the region is exhausted.
func resize(h *Heap, p Ptr, n uint32) (Ptr, bool) {
	if p == NilPtr {
		return allocate(h, n)
	}
	if n == 0 {
		releaseBlock(h, p)
		return NilPtr, true
	}

	asize := adjustedSize(n)
	cur := h.size(p)

	if asize <= cur {
		shrinkInPlace(h, p, asize, cur)
		return p, true
	}

	succ := h.succ(p)
	succFree := !h.isEpilogue(succ) && !h.allocated(succ)
	if succFree && cur+h.size(succ) >= asize {
		growIntoSuccessor(h, p, asize, cur, succ)
		return p, true
	}

	fresh, ok := allocate(h, n)
	if !ok {
		return NilPtr, false
	}
	oldPayload := capacity(h, p)
	newPayload := capacity(h, fresh)
	toCopy := oldPayload
	if newPayload < toCopy {
		toCopy = newPayload
	}
	if n < toCopy {
		toCopy = n
	}
	copy(h.bytes(fresh, toCopy), h.bytes(p, toCopy))
	releaseBlock(h, p)
	return fresh, true
}

// shrinkInPlace keeps p at asize, splitting the freed tail off as a new
// free block (coalesced with whatever follows) when there's enough of it
// to be worth splitting.
func shrinkInPlace(h *Heap, p Ptr, asize, cur uint32) {
	remainder := cur - asize
	if remainder < MinBlockSize {
		return
	}

	h.writeHeaderPreservingPrevAlloc(p, asize, true)
	rest := h.succ(p)
	h.writeHeader(rest, remainder, true, false)
	h.writeFooter(rest, remainder)
	h.setSuccPrevAllocated(rest, false)
	insertFree(h, rest)
	coalesce(h, rest)
}

// growIntoSuccessor absorbs all or part of a free successor block into p to
// satisfy asize, splitting off whatever remains of the successor if enough
// survives to form a new free block.
func growIntoSuccessor(h *Heap, p Ptr, asize, cur uint32, succ Ptr) {
	removeFree(h, succ)
	succSize := h.size(succ)
	total := cur + succSize
	remainder := total - asize

	if remainder < MinBlockSize {
		h.writeHeaderPreservingPrevAlloc(p, total, true)
		h.setSuccPrevAllocated(p, true)
		return
	}

	h.writeHeaderPreservingPrevAlloc(p, asize, true)
	rest := h.succ(p)
	h.writeHeader(rest, remainder, true, false)
	h.writeFooter(rest, remainder)
	h.setSuccPrevAllocated(rest, false)
	insertFree(h, rest)
}
