package allocator

// adjustedSize converts a requested payload size into a block size: room
// for just the header word (an allocated block never writes a footer, so
// that word is reclaimed as payload instead), rounded up to Alignment,
// with a floor of MinBlockSize so a freed block always has room for its
// free-list pointers.
func adjustedSize(n uint32) uint32 {
	size := alignUp(n+WordSize, Alignment)
	if size < MinBlockSize {
		size = MinBlockSize
	}
	return size
}

// findFit searches the segregated lists for a block big enough to hold
// size bytes, starting at size's own bin and moving up. Within a bin it
// applies h.fitPolicy: FitFirst takes the first block in the bin that
// fits, FitBest tracks the
// smallest sufficient block seen so far and commits as soon as one has
// slack < MinBlockSize, rather than always scanning the whole bin for the
// true minimum. It returns NilPtr if no bin holds a fit.
func findFit(h *Heap, size uint32) Ptr {
	startBin := h.binOf(size)
	for bin := startBin; bin < NBins; bin++ {
		if best := scanBin(h, bin, size); best != NilPtr {
			return best
		}
	}
	return NilPtr
}

func scanBin(h *Heap, bin int, size uint32) Ptr {
	if h.fitPolicy == FitFirst {
		for p := h.headOf(bin); p != NilPtr; p = h.nextFree(p) {
			if h.size(p) >= size {
				return p
			}
		}
		return NilPtr
	}

	var best Ptr
	var bestSize uint32
	for p := h.headOf(bin); p != NilPtr; p = h.nextFree(p) {
		s := h.size(p)
		if s < size {
			continue
		}
		if best == NilPtr || s < bestSize {
			best = p
			bestSize = s
		}
		if bestSize-size < MinBlockSize {
			break
		}
	}
	return best
}

// place allocates asize bytes out of the free block p, splitting off the
// remainder as a new free block when what's left is at least MinBlockSize.
// p must already be a member of its free list; place removes it before any
// header rewrite so the removal reads the correct (pre-split) bin.
func place(h *Heap, p Ptr, asize uint32) {
	free := h.size(p)
	removeFree(h, p)

	remainder := free - asize
	if remainder < MinBlockSize {
		h.writeHeaderPreservingPrevAlloc(p, free, true)
		h.setSuccPrevAllocated(p, true)
		return
	}

	h.writeHeaderPreservingPrevAlloc(p, asize, true)
	rest := h.succ(p)
	prevAlloc := true // p, rest's new predecessor, is now allocated
	h.writeHeader(rest, remainder, prevAlloc, false)
	h.writeFooter(rest, remainder)
	h.setSuccPrevAllocated(rest, false)
	insertFree(h, rest)
}

// allocate finds or creates a fit for size bytes and places it, growing
// the region via extend when nothing already free is big enough. It
// returns NilPtr, false when the region is exhausted.
func allocate(h *Heap, n uint32) (Ptr, bool) {
	if n == 0 {
		return NilPtr, true
	}
	asize := adjustedSize(n)

	p := findFit(h, asize)
	if p == NilPtr {
		grow := asize
		if grow < h.initialChunk {
			grow = h.initialChunk
		}
		extended, err := h.extend(grow)
		if err != nil {
			return NilPtr, false
		}
		if h.size(extended) < asize {
			// Defensive: extend returns a block of at least grow >= asize
			// bytes and coalescing only enlarges it, so this branch is not
			// reached; if it were, ask once more for what's missing.
			extended, err = h.extend(asize - h.size(extended))
			if err != nil {
				return NilPtr, false
			}
			if h.size(extended) < asize {
				return NilPtr, false
			}
		}
		p = extended
	}

	place(h, p, asize)
	return p, true
}
