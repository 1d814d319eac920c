package allocator

// insertFree splices a free block into the head of its bin's list (or, for
// InsertAddressOrdered, into address order). Both sibling slots are always
// overwritten so a stale offset left over from the block's previous life
// never leaks into the list.
func insertFree(h *Heap, p Ptr) {
	bin := h.binOf(h.size(p))
	if h.insertPolicy == InsertAddressOrdered {
		insertAddressOrdered(h, bin, p)
		return
	}

	head := h.headOf(bin)
	h.setPrevFree(p, NilPtr)
	h.setNextFree(p, head)
	if head == NilPtr {
		h.setTailOf(bin, p)
	} else {
		h.setPrevFree(head, p)
	}
	h.setHeadOf(bin, p)
}

func insertAddressOrdered(h *Heap, bin int, p Ptr) {
	head := h.headOf(bin)
	if head == NilPtr {
		h.setHeadOf(bin, p)
		h.setTailOf(bin, p)
		h.setPrevFree(p, NilPtr)
		h.setNextFree(p, NilPtr)
		return
	}

	cur := head
	for cur != NilPtr && cur < p {
		cur = h.nextFree(cur)
	}

	if cur == NilPtr {
		tail := h.tailOf(bin)
		h.setNextFree(tail, p)
		h.setPrevFree(p, tail)
		h.setNextFree(p, NilPtr)
		h.setTailOf(bin, p)
		return
	}

	prev := h.prevFree(cur)
	h.setNextFree(p, cur)
	h.setPrevFree(cur, p)
	h.setPrevFree(p, prev)
	if prev == NilPtr {
		h.setHeadOf(bin, p)
	} else {
		h.setNextFree(prev, p)
	}
}

// removeFree splices a free block out of its bin's list. It must be called
// while the block's header still reports its true size (i.e. before any
// header rewrite that would change which bin it belongs to).
func removeFree(h *Heap, p Ptr) {
	bin := h.binOf(h.size(p))
	prev := h.prevFree(p)
	next := h.nextFree(p)

	if prev == NilPtr {
		h.setHeadOf(bin, next)
	} else {
		h.setNextFree(prev, next)
	}

	if next == NilPtr {
		h.setTailOf(bin, prev)
	} else {
		h.setPrevFree(next, prev)
	}
}
