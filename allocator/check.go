package allocator

import "fmt"

// Severity distinguishes a genuine invariant violation from a verbose,
// requested-on-purpose dump line.
type Severity int

const (
	// SeverityError marks an actual invariant violation.
	SeverityError Severity = iota
	// SeverityInfo marks a Config.ViewHeap/ViewFreeList dump line, appended
	// to the diagnostic stream rather than returned through a separate
	// channel so a trace driver has one place to look.
	SeverityInfo
)

// Diagnostic describes one invariant violation found by Check, or (at
// SeverityInfo) one line of a Config.ViewHeap/ViewFreeList dump. Line
// carries the caller-supplied line hint through unchanged, so a trace
// driver can blame the trace operation that produced a corrupt heap. Addr
// is the offset of the block the entry concerns, or 0 when it isn't about
// a single block (e.g. a free-count mismatch).
type Diagnostic struct {
	Line     int
	Addr     Ptr
	Severity Severity
	Message  string
}

func (d Diagnostic) String() string {
	if d.Line == 0 {
		return d.Message
	}
	return fmt.Sprintf("line %d: %s", d.Line, d.Message)
}

// check walks the whole heap and cross-checks it against every bin's free
// list, reporting every invariant violation it finds rather than stopping
// at the first one.
func check(h *Heap, lineHint int) []Diagnostic {
	var diags []Diagnostic
	report := func(addr Ptr, format string, args ...interface{}) {
		diags = append(diags, Diagnostic{Line: lineHint, Addr: addr, Message: fmt.Sprintf(format, args...)})
	}

	heapHigh := Ptr(uint32(len(h.region.Bytes())) - h.anchor)
	freeInHeap := 0
	prevWasFree := false
	prevBlock := NilPtr

	if w := h.header(NilPtr); headerSize(w) != prologueSize || !headerAllocated(w) {
		report(NilPtr, "prologue header is corrupt: size %d allocated=%v", headerSize(w), headerAllocated(w))
	}

	for p := h.firstBlock(); p < heapHigh; p = h.succ(p) {
		size := h.size(p)
		if size == 0 {
			report(p, "block at offset %d has zero size", p)
			break
		}
		if size%Alignment != 0 {
			report(p, "block at offset %d has misaligned size %d", p, size)
		} else if size < MinBlockSize {
			report(p, "block at offset %d has size %d, below the minimum %d", p, size, MinBlockSize)
		}

		allocated := h.allocated(p)
		if prevBlock != NilPtr && h.prevAllocated(p) != !prevWasFree {
			report(p, "block at offset %d has prevAllocated=%v but predecessor at %d is allocated=%v",
				p, h.prevAllocated(p), prevBlock, !prevWasFree)
		}

		if !allocated {
			freeInHeap++
			footer := h.footer(p, size)
			if headerSize(footer) != size {
				report(p, "free block at offset %d: header size %d disagrees with footer size %d",
					p, size, headerSize(footer))
			}
			if headerAllocated(footer) {
				report(p, "free block at offset %d has an allocated footer", p)
			}
			if prevWasFree {
				report(p, "free block at offset %d immediately follows another free block: missed coalesce", p)
			}
		}

		prevWasFree = !allocated
		prevBlock = p
	}

	if w := h.header(heapHigh); headerSize(w) != 0 || !headerAllocated(w) {
		report(heapHigh, "epilogue header is corrupt: size %d allocated=%v", headerSize(w), headerAllocated(w))
	}

	inHeap := func(q Ptr) bool { return q >= h.firstBlock() && q < heapHigh }
	freeInLists := 0
	for bin := 0; bin < NBins; bin++ {
		head := h.headOf(bin)
		if head != NilPtr && h.prevFree(head) != NilPtr {
			report(head, "bin %d: head %d has a non-NIL prev %d", bin, head, h.prevFree(head))
		}

		seen := map[Ptr]bool{}
		var last Ptr
		for p := h.headOf(bin); p != NilPtr; p = h.nextFree(p) {
			if !inHeap(p) {
				report(p, "bin %d: free-list offset %d lies outside the heap", bin, p)
				break
			}
			if seen[p] {
				report(p, "bin %d: cycle detected in free list at offset %d", bin, p)
				break
			}
			seen[p] = true

			if h.allocated(p) {
				report(p, "bin %d: block at offset %d is on the free list but marked allocated", bin, p)
			}
			if got := h.binOf(h.size(p)); got != bin {
				report(p, "block at offset %d of size %d is in bin %d, belongs in bin %d", p, h.size(p), bin, got)
			}
			if next := h.nextFree(p); next != NilPtr && inHeap(next) && h.prevFree(next) != p {
				report(p, "bin %d: block at offset %d and its successor %d disagree on linkage", bin, p, next)
			}
			freeInLists++
			last = p
		}

		if head != NilPtr && h.tailOf(bin) != last {
			report(last, "bin %d: forward walk ends at %d but tail points at %d", bin, last, h.tailOf(bin))
		}
	}

	if freeInHeap != freeInLists {
		report(NilPtr, "heap walk found %d free blocks but the free lists hold %d", freeInHeap, freeInLists)
	}

	info := func(addr Ptr, format string, args ...interface{}) {
		diags = append(diags, Diagnostic{Line: lineHint, Addr: addr, Severity: SeverityInfo, Message: fmt.Sprintf(format, args...)})
	}

	if h.viewHeap {
		for p := h.firstBlock(); p < heapHigh; p = h.succ(p) {
			size := h.size(p)
			if size == 0 {
				break
			}
			info(p, "block %d: size=%d allocated=%v prevAllocated=%v", p, size, h.allocated(p), h.prevAllocated(p))
		}
	}

	if h.viewFreeList {
		for bin := 0; bin < NBins; bin++ {
			for p := h.headOf(bin); p != NilPtr; p = h.nextFree(p) {
				info(p, "bin %d: free block %d size=%d", bin, p, h.size(p))
			}
		}
	}

	return diags
}
