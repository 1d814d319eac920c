//go:build linux || freebsd || darwin

package allocator

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// mmapAvailable reports whether NewMmapRegion can actually reserve memory
// on this build target.
const mmapAvailable = true

// MmapRegion backs a Region with a single anonymous mmap reservation made
// up front, and treats Extend as advancing a used-length cursor within it.
// This mirrors how sbrk grows the classic C heap without ever relocating
// it, unlike SliceRegion, at the cost of reserving address space (not
// physical memory — the kernel commits pages lazily) for the full
// maxSize up front.
type MmapRegion struct {
	data []byte
	used uint32
}

// NewMmapRegion reserves maxSize bytes of anonymous, zero-filled memory.
func NewMmapRegion(maxSize uint32) (*MmapRegion, error) {
	if maxSize == 0 {
		return nil, fmt.Errorf("allocator: mmap region size must be > 0")
	}
	data, err := unix.Mmap(-1, 0, int(maxSize), unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("allocator: mmap reservation of %d bytes failed: %w", maxSize, err)
	}
	return &MmapRegion{data: data}, nil
}

// Low implements Region.
func (r *MmapRegion) Low() uint32 { return 0 }

// High implements Region.
func (r *MmapRegion) High() uint32 { return r.used }

// Bytes implements Region.
func (r *MmapRegion) Bytes() []byte { return r.data[:r.used:r.used] }

// Extend implements Region. Freshly mapped anonymous pages already read as
// zero, so unlike SliceRegion no explicit clear is needed.
func (r *MmapRegion) Extend(n uint32) (uint32, bool) {
	if n == 0 {
		return r.used, true
	}
	newUsed := uint64(r.used) + uint64(n)
	if newUsed > uint64(len(r.data)) {
		return 0, false
	}
	base := r.used
	r.used = uint32(newUsed)
	return base, true
}

// Close releases the mapping. Once Close returns, the Region must not be
// used again.
func (r *MmapRegion) Close() error {
	if r.data == nil {
		return nil
	}
	err := unix.Munmap(r.data)
	r.data = nil
	return err
}
