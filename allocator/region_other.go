//go:build !linux && !freebsd && !darwin

package allocator

import "errors"

// mmapAvailable reports whether NewMmapRegion can actually reserve memory
// on this build target.
const mmapAvailable = false

// ErrMmapUnsupported is returned by NewMmapRegion on build targets with no
// anonymous-mmap backing; New silently falls back to a SliceRegion when
// Config.RegionKind asks for RegionMmap on such a target.
var ErrMmapUnsupported = errors.New("allocator: mmap region unsupported on this platform")

// MmapRegion is unavailable on this build target; NewMmapRegion always
// fails. The type exists so code referencing allocator.MmapRegion compiles
// on every platform.
type MmapRegion struct{}

// NewMmapRegion always returns ErrMmapUnsupported on this build target.
func NewMmapRegion(maxSize uint32) (*MmapRegion, error) {
	return nil, ErrMmapUnsupported
}

// Low implements Region.
func (r *MmapRegion) Low() uint32 { return 0 }

// High implements Region.
func (r *MmapRegion) High() uint32 { return 0 }

// Bytes implements Region.
func (r *MmapRegion) Bytes() []byte { return nil }

// Extend implements Region; always fails.
func (r *MmapRegion) Extend(n uint32) (uint32, bool) { return 0, false }

// Close implements io.Closer.
func (r *MmapRegion) Close() error { return nil }
