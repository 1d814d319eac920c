package allocator

// FitPolicy selects how the placement engine picks a candidate block within
// a bin.
type FitPolicy uint8

const (
	// FitBest scans an entire bin for the smallest block that still fits,
	// exiting early once a near-exact match is found.
	FitBest FitPolicy = iota
	// FitFirst accepts the first block in a bin that fits.
	FitFirst
)

// InsertPolicy selects how a freed block is spliced into its bin's list.
type InsertPolicy uint8

const (
	// InsertLIFO pushes new free blocks onto the head of their bin.
	InsertLIFO InsertPolicy = iota
	// InsertAddressOrdered keeps a bin's list ordered by address. Kept for
	// parity with the source allocator; when selected, every free-list
	// insertion (release, split remainder, extension) uses it.
	InsertAddressOrdered
)

// RegionKind selects the default Region implementation New builds when
// Config.Region is nil.
type RegionKind uint8

const (
	// RegionSlice backs the heap with a growable []byte. Portable.
	RegionSlice RegionKind = iota
	// RegionMmap backs the heap with a single anonymous mmap reservation.
	// Only available on unix build targets; New falls back to RegionSlice
	// elsewhere.
	RegionMmap
)

const (
	// NBins is the number of segregated free-list bins.
	NBins = 12

	// WordSize is the size in bytes of a header, footer, or free-list
	// sibling offset.
	WordSize = 4

	// Alignment all block sizes and payload addresses are rounded to.
	Alignment = 8

	// MinBlockSize is the smallest block the allocator ever hands out or
	// keeps in a free list: header + next + prev + footer.
	MinBlockSize = 16

	// defaultInitialChunk is the number of bytes the heap extender
	// requests the first time the region is grown, and the floor for
	// every subsequent extension.
	defaultInitialChunk = 256

	// defaultMaxRegionSize is the largest region New will ever request,
	// chosen so 32-bit offsets from the anchor address any block.
	defaultMaxRegionSize = ^uint32(0)
)

// Config carries every tunable knob of an Allocator. The zero value is not
// directly usable; call DefaultConfig and override fields as needed, or
// rely on New to apply defaults for zero fields.
type Config struct {
	// InitialChunk is the number of bytes requested from the region on
	// the first extension, and the floor for every later one.
	InitialChunk uint32

	// MaxRegionSize bounds how large the backing region may grow.
	MaxRegionSize uint32

	// FitPolicy selects best-fit or first-fit placement. Defaults to
	// FitBest.
	FitPolicy FitPolicy

	// InsertPolicy selects how freed blocks are spliced into their bin.
	// Defaults to InsertLIFO.
	InsertPolicy InsertPolicy

	// RegionKind selects the default Region implementation. Ignored if
	// Region is set.
	RegionKind RegionKind

	// Region, if non-nil, is used verbatim instead of constructing one
	// from RegionKind. Lets tests inject a Region that fails on demand.
	Region Region

	// DebugChecks runs the invariant checker after every mutating call.
	DebugChecks bool

	// ViewHeap and ViewFreeList request that Check append a verbose,
	// block-by-block dump to its diagnostic stream.
	ViewHeap     bool
	ViewFreeList bool
}

// DefaultConfig returns a Config with every knob set to its documented
// default.
func DefaultConfig() Config {
	return Config{
		InitialChunk:  defaultInitialChunk,
		MaxRegionSize: defaultMaxRegionSize,
		FitPolicy:     FitBest,
		InsertPolicy:  InsertLIFO,
		RegionKind:    RegionSlice,
	}
}

// validate panics on a Config that is structurally impossible to build a
// heap from. This is a programmer error, discoverable at construction
// time, not a runtime failure condition, so it panics rather than
// returning an error, matching the teacher's allocatorValidateConfig.
func (c *Config) validate() {
	if c.InitialChunk == 0 {
		panic("allocator: InitialChunk must be > 0")
	}
	if c.InitialChunk%Alignment != 0 {
		panic("allocator: InitialChunk must be a multiple of 8")
	}
	if c.MaxRegionSize < c.InitialChunk {
		panic("allocator: MaxRegionSize must be >= InitialChunk")
	}
}

func (c Config) withDefaults() Config {
	if c.InitialChunk == 0 {
		c.InitialChunk = defaultInitialChunk
	}
	if c.MaxRegionSize == 0 {
		c.MaxRegionSize = defaultMaxRegionSize
	}
	return c
}
