package allocator

// binSizes returns the upper bound of each of the NBins segregated free
// list bins: bin i covers (binSizes[i-1], binSizes[i]], with bin 0 covering
// (0, 16] and the last bin covering everything above 1<<(NBins+2).
func binSizes() [NBins]uint32 {
	var sizes [NBins]uint32
	for i := range sizes {
		sizes[i] = 1 << uint(i+4)
	}
	return sizes
}

// binOf returns the smallest bin index i such that size <= binSizes[i],
// clamped to the last bin for anything larger than every bound.
func binOf(sizes [NBins]uint32, size uint32) int {
	for i := 0; i < NBins-1; i++ {
		if size <= sizes[i] {
			return i
		}
	}
	return NBins - 1
}
