package allocator

import "errors"

// ErrExhausted is the error New returns, unwrapped, when the region cannot
// hold the skeleton or the initial chunk. Allocate, Resize and Zeroed report the same
// condition as ok=false rather than an error, since by the time they run a
// Ptr may already be live and the taxonomy in the design doc reserves
// error returns for failures that happen before any Ptr could exist.
var ErrExhausted = errors.New("allocator: region exhausted")
