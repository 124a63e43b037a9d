// Package pool provides size-tiered []byte buffer pooling for the Box
// smart-pointer shape. Generalized from a single caller
// (Writer/StreamWriter) into a standalone arena so that
// shape.Box[T] has somewhere real to return its storage to, giving the
// partial builder's drop discipline something observable to verify against.
package pool

import (
	"math/bits"
	"sync"
	"sync/atomic"
)

// bufferSizes are the size classes, in ascending order.
var bufferSizes = [6]int{64, 256, 1024, 4096, 16384, 65536}

var bufferPools = [6]sync.Pool{
	{New: func() any { return make([]byte, 0, 64) }},
	{New: func() any { return make([]byte, 0, 256) }},
	{New: func() any { return make([]byte, 0, 1024) }},
	{New: func() any { return make([]byte, 0, 4096) }},
	{New: func() any { return make([]byte, 0, 16384) }},
	{New: func() any { return make([]byte, 0, 65536) }},
}

// outstanding counts buffers currently checked out (Get without a matching
// Put). Used by tests to verify the drop-exactly-once invariant: after a
// Partial that owns pooled Box values is dropped, this must return to
// whatever it was before the sequence started. A built value keeps its Box
// buffers checked out until the Box itself is dropped.
var outstanding int64

// poolIndex returns the pool index for a given size hint, or -1 if the
// hint exceeds the largest size class.
func poolIndex(size int) int {
	for i, s := range bufferSizes {
		if size <= s {
			return i
		}
	}
	return -1
}

// Get returns a zero-length buffer with at least sizeHint capacity, reused
// from the appropriate size-tiered pool where possible.
func Get(sizeHint int) []byte {
	idx := poolIndex(sizeHint)
	if idx < 0 {
		atomic.AddInt64(&outstanding, 1)
		return make([]byte, 0, sizeHint)
	}
	buf := bufferPools[idx].Get().([]byte)
	atomic.AddInt64(&outstanding, 1)
	return buf[:0]
}

// Put returns buf to the pool matching its capacity. Buffers larger than
// the largest size class are left for the GC.
func Put(buf []byte) {
	atomic.AddInt64(&outstanding, -1)
	c := cap(buf)
	if c > bufferSizes[len(bufferSizes)-1] {
		return
	}
	idx := poolIndex(c)
	if idx >= 0 {
		bufferPools[idx].Put(buf[:0]) //nolint:staticcheck // intentional: reuse by capacity class
	}
}

// Outstanding returns the number of buffers currently checked out. Tests
// use this as a leak oracle: it must return to its prior value once every
// Partial that allocated pooled Box values has been dropped.
func Outstanding() int64 {
	return atomic.LoadInt64(&outstanding)
}

// Stats describes the configured size classes, for diagnostics.
type Stats struct {
	SizeClasses  []int
	TotalClasses int
	Outstanding  int64
}

// CurrentStats reports the current pool configuration and checkout count.
func CurrentStats() Stats {
	return Stats{
		SizeClasses:  append([]int(nil), bufferSizes[:]...),
		TotalClasses: len(bufferSizes),
		Outstanding:  Outstanding(),
	}
}

// OptimalSize rounds dataSize up to the nearest size class (or the next
// power of two beyond the largest class).
func OptimalSize(dataSize int) int {
	if dataSize <= 0 {
		return bufferSizes[0]
	}
	largest := bufferSizes[len(bufferSizes)-1]
	if dataSize > largest {
		return 1 << bits.Len(uint(dataSize-1))
	}
	for _, s := range bufferSizes {
		if dataSize <= s {
			return s
		}
	}
	return dataSize
}
