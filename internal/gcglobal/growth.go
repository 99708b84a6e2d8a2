package gcglobal

import "github.com/conservgc/conservgc/internal/gcobj"

// growSmall maps a fresh region of blocks, growing the small heap by
// GrowthRatePct of its current size (never less than one block). Caller
// must hold the lock. Panics with OutOfMemory if the configured memory
// limit would be exceeded.
func (g *GlobalAllocator) growSmall() {
	grown := g.smallHeapSize * GrowthRatePct / 100
	if grown < BlockSize {
		grown = BlockSize
	}
	grown = roundUpSize(grown, BlockSize)

	g.checkMemoryLimit(grown)
	g.addSmallRegion(grown)
}

// growLarge maps a fresh large-heap region sized to the greater of the
// usual growth rate or the requested allocation, rounded up to the next
// power of two — the resolution recorded here for grow_large's
// sizing ambiguity, chosen to amortize repeated growth for a workload
// that keeps requesting objects near the current region's capacity.
// Caller must hold the lock. Returns false (rather than panicking) so
// AllocateLarge can report a precise error at the call site that knows
// the original request size.
func (g *GlobalAllocator) growLarge(minTotalSize uintptr) bool {
	grown := g.largeHeapSize * GrowthRatePct / 100
	if grown < minTotalSize {
		grown = minTotalSize
	}
	grown = nextPowerOfTwo(grown)

	if g.memoryLimit != 0 && g.HeapSize()+grown > g.memoryLimit {
		return false
	}
	g.addLargeRegion(grown)
	return true
}

func (g *GlobalAllocator) checkMemoryLimit(additional uintptr) {
	if g.memoryLimit != 0 && g.HeapSize()+additional > g.memoryLimit {
		panic(gcobj.Fatalf(gcobj.ErrorOutOfMemory,
			"growing the small heap by %d bytes would exceed the %d byte limit", additional, g.memoryLimit))
	}
}

func roundUpSize(size, align uintptr) uintptr {
	return (size + align - 1) &^ (align - 1)
}

func nextPowerOfTwo(v uintptr) uintptr {
	if v == 0 {
		return 1
	}
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v |= v >> 32
	v++
	return v
}
