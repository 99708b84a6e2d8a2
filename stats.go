package conservgc

// Stats is a point-in-time snapshot of heap occupancy, reported to
// collect callbacks and served by cmd/gcstat's /stats endpoint.
type Stats struct {
	SmallHeapSize uintptr
	LargeHeapSize uintptr
	HeapSize      uintptr

	AllocatedSinceCollect uint64
	TotalAllocatedBytes   uint64

	FreeBlocks       int
	RecyclableBlocks int
}

// HeapStats returns a snapshot of the default Runtime's current heap
// statistics.
func HeapStats() Stats {
	return defaultRuntime().HeapStats()
}

// HeapStats is the Runtime method backing the package-level HeapStats.
func (rt *Runtime) HeapStats() Stats {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	return Stats{
		SmallHeapSize:         rt.global.SmallHeapSize(),
		LargeHeapSize:         rt.global.LargeHeapSize(),
		HeapSize:              rt.global.HeapSize(),
		AllocatedSinceCollect: rt.global.AllocatedSinceCollect(),
		TotalAllocatedBytes:   rt.global.TotalAllocatedBytes(),
		FreeBlocks:            rt.global.FreeList().Size(),
		RecyclableBlocks:      rt.global.RecyclableList().Size(),
	}
}
