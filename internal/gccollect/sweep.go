package gccollect

import "github.com/conservgc/conservgc/internal/gclist"

// Sweep implements §4.6.5 across both regions: recycle_blocks for
// the small heap, and chunk-list coalescing for each large-heap region.
func (c *Collector) Sweep() {
	c.global.RecycleBlocks()
	c.global.EachLargeChunkList(func(chunks *gclist.ChunkList, stop uintptr) {
		chunks.Sweep(stop)
	})
}
