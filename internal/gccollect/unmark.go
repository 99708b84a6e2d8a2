package gccollect

import (
	"github.com/conservgc/conservgc/internal/gcblock"
	"github.com/conservgc/conservgc/internal/gclist"
	"github.com/conservgc/conservgc/internal/gcobj"
)

// Unmark implements the reset phase that opens every cycle: clear the
// previous cycle's reachability bits — block-level, line-level, and the
// per-object Marked flag the finalizer-firing pass consults — before Mark
// rebuilds them from this cycle's roots.
func (c *Collector) Unmark() {
	c.global.EachSmallBlock(func(b *gcblock.Block) {
		b.Unmark()
		for i := 0; i < gcblock.LineCount; i++ {
			b.Header(i).Unmark()
		}
		walkBlockObjects(b, func(hdr *gcobj.Header) {
			hdr.Unmark()
		})
	})

	c.global.EachLargeChunkList(func(chunks *gclist.ChunkList, _ uintptr) {
		chunks.Each(func(ch *gcobj.Chunk) {
			ch.Object.Unmark()
		})
	})
}
