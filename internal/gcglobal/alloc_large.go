package gcglobal

import (
	"unsafe"

	"github.com/conservgc/conservgc/internal/gcobj"
)

// AllocateLarge implements §4.4.3: find a free chunk big enough for
// size bytes of payload, collecting and then growing in turn if none
// exists. Caller must hold the lock for the whole call, since it may
// recurse into a collection.
func (g *GlobalAllocator) AllocateLarge(size uintptr, atomic bool) unsafe.Pointer {
	total := gcobj.ChunkHeaderSize() + gcobj.RoundToWord(gcobj.HeaderSize+size)

	for {
		if c := g.findFreeChunk(total); c != nil {
			return g.commitChunk(c, total, atomic)
		}
		if g.TryCollect() {
			if c := g.findFreeChunk(total); c != nil {
				return g.commitChunk(c, total, atomic)
			}
		}
		if !g.growLarge(total) {
			panic(gcobj.Fatalf(gcobj.ErrorOutOfMemory, "large heap exhausted requesting %d bytes", size))
		}
	}
}

// DeallocateLarge implements §4.4.4's additive explicit-free
// resolution: an allocation may be returned to the free pool before a
// collection ever visits it, by clearing Allocated in place. The next
// sweep's coalescing pass merges it with its neighbors exactly as it
// would an object the collector itself found unreachable. Any finalizer
// still registered for p fires now, since an explicit free makes the
// object's address available for reuse immediately rather than at the
// next collection.
func (g *GlobalAllocator) DeallocateLarge(p unsafe.Pointer) {
	hdr := gcobj.HeaderFromPayload(p)
	chunk := gcobj.ChunkFromObjectAddr(hdr.Addr())
	chunk.Allocated = false
	chunk.Object.Marked = false

	if fn, ok := g.finalizers.Delete(hdr.Addr()); ok {
		fn(p)
	}
}

func (g *GlobalAllocator) findFreeChunk(total uintptr) *gcobj.Chunk {
	for _, r := range g.largeRegions {
		var found *gcobj.Chunk
		r.chunks.Each(func(c *gcobj.Chunk) {
			if found != nil || c.Allocated || c.TotalSize() < total {
				return
			}
			found = c
		})
		if found != nil {
			return found
		}
	}
	return nil
}

func (g *GlobalAllocator) commitChunk(c *gcobj.Chunk, total uintptr, atomic bool) unsafe.Pointer {
	region := g.regionContaining(c.Addr())
	region.chunks.Split(c, total)
	c.Allocate(atomic)
	g.AccountAllocation(c.TotalSize())
	return c.Payload()
}

func (g *GlobalAllocator) regionContaining(addr uintptr) *largeRegion {
	for _, r := range g.largeRegions {
		if addr >= r.start && addr < r.stop {
			return r
		}
	}
	return nil
}
