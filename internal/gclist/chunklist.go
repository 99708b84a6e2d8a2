package gclist

import (
	"unsafe"

	"github.com/conservgc/conservgc/internal/gcobj"
)

// ChunkList is the large-object free/allocated list. Unlike BlockList its
// ordering must match memory order: split and sweep both depend on each
// chunk's Next pointing at the chunk immediately following it in address
// space, not merely at "whatever was linked next".
type ChunkList struct {
	first, last *gcobj.Chunk
	size        int
}

// PushBack appends c to the tail of the list. Used only during
// initialization and growth, when c is already known to sit at the
// highest address in the region.
func (l *ChunkList) PushBack(c *gcobj.Chunk) {
	c.Next = nil
	if l.last == nil {
		l.first = c
	} else {
		l.last.Next = c
	}
	l.last = c
	l.size++
}

// First returns the head of the list, or nil if empty.
func (l *ChunkList) First() *gcobj.Chunk { return l.first }

// Size returns the number of chunks currently linked.
func (l *ChunkList) Size() int { return l.size }

// InsertAfter links newChunk immediately after "after", preserving address
// order (the caller guarantees newChunk's address falls between after and
// after.Next).
func (l *ChunkList) InsertAfter(after, newChunk *gcobj.Chunk) {
	newChunk.Next = after.Next
	after.Next = newChunk
	if l.last == after {
		l.last = newChunk
	}
	l.size++
}

// Split carves a chunk of requestedTotalSize (header + payload) off the
// front of c, inserting the remainder as a new free chunk immediately
// after c. It returns the remainder chunk, or nil if the remainder would
// be smaller than gcobj.ChunkMinSize, in which case c is left untouched
// and the caller should allocate the whole chunk.
func (l *ChunkList) Split(c *gcobj.Chunk, requestedTotalSize uintptr) *gcobj.Chunk {
	remainderSize := c.TotalSize() - requestedTotalSize
	if remainderSize < gcobj.ChunkMinSize {
		return nil
	}

	remainderAddr := c.Addr() + requestedTotalSize
	remainder := (*gcobj.Chunk)(unsafe.Pointer(remainderAddr))
	remainder.Init(remainderSize)

	c.Object.Size = requestedTotalSize - gcobj.ChunkHeaderSize()

	l.InsertAfter(c, remainder)
	return remainder
}

// Find returns the chunk whose payload range [payload, end) contains p, or
// nil. Linear in the number of chunks, matching the source's ChunkList_find;
// the large region holds far fewer, far bigger objects than the small
// region, so this does not dominate mark time the way a linear small-heap
// walk would.
func (l *ChunkList) Find(p uintptr) *gcobj.Chunk {
	for c := l.first; c != nil; c = c.Next {
		if p >= uintptr(c.Payload()) && p < c.End() {
			return c
		}
	}
	return nil
}

// Sweep walks the list once, marking every unmarked chunk free and
// coalescing any run of consecutive unmarked chunks into a single chunk
// spanning the run. regionStop is the large heap's commit boundary, used
// as the coalesced size for a run that reaches the end of the list.
func (l *ChunkList) Sweep(regionStop uintptr) {
	c := l.first
	for c != nil {
		if c.Object.Marked {
			c = c.Next
			continue
		}

		runStart := c
		runStart.Allocated = false
		absorbed := 0

		n := c.Next
		for n != nil && !n.Object.Marked {
			n.Allocated = false
			absorbed++
			n = n.Next
		}

		var end uintptr
		if n != nil {
			end = n.Addr()
		} else {
			end = regionStop
		}
		runStart.Object.Size = end - runStart.ObjectAddr()
		runStart.Next = n
		if n == nil {
			l.last = runStart
		}
		l.size -= absorbed

		c = n
	}
}

// Each calls fn for every chunk in address order.
func (l *ChunkList) Each(fn func(*gcobj.Chunk)) {
	for c := l.first; c != nil; c = c.Next {
		fn(c)
	}
}
