package gcobj

import "unsafe"

// Chunk precedes every large-region allocation. Chunks are stored
// contiguously in address order within the large heap; Next threads them
// for both the free-list walk and the address-adjacency invariant that
// sweep and split must preserve.
type Chunk struct {
	Next      *Chunk
	Allocated bool
	Object    Header
}

// fixedSize is the portion of Chunk before the embedded Object header —
// the Go equivalent of the source's `CHUNK_HEADER_SIZE = sizeof(Chunk) -
// sizeof(Object)` macro.
var fixedSize = unsafe.Offsetof(Chunk{}.Object)

// ChunkHeaderSize returns the portion of a chunk before its embedded
// object header, for callers that need to reason about chunk layout
// without depending on package-level unexported state (used by
// growth/placement code in gcglobal).
func ChunkHeaderSize() uintptr {
	return fixedSize
}

// ChunkMinSize is the smallest remainder Split will carve off; any smaller
// remainder is left attached to the original chunk instead.
var ChunkMinSize = unsafe.Sizeof(Chunk{}) * 2

// Addr returns the chunk header's own address.
func (c *Chunk) Addr() uintptr {
	return uintptr(unsafe.Pointer(c))
}

// ObjectAddr returns the address of the chunk's embedded object header —
// the point from which Object.Size is measured.
func (c *Chunk) ObjectAddr() uintptr {
	return c.Addr() + fixedSize
}

// TotalSize returns the full extent of the chunk: header plus payload.
func (c *Chunk) TotalSize() uintptr {
	return fixedSize + c.Object.Size
}

// End returns the address one past the end of the chunk, which must equal
// the address of the next chunk in the list (or the large region's stop
// address for the last chunk).
func (c *Chunk) End() uintptr {
	return c.Addr() + c.TotalSize()
}

// Payload returns the chunk's mutator-visible payload address.
func (c *Chunk) Payload() unsafe.Pointer {
	return c.Object.Payload()
}

// Init stamps a fresh, free chunk of the given total size (header +
// payload).
func (c *Chunk) Init(totalSize uintptr) {
	c.Next = nil
	c.Allocated = false
	c.Object.Size = totalSize - fixedSize
	c.Object.Marked = false
	c.Object.Atomic = false
}

// Allocate marks the chunk in-use for a payload of the given atomicity.
func (c *Chunk) Allocate(atomic bool) {
	c.Allocated = true
	c.Object.Atomic = atomic
	c.Object.Marked = false
}

// ChunkFromObjectAddr reconstructs a chunk header pointer given the address
// of its embedded object header (used by code that only carries the
// Header, e.g. the finalizer table).
func ChunkFromObjectAddr(addr uintptr) *Chunk {
	return (*Chunk)(unsafe.Pointer(addr - fixedSize))
}
