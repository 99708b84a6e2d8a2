// Package gclocal implements the per-thread local allocator: a bump
// pointer walking a single block's holes, plus a separate overflow cursor
// for objects too big to share a line cleanly with their neighbors but
// still under the large-object threshold.
package gclocal

import (
	"unsafe"

	"github.com/conservgc/conservgc/internal/gcblock"
	"github.com/conservgc/conservgc/internal/gcobj"
)

// BlockSource supplies fresh blocks on demand. The conservgc package wires
// an implementation that acquires the process lock for the duration of
// the call; LocalAllocator itself never locks, so its bump-pointer fast
// path (the common case, where the current block still has room) runs
// lock-free, exactly as the concurrency model intends.
type BlockSource interface {
	NextBlock() *gcblock.Block
	NextFreeBlock() *gcblock.Block
	AccountAllocation(size uintptr)
}

// LocalAllocator is owned by exactly one attached thread at a time.
type LocalAllocator struct {
	source BlockSource

	block    *gcblock.Block
	cursor   uintptr
	limit    uintptr
	nextHole uintptr

	overflowBlock  *gcblock.Block
	overflowCursor uintptr
	overflowLimit  uintptr
}

// New creates a local allocator drawing blocks from source. It starts
// with no current block; the first allocation triggers initCursor.
func New(source BlockSource) *LocalAllocator {
	return &LocalAllocator{source: source}
}

// AllocateSmall implements §4.5.1: bump-allocate payloadSize bytes
// (plus header) out of the current block's holes, fetching fresh blocks
// from the source as each one is exhausted, delegating to the overflow
// cursor for objects that would fragment a hole too badly to share it.
func (la *LocalAllocator) AllocateSmall(payloadSize uintptr, atomic bool) unsafe.Pointer {
	rsize := gcobj.RoundToWord(gcobj.HeaderSize + payloadSize)

	for {
		if p, ok := la.tryAllocateSmall(rsize, atomic); ok {
			la.source.AccountAllocation(rsize)
			return p
		}
		if !la.initCursor() {
			panic(gcobj.Fatalf(gcobj.ErrorAllocationFailed, "no block available for a %d byte allocation", rsize))
		}
	}
}

func (la *LocalAllocator) tryAllocateSmall(rsize uintptr, atomic bool) (unsafe.Pointer, bool) {
	if la.block == nil {
		return nil, false
	}

	for {
		stop := la.cursor + rsize
		if stop <= la.limit {
			return la.writeObject(la.block, &la.cursor, stop, rsize, la.limit, atomic), true
		}
		if rsize > gcblock.LineSize && (la.limit-la.cursor) > gcblock.LineSize {
			return la.allocateOverflow(rsize, atomic), true
		}
		if !la.findNextHole() {
			return nil, false
		}
	}
}

// allocateOverflow implements the overflow half of §4.5.1: an object
// bigger than a single line, but still below the large-object threshold,
// is carved from a dedicated Free block rather than the current block's
// hole, so one oversized request doesn't strand the rest of that hole.
func (la *LocalAllocator) allocateOverflow(rsize uintptr, atomic bool) unsafe.Pointer {
	for {
		if la.overflowBlock != nil {
			stop := la.overflowCursor + rsize
			if stop <= la.overflowLimit {
				return la.writeObject(la.overflowBlock, &la.overflowCursor, stop, rsize, la.overflowLimit, atomic)
			}
		}
		if !la.initOverflowCursor() {
			panic(gcobj.Fatalf(gcobj.ErrorAllocationFailed, "no block available for a %d byte overflow allocation", rsize))
		}
	}
}

// writeObject stamps the object header and, when room remains in the
// current hole, a zero-size sentinel immediately after it. limit is the
// hole's own limit, not the block's end: an allocation that exactly
// fills a recyclable block's hole must not write past it, since the
// line right after the hole may already hold a live, marked object
// whose header writeObject would otherwise clobber.
func (la *LocalAllocator) writeObject(b *gcblock.Block, cursor *uintptr, stop, rsize, limit uintptr, atomic bool) unsafe.Pointer {
	addr := *cursor
	hdr := (*gcobj.Header)(unsafe.Pointer(addr))
	b.UpdateLine(addr)
	if stop < limit {
		(*gcobj.Header)(unsafe.Pointer(stop)).Size = 0
	}
	*cursor = stop
	hdr.Init(rsize, atomic)
	return hdr.Payload()
}

// findNextHole advances to the next hole recorded in the current block,
// if any.
func (la *LocalAllocator) findNextHole() bool {
	if la.nextHole == 0 {
		return false
	}
	h := gcblock.HoleAt(la.nextHole)
	la.cursor = la.nextHole
	la.limit = h.Limit
	la.nextHole = h.Next
	return true
}

// initCursor fetches a fresh block from the source and positions the
// cursor at its first hole (the whole data region for a Free block, or
// the first recorded Hole for a Recyclable one).
func (la *LocalAllocator) initCursor() bool {
	b := la.source.NextBlock()
	if b == nil {
		return false
	}
	la.block = b
	if b.IsFree() {
		la.cursor = b.Start()
		la.limit = b.Stop()
		la.nextHole = 0
		return true
	}

	h := gcblock.HoleAt(b.FirstFreeLine())
	la.cursor = h.Addr()
	la.limit = h.Limit
	la.nextHole = h.Next
	return true
}

// initOverflowCursor fetches a fresh, strictly Free block for the
// overflow cursor (§4.4.2's NextFreeBlock, never Recyclable).
func (la *LocalAllocator) initOverflowCursor() bool {
	b := la.source.NextFreeBlock()
	if b == nil {
		return false
	}
	la.overflowBlock = b
	la.overflowCursor = b.Start()
	la.overflowLimit = b.Stop()
	return true
}

// Reset implements §4.5.2: drop the current and overflow blocks
// without returning them anywhere, since a collection has just run and
// any still-live bytes in them were already preserved by the collector's
// own bookkeeping (the blocks themselves were never removed from the
// heap, only from this allocator's private cursors). The next allocation
// call will fetch fresh blocks via initCursor/initOverflowCursor.
func (la *LocalAllocator) Reset() {
	la.block = nil
	la.cursor = 0
	la.limit = 0
	la.nextHole = 0
	la.overflowBlock = nil
	la.overflowCursor = 0
	la.overflowLimit = 0
}
