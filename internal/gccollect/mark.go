package gccollect

import (
	"unsafe"

	"github.com/conservgc/conservgc/internal/gcblock"
	"github.com/conservgc/conservgc/internal/gcobj"
	"github.com/conservgc/conservgc/internal/gcstack"
)

// Mark drains a worklist of candidate root ranges, treating every
// word-aligned slot as a possible pointer (the ambiguous-roots scanning
// the source calls conservative stack marking). Whenever a candidate
// resolves to a live object's interior, that object's own payload range
// is pushed back onto the worklist so its contents are scanned in turn —
// this is what makes the pass transitive without real recursion.
func (c *Collector) Mark() {
	c.work.Reset()

	c.roots.EachRoot(func(top, bottom uintptr) {
		c.work.Push(top, bottom)
	})

	for {
		region, ok := c.work.Pop()
		if !ok {
			return
		}
		c.scanRegion(region)
	}
}

func (c *Collector) scanRegion(r gcstack.Region) {
	top, bottom := r.Top, r.Bottom
	if bottom < top {
		top, bottom = bottom, top
	}
	for addr := top; addr+gcobj.WordSize <= bottom; addr += gcobj.WordSize {
		candidate := *(*uintptr)(unsafe.Pointer(addr))
		c.markIfPointer(candidate)
	}
}

func (c *Collector) markIfPointer(candidate uintptr) {
	if c.global.InSmallHeap(candidate) {
		c.markSmall(candidate)
		return
	}
	if c.global.InLargeHeap(candidate) {
		c.markLarge(candidate)
	}
}

// markSmall implements the inner-pointer resolution in §4.6.3:
// locate the object (if any) whose range contains candidate, then mark
// its header, its block, and every line it spans.
func (c *Collector) markSmall(candidate uintptr) {
	b := gcblock.FromPointer(candidate)
	if !b.Contains(candidate) {
		return
	}

	hdr := findSmallObject(b, candidate)
	if hdr == nil || hdr.IsMarked() {
		return
	}
	hdr.Mark()
	b.Mark()

	startIdx := b.LineIndex(hdr.Addr())
	endIdx := b.LineIndex(hdr.End() - 1)
	for i := startIdx; i <= endIdx; i++ {
		b.Header(i).Mark()
	}

	if !hdr.Atomic {
		c.work.Push(uintptr(hdr.Payload()), hdr.End())
	}
}

// findSmallObject walks backward from candidate's line to the nearest
// line recording an object start, then chain-walks forward through
// Header.Size until it either contains candidate or has clearly passed
// it (a gap with no object covering candidate).
//
// A line's recorded offset is where the first object *starting* in that
// line begins, which can be after candidate itself (candidate then falls
// in the tail of an object that started on an earlier line). Step back
// one further line before the backward search in that case, so the
// chain walk still starts at or before candidate.
func findSmallObject(b *gcblock.Block, candidate uintptr) *gcobj.Header {
	idx := b.LineIndex(candidate)
	if idx == gcblock.InvalidLineIndex {
		return nil
	}
	if b.Header(idx).ContainsObject() && b.LineAddr(idx)+uintptr(b.Header(idx).Offset()) > candidate {
		idx--
	}
	for idx >= 0 && !b.Header(idx).ContainsObject() {
		idx--
	}
	if idx < 0 {
		return nil
	}

	addr := b.LineAddr(idx) + uintptr(b.Header(idx).Offset())
	for addr < b.Stop() {
		hdr := (*gcobj.Header)(unsafe.Pointer(addr))
		if hdr.Size == 0 {
			return nil
		}
		if hdr.Contains(candidate) {
			return hdr
		}
		if addr+hdr.Size > candidate {
			return nil
		}
		addr += hdr.Size
	}
	return nil
}

// markLarge marks the chunk (if any) whose payload contains candidate and
// pushes its payload range for further scanning.
func (c *Collector) markLarge(candidate uintptr) {
	chunk := c.global.FindLargeChunk(candidate)
	if chunk == nil || !chunk.Allocated || chunk.Object.IsMarked() {
		return
	}
	chunk.Object.Mark()

	if !chunk.Object.Atomic {
		c.work.Push(uintptr(chunk.Payload()), chunk.Object.End())
	}
}
