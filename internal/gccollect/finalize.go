package gccollect

import (
	"unsafe"

	"github.com/conservgc/conservgc/internal/gcfinal"
	"github.com/conservgc/conservgc/internal/gcobj"
)

// pendingFinalizer is a finalizer whose object did not survive this
// cycle's mark pass, queued for invocation after the lock is released.
type pendingFinalizer struct {
	fn      gcfinal.Finalizer
	payload unsafe.Pointer
}

// collectFinalizers implements §4.6.4, unified across both heaps:
// remove every finalizer table entry whose key (an object header
// address, in either region) did not get marked this cycle, and queue it
// to run. It does not call the finalizer itself — Collect releases the
// lock first so a finalizer that calls back into the allocator (for
// example to free) does not deadlock on a mutex this goroutine already
// holds.
func (c *Collector) collectFinalizers() []pendingFinalizer {
	var pending []pendingFinalizer

	c.global.Finalizers().DeleteIf(func(key uintptr, fn gcfinal.Finalizer) bool {
		if c.headerMarked(key) {
			return false
		}
		pending = append(pending, pendingFinalizer{
			fn:      fn,
			payload: unsafe.Pointer(key + gcobj.HeaderSize),
		})
		return true
	})

	return pending
}

func (c *Collector) headerMarked(headerAddr uintptr) bool {
	if c.global.InSmallHeap(headerAddr) {
		return (*gcobj.Header)(unsafe.Pointer(headerAddr)).IsMarked()
	}
	if c.global.InLargeHeap(headerAddr) {
		return gcobj.ChunkFromObjectAddr(headerAddr).Object.IsMarked()
	}
	return false
}

func runFinalizers(pending []pendingFinalizer) {
	for _, p := range pending {
		p.fn(p.payload)
	}
}
