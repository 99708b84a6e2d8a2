package conservgc

import (
	"unsafe"

	"github.com/conservgc/conservgc/internal/gcobj"
)

// Malloc allocates size bytes of scanned, collectable memory on behalf of
// h's mutator. Objects at or above LargeObjectSize are carved from the
// chunked large heap directly (locked); everything smaller goes through
// h's lock-free bump-pointer fast path, falling back to the global
// allocator (locked) only when its current block is exhausted.
func (h *Handle) Malloc(size uintptr) unsafe.Pointer {
	return h.allocate(size, false)
}

// MallocAtomic is Malloc for objects the caller promises contain no
// pointers into either heap: the collector marks the object itself but
// never scans its payload for further roots, per §4.6.3.
func (h *Handle) MallocAtomic(size uintptr) unsafe.Pointer {
	return h.allocate(size, true)
}

func (h *Handle) allocate(size uintptr, atomic bool) unsafe.Pointer {
	if size >= LargeObjectSize {
		h.rt.mu.Lock()
		defer h.rt.mu.Unlock()
		return h.rt.global.AllocateLarge(size, atomic)
	}
	return h.local.AllocateSmall(size, atomic)
}

// Free explicitly releases a large object allocated with Malloc or
// MallocAtomic. Small objects have no explicit free — they are only
// reclaimed by Collect's sweep — matching the source's non-moving
// allocator, which never frees a line-granular object outside a
// collection cycle. Free of a small object, or of any pointer outside the
// large heap, does nothing.
func (h *Handle) Free(p unsafe.Pointer) {
	if p == nil {
		return
	}
	h.rt.mu.Lock()
	defer h.rt.mu.Unlock()
	if !h.rt.global.InLargeHeap(uintptr(p)) {
		return
	}
	h.rt.global.DeallocateLarge(p)
}

// Realloc allocates a new object of newSize bytes, copies over the
// lesser of the old and new payload sizes, transfers any finalizer to
// the new object, and — for a large object — frees the original. A
// small object's old storage is left for the next collection to
// reclaim, matching Free's rule that small objects are never explicitly
// released outside a sweep.
//
// p itself is returned unchanged when it already has room for newSize,
// and a zero newSize acts as Free, per §6/§8.
func (h *Handle) Realloc(p unsafe.Pointer, newSize uintptr) unsafe.Pointer {
	if p == nil {
		return h.Malloc(newSize)
	}
	if newSize == 0 {
		h.Free(p)
		return nil
	}

	old := gcobj.HeaderFromPayload(p)
	if newSize <= old.PayloadSize() {
		return p
	}
	wasLarge := old.Size >= LargeObjectSize

	np := h.allocate(newSize, old.Atomic)

	oldPayload := old.PayloadSize()
	n := oldPayload
	if newSize < n {
		n = newSize
	}
	if n > 0 {
		copy(unsafe.Slice((*byte)(np), n), unsafe.Slice((*byte)(p), n))
	}

	h.transferFinalizer(old.Addr(), np)

	if wasLarge {
		h.Free(p)
	}
	return np
}

// transferFinalizer moves any finalizer registered for the object at
// oldKey so that it fires for np instead, per §6/§8's "finalizer now
// attached to q and not to p". Must run before a large object's Free,
// since DeallocateLarge fires and clears whatever finalizer is still
// attached to the freed header.
func (h *Handle) transferFinalizer(oldKey uintptr, np unsafe.Pointer) {
	h.rt.mu.Lock()
	defer h.rt.mu.Unlock()
	if fn, ok := h.rt.global.Finalizers().Delete(oldKey); ok {
		h.rt.global.Finalizers().Insert(gcobj.HeaderFromPayload(np).Addr(), fn)
	}
}

// InHeap reports whether p falls inside either of rt's heaps, small or
// large.
func (rt *Runtime) InHeap(p unsafe.Pointer) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.global.InHeap(uintptr(p))
}

// InHeap reports whether p falls inside the default Runtime's heap.
func InHeap(p unsafe.Pointer) bool {
	return defaultRuntime().InHeap(p)
}
