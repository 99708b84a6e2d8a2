// Package gcobj defines the on-heap metadata that precedes every mutator
// allocation: the object header shared by the small and large regions, and
// the chunk header that additionally precedes objects in the large region.
package gcobj

import "unsafe"

// WordSize is the allocator's unit of rounding and the stride used when
// scanning root regions for ambiguous pointers.
const WordSize = unsafe.Sizeof(uintptr(0))

// Header precedes every mutator payload, in both the small (block) region
// and the large (chunk) region.
//
// Size is the total allocation size in bytes: sizeof(Header) + payload,
// rounded up to WordSize. Marked and Atomic are one-byte flags in the
// source this is ported from; Go gives them their natural bool
// representation instead of hand-rolled bit flags, since nothing here
// needs to share layout with a C ABI.
type Header struct {
	Size   uintptr
	Marked bool
	Atomic bool
}

// HeaderSize is computed once and reused everywhere an offset into a header-
// prefixed allocation is needed.
const HeaderSize = unsafe.Sizeof(Header{})

// RoundToWord rounds size up to the next multiple of WordSize.
func RoundToWord(size uintptr) uintptr {
	return (size + WordSize - 1) &^ (WordSize - 1)
}

// HeaderFromPayload recovers the header immediately preceding a payload
// pointer handed back by an allocation call.
func HeaderFromPayload(payload unsafe.Pointer) *Header {
	return (*Header)(unsafe.Pointer(uintptr(payload) - HeaderSize))
}

// Addr returns the header's own address.
func (h *Header) Addr() uintptr {
	return uintptr(unsafe.Pointer(h))
}

// Payload returns the mutator-visible address immediately following the
// header.
func (h *Header) Payload() unsafe.Pointer {
	return unsafe.Pointer(h.Addr() + HeaderSize)
}

// PayloadSize returns the size available to the mutator, excluding the
// header.
func (h *Header) PayloadSize() uintptr {
	return h.Size - HeaderSize
}

// End returns the address one past the end of the allocation.
func (h *Header) End() uintptr {
	return h.Addr() + h.Size
}

// Contains reports whether p falls inside this object's payload range,
// i.e. [payload, end). A pointer to the byte one past the payload does not
// count, matching the documented boundary behavior for inner-pointer marking.
func (h *Header) Contains(p uintptr) bool {
	start := h.Addr() + HeaderSize
	return p >= start && p < h.End()
}

// Init stamps the header for a fresh allocation. The caller has already
// zeroed or otherwise prepared the underlying memory.
func (h *Header) Init(size uintptr, atomic bool) {
	h.Size = size
	h.Marked = false
	h.Atomic = atomic
}

// Mark/Unmark/IsMarked implement the reachability flag toggled by the
// collector.
func (h *Header) Mark()          { h.Marked = true }
func (h *Header) Unmark()        { h.Marked = false }
func (h *Header) IsMarked() bool { return h.Marked }
