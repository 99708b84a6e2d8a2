package gcblock

import "unsafe"

// Hole is written in-place at the first word of a free run of lines inside
// a recyclable block. It carries no allocation of its own — it is laid
// directly over mutator-visible memory the way the source overlays the
// Hole struct on freed line bytes.
type Hole struct {
	Limit uintptr
	Next  uintptr
}

// HoleAt reinterprets the memory at addr as a Hole record.
func HoleAt(addr uintptr) *Hole {
	return (*Hole)(unsafe.Pointer(addr))
}

// Addr returns the hole's own address (where the caller should resume
// bump allocation).
func (h *Hole) Addr() uintptr { return uintptr(unsafe.Pointer(h)) }
