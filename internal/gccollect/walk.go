package gccollect

import (
	"unsafe"

	"github.com/conservgc/conservgc/internal/gcblock"
	"github.com/conservgc/conservgc/internal/gcobj"
)

// walkBlockObjects visits every object header still physically present in
// b, in address order, by chain-walking forward from each line's recorded
// first-object offset until a zero-size sentinel (the gap after the last
// object written into that span) or the block's end.
//
// This never wanders into reclaimed hole bytes: recycle.go's scanHoleRuns
// always leaves one buffer line untouched immediately after a marked
// line before a hole can begin, so a hole's own Hole{Limit,Next} record
// never lands at the address a still-live chain's trailing sentinel
// occupies.
func walkBlockObjects(b *gcblock.Block, visit func(hdr *gcobj.Header)) {
	var highWater uintptr
	for i := 0; i < gcblock.LineCount; i++ {
		lh := b.Header(i)
		if !lh.ContainsObject() {
			continue
		}
		start := b.LineAddr(i) + uintptr(lh.Offset())
		if start < highWater {
			continue
		}

		addr := start
		for addr < b.Stop() {
			hdr := (*gcobj.Header)(unsafe.Pointer(addr))
			if hdr.Size == 0 {
				break
			}
			visit(hdr)
			addr += hdr.Size
		}
		highWater = addr
	}
}
