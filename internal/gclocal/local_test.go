package gclocal

import (
	"testing"
	"unsafe"

	"github.com/conservgc/conservgc/internal/gcblock"
	"github.com/conservgc/conservgc/internal/gcobj"
)

type fakeSource struct {
	blocks       []*gcblock.Block
	freeBlocks   []*gcblock.Block
	accountedSum uintptr
}

func newFreeBlock() *gcblock.Block {
	raw := make([]byte, 2*gcblock.BlockSize)
	base := uintptr(unsafe.Pointer(&raw[0]))
	aligned := (base + gcblock.BlockSize - 1) &^ (gcblock.BlockSize - 1)
	b := (*gcblock.Block)(unsafe.Pointer(aligned))
	b.Init()
	return b
}

func (s *fakeSource) NextBlock() *gcblock.Block {
	if len(s.blocks) == 0 {
		return nil
	}
	b := s.blocks[0]
	s.blocks = s.blocks[1:]
	return b
}

func (s *fakeSource) NextFreeBlock() *gcblock.Block {
	if len(s.freeBlocks) == 0 {
		return nil
	}
	b := s.freeBlocks[0]
	s.freeBlocks = s.freeBlocks[1:]
	return b
}

func (s *fakeSource) AccountAllocation(size uintptr) { s.accountedSum += size }

func TestAllocateSmallFromFreshBlock(t *testing.T) {
	src := &fakeSource{blocks: []*gcblock.Block{newFreeBlock()}}
	la := New(src)

	p := la.AllocateSmall(64, false)
	if p == nil {
		t.Fatal("AllocateSmall must return a non-nil payload")
	}
	hdr := gcobj.HeaderFromPayload(p)
	if hdr.PayloadSize() < 64 {
		t.Fatalf("payload size %d is smaller than the requested 64 bytes", hdr.PayloadSize())
	}
	if src.accountedSum == 0 {
		t.Fatal("AllocateSmall must account the allocation with the block source")
	}
}

func TestAllocateSmallPacksMultipleObjectsIntoOneBlock(t *testing.T) {
	src := &fakeSource{blocks: []*gcblock.Block{newFreeBlock()}}
	la := New(src)

	first := la.AllocateSmall(32, false)
	second := la.AllocateSmall(32, false)
	if first == second {
		t.Fatal("two successive small allocations must not alias")
	}
	if uintptr(second) <= uintptr(first) {
		t.Fatal("the bump cursor must advance forward within one block")
	}
}

func TestAllocateSmallAdvancesToNextBlockWhenExhausted(t *testing.T) {
	a, b := newFreeBlock(), newFreeBlock()
	src := &fakeSource{blocks: []*gcblock.Block{b}}
	la := New(src)

	// Position block a so only a thin, sub-line tail remains: too small
	// for the overflow path to claim, so the only way forward is a fresh
	// block from the source.
	la.block = a
	la.limit = a.Stop()
	la.cursor = la.limit - 64
	la.nextHole = 0

	p := la.AllocateSmall(256, false)
	if p == nil {
		t.Fatal("allocation must eventually succeed by drawing a second block")
	}
	if !b.Contains(uintptr(p)) {
		t.Fatal("the allocation must land in the freshly drawn block, not the exhausted one")
	}
	if len(src.blocks) != 0 {
		t.Fatal("the supplied block should have been consumed by this point")
	}
}

func TestAllocateSmallPanicsWhenSourceExhausted(t *testing.T) {
	src := &fakeSource{}
	la := New(src)

	defer func() {
		if recover() == nil {
			t.Fatal("AllocateSmall must panic when the block source has nothing left to give")
		}
	}()
	la.AllocateSmall(64, false)
}

func TestAllocateOverflowUsesDedicatedFreeBlock(t *testing.T) {
	overflow := newFreeBlock()
	primary := newFreeBlock()
	src := &fakeSource{freeBlocks: []*gcblock.Block{overflow}}
	la := New(src)

	// Position the current hole so it has more than a line's worth of
	// room left, but not enough for the upcoming request: that is exactly
	// the condition allocateOverflow exists for, rather than searching
	// for another hole in this same block.
	la.block = primary
	la.limit = primary.Stop()
	la.cursor = la.limit - (gcblock.LineSize + 48)
	la.nextHole = 0

	p := la.AllocateSmall(gcblock.LineSize+64, false)
	if p == nil {
		t.Fatal("an overflow allocation must still succeed")
	}
	if !overflow.Contains(uintptr(p)) {
		t.Fatal("an overflow-sized allocation must be carved from the dedicated free block")
	}
}

func TestAllocateSmallExactHoleFillDoesNotClobberFollowingLine(t *testing.T) {
	b := newFreeBlock()
	src := &fakeSource{}
	la := New(src)

	rsize := gcobj.RoundToWord(gcobj.HeaderSize + 64)

	// Simulate a recyclable block's hole whose limit sits short of the
	// block's end, with a live object header sitting right past it.
	la.block = b
	la.cursor = b.Start()
	la.limit = b.Start() + rsize
	la.nextHole = 0

	live := (*gcobj.Header)(unsafe.Pointer(la.limit))
	live.Init(0x4242, true)

	p := la.AllocateSmall(64, false)
	if p == nil {
		t.Fatal("AllocateSmall must succeed when the request exactly fills the hole")
	}
	if live.Size != 0x4242 || !live.Atomic {
		t.Fatal("an allocation that exactly fills a hole must not write a sentinel past the hole's own limit")
	}
}

func TestResetClearsCursorsForFutureAllocations(t *testing.T) {
	src := &fakeSource{blocks: []*gcblock.Block{newFreeBlock(), newFreeBlock()}}
	la := New(src)

	la.AllocateSmall(64, false)
	la.Reset()

	// After Reset, the next allocation must pull a fresh block from the
	// source rather than reuse the stale cursor.
	p := la.AllocateSmall(64, false)
	if p == nil {
		t.Fatal("allocation after Reset must still succeed by drawing a new block")
	}
	if len(src.blocks) != 0 {
		t.Fatal("Reset followed by one allocation must have consumed the second block")
	}
}
