package gccollect_test

import (
	"testing"
	"unsafe"

	"go.uber.org/mock/gomock"

	"github.com/conservgc/conservgc/internal/gcconfig"
	"github.com/conservgc/conservgc/internal/gccollect"
	"github.com/conservgc/conservgc/internal/gcglobal"
	"github.com/conservgc/conservgc/internal/gclocal"
	"github.com/conservgc/conservgc/internal/gcobj"
)

func newHeap(t *testing.T) (*gcglobal.GlobalAllocator, *gclocal.LocalAllocator) {
	t.Helper()
	g := gcglobal.New(gcconfig.Config{
		InitialHeapSize:  2 * gcglobal.BlockSize,
		MaximumHeapSize:  0,
		FreeSpaceDivisor: gcconfig.DefaultFreeSpaceDivisor,
	})
	return g, gclocal.New(g)
}

// rootedAt builds a RootProvider mock whose single root range is the one
// word at slot, so whatever pointer-shaped value lives there is scanned as
// an ambiguous root.
func rootedAt(t *testing.T, slot *uintptr) gccollect.RootProvider {
	t.Helper()
	ctrl := gomock.NewController(t)
	rp := NewMockRootProvider(ctrl)
	top := uintptr(unsafe.Pointer(slot))
	rp.EXPECT().EachRoot(gomock.Any()).Do(func(push func(top, bottom uintptr)) {
		push(top, top+gcobj.WordSize)
	})
	return rp
}

// noRoots builds a RootProvider mock that contributes nothing to scan.
func noRoots(t *testing.T) gccollect.RootProvider {
	t.Helper()
	ctrl := gomock.NewController(t)
	rp := NewMockRootProvider(ctrl)
	rp.EXPECT().EachRoot(gomock.Any()).Do(func(push func(top, bottom uintptr)) {})
	return rp
}

func TestSmallObjectSurvivesWhenRooted(t *testing.T) {
	g, la := newHeap(t)
	p := la.AllocateSmall(64, false)

	var slot uintptr = uintptr(p)
	c := gccollect.New(g, rootedAt(t, &slot), nil)
	c.Collect()

	if !gcobj.HeaderFromPayload(p).IsMarked() {
		t.Fatal("a rooted small object must be marked live after Collect")
	}
}

func TestSmallObjectReclaimedWhenUnrooted(t *testing.T) {
	g, la := newHeap(t)
	p := la.AllocateSmall(64, false)

	c := gccollect.New(g, noRoots(t), nil)
	c.Collect()

	if gcobj.HeaderFromPayload(p).IsMarked() {
		t.Fatal("an unrooted small object must not be marked live after Collect")
	}
}

func TestLargeObjectSurvivesWhenRooted(t *testing.T) {
	g, _ := newHeap(t)
	p := g.AllocateLarge(1024, false)

	var slot uintptr = uintptr(p)
	c := gccollect.New(g, rootedAt(t, &slot), nil)
	c.Collect()

	hdr := gcobj.HeaderFromPayload(p)
	chunk := gcobj.ChunkFromObjectAddr(hdr.Addr())
	if !chunk.Object.IsMarked() {
		t.Fatal("a rooted large object must be marked live after Collect")
	}
	if !chunk.Allocated {
		t.Fatal("Sweep must not free a chunk that survived marking")
	}
}

func TestLargeObjectReclaimedWhenUnrooted(t *testing.T) {
	g, _ := newHeap(t)
	p := g.AllocateLarge(1024, false)
	hdr := gcobj.HeaderFromPayload(p)
	chunk := gcobj.ChunkFromObjectAddr(hdr.Addr())

	c := gccollect.New(g, noRoots(t), nil)
	c.Collect()

	if chunk.Allocated {
		t.Fatal("Sweep must free an unreachable large object's chunk")
	}
}

func TestInnerPointerKeepsObjectAlive(t *testing.T) {
	g, la := newHeap(t)
	p := la.AllocateSmall(64, false)

	// A root that only points partway into the payload must still find
	// and mark the whole object (conservative inner-pointer resolution).
	inner := uintptr(p) + 16
	var slot uintptr = inner
	c := gccollect.New(g, rootedAt(t, &slot), nil)
	c.Collect()

	if !gcobj.HeaderFromPayload(p).IsMarked() {
		t.Fatal("an interior pointer must keep the whole object it points into alive")
	}
}

func TestFinalizerFiresOnceWhenUnreachable(t *testing.T) {
	g, la := newHeap(t)
	p := la.AllocateSmall(32, false)
	key := gcobj.HeaderFromPayload(p).Addr()

	var calls int
	var gotPayload unsafe.Pointer
	g.Finalizers().Insert(key, func(payload unsafe.Pointer) {
		calls++
		gotPayload = payload
	})

	c := gccollect.New(g, noRoots(t), nil)
	c.Collect()

	if calls != 1 {
		t.Fatalf("finalizer ran %d times, want exactly 1", calls)
	}
	if gotPayload != p {
		t.Fatalf("finalizer payload = %p, want %p", gotPayload, p)
	}
	if g.Finalizers().Len() != 0 {
		t.Fatal("a fired finalizer's entry must be removed from the table")
	}
}

func TestFinalizerDoesNotFireWhileReachable(t *testing.T) {
	g, la := newHeap(t)
	p := la.AllocateSmall(32, false)
	key := gcobj.HeaderFromPayload(p).Addr()

	var calls int
	g.Finalizers().Insert(key, func(unsafe.Pointer) { calls++ })

	var slot uintptr = uintptr(p)
	c := gccollect.New(g, rootedAt(t, &slot), nil)
	c.Collect()

	if calls != 0 {
		t.Fatal("a finalizer for a still-reachable object must not run")
	}
	if g.Finalizers().Len() != 1 {
		t.Fatal("a surviving object's finalizer entry must remain registered")
	}
}

func TestUnmarkClearsPreviousCycleMarks(t *testing.T) {
	g, la := newHeap(t)
	p := la.AllocateSmall(64, false)

	var slot uintptr = uintptr(p)
	c := gccollect.New(g, rootedAt(t, &slot), nil)
	c.Collect() // cycle 1: rooted, survives marked

	if !gcobj.HeaderFromPayload(p).IsMarked() {
		t.Fatal("precondition: object should be marked after the first cycle")
	}

	// Drop the root and collect again; Unmark must clear the stale bit
	// before Mark runs, or the object would wrongly look reachable.
	c2 := gccollect.New(g, noRoots(t), nil)
	c2.Collect()

	if gcobj.HeaderFromPayload(p).IsMarked() {
		t.Fatal("Unmark must clear a previous cycle's mark before re-marking from fresh roots")
	}
}
