// Package gcglobal implements the global allocator: the sole owner of the
// heap regions, the free/recyclable block lists, the large chunk lists,
// and the finalizer table. Every exported method on GlobalAllocator
// documents whether it requires the caller to already hold the
// process-wide lock (conservgc.Runtime owns that lock; this package never
// acquires it itself, matching the "cross-component locking" design
// note's separation of concerns from the allocator it serializes).
package gcglobal

import (
	"sync/atomic"
	"unsafe"

	"golang.org/x/sync/singleflight"

	"github.com/conservgc/conservgc/internal/gcblock"
	"github.com/conservgc/conservgc/internal/gcconfig"
	"github.com/conservgc/conservgc/internal/gcfinal"
	"github.com/conservgc/conservgc/internal/gclist"
	"github.com/conservgc/conservgc/internal/gcmem"
	"github.com/conservgc/conservgc/internal/gcobj"
)

// Layout constants for the small and large heap regions.
const (
	BlockSize       = gcblock.BlockSize
	LineSize        = gcblock.LineSize
	LineCount       = gcblock.LineCount
	LargeObjectSize = 8192
	GrowthRatePct   = 30
)

// CollectHook lets the global allocator trigger a collection without
// importing the collector package (which itself imports gcglobal for the
// GlobalAllocator type). conservgc wires the concrete *gccollect.Collector
// in after both are constructed.
type CollectHook interface {
	IsCollecting() bool
	Collect()
}

// smallRegion records one mmap'd span backing the small heap. Growth maps
// a fresh span rather than extending the existing one (Go offers no
// portable mremap), so the small heap is a set of disjoint, BlockSize-
// aligned spans rather than one contiguous range.
type smallRegion struct {
	mem         []byte
	start, stop uintptr
}

// largeRegion records one mmap'd span backing the large heap, together
// with the chunk list threaded through it. Each region's chunks are only
// ever coalesced with their own region's neighbors — see ChunkList.Sweep,
// which assumes address-adjacency that only holds within a single span.
type largeRegion struct {
	mem         []byte
	start, stop uintptr
	chunks      gclist.ChunkList
}

// GlobalAllocator owns both heap regions and all free-space bookkeeping.
type GlobalAllocator struct {
	smallRegions  []*smallRegion
	smallHeapSize uintptr

	freeList       gclist.BlockList
	recyclableList gclist.BlockList

	largeRegions  []*largeRegion
	largeHeapSize uintptr

	finalizers *gcfinal.Table

	memoryLimit      uintptr
	freeSpaceDivisor uintptr

	allocatedSinceCollect atomic.Uint64
	totalAllocatedBytes   atomic.Uint64

	collectHook CollectHook
	collectSF   singleflight.Group
}

// New creates and initializes a global allocator with the two heap
// regions sized per cfg. initialSize must be >= 2*BlockSize and a multiple
// of BlockSize (§6); violations panic as InvalidArgument.
func New(cfg gcconfig.Config) *GlobalAllocator {
	initialSize := cfg.InitialHeapSize
	if initialSize < 2*BlockSize || initialSize%BlockSize != 0 {
		panic(gcobj.Fatalf(gcobj.ErrorInvalidArgument,
			"initial heap size %d must be >= %d and a multiple of %d", initialSize, 2*BlockSize, BlockSize))
	}

	g := &GlobalAllocator{
		memoryLimit:      cfg.MaximumHeapSize,
		freeSpaceDivisor: cfg.FreeSpaceDivisor,
		finalizers:       gcfinal.New(),
	}

	g.addSmallRegion(initialSize)
	g.addLargeRegion(initialSize)

	return g
}

func (g *GlobalAllocator) addSmallRegion(size uintptr) {
	mem := gcmem.MapAligned(size, BlockSize)
	start := uintptr(unsafe.Pointer(&mem[0]))
	r := &smallRegion{mem: mem, start: start, stop: start + size}
	g.smallRegions = append(g.smallRegions, r)
	g.smallHeapSize += size

	for addr := r.start; addr < r.stop; addr += BlockSize {
		b := gcblock.FromPointer(addr)
		b.Init()
		g.freeList.PushBack(b)
	}
}

func (g *GlobalAllocator) addLargeRegion(size uintptr) {
	mem := gcmem.Map(size)
	start := uintptr(unsafe.Pointer(&mem[0]))
	r := &largeRegion{mem: mem, start: start, stop: start + size}

	chunk := (*gcobj.Chunk)(unsafe.Pointer(&mem[0]))
	chunk.Init(size)
	r.chunks.PushBack(chunk)

	g.largeRegions = append(g.largeRegions, r)
	g.largeHeapSize += size
}

// SetCollectHook wires the collector that try_collect invokes. Called
// once, by conservgc.New, after both the allocator and the collector
// have been constructed.
func (g *GlobalAllocator) SetCollectHook(hook CollectHook) {
	g.collectHook = hook
}

// NextBlock implements §4.4.1. Caller must hold the lock.
func (g *GlobalAllocator) NextBlock() *gcblock.Block {
	if !g.recyclableList.Empty() {
		return g.recyclableList.PopFront()
	}
	if !g.freeList.Empty() {
		return g.freeList.PopFront()
	}
	if g.TryCollect() {
		if b := g.recyclableList.PopFront(); b != nil {
			return b
		}
	}
	if g.freeList.Empty() {
		g.growSmall()
	}
	b := g.freeList.PopFront()
	if b == nil {
		panic(gcobj.Fatalf(gcobj.ErrorAllocationFailed, "small heap exhausted after growth"))
	}
	return b
}

// NextFreeBlock implements §4.4.2: like NextBlock, but only ever
// returns a Free block, never Recyclable — used by overflow allocation so
// a medium object never fragments a block's existing holes. Caller must
// hold the lock.
func (g *GlobalAllocator) NextFreeBlock() *gcblock.Block {
	if !g.freeList.Empty() {
		return g.freeList.PopFront()
	}
	g.TryCollect()
	if g.freeList.Empty() {
		g.growSmall()
	}
	b := g.freeList.PopFront()
	if b == nil {
		panic(gcobj.Fatalf(gcobj.ErrorAllocationFailed, "small heap exhausted after growth"))
	}
	return b
}

// TryCollect implements §4.4.7's free-space-divisor policy. Caller
// must hold the lock. The singleflight group collapses concurrent callers
// that independently cross the threshold into a single collection pass —
// see §4.4 for why this composes safely with the
// coarse-grained lock rather than duplicating it.
func (g *GlobalAllocator) TryCollect() bool {
	if g.collectHook == nil || g.collectHook.IsCollecting() {
		return false
	}

	heapSize := g.smallHeapSize + g.largeHeapSize
	threshold := uint64(heapSize / g.freeSpaceDivisor)
	if g.allocatedSinceCollect.Load() < threshold {
		return false
	}

	_, _, _ = g.collectSF.Do("collect", func() (interface{}, error) {
		g.collectHook.Collect()
		return nil, nil
	})
	return true
}

// InSmallHeap reports whether p falls within any small-heap region.
func (g *GlobalAllocator) InSmallHeap(p uintptr) bool {
	for _, r := range g.smallRegions {
		if p >= r.start && p < r.stop {
			return true
		}
	}
	return false
}

// InLargeHeap reports whether p falls within any large-heap region.
func (g *GlobalAllocator) InLargeHeap(p uintptr) bool {
	for _, r := range g.largeRegions {
		if p >= r.start && p < r.stop {
			return true
		}
	}
	return false
}

// InHeap reports whether p falls within either heap.
func (g *GlobalAllocator) InHeap(p uintptr) bool {
	return g.InSmallHeap(p) || g.InLargeHeap(p)
}

// FindLargeChunk returns the chunk whose payload contains p, searching
// every large-heap region, or nil.
func (g *GlobalAllocator) FindLargeChunk(p uintptr) *gcobj.Chunk {
	for _, r := range g.largeRegions {
		if p < r.start || p >= r.stop {
			continue
		}
		if c := r.chunks.Find(p); c != nil {
			return c
		}
	}
	return nil
}

// EachSmallBlock calls fn once for every block across every small-heap
// region, in address order within each region. Used by the collector's
// unmark and recycle passes, which must visit every block regardless of
// which list (if any) currently holds it.
func (g *GlobalAllocator) EachSmallBlock(fn func(*gcblock.Block)) {
	for _, r := range g.smallRegions {
		for addr := r.start; addr < r.stop; addr += BlockSize {
			fn(gcblock.FromPointer(addr))
		}
	}
}

// EachLargeChunkList calls fn once per large-heap region's chunk list and
// commit boundary, for the collector's sweep pass and for statistics.
func (g *GlobalAllocator) EachLargeChunkList(fn func(chunks *gclist.ChunkList, stop uintptr)) {
	for _, r := range g.largeRegions {
		fn(&r.chunks, r.stop)
	}
}

// AccountAllocation updates the byte counters after a successful
// allocation. Lock-free: both counters are atomic, so the bump-allocation
// fast path can call this without acquiring the global lock.
func (g *GlobalAllocator) AccountAllocation(size uintptr) {
	g.allocatedSinceCollect.Add(uint64(size))
	g.totalAllocatedBytes.Add(uint64(size))
}

// ResetCounters zeroes the "bytes since collect" counter at the end of a
// collection cycle (§4.6.5). Caller must hold the lock (collection
// always runs under it).
func (g *GlobalAllocator) ResetCounters() {
	g.allocatedSinceCollect.Store(0)
}

// AllocatedSinceCollect and TotalAllocatedBytes expose the counters for
// statistics reporting.
func (g *GlobalAllocator) AllocatedSinceCollect() uint64 { return g.allocatedSinceCollect.Load() }
func (g *GlobalAllocator) TotalAllocatedBytes() uint64   { return g.totalAllocatedBytes.Load() }

// HeapSize returns the combined small + large heap size.
func (g *GlobalAllocator) HeapSize() uintptr { return g.smallHeapSize + g.largeHeapSize }

// SmallHeapSize and LargeHeapSize expose the per-region totals separately,
// used by growth policy and statistics.
func (g *GlobalAllocator) SmallHeapSize() uintptr { return g.smallHeapSize }
func (g *GlobalAllocator) LargeHeapSize() uintptr { return g.largeHeapSize }

// FreeList and RecyclableList expose the block lists for the collector's
// recycle pass, which clears and repopulates them.
func (g *GlobalAllocator) FreeList() *gclist.BlockList       { return &g.freeList }
func (g *GlobalAllocator) RecyclableList() *gclist.BlockList { return &g.recyclableList }

// Finalizers exposes the finalizer table to the public surface and the
// collector.
func (g *GlobalAllocator) Finalizers() *gcfinal.Table { return g.finalizers }

// MemoryLimit returns the configured heap growth ceiling.
func (g *GlobalAllocator) MemoryLimit() uintptr { return g.memoryLimit }
