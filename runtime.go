// Package conservgc is a conservative, non-moving, mark-and-sweep
// collector for manually-triggered workloads: host code calls Malloc
// instead of make/new for memory it wants scanned and swept, registers
// the ranges that might hold pointers into that memory, and periodically
// calls Collect (or lets the free-space threshold trigger it
// automatically from inside Malloc).
//
// Go's own garbage-collected heap is deliberately not used as the
// backing store: the whole point of this package is a second, segregated
// heap with its own block/chunk layout, finalizer table, and collection
// policy, analogous to a language runtime embedding a C allocator rather
// than handing every allocation to its host's GC.
package conservgc

import (
	"sync"

	"github.com/conservgc/conservgc/internal/gcblock"
	"github.com/conservgc/conservgc/internal/gcconfig"
	"github.com/conservgc/conservgc/internal/gccollect"
	"github.com/conservgc/conservgc/internal/gcglobal"
	"github.com/conservgc/conservgc/internal/gclocal"
	"github.com/conservgc/conservgc/internal/gcmem"
	"github.com/conservgc/conservgc/internal/gcobj"
)

// Re-exported constants, per §6.
const (
	BlockSize          = gcglobal.BlockSize
	LineSize           = gcglobal.LineSize
	LineCount          = gcglobal.LineCount
	LargeObjectSize    = gcglobal.LargeObjectSize
	GCInitialHeapSize  = gcconfig.DefaultInitialHeapSize
	GCFreeSpaceDivisor = gcconfig.DefaultFreeSpaceDivisor
)

// Runtime is the whole collector: one process-wide lock serializing every
// mutation of the heaps, the finalizer table, and the static root set.
// conservgc itself uses the package-level default Runtime created by
// Init; tests and hosts embedding more than one heap can construct
// additional ones with New.
//
// handles is the Go-idiomatic replacement for the source's thread-local
// storage, which Go has none of: AttachThread returns an explicit Handle
// the host must thread through every allocation call itself, and that
// Handle is also registered here so the collector can find every local
// allocator's stack root and reset its cursors after a cycle. It is kept
// in a sync.Map rather than under mu because attach/detach (writes) and
// EachRoot (reads, from inside Collect with mu already held) must never
// contend with each other — a plain map guarded by mu would deadlock the
// moment EachRoot tried to re-lock mu during a collection already holding
// it.
type Runtime struct {
	mu sync.Mutex

	global    *gcglobal.GlobalAllocator
	collector *gccollect.Collector

	handles     sync.Map // *Handle -> struct{}
	staticRoots []rootRange

	callbacks []func(Stats)

	watcher *triggerWatcher
}

type rootRange struct {
	top, bottom uintptr
}

var (
	defaultOnce sync.Once
	defaultRT   *Runtime
)

// Init creates the package-level default Runtime, reading tuning knobs
// from the environment (GC_INITIAL_HEAP_SIZE, GC_MAXIMUM_HEAP_SIZE,
// GC_FREE_SPACE_DIVISOR). Calling Init more than once is a no-op; use New
// directly when more than one independent heap is needed in the same
// process (e.g. in tests).
func Init() {
	defaultOnce.Do(func() {
		defaultRT = New(gcconfig.FromEnviron(gcmem.MemoryLimit()))
	})
}

// Deinit drops the default Runtime. Its memory-mapped regions are
// reclaimed once Go's own garbage collector notices nothing still
// references the backing byte slices — there is no explicit unmap call,
// matching a non-moving allocator's reliance on process exit (or, here,
// the host's GC) to return mapped memory.
func Deinit() {
	defaultRT = nil
	defaultOnce = sync.Once{}
}

// New constructs an independent Runtime from an explicit configuration,
// wiring the global allocator, the collector, and the lock-aware block
// source that connects them to a local allocator's bump-pointer fast
// path.
func New(cfg gcconfig.Config) *Runtime {
	rt := &Runtime{
		global: gcglobal.New(cfg),
	}

	collector := gccollect.New(rt.global, rootProvider{rt}, runtimeLocker{rt})
	rt.collector = collector
	rt.global.SetCollectHook(collector)

	return rt
}

func defaultRuntime() *Runtime {
	if defaultRT == nil {
		panic(gcobj.Fatalf(gcobj.ErrorInvalidArgument, "conservgc: Init has not been called"))
	}
	return defaultRT
}

// blockSource adapts a Runtime into gclocal.BlockSource, acquiring the
// lock only around the calls that actually touch shared state —
// AccountAllocation is lock-free (its counters are atomic), so the
// common bump-allocation path through gclocal.LocalAllocator never blocks
// on the mutex at all.
type blockSource struct{ rt *Runtime }

func (s blockSource) NextBlock() *gcblock.Block {
	s.rt.mu.Lock()
	defer s.rt.mu.Unlock()
	return s.rt.global.NextBlock()
}

func (s blockSource) NextFreeBlock() *gcblock.Block {
	s.rt.mu.Lock()
	defer s.rt.mu.Unlock()
	return s.rt.global.NextFreeBlock()
}

func (s blockSource) AccountAllocation(size uintptr) {
	s.rt.global.AccountAllocation(size)
}

// runtimeLocker exposes the Runtime's mutex to the collector through the
// narrow gccollect.Locker interface, so gccollect never needs to import
// sync itself or know the lock is specifically a Mutex.
type runtimeLocker struct{ rt *Runtime }

func (l runtimeLocker) Lock()   { l.rt.mu.Lock() }
func (l runtimeLocker) Unlock() { l.rt.mu.Unlock() }

// rootProvider adapts a Runtime into gccollect.RootProvider.
type rootProvider struct{ rt *Runtime }

func (p rootProvider) EachRoot(push func(top, bottom uintptr)) {
	for _, r := range p.rt.staticRoots {
		push(r.top, r.bottom)
	}
	p.rt.handles.Range(func(key, _ any) bool {
		h := key.(*Handle)
		if h.stackTop != h.stackBottom {
			push(h.stackTop, h.stackBottom)
		}
		return true
	})
}

// newLocalAllocator constructs a gclocal.LocalAllocator bound to rt's
// lock-aware block source.
func (rt *Runtime) newLocalAllocator() *gclocal.LocalAllocator {
	return gclocal.New(blockSource{rt: rt})
}
