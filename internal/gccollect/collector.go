// Package gccollect implements the conservative mark-and-sweep cycle
// itself: unmarking the previous cycle's bits, marking everything
// transitively reachable from the host's roots, firing finalizers for
// whatever didn't survive, and sweeping both heaps back into allocatable
// shape.
package gccollect

import (
	"github.com/conservgc/conservgc/internal/gcglobal"
	"github.com/conservgc/conservgc/internal/gcstack"
)

// RootProvider enumerates the candidate root ranges for a collection
// cycle. Go cannot portably introspect a process's own .data/.bss/stack
// segments the way the source's host C runtime does, so the conservgc
// package builds this from explicitly registered root ranges and the
// stack bounds supplied by each attached thread. Defined as an interface
// so collector tests can supply a go.uber.org/mock (gomock) fake
// instead of real memory ranges.
type RootProvider interface {
	// EachRoot calls push once per root range. A range is [min(top,bottom),
	// max(top,bottom)) of candidate ambiguous pointer words.
	EachRoot(push func(top, bottom uintptr))
}

// Locker is the subset of sync.Mutex the collector needs to release the
// process lock around finalizer invocation (spec's resolution to the
// finalizer-reentrancy design note) and reacquire it before returning.
type Locker interface {
	Lock()
	Unlock()
}

// Collector runs one mark-and-sweep cycle at a time against a single
// GlobalAllocator. A Collector is not safe for concurrent use; every
// entry point assumes the caller already holds lock (if one was
// supplied) on entry. Collect alone releases it while the queued
// finalizers run and reacquires it before returning.
type Collector struct {
	global *gcglobal.GlobalAllocator
	roots  RootProvider
	lock   Locker

	work gcstack.Stack

	collecting bool
}

// New creates a collector. lock may be nil for tests that drive Unmark /
// Mark / Sweep directly without going through Collect's finalizer-release
// behavior.
func New(global *gcglobal.GlobalAllocator, roots RootProvider, lock Locker) *Collector {
	return &Collector{global: global, roots: roots, lock: lock}
}

// IsCollecting reports whether a cycle is currently in progress —
// consulted by GlobalAllocator.TryCollect to avoid recursive collection.
func (c *Collector) IsCollecting() bool { return c.collecting }
