package conservgc

import (
	"github.com/conservgc/conservgc/internal/gclocal"
	"github.com/conservgc/conservgc/internal/gcobj"
)

// Handle is a thread's (or goroutine's, or any other unit of attached
// mutator state) private local allocator plus the stack range that
// conservative marking scans as a root. A Handle is not safe for
// concurrent use from more than one goroutine at a time — it is meant to
// be attached once per OS thread or long-lived worker goroutine, exactly
// as the source's thread-local allocator is one-per-pthread.
type Handle struct {
	rt    *Runtime
	local *gclocal.LocalAllocator

	stackTop, stackBottom uintptr
}

// AttachThread registers a new mutator with the default Runtime,
// returning a Handle scoped to the caller's stack range. stackTop and
// stackBottom need not be ordered; conservative stack scanning normalizes
// them. Call DetachThread when the goroutine is done allocating.
func AttachThread(stackTop, stackBottom uintptr) *Handle {
	return defaultRuntime().AttachThread(stackTop, stackBottom)
}

// DetachThread removes h from its Runtime's root set and releases its
// local allocator's cursors.
func DetachThread(h *Handle) {
	h.rt.DetachThread(h)
}

// AttachThread is the Runtime method backing the package-level
// AttachThread, for hosts juggling more than one Runtime.
func (rt *Runtime) AttachThread(stackTop, stackBottom uintptr) *Handle {
	h := &Handle{
		rt:          rt,
		local:       rt.newLocalAllocator(),
		stackTop:    stackTop,
		stackBottom: stackBottom,
	}

	rt.handles.Store(h, struct{}{})

	return h
}

// DetachThread is the Runtime method backing the package-level
// DetachThread.
func (rt *Runtime) DetachThread(h *Handle) {
	if h == nil || h.rt != rt {
		panic(gcobj.Fatalf(gcobj.ErrorInvalidArgument, "conservgc: DetachThread called with a handle from a different Runtime"))
	}

	rt.handles.Delete(h)
	h.local.Reset()
}
