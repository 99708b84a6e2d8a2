package conservgc

import (
	"unsafe"

	"github.com/conservgc/conservgc/internal/gcfinal"
	"github.com/conservgc/conservgc/internal/gcobj"
)

// RegisterFinalizer attaches fn to the object at p, allocated earlier
// with Malloc/MallocAtomic, on the default Runtime. fn fires at most
// once: in the first cycle in which p is found unreachable, with the
// process lock released (see §4.6.4/§9), or, for a large object, when an
// explicit Free releases it first, in which case it runs inside Free
// with the process lock held.
func RegisterFinalizer(p unsafe.Pointer, fn gcfinal.Finalizer) {
	defaultRuntime().RegisterFinalizer(p, fn)
}

// RegisterFinalizer is the Runtime method backing the package-level
// RegisterFinalizer.
func (rt *Runtime) RegisterFinalizer(p unsafe.Pointer, fn gcfinal.Finalizer) {
	key := gcobj.HeaderFromPayload(p).Addr()

	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.global.Finalizers().Insert(key, fn)
}
