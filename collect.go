package conservgc

// CollectOnce runs a single collection cycle on the default Runtime
// unconditionally — unlike the threshold check inside Malloc's slow path
// (gcglobal.TryCollect), this never skips the cycle.
func CollectOnce() {
	defaultRuntime().CollectOnce()
}

// Collect is an alias for CollectOnce, matching the source's naming where
// both an always-run entry point and a threshold-gated one exist (spec
// §4.4.7's try_collect is the gated one, reached only from inside
// allocation; there is no public gated equivalent, since a host calling
// the public API is by definition asking for a cycle unconditionally).
func Collect() {
	CollectOnce()
}

// CollectOnce is the Runtime method backing the package-level CollectOnce.
func (rt *Runtime) CollectOnce() {
	rt.mu.Lock()
	rt.collector.Collect()
	rt.mu.Unlock()

	rt.handles.Range(func(key, _ any) bool {
		key.(*Handle).local.Reset()
		return true
	})

	rt.fireCallbacks()
}

// Collect is the Runtime method backing the package-level Collect.
func (rt *Runtime) Collect() { rt.CollectOnce() }

// RegisterCollectCallback registers fn to run, with no lock held, after
// every collection cycle run through CollectOnce or Collect on the default
// Runtime, receiving a snapshot of the resulting heap statistics. Cycles
// started by the free-space threshold inside allocation do not run the
// callbacks, and a callback contributes no roots to the cycle.
func RegisterCollectCallback(fn func(Stats)) {
	defaultRuntime().RegisterCollectCallback(fn)
}

// RegisterCollectCallback is the Runtime method backing the package-level
// RegisterCollectCallback.
func (rt *Runtime) RegisterCollectCallback(fn func(Stats)) {
	rt.mu.Lock()
	rt.callbacks = append(rt.callbacks, fn)
	rt.mu.Unlock()
}

func (rt *Runtime) fireCallbacks() {
	rt.mu.Lock()
	callbacks := make([]func(Stats), len(rt.callbacks))
	copy(callbacks, rt.callbacks)
	rt.mu.Unlock()

	if len(callbacks) == 0 {
		return
	}
	stats := rt.HeapStats()
	for _, fn := range callbacks {
		fn(stats)
	}
}
