package conservgc

// AddRoots registers an additional conservative root range with the
// default Runtime — e.g. a static data segment, a global variable table,
// or any other host-owned memory that might hold pointers into the heap.
// Go cannot portably introspect its own .data/.bss the way the source's
// static-segment root push does, so Init seeds none; hosts that need
// that coverage must call AddRoots themselves (per §9's resolved
// Open Question).
func AddRoots(top, bottom uintptr) {
	defaultRuntime().AddRoots(top, bottom)
}

// AddRoots is the Runtime method backing the package-level AddRoots.
func (rt *Runtime) AddRoots(top, bottom uintptr) {
	rt.mu.Lock()
	rt.staticRoots = append(rt.staticRoots, rootRange{top: top, bottom: bottom})
	rt.mu.Unlock()
}
