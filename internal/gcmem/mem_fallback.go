//go:build !unix && !windows
// +build !unix,!windows

package gcmem

// mapAnonymous falls back to a plain Go heap allocation on platforms with
// neither a unix nor a windows virtual-memory primitive available. This
// forfeits the "never moves" guarantee's performance rationale (the
// backing array is still pinned by the returned slice, so correctness
// holds) but keeps the package buildable everywhere the x/sys tags don't
// reach.
func mapAnonymous(size uintptr) []byte {
	return make([]byte, size)
}

func pageSize() int { return DefaultPageSize }

func memoryLimit() uintptr { return 4 << 30 }
