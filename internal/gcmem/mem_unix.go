//go:build unix
// +build unix

package gcmem

import (
	"golang.org/x/sys/unix"

	"github.com/conservgc/conservgc/internal/gcobj"
)

func pageSize() int {
	return unix.Getpagesize()
}

// mapAnonymous reserves a private, anonymous, read/write mapping via
// mmap(2), called directly through golang.org/x/sys/unix.
func mapAnonymous(size uintptr) []byte {
	data, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		panic(gcobj.Fatalf(gcobj.ErrorOutOfMemory, "mmap(%d) failed: %v", size, err))
	}
	return data
}

// fallbackMemoryLimit is used on unix platforms with no cheap physical-
// memory query wired up (see mem_limit_linux.go for the real one).
const fallbackMemoryLimit = 4 << 30 // 4 GiB

