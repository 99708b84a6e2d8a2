//go:build windows
// +build windows

package gcmem

import (
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/conservgc/conservgc/internal/gcobj"
)

func pageSize() int {
	var info windows.SystemInfo
	windows.GetSystemInfo(&info)
	return int(info.PageSize)
}

// mapAnonymous reserves committed, read/write memory via VirtualAlloc,
// called directly through golang.org/x/sys/windows rather than a portable
// abstraction.
func mapAnonymous(size uintptr) []byte {
	addr, err := windows.VirtualAlloc(0, size, windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		panic(gcobj.Fatalf(gcobj.ErrorOutOfMemory, "VirtualAlloc(%d) failed: %v", size, err))
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
}

// memoryLimit reads total physical memory via GlobalMemoryStatusEx.
func memoryLimit() uintptr {
	var status windows.MemoryStatusEx
	status.Length = uint32(unsafe.Sizeof(status))
	if err := windows.GlobalMemoryStatusEx(&status); err != nil {
		return 4 << 30
	}
	return uintptr(status.TotalPhys)
}
