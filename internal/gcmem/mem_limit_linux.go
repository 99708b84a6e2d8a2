//go:build linux
// +build linux

package gcmem

import "golang.org/x/sys/unix"

// memoryLimit reads total physical memory via sysinfo(2).
func memoryLimit() uintptr {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return fallbackMemoryLimit
	}
	return uintptr(info.Totalram) * uintptr(info.Unit)
}
