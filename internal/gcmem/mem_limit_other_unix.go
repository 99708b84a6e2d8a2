//go:build unix && !linux
// +build unix,!linux

package gcmem

// memoryLimit falls back to a conservative constant on unix platforms
// without a cheap sysinfo(2) equivalent wired up (darwin/bsd expose
// physical memory via sysctl, which golang.org/x/sys/unix does not wrap
// uniformly across them).
func memoryLimit() uintptr {
	return fallbackMemoryLimit
}
