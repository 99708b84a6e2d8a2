// Package gcconfig parses the environment-variable configuration the
// allocator reads once at Init, and the size-with-suffix syntax those
// variables accept.
package gcconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Defaults mirror the documented compile-time constants.
const (
	DefaultInitialHeapSize = 4 << 20 // 4 MiB
	DefaultFreeSpaceDivisor = 3
)

// Config holds the recognized tuning knobs. Unrecognized environment
// values fall back to defaults rather than failing Init, per the source's
// design notes on environment configuration.
type Config struct {
	InitialHeapSize  uintptr
	MaximumHeapSize  uintptr
	FreeSpaceDivisor uintptr
}

// FromEnviron parses GC_INITIAL_HEAP_SIZE, GC_MAXIMUM_HEAP_SIZE and
// GC_FREE_SPACE_DIVISOR from the process environment. maximumHeapDefault
// is supplied by the caller (normally gcmem.MemoryLimit()) since the
// default depends on a platform query this package does not perform
// itself.
func FromEnviron(maximumHeapDefault uintptr) Config {
	cfg := Config{
		InitialHeapSize:  DefaultInitialHeapSize,
		MaximumHeapSize:  maximumHeapDefault,
		FreeSpaceDivisor: DefaultFreeSpaceDivisor,
	}

	if v, ok := lookupSize("GC_INITIAL_HEAP_SIZE"); ok {
		cfg.InitialHeapSize = v
	}
	if v, ok := lookupSize("GC_MAXIMUM_HEAP_SIZE"); ok {
		cfg.MaximumHeapSize = v
	}
	if v, ok := lookupUint("GC_FREE_SPACE_DIVISOR"); ok && v > 0 {
		cfg.FreeSpaceDivisor = v
	}

	return cfg
}

func lookupSize(name string) (uintptr, bool) {
	raw, present := os.LookupEnv(name)
	if !present {
		return 0, false
	}
	v, err := ParseSize(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func lookupUint(name string) (uintptr, bool) {
	raw, present := os.LookupEnv(name)
	if !present {
		return 0, false
	}
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, false
	}
	return uintptr(n), true
}

// ParseSize parses a byte count with an optional case-insensitive K/M/G
// suffix, each a power of 1024 (so "2M" == 2*1024*1024).
func ParseSize(s string) (uintptr, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("gcconfig: empty size")
	}

	multiplier := uintptr(1)
	suffix := s[len(s)-1]
	switch suffix {
	case 'k', 'K':
		multiplier = 1 << 10
		s = s[:len(s)-1]
	case 'm', 'M':
		multiplier = 1 << 20
		s = s[:len(s)-1]
	case 'g', 'G':
		multiplier = 1 << 30
		s = s[:len(s)-1]
	}

	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("gcconfig: invalid size %q: %w", s, err)
	}

	return uintptr(n) * multiplier, nil
}
