package gcglobal

import (
	"testing"
	"unsafe"

	"github.com/conservgc/conservgc/internal/gcobj"
)

func TestDeallocateLargeFiresAndClearsFinalizer(t *testing.T) {
	g := newTestAllocator(t)

	p := g.AllocateLarge(64, false)
	key := gcobj.HeaderFromPayload(p).Addr()

	var got unsafe.Pointer
	calls := 0
	g.Finalizers().Insert(key, func(payload unsafe.Pointer) {
		calls++
		got = payload
	})

	g.DeallocateLarge(p)

	if calls != 1 {
		t.Fatalf("DeallocateLarge ran the finalizer %d times, want 1", calls)
	}
	if got != p {
		t.Fatalf("finalizer payload = %p, want %p", got, p)
	}
	if _, ok := g.Finalizers().Search(key); ok {
		t.Fatal("DeallocateLarge must remove the finalizer entry, not just fire it")
	}
}
