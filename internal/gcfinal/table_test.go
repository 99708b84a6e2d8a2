package gcfinal

import (
	"testing"
	"unsafe"
)

func TestInsertAndSearch(t *testing.T) {
	table := New()
	var a, b int
	keyA := uintptr(unsafe.Pointer(&a))
	keyB := uintptr(unsafe.Pointer(&b))

	var fired uintptr
	table.Insert(keyA, func(p unsafe.Pointer) { fired = keyA })
	table.Insert(keyB, func(p unsafe.Pointer) { fired = keyB })

	fn, ok := table.Search(keyA)
	if !ok {
		t.Fatal("Search must find a registered key")
	}
	fn(nil)
	if fired != keyA {
		t.Fatal("Search returned the wrong finalizer")
	}

	if _, ok := table.Search(uintptr(unsafe.Pointer(&struct{}{}))); ok {
		t.Fatal("Search must not find an unregistered key")
	}
}

func TestInsertOverwrites(t *testing.T) {
	table := New()
	var a int
	key := uintptr(unsafe.Pointer(&a))

	calls := 0
	table.Insert(key, func(unsafe.Pointer) { calls = 1 })
	table.Insert(key, func(unsafe.Pointer) { calls = 2 })

	if table.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 after overwriting the same key", table.Len())
	}
	fn, _ := table.Search(key)
	fn(nil)
	if calls != 2 {
		t.Fatal("the second Insert must overwrite the first registration")
	}
}

func TestDelete(t *testing.T) {
	table := New()
	var a int
	key := uintptr(unsafe.Pointer(&a))
	table.Insert(key, func(unsafe.Pointer) {})

	if _, ok := table.Delete(key); !ok {
		t.Fatal("Delete must report true for a registered key")
	}
	if _, ok := table.Search(key); ok {
		t.Fatal("a deleted key must no longer be found")
	}
	if _, ok := table.Delete(key); ok {
		t.Fatal("deleting a key twice must report false the second time")
	}
}

func TestDeleteIf(t *testing.T) {
	table := New()
	keys := make([]uintptr, 8)
	ptrs := make([]*int, 8)
	for i := range ptrs {
		v := i
		ptrs[i] = &v
		keys[i] = uintptr(unsafe.Pointer(ptrs[i]))
		table.Insert(keys[i], func(unsafe.Pointer) {})
	}

	removed := 0
	table.DeleteIf(func(key uintptr, _ Finalizer) bool {
		for i, k := range keys {
			if k == key && i%2 == 0 {
				removed++
				return true
			}
		}
		return false
	})

	if removed != 4 {
		t.Fatalf("DeleteIf removed %d entries, want 4", removed)
	}
	if table.Len() != 4 {
		t.Fatalf("Len() = %d, want 4 after DeleteIf", table.Len())
	}
	for i, k := range keys {
		_, ok := table.Search(k)
		if i%2 == 0 && ok {
			t.Fatalf("key %d should have been removed by DeleteIf", i)
		}
		if i%2 == 1 && !ok {
			t.Fatalf("key %d should have survived DeleteIf", i)
		}
	}
}

func TestGrowthAcrossManyInsertions(t *testing.T) {
	table := New()
	ptrs := make([]*int, 256)
	for i := range ptrs {
		v := i
		ptrs[i] = &v
		table.Insert(uintptr(unsafe.Pointer(ptrs[i])), func(unsafe.Pointer) {})
	}
	if table.Len() != 256 {
		t.Fatalf("Len() = %d, want 256 after growing well past the initial capacity", table.Len())
	}
	for _, p := range ptrs {
		if _, ok := table.Search(uintptr(unsafe.Pointer(p))); !ok {
			t.Fatal("a key inserted before growth must still be found after it")
		}
	}
}
