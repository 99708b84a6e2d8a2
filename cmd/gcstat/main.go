// Command gcstat is an ambient demonstration host for conservgc: it
// attaches a thread, drives a configurable allocation workload against the
// collector, periodically forces a collection, and serves the resulting
// heap statistics over HTTP — the same shape as a runtime's
// StartDebugHTTP snapshot endpoint, built on stdlib net/http for the same
// same reasoning applies here (no pack HTTP framework is warranted for a
// single JSON snapshot route).
package main

import (
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"net/http"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/conservgc/conservgc"
)

func main() {
	addr := flag.String("addr", ":8089", "address to serve /stats on")
	objectCount := flag.Int("objects", 4096, "live objects to keep allocated at a time")
	minSize := flag.Uint("min-size", 16, "minimum object payload size in bytes")
	maxSize := flag.Uint("max-size", 16<<10, "maximum object payload size in bytes")
	atomicFraction := flag.Float64("atomic-fraction", 0.3, "fraction of allocations marked atomic (no pointers)")
	finalizerFraction := flag.Float64("finalizer-fraction", 0.05, "fraction of allocations that register a finalizer")
	collectInterval := flag.Duration("collect-interval", 2*time.Second, "interval between forced collections")
	flag.Parse()

	conservgc.Init()

	var stackVar int
	h := conservgc.AttachThread(uintptr(unsafe.Pointer(&stackVar)), uintptr(unsafe.Pointer(&stackVar))-64<<10)
	defer conservgc.DetachThread(h)

	var finalized atomic.Uint64

	live := make([]unsafe.Pointer, 0, *objectCount)
	liveBase := uintptr(unsafe.Pointer(unsafe.SliceData(live)))
	conservgc.AddRoots(liveBase, liveBase+uintptr(*objectCount)*unsafe.Sizeof(unsafe.Pointer(nil)))
	rng := rand.New(rand.NewSource(1))

	workload := func() {
		size := uintptr(*minSize)
		if *maxSize > *minSize {
			size += uintptr(rng.Intn(int(*maxSize - *minSize)))
		}
		noScan := rng.Float64() < *atomicFraction

		var p unsafe.Pointer
		if noScan {
			p = h.MallocAtomic(size)
		} else {
			p = h.Malloc(size)
		}

		if rng.Float64() < *finalizerFraction {
			conservgc.RegisterFinalizer(p, func(unsafe.Pointer) {
				finalized.Add(1)
			})
		}

		if len(live) >= *objectCount {
			live[rng.Intn(len(live))] = p
		} else {
			live = append(live, p)
		}
	}

	go func() {
		ticker := time.NewTicker(*collectInterval)
		defer ticker.Stop()
		for range ticker.C {
			conservgc.CollectOnce()
		}
	}()

	go func() {
		for {
			workload()
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		_ = enc.Encode(struct {
			conservgc.Stats
			FinalizersRun uint64 `json:"finalizersRun"`
		}{Stats: conservgc.HeapStats(), FinalizersRun: finalized.Load()})
	})

	server := &http.Server{Addr: *addr, Handler: mux, ReadHeaderTimeout: 3 * time.Second}
	log.Printf("gcstat serving /stats on %s", *addr)
	log.Fatal(server.ListenAndServe())
}
