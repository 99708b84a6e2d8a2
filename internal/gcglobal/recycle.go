package gcglobal

import "github.com/conservgc/conservgc/internal/gcblock"

// holeRun is a contiguous run of reclaimable lines found while scanning a
// block's line headers.
type holeRun struct {
	startIdx  int
	lineCount int
}

// RecycleBlocks implements §4.4.5: walk every block in every
// small-heap region and reclassify it as Free, Recyclable (with fresh
// Hole records threaded through its dead line runs), or Unavailable,
// rebuilding the free and recyclable lists from scratch. It assumes the
// collector has already completed its mark pass for this cycle — a
// block's Marked flag and its line headers' mark bits are read, not
// reset, here; the next cycle's unmark pass clears them before marking
// resumes. Caller must hold the lock.
func (g *GlobalAllocator) RecycleBlocks() {
	g.freeList.Clear()
	g.recyclableList.Clear()

	for _, r := range g.smallRegions {
		for addr := r.start; addr < r.stop; addr += BlockSize {
			g.recycleOneBlock(gcblock.FromPointer(addr))
		}
	}
}

func (g *GlobalAllocator) recycleOneBlock(b *gcblock.Block) {
	if !b.IsMarked() {
		b.Init()
		g.freeList.PushBack(b)
		return
	}

	runs := scanHoleRuns(b)
	if len(runs) == 0 {
		b.SetUnavailable()
		return
	}

	writeHoles(b, runs)
	b.SetRecyclable(runs[0].startIdx)
	g.recyclableList.PushBack(b)
}

// scanHoleRuns finds the dead (unmarked) line runs in b, clearing each
// dead line's header as it goes. A single line immediately following a
// marked line is always treated as live buffer rather than the start of a
// hole, even when its own header is unmarked: the allocator stamps the
// ContainsObject/offset metadata only on the line where an object begins,
// so a line whose predecessor is marked may still hold the tail of an
// object from that line and is not handed back to the bump allocator.
func scanHoleRuns(b *gcblock.Block) []holeRun {
	var runs []holeRun
	curStart := -1
	skipNext := false

	closeRun := func(endIdx int) {
		if curStart != -1 {
			runs = append(runs, holeRun{curStart, endIdx - curStart})
			curStart = -1
		}
	}

	for i := 0; i < gcblock.LineCount; i++ {
		lh := b.Header(i)
		if lh.IsMarked() {
			closeRun(i)
			skipNext = true
			continue
		}
		if skipNext {
			skipNext = false
			closeRun(i)
			lh.Clear()
			continue
		}
		if curStart == -1 {
			curStart = i
		}
		lh.Clear()
	}
	closeRun(gcblock.LineCount)

	return runs
}

func writeHoles(b *gcblock.Block, runs []holeRun) {
	for i, run := range runs {
		addr := b.LineAddr(run.startIdx)
		endIdx := run.startIdx + run.lineCount

		var limit uintptr
		if endIdx >= gcblock.LineCount {
			limit = b.Stop()
		} else {
			limit = b.LineAddr(endIdx)
		}

		h := gcblock.HoleAt(addr)
		h.Limit = limit
		if i+1 < len(runs) {
			h.Next = b.LineAddr(runs[i+1].startIdx)
		} else {
			h.Next = 0
		}
	}
}
