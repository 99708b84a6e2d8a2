// Package gclist implements the intrusive singly-linked lists used by the
// global allocator: the block free/recyclable lists and the large-object
// chunk list.
package gclist

import "github.com/conservgc/conservgc/internal/gcblock"

// BlockList is a FIFO (insertion-order) list of blocks, threaded through
// Block.Next. It backs the free list and the recyclable list.
type BlockList struct {
	first, last *gcblock.Block
	size        int
}

// PushBack appends b to the list, clearing its next pointer first so a
// block freshly pulled off one list never drags a stale link onto
// another.
func (l *BlockList) PushBack(b *gcblock.Block) {
	b.Next = nil
	if l.last == nil {
		l.first = b
	} else {
		l.last.Next = b
	}
	l.last = b
	l.size++
}

// PopFront removes and returns the first block, or nil if the list is
// empty.
func (l *BlockList) PopFront() *gcblock.Block {
	b := l.first
	if b == nil {
		return nil
	}
	l.first = b.Next
	if l.first == nil {
		l.last = nil
	}
	b.Next = nil
	l.size--
	return b
}

// Empty reports whether the list has no blocks.
func (l *BlockList) Empty() bool { return l.first == nil }

// Size returns the number of blocks currently linked.
func (l *BlockList) Size() int { return l.size }

// Clear empties the list without touching the blocks it held.
func (l *BlockList) Clear() {
	l.first = nil
	l.last = nil
	l.size = 0
}

// Each calls fn for every block in insertion order. Used by diagnostics
// and by tests asserting list contents; never called from the hot
// allocation path.
func (l *BlockList) Each(fn func(*gcblock.Block)) {
	for b := l.first; b != nil; b = b.Next {
		fn(b)
	}
}
