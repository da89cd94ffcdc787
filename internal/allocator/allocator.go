// Package allocator implements a first-fit segment allocator over a flat
// [0,N) address space. It tracks free space as a list of non-overlapping,
// non-adjacent ranges sorted by start address, and is used both for the
// byte-addressed data region of a virtual disk image and for its
// inode-number space (unit width 1).
package allocator

import (
	"fmt"
	"sort"
)

// Invalid is returned by AllocateAny when no free segment is large enough
// to satisfy the request.
const Invalid uint32 = 0xFFFFFFFF

// segment is a half-open free range [Start, Start+Size).
type segment struct {
	start uint32
	size  uint32
}

func (s segment) end() uint32 { return s.start + s.size }

// Allocator is a first-fit allocator over [0, total). It is not safe for
// concurrent use: the virtual disk engine that owns one serializes all
// access to it.
type Allocator struct {
	total uint32
	free  []segment
}

// New creates an allocator whose entire address space [0, total) starts
// free.
func New(total uint32) *Allocator {
	a := &Allocator{total: total}
	a.ReleaseAll()
	return a
}

// ReleaseAll resets the allocator to a single free segment spanning the
// whole address space, discarding all outstanding allocations.
func (a *Allocator) ReleaseAll() {
	if a.total == 0 {
		a.free = nil
		return
	}
	a.free = []segment{{start: 0, size: a.total}}
}

// AllocateAny reserves size units anywhere in the address space using a
// first-fit scan of the free list, returning the start of the reservation.
// It returns Invalid if no free segment is at least size units long.
func (a *Allocator) AllocateAny(size uint32) uint32 {
	if size == 0 {
		return 0
	}
	for i, seg := range a.free {
		switch {
		case seg.size > size:
			a.free[i] = segment{start: seg.start + size, size: seg.size - size}
			return seg.start
		case seg.size == size:
			a.free = append(a.free[:i], a.free[i+1:]...)
			return seg.start
		}
	}
	return Invalid
}

// AllocateAt reserves exactly [start, start+size) if it lies wholly within
// a single free segment, splitting that segment as needed. It returns false
// without mutating the allocator if no free segment strictly contains the
// requested range.
func (a *Allocator) AllocateAt(start, size uint32) bool {
	if size == 0 {
		return true
	}
	end := start + size
	for i, seg := range a.free {
		segEnd := seg.end()
		switch {
		case start == seg.start && end == segEnd:
			// exact match: the whole free segment is consumed
			a.free = append(a.free[:i], a.free[i+1:]...)
			return true
		case start == seg.start && end < segEnd:
			// front-aligned: shrink from the front
			a.free[i] = segment{start: end, size: segEnd - end}
			return true
		case start > seg.start && end == segEnd:
			// back-aligned: shrink from the back
			a.free[i] = segment{start: seg.start, size: start - seg.start}
			return true
		case start > seg.start && end < segEnd:
			// middle: split into two free segments
			a.free[i] = segment{start: end, size: segEnd - end}
			front := segment{start: seg.start, size: start - seg.start}
			a.free = append(a.free, segment{})
			copy(a.free[i+1:], a.free[i:])
			a.free[i] = front
			return true
		}
	}
	return false
}

// Release returns [start, start+size) to the free list, coalescing with
// any adjacent free segments. It returns false, leaving the allocator
// unchanged, if the range overlaps an already-free segment.
func (a *Allocator) Release(start, size uint32) bool {
	if size == 0 {
		return true
	}
	end := start + size

	insertAt := sort.Search(len(a.free), func(i int) bool {
		return a.free[i].start >= start
	})

	// overlap with the preceding segment?
	if insertAt > 0 {
		prev := a.free[insertAt-1]
		if start < prev.end() {
			return false
		}
	}
	// overlap with the following segment?
	if insertAt < len(a.free) {
		next := a.free[insertAt]
		if end > next.start {
			return false
		}
	}

	mergeLeft := insertAt > 0 && a.free[insertAt-1].end() == start
	mergeRight := insertAt < len(a.free) && a.free[insertAt].start == end

	switch {
	case mergeLeft && mergeRight:
		a.free[insertAt-1].size += size + a.free[insertAt].size
		a.free = append(a.free[:insertAt], a.free[insertAt+1:]...)
	case mergeLeft:
		a.free[insertAt-1].size += size
	case mergeRight:
		a.free[insertAt].start = start
		a.free[insertAt].size += size
	default:
		a.free = append(a.free, segment{})
		copy(a.free[insertAt+1:], a.free[insertAt:])
		a.free[insertAt] = segment{start: start, size: size}
	}
	return true
}

// IsExhausted reports whether the allocator has no free space left.
func (a *Allocator) IsExhausted() bool {
	return a.GetFree() == 0
}

// GetFree returns the total number of free units across all free segments.
func (a *Allocator) GetFree() uint32 {
	var total uint32
	for _, seg := range a.free {
		total += seg.size
	}
	return total
}

// GetTotal returns the size of the address space the allocator manages.
func (a *Allocator) GetTotal() uint32 {
	return a.total
}

// String renders the free list for diagnostics and test failure messages.
func (a *Allocator) String() string {
	s := fmt.Sprintf("allocator(total=%d, free=%d)[", a.total, a.GetFree())
	for i, seg := range a.free {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("[%d,%d)", seg.start, seg.end())
	}
	return s + "]"
}
