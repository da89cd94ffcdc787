package allocator

import "testing"

func TestAllocateAnyFirstFit(t *testing.T) {
	a := New(100)
	if !a.AllocateAt(0, 20) {
		t.Fatal("setup: AllocateAt(0,20) failed")
	}
	if !a.AllocateAt(30, 10) {
		t.Fatal("setup: AllocateAt(30,10) failed")
	}
	// free list is now [20,30) and [40,100)

	got := a.AllocateAny(5)
	if got != 20 {
		t.Fatalf("AllocateAny(5) = %d, want 20 (first fit)", got)
	}
	// free list is now [25,30) and [40,100)

	got = a.AllocateAny(50)
	if got != 40 {
		t.Fatalf("AllocateAny(50) = %d, want 40 (only segment big enough)", got)
	}
}

func TestAllocateAnyExhausted(t *testing.T) {
	a := New(10)
	if got := a.AllocateAny(10); got != 0 {
		t.Fatalf("AllocateAny(10) = %d, want 0", got)
	}
	if got := a.AllocateAny(1); got != Invalid {
		t.Fatalf("AllocateAny(1) on exhausted allocator = %d, want Invalid", got)
	}
	if !a.IsExhausted() {
		t.Fatal("IsExhausted() = false, want true")
	}
}

func TestReleaseCoalescesBothSides(t *testing.T) {
	a := New(100)
	a.AllocateAt(0, 100)
	if !a.Release(10, 10) {
		t.Fatal("Release(10,10) failed")
	}
	if !a.Release(0, 10) {
		t.Fatal("Release(0,10) failed: should merge right with [10,20)")
	}
	if !a.Release(20, 10) {
		t.Fatal("Release(20,10) failed: should merge left with [0,20)")
	}
	if got, want := a.GetFree(), uint32(30); got != want {
		t.Fatalf("GetFree() = %d, want %d after three-way coalesce", got, want)
	}
	// the coalesced run [0,30) should now be allocatable as one block
	if got := a.AllocateAny(30); got != 0 {
		t.Fatalf("AllocateAny(30) = %d, want 0 (coalesced run)", got)
	}
}

func TestReleaseRejectsOverlap(t *testing.T) {
	a := New(100)
	a.AllocateAt(0, 100)
	if !a.Release(50, 10) {
		t.Fatal("Release(50,10) failed")
	}
	if a.Release(45, 10) {
		t.Fatal("Release(45,10) should fail: overlaps free segment [50,60)")
	}
	if a.Release(55, 10) {
		t.Fatal("Release(55,10) should fail: overlaps free segment [50,60)")
	}
}

func TestAllocateAtSplitMiddle(t *testing.T) {
	a := New(100)
	if !a.AllocateAt(40, 10) {
		t.Fatal("AllocateAt(40,10) failed")
	}
	if got, want := a.GetFree(), uint32(90); got != want {
		t.Fatalf("GetFree() = %d, want %d", got, want)
	}
	if a.AllocateAt(40, 10) {
		t.Fatal("AllocateAt(40,10) should fail: already allocated")
	}
	// the surrounding space should still be available on both sides
	if got := a.AllocateAny(40); got != 0 {
		t.Fatalf("AllocateAny(40) = %d, want 0", got)
	}
	if got := a.AllocateAny(50); got != 50 {
		t.Fatalf("AllocateAny(50) = %d, want 50", got)
	}
}

func TestZeroSizeIsNoOp(t *testing.T) {
	a := New(10)
	if got := a.AllocateAny(0); got != 0 {
		t.Fatalf("AllocateAny(0) = %d, want 0", got)
	}
	if !a.AllocateAt(5, 0) {
		t.Fatal("AllocateAt(_, 0) should always succeed")
	}
	if !a.Release(5, 0) {
		t.Fatal("Release(_, 0) should always succeed")
	}
	if got, want := a.GetFree(), uint32(10); got != want {
		t.Fatalf("GetFree() = %d, want %d: zero-size ops must not mutate state", got, want)
	}
}

func TestSeedScenarioFirstFit(t *testing.T) {
	a := New(10000)
	for _, s := range []struct{ start, size uint32 }{
		{0, 100}, {100, 400}, {9900, 100}, {9500, 400}, {5000, 50},
	} {
		if !a.AllocateAt(s.start, s.size) {
			t.Fatalf("AllocateAt(%d,%d) failed", s.start, s.size)
		}
	}
	if a.AllocateAt(5050, 5000) {
		t.Fatal("AllocateAt(5050,5000) should fail: overruns the free segment ending at 9500")
	}
	if got := a.AllocateAny(1000); got != 500 {
		t.Fatalf("AllocateAny(1000) = %d, want 500", got)
	}
	if got := a.AllocateAny(500); got != 1500 {
		t.Fatalf("AllocateAny(500) = %d, want 1500", got)
	}
	if got := a.AllocateAny(6000); got != Invalid {
		t.Fatalf("AllocateAny(6000) = %d, want Invalid", got)
	}
}

// TestSeedScenarioCoalesce: AllocateAt(6000,1000) and AllocateAt(8000,1000)
// leave the gap [7000,8000) free, so it, not [6000,9000), is what Release
// must coalesce against once both allocations are returned.
func TestSeedScenarioCoalesce(t *testing.T) {
	a := New(10000)
	if !a.AllocateAt(6000, 1000) {
		t.Fatal("AllocateAt(6000,1000) failed")
	}
	if !a.AllocateAt(8000, 1000) {
		t.Fatal("AllocateAt(8000,1000) failed")
	}
	if !a.Release(6000, 1000) {
		t.Fatal("Release(6000,1000) failed")
	}
	if !a.Release(8000, 1000) {
		t.Fatal("Release(8000,1000) failed")
	}
	if got, want := a.String(), "allocator(total=10000, free=10000)[[0,10000)]"; got != want {
		t.Fatalf("free list = %q, want %q", got, want)
	}
}

func TestReleaseAll(t *testing.T) {
	a := New(50)
	a.AllocateAny(50)
	if !a.IsExhausted() {
		t.Fatal("setup: allocator should be exhausted")
	}
	a.ReleaseAll()
	if got, want := a.GetFree(), uint32(50); got != want {
		t.Fatalf("GetFree() after ReleaseAll = %d, want %d", got, want)
	}
}
