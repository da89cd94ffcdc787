package inode

import (
	"testing"

	"github.com/vdiskfs/vdisk/internal/allocator"
	"github.com/vdiskfs/vdisk/internal/diskimage"
)

func TestNewTableMarksRootLive(t *testing.T) {
	tbl := NewTable(16)
	if tbl.IsExhausted() {
		t.Fatal("freshly created table should not be exhausted")
	}
	if got := tbl.AllocateNumber(); got == RootIndex {
		t.Fatal("AllocateNumber should never hand back the pre-reserved root index")
	}
}

func TestSetThenGetRoundTrip(t *testing.T) {
	tbl := NewTable(4)
	n := Inode{OwnerUserID: uint8(OwnerGuest), AccessMode: Read | Write, Address: 100, Size: 50}
	tbl.Set(2, n)
	if got := tbl.Get(2); got != n {
		t.Fatalf("Get(2) = %+v, want %+v", got, n)
	}
}

func TestReleaseNumberResetsRecord(t *testing.T) {
	tbl := NewTable(4)
	tbl.Set(1, Inode{OwnerUserID: uint8(OwnerGuest), Size: 10})
	tbl.ReleaseNumber(1)
	if got := tbl.Get(1); got.InUse() {
		t.Fatalf("Get(1) after ReleaseNumber = %+v, want a free inode", got)
	}
	if got := tbl.AllocateNumber(); got != 1 {
		t.Fatalf("AllocateNumber() after release = %d, want 1 (freed slot reused)", got)
	}
}

func TestLoadReplaysOccupancyFromOwner(t *testing.T) {
	nodes := []Inode{
		{OwnerUserID: uint8(OwnerRoot)},
		{OwnerUserID: uint8(OwnerNull)},
		{OwnerUserID: uint8(OwnerGuest)},
	}
	tbl := Load(nodes)
	if got := tbl.AllocateNumber(); got != 1 {
		t.Fatalf("AllocateNumber() = %d, want 1 (the only free slot)", got)
	}
	if got := tbl.AllocateNumber(); got != allocator.Invalid {
		t.Fatalf("AllocateNumber() on fully occupied table = %d, want Invalid", got)
	}
}

func TestWriteToForcesFileClosedOnPersist(t *testing.T) {
	tbl := NewTable(2)
	tbl.Set(1, Inode{OwnerUserID: uint8(OwnerGuest), IsFileOpened: 1, Size: 5})

	buf := diskimage.NewZeroed(HeaderOffset + 2*Size)
	if err := tbl.WriteTo(buf, HeaderOffset); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	nodes, err := ReadTableFrom(buf, HeaderOffset, 2)
	if err != nil {
		t.Fatalf("ReadTableFrom: %v", err)
	}
	if nodes[1].IsFileOpened != 0 {
		t.Fatalf("persisted inode has IsFileOpened = %d, want 0 (runtime-only field)", nodes[1].IsFileOpened)
	}
	if nodes[1].OwnerUserID != uint8(OwnerGuest) {
		t.Fatalf("persisted owner = %d, want %d", nodes[1].OwnerUserID, OwnerGuest)
	}
}

const HeaderOffset = 20
