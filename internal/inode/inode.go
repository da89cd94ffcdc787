// Package inode implements the fixed-size inode record and the in-memory
// inode table that backs a virtual disk image.
package inode

import (
	"github.com/vdiskfs/vdisk/internal/allocator"
	"github.com/vdiskfs/vdisk/internal/diskimage"
)

// Owner identifies who owns an inode, or that it is free.
type Owner uint8

const (
	// OwnerNull marks an inode slot as free.
	OwnerNull Owner = 0
	// OwnerRoot is the superuser account; the root directory and every
	// directory-file are owned by it.
	OwnerRoot Owner = 1
	// OwnerGuest is the unprivileged preset account.
	OwnerGuest Owner = 2
)

// Access mode bits, combinable with bitwise OR.
const (
	Read    uint16 = 1
	Write   uint16 = 2
	Execute uint16 = 4
)

// Size is the packed on-disk size of one Inode record, in bytes:
// owner(1) + isFileOpened(1) + accessMode(2) + address(4) + size(4).
const Size = 12

// Inode describes one file or directory. Field order and widths are the
// wire-format contract; do not reorder or resize.
type Inode struct {
	OwnerUserID  uint8
	IsFileOpened uint8
	AccessMode   uint16
	Address      uint32
	Size         uint32
}

// InUse reports whether the inode currently names a live file or folder.
func (n Inode) InUse() bool {
	return n.OwnerUserID != uint8(OwnerNull)
}

// Reset clears an inode back to the free state. Persisted isFileOpened is
// always 0: openness is runtime-only state, never written to the image.
func (n *Inode) Reset() {
	*n = Inode{}
}

// RootIndex is the fixed inode number of the root directory.
const RootIndex = 0

// Table is the ordered sequence of inode records for an installed image,
// together with the allocator tracking which inode numbers are live.
type Table struct {
	nodes   []Inode
	numbers *allocator.Allocator
}

// NewTable builds an inode table of the given length, with every slot
// initially free except inode 0, which the caller must populate as the
// root directory and is pre-marked live here.
func NewTable(count uint32) *Table {
	t := &Table{
		nodes:   make([]Inode, count),
		numbers: allocator.New(count),
	}
	t.numbers.AllocateAt(RootIndex, 1)
	return t
}

// Load rebuilds a Table from an already-decoded slice of inodes (as read
// from an installed image), replaying inode-number allocator occupancy
// from each inode's owner field per the liveness mirror invariant.
func Load(nodes []Inode) *Table {
	t := &Table{
		nodes:   nodes,
		numbers: allocator.New(uint32(len(nodes))),
	}
	for i, n := range nodes {
		if n.InUse() {
			t.numbers.AllocateAt(uint32(i), 1)
		}
	}
	return t
}

// Count returns the number of inode slots in the table.
func (t *Table) Count() uint32 {
	return uint32(len(t.nodes))
}

// Get returns a copy of the inode at index i.
func (t *Table) Get(i uint32) Inode {
	return t.nodes[i]
}

// Set overwrites the inode at index i.
func (t *Table) Set(i uint32, n Inode) {
	t.nodes[i] = n
}

// AllocateNumber reserves a free inode number, or returns
// allocator.Invalid if the table is full.
func (t *Table) AllocateNumber() uint32 {
	return t.numbers.AllocateAny(1)
}

// ReleaseNumber frees inode number i and resets its record.
func (t *Table) ReleaseNumber(i uint32) {
	t.numbers.Release(i, 1)
	t.nodes[i].Reset()
}

// IsExhausted reports whether every inode number is in use.
func (t *Table) IsExhausted() bool {
	return t.numbers.IsExhausted()
}

// Slice returns the underlying inode records, in index order, for
// serialization.
func (t *Table) Slice() []Inode {
	return t.nodes
}

// WriteTo serializes every inode into the image buffer starting at
// tableOffset (the byte immediately after the VirtualDiskHeader).
func (t *Table) WriteTo(buf *diskimage.Buffer, tableOffset uint32) error {
	for i, n := range t.nodes {
		persisted := n
		persisted.IsFileOpened = 0
		if err := diskimage.WriteAt(buf, tableOffset+uint32(i)*Size, persisted); err != nil {
			return err
		}
	}
	return nil
}

// ReadTableFrom decodes count inodes from the image buffer starting at
// tableOffset.
func ReadTableFrom(buf *diskimage.Buffer, tableOffset uint32, count uint32) ([]Inode, error) {
	nodes := make([]Inode, count)
	for i := range nodes {
		n, err := diskimage.ReadAt[Inode](buf, tableOffset+uint32(i)*Size)
		if err != nil {
			return nil, err
		}
		nodes[i] = n
	}
	return nodes, nil
}
