// Package dirfile encodes and decodes the binary directory-file format: the
// contents stored at the data-region offset of a directory inode, listing
// its child folders and files.
package dirfile

import (
	"bytes"
	"fmt"

	"github.com/vdiskfs/vdisk/internal/diskimage"
)

// MaxNameLength is the longest name a directory record can hold.
// The backing field is 124 bytes wide but decoding stops at 120 to leave
// room for a guaranteed terminating NUL even for a maximal name.
const MaxNameLength = 120

const nameFieldLength = 124

// RecordSize is the packed size of one directory record: a 124-byte name
// field plus a 4-byte inode number.
const RecordSize = nameFieldLength + 4

// HeaderSize is the size of the two leading counts (folderCount,
// fileCount) of a directory file.
const HeaderSize = 8

// Record names one child of a directory and the inode that describes it.
type Record struct {
	Name        string
	IndexNodeID uint32
}

// Size returns the byte size a directory file with the given child counts
// must occupy.
func Size(folderCount, fileCount int) uint32 {
	return HeaderSize + uint32(folderCount+fileCount)*RecordSize
}

// Read decodes the directory file stored at addr (an offset into the data
// region, i.e. diskimage coordinates already including the header length).
func Read(buf *diskimage.Buffer, addr uint32) (folders, files []Record, err error) {
	folderCount, err := diskimage.ReadUint32(buf, addr)
	if err != nil {
		return nil, nil, err
	}
	fileCount, err := diskimage.ReadUint32(buf, addr+4)
	if err != nil {
		return nil, nil, err
	}

	folders = make([]Record, folderCount)
	for i := range folders {
		r, err := readRecord(buf, addr+HeaderSize+uint32(i)*RecordSize)
		if err != nil {
			return nil, nil, err
		}
		folders[i] = r
	}

	files = make([]Record, fileCount)
	for i := range files {
		r, err := readRecord(buf, addr+HeaderSize+uint32(int(folderCount)+i)*RecordSize)
		if err != nil {
			return nil, nil, err
		}
		files[i] = r
	}

	return folders, files, nil
}

// Write serializes folders and files as a directory file at addr. The
// caller must have already sized the backing region to
// Size(len(folders), len(files)) bytes.
func Write(buf *diskimage.Buffer, addr uint32, folders, files []Record) error {
	if err := diskimage.WriteUint32(buf, addr, uint32(len(folders))); err != nil {
		return err
	}
	if err := diskimage.WriteUint32(buf, addr+4, uint32(len(files))); err != nil {
		return err
	}
	for i, r := range folders {
		if err := writeRecord(buf, addr+HeaderSize+uint32(i)*RecordSize, r); err != nil {
			return err
		}
	}
	for i, r := range files {
		if err := writeRecord(buf, addr+HeaderSize+uint32(len(folders)+i)*RecordSize, r); err != nil {
			return err
		}
	}
	return nil
}

func readRecord(buf *diskimage.Buffer, offset uint32) (Record, error) {
	raw, err := buf.Slice(offset, RecordSize)
	if err != nil {
		return Record{}, err
	}
	nameField := raw[:nameFieldLength]
	if n := bytes.IndexByte(nameField, 0); n >= 0 {
		nameField = nameField[:n]
	}
	if len(nameField) > MaxNameLength {
		nameField = nameField[:MaxNameLength]
	}
	id, err := diskimage.ReadUint32(buf, offset+nameFieldLength)
	if err != nil {
		return Record{}, err
	}
	return Record{Name: string(nameField), IndexNodeID: id}, nil
}

func writeRecord(buf *diskimage.Buffer, offset uint32, r Record) error {
	if len(r.Name) > MaxNameLength {
		return fmt.Errorf("dirfile: name %q exceeds %d bytes", r.Name, MaxNameLength)
	}
	raw, err := buf.Slice(offset, RecordSize)
	if err != nil {
		return err
	}
	for i := range raw[:nameFieldLength] {
		raw[i] = 0
	}
	copy(raw[:nameFieldLength], r.Name)
	return diskimage.WriteUint32(buf, offset+nameFieldLength, r.IndexNodeID)
}
