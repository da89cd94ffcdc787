// Package diskimage owns the in-memory mirror of a virtual disk image and
// offers typed access to fixed-layout records packed into it. It is the
// single mutable representation of persisted state during an install
// session; every other component reads and writes through it.
package diskimage

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Buffer holds the full byte image: header, inode table, and data region,
// laid out exactly as they will be written back to the host file.
type Buffer struct {
	bytes []byte
}

// NewBuffer wraps an existing byte slice as a Buffer. The slice is taken
// by reference; callers must not retain other writable aliases to it.
func NewBuffer(b []byte) *Buffer {
	return &Buffer{bytes: b}
}

// NewZeroed allocates a Buffer of the given size with all bytes zero.
func NewZeroed(size uint32) *Buffer {
	return &Buffer{bytes: make([]byte, size)}
}

// Len returns the total size of the image in bytes.
func (b *Buffer) Len() uint32 {
	return uint32(len(b.bytes))
}

// Bytes exposes the raw backing slice, for handing off to host I/O.
func (b *Buffer) Bytes() []byte {
	return b.bytes
}

// Slice returns a live view into [offset, offset+size) of the image. The
// returned slice aliases the buffer: writes through it mutate the image
// directly and are visible to subsequent reads.
func (b *Buffer) Slice(offset, size uint32) ([]byte, error) {
	if err := b.checkRange(offset, size); err != nil {
		return nil, err
	}
	return b.bytes[offset : offset+size], nil
}

func (b *Buffer) checkRange(offset, size uint32) error {
	if uint64(offset)+uint64(size) > uint64(len(b.bytes)) {
		return fmt.Errorf("diskimage: range [%d,%d) out of bounds for image of length %d", offset, offset+size, len(b.bytes))
	}
	return nil
}

// ReadAt decodes a fixed-layout, little-endian record of type T from the
// image at offset. T must have no pointer fields.
func ReadAt[T any](b *Buffer, offset uint32) (T, error) {
	var v T
	size := uint32(binary.Size(v))
	raw, err := b.Slice(offset, size)
	if err != nil {
		return v, err
	}
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &v); err != nil {
		return v, fmt.Errorf("diskimage: decode at %d: %w", offset, err)
	}
	return v, nil
}

// WriteAt encodes v in little-endian, fixed layout, into the image at
// offset.
func WriteAt[T any](b *Buffer, offset uint32, v T) error {
	size := uint32(binary.Size(v))
	dst, err := b.Slice(offset, size)
	if err != nil {
		return err
	}
	buf := bytes.NewBuffer(dst[:0])
	if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
		return fmt.Errorf("diskimage: encode at %d: %w", offset, err)
	}
	copy(dst, buf.Bytes())
	return nil
}

// ReadUint32 and WriteUint32 are convenience wrappers used by the
// directory-file codec, which reads and writes bare counts rather than
// structs.
func ReadUint32(b *Buffer, offset uint32) (uint32, error) {
	raw, err := b.Slice(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(raw), nil
}

func WriteUint32(b *Buffer, offset uint32, v uint32) error {
	dst, err := b.Slice(offset, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(dst, v)
	return nil
}
