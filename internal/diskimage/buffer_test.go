package diskimage

import (
	"bytes"
	"testing"
)

type record struct {
	A uint32
	B uint16
	C uint16
}

func TestWriteAtThenReadAtRoundTrip(t *testing.T) {
	buf := NewZeroed(64)
	want := record{A: 0xDEADBEEF, B: 0x1234, C: 0x5678}

	if err := WriteAt(buf, 10, want); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	got, err := ReadAt[record](buf, 10)
	if err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if got != want {
		t.Fatalf("round-trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestWriteAtLittleEndian(t *testing.T) {
	buf := NewZeroed(8)
	if err := WriteUint32(buf, 0, 0x01020304); err != nil {
		t.Fatalf("WriteUint32: %v", err)
	}
	raw, _ := buf.Slice(0, 4)
	want := []byte{0x04, 0x03, 0x02, 0x01}
	if !bytes.Equal(raw, want) {
		t.Fatalf("little-endian layout = % x, want % x", raw, want)
	}
}

func TestSliceAliasesBuffer(t *testing.T) {
	buf := NewZeroed(16)
	s, err := buf.Slice(4, 4)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	s[0] = 0xFF
	if buf.Bytes()[4] != 0xFF {
		t.Fatal("Slice should return a view aliasing the backing array")
	}
}

func TestSliceOutOfBounds(t *testing.T) {
	buf := NewZeroed(16)
	if _, err := buf.Slice(10, 10); err == nil {
		t.Fatal("Slice(10,10) on a 16-byte buffer should fail")
	}
	if _, err := ReadAt[record](buf, 100); err == nil {
		t.Fatal("ReadAt past the end of the buffer should fail")
	}
}

func TestReadUint32WriteUint32RoundTrip(t *testing.T) {
	buf := NewZeroed(8)
	if err := WriteUint32(buf, 4, 42); err != nil {
		t.Fatalf("WriteUint32: %v", err)
	}
	got, err := ReadUint32(buf, 4)
	if err != nil {
		t.Fatalf("ReadUint32: %v", err)
	}
	if got != 42 {
		t.Fatalf("ReadUint32 = %d, want 42", got)
	}
}
