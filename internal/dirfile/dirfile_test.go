package dirfile

import (
	"testing"

	"github.com/vdiskfs/vdisk/internal/diskimage"
)

func TestWriteThenReadRoundTrip(t *testing.T) {
	folders := []Record{
		{Name: "docs", IndexNodeID: 5},
		{Name: "bin", IndexNodeID: 7},
	}
	files := []Record{
		{Name: "README", IndexNodeID: 9},
	}

	size := Size(len(folders), len(files))
	buf := diskimage.NewZeroed(size)
	if err := Write(buf, 0, folders, files); err != nil {
		t.Fatalf("Write: %v", err)
	}

	gotFolders, gotFiles, err := Read(buf, 0)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(gotFolders) != 2 || gotFolders[0] != folders[0] || gotFolders[1] != folders[1] {
		t.Fatalf("folders = %+v, want %+v", gotFolders, folders)
	}
	if len(gotFiles) != 1 || gotFiles[0] != files[0] {
		t.Fatalf("files = %+v, want %+v", gotFiles, files)
	}
}

func TestEmptyDirectory(t *testing.T) {
	buf := diskimage.NewZeroed(Size(0, 0))
	if err := Write(buf, 0, nil, nil); err != nil {
		t.Fatalf("Write: %v", err)
	}
	folders, files, err := Read(buf, 0)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(folders) != 0 || len(files) != 0 {
		t.Fatalf("got folders=%v files=%v, want both empty", folders, files)
	}
}

func TestNameTruncatesAtFirstNUL(t *testing.T) {
	buf := diskimage.NewZeroed(Size(0, 1))
	if err := Write(buf, 0, nil, []Record{{Name: "a", IndexNodeID: 1}}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	// corrupt the name field after the NUL terminator to confirm it is ignored
	raw, err := buf.Slice(HeaderSize, RecordSize)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	raw[10] = 'X'

	_, files, err := Read(buf, 0)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if files[0].Name != "a" {
		t.Fatalf("Name = %q, want %q (decode must stop at the first NUL)", files[0].Name, "a")
	}
}

func TestWriteRejectsOverlongName(t *testing.T) {
	long := make([]byte, MaxNameLength+1)
	for i := range long {
		long[i] = 'x'
	}
	buf := diskimage.NewZeroed(Size(0, 1))
	if err := Write(buf, 0, nil, []Record{{Name: string(long), IndexNodeID: 1}}); err == nil {
		t.Fatal("Write with a name longer than MaxNameLength should fail")
	}
}

func TestSizeAccountsForHeaderAndRecords(t *testing.T) {
	if got, want := Size(2, 3), uint32(HeaderSize+5*RecordSize); got != want {
		t.Fatalf("Size(2,3) = %d, want %d", got, want)
	}
}
