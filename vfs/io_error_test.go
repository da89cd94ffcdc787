package vfs

import (
	"errors"
	"testing"

	"github.com/vdiskfs/vdisk/backend/file"
	"github.com/vdiskfs/vdisk/testhelper"
)

// TestUninstallPropagatesWriteError confirms that a failure writing the
// image back to its backing storage during UninstallVirtualDisk is
// surfaced to the caller rather than swallowed.
func TestUninstallPropagatesWriteError(t *testing.T) {
	e := newInstalled(t)

	wantErr := errors.New("simulated write failure")
	e.storage = file.New(&testhelper.FileImpl{
		Writer: func(b []byte, offset int64) (int, error) {
			return 0, wantErr
		},
	}, false)

	err := e.UninstallVirtualDisk()
	if err == nil || !errors.Is(err, wantErr) {
		t.Fatalf("UninstallVirtualDisk() = %v, want wrapped %v", err, wantErr)
	}
}
