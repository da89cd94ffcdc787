package vfs

import (
	"fmt"
	"io"

	"github.com/pierrec/lz4"
	"github.com/ulikunitz/xz"

	"github.com/vdiskfs/vdisk/backend/file"
)

// SnapshotCompression selects the stream codec used by ExportSnapshot and
// ImportVirtualDisk to compress the raw image bytes for host-side backup.
type SnapshotCompression int

const (
	// SnapshotXZ uses github.com/ulikunitz/xz: higher ratio, slower.
	SnapshotXZ SnapshotCompression = iota
	// SnapshotLZ4 uses github.com/pierrec/lz4: faster, lower ratio.
	SnapshotLZ4
)

func (k SnapshotCompression) String() string {
	switch k {
	case SnapshotLZ4:
		return "lz4"
	default:
		return "xz"
	}
}

// ExportSnapshot streams the installed image's current in-memory bytes to
// w, compressed with kind. It does not touch the backing host file, so it
// captures exactly the state UninstallVirtualDisk would flush.
func (e *Engine) ExportSnapshot(w io.Writer, kind SnapshotCompression) error {
	if !e.installed {
		return ErrNotInstalled
	}

	var cw io.WriteCloser
	switch kind {
	case SnapshotLZ4:
		cw = lz4.NewWriter(w)
	default:
		xw, err := xz.NewWriter(w)
		if err != nil {
			return fmt.Errorf("vfs: export snapshot: %w", err)
		}
		cw = xw
	}

	if _, err := cw.Write(e.buf.Bytes()); err != nil {
		cw.Close()
		e.log.WithError(err).WithField("codec", kind.String()).Error("vfs: export snapshot failed")
		return fmt.Errorf("vfs: export snapshot: %w", err)
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("vfs: export snapshot: %w", err)
	}

	e.log.WithFields(e.fields()).WithField("codec", kind.String()).Info("vfs: exported snapshot")
	return nil
}

// ImportVirtualDisk decompresses a stream previously produced by
// ExportSnapshot, writes it to storagePath as a fresh image file, and
// installs it. storagePath must not already exist.
func (e *Engine) ImportVirtualDisk(storagePath string, r io.Reader, kind SnapshotCompression) error {
	if e.installed {
		return ErrAlreadyInstalled
	}

	var cr io.Reader
	switch kind {
	case SnapshotLZ4:
		cr = lz4.NewReader(r)
	default:
		xr, err := xz.NewReader(r)
		if err != nil {
			return fmt.Errorf("vfs: import virtual disk: %w", err)
		}
		cr = xr
	}

	raw, err := io.ReadAll(cr)
	if err != nil {
		e.log.WithError(err).WithField("codec", kind.String()).Error("vfs: import virtual disk failed")
		return fmt.Errorf("vfs: import virtual disk: %w", err)
	}

	storage, err := file.CreateFromPath(storagePath, int64(len(raw)))
	if err != nil {
		return fmt.Errorf("vfs: import virtual disk: %w", err)
	}
	writable, err := storage.Writable()
	if err != nil {
		storage.Close()
		return fmt.Errorf("vfs: import virtual disk: %w", err)
	}
	if _, err := writable.WriteAt(raw, 0); err != nil {
		storage.Close()
		return fmt.Errorf("vfs: import virtual disk: %w", err)
	}
	if err := storage.Close(); err != nil {
		return fmt.Errorf("vfs: import virtual disk: %w", err)
	}

	e.log.WithField("codec", kind.String()).Info("vfs: imported snapshot, installing")
	return e.InstallVirtualDisk(storagePath)
}
