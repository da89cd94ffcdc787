// Package vfs implements the filesystem engine: the inode table, the two
// coupled segment allocators, the directory mutation protocol, and the
// open-file-handle lifecycle, all addressing a single in-memory image that
// is loaded from and flushed to a host file.
//
// An Engine is not safe for concurrent use. Exactly one goroutine may call
// into an installed Engine at a time; the design assumes a single active
// caller throughout (see the package's governing specification's
// concurrency model).
package vfs

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/xattr"
	"github.com/sirupsen/logrus"
	times "gopkg.in/djherbis/times.v1"

	"github.com/vdiskfs/vdisk/backend"
	"github.com/vdiskfs/vdisk/backend/file"
	"github.com/vdiskfs/vdisk/internal/account"
	"github.com/vdiskfs/vdisk/internal/allocator"
	"github.com/vdiskfs/vdisk/internal/diskimage"
	"github.com/vdiskfs/vdisk/internal/inode"
	"github.com/vdiskfs/vdisk/internal/objfactory"
)

// MaxNameLength is the longest a folder or file name may be.
const MaxNameLength = 120

// DiskInfo carries host-side provenance about the backing image file,
// gathered through gopkg.in/djherbis/times.v1. It is informational only.
type DiskInfo struct {
	Path         string
	HasBirthTime bool
	BirthTime    time.Time
	ChangeTime   time.Time
}

// Engine is the virtual filesystem. Construct one with New, then call
// CreateVirtualDisk or InstallVirtualDisk against a host path.
type Engine struct {
	log *logrus.Logger
	now func() time.Time

	storage   backend.Storage
	storageAt string
	buf       *diskimage.Buffer
	inodes    *inode.Table
	dataAlloc *allocator.Allocator
	headerLen uint32
	capacity  uint32

	curDirIdx uint32
	cwd       string
	loggedIn  uint8
	installed bool
	sessionID uuid.UUID

	handles *objfactory.Factory[*Handle]
}

// New constructs an uninstalled Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		log: logrus.StandardLogger(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) fields() logrus.Fields {
	return logrus.Fields{"session": e.sessionID.String(), "at": e.now()}
}

// CreateVirtualDisk writes a fresh image to storagePath: a header, an
// empty root directory at inode 0, and zeros for the remainder. The path
// must not already exist.
func (e *Engine) CreateVirtualDisk(storagePath string, cap Capacity) error {
	diskCapacity, nodeCount := cap.bytesAndNodeCount()
	hdrLen := headerLength(nodeCount)
	total := int64(hdrLen) + int64(diskCapacity)

	storage, err := file.CreateFromPath(storagePath, total)
	if err != nil {
		e.log.WithError(err).Error("vfs: create virtual disk failed")
		return fmt.Errorf("vfs: create virtual disk: %w", err)
	}
	defer storage.Close()

	writable, err := storage.Writable()
	if err != nil {
		e.log.WithError(err).Error("vfs: create virtual disk failed: not writable")
		return fmt.Errorf("vfs: create virtual disk: %w", err)
	}

	head := diskimage.NewZeroed(HeaderSize + inode.Size)
	if err := diskimage.WriteAt(head, 0, Header{
		Magic:            MagicNumber,
		Version:          Version,
		DiskCapacity:     diskCapacity,
		DiskHeaderLength: hdrLen,
		IndexNodeCount:   nodeCount,
	}); err != nil {
		return err
	}
	root := inode.Inode{
		OwnerUserID: uint8(inode.OwnerRoot),
		AccessMode:  inode.Read | inode.Write,
		Address:     0,
		Size:        dirfileEmptySize,
	}
	if err := diskimage.WriteAt(head, HeaderSize, root); err != nil {
		return err
	}
	if _, err := writable.WriteAt(head.Bytes(), 0); err != nil {
		e.log.WithError(err).Error("vfs: create virtual disk failed: write")
		return fmt.Errorf("vfs: create virtual disk: %w", err)
	}

	// Best-effort host breadcrumb; unsupported filesystems (e.g. tmpfs
	// without xattr, or non-Linux backends) just skip this silently.
	if err := xattr.Set(storagePath, "user.vdisk.version", []byte(fmt.Sprintf("%#x", Version))); err != nil {
		e.log.WithError(err).Debug("vfs: could not tag image with xattr, continuing")
	}

	e.log.WithFields(logrus.Fields{"path": storagePath, "capacity": cap.String()}).Info("vfs: created virtual disk")
	return nil
}

const dirfileEmptySize = 8 // two zero uint32 counts

// InstallVirtualDisk loads storagePath fully into memory, validates its
// header, and rebuilds both allocators by replaying the inode table's
// occupancy.
func (e *Engine) InstallVirtualDisk(storagePath string) error {
	if e.installed {
		e.log.Error("vfs: install failed: already installed")
		return ErrAlreadyInstalled
	}

	storage, err := file.OpenFromPath(storagePath, false)
	if err != nil {
		e.log.WithError(err).Error("vfs: install failed: cannot open image")
		return fmt.Errorf("vfs: install: %w", err)
	}

	info, err := storage.Stat()
	if err != nil {
		storage.Close()
		return fmt.Errorf("vfs: install: %w", err)
	}
	size := info.Size()
	if size < HeaderSize {
		storage.Close()
		e.log.Error("vfs: install failed: image too small")
		return ErrCorruptImage
	}

	raw := make([]byte, size)
	if _, err := storage.ReadAt(raw, 0); err != nil && err != io.EOF {
		storage.Close()
		e.log.WithError(err).Error("vfs: install failed: read")
		return fmt.Errorf("vfs: install: %w", err)
	}
	buf := diskimage.NewBuffer(raw)

	hdr, err := diskimage.ReadAt[Header](buf, 0)
	if err != nil {
		storage.Close()
		return ErrCorruptImage
	}
	if hdr.Magic != MagicNumber {
		storage.Close()
		e.log.Error("vfs: install failed: bad magic number")
		return ErrCorruptImage
	}
	if hdr.Version != Version {
		storage.Close()
		e.log.Error("vfs: install failed: version mismatch")
		return ErrCorruptImage
	}
	if uint64(size) != uint64(hdr.DiskHeaderLength)+uint64(hdr.DiskCapacity) {
		storage.Close()
		e.log.Error("vfs: install failed: size does not match header")
		return ErrCorruptImage
	}

	nodes, err := inode.ReadTableFrom(buf, HeaderSize, hdr.IndexNodeCount)
	if err != nil {
		storage.Close()
		return ErrCorruptImage
	}

	e.storage = storage
	e.storageAt = storagePath
	e.buf = buf
	e.headerLen = hdr.DiskHeaderLength
	e.capacity = hdr.DiskCapacity
	e.inodes = inode.Load(nodes)

	e.dataAlloc = allocator.New(hdr.DiskCapacity)
	for i := uint32(0); i < e.inodes.Count(); i++ {
		n := e.inodes.Get(i)
		if n.InUse() {
			e.dataAlloc.AllocateAt(n.Address, n.Size)
		}
	}

	e.curDirIdx = inode.RootIndex
	e.cwd = "/"
	e.loggedIn = uint8(inode.OwnerNull)
	e.sessionID = uuid.New()
	e.handles = objfactory.New[*Handle](e.inodes.Count())
	e.installed = true

	e.log.WithFields(e.fields()).WithField("path", storagePath).Info("vfs: installed virtual disk")
	return nil
}

// UninstallVirtualDisk closes any open handles, flushes the inode table
// and image buffer to the host file, and clears both allocators. It is
// idempotent: calling it when not installed just logs and returns.
func (e *Engine) UninstallVirtualDisk() error {
	if !e.installed {
		e.log.Warn("vfs: uninstall called but virtual disk was not installed")
		return nil
	}

	for _, h := range append([]*Handle(nil), e.handles.All()...) {
		e.closeHandle(h)
	}
	e.handles.Clear()

	if err := e.inodes.WriteTo(e.buf, HeaderSize); err != nil {
		return fmt.Errorf("vfs: uninstall: %w", err)
	}

	writable, err := e.storage.Writable()
	if err != nil {
		e.log.WithError(err).Error("vfs: uninstall failed: not writable")
		return fmt.Errorf("vfs: uninstall: %w", err)
	}
	if _, err := writable.WriteAt(e.buf.Bytes(), 0); err != nil {
		e.log.WithError(err).Error("vfs: uninstall failed: write")
		return fmt.Errorf("vfs: uninstall: %w", err)
	}
	if err := e.storage.Close(); err != nil {
		e.log.WithError(err).Warn("vfs: uninstall: error closing image")
	}

	e.dataAlloc.ReleaseAll()
	e.storage = nil
	e.buf = nil
	e.inodes = nil
	e.installed = false

	e.log.WithFields(e.fields()).Info("vfs: uninstalled virtual disk")
	return nil
}

// Login authenticates against the fixed preset account table, setting the
// owner identity future CreateFile calls will stamp on new inodes.
func (e *Engine) Login(user, pass string) bool {
	id, ok := account.Lookup(user, pass)
	if !ok {
		e.log.WithField("user", user).Warn("vfs: login failed")
		return false
	}
	e.loggedIn = id
	e.log.WithField("user", user).Info("vfs: login succeeded")
	return true
}

// Logout clears the logged-in account; mutators that need an owner will
// fail with ErrNotLoggedIn until Login succeeds again.
func (e *Engine) Logout() {
	e.loggedIn = uint8(inode.OwnerNull)
	e.log.Info("vfs: logged out")
}

// GetWorkingDir returns the current working directory path.
func (e *Engine) GetWorkingDir() string {
	return e.cwd
}

// MaxNameLength returns the longest a folder or file name may be.
func (e *Engine) MaxNameLength() int {
	return MaxNameLength
}

// SessionID returns the id assigned to the current install session, for
// correlating this process's log lines with another caller's.
func (e *Engine) SessionID() uuid.UUID {
	return e.sessionID
}

// GetVDiskCapacity returns the total size of the data region in bytes.
func (e *Engine) GetVDiskCapacity() uint32 {
	return e.capacity
}

// GetVDiskUsedSize returns the number of data-region bytes currently
// occupied by live inodes.
func (e *Engine) GetVDiskUsedSize() uint32 {
	return e.capacity - e.dataAlloc.GetFree()
}

// GetVDiskFreeSize returns the number of data-region bytes available for
// new files and folders.
func (e *Engine) GetVDiskFreeSize() uint32 {
	return e.dataAlloc.GetFree()
}

// DiskInfo reports host-side provenance of the backing image file.
func (e *Engine) DiskInfo() (DiskInfo, error) {
	if !e.installed {
		return DiskInfo{}, ErrNotInstalled
	}
	t, err := times.Stat(e.storageAt)
	if err != nil {
		return DiskInfo{}, fmt.Errorf("vfs: disk info: %w", err)
	}
	info := DiskInfo{
		Path:       e.storageAt,
		ChangeTime: t.ModTime(),
	}
	if t.HasBirthTime() {
		info.HasBirthTime = true
		info.BirthTime = t.BirthTime()
	}
	return info, nil
}
