// Package vdisk is a thin, convenience-oriented front door onto vfs.Engine:
// construct one, then Create or Open a backing image file.
//
//	v := vdisk.Create("/tmp/disk.img", vfs.Capacity256MB)
//	v.Login("GUEST", "GUEST666666")
//	v.CreateFolder("docs")
package vdisk

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/vdiskfs/vdisk/vfs"
)

// Create makes a new image file at path of the given capacity and installs
// it, returning a ready-to-use Engine. The path must not already exist.
func Create(path string, capacity vfs.Capacity, opts ...vfs.Option) (*vfs.Engine, error) {
	e := vfs.New(opts...)
	if err := e.CreateVirtualDisk(path, capacity); err != nil {
		return nil, err
	}
	if err := e.InstallVirtualDisk(path); err != nil {
		return nil, err
	}
	return e, nil
}

// Open installs an existing image file at path, returning a ready-to-use
// Engine.
//
// A warning is logged, not an error, if path turns out to be a block
// device rather than a regular file: the format assumes a flat regular
// file, but nothing about reading its bytes requires one.
func Open(path string, opts ...vfs.Option) (*vfs.Engine, error) {
	if err := warnIfBlockDevice(path); err != nil {
		return nil, err
	}
	e := vfs.New(opts...)
	if err := e.InstallVirtualDisk(path); err != nil {
		return nil, err
	}
	return e, nil
}

func warnIfBlockDevice(path string) error {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("vdisk: open %s: %w", path, err)
		}
		return nil
	}
	if st.Mode&unix.S_IFMT == unix.S_IFBLK {
		fmt.Fprintf(os.Stderr, "vdisk: warning: %s is a block device; vdisk images are ordinarily flat files\n", path)
	}
	return nil
}
