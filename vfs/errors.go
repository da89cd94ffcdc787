package vfs

import "errors"

// Sentinel errors, one per failure category in the design's error-handling
// section. Callers compare with errors.Is; every mutator also logs a
// human-readable line at the point of failure.
var (
	// Validation
	ErrNameEmpty        = errors.New("vfs: name is empty")
	ErrNameTooLong      = errors.New("vfs: name exceeds maximum length")
	ErrNameHasDelimiter = errors.New("vfs: name contains '/' or '\\'")
	ErrPathNotAbsolute  = errors.New("vfs: path must start with '/' or '\\'")

	// Resource exhaustion
	ErrOutOfInodes = errors.New("vfs: no free inode available")
	ErrOutOfSpace  = errors.New("vfs: not enough free space")

	// Lookup
	ErrNoSuchFolder = errors.New("vfs: no such folder")
	ErrNoSuchFile   = errors.New("vfs: no such file")

	// State
	ErrFileOpen            = errors.New("vfs: file is open")
	ErrSubtreeHasOpenFile  = errors.New("vfs: folder subtree has an open file")
	ErrAlreadyInstalled    = errors.New("vfs: virtual disk already installed")
	ErrNotInstalled        = errors.New("vfs: virtual disk not installed")
	ErrNotLoggedIn         = errors.New("vfs: no account logged in")
	ErrCorruptImage        = errors.New("vfs: corrupt or incompatible image")
	ErrNameAlreadyExists   = errors.New("vfs: name already exists in directory")
	ErrHandleAlreadyClosed = errors.New("vfs: handle already closed")

	// Bounds
	ErrOutOfRange = errors.New("vfs: read or write range exceeds file size")
)
