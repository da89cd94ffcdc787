package vfs

import (
	"fmt"
	"strings"

	"github.com/vdiskfs/vdisk/internal/allocator"
	"github.com/vdiskfs/vdisk/internal/dirfile"
	"github.com/vdiskfs/vdisk/internal/inode"
)

// FileInfo describes one file returned by List/ListDir.
type FileInfo struct {
	Name    string
	Owner   uint8
	Mode    uint16
	Address uint32
	Size    uint32
}

// EnumerateResult is the result of listing a directory's children.
type EnumerateResult struct {
	Folders []string
	Files   []FileInfo
}

func (e *Engine) readDir(addr uint32) (folders, files []dirfile.Record, err error) {
	return dirfile.Read(e.buf, e.headerLen+addr)
}

// splitPath validates that path starts with '/' or '\\' and splits it into
// non-empty segments on either delimiter.
func splitPath(path string) ([]string, error) {
	if path == "" {
		return nil, ErrPathNotAbsolute
	}
	if path[0] != '/' && path[0] != '\\' {
		return nil, ErrPathNotAbsolute
	}
	segs := strings.FieldsFunc(path[1:], func(r rune) bool { return r == '/' || r == '\\' })
	return segs, nil
}

// walk resolves path from the root inode, advancing once per segment and
// failing only when a segment has no matching child folder.
func (e *Engine) walk(path string) (uint32, error) {
	segs, err := splitPath(path)
	if err != nil {
		return 0, err
	}
	cur := uint32(inode.RootIndex)
	for _, seg := range segs {
		node := e.inodes.Get(cur)
		folders, _, err := e.readDir(node.Address)
		if err != nil {
			return 0, err
		}
		found := false
		for _, f := range folders {
			if f.Name == seg {
				cur = f.IndexNodeID
				found = true
				break
			}
		}
		if !found {
			e.log.WithField("path", path).Warn("vfs: set working dir failed: no such directory")
			return 0, ErrNoSuchFolder
		}
	}
	return cur, nil
}

// SetWorkingDir changes the current directory to path, which must be
// absolute (start with '/' or '\\'). On failure the current directory is
// left unchanged.
func (e *Engine) SetWorkingDir(path string) (bool, error) {
	idx, err := e.walk(path)
	if err != nil {
		return false, err
	}
	e.curDirIdx = idx
	segs, _ := splitPath(path)
	if len(segs) == 0 {
		e.cwd = "/"
	} else {
		e.cwd = "/" + strings.Join(segs, "/")
	}
	return true, nil
}

func lookup(records []dirfile.Record, name string) (dirfile.Record, int) {
	for i, r := range records {
		if r.Name == name {
			return r, i
		}
	}
	return dirfile.Record{}, -1
}

// relocateDirFile rewrites the directory file belonging to inode dirIdx to
// hold exactly folders and files. Per design notes, the directory file's
// data segment is released and reallocated on every size change rather
// than grown in place; this keeps the invariants simple at the cost of
// possible relocation on every insert or delete.
func (e *Engine) relocateDirFile(dirIdx uint32, folders, files []dirfile.Record) error {
	node := e.inodes.Get(dirIdx)
	newSize := dirfile.Size(len(folders), len(files))

	if !e.dataAlloc.Release(node.Address, node.Size) {
		return fmt.Errorf("vfs: internal error: directory file segment was not allocated")
	}
	newAddr := e.dataAlloc.AllocateAny(newSize)
	if newAddr == allocator.Invalid {
		e.dataAlloc.AllocateAt(node.Address, node.Size) // restore, nothing else could have taken it
		return ErrOutOfSpace
	}
	if err := dirfile.Write(e.buf, e.headerLen+newAddr, folders, files); err != nil {
		e.dataAlloc.Release(newAddr, newSize)
		e.dataAlloc.AllocateAt(node.Address, node.Size)
		return err
	}

	node.Address = newAddr
	node.Size = newSize
	e.inodes.Set(dirIdx, node)
	return nil
}

func (e *Engine) childExists(folders, files []dirfile.Record, name string) bool {
	if _, i := lookup(folders, name); i >= 0 {
		return true
	}
	if _, i := lookup(files, name); i >= 0 {
		return true
	}
	return false
}

// CreateFolder creates an empty child folder named name in the current
// directory.
func (e *Engine) CreateFolder(name string) (bool, error) {
	if err := validateName(name); err != nil {
		e.log.WithField("name", name).WithError(err).Warn("vfs: create folder failed")
		return false, err
	}

	curNode := e.inodes.Get(e.curDirIdx)
	folders, files, err := e.readDir(curNode.Address)
	if err != nil {
		return false, err
	}
	if e.childExists(folders, files, name) {
		return false, ErrNameAlreadyExists
	}
	if e.dataAlloc.GetFree() < dirfile.RecordSize {
		e.log.Warn("vfs: create folder failed: address space exhausted")
		return false, ErrOutOfSpace
	}
	if e.inodes.IsExhausted() {
		e.log.Warn("vfs: create folder failed: no inode available")
		return false, ErrOutOfInodes
	}

	childAddr := e.dataAlloc.AllocateAny(dirfileEmptySize)
	if childAddr == allocator.Invalid {
		return false, ErrOutOfSpace
	}
	childNum := e.inodes.AllocateNumber()
	if childNum == allocator.Invalid {
		e.dataAlloc.Release(childAddr, dirfileEmptySize)
		return false, ErrOutOfInodes
	}
	if err := dirfile.Write(e.buf, e.headerLen+childAddr, nil, nil); err != nil {
		e.inodes.ReleaseNumber(childNum)
		e.dataAlloc.Release(childAddr, dirfileEmptySize)
		return false, err
	}
	e.inodes.Set(childNum, inode.Inode{
		OwnerUserID: uint8(inode.OwnerRoot),
		AccessMode:  inode.Read | inode.Write,
		Address:     childAddr,
		Size:        dirfileEmptySize,
	})

	newFolders := append(append([]dirfile.Record{}, folders...), dirfile.Record{Name: name, IndexNodeID: childNum})
	if err := e.relocateDirFile(e.curDirIdx, newFolders, files); err != nil {
		e.inodes.ReleaseNumber(childNum)
		e.dataAlloc.Release(childAddr, dirfileEmptySize)
		return false, err
	}

	e.log.WithField("name", name).Info("vfs: created folder")
	return true, nil
}

func (e *Engine) subtreeHasOpenFile(dirIdx uint32) bool {
	node := e.inodes.Get(dirIdx)
	folders, files, err := e.readDir(node.Address)
	if err != nil {
		return false
	}
	for _, f := range files {
		if e.inodes.Get(f.IndexNodeID).IsFileOpened != 0 {
			return true
		}
	}
	for _, d := range folders {
		if e.subtreeHasOpenFile(d.IndexNodeID) {
			return true
		}
	}
	return false
}

func (e *Engine) releaseInodeStorage(idx uint32) {
	n := e.inodes.Get(idx)
	e.dataAlloc.Release(n.Address, n.Size)
	e.inodes.ReleaseNumber(idx)
}

func (e *Engine) releaseSubtree(dirIdx uint32) {
	node := e.inodes.Get(dirIdx)
	folders, files, err := e.readDir(node.Address)
	if err == nil {
		for _, f := range files {
			e.releaseInodeStorage(f.IndexNodeID)
		}
		for _, d := range folders {
			e.releaseSubtree(d.IndexNodeID)
		}
	}
	e.releaseInodeStorage(dirIdx)
}

// DeleteFolder recursively deletes folderName and everything beneath it,
// under the current directory. If any file anywhere in that subtree is
// open, the call aborts without mutating anything.
func (e *Engine) DeleteFolder(folderName string) (bool, error) {
	if err := validateName(folderName); err != nil {
		return false, err
	}

	curNode := e.inodes.Get(e.curDirIdx)
	folders, files, err := e.readDir(curNode.Address)
	if err != nil {
		return false, err
	}
	target, i := lookup(folders, folderName)
	if i < 0 {
		e.log.WithField("name", folderName).Warn("vfs: delete folder failed: not found")
		return false, ErrNoSuchFolder
	}
	if e.subtreeHasOpenFile(target.IndexNodeID) {
		e.log.WithField("name", folderName).Warn("vfs: delete folder failed: open file in subtree")
		return false, ErrSubtreeHasOpenFile
	}

	e.releaseSubtree(target.IndexNodeID)

	newFolders := append(append([]dirfile.Record{}, folders[:i]...), folders[i+1:]...)
	if err := e.relocateDirFile(e.curDirIdx, newFolders, files); err != nil {
		return false, err
	}
	e.log.WithField("name", folderName).Info("vfs: deleted folder")
	return true, nil
}

// CreateFile creates a file named name of the given size in the current
// directory, owned by the logged-in account.
func (e *Engine) CreateFile(name string, byteSize uint32, accessMode uint16) (bool, error) {
	if err := validateName(name); err != nil {
		return false, err
	}
	if e.loggedIn == uint8(inode.OwnerNull) {
		return false, ErrNotLoggedIn
	}

	curNode := e.inodes.Get(e.curDirIdx)
	folders, files, err := e.readDir(curNode.Address)
	if err != nil {
		return false, err
	}
	if e.childExists(folders, files, name) {
		return false, ErrNameAlreadyExists
	}
	if byteSize > e.dataAlloc.GetFree() {
		e.log.WithField("name", name).Warn("vfs: create file failed: not enough space")
		return false, ErrOutOfSpace
	}
	if e.inodes.IsExhausted() {
		e.log.WithField("name", name).Warn("vfs: create file failed: no inode available")
		return false, ErrOutOfInodes
	}

	childAddr := e.dataAlloc.AllocateAny(byteSize)
	if childAddr == allocator.Invalid {
		return false, ErrOutOfSpace
	}
	childNum := e.inodes.AllocateNumber()
	if childNum == allocator.Invalid {
		e.dataAlloc.Release(childAddr, byteSize)
		return false, ErrOutOfInodes
	}
	e.inodes.Set(childNum, inode.Inode{
		OwnerUserID: e.loggedIn,
		AccessMode:  accessMode,
		Address:     childAddr,
		Size:        byteSize,
	})

	newFiles := append(append([]dirfile.Record{}, files...), dirfile.Record{Name: name, IndexNodeID: childNum})
	if err := e.relocateDirFile(e.curDirIdx, folders, newFiles); err != nil {
		e.inodes.ReleaseNumber(childNum)
		e.dataAlloc.Release(childAddr, byteSize)
		return false, err
	}

	e.log.WithField("name", name).Info("vfs: created file")
	return true, nil
}

// DeleteFile deletes fileName from the current directory. It fails if the
// file is open.
func (e *Engine) DeleteFile(fileName string) (bool, error) {
	if err := validateName(fileName); err != nil {
		return false, err
	}

	curNode := e.inodes.Get(e.curDirIdx)
	folders, files, err := e.readDir(curNode.Address)
	if err != nil {
		return false, err
	}
	target, i := lookup(files, fileName)
	if i < 0 {
		e.log.WithField("name", fileName).Warn("vfs: delete file failed: not found")
		return false, ErrNoSuchFile
	}
	if e.inodes.Get(target.IndexNodeID).IsFileOpened != 0 {
		e.log.WithField("name", fileName).Warn("vfs: delete file failed: file is open")
		return false, ErrFileOpen
	}

	e.releaseInodeStorage(target.IndexNodeID)
	newFiles := append(append([]dirfile.Record{}, files[:i]...), files[i+1:]...)
	if err := e.relocateDirFile(e.curDirIdx, folders, newFiles); err != nil {
		return false, err
	}
	e.log.WithField("name", fileName).Info("vfs: deleted file")
	return true, nil
}

// isHiddenSystemFile reports whether a file entry should be hidden from a
// directory listing: a free inode slot or one owned by the system account
// is never shown, only files owned by a live non-root account are listed.
func isHiddenSystemFile(n inode.Inode) bool {
	owner := inode.Owner(n.OwnerUserID)
	return owner == inode.OwnerRoot || owner == inode.OwnerNull
}

func (e *Engine) listAt(dirIdx uint32) (EnumerateResult, error) {
	node := e.inodes.Get(dirIdx)
	folders, files, err := e.readDir(node.Address)
	if err != nil {
		return EnumerateResult{}, err
	}
	res := EnumerateResult{Folders: make([]string, 0, len(folders))}
	for _, f := range folders {
		res.Folders = append(res.Folders, f.Name)
	}
	for _, f := range files {
		n := e.inodes.Get(f.IndexNodeID)
		if isHiddenSystemFile(n) {
			continue
		}
		res.Files = append(res.Files, FileInfo{
			Name:    f.Name,
			Owner:   n.OwnerUserID,
			Mode:    n.AccessMode,
			Address: n.Address,
			Size:    n.Size,
		})
	}
	return res, nil
}

// List enumerates the folders and files of the current working directory.
func (e *Engine) List() (EnumerateResult, error) {
	return e.listAt(e.curDirIdx)
}

// ListDir enumerates the folders and files of an arbitrary absolute path,
// without changing the current directory.
func (e *Engine) ListDir(path string) (EnumerateResult, error) {
	idx, err := e.walk(path)
	if err != nil {
		return EnumerateResult{}, err
	}
	return e.listAt(idx)
}
