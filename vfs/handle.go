package vfs

// Handle is an open file, obtained from OpenFile. A Handle must be closed
// with CloseFile before the owning file can be deleted or the disk
// uninstalled; UninstallVirtualDisk force-closes any that remain.
type Handle struct {
	inodeNum uint32
	engine   *Engine
	closed   bool
}

// OpenFile opens fileName from the current directory for reading and
// writing. The name is looked up among the directory's files, not its
// folders.
func (e *Engine) OpenFile(fileName string) (*Handle, error) {
	if err := validateName(fileName); err != nil {
		return nil, err
	}

	curNode := e.inodes.Get(e.curDirIdx)
	_, files, err := e.readDir(curNode.Address)
	if err != nil {
		return nil, err
	}
	rec, i := lookup(files, fileName)
	if i < 0 {
		e.log.WithField("name", fileName).Warn("vfs: open file failed: not found")
		return nil, ErrNoSuchFile
	}

	n := e.inodes.Get(rec.IndexNodeID)
	if n.IsFileOpened != 0 {
		e.log.WithField("name", fileName).Warn("vfs: open file failed: already open")
		return nil, ErrFileOpen
	}
	n.IsFileOpened = 1
	e.inodes.Set(rec.IndexNodeID, n)

	h := &Handle{inodeNum: rec.IndexNodeID, engine: e}
	if err := e.handles.Track(h); err != nil {
		n.IsFileOpened = 0
		e.inodes.Set(rec.IndexNodeID, n)
		return nil, err
	}

	e.log.WithField("name", fileName).Info("vfs: opened file")
	return h, nil
}

// CloseFile closes a handle previously returned by OpenFile.
func (e *Engine) CloseFile(h *Handle) error {
	if h == nil || h.closed {
		return ErrHandleAlreadyClosed
	}
	e.closeHandle(h)
	return nil
}

func (e *Engine) closeHandle(h *Handle) {
	n := e.inodes.Get(h.inodeNum)
	n.IsFileOpened = 0
	e.inodes.Set(h.inodeNum, n)
	e.handles.Untrack(h, func(a, b *Handle) bool { return a == b })
	h.closed = true
}

// Read copies size bytes starting at startIndex within the file into dst.
func (h *Handle) Read(dst []byte, startIndex, size uint32) error {
	if h.closed {
		return ErrHandleAlreadyClosed
	}
	n := h.engine.inodes.Get(h.inodeNum)
	if uint64(startIndex)+uint64(size) > uint64(n.Size) {
		return ErrOutOfRange
	}
	src, err := h.engine.buf.Slice(h.engine.headerLen+n.Address+startIndex, size)
	if err != nil {
		return err
	}
	copy(dst, src)
	return nil
}

// Write copies size bytes from src into the file starting at startIndex.
func (h *Handle) Write(src []byte, startIndex, size uint32) error {
	if h.closed {
		return ErrHandleAlreadyClosed
	}
	n := h.engine.inodes.Get(h.inodeNum)
	if uint64(startIndex)+uint64(size) > uint64(n.Size) {
		return ErrOutOfRange
	}
	dst, err := h.engine.buf.Slice(h.engine.headerLen+n.Address+startIndex, size)
	if err != nil {
		return err
	}
	copy(dst, src)
	return nil
}

// Size returns the file's fixed byte size, set at creation.
func (h *Handle) Size() uint32 {
	return h.engine.inodes.Get(h.inodeNum).Size
}
