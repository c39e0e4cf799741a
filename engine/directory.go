// SPDX-License-Identifier: GPL-3.0-or-later
package engine

import (
	"path"

	"github.com/CrawX/go-notmuch/native"
)

type directory struct {
	db   *database
	path string
}

type indexOpts struct {
	policy native.DecryptionPolicy
}

func (e *Engine) directory(op string, p native.Ptr) *directory {
	o, ok := e.lookup(op, p, native.KindDirectory)
	if !ok {
		return nil
	}
	return o.value.(*directory)
}

func (e *Engine) DirectorySetMtime(p native.Ptr, mtime int64) native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.directory("directory_set_mtime", p)
	if d == nil {
		return native.StatusNullPointer
	}
	return d.db.write(func() error {
		return d.db.store.SetMtime(d.path, mtime)
	})
}

func (e *Engine) DirectoryGetMtime(p native.Ptr) int64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.directory("directory_get_mtime", p)
	if d == nil || d.db.readable() != native.StatusSuccess {
		return 0
	}
	rec, err := d.db.store.Directory(d.path)
	if err != nil {
		d.db.storeError(err)
		return 0
	}
	if rec == nil {
		return 0
	}
	return rec.Mtime
}

func (e *Engine) DirectoryGetChildFiles(p native.Ptr) native.Ptr {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.directory("directory_get_child_files", p)
	if d == nil || d.db.readable() != native.StatusSuccess {
		return native.Nil
	}
	files, err := d.db.store.FilesInDirectory(d.path)
	if err != nil {
		d.db.storeError(err)
		return native.Nil
	}
	for i, f := range files {
		files[i] = path.Base(f)
	}
	return e.alloc(p, native.KindFilenames, newStrings(files))
}

func (e *Engine) DirectoryGetChildDirectories(p native.Ptr) native.Ptr {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.directory("directory_get_child_directories", p)
	if d == nil || d.db.readable() != native.StatusSuccess {
		return native.Nil
	}
	dirs, err := d.db.store.ChildDirectories(d.path)
	if err != nil {
		d.db.storeError(err)
		return native.Nil
	}
	return e.alloc(p, native.KindFilenames, newStrings(dirs))
}

// DirectoryDelete removes the directory record and frees the directory
// object, whatever the outcome.
func (e *Engine) DirectoryDelete(p native.Ptr) native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.directory("directory_delete", p)
	if d == nil {
		return native.StatusNullPointer
	}
	st := d.db.write(func() error {
		return d.db.store.DeleteDirectory(d.path)
	})
	e.release(p)
	return st
}

func (e *Engine) DirectoryDestroy(p native.Ptr) {
	e.destroyLocked("directory_destroy", p, native.KindDirectory)
}

func (e *Engine) IndexOptsGetDecryptPolicy(p native.Ptr) native.DecryptionPolicy {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, ok := e.lookup("indexopts_get_decrypt_policy", p, native.KindIndexOpts)
	if !ok {
		return native.DecryptFalse
	}
	return o.value.(*indexOpts).policy
}

func (e *Engine) IndexOptsSetDecryptPolicy(p native.Ptr, policy native.DecryptionPolicy) native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, ok := e.lookup("indexopts_set_decrypt_policy", p, native.KindIndexOpts)
	if !ok {
		return native.StatusNullPointer
	}
	if policy < native.DecryptFalse || policy > native.DecryptNoStash {
		return native.StatusIllegalArgument
	}
	o.value.(*indexOpts).policy = policy
	return native.StatusSuccess
}

func (e *Engine) IndexOptsDestroy(p native.Ptr) {
	e.destroyLocked("indexopts_destroy", p, native.KindIndexOpts)
}
