// SPDX-License-Identifier: GPL-3.0-or-later
package notmuch

import (
	"github.com/CrawX/go-notmuch/native"
)

// Directory is the index record of one directory below the mail root. It
// stays valid after the database wrapper it came from is closed only if it
// was derived from a shared database.
type Directory struct {
	object
}

func (d *Directory) Share() *Directory {
	return &Directory{d.share()}
}

func (d *Directory) Move() *Directory {
	return &Directory{d.move()}
}

// SetMtime records the modification time the directory had when it was
// last scanned.
func (d *Directory) SetMtime(mtime int64) error {
	return d.check("directory_set_mtime", d.lib.DirectorySetMtime(d.ptr(), mtime))
}

func (d *Directory) Mtime() int64 {
	return d.lib.DirectoryGetMtime(d.ptr())
}

// ChildFiles lists the base names of the indexed files in the directory.
func (d *Directory) ChildFiles() (*Filenames, error) {
	o, err := d.derived("directory_get_child_files", native.KindFilenames, d.lib.DirectoryGetChildFiles(d.ptr()))
	if err != nil {
		return nil, err
	}
	return newFilenames(o), nil
}

// ChildDirectories lists the base names of the known subdirectories.
func (d *Directory) ChildDirectories() (*Filenames, error) {
	o, err := d.derived("directory_get_child_directories", native.KindFilenames, d.lib.DirectoryGetChildDirectories(d.ptr()))
	if err != nil {
		return nil, err
	}
	return newFilenames(o), nil
}

// Delete removes the directory record. The library frees the directory
// whatever the outcome, so d and every value derived from it are dead
// afterwards.
func (d *Directory) Delete() error {
	st := d.lib.DirectoryDelete(d.ptr())
	d.ref.Disown()
	return d.check("directory_delete", st)
}

// IndexOpts are the options applied when indexing a file.
type IndexOpts struct {
	object
}

func (o *IndexOpts) DecryptPolicy() DecryptionPolicy {
	return o.lib.IndexOptsGetDecryptPolicy(o.ptr())
}

func (o *IndexOpts) SetDecryptPolicy(policy DecryptionPolicy) error {
	return o.check("indexopts_set_decrypt_policy", o.lib.IndexOptsSetDecryptPolicy(o.ptr(), policy))
}
