// SPDX-License-Identifier: GPL-3.0-or-later

// Package notmuch is a memory-safe API over a notmuch style mail index.
//
// Every value returned by this package wraps one native object and holds a
// reference to the object it was derived from. By default that reference is
// borrowed: a Message taken from a Messages cursor dies together with the
// cursor, and using it afterwards panics with a *handle.UseError instead of
// touching freed memory. Calling Share on a value returns a second wrapper
// holding a counted reference. Until it is closed, the shared wrapper keeps
// the value and everything it was taken from alive: a message shared out of
// the replies of a thread keeps the replies, the thread, the query and the
// database open. Shared values can be returned from functions or kept in
// containers. Move hands the reference over to the next derived value; the
// items of a moved cursor share it instead, so the cursor stays usable.
//
// Every wrapper must be closed. Closing a value whose dependents are still
// alive through borrowed references destroys them as well.
//
// Values are not safe for concurrent use. A Database and everything derived
// from it must be used from one goroutine at a time, and writes to one index
// must be serialised by the caller.
package notmuch

import (
	"github.com/CrawX/go-notmuch/handle"
	"github.com/CrawX/go-notmuch/native"
)

type (
	DatabaseMode     = native.DatabaseMode
	Sort             = native.Sort
	Exclude          = native.Exclude
	DecryptionPolicy = native.DecryptionPolicy
	MessageFlag      = native.MessageFlag
	ConfigKey        = native.ConfigKey
)

const (
	ReadOnly  = native.DatabaseModeReadOnly
	ReadWrite = native.DatabaseModeReadWrite

	SortOldestFirst = native.SortOldestFirst
	SortNewestFirst = native.SortNewestFirst
	SortMessageID   = native.SortMessageID
	SortUnsorted    = native.SortUnsorted

	ExcludeFlag  = native.ExcludeFlag
	ExcludeTrue  = native.ExcludeTrue
	ExcludeFalse = native.ExcludeFalse
	ExcludeAll   = native.ExcludeAll

	DecryptFalse   = native.DecryptFalse
	DecryptTrue    = native.DecryptTrue
	DecryptAuto    = native.DecryptAuto
	DecryptNoStash = native.DecryptNoStash

	MessageFlagMatch    = native.MessageFlagMatch
	MessageFlagExcluded = native.MessageFlagExcluded
	MessageFlagGhost    = native.MessageFlagGhost

	ConfigDatabasePath     = native.ConfigDatabasePath
	ConfigMailRoot         = native.ConfigMailRoot
	ConfigHookDir          = native.ConfigHookDir
	ConfigBackupDir        = native.ConfigBackupDir
	ConfigExcludeTags      = native.ConfigExcludeTags
	ConfigNewTags          = native.ConfigNewTags
	ConfigNewIgnore        = native.ConfigNewIgnore
	ConfigSyncMaildirFlags = native.ConfigSyncMaildirFlags
	ConfigPrimaryEmail     = native.ConfigPrimaryEmail
	ConfigOtherEmail       = native.ConfigOtherEmail
	ConfigUserName         = native.ConfigUserName
	ConfigAutocommit       = native.ConfigAutocommit
	ConfigExtraHeaders     = native.ConfigExtraHeaders
	ConfigIndexAsText      = native.ConfigIndexAsText
)

// object is the part every wrapper shares: the library, the handle and the
// mode in which values derived from this wrapper refer to it.
type object struct {
	lib    native.Library
	ref    *handle.Ref
	derive handle.Mode
	// db is the root of the tree, for reading status strings
	db native.Ptr
}

func (o *object) ptr() native.Ptr {
	return o.ref.Ptr()
}

// link returns the reference a value derived from o holds to it.
func (o *object) link() *handle.Ref {
	switch o.derive {
	case handle.Shared:
		return o.ref.Share()
	case handle.Owned:
		return o.ref.Move()
	}
	return o.ref.Borrow()
}

// child wraps ptr, derived from o.
func (o *object) child(kind native.Kind, ptr native.Ptr) object {
	return object{
		lib:    o.lib,
		ref:    handle.New(o.link(), kind, ptr),
		derive: handle.Borrowed,
		db:     o.db,
	}
}

// derived wraps ptr, the result of a call allocating a child of o. A NULL
// result means the library ran out of memory.
func (o *object) derived(op string, kind native.Kind, ptr native.Ptr) (object, error) {
	if ptr == native.Nil {
		return object{}, o.fail(op, native.StatusOutOfMemory)
	}
	return o.child(kind, ptr), nil
}

func (o *object) share() object {
	return object{lib: o.lib, ref: o.ref.Share(), derive: handle.Shared, db: o.db}
}

func (o *object) move() object {
	return object{lib: o.lib, ref: o.ref.Move(), derive: handle.Owned, db: o.db}
}

// check maps st to an error.
func (o *object) check(op string, st native.Status) error {
	if st == native.StatusSuccess {
		return nil
	}
	return o.fail(op, st)
}

func (o *object) fail(op string, st native.Status) error {
	e := &Error{Op: op, Status: st}
	if o.db != native.Nil {
		e.Detail = lossy(o.lib.DatabaseStatusString(o.db))
	}
	return e
}

// Alive reports whether the value can still be used.
func (o *object) Alive() bool {
	return o.ref.Alive()
}

// Close releases the value. Values derived from it through borrowed
// references die with it. Close is idempotent.
func (o *object) Close() error {
	o.ref.Release()
	return nil
}
