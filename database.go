// SPDX-License-Identifier: GPL-3.0-or-later
package notmuch

import (
	"fmt"

	"github.com/CrawX/go-notmuch/handle"
	"github.com/CrawX/go-notmuch/log"
	"github.com/CrawX/go-notmuch/native"

	"github.com/sirupsen/logrus"
)

type OptionFunc func(o *options) error

type options struct {
	lib        native.Library
	configPath string
	profile    string
}

// WithLibrary selects the library implementation instead of the built-in
// default.
func WithLibrary(lib native.Library) OptionFunc {
	return func(o *options) error {
		if lib == nil {
			return fmt.Errorf("library cannot be nil")
		}
		o.lib = lib
		return nil
	}
}

// WithConfigFile overlays the settings of a notmuch config file.
func WithConfigFile(path string) OptionFunc {
	return func(o *options) error {
		o.configPath = path
		return nil
	}
}

// WithProfile selects a named section set of the config file.
func WithProfile(profile string) OptionFunc {
	return func(o *options) error {
		o.profile = profile
		return nil
	}
}

func applyOptions(optionFuncs []OptionFunc) (*options, error) {
	o := &options{}
	for _, f := range optionFuncs {
		if err := f(o); err != nil {
			return nil, fmt.Errorf("error applying option: %w", err)
		}
	}
	if o.lib == nil {
		o.lib = DefaultLibrary()
	}
	return o, nil
}

// Database is the root of every handle tree.
type Database struct {
	object
}

func newDatabase(lib native.Library, ptr native.Ptr) *Database {
	l := log.Logger(log.LOG_HANDLE)
	destroyer := handle.DestroyFunc(func(kind native.Kind, p native.Ptr) {
		st := native.Destroy(lib, kind, p)
		if st != native.StatusSuccess {
			l.WithFields(logrus.Fields{"kind": kind, "status": st}).Warn("Destroy failed")
		}
	})
	return &Database{object{
		lib:    lib,
		ref:    handle.NewRoot(native.KindDatabase, ptr, destroyer),
		derive: handle.Borrowed,
		db:     ptr,
	}}
}

// Create creates a new, empty index for the mail in path and opens it
// read-write.
func Create(path string, optionFuncs ...OptionFunc) (*Database, error) {
	o, err := applyOptions(optionFuncs)
	if err != nil {
		return nil, err
	}
	ptr, st := o.lib.DatabaseCreate(path, o.configPath)
	if st != native.StatusSuccess {
		return nil, &Error{Op: "database_create", Status: st, Detail: path}
	}
	return newDatabase(o.lib, ptr), nil
}

// Open opens an existing index. An empty path is taken from the config file.
func Open(path string, mode DatabaseMode, optionFuncs ...OptionFunc) (*Database, error) {
	o, err := applyOptions(optionFuncs)
	if err != nil {
		return nil, err
	}
	ptr, st := o.lib.DatabaseOpen(path, mode, o.configPath, o.profile)
	if st != native.StatusSuccess {
		return nil, &Error{Op: "database_open", Status: st, Detail: path}
	}
	return newDatabase(o.lib, ptr), nil
}

// Compact rewrites the index of path, keeping a copy in backupPath unless it
// is empty.
func Compact(path, backupPath string, optionFuncs ...OptionFunc) error {
	o, err := applyOptions(optionFuncs)
	if err != nil {
		return err
	}
	st := o.lib.DatabaseCompact(path, backupPath)
	if st != native.StatusSuccess {
		return &Error{Op: "database_compact", Status: st, Detail: path}
	}
	return nil
}

// Share returns a second wrapper with its own counted reference. Values
// derived from it keep the database open.
func (db *Database) Share() *Database {
	return &Database{db.share()}
}

// Move transfers the reference to the next value derived from the returned
// wrapper; db is unusable afterwards.
func (db *Database) Move() *Database {
	return &Database{db.move()}
}

// Disconnect closes the underlying index while keeping the handle. All
// further operations fail with ErrClosedDatabase.
func (db *Database) Disconnect() error {
	return db.check("database_close", db.lib.DatabaseClose(db.ptr()))
}

// LastStatus returns the status string of the last failed operation.
func (db *Database) LastStatus() string {
	return lossy(db.lib.DatabaseStatusString(db.ptr()))
}

func (db *Database) Path() string {
	return lossy(db.lib.DatabaseGetPath(db.ptr()))
}

func (db *Database) Version() uint {
	return db.lib.DatabaseGetVersion(db.ptr())
}

func (db *Database) NeedsUpgrade() bool {
	return db.lib.DatabaseNeedsUpgrade(db.ptr())
}

func (db *Database) Upgrade() error {
	return db.check("database_upgrade", db.lib.DatabaseUpgrade(db.ptr()))
}

// Revision returns the revision counter and the uuid it is valid for.
func (db *Database) Revision() (uint64, string) {
	rev, uuid := db.lib.DatabaseGetRevision(db.ptr())
	return rev, lossy(uuid)
}

// Directory returns the directory record for path, creating it in a
// writable index. It returns nil if a read-only index has no such record.
func (db *Database) Directory(path string) (*Directory, error) {
	ptr, st := db.lib.DatabaseGetDirectory(db.ptr(), path)
	if err := db.check("database_get_directory", st); err != nil {
		return nil, err
	}
	if ptr == native.Nil {
		return nil, nil
	}
	return &Directory{db.child(native.KindDirectory, ptr)}, nil
}

// IndexFile adds filename to the index. If the file belongs to a message
// that is already indexed, the message is returned together with
// ErrDuplicateMessageID. opts may be nil.
func (db *Database) IndexFile(filename string, opts *IndexOpts) (*Message, error) {
	optsPtr := native.Nil
	if opts != nil {
		optsPtr = opts.ptr()
	}
	ptr, st := db.lib.DatabaseIndexFile(db.ptr(), filename, optsPtr)
	if st != native.StatusSuccess && st != native.StatusDuplicateMessageID {
		return nil, db.fail("database_index_file", st)
	}
	m := &Message{db.child(native.KindMessage, ptr)}
	return m, db.check("database_index_file", st)
}

// RemoveMessage removes filename from the index. The message is removed
// with its last file.
func (db *Database) RemoveMessage(filename string) error {
	st := db.lib.DatabaseRemoveMessage(db.ptr(), filename)
	if st == native.StatusDuplicateMessageID {
		return nil
	}
	return db.check("database_remove_message", st)
}

// FindMessage returns the message with the given id, or nil.
func (db *Database) FindMessage(id string) (*Message, error) {
	ptr, st := db.lib.DatabaseFindMessage(db.ptr(), id)
	if err := db.check("database_find_message", st); err != nil {
		return nil, err
	}
	if ptr == native.Nil {
		return nil, nil
	}
	return &Message{db.child(native.KindMessage, ptr)}, nil
}

// FindMessageByFilename returns the message stored in filename, or nil.
func (db *Database) FindMessageByFilename(filename string) (*Message, error) {
	ptr, st := db.lib.DatabaseFindMessageByFilename(db.ptr(), filename)
	if err := db.check("database_find_message_by_filename", st); err != nil {
		return nil, err
	}
	if ptr == native.Nil {
		return nil, nil
	}
	return &Message{db.child(native.KindMessage, ptr)}, nil
}

// AllTags lists every tag used in the index.
func (db *Database) AllTags() (*Tags, error) {
	o, err := db.derived("database_get_all_tags", native.KindTags, db.lib.DatabaseGetAllTags(db.ptr()))
	if err != nil {
		return nil, err
	}
	return newTags(o), nil
}

// CreateQuery prepares a search. Syntax errors are reported when it runs.
func (db *Database) CreateQuery(queryString string) (*Query, error) {
	o, err := db.derived("query_create", native.KindQuery, db.lib.QueryCreate(db.ptr(), queryString))
	if err != nil {
		return nil, err
	}
	return &Query{o}, nil
}

func (db *Database) DefaultIndexOpts() (*IndexOpts, error) {
	o, err := db.derived("database_get_default_indexopts", native.KindIndexOpts, db.lib.DatabaseGetDefaultIndexOpts(db.ptr()))
	if err != nil {
		return nil, err
	}
	return &IndexOpts{o}, nil
}
