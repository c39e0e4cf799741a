// SPDX-License-Identifier: GPL-3.0-or-later
package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/CrawX/go-notmuch/config"
	"github.com/CrawX/go-notmuch/native"
	"github.com/CrawX/go-notmuch/persistence"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	IndexDir  = ".notmuch"
	IndexFile = "index.sqlite"

	Version = 3

	metaUUID     = "uuid"
	metaVersion  = "version"
	metaRevision = "revision"
	metaThread   = "thread"
)

type database struct {
	path       string
	mode       native.DatabaseMode
	store      *persistence.Persistence
	closed     bool
	status     string
	atomic     int
	configPath string
	file       map[string]string

	l *logrus.Entry
}

func indexPath(path string) string {
	return filepath.Join(path, IndexDir, IndexFile)
}

func (d *database) close() {
	if d.closed {
		return
	}
	d.closed = true
	err := d.store.Close()
	if err != nil {
		d.l.WithField("error", err).Warn("Could not close store")
	}
}

func (d *database) fail(st native.Status, format string, args ...interface{}) native.Status {
	d.status = fmt.Sprintf(format, args...)
	d.l.WithFields(logrus.Fields{"status": st, "detail": d.status}).Debug("Operation failed")
	return st
}

func (d *database) storeError(err error) native.Status {
	return d.fail(native.StatusXapianException, "A Xapian exception occurred: %v", err)
}

func (d *database) readable() native.Status {
	if d.closed {
		return d.fail(native.StatusClosedDatabase, "Cannot use a closed database")
	}
	return native.StatusSuccess
}

func (d *database) writable() native.Status {
	if st := d.readable(); st != native.StatusSuccess {
		return st
	}
	if d.mode != native.DatabaseModeReadWrite {
		return d.fail(native.StatusReadOnlyDatabase, "Cannot write to a read-only database")
	}
	return native.StatusSuccess
}

// write runs f in a transaction, joining an open atomic section, and bumps
// the revision.
func (d *database) write(f func() error) native.Status {
	if st := d.writable(); st != native.StatusSuccess {
		return st
	}

	joined := d.store.InTx()
	if !joined {
		if err := d.store.Begin(); err != nil {
			return d.storeError(err)
		}
	}

	err := f()
	if err == nil {
		_, err = d.store.NextCounter(metaRevision)
	}

	if joined {
		if err != nil {
			return d.storeError(err)
		}
		return native.StatusSuccess
	}

	if err != nil {
		if rbErr := d.store.Rollback(); rbErr != nil {
			d.l.WithField("error", rbErr).Warn("Could not roll back")
		}
		return d.storeError(err)
	}
	if err := d.store.Commit(); err != nil {
		return d.storeError(err)
	}
	return native.StatusSuccess
}

// rel maps a file name to its index-relative, slash separated form.
func (d *database) rel(filename string) (string, bool) {
	if !filepath.IsAbs(filename) {
		filename = filepath.Join(d.path, filename)
	}
	rel, err := filepath.Rel(d.path, filepath.Clean(filename))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	if rel == "." {
		rel = ""
	}
	return filepath.ToSlash(rel), true
}

func (d *database) abs(rel string) string {
	return filepath.Join(d.path, filepath.FromSlash(rel))
}

func relDir(rel string) string {
	dir := filepath.ToSlash(filepath.Dir(filepath.FromSlash(rel)))
	if dir == "." {
		return ""
	}
	return dir
}

func (e *Engine) database(op string, p native.Ptr) *database {
	o, ok := e.lookup(op, p, native.KindDatabase)
	if !ok {
		return nil
	}
	return o.value.(*database)
}

func (e *Engine) DatabaseCreate(path, configPath string) (native.Ptr, native.Status) {
	e.mu.Lock()
	defer e.mu.Unlock()

	path, err := filepath.Abs(path)
	if err != nil {
		return native.Nil, native.StatusPathError
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return native.Nil, native.StatusFileError
	}
	if _, err := os.Stat(indexPath(path)); err == nil {
		return native.Nil, native.StatusDatabaseExists
	}

	err = os.MkdirAll(filepath.Join(path, IndexDir), 0o755)
	if err != nil {
		e.l.WithField("error", err).Warn("Could not create index directory")
		return native.Nil, native.StatusFileError
	}

	d, st := e.open(path, native.DatabaseModeReadWrite, configPath, "")
	if st != native.StatusSuccess {
		return native.Nil, st
	}

	for key, value := range map[string]string{
		metaUUID:    uuid.NewString(),
		metaVersion: strconv.Itoa(Version),
	} {
		if err := d.store.SetMeta(key, value); err != nil {
			d.close()
			return native.Nil, native.StatusXapianException
		}
	}

	d.l.Info("Created database")
	return e.alloc(native.Nil, native.KindDatabase, d), native.StatusSuccess
}

func (e *Engine) DatabaseOpen(path string, mode native.DatabaseMode, configPath, profile string) (native.Ptr, native.Status) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if path == "" && configPath != "" {
		file, err := config.ReadNotmuchConfig(configPath, profile)
		if err != nil {
			return native.Nil, native.StatusNoConfig
		}
		path = file[native.ConfigDatabasePath.Name()]
	}
	if path == "" {
		return native.Nil, native.StatusNoDatabase
	}

	path, err := filepath.Abs(path)
	if err != nil {
		return native.Nil, native.StatusPathError
	}
	if _, err := os.Stat(indexPath(path)); err != nil {
		return native.Nil, native.StatusNoDatabase
	}

	d, st := e.open(path, mode, configPath, profile)
	if st != native.StatusSuccess {
		return native.Nil, st
	}

	d.l.Debug("Opened database")
	return e.alloc(native.Nil, native.KindDatabase, d), native.StatusSuccess
}

func (e *Engine) open(path string, mode native.DatabaseMode, configPath, profile string) (*database, native.Status) {
	var file map[string]string
	if configPath != "" {
		var err error
		file, err = config.ReadNotmuchConfig(configPath, profile)
		if err != nil {
			e.l.WithFields(logrus.Fields{"config": configPath, "error": err}).Warn("Could not read config file")
			return nil, native.StatusNoConfig
		}
	}

	store, err := persistence.NewPersistence(indexPath(path))
	if err != nil {
		e.l.WithFields(logrus.Fields{"path": path, "error": err}).Warn("Could not open store")
		return nil, native.StatusXapianException
	}

	return &database{
		path:       path,
		mode:       mode,
		store:      store,
		configPath: configPath,
		file:       file,
		l:          e.l.WithField("db", path),
	}, native.StatusSuccess
}

func (e *Engine) DatabaseClose(p native.Ptr) native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.database("database_close", p)
	if d == nil {
		return native.StatusNullPointer
	}
	if d.atomic > 0 {
		d.l.WithField("depth", d.atomic).Warn("Closing database inside atomic section, discarding changes")
	}
	d.close()
	return native.StatusSuccess
}

func (e *Engine) DatabaseDestroy(p native.Ptr) native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.destroy("database_destroy", p, native.KindDatabase)
	return native.StatusSuccess
}

func (e *Engine) DatabaseCompact(path, backupPath string) native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := os.Stat(indexPath(path)); err != nil {
		return native.StatusNoDatabase
	}
	if backupPath != "" {
		if _, err := os.Stat(backupPath); err == nil {
			return native.StatusPathError
		}
	}

	store, err := persistence.NewPersistence(indexPath(path))
	if err != nil {
		return native.StatusXapianException
	}
	defer store.Close()

	err = store.Vacuum(backupPath)
	if err != nil {
		e.l.WithField("error", err).Warn("Could not compact")
		return native.StatusXapianException
	}
	return native.StatusSuccess
}

func (e *Engine) DatabaseStatusString(p native.Ptr) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.database("database_status_string", p)
	if d == nil || d.status == "" {
		return nil
	}
	return []byte(d.status)
}

func (e *Engine) DatabaseGetPath(p native.Ptr) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.database("database_get_path", p)
	if d == nil {
		return nil
	}
	return []byte(d.path)
}

func (e *Engine) DatabaseGetVersion(p native.Ptr) uint {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.database("database_get_version", p)
	if d == nil || d.closed {
		return 0
	}
	v, err := d.store.Counter(metaVersion)
	if err != nil {
		return 0
	}
	return uint(v)
}

func (e *Engine) DatabaseNeedsUpgrade(p native.Ptr) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.database("database_needs_upgrade", p)
	if d == nil || d.closed || d.mode != native.DatabaseModeReadWrite {
		return false
	}
	v, err := d.store.Counter(metaVersion)
	return err == nil && v < Version
}

func (e *Engine) DatabaseUpgrade(p native.Ptr) native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.database("database_upgrade", p)
	if d == nil {
		return native.StatusNullPointer
	}
	return d.write(func() error {
		return d.store.SetMeta(metaVersion, strconv.Itoa(Version))
	})
}

func (e *Engine) DatabaseGetRevision(p native.Ptr) (uint64, []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.database("database_get_revision", p)
	if d == nil || d.closed {
		return 0, nil
	}
	rev, err := d.store.Counter(metaRevision)
	if err != nil {
		d.storeError(err)
	}
	id, err := d.store.Meta(metaUUID)
	if err != nil {
		d.storeError(err)
	}
	return rev, []byte(id)
}

func (e *Engine) DatabaseBeginAtomic(p native.Ptr) native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.database("database_begin_atomic", p)
	if d == nil {
		return native.StatusNullPointer
	}
	if st := d.readable(); st != native.StatusSuccess {
		return st
	}

	if d.atomic == 0 && d.mode == native.DatabaseModeReadWrite {
		if err := d.store.Begin(); err != nil {
			return d.storeError(err)
		}
	}
	d.atomic++
	return native.StatusSuccess
}

func (e *Engine) DatabaseEndAtomic(p native.Ptr) native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.database("database_end_atomic", p)
	if d == nil {
		return native.StatusNullPointer
	}
	if st := d.readable(); st != native.StatusSuccess {
		return st
	}
	if d.atomic == 0 {
		return d.fail(native.StatusUnbalancedAtomic, "end_atomic without matching begin_atomic")
	}

	d.atomic--
	if d.atomic == 0 && d.store.InTx() {
		if err := d.store.Commit(); err != nil {
			return d.storeError(err)
		}
	}
	return native.StatusSuccess
}

func (e *Engine) DatabaseIndexFile(p native.Ptr, filename string, opts native.Ptr) (native.Ptr, native.Status) {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.database("database_index_file", p)
	if d == nil {
		return native.Nil, native.StatusNullPointer
	}
	if opts != native.Nil {
		if _, ok := e.lookup("database_index_file", opts, native.KindIndexOpts); !ok {
			return native.Nil, native.StatusNullPointer
		}
	}
	if st := d.writable(); st != native.StatusSuccess {
		return native.Nil, st
	}

	rel, ok := d.rel(filename)
	if !ok || rel == "" {
		return native.Nil, d.fail(native.StatusPathError, "%s is not below %s", filename, d.path)
	}

	id, st := d.index(rel)
	if st != native.StatusSuccess && st != native.StatusDuplicateMessageID {
		return native.Nil, st
	}
	return e.alloc(p, native.KindMessage, &message{db: d, id: id}), st
}

func (e *Engine) DatabaseRemoveMessage(p native.Ptr, filename string) native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.database("database_remove_message", p)
	if d == nil {
		return native.StatusNullPointer
	}
	if st := d.writable(); st != native.StatusSuccess {
		return st
	}
	rel, ok := d.rel(filename)
	if !ok {
		return d.fail(native.StatusPathError, "%s is not below %s", filename, d.path)
	}

	id, err := d.store.MessageIDByFilename(rel)
	if err != nil {
		return d.storeError(err)
	}
	if id == "" {
		return native.StatusSuccess
	}

	remaining := 0
	st := d.write(func() error {
		if err := d.store.RemoveFilename(rel); err != nil {
			return err
		}
		files, err := d.store.Filenames(id)
		if err != nil {
			return err
		}
		remaining = len(files)
		if remaining > 0 {
			return nil
		}
		return d.store.DeleteMessage(id)
	})
	if st != native.StatusSuccess {
		return st
	}

	d.l.WithFields(logrus.Fields{"file": rel, "id": id, "remaining": remaining}).Debug("Removed file")
	if remaining > 0 {
		return native.StatusDuplicateMessageID
	}
	return native.StatusSuccess
}

func (e *Engine) DatabaseFindMessage(p native.Ptr, messageID string) (native.Ptr, native.Status) {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.database("database_find_message", p)
	if d == nil {
		return native.Nil, native.StatusNullPointer
	}
	if st := d.readable(); st != native.StatusSuccess {
		return native.Nil, st
	}

	m, err := d.store.Message(messageID)
	if err != nil {
		return native.Nil, d.storeError(err)
	}
	if m == nil || m.Ghost {
		return native.Nil, native.StatusSuccess
	}
	return e.alloc(p, native.KindMessage, &message{db: d, id: m.ID}), native.StatusSuccess
}

func (e *Engine) DatabaseFindMessageByFilename(p native.Ptr, filename string) (native.Ptr, native.Status) {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.database("database_find_message_by_filename", p)
	if d == nil {
		return native.Nil, native.StatusNullPointer
	}
	if st := d.readable(); st != native.StatusSuccess {
		return native.Nil, st
	}
	rel, ok := d.rel(filename)
	if !ok {
		return native.Nil, d.fail(native.StatusPathError, "%s is not below %s", filename, d.path)
	}

	id, err := d.store.MessageIDByFilename(rel)
	if err != nil {
		return native.Nil, d.storeError(err)
	}
	if id == "" {
		return native.Nil, native.StatusSuccess
	}
	return e.alloc(p, native.KindMessage, &message{db: d, id: id}), native.StatusSuccess
}

func (e *Engine) DatabaseGetAllTags(p native.Ptr) native.Ptr {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.database("database_get_all_tags", p)
	if d == nil || d.readable() != native.StatusSuccess {
		return native.Nil
	}
	tags, err := d.store.AllTags()
	if err != nil {
		d.storeError(err)
		return native.Nil
	}
	return e.alloc(p, native.KindTags, newStrings(tags))
}

func (e *Engine) DatabaseGetDirectory(p native.Ptr, path string) (native.Ptr, native.Status) {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.database("database_get_directory", p)
	if d == nil {
		return native.Nil, native.StatusNullPointer
	}
	if st := d.readable(); st != native.StatusSuccess {
		return native.Nil, st
	}
	rel, ok := d.rel(path)
	if !ok {
		return native.Nil, d.fail(native.StatusPathError, "%s is not below %s", path, d.path)
	}

	existing, err := d.store.Directory(rel)
	if err != nil {
		return native.Nil, d.storeError(err)
	}
	if existing == nil {
		if d.mode != native.DatabaseModeReadWrite {
			return native.Nil, native.StatusSuccess
		}
		st := d.write(func() error {
			return d.store.EnsureDirectory(rel)
		})
		if st != native.StatusSuccess {
			return native.Nil, st
		}
	}
	return e.alloc(p, native.KindDirectory, &directory{db: d, path: rel}), native.StatusSuccess
}

func (e *Engine) DatabaseGetDefaultIndexOpts(p native.Ptr) native.Ptr {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.database("database_get_default_indexopts", p)
	if d == nil {
		return native.Nil
	}
	return e.alloc(p, native.KindIndexOpts, &indexOpts{policy: native.DecryptAuto})
}
