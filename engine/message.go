// SPDX-License-Identifier: GPL-3.0-or-later
package engine

import (
	"os"
	"sort"
	"strings"

	"github.com/CrawX/go-notmuch/mail"
	"github.com/CrawX/go-notmuch/native"
	"github.com/CrawX/go-notmuch/persistence"

	"github.com/natefinch/atomic"
	"github.com/sirupsen/logrus"
)

const TagMax = 200

type message struct {
	db    *database
	id    string
	flags [native.MessageFlagGhost + 1]bool
	// thread owns the message if it was taken from a thread
	thread    *thread
	threadPtr native.Ptr

	frozen  int
	pending []string

	idBuf       []byte
	threadBuf   []byte
	filenameBuf []byte
	headerBuf   []byte
	propertyBuf []byte
}

type messageList struct {
	db       *database
	ids      []string
	pos      int
	matched  map[string]bool
	excluded map[string]bool

	// lists of a thread hand out the thread's own message objects
	thread    *thread
	threadPtr native.Ptr
}

func (e *Engine) messageList(op string, p native.Ptr) *messageList {
	o, ok := e.lookup(op, p, native.KindMessages)
	if !ok {
		return nil
	}
	return o.value.(*messageList)
}

func (e *Engine) message(op string, p native.Ptr) *message {
	o, ok := e.lookup(op, p, native.KindMessage)
	if !ok {
		return nil
	}
	return o.value.(*message)
}

func (e *Engine) MessagesValid(p native.Ptr) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	l := e.messageList("messages_valid", p)
	return l != nil && l.pos < len(l.ids)
}

func (e *Engine) MessagesGet(p native.Ptr) native.Ptr {
	e.mu.Lock()
	defer e.mu.Unlock()

	l := e.messageList("messages_get", p)
	if l == nil || l.pos >= len(l.ids) {
		return native.Nil
	}
	id := l.ids[l.pos]
	if l.thread != nil {
		// the same object on every call, even after it was destroyed
		if held, ok := l.thread.held[id]; ok {
			return held
		}
	}

	m := &message{db: l.db, id: id}
	m.flags[native.MessageFlagMatch] = l.matched[id]
	m.flags[native.MessageFlagExcluded] = l.excluded[id]
	if l.thread == nil {
		return e.alloc(p, native.KindMessage, m)
	}
	m.thread, m.threadPtr = l.thread, l.threadPtr
	held := e.alloc(l.threadPtr, native.KindMessage, m)
	l.thread.held[id] = held
	return held
}

func (e *Engine) MessagesMoveToNext(p native.Ptr) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if l := e.messageList("messages_move_to_next", p); l != nil && l.pos < len(l.ids) {
		l.pos++
	}
}

// MessagesCollectTags returns the union of the tags of the remaining
// messages and exhausts the list.
func (e *Engine) MessagesCollectTags(p native.Ptr) native.Ptr {
	e.mu.Lock()
	defer e.mu.Unlock()

	l := e.messageList("messages_collect_tags", p)
	if l == nil || l.db.readable() != native.StatusSuccess {
		return native.Nil
	}
	set := map[string]bool{}
	for ; l.pos < len(l.ids); l.pos++ {
		tags, err := l.db.store.Tags(l.ids[l.pos])
		if err != nil {
			l.db.storeError(err)
			return native.Nil
		}
		for _, t := range tags {
			set[t] = true
		}
	}
	return e.alloc(p, native.KindTags, newStrings(sortedKeys(set)))
}

func (e *Engine) MessagesDestroy(p native.Ptr) {
	e.destroyLocked("messages_destroy", p, native.KindMessages)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *message) record() *persistence.Message {
	if m.db.readable() != native.StatusSuccess {
		return nil
	}
	rec, err := m.db.store.Message(m.id)
	if err != nil {
		m.db.storeError(err)
		return nil
	}
	return rec
}

func (m *message) filenames() ([]string, native.Status) {
	if st := m.db.readable(); st != native.StatusSuccess {
		return nil, st
	}
	files, err := m.db.store.Filenames(m.id)
	if err != nil {
		return nil, m.db.storeError(err)
	}
	return files, native.StatusSuccess
}

func (m *message) tags() ([]string, native.Status) {
	if m.frozen > 0 {
		tags := append([]string{}, m.pending...)
		sort.Strings(tags)
		return tags, native.StatusSuccess
	}
	if st := m.db.readable(); st != native.StatusSuccess {
		return nil, st
	}
	tags, err := m.db.store.Tags(m.id)
	if err != nil {
		return nil, m.db.storeError(err)
	}
	return tags, native.StatusSuccess
}

func checkTag(tag string) native.Status {
	if tag == "" {
		return native.StatusIllegalArgument
	}
	if len(tag) > TagMax {
		return native.StatusTagTooLong
	}
	return native.StatusSuccess
}

// setTags replaces the tags of the message, or only the pending set while
// it is frozen.
func (m *message) setTags(tags []string) native.Status {
	if st := m.db.writable(); st != native.StatusSuccess {
		return st
	}
	if m.frozen > 0 {
		m.pending = tags
		return native.StatusSuccess
	}
	return m.db.write(func() error {
		return m.db.store.SetTags(m.id, tags)
	})
}

func (m *message) changeTags(add, remove []string) native.Status {
	current, st := m.tags()
	if st != native.StatusSuccess {
		return st
	}
	set := map[string]bool{}
	for _, t := range current {
		set[t] = true
	}
	for _, t := range add {
		set[t] = true
	}
	for _, t := range remove {
		delete(set, t)
	}
	return m.setTags(sortedKeys(set))
}

func (e *Engine) MessageGetMessageID(p native.Ptr) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := e.message("message_get_message_id", p)
	if m == nil {
		return nil
	}
	m.idBuf = append(m.idBuf[:0], m.id...)
	return m.idBuf
}

func (e *Engine) MessageGetThreadID(p native.Ptr) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := e.message("message_get_thread_id", p)
	if m == nil {
		return nil
	}
	rec := m.record()
	if rec == nil {
		return nil
	}
	m.threadBuf = append(m.threadBuf[:0], rec.ThreadID...)
	return m.threadBuf
}

func (e *Engine) MessageGetReplies(p native.Ptr) native.Ptr {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := e.message("message_get_replies", p)
	if m == nil {
		return native.Nil
	}
	rec := m.record()
	if rec == nil {
		return native.Nil
	}
	thread, err := m.db.store.ThreadMessages(rec.ThreadID)
	if err != nil {
		m.db.storeError(err)
		return native.Nil
	}
	ids := []string{}
	for _, r := range thread {
		if r.Parent == m.id {
			ids = append(ids, r.ID)
		}
	}
	if m.thread != nil {
		return e.alloc(p, native.KindMessages, m.thread.messageList(m.threadPtr, ids))
	}
	return e.alloc(p, native.KindMessages, &messageList{db: m.db, ids: ids})
}

func (e *Engine) MessageCountFiles(p native.Ptr) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := e.message("message_count_files", p)
	if m == nil {
		return -1
	}
	files, st := m.filenames()
	if st != native.StatusSuccess {
		return -1
	}
	return len(files)
}

func (e *Engine) MessageGetFilename(p native.Ptr) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := e.message("message_get_filename", p)
	if m == nil {
		return nil
	}
	files, st := m.filenames()
	if st != native.StatusSuccess || len(files) == 0 {
		return nil
	}
	m.filenameBuf = append(m.filenameBuf[:0], m.db.abs(files[0])...)
	return m.filenameBuf
}

func (e *Engine) MessageGetFilenames(p native.Ptr) native.Ptr {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := e.message("message_get_filenames", p)
	if m == nil {
		return native.Nil
	}
	files, st := m.filenames()
	if st != native.StatusSuccess {
		return native.Nil
	}
	for i, f := range files {
		files[i] = m.db.abs(f)
	}
	return e.alloc(p, native.KindFilenames, newStrings(files))
}

func (e *Engine) MessageGetFlag(p native.Ptr, flag native.MessageFlag) (bool, native.Status) {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := e.message("message_get_flag", p)
	if m == nil {
		return false, native.StatusNullPointer
	}
	if flag < 0 || int(flag) >= len(m.flags) {
		return false, native.StatusIllegalArgument
	}
	if flag == native.MessageFlagGhost {
		rec := m.record()
		return rec == nil || rec.Ghost, native.StatusSuccess
	}
	return m.flags[flag], native.StatusSuccess
}

func (e *Engine) MessageSetFlag(p native.Ptr, flag native.MessageFlag, value bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := e.message("message_set_flag", p)
	if m == nil || flag < 0 || int(flag) >= len(m.flags) {
		return
	}
	m.flags[flag] = value
}

func (e *Engine) MessageGetDate(p native.Ptr) int64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := e.message("message_get_date", p)
	if m == nil {
		return 0
	}
	rec := m.record()
	if rec == nil {
		return 0
	}
	return rec.Date
}

// MessageGetHeader reads header from the first file of the message that can
// be parsed. A missing header is empty, a message without readable files has
// no headers at all.
func (e *Engine) MessageGetHeader(p native.Ptr, header string) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := e.message("message_get_header", p)
	if m == nil {
		return nil
	}
	files, st := m.filenames()
	if st != native.StatusSuccess {
		return nil
	}
	for _, f := range files {
		raw, err := os.ReadFile(m.db.abs(f))
		if err != nil {
			m.db.l.WithFields(logrus.Fields{"file": f, "error": err}).Debug("Could not read message file")
			continue
		}
		h, err := mail.ParseHeaders(raw)
		if err != nil {
			continue
		}
		m.headerBuf = append(m.headerBuf[:0], h.Text(header)...)
		if m.headerBuf == nil {
			m.headerBuf = []byte{}
		}
		return m.headerBuf
	}
	return nil
}

func (e *Engine) MessageGetTags(p native.Ptr) native.Ptr {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := e.message("message_get_tags", p)
	if m == nil {
		return native.Nil
	}
	tags, st := m.tags()
	if st != native.StatusSuccess {
		return native.Nil
	}
	return e.alloc(p, native.KindTags, newStrings(tags))
}

func (e *Engine) MessageAddTag(p native.Ptr, tag string) native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := e.message("message_add_tag", p)
	if m == nil {
		return native.StatusNullPointer
	}
	if st := checkTag(tag); st != native.StatusSuccess {
		return st
	}
	if m.frozen > 0 {
		return m.changeTags([]string{tag}, nil)
	}
	if st := m.db.writable(); st != native.StatusSuccess {
		return st
	}
	return m.db.write(func() error {
		return m.db.store.AddTag(m.id, tag)
	})
}

func (e *Engine) MessageRemoveTag(p native.Ptr, tag string) native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := e.message("message_remove_tag", p)
	if m == nil {
		return native.StatusNullPointer
	}
	if st := checkTag(tag); st != native.StatusSuccess {
		return st
	}
	if m.frozen > 0 {
		return m.changeTags(nil, []string{tag})
	}
	if st := m.db.writable(); st != native.StatusSuccess {
		return st
	}
	return m.db.write(func() error {
		return m.db.store.RemoveTag(m.id, tag)
	})
}

func (e *Engine) MessageRemoveAllTags(p native.Ptr) native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := e.message("message_remove_all_tags", p)
	if m == nil {
		return native.StatusNullPointer
	}
	return m.setTags([]string{})
}

func (e *Engine) MessageMaildirFlagsToTags(p native.Ptr) native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := e.message("message_maildir_flags_to_tags", p)
	if m == nil {
		return native.StatusNullPointer
	}
	files, st := m.filenames()
	if st != native.StatusSuccess {
		return st
	}
	add, remove, ok := mail.TagsFromFlags(files)
	if !ok {
		return native.StatusSuccess
	}
	return m.changeTags(add, remove)
}

func (e *Engine) MessageHasMaildirFlag(p native.Ptr, flag byte) (bool, native.Status) {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := e.message("message_has_maildir_flag", p)
	if m == nil {
		return false, native.StatusNullPointer
	}
	files, st := m.filenames()
	if st != native.StatusSuccess {
		return false, st
	}
	return mail.HasMaildirFlag(files, flag), native.StatusSuccess
}

// MessageTagsToMaildirFlags renames the maildir files of the message so
// their flags match its tags.
func (e *Engine) MessageTagsToMaildirFlags(p native.Ptr) native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := e.message("message_tags_to_maildir_flags", p)
	if m == nil {
		return native.StatusNullPointer
	}
	if st := m.db.writable(); st != native.StatusSuccess {
		return st
	}
	files, st := m.filenames()
	if st != native.StatusSuccess {
		return st
	}
	tags, st := m.tags()
	if st != native.StatusSuccess {
		return st
	}

	for _, f := range files {
		if !mail.InMaildir(f) {
			continue
		}
		current, _ := mail.MaildirFlags(f)
		renamed := mail.WithFlags(f, mail.FlagsFromTags(tags, current))
		if renamed == f {
			continue
		}

		err := atomic.ReplaceFile(m.db.abs(f), m.db.abs(renamed))
		if err != nil {
			return m.db.fail(native.StatusFileError, "Could not rename %s: %v", f, err)
		}
		st := m.db.write(func() error {
			return m.db.store.RenameFilename(f, renamed, relDir(renamed))
		})
		if st != native.StatusSuccess {
			return st
		}
		m.db.l.WithFields(logrus.Fields{"from": f, "to": renamed}).Debug("Renamed maildir file")
	}
	return native.StatusSuccess
}

func (e *Engine) MessageFreeze(p native.Ptr) native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := e.message("message_freeze", p)
	if m == nil {
		return native.StatusNullPointer
	}
	if st := m.db.writable(); st != native.StatusSuccess {
		return st
	}
	if m.frozen == 0 {
		tags, st := m.tags()
		if st != native.StatusSuccess {
			return st
		}
		m.pending = tags
	}
	m.frozen++
	return native.StatusSuccess
}

func (e *Engine) MessageThaw(p native.Ptr) native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := e.message("message_thaw", p)
	if m == nil {
		return native.StatusNullPointer
	}
	if m.frozen == 0 {
		return native.StatusUnbalancedFreezeThaw
	}
	m.frozen--
	if m.frozen > 0 {
		return native.StatusSuccess
	}

	pending := m.pending
	m.pending = nil
	return m.setTags(pending)
}

// MessageReindex parses the first readable file again and updates the
// stored headers. Tags and properties are kept.
func (e *Engine) MessageReindex(p native.Ptr, opts native.Ptr) native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := e.message("message_reindex", p)
	if m == nil {
		return native.StatusNullPointer
	}
	if opts != native.Nil {
		if _, ok := e.lookup("message_reindex", opts, native.KindIndexOpts); !ok {
			return native.StatusNullPointer
		}
	}
	if st := m.db.writable(); st != native.StatusSuccess {
		return st
	}
	rec := m.record()
	if rec == nil {
		return native.StatusXapianException
	}
	files, st := m.filenames()
	if st != native.StatusSuccess {
		return st
	}

	for _, f := range files {
		raw, err := os.ReadFile(m.db.abs(f))
		if err != nil {
			continue
		}
		h, err := mail.ParseHeaders(raw)
		if err != nil {
			continue
		}
		rec.Subject = h.Subject
		rec.Sender = h.From
		rec.Author = h.Author
		rec.Date = h.Date.Unix()
		rec.Parent = h.Parent()
		return m.db.write(func() error {
			return m.db.store.SaveMessage(rec, h.Related())
		})
	}
	return m.db.fail(native.StatusFileError, "No readable file for %s", m.id)
}

func checkPropertyKey(key string) native.Status {
	if key == "" || strings.ContainsRune(key, '=') {
		return native.StatusIllegalArgument
	}
	return native.StatusSuccess
}

func (e *Engine) MessageGetProperty(p native.Ptr, key string) ([]byte, native.Status) {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := e.message("message_get_property", p)
	if m == nil {
		return nil, native.StatusNullPointer
	}
	if st := m.db.readable(); st != native.StatusSuccess {
		return nil, st
	}
	props, err := m.db.store.Properties(m.id, key, true)
	if err != nil {
		return nil, m.db.storeError(err)
	}
	if len(props) == 0 {
		return nil, native.StatusSuccess
	}
	m.propertyBuf = append(m.propertyBuf[:0], props[0].Value...)
	return m.propertyBuf, native.StatusSuccess
}

func (e *Engine) MessageAddProperty(p native.Ptr, key, value string) native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := e.message("message_add_property", p)
	if m == nil {
		return native.StatusNullPointer
	}
	if st := checkPropertyKey(key); st != native.StatusSuccess {
		return st
	}
	return m.db.write(func() error {
		return m.db.store.AddProperty(m.id, key, value)
	})
}

func (e *Engine) MessageRemoveProperty(p native.Ptr, key, value string) native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := e.message("message_remove_property", p)
	if m == nil {
		return native.StatusNullPointer
	}
	if st := checkPropertyKey(key); st != native.StatusSuccess {
		return st
	}
	return m.db.write(func() error {
		return m.db.store.RemoveProperty(m.id, key, value)
	})
}

func (e *Engine) MessageRemoveAllProperties(p native.Ptr, key string) native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := e.message("message_remove_all_properties", p)
	if m == nil {
		return native.StatusNullPointer
	}
	return m.db.write(func() error {
		return m.db.store.RemoveProperties(m.id, key)
	})
}

func (e *Engine) MessageRemoveAllPropertiesWithPrefix(p native.Ptr, prefix string) native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := e.message("message_remove_all_properties_with_prefix", p)
	if m == nil {
		return native.StatusNullPointer
	}
	return m.db.write(func() error {
		return m.db.store.RemovePropertiesWithPrefix(m.id, prefix)
	})
}

func (e *Engine) MessageGetProperties(p native.Ptr, key string, exact bool) native.Ptr {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := e.message("message_get_properties", p)
	if m == nil || m.db.readable() != native.StatusSuccess {
		return native.Nil
	}
	props, err := m.db.store.Properties(m.id, key, exact)
	if err != nil {
		m.db.storeError(err)
		return native.Nil
	}
	l := &pairList{}
	for _, prop := range props {
		l.items = append(l.items, pair{prop.Key, prop.Value})
	}
	return e.alloc(p, native.KindMessageProperties, l)
}

func (e *Engine) MessageCountProperties(p native.Ptr, key string) (uint, native.Status) {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := e.message("message_count_properties", p)
	if m == nil {
		return 0, native.StatusNullPointer
	}
	if st := m.db.readable(); st != native.StatusSuccess {
		return 0, st
	}
	props, err := m.db.store.Properties(m.id, key, true)
	if err != nil {
		return 0, m.db.storeError(err)
	}
	return uint(len(props)), native.StatusSuccess
}

func (e *Engine) MessageDestroy(p native.Ptr) {
	e.destroyLocked("message_destroy", p, native.KindMessage)
}
