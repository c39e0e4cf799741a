// SPDX-License-Identifier: GPL-3.0-or-later
package engine

import (
	"sort"
	"strings"

	"github.com/CrawX/go-notmuch/native"
	"github.com/CrawX/go-notmuch/persistence"
)

type thread struct {
	db       *database
	id       string
	messages []*persistence.Message
	matched  map[string]bool
	excluded map[string]bool

	// held maps message ids to the message objects the thread owns; they
	// are allocated once and freed with the thread
	held map[string]native.Ptr

	oldest, newest int64
	idBuf          []byte
	authorsBuf     []byte
	subjectBuf     []byte
}

type threadList struct {
	items []*thread
	pos   int
}

// loadThread reads the messages of a thread, oldest first. Messages carrying
// one of omit are left out entirely.
func (d *database) loadThread(id string, matched, excluded map[string]bool, omit []string) (*thread, native.Status) {
	messages, err := d.store.ThreadMessages(id)
	if err != nil {
		return nil, d.storeError(err)
	}

	t := &thread{db: d, id: id, matched: matched, excluded: excluded}
	for _, m := range messages {
		if len(omit) > 0 {
			tags, err := d.store.Tags(m.ID)
			if err != nil {
				return nil, d.storeError(err)
			}
			if containsAny(tags, omit) {
				continue
			}
		}
		t.messages = append(t.messages, m)
	}

	for i, m := range t.messages {
		if i == 0 || m.Date < t.oldest {
			t.oldest = m.Date
		}
		if i == 0 || m.Date > t.newest {
			t.newest = m.Date
		}
	}
	return t, native.StatusSuccess
}

func containsAny(tags, set []string) bool {
	for _, t := range tags {
		for _, s := range set {
			if t == s {
				return true
			}
		}
	}
	return false
}

func (t *thread) contains(id string) bool {
	for _, m := range t.messages {
		if m.ID == id {
			return true
		}
	}
	return false
}

// authors lists matched authors first, then the others after a '|'.
func (t *thread) authors() string {
	seen := map[string]bool{}
	var matched, other []string
	for _, m := range t.messages {
		if m.Author == "" || seen[m.Author] {
			continue
		}
		seen[m.Author] = true
		if t.matched[m.ID] {
			matched = append(matched, m.Author)
		} else {
			other = append(other, m.Author)
		}
	}

	authors := strings.Join(matched, ", ")
	if len(other) > 0 {
		if authors != "" {
			authors += "| "
		}
		authors += strings.Join(other, ", ")
	}
	return authors
}

func (t *thread) subject() string {
	if len(t.messages) == 0 {
		return ""
	}
	return t.messages[0].Subject
}

func (t *thread) messageList(p native.Ptr, ids []string) *messageList {
	return &messageList{db: t.db, ids: ids, matched: t.matched, excluded: t.excluded, thread: t, threadPtr: p}
}

func (e *Engine) threadList(op string, p native.Ptr) *threadList {
	o, ok := e.lookup(op, p, native.KindThreads)
	if !ok {
		return nil
	}
	return o.value.(*threadList)
}

func (e *Engine) thread(op string, p native.Ptr) *thread {
	o, ok := e.lookup(op, p, native.KindThread)
	if !ok {
		return nil
	}
	return o.value.(*thread)
}

func (e *Engine) ThreadsValid(p native.Ptr) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	l := e.threadList("threads_valid", p)
	return l != nil && l.pos < len(l.items)
}

func (e *Engine) ThreadsGet(p native.Ptr) native.Ptr {
	e.mu.Lock()
	defer e.mu.Unlock()

	l := e.threadList("threads_get", p)
	if l == nil || l.pos >= len(l.items) {
		return native.Nil
	}
	t := *l.items[l.pos]
	t.idBuf, t.authorsBuf, t.subjectBuf = nil, nil, nil
	t.held = map[string]native.Ptr{}
	return e.alloc(p, native.KindThread, &t)
}

func (e *Engine) ThreadsMoveToNext(p native.Ptr) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if l := e.threadList("threads_move_to_next", p); l != nil && l.pos < len(l.items) {
		l.pos++
	}
}

func (e *Engine) ThreadsDestroy(p native.Ptr) {
	e.destroyLocked("threads_destroy", p, native.KindThreads)
}

func (e *Engine) ThreadGetThreadID(p native.Ptr) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.thread("thread_get_thread_id", p)
	if t == nil {
		return nil
	}
	t.idBuf = append(t.idBuf[:0], t.id...)
	return t.idBuf
}

func (e *Engine) ThreadGetTotalMessages(p native.Ptr) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.thread("thread_get_total_messages", p)
	if t == nil {
		return 0
	}
	return len(t.messages)
}

func (e *Engine) ThreadGetTotalFiles(p native.Ptr) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.thread("thread_get_total_files", p)
	if t == nil || t.db.readable() != native.StatusSuccess {
		return 0
	}
	n := 0
	for _, m := range t.messages {
		files, err := t.db.store.Filenames(m.ID)
		if err != nil {
			t.db.storeError(err)
			return 0
		}
		n += len(files)
	}
	return n
}

func (e *Engine) ThreadGetMatchedMessages(p native.Ptr) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.thread("thread_get_matched_messages", p)
	if t == nil {
		return 0
	}
	n := 0
	for _, m := range t.messages {
		if t.matched[m.ID] && !t.excluded[m.ID] {
			n++
		}
	}
	return n
}

func (e *Engine) ThreadGetToplevelMessages(p native.Ptr) native.Ptr {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.thread("thread_get_toplevel_messages", p)
	if t == nil {
		return native.Nil
	}
	ids := []string{}
	for _, m := range t.messages {
		if m.Parent == "" || !t.contains(m.Parent) {
			ids = append(ids, m.ID)
		}
	}
	return e.alloc(p, native.KindMessages, t.messageList(p, ids))
}

func (e *Engine) ThreadGetMessages(p native.Ptr) native.Ptr {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.thread("thread_get_messages", p)
	if t == nil {
		return native.Nil
	}
	ids := make([]string, 0, len(t.messages))
	for _, m := range t.messages {
		ids = append(ids, m.ID)
	}
	return e.alloc(p, native.KindMessages, t.messageList(p, ids))
}

func (e *Engine) ThreadGetAuthors(p native.Ptr) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.thread("thread_get_authors", p)
	if t == nil {
		return nil
	}
	t.authorsBuf = append(t.authorsBuf[:0], t.authors()...)
	return t.authorsBuf
}

func (e *Engine) ThreadGetSubject(p native.Ptr) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.thread("thread_get_subject", p)
	if t == nil {
		return nil
	}
	t.subjectBuf = append(t.subjectBuf[:0], t.subject()...)
	return t.subjectBuf
}

func (e *Engine) ThreadGetOldestDate(p native.Ptr) int64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.thread("thread_get_oldest_date", p)
	if t == nil {
		return 0
	}
	return t.oldest
}

func (e *Engine) ThreadGetNewestDate(p native.Ptr) int64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.thread("thread_get_newest_date", p)
	if t == nil {
		return 0
	}
	return t.newest
}

func (e *Engine) ThreadGetTags(p native.Ptr) native.Ptr {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.thread("thread_get_tags", p)
	if t == nil || t.db.readable() != native.StatusSuccess {
		return native.Nil
	}
	set := map[string]bool{}
	tags := []string{}
	for _, m := range t.messages {
		mtags, err := t.db.store.Tags(m.ID)
		if err != nil {
			t.db.storeError(err)
			return native.Nil
		}
		for _, tag := range mtags {
			if !set[tag] {
				set[tag] = true
				tags = append(tags, tag)
			}
		}
	}
	sort.Strings(tags)
	return e.alloc(p, native.KindTags, newStrings(tags))
}

func (e *Engine) ThreadDestroy(p native.Ptr) {
	e.destroyLocked("thread_destroy", p, native.KindThread)
}
