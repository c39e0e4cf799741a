// SPDX-License-Identifier: GPL-3.0-or-later
package notmuch

import (
	"github.com/CrawX/go-notmuch/native"
)

// Threads is a cursor over the threads a query matched.
type Threads struct {
	cursor[*Thread]
}

func newThreads(o object) *Threads {
	return &Threads{cursor[*Thread]{
		object: o,
		valid:  native.Library.ThreadsValid,
		current: func(c *cursor[*Thread]) (*Thread, error) {
			ptr := c.lib.ThreadsGet(c.ptr())
			if ptr == native.Nil {
				return nil, c.fail("threads_get", native.StatusNullPointer)
			}
			return &Thread{c.item(native.KindThread, ptr)}, nil
		},
		advance: native.Library.ThreadsMoveToNext,
	}}
}

// Share returns a wrapper whose threads keep the result set alive.
func (ts *Threads) Share() *Threads {
	return &Threads{ts.shareCursor()}
}

func (ts *Threads) Move() *Threads {
	return &Threads{ts.moveCursor()}
}

type Thread struct {
	object
}

func (t *Thread) Share() *Thread {
	return &Thread{t.share()}
}

func (t *Thread) Move() *Thread {
	return &Thread{t.move()}
}

func (t *Thread) ID() string {
	return lossy(t.lib.ThreadGetThreadID(t.ptr()))
}

func (t *Thread) TotalMessages() int {
	return t.lib.ThreadGetTotalMessages(t.ptr())
}

func (t *Thread) TotalFiles() int {
	return t.lib.ThreadGetTotalFiles(t.ptr())
}

// MatchedMessages counts the messages of the thread matching the query.
func (t *Thread) MatchedMessages() int {
	return t.lib.ThreadGetMatchedMessages(t.ptr())
}

// TopLevelMessages returns the messages without a parent in the thread.
func (t *Thread) TopLevelMessages() (*Messages, error) {
	o, err := t.derived("thread_get_toplevel_messages", native.KindMessages, t.lib.ThreadGetToplevelMessages(t.ptr()))
	if err != nil {
		return nil, err
	}
	return newMessages(o), nil
}

func (t *Thread) Messages() (*Messages, error) {
	o, err := t.derived("thread_get_messages", native.KindMessages, t.lib.ThreadGetMessages(t.ptr()))
	if err != nil {
		return nil, err
	}
	return newMessages(o), nil
}

// Authors lists matched authors first, separated by "|" from the others.
func (t *Thread) Authors() (string, error) {
	return decode("thread_get_authors", t.lib.ThreadGetAuthors(t.ptr()))
}

func (t *Thread) Subject() (string, error) {
	return decode("thread_get_subject", t.lib.ThreadGetSubject(t.ptr()))
}

func (t *Thread) OldestDate() int64 {
	return t.lib.ThreadGetOldestDate(t.ptr())
}

func (t *Thread) NewestDate() int64 {
	return t.lib.ThreadGetNewestDate(t.ptr())
}

func (t *Thread) Tags() (*Tags, error) {
	o, err := t.derived("thread_get_tags", native.KindTags, t.lib.ThreadGetTags(t.ptr()))
	if err != nil {
		return nil, err
	}
	return newTags(o), nil
}
