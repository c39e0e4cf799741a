// SPDX-License-Identifier: GPL-3.0-or-later
package notmuch

import (
	"github.com/CrawX/go-notmuch/handle"
	"github.com/CrawX/go-notmuch/native"
)

// Messages is a cursor over messages: search results, the messages of a
// thread or the replies to a message.
type Messages struct {
	cursor[*Message]
}

func newMessages(o object) *Messages {
	return &Messages{cursor[*Message]{
		object: o,
		valid:  native.Library.MessagesValid,
		current: func(c *cursor[*Message]) (*Message, error) {
			ptr := c.lib.MessagesGet(c.ptr())
			if ptr == native.Nil {
				return nil, c.fail("messages_get", native.StatusNullPointer)
			}
			return &Message{c.item(native.KindMessage, ptr)}, nil
		},
		advance: native.Library.MessagesMoveToNext,
	}}
}

// Share returns a wrapper whose messages keep the cursor alive.
func (ms *Messages) Share() *Messages {
	return &Messages{ms.shareCursor()}
}

func (ms *Messages) Move() *Messages {
	return &Messages{ms.moveCursor()}
}

// CollectTags returns the union of the tags of all remaining messages. It
// consumes the cursor: ms is unusable afterwards and the returned Tags keep
// the underlying messages alive until closed.
func (ms *Messages) CollectTags() (*Tags, error) {
	ptr := ms.lib.MessagesCollectTags(ms.ptr())
	if ptr == native.Nil {
		return nil, ms.fail("messages_collect_tags", native.StatusOutOfMemory)
	}
	ms.exhausted = true
	return newTags(object{
		lib:    ms.lib,
		ref:    handle.New(ms.ref.Move(), native.KindTags, ptr),
		derive: handle.Borrowed,
		db:     ms.db,
	}), nil
}

type Message struct {
	object
}

// Share returns a wrapper that keeps m and the cursors, thread and query it
// was taken from alive until it is closed.
func (m *Message) Share() *Message {
	return &Message{m.share()}
}

func (m *Message) Move() *Message {
	return &Message{m.move()}
}

func (m *Message) ID() string {
	return lossy(m.lib.MessageGetMessageID(m.ptr()))
}

func (m *Message) ThreadID() string {
	return lossy(m.lib.MessageGetThreadID(m.ptr()))
}

// Replies returns the direct replies to m. Only messages taken from a thread
// know their replies.
func (m *Message) Replies() (*Messages, error) {
	o, err := m.derived("message_get_replies", native.KindMessages, m.lib.MessageGetReplies(m.ptr()))
	if err != nil {
		return nil, err
	}
	return newMessages(o), nil
}

// CountFiles returns the number of files of the message, or -1 if they could
// not be read.
func (m *Message) CountFiles() int {
	return m.lib.MessageCountFiles(m.ptr())
}

// Filename returns one of the files of the message.
func (m *Message) Filename() (string, error) {
	b := m.lib.MessageGetFilename(m.ptr())
	if b == nil {
		return "", m.fail("message_get_filename", native.StatusFileError)
	}
	return decode("message_get_filename", b)
}

func (m *Message) Filenames() (*Filenames, error) {
	o, err := m.derived("message_get_filenames", native.KindFilenames, m.lib.MessageGetFilenames(m.ptr()))
	if err != nil {
		return nil, err
	}
	return newFilenames(o), nil
}

func (m *Message) Flag(flag MessageFlag) (bool, error) {
	v, st := m.lib.MessageGetFlag(m.ptr(), flag)
	return v, m.check("message_get_flag", st)
}

func (m *Message) SetFlag(flag MessageFlag, value bool) {
	m.lib.MessageSetFlag(m.ptr(), flag, value)
}

// Date is the Date header as a unix timestamp.
func (m *Message) Date() int64 {
	return m.lib.MessageGetDate(m.ptr())
}

// Header returns the decoded value of the named header, or "" if the
// message has no such header.
func (m *Message) Header(name string) (string, error) {
	b := m.lib.MessageGetHeader(m.ptr(), name)
	if b == nil {
		return "", m.fail("message_get_header", native.StatusFileError)
	}
	return decode("message_get_header", b)
}

func (m *Message) Tags() (*Tags, error) {
	o, err := m.derived("message_get_tags", native.KindTags, m.lib.MessageGetTags(m.ptr()))
	if err != nil {
		return nil, err
	}
	return newTags(o), nil
}

func (m *Message) AddTag(tag string) error {
	return m.check("message_add_tag", m.lib.MessageAddTag(m.ptr(), tag))
}

func (m *Message) RemoveTag(tag string) error {
	return m.check("message_remove_tag", m.lib.MessageRemoveTag(m.ptr(), tag))
}

func (m *Message) RemoveAllTags() error {
	return m.check("message_remove_all_tags", m.lib.MessageRemoveAllTags(m.ptr()))
}

// SetTags replaces the tags of the message. The change is made inside one
// frozen region, so the message is never seen without tags.
func (m *Message) SetTags(tags ...string) error {
	return m.WithFrozen(func() error {
		if err := m.RemoveAllTags(); err != nil {
			return err
		}
		for _, t := range tags {
			if err := m.AddTag(t); err != nil {
				return err
			}
		}
		return nil
	})
}

// MaildirFlagsToTags sets the tags matching the maildir flags of the
// message files.
func (m *Message) MaildirFlagsToTags() error {
	return m.check("message_maildir_flags_to_tags", m.lib.MessageMaildirFlagsToTags(m.ptr()))
}

func (m *Message) HasMaildirFlag(flag byte) (bool, error) {
	v, st := m.lib.MessageHasMaildirFlag(m.ptr(), flag)
	return v, m.check("message_has_maildir_flag", st)
}

// TagsToMaildirFlags renames the message files in maildirs so their flags
// match the tags.
func (m *Message) TagsToMaildirFlags() error {
	return m.check("message_tags_to_maildir_flags", m.lib.MessageTagsToMaildirFlags(m.ptr()))
}

// Reindex parses the message file again. opts may be nil.
func (m *Message) Reindex(opts *IndexOpts) error {
	optsPtr := native.Nil
	if opts != nil {
		optsPtr = opts.ptr()
	}
	return m.check("message_reindex", m.lib.MessageReindex(m.ptr(), optsPtr))
}

// Freeze defers tag changes until the matching Thaw. Calls nest.
func (m *Message) Freeze() error {
	return m.check("message_freeze", m.lib.MessageFreeze(m.ptr()))
}

func (m *Message) Thaw() error {
	return m.check("message_thaw", m.lib.MessageThaw(m.ptr()))
}

// FrozenMessage is a frozen region of a message.
type FrozenMessage struct {
	m    *Message
	done bool
}

// Frozen freezes m and returns the region, to be ended with Thaw.
func (m *Message) Frozen() (*FrozenMessage, error) {
	if err := m.Freeze(); err != nil {
		return nil, err
	}
	return &FrozenMessage{m: m}, nil
}

// Thaw ends the region. Only the first call thaws the message.
func (f *FrozenMessage) Thaw() error {
	if f.done {
		return nil
	}
	f.done = true
	return f.m.Thaw()
}

// WithFrozen runs fn inside a frozen region that is thawed however fn
// returns.
func (m *Message) WithFrozen(fn func() error) (err error) {
	f, err := m.Frozen()
	if err != nil {
		return err
	}
	defer func() {
		if thawErr := f.Thaw(); err == nil {
			err = thawErr
		}
	}()
	return fn()
}

// Property returns the first value stored for key. ok is false if there is
// none.
func (m *Message) Property(key string) (value string, ok bool, err error) {
	b, st := m.lib.MessageGetProperty(m.ptr(), key)
	if err := m.check("message_get_property", st); err != nil {
		return "", false, err
	}
	if b == nil {
		return "", false, nil
	}
	value, err = decode("message_get_property", b)
	return value, err == nil, err
}

// Properties iterates the properties named key, or starting with key unless
// exact is set.
func (m *Message) Properties(key string, exact bool) (*MessageProperties, error) {
	o, err := m.derived("message_get_properties", native.KindMessageProperties, m.lib.MessageGetProperties(m.ptr(), key, exact))
	if err != nil {
		return nil, err
	}
	return newMessageProperties(o), nil
}

func (m *Message) AddProperty(key, value string) error {
	return m.check("message_add_property", m.lib.MessageAddProperty(m.ptr(), key, value))
}

func (m *Message) RemoveProperty(key, value string) error {
	return m.check("message_remove_property", m.lib.MessageRemoveProperty(m.ptr(), key, value))
}

// RemoveAllProperties removes every value of key, or every property if key
// is empty.
func (m *Message) RemoveAllProperties(key string) error {
	return m.check("message_remove_all_properties", m.lib.MessageRemoveAllProperties(m.ptr(), key))
}

func (m *Message) RemoveAllPropertiesWithPrefix(prefix string) error {
	return m.check("message_remove_all_properties_with_prefix", m.lib.MessageRemoveAllPropertiesWithPrefix(m.ptr(), prefix))
}

func (m *Message) CountProperties(key string) (uint, error) {
	n, st := m.lib.MessageCountProperties(m.ptr(), key)
	return n, m.check("message_count_properties", st)
}
