// SPDX-License-Identifier: GPL-3.0-or-later
package notmuch

import (
	"errors"

	"github.com/CrawX/go-notmuch/handle"
	"github.com/CrawX/go-notmuch/native"
)

var ErrExhausted = errors.New("cursor is exhausted")

// cursor walks a plural native object. The position only moves forward;
// items are copied out before the cursor advances.
type cursor[T any] struct {
	object

	valid   func(lib native.Library, p native.Ptr) bool
	current func(c *cursor[T]) (T, error)
	advance func(lib native.Library, p native.Ptr)

	exhausted bool
	err       error
}

// Valid reports whether there is a current item.
func (c *cursor[T]) Valid() bool {
	if c.exhausted {
		return false
	}
	if !c.valid(c.lib, c.ptr()) {
		c.exhausted = true
	}
	return !c.exhausted
}

// Current reads the current item without advancing.
func (c *cursor[T]) Current() (T, error) {
	var zero T
	if !c.Valid() {
		return zero, ErrExhausted
	}
	return c.current(c)
}

// Advance moves past the current item. It cannot be undone.
func (c *cursor[T]) Advance() {
	if c.Valid() {
		c.advance(c.lib, c.ptr())
	}
}

// Next returns the current item and advances. Once it returned false it
// keeps doing so; Err tells whether the end was reached or an item could not
// be read.
func (c *cursor[T]) Next() (T, bool) {
	var zero T
	if !c.Valid() {
		return zero, false
	}
	item, err := c.current(c)
	if err != nil {
		c.err = err
		c.exhausted = true
		return zero, false
	}
	c.advance(c.lib, c.ptr())
	return item, true
}

// Err returns the error that stopped Next, if any.
func (c *cursor[T]) Err() error {
	return c.err
}

// Collect returns all remaining items, exhausting the cursor.
func (c *cursor[T]) Collect() ([]T, error) {
	items := []T{}
	for {
		item, ok := c.Next()
		if !ok {
			return items, c.Err()
		}
		items = append(items, item)
	}
}

// item wraps ptr, the current item. Items of a moved cursor hold a shared
// reference to it; the cursor keeps its own.
func (c *cursor[T]) item(kind native.Kind, ptr native.Ptr) object {
	o := c.object
	if o.derive == handle.Owned {
		o.derive = handle.Shared
	}
	return o.child(kind, ptr)
}

func (c *cursor[T]) shareCursor() cursor[T] {
	return cursor[T]{
		object:    c.object.share(),
		valid:     c.valid,
		current:   c.current,
		advance:   c.advance,
		exhausted: c.exhausted,
	}
}

func (c *cursor[T]) moveCursor() cursor[T] {
	return cursor[T]{
		object:    c.object.move(),
		valid:     c.valid,
		current:   c.current,
		advance:   c.advance,
		exhausted: c.exhausted,
	}
}

// Pair is a key and value read from a config list or a property list.
type Pair struct {
	Key   string
	Value string
}

func stringCursor(o object, op string, valid func(native.Library, native.Ptr) bool, get func(native.Library, native.Ptr) []byte, advance func(native.Library, native.Ptr)) cursor[string] {
	return cursor[string]{
		object: o,
		valid:  valid,
		current: func(c *cursor[string]) (string, error) {
			return decode(op, get(c.lib, c.ptr()))
		},
		advance: advance,
	}
}

func pairCursor(o object, op string, valid func(native.Library, native.Ptr) bool, key, value func(native.Library, native.Ptr) []byte, advance func(native.Library, native.Ptr)) cursor[Pair] {
	return cursor[Pair]{
		object: o,
		valid:  valid,
		current: func(c *cursor[Pair]) (Pair, error) {
			k, err := decode(op, key(c.lib, c.ptr()))
			if err != nil {
				return Pair{}, err
			}
			v, err := decode(op, value(c.lib, c.ptr()))
			if err != nil {
				return Pair{}, err
			}
			return Pair{Key: k, Value: v}, nil
		},
		advance: advance,
	}
}

// Tags is a cursor over tag names.
type Tags struct {
	cursor[string]
}

func newTags(o object) *Tags {
	return &Tags{stringCursor(o, "tags_get", native.Library.TagsValid, native.Library.TagsGet, native.Library.TagsMoveToNext)}
}

func (t *Tags) Share() *Tags {
	return &Tags{t.shareCursor()}
}

// Filenames is a cursor over file or directory names.
type Filenames struct {
	cursor[string]
}

func newFilenames(o object) *Filenames {
	return &Filenames{stringCursor(o, "filenames_get", native.Library.FilenamesValid, native.Library.FilenamesGet, native.Library.FilenamesMoveToNext)}
}

func (f *Filenames) Share() *Filenames {
	return &Filenames{f.shareCursor()}
}

// MessageProperties is a cursor over the properties of a message.
type MessageProperties struct {
	cursor[Pair]
}

func newMessageProperties(o object) *MessageProperties {
	return &MessageProperties{pairCursor(o, "message_properties",
		native.Library.MessagePropertiesValid,
		native.Library.MessagePropertiesKey,
		native.Library.MessagePropertiesValue,
		native.Library.MessagePropertiesMoveToNext,
	)}
}

func (p *MessageProperties) Share() *MessageProperties {
	return &MessageProperties{p.shareCursor()}
}
