// SPDX-License-Identifier: GPL-3.0-or-later
package engine

import (
	"github.com/CrawX/go-notmuch/native"
)

// stringList backs tags, filenames and config values. The bytes returned by
// get live in one buffer that is scribbled over on every advance, so callers
// holding on to them past the next move see garbage, as they would in C.
type stringList struct {
	items []string
	pos   int
	buf   []byte
}

func newStrings(items []string) *stringList {
	return &stringList{items: items}
}

func (s *stringList) valid() bool {
	return s.pos < len(s.items)
}

func (s *stringList) get() []byte {
	if !s.valid() {
		return nil
	}
	s.buf = append(s.buf[:0], s.items[s.pos]...)
	return s.buf
}

func (s *stringList) next() {
	scribble(s.buf)
	if s.valid() {
		s.pos++
	}
}

type pair struct {
	key, value string
}

// pairList backs properties, config lists and config pairs.
type pairList struct {
	items    []pair
	pos      int
	keyBuf   []byte
	valueBuf []byte
}

func (p *pairList) valid() bool {
	return p.pos < len(p.items)
}

func (p *pairList) key() []byte {
	if !p.valid() {
		return nil
	}
	p.keyBuf = append(p.keyBuf[:0], p.items[p.pos].key...)
	return p.keyBuf
}

func (p *pairList) value() []byte {
	if !p.valid() {
		return nil
	}
	p.valueBuf = append(p.valueBuf[:0], p.items[p.pos].value...)
	return p.valueBuf
}

func (p *pairList) next() {
	scribble(p.keyBuf)
	scribble(p.valueBuf)
	if p.valid() {
		p.pos++
	}
}

func scribble(b []byte) {
	for i := range b {
		b[i] = 0xff
	}
}

func (e *Engine) strings(op string, p native.Ptr, kind native.Kind) *stringList {
	o, ok := e.lookup(op, p, kind)
	if !ok {
		return nil
	}
	return o.value.(*stringList)
}

func (e *Engine) pairs(op string, p native.Ptr, kind native.Kind) *pairList {
	o, ok := e.lookup(op, p, kind)
	if !ok {
		return nil
	}
	return o.value.(*pairList)
}

func (e *Engine) stringsValid(op string, p native.Ptr, kind native.Kind) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.strings(op, p, kind)
	return s != nil && s.valid()
}

func (e *Engine) stringsGet(op string, p native.Ptr, kind native.Kind) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.strings(op, p, kind)
	if s == nil {
		return nil
	}
	return s.get()
}

func (e *Engine) stringsNext(op string, p native.Ptr, kind native.Kind) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if s := e.strings(op, p, kind); s != nil {
		s.next()
	}
}

func (e *Engine) pairsValid(op string, p native.Ptr, kind native.Kind) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	l := e.pairs(op, p, kind)
	return l != nil && l.valid()
}

func (e *Engine) pairsKey(op string, p native.Ptr, kind native.Kind) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()

	l := e.pairs(op, p, kind)
	if l == nil {
		return nil
	}
	return l.key()
}

func (e *Engine) pairsValue(op string, p native.Ptr, kind native.Kind) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()

	l := e.pairs(op, p, kind)
	if l == nil {
		return nil
	}
	return l.value()
}

func (e *Engine) pairsNext(op string, p native.Ptr, kind native.Kind) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if l := e.pairs(op, p, kind); l != nil {
		l.next()
	}
}

func (e *Engine) destroyLocked(op string, p native.Ptr, kind native.Kind) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.destroy(op, p, kind)
}

func (e *Engine) TagsValid(p native.Ptr) bool {
	return e.stringsValid("tags_valid", p, native.KindTags)
}

func (e *Engine) TagsGet(p native.Ptr) []byte {
	return e.stringsGet("tags_get", p, native.KindTags)
}

func (e *Engine) TagsMoveToNext(p native.Ptr) {
	e.stringsNext("tags_move_to_next", p, native.KindTags)
}

func (e *Engine) TagsDestroy(p native.Ptr) {
	e.destroyLocked("tags_destroy", p, native.KindTags)
}

func (e *Engine) FilenamesValid(p native.Ptr) bool {
	return e.stringsValid("filenames_valid", p, native.KindFilenames)
}

func (e *Engine) FilenamesGet(p native.Ptr) []byte {
	return e.stringsGet("filenames_get", p, native.KindFilenames)
}

func (e *Engine) FilenamesMoveToNext(p native.Ptr) {
	e.stringsNext("filenames_move_to_next", p, native.KindFilenames)
}

func (e *Engine) FilenamesDestroy(p native.Ptr) {
	e.destroyLocked("filenames_destroy", p, native.KindFilenames)
}

func (e *Engine) ConfigValuesValid(p native.Ptr) bool {
	return e.stringsValid("config_values_valid", p, native.KindConfigValues)
}

func (e *Engine) ConfigValuesGet(p native.Ptr) []byte {
	return e.stringsGet("config_values_get", p, native.KindConfigValues)
}

func (e *Engine) ConfigValuesMoveToNext(p native.Ptr) {
	e.stringsNext("config_values_move_to_next", p, native.KindConfigValues)
}

func (e *Engine) ConfigValuesStart(p native.Ptr) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if s := e.strings("config_values_start", p, native.KindConfigValues); s != nil {
		scribble(s.buf)
		s.pos = 0
	}
}

func (e *Engine) ConfigValuesDestroy(p native.Ptr) {
	e.destroyLocked("config_values_destroy", p, native.KindConfigValues)
}

func (e *Engine) MessagePropertiesValid(p native.Ptr) bool {
	return e.pairsValid("message_properties_valid", p, native.KindMessageProperties)
}

func (e *Engine) MessagePropertiesKey(p native.Ptr) []byte {
	return e.pairsKey("message_properties_key", p, native.KindMessageProperties)
}

func (e *Engine) MessagePropertiesValue(p native.Ptr) []byte {
	return e.pairsValue("message_properties_value", p, native.KindMessageProperties)
}

func (e *Engine) MessagePropertiesMoveToNext(p native.Ptr) {
	e.pairsNext("message_properties_move_to_next", p, native.KindMessageProperties)
}

func (e *Engine) MessagePropertiesDestroy(p native.Ptr) {
	e.destroyLocked("message_properties_destroy", p, native.KindMessageProperties)
}

func (e *Engine) ConfigListValid(p native.Ptr) bool {
	return e.pairsValid("config_list_valid", p, native.KindConfigList)
}

func (e *Engine) ConfigListKey(p native.Ptr) []byte {
	return e.pairsKey("config_list_key", p, native.KindConfigList)
}

func (e *Engine) ConfigListValue(p native.Ptr) []byte {
	return e.pairsValue("config_list_value", p, native.KindConfigList)
}

func (e *Engine) ConfigListMoveToNext(p native.Ptr) {
	e.pairsNext("config_list_move_to_next", p, native.KindConfigList)
}

func (e *Engine) ConfigListDestroy(p native.Ptr) {
	e.destroyLocked("config_list_destroy", p, native.KindConfigList)
}

func (e *Engine) ConfigPairsValid(p native.Ptr) bool {
	return e.pairsValid("config_pairs_valid", p, native.KindConfigPairs)
}

func (e *Engine) ConfigPairsKey(p native.Ptr) []byte {
	return e.pairsKey("config_pairs_key", p, native.KindConfigPairs)
}

func (e *Engine) ConfigPairsValue(p native.Ptr) []byte {
	return e.pairsValue("config_pairs_value", p, native.KindConfigPairs)
}

func (e *Engine) ConfigPairsMoveToNext(p native.Ptr) {
	e.pairsNext("config_pairs_move_to_next", p, native.KindConfigPairs)
}

func (e *Engine) ConfigPairsDestroy(p native.Ptr) {
	e.destroyLocked("config_pairs_destroy", p, native.KindConfigPairs)
}
