// SPDX-License-Identifier: GPL-3.0-or-later

// Package engine is an in-process implementation of native.Library backed by
// sqlite. It keeps a table of every object it hands out together with the
// object it was derived from and frees objects the way the C library does:
// destroying an object also frees every descendant whose kind is
// native.FreedWithParent, while other descendants are left alive. Messages
// taken from a thread belong to the thread: every list of the thread and of
// its replies hands out the same object for a message.
//
// Misuse of pointers (use after free, double destroy, wrong kind) never
// crashes; it is recorded and reported by Violations.
package engine

import (
	"fmt"
	"sync"

	"github.com/CrawX/go-notmuch/log"
	"github.com/CrawX/go-notmuch/native"

	"github.com/sirupsen/logrus"
)

type Violation struct {
	Op     string
	Ptr    native.Ptr
	Kind   native.Kind
	Reason string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s(%s %#x): %s", v.Op, v.Kind, uintptr(v.Ptr), v.Reason)
}

type object struct {
	kind     native.Kind
	parent   native.Ptr
	children map[native.Ptr]struct{}
	value    interface{}
}

type Engine struct {
	mu sync.Mutex

	next       native.Ptr
	objects    map[native.Ptr]*object
	freed      map[native.Ptr]native.Kind
	destroys   map[native.Ptr]int
	violations []Violation

	l *logrus.Logger
}

var _ native.Library = (*Engine)(nil)

func New() *Engine {
	return &Engine{
		next:     0x1000,
		objects:  map[native.Ptr]*object{},
		freed:    map[native.Ptr]native.Kind{},
		destroys: map[native.Ptr]int{},
		l:        log.Logger(log.LOG_ENGINE),
	}
}

// Live returns the number of objects that were allocated and not yet freed.
func (e *Engine) Live() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.objects)
}

// LiveOf returns the number of live objects of one kind.
func (e *Engine) LiveOf(kind native.Kind) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0
	for _, o := range e.objects {
		if o.kind == kind {
			n++
		}
	}
	return n
}

// Destroys returns how often the destroy function was called for p.
func (e *Engine) Destroys(p native.Ptr) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.destroys[p]
}

// Violations returns every misuse recorded so far.
func (e *Engine) Violations() []Violation {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]Violation(nil), e.violations...)
}

func (e *Engine) violation(op string, p native.Ptr, kind native.Kind, reason string) {
	v := Violation{Op: op, Ptr: p, Kind: kind, Reason: reason}
	e.violations = append(e.violations, v)
	e.l.WithField("violation", v.String()).Error("Pointer misuse")
}

func (e *Engine) alloc(parent native.Ptr, kind native.Kind, value interface{}) native.Ptr {
	e.next += 0x10
	p := e.next
	e.objects[p] = &object{
		kind:     kind,
		parent:   parent,
		children: map[native.Ptr]struct{}{},
		value:    value,
	}
	if parent != native.Nil {
		e.objects[parent].children[p] = struct{}{}
	}
	e.l.WithFields(logrus.Fields{"kind": kind, "ptr": p, "parent": parent}).Trace("Allocated")
	return p
}

// lookup returns the live object p of the given kind.
func (e *Engine) lookup(op string, p native.Ptr, kind native.Kind) (*object, bool) {
	if p == native.Nil {
		e.violation(op, p, kind, "NULL pointer")
		return nil, false
	}
	o, ok := e.objects[p]
	if !ok {
		if k, wasFreed := e.freed[p]; wasFreed {
			e.violation(op, p, k, "use after free")
		} else {
			e.violation(op, p, kind, "unknown pointer")
		}
		return nil, false
	}
	if o.kind != kind {
		e.violation(op, p, o.kind, fmt.Sprintf("expected %s", kind))
		return nil, false
	}
	return o, true
}

func (e *Engine) destroy(op string, p native.Ptr, kind native.Kind) {
	if p == native.Nil {
		return
	}
	e.destroys[p]++
	if _, ok := e.objects[p]; !ok {
		if k, wasFreed := e.freed[p]; wasFreed {
			e.violation(op, p, k, "double destroy")
		} else {
			e.violation(op, p, kind, "unknown pointer")
		}
		return
	}
	if _, ok := e.lookup(op, p, kind); !ok {
		return
	}
	e.release(p)
}

// release detaches p from its parent and frees it.
func (e *Engine) release(p native.Ptr) {
	o := e.objects[p]
	if o.parent != native.Nil {
		delete(e.objects[o.parent].children, p)
	}
	e.free(p)
}

func (e *Engine) free(p native.Ptr) {
	o := e.objects[p]
	for c := range o.children {
		child := e.objects[c]
		if native.FreedWithParent(child.kind) {
			e.free(c)
		} else {
			child.parent = native.Nil
		}
	}

	if c, ok := o.value.(interface{ close() }); ok {
		c.close()
	}

	delete(e.objects, p)
	e.freed[p] = o.kind
	e.l.WithFields(logrus.Fields{"kind": o.kind, "ptr": p}).Trace("Freed")
}
