// SPDX-License-Identifier: GPL-3.0-or-later

// Package handle tracks native objects and the references that keep them
// alive. Every Handle wraps one native pointer; every derived Handle holds a
// Ref to the Handle it was derived from. A Ref is either borrowed (the
// dependent dies together with its antecedent), shared (the antecedent is kept
// alive until the Ref is released) or owned (a counted reference that was
// moved, invalidating its previous holder).
//
// Handles are destroyed exactly once: when the last counted Ref is released,
// or when an antecedent reached through a borrowed Ref dies. Children always
// die before their parent, and the native destroy call is skipped for
// children the library already frees together with their parent. A parent
// hands out one Handle per native pointer; deriving the same pointer again
// returns another counted Ref to it.
//
// A shared Ref pins its handle: while a handle is pinned, its borrowed edge
// to the parent counts as well, up to the first antecedent that is held
// through a counted edge. A shared value therefore keeps the cursor, query
// and database it was taken from alive until it is released.
//
// All bookkeeping of one tree of handles is serialised by a single mutex.
// Using a Ref after its Handle died panics with a *UseError.
//
//go:generate mockgen -destination=mocks/destroyer.go -package=mocks . Destroyer
package handle

import (
	"fmt"
	"sync"

	"github.com/CrawX/go-notmuch/log"
	"github.com/CrawX/go-notmuch/native"

	"github.com/sirupsen/logrus"
)

// Destroyer releases native objects.
type Destroyer interface {
	Destroy(kind native.Kind, ptr native.Ptr)
}

type DestroyFunc func(kind native.Kind, ptr native.Ptr)

func (f DestroyFunc) Destroy(kind native.Kind, ptr native.Ptr) {
	f(kind, ptr)
}

type tree struct {
	mu        sync.Mutex
	destroyer Destroyer
	l         *logrus.Logger
}

type Handle struct {
	t    *tree
	kind native.Kind
	ptr  native.Ptr

	refs int
	// pins counts the shared references and the pinned edges of children
	pins         int
	parentPinned bool
	// held objects belong to the owner of the list they were taken from
	// and are freed with it
	held bool
	dead bool

	parent   *Ref
	children map[native.Ptr]*Handle
}

// NewRoot wraps a root object (a database). The returned Ref is the only
// counted reference.
func NewRoot(kind native.Kind, ptr native.Ptr, destroyer Destroyer) *Ref {
	if ptr == native.Nil {
		panic(&UseError{Op: "new", Kind: kind, Reason: "nil pointer"})
	}
	if _, ok := owners[kind]; ok {
		panic(&UseError{Op: "new", Kind: kind, Reason: "kind cannot be a root"})
	}

	h := &Handle{
		t: &tree{
			destroyer: destroyer,
			l:         log.Logger(log.LOG_HANDLE),
		},
		kind:     kind,
		ptr:      ptr,
		refs:     1,
		children: map[native.Ptr]*Handle{},
	}
	h.t.l.WithFields(logrus.Fields{"kind": kind, "ptr": ptr}).Trace("Root created")
	return &Ref{h: h, mode: Owned}
}

// New wraps ptr as a child of the handle parent refers to, taking over parent:
// the new handle releases it when it dies. The edge kind is checked against
// the resource tree rules. If the parent already has a live handle for ptr,
// parent is released and a new counted reference to that handle is returned.
func New(parent *Ref, kind native.Kind, ptr native.Ptr) *Ref {
	if ptr == native.Nil {
		panic(&UseError{Op: "new", Kind: kind, Reason: "nil pointer"})
	}

	t := parent.h.t
	t.mu.Lock()
	defer t.mu.Unlock()

	parent.checkLocked("derive")
	if err := checkEdge(parent.h.kind, kind, parent.mode); err != nil {
		panic(err)
	}

	if h, ok := parent.h.children[ptr]; ok {
		if h.kind != kind {
			panic(&UseError{Op: "derive", Kind: kind, Reason: fmt.Sprintf("pointer is a live %s", h.kind)})
		}
		// a counted parent reference keeps the parent alive through the
		// returned one
		ref := &Ref{h: h, mode: Owned, pinned: parent.mode.Counted()}
		if ref.pinned {
			h.pinLocked()
		} else {
			h.refs++
		}
		parent.releaseLocked()
		t.l.WithFields(logrus.Fields{"kind": kind, "ptr": ptr, "refs": h.refs}).Trace("Handle reused")
		return ref
	}

	h := &Handle{
		t:        t,
		kind:     kind,
		ptr:      ptr,
		refs:     1,
		held:     heldByOwner(parent.h, kind),
		parent:   parent,
		children: map[native.Ptr]*Handle{},
	}
	parent.h.children[ptr] = h

	t.l.WithFields(logrus.Fields{"kind": kind, "ptr": ptr, "parent": parent.h.kind, "mode": parent.mode}).Trace("Handle created")
	return &Ref{h: h, mode: Owned}
}

// kill destroys h and everything derived from it. cascade is set when h dies
// because its parent is dying, freed when the library already released the
// object itself.
func (h *Handle) kill(cascade, freed bool) {
	if h.dead {
		return
	}
	h.dead = true

	for _, c := range h.children {
		c.kill(true, false)
	}
	h.children = nil

	l := h.t.l.WithFields(logrus.Fields{"kind": h.kind, "ptr": h.ptr})
	switch {
	case freed:
		l.Trace("Freed by library")
	case cascade && native.FreedWithParent(h.kind):
		l.Trace("Freed with parent")
	case h.held:
		l.Trace("Freed with owner")
	default:
		h.t.destroyer.Destroy(h.kind, h.ptr)
		l.Trace("Destroyed")
	}

	if h.parent != nil {
		p := h.parent
		if !p.h.dead {
			delete(p.h.children, h.ptr)
		}
		h.unpinParentLocked()
		h.parent = nil
		if !p.h.dead {
			p.releaseLocked()
		}
	}
}

// pinLocked adds a counted reference that also pins the borrowed edge to the
// parent.
func (h *Handle) pinLocked() {
	h.refs++
	h.pins++
	if h.parentPinned || h.parent == nil || h.parent.mode.Counted() || h.parent.h.dead {
		return
	}
	h.parentPinned = true
	h.parent.h.pinLocked()
}

// unpinLocked drops a reference added by pinLocked.
func (h *Handle) unpinLocked() {
	if h.dead {
		return
	}
	h.pins--
	h.refs--
	h.t.l.WithFields(logrus.Fields{"kind": h.kind, "ptr": h.ptr, "refs": h.refs, "pins": h.pins}).Trace("Unpinned")
	if h.refs == 0 {
		h.kill(false, false)
		return
	}
	if h.pins == 0 {
		h.unpinParentLocked()
	}
}

func (h *Handle) unpinParentLocked() {
	if !h.parentPinned {
		return
	}
	h.parentPinned = false
	h.parent.h.unpinLocked()
}

func (h *Handle) Kind() native.Kind {
	return h.kind
}
