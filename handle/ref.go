// SPDX-License-Identifier: GPL-3.0-or-later
package handle

import (
	"github.com/CrawX/go-notmuch/native"

	"github.com/sirupsen/logrus"
)

type Mode int

const (
	Borrowed Mode = iota
	Shared
	Owned
)

func (m Mode) String() string {
	switch m {
	case Borrowed:
		return "borrowed"
	case Shared:
		return "shared"
	case Owned:
		return "owned"
	}
	return "unknown"
}

// Counted reports whether references of this mode keep their handle alive.
func (m Mode) Counted() bool {
	return m != Borrowed
}

type Ref struct {
	h        *Handle
	mode     Mode
	pinned   bool
	released bool
	moved    bool
}

func (r *Ref) Mode() Mode {
	return r.mode
}

func (r *Ref) Kind() native.Kind {
	return r.h.kind
}

// Alive reports whether the reference may still be used.
func (r *Ref) Alive() bool {
	r.h.t.mu.Lock()
	defer r.h.t.mu.Unlock()

	return r.usableLocked()
}

// Ptr returns the native pointer, panicking if the handle is gone.
func (r *Ref) Ptr() native.Ptr {
	r.h.t.mu.Lock()
	defer r.h.t.mu.Unlock()

	r.checkLocked("use")
	return r.h.ptr
}

// Refs returns the number of counted references to the handle.
func (r *Ref) Refs() int {
	r.h.t.mu.Lock()
	defer r.h.t.mu.Unlock()

	return r.h.refs
}

// Borrow returns an uncounted reference. It is valid only while the handle
// lives; handles derived through it die with this one.
func (r *Ref) Borrow() *Ref {
	r.h.t.mu.Lock()
	defer r.h.t.mu.Unlock()

	r.checkLocked("borrow")
	return &Ref{h: r.h, mode: Borrowed}
}

// Share returns a new counted reference. Until it is released, the handle's
// borrowed antecedents are kept alive as well.
func (r *Ref) Share() *Ref {
	r.h.t.mu.Lock()
	defer r.h.t.mu.Unlock()

	r.checkLocked("share")
	r.h.pinLocked()
	return &Ref{h: r.h, mode: Shared, pinned: true}
}

// Promote turns a borrowed reference into a shared one. The borrowed
// reference itself stays usable. Promoting a counted reference is Share.
func (r *Ref) Promote() *Ref {
	return r.Share()
}

// Move transfers a counted reference. r is unusable afterwards.
func (r *Ref) Move() *Ref {
	r.h.t.mu.Lock()
	defer r.h.t.mu.Unlock()

	r.checkLocked("move")
	if !r.mode.Counted() {
		panic(&UseError{Op: "move", Kind: r.h.kind, Reason: "borrowed reference cannot be moved"})
	}
	r.moved = true
	return &Ref{h: r.h, mode: Owned, pinned: r.pinned}
}

// Release gives up the reference. Releasing the last counted reference
// destroys the handle and its dependents. Release is idempotent and a no-op
// on references that were moved or whose handle already died.
func (r *Ref) Release() {
	r.h.t.mu.Lock()
	defer r.h.t.mu.Unlock()

	if r.released || r.moved {
		return
	}
	r.releaseLocked()
}

// Disown kills the handle after the library freed its object as a side
// effect of another call. Dependents die as if the handle was destroyed and
// every other reference to it becomes unusable.
func (r *Ref) Disown() {
	r.h.t.mu.Lock()
	defer r.h.t.mu.Unlock()

	r.checkLocked("disown")
	r.released = true
	r.h.kill(false, true)
}

func (r *Ref) releaseLocked() {
	r.released = true
	if !r.mode.Counted() || r.h.dead {
		return
	}
	if r.pinned {
		r.h.unpinLocked()
		return
	}

	r.h.refs--
	r.h.t.l.WithFields(logrus.Fields{"kind": r.h.kind, "ptr": r.h.ptr, "refs": r.h.refs}).Trace("Released")
	if r.h.refs == 0 {
		r.h.kill(false, false)
	}
}

func (r *Ref) usableLocked() bool {
	return !r.released && !r.moved && !r.h.dead
}

func (r *Ref) checkLocked(op string) {
	switch {
	case r.moved:
		panic(&UseError{Op: op, Kind: r.h.kind, Reason: "reference was moved"})
	case r.released:
		panic(&UseError{Op: op, Kind: r.h.kind, Reason: "reference was released"})
	case r.h.dead:
		panic(&UseError{Op: op, Kind: r.h.kind, Reason: "handle was destroyed"})
	}
}
