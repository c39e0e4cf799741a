// SPDX-License-Identifier: GPL-3.0-or-later
package handle

import (
	"fmt"

	"github.com/CrawX/go-notmuch/native"
)

// owners lists, per kind, the kinds a handle may be derived from.
var owners = map[native.Kind][]native.Kind{
	native.KindDirectory:         {native.KindDatabase},
	native.KindQuery:             {native.KindDatabase},
	native.KindIndexOpts:         {native.KindDatabase},
	native.KindConfigList:        {native.KindDatabase},
	native.KindConfigValues:      {native.KindDatabase},
	native.KindConfigPairs:       {native.KindDatabase},
	native.KindThreads:           {native.KindQuery},
	native.KindThread:            {native.KindThreads},
	native.KindMessages:          {native.KindQuery, native.KindThread, native.KindMessage},
	native.KindMessage:           {native.KindMessages, native.KindDatabase},
	native.KindTags:              {native.KindDatabase, native.KindThread, native.KindMessage, native.KindMessages},
	native.KindFilenames:         {native.KindMessage, native.KindDirectory},
	native.KindMessageProperties: {native.KindMessage},
}

type edge struct {
	parent, child native.Kind
}

// ownedEdges must be taken with an owned reference: deriving the child
// consumes the parent.
var ownedEdges = map[edge]bool{
	{native.KindMessages, native.KindTags}: true,
}

// heldByOwner reports whether a handle of kind derived from parent wraps an
// object the library keeps for the owner of the list: the messages of a
// thread and the replies to a message are freed with the thread and are never
// destroyed on their own.
func heldByOwner(parent *Handle, kind native.Kind) bool {
	if kind != native.KindMessage || parent.kind != native.KindMessages || parent.parent == nil {
		return false
	}
	switch parent.parent.h.kind {
	case native.KindThread, native.KindMessage:
		return true
	}
	return false
}

// AllowedOwners returns the kinds handles of kind k may be derived from.
func AllowedOwners(k native.Kind) []native.Kind {
	return owners[k]
}

func checkEdge(parent, child native.Kind, mode Mode) error {
	allowed := false
	for _, k := range owners[child] {
		if k == parent {
			allowed = true
			break
		}
	}
	if !allowed {
		return &UseError{Op: "derive", Kind: child, Reason: fmt.Sprintf("cannot be derived from %s", parent)}
	}

	if ownedEdges[edge{parent, child}] && mode != Owned {
		return &UseError{Op: "derive", Kind: child, Reason: fmt.Sprintf("deriving from %s requires an owned reference, got %s", parent, mode)}
	}

	return nil
}

// UseError reports misuse of a handle: use after destroy, use of a moved
// reference or a derivation the resource tree does not allow. It is raised as
// a panic.
type UseError struct {
	Op     string
	Kind   native.Kind
	Reason string
}

func (e *UseError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Kind, e.Reason)
}
