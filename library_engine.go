// SPDX-License-Identifier: GPL-3.0-or-later

//go:build !notmuch

package notmuch

import (
	"sync"

	"github.com/CrawX/go-notmuch/engine"
	"github.com/CrawX/go-notmuch/native"
)

var (
	defaultLibrary     native.Library
	defaultLibraryOnce sync.Once
)

// DefaultLibrary returns the library used when no WithLibrary option is
// given. Without the notmuch build tag it is the built-in engine.
func DefaultLibrary() native.Library {
	defaultLibraryOnce.Do(func() {
		defaultLibrary = engine.New()
	})
	return defaultLibrary
}
