// SPDX-License-Identifier: GPL-3.0-or-later

//go:build notmuch

package notmuch

import (
	"github.com/CrawX/go-notmuch/native"
	"github.com/CrawX/go-notmuch/native/libnotmuch"
)

// DefaultLibrary returns the library used when no WithLibrary option is
// given. With the notmuch build tag it is the system libnotmuch.
func DefaultLibrary() native.Library {
	return libnotmuch.New()
}
