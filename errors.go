// SPDX-License-Identifier: GPL-3.0-or-later
package notmuch

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/CrawX/go-notmuch/native"
)

// Error is a failed library call. Errors match the sentinels below with
// errors.Is by status, whatever their operation and detail.
type Error struct {
	Op     string
	Status native.Status
	// Detail is the database's last status string, read right after the
	// failing call. It may be empty.
	Detail string
}

func (e *Error) Error() string {
	msg := e.Status.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Detail != "" {
		msg += ": " + strings.TrimSpace(e.Detail)
	}
	return msg
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Status == e.Status
}

var (
	ErrOutOfMemory                 = &Error{Status: native.StatusOutOfMemory}
	ErrReadOnlyDatabase            = &Error{Status: native.StatusReadOnlyDatabase}
	ErrXapianException             = &Error{Status: native.StatusXapianException}
	ErrFileError                   = &Error{Status: native.StatusFileError}
	ErrFileNotEmail                = &Error{Status: native.StatusFileNotEmail}
	ErrDuplicateMessageID          = &Error{Status: native.StatusDuplicateMessageID}
	ErrNullPointer                 = &Error{Status: native.StatusNullPointer}
	ErrTagTooLong                  = &Error{Status: native.StatusTagTooLong}
	ErrUnbalancedFreezeThaw        = &Error{Status: native.StatusUnbalancedFreezeThaw}
	ErrUnbalancedAtomic            = &Error{Status: native.StatusUnbalancedAtomic}
	ErrUnsupportedOperation        = &Error{Status: native.StatusUnsupportedOperation}
	ErrUpgradeRequired             = &Error{Status: native.StatusUpgradeRequired}
	ErrPathError                   = &Error{Status: native.StatusPathError}
	ErrIgnored                     = &Error{Status: native.StatusIgnored}
	ErrIllegalArgument             = &Error{Status: native.StatusIllegalArgument}
	ErrMalformedCryptoProtocol     = &Error{Status: native.StatusMalformedCryptoProtocol}
	ErrFailedCryptoContextCreation = &Error{Status: native.StatusFailedCryptoContextCreation}
	ErrUnknownCryptoProtocol       = &Error{Status: native.StatusUnknownCryptoProtocol}
	ErrNoConfig                    = &Error{Status: native.StatusNoConfig}
	ErrNoDatabase                  = &Error{Status: native.StatusNoDatabase}
	ErrDatabaseExists              = &Error{Status: native.StatusDatabaseExists}
	ErrBadQuerySyntax              = &Error{Status: native.StatusBadQuerySyntax}
	ErrNoMailRoot                  = &Error{Status: native.StatusNoMailRoot}
	ErrClosedDatabase              = &Error{Status: native.StatusClosedDatabase}
)

// DecodeError reports text returned by the library that is not valid UTF-8.
type DecodeError struct {
	Op   string
	Data []byte
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: invalid UTF-8 in %q", e.Op, e.Data)
}

// decode copies b into a string, failing on invalid UTF-8.
func decode(op string, b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", &DecodeError{Op: op, Data: append([]byte(nil), b...)}
	}
	return string(b), nil
}

// lossy copies b into a string, replacing invalid UTF-8. Used for values the
// library never fails to produce.
func lossy(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}
