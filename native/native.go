// SPDX-License-Identifier: GPL-3.0-or-later

// Package native describes the C-style surface of the mail index library:
// opaque pointers, integer statuses and the functions operating on them.
// Implementations live in native/libnotmuch (cgo) and engine (pure Go).
package native

import "fmt"

// Ptr is an opaque native object pointer. Nil is the NULL pointer.
type Ptr uintptr

const Nil Ptr = 0

// Status codes returned by most library functions, in library order.
type Status int

const (
	StatusSuccess Status = iota
	StatusOutOfMemory
	StatusReadOnlyDatabase
	StatusXapianException
	StatusFileError
	StatusFileNotEmail
	StatusDuplicateMessageID
	StatusNullPointer
	StatusTagTooLong
	StatusUnbalancedFreezeThaw
	StatusUnbalancedAtomic
	StatusUnsupportedOperation
	StatusUpgradeRequired
	StatusPathError
	StatusIgnored
	StatusIllegalArgument
	StatusMalformedCryptoProtocol
	StatusFailedCryptoContextCreation
	StatusUnknownCryptoProtocol
	StatusNoConfig
	StatusNoDatabase
	StatusDatabaseExists
	StatusBadQuerySyntax
	StatusNoMailRoot
	StatusClosedDatabase

	StatusLastStatus
)

var statusStrings = [...]string{
	StatusSuccess:                     "No error occurred",
	StatusOutOfMemory:                 "Out of memory",
	StatusReadOnlyDatabase:            "Attempt to write to a read-only database",
	StatusXapianException:             "A Xapian exception occurred",
	StatusFileError:                   "Something went wrong trying to read or write a file",
	StatusFileNotEmail:                "File is not an email",
	StatusDuplicateMessageID:          "Message ID is identical to a message in database",
	StatusNullPointer:                 "Erroneous NULL pointer",
	StatusTagTooLong:                  "Tag value is too long (exceeds NOTMUCH_TAG_MAX)",
	StatusUnbalancedFreezeThaw:        "Unbalanced number of calls to notmuch_message_freeze/thaw",
	StatusUnbalancedAtomic:            "Unbalanced number of calls to notmuch_database_begin_atomic/end_atomic",
	StatusUnsupportedOperation:        "Unsupported operation",
	StatusUpgradeRequired:             "Operation requires a database upgrade",
	StatusPathError:                   "Path supplied is illegal for this function",
	StatusIgnored:                     "Argument was ignored",
	StatusIllegalArgument:             "Illegal argument for function",
	StatusMalformedCryptoProtocol:     "Crypto protocol missing, malformed, or in unexpected order",
	StatusFailedCryptoContextCreation: "Failed to create the crypto context",
	StatusUnknownCryptoProtocol:       "Unknown crypto protocol",
	StatusNoConfig:                    "No configuration file found",
	StatusNoDatabase:                  "No database found",
	StatusDatabaseExists:              "Database exists, not recreated",
	StatusBadQuerySyntax:              "Syntax error in query",
	StatusNoMailRoot:                  "No mail root found",
	StatusClosedDatabase:              "Operation on closed database",
}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusStrings) {
		return statusStrings[s]
	}
	return fmt.Sprintf("Unknown error status value (%d)", int(s))
}

// Kind names the type of object behind a Ptr.
type Kind int

const (
	KindDatabase Kind = iota
	KindDirectory
	KindQuery
	KindThreads
	KindThread
	KindMessages
	KindMessage
	KindTags
	KindFilenames
	KindMessageProperties
	KindConfigList
	KindConfigValues
	KindConfigPairs
	KindIndexOpts
)

var kindNames = [...]string{
	KindDatabase:          "database",
	KindDirectory:         "directory",
	KindQuery:             "query",
	KindThreads:           "threads",
	KindThread:            "thread",
	KindMessages:          "messages",
	KindMessage:           "message",
	KindTags:              "tags",
	KindFilenames:         "filenames",
	KindMessageProperties: "message_properties",
	KindConfigList:        "config_list",
	KindConfigValues:      "config_values",
	KindConfigPairs:       "config_pairs",
	KindIndexOpts:         "indexopts",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// FreedWithParent reports whether destroying a parent also frees objects of
// kind k derived from it. For the other kinds the destroy call is always made
// on the object itself, before its parent is destroyed.
func FreedWithParent(k Kind) bool {
	switch k {
	case KindDatabase, KindDirectory, KindIndexOpts:
		return false
	}
	return true
}

type DatabaseMode int

const (
	DatabaseModeReadOnly DatabaseMode = iota
	DatabaseModeReadWrite
)

type Sort int

const (
	SortOldestFirst Sort = iota
	SortNewestFirst
	SortMessageID
	SortUnsorted
)

type Exclude int

const (
	ExcludeFlag Exclude = iota
	ExcludeTrue
	ExcludeFalse
	ExcludeAll
)

type DecryptionPolicy int

const (
	DecryptFalse DecryptionPolicy = iota
	DecryptTrue
	DecryptAuto
	DecryptNoStash
)

type MessageFlag int

const (
	MessageFlagMatch MessageFlag = iota
	MessageFlagExcluded
	MessageFlagGhost
)

// ConfigKey enumerates the well known configuration keys.
type ConfigKey int

const (
	ConfigDatabasePath ConfigKey = iota
	ConfigMailRoot
	ConfigHookDir
	ConfigBackupDir
	ConfigExcludeTags
	ConfigNewTags
	ConfigNewIgnore
	ConfigSyncMaildirFlags
	ConfigPrimaryEmail
	ConfigOtherEmail
	ConfigUserName
	ConfigAutocommit
	ConfigExtraHeaders
	ConfigIndexAsText

	ConfigLast
)

var configKeyNames = [...]string{
	ConfigDatabasePath:     "database.path",
	ConfigMailRoot:         "database.mail_root",
	ConfigHookDir:          "database.hook_dir",
	ConfigBackupDir:        "database.backup_dir",
	ConfigExcludeTags:      "search.exclude_tags",
	ConfigNewTags:          "new.tags",
	ConfigNewIgnore:        "new.ignore",
	ConfigSyncMaildirFlags: "maildir.synchronize_flags",
	ConfigPrimaryEmail:     "user.primary_email",
	ConfigOtherEmail:       "user.other_email",
	ConfigUserName:         "user.name",
	ConfigAutocommit:       "database.autocommit",
	ConfigExtraHeaders:     "show.extra_headers",
	ConfigIndexAsText:      "index.as_text",
}

// Name returns the dotted configuration key, e.g. "new.tags".
func (k ConfigKey) Name() string {
	if k >= 0 && int(k) < len(configKeyNames) {
		return configKeyNames[k]
	}
	return ""
}

func (k ConfigKey) String() string {
	return k.Name()
}

// ConfigKeyByName is the inverse of ConfigKey.Name.
func ConfigKeyByName(name string) (ConfigKey, bool) {
	for i, n := range configKeyNames {
		if n == name {
			return ConfigKey(i), true
		}
	}
	return ConfigLast, false
}
