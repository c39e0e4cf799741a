// SPDX-License-Identifier: GPL-3.0-or-later
package native

// Returned []byte values are owned by the library. They stay valid until the
// object they were read from is advanced or destroyed; nil stands for NULL.

type DatabaseAPI interface {
	DatabaseCreate(path, configPath string) (Ptr, Status)
	DatabaseOpen(path string, mode DatabaseMode, configPath, profile string) (Ptr, Status)
	DatabaseClose(db Ptr) Status
	DatabaseDestroy(db Ptr) Status
	DatabaseCompact(path, backupPath string) Status
	DatabaseStatusString(db Ptr) []byte

	DatabaseGetPath(db Ptr) []byte
	DatabaseGetVersion(db Ptr) uint
	DatabaseNeedsUpgrade(db Ptr) bool
	DatabaseUpgrade(db Ptr) Status
	DatabaseGetRevision(db Ptr) (uint64, []byte)

	DatabaseBeginAtomic(db Ptr) Status
	DatabaseEndAtomic(db Ptr) Status

	DatabaseGetDirectory(db Ptr, path string) (Ptr, Status)
	DatabaseIndexFile(db Ptr, filename string, opts Ptr) (Ptr, Status)
	DatabaseRemoveMessage(db Ptr, filename string) Status
	DatabaseFindMessage(db Ptr, messageID string) (Ptr, Status)
	DatabaseFindMessageByFilename(db Ptr, filename string) (Ptr, Status)
	DatabaseGetAllTags(db Ptr) Ptr
	DatabaseGetDefaultIndexOpts(db Ptr) Ptr

	DatabaseGetConfig(db Ptr, key string) ([]byte, Status)
	DatabaseSetConfig(db Ptr, key, value string) Status
	DatabaseGetConfigList(db Ptr, prefix string) (Ptr, Status)
	ConfigGet(db Ptr, key ConfigKey) []byte
	ConfigSet(db Ptr, key ConfigKey, value string) Status
	ConfigGetValues(db Ptr, key ConfigKey) Ptr
	ConfigGetValuesString(db Ptr, key string) Ptr
	ConfigGetPairs(db Ptr, prefix string) Ptr
	ConfigGetBool(db Ptr, key ConfigKey) (bool, Status)
	ConfigPath(db Ptr) []byte
}

type QueryAPI interface {
	QueryCreate(db Ptr, queryString string) Ptr
	QueryGetQueryString(q Ptr) []byte
	QuerySetOmitExcluded(q Ptr, omit Exclude)
	QuerySetSort(q Ptr, sort Sort)
	QueryGetSort(q Ptr) Sort
	QueryAddTagExclude(q Ptr, tag string) Status
	QuerySearchThreads(q Ptr) (Ptr, Status)
	QuerySearchMessages(q Ptr) (Ptr, Status)
	QueryCountThreads(q Ptr) (uint, Status)
	QueryCountMessages(q Ptr) (uint, Status)
	QueryDestroy(q Ptr)
}

type ThreadAPI interface {
	ThreadsValid(ts Ptr) bool
	ThreadsGet(ts Ptr) Ptr
	ThreadsMoveToNext(ts Ptr)
	ThreadsDestroy(ts Ptr)

	ThreadGetThreadID(t Ptr) []byte
	ThreadGetTotalMessages(t Ptr) int
	ThreadGetTotalFiles(t Ptr) int
	ThreadGetMatchedMessages(t Ptr) int
	ThreadGetToplevelMessages(t Ptr) Ptr
	ThreadGetMessages(t Ptr) Ptr
	ThreadGetAuthors(t Ptr) []byte
	ThreadGetSubject(t Ptr) []byte
	ThreadGetOldestDate(t Ptr) int64
	ThreadGetNewestDate(t Ptr) int64
	ThreadGetTags(t Ptr) Ptr
	ThreadDestroy(t Ptr)
}

type MessageAPI interface {
	MessagesValid(ms Ptr) bool
	MessagesGet(ms Ptr) Ptr
	MessagesMoveToNext(ms Ptr)
	MessagesCollectTags(ms Ptr) Ptr
	MessagesDestroy(ms Ptr)

	MessageGetMessageID(m Ptr) []byte
	MessageGetThreadID(m Ptr) []byte
	MessageGetReplies(m Ptr) Ptr
	MessageCountFiles(m Ptr) int
	MessageGetFilename(m Ptr) []byte
	MessageGetFilenames(m Ptr) Ptr
	MessageGetFlag(m Ptr, flag MessageFlag) (bool, Status)
	MessageSetFlag(m Ptr, flag MessageFlag, value bool)
	MessageGetDate(m Ptr) int64
	MessageGetHeader(m Ptr, header string) []byte
	MessageGetTags(m Ptr) Ptr
	MessageAddTag(m Ptr, tag string) Status
	MessageRemoveTag(m Ptr, tag string) Status
	MessageRemoveAllTags(m Ptr) Status
	MessageMaildirFlagsToTags(m Ptr) Status
	MessageHasMaildirFlag(m Ptr, flag byte) (bool, Status)
	MessageTagsToMaildirFlags(m Ptr) Status
	MessageFreeze(m Ptr) Status
	MessageThaw(m Ptr) Status
	MessageReindex(m Ptr, opts Ptr) Status
	MessageGetProperty(m Ptr, key string) ([]byte, Status)
	MessageAddProperty(m Ptr, key, value string) Status
	MessageRemoveProperty(m Ptr, key, value string) Status
	// An empty key removes every property of the message.
	MessageRemoveAllProperties(m Ptr, key string) Status
	MessageRemoveAllPropertiesWithPrefix(m Ptr, prefix string) Status
	MessageGetProperties(m Ptr, key string, exact bool) Ptr
	MessageCountProperties(m Ptr, key string) (uint, Status)
	MessageDestroy(m Ptr)
}

type TagsAPI interface {
	TagsValid(t Ptr) bool
	TagsGet(t Ptr) []byte
	TagsMoveToNext(t Ptr)
	TagsDestroy(t Ptr)
}

type DirectoryAPI interface {
	DirectorySetMtime(d Ptr, mtime int64) Status
	DirectoryGetMtime(d Ptr) int64
	DirectoryGetChildFiles(d Ptr) Ptr
	DirectoryGetChildDirectories(d Ptr) Ptr
	DirectoryDelete(d Ptr) Status
	DirectoryDestroy(d Ptr)

	FilenamesValid(f Ptr) bool
	FilenamesGet(f Ptr) []byte
	FilenamesMoveToNext(f Ptr)
	FilenamesDestroy(f Ptr)
}

type PropertiesAPI interface {
	MessagePropertiesValid(p Ptr) bool
	MessagePropertiesKey(p Ptr) []byte
	MessagePropertiesValue(p Ptr) []byte
	MessagePropertiesMoveToNext(p Ptr)
	MessagePropertiesDestroy(p Ptr)
}

type ConfigAPI interface {
	ConfigListValid(l Ptr) bool
	ConfigListKey(l Ptr) []byte
	ConfigListValue(l Ptr) []byte
	ConfigListMoveToNext(l Ptr)
	ConfigListDestroy(l Ptr)

	ConfigValuesValid(v Ptr) bool
	ConfigValuesGet(v Ptr) []byte
	ConfigValuesMoveToNext(v Ptr)
	ConfigValuesStart(v Ptr)
	ConfigValuesDestroy(v Ptr)

	ConfigPairsValid(p Ptr) bool
	ConfigPairsKey(p Ptr) []byte
	ConfigPairsValue(p Ptr) []byte
	ConfigPairsMoveToNext(p Ptr)
	ConfigPairsDestroy(p Ptr)
}

type IndexOptsAPI interface {
	IndexOptsGetDecryptPolicy(o Ptr) DecryptionPolicy
	IndexOptsSetDecryptPolicy(o Ptr, policy DecryptionPolicy) Status
	IndexOptsDestroy(o Ptr)
}

// Library is the complete function table of the mail index library.
type Library interface {
	DatabaseAPI
	QueryAPI
	ThreadAPI
	MessageAPI
	TagsAPI
	DirectoryAPI
	PropertiesAPI
	ConfigAPI
	IndexOptsAPI
}

// Destroy calls the destroy function matching kind.
func Destroy(lib Library, kind Kind, p Ptr) Status {
	switch kind {
	case KindDatabase:
		return lib.DatabaseDestroy(p)
	case KindDirectory:
		lib.DirectoryDestroy(p)
	case KindQuery:
		lib.QueryDestroy(p)
	case KindThreads:
		lib.ThreadsDestroy(p)
	case KindThread:
		lib.ThreadDestroy(p)
	case KindMessages:
		lib.MessagesDestroy(p)
	case KindMessage:
		lib.MessageDestroy(p)
	case KindTags:
		lib.TagsDestroy(p)
	case KindFilenames:
		lib.FilenamesDestroy(p)
	case KindMessageProperties:
		lib.MessagePropertiesDestroy(p)
	case KindConfigList:
		lib.ConfigListDestroy(p)
	case KindConfigValues:
		lib.ConfigValuesDestroy(p)
	case KindConfigPairs:
		lib.ConfigPairsDestroy(p)
	case KindIndexOpts:
		lib.IndexOptsDestroy(p)
	default:
		return StatusIllegalArgument
	}
	return StatusSuccess
}
