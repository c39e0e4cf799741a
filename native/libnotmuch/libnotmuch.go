// SPDX-License-Identifier: GPL-3.0-or-later

//go:build notmuch

// Package libnotmuch binds native.Library to the system libnotmuch.
package libnotmuch

/*
#cgo LDFLAGS: -lnotmuch

#include <stdlib.h>
#include <string.h>
#include <time.h>
#include <notmuch.h>
*/
import "C"

import (
	"unsafe"

	"github.com/CrawX/go-notmuch/log"
	"github.com/CrawX/go-notmuch/native"
)

// Library calls straight into libnotmuch. It is stateless.
type Library struct{}

var _ native.Library = Library{}

func New() Library {
	return Library{}
}

func cstr(s string) *C.char {
	return C.CString(s)
}

func free(s *C.char) {
	C.free(unsafe.Pointer(s))
}

// optional turns "" into NULL.
func optional(s string) *C.char {
	if s == "" {
		return nil
	}
	return C.CString(s)
}

func bytesOf(s *C.char) []byte {
	if s == nil {
		return nil
	}
	return C.GoBytes(unsafe.Pointer(s), C.int(C.strlen(s)))
}

func boolOf(b C.notmuch_bool_t) bool {
	return b != 0
}

func cbool(b bool) C.notmuch_bool_t {
	if b {
		return 1
	}
	return 0
}

func status(st C.notmuch_status_t) native.Status {
	return native.Status(st)
}

func logOpenError(op string, msg *C.char) {
	if msg == nil {
		return
	}
	log.Logger(log.LOG_ENGINE).WithField("op", op).Warn(C.GoString(msg))
	free(msg)
}

func db(p native.Ptr) *C.notmuch_database_t         { return (*C.notmuch_database_t)(unsafe.Pointer(p)) }
func dir(p native.Ptr) *C.notmuch_directory_t       { return (*C.notmuch_directory_t)(unsafe.Pointer(p)) }
func query(p native.Ptr) *C.notmuch_query_t         { return (*C.notmuch_query_t)(unsafe.Pointer(p)) }
func threads(p native.Ptr) *C.notmuch_threads_t     { return (*C.notmuch_threads_t)(unsafe.Pointer(p)) }
func thread(p native.Ptr) *C.notmuch_thread_t       { return (*C.notmuch_thread_t)(unsafe.Pointer(p)) }
func messages(p native.Ptr) *C.notmuch_messages_t   { return (*C.notmuch_messages_t)(unsafe.Pointer(p)) }
func message(p native.Ptr) *C.notmuch_message_t     { return (*C.notmuch_message_t)(unsafe.Pointer(p)) }
func tags(p native.Ptr) *C.notmuch_tags_t           { return (*C.notmuch_tags_t)(unsafe.Pointer(p)) }
func filenames(p native.Ptr) *C.notmuch_filenames_t { return (*C.notmuch_filenames_t)(unsafe.Pointer(p)) }
func props(p native.Ptr) *C.notmuch_message_properties_t {
	return (*C.notmuch_message_properties_t)(unsafe.Pointer(p))
}
func configList(p native.Ptr) *C.notmuch_config_list_t {
	return (*C.notmuch_config_list_t)(unsafe.Pointer(p))
}
func configValues(p native.Ptr) *C.notmuch_config_values_t {
	return (*C.notmuch_config_values_t)(unsafe.Pointer(p))
}
func configPairs(p native.Ptr) *C.notmuch_config_pairs_t {
	return (*C.notmuch_config_pairs_t)(unsafe.Pointer(p))
}
func indexopts(p native.Ptr) *C.notmuch_indexopts_t {
	return (*C.notmuch_indexopts_t)(unsafe.Pointer(p))
}

func ptr[T any](p *T) native.Ptr {
	return native.Ptr(unsafe.Pointer(p))
}

// database

func (Library) DatabaseCreate(path, configPath string) (native.Ptr, native.Status) {
	cPath, cConfig := cstr(path), optional(configPath)
	defer free(cPath)
	defer free(cConfig)

	var out *C.notmuch_database_t
	var msg *C.char
	st := C.notmuch_database_create_with_config(cPath, cConfig, nil, &out, &msg)
	logOpenError("create", msg)
	return ptr(out), status(st)
}

func (Library) DatabaseOpen(path string, mode native.DatabaseMode, configPath, profile string) (native.Ptr, native.Status) {
	cPath, cConfig, cProfile := optional(path), optional(configPath), optional(profile)
	defer free(cPath)
	defer free(cConfig)
	defer free(cProfile)

	var out *C.notmuch_database_t
	var msg *C.char
	st := C.notmuch_database_open_with_config(cPath, C.notmuch_database_mode_t(mode), cConfig, cProfile, &out, &msg)
	logOpenError("open", msg)
	return ptr(out), status(st)
}

func (Library) DatabaseClose(p native.Ptr) native.Status {
	return status(C.notmuch_database_close(db(p)))
}

func (Library) DatabaseDestroy(p native.Ptr) native.Status {
	return status(C.notmuch_database_destroy(db(p)))
}

func (Library) DatabaseCompact(path, backupPath string) native.Status {
	cPath, cBackup := cstr(path), optional(backupPath)
	defer free(cPath)
	defer free(cBackup)
	return status(C.notmuch_database_compact(cPath, cBackup, nil, nil))
}

func (Library) DatabaseStatusString(p native.Ptr) []byte {
	return bytesOf(C.notmuch_database_status_string(db(p)))
}

func (Library) DatabaseGetPath(p native.Ptr) []byte {
	return bytesOf(C.notmuch_database_get_path(db(p)))
}

func (Library) DatabaseGetVersion(p native.Ptr) uint {
	return uint(C.notmuch_database_get_version(db(p)))
}

func (Library) DatabaseNeedsUpgrade(p native.Ptr) bool {
	return boolOf(C.notmuch_database_needs_upgrade(db(p)))
}

func (Library) DatabaseUpgrade(p native.Ptr) native.Status {
	return status(C.notmuch_database_upgrade(db(p), nil, nil))
}

func (Library) DatabaseGetRevision(p native.Ptr) (uint64, []byte) {
	var uuid *C.char
	rev := C.notmuch_database_get_revision(db(p), &uuid)
	return uint64(rev), bytesOf(uuid)
}

func (Library) DatabaseBeginAtomic(p native.Ptr) native.Status {
	return status(C.notmuch_database_begin_atomic(db(p)))
}

func (Library) DatabaseEndAtomic(p native.Ptr) native.Status {
	return status(C.notmuch_database_end_atomic(db(p)))
}

func (Library) DatabaseGetDirectory(p native.Ptr, path string) (native.Ptr, native.Status) {
	cPath := cstr(path)
	defer free(cPath)
	var out *C.notmuch_directory_t
	st := C.notmuch_database_get_directory(db(p), cPath, &out)
	return ptr(out), status(st)
}

func (Library) DatabaseIndexFile(p native.Ptr, filename string, opts native.Ptr) (native.Ptr, native.Status) {
	cName := cstr(filename)
	defer free(cName)
	var out *C.notmuch_message_t
	st := C.notmuch_database_index_file(db(p), cName, indexopts(opts), &out)
	return ptr(out), status(st)
}

func (Library) DatabaseRemoveMessage(p native.Ptr, filename string) native.Status {
	cName := cstr(filename)
	defer free(cName)
	return status(C.notmuch_database_remove_message(db(p), cName))
}

func (Library) DatabaseFindMessage(p native.Ptr, messageID string) (native.Ptr, native.Status) {
	cID := cstr(messageID)
	defer free(cID)
	var out *C.notmuch_message_t
	st := C.notmuch_database_find_message(db(p), cID, &out)
	return ptr(out), status(st)
}

func (Library) DatabaseFindMessageByFilename(p native.Ptr, filename string) (native.Ptr, native.Status) {
	cName := cstr(filename)
	defer free(cName)
	var out *C.notmuch_message_t
	st := C.notmuch_database_find_message_by_filename(db(p), cName, &out)
	return ptr(out), status(st)
}

func (Library) DatabaseGetAllTags(p native.Ptr) native.Ptr {
	return ptr(C.notmuch_database_get_all_tags(db(p)))
}

func (Library) DatabaseGetDefaultIndexOpts(p native.Ptr) native.Ptr {
	return ptr(C.notmuch_database_get_default_indexopts(db(p)))
}

func (Library) DatabaseGetConfig(p native.Ptr, key string) ([]byte, native.Status) {
	cKey := cstr(key)
	defer free(cKey)
	var value *C.char
	st := C.notmuch_database_get_config(db(p), cKey, &value)
	if value == nil {
		return nil, status(st)
	}
	defer free(value)
	return bytesOf(value), status(st)
}

func (Library) DatabaseSetConfig(p native.Ptr, key, value string) native.Status {
	cKey, cValue := cstr(key), cstr(value)
	defer free(cKey)
	defer free(cValue)
	return status(C.notmuch_database_set_config(db(p), cKey, cValue))
}

func (Library) DatabaseGetConfigList(p native.Ptr, prefix string) (native.Ptr, native.Status) {
	cPrefix := cstr(prefix)
	defer free(cPrefix)
	var out *C.notmuch_config_list_t
	st := C.notmuch_database_get_config_list(db(p), cPrefix, &out)
	return ptr(out), status(st)
}

func (Library) ConfigGet(p native.Ptr, key native.ConfigKey) []byte {
	return bytesOf(C.notmuch_config_get(db(p), C.notmuch_config_key_t(key)))
}

func (Library) ConfigSet(p native.Ptr, key native.ConfigKey, value string) native.Status {
	cValue := cstr(value)
	defer free(cValue)
	return status(C.notmuch_config_set(db(p), C.notmuch_config_key_t(key), cValue))
}

func (Library) ConfigGetValues(p native.Ptr, key native.ConfigKey) native.Ptr {
	return ptr(C.notmuch_config_get_values(db(p), C.notmuch_config_key_t(key)))
}

func (Library) ConfigGetValuesString(p native.Ptr, key string) native.Ptr {
	cKey := cstr(key)
	defer free(cKey)
	return ptr(C.notmuch_config_get_values_string(db(p), cKey))
}

func (Library) ConfigGetPairs(p native.Ptr, prefix string) native.Ptr {
	cPrefix := cstr(prefix)
	defer free(cPrefix)
	return ptr(C.notmuch_config_get_pairs(db(p), cPrefix))
}

func (Library) ConfigGetBool(p native.Ptr, key native.ConfigKey) (bool, native.Status) {
	var value C.notmuch_bool_t
	st := C.notmuch_config_get_bool(db(p), C.notmuch_config_key_t(key), &value)
	return boolOf(value), status(st)
}

func (Library) ConfigPath(p native.Ptr) []byte {
	return bytesOf(C.notmuch_config_path(db(p)))
}

// query

func (Library) QueryCreate(p native.Ptr, queryString string) native.Ptr {
	cQuery := cstr(queryString)
	defer free(cQuery)
	return ptr(C.notmuch_query_create(db(p), cQuery))
}

func (Library) QueryGetQueryString(q native.Ptr) []byte {
	return bytesOf(C.notmuch_query_get_query_string(query(q)))
}

func (Library) QuerySetOmitExcluded(q native.Ptr, omit native.Exclude) {
	C.notmuch_query_set_omit_excluded(query(q), C.notmuch_exclude_t(omit))
}

func (Library) QuerySetSort(q native.Ptr, sort native.Sort) {
	C.notmuch_query_set_sort(query(q), C.notmuch_sort_t(sort))
}

func (Library) QueryGetSort(q native.Ptr) native.Sort {
	return native.Sort(C.notmuch_query_get_sort(query(q)))
}

func (Library) QueryAddTagExclude(q native.Ptr, tag string) native.Status {
	cTag := cstr(tag)
	defer free(cTag)
	return status(C.notmuch_query_add_tag_exclude(query(q), cTag))
}

func (Library) QuerySearchThreads(q native.Ptr) (native.Ptr, native.Status) {
	var out *C.notmuch_threads_t
	st := C.notmuch_query_search_threads(query(q), &out)
	return ptr(out), status(st)
}

func (Library) QuerySearchMessages(q native.Ptr) (native.Ptr, native.Status) {
	var out *C.notmuch_messages_t
	st := C.notmuch_query_search_messages(query(q), &out)
	return ptr(out), status(st)
}

func (Library) QueryCountThreads(q native.Ptr) (uint, native.Status) {
	var count C.uint
	st := C.notmuch_query_count_threads(query(q), &count)
	return uint(count), status(st)
}

func (Library) QueryCountMessages(q native.Ptr) (uint, native.Status) {
	var count C.uint
	st := C.notmuch_query_count_messages(query(q), &count)
	return uint(count), status(st)
}

func (Library) QueryDestroy(q native.Ptr) {
	C.notmuch_query_destroy(query(q))
}

// threads

func (Library) ThreadsValid(p native.Ptr) bool   { return boolOf(C.notmuch_threads_valid(threads(p))) }
func (Library) ThreadsGet(p native.Ptr) native.Ptr { return ptr(C.notmuch_threads_get(threads(p))) }
func (Library) ThreadsMoveToNext(p native.Ptr)    { C.notmuch_threads_move_to_next(threads(p)) }
func (Library) ThreadsDestroy(p native.Ptr)       { C.notmuch_threads_destroy(threads(p)) }

func (Library) ThreadGetThreadID(p native.Ptr) []byte {
	return bytesOf(C.notmuch_thread_get_thread_id(thread(p)))
}

func (Library) ThreadGetTotalMessages(p native.Ptr) int {
	return int(C.notmuch_thread_get_total_messages(thread(p)))
}

func (Library) ThreadGetTotalFiles(p native.Ptr) int {
	return int(C.notmuch_thread_get_total_files(thread(p)))
}

func (Library) ThreadGetMatchedMessages(p native.Ptr) int {
	return int(C.notmuch_thread_get_matched_messages(thread(p)))
}

func (Library) ThreadGetToplevelMessages(p native.Ptr) native.Ptr {
	return ptr(C.notmuch_thread_get_toplevel_messages(thread(p)))
}

func (Library) ThreadGetMessages(p native.Ptr) native.Ptr {
	return ptr(C.notmuch_thread_get_messages(thread(p)))
}

func (Library) ThreadGetAuthors(p native.Ptr) []byte {
	return bytesOf(C.notmuch_thread_get_authors(thread(p)))
}

func (Library) ThreadGetSubject(p native.Ptr) []byte {
	return bytesOf(C.notmuch_thread_get_subject(thread(p)))
}

func (Library) ThreadGetOldestDate(p native.Ptr) int64 {
	return int64(C.notmuch_thread_get_oldest_date(thread(p)))
}

func (Library) ThreadGetNewestDate(p native.Ptr) int64 {
	return int64(C.notmuch_thread_get_newest_date(thread(p)))
}

func (Library) ThreadGetTags(p native.Ptr) native.Ptr {
	return ptr(C.notmuch_thread_get_tags(thread(p)))
}

func (Library) ThreadDestroy(p native.Ptr) {
	C.notmuch_thread_destroy(thread(p))
}

// messages

func (Library) MessagesValid(p native.Ptr) bool     { return boolOf(C.notmuch_messages_valid(messages(p))) }
func (Library) MessagesGet(p native.Ptr) native.Ptr { return ptr(C.notmuch_messages_get(messages(p))) }
func (Library) MessagesMoveToNext(p native.Ptr)     { C.notmuch_messages_move_to_next(messages(p)) }
func (Library) MessagesDestroy(p native.Ptr)        { C.notmuch_messages_destroy(messages(p)) }

func (Library) MessagesCollectTags(p native.Ptr) native.Ptr {
	return ptr(C.notmuch_messages_collect_tags(messages(p)))
}

func (Library) MessageGetMessageID(p native.Ptr) []byte {
	return bytesOf(C.notmuch_message_get_message_id(message(p)))
}

func (Library) MessageGetThreadID(p native.Ptr) []byte {
	return bytesOf(C.notmuch_message_get_thread_id(message(p)))
}

func (Library) MessageGetReplies(p native.Ptr) native.Ptr {
	return ptr(C.notmuch_message_get_replies(message(p)))
}

func (Library) MessageCountFiles(p native.Ptr) int {
	return int(C.notmuch_message_count_files(message(p)))
}

func (Library) MessageGetFilename(p native.Ptr) []byte {
	return bytesOf(C.notmuch_message_get_filename(message(p)))
}

func (Library) MessageGetFilenames(p native.Ptr) native.Ptr {
	return ptr(C.notmuch_message_get_filenames(message(p)))
}

func (Library) MessageGetFlag(p native.Ptr, flag native.MessageFlag) (bool, native.Status) {
	var value C.notmuch_bool_t
	st := C.notmuch_message_get_flag_st(message(p), C.notmuch_message_flag_t(flag), &value)
	return boolOf(value), status(st)
}

func (Library) MessageSetFlag(p native.Ptr, flag native.MessageFlag, value bool) {
	C.notmuch_message_set_flag(message(p), C.notmuch_message_flag_t(flag), cbool(value))
}

func (Library) MessageGetDate(p native.Ptr) int64 {
	return int64(C.notmuch_message_get_date(message(p)))
}

func (Library) MessageGetHeader(p native.Ptr, header string) []byte {
	cHeader := cstr(header)
	defer free(cHeader)
	return bytesOf(C.notmuch_message_get_header(message(p), cHeader))
}

func (Library) MessageGetTags(p native.Ptr) native.Ptr {
	return ptr(C.notmuch_message_get_tags(message(p)))
}

func (Library) MessageAddTag(p native.Ptr, tag string) native.Status {
	cTag := cstr(tag)
	defer free(cTag)
	return status(C.notmuch_message_add_tag(message(p), cTag))
}

func (Library) MessageRemoveTag(p native.Ptr, tag string) native.Status {
	cTag := cstr(tag)
	defer free(cTag)
	return status(C.notmuch_message_remove_tag(message(p), cTag))
}

func (Library) MessageRemoveAllTags(p native.Ptr) native.Status {
	return status(C.notmuch_message_remove_all_tags(message(p)))
}

func (Library) MessageMaildirFlagsToTags(p native.Ptr) native.Status {
	return status(C.notmuch_message_maildir_flags_to_tags(message(p)))
}

func (Library) MessageHasMaildirFlag(p native.Ptr, flag byte) (bool, native.Status) {
	var value C.notmuch_bool_t
	st := C.notmuch_message_has_maildir_flag_st(message(p), C.char(flag), &value)
	return boolOf(value), status(st)
}

func (Library) MessageTagsToMaildirFlags(p native.Ptr) native.Status {
	return status(C.notmuch_message_tags_to_maildir_flags(message(p)))
}

func (Library) MessageFreeze(p native.Ptr) native.Status {
	return status(C.notmuch_message_freeze(message(p)))
}

func (Library) MessageThaw(p native.Ptr) native.Status {
	return status(C.notmuch_message_thaw(message(p)))
}

func (Library) MessageReindex(p native.Ptr, opts native.Ptr) native.Status {
	return status(C.notmuch_message_reindex(message(p), indexopts(opts)))
}

func (Library) MessageGetProperty(p native.Ptr, key string) ([]byte, native.Status) {
	cKey := cstr(key)
	defer free(cKey)
	var value *C.char
	st := C.notmuch_message_get_property(message(p), cKey, &value)
	return bytesOf(value), status(st)
}

func (Library) MessageAddProperty(p native.Ptr, key, value string) native.Status {
	cKey, cValue := cstr(key), cstr(value)
	defer free(cKey)
	defer free(cValue)
	return status(C.notmuch_message_add_property(message(p), cKey, cValue))
}

func (Library) MessageRemoveProperty(p native.Ptr, key, value string) native.Status {
	cKey, cValue := cstr(key), cstr(value)
	defer free(cKey)
	defer free(cValue)
	return status(C.notmuch_message_remove_property(message(p), cKey, cValue))
}

func (Library) MessageRemoveAllProperties(p native.Ptr, key string) native.Status {
	cKey := optional(key)
	defer free(cKey)
	return status(C.notmuch_message_remove_all_properties(message(p), cKey))
}

func (Library) MessageRemoveAllPropertiesWithPrefix(p native.Ptr, prefix string) native.Status {
	cPrefix := optional(prefix)
	defer free(cPrefix)
	return status(C.notmuch_message_remove_all_properties_with_prefix(message(p), cPrefix))
}

func (Library) MessageGetProperties(p native.Ptr, key string, exact bool) native.Ptr {
	cKey := cstr(key)
	defer free(cKey)
	return ptr(C.notmuch_message_get_properties(message(p), cKey, cbool(exact)))
}

func (Library) MessageCountProperties(p native.Ptr, key string) (uint, native.Status) {
	cKey := cstr(key)
	defer free(cKey)
	var count C.uint
	st := C.notmuch_message_count_properties(message(p), cKey, &count)
	return uint(count), status(st)
}

func (Library) MessageDestroy(p native.Ptr) {
	C.notmuch_message_destroy(message(p))
}

// tags

func (Library) TagsValid(p native.Ptr) bool  { return boolOf(C.notmuch_tags_valid(tags(p))) }
func (Library) TagsGet(p native.Ptr) []byte  { return bytesOf(C.notmuch_tags_get(tags(p))) }
func (Library) TagsMoveToNext(p native.Ptr)  { C.notmuch_tags_move_to_next(tags(p)) }
func (Library) TagsDestroy(p native.Ptr)     { C.notmuch_tags_destroy(tags(p)) }

// directories

func (Library) DirectorySetMtime(p native.Ptr, mtime int64) native.Status {
	return status(C.notmuch_directory_set_mtime(dir(p), C.time_t(mtime)))
}

func (Library) DirectoryGetMtime(p native.Ptr) int64 {
	return int64(C.notmuch_directory_get_mtime(dir(p)))
}

func (Library) DirectoryGetChildFiles(p native.Ptr) native.Ptr {
	return ptr(C.notmuch_directory_get_child_files(dir(p)))
}

func (Library) DirectoryGetChildDirectories(p native.Ptr) native.Ptr {
	return ptr(C.notmuch_directory_get_child_directories(dir(p)))
}

func (Library) DirectoryDelete(p native.Ptr) native.Status {
	return status(C.notmuch_directory_delete(dir(p)))
}

func (Library) DirectoryDestroy(p native.Ptr) {
	C.notmuch_directory_destroy(dir(p))
}

func (Library) FilenamesValid(p native.Ptr) bool { return boolOf(C.notmuch_filenames_valid(filenames(p))) }
func (Library) FilenamesGet(p native.Ptr) []byte { return bytesOf(C.notmuch_filenames_get(filenames(p))) }
func (Library) FilenamesMoveToNext(p native.Ptr) { C.notmuch_filenames_move_to_next(filenames(p)) }
func (Library) FilenamesDestroy(p native.Ptr)    { C.notmuch_filenames_destroy(filenames(p)) }

// properties

func (Library) MessagePropertiesValid(p native.Ptr) bool {
	return boolOf(C.notmuch_message_properties_valid(props(p)))
}

func (Library) MessagePropertiesKey(p native.Ptr) []byte {
	return bytesOf(C.notmuch_message_properties_key(props(p)))
}

func (Library) MessagePropertiesValue(p native.Ptr) []byte {
	return bytesOf(C.notmuch_message_properties_value(props(p)))
}

func (Library) MessagePropertiesMoveToNext(p native.Ptr) {
	C.notmuch_message_properties_move_to_next(props(p))
}

func (Library) MessagePropertiesDestroy(p native.Ptr) {
	C.notmuch_message_properties_destroy(props(p))
}

// config

func (Library) ConfigListValid(p native.Ptr) bool  { return boolOf(C.notmuch_config_list_valid(configList(p))) }
func (Library) ConfigListKey(p native.Ptr) []byte  { return bytesOf(C.notmuch_config_list_key(configList(p))) }
func (Library) ConfigListValue(p native.Ptr) []byte { return bytesOf(C.notmuch_config_list_value(configList(p))) }
func (Library) ConfigListMoveToNext(p native.Ptr)  { C.notmuch_config_list_move_to_next(configList(p)) }
func (Library) ConfigListDestroy(p native.Ptr)     { C.notmuch_config_list_destroy(configList(p)) }

func (Library) ConfigValuesValid(p native.Ptr) bool {
	return boolOf(C.notmuch_config_values_valid(configValues(p)))
}
func (Library) ConfigValuesGet(p native.Ptr) []byte {
	return bytesOf(C.notmuch_config_values_get(configValues(p)))
}
func (Library) ConfigValuesMoveToNext(p native.Ptr) { C.notmuch_config_values_move_to_next(configValues(p)) }
func (Library) ConfigValuesStart(p native.Ptr)      { C.notmuch_config_values_start(configValues(p)) }
func (Library) ConfigValuesDestroy(p native.Ptr)    { C.notmuch_config_values_destroy(configValues(p)) }

func (Library) ConfigPairsValid(p native.Ptr) bool {
	return boolOf(C.notmuch_config_pairs_valid(configPairs(p)))
}
func (Library) ConfigPairsKey(p native.Ptr) []byte {
	return bytesOf(C.notmuch_config_pairs_key(configPairs(p)))
}
func (Library) ConfigPairsValue(p native.Ptr) []byte {
	return bytesOf(C.notmuch_config_pairs_value(configPairs(p)))
}
func (Library) ConfigPairsMoveToNext(p native.Ptr) { C.notmuch_config_pairs_move_to_next(configPairs(p)) }
func (Library) ConfigPairsDestroy(p native.Ptr)    { C.notmuch_config_pairs_destroy(configPairs(p)) }

// index options

func (Library) IndexOptsGetDecryptPolicy(p native.Ptr) native.DecryptionPolicy {
	return native.DecryptionPolicy(C.notmuch_indexopts_get_decrypt_policy(indexopts(p)))
}

func (Library) IndexOptsSetDecryptPolicy(p native.Ptr, policy native.DecryptionPolicy) native.Status {
	return status(C.notmuch_indexopts_set_decrypt_policy(indexopts(p), C.notmuch_decryption_policy_t(policy)))
}

func (Library) IndexOptsDestroy(p native.Ptr) {
	C.notmuch_indexopts_destroy(indexopts(p))
}
