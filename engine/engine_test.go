// SPDX-License-Identifier: GPL-3.0-or-later
package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/CrawX/go-notmuch/native"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMail = "From: Alice <alice@example.com>\r\n" +
	"To: bob@example.com\r\n" +
	"Subject: Hello\r\n" +
	"Date: Mon, 01 Mar 2021 12:00:00 +0000\r\n" +
	"Message-ID: <one@example.com>\r\n" +
	"\r\n" +
	"Hi Bob\r\n"

func newTestDatabase(t *testing.T) (*Engine, native.Ptr, string) {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "INBOX", "cur"), 0o755))
	file := filepath.Join(root, "INBOX", "cur", "1:2,S")
	require.NoError(t, os.WriteFile(file, []byte(testMail), 0o644))

	e := New()
	db, st := e.DatabaseCreate(root, "")
	require.Equal(t, native.StatusSuccess, st)
	m, st := e.DatabaseIndexFile(db, file, native.Nil)
	require.Equal(t, native.StatusSuccess, st)
	e.MessageDestroy(m)
	return e, db, file
}

func TestCascadeFree(t *testing.T) {
	e, db, _ := newTestDatabase(t)

	q := e.QueryCreate(db, "*")
	require.NotEqual(t, native.Nil, q)
	msgs, st := e.QuerySearchMessages(q)
	require.Equal(t, native.StatusSuccess, st)
	m := e.MessagesGet(msgs)
	require.NotEqual(t, native.Nil, m)
	tags := e.MessageGetTags(m)
	require.NotEqual(t, native.Nil, tags)
	assert.Equal(t, 5, e.Live())

	e.QueryDestroy(q)
	assert.Equal(t, 1, e.Live())
	assert.Equal(t, 1, e.LiveOf(native.KindDatabase))
	assert.Equal(t, 1, e.Destroys(q))
	assert.Equal(t, 0, e.Destroys(m))

	assert.Equal(t, native.StatusSuccess, e.DatabaseDestroy(db))
	assert.Equal(t, 0, e.Live())
	assert.Empty(t, e.Violations())
}

func TestThreadMessagesAreStable(t *testing.T) {
	e, db, _ := newTestDatabase(t)

	q := e.QueryCreate(db, "*")
	threads, st := e.QuerySearchThreads(q)
	require.Equal(t, native.StatusSuccess, st)
	th := e.ThreadsGet(threads)
	require.NotEqual(t, native.Nil, th)

	first := e.ThreadGetMessages(th)
	m := e.MessagesGet(first)
	require.NotEqual(t, native.Nil, m)
	assert.Equal(t, m, e.MessagesGet(first))

	top := e.ThreadGetToplevelMessages(th)
	assert.Equal(t, m, e.MessagesGet(top))

	// lists die with their owner, the messages stay with the thread
	e.MessagesDestroy(first)
	e.MessagesDestroy(top)
	assert.Equal(t, 1, e.LiveOf(native.KindMessage))
	assert.Equal(t, "one@example.com", string(e.MessageGetMessageID(m)))

	// destroying it leaves a dangling pointer in the thread
	e.MessageDestroy(m)
	again := e.ThreadGetMessages(th)
	assert.Equal(t, m, e.MessagesGet(again))
	assert.Nil(t, e.MessageGetMessageID(m))
	violations := e.Violations()
	require.Len(t, violations, 1)
	assert.Equal(t, "use after free", violations[0].Reason)

	e.QueryDestroy(q)
	e.DatabaseDestroy(db)
	assert.Equal(t, 0, e.Live())
}

func TestOrphanedChildren(t *testing.T) {
	e, db, _ := newTestDatabase(t)

	dir, st := e.DatabaseGetDirectory(db, "INBOX")
	require.Equal(t, native.StatusSuccess, st)
	opts := e.DatabaseGetDefaultIndexOpts(db)
	require.NotEqual(t, native.Nil, opts)

	e.DatabaseDestroy(db)
	assert.Equal(t, 1, e.LiveOf(native.KindDirectory))
	assert.Equal(t, 1, e.LiveOf(native.KindIndexOpts))

	e.DirectoryDestroy(dir)
	e.IndexOptsDestroy(opts)
	assert.Equal(t, 0, e.Live())
	assert.Empty(t, e.Violations())
}

func TestViolations(t *testing.T) {
	e, db, _ := newTestDatabase(t)

	tags := e.DatabaseGetAllTags(db)
	require.NotEqual(t, native.Nil, tags)
	e.TagsDestroy(tags)

	assert.False(t, e.TagsValid(tags))
	e.TagsDestroy(tags)
	assert.Nil(t, e.DatabaseGetPath(native.Nil))
	assert.Equal(t, native.Nil, e.QueryCreate(tags, "*"))

	violations := e.Violations()
	require.Len(t, violations, 4)
	assert.Equal(t, "use after free", violations[0].Reason)
	assert.Equal(t, native.KindTags, violations[0].Kind)
	assert.Equal(t, "double destroy", violations[1].Reason)
	assert.Equal(t, "NULL pointer", violations[2].Reason)
	assert.Equal(t, "use after free", violations[3].Reason)
	assert.Equal(t, "query_create", violations[3].Op)
	assert.Equal(t, 2, e.Destroys(tags))

	e.DatabaseDestroy(db)
}

func TestWrongKind(t *testing.T) {
	e, db, _ := newTestDatabase(t)

	q := e.QueryCreate(db, "*")
	assert.False(t, e.TagsValid(q))
	violations := e.Violations()
	require.Len(t, violations, 1)
	assert.Equal(t, "expected tags", violations[0].Reason)
	assert.Equal(t, native.KindQuery, violations[0].Kind)

	e.DatabaseDestroy(db)
	assert.Equal(t, 0, e.Live())
}

func TestAdvanceScribblesBuffer(t *testing.T) {
	e, db, file := newTestDatabase(t)

	m, st := e.DatabaseFindMessageByFilename(db, file)
	require.Equal(t, native.StatusSuccess, st)
	require.Equal(t, native.StatusSuccess, e.MessageAddTag(m, "first"))
	require.Equal(t, native.StatusSuccess, e.MessageAddTag(m, "second"))

	tags := e.MessageGetTags(m)
	b := e.TagsGet(tags)
	assert.Equal(t, "first", string(b))
	e.TagsMoveToNext(tags)
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff, 0xff}, b)
	assert.Equal(t, "second", string(e.TagsGet(tags)))

	e.TagsMoveToNext(tags)
	assert.False(t, e.TagsValid(tags))
	assert.Nil(t, e.TagsGet(tags))

	e.DatabaseDestroy(db)
	assert.Empty(t, e.Violations())
}

func TestClosedDatabase(t *testing.T) {
	e, db, file := newTestDatabase(t)

	assert.Equal(t, native.StatusSuccess, e.DatabaseClose(db))
	_, st := e.DatabaseFindMessageByFilename(db, file)
	assert.Equal(t, native.StatusClosedDatabase, st)
	assert.Equal(t, native.Nil, e.QueryCreate(db, "*"))
	assert.NotEmpty(t, e.DatabaseStatusString(db))

	e.DatabaseDestroy(db)
	assert.Empty(t, e.Violations())
}

func TestOpenErrors(t *testing.T) {
	e := New()

	_, st := e.DatabaseOpen(t.TempDir(), native.DatabaseModeReadOnly, "", "")
	assert.Equal(t, native.StatusNoDatabase, st)
	_, st = e.DatabaseOpen("", native.DatabaseModeReadOnly, "", "")
	assert.Equal(t, native.StatusNoDatabase, st)
	_, st = e.DatabaseOpen("", native.DatabaseModeReadOnly, filepath.Join(t.TempDir(), "missing"), "")
	assert.Equal(t, native.StatusNoConfig, st)

	root := t.TempDir()
	db, st := e.DatabaseCreate(root, "")
	require.Equal(t, native.StatusSuccess, st)
	_, st = e.DatabaseCreate(root, "")
	assert.Equal(t, native.StatusDatabaseExists, st)

	ro, st := e.DatabaseOpen(root, native.DatabaseModeReadOnly, "", "")
	require.Equal(t, native.StatusSuccess, st)
	assert.Equal(t, native.StatusReadOnlyDatabase, e.DatabaseSetConfig(ro, "user.name", "Alice"))
	assert.Equal(t, uint(Version), e.DatabaseGetVersion(ro))

	e.DatabaseDestroy(ro)
	e.DatabaseDestroy(db)
	assert.Equal(t, 0, e.Live())
}
