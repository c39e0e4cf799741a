// SPDX-License-Identifier: GPL-3.0-or-later
package notmuch

import (
	"testing"
	"time"

	"github.com/CrawX/go-notmuch/handle"
	"github.com/CrawX/go-notmuch/native"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertUseError(t *testing.T, f func()) {
	t.Helper()

	defer func() {
		t.Helper()
		r := recover()
		require.NotNil(t, r, "expected a panic")
		_, ok := r.(*handle.UseError)
		assert.True(t, ok, "expected *handle.UseError, got %T", r)
	}()
	f()
}

func TestBorrowContainment(t *testing.T) {
	f := newFixture(t)
	f.add("INBOX/cur/1:2,", testMail{id: "one@example.com"})

	q := f.query("*")
	qPtr := q.ptr()
	msgs, err := q.SearchMessages()
	require.NoError(t, err)
	msgsPtr := msgs.ptr()
	m, ok := msgs.Next()
	require.True(t, ok)
	mPtr := m.ptr()
	tags, err := m.Tags()
	require.NoError(t, err)

	require.NoError(t, q.Close())

	for _, o := range []*object{&msgs.object, &m.object, &tags.object} {
		assert.False(t, o.Alive())
	}
	assertUseError(t, func() { m.ID() })
	assertUseError(t, func() { tags.Valid() })

	assert.Equal(t, 1, f.lib.Destroys(qPtr))
	assert.Zero(t, f.lib.Destroys(msgsPtr))
	assert.Zero(t, f.lib.Destroys(mPtr))
	assert.Zero(t, f.lib.LiveOf(native.KindMessage))

	// closing dead values is a no-op
	require.NoError(t, m.Close())
	require.NoError(t, msgs.Close())
	f.closeAndCheck()
}

func firstMessage(t *testing.T, db *Database) *Message {
	q, err := db.CreateQuery("*")
	require.NoError(t, err)
	shared := q.Share()
	require.NoError(t, q.Close())

	msgs, err := shared.SearchMessages()
	require.NoError(t, err)
	require.NoError(t, shared.Close())

	sharedMsgs := msgs.Share()
	require.NoError(t, msgs.Close())
	m, ok := sharedMsgs.Next()
	require.True(t, ok)
	require.NoError(t, sharedMsgs.Close())
	return m
}

func TestSharedSurvival(t *testing.T) {
	f := newFixture(t)
	f.add("INBOX/cur/1:2,", testMail{id: "one@example.com"})

	m := firstMessage(t, f.db)
	assert.True(t, m.Alive())
	assert.Equal(t, "one@example.com", m.ID())
	assert.Equal(t, 1, f.lib.LiveOf(native.KindQuery))
	assert.Equal(t, 1, f.lib.LiveOf(native.KindMessages))

	require.NoError(t, m.Close())
	assert.Zero(t, f.lib.LiveOf(native.KindQuery))
	assert.Zero(t, f.lib.LiveOf(native.KindMessages))
	assert.Zero(t, f.lib.LiveOf(native.KindMessage))
	f.closeAndCheck()
}

func TestSharedDatabase(t *testing.T) {
	f := newFixture(t)
	f.add("INBOX/cur/1:2,", testMail{id: "one@example.com"})

	shared := f.db.Share()
	m, err := shared.FindMessage("one@example.com")
	require.NoError(t, err)
	require.NoError(t, shared.Close())

	// the message keeps the database open
	require.NoError(t, f.db.Close())
	assert.True(t, m.Alive())
	assert.Equal(t, "one@example.com", m.ID())
	assert.Equal(t, 1, f.lib.LiveOf(native.KindDatabase))

	require.NoError(t, m.Close())
	assert.Zero(t, f.lib.Live())
	assert.Empty(t, f.lib.Violations())
}

func TestMovedDatabase(t *testing.T) {
	f := newFixture(t)
	f.add("INBOX/cur/1:2,", testMail{id: "one@example.com"})

	moved := f.db.Move()
	assert.False(t, f.db.Alive())
	assertUseError(t, func() { f.db.Path() })

	q, err := moved.CreateQuery("*")
	require.NoError(t, err)
	// the query took over the only reference
	assert.False(t, moved.Alive())
	n, err := q.CountMessages()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, q.Close())
	assert.Zero(t, f.lib.Live())
	assert.Empty(t, f.lib.Violations())
}

func TestSingleDestroy(t *testing.T) {
	f := newFixture(t)
	f.add("INBOX/cur/1:2,", testMail{id: "one@example.com"})

	dir, err := f.db.Directory("INBOX/cur")
	require.NoError(t, err)
	dirPtr := dir.ptr()
	opts, err := f.db.DefaultIndexOpts()
	require.NoError(t, err)
	optsPtr := opts.ptr()
	m, err := f.db.FindMessage("one@example.com")
	require.NoError(t, err)
	mPtr := m.ptr()
	dbPtr := f.db.ptr()

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	require.NoError(t, f.db.Close())

	// directories and index options are destroyed explicitly, messages are
	// freed with the database
	assert.Equal(t, 1, f.lib.Destroys(dirPtr))
	assert.Equal(t, 1, f.lib.Destroys(optsPtr))
	assert.Equal(t, 1, f.lib.Destroys(mPtr))
	assert.Equal(t, 1, f.lib.Destroys(dbPtr))
	assert.Zero(t, f.lib.Live())
	assert.Empty(t, f.lib.Violations())
	assert.False(t, dir.Alive())
	assert.False(t, opts.Alive())
}

func TestCollectTagsConsumes(t *testing.T) {
	f := newFixture(t)
	f.add("INBOX/cur/1:2,", testMail{id: "one@example.com"})
	f.add("INBOX/cur/2:2,", testMail{id: "two@example.com"})
	for id, tag := range map[string]string{"one@example.com": "work", "two@example.com": "home"} {
		m, err := f.db.FindMessage(id)
		require.NoError(t, err)
		require.NoError(t, m.AddTag(tag))
		require.NoError(t, m.AddTag("inbox"))
		require.NoError(t, m.Close())
	}

	q := f.query("*")
	defer q.Close()
	msgs, err := q.SearchMessages()
	require.NoError(t, err)
	msgsPtr := msgs.ptr()

	tags, err := msgs.CollectTags()
	require.NoError(t, err)
	assert.False(t, msgs.Alive())
	_, ok := msgs.Next()
	assert.False(t, ok)
	assertUseError(t, func() { msgs.CollectTags() })

	names, err := tags.Collect()
	require.NoError(t, err)
	assert.Equal(t, []string{"home", "inbox", "work"}, names)

	assert.Equal(t, 1, f.lib.LiveOf(native.KindMessages))
	require.NoError(t, tags.Close())
	assert.Zero(t, f.lib.LiveOf(native.KindMessages))
	assert.Equal(t, 1, f.lib.Destroys(msgsPtr))

	require.NoError(t, q.Close())
	f.closeAndCheck()
}

func TestDirectoryDelete(t *testing.T) {
	f := newFixture(t)
	f.add("INBOX/cur/1:2,", testMail{id: "one@example.com"})

	dir, err := f.db.Directory("INBOX/cur")
	require.NoError(t, err)
	dirPtr := dir.ptr()
	files, err := dir.ChildFiles()
	require.NoError(t, err)

	require.NoError(t, dir.Delete())
	assert.False(t, dir.Alive())
	assert.False(t, files.Alive())
	assertUseError(t, func() { dir.Mtime() })
	assert.Zero(t, f.lib.Destroys(dirPtr))
	assert.Zero(t, f.lib.LiveOf(native.KindDirectory))
	require.NoError(t, dir.Close())

	parent, err := f.db.Directory("INBOX")
	require.NoError(t, err)
	children, err := parent.ChildDirectories()
	require.NoError(t, err)
	names, err := children.Collect()
	require.NoError(t, err)
	assert.Empty(t, names)
	require.NoError(t, parent.Close())

	f.closeAndCheck()
}

func TestSharedItemOutlivesCursor(t *testing.T) {
	f := newFixture(t)
	f.add("INBOX/cur/1:2,", testMail{id: "one@example.com"})

	q := f.query("*")
	msgs, err := q.SearchMessages()
	require.NoError(t, err)
	m, ok := msgs.Next()
	require.True(t, ok)

	shared := m.Share()
	tags, err := shared.Tags()
	require.NoError(t, err)
	assert.Equal(t, 3, shared.ref.Refs())

	// the shared message keeps the cursor and the query open
	require.NoError(t, msgs.Close())
	require.NoError(t, q.Close())
	assert.True(t, m.Alive())
	assert.True(t, shared.Alive())
	assert.True(t, tags.Alive())
	assert.Equal(t, "one@example.com", shared.ID())
	assert.Equal(t, 1, f.lib.LiveOf(native.KindQuery))
	assert.Equal(t, 1, f.lib.LiveOf(native.KindMessages))

	require.NoError(t, tags.Close())
	require.NoError(t, shared.Close())
	assert.False(t, m.Alive())
	assert.Zero(t, f.lib.LiveOf(native.KindQuery))
	assert.Zero(t, f.lib.LiveOf(native.KindMessages))
	assert.Zero(t, f.lib.LiveOf(native.KindMessage))
	f.closeAndCheck()
}

// collectReplies returns every message below msgs, depth first. The cursors
// it opens are closed before it returns.
func collectReplies(t *testing.T, msgs *Messages) []*Message {
	t.Helper()

	collected := []*Message{}
	for m, ok := msgs.Next(); ok; m, ok = msgs.Next() {
		collected = append(collected, m.Share())

		replies, err := m.Replies()
		require.NoError(t, err)
		collected = append(collected, collectReplies(t, replies)...)
		require.NoError(t, replies.Close())
	}
	require.NoError(t, msgs.Err())
	return collected
}

func TestRepliesOutliveTraversal(t *testing.T) {
	f := newFixture(t)
	f.add("INBOX/cur/1:2,", testMail{id: "root@example.com", subject: "Plans", date: baseDate})
	f.add("INBOX/cur/2:2,", testMail{id: "reply@example.com", subject: "Re: Plans", inReplyTo: "root@example.com", date: baseDate.Add(time.Hour)})
	f.add("INBOX/cur/3:2,", testMail{id: "nested@example.com", subject: "Re: Plans", inReplyTo: "reply@example.com", date: baseDate.Add(2 * time.Hour)})

	messages := func() []*Message {
		q := f.query("*")
		defer q.Close()
		threads, err := q.SearchThreads()
		require.NoError(t, err)
		defer threads.Close()
		thread, ok := threads.Next()
		require.True(t, ok)
		top, err := thread.TopLevelMessages()
		require.NoError(t, err)
		defer top.Close()

		return collectReplies(t, top)
	}()

	ids := []string{}
	for _, m := range messages {
		require.True(t, m.Alive())
		ids = append(ids, m.ID())
	}
	assert.Equal(t, []string{"root@example.com", "reply@example.com", "nested@example.com"}, ids)
	assert.Equal(t, 1, f.lib.LiveOf(native.KindQuery))
	assert.Equal(t, 1, f.lib.LiveOf(native.KindThread))

	for _, m := range messages {
		require.NoError(t, m.Close())
	}
	assert.Zero(t, f.lib.LiveOf(native.KindQuery))
	assert.Zero(t, f.lib.LiveOf(native.KindThread))
	assert.Zero(t, f.lib.LiveOf(native.KindMessage))
	f.closeAndCheck()
}

func TestMovedCursor(t *testing.T) {
	f := newFixture(t)
	f.add("INBOX/cur/1:2,", testMail{id: "one@example.com", date: baseDate})
	f.add("INBOX/cur/2:2,", testMail{id: "two@example.com", date: baseDate.Add(time.Hour)})

	q := f.query("*")
	q.SetSort(SortOldestFirst)
	msgs, err := q.SearchMessages()
	require.NoError(t, err)

	moved := msgs.Move()
	assert.False(t, msgs.Alive())
	all := []*Message{}
	for m, ok := moved.Next(); ok; m, ok = moved.Next() {
		all = append(all, m)
	}
	require.NoError(t, moved.Err())
	require.Len(t, all, 2)
	assert.Equal(t, "one@example.com", all[0].ID())
	assert.Equal(t, "two@example.com", all[1].ID())

	// the items hold the cursor
	require.NoError(t, moved.Close())
	assert.True(t, all[0].Alive())
	assert.Equal(t, 1, f.lib.LiveOf(native.KindMessages))

	for _, m := range all {
		require.NoError(t, m.Close())
	}
	assert.Zero(t, f.lib.LiveOf(native.KindMessages))
	require.NoError(t, q.Close())
	f.closeAndCheck()
}

func TestThreadMessageReadTwice(t *testing.T) {
	f := newFixture(t)
	f.add("INBOX/cur/1:2,", testMail{id: "one@example.com"})

	q := f.query("*")
	threads, err := q.SearchThreads()
	require.NoError(t, err)
	thread, ok := threads.Next()
	require.True(t, ok)
	msgs, err := thread.Messages()
	require.NoError(t, err)

	first, err := msgs.Current()
	require.NoError(t, err)
	second, err := msgs.Current()
	require.NoError(t, err)
	mPtr := first.ptr()
	assert.Equal(t, mPtr, second.ptr())
	assert.Equal(t, 2, first.ref.Refs())

	require.NoError(t, first.Close())
	assert.True(t, second.Alive())
	require.NoError(t, second.Close())
	require.NoError(t, second.Close())
	// the message belongs to the thread
	assert.Zero(t, f.lib.Destroys(mPtr))

	again, err := thread.Messages()
	require.NoError(t, err)
	m, ok := again.Next()
	require.True(t, ok)
	assert.Equal(t, mPtr, m.ptr())
	assert.Equal(t, "one@example.com", m.ID())

	require.NoError(t, q.Close())
	f.closeAndCheck()
}
