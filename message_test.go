// SPDX-License-Identifier: GPL-3.0-or-later
package notmuch

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findMessage(t *testing.T, db *Database, id string) *Message {
	t.Helper()

	m, err := db.FindMessage(id)
	require.NoError(t, err)
	require.NotNil(t, m)
	return m
}

func TestTags(t *testing.T) {
	f := newFixture(t)
	f.add("INBOX/cur/1:2,", testMail{id: "one@example.com"})
	m := findMessage(t, f.db, "one@example.com")

	require.NoError(t, m.AddTag("b"))
	require.NoError(t, m.AddTag("a"))
	require.NoError(t, m.AddTag("a"))
	assert.Equal(t, []string{"a", "b"}, tagsOf(t, m))

	require.NoError(t, m.RemoveTag("b"))
	require.NoError(t, m.RemoveTag("missing"))
	assert.Equal(t, []string{"a"}, tagsOf(t, m))

	assert.True(t, errors.Is(m.AddTag(""), ErrIllegalArgument))
	assert.True(t, errors.Is(m.AddTag(strings.Repeat("x", 201)), ErrTagTooLong))
	require.NoError(t, m.AddTag(strings.Repeat("x", 200)))

	require.NoError(t, m.RemoveAllTags())
	assert.Empty(t, tagsOf(t, m))

	require.NoError(t, m.SetTags("inbox", "unread"))
	assert.Equal(t, []string{"inbox", "unread"}, tagsOf(t, m))

	all, err := f.db.AllTags()
	require.NoError(t, err)
	names, err := all.Collect()
	require.NoError(t, err)
	assert.Equal(t, []string{"inbox", "unread"}, names)

	require.NoError(t, m.Close())
	f.closeAndCheck()
}

func TestFreezeThaw(t *testing.T) {
	f := newFixture(t)
	f.add("INBOX/cur/1:2,", testMail{id: "one@example.com"})
	m := findMessage(t, f.db, "one@example.com")
	observer := findMessage(t, f.db, "one@example.com")

	assert.True(t, errors.Is(m.Thaw(), ErrUnbalancedFreezeThaw))

	require.NoError(t, m.Freeze())
	require.NoError(t, m.Freeze())
	require.NoError(t, m.AddTag("new"))
	assert.Equal(t, []string{"new"}, tagsOf(t, m))
	assert.Empty(t, tagsOf(t, observer))

	require.NoError(t, m.Thaw())
	assert.Empty(t, tagsOf(t, observer))
	require.NoError(t, m.Thaw())
	assert.Equal(t, []string{"new"}, tagsOf(t, observer))
	assert.True(t, errors.Is(m.Thaw(), ErrUnbalancedFreezeThaw))

	frozen, err := m.Frozen()
	require.NoError(t, err)
	require.NoError(t, m.RemoveTag("new"))
	require.NoError(t, frozen.Thaw())
	require.NoError(t, frozen.Thaw())
	assert.Empty(t, tagsOf(t, observer))

	failure := errors.New("failed")
	err = m.WithFrozen(func() error {
		require.NoError(t, m.AddTag("partial"))
		return failure
	})
	assert.Equal(t, failure, err)
	// the region was thawed, so the change is visible
	assert.Equal(t, []string{"partial"}, tagsOf(t, observer))
	assert.True(t, errors.Is(m.Thaw(), ErrUnbalancedFreezeThaw))

	assert.Panics(t, func() {
		_ = m.WithFrozen(func() error { panic("boom") })
	})
	assert.True(t, errors.Is(m.Thaw(), ErrUnbalancedFreezeThaw))

	require.NoError(t, m.Close())
	require.NoError(t, observer.Close())
	f.closeAndCheck()
}

func TestProperties(t *testing.T) {
	f := newFixture(t)
	f.add("INBOX/cur/1:2,", testMail{id: "one@example.com"})
	m := findMessage(t, f.db, "one@example.com")

	_, ok, err := m.Property("k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.AddProperty("k", "v1"))
	require.NoError(t, m.AddProperty("k", "v2"))
	require.NoError(t, m.AddProperty("kx", "z"))
	assert.True(t, errors.Is(m.AddProperty("a=b", "v"), ErrIllegalArgument))
	assert.True(t, errors.Is(m.AddProperty("", "v"), ErrIllegalArgument))

	value, ok, err := m.Property("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v1", value)

	n, err := m.CountProperties("k")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	collect := func(key string, exact bool) []Pair {
		props, err := m.Properties(key, exact)
		require.NoError(t, err)
		defer props.Close()
		pairs, err := props.Collect()
		require.NoError(t, err)
		return pairs
	}
	assert.Equal(t, []Pair{{"k", "v1"}, {"k", "v2"}}, collect("k", true))
	assert.Equal(t, []Pair{{"k", "v1"}, {"k", "v2"}, {"kx", "z"}}, collect("k", false))

	require.NoError(t, m.RemoveProperty("k", "v1"))
	assert.Equal(t, []Pair{{"k", "v2"}}, collect("k", true))

	require.NoError(t, m.RemoveAllProperties("k"))
	assert.Equal(t, []Pair{{"kx", "z"}}, collect("k", false))

	require.NoError(t, m.AddProperty("other", "o"))
	require.NoError(t, m.RemoveAllPropertiesWithPrefix("k"))
	assert.Equal(t, []Pair{{"other", "o"}}, collect("", false))

	require.NoError(t, m.RemoveAllProperties(""))
	assert.Empty(t, collect("", false))

	require.NoError(t, m.Close())
	f.closeAndCheck()
}

func TestMaildirFlags(t *testing.T) {
	f := newFixture(t)
	path := f.add("INBOX/cur/1:2,S", testMail{id: "one@example.com"})
	m := findMessage(t, f.db, "one@example.com")

	seen, err := m.HasMaildirFlag('S')
	require.NoError(t, err)
	assert.True(t, seen)

	require.NoError(t, m.AddTag("unread"))
	require.NoError(t, m.MaildirFlagsToTags())
	assert.Empty(t, tagsOf(t, m))

	require.NoError(t, m.AddTag("flagged"))
	require.NoError(t, m.AddTag("unread"))
	require.NoError(t, m.TagsToMaildirFlags())

	renamed := filepath.Join(f.root, "INBOX", "cur", "1:2,F")
	filename, err := m.Filename()
	require.NoError(t, err)
	assert.Equal(t, renamed, filename)
	assert.NoFileExists(t, path)
	assert.FileExists(t, renamed)

	byName, err := f.db.FindMessageByFilename(renamed)
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, "one@example.com", byName.ID())

	require.NoError(t, m.Close())
	f.closeAndCheck()
}

func TestReindex(t *testing.T) {
	f := newFixture(t)
	path := f.add("INBOX/cur/1:2,", testMail{id: "one@example.com", subject: "Before"})
	m := findMessage(t, f.db, "one@example.com")
	require.NoError(t, m.AddTag("keep"))

	writeMail(t, path, testMail{id: "one@example.com", subject: "After", date: baseDate})
	opts, err := f.db.DefaultIndexOpts()
	require.NoError(t, err)
	assert.Equal(t, DecryptAuto, opts.DecryptPolicy())
	require.NoError(t, opts.SetDecryptPolicy(DecryptFalse))
	assert.Equal(t, DecryptFalse, opts.DecryptPolicy())
	assert.True(t, errors.Is(opts.SetDecryptPolicy(DecryptionPolicy(42)), ErrIllegalArgument))

	require.NoError(t, m.Reindex(opts))
	assert.Equal(t, []string{"one@example.com"}, f.messageIDs("subject:after"))
	assert.Equal(t, []string{"keep"}, tagsOf(t, m))

	require.NoError(t, opts.Close())
	require.NoError(t, m.Close())
	f.closeAndCheck()
}

func TestIndexFileErrors(t *testing.T) {
	f := newFixture(t)

	notMail := filepath.Join(f.root, "notes.txt")
	require.NoError(t, os.WriteFile(notMail, []byte("just some text\nwithout headers\n"), 0o644))
	_, err := f.db.IndexFile(notMail, nil)
	assert.True(t, errors.Is(err, ErrFileNotEmail))

	_, err = f.db.IndexFile(filepath.Join(f.root, "missing"), nil)
	assert.True(t, errors.Is(err, ErrFileError))

	outside := filepath.Join(t.TempDir(), "1:2,")
	writeMail(t, outside, testMail{id: "out@example.com", date: baseDate})
	_, err = f.db.IndexFile(outside, nil)
	assert.True(t, errors.Is(err, ErrPathError))

	f.closeAndCheck()
}
