// SPDX-License-Identifier: GPL-3.0-or-later
package notmuch

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/CrawX/go-notmuch/engine"

	gomail "github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testMail struct {
	id        string
	from      string
	subject   string
	inReplyTo string
	date      time.Time
}

func writeMail(t *testing.T, path string, m testMail) {
	t.Helper()

	var h gomail.Header
	h.SetDate(m.date)
	h.SetAddressList("From", []*gomail.Address{{Name: m.from, Address: "sender@example.com"}})
	h.SetSubject(m.subject)
	h.SetMessageID(m.id)
	if m.inReplyTo != "" {
		h.SetMsgIDList("In-Reply-To", []string{m.inReplyTo})
	}

	var buf bytes.Buffer
	w, err := gomail.CreateSingleInlineWriter(&buf, h)
	require.NoError(t, err)
	_, err = io.WriteString(w, "Hello\r\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

type fixture struct {
	t    *testing.T
	lib  *engine.Engine
	root string
	db   *Database
}

func newFixture(t *testing.T) *fixture {
	root := t.TempDir()
	lib := engine.New()
	db, err := Create(root, WithLibrary(lib))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &fixture{t: t, lib: lib, root: root, db: db}
}

var baseDate = time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)

// add writes m below the mail root and indexes it.
func (f *fixture) add(name string, m testMail) string {
	f.t.Helper()

	if m.date.IsZero() {
		m.date = baseDate
	}
	if m.from == "" {
		m.from = "Sender"
	}
	path := filepath.Join(f.root, filepath.FromSlash(name))
	writeMail(f.t, path, m)

	msg, err := f.db.IndexFile(path, nil)
	require.NoError(f.t, err)
	require.NoError(f.t, msg.Close())
	return path
}

func (f *fixture) query(qs string) *Query {
	f.t.Helper()

	q, err := f.db.CreateQuery(qs)
	require.NoError(f.t, err)
	return q
}

func (f *fixture) messageIDs(qs string) []string {
	f.t.Helper()

	q := f.query(qs)
	defer q.Close()
	q.SetSort(SortOldestFirst)

	msgs, err := q.SearchMessages()
	require.NoError(f.t, err)
	ids := []string{}
	for m, ok := msgs.Next(); ok; m, ok = msgs.Next() {
		ids = append(ids, m.ID())
	}
	require.NoError(f.t, msgs.Err())
	return ids
}

// closeAndCheck closes the database and asserts that every native object was
// released without misuse.
func (f *fixture) closeAndCheck() {
	f.t.Helper()

	require.NoError(f.t, f.db.Close())
	assert.Zero(f.t, f.lib.Live())
	assert.Empty(f.t, f.lib.Violations())
}

func tagsOf(t *testing.T, m *Message) []string {
	t.Helper()

	tags, err := m.Tags()
	require.NoError(t, err)
	defer tags.Close()
	names, err := tags.Collect()
	require.NoError(t, err)
	return names
}
