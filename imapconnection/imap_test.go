// SPDX-License-Identifier: GPL-3.0-or-later
package imapconnection

import (
	"net"
	"testing"

	"github.com/emersion/go-imap/backend/memory"
	"github.com/emersion/go-imap/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer serves the in-memory backend, which knows the user
// "username" with password "password" and one mail in INBOX.
func newTestServer(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := server.New(memory.New())
	s.AllowInsecureAuth = true
	go func() {
		_ = s.Serve(l)
	}()
	t.Cleanup(func() {
		_ = s.Close()
	})

	return l.Addr().String()
}

func TestFetch(t *testing.T) {
	addr := newTestServer(t)

	conn, err := NewImapConnection(addr, "username", "password", Insecure())
	require.NoError(t, err)
	defer conn.Close()

	folders, err := conn.ListFolders()
	require.NoError(t, err)
	assert.Contains(t, folders, "INBOX")

	uidValidity, err := conn.Select("INBOX")
	require.NoError(t, err)
	assert.NotZero(t, uidValidity)

	uids, err := conn.ListUids()
	require.NoError(t, err)
	require.Len(t, uids, 1)

	mails, err := conn.FetchMails(uids)
	require.NoError(t, err)
	require.Len(t, mails, 1)
	assert.Equal(t, uids[0], mails[0].Uid)
	assert.Equal(t, "A little message, just for you", mails[0].Subject)
	assert.NotEmpty(t, mails[0].MessageID)
	assert.Contains(t, string(mails[0].RawMail), "Hi there :)")

	infos, err := conn.FetchIdHeaders(uids)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, mails[0].MessageID, infos[0].MessageID)
	assert.Equal(t, mails[0].Subject, infos[0].Subject)
}

func TestLoginFailure(t *testing.T) {
	addr := newTestServer(t)

	_, err := NewImapConnection(addr, "username", "wrong", Insecure())
	assert.ErrorContains(t, err, "could not login to imap")
}

func TestSelectUnknownFolder(t *testing.T) {
	addr := newTestServer(t)

	conn, err := NewImapConnection(addr, "username", "password", Insecure())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Select("Nope")
	assert.Error(t, err)
}
