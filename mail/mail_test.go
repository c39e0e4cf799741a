// SPDX-License-Identifier: GPL-3.0-or-later
package mail

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func crlf(lines ...string) []byte {
	return []byte(strings.Join(lines, "\r\n"))
}

var (
	plainMail = crlf(
		"From: Source <src@example.com>",
		"To: to@example.com",
		"Subject: Test mail",
		"Message-Id: <one@example.com>",
		"Date: Mon, 02 Jan 2006 15:04:05 +0000",
		"",
		"body",
	)
	replyMail = crlf(
		"From: dst@example.com",
		"Subject: Re: Test mail",
		"Message-Id: <two@example.com>",
		"In-Reply-To: <one@example.com>",
		"References: <zero@example.com> <one@example.com>",
		"",
		"reply",
	)
	encodedMail = crlf(
		"From: =?utf-8?q?J=C3=BCrgen?= <j@example.com>",
		"Subject: =?iso-8859-1?q?M=A5_R=EA=D0?=",
		"Received: from somewhere",
		"",
		"body",
	)
	noIdMail = crlf(
		"From: src@example.com",
		"Subject: no ids",
		"",
		"body",
	)
)

func TestMailHeaderInfos(t *testing.T) {
	tests := []struct {
		name    string
		raw     []byte
		subject string
		err     string
	}{
		{"plain", plainMail, "Test mail", ""},
		{"nonascii", encodedMail, "M¥ RêÐ", ""},
		{"nohashheaders", noIdMail, "", "Received and Message-Id header header not found"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			subject, hash, err := MailHeaderInfos(tc.raw)

			if len(tc.err) == 0 {
				assert.NoError(t, err)
				assert.Equal(t, tc.subject, subject)
				assert.Len(t, hash, 64)
			} else {
				assert.Empty(t, subject)
				assert.Empty(t, hash)
				assert.EqualError(t, err, tc.err)
			}
		})
	}
}

func TestMailHeaderInfosStableHash(t *testing.T) {
	other := []byte(strings.Replace(string(plainMail), "Subject: Test mail", "Subject: changed", 1))

	_, h1, err := MailHeaderInfos(plainMail)
	require.NoError(t, err)
	_, h2, err := MailHeaderInfos(other)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	_, h3, err := MailHeaderInfos(replyMail)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}

func TestParseHeaders(t *testing.T) {
	h, err := ParseHeaders(plainMail)
	require.NoError(t, err)
	assert.Equal(t, "one@example.com", h.MessageID)
	assert.Equal(t, "Test mail", h.Subject)
	assert.Equal(t, "Source", h.Author)
	assert.Equal(t, "Source <src@example.com>", h.From)
	assert.Equal(t, time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC).Unix(), h.Date.Unix())
	assert.Equal(t, "", h.Parent())
	assert.Empty(t, h.Related())
	assert.Equal(t, "to@example.com", h.Text("to"))
	assert.Equal(t, "", h.Text("X-Missing"))

	h, err = ParseHeaders(replyMail)
	require.NoError(t, err)
	assert.Equal(t, "one@example.com", h.Parent())
	assert.Equal(t, []string{"zero@example.com", "one@example.com"}, h.Related())
	assert.Equal(t, "dst@example.com", h.Author)

	h, err = ParseHeaders(encodedMail)
	require.NoError(t, err)
	assert.Equal(t, "Jürgen", h.Author)
	assert.True(t, strings.HasPrefix(h.MessageID, "notmuch-sha1-"))
}

func TestParseHeadersNotEmail(t *testing.T) {
	for name, raw := range map[string][]byte{
		"binary":    {0x00, 0x01, 0x02, 0xff},
		"no fields": crlf("X-Foo: bar", "", "body"),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseHeaders(raw)
			assert.ErrorIs(t, err, ErrNotEmail)
		})
	}
}

func TestUnwrapSpamassassinReport(t *testing.T) {
	wrapped := crlf(
		"From: spamd@example.com",
		"Subject: [SPAM] Test mail",
		"X-Spam-Flag: YES",
		"X-Spam-Status: Yes, score=9.9",
		"MIME-Version: 1.0",
		`Content-Type: multipart/mixed; boundary="b1"`,
		"",
		"--b1",
		"Content-Type: text/plain",
		"",
		"report",
		"--b1",
		"Content-Type: message/rfc822; x-spam-type=original",
		"",
		string(plainMail),
		"--b1--",
		"",
	)

	tests := []struct {
		name     string
		raw      []byte
		expected []byte
	}{
		{"plain", plainMail, plainMail},
		{"nonascii", encodedMail, encodedMail},
		{"wrapped", wrapped, plainMail},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := UnwrapSpamassassinReport(tc.raw)
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, result)
		})
	}
}

func TestShortSubject(t *testing.T) {
	assert.Equal(t, "short", ShortSubject("short"))
	assert.Equal(t, strings.Repeat("a", 30)+"...", ShortSubject(strings.Repeat("a", 40)))
}
