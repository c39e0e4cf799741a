// SPDX-License-Identifier: GPL-3.0-or-later
package rspamd

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/CrawX/go-notmuch/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const plainMail = "From: alice@example.com\r\nSubject: hi\r\nMessage-ID: <plain@example.com>\r\n\r\nbody\r\n"

type fakeController struct {
	t        *testing.T
	check    string
	learned  map[string][]byte
	password string
}

func (fc *fakeController) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/ping" {
		_, _ = io.WriteString(w, "pong")
		return
	}
	if r.Header.Get("Password") != fc.password {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	body, err := io.ReadAll(r.Body)
	require.NoError(fc.t, err)
	switch r.URL.Path {
	case "/checkv2":
		_, _ = io.WriteString(w, fc.check)
	case "/learnspam", "/learnham":
		fc.learned[r.URL.Path] = body
		w.WriteHeader(http.StatusAlreadyReported)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestRspamd(t *testing.T, check string) (*Rspamd, *fakeController) {
	fc := &fakeController{t: t, check: check, learned: map[string][]byte{}, password: "secret"}
	server := httptest.NewServer(fc)
	t.Cleanup(server.Close)

	rs, err := NewRspamd(context.Background(), server.URL+"/", "secret")
	require.NoError(t, err)
	return rs, fc
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		check   string
		spam    bool
		score   float64
		wantErr bool
	}{
		{
			name:  "ham",
			check: `{"score": -1.5, "action": "no action", "symbols": {"MIME_GOOD": {"name": "MIME_GOOD", "score": -0.1}}}`,
			score: -1.5,
		},
		{
			name:  "spam",
			check: `{"score": 12.0, "action": "add header", "symbols": {"BAYES_SPAM": {"name": "BAYES_SPAM", "score": 5.1}, "R_SPF_FAIL": {"name": "R_SPF_FAIL", "score": 1}}}`,
			spam:  true,
			score: 12,
		},
		{
			name:    "lookup failure",
			check:   `{"score": 0, "action": "no action", "symbols": {"R_DKIM_TEMPFAIL": {"name": "R_DKIM_TEMPFAIL", "score": 0}}}`,
			wantErr: true,
		},
		{
			name:    "no symbols",
			check:   `{"score": 0, "action": "no action", "symbols": {}}`,
			wantErr: true,
		},
		{
			name:    "skipped",
			check:   `{"is_skipped": true, "score": 0, "action": "no action"}`,
			wantErr: true,
		},
		{
			name:    "garbage",
			check:   `not json`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs, _ := newTestRspamd(t, tt.check)

			result := rs.Check(context.Background(), []byte(MAIL))
			if tt.wantErr {
				assert.Error(t, result.Error)
				return
			}
			require.NoError(t, result.Error)
			assert.Equal(t, tt.spam, result.IsSpam)
			assert.Equal(t, tt.score, result.Score)
			assert.Equal(t, tt.spam, result.Report != nil)
		})
	}
}

func TestLearn(t *testing.T) {
	rs, fc := newTestRspamd(t, "")

	require.NoError(t, rs.Learn(context.Background(), domain.LearnSpam, []byte(plainMail)))
	require.NoError(t, rs.Learn(context.Background(), domain.LearnHam, []byte(plainMail)))
	assert.Equal(t, []byte(plainMail), fc.learned["/learnspam"])
	assert.Equal(t, []byte(plainMail), fc.learned["/learnham"])

	assert.Error(t, rs.Learn(context.Background(), domain.LearnType("other"), []byte(plainMail)))
}

func TestWrongPassword(t *testing.T) {
	rs, _ := newTestRspamd(t, "")
	rs.password = "wrong"

	result := rs.Check(context.Background(), []byte(MAIL))
	assert.ErrorContains(t, result.Error, "unexpected status 403")
}
