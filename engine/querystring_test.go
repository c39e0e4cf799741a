// SPDX-License-Identifier: GPL-3.0-or-later
package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		name string
		qs   string
		sql  string
		args []interface{}
		tags []string
	}{
		{
			name: "empty",
			qs:   "  ",
			sql:  "1",
		},
		{
			name: "all",
			qs:   "*",
			sql:  "1",
		},
		{
			name: "tag",
			qs:   "tag:inbox",
			sql:  "EXISTS (SELECT 1 FROM tags t WHERE t.message_id = m.id AND t.tag = ?)",
			args: []interface{}{"inbox"},
			tags: []string{"inbox"},
		},
		{
			name: "id strips brackets",
			qs:   "id:<one@example.com>",
			sql:  "m.id = ?",
			args: []interface{}{"one@example.com"},
		},
		{
			name: "implicit and",
			qs:   "from:alice subject:hello",
			sql:  `(m.sender LIKE ? ESCAPE '\' AND m.subject LIKE ? ESCAPE '\')`,
			args: []interface{}{"%alice%", "%hello%"},
		},
		{
			name: "or binds looser than and",
			qs:   "thread:a or thread:b and thread:c",
			sql:  "(m.thread_id = ? OR (m.thread_id = ? AND m.thread_id = ?))",
			args: []interface{}{"a", "b", "c"},
		},
		{
			name: "negation",
			qs:   "-thread:a",
			sql:  "NOT (m.thread_id = ?)",
			args: []interface{}{"a"},
		},
		{
			name: "not keyword and parentheses",
			qs:   "NOT (thread:a OR thread:b)",
			sql:  "NOT ((m.thread_id = ? OR m.thread_id = ?))",
			args: []interface{}{"a", "b"},
		},
		{
			name: "quoted phrase",
			qs:   `subject:"50% off_now"`,
			sql:  `m.subject LIKE ? ESCAPE '\'`,
			args: []interface{}{`%50\% off\_now%`},
		},
		{
			name: "hyphen inside a word",
			qs:   "subject:re-send",
			sql:  `m.subject LIKE ? ESCAPE '\'`,
			args: []interface{}{"%re-send%"},
		},
		{
			name: "unknown prefix is text",
			qs:   "re:foo",
			sql:  `(m.subject LIKE ? ESCAPE '\' OR m.sender LIKE ? ESCAPE '\')`,
			args: []interface{}{"%re:foo%", "%re:foo%"},
		},
		{
			name: "recursive path",
			qs:   "path:Archive/**",
			sql:  "EXISTS (SELECT 1 FROM filenames f WHERE f.message_id = m.id AND (f.directory = ? OR substr(f.directory, 1, ?) = ?))",
			args: []interface{}{"Archive", 8, "Archive/"},
		},
		{
			name: "folder",
			qs:   "folder:INBOX",
			sql:  "EXISTS (SELECT 1 FROM filenames f WHERE f.message_id = m.id AND f.directory IN (?, ?, ?))",
			args: []interface{}{"INBOX", "INBOX/cur", "INBOX/new"},
		},
		{
			name: "property",
			qs:   "property:imap.uid=INBOX/1/2",
			sql:  "EXISTS (SELECT 1 FROM properties p WHERE p.message_id = m.id AND p.key = ? AND p.value = ?)",
			args: []interface{}{"imap.uid", "INBOX/1/2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := compile(tt.qs)
			require.NoError(t, err)
			assert.Equal(t, tt.sql, c.sql)
			assert.Equal(t, tt.args, c.args)
			assert.ElementsMatch(t, tt.tags, c.tags)
		})
	}
}

func TestCompileSyntaxErrors(t *testing.T) {
	for _, qs := range []string{
		"(tag:inbox",
		"tag:inbox)",
		`subject:"open`,
		"tag:",
		"tag:a and",
		"or tag:a",
		"-",
		"property:novalue",
	} {
		t.Run(qs, func(t *testing.T) {
			_, err := compile(qs)
			assert.True(t, errors.Is(err, ErrQuerySyntax), "got %v", err)
		})
	}
}
