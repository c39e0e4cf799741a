// SPDX-License-Identifier: GPL-3.0-or-later
package mail

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMaildirFlags(t *testing.T) {
	tests := []struct {
		filename string
		flags    string
		ok       bool
	}{
		{"/mail/cur/123.host:2,FS", "FS", true},
		{"/mail/cur/123.host:2,", "", true},
		{"/mail/new/123.host", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.filename, func(t *testing.T) {
			flags, ok := MaildirFlags(tc.filename)
			assert.Equal(t, tc.flags, flags)
			assert.Equal(t, tc.ok, ok)
		})
	}
}

func TestTagsFromFlags(t *testing.T) {
	add, remove, ok := TagsFromFlags([]string{"/mail/cur/1:2,RS", "/mail/cur/2:2,F"})
	assert.True(t, ok)
	assert.Equal(t, []string{"flagged", "replied"}, add)
	assert.Equal(t, []string{"draft", "passed", "unread"}, remove)

	add, _, ok = TagsFromFlags([]string{"/mail/new/1"})
	assert.True(t, ok)
	assert.Equal(t, []string{"unread"}, add)

	_, _, ok = TagsFromFlags([]string{"/mail/archive/1"})
	assert.False(t, ok)
}

func TestFlagsFromTags(t *testing.T) {
	assert.Equal(t, "S", FlagsFromTags([]string{"inbox"}, ""))
	assert.Equal(t, "", FlagsFromTags([]string{"inbox", "unread"}, "S"))
	assert.Equal(t, "FRST", FlagsFromTags([]string{"flagged", "replied"}, "T"))
}

func TestWithFlags(t *testing.T) {
	assert.Equal(t, "/mail/cur/1.host:2,S", WithFlags("/mail/new/1.host", "S"))
	assert.Equal(t, "/mail/cur/1.host:2,FS", WithFlags("/mail/cur/1.host:2,S", "FS"))
}

func TestHasMaildirFlag(t *testing.T) {
	assert.True(t, HasMaildirFlag([]string{"/m/cur/1:2,S", "/m/cur/2:2,F"}, 'F'))
	assert.False(t, HasMaildirFlag([]string{"/m/cur/1:2,S"}, 'D'))
}

func TestFlagsFromImap(t *testing.T) {
	assert.Equal(t, "", FlagsFromImap(nil))
	assert.Equal(t, "FRS", FlagsFromImap([]string{`\Seen`, `\Answered`, "$Junk", `\Flagged`, `\Seen`}))
	assert.Equal(t, "DT", FlagsFromImap([]string{`\Deleted`, `\Draft`, `\Recent`}))
}

func TestDeliveryName(t *testing.T) {
	date := time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "1614600000.INBOX_7_42.mail\\072host\\057x", DeliveryName(date, "INBOX_7_42", "mail:host/x"))
}
