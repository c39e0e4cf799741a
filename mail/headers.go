// SPDX-License-Identifier: GPL-3.0-or-later
package mail

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-message"
	gomail "github.com/emersion/go-message/mail"
	"github.com/emersion/go-message/textproto"
)

var ErrNotEmail = errors.New("not an email")

// Headers holds the header fields the index cares about, decoded.
type Headers struct {
	MessageID  string
	InReplyTo  []string
	References []string
	From       string
	Author     string
	Subject    string
	Date       time.Time

	header gomail.Header
}

// identifying fields; a file carrying none of them is not treated as mail
var mailFields = []string{"From", "Subject", "Message-Id", "Date", "To", "Received"}

// ParseHeaders reads the header block of rawMail. Mails without a Message-Id
// get one derived from a hash of the whole file.
func ParseHeaders(rawMail []byte) (*Headers, error) {
	th, err := textproto.ReadHeader(bufio.NewReader(bytes.NewReader(rawMail)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotEmail, err)
	}

	found := false
	for _, f := range mailFields {
		if th.Has(f) {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: no mail header fields", ErrNotEmail)
	}

	h := &Headers{header: gomail.Header{Header: message.Header{Header: th}}}

	h.MessageID, err = h.header.MessageID()
	if err != nil || h.MessageID == "" {
		h.MessageID = fmt.Sprintf("notmuch-sha1-%x", sha1.Sum(rawMail))
	}

	h.InReplyTo, _ = h.header.MsgIDList("In-Reply-To")
	h.References, _ = h.header.MsgIDList("References")

	h.Subject, err = h.header.Subject()
	if err != nil {
		h.Subject = th.Get("Subject")
	}

	h.From = h.Text("From")
	h.Author = h.From
	if addrs, err := h.header.AddressList("From"); err == nil && len(addrs) > 0 {
		h.Author = addrs[0].Name
		if h.Author == "" {
			h.Author = addrs[0].Address
		}
	}

	if date, err := h.header.Date(); err == nil {
		h.Date = date
	}

	return h, nil
}

// Parent is the id of the message this one replies to: In-Reply-To if set,
// otherwise the last entry of References.
func (h *Headers) Parent() string {
	if len(h.InReplyTo) > 0 {
		return h.InReplyTo[0]
	}
	if len(h.References) > 0 {
		return h.References[len(h.References)-1]
	}
	return ""
}

// Related returns every message id this message refers to, without
// duplicates or itself.
func (h *Headers) Related() []string {
	seen := map[string]bool{h.MessageID: true}
	related := []string{}
	for _, ids := range [][]string{h.References, h.InReplyTo} {
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				related = append(related, id)
			}
		}
	}
	return related
}

// Text returns the decoded value of the named header field. Unknown charsets
// fall back to the raw value.
func (h *Headers) Text(name string) string {
	text, err := h.header.Text(name)
	if err != nil {
		return strings.TrimSpace(h.header.Get(name))
	}
	return text
}

// Values returns all raw values of the named header field.
func (h *Headers) Values(name string) []string {
	return h.header.Values(name)
}
