// SPDX-License-Identifier: GPL-3.0-or-later
package imapconnection

import (
	"fmt"
	"io"

	"github.com/CrawX/go-notmuch/domain"
	"github.com/CrawX/go-notmuch/log"
	"github.com/CrawX/go-notmuch/mail"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/sirupsen/logrus"
)

// ImapConnection reads mail over a TLS imap connection. Folders are selected
// read-only and bodies are fetched with BODY.PEEK, so the server's \Seen
// flags stay untouched.
type ImapConnection struct {
	connection *client.Client

	selectedFolder string

	l *logrus.Logger
}

var _ domain.ImapConnector = (*ImapConnection)(nil)

type ConfigFunc func(c *configuration) error

type configuration struct {
	insecure bool
}

// Insecure connects without TLS, for servers on localhost.
func Insecure() ConfigFunc {
	return func(c *configuration) error {
		c.insecure = true
		return nil
	}
}

func NewImapConnection(server string, user string, password string, configFuncs ...ConfigFunc) (*ImapConnection, error) {
	config := &configuration{}
	for _, f := range configFuncs {
		err := f(config)
		if err != nil {
			return nil, fmt.Errorf("error applying configuration: %w", err)
		}
	}

	var (
		imapClient *client.Client
		err        error
	)
	if config.insecure {
		imapClient, err = client.Dial(server)
	} else {
		imapClient, err = client.DialTLS(server, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("could not dial to imap: %w", err)
	}

	err = imapClient.Login(user, password)
	if err != nil {
		return nil, fmt.Errorf("could not login to imap: %w", err)
	}

	conn := &ImapConnection{
		connection: imapClient,
		l:          log.Logger(log.LOG_IMAP),
	}
	conn.l.WithFields(logrus.Fields{"server": server, "user": user}).Debug("Logged in to server")

	return conn, nil
}

func (ic *ImapConnection) ListFolders() ([]string, error) {
	mailboxes := make(chan *imap.MailboxInfo, 10)
	done := make(chan error, 1)
	go func() {
		done <- ic.connection.List("", "*", mailboxes)
	}()

	folders := []string{}
	for m := range mailboxes {
		if hasAttribute(m.Attributes, imap.NoSelectAttr) {
			continue
		}
		folders = append(folders, m.Name)
	}

	err := <-done
	if err != nil {
		return nil, fmt.Errorf("could not list folders: %w", err)
	}

	return folders, nil
}

func hasAttribute(attributes []string, attribute string) bool {
	for _, a := range attributes {
		if a == attribute {
			return true
		}
	}
	return false
}

func (ic *ImapConnection) Select(folder string) (uint32, error) {
	m, err := ic.connection.Select(folder, true)
	if err != nil {
		return 0, fmt.Errorf("could not select folder: %w", err)
	}

	ic.selectedFolder = folder
	ic.l.WithFields(logrus.Fields{"folder": folder, "messages": m.Messages, "uidvalidity": m.UidValidity}).Debug("Selected folder")
	return m.UidValidity, nil
}

func (ic *ImapConnection) ListUids() ([]uint32, error) {
	// empty criteria match every mail
	criteria := imap.NewSearchCriteria()
	ids, err := ic.connection.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("could not list folder %s: %w", ic.selectedFolder, err)
	}

	return ids, nil
}

func (ic *ImapConnection) FetchMails(uids []uint32) ([]*domain.RawImapMail, error) {
	seqset := &imap.SeqSet{}
	seqset.AddNum(uids...)

	messages := make(chan *imap.Message, 10)
	fullBodySection := &imap.BodySectionName{
		Peek: true,
	}

	fetchItems := []imap.FetchItem{
		imap.FetchUid,
		imap.FetchFlags,
		imap.FetchInternalDate,
		fullBodySection.FetchItem(),
	}
	done := make(chan error, 1)
	go func() {
		done <- ic.connection.UidFetch(seqset, fetchItems, messages)
	}()

	mails := []*domain.RawImapMail{}
	var readErr error
	for msg := range messages {
		// keep draining so the fetch can finish
		if readErr != nil {
			continue
		}

		r := msg.GetBody(fullBodySection)
		if r == nil {
			readErr = fmt.Errorf("server returned no body for uid %d", msg.Uid)
			continue
		}
		rawBody, err := io.ReadAll(r)
		if err != nil {
			readErr = fmt.Errorf("could not read mail body: %w", err)
			continue
		}

		h, err := mail.ParseHeaders(rawBody)
		if err != nil {
			readErr = fmt.Errorf("could not parse headers of uid %d: %w", msg.Uid, err)
			continue
		}

		mails = append(
			mails,
			&domain.RawImapMail{
				Uid:          msg.Uid,
				Flags:        msg.Flags,
				InternalDate: msg.InternalDate,
				Subject:      h.Subject,
				MessageID:    h.MessageID,
				RawMail:      rawBody,
			},
		)
	}

	err := <-done
	if err != nil {
		return nil, fmt.Errorf("could not fetch mails: %w", err)
	}
	if readErr != nil {
		return nil, readErr
	}

	return mails, nil
}

func (ic *ImapConnection) FetchIdHeaders(uids []uint32) ([]*domain.ImapIdInfo, error) {
	seqset := &imap.SeqSet{}
	seqset.AddNum(uids...)
	section := &imap.BodySectionName{
		BodyPartName: imap.BodyPartName{
			Specifier: imap.HeaderSpecifier,
			Fields: []string{
				"Message-Id",
				"Subject",
				"Date",
			},
		},
		Peek: true,
	}
	fetchItems := []imap.FetchItem{imap.FetchUid, section.FetchItem()}

	out := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- ic.connection.UidFetch(seqset, fetchItems, out)
	}()

	results := []*domain.ImapIdInfo{}
	var readErr error
	for msg := range out {
		if readErr != nil {
			continue
		}

		r := msg.GetBody(section)
		if r == nil {
			readErr = fmt.Errorf("server returned no headers for uid %d", msg.Uid)
			continue
		}
		rawHeaders, err := io.ReadAll(r)
		if err != nil {
			readErr = fmt.Errorf("could not read mail headers: %w", err)
			continue
		}

		h, err := mail.ParseHeaders(rawHeaders)
		if err != nil {
			readErr = fmt.Errorf("could not parse headers of uid %d: %w", msg.Uid, err)
			continue
		}

		results = append(
			results,
			&domain.ImapIdInfo{
				Uid:       msg.Uid,
				Subject:   h.Subject,
				MessageID: h.MessageID,
			},
		)
	}

	err := <-done
	if err != nil {
		return nil, fmt.Errorf("could not fetch mail headers: %w", err)
	}
	if readErr != nil {
		return nil, readErr
	}

	return results, nil
}

func (ic *ImapConnection) Close() error {
	return ic.connection.Logout()
}
