// SPDX-License-Identifier: GPL-3.0-or-later
package domain

import "time"

//go:generate mockgen -destination=mocks/imap.go -package=mocks . ImapConnector
type RawImapMail struct {
	Uid          uint32
	Flags        []string
	InternalDate time.Time
	Subject      string
	MessageID    string
	RawMail      []byte
}

type ImapIdInfo struct {
	Uid       uint32
	Subject   string
	MessageID string
}

// ImapConnector reads mail from the selected folder of an imap server. It
// never changes the server's state.
type ImapConnector interface {
	ListFolders() ([]string, error)
	Select(folder string) (uint32, error)
	ListUids() ([]uint32, error)
	FetchMails(uids []uint32) ([]*RawImapMail, error)
	FetchIdHeaders(uids []uint32) ([]*ImapIdInfo, error)

	Close() error
}
