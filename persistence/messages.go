// SPDX-License-Identifier: GPL-3.0-or-later
package persistence

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type Message struct {
	ID       string `db:"id"`
	ThreadID string `db:"thread_id"`
	Subject  string `db:"subject"`
	Sender   string `db:"sender"`
	Author   string `db:"author"`
	Date     int64  `db:"date"`
	Parent   string `db:"parent"`
	Ghost    bool   `db:"ghost"`
}

const messageColumns = `m.id, m.thread_id, m.subject, m.sender, m.author, m.date, m.parent, m.ghost`

// Message returns the message with the given id, ghosts included, or nil.
func (p *Persistence) Message(id string) (*Message, error) {
	m := &Message{}
	err := sqlx.Get(p.ext(), m, `SELECT `+messageColumns+` FROM messages m WHERE m.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not query message: %w", err)
	}
	return m, nil
}

// SaveMessage inserts or replaces m together with the ids it refers to.
func (p *Persistence) SaveMessage(m *Message, refs []string) error {
	return p.inTx(func() error {
		_, err := p.ext().Exec(
			`INSERT OR REPLACE INTO messages (id, thread_id, subject, sender, author, date, parent, ghost) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID, m.ThreadID, m.Subject, m.Sender, m.Author, m.Date, m.Parent, m.Ghost,
		)
		if err != nil {
			return fmt.Errorf("could not save message: %w", err)
		}

		_, err = p.ext().Exec(`DELETE FROM message_refs WHERE message_id = ?`, m.ID)
		if err != nil {
			return fmt.Errorf("could not clear refs: %w", err)
		}
		for _, ref := range refs {
			_, err = p.ext().Exec(`INSERT OR IGNORE INTO message_refs (message_id, ref_id) VALUES (?, ?)`, m.ID, ref)
			if err != nil {
				return fmt.Errorf("could not save ref: %w", err)
			}
		}

		p.l.WithFields(logrus.Fields{"id": m.ID, "thread": m.ThreadID, "ghost": m.Ghost}).Trace("Saved message")
		return nil
	})
}

// ThreadIDs returns the distinct thread ids of the given messages.
func (p *Persistence) ThreadIDs(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	qry, args, err := sqlx.In(`SELECT DISTINCT thread_id FROM messages WHERE id IN (?) ORDER BY thread_id`, ids)
	if err != nil {
		return nil, fmt.Errorf("could not replace IN in query: %w", err)
	}

	threads := []string{}
	err = sqlx.Select(p.ext(), &threads, qry, args...)
	if err != nil {
		return nil, fmt.Errorf("could not query threads: %w", err)
	}
	return threads, nil
}

// MergeThreads moves every message of the threads in from into thread into.
func (p *Persistence) MergeThreads(into string, from []string) error {
	if len(from) == 0 {
		return nil
	}
	qry, args, err := sqlx.In(`UPDATE messages SET thread_id = ? WHERE thread_id IN (?)`, into, from)
	if err != nil {
		return fmt.Errorf("could not replace IN in query: %w", err)
	}
	_, err = p.ext().Exec(qry, args...)
	if err != nil {
		return fmt.Errorf("could not merge threads: %w", err)
	}
	p.l.WithFields(logrus.Fields{"into": into, "from": from}).Debug("Merged threads")
	return nil
}

// DeleteMessage removes a message. Messages still referred to by others stay
// behind as ghosts so the thread structure survives.
func (p *Persistence) DeleteMessage(id string) error {
	return p.inTx(func() error {
		var referenced int
		err := sqlx.Get(p.ext(), &referenced, `SELECT COUNT(*) FROM message_refs WHERE ref_id = ?`, id)
		if err != nil {
			return fmt.Errorf("could not count references: %w", err)
		}

		if referenced > 0 {
			_, err = p.ext().Exec(`UPDATE messages SET ghost = 1, subject = '', sender = '', author = '', date = 0 WHERE id = ?`, id)
		} else {
			_, err = p.ext().Exec(`DELETE FROM messages WHERE id = ?`, id)
		}
		if err != nil {
			return fmt.Errorf("could not delete message: %w", err)
		}

		for _, stmt := range []string{
			`DELETE FROM message_refs WHERE message_id = ?`,
			`DELETE FROM tags WHERE message_id = ?`,
			`DELETE FROM properties WHERE message_id = ?`,
			`DELETE FROM filenames WHERE message_id = ?`,
		} {
			_, err = p.ext().Exec(stmt, id)
			if err != nil {
				return fmt.Errorf("could not delete message data: %w", err)
			}
		}

		p.l.WithFields(logrus.Fields{"id": id, "ghost": referenced > 0}).Debug("Deleted message")
		return nil
	})
}

// Search returns the non-ghost messages matching the where clause. The
// clause refers to the messages table as m.
func (p *Persistence) Search(where string, args []interface{}, order string) ([]*Message, error) {
	messages := []*Message{}
	err := sqlx.Select(
		p.ext(),
		&messages,
		`SELECT `+messageColumns+` FROM messages m WHERE m.ghost = 0 AND (`+where+`) ORDER BY `+order,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("could not search messages: %w", err)
	}
	return messages, nil
}

// ThreadMessages returns the non-ghost messages of a thread, oldest first.
func (p *Persistence) ThreadMessages(threadID string) ([]*Message, error) {
	return p.Search(`m.thread_id = ?`, []interface{}{threadID}, `m.date, m.id`)
}

// Filenames returns the files of a message in the order they were added.
func (p *Persistence) Filenames(id string) ([]string, error) {
	filenames := []string{}
	err := sqlx.Select(p.ext(), &filenames, `SELECT filename FROM filenames WHERE message_id = ? ORDER BY rowid`, id)
	if err != nil {
		return nil, fmt.Errorf("could not query filenames: %w", err)
	}
	return filenames, nil
}

func (p *Persistence) AddFilename(filename, directory, id string) error {
	_, err := p.ext().Exec(
		`INSERT OR REPLACE INTO filenames (filename, directory, message_id) VALUES (?, ?, ?)`,
		filename, directory, id,
	)
	if err != nil {
		return fmt.Errorf("could not save filename: %w", err)
	}
	return nil
}

func (p *Persistence) RemoveFilename(filename string) error {
	_, err := p.ext().Exec(`DELETE FROM filenames WHERE filename = ?`, filename)
	if err != nil {
		return fmt.Errorf("could not remove filename: %w", err)
	}
	return nil
}

// RenameFilename replaces a file name, keeping its position.
func (p *Persistence) RenameFilename(from, to, directory string) error {
	_, err := p.ext().Exec(`UPDATE filenames SET filename = ?, directory = ? WHERE filename = ?`, to, directory, from)
	if err != nil {
		return fmt.Errorf("could not rename filename: %w", err)
	}
	return nil
}

// MessageIDByFilename returns the id of the message stored in filename, or
// "" if the file is not indexed.
func (p *Persistence) MessageIDByFilename(filename string) (string, error) {
	var id string
	err := sqlx.Get(p.ext(), &id, `SELECT message_id FROM filenames WHERE filename = ?`, filename)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("could not query filename: %w", err)
	}
	return id, nil
}

func (p *Persistence) FilesInDirectory(directory string) ([]string, error) {
	filenames := []string{}
	err := sqlx.Select(p.ext(), &filenames, `SELECT filename FROM filenames WHERE directory = ? ORDER BY filename`, directory)
	if err != nil {
		return nil, fmt.Errorf("could not query directory files: %w", err)
	}
	return filenames, nil
}

// ThreadFileCount counts the files of all messages in a thread.
func (p *Persistence) ThreadFileCount(threadID string) (int, error) {
	var count int
	err := sqlx.Get(
		p.ext(),
		&count,
		`SELECT COUNT(*) FROM filenames f JOIN messages m ON m.id = f.message_id WHERE m.thread_id = ? AND m.ghost = 0`,
		threadID,
	)
	if err != nil {
		return 0, fmt.Errorf("could not count thread files: %w", err)
	}
	return count, nil
}
