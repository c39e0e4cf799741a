// SPDX-License-Identifier: GPL-3.0-or-later
package engine

import (
	"errors"
	"fmt"
	"os"

	"github.com/CrawX/go-notmuch/mail"
	"github.com/CrawX/go-notmuch/native"
	"github.com/CrawX/go-notmuch/persistence"

	"github.com/sirupsen/logrus"
)

// index adds the file rel to the index and returns the id of its message.
// A file of an already indexed message is attached to it and reported as
// native.StatusDuplicateMessageID.
func (d *database) index(rel string) (string, native.Status) {
	raw, err := os.ReadFile(d.abs(rel))
	if err != nil {
		return "", d.fail(native.StatusFileError, "Error opening %s: %v", rel, err)
	}
	h, err := mail.ParseHeaders(raw)
	if errors.Is(err, mail.ErrNotEmail) {
		return "", d.fail(native.StatusFileNotEmail, "%s is not an email: %v", rel, err)
	}
	if err != nil {
		return "", d.fail(native.StatusFileError, "Error reading %s: %v", rel, err)
	}

	l := d.l.WithFields(logrus.Fields{"file": rel, "id": h.MessageID})

	duplicate := false
	st := d.write(func() error {
		existing, err := d.store.Message(h.MessageID)
		if err != nil {
			return err
		}
		if existing != nil && !existing.Ghost {
			duplicate = true
			return d.store.AddFilename(rel, relDir(rel), h.MessageID)
		}

		threadID, err := d.thread(h, existing)
		if err != nil {
			return err
		}

		related := h.Related()
		for _, id := range related {
			ref, err := d.store.Message(id)
			if err != nil {
				return err
			}
			if ref != nil {
				continue
			}
			err = d.store.SaveMessage(&persistence.Message{ID: id, ThreadID: threadID, Ghost: true}, nil)
			if err != nil {
				return err
			}
		}

		err = d.store.SaveMessage(&persistence.Message{
			ID:       h.MessageID,
			ThreadID: threadID,
			Subject:  h.Subject,
			Sender:   h.From,
			Author:   h.Author,
			Date:     h.Date.Unix(),
			Parent:   h.Parent(),
		}, related)
		if err != nil {
			return err
		}
		err = d.store.EnsureDirectory(relDir(rel))
		if err != nil {
			return err
		}
		return d.store.AddFilename(rel, relDir(rel), h.MessageID)
	})
	if st != native.StatusSuccess {
		return "", st
	}

	if duplicate {
		l.Debug("Added file to existing message")
		return h.MessageID, native.StatusDuplicateMessageID
	}
	l.Debug("Indexed message")
	return h.MessageID, native.StatusSuccess
}

// thread picks the thread of a new message: the one its ghost already sits
// in, else the threads of the messages it refers to, merged into one.
func (d *database) thread(h *mail.Headers, ghost *persistence.Message) (string, error) {
	ids := h.Related()
	if ghost != nil {
		ids = append(ids, ghost.ID)
	}

	threads, err := d.store.ThreadIDs(ids)
	if err != nil {
		return "", err
	}
	if len(threads) > 0 {
		err = d.store.MergeThreads(threads[0], threads[1:])
		return threads[0], err
	}

	n, err := d.store.NextCounter(metaThread)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", n), nil
}
