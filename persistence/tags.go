// SPDX-License-Identifier: GPL-3.0-or-later
package persistence

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Tags returns the tags of a message, sorted.
func (p *Persistence) Tags(id string) ([]string, error) {
	tags := []string{}
	err := sqlx.Select(p.ext(), &tags, `SELECT tag FROM tags WHERE message_id = ? ORDER BY tag`, id)
	if err != nil {
		return nil, fmt.Errorf("could not query tags: %w", err)
	}
	return tags, nil
}

// ThreadTags returns the union of the tags of a thread's messages, sorted.
func (p *Persistence) ThreadTags(threadID string) ([]string, error) {
	tags := []string{}
	err := sqlx.Select(
		p.ext(),
		&tags,
		`SELECT DISTINCT t.tag FROM tags t JOIN messages m ON m.id = t.message_id WHERE m.thread_id = ? AND m.ghost = 0 ORDER BY t.tag`,
		threadID,
	)
	if err != nil {
		return nil, fmt.Errorf("could not query thread tags: %w", err)
	}
	return tags, nil
}

// AllTags returns every tag in use, sorted.
func (p *Persistence) AllTags() ([]string, error) {
	tags := []string{}
	err := sqlx.Select(p.ext(), &tags, `SELECT DISTINCT tag FROM tags ORDER BY tag`)
	if err != nil {
		return nil, fmt.Errorf("could not query tags: %w", err)
	}
	return tags, nil
}

func (p *Persistence) AddTag(id, tag string) error {
	_, err := p.ext().Exec(`INSERT OR IGNORE INTO tags (message_id, tag) VALUES (?, ?)`, id, tag)
	if err != nil {
		return fmt.Errorf("could not add tag: %w", err)
	}
	return nil
}

func (p *Persistence) RemoveTag(id, tag string) error {
	_, err := p.ext().Exec(`DELETE FROM tags WHERE message_id = ? AND tag = ?`, id, tag)
	if err != nil {
		return fmt.Errorf("could not remove tag: %w", err)
	}
	return nil
}

// SetTags replaces all tags of a message.
func (p *Persistence) SetTags(id string, tags []string) error {
	return p.inTx(func() error {
		_, err := p.ext().Exec(`DELETE FROM tags WHERE message_id = ?`, id)
		if err != nil {
			return fmt.Errorf("could not clear tags: %w", err)
		}
		for _, tag := range tags {
			err = p.AddTag(id, tag)
			if err != nil {
				return err
			}
		}
		return nil
	})
}
