// SPDX-License-Identifier: GPL-3.0-or-later
package persistence

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type ConfigEntry struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

// Config returns the stored value of key and whether it is set.
func (p *Persistence) Config(key string) (string, bool, error) {
	var value string
	err := sqlx.Get(p.ext(), &value, `SELECT value FROM config WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("could not query config: %w", err)
	}
	return value, true, nil
}

func (p *Persistence) SetConfig(key, value string) error {
	_, err := p.ext().Exec(`INSERT OR REPLACE INTO config (key, value) VALUES (?, ?)`, key, value)
	if err != nil {
		return fmt.Errorf("could not save config: %w", err)
	}
	return nil
}

// ConfigWithPrefix returns the stored entries whose key starts with prefix,
// sorted by key.
func (p *Persistence) ConfigWithPrefix(prefix string) ([]ConfigEntry, error) {
	entries := []ConfigEntry{}
	err := sqlx.Select(p.ext(), &entries, `SELECT key, value FROM config WHERE `+hasPrefix("key")+` ORDER BY key`, prefix, prefix)
	if err != nil {
		return nil, fmt.Errorf("could not query config: %w", err)
	}
	return entries, nil
}

// Vacuum rebuilds the database file, first writing a copy to backup unless
// backup is empty.
func (p *Persistence) Vacuum(backup string) error {
	if backup != "" {
		_, err := p.db.Exec(`VACUUM INTO ?`, backup)
		if err != nil {
			return fmt.Errorf("could not write backup: %w", err)
		}
	}
	_, err := p.db.Exec(`VACUUM`)
	if err != nil {
		return fmt.Errorf("could not vacuum: %w", err)
	}
	return nil
}
