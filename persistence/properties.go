// SPDX-License-Identifier: GPL-3.0-or-later
package persistence

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

type Property struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

// hasPrefix is a case sensitive prefix match on column; it takes the prefix
// twice as arguments.
func hasPrefix(column string) string {
	return `substr(` + column + `, 1, length(?)) = ?`
}

// Properties returns the properties of a message with the given key, or with
// keys starting with key if exact is false, in insertion order.
func (p *Persistence) Properties(id, key string, exact bool) ([]Property, error) {
	qry := `SELECT key, value FROM properties WHERE message_id = ? AND key = ? ORDER BY seq`
	args := []interface{}{id, key}
	if !exact {
		qry = `SELECT key, value FROM properties WHERE message_id = ? AND ` + hasPrefix("key") + ` ORDER BY seq`
		args = append(args, key)
	}

	props := []Property{}
	err := sqlx.Select(p.ext(), &props, qry, args...)
	if err != nil {
		return nil, fmt.Errorf("could not query properties: %w", err)
	}
	return props, nil
}

func (p *Persistence) AddProperty(id, key, value string) error {
	_, err := p.ext().Exec(`INSERT OR IGNORE INTO properties (message_id, key, value) VALUES (?, ?, ?)`, id, key, value)
	if err != nil {
		return fmt.Errorf("could not add property: %w", err)
	}
	return nil
}

func (p *Persistence) RemoveProperty(id, key, value string) error {
	_, err := p.ext().Exec(`DELETE FROM properties WHERE message_id = ? AND key = ? AND value = ?`, id, key, value)
	if err != nil {
		return fmt.Errorf("could not remove property: %w", err)
	}
	return nil
}

// RemoveProperties removes all values of key, or every property if key is
// empty.
func (p *Persistence) RemoveProperties(id, key string) error {
	var err error
	if key == "" {
		_, err = p.ext().Exec(`DELETE FROM properties WHERE message_id = ?`, id)
	} else {
		_, err = p.ext().Exec(`DELETE FROM properties WHERE message_id = ? AND key = ?`, id, key)
	}
	if err != nil {
		return fmt.Errorf("could not remove properties: %w", err)
	}
	return nil
}

func (p *Persistence) RemovePropertiesWithPrefix(id, prefix string) error {
	_, err := p.ext().Exec(`DELETE FROM properties WHERE message_id = ? AND `+hasPrefix("key"), id, prefix, prefix)
	if err != nil {
		return fmt.Errorf("could not remove properties: %w", err)
	}
	return nil
}
