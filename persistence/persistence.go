// SPDX-License-Identifier: GPL-3.0-or-later
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/CrawX/go-notmuch/log"
	"github.com/CrawX/go-notmuch/persistence/migrations"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/sirupsen/logrus"
)

var ErrTxRunning = errors.New("transaction already running")

// Persistence is the sqlite store behind one index. It is not safe for
// concurrent use; the caller serialises access.
type Persistence struct {
	db *sqlx.DB
	tx *sqlx.Tx
	l  *logrus.Logger

	datasource string
}

func NewPersistence(datasource string) (*Persistence, error) {
	db, err := sqlx.Connect("sqlite3", datasource)
	if err != nil {
		return nil, fmt.Errorf("could not open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	l := log.Logger(log.LOG_PERSISTENCE)
	l.WithField("file", datasource).Debug("Connected")

	migrationSource := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrations.FS,
		Root:       migrations.Root,
	}

	_, err = db.Exec(`PRAGMA journal_mode=WAL`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not set journal mode: %w", err)
	}
	_, err = db.Exec(`PRAGMA synchronous=normal`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not set synchronous mode: %w", err)
	}

	appliedMigrations, err := migrate.Exec(db.DB, "sqlite3", migrationSource, migrate.Up)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not migrate to newest version: %w", err)
	}

	l.WithField("migrations", appliedMigrations).Debug("Executed migrations")

	return &Persistence{
		db:         db,
		l:          l,
		datasource: datasource,
	}, nil
}

func (p *Persistence) Close() error {
	if p.tx != nil {
		err := txEnd(p.tx, errors.New("closed with open transaction"))
		p.tx = nil
		p.l.WithField("error", err).Warn("Rolled back open transaction")
	}

	err := p.db.Close()
	if err != nil {
		return fmt.Errorf("could not close db: %w", err)
	}
	p.l.WithField("file", p.datasource).Debug("Disconnected")
	return nil
}

// ext runs statements inside the open transaction, if there is one.
func (p *Persistence) ext() sqlx.Ext {
	if p.tx != nil {
		return p.tx
	}
	return p.db
}

func (p *Persistence) Begin() error {
	if p.tx != nil {
		return ErrTxRunning
	}
	tx, err := p.db.Beginx()
	if err != nil {
		return fmt.Errorf("could not start transaction: %w", err)
	}
	p.tx = tx
	return nil
}

func (p *Persistence) Commit() error {
	return p.end(nil)
}

func (p *Persistence) Rollback() error {
	return p.end(errRollback)
}

var errRollback = errors.New("rolled back")

// end commits the open transaction if err is nil and rolls it back otherwise.
func (p *Persistence) end(err error) error {
	if p.tx == nil {
		return err
	}
	tx := p.tx
	p.tx = nil
	err = txEnd(tx, err)
	if errors.Is(err, errRollback) {
		return nil
	}
	return err
}

func (p *Persistence) InTx() bool {
	return p.tx != nil
}

// inTx runs f atomically, joining the open transaction if there is one.
func (p *Persistence) inTx(f func() error) error {
	if p.tx != nil {
		return f()
	}
	err := p.Begin()
	if err != nil {
		return err
	}
	return p.end(f())
}

func (p *Persistence) Meta(key string) (string, error) {
	var value string
	err := sqlx.Get(p.ext(), &value, `SELECT value FROM metadata WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("could not query metadata: %w", err)
	}
	return value, nil
}

func (p *Persistence) SetMeta(key, value string) error {
	_, err := p.ext().Exec(`INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)`, key, value)
	if err != nil {
		return fmt.Errorf("could not save metadata: %w", err)
	}
	return nil
}

// NextCounter increments the numeric metadata entry key and returns the new
// value.
func (p *Persistence) NextCounter(key string) (uint64, error) {
	var next uint64
	err := p.inTx(func() error {
		current, err := p.Counter(key)
		if err != nil {
			return err
		}
		next = current + 1
		return p.SetMeta(key, strconv.FormatUint(next, 10))
	})
	return next, err
}

func (p *Persistence) Counter(key string) (uint64, error) {
	value, err := p.Meta(key)
	if err != nil || value == "" {
		return 0, err
	}
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("could not parse counter %s: %w", key, err)
	}
	return n, nil
}

func txEnd(tx *sqlx.Tx, err error) error {
	if err == nil {
		err = tx.Commit()
		if err != nil {
			return fmt.Errorf("could not commit tx: %w", err)
		}
	} else {
		rollbackErr := tx.Rollback()
		if rollbackErr != nil {
			errStr := err.Error()
			return fmt.Errorf("%s, could not rollback tx: %w", errStr, rollbackErr)
		} else {
			return err
		}
	}

	return nil
}
