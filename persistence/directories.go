// SPDX-License-Identifier: GPL-3.0-or-later
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"path"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// Directory paths are relative to the mail root, using forward slashes. The
// root itself is "".

type Directory struct {
	Path  string `db:"path"`
	Mtime int64  `db:"mtime"`
}

func parentDir(dir string) string {
	parent := path.Dir(dir)
	if parent == "." || parent == "/" {
		return ""
	}
	return parent
}

// Directory returns the directory record for dir, or nil.
func (p *Persistence) Directory(dir string) (*Directory, error) {
	d := &Directory{}
	err := sqlx.Get(p.ext(), d, `SELECT path, mtime FROM directories WHERE path = ?`, dir)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not query directory: %w", err)
	}
	return d, nil
}

// EnsureDirectory creates records for dir and all its ancestors.
func (p *Persistence) EnsureDirectory(dir string) error {
	return p.inTx(func() error {
		for {
			_, err := p.ext().Exec(`INSERT OR IGNORE INTO directories (path, mtime) VALUES (?, 0)`, dir)
			if err != nil {
				return fmt.Errorf("could not create directory: %w", err)
			}
			if dir == "" {
				return nil
			}
			dir = parentDir(dir)
		}
	})
}

func (p *Persistence) SetMtime(dir string, mtime int64) error {
	_, err := p.ext().Exec(`UPDATE directories SET mtime = ? WHERE path = ?`, mtime, dir)
	if err != nil {
		return fmt.Errorf("could not set mtime: %w", err)
	}
	p.l.WithFields(logrus.Fields{"path": dir, "mtime": mtime}).Trace("Set mtime")
	return nil
}

// ChildDirectories returns the base names of the direct subdirectories of
// dir, sorted.
func (p *Persistence) ChildDirectories(dir string) ([]string, error) {
	all := []string{}
	err := sqlx.Select(p.ext(), &all, `SELECT path FROM directories WHERE path != ''`)
	if err != nil {
		return nil, fmt.Errorf("could not query directories: %w", err)
	}

	children := []string{}
	for _, d := range all {
		if parentDir(d) == dir {
			children = append(children, path.Base(d))
		}
	}
	sort.Strings(children)
	return children, nil
}

func (p *Persistence) DeleteDirectory(dir string) error {
	_, err := p.ext().Exec(`DELETE FROM directories WHERE path = ?`, dir)
	if err != nil {
		return fmt.Errorf("could not delete directory: %w", err)
	}
	return nil
}
