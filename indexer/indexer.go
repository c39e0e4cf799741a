// SPDX-License-Identifier: GPL-3.0-or-later

// Package indexer brings the index in line with the mail on disk: it adds
// new files and drops the ones that disappeared.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	notmuch "github.com/CrawX/go-notmuch"
	"github.com/CrawX/go-notmuch/log"

	"github.com/sirupsen/logrus"
)

// Stats counts what one run did.
type Stats struct {
	Directories int
	Unchanged   int
	Added       int
	Duplicates  int
	Removed     int
	Ignored     int
}

type Indexer struct {
	db *notmuch.Database

	configuration *configuration

	l *logrus.Logger
}

// run is the state of one Run.
type run struct {
	ctx       context.Context
	newTags   []string
	syncFlags bool
	stats     *Stats
}

func NewIndexer(db *notmuch.Database, configFunc ...ConfigFunc) (*Indexer, error) {
	config := &configuration{}
	for _, f := range configFunc {
		err := f(config)
		if err != nil {
			return nil, fmt.Errorf("error applying configuration: %w", err)
		}
	}

	ignore, err := configValues(db, notmuch.ConfigNewIgnore)
	if err != nil {
		return nil, fmt.Errorf("could not read new.ignore: %w", err)
	}
	for _, p := range ignore {
		if err := config.addIgnore(p); err != nil {
			return nil, err
		}
	}

	return &Indexer{
		db:            db,
		configuration: config,
		l:             log.Logger(log.LOG_INDEXER),
	}, nil
}

func configValues(db *notmuch.Database, key notmuch.ConfigKey) ([]string, error) {
	values, err := db.ConfigValues(key)
	if err != nil {
		return nil, err
	}
	defer values.Close()

	return values.Collect()
}

// Run scans the mail root below the database.
func (ix *Indexer) Run(ctx context.Context) (*Stats, error) {
	start := time.Now()

	newTags, err := configValues(ix.db, notmuch.ConfigNewTags)
	if err != nil {
		return nil, fmt.Errorf("could not read new.tags: %w", err)
	}
	syncFlags, err := ix.db.ConfigBool(notmuch.ConfigSyncMaildirFlags)
	if err != nil {
		return nil, fmt.Errorf("could not read maildir.synchronize_flags: %w", err)
	}

	r := &run{ctx: ctx, newTags: newTags, syncFlags: syncFlags, stats: &Stats{}}
	err = ix.scan(r, ix.db.Path(), "")
	if err != nil {
		return r.stats, err
	}

	ix.l.WithFields(logrus.Fields{
		"duration":    time.Since(start),
		"directories": r.stats.Directories,
		"added":       r.stats.Added,
		"removed":     r.stats.Removed,
	}).Info("Finished scan")
	return r.stats, nil
}

// scan updates the directory rel below root, then descends into its
// subdirectories.
func (ix *Indexer) scan(r *run, root, rel string) error {
	if err := r.ctx.Err(); err != nil {
		return err
	}

	abs := filepath.Join(root, filepath.FromSlash(rel))
	l := ix.l.WithField("dir", rel)

	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("could not stat %s: %w", abs, err)
	}
	mtime := info.ModTime().Unix()

	entries, err := os.ReadDir(abs)
	if err != nil {
		return fmt.Errorf("could not read %s: %w", abs, err)
	}

	files := map[string]bool{}
	subdirs := []string{}
	for _, e := range entries {
		name := e.Name()
		childRel := path.Join(rel, name)
		if name == ".notmuch" || ix.configuration.ignored(childRel, name) {
			l.WithField("name", name).Trace("Ignoring")
			continue
		}

		isDir := e.IsDir()
		if e.Type()&os.ModeSymlink != 0 {
			target, err := os.Stat(filepath.Join(abs, name))
			if err != nil {
				l.WithError(err).WithField("name", name).Warn("Skipping broken symlink")
				continue
			}
			isDir = target.IsDir()
		} else if !isDir && !e.Type().IsRegular() {
			continue
		}

		if isDir {
			// tmp holds mail that is still being delivered
			if name != "tmp" {
				subdirs = append(subdirs, name)
			}
		} else {
			files[name] = true
		}
	}

	dir, err := ix.db.Directory(abs)
	if err != nil {
		return fmt.Errorf("could not get directory %s: %w", rel, err)
	}
	if dir != nil {
		defer dir.Close()
	}

	r.stats.Directories++
	if !ix.configuration.FullScan && dir != nil && dir.Mtime() == mtime {
		l.Trace("Directory unchanged")
		r.stats.Unchanged++
	} else {
		err = ix.update(r, abs, dir, files, subdirs, mtime)
		if err != nil {
			return err
		}
	}

	for _, sub := range subdirs {
		err := ix.scan(r, root, path.Join(rel, sub))
		if err != nil {
			return err
		}
	}
	return nil
}

// update reconciles the files directly inside one directory in a single
// atomic section and records the directory's mtime.
func (ix *Indexer) update(r *run, abs string, dir *notmuch.Directory, files map[string]bool, subdirs []string, mtime int64) error {
	indexed := map[string]bool{}
	knownDirs := []string{}
	if dir != nil {
		names, err := collect(dir.ChildFiles())
		if err != nil {
			return fmt.Errorf("could not list indexed files of %s: %w", abs, err)
		}
		for _, n := range names {
			indexed[n] = true
		}

		knownDirs, err = collect(dir.ChildDirectories())
		if err != nil {
			return fmt.Errorf("could not list indexed directories of %s: %w", abs, err)
		}
	}

	added := difference(files, indexed)
	vanished := difference(indexed, files)
	present := map[string]bool{}
	for _, s := range subdirs {
		present[s] = true
	}
	vanishedDirs := []string{}
	for _, d := range knownDirs {
		if !present[d] {
			vanishedDirs = append(vanishedDirs, d)
		}
	}

	l := ix.l.WithFields(logrus.Fields{"dir": abs, "new": len(added), "vanished": len(vanished) + len(vanishedDirs)})
	if ix.configuration.DryRun {
		l.Info("Not updating directory due to dry-run")
		r.stats.Added += len(added)
		r.stats.Removed += len(vanished)
		return nil
	}
	if len(added) > 0 || len(vanished) > 0 || len(vanishedDirs) > 0 {
		l.Debug("Updating directory")
	}

	return ix.db.WithAtomic(func() error {
		for _, name := range vanished {
			err := ix.db.RemoveMessage(filepath.Join(abs, name))
			if err != nil {
				return fmt.Errorf("could not remove %s: %w", name, err)
			}
			r.stats.Removed++
		}
		for _, name := range vanishedDirs {
			err := ix.removeDirectory(r, filepath.Join(abs, name))
			if err != nil {
				return err
			}
		}
		for _, name := range added {
			if err := r.ctx.Err(); err != nil {
				return err
			}
			err := ix.add(r, filepath.Join(abs, name))
			if err != nil {
				return err
			}
		}

		if dir == nil {
			return nil
		}
		return dir.SetMtime(mtime)
	})
}

// add indexes one file. New messages get the new.tags; every message has its
// tags synchronised with the flags of its files.
func (ix *Indexer) add(r *run, filename string) error {
	m, err := ix.db.IndexFile(filename, nil)
	duplicate := errors.Is(err, notmuch.ErrDuplicateMessageID)
	switch {
	case errors.Is(err, notmuch.ErrFileNotEmail):
		ix.l.WithField("file", filename).Info("Ignoring non-mail file")
		r.stats.Ignored++
		return nil
	case duplicate:
		r.stats.Duplicates++
	case err != nil:
		return fmt.Errorf("could not index %s: %w", filename, err)
	default:
		r.stats.Added++
	}
	defer m.Close()

	return m.WithFrozen(func() error {
		if !duplicate {
			for _, t := range r.newTags {
				if err := m.AddTag(t); err != nil {
					return err
				}
			}
		}
		if r.syncFlags {
			return m.MaildirFlagsToTags()
		}
		return nil
	})
}

// removeDirectory drops a directory that is gone from disk together with
// every file and directory recorded below it.
func (ix *Indexer) removeDirectory(r *run, abs string) error {
	dir, err := ix.db.Directory(abs)
	if err != nil {
		return fmt.Errorf("could not get directory %s: %w", abs, err)
	}
	if dir == nil {
		return nil
	}
	defer dir.Close()

	files, err := collect(dir.ChildFiles())
	if err != nil {
		return err
	}
	subdirs, err := collect(dir.ChildDirectories())
	if err != nil {
		return err
	}

	for _, f := range files {
		err := ix.db.RemoveMessage(filepath.Join(abs, f))
		if err != nil {
			return fmt.Errorf("could not remove %s: %w", f, err)
		}
		r.stats.Removed++
	}
	for _, sub := range subdirs {
		err := ix.removeDirectory(r, filepath.Join(abs, sub))
		if err != nil {
			return err
		}
	}

	ix.l.WithField("dir", abs).Debug("Removed vanished directory")
	return dir.Delete()
}

func collect(names *notmuch.Filenames, err error) ([]string, error) {
	if err != nil {
		return nil, err
	}
	defer names.Close()

	return names.Collect()
}

// difference returns the names in a that are not in b, sorted.
func difference(a, b map[string]bool) []string {
	diff := []string{}
	for name := range a {
		if !b[name] {
			diff = append(diff, name)
		}
	}
	sort.Strings(diff)
	return diff
}
