// SPDX-License-Identifier: GPL-3.0-or-later

// Package imapsync pulls new mail from imap folders into the maildir of a
// notmuch database and indexes it.
package imapsync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	notmuch "github.com/CrawX/go-notmuch"
	"github.com/CrawX/go-notmuch/domain"
	"github.com/CrawX/go-notmuch/log"
	"github.com/CrawX/go-notmuch/mail"

	"github.com/natefinch/atomic"
	"github.com/sirupsen/logrus"
)

const (
	BatchSize        = 50
	CheckConcurrency = 16

	// UidProperty records where a message was fetched from, as
	// <folder>/<uidvalidity>/<uid>.
	UidProperty = "imap.uid"
	// ScoreProperty holds the classifier score of a message.
	ScoreProperty = "spam.score"
)

// Stats counts what happened to one folder.
type Stats struct {
	Folder    string
	New       int
	Delivered int
	Spam      int
	Remapped  int
}

type Syncer struct {
	db             *notmuch.Database
	imapConnection domain.ImapConnector

	configuration *configuration

	l *logrus.Logger
}

func NewSyncer(db *notmuch.Database, imapConnection domain.ImapConnector, configFunc ...ConfigFunc) (*Syncer, error) {
	config := &configuration{}
	for _, f := range configFunc {
		err := f(config)
		if err != nil {
			return nil, fmt.Errorf("error applying configuration: %w", err)
		}
	}

	if config.Hostname == "" {
		host, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("could not determine hostname: %w", err)
		}
		config.Hostname = host
	}

	return &Syncer{
		db:             db,
		imapConnection: imapConnection,
		configuration:  config,
		l:              log.Logger(log.LOG_SYNC),
	}, nil
}

func uidValidityKey(folder string) string {
	return "imapsync." + folder + ".uidvalidity"
}

func lastUidKey(folder string) string {
	return "imapsync." + folder + ".lastuid"
}

func uidValue(folder string, uidValidity, uid uint32) string {
	return fmt.Sprintf("%s/%d/%d", folder, uidValidity, uid)
}

// Sync fetches the mail of every folder that is not in the database yet.
func (s *Syncer) Sync(ctx context.Context, folders []string) ([]Stats, error) {
	all := []Stats{}
	for _, f := range folders {
		if err := ctx.Err(); err != nil {
			return all, err
		}

		stats, err := s.syncFolder(ctx, f)
		if err != nil {
			return all, fmt.Errorf("could not sync folder %s: %w", f, err)
		}
		all = append(all, *stats)
	}

	return all, nil
}

func (s *Syncer) syncFolder(ctx context.Context, folder string) (*Stats, error) {
	stats := &Stats{Folder: folder}
	l := s.l.WithField("folder", folder)

	uidValidity, err := s.imapConnection.Select(folder)
	if err != nil {
		return nil, fmt.Errorf("could not select folder: %w", err)
	}

	uids, err := s.imapConnection.ListUids()
	if err != nil {
		return nil, fmt.Errorf("could not list uids: %w", err)
	}
	l.WithFields(logrus.Fields{"mails": len(uids), "uidvalidity": uidValidity}).Debug("Listed all uids in folder")

	newUids, remapped, err := s.newMailUids(folder, uidValidity, uids)
	if err != nil {
		return nil, fmt.Errorf("could not determine new mail uids: %w", err)
	}
	stats.New = len(newUids)
	stats.Remapped = remapped

	if len(newUids) == 0 {
		l.Info("Folder contains no new mails")
	} else {
		batches := partitionUids(newUids, BatchSize)
		l.WithFields(logrus.Fields{"newmails": len(newUids), "batches": len(batches)}).Info("Found mails to fetch")

		for _, batch := range batches {
			err = s.syncBatch(ctx, folder, uidValidity, batch, stats)
			if err != nil {
				return nil, err
			}
		}
	}

	if s.configuration.DryRun {
		l.Info("Not saving folder state due to dry-run")
		return stats, nil
	}

	err = s.db.WithAtomic(func() error {
		err := s.db.SetConfig(uidValidityKey(folder), strconv.FormatUint(uint64(uidValidity), 10))
		if err != nil {
			return err
		}
		if len(uids) == 0 {
			return nil
		}
		return s.db.SetConfig(lastUidKey(folder), strconv.FormatUint(uint64(maxUid(uids)), 10))
	})
	if err != nil {
		return nil, fmt.Errorf("could not save folder state: %w", err)
	}

	return stats, nil
}

// newMailUids returns the uids of mails not yet in the database, newest
// first. After a uidvalidity change, mails already indexed are found by
// message id and get their uid property updated.
func (s *Syncer) newMailUids(folder string, uidValidity uint32, uids []uint32) ([]uint32, int, error) {
	l := s.l.WithField("folder", folder)

	stored, err := s.db.Config(uidValidityKey(folder))
	if err != nil {
		return nil, 0, err
	}

	remapped := 0
	candidates := []uint32{}
	switch stored {
	case "":
		l.Debug("Folder is a previously unknown folder, every mail is a candidate")
		candidates = append(candidates, uids...)
	case strconv.FormatUint(uint64(uidValidity), 10):
		lastUid := uint64(0)
		last, err := s.db.Config(lastUidKey(folder))
		if err != nil {
			return nil, 0, err
		}
		if last != "" {
			lastUid, err = strconv.ParseUint(last, 10, 32)
			if err != nil {
				return nil, 0, fmt.Errorf("invalid last uid %q: %w", last, err)
			}
		}
		l.WithField("lastuid", lastUid).Debug("Folder is known and the uid validity hasn't changed, fast uid-based scan is possible")
		for _, uid := range uids {
			if uint64(uid) > lastUid {
				candidates = append(candidates, uid)
			}
		}
	default:
		l.WithFields(logrus.Fields{"old": stored, "new": uidValidity}).Info("Uid validity has changed, matching mails by message id")
		candidates, remapped, err = s.remap(folder, stored, uidValidity, uids)
		if err != nil {
			return nil, 0, err
		}
	}

	newUids := []uint32{}
	for _, uid := range candidates {
		known, err := s.known(folder, uidValidity, uid)
		if err != nil {
			return nil, 0, err
		}
		if !known {
			newUids = append(newUids, uid)
		}
	}

	sort.Slice(newUids, func(i, j int) bool { return newUids[i] > newUids[j] })
	return newUids, remapped, nil
}

// known reports whether a message carries the uid property of uid.
func (s *Syncer) known(folder string, uidValidity, uid uint32) (bool, error) {
	q, err := s.db.CreateQuery(fmt.Sprintf(`property:"%s=%s"`, UidProperty, uidValue(folder, uidValidity, uid)))
	if err != nil {
		return false, err
	}
	defer q.Close()
	q.SetOmitExcluded(notmuch.ExcludeFalse)

	n, err := q.CountMessages()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// remap moves the uid properties of the mails in uids that are already
// indexed to the new uid validity and returns the remaining uids.
func (s *Syncer) remap(folder, oldValidity string, uidValidity uint32, uids []uint32) ([]uint32, int, error) {
	if len(uids) == 0 {
		return uids, 0, nil
	}

	infos, err := s.imapConnection.FetchIdHeaders(uids)
	if err != nil {
		return nil, 0, fmt.Errorf("could not fetch id headers: %w", err)
	}

	rest := map[uint32]bool{}
	for _, uid := range uids {
		rest[uid] = true
	}

	oldPrefix := folder + "/" + oldValidity + "/"
	remapped := 0
	err = s.db.WithAtomic(func() error {
		for _, info := range infos {
			m, err := s.db.FindMessage(info.MessageID)
			if err != nil {
				return err
			}
			if m == nil {
				continue
			}

			err = s.replaceUid(m, oldPrefix, uidValue(folder, uidValidity, info.Uid))
			m.Close()
			if err != nil {
				return err
			}

			s.l.WithFields(logrus.Fields{"folder": folder, "subject": mail.ShortSubject(info.Subject)}).Debug("Is known by message id, updating uid")
			delete(rest, info.Uid)
			remapped++
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	remaining := []uint32{}
	for _, uid := range uids {
		if rest[uid] {
			remaining = append(remaining, uid)
		}
	}
	return remaining, remapped, nil
}

func (s *Syncer) replaceUid(m *notmuch.Message, oldPrefix, value string) error {
	props, err := m.Properties(UidProperty, true)
	if err != nil {
		return err
	}
	stale, err := props.Collect()
	props.Close()
	if err != nil {
		return err
	}

	for _, p := range stale {
		if strings.HasPrefix(p.Value, oldPrefix) {
			if err := m.RemoveProperty(UidProperty, p.Value); err != nil {
				return err
			}
		}
	}
	return m.AddProperty(UidProperty, value)
}

type delivery struct {
	raw    *domain.RawImapMail
	result *domain.SpamResult
	path   string
}

func (s *Syncer) syncBatch(ctx context.Context, folder string, uidValidity uint32, batch []uint32, stats *Stats) error {
	start := time.Now()
	l := s.l.WithFields(logrus.Fields{"folder": folder, "batchsize": len(batch)})

	mails, err := s.imapConnection.FetchMails(batch)
	if err != nil {
		return fmt.Errorf("could not fetch mail batch: %w", err)
	}
	l.WithField("duration", time.Since(start)).Debug("Fetched mail batch")

	deliveries := make([]*delivery, len(mails))
	for i, m := range mails {
		deliveries[i] = &delivery{raw: m}
	}

	if s.configuration.Classifier != nil {
		rawMails := make([][]byte, len(mails))
		for i := range mails {
			rawMails[i] = mails[i].RawMail
		}
		results := s.configuration.Classifier.CheckAll(ctx, rawMails, CheckConcurrency)
		for i, d := range deliveries {
			if results[i].Error != nil {
				return fmt.Errorf(`could not check mail "%s (%v)": %w`, mail.ShortSubject(d.raw.Subject), d.raw.Uid, results[i].Error)
			}
			d.result = results[i]
			l.WithFields(logrus.Fields{"subject": mail.ShortSubject(d.raw.Subject), "isSpam": d.result.IsSpam, "score": d.result.Score}).Debug("Checked mail")
			if d.result.IsSpam {
				stats.Spam++
			}
		}
	}

	if s.configuration.DryRun {
		l.Info("Not delivering mails due to dry-run")
		return nil
	}

	for _, d := range deliveries {
		d.path, err = s.deliver(folder, uidValidity, d.raw)
		if err != nil {
			return err
		}
	}

	err = s.index(folder, uidValidity, deliveries)
	if err != nil {
		return fmt.Errorf("could not index mail batch: %w", err)
	}
	stats.Delivered += len(deliveries)

	l.WithFields(logrus.Fields{"duration": time.Since(start), "spam": stats.Spam}).Info("Synced batch")
	return nil
}

// maildir returns the maildir of folder below the mail root.
func (s *Syncer) maildir(folder string) string {
	rel := strings.TrimPrefix(filepath.Clean("/"+folder), "/")
	return filepath.Join(s.db.Path(), filepath.FromSlash(rel))
}

// deliver writes the mail to tmp/ and moves it to cur/ with its imap flags.
func (s *Syncer) deliver(folder string, uidValidity uint32, m *domain.RawImapMail) (string, error) {
	dir := s.maildir(folder)
	for _, sub := range []string{"tmp", "new", "cur"} {
		err := os.MkdirAll(filepath.Join(dir, sub), 0o700)
		if err != nil {
			return "", fmt.Errorf("could not create maildir: %w", err)
		}
	}

	date := m.InternalDate
	if date.IsZero() {
		date = time.Now()
	}
	name := mail.DeliveryName(date, fmt.Sprintf("U%dV%d", m.Uid, uidValidity), s.configuration.Hostname)

	tmp := filepath.Join(dir, "tmp", name)
	err := atomic.WriteFile(tmp, bytes.NewReader(m.RawMail))
	if err != nil {
		return "", fmt.Errorf("could not write %s: %w", tmp, err)
	}
	cur := filepath.Join(dir, "cur", name+":2,"+mail.FlagsFromImap(m.Flags))
	err = atomic.ReplaceFile(tmp, cur)
	if err != nil {
		return "", fmt.Errorf("could not move %s to cur: %w", tmp, err)
	}

	return cur, nil
}

// index adds the delivered files in one atomic section and tags them.
func (s *Syncer) index(folder string, uidValidity uint32, deliveries []*delivery) error {
	newTags, err := s.newTags()
	if err != nil {
		return err
	}
	syncFlags, err := s.db.ConfigBool(notmuch.ConfigSyncMaildirFlags)
	if err != nil {
		return err
	}

	return s.db.WithAtomic(func() error {
		for _, d := range deliveries {
			m, err := s.db.IndexFile(d.path, nil)
			duplicate := errors.Is(err, notmuch.ErrDuplicateMessageID)
			if err != nil && !duplicate {
				return fmt.Errorf("could not index %s: %w", d.path, err)
			}

			err = m.WithFrozen(func() error {
				tags := []string{}
				if !duplicate {
					tags = append(tags, newTags...)
				}
				if s.configuration.FolderTags {
					tags = append(tags, strings.ToLower(folder))
				}
				for _, t := range tags {
					if err := m.AddTag(t); err != nil {
						return err
					}
				}
				if d.result != nil && d.result.IsSpam {
					if err := m.AddTag(s.configuration.SpamTag); err != nil {
						return err
					}
				}
				if syncFlags {
					return m.MaildirFlagsToTags()
				}
				return nil
			})
			if err == nil {
				err = m.AddProperty(UidProperty, uidValue(folder, uidValidity, d.raw.Uid))
			}
			if err == nil && d.result != nil {
				err = m.AddProperty(ScoreProperty, strconv.FormatFloat(d.result.Score, 'f', 1, 64))
			}
			m.Close()
			if err != nil {
				return fmt.Errorf("could not tag %s: %w", d.path, err)
			}
		}
		return nil
	})
}

// newTags returns the tags for mail that is new to the database. The folder
// tag is added to duplicates as well.
func (s *Syncer) newTags() ([]string, error) {
	values, err := s.db.ConfigValues(notmuch.ConfigNewTags)
	if err != nil {
		return nil, err
	}
	defer values.Close()

	return values.Collect()
}

func maxUid(uids []uint32) uint32 {
	max := uint32(0)
	for _, uid := range uids {
		if uid > max {
			max = uid
		}
	}
	return max
}

func partitionUids(uids []uint32, partitionSize int) [][]uint32 {
	batches := make([][]uint32, 0, (len(uids)+partitionSize-1)/partitionSize)

	for partitionSize < len(uids) {
		uids, batches = uids[partitionSize:], append(batches, uids[0:partitionSize:partitionSize])
	}
	batches = append(batches, uids)

	return batches
}
