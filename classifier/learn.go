// SPDX-License-Identifier: GPL-3.0-or-later
package classifier

import (
	"context"
	"fmt"
	"os"

	notmuch "github.com/CrawX/go-notmuch"
	"github.com/CrawX/go-notmuch/domain"
	"github.com/CrawX/go-notmuch/log"
	"github.com/CrawX/go-notmuch/mail"

	"github.com/sirupsen/logrus"
)

// LearnedTag marks messages the classifier was trained with.
const LearnedTag = "learned"

type LearnStats struct {
	Learned int
	Failed  int
}

type learnCandidate struct {
	id      string
	subject string
	raw     []byte
}

// LearnQuery trains classifier with every message matching query and tags
// the messages it accepted with LearnedTag. Excluded tags do not apply, so a
// query for spam finds spam.
func LearnQuery(ctx context.Context, db *notmuch.Database, classifier domain.ConcurrentSpamClassifier, learnType domain.LearnType, query string, concurrency int) (*LearnStats, error) {
	l := log.Logger(log.LOG_CLASSIFIER).WithFields(logrus.Fields{"query": query, "type": learnType})
	stats := &LearnStats{}

	candidates, err := learnCandidates(db, query, stats)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		l.Info("No mails to learn")
		return stats, nil
	}

	raw := make([][]byte, len(candidates))
	for i, c := range candidates {
		raw[i] = c.raw
	}
	errs := classifier.LearnAll(ctx, learnType, raw, concurrency)

	err = db.WithAtomic(func() error {
		for i, c := range candidates {
			if errs[i] != nil {
				l.WithError(errs[i]).WithField("subject", mail.ShortSubject(c.subject)).Warn("Could not learn mail")
				stats.Failed++
				continue
			}

			m, err := db.FindMessage(c.id)
			if err != nil {
				return err
			}
			if m == nil {
				continue
			}
			err = m.AddTag(LearnedTag)
			m.Close()
			if err != nil {
				return err
			}
			stats.Learned++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not tag learned mails: %w", err)
	}

	l.WithFields(logrus.Fields{"learned": stats.Learned, "failed": stats.Failed}).Info("Learned mails")
	return stats, nil
}

func learnCandidates(db *notmuch.Database, query string, stats *LearnStats) ([]*learnCandidate, error) {
	l := log.Logger(log.LOG_CLASSIFIER)

	q, err := db.CreateQuery(query)
	if err != nil {
		return nil, err
	}
	defer q.Close()
	q.SetOmitExcluded(notmuch.ExcludeFalse)

	messages, err := q.SearchMessages()
	if err != nil {
		return nil, fmt.Errorf("could not search %q: %w", query, err)
	}

	candidates := []*learnCandidate{}
	for {
		m, ok := messages.Next()
		if !ok {
			break
		}

		c, err := readCandidate(m)
		m.Close()
		if err != nil {
			l.WithError(err).Warn("Skipping mail that cannot be read")
			stats.Failed++
			continue
		}
		candidates = append(candidates, c)
	}
	if err := messages.Err(); err != nil {
		return nil, err
	}

	return candidates, nil
}

func readCandidate(m *notmuch.Message) (*learnCandidate, error) {
	filename, err := m.Filename()
	if err != nil {
		return nil, err
	}
	subject, err := m.Header("subject")
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", filename, err)
	}

	return &learnCandidate{id: m.ID(), subject: subject, raw: raw}, nil
}
