// SPDX-License-Identifier: GPL-3.0-or-later
package main

import (
	"errors"
	"fmt"

	notmuch "github.com/CrawX/go-notmuch"
	"github.com/CrawX/go-notmuch/classifier"
	"github.com/CrawX/go-notmuch/domain"
	"github.com/CrawX/go-notmuch/imapconnection"
	"github.com/CrawX/go-notmuch/imapsync"

	"github.com/urfave/cli/v2"
)

func syncCommand(n *nmsafe) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "fetch new mail from the imap server into the maildir and index it",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "dry-run", Usage: "fetch and classify without delivering"},
		},
		Action: func(c *cli.Context) error {
			err := n.conf.ValidateImap()
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			configs := []imapsync.ConfigFunc{}
			if c.Bool("dry-run") || n.conf.DryRun {
				configs = append(configs, imapsync.DryRun())
			}
			if n.conf.FolderTags {
				configs = append(configs, imapsync.FolderTags())
			}

			sc, err := classifier.FromConfig(c.Context, n.conf)
			switch {
			case errors.Is(err, classifier.ErrNotConfigured):
				n.l.Info("No spam classifier configured, not checking mail")
			case err != nil:
				return fmt.Errorf("could not start spam classifier: %w", err)
			default:
				configs = append(configs, imapsync.ClassifySpam(sc, n.conf.SpamTag))
			}

			imapConfigs := []imapconnection.ConfigFunc{}
			if n.conf.ImapInsecure {
				imapConfigs = append(imapConfigs, imapconnection.Insecure())
			}
			imapConn, err := imapconnection.NewImapConnection(n.conf.ImapHost, n.conf.User, n.conf.Password, imapConfigs...)
			if err != nil {
				return fmt.Errorf("could not connect to imap server: %w", err)
			}
			defer imapConn.Close()

			return n.withDatabase(notmuch.ReadWrite, func(db *notmuch.Database) error {
				syncer, err := imapsync.NewSyncer(db, imapConn, configs...)
				if err != nil {
					return err
				}

				stats, err := syncer.Sync(c.Context, n.conf.SyncFolders)
				for _, s := range stats {
					fmt.Fprintf(c.App.Writer, "%s: %d new, %d delivered, %d spam, %d remapped\n", s.Folder, s.New, s.Delivered, s.Spam, s.Remapped)
				}
				return err
			})
		},
	}
}

func learnCommand(n *nmsafe) *cli.Command {
	return &cli.Command{
		Name:  "learn",
		Usage: "train the spam classifier with the mail matching the learn queries",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "concurrency", Value: 4},
		},
		Action: func(c *cli.Context) error {
			if c.Int("concurrency") < 1 {
				return fmt.Errorf("concurrency must be at least 1, got %d", c.Int("concurrency"))
			}

			sc, err := classifier.FromConfig(c.Context, n.conf)
			if err != nil {
				return fmt.Errorf("could not start spam classifier: %w", err)
			}

			return n.withDatabase(notmuch.ReadWrite, func(db *notmuch.Database) error {
				return learn(c, db, sc, c.Int("concurrency"), map[domain.LearnType]string{
					domain.LearnSpam: n.conf.SpamLearnQuery,
					domain.LearnHam:  n.conf.HamLearnQuery,
				})
			})
		},
	}
}

func learn(c *cli.Context, db *notmuch.Database, sc domain.ConcurrentSpamClassifier, concurrency int, queries map[domain.LearnType]string) error {
	for _, learnType := range []domain.LearnType{domain.LearnSpam, domain.LearnHam} {
		query := queries[learnType]
		if query == "" {
			continue
		}

		stats, err := classifier.LearnQuery(c.Context, db, sc, learnType, query, concurrency)
		if err != nil {
			return fmt.Errorf("could not learn %s: %w", learnType, err)
		}
		fmt.Fprintf(c.App.Writer, "%s: learned %d, failed %d\n", learnType, stats.Learned, stats.Failed)
	}
	return nil
}
