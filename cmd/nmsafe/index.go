// SPDX-License-Identifier: GPL-3.0-or-later
package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	notmuch "github.com/CrawX/go-notmuch"
	"github.com/CrawX/go-notmuch/indexer"

	"github.com/urfave/cli/v2"
)

func newCommand(n *nmsafe) *cli.Command {
	return &cli.Command{
		Name:  "new",
		Usage: "index new mail and drop vanished files, creating the index if needed",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "dry-run", Usage: "report changes without indexing"},
			&cli.BoolFlag{Name: "full-scan", Usage: "read directories whose mtime is unchanged"},
		},
		Action: func(c *cli.Context) error {
			db, err := notmuch.Open(n.conf.Database, notmuch.ReadWrite, n.options()...)
			if errors.Is(err, notmuch.ErrNoDatabase) {
				n.l.WithField("path", n.conf.Database).Info("Creating index")
				db, err = notmuch.Create(n.conf.Database, n.options()...)
			}
			if err != nil {
				return fmt.Errorf("could not open database: %w", err)
			}
			defer db.Close()

			configs := []indexer.ConfigFunc{}
			if c.Bool("dry-run") || n.conf.DryRun {
				configs = append(configs, indexer.DryRun())
			}
			if c.Bool("full-scan") {
				configs = append(configs, indexer.FullScan())
			}

			ix, err := indexer.NewIndexer(db, configs...)
			if err != nil {
				return err
			}
			stats, err := ix.Run(c.Context)
			if err != nil {
				return fmt.Errorf("could not index mail: %w", err)
			}

			fmt.Fprintf(c.App.Writer, "Added %d, duplicates %d, removed %d, ignored %d in %d directories (%d unchanged)\n",
				stats.Added, stats.Duplicates, stats.Removed, stats.Ignored, stats.Directories, stats.Unchanged)
			return nil
		},
	}
}

func queryString(c *cli.Context) string {
	return strings.Join(c.Args().Slice(), " ")
}

func sortFlag() cli.Flag {
	return &cli.StringFlag{Name: "sort", Value: "newest-first", Usage: "newest-first, oldest-first or message-id"}
}

func parseSort(s string) (notmuch.Sort, error) {
	switch s {
	case "newest-first":
		return notmuch.SortNewestFirst, nil
	case "oldest-first":
		return notmuch.SortOldestFirst, nil
	case "message-id":
		return notmuch.SortMessageID, nil
	}
	return notmuch.SortUnsorted, fmt.Errorf("unknown sort order %q", s)
}

// withQuery runs fn with a query built from the arguments of c.
func (n *nmsafe) withQuery(c *cli.Context, mode notmuch.DatabaseMode, fn func(db *notmuch.Database, q *notmuch.Query) error) error {
	sort := notmuch.SortNewestFirst
	if c.IsSet("sort") {
		var err error
		sort, err = parseSort(c.String("sort"))
		if err != nil {
			return err
		}
	}

	return n.withDatabase(mode, func(db *notmuch.Database) error {
		q, err := db.CreateQuery(queryString(c))
		if err != nil {
			return err
		}
		defer q.Close()
		q.SetSort(sort)

		return fn(db, q)
	})
}

func formatDate(ts int64) string {
	return time.Unix(ts, 0).UTC().Format("2006-01-02")
}

func collectTags(tags *notmuch.Tags, err error) (string, error) {
	if err != nil {
		return "", err
	}
	defer tags.Close()

	names, err := tags.Collect()
	if err != nil {
		return "", err
	}
	return strings.Join(names, " "), nil
}

func searchCommand(n *nmsafe) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "list the threads or messages matching a query",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Value: "threads", Usage: "threads or messages"},
			sortFlag(),
		},
		Action: func(c *cli.Context) error {
			return n.withQuery(c, notmuch.ReadOnly, func(db *notmuch.Database, q *notmuch.Query) error {
				switch c.String("output") {
				case "threads":
					return searchThreads(c, q)
				case "messages":
					return searchMessages(c, q)
				}
				return fmt.Errorf("unknown output %q", c.String("output"))
			})
		},
	}
}

func searchThreads(c *cli.Context, q *notmuch.Query) error {
	threads, err := q.SearchThreads()
	if err != nil {
		return err
	}

	for {
		t, ok := threads.Next()
		if !ok {
			break
		}

		authors, err := t.Authors()
		if err != nil {
			return err
		}
		subject, err := t.Subject()
		if err != nil {
			return err
		}
		tags, err := collectTags(t.Tags())
		if err != nil {
			return err
		}

		fmt.Fprintf(c.App.Writer, "thread:%s  %s [%d/%d] %s; %s (%s)\n",
			t.ID(), formatDate(t.NewestDate()), t.MatchedMessages(), t.TotalMessages(), authors, subject, tags)
		t.Close()
	}
	return threads.Err()
}

func searchMessages(c *cli.Context, q *notmuch.Query) error {
	messages, err := q.SearchMessages()
	if err != nil {
		return err
	}

	for {
		m, ok := messages.Next()
		if !ok {
			break
		}
		fmt.Fprintf(c.App.Writer, "id:%s\n", m.ID())
		m.Close()
	}
	return messages.Err()
}

func countCommand(n *nmsafe) *cli.Command {
	return &cli.Command{
		Name:      "count",
		Usage:     "count the messages or threads matching a query",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Value: "messages", Usage: "messages or threads"},
		},
		Action: func(c *cli.Context) error {
			return n.withQuery(c, notmuch.ReadOnly, func(db *notmuch.Database, q *notmuch.Query) error {
				var (
					count uint
					err   error
				)
				switch c.String("output") {
				case "messages":
					count, err = q.CountMessages()
				case "threads":
					count, err = q.CountThreads()
				default:
					return fmt.Errorf("unknown output %q", c.String("output"))
				}
				if err != nil {
					return err
				}

				fmt.Fprintf(c.App.Writer, "%d\n", count)
				return nil
			})
		},
	}
}

var shownHeaders = []string{"From", "To", "Subject", "Date"}

func showCommand(n *nmsafe) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "print the headers, files and tags of the messages matching a query",
		ArgsUsage: "<query>",
		Flags:     []cli.Flag{sortFlag()},
		Action: func(c *cli.Context) error {
			return n.withQuery(c, notmuch.ReadOnly, func(db *notmuch.Database, q *notmuch.Query) error {
				messages, err := q.SearchMessages()
				if err != nil {
					return err
				}

				for {
					m, ok := messages.Next()
					if !ok {
						break
					}
					err := showMessage(c, m)
					m.Close()
					if err != nil {
						return err
					}
				}
				return messages.Err()
			})
		},
	}
}

func showMessage(c *cli.Context, m *notmuch.Message) error {
	w := c.App.Writer

	fmt.Fprintf(w, "message id:%s thread:%s\n", m.ID(), m.ThreadID())
	files, err := m.Filenames()
	if err != nil {
		return err
	}
	names, err := files.Collect()
	files.Close()
	if err != nil {
		return err
	}
	for _, f := range names {
		fmt.Fprintf(w, "File: %s\n", f)
	}

	for _, h := range shownHeaders {
		value, err := m.Header(h)
		if err != nil {
			return err
		}
		if value != "" {
			fmt.Fprintf(w, "%s: %s\n", h, value)
		}
	}

	tags, err := collectTags(m.Tags())
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Tags: %s\n\n", tags)
	return nil
}
