// SPDX-License-Identifier: GPL-3.0-or-later
package main

import (
	"errors"
	"fmt"
	"strings"

	notmuch "github.com/CrawX/go-notmuch"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

type tagOp struct {
	add bool
	tag string
}

// parseTagArgs splits "+tag -tag [--] query" arguments.
func parseTagArgs(args []string) ([]tagOp, string, error) {
	ops := []tagOp{}
	i := 0
	for ; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			i++
			break
		}
		if len(a) < 2 || (a[0] != '+' && a[0] != '-') {
			break
		}
		ops = append(ops, tagOp{add: a[0] == '+', tag: a[1:]})
	}

	if len(ops) == 0 {
		return nil, "", errors.New("no tag operations given, use +tag or -tag")
	}
	query := strings.Join(args[i:], " ")
	if strings.TrimSpace(query) == "" {
		return nil, "", errors.New("no query given, use * to tag every message")
	}
	return ops, query, nil
}

func tagCommand(n *nmsafe) *cli.Command {
	return &cli.Command{
		Name:      "tag",
		Usage:     "add and remove tags of the messages matching a query",
		ArgsUsage: "+<tag>|-<tag> [...] [--] <query>",
		// -tag must not be read as a flag
		SkipFlagParsing: true,
		Action: func(c *cli.Context) error {
			ops, query, err := parseTagArgs(c.Args().Slice())
			if err != nil {
				return err
			}

			return n.withDatabase(notmuch.ReadWrite, func(db *notmuch.Database) error {
				changed, err := applyTags(db, query, ops)
				if err != nil {
					return err
				}
				n.l.WithFields(logrus.Fields{"query": query, "messages": changed}).Info("Tagged messages")
				return nil
			})
		},
	}
}

// applyTags changes the tags of every message matching query in one atomic
// section, each message inside a frozen region.
func applyTags(db *notmuch.Database, query string, ops []tagOp) (int, error) {
	syncFlags, err := db.ConfigBool(notmuch.ConfigSyncMaildirFlags)
	if err != nil {
		return 0, err
	}

	q, err := db.CreateQuery(query)
	if err != nil {
		return 0, err
	}
	defer q.Close()
	q.SetOmitExcluded(notmuch.ExcludeFalse)

	changed := 0
	err = db.WithAtomic(func() error {
		messages, err := q.SearchMessages()
		if err != nil {
			return err
		}
		defer messages.Close()

		for {
			m, ok := messages.Next()
			if !ok {
				return messages.Err()
			}

			err := m.WithFrozen(func() error {
				for _, op := range ops {
					var err error
					if op.add {
						err = m.AddTag(op.tag)
					} else {
						err = m.RemoveTag(op.tag)
					}
					if err != nil {
						return fmt.Errorf("could not change tag %s of %s: %w", op.tag, m.ID(), err)
					}
				}
				return nil
			})
			if err == nil && syncFlags {
				err = m.TagsToMaildirFlags()
			}
			m.Close()
			if err != nil {
				return err
			}
			changed++
		}
	})
	return changed, err
}
