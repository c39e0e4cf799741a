// SPDX-License-Identifier: GPL-3.0-or-later
package main

import (
	"fmt"

	notmuch "github.com/CrawX/go-notmuch"
	"github.com/CrawX/go-notmuch/native"

	"github.com/urfave/cli/v2"
)

func configCommand(n *nmsafe) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "read and write settings",
		Subcommands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "print the effective value of a setting",
				ArgsUsage: "<key>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("expected exactly one key")
					}
					return n.withDatabase(notmuch.ReadOnly, func(db *notmuch.Database) error {
						value, err := configGet(db, c.Args().First())
						if err != nil {
							return err
						}
						fmt.Fprintln(c.App.Writer, value)
						return nil
					})
				},
			},
			{
				Name:      "set",
				Usage:     "store a setting in the index",
				ArgsUsage: "<key> <value>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 2 {
						return fmt.Errorf("expected a key and a value")
					}
					return n.withDatabase(notmuch.ReadWrite, func(db *notmuch.Database) error {
						return db.SetConfig(c.Args().Get(0), c.Args().Get(1))
					})
				},
			},
			{
				Name:      "list",
				Usage:     "print the effective settings",
				ArgsUsage: "[prefix]",
				Action: func(c *cli.Context) error {
					return n.withDatabase(notmuch.ReadOnly, func(db *notmuch.Database) error {
						pairs, err := db.ConfigPairs(c.Args().First())
						if err != nil {
							return err
						}
						defer pairs.Close()

						for {
							p, ok := pairs.Next()
							if !ok {
								return pairs.Err()
							}
							fmt.Fprintf(c.App.Writer, "%s=%s\n", p.Key, p.Value)
						}
					})
				},
			},
		},
	}
}

// configGet reads well known keys with the config file and the defaults
// applied, anything else from the index.
func configGet(db *notmuch.Database, key string) (string, error) {
	if k, ok := native.ConfigKeyByName(key); ok {
		return db.ConfigByName(k)
	}
	return db.Config(key)
}

func compactCommand(n *nmsafe) *cli.Command {
	return &cli.Command{
		Name:  "compact",
		Usage: "rewrite the index to reclaim space",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "backup", Usage: "keep the old index in this directory"},
		},
		Action: func(c *cli.Context) error {
			err := notmuch.Compact(n.conf.Database, c.String("backup"), n.options()...)
			if err != nil {
				return fmt.Errorf("could not compact database: %w", err)
			}
			fmt.Fprintln(c.App.Writer, "Compacted index")
			return nil
		},
	}
}
