// SPDX-License-Identifier: GPL-3.0-or-later
package main

import (
	"errors"
	"fmt"
	"os"

	notmuch "github.com/CrawX/go-notmuch"
	"github.com/CrawX/go-notmuch/config"
	"github.com/CrawX/go-notmuch/log"
	"github.com/CrawX/go-notmuch/native"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// nmsafe holds what every command needs.
type nmsafe struct {
	conf *config.Config
	// lib replaces the default library, for tests
	lib native.Library

	l *logrus.Logger
}

func newApp(n *nmsafe) *cli.App {
	return &cli.App{
		Name:  "nmsafe",
		Usage: "index, search, tag and fetch mail",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "tool config file (TOML)",
				EnvVars: []string{"NMSAFE_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "database",
				Usage:   "mail root holding the index",
				EnvVars: []string{"NMSAFE_DATABASE"},
			},
			&cli.StringFlag{
				Name:    "notmuch-config",
				Usage:   "notmuch config file overlaying the stored settings",
				EnvVars: []string{"NOTMUCH_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "profile",
				Usage:   "notmuch profile",
				EnvVars: []string{"NOTMUCH_PROFILE"},
			},
			&cli.StringFlag{
				Name:    "imap-password",
				Usage:   "password of the imap user, overrides the config file",
				EnvVars: []string{"NMSAFE_IMAP_PASSWORD"},
			},
			&cli.StringFlag{
				Name:    "loglevel",
				Value:   "info",
				EnvVars: []string{"NMSAFE_LOGLEVEL"},
			},
		},
		Before: n.setup,
		Commands: []*cli.Command{
			newCommand(n),
			searchCommand(n),
			countCommand(n),
			showCommand(n),
			tagCommand(n),
			configCommand(n),
			syncCommand(n),
			learnCommand(n),
			compactCommand(n),
		},
	}
}

// setup loads the configuration. Flags given on the command line or through
// the environment override the config file.
func (n *nmsafe) setup(c *cli.Context) error {
	var err error

	log.InitLogging(c.String("loglevel"))
	n.l = log.Logger(log.LOG_MAIN)

	conf := config.Defaults()
	if path := c.String("config"); path != "" {
		conf, err = config.ReadConfig(path)
		if err != nil {
			return err
		}
		if conf.Loglevel != nil && !c.IsSet("loglevel") {
			log.SetLogLevel(*conf.Loglevel)
		}
	}

	if c.IsSet("database") {
		conf.Database = c.String("database")
	}
	if c.IsSet("notmuch-config") {
		conf.NotmuchConfig = c.String("notmuch-config")
	}
	if c.IsSet("profile") {
		conf.Profile = c.String("profile")
	}
	if c.IsSet("imap-password") {
		conf.Password = c.String("imap-password")
	}

	err = conf.Validate()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	n.conf = conf
	return nil
}

// loadEnv reads environment variables from path if it exists. It runs
// before the flags are parsed, so the file can set any flag's variable.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	_, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	err = godotenv.Load(path)
	if err != nil {
		return fmt.Errorf("could not load %s: %w", path, err)
	}
	return nil
}

func (n *nmsafe) options() []notmuch.OptionFunc {
	options := []notmuch.OptionFunc{}
	if n.lib != nil {
		options = append(options, notmuch.WithLibrary(n.lib))
	}
	if n.conf.NotmuchConfig != "" {
		options = append(options, notmuch.WithConfigFile(n.conf.NotmuchConfig))
	}
	if n.conf.Profile != "" {
		options = append(options, notmuch.WithProfile(n.conf.Profile))
	}
	return options
}

func (n *nmsafe) open(mode notmuch.DatabaseMode) (*notmuch.Database, error) {
	db, err := notmuch.Open(n.conf.Database, mode, n.options()...)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}
	return db, nil
}

// withDatabase runs fn with a database that is closed afterwards.
func (n *nmsafe) withDatabase(mode notmuch.DatabaseMode, fn func(db *notmuch.Database) error) error {
	db, err := n.open(mode)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(db)
}
