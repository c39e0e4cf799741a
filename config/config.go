// SPDX-License-Identifier: GPL-3.0-or-later
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config configures the nmsafe tool.
type Config struct {
	// Database is the mail root holding the index
	Database string
	// NotmuchConfig is an optional notmuch config file overlaying the
	// settings stored in the index
	NotmuchConfig string
	Profile       string

	ImapHost string
	User     string
	Password string
	// ImapInsecure connects without TLS
	ImapInsecure bool

	SpamassassinHost string

	RspamdController string
	RspamdPassword   string

	DryRun bool

	SyncFolders []string
	FolderTags  bool
	SpamTag     string

	SpamLearnQuery string
	HamLearnQuery  string

	Loglevel *string
}

// Defaults returns the configuration used for settings missing from the
// config file.
func Defaults() *Config {
	return &Config{
		SyncFolders:    []string{"INBOX"},
		SpamTag:        "spam",
		SpamLearnQuery: "tag:spam and not tag:learned",
		HamLearnQuery:  "not tag:spam and not tag:learned",
	}
}

func ReadConfig(filename string) (*Config, error) {
	config := Defaults()

	_, err := toml.DecodeFile(filename, config)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}

	err = config.Validate()
	if err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	if err := validateNonEmptyStringField(c.Database, "Database must not be empty, set to the mail root holding the index"); err != nil {
		return err
	}

	spamassassinSet := len(strings.TrimSpace(c.SpamassassinHost)) > 0
	rspamdSet := len(strings.TrimSpace(c.RspamdController)) > 0
	if rspamdSet && spamassassinSet {
		return fmt.Errorf("SpamassassinHost and RspamdController cannot be set at the same time")
	}

	if rspamdSet {
		if err := validateNonEmptyStringField(c.RspamdPassword, "RspamdPassword must be set if RspamdController is set"); err != nil {
			return err
		}
	}

	return nil
}

// ValidateImap checks the settings needed to sync from an imap server.
func (c *Config) ValidateImap() error {
	if err := validateNonEmptyStringField(c.ImapHost, "ImapHost must not be empty, set to host:port of the imap server"); err != nil {
		return err
	}

	if err := validateNonEmptyStringField(c.User, "User must not be empty, set to username on the imap server"); err != nil {
		return err
	}

	if err := validateNonEmptyStringField(c.Password, "Password must not be empty, set to password of User on the imap server"); err != nil {
		return err
	}

	if len(c.SyncFolders) == 0 {
		return errors.New("SyncFolders must list at least one folder")
	}

	return nil
}

// ClassifierConfigured reports whether a spam classifier is configured.
func (c *Config) ClassifierConfigured() bool {
	return len(strings.TrimSpace(c.SpamassassinHost)) > 0 || len(strings.TrimSpace(c.RspamdController)) > 0
}

func validateNonEmptyStringField(field string, err string) error {
	if len(strings.TrimSpace(field)) == 0 {
		return errors.New(err)
	}

	return nil
}
