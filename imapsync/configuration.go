// SPDX-License-Identifier: GPL-3.0-or-later
package imapsync

import (
	"fmt"

	"github.com/CrawX/go-notmuch/domain"
)

type ConfigFunc func(c *configuration) error

// DryRun fetches and classifies mail without delivering or indexing it.
func DryRun() ConfigFunc {
	return func(c *configuration) error {
		c.DryRun = true

		return nil
	}
}

// ClassifySpam checks every fetched mail and tags spam with spamTag.
func ClassifySpam(classifier domain.ConcurrentSpamClassifier, spamTag string) ConfigFunc {
	return func(c *configuration) error {
		if classifier == nil {
			return fmt.Errorf("classifier cannot be nil")
		}
		if len(spamTag) == 0 {
			return fmt.Errorf("SpamTag cannot be empty")
		}

		c.Classifier = classifier
		c.SpamTag = spamTag
		return nil
	}
}

// FolderTags tags every mail with the lowercased name of its imap folder.
func FolderTags() ConfigFunc {
	return func(c *configuration) error {
		c.FolderTags = true
		return nil
	}
}

// Hostname sets the host part of delivered file names.
func Hostname(host string) ConfigFunc {
	return func(c *configuration) error {
		if len(host) == 0 {
			return fmt.Errorf("Hostname cannot be empty")
		}
		c.Hostname = host
		return nil
	}
}

type configuration struct {
	DryRun bool

	Classifier domain.ConcurrentSpamClassifier
	SpamTag    string

	FolderTags bool

	Hostname string
}
