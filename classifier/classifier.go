// SPDX-License-Identifier: GPL-3.0-or-later

// Package classifier checks and learns mail with a spam filter.
package classifier

import (
	"context"
	"errors"

	"github.com/CrawX/go-notmuch/classifier/rspamd"
	"github.com/CrawX/go-notmuch/classifier/spamassassin"
	"github.com/CrawX/go-notmuch/config"
	"github.com/CrawX/go-notmuch/domain"
)

var ErrNotConfigured = errors.New("no spam classifier configured")

// FromConfig connects to the classifier named in c.
func FromConfig(ctx context.Context, c *config.Config) (*GoRoutineSpamClassifier, error) {
	var (
		sc  domain.SpamClassifier
		err error
	)
	switch {
	case c.SpamassassinHost != "":
		sc, err = spamassassin.NewSpamassassin(ctx, c.SpamassassinHost)
	case c.RspamdController != "":
		sc, err = rspamd.NewRspamd(ctx, c.RspamdController, c.RspamdPassword)
	default:
		return nil, ErrNotConfigured
	}
	if err != nil {
		return nil, err
	}

	return NewGoRoutineSpamClassifier(sc), nil
}
