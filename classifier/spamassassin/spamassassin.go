// SPDX-License-Identifier: GPL-3.0-or-later
package spamassassin

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/CrawX/go-notmuch/domain"
	"github.com/CrawX/go-notmuch/mail"

	"github.com/teamwork/spamc"
)

const SpamAssassinTimeout = 20 * time.Second

// SpamAssassin talks to spamd with the spamc protocol.
type SpamAssassin struct {
	client *spamc.Client
}

var _ domain.SpamClassifier = (*SpamAssassin)(nil)

func NewSpamassassin(ctx context.Context, host string) (*SpamAssassin, error) {
	client := spamc.New(host, &net.Dialer{
		Timeout: SpamAssassinTimeout,
	})
	err := client.Ping(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not ping SpamAssassin: %w", err)
	}

	return &SpamAssassin{client: client}, nil
}

func (sa *SpamAssassin) Name() string {
	return "spamassassin"
}

func (sa *SpamAssassin) Check(ctx context.Context, rawMail []byte) *domain.SpamResult {
	out, err := sa.client.Process(ctx, bytes.NewReader(rawMail), nil)
	if err != nil {
		return errResult(fmt.Errorf("could not check SpamAssassin: %w", err))
	}
	defer out.Message.Close()

	result := &domain.SpamResult{
		IsSpam: out.IsSpam,
		Score:  out.Score,
	}
	// spamd rewrites spam into a report carrying the original as attachment
	if out.IsSpam {
		result.Report, err = io.ReadAll(out.Message)
		if err != nil {
			return errResult(fmt.Errorf("could not read response body: %w", err))
		}
	}

	return result
}

func (sa *SpamAssassin) Learn(ctx context.Context, learnType domain.LearnType, rawMail []byte) error {
	header := spamc.Header{}.Set("Set", "local")
	switch learnType {
	case domain.LearnSpam:
		header = header.Set("Message-class", "spam")
	case domain.LearnHam:
		header = header.Set("Message-class", "ham")
	default:
		return fmt.Errorf("unsupported learn type %v", learnType)
	}

	unwrapped, err := mail.UnwrapSpamassassinReport(rawMail)
	if err != nil {
		return fmt.Errorf("could not unwrap SpamAssassin-style report: %w", err)
	}
	_, err = sa.client.Tell(ctx, bytes.NewReader(unwrapped), header)
	if err != nil {
		return fmt.Errorf("could not learn SpamAssassin: %w", err)
	}
	return nil
}

func errResult(err error) *domain.SpamResult {
	return &domain.SpamResult{Error: err}
}
