// SPDX-License-Identifier: GPL-3.0-or-later

//go:generate mockgen -destination=mocks/spamclassifier.go -package=mocks . SpamClassifier,ConcurrentSpamClassifier
package domain

import "context"

type LearnType string

const (
	LearnSpam = LearnType("spam")
	LearnHam  = LearnType("ham")
)

type SpamResult struct {
	IsSpam bool
	Score  float64
	// Report is a mail describing why the checked mail is spam. Only set for
	// spam.
	Report []byte
	Error  error
}

type SpamClassifier interface {
	Name() string
	Check(ctx context.Context, rawMail []byte) *SpamResult
	Learn(ctx context.Context, learnType LearnType, rawMail []byte) error
}

type ConcurrentSpamClassifier interface {
	CheckAll(ctx context.Context, mails [][]byte, concurrency int) []*SpamResult
	LearnAll(ctx context.Context, learnType LearnType, mails [][]byte, concurrency int) []error
}
