// SPDX-License-Identifier: GPL-3.0-or-later
package classifier

import (
	"context"

	"github.com/CrawX/go-notmuch/domain"
	"github.com/CrawX/go-notmuch/log"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// GoRoutineSpamClassifier fans checks and learns out to at most concurrency
// goroutines. Every failed mail is retried once.
type GoRoutineSpamClassifier struct {
	domain.SpamClassifier
}

var _ domain.ConcurrentSpamClassifier = (*GoRoutineSpamClassifier)(nil)

func NewGoRoutineSpamClassifier(c domain.SpamClassifier) *GoRoutineSpamClassifier {
	return &GoRoutineSpamClassifier{c}
}

// group runs at most concurrency goroutines, at least one.
func group(concurrency int) *errgroup.Group {
	if concurrency < 1 {
		concurrency = 1
	}
	g := &errgroup.Group{}
	g.SetLimit(concurrency)
	return g
}

func (grsc *GoRoutineSpamClassifier) CheckAll(ctx context.Context, mails [][]byte, concurrency int) []*domain.SpamResult {
	l := log.Logger(log.LOG_CLASSIFIER).WithField("classifier", grsc.Name())
	results := make([]*domain.SpamResult, len(mails))

	g := group(concurrency)
	for i := range mails {
		index := i
		g.Go(func() error {
			results[index] = grsc.Check(ctx, mails[index])
			if results[index].Error != nil && ctx.Err() == nil {
				l.WithFields(logrus.Fields{"mail": index, "error": results[index].Error}).Debug("Check failed, retrying")
				results[index] = grsc.Check(ctx, mails[index])
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (grsc *GoRoutineSpamClassifier) LearnAll(ctx context.Context, learnType domain.LearnType, mails [][]byte, concurrency int) []error {
	l := log.Logger(log.LOG_CLASSIFIER).WithFields(logrus.Fields{"classifier": grsc.Name(), "learntype": learnType})
	results := make([]error, len(mails))

	g := group(concurrency)
	for i := range mails {
		index := i
		g.Go(func() error {
			results[index] = grsc.Learn(ctx, learnType, mails[index])
			if results[index] != nil && ctx.Err() == nil {
				l.WithFields(logrus.Fields{"mail": index, "error": results[index]}).Debug("Learn failed, retrying")
				results[index] = grsc.Learn(ctx, learnType, mails[index])
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
