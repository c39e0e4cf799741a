// SPDX-License-Identifier: GPL-3.0-or-later
package classifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/CrawX/go-notmuch/config"
	"github.com/CrawX/go-notmuch/domain"
	"github.com/CrawX/go-notmuch/domain/mocks"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
)

func Test_CheckAllConcurrent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	classifier := mocks.NewMockSpamClassifier(ctrl)
	classifier.EXPECT().Name().Return("mock").AnyTimes()

	mail1, mail2, mail3 := []byte{0}, []byte{1}, []byte{2}
	errResult := &domain.SpamResult{Error: errors.New("error")}
	result1, result3 := &domain.SpamResult{Report: mail1}, &domain.SpamResult{Report: mail3}

	// all three first attempts must run at the same time
	wg := &sync.WaitGroup{}
	wg.Add(3)
	concurrently := func(result *domain.SpamResult) func(context.Context, []byte) *domain.SpamResult {
		return func(context.Context, []byte) *domain.SpamResult {
			wg.Done()
			wg.Wait()
			return result
		}
	}

	classifier.EXPECT().Check(gomock.Any(), gomock.Eq(mail1)).DoAndReturn(concurrently(result1))

	// the retry fails as well
	classifier.EXPECT().Check(gomock.Any(), gomock.Eq(mail2)).DoAndReturn(concurrently(errResult))
	classifier.EXPECT().Check(gomock.Any(), gomock.Eq(mail2)).Return(errResult)

	// the retry succeeds
	classifier.EXPECT().Check(gomock.Any(), gomock.Eq(mail3)).DoAndReturn(concurrently(errResult))
	classifier.EXPECT().Check(gomock.Any(), gomock.Eq(mail3)).Return(result3)

	goRoutineSpamClassifier := NewGoRoutineSpamClassifier(classifier)

	resultsChan := make(chan []*domain.SpamResult)
	go func() {
		resultsChan <- goRoutineSpamClassifier.CheckAll(context.Background(), [][]byte{mail1, mail2, mail3}, 3)
	}()

	select {
	case results := <-resultsChan:
		assert.Len(t, results, 3)
		assert.Equal(t, result1, results[0], "mail1 should not have caused errors")
		assert.Equal(t, errResult, results[1], "mail2 should still return the error after retry")
		assert.Equal(t, result3, results[2], "mail3 should be ok after retry")
	case <-time.After(time.Second):
		assert.Fail(t, "timeout when checking mails concurrently")
	}
}

func Test_CheckAllBounded(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	classifier := mocks.NewMockSpamClassifier(ctrl)
	classifier.EXPECT().Name().Return("mock").AnyTimes()

	mu := &sync.Mutex{}
	running, peak := 0, 0
	classifier.EXPECT().Check(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, []byte) *domain.SpamResult {
		mu.Lock()
		running++
		if running > peak {
			peak = running
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		running--
		mu.Unlock()
		return &domain.SpamResult{}
	}).Times(8)

	results := NewGoRoutineSpamClassifier(classifier).CheckAll(context.Background(), make([][]byte, 8), 2)

	assert.Len(t, results, 8)
	assert.LessOrEqual(t, peak, 2)
}

func Test_NonPositiveConcurrencyRunsSequentially(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	classifier := mocks.NewMockSpamClassifier(ctrl)
	classifier.EXPECT().Name().Return("mock").AnyTimes()
	classifier.EXPECT().Check(gomock.Any(), gomock.Any()).Return(&domain.SpamResult{}).Times(2)
	classifier.EXPECT().Learn(gomock.Any(), gomock.Eq(domain.LearnHam), gomock.Any()).Return(nil).Times(2)

	goRoutineSpamClassifier := NewGoRoutineSpamClassifier(classifier)

	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.Len(t, goRoutineSpamClassifier.CheckAll(context.Background(), make([][]byte, 2), 0), 2)
		assert.Equal(t, []error{nil, nil}, goRoutineSpamClassifier.LearnAll(context.Background(), domain.LearnHam, make([][]byte, 2), -1))
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		assert.Fail(t, "timeout with a concurrency below one")
	}
}

func Test_LearnAllConcurrent(t *testing.T) {
	for _, learnType := range []domain.LearnType{domain.LearnSpam, domain.LearnHam} {
		t.Run(string(learnType), func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			classifier := mocks.NewMockSpamClassifier(ctrl)
			classifier.EXPECT().Name().Return("mock").AnyTimes()

			mail1, mail2, mail3 := []byte{0}, []byte{1}, []byte{2}
			err := errors.New("error")

			wg := &sync.WaitGroup{}
			wg.Add(3)
			concurrently := func(result error) func(context.Context, domain.LearnType, []byte) error {
				return func(context.Context, domain.LearnType, []byte) error {
					wg.Done()
					wg.Wait()
					return result
				}
			}

			classifier.EXPECT().Learn(gomock.Any(), gomock.Eq(learnType), gomock.Eq(mail1)).DoAndReturn(concurrently(nil))

			classifier.EXPECT().Learn(gomock.Any(), gomock.Eq(learnType), gomock.Eq(mail2)).DoAndReturn(concurrently(err))
			classifier.EXPECT().Learn(gomock.Any(), gomock.Eq(learnType), gomock.Eq(mail2)).Return(err)

			classifier.EXPECT().Learn(gomock.Any(), gomock.Eq(learnType), gomock.Eq(mail3)).DoAndReturn(concurrently(err))
			classifier.EXPECT().Learn(gomock.Any(), gomock.Eq(learnType), gomock.Eq(mail3)).Return(nil)

			goRoutineSpamClassifier := NewGoRoutineSpamClassifier(classifier)

			resultsChan := make(chan []error)
			go func() {
				resultsChan <- goRoutineSpamClassifier.LearnAll(context.Background(), learnType, [][]byte{mail1, mail2, mail3}, 3)
			}()

			select {
			case results := <-resultsChan:
				assert.Len(t, results, 3)
				assert.Nil(t, results[0], "mail1 should not have caused errors")
				assert.Equal(t, err, results[1], "mail2 should still return the error after retry")
				assert.Nil(t, results[2], "mail3 should be ok after retry")
			case <-time.After(time.Second):
				assert.Fail(t, "timeout when learning mails concurrently")
			}
		})
	}
}

func Test_FromConfigNotConfigured(t *testing.T) {
	_, err := FromConfig(context.Background(), &config.Config{Database: "/mail"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
