// SPDX-License-Identifier: GPL-3.0-or-later
package classifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	notmuch "github.com/CrawX/go-notmuch"
	"github.com/CrawX/go-notmuch/domain"
	"github.com/CrawX/go-notmuch/domain/mocks"
	"github.com/CrawX/go-notmuch/engine"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func learnDatabase(t *testing.T) (*notmuch.Database, *engine.Engine) {
	root := t.TempDir()
	lib := engine.New()
	db, err := notmuch.Create(root, notmuch.WithLibrary(lib))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, os.MkdirAll(filepath.Join(root, "INBOX", "cur"), 0o755))
	add := func(n int, tags ...string) {
		filename := filepath.Join(root, "INBOX", "cur", fmt.Sprintf("%d:2,", n))
		raw := fmt.Sprintf("From: sender@example.com\r\nSubject: Mail %d\r\nMessage-ID: <mail%d@example.com>\r\n\r\nBody %d\r\n", n, n, n)
		require.NoError(t, os.WriteFile(filename, []byte(raw), 0o644))

		m, err := db.IndexFile(filename, nil)
		require.NoError(t, err)
		for _, tag := range tags {
			require.NoError(t, m.AddTag(tag))
		}
		require.NoError(t, m.Close())
	}
	add(1, "spam")
	add(2, "spam")
	add(3, "spam", LearnedTag)
	add(4)

	return db, lib
}

func tagsOf(t *testing.T, db *notmuch.Database, id string) []string {
	m, err := db.FindMessage(id)
	require.NoError(t, err)
	require.NotNil(t, m)
	defer m.Close()

	tags, err := m.Tags()
	require.NoError(t, err)
	names, err := tags.Collect()
	require.NoError(t, err)
	sort.Strings(names)
	return names
}

func Test_LearnQuery(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	db, lib := learnDatabase(t)
	classifier := mocks.NewMockConcurrentSpamClassifier(ctrl)
	classifier.EXPECT().
		LearnAll(gomock.Any(), domain.LearnSpam, gomock.Any(), 4).
		DoAndReturn(func(_ context.Context, _ domain.LearnType, mails [][]byte, _ int) []error {
			errs := make([]error, len(mails))
			for i, m := range mails {
				if bytes.Contains(m, []byte("Body 2")) {
					errs[i] = errors.New("classifier refused")
				}
			}
			assert.Len(t, mails, 2)
			return errs
		})

	stats, err := LearnQuery(context.Background(), db, classifier, domain.LearnSpam, "tag:spam and not tag:learned", 4)
	require.NoError(t, err)
	assert.Equal(t, &LearnStats{Learned: 1, Failed: 1}, stats)

	assert.Equal(t, []string{LearnedTag, "spam"}, tagsOf(t, db, "mail1@example.com"))
	assert.Equal(t, []string{"spam"}, tagsOf(t, db, "mail2@example.com"))
	assert.Equal(t, []string{LearnedTag, "spam"}, tagsOf(t, db, "mail3@example.com"))

	require.NoError(t, db.Close())
	assert.Equal(t, 0, lib.Live())
	assert.Empty(t, lib.Violations())
}

func Test_LearnQueryNothingToLearn(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	db, _ := learnDatabase(t)
	classifier := mocks.NewMockConcurrentSpamClassifier(ctrl)

	stats, err := LearnQuery(context.Background(), db, classifier, domain.LearnHam, "tag:ham", 4)
	require.NoError(t, err)
	assert.Equal(t, &LearnStats{}, stats)
}

func Test_LearnQuerySyntaxError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	db, _ := learnDatabase(t)
	classifier := mocks.NewMockConcurrentSpamClassifier(ctrl)

	_, err := LearnQuery(context.Background(), db, classifier, domain.LearnHam, "(tag:spam", 4)
	assert.ErrorIs(t, err, notmuch.ErrBadQuerySyntax)
}
