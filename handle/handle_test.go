// SPDX-License-Identifier: GPL-3.0-or-later
package handle

import (
	"testing"

	"github.com/CrawX/go-notmuch/handle/mocks"
	"github.com/CrawX/go-notmuch/native"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	dbPtr native.Ptr = iota + 1
	queryPtr
	messagesPtr
	messagePtr
	tagsPtr
	dirPtr
	optsPtr
	threadsPtr
	threadPtr
)

func setup(t *testing.T) (*mocks.MockDestroyer, *Ref) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	destroyer := mocks.NewMockDestroyer(ctrl)
	return destroyer, NewRoot(native.KindDatabase, dbPtr, destroyer)
}

func assertUseError(t *testing.T, f func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		_, ok := r.(*UseError)
		assert.True(t, ok, "expected *UseError, got %T", r)
	}()
	f()
}

func TestSingleDestroyOnCascade(t *testing.T) {
	destroyer, db := setup(t)

	query := New(db.Borrow(), native.KindQuery, queryPtr)
	messages := New(query.Borrow(), native.KindMessages, messagesPtr)
	message := New(messages.Borrow(), native.KindMessage, messagePtr)

	// query, messages and message go with the database
	destroyer.EXPECT().Destroy(native.KindDatabase, dbPtr).Times(1)
	db.Release()

	assert.False(t, query.Alive())
	assert.False(t, messages.Alive())
	assert.False(t, message.Alive())

	message.Release()
	messages.Release()
	query.Release()
	db.Release()
}

func TestExplicitChildDestroy(t *testing.T) {
	destroyer, db := setup(t)

	query := New(db.Borrow(), native.KindQuery, queryPtr)

	destroyer.EXPECT().Destroy(native.KindQuery, queryPtr).Times(1)
	query.Release()
	query.Release()

	destroyer.EXPECT().Destroy(native.KindDatabase, dbPtr).Times(1)
	db.Release()
}

func TestIndependentChildrenDestroyedFirst(t *testing.T) {
	destroyer, db := setup(t)

	New(db.Borrow(), native.KindDirectory, dirPtr)
	New(db.Borrow(), native.KindIndexOpts, optsPtr)

	dir := destroyer.EXPECT().Destroy(native.KindDirectory, dirPtr)
	opts := destroyer.EXPECT().Destroy(native.KindIndexOpts, optsPtr)
	destroyer.EXPECT().Destroy(native.KindDatabase, dbPtr).After(dir).After(opts)

	db.Release()
}

func TestSharedSurvival(t *testing.T) {
	destroyer, db := setup(t)

	query := New(db.Share(), native.KindQuery, queryPtr)
	assert.Equal(t, 2, db.Refs())

	db.Release()
	assert.True(t, query.Alive())
	assert.NotPanics(t, func() { query.Ptr() })

	gomock.InOrder(
		destroyer.EXPECT().Destroy(native.KindQuery, queryPtr),
		destroyer.EXPECT().Destroy(native.KindDatabase, dbPtr),
	)
	query.Release()
}

func TestBorrowContainment(t *testing.T) {
	destroyer, db := setup(t)

	query := New(db.Borrow(), native.KindQuery, queryPtr)
	messages := New(query.Borrow(), native.KindMessages, messagesPtr)

	destroyer.EXPECT().Destroy(native.KindDatabase, dbPtr)
	db.Release()

	assert.False(t, query.Alive())
	assert.False(t, messages.Alive())
	assertUseError(t, func() { query.Ptr() })
	assertUseError(t, func() { New(query.Borrow(), native.KindMessages, messagesPtr) })
}

func TestSharePinsBorrowedAntecedents(t *testing.T) {
	destroyer, db := setup(t)

	query := New(db.Borrow(), native.KindQuery, queryPtr)
	messages := New(query.Borrow(), native.KindMessages, messagesPtr)
	message := New(messages.Borrow(), native.KindMessage, messagePtr)

	shared := message.Share()
	assert.Equal(t, 2, message.Refs())
	assert.Equal(t, 2, messages.Refs())
	assert.Equal(t, 2, query.Refs())
	assert.Equal(t, 2, db.Refs())

	messages.Release()
	query.Release()
	db.Release()
	assert.True(t, shared.Alive())
	assert.True(t, message.Alive())
	assert.NotPanics(t, func() { shared.Ptr() })

	// the message is freed with the list, the chain goes with the last pin
	gomock.InOrder(
		destroyer.EXPECT().Destroy(native.KindMessages, messagesPtr),
		destroyer.EXPECT().Destroy(native.KindQuery, queryPtr),
		destroyer.EXPECT().Destroy(native.KindDatabase, dbPtr),
	)
	shared.Release()
	assert.False(t, message.Alive())
	message.Release()
}

func TestReleasedShareUnpins(t *testing.T) {
	destroyer, db := setup(t)

	query := New(db.Borrow(), native.KindQuery, queryPtr)
	messages := New(query.Borrow(), native.KindMessages, messagesPtr)
	message := New(messages.Borrow(), native.KindMessage, messagePtr)

	message.Share().Release()
	assert.Equal(t, 1, messages.Refs())
	assert.Equal(t, 1, db.Refs())

	destroyer.EXPECT().Destroy(native.KindMessages, messagesPtr)
	messages.Release()
	assert.False(t, message.Alive())

	gomock.InOrder(
		destroyer.EXPECT().Destroy(native.KindQuery, queryPtr),
		destroyer.EXPECT().Destroy(native.KindDatabase, dbPtr),
	)
	query.Release()
	db.Release()
}

func TestSamePointerSharesHandle(t *testing.T) {
	destroyer, db := setup(t)

	first := New(db.Borrow(), native.KindMessage, messagePtr)
	second := New(db.Borrow(), native.KindMessage, messagePtr)
	assert.Equal(t, 2, second.Refs())
	assertUseError(t, func() { New(db.Borrow(), native.KindQuery, messagePtr) })

	first.Release()
	assert.True(t, second.Alive())

	destroyer.EXPECT().Destroy(native.KindMessage, messagePtr).Times(1)
	second.Release()
	second.Release()

	// a pointer can be handed out again once its handle died
	again := New(db.Borrow(), native.KindMessage, messagePtr)
	assert.Equal(t, 1, again.Refs())

	destroyer.EXPECT().Destroy(native.KindDatabase, dbPtr)
	db.Release()
	assert.False(t, again.Alive())
}

func TestThreadMessagesFreedWithThread(t *testing.T) {
	destroyer, db := setup(t)

	query := New(db.Borrow(), native.KindQuery, queryPtr)
	threads := New(query.Borrow(), native.KindThreads, threadsPtr)
	thread := New(threads.Borrow(), native.KindThread, threadPtr)
	messages := New(thread.Borrow(), native.KindMessages, messagesPtr)

	// the thread keeps the message, closing it destroys nothing
	message := New(messages.Borrow(), native.KindMessage, messagePtr)
	message.Release()
	again := New(messages.Borrow(), native.KindMessage, messagePtr)
	assert.True(t, again.Alive())
	again.Release()

	gomock.InOrder(
		destroyer.EXPECT().Destroy(native.KindThread, threadPtr),
		destroyer.EXPECT().Destroy(native.KindQuery, queryPtr),
		destroyer.EXPECT().Destroy(native.KindDatabase, dbPtr),
	)
	thread.Release()
	assert.False(t, messages.Alive())
	query.Release()
	db.Release()
}

func TestPromote(t *testing.T) {
	destroyer, db := setup(t)

	borrowed := db.Borrow()
	shared := borrowed.Promote()
	assert.Equal(t, Shared, shared.Mode())
	assert.Equal(t, 2, db.Refs())

	db.Release()
	assert.True(t, borrowed.Alive())

	destroyer.EXPECT().Destroy(native.KindDatabase, dbPtr)
	shared.Release()
	assert.False(t, borrowed.Alive())
}

func TestMove(t *testing.T) {
	destroyer, db := setup(t)

	moved := db.Move()
	assert.Equal(t, Owned, moved.Mode())
	assert.Equal(t, 1, moved.Refs())
	assertUseError(t, func() { db.Ptr() })

	// releasing the moved-from reference does nothing
	db.Release()
	assert.True(t, moved.Alive())

	destroyer.EXPECT().Destroy(native.KindDatabase, dbPtr)
	moved.Release()
}

func TestMoveBorrowedPanics(t *testing.T) {
	destroyer, db := setup(t)

	assertUseError(t, func() { db.Borrow().Move() })

	destroyer.EXPECT().Destroy(native.KindDatabase, dbPtr)
	db.Release()
}

func TestOwnedEdge(t *testing.T) {
	destroyer, db := setup(t)

	query := New(db.Borrow(), native.KindQuery, queryPtr)
	messages := New(query.Borrow(), native.KindMessages, messagesPtr)

	assertUseError(t, func() { New(messages.Borrow(), native.KindTags, tagsPtr) })
	shared := messages.Share()
	assertUseError(t, func() { New(shared, native.KindTags, tagsPtr) })
	shared.Release()

	tags := New(messages.Move(), native.KindTags, tagsPtr)
	assertUseError(t, func() { messages.Ptr() })

	gomock.InOrder(
		destroyer.EXPECT().Destroy(native.KindTags, tagsPtr),
		destroyer.EXPECT().Destroy(native.KindMessages, messagesPtr),
	)
	tags.Release()
	assert.True(t, query.Alive())

	gomock.InOrder(
		destroyer.EXPECT().Destroy(native.KindQuery, queryPtr),
		destroyer.EXPECT().Destroy(native.KindDatabase, dbPtr),
	)
	query.Release()
	db.Release()
}

func TestInvalidEdge(t *testing.T) {
	destroyer, db := setup(t)

	assertUseError(t, func() { New(db.Borrow(), native.KindThread, 42) })
	assertUseError(t, func() { New(db.Borrow(), native.KindQuery, native.Nil) })
	assertUseError(t, func() { NewRoot(native.KindMessage, 42, destroyer) })

	destroyer.EXPECT().Destroy(native.KindDatabase, dbPtr)
	db.Release()
}

func TestDestroyFunc(t *testing.T) {
	var destroyed []native.Kind
	db := NewRoot(native.KindDatabase, dbPtr, DestroyFunc(func(kind native.Kind, _ native.Ptr) {
		destroyed = append(destroyed, kind)
	}))
	New(db.Borrow(), native.KindDirectory, dirPtr)
	db.Release()

	assert.Equal(t, []native.Kind{native.KindDirectory, native.KindDatabase}, destroyed)
}

func TestAllowedOwners(t *testing.T) {
	assert.ElementsMatch(t,
		[]native.Kind{native.KindQuery, native.KindThread, native.KindMessage},
		AllowedOwners(native.KindMessages),
	)
	assert.Empty(t, AllowedOwners(native.KindDatabase))
}

func TestDisown(t *testing.T) {
	destroyer, db := setup(t)

	dir := New(db.Borrow(), native.KindDirectory, dirPtr)
	other := dir.Share()
	files := New(dir.Borrow(), native.KindFilenames, tagsPtr)

	// the library already freed the directory and its file list
	dir.Disown()
	assert.False(t, files.Alive())
	assert.False(t, other.Alive())
	assertUseError(t, func() { other.Ptr() })
	assertUseError(t, func() { dir.Disown() })
	other.Release()

	destroyer.EXPECT().Destroy(native.KindDatabase, dbPtr)
	db.Release()
}
