package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/forum-api/internal/model"
	"github.com/d60-Lab/forum-api/internal/repository"
)

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{}, &model.Thread{}, &model.Comment{}, &model.ThreadSubscriber{},
		&model.Role{}, &model.Permission{}, &model.RolePermission{}, &model.UserRole{},
		&model.Notification{},
	))
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()
	u := &model.User{Username: username, Email: username + "@example.com", Password: "p"}
	require.NoError(t, db.Create(u).Error)
	return u
}

type sentNote struct {
	UserID uint
	Title  string
	Body   string
	Kind   string
}

// recordingNotifier 记录每次投递；failFor 中的收件人投递报错
type recordingNotifier struct {
	mu      sync.Mutex
	sent    []sentNote
	failFor map[uint]bool
}

func (r *recordingNotifier) Send(_ context.Context, userID uint, title, body, kind string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFor[userID] {
		return errors.New("delivery failed")
	}
	r.sent = append(r.sent, sentNote{UserID: userID, Title: title, Body: body, Kind: kind})
	return nil
}

func (r *recordingNotifier) notes() []sentNote {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sentNote(nil), r.sent...)
}

func newThreadService(t *testing.T, db *gorm.DB, notifier Notifier) ThreadService {
	t.Helper()
	if notifier == nil {
		notifier = &recordingNotifier{}
	}
	return NewThreadService(db, repository.NewThreadRepository(db), repository.NewSubscriberRepository(db), notifier)
}

func TestCreateThreadAutoSubscribesAuthor(t *testing.T) {
	db := setupServiceDB(t)
	svc := newThreadService(t, db, nil)
	ctx := context.Background()
	author := createUser(t, db, "alice")

	thread, err := svc.CreateThread(ctx, author.ID, "Hello", "world")
	require.NoError(t, err)
	require.NotZero(t, thread.ID)

	sub, err := repository.NewSubscriberRepository(db).Find(ctx, thread.ID, author.ID)
	require.NoError(t, err)
	require.NotNil(t, sub)
}

func TestCreateThreadRollsBackOnSubscriberFailure(t *testing.T) {
	db := setupServiceDB(t)
	svc := newThreadService(t, db, nil)
	ctx := context.Background()
	author := createUser(t, db, "alice")

	// 故障注入：订阅表不可写，事务整体回滚
	require.NoError(t, db.Migrator().DropTable(&model.ThreadSubscriber{}))

	_, err := svc.CreateThread(ctx, author.ID, "Hello", "world")
	require.Error(t, err)

	var cnt int64
	require.NoError(t, db.Model(&model.Thread{}).Count(&cnt).Error)
	assert.EqualValues(t, 0, cnt)
}

func TestCreateCommentFansOutExcludingCommenter(t *testing.T) {
	db := setupServiceDB(t)
	rec := &recordingNotifier{}
	svc := newThreadService(t, db, rec)
	ctx := context.Background()

	a := createUser(t, db, "a")
	b := createUser(t, db, "b")
	c := createUser(t, db, "c")

	thread, err := svc.CreateThread(ctx, a.ID, "Topic", "desc")
	require.NoError(t, err)
	_, err = svc.Subscribe(ctx, thread.ID, b.ID)
	require.NoError(t, err)
	_, err = svc.Subscribe(ctx, thread.ID, c.ID)
	require.NoError(t, err)

	_, err = svc.CreateComment(ctx, thread.ID, c.ID, "c", "hi there")
	require.NoError(t, err)

	notes := rec.notes()
	require.Len(t, notes, 2)
	targets := []uint{notes[0].UserID, notes[1].UserID}
	assert.ElementsMatch(t, []uint{a.ID, b.ID}, targets)
	for _, n := range notes {
		assert.Equal(t, "New comment on thread", n.Title)
		assert.Equal(t, `c commented on "Topic"`, n.Body)
		assert.Equal(t, "thread_comment", n.Kind)
	}
}

func TestCreateCommentOnMissingThread(t *testing.T) {
	db := setupServiceDB(t)
	svc := newThreadService(t, db, nil)
	ctx := context.Background()
	u := createUser(t, db, "alice")

	_, err := svc.CreateComment(ctx, 404, u.ID, "alice", "hi")
	assert.ErrorIs(t, err, ErrThreadNotFound)
}

func TestCreateCommentOnSoftDeletedThread(t *testing.T) {
	db := setupServiceDB(t)
	svc := newThreadService(t, db, nil)
	ctx := context.Background()
	u := createUser(t, db, "alice")

	thread, err := svc.CreateThread(ctx, u.ID, "T", "d")
	require.NoError(t, err)
	require.NoError(t, svc.DeleteThread(ctx, thread.ID, u.ID, false))

	_, err = svc.CreateComment(ctx, thread.ID, u.ID, "alice", "hi")
	assert.ErrorIs(t, err, ErrThreadNotFound)
}

func TestFanOutFailureDoesNotAbortOthers(t *testing.T) {
	db := setupServiceDB(t)
	a := createUser(t, db, "a")
	b := createUser(t, db, "b")
	c := createUser(t, db, "c")
	rec := &recordingNotifier{failFor: map[uint]bool{a.ID: true}}
	svc := newThreadService(t, db, rec)
	ctx := context.Background()

	thread, err := svc.CreateThread(ctx, a.ID, "Topic", "desc")
	require.NoError(t, err)
	_, err = svc.Subscribe(ctx, thread.ID, b.ID)
	require.NoError(t, err)

	comment, err := svc.CreateComment(ctx, thread.ID, c.ID, "c", "hi")
	require.NoError(t, err)
	require.NotZero(t, comment.ID)

	// a 的投递失败被吞掉，b 仍然收到；评论已持久化
	notes := rec.notes()
	require.Len(t, notes, 1)
	assert.Equal(t, b.ID, notes[0].UserID)

	detail, err := svc.GetThread(ctx, thread.ID)
	require.NoError(t, err)
	require.Len(t, detail.Comments, 1)
}

func TestSubscribeIsIdempotent(t *testing.T) {
	db := setupServiceDB(t)
	svc := newThreadService(t, db, nil)
	ctx := context.Background()
	a := createUser(t, db, "a")
	b := createUser(t, db, "b")

	thread, err := svc.CreateThread(ctx, a.ID, "T", "d")
	require.NoError(t, err)

	already, err := svc.Subscribe(ctx, thread.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, already)

	already, err = svc.Subscribe(ctx, thread.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, already)

	var cnt int64
	require.NoError(t, db.Model(&model.ThreadSubscriber{}).
		Where("thread_id = ? AND user_id = ?", thread.ID, b.ID).Count(&cnt).Error)
	assert.EqualValues(t, 1, cnt)
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	db := setupServiceDB(t)
	svc := newThreadService(t, db, nil)
	ctx := context.Background()
	a := createUser(t, db, "a")
	b := createUser(t, db, "b")

	thread, err := svc.CreateThread(ctx, a.ID, "T", "d")
	require.NoError(t, err)
	_, err = svc.Subscribe(ctx, thread.ID, b.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Unsubscribe(ctx, thread.ID, b.ID))
	require.NoError(t, svc.Unsubscribe(ctx, thread.ID, b.ID))

	sub, err := repository.NewSubscriberRepository(db).Find(ctx, thread.ID, b.ID)
	require.NoError(t, err)
	assert.Nil(t, sub)
}

func TestDeleteThreadPermissions(t *testing.T) {
	db := setupServiceDB(t)
	svc := newThreadService(t, db, nil)
	ctx := context.Background()
	owner := createUser(t, db, "owner")
	other := createUser(t, db, "other")

	thread, err := svc.CreateThread(ctx, owner.ID, "T", "d")
	require.NoError(t, err)

	err = svc.DeleteThread(ctx, thread.ID, other.ID, false)
	assert.ErrorIs(t, err, ErrNotThreadOwner)

	// 持删除权限的用户可删
	require.NoError(t, svc.DeleteThread(ctx, thread.ID, other.ID, true))
	_, err = svc.GetThread(ctx, thread.ID)
	assert.ErrorIs(t, err, ErrThreadNotFound)
}

func TestThreadLifecycleEndToEnd(t *testing.T) {
	db := setupServiceDB(t)
	rec := &recordingNotifier{}
	svc := newThreadService(t, db, rec)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	thread, err := svc.CreateThread(ctx, alice.ID, "Hello", "world")
	require.NoError(t, err)

	detail, err := svc.GetThread(ctx, thread.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", detail.Title)
	assert.Equal(t, "world", detail.Description)
	assert.Equal(t, alice.ID, detail.Author.ID)
	assert.Empty(t, detail.Comments)

	ids, err := repository.NewSubscriberRepository(db).ListUserIDs(ctx, thread.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{alice.ID}, ids)

	_, err = svc.CreateComment(ctx, thread.ID, bob.ID, "bob", "hi")
	require.NoError(t, err)

	notes := rec.notes()
	require.Len(t, notes, 1)
	assert.Equal(t, alice.ID, notes[0].UserID)
	assert.Equal(t, "thread_comment", notes[0].Kind)

	detail, err = svc.GetThread(ctx, thread.ID)
	require.NoError(t, err)
	require.Len(t, detail.Comments, 1)
	assert.Equal(t, bob.ID, detail.Comments[0].Author.ID)
	assert.Equal(t, "hi", detail.Comments[0].Content)
}

func TestListThreadsPageMetadata(t *testing.T) {
	db := setupServiceDB(t)
	svc := newThreadService(t, db, nil)
	ctx := context.Background()
	author := createUser(t, db, "alice")

	for i := 0; i < 15; i++ {
		_, err := svc.CreateThread(ctx, author.ID, "t", "d")
		require.NoError(t, err)
	}

	page, err := svc.ListThreads(ctx, 2, 10)
	require.NoError(t, err)
	assert.Len(t, page.Results, 5)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 10, page.Limit)
	assert.Equal(t, 2, page.TotalPages)
	assert.EqualValues(t, 15, page.TotalResults)
}
