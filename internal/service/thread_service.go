package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/forum-api/internal/model"
	"github.com/d60-Lab/forum-api/internal/repository"
	"github.com/d60-Lab/forum-api/pkg/logger"
)

var (
	ErrThreadNotFound = errors.New("thread not found")
	ErrNotThreadOwner = errors.New("not the thread owner")
)

const notificationKindComment = "thread_comment"

// ThreadPage 一页帖子及分页元数据
type ThreadPage struct {
	Results      []repository.ThreadSummary
	Page         int
	Limit        int
	TotalPages   int
	TotalResults int64
}

// ThreadService 帖子生命周期协调者
type ThreadService interface {
	// CreateThread 帖子与作者的首个订阅在同一事务内落地
	CreateThread(ctx context.Context, authorID uint, title, description string) (*model.Thread, error)
	ListThreads(ctx context.Context, page, limit int) (*ThreadPage, error)
	ListThreadsByAuthor(ctx context.Context, authorID uint, page, limit int) (*ThreadPage, error)
	GetThread(ctx context.Context, id uint) (*repository.ThreadDetail, error)
	// CreateComment 落库后对除评论者之外的订阅者扇出通知（单收件人失败不中断）
	CreateComment(ctx context.Context, threadID, authorID uint, authorName, content string) (*model.Comment, error)
	// Subscribe 幂等；已订阅时 already 为 true 且不产生新行
	Subscribe(ctx context.Context, threadID, userID uint) (already bool, err error)
	Unsubscribe(ctx context.Context, threadID, userID uint) error
	DeleteThread(ctx context.Context, threadID, actorID uint, canModerate bool) error
}

type threadService struct {
	db         *gorm.DB
	threadRepo repository.ThreadRepository
	subRepo    repository.SubscriberRepository
	notifier   Notifier
}

func NewThreadService(db *gorm.DB, threadRepo repository.ThreadRepository, subRepo repository.SubscriberRepository, notifier Notifier) ThreadService {
	return &threadService{db: db, threadRepo: threadRepo, subRepo: subRepo, notifier: notifier}
}

func (s *threadService) CreateThread(ctx context.Context, authorID uint, title, description string) (*model.Thread, error) {
	thread := &model.Thread{Title: title, Description: description, AuthorID: authorID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(thread).Error; err != nil {
			return err
		}
		sub := &model.ThreadSubscriber{ThreadID: thread.ID, UserID: authorID}
		if err := tx.Create(sub).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create thread: %w", err)
	}
	return thread, nil
}

func (s *threadService) page(results []repository.ThreadSummary, total int64, page, limit int) *ThreadPage {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &ThreadPage{Results: results, Page: page, Limit: limit, TotalPages: totalPages, TotalResults: total}
}

func (s *threadService) ListThreads(ctx context.Context, page, limit int) (*ThreadPage, error) {
	results, total, err := s.threadRepo.List(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	return s.page(results, total, page, limit), nil
}

func (s *threadService) ListThreadsByAuthor(ctx context.Context, authorID uint, page, limit int) (*ThreadPage, error) {
	results, total, err := s.threadRepo.ListByAuthor(ctx, authorID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("list threads by author: %w", err)
	}
	return s.page(results, total, page, limit), nil
}

func (s *threadService) GetThread(ctx context.Context, id uint) (*repository.ThreadDetail, error) {
	detail, err := s.threadRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get thread: %w", err)
	}
	if detail == nil {
		return nil, ErrThreadNotFound
	}
	return detail, nil
}

func (s *threadService) CreateComment(ctx context.Context, threadID, authorID uint, authorName, content string) (*model.Comment, error) {
	detail, err := s.threadRepo.GetByID(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("get thread: %w", err)
	}
	if detail == nil {
		return nil, ErrThreadNotFound
	}

	comment := &model.Comment{ThreadID: threadID, AuthorID: authorID, Content: content}
	if err := s.threadRepo.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	// 评论已提交；扇出在事务之外，逐收件人尽力而为
	s.fanOut(ctx, detail.Title, threadID, authorID, authorName)
	return comment, nil
}

func (s *threadService) fanOut(ctx context.Context, threadTitle string, threadID, actorID uint, actorName string) {
	subscribers, err := s.subRepo.ListUserIDs(ctx, threadID)
	if err != nil {
		logger.Warn("list subscribers for fan-out failed",
			zap.Uint("thread", threadID), zap.Error(err))
		return
	}
	body := fmt.Sprintf("%s commented on %q", actorName, threadTitle)
	for _, uid := range subscribers {
		if uid == actorID {
			continue
		}
		if err := s.notifier.Send(ctx, uid, "New comment on thread", body, notificationKindComment); err != nil {
			logger.Warn("notify subscriber failed",
				zap.Uint("thread", threadID), zap.Uint("user", uid), zap.Error(err))
		}
	}
}

func (s *threadService) Subscribe(ctx context.Context, threadID, userID uint) (bool, error) {
	existing, err := s.subRepo.Find(ctx, threadID, userID)
	if err != nil {
		return false, fmt.Errorf("find subscription: %w", err)
	}
	if existing != nil {
		return true, nil
	}
	if err := s.subRepo.Add(ctx, threadID, userID); err != nil {
		return false, fmt.Errorf("subscribe: %w", err)
	}
	return false, nil
}

func (s *threadService) Unsubscribe(ctx context.Context, threadID, userID uint) error {
	if err := s.subRepo.Remove(ctx, threadID, userID); err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	return nil
}

func (s *threadService) DeleteThread(ctx context.Context, threadID, actorID uint, canModerate bool) error {
	detail, err := s.threadRepo.GetByID(ctx, threadID)
	if err != nil {
		return fmt.Errorf("get thread: %w", err)
	}
	if detail == nil {
		return ErrThreadNotFound
	}
	if detail.Author.ID != actorID && !canModerate {
		return ErrNotThreadOwner
	}
	if err := s.threadRepo.SoftDelete(ctx, threadID); err != nil {
		return fmt.Errorf("delete thread: %w", err)
	}
	return nil
}
