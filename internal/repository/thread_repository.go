package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/forum-api/internal/model"
)

// ThreadSummary 列表项：帖子字段 + 作者摘要
type ThreadSummary struct {
	ID          uint                `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	CreatedAt   time.Time           `json:"createdAt"`
	Author      model.AuthorSummary `json:"author"`
}

// CommentView 评论 + 作者摘要
type CommentView struct {
	ID        uint                `json:"id"`
	Content   string              `json:"content"`
	CreatedAt time.Time           `json:"createdAt"`
	Author    model.AuthorSummary `json:"author"`
}

// ThreadDetail 帖子详情：含全部评论（新的在前）
type ThreadDetail struct {
	ThreadSummary
	Comments []CommentView `json:"comments"`
}

type ThreadRepository interface {
	Create(ctx context.Context, thread *model.Thread) error
	// List 返回非删除帖子的一页（按创建时间倒序）及总数
	List(ctx context.Context, page, limit int) ([]ThreadSummary, int64, error)
	ListByAuthor(ctx context.Context, authorID uint, page, limit int) ([]ThreadSummary, int64, error)
	// GetByID 帖子不存在或已软删时返回 (nil, nil)
	GetByID(ctx context.Context, id uint) (*ThreadDetail, error)
	CreateComment(ctx context.Context, comment *model.Comment) error
	SoftDelete(ctx context.Context, id uint) error
}

type threadRepository struct {
	db *gorm.DB
}

func NewThreadRepository(db *gorm.DB) ThreadRepository { return &threadRepository{db: db} }

func (r *threadRepository) Create(ctx context.Context, thread *model.Thread) error {
	return r.db.WithContext(ctx).Create(thread).Error
}

// 联表扫描用的扁平行
type threadRow struct {
	ID          uint
	Title       string
	Description string
	CreatedAt   time.Time
	AuthorID    uint
	Username    string
	FirstName   string
	LastName    string
}

func (t threadRow) summary() ThreadSummary {
	return ThreadSummary{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
		Author: model.AuthorSummary{
			ID:        t.AuthorID,
			Username:  t.Username,
			FirstName: t.FirstName,
			LastName:  t.LastName,
		},
	}
}

func (r *threadRepository) list(ctx context.Context, page, limit int, cond string, args ...interface{}) ([]ThreadSummary, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit

	base := r.db.WithContext(ctx).Model(&model.Thread{}).Where("threads.is_deleted = ?", false)
	if cond != "" {
		base = base.Where(cond, args...)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []threadRow
	err := base.Session(&gorm.Session{}).
		Select("threads.id, threads.title, threads.description, threads.created_at, users.id AS author_id, users.username, users.first_name, users.last_name").
		Joins("INNER JOIN users ON users.id = threads.author_id").
		Order("threads.created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	res := make([]ThreadSummary, len(rows))
	for i, row := range rows {
		res[i] = row.summary()
	}
	return res, total, nil
}

func (r *threadRepository) List(ctx context.Context, page, limit int) ([]ThreadSummary, int64, error) {
	return r.list(ctx, page, limit, "")
}

func (r *threadRepository) ListByAuthor(ctx context.Context, authorID uint, page, limit int) ([]ThreadSummary, int64, error) {
	return r.list(ctx, page, limit, "threads.author_id = ?", authorID)
}

func (r *threadRepository) GetByID(ctx context.Context, id uint) (*ThreadDetail, error) {
	var row threadRow
	err := r.db.WithContext(ctx).Model(&model.Thread{}).
		Select("threads.id, threads.title, threads.description, threads.created_at, users.id AS author_id, users.username, users.first_name, users.last_name").
		Joins("INNER JOIN users ON users.id = threads.author_id").
		Where("threads.id = ? AND threads.is_deleted = ?", id, false).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	type commentRow struct {
		ID        uint
		Content   string
		CreatedAt time.Time
		AuthorID  uint
		Username  string
		FirstName string
		LastName  string
	}
	var commentRows []commentRow
	err = r.db.WithContext(ctx).Model(&model.Comment{}).
		Select("comments.id, comments.content, comments.created_at, users.id AS author_id, users.username, users.first_name, users.last_name").
		Joins("INNER JOIN users ON users.id = comments.author_id").
		Where("comments.thread_id = ?", id).
		Order("comments.created_at DESC").
		Scan(&commentRows).Error
	if err != nil {
		return nil, err
	}

	comments := make([]CommentView, len(commentRows))
	for i, cr := range commentRows {
		comments[i] = CommentView{
			ID:        cr.ID,
			Content:   cr.Content,
			CreatedAt: cr.CreatedAt,
			Author:    model.AuthorSummary{ID: cr.AuthorID, Username: cr.Username, FirstName: cr.FirstName, LastName: cr.LastName},
		}
	}
	return &ThreadDetail{ThreadSummary: row.summary(), Comments: comments}, nil
}

func (r *threadRepository) CreateComment(ctx context.Context, comment *model.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *threadRepository) SoftDelete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&model.Thread{}).
		Where("id = ?", id).
		Update("is_deleted", true).Error
}
