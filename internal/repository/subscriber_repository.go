package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/forum-api/internal/model"
)

type SubscriberRepository interface {
	Add(ctx context.Context, threadID, userID uint) error
	Remove(ctx context.Context, threadID, userID uint) error
	// Find 不存在时返回 (nil, nil)
	Find(ctx context.Context, threadID, userID uint) (*model.ThreadSubscriber, error)
	ListUserIDs(ctx context.Context, threadID uint) ([]uint, error)
}

type subscriberRepository struct {
	db *gorm.DB
}

func NewSubscriberRepository(db *gorm.DB) SubscriberRepository {
	return &subscriberRepository{db: db}
}

func (r *subscriberRepository) Add(ctx context.Context, threadID, userID uint) error {
	s := &model.ThreadSubscriber{ThreadID: threadID, UserID: userID}
	// 幂等：重复订阅不报错
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(s).Error
}

func (r *subscriberRepository) Remove(ctx context.Context, threadID, userID uint) error {
	return r.db.WithContext(ctx).
		Where("thread_id = ? AND user_id = ?", threadID, userID).
		Delete(&model.ThreadSubscriber{}).Error
}

func (r *subscriberRepository) Find(ctx context.Context, threadID, userID uint) (*model.ThreadSubscriber, error) {
	var s model.ThreadSubscriber
	err := r.db.WithContext(ctx).
		Where("thread_id = ? AND user_id = ?", threadID, userID).
		Take(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *subscriberRepository) ListUserIDs(ctx context.Context, threadID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&model.ThreadSubscriber{}).
		Where("thread_id = ?", threadID).
		Pluck("user_id", &ids).Error
	return ids, err
}
