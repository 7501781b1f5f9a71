package model

import "time"

// Thread 主题帖；创建后除软删标志外不可变
type Thread struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	AuthorID    uint      `gorm:"index:idx_thread_author;not null" json:"authorId"`
	IsDeleted   bool      `gorm:"not null;default:false;index" json:"-"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
}

func (Thread) TableName() string { return "threads" }

// Comment 评论，只追加，不更新不删除
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ThreadID  uint      `gorm:"index:idx_comment_thread;not null" json:"threadId"`
	AuthorID  uint      `gorm:"not null" json:"authorId"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Comment) TableName() string { return "comments" }

// ThreadSubscriber 订阅关系
// 复合唯一键，避免重复订阅
// idx_sub_pair = (thread_id, user_id)
type ThreadSubscriber struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ThreadID  uint      `gorm:"index:idx_sub_thread;index:idx_sub_pair,unique;not null" json:"threadId"`
	UserID    uint      `gorm:"not null;index:idx_sub_pair,unique" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (ThreadSubscriber) TableName() string { return "thread_subscribers" }
