package model

import "time"

// Notification 已投递的站内通知
type Notification struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index:idx_notification_user;not null" json:"userId"`
	Title     string     `gorm:"type:varchar(255);not null" json:"title"`
	Body      string     `gorm:"type:text" json:"body"`
	Kind      string     `gorm:"type:varchar(32);index" json:"kind"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (Notification) TableName() string { return "notifications" }
