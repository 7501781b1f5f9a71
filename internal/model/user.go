package model

import "time"

// User 用户（本核心只读引用，不做修改）
type User struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Username  string `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	Email     string `gorm:"type:varchar(128);uniqueIndex;not null" json:"email"`
	Password  string `gorm:"type:varchar(128);not null" json:"-"`
	FirstName string `gorm:"type:varchar(64)" json:"firstName"`
	LastName  string `gorm:"type:varchar(64)" json:"lastName"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// AuthorSummary 列表/详情里附带的作者摘要
type AuthorSummary struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}
