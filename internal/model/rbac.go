package model

import "time"

// Role 角色
type Role struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:varchar(255)" json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (Role) TableName() string { return "roles" }

// Permission 原子能力点（如 read_users / read_roles）
type Permission struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:varchar(255)" json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (Permission) TableName() string { return "permissions" }

// RolePermission 角色-权限关联
// idx_role_perm_pair = (role_id, permission_id)
type RolePermission struct {
	ID           uint `gorm:"primaryKey" json:"id"`
	RoleID       uint `gorm:"index:idx_role_perm_pair,unique;not null" json:"roleId"`
	PermissionID uint `gorm:"index:idx_role_perm_pair,unique;not null" json:"permissionId"`
}

func (RolePermission) TableName() string { return "role_permissions" }

// UserRole 用户-角色关联；有效权限为所有角色权限的并集
// idx_user_role_pair = (user_id, role_id)
type UserRole struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"index:idx_user_role_user;index:idx_user_role_pair,unique;not null" json:"userId"`
	RoleID uint `gorm:"index:idx_user_role_pair,unique;not null" json:"roleId"`
}

func (UserRole) TableName() string { return "user_roles" }
