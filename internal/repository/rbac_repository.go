package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/forum-api/internal/model"
)

type RBACRepository interface {
	// CreatePermission 已存在同名权限时不报错不重复
	CreatePermission(ctx context.Context, name, description string) error
	CreateRole(ctx context.Context, name, description string) error
	FindPermissionByName(ctx context.Context, name string) (*model.Permission, error)
	FindRoleByName(ctx context.Context, name string) (*model.Role, error)
	AssignPermissionToRole(ctx context.Context, roleID, permissionID uint) error
	AssignRoleToUser(ctx context.Context, userID, roleID uint) error
	// PermissionsOfUser 一跳间接：user -> user_roles -> role_permissions -> permissions
	PermissionsOfUser(ctx context.Context, userID uint) ([]string, error)
	RolesOfUser(ctx context.Context, userID uint) ([]string, error)
}

type rbacRepository struct {
	db *gorm.DB
}

func NewRBACRepository(db *gorm.DB) RBACRepository { return &rbacRepository{db: db} }

func (r *rbacRepository) CreatePermission(ctx context.Context, name, description string) error {
	p := &model.Permission{Name: name, Description: description}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(p).Error
}

func (r *rbacRepository) CreateRole(ctx context.Context, name, description string) error {
	role := &model.Role{Name: name, Description: description}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(role).Error
}

func (r *rbacRepository) FindPermissionByName(ctx context.Context, name string) (*model.Permission, error) {
	var p model.Permission
	err := r.db.WithContext(ctx).Where("name = ?", name).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *rbacRepository) FindRoleByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	err := r.db.WithContext(ctx).Where("name = ?", name).Take(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *rbacRepository) AssignPermissionToRole(ctx context.Context, roleID, permissionID uint) error {
	rp := &model.RolePermission{RoleID: roleID, PermissionID: permissionID}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(rp).Error
}

func (r *rbacRepository) AssignRoleToUser(ctx context.Context, userID, roleID uint) error {
	ur := &model.UserRole{UserID: userID, RoleID: roleID}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(ur).Error
}

func (r *rbacRepository) PermissionsOfUser(ctx context.Context, userID uint) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).Model(&model.UserRole{}).
		Joins("INNER JOIN role_permissions ON role_permissions.role_id = user_roles.role_id").
		Joins("INNER JOIN permissions ON permissions.id = role_permissions.permission_id").
		Where("user_roles.user_id = ?", userID).
		Distinct().
		Pluck("permissions.name", &names).Error
	return names, err
}

func (r *rbacRepository) RolesOfUser(ctx context.Context, userID uint) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).Model(&model.UserRole{}).
		Joins("INNER JOIN roles ON roles.id = user_roles.role_id").
		Where("user_roles.user_id = ?", userID).
		Pluck("roles.name", &names).Error
	return names, err
}
