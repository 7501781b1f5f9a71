package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/forum-api/internal/repository"
	"github.com/d60-Lab/forum-api/pkg/logger"
)

// RoleDefinition 角色及其权限集合
type RoleDefinition struct {
	Name        string
	Description string
	Permissions []string
}

// Catalog RBAC 种子目录
type Catalog struct {
	Permissions []string
	Roles       []RoleDefinition
}

// 内置权限点
const (
	PermReadUsers     = "read_users"
	PermReadRoles     = "read_roles"
	PermCreateThreads = "create_threads"
	PermDeleteThreads = "delete_threads"
)

// DefaultCatalog 默认角色/权限目录
func DefaultCatalog() Catalog {
	return Catalog{
		Permissions: []string{PermReadUsers, PermReadRoles, PermCreateThreads, PermDeleteThreads},
		Roles: []RoleDefinition{
			{
				Name:        "user",
				Description: "Regular forum user",
				Permissions: []string{PermReadUsers, PermCreateThreads},
			},
			{
				Name:        "admin",
				Description: "Administrator with full access",
				Permissions: []string{PermReadUsers, PermReadRoles, PermCreateThreads, PermDeleteThreads},
			},
		},
	}
}

// RBACService 权限解析与种子写入
type RBACService interface {
	// EffectivePermissions 用户经所有角色可达的权限并集；无角色时为空集
	EffectivePermissions(ctx context.Context, userID uint) ([]string, error)
	EffectiveRoles(ctx context.Context, userID uint) ([]string, error)
	// Allow 判定 required 是否在有效权限集合内
	Allow(ctx context.Context, userID uint, required string) (bool, error)
	AssignRole(ctx context.Context, userID uint, roleName string) error
	// Seed 可重复执行：先权限，再角色，最后角色-权限关联
	Seed(ctx context.Context, catalog Catalog) error
}

type rbacService struct {
	repo  repository.RBACRepository
	cache *redis.Client
	ttl   time.Duration
}

// NewRBACService cache 可为 nil（直接读库）
func NewRBACService(repo repository.RBACRepository, cache *redis.Client, ttl time.Duration) RBACService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &rbacService{repo: repo, cache: cache, ttl: ttl}
}

func permCacheKey(userID uint) string { return fmt.Sprintf("rbac:perm:%d", userID) }

func (s *rbacService) EffectivePermissions(ctx context.Context, userID uint) ([]string, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, permCacheKey(userID)).Bytes(); err == nil {
			var perms []string
			if uErr := json.Unmarshal(data, &perms); uErr == nil {
				return perms, nil
			}
		}
	}

	perms, err := s.repo.PermissionsOfUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve permissions: %w", err)
	}
	if perms == nil {
		perms = []string{}
	}

	if s.cache != nil {
		if payload, err := json.Marshal(perms); err == nil {
			if err := s.cache.Set(ctx, permCacheKey(userID), payload, s.ttl).Err(); err != nil {
				logger.Warn("cache permission set failed", zap.Uint("user", userID), zap.Error(err))
			}
		}
	}
	return perms, nil
}

func (s *rbacService) EffectiveRoles(ctx context.Context, userID uint) ([]string, error) {
	roles, err := s.repo.RolesOfUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve roles: %w", err)
	}
	if roles == nil {
		roles = []string{}
	}
	return roles, nil
}

func (s *rbacService) Allow(ctx context.Context, userID uint, required string) (bool, error) {
	perms, err := s.EffectivePermissions(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, p := range perms {
		if p == required {
			return true, nil
		}
	}
	return false, nil
}

func (s *rbacService) AssignRole(ctx context.Context, userID uint, roleName string) error {
	role, err := s.repo.FindRoleByName(ctx, roleName)
	if err != nil {
		return fmt.Errorf("find role: %w", err)
	}
	if role == nil {
		return fmt.Errorf("role %q not seeded", roleName)
	}
	if err := s.repo.AssignRoleToUser(ctx, userID, role.ID); err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	// 角色变更后失效缓存
	if s.cache != nil {
		if err := s.cache.Del(ctx, permCacheKey(userID)).Err(); err != nil {
			logger.Warn("invalidate permission cache failed", zap.Uint("user", userID), zap.Error(err))
		}
	}
	return nil
}

func (s *rbacService) Seed(ctx context.Context, catalog Catalog) error {
	for _, name := range catalog.Permissions {
		desc := "Permission to " + strings.ReplaceAll(name, "_", " ")
		if err := s.repo.CreatePermission(ctx, name, desc); err != nil {
			return fmt.Errorf("seed permission %s: %w", name, err)
		}
	}

	for _, def := range catalog.Roles {
		if err := s.repo.CreateRole(ctx, def.Name, def.Description); err != nil {
			return fmt.Errorf("seed role %s: %w", def.Name, err)
		}
		role, err := s.repo.FindRoleByName(ctx, def.Name)
		if err != nil || role == nil {
			return fmt.Errorf("seed role %s: lookup failed: %w", def.Name, err)
		}
		for _, permName := range def.Permissions {
			perm, err := s.repo.FindPermissionByName(ctx, permName)
			if err != nil {
				return fmt.Errorf("seed link %s->%s: %w", def.Name, permName, err)
			}
			if perm == nil {
				return fmt.Errorf("seed link %s->%s: permission not in catalog", def.Name, permName)
			}
			if err := s.repo.AssignPermissionToRole(ctx, role.ID, perm.ID); err != nil {
				return fmt.Errorf("seed link %s->%s: %w", def.Name, permName, err)
			}
		}
	}
	return nil
}
