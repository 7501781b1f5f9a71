package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/d60-Lab/forum-api/config"
	"github.com/d60-Lab/forum-api/internal/model"
	"github.com/d60-Lab/forum-api/internal/repository"
	"github.com/d60-Lab/forum-api/internal/service"
	"github.com/d60-Lab/forum-api/pkg/database"
	"github.com/d60-Lab/forum-api/pkg/logger"
)

func must[T any](v T, err error) T { if err != nil { panic(err) }; return v }

// 独立的 RBAC 种子工具：重复执行安全。
// ADMIN_USER_ID 非空时顺带给该用户绑 admin 角色。
func main() {
	cfg := must(config.Load())
	_ = logger.Init(cfg.Log.Level, cfg.Server.Mode)

	db := must(database.InitDB(cfg))
	if err := db.AutoMigrate(&model.Role{}, &model.Permission{}, &model.RolePermission{}, &model.UserRole{}); err != nil {
		panic(err)
	}

	ctx := context.Background()
	rbacSvc := service.NewRBACService(repository.NewRBACRepository(db), nil, 0)
	if err := rbacSvc.Seed(ctx, service.DefaultCatalog()); err != nil {
		panic(err)
	}
	fmt.Println("rbac catalog seeded")

	if s := os.Getenv("ADMIN_USER_ID"); s != "" {
		uid, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			panic(fmt.Errorf("bad ADMIN_USER_ID: %w", err))
		}
		if err := rbacSvc.AssignRole(ctx, uint(uid), "admin"); err != nil {
			panic(err)
		}
		fmt.Printf("user %d granted admin\n", uid)
	}
}
