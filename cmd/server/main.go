package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/forum-api/config"
	"github.com/d60-Lab/forum-api/internal/api"
	"github.com/d60-Lab/forum-api/internal/api/handler"
	"github.com/d60-Lab/forum-api/internal/model"
	"github.com/d60-Lab/forum-api/internal/repository"
	"github.com/d60-Lab/forum-api/internal/service"
	"github.com/d60-Lab/forum-api/pkg/auth"
	"github.com/d60-Lab/forum-api/pkg/database"
	"github.com/d60-Lab/forum-api/pkg/logger"
	"github.com/d60-Lab/forum-api/pkg/tracing"
)

func must[T any](v T, err error) T { if err != nil { panic(err) }; return v }

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Thread{},
		&model.Comment{},
		&model.ThreadSubscriber{},
		&model.Role{},
		&model.Permission{},
		&model.RolePermission{},
		&model.UserRole{},
		&model.Notification{},
	)
}

func main() {
	cfg := must(config.Load())
	if err := logger.Init(cfg.Log.Level, cfg.Server.Mode); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx := context.Background()
	shutdownTracing := must(tracing.Init(ctx, cfg))
	defer func() { _ = shutdownTracing(ctx) }()

	db := must(database.InitDB(cfg))
	if err := migrate(db); err != nil {
		logger.Error("migrate failed", zap.Error(err))
		os.Exit(1)
	}

	var cache *redis.Client
	if cfg.Redis.Addr != "" {
		cache = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	threadRepo := repository.NewThreadRepository(db)
	subRepo := repository.NewSubscriberRepository(db)
	rbacRepo := repository.NewRBACRepository(db)
	userRepo := repository.NewUserRepository(db)
	notifRepo := repository.NewNotificationRepository(db)

	rbacSvc := service.NewRBACService(rbacRepo, cache, cfg.Redis.PermTTL)
	if err := rbacSvc.Seed(ctx, service.DefaultCatalog()); err != nil {
		logger.Error("rbac seed failed", zap.Error(err))
		os.Exit(1)
	}

	var notifier service.Notifier = service.NewStoreNotifier(notifRepo)
	if cfg.Notify.Async {
		async := service.NewAsyncNotifier(notifier, cfg.Notify.QueueSize)
		stopNotifier := async.Start(cfg.Notify.Workers)
		defer func() { _ = stopNotifier(ctx) }()
		notifier = async
	}

	threadSvc := service.NewThreadService(db, threadRepo, subRepo, notifier)
	userSvc := service.NewUserService(userRepo, rbacSvc)

	tokens := auth.NewTokenManager(cfg.JWT)
	h := handler.New(db, tokens, userSvc, threadSvc, rbacSvc, notifRepo)
	router := api.NewRouter(cfg, h, tokens, rbacSvc)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
