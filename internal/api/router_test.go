package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/forum-api/config"
	"github.com/d60-Lab/forum-api/internal/api"
	"github.com/d60-Lab/forum-api/internal/api/handler"
	"github.com/d60-Lab/forum-api/internal/model"
	"github.com/d60-Lab/forum-api/internal/repository"
	"github.com/d60-Lab/forum-api/internal/service"
	"github.com/d60-Lab/forum-api/pkg/auth"
)

type testEnv struct {
	Router *gin.Engine
	DB     *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{}, &model.Thread{}, &model.Comment{}, &model.ThreadSubscriber{},
		&model.Role{}, &model.Permission{}, &model.RolePermission{}, &model.UserRole{},
		&model.Notification{},
	))

	cfg := &config.Config{}
	cfg.Server.Mode = gin.TestMode
	cfg.JWT = config.JWTConfig{Secret: "test-secret", ExpiresIn: time.Hour, Issuer: "test"}

	notifRepo := repository.NewNotificationRepository(db)
	rbacSvc := service.NewRBACService(repository.NewRBACRepository(db), nil, time.Minute)
	require.NoError(t, rbacSvc.Seed(context.Background(), service.DefaultCatalog()))
	threadSvc := service.NewThreadService(db,
		repository.NewThreadRepository(db),
		repository.NewSubscriberRepository(db),
		service.NewStoreNotifier(notifRepo))
	userSvc := service.NewUserService(repository.NewUserRepository(db), rbacSvc)

	tokens := auth.NewTokenManager(cfg.JWT)
	h := handler.New(db, tokens, userSvc, threadSvc, rbacSvc, notifRepo)
	return &testEnv{Router: api.NewRouter(cfg, h, tokens, rbacSvc), DB: db}
}

func (e *testEnv) do(method, path, body, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	// 响应不压缩，便于断言
	req.Header.Set("Accept-Encoding", "identity")
	e.Router.ServeHTTP(w, req)
	return w
}

func register(t *testing.T, env *testEnv, username string) string {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"email":"%s@example.com","password":"secret-password"}`, username, username)
	w := env.do("POST", "/api/v1/auth/register", body, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do("POST", "/api/v1/auth/login", fmt.Sprintf(`{"username":%q,"password":"secret-password"}`, username), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.Token)
	return resp.Data.Token
}

func TestThreadFlowOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	alice := register(t, env, "alice")
	bob := register(t, env, "bob")

	w := env.do("POST", "/api/v1/threads", `{"title":"Hello","description":"world"}`, alice)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Data model.Thread `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	threadID := created.Data.ID
	require.NotZero(t, threadID)

	w = env.do("GET", fmt.Sprintf("/api/v1/threads/%d", threadID), "", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"title":"Hello"`)

	w = env.do("POST", fmt.Sprintf("/api/v1/threads/%d/comments", threadID), `{"content":"hi"}`, bob)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// alice 作为订阅者收到通知
	w = env.do("GET", "/api/v1/notifications", "", alice)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "thread_comment")
}

func TestThreadNotFoundOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	w := env.do("GET", "/api/v1/threads/9999", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)
	w := env.do("POST", "/api/v1/threads", `{"title":"x","description":"y"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do("POST", "/api/v1/threads", `{"title":"x","description":"y"}`, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestValidationErrors(t *testing.T) {
	env := newTestEnv(t)
	alice := register(t, env, "alice")

	w := env.do("POST", "/api/v1/threads", `{"description":"no title"}`, alice)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"title"`)
}

func TestSubscribeIdempotentOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	alice := register(t, env, "alice")
	bob := register(t, env, "bob")

	w := env.do("POST", "/api/v1/threads", `{"title":"T","description":"d"}`, alice)
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Data model.Thread `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	path := fmt.Sprintf("/api/v1/threads/%d/subscribe", created.Data.ID)
	w = env.do("POST", path, "", bob)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Subscribed successfully")

	w = env.do("POST", path, "", bob)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Already subscribed")

	w = env.do("DELETE", path, "", bob)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do("DELETE", path, "", bob)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	w := env.do("GET", "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
