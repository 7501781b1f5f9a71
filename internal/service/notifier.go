package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/forum-api/internal/model"
	"github.com/d60-Lab/forum-api/internal/repository"
	"github.com/d60-Lab/forum-api/pkg/logger"
)

// Notifier 通知投递契约；单个收件人投递失败不致命
type Notifier interface {
	Send(ctx context.Context, userID uint, title, body, kind string) error
}

// storeNotifier 落库即投递（站内通知）
type storeNotifier struct {
	repo repository.NotificationRepository
}

func NewStoreNotifier(repo repository.NotificationRepository) Notifier {
	return &storeNotifier{repo: repo}
}

func (n *storeNotifier) Send(ctx context.Context, userID uint, title, body, kind string) error {
	return n.repo.Create(ctx, &model.Notification{
		UserID: userID,
		Title:  title,
		Body:   body,
		Kind:   kind,
	})
}

type notifyJob struct {
	userID uint
	title  string
	body   string
	kind   string
}

// AsyncNotifier 本地异步投递执行器：入队即返回，后台 worker 落地
type AsyncNotifier struct {
	inner Notifier
	ch    chan notifyJob
}

func NewAsyncNotifier(inner Notifier, queueSize int) *AsyncNotifier {
	if queueSize <= 0 {
		queueSize = 10000
	}
	return &AsyncNotifier{inner: inner, ch: make(chan notifyJob, queueSize)}
}

// Start 启动 worker；返回停止函数（等待队列自然排空一小段时间）
func (n *AsyncNotifier) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = 4
	}
	stopCh := make(chan struct{})
	for i := 0; i < workers; i++ {
		go func() {
			for {
				select {
				case job := <-n.ch:
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					if err := n.inner.Send(ctx, job.userID, job.title, job.body, job.kind); err != nil {
						logger.Warn("notification delivery failed",
							zap.Uint("user", job.userID), zap.Error(err))
					}
					cancel()
				case <-stopCh:
					return
				}
			}
		}()
	}
	return func(ctx context.Context) error {
		close(stopCh)
		timeout := time.After(2 * time.Second)
		for {
			select {
			case <-timeout:
				return nil
			default:
				if len(n.ch) == 0 {
					return nil
				}
				time.Sleep(50 * time.Millisecond)
			}
		}
	}
}

// Send 只入队，不阻塞请求；队列满时丢弃并告警
func (n *AsyncNotifier) Send(_ context.Context, userID uint, title, body, kind string) error {
	select {
	case n.ch <- notifyJob{userID: userID, title: title, body: body, kind: kind}:
	default:
		logger.Warn("notifier queue full, drop", zap.Uint("user", userID))
	}
	return nil
}

// QueueLen 返回当前队列长度（采样值）。
func (n *AsyncNotifier) QueueLen() int { return len(n.ch) }
