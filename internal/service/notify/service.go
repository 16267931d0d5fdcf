package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shiftsense/attendance-backend-go/internal/domain/notification"
	"github.com/shiftsense/attendance-backend-go/internal/pkg/sse"
)

// TopicOps is the SSE topic operational notifications are pushed to.
const TopicOps = "ops"

// Service is the ops notifier with its worker lifecycle.
type Service interface {
	notification.Notifier
	Stop()
}

// Config holds notification service configuration
type Config struct {
	BatchSize     int           // default: 100
	FlushInterval time.Duration // default: 5 seconds
	QueueSize     int           // default: 1000
}

// service is the fire-and-forget ops channel: callers enqueue and move on,
// a background worker batch-inserts and pushes to SSE subscribers.
type service struct {
	repo   notification.Repository
	hub    *sse.Hub
	config Config

	queue  chan notification.CreateNotificationRequest
	wg     sync.WaitGroup
	stopCh chan struct{}
	once   sync.Once
}

// NewNotifyService creates the ops notifier with its background worker.
func NewNotifyService(repo notification.Repository, hub *sse.Hub, cfg Config) Service {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval == 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = 1000
	}

	s := &service{
		repo:   repo,
		hub:    hub,
		config: cfg,
		queue:  make(chan notification.CreateNotificationRequest, cfg.QueueSize),
		stopCh: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.worker()

	slog.Info("Notify service started", "batch_size", cfg.BatchSize, "flush_interval", cfg.FlushInterval)
	return s
}

// Notify implements notification.Notifier. Never blocks the caller: when the
// queue is full the notification is dropped with a log line.
func (s *service) Notify(ctx context.Context, req notification.CreateNotificationRequest) {
	select {
	case s.queue <- req:
	default:
		slog.Warn("Ops notification queue full, dropping", "type", req.Type, "title", req.Title)
	}
}

// Stop flushes pending notifications and stops the worker.
func (s *service) Stop() {
	s.once.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()
}

func (s *service) worker() {
	defer s.wg.Done()

	batch := make([]notification.CreateNotificationRequest, 0, s.config.BatchSize)
	ticker := time.NewTicker(s.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		notifications := make([]*notification.Notification, len(batch))
		for i, req := range batch {
			notifications[i] = &notification.Notification{
				ID:        uuid.New().String(),
				Type:      req.Type,
				Title:     req.Title,
				Message:   req.Message,
				Data:      req.Data,
				CreatedAt: time.Now().UTC(),
			}
		}

		if err := s.repo.CreateBatch(ctx, notifications); err != nil {
			slog.Error("Failed to batch insert ops notifications", "count", len(notifications), "error", err)
		} else {
			for _, n := range notifications {
				s.hub.Publish(TopicOps, sse.Event{
					Topic: TopicOps,
					Event: "notification",
					Data:  n,
				})
			}
		}

		batch = batch[:0]
	}

	for {
		select {
		case <-s.stopCh:
			// Drain whatever is still queued, then flush.
			for {
				select {
				case req := <-s.queue:
					batch = append(batch, req)
					if len(batch) >= s.config.BatchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		case req := <-s.queue:
			batch = append(batch, req)
			if len(batch) >= s.config.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
