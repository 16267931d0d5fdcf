package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftsense/attendance-backend-go/internal/domain/notification"
	"github.com/shiftsense/attendance-backend-go/internal/pkg/sse"
)

type fakeNotificationRepo struct {
	mu      sync.Mutex
	batches [][]*notification.Notification
}

func (f *fakeNotificationRepo) CreateBatch(ctx context.Context, notifications []*notification.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, notifications)
	return nil
}

func (f *fakeNotificationRepo) all() []*notification.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*notification.Notification
	for _, batch := range f.batches {
		out = append(out, batch...)
	}
	return out
}

func TestNotify_FlushesOnStop(t *testing.T) {
	repo := &fakeNotificationRepo{}
	svc := NewNotifyService(repo, sse.NewHub(), Config{FlushInterval: time.Hour})

	svc.Notify(context.Background(), notification.CreateNotificationRequest{
		Type:    notification.TypeScheduleMiss,
		Title:   "t1",
		Message: "m1",
	})
	svc.Notify(context.Background(), notification.CreateNotificationRequest{
		Type:    notification.TypeAutoTimeOut,
		Title:   "t2",
		Message: "m2",
	})

	svc.Stop()

	stored := repo.all()
	require.Len(t, stored, 2)
	assert.NotEmpty(t, stored[0].ID)
	assert.Equal(t, notification.TypeScheduleMiss, stored[0].Type)
}

func TestNotify_PublishesToOpsTopic(t *testing.T) {
	repo := &fakeNotificationRepo{}
	hub := sse.NewHub()
	events, cleanup := hub.Subscribe(TopicOps)
	defer cleanup()

	svc := NewNotifyService(repo, hub, Config{FlushInterval: 10 * time.Millisecond})
	svc.Notify(context.Background(), notification.CreateNotificationRequest{
		Type:    notification.TypeAbsenceSweep,
		Title:   "sweep",
		Message: "done",
	})

	select {
	case event := <-events:
		assert.Equal(t, "notification", event.Event)
	case <-time.After(2 * time.Second):
		t.Fatal("no ops event published")
	}
	svc.Stop()
}

func TestNotify_FullQueueDropsInsteadOfBlocking(t *testing.T) {
	repo := &fakeNotificationRepo{}
	svc := NewNotifyService(repo, sse.NewHub(), Config{QueueSize: 1, FlushInterval: time.Hour, BatchSize: 100})

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			svc.Notify(context.Background(), notification.CreateNotificationRequest{
				Type:  notification.TypeScheduleMiss,
				Title: "t",
			})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked on a full queue")
	}
	svc.Stop()
}
