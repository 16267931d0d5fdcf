package notification

import "context"

// Notifier is the fire-and-forget ops channel the core calls through on
// failure paths. Implementations must never block the caller on delivery;
// tests substitute a recorder.
type Notifier interface {
	Notify(ctx context.Context, req CreateNotificationRequest)
}

type Repository interface {
	CreateBatch(ctx context.Context, notifications []*Notification) error
}

// NopNotifier discards everything. Used in tests and when the ops channel is
// disabled.
type NopNotifier struct{}

func (NopNotifier) Notify(ctx context.Context, req CreateNotificationRequest) {}
