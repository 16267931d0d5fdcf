package postgresql

import (
	"context"
	"fmt"

	"github.com/shiftsense/attendance-backend-go/internal/domain/notification"
	"github.com/shiftsense/attendance-backend-go/internal/pkg/database"
)

type notificationRepository struct {
	db *database.DB
}

func NewNotificationRepository(db *database.DB) notification.Repository {
	return &notificationRepository{db: db}
}

// CreateBatch implements notification.Repository.
func (r *notificationRepository) CreateBatch(ctx context.Context, notifications []*notification.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	return WithTransaction(ctx, r.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, r.db)
		for _, n := range notifications {
			if _, err := q.Exec(ctx, `
				INSERT INTO ops_notifications (id, type, title, message, data, created_at)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, n.ID, n.Type, n.Title, n.Message, n.Data, n.CreatedAt); err != nil {
				return fmt.Errorf("failed to insert notification: %w", err)
			}
		}
		return nil
	})
}
