package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Listener holds a dedicated connection subscribed to a Postgres NOTIFY
// channel. It reconnects on failure; callers get a fresh onResume callback
// for every established subscription so they can re-derive state instead of
// replaying missed notifications.
type Listener struct {
	db      *DB
	channel string
}

func NewListener(db *DB, channel string) *Listener {
	return &Listener{db: db, channel: channel}
}

// Listen blocks until ctx is cancelled. handle is invoked with the payload of
// every notification received on the channel.
func (l *Listener) Listen(ctx context.Context, onResume func(), handle func(payload string)) error {
	backoff := time.Second

	for {
		if err := l.listenOnce(ctx, onResume, handle); err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Error("Change feed connection lost, reconnecting", "channel", l.channel, "error", err, "backoff", backoff)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (l *Listener) listenOnce(ctx context.Context, onResume func(), handle func(payload string)) error {
	conn, err := l.db.Pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listener connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+l.channel); err != nil {
		return fmt.Errorf("listen on %s: %w", l.channel, err)
	}

	slog.Info("Change feed subscribed", "channel", l.channel)
	onResume()

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}
		handle(notification.Payload)
	}
}
