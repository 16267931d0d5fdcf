package watch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shiftsense/attendance-backend-go/internal/domain/attendance"
	"github.com/shiftsense/attendance-backend-go/internal/pkg/database"
	"github.com/shiftsense/attendance-backend-go/internal/pkg/sse"
)

// View names double as SSE topics.
const (
	ViewOnBreak        = "on-break"
	ViewOverBreakLimit = "over-break-limit"
	ViewWorkingNow     = "working-now"
)

var ViewNames = []string{ViewOnBreak, ViewOverBreakLimit, ViewWorkingNow}

// Watcher subscribes to the attendance store's mutation feed and republishes
// derived views. It never diffs change payloads: every signal triggers a
// re-query, trading query cost for correctness under concurrent overlapping
// writes. On feed resumption it republishes full snapshots instead of trying
// to replay missed deltas.
type Watcher struct {
	listener       *database.Listener
	attendanceRepo attendance.AttendanceRepository
	hub            *sse.Hub
	breakLimit     time.Duration
	debounce       time.Duration

	dirty  chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup

	now func() time.Time
}

func NewWatcher(
	listener *database.Listener,
	attendanceRepo attendance.AttendanceRepository,
	hub *sse.Hub,
	breakLimit time.Duration,
	debounce time.Duration,
) *Watcher {
	return &Watcher{
		listener:       listener,
		attendanceRepo: attendanceRepo,
		hub:            hub,
		breakLimit:     breakLimit,
		debounce:       debounce,
		dirty:          make(chan struct{}, 1),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Start launches the feed subscription and the publish loop.
func (w *Watcher) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		err := w.listener.Listen(ctx,
			func() {
				// Fresh subscription (startup or reconnect): snapshot, don't replay.
				w.signal()
			},
			func(payload string) {
				w.signal()
			},
		)
		if err != nil && ctx.Err() == nil {
			slog.Error("Change feed terminated", "error", err)
		}
	}()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.publishLoop(ctx)
	}()

	slog.Info("Attendance watcher started", "views", ViewNames)
}

// Stop shuts the watcher down and waits for in-flight publishes.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	slog.Info("Attendance watcher stopped")
}

func (w *Watcher) signal() {
	select {
	case w.dirty <- struct{}{}:
	default:
	}
}

// publishLoop coalesces bursts of change signals behind a debounce window
// before recomputing, since every recompute is a full re-query.
func (w *Watcher) publishLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.dirty:
		}

		timer := time.NewTimer(w.debounce)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		w.publishAll(ctx)
	}
}

func (w *Watcher) publishAll(ctx context.Context) {
	for _, view := range ViewNames {
		records, err := w.Snapshot(ctx, view)
		if err != nil {
			slog.Error("Failed to recompute view", "view", view, "error", err)
			continue
		}
		w.hub.Publish(view, sse.Event{
			Topic: view,
			Event: "snapshot",
			Data:  records,
		})
	}
}

// Snapshot recomputes a named view from the store. New subscribers get this
// directly so reconnects always see current state.
func (w *Watcher) Snapshot(ctx context.Context, view string) ([]attendance.AttendanceResponse, error) {
	now := w.now()

	var records []attendance.Attendance
	var err error
	switch view {
	case ViewOnBreak:
		records, err = w.attendanceRepo.ListOnBreak(ctx, now.Add(-24*time.Hour))
	case ViewOverBreakLimit:
		records, err = w.attendanceRepo.ListOverBreakLimit(ctx, now.Add(-w.breakLimit))
	case ViewWorkingNow:
		records, err = w.attendanceRepo.ListWorking(ctx, now.Add(-24*time.Hour))
	default:
		return nil, fmt.Errorf("unknown view %q", view)
	}
	if err != nil {
		return nil, err
	}

	responses := make([]attendance.AttendanceResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, attendance.ToResponse(record))
	}
	return responses, nil
}

// KnownView reports whether the name maps to a published view.
func KnownView(view string) bool {
	for _, name := range ViewNames {
		if name == view {
			return true
		}
	}
	return false
}
