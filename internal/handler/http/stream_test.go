package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftsense/attendance-backend-go/internal/pkg/jwt"
	"github.com/shiftsense/attendance-backend-go/internal/pkg/sse"
	"github.com/shiftsense/attendance-backend-go/internal/service/notify"
	"github.com/shiftsense/attendance-backend-go/internal/service/watch"
)

func newStreamFixture() (*sse.Hub, jwt.Service, StreamHandler) {
	hub := sse.NewHub()
	jwtService := jwt.NewJWTService("test-secret")
	watcher := watch.NewWatcher(nil, nil, hub, time.Hour, time.Millisecond)
	return hub, jwtService, NewStreamHandler(watcher, hub, jwtService)
}

func streamRequest(ctx context.Context, view, token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/stream/"+view+"?token="+token, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("view", view)
	return req.WithContext(context.WithValue(ctx, chi.RouteCtxKey, rctx))
}

func TestStream_OpsTopicDeliversNotifications(t *testing.T) {
	hub, jwtService, handler := newStreamFixture()

	token, _, err := jwtService.GenerateStreamToken("u1")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	req := streamRequest(ctx, notify.TopicOps, token)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		handler.Stream(rec, req)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return hub.SubscriberCount(notify.TopicOps) == 1
	}, time.Second, 5*time.Millisecond)

	hub.Publish(notify.TopicOps, sse.Event{
		Topic: notify.TopicOps,
		Event: "notification",
		Data:  map[string]string{"title": "sweep done"},
	})

	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	assert.Contains(t, body, "event: snapshot")
	assert.Contains(t, body, "event: notification")
	assert.Contains(t, body, "sweep done")
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
}

func TestStream_UnknownViewRejected(t *testing.T) {
	_, jwtService, handler := newStreamFixture()

	token, _, err := jwtService.GenerateStreamToken("u1")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler.Stream(rec, streamRequest(context.Background(), "everything", token))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStream_MissingTokenRejected(t *testing.T) {
	_, _, handler := newStreamFixture()

	rec := httptest.NewRecorder()
	handler.Stream(rec, streamRequest(context.Background(), watch.ViewOnBreak, ""))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
