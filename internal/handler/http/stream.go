package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/shiftsense/attendance-backend-go/internal/domain/notification"
	"github.com/shiftsense/attendance-backend-go/internal/handler/http/response"
	"github.com/shiftsense/attendance-backend-go/internal/pkg/jwt"
	"github.com/shiftsense/attendance-backend-go/internal/pkg/sse"
	"github.com/shiftsense/attendance-backend-go/internal/service/notify"
	"github.com/shiftsense/attendance-backend-go/internal/service/watch"
)

// StreamHandler serves the live attendance views over SSE.
type StreamHandler interface {
	GetStreamToken(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
}

type streamHandlerImpl struct {
	watcher    *watch.Watcher
	hub        *sse.Hub
	jwtService jwt.Service
}

func NewStreamHandler(watcher *watch.Watcher, hub *sse.Hub, jwtService jwt.Service) StreamHandler {
	return &streamHandlerImpl{
		watcher:    watcher,
		hub:        hub,
		jwtService: jwtService,
	}
}

type streamTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// GetStreamToken mints a short-lived token for the SSE connection, which
// cannot carry an Authorization header.
func (h *streamHandlerImpl) GetStreamToken(w http.ResponseWriter, r *http.Request) {
	_, claims, _ := jwtauth.FromContext(r.Context())
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	token, expiresIn, err := h.jwtService.GenerateStreamToken(userID)
	if err != nil {
		response.InternalServerError(w, "Failed to generate stream token")
		return
	}

	response.Success(w, streamTokenResponse{
		Token:     token,
		ExpiresIn: expiresIn,
	})
}

// Stream handles the SSE connection for a named view. Subscribers get a fresh
// snapshot immediately, then full-view pushes whenever the watcher republishes.
func (h *streamHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	// Token comes as a query parameter (SSE doesn't support custom headers)
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Missing token", http.StatusUnauthorized)
		return
	}
	if _, err := h.jwtService.ValidateStreamToken(tokenStr); err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	view := chi.URLParam(r, "view")
	if view != notify.TopicOps && !watch.KnownView(view) {
		http.Error(w, "Unknown view", http.StatusNotFound)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	// Subscribe before computing the snapshot so updates racing the snapshot
	// are queued rather than lost.
	events, cleanup := h.hub.Subscribe(view)
	defer cleanup()

	// The ops topic is fire-and-forget: there is no stored projection to
	// replay, so subscribers start from an empty snapshot.
	var snapshot interface{} = []notification.Notification{}
	if view != notify.TopicOps {
		computed, err := h.watcher.Snapshot(r.Context(), view)
		if err != nil {
			http.Error(w, "Failed to compute snapshot", http.StatusInternalServerError)
			return
		}
		snapshot = computed
	}
	if data, err := json.Marshal(snapshot); err == nil {
		fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data)
		flusher.Flush()
	}

	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
