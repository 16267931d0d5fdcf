package http

import (
	"encoding/json"
	"net/http"

	"github.com/shiftsense/attendance-backend-go/internal/domain/device"
	"github.com/shiftsense/attendance-backend-go/internal/handler/http/response"
	"github.com/shiftsense/attendance-backend-go/internal/service/ingest"
)

// DeviceHandler receives biometric event batches.
type DeviceHandler interface {
	Ingest(w http.ResponseWriter, r *http.Request)
}

type deviceHandlerImpl struct {
	ingestService *ingest.Service
}

func NewDeviceHandler(ingestService *ingest.Service) DeviceHandler {
	return &deviceHandlerImpl{ingestService: ingestService}
}

type ingestRequest struct {
	Events []device.RawEvent `json:"events"`
}

// Ingest runs a batch through the pipeline. Devices retry on non-2xx, so a
// batch that decodes is always acknowledged: per-event problems show up as
// discards in the summary, never as an error status.
func (h *deviceHandlerImpl) Ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	summary := h.ingestService.Process(r.Context(), req.Events)
	response.Success(w, summary)
}
