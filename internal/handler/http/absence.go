package http

import (
	"net/http"

	"github.com/shiftsense/attendance-backend-go/internal/handler/http/response"
	"github.com/shiftsense/attendance-backend-go/internal/service/absence"
)

// AbsenceHandler exposes the on-demand sweep trigger for administrators. The
// periodic job runs the same sweep.
type AbsenceHandler interface {
	RunSweep(w http.ResponseWriter, r *http.Request)
}

type absenceHandlerImpl struct {
	absenceService *absence.Service
}

func NewAbsenceHandler(absenceService *absence.Service) AbsenceHandler {
	return &absenceHandlerImpl{absenceService: absenceService}
}

func (h *absenceHandlerImpl) RunSweep(w http.ResponseWriter, r *http.Request) {
	summary, err := h.absenceService.RunSweep(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Absence sweep completed", summary)
}
