package handler

import (
	"encoding/json"
	"net/http"

	"pollroom/internal/archive"
	"pollroom/internal/domain"
	"pollroom/internal/poll"
	apperrors "pollroom/pkg/errors"
	"pollroom/pkg/logger"
)

// PollHandler serves the synchronous query surface for clients that do
// not hold an event channel open.
type PollHandler struct {
	polls   *poll.Service
	archive *archive.Service
	log     *logger.Logger
}

// NewPollHandler creates the REST poll handler.
func NewPollHandler(polls *poll.Service, archiveSvc *archive.Service, log *logger.Logger) *PollHandler {
	return &PollHandler{
		polls:   polls,
		archive: archiveSvc,
		log:     log,
	}
}

// GetCurrent handles GET /polls/current
func (h *PollHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	current := h.polls.Current()
	if current.Poll == nil {
		h.respondError(w, apperrors.NewNotFoundError("No active poll"))
		return
	}
	h.respondJSON(w, http.StatusOK, current)
}

// GetHistory handles GET /polls/history
func (h *PollHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	records, err := h.archive.List(r.Context())
	if err != nil {
		h.log.WithError(err).Error("Failed to load poll history")
		h.respondError(w, apperrors.NewInternalError("Failed to load poll history", err))
		return
	}
	h.respondJSON(w, http.StatusOK, domain.HistoryEvent{History: records})
}

func (h *PollHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.WithError(err).Error("Failed to encode response")
	}
}

func (h *PollHandler) respondError(w http.ResponseWriter, appErr *apperrors.AppError) {
	h.respondJSON(w, appErr.StatusCode, map[string]interface{}{
		"error": map[string]string{
			"type":    string(appErr.Type),
			"message": appErr.Message,
		},
	})
}
