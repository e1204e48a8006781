package adaptor

import (
	"net/http"

	"github.com/Rishabh-k-Paliwal/astrologix/internal/dto/request"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/usecase"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type VideoHandler struct {
	service usecase.VideoService
	log     *zap.Logger
}

func NewVideoHandler(service usecase.VideoService, log *zap.Logger) *VideoHandler {
	return &VideoHandler{
		service: service,
		log:     log.With(zap.String("handler", "video")),
	}
}

// CreateRoom handles POST /api/video-call/create-room/{id}
func (h *VideoHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	caller, ok := principal(w, r)
	if !ok {
		return
	}

	room, err := h.service.CreateRoom(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(h.log, w, err, "create video room")
		return
	}

	utils.ResponseSuccess(w, "Room ready", room)
}

// MeetingToken handles GET /api/video-call/meeting-token/{id}
func (h *VideoHandler) MeetingToken(w http.ResponseWriter, r *http.Request) {
	caller, ok := principal(w, r)
	if !ok {
		return
	}

	token, err := h.service.MeetingToken(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(h.log, w, err, "issue meeting token")
		return
	}

	utils.ResponseSuccess(w, "", token)
}

// CallStatus handles PUT /api/video-call/call-status/{id}
func (h *VideoHandler) CallStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := principal(w, r)
	if !ok {
		return
	}

	var req request.CallStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.CallStatus(r.Context(), caller, chi.URLParam(r, "id"), &req); err != nil {
		handleServiceError(h.log, w, err, "update call status")
		return
	}

	utils.ResponseSuccess(w, "Call status updated", nil)
}
