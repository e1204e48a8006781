package adaptor

import (
	"net/http"

	"github.com/Rishabh-k-Paliwal/astrologix/internal/dto/request"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/usecase"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ReviewHandler struct {
	service usecase.AppointmentService
	log     *zap.Logger
}

func NewReviewHandler(service usecase.AppointmentService, log *zap.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		log:     log.With(zap.String("handler", "review")),
	}
}

// Create handles POST /api/appointments/{id}/review
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := principal(w, r)
	if !ok {
		return
	}

	var req request.CreateReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	review, err := h.service.Review(r.Context(), caller.UserID, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "create review")
		return
	}

	utils.ResponseCreated(w, "Thank you for your feedback", map[string]any{"review": review})
}
