package adaptor

import (
	"net/http"

	"github.com/Rishabh-k-Paliwal/astrologix/internal/dto/request"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/usecase"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// IdempotencyHeader carries the client's per-submission key.
const IdempotencyHeader = "Idempotency-Key"

type AppointmentHandler struct {
	service usecase.AppointmentService
	slots   usecase.SlotService
	log     *zap.Logger
}

func NewAppointmentHandler(service usecase.AppointmentService, slots usecase.SlotService, log *zap.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		service: service,
		slots:   slots,
		log:     log.With(zap.String("handler", "appointment")),
	}
}

// AvailableSlots handles GET /api/appointments/available-slots/{date}
func (h *AppointmentHandler) AvailableSlots(w http.ResponseWriter, r *http.Request) {
	slots, err := h.slots.Available(r.Context(), chi.URLParam(r, "date"))
	if err != nil {
		handleServiceError(h.log, w, err, "load available slots")
		return
	}

	utils.ResponseSuccess(w, "", slots)
}

// Create handles POST /api/appointments
func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := principal(w, r)
	if !ok {
		return
	}

	var req request.CreateAppointmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	envelope, err := h.service.Create(r.Context(), caller.UserID, r.Header.Get(IdempotencyHeader), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "create appointment")
		return
	}

	if envelope.Replayed {
		utils.ResponseSuccess(w, "Appointment already created", envelope)
		return
	}
	utils.ResponseCreated(w, "Appointment created, complete payment to confirm", envelope)
}

// Get handles GET /api/appointments/{id}
func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := principal(w, r)
	if !ok {
		return
	}

	appointment, err := h.service.Get(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(h.log, w, err, "get appointment")
		return
	}

	utils.ResponseSuccess(w, "", map[string]any{"appointment": appointment})
}

// Cancel handles PUT /api/appointments/{id}/cancel
func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	caller, ok := principal(w, r)
	if !ok {
		return
	}

	// the reason is optional, so an empty body is fine
	var req request.CancelAppointmentRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	appointment, err := h.service.Cancel(r.Context(), caller, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "cancel appointment")
		return
	}

	utils.ResponseSuccess(w, "Appointment cancelled", map[string]any{"appointment": appointment})
}
