package wire

import (
	"github.com/Rishabh-k-Paliwal/astrologix/internal/adaptor"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAppointment(
	r chi.Router,
	appointmentHandler *adaptor.AppointmentHandler,
	reviewHandler *adaptor.ReviewHandler,
	auth middleware.Authenticator,
	log *zap.Logger,
) {
	r.Route("/api/appointments", func(r chi.Router) {
		// ==================== PUBLIC ROUTES ====================
		// GET /api/appointments/available-slots/2025-04-10
		r.Get("/available-slots/{date}", appointmentHandler.AvailableSlots)

		// ==================== PROTECTED ROUTES (require auth) ====================
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthSession(auth, log))

			// POST /api/appointments - send Idempotency-Key to make retries safe
			r.Post("/", appointmentHandler.Create)
			r.Get("/{id}", appointmentHandler.Get)
			r.Put("/{id}/cancel", appointmentHandler.Cancel)
			r.Post("/{id}/review", reviewHandler.Create)
		})
	})
}
