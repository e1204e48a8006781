package wire

import (
	"github.com/Rishabh-k-Paliwal/astrologix/internal/adaptor"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAdmin(
	r chi.Router,
	adminHandler *adaptor.AdminHandler,
	auth middleware.Authenticator,
	log *zap.Logger,
) {
	// ==================== ADMIN ROUTES ====================
	// Require both authentication AND admin rights
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.AuthSession(auth, log))
		r.Use(middleware.Admin(log))

		r.Get("/dashboard-stats", adminHandler.DashboardStats)
		r.Get("/appointments", adminHandler.ListAppointments)
		r.Put("/appointments/{id}/status", adminHandler.UpdateStatus)
		r.Get("/users", adminHandler.ListUsers)
		r.Delete("/users/{id}", adminHandler.DeleteUser)
	})
}
