package wire

import (
	"github.com/Rishabh-k-Paliwal/astrologix/internal/adaptor"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// wireUser configures the client's own profile and dashboard routes
func wireUser(
	r chi.Router,
	userHandler *adaptor.UserHandler,
	auth middleware.Authenticator,
	log *zap.Logger,
) {
	// ==================== PROTECTED USER ROUTES ====================
	r.With(middleware.AuthSession(auth, log)).Route("/api/user", func(r chi.Router) {
		r.Get("/profile", userHandler.GetProfile)
		r.Put("/profile", userHandler.UpdateProfile)
		r.Post("/avatar", userHandler.UploadAvatar) // multipart field "avatar"
		r.Get("/dashboard", userHandler.Dashboard)
		r.Get("/appointments", userHandler.ListAppointments) // ?status=confirmed&page=1&limit=10
	})
}
