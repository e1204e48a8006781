package wire

import (
	"github.com/Rishabh-k-Paliwal/astrologix/internal/adaptor"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/middleware"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAuth(
	r chi.Router,
	authHandler *adaptor.AuthHandler,
	auth middleware.Authenticator,
	config *utils.Config,
	log *zap.Logger,
) {
	r.Route("/api/auth", func(r chi.Router) {
		// ==================== PUBLIC ROUTES ====================
		// Rate limited per IP, these are the credential guessing surface
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(config.HTTP.AuthRateLimit))

			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/send-otp", authHandler.SendOTP)
			r.Post("/verify-email", authHandler.VerifyEmail)
			r.Post("/forgot-password", authHandler.ForgotPassword)
			r.Post("/reset-password", authHandler.ResetPassword)
		})

		// ==================== PROTECTED ROUTES ====================
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthSession(auth, log))

			r.Get("/me", authHandler.Me)
			r.Post("/logout", authHandler.Logout)
		})
	})
}

func wireCatalog(r chi.Router, catalogHandler *adaptor.CatalogHandler) {
	// GET /api/services - packages and consultation types (public)
	r.Get("/api/services", catalogHandler.List)
}
