package wire

import (
	"github.com/Rishabh-k-Paliwal/astrologix/internal/adaptor"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wirePayment(
	r chi.Router,
	paymentHandler *adaptor.PaymentHandler,
	auth middleware.Authenticator,
	log *zap.Logger,
) {
	// ==================== PROTECTED ROUTES (require auth) ====================
	r.With(middleware.AuthSession(auth, log)).Route("/api/payment", func(r chi.Router) {
		r.Post("/create-order", paymentHandler.CreateOrder)
		r.Post("/verify", paymentHandler.Verify)
	})
}
