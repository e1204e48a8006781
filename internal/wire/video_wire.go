package wire

import (
	"github.com/Rishabh-k-Paliwal/astrologix/internal/adaptor"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireVideo(
	r chi.Router,
	videoHandler *adaptor.VideoHandler,
	auth middleware.Authenticator,
	log *zap.Logger,
) {
	// ==================== PROTECTED ROUTES (require auth) ====================
	// Owner or admin, checked in the service
	r.With(middleware.AuthSession(auth, log)).Route("/api/video-call", func(r chi.Router) {
		r.Post("/create-room/{id}", videoHandler.CreateRoom)
		r.Get("/meeting-token/{id}", videoHandler.MeetingToken)
		r.Put("/call-status/{id}", videoHandler.CallStatus)
	})
}
