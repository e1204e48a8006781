package video

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rishabh-k-Paliwal/astrologix/pkg/utils"

	"go.uber.org/zap"
)

// ErrUnavailable means the room provider could not be reached.
var ErrUnavailable = errors.New("video provider unavailable")

// Room is a hosted consultation room.
type Room struct {
	Name string
	URL  string
}

type Provider interface {
	// CreateRoom creates the room or returns it when it already exists.
	CreateRoom(ctx context.Context, name string, expiresAt time.Time) (*Room, error)
}

// RoomName is the stable room name for an appointment.
func RoomName(appointmentID string) string {
	return "consult-" + appointmentID
}

// New builds the provider and the join token issuer named by cfg.
func New(cfg utils.VideoConfig, log *zap.Logger) (Provider, *TokenIssuer, error) {
	switch cfg.Provider {
	case "", "local":
		secret := cfg.TokenSecret
		if secret == "" {
			log.Warn("VIDEO_TOKEN_SECRET not set, using development secret")
			secret = "local-video-secret"
		}
		return NewLocal(cfg.Domain), NewTokenIssuer(secret, cfg.TokenTTL), nil
	case "daily":
		if cfg.APIKey == "" {
			return nil, nil, fmt.Errorf("daily api key is required")
		}
		// Daily accepts meeting tokens self-signed with the API key.
		return NewDaily(cfg.APIKey, log).WithBaseURL(cfg.BaseURL), NewTokenIssuer(cfg.APIKey, cfg.TokenTTL), nil
	default:
		return nil, nil, fmt.Errorf("unknown video provider %q", cfg.Provider)
	}
}
