package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Rishabh-k-Paliwal/astrologix/pkg/utils"

	"go.uber.org/zap"
)

// ErrUnavailable means the object store rejected or could not take the write.
var ErrUnavailable = errors.New("object storage unavailable")

// AvatarStore keeps uploaded profile pictures.
type AvatarStore interface {
	// Put stores size bytes from r under key and returns the public URL.
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error)
}

// New builds the store named by cfg.
func New(cfg utils.StorageConfig, log *zap.Logger) (AvatarStore, error) {
	switch cfg.Provider {
	case "", "local":
		return NewLocal(cfg.LocalDir, cfg.PublicURL), nil
	case "minio":
		if cfg.Endpoint == "" || cfg.Bucket == "" {
			return nil, fmt.Errorf("minio endpoint and bucket are required")
		}
		return NewMinio(cfg, log)
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
