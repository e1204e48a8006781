package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/Rishabh-k-Paliwal/astrologix/pkg/utils"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// Minio stores objects in an S3 compatible bucket.
type Minio struct {
	client  *minio.Client
	bucket  string
	baseURL string
	log     *zap.Logger
}

func NewMinio(cfg utils.StorageConfig, log *zap.Logger) (*Minio, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	baseURL := cfg.PublicURL
	if baseURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}

	return &Minio{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: baseURL,
		log:     log.With(zap.String("storage", "minio")),
	}, nil
}

func (m *Minio) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error) {
	_, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		m.log.Error("Failed to put object",
			zap.Error(err),
			zap.String("bucket", m.bucket),
			zap.String("key", key),
		)
		return "", fmt.Errorf("%w: put %s/%s: %v", ErrUnavailable, m.bucket, key, err)
	}

	return joinURL(m.baseURL, key), nil
}
