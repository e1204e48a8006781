package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// LocalPrefix is where the API serves files written by Local.
const LocalPrefix = "/uploads/"

// Local writes objects below a directory for development setups.
type Local struct {
	dir     string
	baseURL string
}

func NewLocal(dir, publicURL string) *Local {
	if dir == "" {
		dir = "uploads"
	}
	if publicURL == "" {
		publicURL = LocalPrefix
	}
	return &Local{dir: dir, baseURL: publicURL}
}

func (l *Local) Put(ctx context.Context, key, _ string, r io.Reader, _ int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path, err := l.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("store %s: %w", key, err)
	}

	return joinURL(l.baseURL, key), nil
}

// Handler serves stored files, meant to be mounted under LocalPrefix.
func (l *Local) Handler() http.Handler {
	return http.StripPrefix(LocalPrefix, http.FileServer(http.Dir(l.dir)))
}

// path resolves key inside dir, refusing keys that climb out of it.
func (l *Local) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(l.dir, clean), nil
}
