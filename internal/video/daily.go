package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultDailyURL = "https://api.daily.co/v1"

// Daily creates private rooms through the Daily REST API.
type Daily struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

func NewDaily(apiKey string, log *zap.Logger) *Daily {
	return &Daily{
		apiKey:     apiKey,
		baseURL:    defaultDailyURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log.With(zap.String("video", "daily")),
	}
}

func (d *Daily) WithBaseURL(baseURL string) *Daily {
	if baseURL == "" {
		return d
	}
	d.baseURL = strings.TrimRight(baseURL, "/")
	return d
}

type dailyRoom struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (d *Daily) CreateRoom(ctx context.Context, name string, expiresAt time.Time) (*Room, error) {
	body := map[string]any{
		"name":    name,
		"privacy": "private",
		"properties": map[string]any{
			"exp":               expiresAt.Unix(),
			"eject_at_room_exp": true,
			"enable_chat":       true,
		},
	}

	var room dailyRoom
	status, err := d.do(ctx, http.MethodPost, "/rooms", body, &room)
	if err != nil && status == http.StatusBadRequest {
		// name already taken: the room exists from an earlier call
		status, err = d.do(ctx, http.MethodGet, "/rooms/"+url.PathEscape(name), nil, &room)
	}
	if err != nil {
		d.log.Error("Failed to create room", zap.Error(err), zap.String("room", name), zap.Int("status", status))
		return nil, err
	}

	return &Room{Name: room.Name, URL: room.URL}, nil
}

func (d *Daily) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode daily request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, d.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("build daily request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+d.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode >= http.StatusBadRequest {
		return resp.StatusCode, fmt.Errorf("%w: daily returned %d: %s", ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode daily response: %w", err)
	}
	return resp.StatusCode, nil
}
