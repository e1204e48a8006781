// Package client talks to the astrologix REST API and keeps the signed-in
// session.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Rishabh-k-Paliwal/astrologix/pkg/schedule"

	"go.uber.org/zap"
)

// APIError is a non-success envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
	Errors  map[string]string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api %d: %s", e.Status, e.Message)
}

// AsAPIError unwraps err into an APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
	Code    string            `json:"code"`
}

type API struct {
	baseURL string
	http    *http.Client
	token   func() string
	log     *zap.Logger
}

func New(baseURL string, httpClient *http.Client, log *zap.Logger) *API {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		token:   func() string { return "" },
		log:     log.With(zap.String("component", "api-client")),
	}
}

type call struct {
	method         string
	path           string
	body           any
	idempotencyKey string
	// token overrides the session token when set
	token string
}

func (a *API) do(ctx context.Context, c call, out any) error {
	var body io.Reader
	if c.body != nil {
		raw, err := json.Marshal(c.body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", c.method, c.path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, c.method, a.baseURL+c.path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", c.method, c.path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token := c.token
	if token == "" {
		token = a.token()
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", c.idempotencyKey)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", c.method, c.path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("decode %s %s: %w", c.method, c.path, err)
	}

	a.log.Debug("API call",
		zap.String("method", c.method),
		zap.String("path", c.path),
		zap.Int("status", resp.StatusCode),
		zap.String("code", env.Code))

	if resp.StatusCode >= http.StatusBadRequest || !env.Success {
		return &APIError{Status: resp.StatusCode, Code: env.Code, Message: env.Message, Errors: env.Errors}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode %s %s data: %w", c.method, c.path, err)
		}
	}
	return nil
}

// Catalog fetches the bookable packages and consultation types.
func (a *API) Catalog(ctx context.Context) (*Catalog, error) {
	var out Catalog
	if err := a.do(ctx, call{method: http.MethodGet, path: "/api/services"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) AvailableSlots(ctx context.Context, date string) ([]schedule.Slot, error) {
	var out struct {
		AvailableSlots []schedule.Slot `json:"availableSlots"`
	}
	path := "/api/appointments/available-slots/" + url.PathEscape(date)
	if err := a.do(ctx, call{method: http.MethodGet, path: path}, &out); err != nil {
		return nil, err
	}
	return out.AvailableSlots, nil
}

// CreateAppointment submits a booking. Repeating the call with the same
// idempotencyKey returns the appointment created by the first call.
func (a *API) CreateAppointment(ctx context.Context, idempotencyKey string, req AppointmentRequest) (*Appointment, error) {
	var out struct {
		Appointment Appointment `json:"appointment"`
	}
	c := call{method: http.MethodPost, path: "/api/appointments", body: req, idempotencyKey: idempotencyKey}
	if err := a.do(ctx, c, &out); err != nil {
		return nil, err
	}
	return &out.Appointment, nil
}

func (a *API) CreateOrder(ctx context.Context, appointmentID string) (*Order, error) {
	var out Order
	c := call{method: http.MethodPost, path: "/api/payment/create-order", body: map[string]string{"appointmentId": appointmentID}}
	if err := a.do(ctx, c, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) VerifyPayment(ctx context.Context, req VerifyRequest) (*Verification, error) {
	var out Verification
	if err := a.do(ctx, call{method: http.MethodPost, path: "/api/payment/verify", body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) me(ctx context.Context) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := a.do(ctx, call{method: http.MethodGet, path: "/api/auth/me"}, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (a *API) login(ctx context.Context, email, password string) (*AuthResult, error) {
	var out AuthResult
	body := map[string]string{"email": email, "password": password}
	if err := a.do(ctx, call{method: http.MethodPost, path: "/api/auth/login", body: body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	var out AuthResult
	if err := a.do(ctx, call{method: http.MethodPost, path: "/api/auth/register", body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) logout(ctx context.Context, token string) error {
	return a.do(ctx, call{method: http.MethodPost, path: "/api/auth/logout", token: token}, nil)
}
