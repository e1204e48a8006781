package gateway

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

const defaultRazorpayURL = "https://api.razorpay.com/v1"

// Razorpay talks to the Razorpay orders and payments REST API.
type Razorpay struct {
	keyID      string
	keySecret  string
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

func NewRazorpay(keyID, keySecret string, log *zap.Logger) *Razorpay {
	return &Razorpay{
		keyID:      keyID,
		keySecret:  keySecret,
		baseURL:    defaultRazorpayURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log.With(zap.String("gateway", "razorpay")),
	}
}

// WithBaseURL overrides the API host, used by tests.
func (r *Razorpay) WithBaseURL(baseURL string) *Razorpay {
	if baseURL == "" {
		return r
	}
	r.baseURL = strings.TrimRight(baseURL, "/")
	return r
}

func (r *Razorpay) KeyID() string { return r.keyID }

type razorpayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type razorpayPayment struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Status   string `json:"status"`
	Method   string `json:"method"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type razorpayError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (r *Razorpay) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*Order, error) {
	body := map[string]any{
		"amount":          amount,
		"currency":        currency,
		"receipt":         receipt,
		"payment_capture": 1,
	}

	var out razorpayOrder
	if err := r.do(ctx, http.MethodPost, "/orders", body, &out); err != nil {
		return nil, err
	}

	r.log.Info("Order created", zap.String("order_id", out.ID), zap.Int64("amount", out.Amount))
	return &Order{
		ID:       out.ID,
		Amount:   out.Amount,
		Currency: out.Currency,
		Receipt:  out.Receipt,
		Status:   out.Status,
	}, nil
}

func (r *Razorpay) FetchPayment(ctx context.Context, paymentID string) (*PaymentDetails, error) {
	var out razorpayPayment
	if err := r.do(ctx, http.MethodGet, "/payments/"+url.PathEscape(paymentID), nil, &out); err != nil {
		return nil, err
	}

	return &PaymentDetails{
		ID:       out.ID,
		OrderID:  out.OrderID,
		Status:   out.Status,
		Method:   out.Method,
		Amount:   out.Amount,
		Currency: out.Currency,
	}, nil
}

func (r *Razorpay) VerifySignature(orderID, paymentID, signature string) bool {
	return verify(r.keySecret, orderID, paymentID, signature)
}

func (r *Razorpay) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode razorpay request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build razorpay request: %w", err)
	}
	req.SetBasicAuth(r.keyID, r.keySecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.log.Error("Razorpay request failed", zap.Error(err), zap.String("path", path))
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		r.log.Error("Razorpay server error", zap.Int("status", resp.StatusCode), zap.String("path", path))
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr razorpayError
		_ = json.Unmarshal(raw, &apiErr)
		r.log.Warn("Razorpay rejected request",
			zap.Int("status", resp.StatusCode),
			zap.String("path", path),
			zap.String("code", apiErr.Error.Code),
		)
		return fmt.Errorf("%w: %s", ErrRejected, apiErr.Error.Description)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode razorpay response: %w", err)
	}
	return nil
}
