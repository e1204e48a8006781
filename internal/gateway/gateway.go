package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/Rishabh-k-Paliwal/astrologix/pkg/utils"

	"go.uber.org/zap"
)

var (
	// ErrUnavailable means the provider could not be reached or failed on its side.
	ErrUnavailable = errors.New("payment provider unavailable")
	// ErrRejected means the provider refused the request.
	ErrRejected = errors.New("payment provider rejected request")
)

// Payment statuses reported by the provider that count as paid.
const (
	StatusAuthorized = "authorized"
	StatusCaptured   = "captured"
)

// Order is a provider-side order. Amount is in minor units.
type Order struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
	Status   string
}

// PaymentDetails is what the provider knows about a payment.
type PaymentDetails struct {
	ID       string
	OrderID  string
	Status   string
	Method   string
	Amount   int64
	Currency string
}

// Paid reports whether the payment went through.
func (p *PaymentDetails) Paid() bool {
	return p.Status == StatusCaptured || p.Status == StatusAuthorized
}

type Gateway interface {
	// KeyID is the public key the browser checkout is opened with.
	KeyID() string
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*Order, error)
	FetchPayment(ctx context.Context, paymentID string) (*PaymentDetails, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

// Sign computes the checkout signature: hex HMAC-SHA256 of "order|payment".
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func verify(secret, orderID, paymentID, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected := Sign(secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// New picks the gateway named by cfg.Provider.
func New(cfg utils.PaymentConfig, log *zap.Logger) (Gateway, error) {
	switch cfg.Provider {
	case "", "fake":
		log.Warn("Using fake payment gateway")
		return NewFake(cfg.KeyID, cfg.KeySecret), nil
	case "razorpay":
		if cfg.KeyID == "" || cfg.KeySecret == "" {
			return nil, fmt.Errorf("razorpay key id and secret are required")
		}
		return NewRazorpay(cfg.KeyID, cfg.KeySecret, log).WithBaseURL(cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown payment provider %q", cfg.Provider)
	}
}
