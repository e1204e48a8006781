package gateway

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const (
	fakeKeyID  = "rzp_test_fake"
	fakeSecret = "fake_secret"
)

// Fake is an in-memory gateway for local development and tests. Payment ids
// are derived from order ids so FetchPayment can resolve them without state
// shared with the browser.
type Fake struct {
	keyID  string
	secret string

	mu     sync.Mutex
	orders map[string]*Order
}

func NewFake(keyID, secret string) *Fake {
	if keyID == "" {
		keyID = fakeKeyID
	}
	if secret == "" {
		secret = fakeSecret
	}
	return &Fake{keyID: keyID, secret: secret, orders: make(map[string]*Order)}
}

func (f *Fake) KeyID() string { return f.keyID }

func (f *Fake) CreateOrder(_ context.Context, amount int64, currency, receipt string) (*Order, error) {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:14]
	o := &Order{
		ID:       "order_" + suffix,
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
		Status:   "created",
	}

	f.mu.Lock()
	f.orders[o.ID] = o
	f.mu.Unlock()

	return o, nil
}

func (f *Fake) FetchPayment(_ context.Context, paymentID string) (*PaymentDetails, error) {
	orderID := "order_" + strings.TrimPrefix(paymentID, "pay_")

	f.mu.Lock()
	o, ok := f.orders[orderID]
	f.mu.Unlock()
	if !ok || !strings.HasPrefix(paymentID, "pay_") {
		return nil, fmt.Errorf("%w: payment %s not found", ErrRejected, paymentID)
	}

	return &PaymentDetails{
		ID:       paymentID,
		OrderID:  o.ID,
		Status:   StatusCaptured,
		Method:   "upi",
		Amount:   o.Amount,
		Currency: o.Currency,
	}, nil
}

func (f *Fake) VerifySignature(orderID, paymentID, signature string) bool {
	return verify(f.secret, orderID, paymentID, signature)
}

// Pay simulates a successful checkout for orderID.
func (f *Fake) Pay(orderID string) (paymentID, signature string) {
	paymentID = "pay_" + strings.TrimPrefix(orderID, "order_")
	return paymentID, Sign(f.secret, orderID, paymentID)
}
