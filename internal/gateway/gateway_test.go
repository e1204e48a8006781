package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Rishabh-k-Paliwal/astrologix/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSign_KnownVector(t *testing.T) {
	sig := Sign("secret", "order_1", "pay_1")
	assert.Len(t, sig, 64)
	assert.Equal(t, sig, Sign("secret", "order_1", "pay_1"))
	assert.NotEqual(t, sig, Sign("secret", "order_1", "pay_2"))
}

func TestRazorpay_CreateOrder(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "shh", pass)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_ABC","amount":149900,"currency":"INR","receipt":"APPT-1","status":"created"}`))
	}))
	defer srv.Close()

	rp := NewRazorpay("rzp_test_key", "shh", zap.NewNop()).WithBaseURL(srv.URL)
	order, err := rp.CreateOrder(context.Background(), 149900, "INR", "APPT-1")
	require.NoError(t, err)

	assert.Equal(t, "order_ABC", order.ID)
	assert.Equal(t, int64(149900), order.Amount)
	assert.Equal(t, float64(149900), got["amount"])
	assert.Equal(t, "APPT-1", got["receipt"])
}

func TestRazorpay_ServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	rp := NewRazorpay("k", "s", zap.NewNop()).WithBaseURL(srv.URL)
	_, err := rp.CreateOrder(context.Background(), 100, "INR", "r")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRazorpay_BadRequestIsRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"The id provided does not exist"}}`))
	}))
	defer srv.Close()

	rp := NewRazorpay("k", "s", zap.NewNop()).WithBaseURL(srv.URL)
	_, err := rp.FetchPayment(context.Background(), "pay_missing")
	assert.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestRazorpay_FetchPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/pay_1", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"pay_1","order_id":"order_1","status":"captured","method":"card","amount":99900,"currency":"INR"}`))
	}))
	defer srv.Close()

	rp := NewRazorpay("k", "s", zap.NewNop()).WithBaseURL(srv.URL)
	p, err := rp.FetchPayment(context.Background(), "pay_1")
	require.NoError(t, err)
	assert.True(t, p.Paid())
	assert.Equal(t, "order_1", p.OrderID)
	assert.Equal(t, "card", p.Method)
}

func TestRazorpay_VerifySignature(t *testing.T) {
	rp := NewRazorpay("k", "secret", zap.NewNop())
	assert.True(t, rp.VerifySignature("order_1", "pay_1", Sign("secret", "order_1", "pay_1")))
	assert.False(t, rp.VerifySignature("order_1", "pay_1", Sign("other", "order_1", "pay_1")))
	assert.False(t, rp.VerifySignature("order_1", "pay_1", ""))
}

func TestFake_RoundTrip(t *testing.T) {
	f := NewFake("", "")
	ctx := context.Background()

	order, err := f.CreateOrder(ctx, 149900, "INR", "APPT-1")
	require.NoError(t, err)
	assert.Equal(t, "rzp_test_fake", f.KeyID())

	paymentID, sig := f.Pay(order.ID)
	assert.True(t, f.VerifySignature(order.ID, paymentID, sig))

	details, err := f.FetchPayment(ctx, paymentID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, details.OrderID)
	assert.Equal(t, int64(149900), details.Amount)
	assert.True(t, details.Paid())

	_, err = f.FetchPayment(ctx, "pay_unknown")
	assert.ErrorIs(t, err, ErrRejected)
}

func TestNew_SelectsProvider(t *testing.T) {
	g, err := New(utils.PaymentConfig{Provider: "fake"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &Fake{}, g)

	_, err = New(utils.PaymentConfig{Provider: "razorpay"}, zap.NewNop())
	assert.Error(t, err)

	g, err = New(utils.PaymentConfig{Provider: "razorpay", KeyID: "k", KeySecret: "s"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "k", g.KeyID())

	_, err = New(utils.PaymentConfig{Provider: "stripe"}, zap.NewNop())
	assert.Error(t, err)
}
