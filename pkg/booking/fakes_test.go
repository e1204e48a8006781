package booking

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Rishabh-k-Paliwal/astrologix/pkg/client"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/schedule"
)

var _ Backend = (*client.API)(nil)

// testNow is 12:00 IST on Tuesday 2025-04-01.
var testNow = time.Date(2025, 4, 1, 6, 30, 0, 0, time.UTC)

func testCalendar() *schedule.Calendar {
	c := schedule.NewCalendar("Asia/Kolkata", 30)
	c.Now = func() time.Time { return testNow }
	return c
}

type fakeBackend struct {
	mu sync.Mutex

	slots     []schedule.Slot
	slotErr   error
	slotCalls int

	createGate  chan struct{}
	createErr   error
	createCalls int
	keys        []string
	lastRequest client.AppointmentRequest
	byKey       map[string]*client.Appointment

	orderErr   error
	orderCalls int

	verifyResult *client.Verification
	verifyErr    error
	verifyCalls  int
	lastVerify   client.VerifyRequest
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{slots: schedule.Slots(), byKey: map[string]*client.Appointment{}}
}

func (b *fakeBackend) AvailableSlots(context.Context, string) ([]schedule.Slot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.slotCalls++
	if b.slotErr != nil {
		return nil, b.slotErr
	}
	return append([]schedule.Slot(nil), b.slots...), nil
}

func (b *fakeBackend) CreateAppointment(_ context.Context, key string, req client.AppointmentRequest) (*client.Appointment, error) {
	b.mu.Lock()
	b.createCalls++
	b.keys = append(b.keys, key)
	b.lastRequest = req
	gate := b.createGate
	b.mu.Unlock()

	if gate != nil {
		<-gate
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.createErr != nil {
		return nil, b.createErr
	}
	if a, ok := b.byKey[key]; ok {
		return a, nil
	}
	a := &client.Appointment{
		ID:               fmt.Sprintf("appt-%d", len(b.byKey)+1),
		AppointmentDate:  req.AppointmentDate,
		AppointmentTime:  req.AppointmentTime,
		ConsultationType: req.ConsultationType,
		Package:          req.Package,
		Amount:           req.Package.Price,
		ClientQuestions:  req.ClientQuestions,
		Status:           "pending",
	}
	b.byKey[key] = a
	return a, nil
}

func (b *fakeBackend) CreateOrder(_ context.Context, appointmentID string) (*client.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.orderCalls++
	if b.orderErr != nil {
		return nil, b.orderErr
	}
	var amount int64
	for _, a := range b.byKey {
		if a.ID == appointmentID {
			amount = a.Amount * 100
		}
	}
	return &client.Order{OrderID: "order_1", Amount: amount, Currency: "INR", KeyID: "rzp_test", AppointmentID: appointmentID}, nil
}

func (b *fakeBackend) VerifyPayment(_ context.Context, req client.VerifyRequest) (*client.Verification, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.verifyCalls++
	b.lastVerify = req
	if b.verifyErr != nil {
		return nil, b.verifyErr
	}
	if b.verifyResult != nil {
		return b.verifyResult, nil
	}
	return &client.Verification{AppointmentID: req.AppointmentID, OrderID: req.RazorpayOrderID, PaymentID: req.RazorpayPaymentID, Status: "confirmed"}, nil
}

func (b *fakeBackend) calls() (slots, creates, orders, verifies int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.slotCalls, b.createCalls, b.orderCalls, b.verifyCalls
}

type fakeCheckout struct {
	mu      sync.Mutex
	outcome CheckoutOutcome
	err     error
	gate    chan struct{}
	calls   int
	last    CheckoutRequest
}

// paying returns a checkout that completes with a proof for any order.
func paying() *fakeCheckout {
	return &fakeCheckout{}
}

func (c *fakeCheckout) Open(_ context.Context, req CheckoutRequest) (CheckoutOutcome, error) {
	c.mu.Lock()
	c.calls++
	c.last = req
	gate := c.gate
	c.mu.Unlock()

	if gate != nil {
		<-gate
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return CheckoutOutcome{}, c.err
	}
	if c.outcome.Dismissed || c.outcome.Proof != nil {
		return c.outcome, nil
	}
	return CheckoutOutcome{Proof: &client.PaymentProof{OrderID: req.OrderID, PaymentID: "pay_1", Signature: "sig_1"}}, nil
}

type recordingNav struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNav) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

func (n *recordingNav) Paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

type harness struct {
	wizard   *Wizard
	backend  *fakeBackend
	checkout *fakeCheckout
	nav      *recordingNav
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{backend: newFakeBackend(), checkout: paying(), nav: &recordingNav{}}
	keys := 0
	h.wizard = NewWizard(Config{
		Backend:   h.backend,
		Checkout:  h.checkout,
		Navigator: h.nav,
		Calendar:  testCalendar(),
		Prefill:   Prefill{Name: "Asha Rao", Email: "asha@example.com"},
		NewKey: func() string {
			keys++
			return fmt.Sprintf("key-%d", keys)
		},
	})
	return h
}
