package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Rishabh-k-Paliwal/astrologix/pkg/catalog"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/client"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/schedule"

	"github.com/google/uuid"
)

type State int

const (
	StateDateTime State = iota + 1
	StatePackage
	StateQuestions
	StateSummary
	StateSubmitting
	StateAwaitingPayment
	StateConfirmed
)

func (s State) String() string {
	switch s {
	case StateDateTime:
		return "date-time"
	case StatePackage:
		return "package"
	case StateQuestions:
		return "questions"
	case StateSummary:
		return "summary"
	case StateSubmitting:
		return "submitting"
	case StateAwaitingPayment:
		return "awaiting-payment"
	case StateConfirmed:
		return "confirmed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// editable reports whether Next and Back apply.
func (s State) editable() bool {
	return s >= StateDateTime && s <= StateSummary
}

const (
	MaxQuestions = 5

	PathLogin     = "/login"
	PathDashboard = "/dashboard"
)

type Question struct {
	Question string
	Detail   string
}

// Draft is the unsubmitted booking. It never leaves the client before Submit.
type Draft struct {
	Date             string
	Slot             string
	ConsultationType string
	PackageID        string
	Questions        []Question
}

func (d Draft) clone() Draft {
	d.Questions = append([]Question(nil), d.Questions...)
	return d
}

// Backend is the part of the REST API the wizard drives. *client.API
// implements it.
type Backend interface {
	SlotSource
	CreateAppointment(ctx context.Context, idempotencyKey string, req client.AppointmentRequest) (*client.Appointment, error)
	CreateOrder(ctx context.Context, appointmentID string) (*client.Order, error)
	VerifyPayment(ctx context.Context, req client.VerifyRequest) (*client.Verification, error)
}

type Navigator interface {
	Navigate(path string)
}

type Config struct {
	Backend   Backend
	Checkout  Checkout
	Navigator Navigator
	Catalog   *catalog.Catalog
	Calendar  *schedule.Calendar
	Prefill   Prefill
	Theme     string
	// NewKey mints idempotency keys; random UUIDs when nil.
	NewKey func() string
}

// Wizard walks one booking from date selection to a verified payment.
// Submit and Pay are single flight: a second call while one is running
// fails with ErrInFlight and makes no request.
type Wizard struct {
	backend  Backend
	checkout Checkout
	nav      Navigator
	catalog  *catalog.Catalog
	calendar *schedule.Calendar
	resolver *Resolver
	prefill  Prefill
	theme    string
	newKey   func() string

	mu           sync.Mutex
	state        State
	draft        Draft
	slots        []schedule.Slot
	slotsFor     string
	busy         bool
	submitKey    string
	pending      *client.Appointment
	verification *client.Verification
	lastErr      error
}

func NewWizard(cfg Config) *Wizard {
	if cfg.Catalog == nil {
		cfg.Catalog = catalog.Default()
	}
	if cfg.Calendar == nil {
		cfg.Calendar = schedule.NewCalendar("", 0)
	}
	if cfg.NewKey == nil {
		cfg.NewKey = func() string { return uuid.NewString() }
	}
	return &Wizard{
		backend:  cfg.Backend,
		checkout: cfg.Checkout,
		nav:      cfg.Navigator,
		catalog:  cfg.Catalog,
		calendar: cfg.Calendar,
		resolver: NewResolver(cfg.Backend, cfg.Calendar),
		prefill:  cfg.Prefill,
		theme:    cfg.Theme,
		newKey:   cfg.NewKey,
		state:    StateDateTime,
	}
}

func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Wizard) Draft() Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft.clone()
}

// Pending is the appointment created by Submit, nil before that.
func (w *Wizard) Pending() *client.Appointment {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending == nil {
		return nil
	}
	a := *w.pending
	return &a
}

func (w *Wizard) Verification() *client.Verification {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.verification == nil {
		return nil
	}
	v := *w.verification
	return &v
}

// LastError is the error surfaced by the last failed Submit or Pay.
func (w *Wizard) LastError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// ---- date and time ----

// SelectDate picks the consultation day and clears the slot.
func (w *Wizard) SelectDate(date string) error {
	day, err := w.calendar.ParseDate(date)
	if err != nil {
		return validationError("select date", "Please choose a valid date", map[string]string{"date": "invalid date"})
	}
	if !w.calendar.InHorizon(day) {
		e := validationError("select date", "Appointments can be booked up to 30 days ahead", map[string]string{"date": "out of range"})
		e.Err = ErrDateOutOfRange
		return e
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateDateTime {
		return ErrInvalidTransition
	}
	if w.draft.Date != date {
		w.draft.Date = date
		w.draft.Slot = ""
		w.slots, w.slotsFor = nil, ""
		w.submitKey = ""
	}
	return nil
}

// LoadSlots resolves the open slots for the selected date. Only slots from
// the latest successful load can be selected.
func (w *Wizard) LoadSlots(ctx context.Context) (SlotResult, error) {
	w.mu.Lock()
	date := w.draft.Date
	w.mu.Unlock()
	if date == "" {
		return SlotResult{}, validationError("available slots", "Please choose a date first", map[string]string{"date": "required"})
	}

	result, err := w.resolver.AvailableSlots(ctx, date)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.draft.Date == date {
		w.slots, w.slotsFor = result.Slots, date
		if err != nil {
			w.slotsFor = ""
		}
		if w.draft.Slot != "" && !containsSlot(w.slots, w.draft.Slot) {
			w.draft.Slot = ""
		}
	}
	return result, err
}

func (w *Wizard) SelectSlot(hhmm string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateDateTime {
		return ErrInvalidTransition
	}
	if w.slotsFor == "" || w.slotsFor != w.draft.Date || !containsSlot(w.slots, hhmm) {
		return validationError("select slot", "This time is not available", map[string]string{"timeSlot": "not available"})
	}
	if w.draft.Slot != hhmm {
		w.draft.Slot = hhmm
		w.submitKey = ""
	}
	return nil
}

func containsSlot(slots []schedule.Slot, hhmm string) bool {
	for _, s := range slots {
		if s.Time == hhmm {
			return true
		}
	}
	return false
}

// ---- package and type ----

func (w *Wizard) SelectPackage(consultationType, packageID string) error {
	fields := map[string]string{}
	if _, ok := w.catalog.ConsultationType(consultationType); !ok {
		fields["consultationType"] = "unknown consultation type"
	}
	if _, ok := w.catalog.Package(packageID); !ok {
		fields["package"] = "unknown package"
	}
	if len(fields) > 0 {
		return validationError("select package", "Please choose a consultation type and package", fields)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StatePackage {
		return ErrInvalidTransition
	}
	if w.draft.ConsultationType != consultationType || w.draft.PackageID != packageID {
		w.draft.ConsultationType = consultationType
		w.draft.PackageID = packageID
		w.submitKey = ""
	}
	return nil
}

// ---- questions ----

// SetQuestions replaces the question list. Blank entries are allowed here
// and rejected by Next.
func (w *Wizard) SetQuestions(questions []Question) error {
	if len(questions) > MaxQuestions {
		return validationError("set questions", fmt.Sprintf("You can ask up to %d questions", MaxQuestions),
			map[string]string{"questions": "too many"})
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateQuestions {
		return ErrInvalidTransition
	}
	w.draft.Questions = append([]Question(nil), questions...)
	w.submitKey = ""
	return nil
}

// ---- navigation ----

// Next validates the current step and advances. Summary only moves on
// through Submit.
func (w *Wizard) Next() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.state.editable() || w.state == StateSummary {
		return ErrInvalidTransition
	}
	if err := w.validate(w.state); err != nil {
		return err
	}
	w.state++
	return nil
}

func (w *Wizard) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.state.editable() || w.state == StateDateTime {
		return ErrInvalidTransition
	}
	w.state--
	return nil
}

func (w *Wizard) validate(step State) *Error {
	fields := map[string]string{}
	var message string

	switch step {
	case StateDateTime:
		message = "Please select a date and time"
		if w.draft.Date == "" {
			fields["date"] = "required"
		}
		if w.draft.Slot == "" {
			fields["timeSlot"] = "required"
		}
	case StatePackage:
		message = "Please select a consultation type and package"
		if w.draft.ConsultationType == "" {
			fields["consultationType"] = "required"
		}
		if w.draft.PackageID == "" {
			fields["package"] = "required"
		}
	case StateQuestions:
		message = "Please fill in every question and its details"
		if len(w.draft.Questions) == 0 {
			fields["questions"] = "at least one question is required"
		}
		if len(w.draft.Questions) > MaxQuestions {
			fields["questions"] = "too many"
		}
		for i, q := range w.draft.Questions {
			if strings.TrimSpace(q.Question) == "" {
				fields[fmt.Sprintf("questions[%d].question", i)] = "required"
			}
			if strings.TrimSpace(q.Detail) == "" {
				fields[fmt.Sprintf("questions[%d].detail", i)] = "required"
			}
		}
	}

	if len(fields) == 0 {
		return nil
	}
	return validationError("validate "+step.String(), message, fields)
}

// ---- submission ----

// Submit commits the draft and creates the pending appointment. On
// conflict the wizard returns to DateTime with the slot cleared; on an
// auth failure the draft is discarded and the user sent to /login; other
// failures return to Summary with the draft intact.
func (w *Wizard) Submit(ctx context.Context) (*client.Appointment, error) {
	const op = "submit appointment"

	w.mu.Lock()
	if w.busy {
		w.mu.Unlock()
		return nil, ErrInFlight
	}
	if w.state != StateSummary {
		w.mu.Unlock()
		return nil, ErrInvalidTransition
	}
	for _, step := range []State{StateDateTime, StatePackage, StateQuestions} {
		if err := w.validate(step); err != nil {
			w.mu.Unlock()
			return nil, err
		}
	}
	req, invalid := w.request()
	if invalid != nil {
		w.mu.Unlock()
		return nil, invalid
	}
	if w.submitKey == "" {
		w.submitKey = w.newKey()
	}
	key := w.submitKey
	w.state = StateSubmitting
	w.busy = true
	w.lastErr = nil
	w.mu.Unlock()

	appt, err := w.backend.CreateAppointment(ctx, key, req)

	w.mu.Lock()
	w.busy = false
	if err != nil {
		e := classify(op, err)
		redirect := w.submitFailed(e)
		w.lastErr = e
		w.mu.Unlock()

		if redirect != "" {
			w.navigate(redirect)
		}
		return nil, e
	}

	w.pending = appt
	w.submitKey = ""
	w.state = StateAwaitingPayment
	w.mu.Unlock()

	a := *appt
	return &a, nil
}

// submitFailed moves the wizard after a failed submission and returns the
// path to navigate to, if any.
func (w *Wizard) submitFailed(e *Error) string {
	switch e.Kind {
	case KindConflict:
		w.state = StateDateTime
		w.draft.Slot = ""
		w.slots, w.slotsFor = nil, ""
		w.submitKey = ""
	case KindAuth:
		w.draft = Draft{}
		w.slots, w.slotsFor = nil, ""
		w.submitKey = ""
		w.state = StateDateTime
		return PathLogin
	default:
		// the key is kept so a retry cannot create a second appointment
		w.state = StateSummary
	}
	return ""
}

// request embeds the package by value so the price is fixed at booking time.
func (w *Wizard) request() (client.AppointmentRequest, *Error) {
	pkg, ok := w.catalog.Package(w.draft.PackageID)
	if !ok {
		return client.AppointmentRequest{}, validationError("submit appointment", "Please choose a package", map[string]string{"package": "unknown package"})
	}

	questions := make([]client.Question, len(w.draft.Questions))
	for i, q := range w.draft.Questions {
		questions[i] = client.Question{Question: strings.TrimSpace(q.Question), Answer: strings.TrimSpace(q.Detail)}
	}

	return client.AppointmentRequest{
		AppointmentDate:  w.draft.Date,
		AppointmentTime:  w.draft.Slot,
		ConsultationType: w.draft.ConsultationType,
		Package: client.PackageSnapshot{
			ID:       pkg.ID,
			Name:     pkg.Name,
			Duration: pkg.Duration,
			Price:    pkg.Price,
		},
		ClientQuestions: questions,
	}, nil
}

// ---- payment ----

// Pay runs one payment attempt for the pending appointment: order, hosted
// checkout, then server verification. Only a confirmed verification moves
// the wizard to Confirmed. A dismissed checkout returns nil, nil and leaves
// the wizard awaiting payment.
func (w *Wizard) Pay(ctx context.Context) (*client.Verification, error) {
	w.mu.Lock()
	if w.busy {
		w.mu.Unlock()
		return nil, ErrInFlight
	}
	if w.state != StateAwaitingPayment || w.pending == nil {
		w.mu.Unlock()
		return nil, ErrInvalidTransition
	}
	w.busy = true
	w.lastErr = nil
	appt := *w.pending
	w.mu.Unlock()

	order, err := w.backend.CreateOrder(ctx, appt.ID)
	if err != nil {
		return nil, w.payFailed(classify("create order", err))
	}

	outcome, err := w.checkout.Open(ctx, CheckoutRequest{
		KeyID:       order.KeyID,
		OrderID:     order.OrderID,
		Amount:      order.Amount,
		Currency:    order.Currency,
		Description: appt.Package.Name,
		Prefill:     w.prefill,
		Theme:       w.theme,
	})
	if err != nil {
		return nil, w.payFailed(&Error{
			Kind:    KindCheckout,
			Op:      "open checkout",
			Message: "The payment window could not be loaded, please try again",
			Err:     errors.Join(ErrCheckoutUnavailable, err),
		})
	}
	if outcome.Dismissed || outcome.Proof == nil {
		w.release()
		return nil, nil
	}

	// the checkout callback alone never confirms anything
	verification, err := w.backend.VerifyPayment(ctx, client.VerifyRequest{
		RazorpayOrderID:   outcome.Proof.OrderID,
		RazorpayPaymentID: outcome.Proof.PaymentID,
		RazorpaySignature: outcome.Proof.Signature,
		AppointmentID:     appt.ID,
	})
	if err != nil {
		return nil, w.payFailed(classify("verify payment", err))
	}
	if !verification.Confirmed() {
		return nil, w.payFailed(&Error{Kind: KindPayment, Op: "verify payment", Message: "Payment verification failed"})
	}

	w.mu.Lock()
	w.busy = false
	w.verification = verification
	w.pending.Status = verification.Status
	w.state = StateConfirmed
	w.mu.Unlock()

	w.navigate(PathDashboard)

	v := *verification
	return &v, nil
}

func (w *Wizard) payFailed(e *Error) error {
	w.mu.Lock()
	w.busy = false
	w.lastErr = e
	w.mu.Unlock()

	if e.Kind == KindAuth {
		w.navigate(PathLogin)
	}
	return e
}

func (w *Wizard) release() {
	w.mu.Lock()
	w.busy = false
	w.mu.Unlock()
}

func (w *Wizard) navigate(path string) {
	if w.nav != nil {
		w.nav.Navigate(path)
	}
}
