package usecase

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/Rishabh-k-Paliwal/astrologix/internal/data/entity"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/data/repository"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/gateway"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/task"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/video"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/catalog"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/schedule"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// testNow is 2025-04-01 12:00 IST, a Tuesday.
var testNow = time.Date(2025, 4, 1, 6, 30, 0, 0, time.UTC)

type fakeUsers struct {
	repository.UserRepository
	mu      sync.Mutex
	byID    map[uuid.UUID]*entity.User
	deleted []uuid.UUID
}

func newFakeUsers(users ...*entity.User) *fakeUsers {
	f := &fakeUsers{byID: map[uuid.UUID]*entity.User{}}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, user *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == user.Email {
			return repository.ErrEmailTaken
		}
	}
	f.byID[user.ID] = user
	return nil
}

func (f *fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id], nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) FindAll(context.Context, int, int) ([]*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.User
	for _, u := range f.byID {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUsers) CountAll(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.byID)), nil
}

func (f *fakeUsers) Update(_ context.Context, user *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[user.ID] = user
	return nil
}

func (f *fakeUsers) UpdateAvatar(_ context.Context, id uuid.UUID, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return fmt.Errorf("user %s not found", id)
	}
	u.AvatarURL = &url
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeSessions struct {
	repository.SessionRepository
	mu         sync.Mutex
	users      *fakeUsers
	byToken    map[string]*entity.Session
	revokedFor []uuid.UUID
}

func (f *fakeSessions) Create(_ context.Context, s *entity.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byToken[s.Token.String()] = s
	return nil
}

func (f *fakeSessions) FindValidSession(ctx context.Context, token string) (*entity.Session, error) {
	f.mu.Lock()
	s, ok := f.byToken[token]
	f.mu.Unlock()
	if !ok || s.RevokedAt != nil {
		return nil, nil
	}
	if u, _ := f.users.FindByID(ctx, s.UserID); u != nil {
		s.Role = u.Role
		s.Email = u.Email
	}
	return s, nil
}

func (f *fakeSessions) Revoke(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byToken[token]
	if !ok || s.RevokedAt != nil {
		return repository.ErrStatusChanged
	}
	now := time.Now()
	s.RevokedAt = &now
	return nil
}

func (f *fakeSessions) RevokeAllUserSessions(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revokedFor = append(f.revokedFor, userID)
	return nil
}

type fakeOTPs struct {
	repository.OTPRepository
	mu    sync.Mutex
	codes []*entity.OTP
}

func (f *fakeOTPs) Create(_ context.Context, otp *entity.OTP) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes = append(f.codes, otp)
	return nil
}

func (f *fakeOTPs) FindValidOTP(_ context.Context, email, code string, otpType entity.OTPType) (*entity.OTP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.codes {
		if o.Email == email && o.OTPCode == code && o.OTPType == otpType && !o.IsUsed {
			return o, nil
		}
	}
	return nil, nil
}

func (f *fakeOTPs) MarkAsUsed(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.codes {
		if o.ID == id {
			o.IsUsed = true
		}
	}
	return nil
}

func (f *fakeOTPs) InvalidateAll(_ context.Context, email string, otpType entity.OTPType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.codes {
		if o.Email == email && o.OTPType == otpType {
			o.IsUsed = true
		}
	}
	return nil
}

func (f *fakeOTPs) latest() *entity.OTP {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.codes) == 0 {
		return nil
	}
	return f.codes[len(f.codes)-1]
}

// fakeAppointments enforces one live appointment per slot like the
// partial unique index does.
type fakeAppointments struct {
	repository.AppointmentRepository
	mu    sync.Mutex
	byID  map[uuid.UUID]*entity.Appointment
	order []uuid.UUID

	// payable reports a live order the way the NOT EXISTS guard does.
	payable func(appointmentID uuid.UUID, now time.Time) bool
	// expire marks leftover orders of swept appointments expired.
	expire func(ids []uuid.UUID)
	// beforeCreate runs ahead of every insert.
	beforeCreate func()
}

func newFakeAppointments(list ...*entity.Appointment) *fakeAppointments {
	f := &fakeAppointments{byID: map[uuid.UUID]*entity.Appointment{}}
	for _, a := range list {
		f.byID[a.ID] = a
		f.order = append(f.order, a.ID)
	}
	return f
}

func (f *fakeAppointments) Create(_ context.Context, a *entity.Appointment) error {
	if f.beforeCreate != nil {
		f.beforeCreate()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, other := range f.byID {
		if other.Status.Active() && other.AppointmentDate.Equal(a.AppointmentDate) && other.AppointmentTime == a.AppointmentTime {
			return repository.ErrSlotTaken
		}
	}
	cp := *a
	f.byID[a.ID] = &cp
	f.order = append(f.order, a.ID)
	return nil
}

func (f *fakeAppointments) FindByID(_ context.Context, id uuid.UUID) (*entity.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAppointments) CancelStalePending(_ context.Context, createdBefore time.Time, reason string) ([]uuid.UUID, error) {
	now := time.Now()

	f.mu.Lock()
	var candidates []uuid.UUID
	for _, id := range f.order {
		a := f.byID[id]
		if a.Status == entity.AppointmentPending && a.CreatedAt.Before(createdBefore) {
			candidates = append(candidates, id)
		}
	}
	f.mu.Unlock()

	var ids []uuid.UUID
	for _, id := range candidates {
		if f.payable != nil && f.payable(id, now) {
			continue
		}
		ids = append(ids, id)
	}

	f.mu.Lock()
	for _, id := range ids {
		a := f.byID[id]
		a.Status = entity.AppointmentCancelled
		a.CancelReason = ptr(reason)
	}
	f.mu.Unlock()

	if f.expire != nil && len(ids) > 0 {
		f.expire(ids)
	}
	return ids, nil
}

func (f *fakeAppointments) matches(a *entity.Appointment, filter repository.AppointmentFilter) bool {
	if filter.UserID != nil && a.UserID != *filter.UserID {
		return false
	}
	if filter.Status != "" && a.Status != filter.Status {
		return false
	}
	if filter.Date != nil && !a.AppointmentDate.Equal(*filter.Date) {
		return false
	}
	return true
}

func (f *fakeAppointments) FindAll(_ context.Context, filter repository.AppointmentFilter, limit, offset int) ([]*entity.AppointmentWithClient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.AppointmentWithClient
	for _, id := range f.order {
		a := f.byID[id]
		if f.matches(a, filter) {
			out = append(out, &entity.AppointmentWithClient{Appointment: *a, ClientName: "Asha Rao", ClientEmail: "asha@example.com"})
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeAppointments) Count(_ context.Context, filter repository.AppointmentFilter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, a := range f.byID {
		if f.matches(a, filter) {
			n++
		}
	}
	return n, nil
}

func (f *fakeAppointments) FindNextUpcoming(_ context.Context, userID uuid.UUID, _ time.Time) (*entity.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.order {
		a := f.byID[id]
		if a.UserID == userID && a.Status == entity.AppointmentConfirmed {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeAppointments) ReservedTimes(_ context.Context, date time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, a := range f.byID {
		if a.Status.Active() && a.AppointmentDate.Equal(date) {
			out = append(out, a.AppointmentTime)
		}
	}
	return out, nil
}

func (f *fakeAppointments) Stats(_ context.Context, userID *uuid.UUID) (*entity.AppointmentStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &entity.AppointmentStats{}
	for _, a := range f.byID {
		if userID != nil && a.UserID != *userID {
			continue
		}
		stats.Total++
		switch a.Status {
		case entity.AppointmentPending:
			stats.Pending++
		case entity.AppointmentConfirmed:
			stats.Confirmed++
			stats.Revenue += a.Amount
		case entity.AppointmentCompleted:
			stats.Completed++
			stats.Revenue += a.Amount
		case entity.AppointmentCancelled:
			stats.Cancelled++
		}
	}
	return stats, nil
}

func (f *fakeAppointments) TransitionStatus(_ context.Context, id uuid.UUID, from []entity.AppointmentStatus, to entity.AppointmentStatus, reason *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok || !containsStatus(from, a.Status) {
		return repository.ErrStatusChanged
	}
	a.Status = to
	a.CancelReason = reason
	return nil
}

func (f *fakeAppointments) SetRoom(_ context.Context, id uuid.UUID, name, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.byID[id]
	a.RoomName = &name
	a.RoomURL = &url
	return nil
}

func (f *fakeAppointments) MarkCall(_ context.Context, id uuid.UUID, event entity.CallEventType, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.byID[id]
	if event == entity.CallStarted {
		a.CallStartedAt = &at
	} else {
		a.CallEndedAt = &at
	}
	return nil
}

func (f *fakeAppointments) get(id uuid.UUID) *entity.Appointment {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id]
}

func (f *fakeAppointments) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

// fakePayments mirrors the confirm transaction of the real repository.
type fakePayments struct {
	repository.PaymentRepository
	mu       sync.Mutex
	appts    *fakeAppointments
	orders   map[string]*entity.PaymentOrder
	payments map[uuid.UUID]*entity.Payment
}

func newFakePayments(appts *fakeAppointments) *fakePayments {
	return &fakePayments{appts: appts, orders: map[string]*entity.PaymentOrder{}, payments: map[uuid.UUID]*entity.Payment{}}
}

func (f *fakePayments) CreateOrder(_ context.Context, o *entity.PaymentOrder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, other := range f.orders {
		if other.AppointmentID == o.AppointmentID && other.Status == entity.OrderCreated {
			return repository.ErrActiveOrderExists
		}
	}
	cp := *o
	f.orders[o.OrderID] = &cp
	return nil
}

func (f *fakePayments) FindOrderByOrderID(_ context.Context, orderID string) (*entity.PaymentOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (f *fakePayments) FindActiveOrder(_ context.Context, appointmentID uuid.UUID) (*entity.PaymentOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.AppointmentID == appointmentID && o.Status == entity.OrderCreated {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakePayments) ExpireOrders(_ context.Context, appointmentID uuid.UUID, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, o := range f.orders {
		if o.AppointmentID == appointmentID && o.Status == entity.OrderCreated && !now.Before(o.ExpiresAt) {
			o.Status = entity.OrderExpired
			n++
		}
	}
	return n, nil
}

func (f *fakePayments) FindPaymentByAppointment(_ context.Context, appointmentID uuid.UUID) (*entity.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.payments[appointmentID], nil
}

func (f *fakePayments) Confirm(_ context.Context, p *entity.Payment) (*repository.ConfirmResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appts.mu.Lock()
	defer f.appts.mu.Unlock()

	a := f.appts.byID[p.AppointmentID]
	switch a.Status {
	case entity.AppointmentConfirmed, entity.AppointmentCompleted:
		return &repository.ConfirmResult{AlreadyConfirmed: true}, nil
	case entity.AppointmentPending:
	default:
		return nil, repository.ErrNotPending
	}

	o, ok := f.orders[p.OrderID]
	if !ok || o.Status != entity.OrderCreated {
		return nil, repository.ErrOrderNotActive
	}
	o.Status = entity.OrderPaid
	f.payments[p.AppointmentID] = p
	a.Status = entity.AppointmentConfirmed
	return &repository.ConfirmResult{Payment: p}, nil
}

func (f *fakePayments) payable(appointmentID uuid.UUID, now time.Time) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.AppointmentID == appointmentID && o.Status == entity.OrderCreated && o.ExpiresAt.After(now) {
			return true
		}
	}
	return false
}

func (f *fakePayments) expireFor(ids []uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		for _, id := range ids {
			if o.AppointmentID == id && o.Status == entity.OrderCreated {
				o.Status = entity.OrderExpired
			}
		}
	}
}

func (f *fakePayments) order(id string) *entity.PaymentOrder {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orders[id]
}

type fakeReviews struct {
	repository.ReviewRepository
	byAppointment map[uuid.UUID]*entity.Review
}

func (f *fakeReviews) Create(_ context.Context, r *entity.Review) error {
	if _, ok := f.byAppointment[r.AppointmentID]; ok {
		return repository.ErrAlreadyReviewed
	}
	f.byAppointment[r.AppointmentID] = r
	return nil
}

func (f *fakeReviews) AverageRating(context.Context) (float64, int64, error) {
	if len(f.byAppointment) == 0 {
		return 0, 0, nil
	}
	var sum int
	for _, r := range f.byAppointment {
		sum += r.Rating
	}
	return float64(sum) / float64(len(f.byAppointment)), int64(len(f.byAppointment)), nil
}

type fakeCallEvents struct {
	repository.CallEventRepository
	events []*entity.CallEvent
}

func (f *fakeCallEvents) Create(_ context.Context, e *entity.CallEvent) error {
	f.events = append(f.events, e)
	return nil
}

type fakeTasks struct {
	mu        sync.Mutex
	otps      []task.OTPPayload
	confirmed []uuid.UUID
	err       error
}

func (f *fakeTasks) EnqueueOTP(_ context.Context, p task.OTPPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.otps = append(f.otps, p)
	return f.err
}

func (f *fakeTasks) EnqueueConfirmed(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmed = append(f.confirmed, id)
	return f.err
}

type fakeAvatars struct {
	mu          sync.Mutex
	objects     map[string][]byte
	contentType map[string]string
	err         error
}

func (f *fakeAvatars) Put(_ context.Context, key, contentType string, r io.Reader, _ int64) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	f.contentType[key] = contentType
	return "https://cdn.example.com/" + key, nil
}

// fixture wires every service against in-memory fakes and a miniredis
// backed idempotency store.
type fixture struct {
	redis    *miniredis.Miniredis
	repo     *repository.Repository
	users    *fakeUsers
	sessions *fakeSessions
	otps     *fakeOTPs
	appts    *fakeAppointments
	payments *fakePayments
	reviews  *fakeReviews
	calls    *fakeCallEvents
	tasks    *fakeTasks
	avatars  *fakeAvatars
	gateway  *gateway.Fake
	calendar *schedule.Calendar
	config   *utils.Config
	svc      *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	users := newFakeUsers()
	appts := newFakeAppointments()
	f := &fixture{
		redis:    mr,
		users:    users,
		sessions: &fakeSessions{users: users, byToken: map[string]*entity.Session{}},
		otps:     &fakeOTPs{},
		appts:    appts,
		payments: newFakePayments(appts),
		reviews:  &fakeReviews{byAppointment: map[uuid.UUID]*entity.Review{}},
		calls:    &fakeCallEvents{},
		tasks:    &fakeTasks{},
		avatars:  &fakeAvatars{objects: map[string][]byte{}, contentType: map[string]string{}},
		gateway:  gateway.NewFake("", ""),
		config: &utils.Config{
			App:     utils.AppConfig{AdminEmails: []string{"guru@astrologix.in"}},
			Session: utils.SessionConfig{ExpiryHours: 24},
			OTP:     utils.OTPConfig{ExpiryMinutes: 10, Length: 6},
			Booking: utils.BookingConfig{
				Timezone:       "Asia/Kolkata",
				HorizonDays:    30,
				CancelCutoff:   2 * time.Hour,
				PendingTTL:     30 * time.Minute,
				IdempotencyTTL: time.Hour,
				InFlightTTL:    time.Minute,
			},
			Payment: utils.PaymentConfig{Currency: "INR", OrderTTL: 15 * time.Minute},
		},
	}

	appts.payable = f.payments.payable
	appts.expire = f.payments.expireFor

	f.calendar = schedule.NewCalendar("Asia/Kolkata", 30)
	f.calendar.Now = func() time.Time { return testNow }

	f.repo = &repository.Repository{
		User:        f.users,
		Session:     f.sessions,
		OTP:         f.otps,
		Appointment: f.appts,
		Payment:     f.payments,
		Review:      f.reviews,
		CallEvent:   f.calls,
		Idempotency: repository.NewIdempotencyRepository(rdb, zap.NewNop()),
	}

	f.svc = NewService(f.repo, f.config, External{
		Catalog:  catalog.Default(),
		Calendar: f.calendar,
		Gateway:  f.gateway,
		Video:    video.NewLocal("meet.astrologix.test"),
		Tokens:   video.NewTokenIssuer("test-secret", time.Hour),
		Tasks:    f.tasks,
		Avatars:  f.avatars,
	}, zap.NewNop())

	return f
}

func (f *fixture) addUser(email string, role entity.UserRole) *entity.User {
	hashed, _ := utils.HashPassword("secret123")
	u := &entity.User{
		Base:         entity.NewBase(testNow),
		FirstName:    "Asha",
		LastName:     "Rao",
		Email:        email,
		PasswordHash: hashed,
		Role:         role,
		IsActive:     true,
	}
	f.users.byID[u.ID] = u
	return u
}

func (f *fixture) addAppointment(userID uuid.UUID, date, hhmm string, status entity.AppointmentStatus) *entity.Appointment {
	day, _ := f.calendar.ParseDate(date)
	a := &entity.Appointment{
		BaseNoDelete:     entity.NewBaseNoDelete(testNow),
		UserID:           userID,
		AppointmentDate:  day,
		AppointmentTime:  hhmm,
		ConsultationType: "career",
		PackageID:        "premium",
		PackageName:      "Premium Consultation",
		PackageDuration:  45,
		PackagePrice:     1499,
		Amount:           1499,
		ClientQuestions:  []entity.ClientQuestion{{Question: "Will I get promoted?", Answer: "Looking for timing"}},
		Status:           status,
	}
	f.appts.byID[a.ID] = a
	f.appts.order = append(f.appts.order, a.ID)
	return a
}
