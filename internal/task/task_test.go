package task

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Rishabh-k-Paliwal/astrologix/internal/data/entity"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/data/repository"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/notify"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/utils"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type captureSender struct {
	sent []notify.EmailMessage
	err  error
}

func (s *captureSender) Send(_ context.Context, msg notify.EmailMessage) error {
	s.sent = append(s.sent, msg)
	return s.err
}

type fakeAppointments struct {
	repository.AppointmentRepository
	byID   map[uuid.UUID]*entity.Appointment
	cutoff time.Time
	reason string
	stale  []uuid.UUID
}

func (f *fakeAppointments) FindByID(_ context.Context, id uuid.UUID) (*entity.Appointment, error) {
	return f.byID[id], nil
}

func (f *fakeAppointments) CancelStalePending(_ context.Context, before time.Time, reason string) ([]uuid.UUID, error) {
	f.cutoff = before
	f.reason = reason
	return f.stale, nil
}

type fakeUsers struct {
	repository.UserRepository
	byID map[uuid.UUID]*entity.User
}

func (f *fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	return f.byID[id], nil
}

type fakePayments struct {
	repository.PaymentRepository
	payment *entity.Payment
}

func (f *fakePayments) FindPaymentByAppointment(context.Context, uuid.UUID) (*entity.Payment, error) {
	return f.payment, nil
}

type fakeSessions struct {
	repository.SessionRepository
	cleaned int64
	err     error
	calls   int
}

func (f *fakeSessions) CleanExpiredSessions(context.Context) (int64, error) {
	f.calls++
	return f.cleaned, f.err
}

func testConfig() *utils.Config {
	return &utils.Config{
		OTP:     utils.OTPConfig{ExpiryMinutes: 10},
		Booking: utils.BookingConfig{PendingTTL: 30 * time.Minute},
	}
}

func TestHandleOTP_SendsEmail(t *testing.T) {
	sender := &captureSender{}
	h := NewHandlers(&repository.Repository{}, sender, testConfig(), nil, zap.NewNop())

	task, err := NewOTPTask(OTPPayload{Email: "a@b.co", Name: "Asha", Code: "123456", Type: entity.OTPTypePasswordReset})
	require.NoError(t, err)

	require.NoError(t, h.HandleOTP(context.Background(), task))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "Your password reset code", sender.sent[0].Subject)
	assert.Contains(t, sender.sent[0].Body, "123456")
}

func TestHandleOTP_BadPayloadSkipsRetry(t *testing.T) {
	h := NewHandlers(&repository.Repository{}, &captureSender{}, testConfig(), nil, zap.NewNop())

	err := h.HandleOTP(context.Background(), asynq.NewTask(TypeEmailOTP, []byte("{")))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestHandleConfirmed_ComposesEmail(t *testing.T) {
	user := &entity.User{Base: entity.NewBase(time.Now()), FirstName: "Asha", LastName: "Rao", Email: "asha@example.com"}
	appt := &entity.Appointment{
		BaseNoDelete:    entity.NewBaseNoDelete(time.Now()),
		UserID:          user.ID,
		AppointmentDate: time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC),
		AppointmentTime: "18:00",
		PackageName:     "Premium Consultation",
		Amount:          1499,
		Status:          entity.AppointmentConfirmed,
	}
	repo := &repository.Repository{
		Appointment: &fakeAppointments{byID: map[uuid.UUID]*entity.Appointment{appt.ID: appt}},
		User:        &fakeUsers{byID: map[uuid.UUID]*entity.User{user.ID: user}},
		Payment:     &fakePayments{payment: &entity.Payment{PaymentID: "pay_9"}},
	}
	sender := &captureSender{}
	h := NewHandlers(repo, sender, testConfig(), nil, zap.NewNop())

	task, err := NewConfirmedTask(appt.ID)
	require.NoError(t, err)
	require.NoError(t, h.HandleConfirmed(context.Background(), task))

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "asha@example.com", msg.To)
	assert.Contains(t, msg.Body, "2025-04-10, 6:00 PM - 6:30 PM")
	assert.Contains(t, msg.Body, "pay_9")
}

func TestHandleConfirmed_MissingAppointmentIsDropped(t *testing.T) {
	repo := &repository.Repository{Appointment: &fakeAppointments{}}
	sender := &captureSender{}
	h := NewHandlers(repo, sender, testConfig(), nil, zap.NewNop())

	task, err := NewConfirmedTask(uuid.New())
	require.NoError(t, err)
	assert.NoError(t, h.HandleConfirmed(context.Background(), task))
	assert.Empty(t, sender.sent)
}

func TestHandleExpirePending_UsesCutoff(t *testing.T) {
	appts := &fakeAppointments{stale: []uuid.UUID{uuid.New(), uuid.New()}}
	h := NewHandlers(&repository.Repository{Appointment: appts}, &captureSender{}, testConfig(), nil, zap.NewNop())
	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return now }

	require.NoError(t, h.HandleExpirePending(context.Background(), NewExpirePendingTask()))
	assert.Equal(t, now.Add(-30*time.Minute), appts.cutoff)
	assert.Equal(t, expireReason, appts.reason)
}

func TestNewConfirmedTask_Payload(t *testing.T) {
	id := uuid.New()
	task, err := NewConfirmedTask(id)
	require.NoError(t, err)
	assert.Equal(t, TypeAppointmentConfirmed, task.Type())

	var p ConfirmedPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	assert.Equal(t, id, p.AppointmentID)
}

func TestRedisOpt(t *testing.T) {
	opt := RedisOpt(utils.RedisConfig{Addr: "redis:6379", Password: "pw", DB: 2})
	assert.Equal(t, "redis:6379", opt.Addr)
	assert.Equal(t, 2, opt.DB)
}

func TestHandleCleanSessions(t *testing.T) {
	sessions := &fakeSessions{cleaned: 3}
	h := NewHandlers(&repository.Repository{Session: sessions}, &captureSender{}, testConfig(), nil, zap.NewNop())

	require.NoError(t, h.HandleCleanSessions(context.Background(), NewCleanSessionsTask()))
	assert.Equal(t, 1, sessions.calls)

	sessions.err = errors.New("db down")
	assert.Error(t, h.HandleCleanSessions(context.Background(), NewCleanSessionsTask()))
}

func TestPeriodicJobs(t *testing.T) {
	config := testConfig()
	config.Booking.ExpireCronSpec = "@every 5m"
	config.Session.CleanCronSpec = "@daily"

	jobs := periodicJobs(config)
	require.Len(t, jobs, 2)
	assert.Equal(t, TypeExpirePending, jobs[0].task.Type())
	assert.Equal(t, "@every 5m", jobs[0].spec)
	assert.Equal(t, TypeCleanSessions, jobs[1].task.Type())
	assert.Equal(t, "@daily", jobs[1].spec)

	config.Session.CleanCronSpec = ""
	jobs = periodicJobs(config)
	require.Len(t, jobs, 1)
	assert.Equal(t, TypeExpirePending, jobs[0].task.Type())
}
