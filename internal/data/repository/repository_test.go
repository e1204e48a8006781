package repository

import (
	"context"
	"testing"
	"time"

	"github.com/Rishabh-k-Paliwal/astrologix/internal/data/entity"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func sampleAppointment() *entity.Appointment {
	now := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	return &entity.Appointment{
		BaseNoDelete:     entity.NewBaseNoDelete(now),
		UserID:           uuid.New(),
		AppointmentDate:  time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC),
		AppointmentTime:  "18:00",
		ConsultationType: "career",
		PackageID:        "premium",
		PackageName:      "Premium Consultation",
		PackageDuration:  45,
		PackagePrice:     1499,
		Amount:           1499,
		ClientQuestions:  []entity.ClientQuestion{{Question: "Will I get promoted?", Answer: "Looking for timing"}},
		Status:           entity.AppointmentPending,
	}
}

func TestAppointmentCreate_SlotTaken(t *testing.T) {
	mock := newMock(t)
	repo := NewAppointmentRepository(mock, zap.NewNop())

	mock.ExpectExec("INSERT INTO appointments").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "appointments_slot_active_uniq"})

	err := repo.Create(context.Background(), sampleAppointment())
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentCreate_Success(t *testing.T) {
	mock := newMock(t)
	repo := NewAppointmentRepository(mock, zap.NewNop())
	a := sampleAppointment()

	mock.ExpectExec("INSERT INTO appointments").
		WithArgs(a.ID, a.UserID, a.AppointmentDate, "18:00", "career", "premium",
			"Premium Consultation", 45, int64(1499), int64(1499), pgxmock.AnyArg(),
			entity.AppointmentPending, a.CreatedAt, a.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), a))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentFindByID(t *testing.T) {
	mock := newMock(t)
	repo := NewAppointmentRepository(mock, zap.NewNop())
	a := sampleAppointment()

	var nilString *string
	var nilTime *time.Time
	rows := pgxmock.NewRows([]string{
		"id", "user_id", "appointment_date", "appointment_time", "consultation_type",
		"package_id", "package_name", "package_duration", "package_price", "amount",
		"client_questions", "status", "cancel_reason", "room_name", "room_url",
		"confirmed_at", "cancelled_at", "completed_at", "call_started_at", "call_ended_at",
		"created_at", "updated_at",
	}).AddRow(
		a.ID, a.UserID, a.AppointmentDate, a.AppointmentTime, a.ConsultationType,
		a.PackageID, a.PackageName, a.PackageDuration, a.PackagePrice, a.Amount,
		[]byte(`[{"question":"Will I get promoted?","answer":"Looking for timing"}]`),
		entity.AppointmentPending, nilString, nilString, nilString,
		nilTime, nilTime, nilTime, nilTime, nilTime,
		a.CreatedAt, a.UpdatedAt,
	)
	mock.ExpectQuery("FROM appointments a WHERE a.id").WithArgs(a.ID).WillReturnRows(rows)

	got, err := repo.FindByID(context.Background(), a.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(1499), got.Amount)
	assert.Equal(t, a.ClientQuestions, got.ClientQuestions)
	assert.Equal(t, entity.AppointmentPending, got.Status)
}

func TestAppointmentFindByID_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewAppointmentRepository(mock, zap.NewNop())
	id := uuid.New()

	mock.ExpectQuery("FROM appointments").WithArgs(id).WillReturnError(pgx.ErrNoRows)

	got, err := repo.FindByID(context.Background(), id)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestAppointmentTransitionStatus_NoRowMatched(t *testing.T) {
	mock := newMock(t)
	repo := NewAppointmentRepository(mock, zap.NewNop())
	id := uuid.New()

	mock.ExpectExec("UPDATE appointments").
		WithArgs(id, entity.AppointmentCancelled, pgxmock.AnyArg(), []string{"pending", "confirmed"}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.TransitionStatus(context.Background(), id,
		[]entity.AppointmentStatus{entity.AppointmentPending, entity.AppointmentConfirmed},
		entity.AppointmentCancelled, nil)
	assert.ErrorIs(t, err, ErrStatusChanged)
}

func TestAppointmentReservedTimes(t *testing.T) {
	mock := newMock(t)
	repo := NewAppointmentRepository(mock, zap.NewNop())
	day := time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT appointment_time").WithArgs(day).
		WillReturnRows(pgxmock.NewRows([]string{"appointment_time"}).AddRow("17:00").AddRow("18:30"))

	times, err := repo.ReservedTimes(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, []string{"17:00", "18:30"}, times)
}

func TestAppointmentCancelStalePending_SkipsPayableOrders(t *testing.T) {
	mock := newMock(t)
	repo := NewAppointmentRepository(mock, zap.NewNop())
	cutoff := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	stale := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)UPDATE appointments.*status = 'pending' AND created_at < \$1.*NOT EXISTS.*po.status = 'created' AND po.expires_at > NOW\(\)`).
		WithArgs(cutoff, "unpaid").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(stale))
	mock.ExpectExec("UPDATE payment_orders SET status = 'expired'").
		WithArgs([]uuid.UUID{stale}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	ids, err := repo.CancelStalePending(context.Background(), cutoff, "unpaid")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{stale}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentCancelStalePending_NothingStale(t *testing.T) {
	mock := newMock(t)
	repo := NewAppointmentRepository(mock, zap.NewNop())
	cutoff := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE appointments").WithArgs(cutoff, "unpaid").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	ids, err := repo.CancelStalePending(context.Background(), cutoff, "unpaid")
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func samplePayment(appointmentID uuid.UUID) *entity.Payment {
	return &entity.Payment{
		BaseSimple:    entity.NewBaseSimple(time.Now()),
		AppointmentID: appointmentID,
		OrderID:       "order_123",
		PaymentID:     "pay_456",
		Amount:        149900,
		Currency:      "INR",
		Signature:     "sig",
	}
}

func TestPaymentConfirm_FlipsPendingAppointment(t *testing.T) {
	mock := newMock(t)
	repo := NewPaymentRepository(mock, zap.NewNop())
	p := samplePayment(uuid.New())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM appointments").WithArgs(p.AppointmentID).
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow(entity.AppointmentPending))
	mock.ExpectExec("UPDATE payment_orders").WithArgs("order_123", p.AppointmentID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO payments").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE appointments SET status = 'confirmed'").WithArgs(p.AppointmentID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	res, err := repo.Confirm(context.Background(), p)
	require.NoError(t, err)
	assert.False(t, res.AlreadyConfirmed)
	assert.Equal(t, p, res.Payment)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentConfirm_AlreadyConfirmedIsIdempotent(t *testing.T) {
	mock := newMock(t)
	repo := NewPaymentRepository(mock, zap.NewNop())
	p := samplePayment(uuid.New())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM appointments").WithArgs(p.AppointmentID).
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow(entity.AppointmentConfirmed))
	mock.ExpectRollback()

	res, err := repo.Confirm(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, res.AlreadyConfirmed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentConfirm_OrderAlreadyUsed(t *testing.T) {
	mock := newMock(t)
	repo := NewPaymentRepository(mock, zap.NewNop())
	p := samplePayment(uuid.New())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM appointments").WithArgs(p.AppointmentID).
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow(entity.AppointmentPending))
	mock.ExpectExec("UPDATE payment_orders").WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	_, err := repo.Confirm(context.Background(), p)
	assert.ErrorIs(t, err, ErrOrderNotActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentConfirm_CancelledAppointment(t *testing.T) {
	mock := newMock(t)
	repo := NewPaymentRepository(mock, zap.NewNop())
	p := samplePayment(uuid.New())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM appointments").WithArgs(p.AppointmentID).
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow(entity.AppointmentCancelled))
	mock.ExpectRollback()

	_, err := repo.Confirm(context.Background(), p)
	assert.ErrorIs(t, err, ErrNotPending)
}

func TestCreateOrder_ActiveOrderExists(t *testing.T) {
	mock := newMock(t)
	repo := NewPaymentRepository(mock, zap.NewNop())

	mock.ExpectExec("INSERT INTO payment_orders").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "payment_orders_active_uniq"})

	err := repo.CreateOrder(context.Background(), &entity.PaymentOrder{
		BaseNoDelete:  entity.NewBaseNoDelete(time.Now()),
		AppointmentID: uuid.New(),
		OrderID:       "order_1",
		Status:        entity.OrderCreated,
	})
	assert.ErrorIs(t, err, ErrActiveOrderExists)
}

func TestUserCreate_EmailTaken(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock, zap.NewNop())

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_uniq"})

	err := repo.Create(context.Background(), &entity.User{Base: entity.NewBase(time.Now()), Email: "a@b.co"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestUserUpdateAvatar(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock, zap.NewNop())
	id := uuid.New()

	mock.ExpectExec("UPDATE users SET avatar_url = \\$2").
		WithArgs(id, "/uploads/avatars/a.png").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, repo.UpdateAvatar(context.Background(), id, "/uploads/avatars/a.png"))

	mock.ExpectExec("UPDATE users SET avatar_url").
		WithArgs(id, "x").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	assert.Error(t, repo.UpdateAvatar(context.Background(), id, "x"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserFindByID_ScansAvatar(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock, zap.NewNop())
	id := uuid.New()
	now := time.Now()
	avatar := "https://cdn.example.com/avatars/a.png"
	var nilString *string
	var nilTime *time.Time

	mock.ExpectQuery("(?s)SELECT id, first_name.*avatar_url.*FROM users WHERE id = \\$1").WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "first_name", "last_name", "email", "password", "phone", "role",
			"date_of_birth", "time_of_birth", "birth_city", "birth_state", "birth_country", "gender",
			"avatar_url", "email_verified", "is_active", "created_at", "updated_at", "deleted_at",
		}).AddRow(id, "Asha", "Rao", "asha@example.com", "hash", nilString, entity.RoleClient,
			nilTime, nilString, nilString, nilString, nilString, nilString,
			&avatar, true, true, now, now, nilTime))

	user, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, user.AvatarURL)
	assert.Equal(t, avatar, *user.AvatarURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionFindValid_CarriesRole(t *testing.T) {
	mock := newMock(t)
	repo := NewSessionRepository(mock, zap.NewNop())
	token := uuid.New()
	var nilString *string
	var nilTime *time.Time

	mock.ExpectQuery("FROM sessions s").WithArgs(token.String()).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "user_id", "token", "user_agent", "ip_address", "expires_at", "revoked_at", "created_at", "role", "email",
		}).AddRow(uuid.New(), uuid.New(), token, nilString, nilString, time.Now().Add(time.Hour), nilTime, time.Now(), entity.RoleAdmin, "guru@example.com"))

	s, err := repo.FindValidSession(context.Background(), token.String())
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, entity.RoleAdmin, s.Role)
	assert.Equal(t, "guru@example.com", s.Email)
}

func TestSessionCleanExpired(t *testing.T) {
	mock := newMock(t)
	repo := NewSessionRepository(mock, zap.NewNop())

	mock.ExpectExec("DELETE FROM sessions").WillReturnResult(pgxmock.NewResult("DELETE", 4))

	n, err := repo.CleanExpiredSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyReserveCompleteRelease(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := NewIdempotencyRepository(client, zap.NewNop())
	ctx := context.Background()

	ok, _, err := repo.Reserve(ctx, "idem:k1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, value, err := repo.Reserve(ctx, "idem:k1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, IdempotencyPending, value)

	require.NoError(t, repo.Complete(ctx, "idem:k1", "appointment-id", time.Minute))
	ok, value, err = repo.Reserve(ctx, "idem:k1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "appointment-id", value)

	require.NoError(t, repo.Release(ctx, "idem:k1"))
	assert.False(t, mr.Exists("idem:k1"))
}
