package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Rishabh-k-Paliwal/astrologix/internal/data/entity"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var (
	// ErrSlotTaken means another live appointment already holds the slot.
	ErrSlotTaken = errors.New("slot already booked")
	// ErrStatusChanged means the row was not in any of the expected statuses.
	ErrStatusChanged = errors.New("appointment status changed concurrently")
)

const slotIndex = "appointments_slot_active_uniq"

// AppointmentFilter narrows admin and user listings. Zero values match all.
type AppointmentFilter struct {
	UserID *uuid.UUID
	Status entity.AppointmentStatus
	Date   *time.Time
}

type AppointmentRepository interface {
	Create(ctx context.Context, appointment *entity.Appointment) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Appointment, error)
	FindAll(ctx context.Context, filter AppointmentFilter, limit, offset int) ([]*entity.AppointmentWithClient, error)
	Count(ctx context.Context, filter AppointmentFilter) (int64, error)
	FindNextUpcoming(ctx context.Context, userID uuid.UUID, from time.Time) (*entity.Appointment, error)
	ReservedTimes(ctx context.Context, date time.Time) ([]string, error)
	Stats(ctx context.Context, userID *uuid.UUID) (*entity.AppointmentStats, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from []entity.AppointmentStatus, to entity.AppointmentStatus, reason *string) error
	SetRoom(ctx context.Context, id uuid.UUID, roomName, roomURL string) error
	MarkCall(ctx context.Context, id uuid.UUID, event entity.CallEventType, at time.Time) error
	CancelStalePending(ctx context.Context, createdBefore time.Time, reason string) ([]uuid.UUID, error)
}

type appointmentRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewAppointmentRepository(db database.PgxIface, log *zap.Logger) AppointmentRepository {
	return &appointmentRepository{
		db:  db,
		log: log.With(zap.String("repository", "appointment")),
	}
}

const appointmentColumns = `a.id, a.user_id, a.appointment_date, a.appointment_time, a.consultation_type,
		       a.package_id, a.package_name, a.package_duration, a.package_price, a.amount,
		       a.client_questions, a.status, a.cancel_reason, a.room_name, a.room_url,
		       a.confirmed_at, a.cancelled_at, a.completed_at, a.call_started_at, a.call_ended_at,
		       a.created_at, a.updated_at`

func scanAppointment(row pgx.Row, extra ...any) (*entity.Appointment, error) {
	var a entity.Appointment
	var questions []byte
	dest := []any{
		&a.ID,
		&a.UserID,
		&a.AppointmentDate,
		&a.AppointmentTime,
		&a.ConsultationType,
		&a.PackageID,
		&a.PackageName,
		&a.PackageDuration,
		&a.PackagePrice,
		&a.Amount,
		&questions,
		&a.Status,
		&a.CancelReason,
		&a.RoomName,
		&a.RoomURL,
		&a.ConfirmedAt,
		&a.CancelledAt,
		&a.CompletedAt,
		&a.CallStartedAt,
		&a.CallEndedAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if len(questions) > 0 {
		if err := json.Unmarshal(questions, &a.ClientQuestions); err != nil {
			return nil, fmt.Errorf("decode client questions: %w", err)
		}
	}
	return &a, nil
}

func (r *appointmentRepository) Create(ctx context.Context, a *entity.Appointment) error {
	questions, err := json.Marshal(a.ClientQuestions)
	if err != nil {
		return fmt.Errorf("encode client questions: %w", err)
	}

	query := `
		INSERT INTO appointments (id, user_id, appointment_date, appointment_time, consultation_type,
		                          package_id, package_name, package_duration, package_price, amount,
		                          client_questions, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err = r.db.Exec(ctx, query,
		a.ID,
		a.UserID,
		a.AppointmentDate,
		a.AppointmentTime,
		a.ConsultationType,
		a.PackageID,
		a.PackageName,
		a.PackageDuration,
		a.PackagePrice,
		a.Amount,
		questions,
		a.Status,
		a.CreatedAt,
		a.UpdatedAt,
	)

	if database.IsUniqueViolation(err, slotIndex) {
		r.log.Info("Slot already taken",
			zap.String("date", a.AppointmentDate.Format("2006-01-02")),
			zap.String("time", a.AppointmentTime),
		)
		return ErrSlotTaken
	}
	if err != nil {
		r.log.Error("Failed to create appointment",
			zap.Error(err),
			zap.String("user_id", a.UserID.String()),
		)
		return fmt.Errorf("create appointment: %w", err)
	}

	return nil
}

func (r *appointmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments a WHERE a.id = $1`

	a, err := scanAppointment(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find appointment", zap.Error(err), zap.String("id", id.String()))
		return nil, fmt.Errorf("find appointment %s: %w", id.String(), err)
	}

	return a, nil
}

func (f AppointmentFilter) where() (string, []any) {
	var conds []string
	var args []any
	if f.UserID != nil {
		args = append(args, *f.UserID)
		conds = append(conds, fmt.Sprintf("a.user_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("a.status = $%d", len(args)))
	}
	if f.Date != nil {
		args = append(args, *f.Date)
		conds = append(conds, fmt.Sprintf("a.appointment_date = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *appointmentRepository) FindAll(ctx context.Context, filter AppointmentFilter, limit, offset int) ([]*entity.AppointmentWithClient, error) {
	where, args := filter.where()
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
		SELECT %s, u.first_name || ' ' || u.last_name, u.email, u.phone
		FROM appointments a
		JOIN users u ON u.id = a.user_id%s
		ORDER BY a.appointment_date DESC, a.appointment_time DESC
		LIMIT $%d OFFSET $%d
	`, appointmentColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to list appointments", zap.Error(err))
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var list []*entity.AppointmentWithClient
	for rows.Next() {
		var item entity.AppointmentWithClient
		a, err := scanAppointment(rows, &item.ClientName, &item.ClientEmail, &item.ClientPhone)
		if err != nil {
			r.log.Error("Failed to scan appointment row", zap.Error(err))
			return nil, fmt.Errorf("scan appointment row: %w", err)
		}
		item.Appointment = *a
		list = append(list, &item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate appointment rows: %w", err)
	}

	return list, nil
}

func (r *appointmentRepository) Count(ctx context.Context, filter AppointmentFilter) (int64, error) {
	where, args := filter.where()
	query := `SELECT COUNT(*) FROM appointments a` + where

	var count int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		r.log.Error("Failed to count appointments", zap.Error(err))
		return 0, fmt.Errorf("count appointments: %w", err)
	}

	return count, nil
}

// FindNextUpcoming returns the earliest confirmed appointment on or after from's date.
func (r *appointmentRepository) FindNextUpcoming(ctx context.Context, userID uuid.UUID, from time.Time) (*entity.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments a
		WHERE a.user_id = $1
		  AND a.status = 'confirmed'
		  AND (a.appointment_date > $2::date
		       OR (a.appointment_date = $2::date AND a.appointment_time >= $3))
		ORDER BY a.appointment_date, a.appointment_time
		LIMIT 1
	`

	a, err := scanAppointment(r.db.QueryRow(ctx, query, userID, from, from.Format("15:04")))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find next appointment", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("find next appointment: %w", err)
	}

	return a, nil
}

// ReservedTimes lists slot times held by live appointments on date.
func (r *appointmentRepository) ReservedTimes(ctx context.Context, date time.Time) ([]string, error) {
	query := `
		SELECT appointment_time
		FROM appointments
		WHERE appointment_date = $1 AND status IN ('pending', 'confirmed')
	`

	rows, err := r.db.Query(ctx, query, date)
	if err != nil {
		r.log.Error("Failed to load reserved slots", zap.Error(err))
		return nil, fmt.Errorf("reserved slots: %w", err)
	}
	defer rows.Close()

	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan reserved slot: %w", err)
		}
		times = append(times, t)
	}

	return times, rows.Err()
}

// Stats counts appointments by status; revenue sums paid bookings.
// A nil userID aggregates over everyone.
func (r *appointmentRepository) Stats(ctx context.Context, userID *uuid.UUID) (*entity.AppointmentStats, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'pending'),
		       COUNT(*) FILTER (WHERE status = 'confirmed'),
		       COUNT(*) FILTER (WHERE status = 'completed'),
		       COUNT(*) FILTER (WHERE status = 'cancelled'),
		       COALESCE(SUM(amount) FILTER (WHERE status IN ('confirmed', 'completed')), 0)
		FROM appointments
		WHERE ($1::uuid IS NULL OR user_id = $1)
	`

	var s entity.AppointmentStats
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&s.Total,
		&s.Pending,
		&s.Confirmed,
		&s.Completed,
		&s.Cancelled,
		&s.Revenue,
	)
	if err != nil {
		r.log.Error("Failed to compute appointment stats", zap.Error(err))
		return nil, fmt.Errorf("appointment stats: %w", err)
	}

	return &s, nil
}

// TransitionStatus moves id to status `to` only when it currently is in one
// of `from`. Returns ErrStatusChanged when no row matched.
func (r *appointmentRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from []entity.AppointmentStatus, to entity.AppointmentStatus, reason *string) error {
	query := `
		UPDATE appointments
		SET status = $2,
		    cancel_reason = COALESCE($3, cancel_reason),
		    confirmed_at = CASE WHEN $2 = 'confirmed' THEN NOW() ELSE confirmed_at END,
		    cancelled_at = CASE WHEN $2 = 'cancelled' THEN NOW() ELSE cancelled_at END,
		    completed_at = CASE WHEN $2 = 'completed' THEN NOW() ELSE completed_at END,
		    updated_at = NOW()
		WHERE id = $1 AND status = ANY($4)
	`

	fromStrings := make([]string, len(from))
	for i, s := range from {
		fromStrings[i] = string(s)
	}

	result, err := r.db.Exec(ctx, query, id, to, reason, fromStrings)
	if err != nil {
		r.log.Error("Failed to update appointment status",
			zap.Error(err),
			zap.String("id", id.String()),
			zap.String("to", string(to)),
		)
		return fmt.Errorf("update appointment %s status: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return ErrStatusChanged
	}

	return nil
}

func (r *appointmentRepository) SetRoom(ctx context.Context, id uuid.UUID, roomName, roomURL string) error {
	query := `UPDATE appointments SET room_name = $2, room_url = $3, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, roomName, roomURL)
	if err != nil {
		r.log.Error("Failed to set video room", zap.Error(err), zap.String("id", id.String()))
		return fmt.Errorf("set room for %s: %w", id.String(), err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("appointment %s not found", id.String())
	}

	return nil
}

// MarkCall stamps the first start and the last end of the consultation call.
func (r *appointmentRepository) MarkCall(ctx context.Context, id uuid.UUID, event entity.CallEventType, at time.Time) error {
	query := `UPDATE appointments SET call_started_at = COALESCE(call_started_at, $2), updated_at = NOW() WHERE id = $1`
	if event == entity.CallEnded {
		query = `UPDATE appointments SET call_ended_at = $2, updated_at = NOW() WHERE id = $1`
	}

	if _, err := r.db.Exec(ctx, query, id, at); err != nil {
		r.log.Error("Failed to mark call", zap.Error(err), zap.String("id", id.String()))
		return fmt.Errorf("mark call %s for %s: %w", event, id.String(), err)
	}

	return nil
}

// CancelStalePending cancels pending appointments created before the cutoff
// and expires their leftover payment orders. The freed slots become bookable.
// An appointment whose order is still payable is left alone until that order
// lapses, so a checkout that is open right now can still confirm it.
func (r *appointmentRepository) CancelStalePending(ctx context.Context, createdBefore time.Time, reason string) ([]uuid.UUID, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin expire tx: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		UPDATE appointments
		SET status = 'cancelled', cancel_reason = $2, cancelled_at = NOW(), updated_at = NOW()
		WHERE status = 'pending' AND created_at < $1
		AND NOT EXISTS (
			SELECT 1 FROM payment_orders po
			WHERE po.appointment_id = appointments.id
			AND po.status = 'created' AND po.expires_at > NOW()
		)
		RETURNING id
	`, createdBefore, reason)
	if err != nil {
		r.log.Error("Failed to cancel stale appointments", zap.Error(err))
		return nil, fmt.Errorf("cancel stale appointments: %w", err)
	}

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan cancelled id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cancelled ids: %w", err)
	}

	if len(ids) > 0 {
		if _, err := tx.Exec(ctx, `
			UPDATE payment_orders SET status = 'expired', updated_at = NOW()
			WHERE appointment_id = ANY($1) AND status = 'created'
		`, ids); err != nil {
			return nil, fmt.Errorf("expire orders of cancelled appointments: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit expire tx: %w", err)
	}

	return ids, nil
}
