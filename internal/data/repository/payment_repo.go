package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rishabh-k-Paliwal/astrologix/internal/data/entity"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var (
	// ErrActiveOrderExists means the appointment already has an open order.
	ErrActiveOrderExists = errors.New("appointment already has an active order")
	// ErrOrderNotActive means the order was paid or expired before this confirmation.
	ErrOrderNotActive = errors.New("payment order is no longer active")
	// ErrNotPending means the appointment can no longer be paid for.
	ErrNotPending = errors.New("appointment is not awaiting payment")
)

const activeOrderIndex = "payment_orders_active_uniq"

// ConfirmResult tells the caller whether this call flipped the appointment.
type ConfirmResult struct {
	AlreadyConfirmed bool
	Payment          *entity.Payment
}

type PaymentRepository interface {
	CreateOrder(ctx context.Context, order *entity.PaymentOrder) error
	FindOrderByOrderID(ctx context.Context, orderID string) (*entity.PaymentOrder, error)
	FindActiveOrder(ctx context.Context, appointmentID uuid.UUID) (*entity.PaymentOrder, error)
	ExpireOrders(ctx context.Context, appointmentID uuid.UUID, now time.Time) (int64, error)
	FindPaymentByAppointment(ctx context.Context, appointmentID uuid.UUID) (*entity.Payment, error)
	Confirm(ctx context.Context, payment *entity.Payment) (*ConfirmResult, error)
}

type paymentRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPaymentRepository(db database.PgxIface, log *zap.Logger) PaymentRepository {
	return &paymentRepository{
		db:  db,
		log: log.With(zap.String("repository", "payment")),
	}
}

const orderColumns = `id, appointment_id, order_id, amount, currency, receipt, status, expires_at, created_at, updated_at`

func scanOrder(row pgx.Row) (*entity.PaymentOrder, error) {
	var o entity.PaymentOrder
	err := row.Scan(
		&o.ID,
		&o.AppointmentID,
		&o.OrderID,
		&o.Amount,
		&o.Currency,
		&o.Receipt,
		&o.Status,
		&o.ExpiresAt,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *paymentRepository) CreateOrder(ctx context.Context, o *entity.PaymentOrder) error {
	query := `
		INSERT INTO payment_orders (id, appointment_id, order_id, amount, currency, receipt,
		                            status, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(ctx, query,
		o.ID,
		o.AppointmentID,
		o.OrderID,
		o.Amount,
		o.Currency,
		o.Receipt,
		o.Status,
		o.ExpiresAt,
		o.CreatedAt,
		o.UpdatedAt,
	)

	if database.IsUniqueViolation(err, activeOrderIndex) {
		return ErrActiveOrderExists
	}
	if err != nil {
		r.log.Error("Failed to create payment order",
			zap.Error(err),
			zap.String("appointment_id", o.AppointmentID.String()),
		)
		return fmt.Errorf("create payment order: %w", err)
	}

	return nil
}

func (r *paymentRepository) FindOrderByOrderID(ctx context.Context, orderID string) (*entity.PaymentOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM payment_orders WHERE order_id = $1`

	o, err := scanOrder(r.db.QueryRow(ctx, query, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment order", zap.Error(err), zap.String("order_id", orderID))
		return nil, fmt.Errorf("find order %s: %w", orderID, err)
	}

	return o, nil
}

func (r *paymentRepository) FindActiveOrder(ctx context.Context, appointmentID uuid.UUID) (*entity.PaymentOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM payment_orders WHERE appointment_id = $1 AND status = 'created'`

	o, err := scanOrder(r.db.QueryRow(ctx, query, appointmentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find active order", zap.Error(err), zap.String("appointment_id", appointmentID.String()))
		return nil, fmt.Errorf("find active order for %s: %w", appointmentID.String(), err)
	}

	return o, nil
}

// ExpireOrders closes open orders of the appointment whose expiry passed.
func (r *paymentRepository) ExpireOrders(ctx context.Context, appointmentID uuid.UUID, now time.Time) (int64, error) {
	query := `
		UPDATE payment_orders SET status = 'expired', updated_at = $2
		WHERE appointment_id = $1 AND status = 'created' AND expires_at <= $2
	`

	result, err := r.db.Exec(ctx, query, appointmentID, now)
	if err != nil {
		r.log.Error("Failed to expire orders", zap.Error(err), zap.String("appointment_id", appointmentID.String()))
		return 0, fmt.Errorf("expire orders for %s: %w", appointmentID.String(), err)
	}

	return result.RowsAffected(), nil
}

func (r *paymentRepository) FindPaymentByAppointment(ctx context.Context, appointmentID uuid.UUID) (*entity.Payment, error) {
	query := `
		SELECT id, appointment_id, order_id, payment_id, amount, currency, method, signature, created_at
		FROM payments
		WHERE appointment_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var p entity.Payment
	err := r.db.QueryRow(ctx, query, appointmentID).Scan(
		&p.ID,
		&p.AppointmentID,
		&p.OrderID,
		&p.PaymentID,
		&p.Amount,
		&p.Currency,
		&p.Method,
		&p.Signature,
		&p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment", zap.Error(err), zap.String("appointment_id", appointmentID.String()))
		return nil, fmt.Errorf("find payment for %s: %w", appointmentID.String(), err)
	}

	return &p, nil
}

// Confirm records a verified payment and confirms its appointment in one
// transaction. The appointment row is locked first so two concurrent
// confirmations serialize; the loser sees AlreadyConfirmed.
func (r *paymentRepository) Confirm(ctx context.Context, payment *entity.Payment) (*ConfirmResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin confirm tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var status entity.AppointmentStatus
	err = tx.QueryRow(ctx, `SELECT status FROM appointments WHERE id = $1 FOR UPDATE`, payment.AppointmentID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("appointment %s not found", payment.AppointmentID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("lock appointment %s: %w", payment.AppointmentID.String(), err)
	}

	switch status {
	case entity.AppointmentConfirmed, entity.AppointmentCompleted:
		return &ConfirmResult{AlreadyConfirmed: true}, nil
	case entity.AppointmentPending:
	default:
		return nil, ErrNotPending
	}

	result, err := tx.Exec(ctx, `
		UPDATE payment_orders SET status = 'paid', updated_at = NOW()
		WHERE order_id = $1 AND appointment_id = $2 AND status = 'created'
	`, payment.OrderID, payment.AppointmentID)
	if err != nil {
		return nil, fmt.Errorf("mark order %s paid: %w", payment.OrderID, err)
	}
	if result.RowsAffected() == 0 {
		return nil, ErrOrderNotActive
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO payments (id, appointment_id, order_id, payment_id, amount, currency, method, signature, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		payment.ID,
		payment.AppointmentID,
		payment.OrderID,
		payment.PaymentID,
		payment.Amount,
		payment.Currency,
		payment.Method,
		payment.Signature,
		payment.CreatedAt,
	)
	if database.IsUniqueViolation(err, "") {
		return nil, ErrOrderNotActive
	}
	if err != nil {
		return nil, fmt.Errorf("insert payment %s: %w", payment.PaymentID, err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE appointments SET status = 'confirmed', confirmed_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`, payment.AppointmentID); err != nil {
		return nil, fmt.Errorf("confirm appointment %s: %w", payment.AppointmentID.String(), err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit confirm tx: %w", err)
	}

	r.log.Info("Payment confirmed",
		zap.String("appointment_id", payment.AppointmentID.String()),
		zap.String("order_id", payment.OrderID),
		zap.String("payment_id", payment.PaymentID),
	)

	return &ConfirmResult{Payment: payment}, nil
}
