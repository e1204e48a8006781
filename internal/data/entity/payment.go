package entity

import (
	"time"

	"github.com/google/uuid"
)

type PaymentOrderStatus string

const (
	OrderCreated PaymentOrderStatus = "created"
	OrderPaid    PaymentOrderStatus = "paid"
	OrderExpired PaymentOrderStatus = "expired"
)

// PaymentOrder is minted by the gateway for one appointment. Amount is in
// minor units (paise).
type PaymentOrder struct {
	BaseNoDelete
	AppointmentID uuid.UUID          `db:"appointment_id"`
	OrderID       string             `db:"order_id"`
	Amount        int64              `db:"amount"`
	Currency      string             `db:"currency"`
	Receipt       string             `db:"receipt"`
	Status        PaymentOrderStatus `db:"status"`
	ExpiresAt     time.Time          `db:"expires_at"`
}

func (o *PaymentOrder) Expired(now time.Time) bool {
	return o.Status == OrderExpired || !now.Before(o.ExpiresAt)
}

// Payment is a verified capture.
type Payment struct {
	BaseSimple
	AppointmentID uuid.UUID `db:"appointment_id"`
	OrderID       string    `db:"order_id"`
	PaymentID     string    `db:"payment_id"`
	Amount        int64     `db:"amount"`
	Currency      string    `db:"currency"`
	Method        *string   `db:"method"`
	Signature     string    `db:"signature"`
}
