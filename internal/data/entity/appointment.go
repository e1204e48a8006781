package entity

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pending"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

// Active statuses hold the slot.
func (s AppointmentStatus) Active() bool {
	return s == AppointmentPending || s == AppointmentConfirmed
}

// ClientQuestion is stored as JSONB.
type ClientQuestion struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Appointment keeps a snapshot of the package taken at booking time so a
// later catalog change never alters what was charged.
type Appointment struct {
	BaseNoDelete
	UserID           uuid.UUID         `db:"user_id"`
	AppointmentDate  time.Time         `db:"appointment_date"`
	AppointmentTime  string            `db:"appointment_time"`
	ConsultationType string            `db:"consultation_type"`
	PackageID        string            `db:"package_id"`
	PackageName      string            `db:"package_name"`
	PackageDuration  int               `db:"package_duration"`
	PackagePrice     int64             `db:"package_price"`
	Amount           int64             `db:"amount"`
	ClientQuestions  []ClientQuestion  `db:"client_questions"`
	Status           AppointmentStatus `db:"status"`
	CancelReason     *string           `db:"cancel_reason"`
	RoomName         *string           `db:"room_name"`
	RoomURL          *string           `db:"room_url"`
	ConfirmedAt      *time.Time        `db:"confirmed_at"`
	CancelledAt      *time.Time        `db:"cancelled_at"`
	CompletedAt      *time.Time        `db:"completed_at"`
	CallStartedAt    *time.Time        `db:"call_started_at"`
	CallEndedAt      *time.Time        `db:"call_ended_at"`
}

// AppointmentWithClient is the admin projection joined with the owner.
type AppointmentWithClient struct {
	Appointment
	ClientName  string  `db:"client_name"`
	ClientEmail string  `db:"client_email"`
	ClientPhone *string `db:"client_phone"`
}

// AppointmentStats aggregates counts for dashboards.
type AppointmentStats struct {
	Total     int64
	Pending   int64
	Confirmed int64
	Completed int64
	Cancelled int64
	Revenue   int64
}
