package entity

import "github.com/google/uuid"

type CallEventType string

const (
	CallStarted CallEventType = "started"
	CallEnded   CallEventType = "ended"
)

type CallEvent struct {
	BaseSimple
	AppointmentID uuid.UUID     `db:"appointment_id"`
	UserID        uuid.UUID     `db:"user_id"`
	Event         CallEventType `db:"event"`
}
