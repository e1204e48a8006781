package entity

import (
	"github.com/google/uuid"
)

type Review struct {
	BaseSimple
	AppointmentID uuid.UUID `db:"appointment_id"`
	UserID        uuid.UUID `db:"user_id"`
	Rating        int       `db:"rating"` // 1-5
	Comment       *string   `db:"comment"`
}
