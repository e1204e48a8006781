package repository

import (
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/database"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Repository struct {
	User        UserRepository
	Session     SessionRepository
	OTP         OTPRepository
	Appointment AppointmentRepository
	Payment     PaymentRepository
	Review      ReviewRepository
	CallEvent   CallEventRepository
	Idempotency IdempotencyRepository
}

func NewRepository(db database.PgxIface, rdb *redis.Client, log *zap.Logger) *Repository {
	return &Repository{
		User:        NewUserRepository(db, log),
		Session:     NewSessionRepository(db, log),
		OTP:         NewOTPRepository(db, log),
		Appointment: NewAppointmentRepository(db, log),
		Payment:     NewPaymentRepository(db, log),
		Review:      NewReviewRepository(db, log),
		CallEvent:   NewCallEventRepository(db, log),
		Idempotency: NewIdempotencyRepository(rdb, log),
	}
}
