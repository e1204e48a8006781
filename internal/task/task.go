package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Rishabh-k-Paliwal/astrologix/internal/data/entity"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/utils"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	TypeEmailOTP             = "email:otp"
	TypeAppointmentConfirmed = "email:appointment-confirmed"
	TypeExpirePending        = "appointment:expire-pending"
	TypeCleanSessions        = "session:clean-expired"
)

type OTPPayload struct {
	Email string         `json:"email"`
	Name  string         `json:"name"`
	Code  string         `json:"code"`
	Type  entity.OTPType `json:"type"`
}

type ConfirmedPayload struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
}

func NewOTPTask(p OTPPayload) (*asynq.Task, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeEmailOTP, b, asynq.MaxRetry(3), asynq.Timeout(30*time.Second)), nil
}

func NewConfirmedTask(appointmentID uuid.UUID) (*asynq.Task, error) {
	b, err := json.Marshal(ConfirmedPayload{AppointmentID: appointmentID})
	if err != nil {
		return nil, err
	}
	// one confirmation email per appointment even if verify is replayed
	return asynq.NewTask(TypeAppointmentConfirmed, b,
		asynq.MaxRetry(5),
		asynq.TaskID("confirmed:"+appointmentID.String()),
	), nil
}

func NewExpirePendingTask() *asynq.Task {
	return asynq.NewTask(TypeExpirePending, nil, asynq.MaxRetry(0))
}

func NewCleanSessionsTask() *asynq.Task {
	return asynq.NewTask(TypeCleanSessions, nil, asynq.MaxRetry(0))
}

// Enqueuer is what services use to hand work to the worker.
type Enqueuer interface {
	EnqueueOTP(ctx context.Context, p OTPPayload) error
	EnqueueConfirmed(ctx context.Context, appointmentID uuid.UUID) error
}

type AsynqEnqueuer struct {
	client *asynq.Client
	log    *zap.Logger
}

func NewEnqueuer(client *asynq.Client, log *zap.Logger) *AsynqEnqueuer {
	return &AsynqEnqueuer{client: client, log: log.With(zap.String("component", "enqueuer"))}
}

func (e *AsynqEnqueuer) EnqueueOTP(ctx context.Context, p OTPPayload) error {
	t, err := NewOTPTask(p)
	if err != nil {
		return fmt.Errorf("build otp task: %w", err)
	}
	info, err := e.client.EnqueueContext(ctx, t)
	if err != nil {
		e.log.Error("Failed to enqueue otp email", zap.Error(err), zap.String("email", p.Email))
		return fmt.Errorf("enqueue otp email: %w", err)
	}
	e.log.Debug("Enqueued otp email", zap.String("task_id", info.ID))
	return nil
}

func (e *AsynqEnqueuer) EnqueueConfirmed(ctx context.Context, appointmentID uuid.UUID) error {
	t, err := NewConfirmedTask(appointmentID)
	if err != nil {
		return fmt.Errorf("build confirmation task: %w", err)
	}
	_, err = e.client.EnqueueContext(ctx, t)
	if err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
		e.log.Error("Failed to enqueue confirmation email", zap.Error(err), zap.String("appointment_id", appointmentID.String()))
		return fmt.Errorf("enqueue confirmation email: %w", err)
	}
	return nil
}

// RedisOpt converts the app redis config for asynq.
func RedisOpt(cfg utils.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}
