package task

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Rishabh-k-Paliwal/astrologix/internal/data/repository"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/metrics"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/notify"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/schedule"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const expireReason = "Payment not completed in time"

// Handlers process queued tasks.
type Handlers struct {
	repo    *repository.Repository
	sender  notify.EmailSender
	config  *utils.Config
	metrics *metrics.Metrics
	log     *zap.Logger
	now     func() time.Time
}

func NewHandlers(repo *repository.Repository, sender notify.EmailSender, config *utils.Config, m *metrics.Metrics, log *zap.Logger) *Handlers {
	return &Handlers{
		repo:    repo,
		sender:  sender,
		config:  config,
		metrics: m,
		log:     log.With(zap.String("component", "worker")),
		now:     time.Now,
	}
}

// Register mounts every handler on mux.
func (h *Handlers) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeEmailOTP, h.HandleOTP)
	mux.HandleFunc(TypeAppointmentConfirmed, h.HandleConfirmed)
	mux.HandleFunc(TypeExpirePending, h.HandleExpirePending)
	mux.HandleFunc(TypeCleanSessions, h.HandleCleanSessions)
}

func (h *Handlers) HandleOTP(ctx context.Context, t *asynq.Task) error {
	var p OTPPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode otp payload: %v: %w", err, asynq.SkipRetry)
	}

	msg := notify.OTPEmail(p.Email, p.Name, p.Type.Subject(), p.Code, h.config.OTP.ExpiryMinutes)
	if err := h.sender.Send(ctx, msg); err != nil {
		h.log.Warn("OTP email failed", zap.Error(err), zap.String("email", p.Email))
		return err
	}
	return nil
}

func (h *Handlers) HandleConfirmed(ctx context.Context, t *asynq.Task) error {
	var p ConfirmedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode confirmation payload: %v: %w", err, asynq.SkipRetry)
	}

	appointment, err := h.repo.Appointment.FindByID(ctx, p.AppointmentID)
	if err != nil {
		return err
	}
	if appointment == nil {
		h.log.Warn("Confirmed appointment vanished", zap.String("appointment_id", p.AppointmentID.String()))
		return nil
	}

	user, err := h.repo.User.FindByID(ctx, appointment.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	paymentID := ""
	payment, err := h.repo.Payment.FindPaymentByAppointment(ctx, appointment.ID)
	if err != nil {
		return err
	}
	if payment != nil {
		paymentID = payment.PaymentID
	}

	label := appointment.AppointmentTime
	if slot, ok := schedule.FindSlot(appointment.AppointmentTime); ok {
		label = slot.Label
	}

	msg := notify.ConfirmationEmail(notify.Confirmation{
		To:          user.Email,
		Name:        user.FullName(),
		PackageName: appointment.PackageName,
		Date:        appointment.AppointmentDate.Format(schedule.DateLayout),
		TimeLabel:   label,
		Amount:      appointment.Amount,
		PaymentID:   paymentID,
	})
	return h.sender.Send(ctx, msg)
}

// HandleExpirePending cancels appointments left unpaid past the pending TTL.
func (h *Handlers) HandleExpirePending(ctx context.Context, _ *asynq.Task) error {
	cutoff := h.now().Add(-h.config.Booking.PendingTTL)

	ids, err := h.repo.Appointment.CancelStalePending(ctx, cutoff, expireReason)
	if err != nil {
		h.log.Error("Failed to expire pending appointments", zap.Error(err))
		return err
	}

	h.metrics.PendingExpired(len(ids))
	if len(ids) > 0 {
		h.log.Info("Expired pending appointments", zap.Int("count", len(ids)))
	}
	return nil
}

// HandleCleanSessions deletes sessions that expired more than a week ago.
func (h *Handlers) HandleCleanSessions(ctx context.Context, _ *asynq.Task) error {
	n, err := h.repo.Session.CleanExpiredSessions(ctx)
	if err != nil {
		h.log.Error("Failed to clean expired sessions", zap.Error(err))
		return err
	}

	if n > 0 {
		h.log.Info("Cleaned expired sessions", zap.Int64("count", n))
	}
	return nil
}
