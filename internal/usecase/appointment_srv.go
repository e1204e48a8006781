package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Rishabh-k-Paliwal/astrologix/internal/data/entity"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/data/repository"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/dto/request"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/dto/response"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/metrics"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/catalog"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/schedule"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AppointmentService interface {
	Create(ctx context.Context, userID uuid.UUID, idempotencyKey string, req *request.CreateAppointmentRequest) (*response.AppointmentEnvelope, error)
	Get(ctx context.Context, caller Principal, appointmentID string) (*response.AppointmentResponse, error)
	Cancel(ctx context.Context, caller Principal, appointmentID string, req *request.CancelAppointmentRequest) (*response.AppointmentResponse, error)
	Review(ctx context.Context, userID uuid.UUID, appointmentID string, req *request.CreateReviewRequest) (*response.ReviewResponse, error)
}

type appointmentService struct {
	repo     *repository.Repository
	config   *utils.Config
	catalog  *catalog.Catalog
	calendar *schedule.Calendar
	metrics  *metrics.Metrics
	log      *zap.Logger
}

func NewAppointmentService(repo *repository.Repository, config *utils.Config, ext External, log *zap.Logger) AppointmentService {
	c := ext.Catalog
	if c == nil {
		c = catalog.Default()
	}
	return &appointmentService{
		repo:     repo,
		config:   config,
		catalog:  c,
		calendar: ext.Calendar,
		metrics:  ext.Metrics,
		log:      log.With(zap.String("service", "appointment")),
	}
}

// Create books a pending appointment. A repeated idempotency key from the
// same user returns the appointment created by the first request.
func (s *appointmentService) Create(ctx context.Context, userID uuid.UUID, idempotencyKey string, req *request.CreateAppointmentRequest) (*response.AppointmentEnvelope, error) {
	// Validate request
	if err := validate(req); err != nil {
		s.metrics.AppointmentSubmitted("invalid")
		return nil, err
	}

	appointment, err := s.buildAppointment(userID, req)
	if err != nil {
		s.metrics.AppointmentSubmitted("invalid")
		return nil, err
	}

	// Claim the idempotency key
	key := ""
	if idempotencyKey = strings.TrimSpace(idempotencyKey); idempotencyKey != "" {
		key = "idem:appointment:" + userID.String() + ":" + idempotencyKey
		acquired, stored, err := s.repo.Idempotency.Reserve(ctx, key, s.inFlightTTL())
		if err != nil {
			return nil, internalError(err)
		}
		if !acquired {
			return s.replay(ctx, userID, stored)
		}
	}

	// Insert, the slot index rejects a concurrent booking
	if err := s.repo.Appointment.Create(ctx, appointment); err != nil {
		s.releaseKey(ctx, key)
		if errors.Is(err, repository.ErrSlotTaken) {
			s.metrics.AppointmentSubmitted("slot_taken")
			s.log.Info("Slot already taken",
				zap.String("date", req.AppointmentDate),
				zap.String("time", req.AppointmentTime),
			)
			return nil, utils.NewError(utils.CodeSlotTaken, "This time slot has just been booked, please pick another")
		}
		return nil, internalError(err)
	}

	if key != "" {
		if err := s.repo.Idempotency.Complete(ctx, key, appointment.ID.String(), s.idempotencyTTL()); err != nil {
			s.log.Warn("Failed to record idempotency result", zap.Error(err))
		}
	}

	s.metrics.AppointmentSubmitted("created")
	s.log.Info("Appointment created",
		zap.String("appointment_id", appointment.ID.String()),
		zap.String("user_id", userID.String()),
		zap.Int64("amount", appointment.Amount),
	)

	return &response.AppointmentEnvelope{Appointment: response.AppointmentToResponse(appointment)}, nil
}

func (s *appointmentService) Get(ctx context.Context, caller Principal, appointmentID string) (*response.AppointmentResponse, error) {
	appointment, err := s.findOwned(ctx, caller, appointmentID)
	if err != nil {
		return nil, err
	}

	resp := response.AppointmentToResponse(appointment)
	return &resp, nil
}

// Cancel frees the slot. Clients must cancel before the configured cutoff;
// admins may cancel at any time.
func (s *appointmentService) Cancel(ctx context.Context, caller Principal, appointmentID string, req *request.CancelAppointmentRequest) (*response.AppointmentResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	appointment, err := s.findOwned(ctx, caller, appointmentID)
	if err != nil {
		return nil, err
	}

	if !appointment.Status.Active() {
		return nil, utils.NewError(utils.CodeInvalidState, "Only pending or confirmed appointments can be cancelled")
	}

	if !caller.IsAdmin {
		start, err := s.calendar.StartOf(appointment.AppointmentDate, appointment.AppointmentTime)
		if err != nil {
			return nil, internalError(err)
		}
		if s.calendar.Current().Add(s.config.Booking.CancelCutoff).After(start) {
			return nil, utils.NewError(utils.CodeInvalidState, "Appointments can only be cancelled up to 2 hours before the start time")
		}
	}

	reason := req.Reason
	if reason == nil {
		reason = ptr("Cancelled by client")
	}

	err = s.repo.Appointment.TransitionStatus(ctx, appointment.ID,
		[]entity.AppointmentStatus{entity.AppointmentPending, entity.AppointmentConfirmed},
		entity.AppointmentCancelled, reason)
	if errors.Is(err, repository.ErrStatusChanged) {
		return nil, utils.NewError(utils.CodeConflict, "Appointment was updated by another request")
	}
	if err != nil {
		return nil, internalError(err)
	}

	s.log.Info("Appointment cancelled",
		zap.String("appointment_id", appointment.ID.String()),
		zap.Bool("by_admin", caller.IsAdmin),
	)

	now := time.Now()
	appointment.Status = entity.AppointmentCancelled
	appointment.CancelReason = reason
	appointment.CancelledAt = &now

	resp := response.AppointmentToResponse(appointment)
	return &resp, nil
}

func (s *appointmentService) Review(ctx context.Context, userID uuid.UUID, appointmentID string, req *request.CreateReviewRequest) (*response.ReviewResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	appointment, err := s.findOwned(ctx, Principal{UserID: userID}, appointmentID)
	if err != nil {
		return nil, err
	}
	if appointment.Status != entity.AppointmentCompleted {
		return nil, utils.NewError(utils.CodeInvalidState, "Only completed appointments can be reviewed")
	}

	review := &entity.Review{
		BaseSimple:    entity.NewBaseSimple(time.Now()),
		AppointmentID: appointment.ID,
		UserID:        userID,
		Rating:        req.Rating,
		Comment:       req.Comment,
	}
	if err := s.repo.Review.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrAlreadyReviewed) {
			return nil, utils.NewError(utils.CodeConflict, "Appointment already reviewed")
		}
		return nil, internalError(err)
	}

	resp := response.ReviewToResponse(review)
	return &resp, nil
}

// ==================== HELPER METHODS ====================

// buildAppointment applies the booking rules to req and prices it from the
// catalog.
func (s *appointmentService) buildAppointment(userID uuid.UUID, req *request.CreateAppointmentRequest) (*entity.Appointment, error) {
	day, err := s.calendar.ParseDate(req.AppointmentDate)
	if err != nil {
		return nil, fieldError("appointmentDate", "Must match format 2006-01-02")
	}
	if !s.calendar.InHorizon(day) {
		return nil, fieldError("appointmentDate", "Must be within the next 30 days")
	}
	if schedule.IsClosed(day) {
		return nil, fieldError("appointmentDate", "Consultations are not available on Sundays")
	}
	if _, ok := schedule.FindSlot(req.AppointmentTime); !ok {
		return nil, fieldError("appointmentTime", "Not a bookable time slot")
	}
	if s.calendar.Started(day, req.AppointmentTime) {
		return nil, fieldError("appointmentTime", "This time slot has already passed")
	}

	if _, ok := s.catalog.ConsultationType(req.ConsultationType); !ok {
		return nil, fieldError("consultationType", "Unknown consultation type")
	}
	pkg, ok := s.catalog.Package(req.Package.ID)
	if !ok {
		return nil, fieldError("package.id", "Unknown package")
	}
	// the snapshot must match what is on sale now
	if pkg.Name != req.Package.Name || pkg.Duration != req.Package.Duration || pkg.Price != req.Package.Price {
		return nil, fieldError("package", "Package details are out of date, please reload")
	}

	questions := make([]entity.ClientQuestion, len(req.ClientQuestions))
	for i, q := range req.ClientQuestions {
		questions[i] = entity.ClientQuestion{
			Question: strings.TrimSpace(q.Question),
			Answer:   strings.TrimSpace(q.Answer),
		}
	}

	return &entity.Appointment{
		BaseNoDelete:     entity.NewBaseNoDelete(time.Now()),
		UserID:           userID,
		AppointmentDate:  day,
		AppointmentTime:  req.AppointmentTime,
		ConsultationType: req.ConsultationType,
		PackageID:        pkg.ID,
		PackageName:      pkg.Name,
		PackageDuration:  pkg.Duration,
		PackagePrice:     pkg.Price,
		Amount:           pkg.Price,
		ClientQuestions:  questions,
		Status:           entity.AppointmentPending,
	}, nil
}

func (s *appointmentService) replay(ctx context.Context, userID uuid.UUID, stored string) (*response.AppointmentEnvelope, error) {
	if stored == repository.IdempotencyPending {
		return nil, utils.NewError(utils.CodeInProgress, "This booking is already being submitted")
	}

	id, err := uuid.Parse(stored)
	if err != nil {
		return nil, internalError(err)
	}
	appointment, err := s.repo.Appointment.FindByID(ctx, id)
	if err != nil {
		return nil, internalError(err)
	}
	if appointment == nil || appointment.UserID != userID {
		return nil, utils.NewError(utils.CodeConflict, "Idempotency key already used")
	}

	s.metrics.AppointmentSubmitted("replayed")
	return &response.AppointmentEnvelope{
		Appointment: response.AppointmentToResponse(appointment),
		Replayed:    true,
	}, nil
}

func (s *appointmentService) releaseKey(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.repo.Idempotency.Release(ctx, key); err != nil {
		s.log.Warn("Failed to release idempotency key", zap.Error(err))
	}
}

// inFlightTTL is short so a key orphaned by a crash frees up quickly;
// Complete then keeps the result for the full idempotency TTL.
func (s *appointmentService) inFlightTTL() time.Duration {
	if s.config.Booking.InFlightTTL > 0 {
		return s.config.Booking.InFlightTTL
	}
	return time.Minute
}

func (s *appointmentService) idempotencyTTL() time.Duration {
	if s.config.Booking.IdempotencyTTL > 0 {
		return s.config.Booking.IdempotencyTTL
	}
	return 24 * time.Hour
}

func (s *appointmentService) findOwned(ctx context.Context, caller Principal, appointmentID string) (*entity.Appointment, error) {
	return findAppointment(ctx, s.repo, caller, appointmentID)
}

// findAppointment loads the appointment and checks the caller may see it.
func findAppointment(ctx context.Context, repo *repository.Repository, caller Principal, appointmentID string) (*entity.Appointment, error) {
	id, err := parseID(appointmentID, "appointment")
	if err != nil {
		return nil, err
	}

	appointment, err := repo.Appointment.FindByID(ctx, id)
	if err != nil {
		return nil, internalError(err)
	}
	if appointment == nil {
		return nil, utils.NewError(utils.CodeNotFound, "Appointment not found")
	}
	if appointment.UserID != caller.UserID && !caller.IsAdmin {
		return nil, utils.NewError(utils.CodeForbidden, "Not authorized to access this appointment")
	}
	return appointment, nil
}

func fieldError(field, message string) error {
	return utils.ValidationError("Validation failed", map[string]string{field: message})
}
