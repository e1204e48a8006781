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
	"github.com/Rishabh-k-Paliwal/astrologix/internal/gateway"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/metrics"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/task"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PaymentService interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, req *request.CreateOrderRequest) (*response.OrderResponse, error)
	Verify(ctx context.Context, userID uuid.UUID, req *request.VerifyPaymentRequest) (*response.VerifyPaymentResponse, error)
}

type paymentService struct {
	repo    *repository.Repository
	config  *utils.Config
	gateway gateway.Gateway
	tasks   task.Enqueuer
	metrics *metrics.Metrics
	log     *zap.Logger
	now     func() time.Time
}

func NewPaymentService(repo *repository.Repository, config *utils.Config, ext External, log *zap.Logger) PaymentService {
	return &paymentService{
		repo:    repo,
		config:  config,
		gateway: ext.Gateway,
		tasks:   ext.Tasks,
		metrics: ext.Metrics,
		log:     log.With(zap.String("service", "payment")),
		now:     time.Now,
	}
}

// CreateOrder returns the appointment's active order, minting one through
// the gateway when there is none.
func (s *paymentService) CreateOrder(ctx context.Context, userID uuid.UUID, req *request.CreateOrderRequest) (*response.OrderResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	appointment, err := findAppointment(ctx, s.repo, Principal{UserID: userID}, req.AppointmentID)
	if err != nil {
		return nil, err
	}
	if appointment.Status != entity.AppointmentPending {
		return nil, utils.NewError(utils.CodeInvalidState, "Appointment is not awaiting payment")
	}

	now := s.now()

	// Reuse the open order
	order, err := s.repo.Payment.FindActiveOrder(ctx, appointment.ID)
	if err != nil {
		return nil, internalError(err)
	}
	if order != nil && !order.Expired(now) {
		return s.orderResponse(order), nil
	}

	if _, err := s.repo.Payment.ExpireOrders(ctx, appointment.ID, now); err != nil {
		return nil, internalError(err)
	}

	// Mint a new one
	currency := s.config.Payment.Currency
	if currency == "" {
		currency = "INR"
	}
	minted, err := s.gateway.CreateOrder(ctx, appointment.Amount*100, currency, utils.GenerateReceipt(appointment.ID, now))
	if err != nil {
		s.log.Error("Gateway order creation failed", zap.Error(err), zap.String("appointment_id", appointment.ID.String()))
		return nil, gatewayError(err)
	}

	order = &entity.PaymentOrder{
		BaseNoDelete:  entity.NewBaseNoDelete(now),
		AppointmentID: appointment.ID,
		OrderID:       minted.ID,
		Amount:        minted.Amount,
		Currency:      minted.Currency,
		Receipt:       minted.Receipt,
		Status:        entity.OrderCreated,
		ExpiresAt:     now.Add(s.orderTTL()),
	}
	if err := s.repo.Payment.CreateOrder(ctx, order); err != nil {
		if !errors.Is(err, repository.ErrActiveOrderExists) {
			return nil, internalError(err)
		}
		// a concurrent request won, hand out its order
		existing, err := s.repo.Payment.FindActiveOrder(ctx, appointment.ID)
		if err != nil || existing == nil {
			return nil, utils.NewError(utils.CodeConflict, "Payment order is being created, please retry")
		}
		order = existing
	}

	s.log.Info("Payment order created",
		zap.String("appointment_id", appointment.ID.String()),
		zap.String("order_id", order.OrderID),
		zap.Int64("amount", order.Amount),
	)

	return s.orderResponse(order), nil
}

// Verify checks the checkout proof and confirms the appointment. Replaying a
// proof that was already accepted succeeds with AlreadyConfirmed set.
func (s *paymentService) Verify(ctx context.Context, userID uuid.UUID, req *request.VerifyPaymentRequest) (*response.VerifyPaymentResponse, error) {
	if err := validate(req); err != nil {
		s.metrics.PaymentVerified("invalid")
		return nil, err
	}

	appointment, err := findAppointment(ctx, s.repo, Principal{UserID: userID}, req.AppointmentID)
	if err != nil {
		return nil, err
	}

	// Step 1: the order must belong to this appointment
	order, err := s.repo.Payment.FindOrderByOrderID(ctx, req.RazorpayOrderID)
	if err != nil {
		return nil, internalError(err)
	}
	if order == nil || order.AppointmentID != appointment.ID {
		return nil, s.verifyFailed("order_mismatch", "Payment order does not match this appointment")
	}

	// Step 2: signature
	if !s.gateway.VerifySignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		s.log.Warn("Invalid payment signature",
			zap.String("appointment_id", appointment.ID.String()),
			zap.String("order_id", req.RazorpayOrderID),
		)
		return nil, s.verifyFailed("bad_signature", "Payment verification failed")
	}

	// Step 3: replay of an accepted proof
	if order.Status == entity.OrderPaid {
		paid, err := s.repo.Payment.FindPaymentByAppointment(ctx, appointment.ID)
		if err != nil {
			return nil, internalError(err)
		}
		if paid != nil && paid.PaymentID == req.RazorpayPaymentID {
			s.metrics.PaymentVerified("replayed")
			return s.verifyResponse(appointment.ID, paid, true), nil
		}
		return nil, utils.NewError(utils.CodeOrderUsed, "This payment order has already been used")
	}

	// Step 4: ask the provider what was actually paid
	details, err := s.gateway.FetchPayment(ctx, req.RazorpayPaymentID)
	if err != nil {
		if errors.Is(err, gateway.ErrUnavailable) {
			return nil, gatewayError(err)
		}
		return nil, s.verifyFailed("unknown_payment", "Payment verification failed")
	}
	if !details.Paid() || details.OrderID != order.OrderID || details.Amount != order.Amount ||
		!strings.EqualFold(details.Currency, order.Currency) {
		s.log.Warn("Payment does not match order",
			zap.String("order_id", order.OrderID),
			zap.String("status", details.Status),
			zap.Int64("paid", details.Amount),
			zap.Int64("expected", order.Amount),
			zap.String("currency", details.Currency),
		)
		return nil, s.verifyFailed("amount_mismatch", "Payment amount does not match the order")
	}
	if order.Expired(s.now()) {
		return nil, s.verifyFailed("expired", "Payment order has expired")
	}

	// Step 5: flip the appointment atomically
	payment := &entity.Payment{
		BaseSimple:    entity.NewBaseSimple(s.now()),
		AppointmentID: appointment.ID,
		OrderID:       order.OrderID,
		PaymentID:     details.ID,
		Amount:        details.Amount,
		Currency:      details.Currency,
		Signature:     req.RazorpaySignature,
	}
	if details.Method != "" {
		payment.Method = ptr(details.Method)
	}

	result, err := s.repo.Payment.Confirm(ctx, payment)
	switch {
	case errors.Is(err, repository.ErrOrderNotActive):
		return nil, utils.NewError(utils.CodeOrderUsed, "This payment order is no longer active")
	case errors.Is(err, repository.ErrNotPending):
		return nil, utils.NewError(utils.CodeInvalidState, "Appointment is no longer awaiting payment")
	case err != nil:
		s.log.Error("Failed to confirm payment", zap.Error(err), zap.String("appointment_id", appointment.ID.String()))
		return nil, internalError(err)
	}

	if result.AlreadyConfirmed {
		s.metrics.PaymentVerified("replayed")
		return s.verifyResponse(appointment.ID, result.Payment, true), nil
	}

	// Step 6: confirmation email
	if err := s.tasks.EnqueueConfirmed(ctx, appointment.ID); err != nil {
		s.log.Warn("Failed to queue confirmation email", zap.Error(err), zap.String("appointment_id", appointment.ID.String()))
	}

	s.metrics.PaymentVerified("confirmed")
	s.log.Info("Payment verified",
		zap.String("appointment_id", appointment.ID.String()),
		zap.String("payment_id", payment.PaymentID),
	)

	return s.verifyResponse(appointment.ID, result.Payment, false), nil
}

// ==================== HELPER METHODS ====================

func (s *paymentService) orderResponse(order *entity.PaymentOrder) *response.OrderResponse {
	return &response.OrderResponse{
		OrderID:       order.OrderID,
		Amount:        order.Amount,
		Currency:      order.Currency,
		KeyID:         s.gateway.KeyID(),
		AppointmentID: order.AppointmentID.String(),
	}
}

func (s *paymentService) verifyResponse(appointmentID uuid.UUID, payment *entity.Payment, already bool) *response.VerifyPaymentResponse {
	resp := &response.VerifyPaymentResponse{
		AppointmentID:    appointmentID.String(),
		Status:           string(entity.AppointmentConfirmed),
		AlreadyConfirmed: already,
	}
	if payment != nil {
		resp.OrderID = payment.OrderID
		resp.PaymentID = payment.PaymentID
	}
	return resp
}

func (s *paymentService) verifyFailed(reason, message string) error {
	s.metrics.PaymentVerified(reason)
	return utils.NewError(utils.CodeVerificationFailed, message)
}

func (s *paymentService) orderTTL() time.Duration {
	if s.config.Payment.OrderTTL > 0 {
		return s.config.Payment.OrderTTL
	}
	return 15 * time.Minute
}

func gatewayError(err error) error {
	if errors.Is(err, gateway.ErrUnavailable) {
		return utils.WrapError(utils.CodeUpstream, "Payment provider is unavailable, please try again", err)
	}
	return utils.WrapError(utils.CodeUpstream, "Payment provider rejected the request", err)
}
