package adaptor

import (
	"net/http"

	"github.com/Rishabh-k-Paliwal/astrologix/internal/dto/request"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/usecase"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/utils"

	"go.uber.org/zap"
)

type PaymentHandler struct {
	service usecase.PaymentService
	log     *zap.Logger
}

func NewPaymentHandler(service usecase.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log.With(zap.String("handler", "payment")),
	}
}

// CreateOrder handles POST /api/payment/create-order
func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	caller, ok := principal(w, r)
	if !ok {
		return
	}

	var req request.CreateOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.service.CreateOrder(r.Context(), caller.UserID, &req)
	if err != nil {
		handleServiceError(h.log, w, err, "create payment order")
		return
	}

	utils.ResponseSuccess(w, "Order created", order)
}

// Verify handles POST /api/payment/verify
func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	caller, ok := principal(w, r)
	if !ok {
		return
	}

	var req request.VerifyPaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.Verify(r.Context(), caller.UserID, &req)
	if err != nil {
		handleServiceError(h.log, w, err, "verify payment")
		return
	}

	message := "Payment verified, appointment confirmed"
	if result.AlreadyConfirmed {
		message = "Payment already verified"
	}
	utils.ResponseSuccess(w, message, result)
}
