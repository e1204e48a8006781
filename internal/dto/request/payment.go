package request

type CreateOrderRequest struct {
	AppointmentID string `json:"appointmentId" validate:"required,uuid"`
}

type VerifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpayOrderId" validate:"required"`
	RazorpayPaymentID string `json:"razorpayPaymentId" validate:"required"`
	RazorpaySignature string `json:"razorpaySignature" validate:"required"`
	AppointmentID     string `json:"appointmentId" validate:"required,uuid"`
}
