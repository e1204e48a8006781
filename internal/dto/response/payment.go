package response

type OrderResponse struct {
	OrderID       string `json:"orderId"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	KeyID         string `json:"keyId"`
	AppointmentID string `json:"appointmentId"`
}

type VerifyPaymentResponse struct {
	AppointmentID    string `json:"appointmentId"`
	OrderID          string `json:"orderId"`
	PaymentID        string `json:"paymentId"`
	Status           string `json:"status"`
	AlreadyConfirmed bool   `json:"alreadyConfirmed"`
}
