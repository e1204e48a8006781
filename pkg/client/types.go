package client

import (
	"time"

	"github.com/Rishabh-k-Paliwal/astrologix/pkg/catalog"
)

type User struct {
	ID            string  `json:"id"`
	FirstName     string  `json:"firstName"`
	LastName      string  `json:"lastName"`
	Email         string  `json:"email"`
	Phone         *string `json:"phone,omitempty"`
	Role          string  `json:"role"`
	IsAdmin       bool    `json:"isAdmin"`
	Avatar        *string `json:"avatar,omitempty"`
	EmailVerified bool    `json:"isEmailVerified"`
}

// FullName is used to prefill checkout contact details.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

type AuthResult struct {
	User      User      `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type RegisterRequest struct {
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	Phone       *string `json:"phone,omitempty"`
	DateOfBirth *string `json:"dateOfBirth,omitempty"`
	TimeOfBirth *string `json:"timeOfBirth,omitempty"`
}

type Catalog struct {
	Packages          []catalog.Package          `json:"packages"`
	ConsultationTypes []catalog.ConsultationType `json:"consultationTypes"`
}

// PackageSnapshot is the package embedded by value in a booking.
type PackageSnapshot struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Duration int    `json:"duration"`
	Price    int64  `json:"price"`
}

type Question struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type AppointmentRequest struct {
	AppointmentDate  string          `json:"appointmentDate"`
	AppointmentTime  string          `json:"appointmentTime"`
	ConsultationType string          `json:"consultationType"`
	Package          PackageSnapshot `json:"package"`
	ClientQuestions  []Question      `json:"clientQuestions"`
}

type Appointment struct {
	ID               string          `json:"id"`
	AppointmentDate  string          `json:"appointmentDate"`
	AppointmentTime  string          `json:"appointmentTime"`
	TimeLabel        string          `json:"timeLabel,omitempty"`
	ConsultationType string          `json:"consultationType"`
	Package          PackageSnapshot `json:"package"`
	Amount           int64           `json:"amount"`
	ClientQuestions  []Question      `json:"clientQuestions"`
	Status           string          `json:"status"`
}

type Order struct {
	OrderID       string `json:"orderId"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	KeyID         string `json:"keyId"`
	AppointmentID string `json:"appointmentId"`
}

// PaymentProof is what the hosted checkout hands back on success.
type PaymentProof struct {
	OrderID   string
	PaymentID string
	Signature string
}

type VerifyRequest struct {
	RazorpayOrderID   string `json:"razorpayOrderId"`
	RazorpayPaymentID string `json:"razorpayPaymentId"`
	RazorpaySignature string `json:"razorpaySignature"`
	AppointmentID     string `json:"appointmentId"`
}

type Verification struct {
	AppointmentID    string `json:"appointmentId"`
	OrderID          string `json:"orderId"`
	PaymentID        string `json:"paymentId"`
	Status           string `json:"status"`
	AlreadyConfirmed bool   `json:"alreadyConfirmed"`
}

// Confirmed reports whether the server accepted the payment.
func (v *Verification) Confirmed() bool {
	return v != nil && v.Status == "confirmed"
}
