package request

type PlaceOfBirth struct {
	City    string `json:"city" validate:"omitempty,max=100"`
	State   string `json:"state" validate:"omitempty,max=100"`
	Country string `json:"country" validate:"omitempty,max=100"`
}

type RegisterRequest struct {
	FirstName    string        `json:"firstName" validate:"required,notblank,max=50"`
	LastName     string        `json:"lastName" validate:"required,notblank,max=50"`
	Email        string        `json:"email" validate:"required,email"`
	Password     string        `json:"password" validate:"required,min=6"`
	Phone        *string       `json:"phone,omitempty" validate:"omitempty,min=10,max=15"`
	DateOfBirth  *string       `json:"dateOfBirth,omitempty" validate:"omitempty,datetime=2006-01-02"`
	TimeOfBirth  *string       `json:"timeOfBirth,omitempty" validate:"omitempty,datetime=15:04"`
	PlaceOfBirth *PlaceOfBirth `json:"placeOfBirth,omitempty"`
	Gender       *string       `json:"gender,omitempty" validate:"omitempty,oneof=male female other"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type SendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	Type  string `json:"type" validate:"required,oneof=email_verification password_reset"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required,len=6,numeric"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

// UpdateProfileRequest only changes the fields that are present.
type UpdateProfileRequest struct {
	FirstName    *string       `json:"firstName,omitempty" validate:"omitempty,notblank,max=50"`
	LastName     *string       `json:"lastName,omitempty" validate:"omitempty,notblank,max=50"`
	Phone        *string       `json:"phone,omitempty" validate:"omitempty,min=10,max=15"`
	DateOfBirth  *string       `json:"dateOfBirth,omitempty" validate:"omitempty,datetime=2006-01-02"`
	TimeOfBirth  *string       `json:"timeOfBirth,omitempty" validate:"omitempty,datetime=15:04"`
	PlaceOfBirth *PlaceOfBirth `json:"placeOfBirth,omitempty"`
	Gender       *string       `json:"gender,omitempty" validate:"omitempty,oneof=male female other"`
}
