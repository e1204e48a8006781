package adaptor

import (
	"net/http"

	"github.com/Rishabh-k-Paliwal/astrologix/internal/dto/request"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/usecase"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/utils"

	"go.uber.org/zap"
)

type AuthHandler struct {
	service usecase.AuthService
	log     *zap.Logger
}

func NewAuthHandler(service usecase.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		log:     log.With(zap.String("handler", "auth")),
	}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.Register(r.Context(), &req, clientMeta(r))
	if err != nil {
		handleServiceError(h.log, w, err, "register")
		return
	}

	utils.ResponseCreated(w, "Registration successful, check your email for the verification code", resp)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.Login(r.Context(), &req, clientMeta(r))
	if err != nil {
		handleServiceError(h.log, w, err, "login")
		return
	}

	utils.ResponseSuccess(w, "Login successful", resp)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller, ok := principal(w, r)
	if !ok {
		return
	}

	user, err := h.service.Me(r.Context(), caller.UserID)
	if err != nil {
		handleServiceError(h.log, w, err, "load current user")
		return
	}

	utils.ResponseSuccess(w, "", map[string]any{"user": user})
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := utils.GetTokenFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "No token provided")
		return
	}

	if err := h.service.Logout(r.Context(), token); err != nil {
		handleServiceError(h.log, w, err, "logout")
		return
	}

	utils.ResponseSuccess(w, "Logout successful", nil)
}

// SendOTP handles POST /api/auth/send-otp
func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req request.SendOTPRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.SendOTP(r.Context(), &req); err != nil {
		handleServiceError(h.log, w, err, "send OTP")
		return
	}

	utils.ResponseSuccess(w, "Verification code sent", nil)
}

// VerifyEmail handles POST /api/auth/verify-email
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req request.VerifyEmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.VerifyEmail(r.Context(), &req); err != nil {
		handleServiceError(h.log, w, err, "verify email")
		return
	}

	utils.ResponseSuccess(w, "Email verified successfully", nil)
}

// ForgotPassword handles POST /api/auth/forgot-password
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req request.ForgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.ForgotPassword(r.Context(), &req); err != nil {
		handleServiceError(h.log, w, err, "request password reset")
		return
	}

	utils.ResponseSuccess(w, "If the email is registered, a reset code has been sent", nil)
}

// ResetPassword handles POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req request.ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.ResetPassword(r.Context(), &req); err != nil {
		handleServiceError(h.log, w, err, "reset password")
		return
	}

	utils.ResponseSuccess(w, "Password updated, please log in again", nil)
}
