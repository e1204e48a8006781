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
	"github.com/Rishabh-k-Paliwal/astrologix/internal/task"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ClientMeta describes where a login came from.
type ClientMeta struct {
	UserAgent string
	IPAddress string
}

type AuthService interface {
	Register(ctx context.Context, req *request.RegisterRequest, client ClientMeta) (*response.AuthResponse, error)
	Login(ctx context.Context, req *request.LoginRequest, client ClientMeta) (*response.AuthResponse, error)
	Me(ctx context.Context, userID uuid.UUID) (*response.UserResponse, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*Principal, error)

	SendOTP(ctx context.Context, req *request.SendOTPRequest) error
	VerifyEmail(ctx context.Context, req *request.VerifyEmailRequest) error
	ForgotPassword(ctx context.Context, req *request.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req *request.ResetPasswordRequest) error
}

type authService struct {
	repo   *repository.Repository
	config *utils.Config
	tasks  task.Enqueuer
	log    *zap.Logger
	now    func() time.Time
}

func NewAuthService(repo *repository.Repository, config *utils.Config, tasks task.Enqueuer, log *zap.Logger) AuthService {
	return &authService{
		repo:   repo,
		config: config,
		tasks:  tasks,
		log:    log.With(zap.String("service", "auth")),
		now:    time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Register(ctx context.Context, req *request.RegisterRequest, client ClientMeta) (*response.AuthResponse, error) {
	if err := validate(req); err != nil {
		s.log.Warn("Register validation failed", zap.Error(err))
		return nil, err
	}

	email := normalizeEmail(req.Email)
	existing, err := s.repo.User.FindByEmail(ctx, email)
	if err != nil {
		return nil, internalError(err)
	}
	if existing != nil {
		return nil, utils.NewError(utils.CodeConflict, "Email already registered")
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		s.log.Error("Failed to hash password", zap.Error(err))
		return nil, internalError(err)
	}

	user := &entity.User{
		Base:         entity.NewBase(s.now()),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        email,
		PasswordHash: hashed,
		Phone:        req.Phone,
		Role:         entity.RoleClient,
		TimeOfBirth:  req.TimeOfBirth,
		Gender:       req.Gender,
		IsActive:     true,
	}
	if err := applyBirthDetails(user, req.DateOfBirth, req.PlaceOfBirth); err != nil {
		return nil, err
	}

	if err := s.repo.User.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, utils.NewError(utils.CodeConflict, "Email already registered")
		}
		return nil, internalError(err)
	}

	if err := s.issueOTP(ctx, user, entity.OTPTypeEmailVerification); err != nil {
		// registration stands, the user can ask for a new code
		s.log.Warn("Failed to send verification code", zap.Error(err), zap.String("user_id", user.ID.String()))
	}

	session, err := s.createSession(ctx, user.ID, client)
	if err != nil {
		s.log.Warn("Failed to create session after register", zap.Error(err), zap.String("user_id", user.ID.String()))
	}

	s.log.Info("User registered", zap.String("user_id", user.ID.String()))

	resp := response.AuthToResponse(user, session, isAdmin(s.config, user.Role, user.Email))
	return &resp, nil
}

func (s *authService) Login(ctx context.Context, req *request.LoginRequest, client ClientMeta) (*response.AuthResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	user, err := s.repo.User.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, internalError(err)
	}
	if user == nil || !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		s.log.Warn("Invalid credentials", zap.String("email", req.Email))
		return nil, utils.NewError(utils.CodeUnauthorized, "Invalid email or password")
	}
	if !user.IsActive {
		return nil, utils.NewError(utils.CodeForbidden, "Account is deactivated")
	}

	session, err := s.createSession(ctx, user.ID, client)
	if err != nil {
		s.log.Error("Failed to create session", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, internalError(err)
	}

	s.log.Info("User logged in", zap.String("user_id", user.ID.String()))

	resp := response.AuthToResponse(user, session, isAdmin(s.config, user.Role, user.Email))
	return &resp, nil
}

func (s *authService) Me(ctx context.Context, userID uuid.UUID) (*response.UserResponse, error) {
	user, err := s.repo.User.FindByID(ctx, userID)
	if err != nil {
		return nil, internalError(err)
	}
	if user == nil {
		return nil, utils.NewError(utils.CodeUnauthorized, "User not found")
	}

	resp := response.UserToResponse(user, isAdmin(s.config, user.Role, user.Email))
	return &resp, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	if _, err := uuid.Parse(token); err != nil {
		return utils.NewError(utils.CodeUnauthorized, "Invalid token")
	}

	if err := s.repo.Session.Revoke(ctx, token); err != nil {
		s.log.Warn("Failed to revoke session", zap.Error(err))
		return utils.WrapError(utils.CodeUnauthorized, "Session already ended", err)
	}
	return nil
}

// Authenticate resolves a bearer token to the calling user.
func (s *authService) Authenticate(ctx context.Context, token string) (*Principal, error) {
	if _, err := uuid.Parse(token); err != nil {
		return nil, utils.NewError(utils.CodeUnauthorized, "Invalid token format")
	}

	session, err := s.repo.Session.FindValidSession(ctx, token)
	if err != nil {
		return nil, internalError(err)
	}
	if session == nil {
		return nil, utils.NewError(utils.CodeUnauthorized, "Invalid or expired session")
	}

	return &Principal{
		UserID:  session.UserID,
		Role:    session.Role,
		IsAdmin: isAdmin(s.config, session.Role, session.Email),
	}, nil
}

func (s *authService) SendOTP(ctx context.Context, req *request.SendOTPRequest) error {
	if err := validate(req); err != nil {
		return err
	}

	otpType := entity.OTPType(req.Type)
	if otpType == entity.OTPTypePasswordReset {
		return s.ForgotPassword(ctx, &request.ForgotPasswordRequest{Email: req.Email})
	}

	user, err := s.repo.User.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return internalError(err)
	}
	if user == nil {
		return utils.NewError(utils.CodeNotFound, "User not found")
	}
	if user.EmailVerified {
		return utils.NewError(utils.CodeConflict, "Email already verified")
	}

	return s.issueOTP(ctx, user, otpType)
}

func (s *authService) VerifyEmail(ctx context.Context, req *request.VerifyEmailRequest) error {
	if err := validate(req); err != nil {
		return err
	}

	email := normalizeEmail(req.Email)
	if err := s.consumeOTP(ctx, email, req.OTP, entity.OTPTypeEmailVerification); err != nil {
		return err
	}

	user, err := s.repo.User.FindByEmail(ctx, email)
	if err != nil {
		return internalError(err)
	}
	if user == nil {
		return utils.NewError(utils.CodeNotFound, "User not found")
	}

	user.EmailVerified = true
	user.UpdatedAt = s.now()
	if err := s.repo.User.Update(ctx, user); err != nil {
		return internalError(err)
	}

	s.log.Info("Email verified", zap.String("user_id", user.ID.String()))
	return nil
}

// ForgotPassword always succeeds so the endpoint does not reveal which
// emails are registered.
func (s *authService) ForgotPassword(ctx context.Context, req *request.ForgotPasswordRequest) error {
	if err := validate(req); err != nil {
		return err
	}

	user, err := s.repo.User.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return internalError(err)
	}
	if user == nil || !user.IsActive {
		s.log.Info("Password reset requested for unknown email")
		return nil
	}

	return s.issueOTP(ctx, user, entity.OTPTypePasswordReset)
}

func (s *authService) ResetPassword(ctx context.Context, req *request.ResetPasswordRequest) error {
	if err := validate(req); err != nil {
		return err
	}

	email := normalizeEmail(req.Email)
	if err := s.consumeOTP(ctx, email, req.OTP, entity.OTPTypePasswordReset); err != nil {
		return err
	}

	user, err := s.repo.User.FindByEmail(ctx, email)
	if err != nil {
		return internalError(err)
	}
	if user == nil {
		return utils.NewError(utils.CodeNotFound, "User not found")
	}

	hashed, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return internalError(err)
	}
	user.PasswordHash = hashed
	user.UpdatedAt = s.now()
	if err := s.repo.User.Update(ctx, user); err != nil {
		return internalError(err)
	}

	if err := s.repo.Session.RevokeAllUserSessions(ctx, user.ID); err != nil {
		s.log.Warn("Failed to revoke sessions after reset", zap.Error(err), zap.String("user_id", user.ID.String()))
	}

	s.log.Info("Password reset", zap.String("user_id", user.ID.String()))
	return nil
}

// ==================== HELPER METHODS ====================

func (s *authService) createSession(ctx context.Context, userID uuid.UUID, client ClientMeta) (*entity.Session, error) {
	hours := s.config.Session.ExpiryHours
	if hours <= 0 {
		hours = 24
	}

	now := s.now()
	session := &entity.Session{
		BaseSimple: entity.NewBaseSimple(now),
		UserID:     userID,
		Token:      uuid.New(),
		ExpiresAt:  now.Add(time.Duration(hours) * time.Hour),
	}
	if client.UserAgent != "" {
		session.UserAgent = &client.UserAgent
	}
	if client.IPAddress != "" {
		session.IPAddress = &client.IPAddress
	}

	if err := s.repo.Session.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// issueOTP replaces any outstanding code of otpType and queues the email.
func (s *authService) issueOTP(ctx context.Context, user *entity.User, otpType entity.OTPType) error {
	if err := s.repo.OTP.InvalidateAll(ctx, user.Email, otpType); err != nil {
		return internalError(err)
	}

	now := s.now()
	otp := &entity.OTP{
		BaseSimple: entity.NewBaseSimple(now),
		UserID:     user.ID,
		Email:      user.Email,
		OTPCode:    utils.GenerateOTP(s.config.OTP.Length),
		OTPType:    otpType,
		ExpiresAt:  now.Add(time.Duration(s.config.OTP.ExpiryMinutes) * time.Minute),
	}
	if err := s.repo.OTP.Create(ctx, otp); err != nil {
		return internalError(err)
	}

	if err := s.tasks.EnqueueOTP(ctx, task.OTPPayload{
		Email: user.Email,
		Name:  user.FirstName,
		Code:  otp.OTPCode,
		Type:  otpType,
	}); err != nil {
		return utils.WrapError(utils.CodeUpstream, "Could not send the code, try again", err)
	}

	s.log.Info("OTP issued",
		zap.String("user_id", user.ID.String()),
		zap.String("otp_type", string(otpType)),
		zap.Time("expires_at", otp.ExpiresAt),
	)
	return nil
}

func (s *authService) consumeOTP(ctx context.Context, email, code string, otpType entity.OTPType) error {
	otp, err := s.repo.OTP.FindValidOTP(ctx, email, code, otpType)
	if err != nil {
		return internalError(err)
	}
	if otp == nil {
		return utils.NewError(utils.CodeInvalidRequest, "Invalid or expired code")
	}
	if err := s.repo.OTP.MarkAsUsed(ctx, otp.ID); err != nil {
		// lost a race with another request using the same code
		return utils.NewError(utils.CodeInvalidRequest, "Invalid or expired code")
	}
	return nil
}

func applyBirthDetails(user *entity.User, dateOfBirth *string, place *request.PlaceOfBirth) error {
	if dateOfBirth != nil && *dateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", *dateOfBirth)
		if err != nil {
			return utils.ValidationError("Validation failed", map[string]string{"dateOfBirth": "Must match format 2006-01-02"})
		}
		user.DateOfBirth = &dob
	}
	if place != nil {
		user.BirthCity = nonEmpty(place.City)
		user.BirthState = nonEmpty(place.State)
		user.BirthCountry = nonEmpty(place.Country)
	}
	return nil
}

func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return ptr(s)
}
