package usecase

import (
	"context"
	"testing"

	"github.com/Rishabh-k-Paliwal/astrologix/internal/data/entity"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/dto/request"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerRequest() *request.RegisterRequest {
	dob := "1992-08-14"
	return &request.RegisterRequest{
		FirstName:    "Asha",
		LastName:     "Rao",
		Email:        "Asha@Example.com",
		Password:     "secret123",
		DateOfBirth:  &dob,
		PlaceOfBirth: &request.PlaceOfBirth{City: "Pune", Country: "India"},
	}
}

func TestRegister_CreatesUserSessionAndOTP(t *testing.T) {
	f := newFixture(t)

	got, err := f.svc.Auth.Register(context.Background(), registerRequest(), ClientMeta{UserAgent: "test"})
	require.NoError(t, err)

	assert.Equal(t, "asha@example.com", got.User.Email)
	assert.Equal(t, entity.RoleClient, got.User.Role)
	assert.False(t, got.User.IsAdmin)
	assert.NotEmpty(t, got.Token)
	require.NotNil(t, got.User.PlaceOfBirth)
	assert.Equal(t, "Pune", got.User.PlaceOfBirth.City)

	require.Len(t, f.tasks.otps, 1)
	assert.Equal(t, entity.OTPTypeEmailVerification, f.tasks.otps[0].Type)
	assert.Len(t, f.tasks.otps[0].Code, 6)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.addUser("asha@example.com", entity.RoleClient)

	_, err := f.svc.Auth.Register(context.Background(), registerRequest(), ClientMeta{})
	assert.True(t, utils.HasCode(err, utils.CodeConflict))
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)
	req := registerRequest()
	req.Email = "not-an-email"
	req.Password = "123"

	_, err := f.svc.Auth.Register(context.Background(), req, ClientMeta{})
	require.Error(t, err)
	appErr := utils.AsAppError(err)
	assert.Equal(t, utils.CodeValidation, appErr.Code)
	assert.Contains(t, appErr.Fields, "email")
	assert.Contains(t, appErr.Fields, "password")
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	f.addUser("asha@example.com", entity.RoleClient)

	got, err := f.svc.Auth.Login(context.Background(), &request.LoginRequest{Email: "asha@example.com", Password: "secret123"}, ClientMeta{})
	require.NoError(t, err)
	assert.NotEmpty(t, got.Token)

	_, err = f.svc.Auth.Login(context.Background(), &request.LoginRequest{Email: "asha@example.com", Password: "wrong"}, ClientMeta{})
	assert.True(t, utils.HasCode(err, utils.CodeUnauthorized))

	_, err = f.svc.Auth.Login(context.Background(), &request.LoginRequest{Email: "nobody@example.com", Password: "secret123"}, ClientMeta{})
	assert.True(t, utils.HasCode(err, utils.CodeUnauthorized))
}

func TestLogin_Deactivated(t *testing.T) {
	f := newFixture(t)
	u := f.addUser("asha@example.com", entity.RoleClient)
	u.IsActive = false

	_, err := f.svc.Auth.Login(context.Background(), &request.LoginRequest{Email: "asha@example.com", Password: "secret123"}, ClientMeta{})
	assert.True(t, utils.HasCode(err, utils.CodeForbidden))
}

func TestAuthenticate_AdminByEmailList(t *testing.T) {
	f := newFixture(t)
	f.addUser("guru@astrologix.in", entity.RoleClient)

	auth, err := f.svc.Auth.Login(context.Background(), &request.LoginRequest{Email: "guru@astrologix.in", Password: "secret123"}, ClientMeta{})
	require.NoError(t, err)
	assert.True(t, auth.User.IsAdmin)

	p, err := f.svc.Auth.Authenticate(context.Background(), auth.Token)
	require.NoError(t, err)
	assert.True(t, p.IsAdmin)
}

func TestAuthenticate_RejectsBadAndRevokedTokens(t *testing.T) {
	f := newFixture(t)
	f.addUser("asha@example.com", entity.RoleClient)

	_, err := f.svc.Auth.Authenticate(context.Background(), "garbage")
	assert.True(t, utils.HasCode(err, utils.CodeUnauthorized))

	auth, err := f.svc.Auth.Login(context.Background(), &request.LoginRequest{Email: "asha@example.com", Password: "secret123"}, ClientMeta{})
	require.NoError(t, err)

	p, err := f.svc.Auth.Authenticate(context.Background(), auth.Token)
	require.NoError(t, err)
	assert.False(t, p.IsAdmin)

	require.NoError(t, f.svc.Auth.Logout(context.Background(), auth.Token))
	_, err = f.svc.Auth.Authenticate(context.Background(), auth.Token)
	assert.True(t, utils.HasCode(err, utils.CodeUnauthorized))
}

func TestVerifyEmail(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Auth.Register(context.Background(), registerRequest(), ClientMeta{})
	require.NoError(t, err)
	code := f.otps.latest().OTPCode

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	err = f.svc.Auth.VerifyEmail(context.Background(), &request.VerifyEmailRequest{Email: "asha@example.com", OTP: wrong})
	assert.True(t, utils.HasCode(err, utils.CodeInvalidRequest))

	require.NoError(t, f.svc.Auth.VerifyEmail(context.Background(), &request.VerifyEmailRequest{Email: "asha@example.com", OTP: code}))
	user, _ := f.users.FindByEmail(context.Background(), "asha@example.com")
	assert.True(t, user.EmailVerified)

	// codes are single use
	err = f.svc.Auth.VerifyEmail(context.Background(), &request.VerifyEmailRequest{Email: "asha@example.com", OTP: code})
	assert.True(t, utils.HasCode(err, utils.CodeInvalidRequest))
}

func TestForgotPassword_DoesNotRevealUnknownEmail(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Auth.ForgotPassword(context.Background(), &request.ForgotPasswordRequest{Email: "nobody@example.com"})
	assert.NoError(t, err)
	assert.Empty(t, f.tasks.otps)
}

func TestResetPassword(t *testing.T) {
	f := newFixture(t)
	u := f.addUser("asha@example.com", entity.RoleClient)

	require.NoError(t, f.svc.Auth.ForgotPassword(context.Background(), &request.ForgotPasswordRequest{Email: "asha@example.com"}))
	require.Len(t, f.tasks.otps, 1)
	assert.Equal(t, entity.OTPTypePasswordReset, f.tasks.otps[0].Type)

	err := f.svc.Auth.ResetPassword(context.Background(), &request.ResetPasswordRequest{
		Email:       "asha@example.com",
		OTP:         f.tasks.otps[0].Code,
		NewPassword: "newsecret",
	})
	require.NoError(t, err)
	assert.Contains(t, f.sessions.revokedFor, u.ID)

	_, err = f.svc.Auth.Login(context.Background(), &request.LoginRequest{Email: "asha@example.com", Password: "newsecret"}, ClientMeta{})
	assert.NoError(t, err)
}

func TestSendOTP_AlreadyVerified(t *testing.T) {
	f := newFixture(t)
	u := f.addUser("asha@example.com", entity.RoleClient)
	u.EmailVerified = true

	err := f.svc.Auth.SendOTP(context.Background(), &request.SendOTPRequest{Email: "asha@example.com", Type: "email_verification"})
	assert.True(t, utils.HasCode(err, utils.CodeConflict))
}
