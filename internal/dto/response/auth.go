package response

import (
	"time"

	"github.com/Rishabh-k-Paliwal/astrologix/internal/data/entity"
)

type PlaceOfBirth struct {
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
}

type UserResponse struct {
	ID            string          `json:"id"`
	FirstName     string          `json:"firstName"`
	LastName      string          `json:"lastName"`
	Email         string          `json:"email"`
	Phone         *string         `json:"phone,omitempty"`
	Role          entity.UserRole `json:"role"`
	IsAdmin       bool            `json:"isAdmin"`
	DateOfBirth   *string         `json:"dateOfBirth,omitempty"`
	TimeOfBirth   *string         `json:"timeOfBirth,omitempty"`
	PlaceOfBirth  *PlaceOfBirth   `json:"placeOfBirth,omitempty"`
	Gender        *string         `json:"gender,omitempty"`
	Avatar        *string         `json:"avatar,omitempty"`
	EmailVerified bool            `json:"isEmailVerified"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type AuthResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

type UserListResponse struct {
	Users      []UserResponse `json:"users"`
	Pagination PaginationMeta `json:"pagination"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// UserToResponse renders user. isAdmin is resolved by the caller since it
// also depends on the configured admin emails.
func UserToResponse(user *entity.User, isAdmin bool) UserResponse {
	resp := UserResponse{
		ID:            user.ID.String(),
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		Email:         user.Email,
		Phone:         user.Phone,
		Role:          user.Role,
		IsAdmin:       isAdmin,
		TimeOfBirth:   user.TimeOfBirth,
		Gender:        user.Gender,
		Avatar:        user.AvatarURL,
		EmailVerified: user.EmailVerified,
		CreatedAt:     user.CreatedAt,
	}

	if user.DateOfBirth != nil {
		dob := user.DateOfBirth.Format("2006-01-02")
		resp.DateOfBirth = &dob
	}
	if user.BirthCity != nil || user.BirthState != nil || user.BirthCountry != nil {
		resp.PlaceOfBirth = &PlaceOfBirth{
			City:    deref(user.BirthCity),
			State:   deref(user.BirthState),
			Country: deref(user.BirthCountry),
		}
	}

	return resp
}

func AuthToResponse(user *entity.User, session *entity.Session, isAdmin bool) AuthResponse {
	resp := AuthResponse{User: UserToResponse(user, isAdmin)}
	if session != nil {
		resp.Token = session.Token.String()
		resp.ExpiresAt = session.ExpiresAt
	}
	return resp
}
