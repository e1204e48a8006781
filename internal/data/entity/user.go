package entity

import "time"

type UserRole string

const (
	RoleClient UserRole = "client"
	RoleAdmin  UserRole = "admin"
)

type User struct {
	Base
	FirstName     string     `db:"first_name"`
	LastName      string     `db:"last_name"`
	Email         string     `db:"email"`
	PasswordHash  string     `db:"password"`
	Phone         *string    `db:"phone"`
	Role          UserRole   `db:"role"`
	DateOfBirth   *time.Time `db:"date_of_birth"`
	TimeOfBirth   *string    `db:"time_of_birth"`
	BirthCity     *string    `db:"birth_city"`
	BirthState    *string    `db:"birth_state"`
	BirthCountry  *string    `db:"birth_country"`
	Gender        *string    `db:"gender"`
	AvatarURL     *string    `db:"avatar_url"`
	EmailVerified bool       `db:"email_verified"`
	IsActive      bool       `db:"is_active"`
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
