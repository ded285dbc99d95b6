package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is one of the fixed staff groups. Role membership, together with
// record ownership, is the only input to the field policy engine.
type Role string

const (
	RoleDoctors  Role = "Doctors"
	RoleNurses   Role = "Nurses"
	RoleManagers Role = "Managers"
)

// User represents a staff account
type User struct {
	Base
	Username     string     `json:"username" db:"username"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Email        string     `json:"email" db:"email"`
	FirstName    string     `json:"first_name" db:"first_name"`
	LastName     string     `json:"last_name" db:"last_name"`
	IsSuperuser  bool       `json:"is_superuser" db:"is_superuser"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at" db:"last_login_at"`
	Roles        []Role     `json:"roles" db:"-"`
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

func (u *User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Actor is the acting identity carried into every policy and service
// call. There is no ambient request user; handlers build an Actor from
// the authenticated context and pass it down explicitly.
type Actor struct {
	UserID      uuid.UUID
	IsSuperuser bool
	Roles       []Role
}

func (a Actor) HasRole(role Role) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// ActorFor derives the policy input from a stored user account.
func ActorFor(u *User) Actor {
	return Actor{
		UserID:      u.ID,
		IsSuperuser: u.IsSuperuser,
		Roles:       u.Roles,
	}
}

// UpdateUserRequest represents a partial account update. Which fields
// are accepted depends on the actor's account policy.
type UpdateUserRequest struct {
	Username    *string `json:"username"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Email       *string `json:"email" binding:"omitempty,email"`
	Password    *string `json:"password" binding:"omitempty,min=8"`
	IsActive    *bool   `json:"is_active"`
	IsSuperuser *bool   `json:"is_superuser"`
	Roles       *[]Role `json:"roles"`
}

// LoginRequest represents login parameters
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is returned on successful login
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}
