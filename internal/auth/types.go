package auth

import (
	"errors"
	"time"
)

// Admin represents a backend administrator account.
type Admin struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	PasswordDigest string    `json:"-"` // never serialised
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Sentinel errors for auth operations.
var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrAdminNotFound      = errors.New("auth: admin not found")
	ErrAdminNameExists    = errors.New("auth: admin name already exists")
	ErrTokenInvalid       = errors.New("auth: invalid token")
	ErrForbidden          = errors.New("auth: insufficient permissions")
)
