package user

import (
	"errors"
	"time"
)

// User represents a lab member who operates tools. Users identify themselves
// at a device with a card pair (card id + card secret) or, more weakly, with
// their phone number alone.
//
// CardID and CardSecret are either both set or both empty: a user with no
// card cannot authenticate by card. The database enforces the pairing.
type User struct {
	ID          int64     `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	WikiName    string    `json:"wiki_name"`
	PhoneNumber string    `json:"phone_number"`
	Locked      bool      `json:"locked"`
	LockReason  string    `json:"lock_reason"`
	CardID      string    `json:"card_id,omitempty"`
	CardSecret  string    `json:"-"` // never serialised
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasCard returns true if the user has a card pair assigned.
func (u *User) HasCard() bool {
	return u.CardID != "" && u.CardSecret != ""
}

// Sentinel errors for user operations.
var (
	ErrUserNotFound = errors.New("user: not found")
	ErrPhoneExists  = errors.New("user: phone number already registered")
	ErrCardIDExists = errors.New("user: card id already registered")
	ErrCardPairing  = errors.New("user: card id and card secret must both be set or both be empty")
)
