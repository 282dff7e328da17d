package qualification

import (
	"errors"
	"time"
)

// Qualification is a badge a user may hold. Tools require zero or more
// qualifications as a precondition for authorisation; the order number
// controls display ordering only and has no semantic effect.
type Qualification struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Colour      string    `json:"colour"`
	OrderNr     int       `json:"order_nr"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Sentinel errors for qualification operations.
var (
	ErrNotFound = errors.New("qualification: not found")
)
