package entity

import (
	"time"
)

// User is the aggregate root for the account domain.
// Passwords are stored as bcrypt hashes in Password field.
type User struct {
	ID        string
	Username  string
	Password  string
	Email     string // optional; empty when the user registered without one
	CreatedAt time.Time
	UpdatedAt time.Time
}
