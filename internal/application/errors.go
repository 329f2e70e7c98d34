package application

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")

	// ErrLocked means the capsule exists and is owned by the caller but its
	// unlock date is still in the future. This is the only case that is
	// ever distinguished from not-found.
	ErrLocked = errors.New("capsule is not open yet")
)
