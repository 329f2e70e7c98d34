package repository

import (
	"context"
	"errors"
	"time"

	"github.com/capsulevault/timecapsule/internal/domain/entity"
)

// ErrNotFound is returned for ids that do not exist for the given owner.
// An id owned by somebody else is reported the same way so existence of
// other users' capsules never leaks.
var ErrNotFound = errors.New("not found")

// ErrDuplicateUsername is returned when a username is already taken.
var ErrDuplicateUsername = errors.New("username already exists")

// StatusCount is a live per-owner breakdown evaluated against the clock at
// query time. Total is always Pending+Opened.
type StatusCount struct {
	Total   int64
	Pending int64
	Opened  int64
}

// DueCapsule is a capsule past its unlock date joined with its owner,
// as needed by the notification sweep.
type DueCapsule struct {
	ID       int64
	Username string
	Email    string
	DateOpen time.Time
}

// CapsuleRepository defines owner-scoped persistence for capsules.
// Every read and write except ListDue/Exists takes the owner id and treats
// a mismatch as ErrNotFound.
type CapsuleRepository interface {
	Create(ctx context.Context, c *entity.Capsule) error
	GetByID(ctx context.Context, id int64, authorID string) (*entity.Capsule, error)
	List(ctx context.Context, authorID string) ([]*entity.Capsule, error)
	Update(ctx context.Context, id int64, authorID string, text string, dateOpen time.Time) (*entity.Capsule, error)
	Delete(ctx context.Context, id int64, authorID string) error
	CountByStatus(ctx context.Context, authorID string, now time.Time) (StatusCount, error)

	// ListDue returns every capsule whose unlock date has passed, for the
	// periodic sweep. Not owner-scoped.
	ListDue(ctx context.Context, now time.Time) ([]DueCapsule, error)
	// Exists reports whether a capsule still exists, used by the
	// notification worker to skip jobs for deleted capsules.
	Exists(ctx context.Context, id int64) (bool, error)
}
