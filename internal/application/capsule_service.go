package application

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/capsulevault/timecapsule/internal/domain/entity"
	repo "github.com/capsulevault/timecapsule/internal/domain/repository"
	"github.com/capsulevault/timecapsule/internal/notify"
)

// CapsuleView is what callers see. Author is the resolved username, not the
// stored foreign key. Text is empty for locked capsules in list responses.
type CapsuleView struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	DateOpen  time.Time `json:"date_open"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	Opened    bool      `json:"opened"`
}

// CapsuleService enforces the capsule lifecycle: creation ties text, unlock
// date, and author together; reads gate on the unlock date against the
// current clock; writes are owner-scoped but never re-check the lock.
type CapsuleService struct {
	Capsules   repo.CapsuleRepository
	Users      repo.UserRepository
	Dispatcher notify.Dispatcher
	Logger     *logrus.Logger

	// Now is injectable for tests; nil means time.Now.
	Now func() time.Time
}

func NewCapsuleService(capsules repo.CapsuleRepository, users repo.UserRepository, dispatcher notify.Dispatcher, logger *logrus.Logger) *CapsuleService {
	return &CapsuleService{Capsules: capsules, Users: users, Dispatcher: dispatcher, Logger: logger}
}

func (s *CapsuleService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// resolveUser maps the token subject back to a stored user. The token is
// stateless, so the subject may no longer exist; that is ErrUserNotFound.
func (s *CapsuleService) resolveUser(ctx context.Context, username string) (*entity.User, error) {
	u, err := s.Users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// Create persists a capsule and, when the unlock date is in the future,
// schedules its one-shot open notification. Scheduling is best-effort: a
// dispatcher failure is logged and never fails the create. A capsule that is
// already open at creation gets no retroactive notification.
func (s *CapsuleService) Create(ctx context.Context, username, text string, dateOpen time.Time) (*CapsuleView, error) {
	u, err := s.resolveUser(ctx, username)
	if err != nil {
		return nil, err
	}

	c := &entity.Capsule{Text: text, DateOpen: dateOpen.UTC(), AuthorID: u.ID}
	if err := s.Capsules.Create(ctx, c); err != nil {
		return nil, err
	}

	now := s.now()
	if c.DateOpen.After(now) && s.Dispatcher != nil {
		job := notify.Job{CapsuleID: c.ID, Username: u.Username, Email: u.Email, DateOpen: c.DateOpen}
		if err := s.Dispatcher.ScheduleOnce(ctx, job, c.DateOpen); err != nil {
			s.Logger.WithError(err).WithField("capsule_id", c.ID).Warn("failed to schedule open notification")
		}
	}

	return s.view(c, u.Username, now), nil
}

// Get returns the capsule or ErrLocked when its unlock date has not passed.
// Absent ids and ids owned by someone else are both repo.ErrNotFound.
func (s *CapsuleService) Get(ctx context.Context, username string, id int64) (*CapsuleView, error) {
	u, err := s.resolveUser(ctx, username)
	if err != nil {
		return nil, err
	}
	c, err := s.Capsules.GetByID(ctx, id, u.ID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if !c.OpenedAt(now) {
		return nil, ErrLocked
	}
	return s.view(c, u.Username, now), nil
}

// List returns all of the caller's capsules. Locked ones appear with the
// text redacted so sealed content never crosses the wire.
func (s *CapsuleService) List(ctx context.Context, username string) ([]*CapsuleView, error) {
	u, err := s.resolveUser(ctx, username)
	if err != nil {
		return nil, err
	}
	caps, err := s.Capsules.List(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]*CapsuleView, 0, len(caps))
	for _, c := range caps {
		v := s.view(c, u.Username, now)
		if !v.Opened {
			v.Text = ""
		}
		out = append(out, v)
	}
	return out, nil
}

// Update edits text and unlock date. Owners may edit at any time, locked or
// not; editing never re-locks and never re-schedules — the periodic sweep
// covers a moved unlock date.
func (s *CapsuleService) Update(ctx context.Context, username string, id int64, text string, dateOpen time.Time) (*CapsuleView, error) {
	u, err := s.resolveUser(ctx, username)
	if err != nil {
		return nil, err
	}
	c, err := s.Capsules.Update(ctx, id, u.ID, text, dateOpen.UTC())
	if err != nil {
		return nil, err
	}
	return s.view(c, u.Username, s.now()), nil
}

// Delete removes the capsule. Any notification already scheduled for it is
// left in place; the worker re-checks existence before firing.
func (s *CapsuleService) Delete(ctx context.Context, username string, id int64) error {
	u, err := s.resolveUser(ctx, username)
	if err != nil {
		return err
	}
	return s.Capsules.Delete(ctx, id, u.ID)
}

// Analytics is a live count against the current clock, never cached.
func (s *CapsuleService) Analytics(ctx context.Context, username string) (repo.StatusCount, error) {
	u, err := s.resolveUser(ctx, username)
	if err != nil {
		return repo.StatusCount{}, err
	}
	return s.Capsules.CountByStatus(ctx, u.ID, s.now())
}

func (s *CapsuleService) view(c *entity.Capsule, username string, now time.Time) *CapsuleView {
	return &CapsuleView{
		ID:        c.ID,
		Text:      c.Text,
		DateOpen:  c.DateOpen,
		Author:    username,
		CreatedAt: c.CreatedAt,
		Opened:    c.OpenedAt(now),
	}
}
