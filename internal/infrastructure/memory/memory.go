// Package memory provides mutex-guarded in-memory repositories implementing
// the domain capability interfaces. Used in tests and local experiments;
// production wires the postgres implementations.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/capsulevault/timecapsule/internal/domain/entity"
	"github.com/capsulevault/timecapsule/internal/domain/repository"
)

type UserRepository struct {
	mu     sync.RWMutex
	byID   map[string]*entity.User
	byName map[string]*entity.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:   make(map[string]*entity.User),
		byName: make(map[string]*entity.User),
	}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[u.Username]; ok {
		return repository.ErrDuplicateUsername
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	r.byID[u.ID] = &cp
	r.byName[u.Username] = &cp
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byName[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)

type CapsuleRepository struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]*entity.Capsule
	users  *UserRepository // for ListDue's owner join; optional
}

func NewCapsuleRepository(users *UserRepository) *CapsuleRepository {
	return &CapsuleRepository{rows: make(map[int64]*entity.Capsule), users: users}
}

func (r *CapsuleRepository) Create(ctx context.Context, c *entity.Capsule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	c.ID = r.nextID
	c.CreatedAt = time.Now().UTC()
	cp := *c
	r.rows[c.ID] = &cp
	return nil
}

func (r *CapsuleRepository) GetByID(ctx context.Context, id int64, authorID string) (*entity.Capsule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.rows[id]
	if !ok || c.AuthorID != authorID {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *CapsuleRepository) List(ctx context.Context, authorID string) ([]*entity.Capsule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.Capsule, 0)
	for id := int64(1); id <= r.nextID; id++ {
		c, ok := r.rows[id]
		if !ok || c.AuthorID != authorID {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (r *CapsuleRepository) Update(ctx context.Context, id int64, authorID string, text string, dateOpen time.Time) (*entity.Capsule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[id]
	if !ok || c.AuthorID != authorID {
		return nil, repository.ErrNotFound
	}
	c.Text = text
	c.DateOpen = dateOpen
	cp := *c
	return &cp, nil
}

func (r *CapsuleRepository) Delete(ctx context.Context, id int64, authorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[id]
	if !ok || c.AuthorID != authorID {
		return repository.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *CapsuleRepository) CountByStatus(ctx context.Context, authorID string, now time.Time) (repository.StatusCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sc repository.StatusCount
	for _, c := range r.rows {
		if c.AuthorID != authorID {
			continue
		}
		sc.Total++
		if c.DateOpen.After(now) {
			sc.Pending++
		} else {
			sc.Opened++
		}
	}
	return sc, nil
}

func (r *CapsuleRepository) ListDue(ctx context.Context, now time.Time) ([]repository.DueCapsule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]repository.DueCapsule, 0)
	for id := int64(1); id <= r.nextID; id++ {
		c, ok := r.rows[id]
		if !ok || c.DateOpen.After(now) {
			continue
		}
		d := repository.DueCapsule{ID: c.ID, DateOpen: c.DateOpen}
		if r.users != nil {
			if u, err := r.users.GetByID(ctx, c.AuthorID); err == nil {
				d.Username = u.Username
				d.Email = u.Email
			}
		}
		out = append(out, d)
	}
	return out, nil
}

func (r *CapsuleRepository) Exists(ctx context.Context, id int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rows[id]
	return ok, nil
}

var _ repository.CapsuleRepository = (*CapsuleRepository)(nil)
