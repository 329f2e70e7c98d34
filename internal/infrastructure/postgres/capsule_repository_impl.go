package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/capsulevault/timecapsule/internal/domain/entity"
	"github.com/capsulevault/timecapsule/internal/domain/repository"
)

type CapsuleRepository struct {
	pool *pgxpool.Pool
}

func NewCapsuleRepository(pool *pgxpool.Pool) *CapsuleRepository {
	return &CapsuleRepository{pool: pool}
}

func (r *CapsuleRepository) Create(ctx context.Context, c *entity.Capsule) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO capsules (text, date_open, author_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, c.Text, c.DateOpen, c.AuthorID)

	return row.Scan(&c.ID, &c.CreatedAt)
}

func (r *CapsuleRepository) GetByID(ctx context.Context, id int64, authorID string) (*entity.Capsule, error) {
	c := &entity.Capsule{}
	row := r.pool.QueryRow(ctx, `
		SELECT id, text, date_open, author_id, created_at
		FROM capsules
		WHERE id = $1 AND author_id = $2
	`, id, authorID)

	if err := row.Scan(&c.ID, &c.Text, &c.DateOpen, &c.AuthorID, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *CapsuleRepository) List(ctx context.Context, authorID string) ([]*entity.Capsule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, text, date_open, author_id, created_at
		FROM capsules
		WHERE author_id = $1
		ORDER BY id
	`, authorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*entity.Capsule, 0)
	for rows.Next() {
		c := &entity.Capsule{}
		if err := rows.Scan(&c.ID, &c.Text, &c.DateOpen, &c.AuthorID, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CapsuleRepository) Update(ctx context.Context, id int64, authorID string, text string, dateOpen time.Time) (*entity.Capsule, error) {
	c := &entity.Capsule{}
	row := r.pool.QueryRow(ctx, `
		UPDATE capsules
		SET text = $1, date_open = $2
		WHERE id = $3 AND author_id = $4
		RETURNING id, text, date_open, author_id, created_at
	`, text, dateOpen, id, authorID)

	if err := row.Scan(&c.ID, &c.Text, &c.DateOpen, &c.AuthorID, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *CapsuleRepository) Delete(ctx context.Context, id int64, authorID string) error {
	res, err := r.pool.Exec(ctx, `
		DELETE FROM capsules
		WHERE id = $1 AND author_id = $2
	`, id, authorID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *CapsuleRepository) CountByStatus(ctx context.Context, authorID string, now time.Time) (repository.StatusCount, error) {
	var sc repository.StatusCount
	row := r.pool.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE date_open > $2),
		       count(*) FILTER (WHERE date_open <= $2)
		FROM capsules
		WHERE author_id = $1
	`, authorID, now)

	if err := row.Scan(&sc.Total, &sc.Pending, &sc.Opened); err != nil {
		return repository.StatusCount{}, err
	}
	return sc, nil
}

func (r *CapsuleRepository) ListDue(ctx context.Context, now time.Time) ([]repository.DueCapsule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, u.username, u.email, c.date_open
		FROM capsules c
		JOIN users u ON u.id = c.author_id
		WHERE c.date_open <= $1
		ORDER BY c.id
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]repository.DueCapsule, 0)
	for rows.Next() {
		var d repository.DueCapsule
		if err := rows.Scan(&d.ID, &d.Username, &d.Email, &d.DateOpen); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *CapsuleRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	row := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM capsules WHERE id = $1)`, id)
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

var _ repository.CapsuleRepository = (*CapsuleRepository)(nil)
