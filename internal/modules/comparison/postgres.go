package comparison

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/georgemunganga/precocerto-backend/internal/platform/apperr"
)

type postgresRepo struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

func scanComparison(scan func(dest ...interface{}) error) (*Comparison, error) {
	c := &Comparison{}
	var items []byte
	if err := scan(&c.ID, &c.UserID, &c.Name, &c.City, &c.State, &items, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &c.Items); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *postgresRepo) Create(ctx context.Context, c *Comparison) error {
	items, err := json.Marshal(c.Items)
	if err != nil {
		return err
	}
	return r.db.QueryRowContext(ctx, `
		INSERT INTO comparisons (id, user_id, name, city, state, items)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at, updated_at`,
		c.ID, c.UserID, c.Name, c.City, c.State, items).Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *postgresRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (*Comparison, error) {
	c, err := scanComparison(r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, city, state, items, created_at, updated_at
		FROM comparisons WHERE id=$1 AND user_id=$2`, id, userID).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("comparison")
	}
	return c, err
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Comparison, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, city, state, items, created_at, updated_at
		FROM comparisons WHERE user_id=$1 ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []*Comparison{}
	for rows.Next() {
		c, err := scanComparison(rows.Scan)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func (r *postgresRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comparisons WHERE user_id=$1`, userID).Scan(&n)
	return n, err
}

func (r *postgresRepo) Update(ctx context.Context, c *Comparison) error {
	items, err := json.Marshal(c.Items)
	if err != nil {
		return err
	}
	err = r.db.QueryRowContext(ctx, `
		UPDATE comparisons SET name=$3, city=$4, state=$5, items=$6, updated_at=NOW()
		WHERE id=$1 AND user_id=$2
		RETURNING created_at, updated_at`,
		c.ID, c.UserID, c.Name, c.City, c.State, items).Scan(&c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("comparison")
	}
	return err
}

func (r *postgresRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comparisons WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("comparison")
	}
	return nil
}
