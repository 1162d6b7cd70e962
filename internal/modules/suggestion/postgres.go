package suggestion

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

type postgresRepo struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

func (r *postgresRepo) Create(ctx context.Context, s *Suggestion) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO suggestions (id, user_id, kind, message, status)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at`,
		s.ID, s.UserID, s.Kind, s.Message, s.Status).Scan(&s.CreatedAt)
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Suggestion, error) {
	return r.query(ctx, `
		SELECT id, user_id, kind, message, status, created_at
		FROM suggestions WHERE user_id=$1 ORDER BY created_at DESC`, userID)
}

func (r *postgresRepo) List(ctx context.Context, status Status, limit int) ([]*Suggestion, error) {
	return r.query(ctx, `
		SELECT id, user_id, kind, message, status, created_at
		FROM suggestions WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC LIMIT $2`, string(status), limit)
}

func (r *postgresRepo) query(ctx context.Context, q string, args ...interface{}) ([]*Suggestion, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []*Suggestion{}
	for rows.Next() {
		s := &Suggestion{}
		if err := rows.Scan(&s.ID, &s.UserID, &s.Kind, &s.Message, &s.Status, &s.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
