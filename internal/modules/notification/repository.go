package notification

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/georgemunganga/precocerto-backend/internal/platform/apperr"
)

type Repository interface {
	Save(ctx context.Context, s *PushSubscription) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*PushSubscription, error)
	Delete(ctx context.Context, userID uuid.UUID, endpoint string) error
	DeleteEndpoint(ctx context.Context, endpoint string) error
}

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

// Save registers the endpoint, moving it to s.UserID if another account had it.
func (r *postgresRepo) Save(ctx context.Context, s *PushSubscription) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO push_subscriptions (id, user_id, endpoint, p256dh, auth)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (endpoint) DO UPDATE
		SET user_id = EXCLUDED.user_id, p256dh = EXCLUDED.p256dh, auth = EXCLUDED.auth
		RETURNING id, created_at`,
		s.ID, s.UserID, s.Endpoint, s.P256dh, s.Auth).Scan(&s.ID, &s.CreatedAt)
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*PushSubscription, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, endpoint, p256dh, auth, created_at
		FROM push_subscriptions WHERE user_id=$1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*PushSubscription
	for rows.Next() {
		s := &PushSubscription{}
		if err := rows.Scan(&s.ID, &s.UserID, &s.Endpoint, &s.P256dh, &s.Auth, &s.CreatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func (r *postgresRepo) Delete(ctx context.Context, userID uuid.UUID, endpoint string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM push_subscriptions WHERE user_id=$1 AND endpoint=$2`, userID, endpoint)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("push subscription")
	}
	return nil
}

func (r *postgresRepo) DeleteEndpoint(ctx context.Context, endpoint string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM push_subscriptions WHERE endpoint=$1`, endpoint)
	return err
}
