package alert

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/precocerto-backend/internal/platform/apperr"
)

type postgresRepo struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

const alertColumns = `id, user_id, product_name, target_price, current_price, store_name, city, state,
	is_active, notification_sent, triggered_at, created_at, updated_at`

func scanAlert(scan func(dest ...interface{}) error) (*PriceAlert, error) {
	a := &PriceAlert{}
	var triggeredAt sql.NullTime
	err := scan(&a.ID, &a.UserID, &a.ProductName, &a.TargetPrice, &a.CurrentPrice, &a.StoreName,
		&a.City, &a.State, &a.IsActive, &a.NotificationSent, &triggeredAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if triggeredAt.Valid {
		a.TriggeredAt = &triggeredAt.Time
	}
	return a, nil
}

func (r *postgresRepo) query(ctx context.Context, q string, args ...interface{}) ([]*PriceAlert, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	alerts := []*PriceAlert{}
	for rows.Next() {
		a, err := scanAlert(rows.Scan)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (r *postgresRepo) Create(ctx context.Context, a *PriceAlert) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO price_alerts (id, user_id, product_name, target_price, store_name, city, state, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,TRUE)
		RETURNING is_active, created_at, updated_at`,
		a.ID, a.UserID, a.ProductName, a.TargetPrice, a.StoreName, a.City, a.State,
	).Scan(&a.IsActive, &a.CreatedAt, &a.UpdatedAt)
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*PriceAlert, error) {
	return r.query(ctx, `SELECT `+alertColumns+` FROM price_alerts
		WHERE user_id=$1 ORDER BY created_at DESC`, userID)
}

func (r *postgresRepo) CountActive(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM price_alerts WHERE user_id=$1 AND is_active`, userID).Scan(&n)
	return n, err
}

func (r *postgresRepo) Get(ctx context.Context, userID, id uuid.UUID) (*PriceAlert, error) {
	a, err := scanAlert(r.db.QueryRowContext(ctx, `SELECT `+alertColumns+` FROM price_alerts
		WHERE id=$1 AND user_id=$2`, id, userID).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("price alert")
	}
	return a, err
}

func (r *postgresRepo) Toggle(ctx context.Context, userID, id uuid.UUID) (*PriceAlert, error) {
	a, err := scanAlert(r.db.QueryRowContext(ctx, `
		UPDATE price_alerts
		SET is_active = NOT is_active,
		    notification_sent = CASE WHEN is_active THEN notification_sent ELSE FALSE END,
		    triggered_at = CASE WHEN is_active THEN triggered_at ELSE NULL END,
		    updated_at = NOW()
		WHERE id=$1 AND user_id=$2
		RETURNING `+alertColumns, id, userID).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("price alert")
	}
	return a, err
}

func (r *postgresRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM price_alerts WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("price alert")
	}
	return nil
}

func (r *postgresRepo) FindMatching(ctx context.Context, p PriceSeen) ([]*PriceAlert, error) {
	return r.query(ctx, `SELECT `+alertColumns+` FROM price_alerts
		WHERE is_active AND NOT notification_sent
		  AND LOWER(product_name) = LOWER($1)
		  AND target_price >= $2
		  AND (store_name = '' OR LOWER(store_name) = LOWER($3))
		  AND (city = '' OR LOWER(city) = LOWER($4))
		  AND (state = '' OR state = $5)`,
		p.ProductName, p.Price, p.StoreName, p.City, p.State)
}

func (r *postgresRepo) MarkTriggered(ctx context.Context, id uuid.UUID, price decimal.Decimal) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE price_alerts
		SET current_price=$2, notification_sent=TRUE, triggered_at=NOW(), updated_at=NOW()
		WHERE id=$1 AND NOT notification_sent`, id, price)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
