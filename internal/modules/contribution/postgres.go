package contribution

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/precocerto-backend/internal/platform/apperr"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const contributionColumns = `id,user_id,product_name,store_name,city,state,price,offer_date,
	status,flagged,price_difference,reviewed_by,reviewed_at,created_at`

func scanContribution(scan func(...interface{}) error) (*Contribution, error) {
	c := &Contribution{}
	var diff decimal.NullDecimal
	var reviewedBy uuid.NullUUID
	var reviewedAt sql.NullTime
	err := scan(&c.ID, &c.UserID, &c.ProductName, &c.StoreName, &c.City, &c.State,
		&c.Price, &c.OfferDate, &c.Status, &c.Flagged, &diff, &reviewedBy, &reviewedAt, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	if diff.Valid {
		f := diff.Decimal.InexactFloat64()
		c.PriceDifference = &f
	}
	if reviewedBy.Valid {
		c.ReviewedBy = &reviewedBy.UUID
	}
	if reviewedAt.Valid {
		c.ReviewedAt = &reviewedAt.Time
	}
	return c, nil
}

func (r *postgresRepo) query(ctx context.Context, q string, args ...interface{}) ([]*Contribution, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*Contribution{}
	for rows.Next() {
		c, err := scanContribution(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *postgresRepo) ListByUserProductStoreSince(ctx context.Context, userID uuid.UUID, productName, storeName string, since time.Time) ([]*Contribution, error) {
	return r.query(ctx, `
		SELECT `+contributionColumns+`
		FROM price_contributions
		WHERE user_id=$1 AND product_name=$2 AND store_name=$3 AND created_at >= $4`,
		userID, productName, storeName, since)
}

func (r *postgresRepo) ListByProductLocationSince(ctx context.Context, productName, city, state string, since time.Time) ([]*Contribution, error) {
	return r.query(ctx, `
		SELECT `+contributionColumns+`
		FROM price_contributions
		WHERE product_name=$1 AND city=$2 AND state=$3 AND created_at >= $4 AND status <> 'rejected'`,
		productName, city, state, since)
}

func (r *postgresRepo) Insert(ctx context.Context, c *Contribution) (bool, error) {
	var diff interface{}
	if c.PriceDifference != nil {
		diff = *c.PriceDifference
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO price_contributions
		  (id,user_id,product_name,store_name,city,state,price,offer_date,status,flagged,price_difference)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (user_id, product_name, store_name, offer_date) DO NOTHING
		RETURNING created_at`,
		c.ID, c.UserID, c.ProductName, c.StoreName, c.City, c.State, c.Price,
		c.OfferDate.Format("2006-01-02"), c.Status, c.Flagged, diff).Scan(&c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*Contribution, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+contributionColumns+` FROM price_contributions WHERE id=$1`, id)
	c, err := scanContribution(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("contribution")
	}
	return c, err
}

func (r *postgresRepo) ListApproved(ctx context.Context, productName, city, state string, since time.Time) ([]*Contribution, error) {
	return r.query(ctx, `
		SELECT `+contributionColumns+`
		FROM price_contributions
		WHERE status='approved' AND product_name=$1 AND city=$2 AND state=$3 AND created_at >= $4
		ORDER BY price ASC`,
		productName, city, state, since)
}

func (r *postgresRepo) ListByStatus(ctx context.Context, status Status, limit int) ([]*Contribution, error) {
	return r.query(ctx, `
		SELECT `+contributionColumns+`
		FROM price_contributions
		WHERE status=$1
		ORDER BY created_at DESC
		LIMIT $2`, status, limit)
}

// UpdateStatus only applies while the row is still in from, so concurrent
// moderators cannot both act on the same contribution.
func (r *postgresRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, reviewer uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE price_contributions
		SET status=$1, reviewed_by=$2, reviewed_at=NOW()
		WHERE id=$3 AND status=$4`, to, reviewer, id, from)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.Conflict("contribution was already reviewed")
	}
	return nil
}

func (r *postgresRepo) LatestQuotes(ctx context.Context, productNames []string, city, state string, since time.Time) ([]PriceQuote, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT ON (product_name, store_name) product_name, store_name, price, offer_date
		FROM price_contributions
		WHERE status='approved' AND city=$1 AND state=$2 AND created_at >= $3
		  AND product_name = ANY($4)
		ORDER BY product_name, store_name, created_at DESC`,
		city, state, since, pq.Array(productNames))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quotes []PriceQuote
	for rows.Next() {
		var q PriceQuote
		if err := rows.Scan(&q.ProductName, &q.StoreName, &q.Price, &q.OfferDate); err != nil {
			return nil, err
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

func (r *postgresRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM price_contributions WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
