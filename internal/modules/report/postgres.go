package report

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

func (r *postgresRepo) Upsert(ctx context.Context, m *MonthlyReport) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO monthly_reports (id, user_id, month, total_spent, total_saved, purchase_count)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (user_id, month) DO UPDATE
		SET total_spent = EXCLUDED.total_spent,
		    total_saved = EXCLUDED.total_saved,
		    purchase_count = EXCLUDED.purchase_count,
		    updated_at = NOW()
		RETURNING id, created_at, updated_at`,
		m.ID, m.UserID, m.Month, m.TotalSpent, m.TotalSaved, m.PurchaseCount,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*MonthlyReport, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, month, total_spent, total_saved, purchase_count, created_at, updated_at
		FROM monthly_reports WHERE user_id=$1
		ORDER BY month DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := []*MonthlyReport{}
	for rows.Next() {
		m := &MonthlyReport{}
		if err := rows.Scan(&m.ID, &m.UserID, &m.Month, &m.TotalSpent, &m.TotalSaved,
			&m.PurchaseCount, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		reports = append(reports, m)
	}
	return reports, rows.Err()
}
