package report

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Upsert inserts r or overwrites the user's report for the same month.
	Upsert(ctx context.Context, r *MonthlyReport) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*MonthlyReport, error)
}
