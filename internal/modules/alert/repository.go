package alert

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Repository interface {
	Create(ctx context.Context, a *PriceAlert) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*PriceAlert, error)
	CountActive(ctx context.Context, userID uuid.UUID) (int, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*PriceAlert, error)
	// Toggle flips is_active. Re-activating an alert re-arms it.
	Toggle(ctx context.Context, userID, id uuid.UUID) (*PriceAlert, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	// FindMatching returns armed alerts whose target is at or above p.Price.
	FindMatching(ctx context.Context, p PriceSeen) ([]*PriceAlert, error)
	// MarkTriggered records the price and reports false if another caller
	// already triggered the alert.
	MarkTriggered(ctx context.Context, id uuid.UUID, price decimal.Decimal) (bool, error)
}
