package comparison

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, c *Comparison) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*Comparison, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Comparison, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)
	Update(ctx context.Context, c *Comparison) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
}
