package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for product data storage.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	Search(ctx context.Context, query, category string, limit int) ([]*Product, error)
}
