package contribution

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Reader is the read side the Validator depends on.
type Reader interface {
	ListByUserProductStoreSince(ctx context.Context, userID uuid.UUID, productName, storeName string, since time.Time) ([]*Contribution, error)
	ListByProductLocationSince(ctx context.Context, productName, city, state string, since time.Time) ([]*Contribution, error)
}

// Repository defines contribution data storage.
type Repository interface {
	Reader

	// Insert stores c unless a row for the same user, product, store and
	// offer date exists; inserted is false in that case.
	Insert(ctx context.Context, c *Contribution) (inserted bool, err error)
	GetByID(ctx context.Context, id uuid.UUID) (*Contribution, error)
	ListApproved(ctx context.Context, productName, city, state string, since time.Time) ([]*Contribution, error)
	ListByStatus(ctx context.Context, status Status, limit int) ([]*Contribution, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, reviewer uuid.UUID) error
	LatestQuotes(ctx context.Context, productNames []string, city, state string, since time.Time) ([]PriceQuote, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
