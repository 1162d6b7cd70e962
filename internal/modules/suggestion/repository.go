package suggestion

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, s *Suggestion) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Suggestion, error)
	// List returns suggestions of any user, optionally filtered by status.
	List(ctx context.Context, status Status, limit int) ([]*Suggestion, error)
}
