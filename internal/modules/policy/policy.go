// Package policy answers authorization and quota questions against the
// backing stores: admin roles and plan usage in PostgreSQL, rate counters in
// Redis.
package policy

import (
	"context"

	"github.com/google/uuid"

	"github.com/georgemunganga/precocerto-backend/internal/modules/plan"
	"github.com/georgemunganga/precocerto-backend/internal/modules/ratelimit"
)

const RoleAdmin = "admin"

// Store is the capability the validators and gates delegate their decisions to.
type Store interface {
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
	CheckRateLimit(ctx context.Context, key string, opts ratelimit.Options) (ratelimit.Decision, error)
	CheckFeatureAccess(ctx context.Context, userID uuid.UUID, feature string) (bool, error)
	TierOf(ctx context.Context, userID uuid.UUID) (plan.Tier, error)
}
