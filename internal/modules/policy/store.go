package policy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/georgemunganga/precocerto-backend/internal/modules/plan"
	"github.com/georgemunganga/precocerto-backend/internal/modules/ratelimit"
	"github.com/georgemunganga/precocerto-backend/internal/platform/apperr"
)

type store struct {
	db  *sql.DB
	rdb redis.Cmdable
}

func NewStore(db *sql.DB, rdb redis.Cmdable) Store {
	return &store{db: db, rdb: rdb}
}

func (s *store) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id = $1 AND role = $2)`,
		userID, RoleAdmin).Scan(&exists)
	return exists, err
}

// CheckRateLimit counts one attempt for key. Exceeding MaxAttempts inside
// Window sets a block key that lives for Block.
func (s *store) CheckRateLimit(ctx context.Context, key string, opts ratelimit.Options) (ratelimit.Decision, error) {
	blockKey := key + ":blocked"

	ttl, err := s.rdb.TTL(ctx, blockKey).Result()
	if err != nil {
		return ratelimit.Decision{}, err
	}
	if ttl > 0 {
		return ratelimit.Decision{Allowed: false, RetryAfter: ttl}, nil
	}

	// SET NX seeds the window TTL in the same transaction as the increment,
	// so a counter can never outlive its window.
	var incr *redis.IntCmd
	if _, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, opts.Window)
		incr = pipe.Incr(ctx, key)
		return nil
	}); err != nil {
		return ratelimit.Decision{}, err
	}
	count := incr.Val()

	if count > int64(opts.MaxAttempts) {
		if _, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, blockKey, "1", opts.Block)
			pipe.Del(ctx, key)
			return nil
		}); err != nil {
			return ratelimit.Decision{}, err
		}
		return ratelimit.Decision{Allowed: false, RetryAfter: opts.Block}, nil
	}
	return ratelimit.Decision{Allowed: true, Remaining: opts.MaxAttempts - int(count)}, nil
}

func (s *store) TierOf(ctx context.Context, userID uuid.UUID) (plan.Tier, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT plan FROM users WHERE id = $1`, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperr.NotFound("user")
	}
	if err != nil {
		return "", err
	}
	tier, ok := plan.ParseTier(raw)
	if !ok {
		return plan.Free, nil
	}
	return tier, nil
}

var usageQueries = map[string]string{
	plan.FeatureComparisons: `SELECT COUNT(*) FROM comparisons WHERE user_id = $1`,
	plan.FeaturePriceAlerts: `SELECT COUNT(*) FROM price_alerts WHERE user_id = $1 AND is_active`,
}

// CheckFeatureAccess evaluates the plan table against usage counted in the
// database rather than the figure the caller supplies.
func (s *store) CheckFeatureAccess(ctx context.Context, userID uuid.UUID, feature string) (bool, error) {
	tier, err := s.TierOf(ctx, userID)
	if err != nil {
		return false, err
	}
	query, ok := usageQueries[feature]
	if !ok {
		return false, fmt.Errorf("no usage query for feature %q", feature)
	}
	var usage int
	if err := s.db.QueryRowContext(ctx, query, userID).Scan(&usage); err != nil {
		return false, err
	}
	return plan.CanUseFeature(tier, feature, usage), nil
}
