package plan

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AccessChecker re-evaluates feature access against the server's view of the
// user's plan and usage.
type AccessChecker interface {
	CheckFeatureAccess(ctx context.Context, userID uuid.UUID, feature string) (bool, error)
}

// TierSource resolves the tier a user is subscribed to.
type TierSource interface {
	TierOf(ctx context.Context, userID uuid.UUID) (Tier, error)
}

type Gate struct {
	checker AccessChecker
	log     *zap.Logger
}

func NewGate(checker AccessChecker, log *zap.Logger) *Gate {
	return &Gate{checker: checker, log: log}
}

// Allowed asks the server-side checker first and falls back to the local
// table when it fails.
func (g *Gate) Allowed(ctx context.Context, userID uuid.UUID, tier Tier, feature string, usage int) bool {
	ok, err := g.checker.CheckFeatureAccess(ctx, userID, feature)
	if err != nil {
		g.log.Warn("feature access check failed, using local plan table",
			zap.String("feature", feature), zap.Stringer("user_id", userID), zap.Error(err))
		return CanUseFeature(tier, feature, usage)
	}
	return ok
}
