package plan

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestCanUseFeature(t *testing.T) {
	tests := []struct {
		name    string
		tier    Tier
		feature string
		usage   int
		want    bool
	}{
		{"free under ceiling", Free, FeatureComparisons, 2, true},
		{"free at ceiling", Free, FeatureComparisons, 3, false},
		{"free over ceiling", Free, FeaturePriceAlerts, 9, false},
		{"premium unlimited", Premium, FeatureComparisons, 10000, true},
		{"family capped alerts", Family, FeaturePriceAlerts, 50, false},
		{"family unlimited comparisons", Family, FeatureComparisons, 500, true},
		{"unknown tier", Tier("gold"), FeatureComparisons, 0, false},
		{"unknown feature", Premium, "export_csv", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanUseFeature(tt.tier, tt.feature, tt.usage))
		})
	}
}

func TestParseTier(t *testing.T) {
	tier, ok := ParseTier(" Premium ")
	assert.True(t, ok)
	assert.Equal(t, Premium, tier)

	_, ok = ParseTier("enterprise")
	assert.False(t, ok)
}

func TestLimitsReturnsCopy(t *testing.T) {
	l := Limits(Free)
	l[FeatureComparisons] = 999
	assert.Equal(t, 3, Limits(Free)[FeatureComparisons])
	assert.Nil(t, Limits(Tier("gold")))
}

type stubChecker struct {
	allowed bool
	err     error
}

func (s stubChecker) CheckFeatureAccess(context.Context, uuid.UUID, string) (bool, error) {
	return s.allowed, s.err
}

func TestGatePrefersServerAnswer(t *testing.T) {
	g := NewGate(stubChecker{allowed: false}, zap.NewNop())
	// The local table would allow this; the server has the final say.
	assert.False(t, g.Allowed(context.Background(), uuid.New(), Premium, FeatureComparisons, 0))
}

func TestGateFallsBackToLocalTable(t *testing.T) {
	g := NewGate(stubChecker{err: errors.New("db down")}, zap.NewNop())

	assert.True(t, g.Allowed(context.Background(), uuid.New(), Free, FeatureComparisons, 1))
	assert.False(t, g.Allowed(context.Background(), uuid.New(), Free, FeatureComparisons, 3))
}
