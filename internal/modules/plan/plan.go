package plan

import "strings"

// Tier is a subscription level.
type Tier string

const (
	Free    Tier = "free"
	Premium Tier = "premium"
	Family  Tier = "family"
)

// Unlimited marks a feature without a usage ceiling.
const Unlimited = -1

// Feature names gated by plan.
const (
	FeatureComparisons     = "comparisons"
	FeaturePriceAlerts     = "price_alerts"
	FeatureComparisonItems = "comparison_items"
)

var featureLimits = map[Tier]map[string]int{
	Free: {
		FeatureComparisons:     3,
		FeaturePriceAlerts:     5,
		FeatureComparisonItems: 15,
	},
	Premium: {
		FeatureComparisons:     Unlimited,
		FeaturePriceAlerts:     Unlimited,
		FeatureComparisonItems: Unlimited,
	},
	Family: {
		FeatureComparisons:     Unlimited,
		FeaturePriceAlerts:     50,
		FeatureComparisonItems: Unlimited,
	},
}

// ParseTier normalises s into a known tier.
func ParseTier(s string) (Tier, bool) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	_, ok := featureLimits[t]
	return t, ok
}

// Limits returns a copy of the ceilings for tier, nil for unknown tiers.
func Limits(tier Tier) map[string]int {
	src, ok := featureLimits[tier]
	if !ok {
		return nil
	}
	out := make(map[string]int, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// CanUseFeature reports whether usage is still under tier's ceiling for
// feature. Unknown tiers and features are denied.
func CanUseFeature(tier Tier, feature string, currentUsage int) bool {
	limits, ok := featureLimits[tier]
	if !ok {
		return false
	}
	ceiling, ok := limits[feature]
	if !ok {
		return false
	}
	return ceiling == Unlimited || currentUsage < ceiling
}
