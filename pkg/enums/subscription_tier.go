package enums

import "fmt"

// SubscriptionTier ranks vendor subscription levels for aggregated visibility.
type SubscriptionTier string

const (
	SubscriptionTierFree    SubscriptionTier = "free"
	SubscriptionTierPremium SubscriptionTier = "premium"
	SubscriptionTierDiamond SubscriptionTier = "diamond"
)

var validSubscriptionTiers = []SubscriptionTier{
	SubscriptionTierFree,
	SubscriptionTierPremium,
	SubscriptionTierDiamond,
}

// String implements fmt.Stringer.
func (t SubscriptionTier) String() string {
	return string(t)
}

// Rank returns the ordinal used for sort precedence (higher sorts first).
func (t SubscriptionTier) Rank() int {
	switch t {
	case SubscriptionTierDiamond:
		return 2
	case SubscriptionTierPremium:
		return 1
	default:
		return 0
	}
}

// IsPaid reports whether the tier requires an active subscription.
func (t SubscriptionTier) IsPaid() bool {
	return t == SubscriptionTierPremium || t == SubscriptionTierDiamond
}

// IsValid reports whether the value is a known SubscriptionTier.
func (t SubscriptionTier) IsValid() bool {
	for _, candidate := range validSubscriptionTiers {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseSubscriptionTier converts raw input into a SubscriptionTier.
func ParseSubscriptionTier(value string) (SubscriptionTier, error) {
	for _, candidate := range validSubscriptionTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid subscription tier %q", value)
}
