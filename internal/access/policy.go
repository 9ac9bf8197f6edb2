package access

// Tier is the subscription level attached to a user.
type Tier string

const (
	TierFree    Tier = "free"
	TierBasic   Tier = "basic"
	TierPremium Tier = "premium"
)

// Feature names a gated capability.
type Feature string

const (
	FeatureDashboard         Feature = "dashboard"
	FeatureHealthBasic       Feature = "health-basic"
	FeatureSOSBasic          Feature = "sos-basic"
	FeatureHealthAdvanced    Feature = "health-advanced"
	FeatureFitnessAdvanced   Feature = "fitness-advanced"
	FeatureSOSAdvanced       Feature = "sos-advanced"
	FeatureAIAssistant       Feature = "ai-assistant"
	FeatureEmergencyContacts Feature = "emergency-contacts"
)

var basicFeatures = map[Feature]struct{}{
	FeatureDashboard:   {},
	FeatureHealthBasic: {},
	FeatureSOSBasic:    {},
}

// premium includes every basic feature
var premiumFeatures = map[Feature]struct{}{
	FeatureDashboard:         {},
	FeatureHealthBasic:       {},
	FeatureSOSBasic:          {},
	FeatureHealthAdvanced:    {},
	FeatureFitnessAdvanced:   {},
	FeatureSOSAdvanced:       {},
	FeatureAIAssistant:       {},
	FeatureEmergencyContacts: {},
}

// HasAccess reports whether a user with the given subscription state may use
// feature. Unsubscribed users and the free tier are never granted anything,
// and unknown features or tiers fall through to false.
func HasAccess(isSubscribed bool, tier Tier, feature Feature) bool {
	if !isSubscribed {
		return false
	}

	var allowed map[Feature]struct{}
	switch tier {
	case TierPremium:
		allowed = premiumFeatures
	case TierBasic:
		allowed = basicFeatures
	default:
		return false
	}

	_, ok := allowed[feature]
	return ok
}

// Features returns the allow-list for tier in a stable order.
func Features(tier Tier) []Feature {
	var out []Feature
	for _, f := range AllFeatures() {
		if HasAccess(true, tier, f) {
			out = append(out, f)
		}
	}
	return out
}

// AllFeatures lists every recognized feature.
func AllFeatures() []Feature {
	return []Feature{
		FeatureDashboard,
		FeatureHealthBasic,
		FeatureSOSBasic,
		FeatureHealthAdvanced,
		FeatureFitnessAdvanced,
		FeatureSOSAdvanced,
		FeatureAIAssistant,
		FeatureEmergencyContacts,
	}
}

// ParseTier maps a stored or user-supplied tier name to a Tier. Anything
// unrecognized is treated as free.
func ParseTier(s string) Tier {
	switch Tier(s) {
	case TierBasic:
		return TierBasic
	case TierPremium:
		return TierPremium
	default:
		return TierFree
	}
}
