package access

import (
	"fmt"
	"time"
)

// Plan is a purchasable subscription option.
type Plan struct {
	ID     string
	Title  string
	Price  string
	Tier   Tier
	Months int
}

var plans = []Plan{
	{ID: "basic", Title: "3 Months", Price: "₹999", Tier: TierBasic, Months: 3},
	{ID: "premium", Title: "12 Months", Price: "₹3650", Tier: TierPremium, Months: 12},
}

// Plans returns the available plans, cheapest first.
func Plans() []Plan {
	out := make([]Plan, len(plans))
	copy(out, plans)
	return out
}

// PlanByID looks up a plan by its identifier.
func PlanByID(id string) (Plan, error) {
	for _, p := range plans {
		if p.ID == id {
			return p, nil
		}
	}
	return Plan{}, fmt.Errorf("unknown plan %q", id)
}

// Subscription is the subscription state of a single user. The zero value is
// an unsubscribed free user.
type Subscription struct {
	UserID  int64     `json:"user_id"`
	Tier    Tier      `json:"tier"`
	Active  bool      `json:"active"`
	EndDate time.Time `json:"end_date"`
}

// Subscribe starts plan for userID at now.
func Subscribe(userID int64, plan Plan, now time.Time) Subscription {
	return Subscription{
		UserID:  userID,
		Tier:    plan.Tier,
		Active:  true,
		EndDate: now.AddDate(0, plan.Months, 0),
	}
}

// Renew applies plan on top of s. Time left on a running subscription is
// kept and the new period starts when it ends.
func (s Subscription) Renew(plan Plan, now time.Time) Subscription {
	start := now
	if s.IsSubscribed(now) && s.EndDate.After(now) {
		start = s.EndDate
	}
	return Subscribe(s.UserID, plan, start)
}

// IsSubscribed reports whether the subscription is active at now. A zero
// EndDate never expires.
func (s Subscription) IsSubscribed(now time.Time) bool {
	if !s.Active {
		return false
	}
	return s.EndDate.IsZero() || now.Before(s.EndDate)
}

// Allows is HasAccess evaluated against this subscription at now.
func (s Subscription) Allows(feature Feature, now time.Time) bool {
	return HasAccess(s.IsSubscribed(now), s.Tier, feature)
}

// Action is something a user asks the bot to do.
type Action string

const (
	ActionChat          Action = "chat"
	ActionImage         Action = "image"
	ActionEmotion       Action = "emotion"
	ActionContacts      Action = "contacts"
	ActionMetrics       Action = "metrics"
	ActionMetricHistory Action = "metric-history"
	ActionSOS           Action = "sos"
	ActionLocation      Action = "location"
	ActionFitness       Action = "fitness"
	ActionDashboard     Action = "dashboard"
)

// RequiredFeature maps an action to the feature that gates it.
func RequiredFeature(a Action) (Feature, bool) {
	switch a {
	case ActionChat, ActionImage, ActionEmotion:
		return FeatureAIAssistant, true
	case ActionContacts:
		return FeatureEmergencyContacts, true
	case ActionMetrics:
		return FeatureHealthBasic, true
	case ActionMetricHistory:
		return FeatureHealthAdvanced, true
	case ActionSOS:
		return FeatureSOSBasic, true
	case ActionLocation:
		return FeatureSOSAdvanced, true
	case ActionFitness:
		return FeatureFitnessAdvanced, true
	case ActionDashboard:
		return FeatureDashboard, true
	default:
		return "", false
	}
}
