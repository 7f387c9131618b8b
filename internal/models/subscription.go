package models

import "encoding/json"

type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionInactive SubscriptionStatus = "inactive"
)

type SubscriptionPlan string

const (
	PlanPro  SubscriptionPlan = "pro"
	PlanTeam SubscriptionPlan = "team"
)

// CreditsRemaining is the caller-facing view of a user's balance: a number
// for metered accounts, the string "unlimited" for subscribers.
type CreditsRemaining struct {
	Unlimited bool
	Count     int
}

func (c CreditsRemaining) MarshalJSON() ([]byte, error) {
	if c.Unlimited {
		return json.Marshal("unlimited")
	}
	if c.Count < 0 {
		return json.Marshal(0)
	}
	return json.Marshal(c.Count)
}
