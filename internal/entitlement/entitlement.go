// Package entitlement decides whether a user may run a generation and
// which resource pays for it.
package entitlement

import "github.com/StudyForge-io/studyforge/internal/models"

// Source identifies what grants a generation.
type Source string

const (
	// SourceSubscription grants unlimited generations.
	SourceSubscription Source = "subscription"
	// SourceCredit grants a single generation paid by one free credit.
	SourceCredit Source = "credit"
)

// Decision is the outcome of evaluating a user's entitlement. When Granted
// is false, RequiresSubscription is true so callers can steer the user
// toward an upgrade.
type Decision struct {
	Granted              bool
	Source               Source
	RequiresSubscription bool
}

// Evaluate checks a user's subscription and credit balance. An active
// subscription always wins; otherwise the user needs at least one free
// credit. Evaluate never mutates state, so a credit-backed grant must
// still be confirmed with an atomic debit before any work runs.
func Evaluate(user *models.User) Decision {
	if user.HasActiveSubscription() {
		return Decision{Granted: true, Source: SourceSubscription}
	}
	if user.FreeCredits > 0 {
		return Decision{Granted: true, Source: SourceCredit}
	}
	return Decision{RequiresSubscription: true}
}
