// Package billing maps PayPal subscription lifecycle events onto local
// account state and exposes the plan catalog.
package billing

import (
	"log"

	"github.com/StudyForge-io/studyforge/internal/config"
	"github.com/StudyForge-io/studyforge/internal/models"
)

// PayPal subscription lifecycle event types.
const (
	EventSubscriptionActivated = "BILLING.SUBSCRIPTION.ACTIVATED"
	EventSubscriptionCreated   = "BILLING.SUBSCRIPTION.CREATED"
	EventSubscriptionCancelled = "BILLING.SUBSCRIPTION.CANCELLED"
	EventSubscriptionExpired   = "BILLING.SUBSCRIPTION.EXPIRED"
	EventSubscriptionSuspended = "BILLING.SUBSCRIPTION.SUSPENDED"
	EventPaymentSaleCompleted  = "PAYMENT.SALE.COMPLETED"
)

// WebhookEvent is the subset of the PayPal webhook envelope we act on.
type WebhookEvent struct {
	EventType string `json:"event_type"`
	Resource  struct {
		ID         string `json:"id"`
		PlanID     string `json:"plan_id"`
		Subscriber struct {
			PayerID      string `json:"payer_id"`
			EmailAddress string `json:"email_address"`
		} `json:"subscriber"`
	} `json:"resource"`
}

// SubscriptionStore applies subscription transitions to user accounts.
type SubscriptionStore interface {
	ActivateSubscription(email string, plan models.SubscriptionPlan, paypalSubscriptionID string) (bool, error)
	DeactivateSubscription(paypalSubscriptionID string) (bool, error)
}

// Synchronizer folds webhook events into account state. Processing is
// best-effort: a failed or unmatched update is logged and swallowed so
// the webhook can still be acknowledged, otherwise PayPal retries events
// that will never succeed.
type Synchronizer struct {
	store     SubscriptionStore
	proPlanID string
}

// NewSynchronizer builds a Synchronizer using the configured plan mapping.
func NewSynchronizer(store SubscriptionStore, cfg *config.Config) *Synchronizer {
	return &Synchronizer{
		store:     store,
		proPlanID: cfg.PayPal.ProPlanID,
	}
}

// Process applies a single webhook event.
func (s *Synchronizer) Process(event *WebhookEvent) {
	switch event.EventType {
	case EventSubscriptionActivated, EventSubscriptionCreated:
		s.activate(event)

	case EventSubscriptionCancelled, EventSubscriptionExpired, EventSubscriptionSuspended:
		subscriptionID := event.Resource.ID
		log.Printf("[PAYPAL] Subscription ended: %s", subscriptionID)

		matched, err := s.store.DeactivateSubscription(subscriptionID)
		if err != nil {
			log.Printf("[PAYPAL] Failed to deactivate subscription %s: %v", subscriptionID, err)
		} else if !matched {
			log.Printf("[PAYPAL] No account found for subscription %s", subscriptionID)
		}

	case EventPaymentSaleCompleted:
		// Recurring payment receipts carry no state we track.
		log.Printf("[PAYPAL] Payment completed: %s", event.Resource.ID)

	default:
		log.Printf("[PAYPAL] Unhandled event type: %s", event.EventType)
	}
}

func (s *Synchronizer) activate(event *WebhookEvent) {
	subscriptionID := event.Resource.ID
	email := event.Resource.Subscriber.EmailAddress

	log.Printf("[PAYPAL] Subscription activated: %s for %s", subscriptionID, email)

	if email == "" {
		log.Printf("[PAYPAL] Activation event %s has no subscriber email, skipping", subscriptionID)
		return
	}

	matched, err := s.store.ActivateSubscription(email, s.planFor(event.Resource.PlanID), subscriptionID)
	if err != nil {
		log.Printf("[PAYPAL] Failed to activate subscription for %s: %v", email, err)
	} else if !matched {
		log.Printf("[PAYPAL] No account found for email %s", email)
	}
}

func (s *Synchronizer) planFor(planID string) models.SubscriptionPlan {
	if planID == s.proPlanID {
		return models.PlanPro
	}
	return models.PlanTeam
}
