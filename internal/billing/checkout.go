package billing

import (
	"encoding/base64"
	"fmt"
	"log"

	"github.com/StudyForge-io/studyforge/internal/config"
	"github.com/StudyForge-io/studyforge/internal/models"
	"github.com/skip2/go-qrcode"
)

const paypalSubscribeURL = "https://www.paypal.com/webapps/billing/plans/subscribe"

// Plan describes one purchasable subscription tier.
type Plan struct {
	ID          string                  `json:"id"`
	Name        string                  `json:"name"`
	Plan        models.SubscriptionPlan `json:"plan"`
	PriceUSD    float64                 `json:"price_usd"`
	Description string                  `json:"description"`
}

// Checkout builds approval links for the configured PayPal plans.
type Checkout struct {
	plans []Plan
}

// NewCheckout builds the plan catalog from configuration. Plans without a
// configured PayPal plan ID are left out of the catalog.
func NewCheckout(cfg *config.Config) *Checkout {
	var plans []Plan
	if cfg.PayPal.ProPlanID != "" {
		plans = append(plans, Plan{
			ID:          cfg.PayPal.ProPlanID,
			Name:        "Pro",
			Plan:        models.PlanPro,
			PriceUSD:    9.99,
			Description: "Unlimited study material generations and homework help",
		})
	}
	if cfg.PayPal.TeamPlanID != "" {
		plans = append(plans, Plan{
			ID:          cfg.PayPal.TeamPlanID,
			Name:        "Team",
			Plan:        models.PlanTeam,
			PriceUSD:    24.99,
			Description: "Everything in Pro, shared across a study group",
		})
	}
	return &Checkout{plans: plans}
}

// Plans returns the purchasable catalog.
func (c *Checkout) Plans() []Plan {
	return c.plans
}

// ApprovalURL returns the PayPal subscribe link for a catalog plan.
func (c *Checkout) ApprovalURL(planID string) (string, error) {
	for _, p := range c.plans {
		if p.ID == planID {
			return fmt.Sprintf("%s?plan_id=%s", paypalSubscribeURL, p.ID), nil
		}
	}
	return "", fmt.Errorf("unknown plan: %s", planID)
}

// ApprovalQRCode renders the subscribe link as a base64 PNG so clients can
// show a scannable checkout code.
func (c *Checkout) ApprovalQRCode(planID string) (string, error) {
	approvalURL, err := c.ApprovalURL(planID)
	if err != nil {
		return "", err
	}

	qrCode, err := qrcode.Encode(approvalURL, qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("failed to generate QR code: %v", err)
	}

	log.Printf("[PAYPAL] Generated checkout QR code for plan %s", planID)
	return base64.StdEncoding.EncodeToString(qrCode), nil
}
