package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User represents a user account together with its entitlement profile.
// The profile fields (credits, subscription state) live on the same row
// because they are created at signup and have the same lifetime.
type User struct {
	ID                   string             `json:"id" db:"id"`
	Email                string             `json:"email" db:"email"`
	Password             string             `json:"-" db:"password"`
	FreeCredits          int                `json:"free_credits" db:"free_credits"`
	SubscriptionStatus   SubscriptionStatus `json:"subscription_status" db:"subscription_status"`
	SubscriptionPlan     *SubscriptionPlan  `json:"subscription_plan" db:"subscription_plan"`
	PayPalSubscriptionID *string            `json:"paypal_subscription_id,omitempty" db:"paypal_subscription_id"`
	CreatedAt            time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at" db:"updated_at"`
}

// Token represents an API token
type Token struct {
	ID        string     `json:"id" db:"id"`
	UserID    string     `json:"user_id"`
	Token     string     `json:"token"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// ValidatePassword checks if the provided password matches the user's password
func (u *User) ValidatePassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// HasActiveSubscription reports whether the user is on a paid plan.
func (u *User) HasActiveSubscription() bool {
	return u.SubscriptionStatus == SubscriptionActive
}
