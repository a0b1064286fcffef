// Package models defines subscription account, tier, and budget types.
package models

import "time"

type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

type SubscriptionStatus string

const (
	StatusActive    SubscriptionStatus = "active"
	StatusPastDue   SubscriptionStatus = "past_due"
	StatusCancelled SubscriptionStatus = "cancelled"
)

// App is the durable local record for one paying installation. Subscription
// fields are empty until the first checkout attempt and are only ever
// transitioned, never cleared by deletion.
type App struct {
	ID               int64              `db:"id"`
	Name             string             `db:"name"`
	AuthSubject      string             `db:"auth_subject"`
	Email            string             `db:"email"`
	StripeCustomerID string             `db:"stripe_customer_id"`
	SubscriptionID   string             `db:"subscription_id"`
	Status           SubscriptionStatus `db:"subscription_status"`
	Tier             Tier               `db:"subscription_tier"`
	CreatedAt        time.Time          `db:"created_at"`
}

// IsSubscribed reports whether the record grants Pro entitlement. An active
// status paired with the pro tier is the only combination that does.
func (a App) IsSubscribed() bool {
	return a.Tier == TierPro && a.Status == StatusActive
}

// UserBudget is a projection over subscription state and the Pro usage
// gateway. It is recomputed per query and never persisted.
type UserBudget struct {
	UsedCredits     float64   `json:"usedCredits"`
	TotalCredits    float64   `json:"totalCredits"`
	BudgetResetDate time.Time `json:"budgetResetDate"`
}

// RemainingCredits clamps total-used at zero so the display layer never
// shows a negative balance even when upstream data violates the invariant.
func (b UserBudget) RemainingCredits() float64 {
	remaining := b.TotalCredits - b.UsedCredits
	if remaining < 0 {
		return 0
	}
	return remaining
}

type CreateSubscriptionParams struct {
	UserID    string `json:"userId"`
	UserEmail string `json:"userEmail"`
	UserName  string `json:"userName,omitempty"`
	PriceID   string `json:"priceId"`
}

// CreateSubscriptionResult crosses the process boundary; failures ride the
// Error field instead of propagating as raw errors.
type CreateSubscriptionResult struct {
	Success   bool   `json:"success"`
	SessionID string `json:"sessionId,omitempty"`
	Error     string `json:"error,omitempty"`
}

type SubscriptionStatusResult struct {
	IsSubscribed bool `json:"isSubscribed"`
	Tier         Tier `json:"tier,omitempty"`
}
