package models

import (
	"time"

	"github.com/google/uuid"
)

type AccountStatus string

const (
	AccountPending    AccountStatus = "pending"
	AccountEnabled    AccountStatus = "enabled"
	AccountRestricted AccountStatus = "restricted"
)

type SubscriptionStatus string

const (
	SubscriptionTrial    SubscriptionStatus = "trial"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionOverdue  SubscriptionStatus = "overdue"
	SubscriptionInactive SubscriptionStatus = "inactive"
)

type Organization struct {
	ID                  uuid.UUID          `db:"id"`
	Name                string             `db:"name"`
	GympassGymID        *int64             `db:"gympass_gym_id"`
	TotalPassGymCode    *string            `db:"totalpass_gym_code"`
	GympassAPIKey       *string            `db:"gympass_api_key"`
	TotalPassAPIKey     *string            `db:"totalpass_api_key"`
	StripeAccountID     *string            `db:"stripe_account_id"`
	StripeAccountStatus AccountStatus      `db:"stripe_account_status"`
	SubscriptionStatus  SubscriptionStatus `db:"subscription_status"`
	TrialEndsAt         *time.Time         `db:"trial_ends_at"`
	CreatedAt           time.Time          `db:"created_at"`
	UpdatedAt           time.Time          `db:"updated_at"`
}

// PayoutsEnabled — подключённый аккаунт Stripe может принимать платежи.
func (o *Organization) PayoutsEnabled() bool {
	return o != nil && o.StripeAccountID != nil && *o.StripeAccountID != "" && o.StripeAccountStatus == AccountEnabled
}
