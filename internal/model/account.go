package model

import "time"

// Plan types carried on an account. An empty plan type means the account
// has never subscribed.
const (
	PlanSubscription = "subscription"
	PlanLifetime     = "lifetime"
)

type Account struct {
	ID               int64      `json:"id"`
	Email            string     `json:"email"`
	Closed           bool       `json:"closed"`
	BetaParticipant  bool       `json:"beta_participant"`
	PlanType         string     `json:"plan_type,omitempty"`
	PlanExpires      *time.Time `json:"plan_expires,omitempty"`
	TrialEnds        *time.Time `json:"trial_ends,omitempty"`
	StripeCustomerID *string    `json:"stripe_customer_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
