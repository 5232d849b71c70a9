package auth

import (
	"time"

	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/model"
)

// Denial codes for requests the write gate refuses.
const (
	DenialAuthRequired    = "AUTH_REQUIRED"
	DenialTrialExpired    = "TRIAL_EXPIRED"
	DenialPlanExpired     = "PLAN_EXPIRED"
	DenialNeverSubscribed = "NEVER_SUBSCRIBED"
)

// Denial explains why a mutation was refused. Code distinguishes the three
// expiration shapes so the client can show the right renewal path.
type Denial struct {
	Code       string     `json:"code"`
	Message    string     `json:"message"`
	FamilySlug string     `json:"family_slug,omitempty"`
	ExpiredAt  *time.Time `json:"expired_at,omitempty"`
}

// CheckWrite decides whether the authenticated context may mutate data.
// Reads are never gated; expiration is soft and only blocks writes, and
// only in hosted mode. A nil return means the write may proceed.
func CheckWrite(ac AuthContext, hosted bool, now time.Time) *Denial {
	if !hosted {
		return nil
	}
	if ac.IsSysAdmin() {
		return nil
	}

	res := ac.Entitlement.Resolve(ac.FamilyID != nil, now)
	if res.Writable() {
		return nil
	}

	snap := ac.Entitlement
	switch {
	case snap.TrialEnds != nil:
		return &Denial{
			Code:       DenialTrialExpired,
			Message:    "trial has ended, subscribe to keep adding records",
			FamilySlug: ac.FamilySlug,
			ExpiredAt:  snap.TrialEnds,
		}
	case snap.PlanType == model.PlanSubscription:
		return &Denial{
			Code:       DenialPlanExpired,
			Message:    "subscription has lapsed, renew to keep adding records",
			FamilySlug: ac.FamilySlug,
			ExpiredAt:  snap.PlanExpires,
		}
	default:
		return &Denial{
			Code:       DenialNeverSubscribed,
			Message:    "no active subscription",
			FamilySlug: ac.FamilySlug,
		}
	}
}
