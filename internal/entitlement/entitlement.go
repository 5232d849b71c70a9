// Package entitlement derives subscription status from raw account billing
// facts. Resolution is a pure function of its inputs and a caller-supplied
// clock; nothing here touches storage.
package entitlement

import (
	"time"

	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/model"
)

// Status is the discrete entitlement state derived from billing facts.
// It is computed fresh every time it is needed and never stored.
type Status string

const (
	StatusActive   Status = "active"
	StatusTrial    Status = "trial"
	StatusExpired  Status = "expired"
	StatusClosed   Status = "closed"
	StatusNoFamily Status = "no_family"
)

// Facts are the raw billing fields resolution depends on.
type Facts struct {
	Closed          bool
	BetaParticipant bool
	PlanType        string
	PlanExpires     *time.Time
	TrialEnds       *time.Time
}

// Snapshot is the subset of Facts embedded in a session token at issuance.
// Closed accounts never get a token, so Closed is not carried.
type Snapshot struct {
	BetaParticipant bool
	PlanType        string
	PlanExpires     *time.Time
	TrialEnds       *time.Time
}

// Resolution pairs the derived status with whether the account counts as
// actively paying. A live trial is writable but deliberately not "active"
// for billing purposes.
type Resolution struct {
	Status Status
	Active bool
}

// AccountFacts extracts resolver inputs from an account record.
func AccountFacts(a *model.Account) Facts {
	if a == nil {
		return Facts{}
	}
	return Facts{
		Closed:          a.Closed,
		BetaParticipant: a.BetaParticipant,
		PlanType:        a.PlanType,
		PlanExpires:     a.PlanExpires,
		TrialEnds:       a.TrialEnds,
	}
}

// Facts widens a snapshot back into resolver inputs.
func (s Snapshot) Facts() Facts {
	return Facts{
		BetaParticipant: s.BetaParticipant,
		PlanType:        s.PlanType,
		PlanExpires:     s.PlanExpires,
		TrialEnds:       s.TrialEnds,
	}
}

// Resolve resolves a snapshot against the current clock.
func (s Snapshot) Resolve(hasFamily bool, now time.Time) Resolution {
	return Resolve(s.Facts(), hasFamily, now)
}

// Resolve derives the entitlement status. Precedence, first match wins:
//
//  1. closed account
//  2. no family (mid-onboarding; a stale trial field must not penalize it)
//  3. trial dates, live or lapsed
//  4. lifetime plan (never time-checked)
//  5. timed subscription (nil expiry is a data anomaly, treated as expired;
//     expiry exactly at now is still inside the plan)
//  6. beta participant (lifetime-equivalent grant)
//  7. expired
func Resolve(f Facts, hasFamily bool, now time.Time) Resolution {
	if f.Closed {
		return Resolution{Status: StatusClosed, Active: false}
	}

	if !hasFamily {
		return Resolution{Status: StatusNoFamily, Active: paidAccess(f, now)}
	}

	if f.TrialEnds != nil {
		if now.After(*f.TrialEnds) {
			return Resolution{Status: StatusExpired, Active: false}
		}
		return Resolution{Status: StatusTrial, Active: false}
	}

	switch f.PlanType {
	case model.PlanLifetime:
		return Resolution{Status: StatusActive, Active: true}
	case model.PlanSubscription:
		if f.PlanExpires == nil || now.After(*f.PlanExpires) {
			return Resolution{Status: StatusExpired, Active: false}
		}
		return Resolution{Status: StatusActive, Active: true}
	}

	if f.BetaParticipant {
		return Resolution{Status: StatusActive, Active: true}
	}

	return Resolution{Status: StatusExpired, Active: false}
}

// paidAccess reports whether plan/beta facts alone grant access. Trial is
// intentionally excluded: a family-less account's trial field may be stale
// and a trial is never an active paid subscription.
func paidAccess(f Facts, now time.Time) bool {
	switch f.PlanType {
	case model.PlanLifetime:
		return true
	case model.PlanSubscription:
		return f.PlanExpires != nil && !now.After(*f.PlanExpires)
	}
	return f.BetaParticipant
}

// Writable reports whether a resolution permits mutation in hosted mode.
// Only a lapsed entitlement blocks writes; trials and onboarding accounts
// keep full read/write access.
func (r Resolution) Writable() bool {
	return r.Status != StatusExpired && r.Status != StatusClosed
}
