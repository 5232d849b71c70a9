// Package lockout tracks failed login attempts per network origin and
// enforces a sliding-window lockout. The ledger is the only shared mutable
// state in the authentication path; it is kept behind an interface so
// single-instance deployments use an in-process map and multi-instance
// deployments share state through Redis.
package lockout

import (
	"context"
	"time"
)

// Status is the result of a lockout check.
type Status struct {
	Locked    bool
	Remaining time.Duration
	Failures  int
}

// Ledger records failed login attempts keyed by network origin.
//
// Check must be consulted before any credential comparison. RecordFailure
// is called on every rejected credential; calling it while an origin is
// already locked out never extends or resets the lockout window.
// ResetSuccess clears all state for the origin.
type Ledger interface {
	Check(ctx context.Context, origin string) (Status, error)
	RecordFailure(ctx context.Context, origin string) error
	ResetSuccess(ctx context.Context, origin string) error
}

// Config is the lockout policy: Threshold failures within Window trigger a
// lockout of Duration.
type Config struct {
	Threshold int
	Window    time.Duration
	Duration  time.Duration
}

func (c Config) withDefaults() Config {
	if c.Threshold <= 0 {
		c.Threshold = 5
	}
	if c.Window <= 0 {
		c.Window = 15 * time.Minute
	}
	if c.Duration <= 0 {
		c.Duration = 15 * time.Minute
	}
	return c
}
