package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/entitlement"
)

// Sentinel failures. Every credential mismatch collapses to
// ErrInvalidCredentials so callers can never learn which check failed.
var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrFamilyNotFound      = errors.New("family not found")
	ErrSystemNotConfigured = errors.New("system not configured")
)

// LockoutError is returned when an origin is locked out. It carries the
// retry-after duration, which is safe to disclose: it says nothing about
// credential validity.
type LockoutError struct {
	RetryAfter time.Duration
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("too many failed attempts, retry in %s", e.RetryAfter.Round(time.Second))
}

// FamilyExpiredError is returned when a family's billing has lapsed in
// hosted mode. The slug was supplied by the caller, so naming it leaks
// nothing; the detail lets the client render a renewal prompt.
type FamilyExpiredError struct {
	Slug      string
	Status    entitlement.Status
	ExpiredAt *time.Time
}

func (e *FamilyExpiredError) Error() string {
	return fmt.Sprintf("family %s subscription has expired", e.Slug)
}
