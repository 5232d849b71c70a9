package auth

import (
	"context"

	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/entitlement"
)

type contextKey struct{}

// AuthContext is the per-request authenticated state reconstructed from a
// verified session token. Entitlement carries the billing facts as of token
// issuance; IsExpired is always recomputed against the current clock by the
// session middleware, never read out of the token.
type AuthContext struct {
	Kind        Kind
	PrincipalID int64
	Name        string
	Role        string
	FamilyID    *int64
	FamilySlug  string
	Entitlement entitlement.Snapshot
	IsExpired   bool
}

// IsSysAdmin reports whether the principal is the operator.
func (ac AuthContext) IsSysAdmin() bool {
	return ac.Kind == KindSysAdmin
}

// IsAccountAuth reports whether the principal is the billing account owner.
func (ac AuthContext) IsAccountAuth() bool {
	return ac.Kind == KindAccountHolder
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

// FamilyID returns the authenticated family scope, or 0 when the context is
// missing or the principal has no family.
func FamilyID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok || ac.FamilyID == nil {
		return 0
	}
	return *ac.FamilyID
}

// IsAdmin reports whether the principal may manage caretakers and settings
// for its family.
func IsAdmin(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	switch ac.Role {
	case RoleAdmin, RoleOwner, RoleSysAdmin:
		return true
	}
	return false
}
