// Package auth resolves submitted credentials into security principals and
// decides what an authenticated context may do. It owns the credential
// state machine, the error taxonomy, and the write-protection gate; token
// signing lives in internal/token and lockout accounting in internal/lockout.
package auth

// Kind identifies how a principal was authenticated.
type Kind string

const (
	// KindCaretaker is a regular caretaker who logged in with a
	// two-character login id and PIN.
	KindCaretaker Kind = "caretaker"
	// KindSystemCaretaker is the shared family device login backed by the
	// family's system PIN.
	KindSystemCaretaker Kind = "system_caretaker"
	// KindAccountHolder is the billing account owner (email + password).
	KindAccountHolder Kind = "account_holder"
	// KindSysAdmin is the operator, authenticated by the application-level
	// admin password. Sysadmins have no family scope.
	KindSysAdmin Kind = "sysadmin"
)

// Principal roles. USER and ADMIN come from the caretaker record; OWNER is
// the account holder; SYSADMIN is the operator.
const (
	RoleUser     = "USER"
	RoleAdmin    = "ADMIN"
	RoleOwner    = "OWNER"
	RoleSysAdmin = "SYSADMIN"
)

// Principal is the authenticated identity minted by a successful login.
// It is embedded in the session token and never persisted server-side.
type Principal struct {
	Kind       Kind   `json:"kind"`
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	FamilyID   *int64 `json:"family_id,omitempty"`
	FamilySlug string `json:"family_slug,omitempty"`
}
