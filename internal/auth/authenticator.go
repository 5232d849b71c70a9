package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/entitlement"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/lockout"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/model"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/store"
)

// SystemLoginID is reserved for the auto-created system caretaker. It is
// only accepted while a family authenticates in SYSTEM mode; once regular
// caretakers exist the id is dead even if the stored mode hasn't been
// migrated yet.
const SystemLoginID = "00"

const systemCaretakerName = "system"

// Config is the authenticator's static policy.
type Config struct {
	// Hosted enables entitlement enforcement at login. Self-hosted
	// deployments never check billing.
	Hosted bool
	// AdminPassword is the operator password. Empty disables the admin
	// credential arm entirely.
	AdminPassword string
}

// Result is a successful authentication: the minted principal plus the
// entitlement facts captured for the session token.
type Result struct {
	Principal Principal
	Snapshot  entitlement.Snapshot
}

// Authenticator turns submitted credentials into principals. All failure
// paths that involve a caller-supplied secret feed the lockout ledger.
type Authenticator struct {
	accounts   *store.AccountStore
	families   *store.FamilyStore
	caretakers *store.CaretakerStore
	settings   *store.SettingsStore
	ledger     lockout.Ledger
	cfg        Config
	logger     *slog.Logger
	now        func() time.Time
}

func NewAuthenticator(
	accounts *store.AccountStore,
	families *store.FamilyStore,
	caretakers *store.CaretakerStore,
	settings *store.SettingsStore,
	ledger lockout.Ledger,
	cfg Config,
	logger *slog.Logger,
) *Authenticator {
	return &Authenticator{
		accounts:   accounts,
		families:   families,
		caretakers: caretakers,
		settings:   settings,
		ledger:     ledger,
		cfg:        cfg,
		logger:     logger.With("component", "auth"),
		now:        time.Now,
	}
}

// Authenticate runs the full login sequence for one attempt from origin.
// The lockout check runs before anything else, so a locked origin gets
// LockoutError even when its credentials are correct.
func (a *Authenticator) Authenticate(ctx context.Context, origin string, creds Credentials) (*Result, error) {
	status, err := a.ledger.Check(ctx, origin)
	if err != nil {
		return nil, fmt.Errorf("lockout check: %w", err)
	}
	if status.Locked {
		return nil, &LockoutError{RetryAfter: status.Remaining}
	}

	if err := creds.Validate(); err != nil {
		a.recordFailure(ctx, origin)
		return nil, ErrInvalidCredentials
	}

	switch {
	case creds.AdminPassword != nil:
		return a.authenticateAdmin(ctx, origin, creds.AdminPassword.Password)
	case creds.AccountLogin != nil:
		return a.authenticateAccount(ctx, origin, creds.AccountLogin)
	case creds.SystemPIN != nil:
		return a.authenticateFamily(ctx, origin, creds.SystemPIN.FamilySlug, func(f *model.Family, authType string) (*Result, error) {
			return a.trySystemPIN(ctx, origin, f, authType, creds.SystemPIN.PIN)
		})
	default:
		return a.authenticateFamily(ctx, origin, creds.CaretakerLogin.FamilySlug, func(f *model.Family, authType string) (*Result, error) {
			return a.tryCaretaker(ctx, origin, f, authType, creds.CaretakerLogin)
		})
	}
}

func (a *Authenticator) authenticateAdmin(ctx context.Context, origin, password string) (*Result, error) {
	if a.cfg.AdminPassword == "" {
		// Deliberately not a ledger event: the arm is disabled, not probed.
		return nil, ErrSystemNotConfigured
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(a.cfg.AdminPassword)) != 1 {
		a.recordFailure(ctx, origin)
		return nil, ErrInvalidCredentials
	}

	a.resetSuccess(ctx, origin)
	a.logger.Info("sysadmin login", "origin", origin)
	return &Result{
		Principal: Principal{
			Kind: KindSysAdmin,
			Name: "sysadmin",
			Role: RoleSysAdmin,
		},
	}, nil
}

func (a *Authenticator) authenticateAccount(ctx context.Context, origin string, creds *AccountLogin) (*Result, error) {
	account, err := a.accounts.GetByEmail(creds.Email)
	if err != nil {
		return nil, err
	}
	if account == nil || account.Closed {
		a.recordFailure(ctx, origin)
		return nil, ErrInvalidCredentials
	}

	hash, err := a.accounts.PasswordHash(account.ID)
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(creds.Password)) != nil {
		a.recordFailure(ctx, origin)
		return nil, ErrInvalidCredentials
	}

	p := Principal{
		Kind: KindAccountHolder,
		ID:   account.ID,
		Name: account.Email,
		Role: RoleOwner,
	}
	family, err := a.families.GetByAccountID(account.ID)
	if err != nil {
		return nil, err
	}
	if family != nil {
		p.FamilyID = &family.ID
		p.FamilySlug = family.Slug
	}

	a.resetSuccess(ctx, origin)
	a.logger.Info("account login", "account_id", account.ID)
	return &Result{Principal: p, Snapshot: snapshotOf(account)}, nil
}

// authenticateFamily resolves the family slug, enforces entitlement in
// hosted mode, detects the auth mode, and hands off to the arm-specific
// check. Mode detection and the hosted gate both run before any PIN is
// compared so a dead family never leaks credential validity.
func (a *Authenticator) authenticateFamily(ctx context.Context, origin, slug string, try func(*model.Family, string) (*Result, error)) (*Result, error) {
	family, err := a.families.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	if family == nil || !family.IsActive {
		a.recordFailure(ctx, origin)
		return nil, ErrFamilyNotFound
	}

	account, err := a.accounts.GetByID(family.AccountID)
	if err != nil {
		return nil, err
	}

	if a.cfg.Hosted {
		res := entitlement.Resolve(entitlement.AccountFacts(account), true, a.now())
		if !res.Writable() {
			a.recordFailure(ctx, origin)
			return nil, &FamilyExpiredError{
				Slug:      slug,
				Status:    res.Status,
				ExpiredAt: expiryOf(account),
			}
		}
	}

	authType, err := a.detectAuthType(family.ID)
	if err != nil {
		return nil, err
	}

	result, err := try(family, authType)
	if err != nil {
		return nil, err
	}

	// Persist the detected mode only after a successful login, and only if
	// nothing else has set it in the meantime.
	if _, err := a.settings.SetAuthTypeIfUnset(family.ID, authType); err != nil {
		a.logger.Warn("persist auth type", "family_id", family.ID, "error", err)
	}

	result.Snapshot = snapshotOf(account)
	a.resetSuccess(ctx, origin)
	return result, nil
}

// detectAuthType returns the family's stored auth mode, or derives it from
// the caretaker roster when unset: two or more regular caretakers means
// CARETAKER mode, otherwise SYSTEM.
func (a *Authenticator) detectAuthType(familyID int64) (string, error) {
	settings, err := a.settings.Ensure(familyID)
	if err != nil {
		return "", err
	}
	if settings.AuthType != "" {
		return settings.AuthType, nil
	}

	n, err := a.caretakers.CountRegular(familyID)
	if err != nil {
		return "", err
	}
	if n >= 2 {
		return model.AuthTypeCaretaker, nil
	}
	return model.AuthTypeSystem, nil
}

func (a *Authenticator) trySystemPIN(ctx context.Context, origin string, family *model.Family, authType, pin string) (*Result, error) {
	if authType != model.AuthTypeSystem {
		a.recordFailure(ctx, origin)
		return nil, ErrInvalidCredentials
	}

	hash, err := a.settings.SystemPINHash(family.ID)
	if err != nil {
		return nil, err
	}
	if hash == "" {
		a.recordFailure(ctx, origin)
		return nil, ErrSystemNotConfigured
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) != nil {
		a.recordFailure(ctx, origin)
		return nil, ErrInvalidCredentials
	}

	// The backing caretaker row is created lazily on first system login.
	// The unique index on (family_id, login_id) makes racing logins
	// converge on one row.
	sys, err := a.caretakers.EnsureSystem(family.ID, SystemLoginID, systemCaretakerName)
	if err != nil {
		return nil, err
	}

	a.logger.Info("system login", "family_id", family.ID)
	return &Result{
		Principal: Principal{
			Kind:       KindSystemCaretaker,
			ID:         sys.ID,
			Name:       sys.Name,
			Role:       RoleAdmin,
			FamilyID:   &family.ID,
			FamilySlug: family.Slug,
		},
	}, nil
}

func (a *Authenticator) tryCaretaker(ctx context.Context, origin string, family *model.Family, authType string, creds *CaretakerLogin) (*Result, error) {
	if creds.LoginID == SystemLoginID {
		// The reserved id is never a caretaker credential outside SYSTEM
		// mode, and even there only through the system PIN arm.
		reject := authType == model.AuthTypeCaretaker
		if !reject {
			n, err := a.caretakers.CountRegular(family.ID)
			if err != nil {
				return nil, err
			}
			reject = n > 0
		}
		if reject {
			a.recordFailure(ctx, origin)
			return nil, ErrInvalidCredentials
		}
	}

	caretaker, hash, err := a.caretakers.GetForLogin(family.ID, creds.LoginID)
	if err != nil {
		return nil, err
	}
	if caretaker == nil || !caretaker.IsActive || caretaker.DeletedAt != nil || hash == "" {
		a.recordFailure(ctx, origin)
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(creds.PIN)) != nil {
		a.recordFailure(ctx, origin)
		return nil, ErrInvalidCredentials
	}

	kind := KindCaretaker
	if caretaker.IsSystem {
		kind = KindSystemCaretaker
	}

	a.logger.Info("caretaker login", "family_id", family.ID, "caretaker_id", caretaker.ID)
	return &Result{
		Principal: Principal{
			Kind:       kind,
			ID:         caretaker.ID,
			Name:       caretaker.Name,
			Role:       caretaker.Role,
			FamilyID:   &family.ID,
			FamilySlug: family.Slug,
		},
	}, nil
}

func (a *Authenticator) recordFailure(ctx context.Context, origin string) {
	if err := a.ledger.RecordFailure(ctx, origin); err != nil {
		a.logger.Warn("record login failure", "origin", origin, "error", err)
	}
}

func (a *Authenticator) resetSuccess(ctx context.Context, origin string) {
	if err := a.ledger.ResetSuccess(ctx, origin); err != nil {
		a.logger.Warn("reset lockout", "origin", origin, "error", err)
	}
}

func snapshotOf(account *model.Account) entitlement.Snapshot {
	if account == nil {
		return entitlement.Snapshot{}
	}
	return entitlement.Snapshot{
		BetaParticipant: account.BetaParticipant,
		PlanType:        account.PlanType,
		PlanExpires:     account.PlanExpires,
		TrialEnds:       account.TrialEnds,
	}
}

// expiryOf picks the timestamp to surface in an expiration error: the trial
// end when the family never converted, otherwise the plan expiry.
func expiryOf(account *model.Account) *time.Time {
	if account == nil {
		return nil
	}
	if account.TrialEnds != nil {
		return account.TrialEnds
	}
	return account.PlanExpires
}
