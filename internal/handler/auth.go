package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/auth"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/entitlement"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/middleware"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/model"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/store"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/token"
)

type AuthHandler struct {
	authenticator *auth.Authenticator
	tokens        *token.Service
	accounts      *store.AccountStore
	families      *store.FamilyStore
	trialDays     int
	hosted        bool
	now           func() time.Time
}

func NewAuthHandler(a *auth.Authenticator, tokens *token.Service, accounts *store.AccountStore, families *store.FamilyStore, trialDays int, hosted bool) *AuthHandler {
	return &AuthHandler{
		authenticator: a,
		tokens:        tokens,
		accounts:      accounts,
		families:      families,
		trialDays:     trialDays,
		hosted:        hosted,
		now:           time.Now,
	}
}

// loginRequest accepts every credential shape; the populated fields decide
// which arm is attempted.
type loginRequest struct {
	AdminPassword string `json:"admin_password,omitempty"`
	FamilySlug    string `json:"family_slug,omitempty"`
	SystemPIN     string `json:"system_pin,omitempty"`
	LoginID       string `json:"login_id,omitempty"`
	PIN           string `json:"pin,omitempty"`
	Email         string `json:"email,omitempty"`
	Password      string `json:"password,omitempty"`
}

func (req loginRequest) credentials() auth.Credentials {
	var c auth.Credentials
	switch {
	case req.AdminPassword != "":
		c.AdminPassword = &auth.AdminPasswordLogin{Password: req.AdminPassword}
	case req.Email != "":
		c.AccountLogin = &auth.AccountLogin{Email: req.Email, Password: req.Password}
	case req.LoginID != "":
		c.CaretakerLogin = &auth.CaretakerLogin{
			FamilySlug: req.FamilySlug,
			LoginID:    req.LoginID,
			PIN:        req.PIN,
		}
	case req.SystemPIN != "":
		c.SystemPIN = &auth.SystemPINLogin{FamilySlug: req.FamilySlug, PIN: req.SystemPIN}
	}
	return c
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON")
		return
	}

	origin := middleware.RealIP(r)
	result, err := h.authenticator.Authenticate(r.Context(), origin, req.credentials())
	if err != nil {
		h.writeLoginError(w, err)
		return
	}

	signed, err := h.tokens.Issue(result.Principal, result.Snapshot)
	if err != nil {
		log.Printf("failed to issue token: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "failed to issue token")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	res := result.Snapshot.Resolve(result.Principal.FamilyID != nil, h.now())
	writeJSON(w, http.StatusOK, map[string]any{
		"token":       signed,
		"principal":   result.Principal,
		"entitlement": map[string]any{"status": res.Status, "active": res.Active},
	})
}

func (h *AuthHandler) writeLoginError(w http.ResponseWriter, err error) {
	var lockErr *auth.LockoutError
	if errors.As(err, &lockErr) {
		w.Header().Set("Retry-After", strconv.Itoa(int(lockErr.RetryAfter.Seconds())))
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error": map[string]any{
				"code":                "LOCKED_OUT",
				"message":             lockErr.Error(),
				"retry_after_seconds": int(lockErr.RetryAfter.Seconds()),
			},
		})
		return
	}

	var expErr *auth.FamilyExpiredError
	if errors.As(err, &expErr) {
		writeJSON(w, http.StatusForbidden, map[string]any{
			"error": map[string]any{
				"code":        "SUBSCRIPTION_EXPIRED",
				"message":     expErr.Error(),
				"family_slug": expErr.Slug,
				"expired_at":  expErr.ExpiredAt,
			},
		})
		return
	}

	switch {
	case errors.Is(err, auth.ErrFamilyNotFound):
		writeError(w, http.StatusNotFound, "FAMILY_NOT_FOUND", "family not found")
	case errors.Is(err, auth.ErrSystemNotConfigured):
		writeError(w, http.StatusUnauthorized, "SYSTEM_NOT_CONFIGURED", "this login method is not configured")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid credentials")
	default:
		log.Printf("login failed: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "login failed")
	}
}

// Status reports the authenticated principal with its entitlement
// re-resolved from the database, so a renewal shows up without a new
// login. When the account cannot be loaded the token snapshot is
// resolved instead.
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, auth.DenialAuthRequired, "missing session token")
		return
	}

	res := h.liveResolution(ac)
	writeJSON(w, http.StatusOK, map[string]any{
		"principal": auth.Principal{
			Kind:       ac.Kind,
			ID:         ac.PrincipalID,
			Name:       ac.Name,
			Role:       ac.Role,
			FamilyID:   ac.FamilyID,
			FamilySlug: ac.FamilySlug,
		},
		"entitlement": map[string]any{
			"status":  res.Status,
			"active":  res.Active,
			"expired": !res.Writable(),
		},
	})
}

// liveResolution re-reads billing facts for the principal's account and
// resolves them fresh. Caretaker sessions reach the account through their
// family row.
func (h *AuthHandler) liveResolution(ac auth.AuthContext) entitlement.Resolution {
	stale := func() entitlement.Resolution {
		return ac.Entitlement.Resolve(ac.FamilyID != nil, h.now())
	}

	var account *model.Account
	var err error
	switch {
	case ac.Kind == auth.KindAccountHolder:
		account, err = h.accounts.GetByID(ac.PrincipalID)
	case ac.FamilyID != nil:
		family, ferr := h.families.GetByID(*ac.FamilyID)
		if ferr != nil || family == nil {
			err = ferr
			break
		}
		account, err = h.accounts.GetByID(family.AccountID)
	default:
		return stale()
	}
	if err != nil {
		log.Printf("failed to refresh entitlement: %v", err)
		return stale()
	}
	if account == nil {
		return stale()
	}
	return entitlement.Resolve(entitlement.AccountFacts(account), ac.FamilyID != nil, h.now())
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,38}[a-z0-9]$`)

type registerRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	FamilyName string `json:"family_name"`
	FamilySlug string `json:"family_slug"`
}

// Register creates an account with a fresh trial plus its family. Only
// meaningful in hosted mode; self-hosted deployments seed their family at
// install time.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FamilySlug = strings.ToLower(strings.TrimSpace(req.FamilySlug))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "valid email is required")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "password must be at least 8 characters")
		return
	}
	if !slugPattern.MatchString(req.FamilySlug) {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "family_slug must be 3-40 lowercase letters, digits, or hyphens")
		return
	}

	if existing, err := h.accounts.GetByEmail(req.Email); err != nil {
		log.Printf("failed to check email: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "registration failed")
		return
	} else if existing != nil {
		writeError(w, http.StatusConflict, "EMAIL_TAKEN", "email is already registered")
		return
	}
	if existing, err := h.families.GetBySlug(req.FamilySlug); err != nil {
		log.Printf("failed to check slug: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "registration failed")
		return
	} else if existing != nil {
		writeError(w, http.StatusConflict, "SLUG_TAKEN", "family slug is already in use")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("failed to hash password: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "registration failed")
		return
	}

	var trialEnds *time.Time
	if h.hosted && h.trialDays > 0 {
		t := h.now().AddDate(0, 0, h.trialDays)
		trialEnds = &t
	}

	account, err := h.accounts.Create(req.Email, string(hash), trialEnds)
	if err != nil {
		log.Printf("failed to create account: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "registration failed")
		return
	}

	name := req.FamilyName
	if name == "" {
		name = req.FamilySlug
	}
	family, err := h.families.Create(account.ID, req.FamilySlug, name)
	if err != nil {
		log.Printf("failed to create family: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "registration failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"account": account,
		"family":  family,
	})
}
