package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/auth"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/token"
)

// SessionCookieName is the fallback token carrier for browser clients. A
// Bearer header always wins when both are present.
const SessionCookieName = "sprout_session"

// RequireSession verifies the session token and populates AuthContext.
// The token's entitlement facts are re-resolved against the current clock
// on every request; the expiration state is never trusted from the token
// itself, so a session that outlives a trial flips to expired mid-session.
func RequireSession(tokens *token.Service, now func() time.Time) func(http.Handler) http.Handler {
	if now == nil {
		now = time.Now
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				if cookie, err := r.Cookie(SessionCookieName); err == nil {
					raw = cookie.Value
				}
			}
			if raw == "" {
				unauthorized(w, "missing session token")
				return
			}

			claims, err := tokens.Verify(raw)
			if err != nil {
				if errors.Is(err, token.ErrTokenExpired) {
					unauthorized(w, "session expired")
					return
				}
				unauthorized(w, "invalid session token")
				return
			}

			p := claims.Principal()
			snap := claims.Snapshot()
			res := snap.Resolve(p.FamilyID != nil, now())

			ac := auth.AuthContext{
				Kind:        p.Kind,
				PrincipalID: p.ID,
				Name:        p.Name,
				Role:        p.Role,
				FamilyID:    p.FamilyID,
				FamilySlug:  p.FamilySlug,
				Entitlement: snap,
				IsExpired:   !res.Writable(),
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireWritable blocks mutations for expired entitlements in hosted mode.
// It must run after RequireSession.
func RequireWritable(hosted bool, now func() time.Time) func(http.Handler) http.Handler {
	if now == nil {
		now = time.Now
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac, ok := auth.FromContext(r.Context())
			if !ok {
				unauthorized(w, "missing session token")
				return
			}
			if denial := auth.CheckWrite(ac, hosted, now()); denial != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				json.NewEncoder(w).Encode(map[string]any{"error": denial})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin checks that the principal may manage its family. It must
// run after RequireSession.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAdmin(r.Context()) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSysAdmin restricts a route to the operator.
func RequireSysAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok || !ac.IsSysAdmin() {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": auth.DenialAuthRequired, "message": msg},
	})
}
