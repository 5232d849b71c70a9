package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/auth"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/entitlement"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/model"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/token"
)

const testSecret = "test-secret-at-least-32-bytes-long!"

func issueTestToken(t *testing.T, tokens *token.Service, p auth.Principal, snap entitlement.Snapshot) string {
	t.Helper()
	raw, err := tokens.Issue(p, snap)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return raw
}

func caretakerPrincipal() auth.Principal {
	fid := int64(7)
	return auth.Principal{
		Kind:       auth.KindCaretaker,
		ID:         42,
		Name:       "Robin",
		Role:       model.RoleUser,
		FamilyID:   &fid,
		FamilySlug: "smith",
	}
}

// capture records the AuthContext the middleware installed.
func capture(got *auth.AuthContext) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, _ := auth.FromContext(r.Context())
		*got = ac
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireSessionMissingToken(t *testing.T) {
	tokens := token.NewService(testSecret, time.Hour)
	handler := RequireSession(tokens, nil)(capture(&auth.AuthContext{}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/children", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error.Code != auth.DenialAuthRequired {
		t.Errorf("code = %q, want %q", body.Error.Code, auth.DenialAuthRequired)
	}
}

func TestRequireSessionBearerToken(t *testing.T) {
	tokens := token.NewService(testSecret, time.Hour)
	future := time.Now().Add(24 * time.Hour)

	var got auth.AuthContext
	handler := RequireSession(tokens, nil)(capture(&got))

	raw := issueTestToken(t, tokens, caretakerPrincipal(), entitlement.Snapshot{TrialEnds: &future})
	req := httptest.NewRequest("GET", "/api/children", nil)
	req.Header.Set("Authorization", "Bearer "+raw)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rr.Code, rr.Body.String())
	}
	if got.PrincipalID != 42 {
		t.Errorf("principal id = %d, want 42", got.PrincipalID)
	}
	if got.FamilyID == nil || *got.FamilyID != 7 {
		t.Errorf("family id = %v, want 7", got.FamilyID)
	}
	if got.IsExpired {
		t.Error("live trial flagged expired")
	}
}

func TestRequireSessionCookieFallback(t *testing.T) {
	tokens := token.NewService(testSecret, time.Hour)

	var got auth.AuthContext
	handler := RequireSession(tokens, nil)(capture(&got))

	raw := issueTestToken(t, tokens, caretakerPrincipal(), entitlement.Snapshot{PlanType: model.PlanLifetime})
	req := httptest.NewRequest("GET", "/api/children", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: raw})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if got.PrincipalID != 42 {
		t.Errorf("principal id = %d, want 42", got.PrincipalID)
	}
}

func TestRequireSessionBearerBeatsCookie(t *testing.T) {
	tokens := token.NewService(testSecret, time.Hour)

	var got auth.AuthContext
	handler := RequireSession(tokens, nil)(capture(&got))

	bearer := issueTestToken(t, tokens, caretakerPrincipal(), entitlement.Snapshot{PlanType: model.PlanLifetime})
	other := caretakerPrincipal()
	other.ID = 99
	cookie := issueTestToken(t, tokens, other, entitlement.Snapshot{PlanType: model.PlanLifetime})

	req := httptest.NewRequest("GET", "/api/children", nil)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: cookie})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got.PrincipalID != 42 {
		t.Errorf("principal id = %d, want the bearer token's 42", got.PrincipalID)
	}
}

func TestRequireSessionExpiredToken(t *testing.T) {
	// Negative lifetime mints a token that is already past its expiry.
	tokens := token.NewService(testSecret, -time.Hour)

	handler := RequireSession(tokens, nil)(capture(&auth.AuthContext{}))

	raw := issueTestToken(t, tokens, caretakerPrincipal(), entitlement.Snapshot{})
	req := httptest.NewRequest("GET", "/api/children", nil)
	req.Header.Set("Authorization", "Bearer "+raw)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
}

func TestRequireSessionRecomputesEntitlement(t *testing.T) {
	tokens := token.NewService(testSecret, time.Hour)

	// The trial was live at issuance but has since lapsed; the middleware
	// clock, not the token, decides.
	past := time.Now().Add(-time.Minute)

	var got auth.AuthContext
	handler := RequireSession(tokens, nil)(capture(&got))

	raw := issueTestToken(t, tokens, caretakerPrincipal(), entitlement.Snapshot{TrialEnds: &past})
	req := httptest.NewRequest("GET", "/api/children", nil)
	req.Header.Set("Authorization", "Bearer "+raw)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, expired sessions still read", rr.Code)
	}
	if !got.IsExpired {
		t.Error("lapsed trial not flagged expired")
	}
}

func TestRequireWritableDeniesExpired(t *testing.T) {
	past := time.Now().Add(-time.Minute)
	fid := int64(7)
	ac := auth.AuthContext{
		Kind:        auth.KindCaretaker,
		FamilyID:    &fid,
		FamilySlug:  "smith",
		Entitlement: entitlement.Snapshot{TrialEnds: &past},
		IsExpired:   true,
	}

	handler := RequireWritable(true, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached despite denial")
	}))

	req := httptest.NewRequest("POST", "/api/feeds", nil)
	req = req.WithContext(auth.WithAuth(req.Context(), ac))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rr.Code)
	}
	var body struct {
		Error auth.Denial `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error.Code != auth.DenialTrialExpired {
		t.Errorf("code = %q, want %q", body.Error.Code, auth.DenialTrialExpired)
	}
	if body.Error.FamilySlug != "smith" {
		t.Errorf("family slug = %q, want %q", body.Error.FamilySlug, "smith")
	}
}

func TestRequireWritableSelfHosted(t *testing.T) {
	past := time.Now().Add(-time.Minute)
	fid := int64(7)
	ac := auth.AuthContext{
		Kind:        auth.KindCaretaker,
		FamilyID:    &fid,
		Entitlement: entitlement.Snapshot{TrialEnds: &past},
	}

	called := false
	handler := RequireWritable(false, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest("POST", "/api/feeds", nil)
	req = req.WithContext(auth.WithAuth(req.Context(), ac))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !called {
		t.Error("self-hosted write blocked")
	}
}

func TestRequireAdmin(t *testing.T) {
	handler := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, tt := range []struct {
		role string
		want int
	}{
		{model.RoleAdmin, http.StatusOK},
		{auth.RoleOwner, http.StatusOK},
		{model.RoleUser, http.StatusForbidden},
	} {
		req := httptest.NewRequest("POST", "/api/caretakers", nil)
		req = req.WithContext(auth.WithAuth(req.Context(), auth.AuthContext{Kind: auth.KindCaretaker, Role: tt.role}))

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != tt.want {
			t.Errorf("role %q: status = %d, want %d", tt.role, rr.Code, tt.want)
		}
	}
}

func TestRequireSysAdmin(t *testing.T) {
	handler := RequireSysAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/admin/families", nil)
	req = req.WithContext(auth.WithAuth(req.Context(), auth.AuthContext{Kind: auth.KindSysAdmin}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("sysadmin: status = %d, want 200", rr.Code)
	}

	req = httptest.NewRequest("GET", "/api/admin/families", nil)
	req = req.WithContext(auth.WithAuth(req.Context(), auth.AuthContext{Kind: auth.KindCaretaker}))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("caretaker: status = %d, want 403", rr.Code)
	}
}
