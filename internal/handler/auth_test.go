package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/auth"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/database"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/entitlement"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/model"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/store"
)

func setupStatusTest(t *testing.T) *AuthHandler {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	accounts := store.NewAccountStore(db)
	families := store.NewFamilyStore(db)
	return NewAuthHandler(nil, nil, accounts, families, 14, true)
}

func statusResponse(t *testing.T, h *AuthHandler, ac auth.AuthContext) map[string]any {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/api/auth/status", nil)
	req = req.WithContext(auth.WithAuth(req.Context(), ac))
	rec := httptest.NewRecorder()
	h.Status(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	ent, ok := body["entitlement"].(map[string]any)
	if !ok {
		t.Fatalf("no entitlement in response: %v", body)
	}
	return ent
}

func TestStatusReflectsRenewalAfterTokenIssued(t *testing.T) {
	h := setupStatusTest(t)

	staleEnd := time.Now().Add(-48 * time.Hour)
	account, err := h.accounts.Create("parent@example.com", "hash", &staleEnd)
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	family, err := h.families.Create(account.ID, "smith", "Smith")
	if err != nil {
		t.Fatalf("create family: %v", err)
	}

	// The account renewed after this token's snapshot was taken.
	if err := h.accounts.UpdatePlan(account.ID, model.PlanLifetime, nil); err != nil {
		t.Fatalf("update plan: %v", err)
	}

	ac := auth.AuthContext{
		Kind:        auth.KindAccountHolder,
		PrincipalID: account.ID,
		FamilyID:    &family.ID,
		FamilySlug:  family.Slug,
		Entitlement: entitlement.Snapshot{TrialEnds: &staleEnd},
	}
	ent := statusResponse(t, h, ac)

	if ent["status"] != string(entitlement.StatusActive) {
		t.Errorf("status = %v, want %v", ent["status"], entitlement.StatusActive)
	}
	if ent["active"] != true {
		t.Error("renewed account should report active")
	}
	if ent["expired"] != false {
		t.Error("renewed account should not report expired")
	}
}

func TestStatusCaretakerResolvesThroughFamily(t *testing.T) {
	h := setupStatusTest(t)

	staleEnd := time.Now().Add(-48 * time.Hour)
	account, err := h.accounts.Create("parent@example.com", "hash", &staleEnd)
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	family, err := h.families.Create(account.ID, "smith", "Smith")
	if err != nil {
		t.Fatalf("create family: %v", err)
	}
	if err := h.accounts.UpdatePlan(account.ID, model.PlanLifetime, nil); err != nil {
		t.Fatalf("update plan: %v", err)
	}

	ac := auth.AuthContext{
		Kind:        auth.KindCaretaker,
		PrincipalID: 99,
		Role:        auth.RoleUser,
		FamilyID:    &family.ID,
		FamilySlug:  family.Slug,
		Entitlement: entitlement.Snapshot{TrialEnds: &staleEnd},
	}
	ent := statusResponse(t, h, ac)

	if ent["status"] != string(entitlement.StatusActive) {
		t.Errorf("status = %v, want %v", ent["status"], entitlement.StatusActive)
	}
}

func TestStatusFallsBackToSnapshotWithoutAccount(t *testing.T) {
	h := setupStatusTest(t)

	futureEnd := time.Now().Add(48 * time.Hour)
	missingFamily := int64(12345)
	ac := auth.AuthContext{
		Kind:        auth.KindCaretaker,
		PrincipalID: 7,
		FamilyID:    &missingFamily,
		Entitlement: entitlement.Snapshot{TrialEnds: &futureEnd},
	}
	ent := statusResponse(t, h, ac)

	if ent["status"] != string(entitlement.StatusTrial) {
		t.Errorf("status = %v, want %v", ent["status"], entitlement.StatusTrial)
	}
}
