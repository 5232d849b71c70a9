package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/database"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/model"
)

func setupAccountTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestAccountCreateAndLookup(t *testing.T) {
	db := setupAccountTestDB(t)
	accounts := NewAccountStore(db)

	trialEnds := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	created, err := accounts.Create("parent@example.com", "hash", &trialEnds)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Email != "parent@example.com" {
		t.Errorf("email = %q, want %q", created.Email, "parent@example.com")
	}
	if created.TrialEnds == nil || !created.TrialEnds.Equal(trialEnds) {
		t.Errorf("trial ends = %v, want %v", created.TrialEnds, trialEnds)
	}
	if created.Closed {
		t.Error("new account should not be closed")
	}

	byEmail, err := accounts.GetByEmail("parent@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if byEmail == nil || byEmail.ID != created.ID {
		t.Errorf("GetByEmail = %+v, want id %d", byEmail, created.ID)
	}

	missing, err := accounts.GetByEmail("nobody@example.com")
	if err != nil {
		t.Fatalf("GetByEmail missing: %v", err)
	}
	if missing != nil {
		t.Errorf("GetByEmail missing = %+v, want nil", missing)
	}

	hash, err := accounts.PasswordHash(created.ID)
	if err != nil {
		t.Fatalf("PasswordHash: %v", err)
	}
	if hash != "hash" {
		t.Errorf("password hash = %q, want %q", hash, "hash")
	}
}

func TestAccountEmailUnique(t *testing.T) {
	db := setupAccountTestDB(t)
	accounts := NewAccountStore(db)

	if _, err := accounts.Create("parent@example.com", "hash", nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := accounts.Create("parent@example.com", "hash2", nil); err == nil {
		t.Error("duplicate email accepted")
	}
}

func TestAccountUpdatePlanClearsTrial(t *testing.T) {
	db := setupAccountTestDB(t)
	accounts := NewAccountStore(db)

	trialEnds := time.Now().Add(7 * 24 * time.Hour)
	created, err := accounts.Create("parent@example.com", "hash", &trialEnds)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	expires := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := accounts.UpdatePlan(created.ID, model.PlanSubscription, &expires); err != nil {
		t.Fatalf("UpdatePlan: %v", err)
	}

	got, err := accounts.GetByID(created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.PlanType != model.PlanSubscription {
		t.Errorf("plan type = %q, want %q", got.PlanType, model.PlanSubscription)
	}
	if got.PlanExpires == nil || !got.PlanExpires.Equal(expires) {
		t.Errorf("plan expires = %v, want %v", got.PlanExpires, expires)
	}
	if got.TrialEnds != nil {
		t.Errorf("trial ends = %v, want cleared", got.TrialEnds)
	}
}

func TestAccountStripeCustomerID(t *testing.T) {
	db := setupAccountTestDB(t)
	accounts := NewAccountStore(db)

	created, err := accounts.Create("parent@example.com", "hash", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := accounts.UpdateStripeCustomerID(created.ID, "cus_123"); err != nil {
		t.Fatalf("UpdateStripeCustomerID: %v", err)
	}

	got, err := accounts.GetByStripeCustomerID("cus_123")
	if err != nil {
		t.Fatalf("GetByStripeCustomerID: %v", err)
	}
	if got == nil || got.ID != created.ID {
		t.Errorf("GetByStripeCustomerID = %+v, want id %d", got, created.ID)
	}
}

func TestAccountSetClosed(t *testing.T) {
	db := setupAccountTestDB(t)
	accounts := NewAccountStore(db)

	created, err := accounts.Create("parent@example.com", "hash", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := accounts.SetClosed(created.ID, true); err != nil {
		t.Fatalf("SetClosed: %v", err)
	}
	got, err := accounts.GetByID(created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.Closed {
		t.Error("account not closed")
	}
}
