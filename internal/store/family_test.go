package store

import (
	"database/sql"
	"testing"

	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/database"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/model"
)

func setupFamilyTestDB(t *testing.T) *sql.DB {
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

// createTestFamily seeds an account with an active family. Shared across the
// store tests that need a family scope to hang records off.
func createTestFamily(t *testing.T, db *sql.DB, email, slug string) (*model.Account, *model.Family) {
	t.Helper()

	account, err := NewAccountStore(db).Create(email, "x", nil)
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	family, err := NewFamilyStore(db).Create(account.ID, slug, "Test Family")
	if err != nil {
		t.Fatalf("create family: %v", err)
	}
	return account, family
}

func TestFamilyCreateAndLookup(t *testing.T) {
	db := setupFamilyTestDB(t)
	families := NewFamilyStore(db)
	account, family := createTestFamily(t, db, "a@example.com", "smith")

	if family.Slug != "smith" {
		t.Errorf("slug = %q, want %q", family.Slug, "smith")
	}
	if !family.IsActive {
		t.Error("new family should be active")
	}

	bySlug, err := families.GetBySlug("smith")
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	if bySlug == nil || bySlug.ID != family.ID {
		t.Errorf("GetBySlug = %+v, want id %d", bySlug, family.ID)
	}

	byAccount, err := families.GetByAccountID(account.ID)
	if err != nil {
		t.Fatalf("GetByAccountID: %v", err)
	}
	if byAccount == nil || byAccount.ID != family.ID {
		t.Errorf("GetByAccountID = %+v, want id %d", byAccount, family.ID)
	}

	missing, err := families.GetBySlug("nobody")
	if err != nil {
		t.Fatalf("GetBySlug missing: %v", err)
	}
	if missing != nil {
		t.Errorf("GetBySlug missing = %+v, want nil", missing)
	}
}

func TestFamilySlugUnique(t *testing.T) {
	db := setupFamilyTestDB(t)
	families := NewFamilyStore(db)
	createTestFamily(t, db, "a@example.com", "smith")

	other, err := NewAccountStore(db).Create("b@example.com", "x", nil)
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	if _, err := families.Create(other.ID, "smith", "Other Family"); err == nil {
		t.Error("duplicate slug accepted")
	}
}

func TestFamilySetActive(t *testing.T) {
	db := setupFamilyTestDB(t)
	families := NewFamilyStore(db)
	_, family := createTestFamily(t, db, "a@example.com", "smith")

	if err := families.SetActive(family.ID, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	got, err := families.GetByID(family.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.IsActive {
		t.Error("family still active after deactivation")
	}
}
