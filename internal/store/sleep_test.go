package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/database"
)

func setupSleepTestDB(t *testing.T) (*sql.DB, int64, int64) {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	_, family := createTestFamily(t, db, "parent@example.com", "smith")
	child, err := NewChildStore(db).Create(family.ID, "Ada", nil)
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	return db, family.ID, child.ID
}

func TestSleepOpenSessionLifecycle(t *testing.T) {
	db, familyID, childID := setupSleepTestDB(t)
	sleep := NewSleepStore(db)

	start := time.Date(2026, 3, 15, 19, 30, 0, 0, time.UTC)
	created, err := sleep.Create(familyID, childID, "crib", "", start)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.EndedAt != nil {
		t.Errorf("new session ended_at = %v, want nil", created.EndedAt)
	}

	open, err := sleep.GetOpen(familyID, childID)
	if err != nil {
		t.Fatalf("GetOpen: %v", err)
	}
	if open == nil || open.ID != created.ID {
		t.Fatalf("GetOpen = %+v, want id %d", open, created.ID)
	}

	end := start.Add(2 * time.Hour)
	ended, err := sleep.End(created.ID, familyID, end)
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	if ended.EndedAt == nil || !ended.EndedAt.Equal(end) {
		t.Errorf("ended_at = %v, want %v", ended.EndedAt, end)
	}

	open, err = sleep.GetOpen(familyID, childID)
	if err != nil {
		t.Fatalf("GetOpen after end: %v", err)
	}
	if open != nil {
		t.Errorf("GetOpen after end = %+v, want nil", open)
	}

	// Ending an already-closed session leaves the first timestamp alone.
	again, err := sleep.End(created.ID, familyID, end.Add(time.Hour))
	if err != nil {
		t.Fatalf("End again: %v", err)
	}
	if again.EndedAt == nil || !again.EndedAt.Equal(end) {
		t.Errorf("ended_at after second end = %v, want %v", again.EndedAt, end)
	}
}

func TestSleepFamilyScoping(t *testing.T) {
	db, familyID, childID := setupSleepTestDB(t)
	sleep := NewSleepStore(db)

	created, err := sleep.Create(familyID, childID, "crib", "", time.Now().UTC())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, other := createTestFamily(t, db, "other@example.com", "jones")

	got, err := sleep.GetByID(created.ID, other.ID)
	if err != nil {
		t.Fatalf("GetByID cross-family: %v", err)
	}
	if got != nil {
		t.Errorf("cross-family read returned %+v, want nil", got)
	}

	// A cross-family end must not touch the row.
	if ended, err := sleep.End(created.ID, other.ID, time.Now().UTC()); err != nil {
		t.Fatalf("End cross-family: %v", err)
	} else if ended != nil {
		t.Errorf("cross-family end returned %+v, want nil", ended)
	}
	mine, err := sleep.GetByID(created.ID, familyID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if mine == nil || mine.EndedAt != nil {
		t.Errorf("session = %+v, want still open", mine)
	}
}

func TestSleepListFilters(t *testing.T) {
	db, familyID, childID := setupSleepTestDB(t)
	sleep := NewSleepStore(db)

	second, err := NewChildStore(db).Create(familyID, "Ben", nil)
	if err != nil {
		t.Fatalf("create child: %v", err)
	}

	base := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if _, err := sleep.Create(familyID, childID, "crib", "", base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if _, err := sleep.Create(familyID, second.ID, "stroller", "", base); err != nil {
		t.Fatalf("Create: %v", err)
	}

	all, err := sleep.List(familyID, nil, 50)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("list = %d entries, want 4", len(all))
	}
	// Newest first.
	if all[0].StartedAt.Before(all[1].StartedAt) {
		t.Error("list not ordered newest first")
	}

	filtered, err := sleep.List(familyID, &childID, 50)
	if err != nil {
		t.Fatalf("List filtered: %v", err)
	}
	if len(filtered) != 3 {
		t.Errorf("filtered = %d entries, want 3", len(filtered))
	}

	limited, err := sleep.List(familyID, nil, 2)
	if err != nil {
		t.Fatalf("List limited: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limited = %d entries, want 2", len(limited))
	}
}
