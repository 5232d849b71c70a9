package token

import (
	"errors"
	"testing"
	"time"

	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/auth"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/entitlement"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/model"
)

func testService(lifetime time.Duration) (*Service, *time.Time) {
	current := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	s := NewService("test-secret-at-least-32-bytes-long!", lifetime)
	s.now = func() time.Time { return current }
	return s, &current
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	s, _ := testService(time.Hour)

	familyID := int64(7)
	trialEnds := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	p := auth.Principal{
		Kind:       auth.KindCaretaker,
		ID:         42,
		Name:       "Robin",
		Role:       model.RoleUser,
		FamilyID:   &familyID,
		FamilySlug: "smith",
	}
	snap := entitlement.Snapshot{TrialEnds: &trialEnds}

	raw, err := s.Issue(p, snap)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := s.Verify(raw)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	got := claims.Principal()
	if got.Kind != auth.KindCaretaker {
		t.Errorf("kind = %q, want %q", got.Kind, auth.KindCaretaker)
	}
	if got.ID != 42 {
		t.Errorf("id = %d, want 42", got.ID)
	}
	if got.Name != "Robin" {
		t.Errorf("name = %q, want %q", got.Name, "Robin")
	}
	if got.FamilyID == nil || *got.FamilyID != 7 {
		t.Errorf("family id = %v, want 7", got.FamilyID)
	}
	if got.FamilySlug != "smith" {
		t.Errorf("family slug = %q, want %q", got.FamilySlug, "smith")
	}

	gotSnap := claims.Snapshot()
	if gotSnap.TrialEnds == nil || !gotSnap.TrialEnds.Equal(trialEnds) {
		t.Errorf("trial ends = %v, want %v", gotSnap.TrialEnds, trialEnds)
	}
	if gotSnap.PlanExpires != nil {
		t.Errorf("plan expires = %v, want nil", gotSnap.PlanExpires)
	}

	if claims.ID == "" {
		t.Error("token missing jti")
	}
}

func TestVerifyExpired(t *testing.T) {
	s, current := testService(time.Hour)

	raw, err := s.Issue(auth.Principal{Kind: auth.KindSysAdmin, ID: 0, Name: "sysadmin", Role: model.RoleAdmin}, entitlement.Snapshot{})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	*current = current.Add(2 * time.Hour)
	if _, err := s.Verify(raw); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("err = %v, want ErrTokenExpired", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	s1, _ := testService(time.Hour)
	s2, _ := testService(time.Hour)
	s2.secret = []byte("a-completely-different-signing-key")

	raw, err := s1.Issue(auth.Principal{Kind: auth.KindAccountHolder, ID: 1, Name: "a@b.c"}, entitlement.Snapshot{})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := s2.Verify(raw); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestVerifyGarbage(t *testing.T) {
	s, _ := testService(time.Hour)

	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := s.Verify(raw); !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("Verify(%q): err = %v, want ErrTokenInvalid", raw, err)
		}
	}
}

func TestVerifyUniqueTokenIDs(t *testing.T) {
	s, _ := testService(time.Hour)
	p := auth.Principal{Kind: auth.KindAccountHolder, ID: 1, Name: "a@b.c"}

	raw1, _ := s.Issue(p, entitlement.Snapshot{})
	raw2, _ := s.Issue(p, entitlement.Snapshot{})

	c1, err := s.Verify(raw1)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	c2, err := s.Verify(raw2)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if c1.ID == c2.ID {
		t.Error("two tokens share a jti")
	}
}
