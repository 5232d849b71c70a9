package auth

import (
	"testing"
	"time"

	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/entitlement"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/model"
)

func TestCheckWriteSelfHosted(t *testing.T) {
	now := time.Now()
	past := now.Add(-24 * time.Hour)
	fid := int64(1)

	ac := AuthContext{
		Kind:        KindCaretaker,
		FamilyID:    &fid,
		Entitlement: entitlement.Snapshot{TrialEnds: &past},
	}
	if d := CheckWrite(ac, false, now); d != nil {
		t.Errorf("self-hosted denied write: %+v", d)
	}
}

func TestCheckWriteSysAdmin(t *testing.T) {
	now := time.Now()
	ac := AuthContext{Kind: KindSysAdmin, Role: RoleSysAdmin}
	if d := CheckWrite(ac, true, now); d != nil {
		t.Errorf("sysadmin denied write: %+v", d)
	}
}

func TestCheckWriteDenialCodes(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)
	fid := int64(1)

	tests := []struct {
		name     string
		snap     entitlement.Snapshot
		wantCode string
	}{
		{
			name:     "lapsed trial",
			snap:     entitlement.Snapshot{TrialEnds: &past},
			wantCode: DenialTrialExpired,
		},
		{
			name:     "lapsed subscription",
			snap:     entitlement.Snapshot{PlanType: model.PlanSubscription, PlanExpires: &past},
			wantCode: DenialPlanExpired,
		},
		{
			name:     "subscription missing expiry",
			snap:     entitlement.Snapshot{PlanType: model.PlanSubscription},
			wantCode: DenialPlanExpired,
		},
		{
			name:     "no plan and no trial",
			snap:     entitlement.Snapshot{},
			wantCode: DenialNeverSubscribed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ac := AuthContext{
				Kind:        KindCaretaker,
				FamilyID:    &fid,
				FamilySlug:  "smith",
				Entitlement: tt.snap,
			}
			d := CheckWrite(ac, true, now)
			if d == nil {
				t.Fatal("expected denial")
			}
			if d.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", d.Code, tt.wantCode)
			}
			if d.FamilySlug != "smith" {
				t.Errorf("family slug = %q, want %q", d.FamilySlug, "smith")
			}
		})
	}

	// Expired-at accompanies time-shaped denials.
	ac := AuthContext{Kind: KindCaretaker, FamilyID: &fid, Entitlement: entitlement.Snapshot{TrialEnds: &past}}
	if d := CheckWrite(ac, true, now); d.ExpiredAt == nil || !d.ExpiredAt.Equal(past) {
		t.Errorf("trial denial expired_at = %v, want %v", d.ExpiredAt, past)
	}

	// Writable states pass through.
	for _, snap := range []entitlement.Snapshot{
		{TrialEnds: &future},
		{PlanType: model.PlanLifetime},
		{PlanType: model.PlanSubscription, PlanExpires: &future},
		{BetaParticipant: true},
	} {
		ac := AuthContext{Kind: KindCaretaker, FamilyID: &fid, Entitlement: snap}
		if d := CheckWrite(ac, true, now); d != nil {
			t.Errorf("writable snapshot %+v denied: %+v", snap, d)
		}
	}
}

func TestCheckWriteNoFamily(t *testing.T) {
	now := time.Now()
	past := now.Add(-24 * time.Hour)

	// Mid-onboarding account holder with a stale trial field still writes.
	ac := AuthContext{
		Kind:        KindAccountHolder,
		Entitlement: entitlement.Snapshot{TrialEnds: &past},
	}
	if d := CheckWrite(ac, true, now); d != nil {
		t.Errorf("family-less principal denied write: %+v", d)
	}
}
