package lockout

import (
	"context"
	"sync"
	"testing"
	"time"
)

func testMemoryLedger(cfg Config) (*MemoryLedger, *time.Time) {
	current := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	l := NewMemory(cfg)
	l.now = func() time.Time { return current }
	return l, &current
}

func TestMemoryLocksAtThreshold(t *testing.T) {
	ctx := context.Background()
	l, _ := testMemoryLedger(Config{Threshold: 3, Window: time.Minute, Duration: 5 * time.Minute})

	for i := 0; i < 2; i++ {
		if err := l.RecordFailure(ctx, "1.2.3.4"); err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
	}
	st, err := l.Check(ctx, "1.2.3.4")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if st.Locked {
		t.Fatal("locked before threshold")
	}
	if st.Failures != 2 {
		t.Errorf("failures = %d, want 2", st.Failures)
	}

	if err := l.RecordFailure(ctx, "1.2.3.4"); err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}
	st, err = l.Check(ctx, "1.2.3.4")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !st.Locked {
		t.Fatal("not locked at threshold")
	}
	if st.Remaining <= 0 || st.Remaining > 5*time.Minute {
		t.Errorf("remaining = %v, want within (0, 5m]", st.Remaining)
	}
}

func TestMemoryOriginsIndependent(t *testing.T) {
	ctx := context.Background()
	l, _ := testMemoryLedger(Config{Threshold: 2, Window: time.Minute, Duration: time.Minute})

	l.RecordFailure(ctx, "1.1.1.1")
	l.RecordFailure(ctx, "1.1.1.1")

	st, _ := l.Check(ctx, "2.2.2.2")
	if st.Locked || st.Failures != 0 {
		t.Errorf("unrelated origin: %+v", st)
	}
}

func TestMemoryFailureDuringLockoutDoesNotExtend(t *testing.T) {
	ctx := context.Background()
	l, current := testMemoryLedger(Config{Threshold: 2, Window: time.Minute, Duration: 10 * time.Minute})

	l.RecordFailure(ctx, "1.2.3.4")
	l.RecordFailure(ctx, "1.2.3.4")

	st, _ := l.Check(ctx, "1.2.3.4")
	if !st.Locked {
		t.Fatal("expected lock")
	}
	before := st.Remaining

	*current = current.Add(time.Minute)
	l.RecordFailure(ctx, "1.2.3.4")

	st, _ = l.Check(ctx, "1.2.3.4")
	if !st.Locked {
		t.Fatal("lock dropped early")
	}
	if st.Remaining >= before {
		t.Errorf("remaining = %v, want less than %v", st.Remaining, before)
	}
}

func TestMemoryLockoutExpires(t *testing.T) {
	ctx := context.Background()
	l, current := testMemoryLedger(Config{Threshold: 2, Window: time.Minute, Duration: 5 * time.Minute})

	l.RecordFailure(ctx, "1.2.3.4")
	l.RecordFailure(ctx, "1.2.3.4")

	*current = current.Add(5*time.Minute + time.Second)
	st, err := l.Check(ctx, "1.2.3.4")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if st.Locked {
		t.Error("still locked after lockout duration")
	}
	if st.Failures != 0 {
		t.Errorf("failures = %d, want fresh start", st.Failures)
	}
}

func TestMemoryWindowResetsCount(t *testing.T) {
	ctx := context.Background()
	l, current := testMemoryLedger(Config{Threshold: 3, Window: time.Minute, Duration: 5 * time.Minute})

	l.RecordFailure(ctx, "1.2.3.4")
	l.RecordFailure(ctx, "1.2.3.4")

	*current = current.Add(2 * time.Minute)
	l.RecordFailure(ctx, "1.2.3.4")

	st, _ := l.Check(ctx, "1.2.3.4")
	if st.Locked {
		t.Error("stale window failures should not count toward the threshold")
	}
	if st.Failures != 1 {
		t.Errorf("failures = %d, want 1", st.Failures)
	}
}

func TestMemoryResetSuccess(t *testing.T) {
	ctx := context.Background()
	l, _ := testMemoryLedger(Config{Threshold: 2, Window: time.Minute, Duration: time.Minute})

	l.RecordFailure(ctx, "1.2.3.4")
	l.RecordFailure(ctx, "1.2.3.4")
	if err := l.ResetSuccess(ctx, "1.2.3.4"); err != nil {
		t.Fatalf("ResetSuccess: %v", err)
	}

	st, _ := l.Check(ctx, "1.2.3.4")
	if st.Locked || st.Failures != 0 {
		t.Errorf("after reset: %+v", st)
	}
}

func TestMemoryConcurrentFailuresAllCounted(t *testing.T) {
	ctx := context.Background()
	l, _ := testMemoryLedger(Config{Threshold: 100, Window: time.Minute, Duration: time.Minute})

	const attempts = 50
	var wg sync.WaitGroup
	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			defer wg.Done()
			if err := l.RecordFailure(ctx, "1.2.3.4"); err != nil {
				t.Errorf("RecordFailure: %v", err)
			}
		}()
	}
	wg.Wait()

	st, err := l.Check(ctx, "1.2.3.4")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if st.Failures != attempts {
		t.Errorf("failures = %d, want %d", st.Failures, attempts)
	}
}

func TestMemoryCleanup(t *testing.T) {
	ctx := context.Background()
	l, current := testMemoryLedger(Config{Threshold: 5, Window: time.Minute, Duration: time.Minute})

	l.RecordFailure(ctx, "stale")
	*current = current.Add(time.Hour)
	l.RecordFailure(ctx, "fresh")

	l.Cleanup()

	l.mu.Lock()
	_, staleKept := l.records["stale"]
	_, freshKept := l.records["fresh"]
	l.mu.Unlock()

	if staleKept {
		t.Error("stale record survived cleanup")
	}
	if !freshKept {
		t.Error("fresh record removed by cleanup")
	}
}
