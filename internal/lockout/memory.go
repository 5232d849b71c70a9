package lockout

import (
	"context"
	"sync"
	"time"
)

type record struct {
	failures    int
	windowStart time.Time
	lockedUntil time.Time
}

// MemoryLedger is an in-process lockout ledger backed by a mutex-guarded
// map. Suitable for single-instance deployments.
type MemoryLedger struct {
	mu      sync.Mutex
	cfg     Config
	records map[string]*record
	now     func() time.Time
}

// NewMemory creates an in-process ledger with the given policy.
func NewMemory(cfg Config) *MemoryLedger {
	return &MemoryLedger{
		cfg:     cfg.withDefaults(),
		records: make(map[string]*record),
		now:     time.Now,
	}
}

func (l *MemoryLedger) Check(_ context.Context, origin string) (Status, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[origin]
	if !ok {
		return Status{}, nil
	}

	now := l.now()
	if now.Before(rec.lockedUntil) {
		return Status{Locked: true, Remaining: rec.lockedUntil.Sub(now), Failures: rec.failures}, nil
	}
	if !rec.lockedUntil.IsZero() {
		// Lockout elapsed; the origin starts clean.
		delete(l.records, origin)
		return Status{}, nil
	}
	return Status{Failures: rec.failures}, nil
}

func (l *MemoryLedger) RecordFailure(_ context.Context, origin string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	rec, ok := l.records[origin]
	if !ok {
		l.records[origin] = &record{failures: 1, windowStart: now}
		return nil
	}

	if now.Before(rec.lockedUntil) {
		// Already locked; attempts during the lockout never extend it.
		return nil
	}

	if !rec.lockedUntil.IsZero() || now.Sub(rec.windowStart) > l.cfg.Window {
		rec.failures = 1
		rec.windowStart = now
		rec.lockedUntil = time.Time{}
		return nil
	}

	rec.failures++
	if rec.failures >= l.cfg.Threshold {
		rec.lockedUntil = now.Add(l.cfg.Duration)
	}
	return nil
}

func (l *MemoryLedger) ResetSuccess(_ context.Context, origin string) error {
	l.mu.Lock()
	delete(l.records, origin)
	l.mu.Unlock()
	return nil
}

// Cleanup removes entries whose window and lockout have both elapsed.
// Called periodically from a background goroutine.
func (l *MemoryLedger) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for origin, rec := range l.records {
		if now.Before(rec.lockedUntil) {
			continue
		}
		if rec.lockedUntil.IsZero() && now.Sub(rec.windowStart) <= l.cfg.Window {
			continue
		}
		delete(l.records, origin)
	}
}
