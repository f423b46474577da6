package report

import (
	"testing"
	"time"
)

func TestNextPeriodicBoundaryDaily(t *testing.T) {
	now := time.Date(2026, 8, 3, 14, 30, 0, 0, time.UTC)
	next := NextPeriodicBoundary(now, 24*time.Hour)

	want := time.Date(2026, 8, 4, 0, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("NextPeriodicBoundary = %v, want %v", next, want)
	}
}

func TestNextPeriodicBoundaryHourly(t *testing.T) {
	now := time.Date(2026, 8, 3, 14, 30, 0, 0, time.UTC)
	next := NextPeriodicBoundary(now, time.Hour)

	want := time.Date(2026, 8, 3, 15, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("NextPeriodicBoundary = %v, want %v", next, want)
	}
}

func TestNextPeriodicBoundaryZeroPeriod(t *testing.T) {
	if got := NextPeriodicBoundary(time.Now(), 0); !got.IsZero() {
		t.Errorf("expected zero time for a zero period, got %v", got)
	}
}

func TestNextIntervalBoundaryAdvancesStrictlyPastNow(t *testing.T) {
	last := time.Unix(1000, 0)
	now := time.Unix(1000+150, 0) // 150s later, interval 60s

	next := NextIntervalBoundary(last, 60*time.Second, now)
	if !next.After(now) {
		t.Fatalf("NextIntervalBoundary = %v, must be strictly after now = %v", next, now)
	}
	// 1000 + 3*60 = 1180 is the first 60s step from last that lies after 1150.
	want := time.Unix(1180, 0)
	if !next.Equal(want) {
		t.Errorf("NextIntervalBoundary = %v, want %v", next, want)
	}
}

func TestNextIntervalBoundaryFirstCallUsesNow(t *testing.T) {
	now := time.Unix(1000, 0)
	next := NextIntervalBoundary(time.Time{}, 60*time.Second, now)
	if !next.After(now) {
		t.Fatalf("NextIntervalBoundary = %v, must be after now", next)
	}
}
