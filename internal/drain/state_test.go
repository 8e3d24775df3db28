package drain

import (
	"testing"
	"time"
)

func TestBegin_ResetsOnNewIndex(t *testing.T) {
	now := time.Now()
	s := &itemState{}

	s.begin(0, now)
	s.RecordTick()
	s.RecordStall()

	s.begin(0, now.Add(time.Second))
	if s.stalledTicks != 1 {
		t.Errorf("same index: stalledTicks = %d, want 1", s.stalledTicks)
	}
	if !s.startedAt.Equal(now) {
		t.Errorf("same index: startedAt moved to %v", s.startedAt)
	}

	s.begin(1, now.Add(2*time.Second))
	if s.index != 1 || s.ticks != 0 || s.stalledTicks != 0 {
		t.Errorf("new index should reset state, got %+v", *s)
	}
}

func TestExpired_NoLimits(t *testing.T) {
	now := time.Now()
	s := &itemState{startedAt: now.Add(-time.Hour), stalledTicks: 1_000_000}
	if s.Expired(now, Limits{}) {
		t.Error("with no limits an item should never expire")
	}
}

func TestExpired_StalledTicks(t *testing.T) {
	now := time.Now()
	l := Limits{MaxStalledTicks: 3}
	s := &itemState{startedAt: now}

	for i := 0; i < 2; i++ {
		s.RecordStall()
		if s.Expired(now, l) {
			t.Fatalf("expired after %d stalls, want 3", i+1)
		}
	}
	s.RecordStall()
	if !s.Expired(now, l) {
		t.Error("should expire after 3 stalled ticks")
	}
}

func TestExpired_Deadline(t *testing.T) {
	now := time.Now()
	l := Limits{ItemTimeout: 10 * time.Second}
	s := &itemState{startedAt: now}

	if s.Expired(now.Add(9*time.Second), l) {
		t.Error("should not expire before the deadline")
	}
	if !s.Expired(now.Add(10*time.Second), l) {
		t.Error("should expire at the deadline")
	}
}

func TestElapsed(t *testing.T) {
	now := time.Now()
	s := &itemState{startedAt: now}
	if got := s.Elapsed(now.Add(1500 * time.Millisecond)); got != 1500*time.Millisecond {
		t.Errorf("Elapsed() = %s, want 1.5s", got)
	}
}
