package notify

import (
	"bytes"
	"testing"
	"time"
)

func quietBell(debounce time.Duration, events ...string) (*Bell, *bytes.Buffer) {
	b := NewBell(debounce, events)
	var buf bytes.Buffer
	b.out = &buf
	return b, &buf
}

func TestBell_RingOnTriggerEvent(t *testing.T) {
	b, out := quietBell(30*time.Second, "DONE", "failed")
	now := time.Now()

	if !b.Ring("DONE", now) {
		t.Error("DONE should trigger bell")
	}
	if out.String() != "\a" {
		t.Errorf("bell wrote %q, want BEL", out.String())
	}
}

func TestBell_NoRingOnNonTriggerEvent(t *testing.T) {
	b, _ := quietBell(30*time.Second, "DONE")
	now := time.Now()

	if b.Ring("written", now) {
		t.Error("written should not trigger bell")
	}
	if b.Ring("waiting", now) {
		t.Error("waiting should not trigger bell")
	}
}

func TestBell_Debounce(t *testing.T) {
	b, _ := quietBell(30*time.Second, "failed")
	now := time.Now()

	// First ring should succeed
	if !b.Ring("failed", now) {
		t.Error("first ring should succeed")
	}

	// Second ring within debounce should fail
	if b.Ring("failed", now.Add(10*time.Second)) {
		t.Error("ring within debounce window should be suppressed")
	}

	// Ring after debounce should succeed
	if !b.Ring("failed", now.Add(31*time.Second)) {
		t.Error("ring after debounce window should succeed")
	}
}

func TestBell_Suspended(t *testing.T) {
	b, _ := quietBell(30*time.Second, "DONE")
	now := time.Now()

	b.Suspend()
	if b.Ring("DONE", now) {
		t.Error("bell should not ring while suspended")
	}
	if !b.IsSuspended() {
		t.Error("IsSuspended should be true")
	}

	b.Resume()
	if b.IsSuspended() {
		t.Error("IsSuspended should be false after resume")
	}
}

func TestBell_NilIsSilent(t *testing.T) {
	var b *Bell
	if b.Ring("DONE", time.Now()) {
		t.Error("nil bell should never ring")
	}
}
