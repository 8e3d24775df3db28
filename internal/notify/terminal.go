package notify

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Bell manages terminal bell notifications with debounce and suspension.
type Bell struct {
	out       io.Writer
	debounce  time.Duration
	lastRing  time.Time
	suspended bool
	triggerOn map[string]bool
}

// NewBell creates a Bell with the given debounce interval and trigger events.
func NewBell(debounce time.Duration, events []string) *Bell {
	triggerOn := make(map[string]bool, len(events))
	for _, e := range events {
		triggerOn[e] = true
	}
	return &Bell{
		out:       os.Stderr,
		debounce:  debounce,
		triggerOn: triggerOn,
	}
}

// Ring attempts to ring the terminal bell for the given event.
// Returns true if the bell actually rang.
func (b *Bell) Ring(event string, now time.Time) bool {
	if b == nil || b.suspended {
		return false
	}
	if !b.triggerOn[event] {
		return false
	}
	if !b.lastRing.IsZero() && now.Sub(b.lastRing) < b.debounce {
		return false
	}

	fmt.Fprint(b.out, "\a")
	b.lastRing = now
	return true
}

// Suspend disables bell ringing.
func (b *Bell) Suspend() {
	b.suspended = true
}

// Resume re-enables bell ringing.
func (b *Bell) Resume() {
	b.suspended = false
}

// IsSuspended returns whether the bell is currently suspended.
func (b *Bell) IsSuspended() bool {
	return b.suspended
}
