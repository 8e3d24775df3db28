package drain

import (
	"time"
)

// Limits bounds how long a single item may hold the cursor.
type Limits struct {
	// ItemTimeout skips an item that is still pending this long after its
	// first tick, whether or not a preview is loading. Zero disables it.
	ItemTimeout time.Duration

	// MaxStalledTicks skips an item after this many ticks in which no
	// progress is possible (unresolvable path, or no preview and nothing
	// loading). Zero disables it and such items hold the cursor forever.
	MaxStalledTicks int
}

// itemState tracks the item under the cursor.
type itemState struct {
	index        int
	startedAt    time.Time
	ticks        int
	stalledTicks int
}

// begin resets the state when the cursor has moved to a new item.
func (s *itemState) begin(index int, now time.Time) {
	if s.ticks > 0 && s.index == index {
		return
	}
	*s = itemState{index: index, startedAt: now}
}

// RecordTick counts one tick spent on the item.
func (s *itemState) RecordTick() {
	s.ticks++
}

// RecordStall counts a tick that could make no progress.
func (s *itemState) RecordStall() {
	s.stalledTicks++
}

// Expired returns true if the item has outlived either limit.
func (s *itemState) Expired(now time.Time, l Limits) bool {
	if l.MaxStalledTicks > 0 && s.stalledTicks >= l.MaxStalledTicks {
		return true
	}
	if l.ItemTimeout > 0 && now.Sub(s.startedAt) >= l.ItemTimeout {
		return true
	}
	return false
}

// Elapsed returns the time spent on the item so far.
func (s *itemState) Elapsed(now time.Time) time.Duration {
	return now.Sub(s.startedAt)
}
