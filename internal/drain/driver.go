package drain

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrRunActive is returned when Drive is called while another run is
// still being driven.
var ErrRunActive = errors.New("a run is already active")

// Update is sent after every tick.
type Update struct {
	Step     Step
	Snapshot Snapshot
}

// Driver ticks a Run on a fixed interval until it is done. It is the
// headless counterpart of the TUI's tick loop.
type Driver struct {
	interval time.Duration
	updateCh chan Update
	active   atomic.Bool
	now      func() time.Time
}

// NewDriver creates a driver. Call Drive() to process a run.
func NewDriver(interval time.Duration) *Driver {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	return &Driver{
		interval: interval,
		updateCh: make(chan Update, 16),
		now:      time.Now,
	}
}

// Updates returns the channel that receives per-tick updates. When the
// reader falls behind the oldest update is dropped.
func (d *Driver) Updates() <-chan Update {
	return d.updateCh
}

// Active reports whether a run is being driven.
func (d *Driver) Active() bool {
	return d.active.Load()
}

// Drive ticks run until it is done or ctx is cancelled. Blocks.
// Only one run may be driven at a time.
func (d *Driver) Drive(ctx context.Context, run *Run) error {
	if !d.active.CompareAndSwap(false, true) {
		return ErrRunActive
	}
	defer d.active.Store(false)

	// Initial tick
	if d.tick(run) {
		return nil
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if d.tick(run) {
				return nil
			}
		}
	}
}

func (d *Driver) tick(run *Run) bool {
	step := run.Tick(d.now())
	d.emitUpdate(Update{Step: step, Snapshot: run.Snapshot()})
	return run.Done()
}

func (d *Driver) emitUpdate(u Update) {
	// Non-blocking send; if channel is full, drop oldest
	select {
	case d.updateCh <- u:
	default:
		select {
		case <-d.updateCh:
		default:
		}
		select {
		case d.updateCh <- u:
		default:
		}
	}
}
