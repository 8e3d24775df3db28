package drain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JPM1118/matthumb/internal/testutil"
)

func TestDriver_DrivesRunToCompletion(t *testing.T) {
	f := newFixture()
	paths := []string{f.assets.Add("A.mat", "A"), f.assets.Add("B.mat", "B")}
	f.previews.Set("Assets/B.mat", testutil.Behavior{ReadyAfter: 2, Loading: true})
	r := f.run(paths, Limits{})

	d := NewDriver(5 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := d.Drive(ctx, r); err != nil {
		t.Fatalf("Drive() error = %v", err)
	}
	if !r.Done() {
		t.Fatal("run should be done")
	}
	if d.Active() {
		t.Error("driver should not be active after Drive returns")
	}

	var last Update
	for {
		select {
		case u := <-d.Updates():
			last = u
			continue
		default:
		}
		break
	}
	if last.Snapshot.State != StateDone {
		t.Errorf("last update state = %s, want DONE", last.Snapshot.State)
	}
	if last.Snapshot.Counts.Written != 2 {
		t.Errorf("written = %d, want 2", last.Snapshot.Counts.Written)
	}
}

func TestDriver_EmptyRunReturnsImmediately(t *testing.T) {
	d := NewDriver(time.Hour)
	r := newFixture().run(nil, Limits{})

	done := make(chan error, 1)
	go func() { done <- d.Drive(context.Background(), r) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Drive() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Drive on an empty run should not wait for the ticker")
	}
}

func TestDriver_CancelStopsStalledRun(t *testing.T) {
	f := newFixture()
	p := f.assets.Add("Stuck.mat", "Stuck")
	f.previews.Set("Assets/Stuck.mat", testutil.Behavior{ReadyAfter: -1})
	r := f.run([]string{p}, Limits{})

	d := NewDriver(time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := d.Drive(ctx, r)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Drive() error = %v, want deadline exceeded", err)
	}
	if r.Done() {
		t.Error("stalled run should not be done")
	}
}

func TestDriver_RejectsConcurrentDrive(t *testing.T) {
	f := newFixture()
	p := f.assets.Add("Stuck.mat", "Stuck")
	f.previews.Set("Assets/Stuck.mat", testutil.Behavior{ReadyAfter: -1})

	d := NewDriver(time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- d.Drive(ctx, f.run([]string{p}, Limits{})) }()

	deadline := time.Now().Add(time.Second)
	for !d.Active() {
		if time.Now().After(deadline) {
			t.Fatal("driver never became active")
		}
		time.Sleep(time.Millisecond)
	}

	if err := d.Drive(context.Background(), f.run([]string{p}, Limits{})); !errors.Is(err, ErrRunActive) {
		t.Errorf("second Drive() error = %v, want ErrRunActive", err)
	}

	cancel()
	<-done
}

func TestDriver_DropsOldestWhenFull(t *testing.T) {
	d := NewDriver(time.Millisecond)
	for i := 0; i < cap(d.updateCh)+5; i++ {
		d.emitUpdate(Update{Step: Step{Index: i}})
	}
	first := <-d.Updates()
	if first.Step.Index != 5 {
		t.Errorf("oldest remaining update index = %d, want 5", first.Step.Index)
	}
}
