package drain

import (
	"errors"
	"image"
	"time"

	"github.com/JPM1118/matthumb/internal/assets"
	"github.com/rs/zerolog"
)

// ErrItemExpired is attached to a step whose item was skipped by Limits.
var ErrItemExpired = errors.New("item exceeded its stall limit")

// Assets resolves enumerated paths and loads materials.
// A nil material with a nil error means there is nothing to load.
type Assets interface {
	Resolve(file string) (string, error)
	Load(rel string) (*assets.Material, error)
}

// Previews is the asynchronous preview capability. Preview must not block.
type Previews interface {
	Preview(m *assets.Material) image.Image
	IsLoading(m *assets.Material) bool
}

// previewErrors is implemented by previews that remember why a render failed.
type previewErrors interface {
	Err(m *assets.Material) error
}

// Sink stores a finished preview under the material's name.
type Sink interface {
	Write(name string, img image.Image) (string, error)
}

// Observer receives every step a run takes.
type Observer interface {
	OnStep(step Step)
}

// State is the run's coarse lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	case StateDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// Outcome is what a single tick did with the item under the cursor.
type Outcome int

const (
	// OutcomeNone: the run was already done.
	OutcomeNone Outcome = iota
	// OutcomeWritten: a thumbnail was written and the cursor advanced.
	OutcomeWritten
	// OutcomeSkipped: the material could not be loaded; cursor advanced.
	OutcomeSkipped
	// OutcomeFailed: writing the thumbnail failed; cursor advanced.
	OutcomeFailed
	// OutcomeExpired: the item hit a limit while pending; cursor advanced.
	OutcomeExpired
	// OutcomeWaiting: the preview is still loading; cursor unchanged.
	OutcomeWaiting
	// OutcomeStalled: no preview and nothing loading; cursor unchanged.
	OutcomeStalled
	// OutcomeUnresolved: the path could not be made relative; cursor unchanged.
	OutcomeUnresolved
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeWritten:
		return "written"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	case OutcomeExpired:
		return "expired"
	case OutcomeWaiting:
		return "waiting"
	case OutcomeStalled:
		return "stalled"
	case OutcomeUnresolved:
		return "unresolved"
	default:
		return "unknown"
	}
}

// Advanced reports whether the outcome moved the cursor.
func (o Outcome) Advanced() bool {
	switch o {
	case OutcomeWritten, OutcomeSkipped, OutcomeFailed, OutcomeExpired:
		return true
	default:
		return false
	}
}

// Step describes one tick.
type Step struct {
	Index   int
	Path    string
	Name    string
	Outcome Outcome
	// Output is the written file for OutcomeWritten.
	Output string
	Err    error
	// Elapsed is the time spent on the item, set when the cursor advances.
	Elapsed time.Duration
}

// Counts tallies finished items by outcome.
type Counts struct {
	Written int
	Skipped int
	Failed  int
	Expired int
	Ticks   int
}

// Advances is the number of times the cursor has moved.
func (c Counts) Advances() int {
	return c.Written + c.Skipped + c.Failed + c.Expired
}

// Snapshot is a copy of a run's progress.
type Snapshot struct {
	State   State
	Cursor  int
	Total   int
	Counts  Counts
	Current string
	Last    Step
}

// Deps are the collaborators a run drives.
type Deps struct {
	Assets   Assets
	Previews Previews
	Sink     Sink
	Observer Observer
}

// Run drains a fixed list of material paths, one tick at a time.
// A Run is owned by a single goroutine; it is not safe for concurrent use.
type Run struct {
	paths  []string
	cursor int
	item   itemState
	counts Counts
	last   Step
	deps   Deps
	limits Limits
	log    zerolog.Logger
}

// NewRun creates a run over a copy of paths.
func NewRun(paths []string, deps Deps, limits Limits, log zerolog.Logger) *Run {
	return &Run{
		paths:  append([]string(nil), paths...),
		deps:   deps,
		limits: limits,
		log:    log.With().Str("component", "drain").Logger(),
	}
}

// State returns StateIdle before the first tick, StateDone once every
// path has been processed and StateRunning in between.
func (r *Run) State() State {
	switch {
	case r.Done():
		return StateDone
	case r.counts.Ticks == 0:
		return StateIdle
	default:
		return StateRunning
	}
}

// Done reports whether the cursor has reached the end of the list.
func (r *Run) Done() bool {
	return r.cursor >= len(r.paths)
}

// Cursor returns the index of the item currently being processed.
func (r *Run) Cursor() int {
	return r.cursor
}

// Len returns the number of enumerated paths.
func (r *Run) Len() int {
	return len(r.paths)
}

// Snapshot returns a copy of the run's progress.
func (r *Run) Snapshot() Snapshot {
	s := Snapshot{
		State:  r.State(),
		Cursor: r.cursor,
		Total:  len(r.paths),
		Counts: r.counts,
		Last:   r.last,
	}
	if !r.Done() {
		s.Current = r.paths[r.cursor]
	}
	return s
}

// Tick performs one step on the item under the cursor. The cursor moves
// by at most one per tick.
func (r *Run) Tick(now time.Time) Step {
	if r.Done() {
		return Step{Index: r.cursor, Outcome: OutcomeNone}
	}
	r.counts.Ticks++

	path := r.paths[r.cursor]
	r.item.begin(r.cursor, now)
	r.item.RecordTick()
	step := Step{Index: r.cursor, Path: path}

	rel, err := r.deps.Assets.Resolve(path)
	if err != nil {
		r.log.Error().Err(err).Str("path", path).Msg("cannot create relative path")
		step.Outcome = OutcomeUnresolved
		step.Err = err
		return r.stall(now, step, true)
	}

	m, err := r.deps.Assets.Load(rel)
	if err != nil {
		r.log.Warn().Err(err).Str("asset", rel).Msg("load failed")
	}
	if m == nil {
		step.Outcome = OutcomeSkipped
		step.Err = err
		return r.advance(now, step)
	}
	step.Name = m.Name

	img := r.deps.Previews.Preview(m)
	if img == nil {
		if r.deps.Previews.IsLoading(m) {
			step.Outcome = OutcomeWaiting
			return r.stall(now, step, false)
		}
		step.Outcome = OutcomeStalled
		if pe, ok := r.deps.Previews.(previewErrors); ok {
			step.Err = pe.Err(m)
		}
		return r.stall(now, step, true)
	}

	out, err := r.deps.Sink.Write(m.Name, img)
	if err != nil {
		r.log.Error().Err(err).Str("asset", rel).Msg("write thumbnail")
		step.Outcome = OutcomeFailed
		step.Err = err
		return r.advance(now, step)
	}
	step.Outcome = OutcomeWritten
	step.Output = out
	return r.advance(now, step)
}

// stall leaves the cursor in place unless the item has hit a limit.
// noProgress marks ticks that count against MaxStalledTicks.
func (r *Run) stall(now time.Time, step Step, noProgress bool) Step {
	if noProgress {
		r.item.RecordStall()
	}
	if r.item.Expired(now, r.limits) {
		r.log.Warn().
			Str("path", step.Path).
			Str("last", step.Outcome.String()).
			Int("ticks", r.item.ticks).
			Dur("elapsed", r.item.Elapsed(now)).
			Msg("skipping item")
		step.Outcome = OutcomeExpired
		if step.Err == nil {
			step.Err = ErrItemExpired
		}
		return r.advance(now, step)
	}
	return r.record(step)
}

func (r *Run) advance(now time.Time, step Step) Step {
	step.Elapsed = r.item.Elapsed(now)
	switch step.Outcome {
	case OutcomeWritten:
		r.counts.Written++
	case OutcomeSkipped:
		r.counts.Skipped++
	case OutcomeFailed:
		r.counts.Failed++
	case OutcomeExpired:
		r.counts.Expired++
	}
	r.cursor++
	r.log.Debug().
		Int("index", step.Index).
		Str("outcome", step.Outcome.String()).
		Str("output", step.Output).
		Msg("item done")
	return r.record(step)
}

func (r *Run) record(step Step) Step {
	r.last = step
	if r.deps.Observer != nil {
		r.deps.Observer.OnStep(step)
	}
	return step
}
