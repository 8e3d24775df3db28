package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/JPM1118/matthumb/internal/drain"
	"github.com/JPM1118/matthumb/internal/notify"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	minWidth    = 40
	minHeight   = 10
	maxBarWidth = 60
	labelWidth  = 10
)

// Messages

type tickMsg time.Time

// Dashboard is the Bubble Tea model that drives a drain run. Each tick
// message advances the run by one step, so the run never ticks
// concurrently with itself.
type Dashboard struct {
	run         *drain.Run
	interval    time.Duration
	bar         *notify.Bar
	bell        *notify.Bell
	width       int
	height      int
	paused      bool
	interrupted bool
	now         func() time.Time
}

// Option configures a Dashboard.
type Option func(*Dashboard)

// WithBell rings b when the run finishes or an item fails.
func WithBell(b *notify.Bell) Option {
	return func(d *Dashboard) { d.bell = b }
}

// NewDashboard creates a dashboard that ticks run every interval.
func NewDashboard(run *drain.Run, interval time.Duration, opts ...Option) Dashboard {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	d := Dashboard{
		run:      run,
		interval: interval,
		bar:      notify.NewBar(20, 3),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// Interrupted reports whether the user quit before the run finished.
func (d Dashboard) Interrupted() bool {
	return d.interrupted
}

// Init schedules the first tick.
func (d Dashboard) Init() tea.Cmd {
	return d.scheduleTick()
}

func (d Dashboard) scheduleTick() tea.Cmd {
	return tea.Tick(d.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages.
func (d Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return d.handleKey(msg)

	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.height = msg.Height
		return d, nil

	case tickMsg:
		return d.handleTick(time.Time(msg))
	}

	return d, nil
}

func (d Dashboard) handleTick(now time.Time) (tea.Model, tea.Cmd) {
	if d.run.Done() {
		d.bell.Ring(drain.StateDone.String(), now)
		return d, tea.Quit
	}
	if d.paused {
		return d, d.scheduleTick()
	}

	step := d.run.Tick(now)
	if step.Outcome.Advanced() {
		d.bar.Push(notification(step, now))
		d.bell.Ring(step.Outcome.String(), now)
	}
	if d.run.Done() {
		d.bell.Ring(drain.StateDone.String(), now)
		return d, tea.Quit
	}
	return d, d.scheduleTick()
}

func (d Dashboard) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		d.interrupted = !d.run.Done()
		return d, tea.Quit

	case "p", " ":
		d.paused = !d.paused
		return d, nil

	case "b":
		if d.bell == nil {
			return d, nil
		}
		if d.bell.IsSuspended() {
			d.bell.Resume()
		} else {
			d.bell.Suspend()
		}
		return d, nil
	}

	return d, nil
}

// View renders the dashboard.
func (d Dashboard) View() string {
	if d.width < minWidth || d.height < minHeight {
		return fmt.Sprintf("\n  Terminal too small (need %dx%d, got %dx%d)\n", minWidth, minHeight, d.width, d.height)
	}

	snap := d.run.Snapshot()
	var b strings.Builder

	b.WriteString(d.renderHeader(snap))
	b.WriteString("\n")
	b.WriteString(d.renderSubheader(snap))
	b.WriteString("\n\n")
	b.WriteString(d.renderProgress(snap))
	b.WriteString("\n\n")
	b.WriteString(d.renderCurrent(snap))
	b.WriteString("\n")
	b.WriteString(d.renderCounts(snap))
	b.WriteString("\n\n")
	b.WriteString(d.renderNotificationBar())
	b.WriteString("\n")
	b.WriteString(d.renderStatusBar())

	return b.String()
}

func (d Dashboard) renderHeader(snap drain.Snapshot) string {
	title := headerStyle.Render("Material Previews")

	right := ""
	if n := snap.Counts.Failed + snap.Counts.Expired; n > 0 {
		right = badgeStyle.Render(fmt.Sprintf("[%d not written]", n))
	}

	gap := d.width - lipgloss.Width(title) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}

	return title + strings.Repeat(" ", gap) + right
}

func (d Dashboard) renderSubheader(snap drain.Snapshot) string {
	status := snap.State.String()
	if d.paused && snap.State != drain.StateDone {
		status = "PAUSED"
	}
	return subheaderStyle.Render(fmt.Sprintf("%s  %d/%d  ticks %d", status, snap.Cursor, snap.Total, snap.Counts.Ticks))
}

func (d Dashboard) renderProgress(snap drain.Snapshot) string {
	width := min(d.width-8, maxBarWidth)
	filled, pct := width, 100
	if snap.Total > 0 {
		filled = snap.Cursor * width / snap.Total
		pct = snap.Cursor * 100 / snap.Total
	}
	return "  " + barFilledStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", width-filled)) +
		fmt.Sprintf(" %3d%%", pct)
}

func (d Dashboard) renderCurrent(snap drain.Snapshot) string {
	label := "  " + labelStyle.Render(padRight("CURRENT", labelWidth))
	if snap.State == drain.StateDone {
		return label + " " + subheaderStyle.Render("all materials processed")
	}
	line := label + " " + truncate(displayPath(snap.Current), d.width-labelWidth-20)
	if snap.Last.Index == snap.Cursor && !snap.Last.Outcome.Advanced() {
		line += "  " + outcomeStyle(snap.Last.Outcome).Render(outcomeLabel(snap.Last.Outcome))
	}
	return line
}

func (d Dashboard) renderCounts(snap drain.Snapshot) string {
	c := snap.Counts
	parts := []string{
		outcomeStyle(drain.OutcomeWritten).Render(fmt.Sprintf("written %d", c.Written)),
		outcomeStyle(drain.OutcomeSkipped).Render(fmt.Sprintf("skipped %d", c.Skipped)),
		outcomeStyle(drain.OutcomeFailed).Render(fmt.Sprintf("failed %d", c.Failed)),
		outcomeStyle(drain.OutcomeExpired).Render(fmt.Sprintf("expired %d", c.Expired)),
	}
	return "  " + labelStyle.Render(padRight("ITEMS", labelWidth)) + " " + strings.Join(parts, "  ")
}

func (d Dashboard) renderNotificationBar() string {
	lines := d.bar.Render(d.width-4, d.now())
	if len(lines) == 0 {
		return notificationBarStyle.Render("")
	}
	for i, l := range lines {
		lines[i] = notificationBarStyle.Render("  " + l)
	}
	return strings.Join(lines, "\n")
}

func (d Dashboard) renderStatusBar() string {
	bell := "b:mute"
	if d.bell != nil && d.bell.IsSuspended() {
		bell = "b:unmute"
	}
	pause := "p:pause"
	if d.paused {
		pause = "p:resume"
	}
	return statusBarStyle.Render("  " + pause + "  " + bell + "  q:quit")
}

// Helpers

func notification(step drain.Step, now time.Time) notify.Notification {
	n := notify.Notification{
		Item:      displayPath(step.Path),
		Outcome:   step.Outcome.String(),
		Timestamp: now,
	}
	if step.Output != "" {
		n.Item = filepath.Base(step.Output)
	}
	if step.Err != nil {
		n.Detail = step.Err.Error()
	}
	return n
}

func displayPath(p string) string {
	if i := strings.LastIndex(p, "/Assets/"); i >= 0 {
		return p[i+1:]
	}
	return filepath.Base(p)
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen == 1 {
		return string(runes[:1])
	}
	return string(runes[:maxLen-1]) + "…"
}
