package notify

import (
	"fmt"
	"time"
)

// Notification represents a single finished or noteworthy item.
type Notification struct {
	Item      string
	Outcome   string
	Detail    string
	Timestamp time.Time
}

// Bar manages a FIFO queue of notification entries.
type Bar struct {
	items    []Notification
	maxStore int
	visible  int
}

// NewBar creates a notification bar with the given buffer size that
// shows the most recent visible entries.
func NewBar(maxStore, visible int) *Bar {
	if visible <= 0 {
		visible = 2
	}
	return &Bar{
		items:    make([]Notification, 0, maxStore),
		maxStore: maxStore,
		visible:  visible,
	}
}

// Push adds a notification, trimming oldest if at capacity.
func (b *Bar) Push(n Notification) {
	b.items = append(b.items, n)
	if len(b.items) > b.maxStore {
		b.items = b.items[len(b.items)-b.maxStore:]
	}
}

// Visible returns the most recent notifications.
func (b *Bar) Visible() []Notification {
	if len(b.items) <= b.visible {
		return b.items
	}
	return b.items[len(b.items)-b.visible:]
}

// Len returns the total number of buffered notifications.
func (b *Bar) Len() int {
	return len(b.items)
}

// Render formats the visible notifications, newest last, one per line,
// each truncated to width runes.
func (b *Bar) Render(width int, now time.Time) []string {
	visible := b.Visible()
	lines := make([]string, 0, len(visible))
	for _, n := range visible {
		lines = append(lines, truncate(formatNotification(n, now), width))
	}
	return lines
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width > 1 {
		return string(runes[:width-1]) + "…"
	}
	if width < 0 {
		width = 0
	}
	return string(runes[:width])
}

func formatNotification(n Notification, now time.Time) string {
	age := now.Sub(n.Timestamp).Truncate(time.Second)
	var ageStr string
	if age < time.Minute {
		ageStr = fmt.Sprintf("%ds ago", int(age.Seconds()))
	} else if age < time.Hour {
		ageStr = fmt.Sprintf("%dm ago", int(age.Minutes()))
	} else {
		ageStr = fmt.Sprintf("%dh ago", int(age.Hours()))
	}

	if n.Detail != "" {
		return fmt.Sprintf("● %s %s: %s (%s)", n.Outcome, n.Item, n.Detail, ageStr)
	}
	return fmt.Sprintf("● %s %s (%s)", n.Outcome, n.Item, ageStr)
}
