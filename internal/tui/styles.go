package tui

import (
	"strings"

	"github.com/JPM1118/matthumb/internal/drain"
	"github.com/charmbracelet/lipgloss"
)

var (
	// Colors
	colorWritten = lipgloss.Color("2")  // green
	colorWaiting = lipgloss.Color("3")  // yellow
	colorFailed  = lipgloss.Color("1")  // red
	colorSkipped = lipgloss.Color("8")  // dim gray
	colorHeader  = lipgloss.Color("12") // bright blue
	colorMuted   = lipgloss.Color("8")  // dim
	colorBar     = lipgloss.Color("6")  // cyan

	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorHeader)

	subheaderStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	barFilledStyle = lipgloss.NewStyle().
			Foreground(colorBar)

	barEmptyStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Underline(true)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	notificationBarStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Italic(true)

	badgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1")).
			Bold(true)
)

// outcomeStyle returns the style used for an outcome label.
func outcomeStyle(o drain.Outcome) lipgloss.Style {
	switch o {
	case drain.OutcomeWritten:
		return lipgloss.NewStyle().Foreground(colorWritten)
	case drain.OutcomeWaiting:
		return lipgloss.NewStyle().Foreground(colorWaiting)
	case drain.OutcomeStalled, drain.OutcomeUnresolved:
		return lipgloss.NewStyle().Foreground(colorWaiting).Bold(true)
	case drain.OutcomeFailed, drain.OutcomeExpired:
		return lipgloss.NewStyle().Foreground(colorFailed).Bold(true)
	case drain.OutcomeSkipped:
		return lipgloss.NewStyle().Foreground(colorSkipped)
	default:
		return lipgloss.NewStyle().Foreground(colorMuted)
	}
}

// outcomeLabel returns the display text for an outcome, including indicators.
func outcomeLabel(o drain.Outcome) string {
	switch o {
	case drain.OutcomeFailed:
		return "FAILED !"
	case drain.OutcomeExpired:
		return "EXPIRED !"
	case drain.OutcomeUnresolved:
		return "UNRESOLVED ?"
	case drain.OutcomeNone:
		return ""
	default:
		return strings.ToUpper(o.String())
	}
}
