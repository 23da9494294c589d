package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/regionbar/internal/ipc"
)

const minColumnWidth = 24

var (
	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)

	selectedColumnStyle = columnStyle.
				BorderForeground(lipgloss.Color("62"))

	regionTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15"))

	boundsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	lastActiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62"))

	windowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// renderStatusBar renders the daemon connection status bar.
func renderStatusBar(connected bool, regions, windows int, message string, width int) string {
	var status string
	if connected {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("●")
		status = fmt.Sprintf("%s daemon connected  regions:%d  windows:%d", dot, regions, windows)
	} else {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("●")
		status = dot + " daemon not running"
	}
	if message != "" {
		status += "  " + message
	}

	style := lipgloss.NewStyle().
		Width(width).
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("250")).
		Padding(0, 1)
	return style.Render(status)
}

// renderRegion renders one region column with its windows, highlighting the
// last active one.
func renderRegion(r ipc.RegionData, selected bool, width int) string {
	var b strings.Builder
	b.WriteString(regionTitleStyle.Render(r.Name))
	b.WriteString("\n")
	b.WriteString(boundsStyle.Render(r.Bounds.String()))
	b.WriteString("\n\n")

	if len(r.Windows) == 0 {
		b.WriteString(emptyStyle.Render("no windows"))
	}
	inner := width - 4
	for i, w := range r.Windows {
		if i > 0 {
			b.WriteString("\n")
		}
		label := truncate(windowLabel(w), inner)
		if w.ID == r.LastActive {
			b.WriteString(lastActiveStyle.Render(label))
		} else {
			b.WriteString(windowStyle.Render(label))
		}
	}

	style := columnStyle
	if selected {
		style = selectedColumnStyle
	}
	return style.Width(width).Render(b.String())
}

func windowLabel(w ipc.WindowData) string {
	title := w.Title
	if title == "" {
		title = fmt.Sprintf("0x%x", w.ID)
	}
	if w.Compact {
		title += " [c]"
	}
	return title
}

func truncate(s string, width int) string {
	if width <= 1 || lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+1 > width {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}
