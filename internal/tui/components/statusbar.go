package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kanyini-os/kanyini/internal/tui/theme"
)

// StatusInfo is what the bottom bar reports about the loaded data.
type StatusInfo struct {
	DataAge     string
	Refreshing  bool
	AutoRefresh bool
	Defaults    bool // showing the built-in sample data
	Message     string
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, info StatusInfo) string {
	t := theme.Active

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)

	left := base.Render(" [?]help  [r]efresh  [q]uit")
	if info.Message != "" {
		left += base.Render("  ") + accent.Render(info.Message)
	}

	var right []string
	if info.Defaults {
		right = append(right, warn.Render("sample data"))
	}
	switch {
	case info.Refreshing:
		right = append(right, accent.Render("refreshing…"))
	case info.AutoRefresh:
		right = append(right, base.Render("auto"))
	}
	if info.DataAge != "" {
		right = append(right, base.Render("loaded in "+info.DataAge))
	}
	rightStr := strings.Join(right, base.Render("  ")) + base.Render(" ")

	padding := width - lipgloss.Width(left) - lipgloss.Width(rightStr)
	if padding < 0 {
		padding = 0
	}
	return left + base.Render(strings.Repeat(" ", padding)) + rightStr
}
