package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kanyini-os/kanyini/internal/tui/theme"
)

// Tab represents a single tab in the tab bar.
type Tab struct {
	Name string
	Key  rune // shortcut; always the first letter of Name
}

// Tabs defines all available tabs, in display order.
var Tabs = []Tab{
	{Name: "Overview", Key: 'o'},
	{Name: "Campaigns", Key: 'c'},
	{Name: "Donations", Key: 'd'},
	{Name: "Settings", Key: 's'},
}

// TabVisualWidth returns the rendered width of a tab label.
func TabVisualWidth(tab Tab, active bool) int {
	return lipgloss.Width(renderTab(tab, active))
}

func renderTab(tab Tab, active bool) string {
	t := theme.Active
	if active {
		return lipgloss.NewStyle().
			Foreground(t.Background).
			Background(t.Accent).
			Bold(true).
			Padding(0, 1).
			Render(tab.Name)
	}

	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	restStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	pad := restStyle.Render(" ")
	return pad + keyStyle.Render(tab.Name[:1]) + restStyle.Render(tab.Name[1:]) + pad
}

// RenderTabBar renders the tab bar with the given active index, filled to width.
func RenderTabBar(activeIdx int, width int) string {
	t := theme.Active
	sep := lipgloss.NewStyle().Foreground(t.Border).Background(t.Surface).Render("│")

	parts := make([]string, len(Tabs))
	for i, tab := range Tabs {
		parts[i] = renderTab(tab, i == activeIdx)
	}
	row := strings.Join(parts, sep)

	return lipgloss.NewStyle().Background(t.Surface).Width(width).Render(row)
}

// TabIdxByKey returns the tab index for a given key press, or -1.
func TabIdxByKey(key rune) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}
