// Package components provides reusable TUI widgets for the kanyini dashboard.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kanyini-os/kanyini/internal/tui/theme"
)

// Metric is one headline figure shown in a MetricCard.
type Metric struct {
	Label string
	Value string
	Delta string
}

// LayoutRow distributes totalWidth into n widths that sum to exactly totalWidth.
// First items absorb the remainder from integer division.
func LayoutRow(totalWidth, n int) []int {
	if n <= 0 {
		return nil
	}
	base := totalWidth / n
	remainder := totalWidth % n
	widths := make([]int, n)
	for i := range widths {
		widths[i] = base
		if i < remainder {
			widths[i]++
		}
	}
	return widths
}

// cardFrame is the shared bordered style. outerWidth includes the border.
func cardFrame(outerWidth int, border lipgloss.Color) lipgloss.Style {
	t := theme.Active
	w := outerWidth - 2
	if w < 10 {
		w = 10
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		BorderBackground(t.Background).
		Background(t.Surface).
		Width(w).
		Padding(0, 1)
}

// MetricCard renders a small card with label, value, and an optional delta line.
func MetricCard(m Metric, outerWidth int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)
	deltaStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	content := labelStyle.Render(m.Label) + "\n" + valueStyle.Render(m.Value)
	if m.Delta != "" {
		content += "\n" + deltaStyle.Render(m.Delta)
	}
	return cardFrame(outerWidth, t.Border).Render(content)
}

// MetricCardRow renders metrics side by side, summing to exactly totalWidth.
func MetricCardRow(metrics []Metric, totalWidth int) string {
	if len(metrics) == 0 {
		return ""
	}
	widths := LayoutRow(totalWidth, len(metrics))
	rendered := make([]string, len(metrics))
	for i, m := range metrics {
		rendered[i] = MetricCard(m, widths[i])
	}
	return CardRow(rendered)
}

// ContentCard renders a bordered card with an optional title.
func ContentCard(title, body string, outerWidth int) string {
	return contentCard(title, body, outerWidth, theme.Active.Border)
}

// FocusCard is a ContentCard with an accent border, used for the selected pane.
func FocusCard(title, body string, outerWidth int) string {
	return contentCard(title, body, outerWidth, theme.Active.BorderAccent)
}

func contentCard(title, body string, outerWidth int, border lipgloss.Color) string {
	t := theme.Active
	titleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Bold(true)

	content := ""
	if title != "" {
		content = titleStyle.Render(title) + "\n"
	}
	content += strings.TrimRight(body, "\n")
	return cardFrame(outerWidth, border).Render(content)
}

// CardRow joins rendered cards horizontally. Shorter cards are padded with
// background-filled lines so the row has no unstyled gaps.
func CardRow(cards []string) string {
	var nonEmpty []string
	for _, c := range cards {
		if c != "" {
			nonEmpty = append(nonEmpty, c)
		}
	}
	if len(nonEmpty) == 0 {
		return ""
	}

	height := 0
	for _, c := range nonEmpty {
		if h := lipgloss.Height(c); h > height {
			height = h
		}
	}

	fill := lipgloss.NewStyle().Background(theme.Active.Background)
	for i, c := range nonEmpty {
		missing := height - lipgloss.Height(c)
		if missing <= 0 {
			continue
		}
		pad := fill.Render(strings.Repeat(" ", lipgloss.Width(c)))
		nonEmpty[i] = c + strings.Repeat("\n"+pad, missing)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, nonEmpty...)
}

// CardInnerWidth returns the usable text width inside a ContentCard
// of the given outer width.
func CardInnerWidth(outerWidth int) int {
	w := outerWidth - 4 // 2 border + 2 padding
	if w < 10 {
		w = 10
	}
	return w
}
