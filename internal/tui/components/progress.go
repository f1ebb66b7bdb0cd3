package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/kanyini-os/kanyini/internal/model"
	"github.com/kanyini-os/kanyini/internal/tui/theme"
)

// FundingBar renders a campaign's funding percentage as a bar colored by tier.
// The bar is capped at full width for over-funded campaigns; the label is not.
func FundingBar(pct int, tier model.ProgressTier, width int) string {
	t := theme.Active
	if width < 4 {
		width = 4
	}

	frac := float64(pct) / 100
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}

	color := t.TierColor(tier)
	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	space := lipgloss.NewStyle().Background(t.Surface).Render(" ")

	return bar.ViewAs(frac) + space + pctStyle.Render(fmt.Sprintf("%4d%%", pct))
}

// LoadBar renders file parsing progress on the loading screen.
func LoadBar(frac float64, width int) string {
	t := theme.Active
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}

	bar := progress.New(
		progress.WithSolidFill(string(t.Accent)),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	pctStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	space := lipgloss.NewStyle().Background(t.Surface).Render(" ")
	return bar.ViewAs(frac) + space + pctStyle.Render(fmt.Sprintf("%.0f%%", frac*100))
}
