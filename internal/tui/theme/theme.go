// Package theme defines color themes for the kanyini TUI dashboard.
package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/kanyini-os/kanyini/internal/model"
)

// Theme defines the color roles used throughout the TUI.
type Theme struct {
	Name          string
	Background    lipgloss.Color // Main app background
	Surface       lipgloss.Color // Card/panel backgrounds
	SurfaceBright lipgloss.Color // Selected row
	Border        lipgloss.Color
	BorderAccent  lipgloss.Color // Focused cards and overlays
	TextDim       lipgloss.Color
	TextMuted     lipgloss.Color
	TextPrimary   lipgloss.Color
	Accent        lipgloss.Color
	AccentBright  lipgloss.Color

	// Funding tiers, high to critical.
	Green  lipgloss.Color
	Yellow lipgloss.Color
	Orange lipgloss.Color
	Red    lipgloss.Color

	Blue lipgloss.Color
	Sand lipgloss.Color
}

// Active is the currently selected theme.
var Active = KanyiniEarth

// KanyiniEarth is the default theme: ochre, eucalyptus and deep soil.
var KanyiniEarth = Theme{
	Name:          "kanyini-earth",
	Background:    lipgloss.Color("#17120E"),
	Surface:       lipgloss.Color("#221B15"),
	SurfaceBright: lipgloss.Color("#3A2E24"),
	Border:        lipgloss.Color("#4A3C30"),
	BorderAccent:  lipgloss.Color("#C8773A"),
	TextDim:       lipgloss.Color("#6B5D50"),
	TextMuted:     lipgloss.Color("#A89886"),
	TextPrimary:   lipgloss.Color("#F3EBDD"),
	Accent:        lipgloss.Color("#C8773A"),
	AccentBright:  lipgloss.Color("#E39A5B"),
	Green:         lipgloss.Color("#7FA36B"),
	Yellow:        lipgloss.Color("#D9B44A"),
	Orange:        lipgloss.Color("#D9822B"),
	Red:           lipgloss.Color("#C4513D"),
	Blue:          lipgloss.Color("#5D8AA8"),
	Sand:          lipgloss.Color("#D8C3A5"),
}

// SaltLake is a pale, low-contrast theme for light terminals.
var SaltLake = Theme{
	Name:          "salt-lake",
	Background:    lipgloss.Color("#FAF7F2"),
	Surface:       lipgloss.Color("#F1ECE3"),
	SurfaceBright: lipgloss.Color("#E2D9CB"),
	Border:        lipgloss.Color("#C9BCA8"),
	BorderAccent:  lipgloss.Color("#2F7F86"),
	TextDim:       lipgloss.Color("#A39885"),
	TextMuted:     lipgloss.Color("#6E6455"),
	TextPrimary:   lipgloss.Color("#2B2620"),
	Accent:        lipgloss.Color("#2F7F86"),
	AccentBright:  lipgloss.Color("#1F6A70"),
	Green:         lipgloss.Color("#4C7A3A"),
	Yellow:        lipgloss.Color("#A6821A"),
	Orange:        lipgloss.Color("#B5621C"),
	Red:           lipgloss.Color("#A63D2C"),
	Blue:          lipgloss.Color("#3A6A8C"),
	Sand:          lipgloss.Color("#8C7454"),
}

// Terminal uses ANSI 16 colors only.
var Terminal = Theme{
	Name:          "terminal",
	Background:    lipgloss.Color("0"),
	Surface:       lipgloss.Color("0"),
	SurfaceBright: lipgloss.Color("8"),
	Border:        lipgloss.Color("8"),
	BorderAccent:  lipgloss.Color("3"),
	TextDim:       lipgloss.Color("8"),
	TextMuted:     lipgloss.Color("7"),
	TextPrimary:   lipgloss.Color("15"),
	Accent:        lipgloss.Color("3"),
	AccentBright:  lipgloss.Color("11"),
	Green:         lipgloss.Color("2"),
	Yellow:        lipgloss.Color("11"),
	Orange:        lipgloss.Color("3"),
	Red:           lipgloss.Color("1"),
	Blue:          lipgloss.Color("4"),
	Sand:          lipgloss.Color("7"),
}

// All available themes.
var All = []Theme{KanyiniEarth, SaltLake, Terminal}

// ByName returns a theme by its name, defaulting to KanyiniEarth.
func ByName(name string) Theme {
	for _, t := range All {
		if t.Name == name {
			return t
		}
	}
	return KanyiniEarth
}

// Names lists the theme names in All.
func Names() []string {
	names := make([]string, len(All))
	for i, t := range All {
		names[i] = t.Name
	}
	return names
}

// SetActive sets the active theme by name.
func SetActive(name string) {
	Active = ByName(name)
}

// TierColor returns the theme color for a funding tier.
func (t Theme) TierColor(tier model.ProgressTier) lipgloss.Color {
	switch tier {
	case model.TierHigh:
		return t.Green
	case model.TierMid:
		return t.Yellow
	case model.TierLow:
		return t.Orange
	default:
		return t.Red
	}
}
