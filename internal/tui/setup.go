package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/kanyini-os/kanyini/internal/cli"
	"github.com/kanyini-os/kanyini/internal/config"
	"github.com/kanyini-os/kanyini/internal/tui/theme"
)

// SetupValues holds the answers of the first-run form.
type SetupValues struct {
	DataDir  string
	Days     int
	Currency string
	Theme    string
}

var setupCurrencies = []struct{ code, locale string }{
	{"AUD", "en-AU"},
	{"NZD", "en-NZ"},
	{"USD", "en-US"},
	{"GBP", "en-GB"},
	{"EUR", "de-DE"},
}

// DefaultSetupValues seeds the form from cfg, falling back to dataDir.
func DefaultSetupValues(cfg config.Config, dataDir string) SetupValues {
	v := SetupValues{
		DataDir:  cfg.General.DataDir,
		Days:     cfg.General.DefaultDays,
		Currency: cfg.General.Currency,
		Theme:    cfg.Appearance.Theme,
	}
	if v.DataDir == "" {
		v.DataDir = dataDir
	}
	return v
}

// NewSetupForm builds the first-run form. The counts describe what was found
// in the data directory.
func NewSetupForm(v *SetupValues, campaigns, donations int) *huh.Form {
	found := fmt.Sprintf("Found %s campaigns and %s donations.",
		cli.FormatNumber(campaigns), cli.FormatNumber(donations))

	currencyOpts := make([]huh.Option[string], 0, len(setupCurrencies))
	for _, c := range setupCurrencies {
		currencyOpts = append(currencyOpts, huh.NewOption(c.code, c.code))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to kanyini").
				Description(found+"\nA few settings and you're in.\nRun `kanyini setup` anytime to change them."),
			huh.NewInput().
				Title("Fixture directory").
				Description("Where campaigns.* and donations.* files live").
				Value(&v.DataDir),
			huh.NewSelect[int]().
				Title("Default time window").
				Options(
					huh.NewOption("7 days", 7),
					huh.NewOption("30 days", 30),
					huh.NewOption("90 days", 90),
					huh.NewOption("365 days", 365),
				).
				Value(&v.Days),
			huh.NewSelect[string]().
				Title("Currency").
				Options(currencyOpts...).
				Value(&v.Currency),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(huh.NewOptions(theme.Names()...)...).
				Value(&v.Theme),
		),
	).WithTheme(huh.ThemeCharm()).WithShowHelp(false)
}

// ApplySetup copies form answers into cfg. A currency change also switches
// to the matching locale.
func ApplySetup(cfg *config.Config, v SetupValues) {
	cfg.General.DataDir = strings.TrimSpace(v.DataDir)
	if v.Days > 0 {
		cfg.General.DefaultDays = v.Days
	}
	if v.Currency != "" && v.Currency != cfg.General.Currency {
		cfg.General.Currency = v.Currency
		cfg.General.Locale = localeFor(v.Currency, cfg.General.Locale)
	}
	if v.Theme != "" {
		cfg.Appearance.Theme = theme.ByName(v.Theme).Name
	}
}

func localeFor(currency, fallback string) string {
	for _, c := range setupCurrencies {
		if c.code == currency {
			return c.locale
		}
	}
	return fallback
}
