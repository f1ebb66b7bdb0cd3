package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kanyini-os/kanyini/internal/cli"
	"github.com/kanyini-os/kanyini/internal/config"
	"github.com/kanyini-os/kanyini/internal/tui/components"
	"github.com/kanyini-os/kanyini/internal/tui/theme"
)

const (
	settingsFieldTheme = iota
	settingsFieldDays
	settingsFieldCurrency
	settingsFieldLocale
	settingsFieldDataDir
	settingsFieldRemoteURL
	settingsFieldAutoRefresh
	settingsFieldRefreshInterval
	settingsFieldCount // sentinel
)

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool
	saveErr error
}

func (a App) updateSettingsKey(key string) (App, tea.Cmd, bool) {
	switch key {
	case "j", "down":
		if a.settings.cursor < settingsFieldCount-1 {
			a.settings.cursor++
		}
	case "k", "up":
		if a.settings.cursor > 0 {
			a.settings.cursor--
		}
	case "enter":
		return a.settingsStartEdit()
	default:
		return a, nil, false
	}
	return a, nil, true
}

// settingsValue returns the current value of field as shown and edited.
func (a App) settingsValue(cfg config.Config, field int) string {
	switch field {
	case settingsFieldTheme:
		return cfg.Appearance.Theme
	case settingsFieldDays:
		return strconv.Itoa(a.days)
	case settingsFieldCurrency:
		return cfg.General.Currency
	case settingsFieldLocale:
		return cfg.General.Locale
	case settingsFieldDataDir:
		return cfg.General.DataDir
	case settingsFieldRemoteURL:
		return cfg.Remote.BaseURL
	case settingsFieldAutoRefresh:
		return strconv.FormatBool(a.autoRefresh)
	case settingsFieldRefreshInterval:
		return strconv.Itoa(int(a.refreshInterval.Seconds()))
	}
	return ""
}

func (a App) settingsStartEdit() (App, tea.Cmd, bool) {
	cfg := loadConfigOrDefault()
	a.settings.editing = true
	a.settings.saved = false

	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 50
	switch a.settings.cursor {
	case settingsFieldTheme:
		ti.Placeholder = strings.Join(theme.Names(), ", ")
	case settingsFieldDays:
		ti.Placeholder = "30"
	case settingsFieldCurrency:
		ti.Placeholder = "AUD"
	case settingsFieldLocale:
		ti.Placeholder = "en-AU"
	case settingsFieldDataDir:
		ti.Placeholder = a.opts.DataDir
	case settingsFieldRemoteURL:
		ti.Placeholder = "https://donations.example.org/api (empty to clear)"
	case settingsFieldAutoRefresh:
		ti.Placeholder = "true or false"
	case settingsFieldRefreshInterval:
		ti.Placeholder = "30 (seconds, minimum 10)"
	}
	ti.SetValue(a.settingsValue(cfg, a.settings.cursor))
	ti.Focus()

	a.settings.input = ti
	return a, ti.Cursor.BlinkCmd(), true
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.settingsSave()
		a.settings.editing = false
		a.settings.saved = a.settings.saveErr == nil
		return a, nil
	case "esc":
		a.settings.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

func (a *App) settingsSave() {
	cfg := loadConfigOrDefault()
	val := strings.TrimSpace(a.settings.input.Value())
	a.settings.saveErr = nil

	switch a.settings.cursor {
	case settingsFieldTheme:
		if theme.ByName(val).Name != val {
			a.settings.saveErr = fmt.Errorf("unknown theme %q", val)
			return
		}
		cfg.Appearance.Theme = val
		theme.SetActive(val)
	case settingsFieldDays:
		d, err := strconv.Atoi(val)
		if err != nil || d < 1 {
			a.settings.saveErr = fmt.Errorf("days must be a positive number")
			return
		}
		cfg.General.DefaultDays = d
		a.days = d
		a.recompute()
	case settingsFieldCurrency, settingsFieldLocale:
		locale, currency := cfg.General.Locale, cfg.General.Currency
		if a.settings.cursor == settingsFieldCurrency {
			currency = strings.ToUpper(val)
		} else {
			locale = val
		}
		f, err := cli.NewFormatter(locale, currency)
		if err != nil {
			a.settings.saveErr = err
			return
		}
		cli.SetDefault(f)
		cfg.General.Locale, cfg.General.Currency = locale, currency
	case settingsFieldDataDir:
		cfg.General.DataDir = val
	case settingsFieldRemoteURL:
		cfg.Remote.BaseURL = val
	case settingsFieldAutoRefresh:
		b, err := strconv.ParseBool(val)
		if err != nil {
			a.settings.saveErr = fmt.Errorf("auto refresh must be true or false")
			return
		}
		cfg.TUI.AutoRefresh = b
		a.autoRefresh = b
	case settingsFieldRefreshInterval:
		sec, err := strconv.Atoi(val)
		if err != nil || sec < 10 {
			a.settings.saveErr = fmt.Errorf("refresh interval must be at least 10 seconds")
			return
		}
		cfg.TUI.RefreshIntervalSec = sec
		a.refreshInterval = time.Duration(sec) * time.Second
	}

	a.settings.saveErr = config.Save(cfg)
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active
	cfg := loadConfigOrDefault()
	innerW := components.CardInnerWidth(cw)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)
	greenStyle := lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface)
	warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)

	names := [settingsFieldCount]string{
		"Theme", "Default Days", "Currency", "Locale", "Data Directory", "Remote URL", "Auto Refresh", "Refresh (sec)",
	}

	var form strings.Builder
	for i, name := range names {
		v := a.settingsValue(cfg, i)
		if v == "" {
			v = "(not set)"
		}

		switch {
		case a.settings.editing && i == a.settings.cursor:
			form.WriteString(markerStyle.Render("▸ "))
			form.WriteString(selectedLabelStyle.Render(fmt.Sprintf("%-18s ", name)))
			form.WriteString(a.settings.input.View())
		case i == a.settings.cursor:
			line := markerStyle.Render("▸ ") +
				selectedLabelStyle.Render(fmt.Sprintf("%-18s ", name+":")) +
				selectedStyle.Render(v)
			form.WriteString(line)
			if pad := innerW - lipgloss.Width(line); pad > 0 {
				form.WriteString(lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", pad)))
			}
		default:
			form.WriteString(labelStyle.Render("  " + fmt.Sprintf("%-18s ", name+":")))
			form.WriteString(valueStyle.Render(v))
		}
		form.WriteString("\n")
	}

	if a.settings.saveErr != nil {
		form.WriteString("\n")
		form.WriteString(warnStyle.Render("Not saved: " + a.settings.saveErr.Error()))
	} else if a.settings.saved {
		form.WriteString("\n")
		form.WriteString(greenStyle.Render("Saved"))
	}
	form.WriteString("\n")
	form.WriteString(labelStyle.Render("[j/k] navigate  [Enter] edit  [Esc] cancel"))

	info := func(name, v string) string {
		return labelStyle.Render(fmt.Sprintf("%-18s", name)) + valueStyle.Render(v) + "\n"
	}
	source := a.opts.DataDir
	if a.usedDefaults {
		source += " (empty; showing sample data)"
	}
	var general strings.Builder
	general.WriteString(info("Reading from", source))
	general.WriteString(info("Campaigns", cli.FormatNumber(len(a.campaigns))))
	general.WriteString(info("Donations", cli.FormatNumber(len(a.donations))))
	general.WriteString(info("Load time", fmt.Sprintf("%.2fs", a.loadTime.Seconds())))
	general.WriteString(info("Currency", cli.Default().Currency()))
	general.WriteString(info("Config file", config.Path()))

	return components.ContentCard("Settings", form.String(), cw) + "\n" +
		components.ContentCard("General", general.String(), cw)
}
