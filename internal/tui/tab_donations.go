package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kanyini-os/kanyini/internal/cli"
	"github.com/kanyini-os/kanyini/internal/model"
	"github.com/kanyini-os/kanyini/internal/tui/components"
	"github.com/kanyini-os/kanyini/internal/tui/theme"
)

// donationsState holds the donations tab state.
type donationsState struct {
	cursor      int
	offset      int
	searching   bool
	searchInput textinput.Model
	searchQuery string
}

func newSearchInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "donor, campaign, project or method"
	ti.CharLimit = 64
	ti.Width = 40
	ti.Prompt = "/ "
	return ti
}

// filterDonationsBySearch keeps donations where any text field contains query.
func filterDonationsBySearch(donations []model.Donation, query string) []model.Donation {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return donations
	}
	var out []model.Donation
	for _, d := range donations {
		for _, f := range []string{d.ID, d.DonorID, d.CampaignID, d.ProjectID, d.Method, d.RecordedBy} {
			if strings.Contains(strings.ToLower(f), q) {
				out = append(out, d)
				break
			}
		}
	}
	return out
}

func (a App) searchFilteredDonations() []model.Donation {
	return filterDonationsBySearch(a.recent, a.don.searchQuery)
}

func (a App) updateDonationsKey(key string) (App, tea.Cmd, bool) {
	switch key {
	case "/":
		a.don.searching = true
		a.don.searchInput = newSearchInput()
		a.don.searchInput.SetValue(a.don.searchQuery)
		a.don.searchInput.Focus()
		return a, a.don.searchInput.Cursor.BlinkCmd(), true
	case "j", "down":
		a, _, _ = a.scrollActive(1)
	case "k", "up":
		a, _, _ = a.scrollActive(-1)
	case "g":
		a.don.cursor, a.don.offset = 0, 0
	case "G":
		n := len(a.searchFilteredDonations())
		a.don.cursor = clampCursor(n-1, n)
	case "esc":
		if a.don.searchQuery == "" {
			return a, nil, false
		}
		a.don.searchQuery = ""
		a.don.cursor, a.don.offset = 0, 0
	default:
		return a, nil, false
	}
	return a, nil, true
}

// updateDonationSearch handles key events while the search box is focused.
func (a App) updateDonationSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.don.searchQuery = strings.TrimSpace(a.don.searchInput.Value())
		a.don.searching = false
		a.don.cursor, a.don.offset = 0, 0
		return a, nil
	case "esc":
		a.don.searching = false
		return a, nil
	}

	var cmd tea.Cmd
	a.don.searchInput, cmd = a.don.searchInput.Update(msg)
	return a, cmd
}

// attributionTarget names where a donation is credited.
func (a App) attributionTarget(d model.Donation) string {
	switch model.AttributionOf(d) {
	case model.AttributionCampaign, model.AttributionConflict:
		for _, c := range a.campaigns {
			if c.ID == d.CampaignID {
				return c.Name
			}
		}
		return d.CampaignID
	case model.AttributionProject:
		return "project " + d.ProjectID
	default:
		return "general fund"
	}
}

func (a App) renderDonationsTab(cw, h int) string {
	t := theme.Active
	s := a.summary
	innerW := components.CardInnerWidth(cw)

	label := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)
	row := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selected := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	header := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	conflict := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)

	var b strings.Builder

	// Summary strip
	stat := func(name, v string) string { return label.Render(name+" ") + value.Render(v) + label.Render("   ") }
	strip := stat("Gifts", cli.FormatNumber(s.Count)) +
		stat("Total", cli.FormatMoney(s.Total)) +
		stat("Average", cli.FormatMoney(s.Average)) +
		stat("Largest", cli.FormatMoney(s.Largest)) +
		stat("Donors", cli.FormatNumber(s.UniqueDonors)) +
		stat("Per active day", cli.FormatMoney(s.TotalPerDay))
	b.WriteString(components.ContentCard(fmt.Sprintf("Donations (%dd)", a.days), strip, cw))
	b.WriteString("\n")

	list := a.searchFilteredDonations()
	var body strings.Builder
	if a.don.searching {
		body.WriteString(a.don.searchInput.View())
		body.WriteString("\n")
	} else if a.don.searchQuery != "" {
		body.WriteString(label.Render(fmt.Sprintf("matching %q (%d)  [Esc] clear", a.don.searchQuery, len(list))))
		body.WriteString("\n")
	}

	if len(list) == 0 {
		body.WriteString(label.Render("No donations in this window"))
		b.WriteString(components.ContentCard("Recent", body.String(), cw))
		return b.String()
	}

	dateW, donorW, methodW, amountW := 12, 16, 14, 12
	targetW := max(10, innerW-dateW-donorW-methodW-amountW-4)
	format := fmt.Sprintf("%%-%ds %%-%ds %%-%ds %%-%ds %%%ds", dateW, donorW, targetW, methodW, amountW)

	body.WriteString(header.Render(fmt.Sprintf(format, "Date", "Donor", "For", "Method", "Amount")))
	body.WriteString("\n")

	visible := max(3, h-lipgloss.Height(b.String())-5)
	offset := a.don.offset
	if a.don.cursor < offset {
		offset = a.don.cursor
	}
	if a.don.cursor >= offset+visible {
		offset = a.don.cursor - visible + 1
	}
	end := min(len(list), offset+visible)

	for i := offset; i < end; i++ {
		d := list[i]
		style := row
		if i == a.don.cursor {
			style = selected
		}
		target := a.attributionTarget(d)
		line := style.Render(fmt.Sprintf(format,
			cli.FormatDate(d.Date),
			truncStr(d.DonorID, donorW),
			truncStr(target, targetW),
			truncStr(cli.FormatLabel(d.Method), methodW),
			cli.FormatMoney(d.Amount)))
		if model.AttributionOf(d) == model.AttributionConflict {
			line += conflict.Render(" !")
		}
		body.WriteString(line)
		body.WriteString("\n")
	}
	body.WriteString(label.Render("[/] search  [j/k] navigate  [g/G] first/last"))

	b.WriteString(components.ContentCard(fmt.Sprintf("Recent (%d)", len(list)), body.String(), cw))
	return b.String()
}
