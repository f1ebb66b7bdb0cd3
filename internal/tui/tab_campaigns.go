package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kanyini-os/kanyini/internal/cli"
	"github.com/kanyini-os/kanyini/internal/model"
	"github.com/kanyini-os/kanyini/internal/pipeline"
	"github.com/kanyini-os/kanyini/internal/tui/components"
	"github.com/kanyini-os/kanyini/internal/tui/theme"
)

// campaignSortKeys is the S-key cycle; "" keeps file order.
var campaignSortKeys = []string{"", pipeline.SortByProgress, pipeline.SortByRaised, pipeline.SortByEnding, pipeline.SortByName}

const campaignDetailDonations = 8

// campaignsState holds the campaigns tab state.
type campaignsState struct {
	cursor     int
	offset     int
	activeOnly bool
	sortKey    string
	detail     bool // full-width detail view
}

func nextSortKey(cur string) string {
	for i, k := range campaignSortKeys {
		if k == cur {
			return campaignSortKeys[(i+1)%len(campaignSortKeys)]
		}
	}
	return campaignSortKeys[0]
}

func sortLabel(key string) string {
	if key == "" {
		return "file order"
	}
	return key
}

func (a App) updateCampaignsKey(key string) (App, tea.Cmd, bool) {
	switch key {
	case "j", "down":
		a, _, _ = a.scrollActive(1)
	case "k", "up":
		a, _, _ = a.scrollActive(-1)
	case "g":
		a.camp.cursor, a.camp.offset = 0, 0
	case "G":
		a.camp.cursor = clampCursor(len(a.rows)-1, len(a.rows))
	case "enter":
		a.camp.detail = !a.camp.detail
	case "esc":
		if !a.camp.detail {
			return a, nil, false
		}
		a.camp.detail = false
	case "q":
		if !a.camp.detail {
			return a, nil, false
		}
		a.camp.detail = false
	case "a":
		a.camp.activeOnly = !a.camp.activeOnly
		a.camp.cursor, a.camp.offset = 0, 0
		a.recompute()
	case "S":
		a.camp.sortKey = nextSortKey(a.camp.sortKey)
		a.recompute()
	default:
		return a, nil, false
	}
	return a, nil, true
}

func (a App) renderCampaignsTab(cw, h int) string {
	t := theme.Active
	if len(a.rows) == 0 {
		msg := "No campaigns match the current filters"
		if a.camp.activeOnly {
			msg = "No active campaigns (press a to show all)"
		}
		return components.ContentCard("Campaigns", lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render(msg), cw)
	}

	sel := a.rows[a.camp.cursor]
	if a.camp.detail {
		return components.FocusCard(sel.Campaign.Name, a.campaignDetailBody(sel, cw), cw)
	}
	if a.isCompactLayout() {
		return a.campaignList(cw, h, true)
	}

	leftW := max(44, cw*2/5)
	rightW := cw - leftW
	return components.CardRow([]string{
		a.campaignList(leftW, h, false),
		components.ContentCard(sel.Campaign.Name, a.campaignDetailBody(sel, rightW), rightW),
	})
}

// campaignList renders the scrolling campaign list. wide adds days-left and raised columns.
func (a App) campaignList(outerW, h int, wide bool) string {
	t := theme.Active
	innerW := components.CardInnerWidth(outerW)

	row := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selected := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	visible := max(3, h-5) // border, title, footer
	offset := a.camp.offset
	if a.camp.cursor < offset {
		offset = a.camp.cursor
	}
	if a.camp.cursor >= offset+visible {
		offset = a.camp.cursor - visible + 1
	}
	end := min(len(a.rows), offset+visible)

	extraW := 0
	if wide {
		extraW = 14 + 10
	}
	nameW := max(12, innerW/3)
	barW := max(4, innerW-nameW-extraW-8)

	var body strings.Builder
	for i := offset; i < end; i++ {
		p := a.rows[i]
		style := row
		if i == a.camp.cursor {
			style = selected
		}
		line := style.Render(fmt.Sprintf("%-*s", nameW, truncStr(p.Campaign.Name, nameW))) +
			muted.Render(" ") + components.FundingBar(p.Percent, p.Tier, barW)
		if wide {
			line += muted.Render(fmt.Sprintf(" %13s %9s", cli.FormatDaysLeft(p.DaysLeft), cli.FormatMoneyCompact(p.Campaign.Raised)))
		}
		body.WriteString(line)
		body.WriteString("\n")
	}
	body.WriteString(muted.Render(fmt.Sprintf("[a] %s  [S] sort: %s  [Enter] detail",
		map[bool]string{true: "active", false: "all"}[a.camp.activeOnly], sortLabel(a.camp.sortKey))))

	title := fmt.Sprintf("Campaigns (%d)", len(a.rows))
	return components.ContentCard(title, body.String(), outerW)
}

// campaignDetailBody renders everything known about one campaign.
func (a App) campaignDetailBody(p model.CampaignProgress, outerW int) string {
	t := theme.Active
	c := p.Campaign
	innerW := components.CardInnerWidth(outerW)

	label := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	header := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)

	field := func(name, v string) string {
		return label.Render(fmt.Sprintf("%-12s", name)) + value.Render(v) + "\n"
	}

	var b strings.Builder
	b.WriteString(components.FundingBar(p.Percent, p.Tier, max(10, innerW-7)))
	b.WriteString("\n\n")
	b.WriteString(field("Raised", cli.FormatMoney(c.Raised)+" of "+cli.FormatMoney(c.Goal)))
	b.WriteString(field("Donors", cli.FormatNumber(c.Donors)+"  ·  avg gift "+cli.FormatMoney(p.AverageGift)))
	b.WriteString(field("Runs", cli.FormatDate(c.StartDate)+" → "+cli.FormatDate(c.EndDate)))
	b.WriteString(field("Status", cli.FormatDaysLeft(p.DaysLeft)))
	if c.Category != "" {
		b.WriteString(field("Category", c.Category))
	}
	if c.ProjectID != "" {
		b.WriteString(field("Project", c.ProjectID))
	}
	b.WriteString(field("Source", c.Source))

	attributed := pipeline.FilterDonationsByCampaign(a.donations, c.ID)
	if rec := pipeline.ReconcileCampaigns([]model.Campaign{c}, attributed); len(rec) == 1 {
		r := rec[0]
		b.WriteString("\n")
		b.WriteString(header.Render("RECORDED DONATIONS"))
		b.WriteString("\n")
		b.WriteString(field("Count", cli.FormatNumber(r.Donations)))
		b.WriteString(field("Sum", cli.FormatMoney(r.Donated)))
		switch {
		case r.Delta > 0:
			b.WriteString(warn.Render(cli.FormatMoney(r.Delta) + " of raised has no donation record"))
			b.WriteString("\n")
		case r.Delta < 0:
			b.WriteString(warn.Render("donation records exceed raised by " + cli.FormatMoney(-r.Delta)))
			b.WriteString("\n")
		}
	}

	if len(attributed) > 0 {
		recent := make([]model.Donation, len(attributed))
		copy(recent, attributed)
		pipeline.SortDonationsByDate(recent)
		if len(recent) > campaignDetailDonations {
			recent = recent[:campaignDetailDonations]
		}

		b.WriteString("\n")
		b.WriteString(header.Render(fmt.Sprintf("%-12s %-16s %-14s %10s", "Date", "Donor", "Method", "Amount")))
		b.WriteString("\n")
		for _, d := range recent {
			b.WriteString(value.Render(fmt.Sprintf("%-12s %-16s %-14s %10s",
				cli.FormatDate(d.Date),
				truncStr(d.DonorID, 16),
				truncStr(cli.FormatLabel(d.Method), 14),
				cli.FormatMoney(d.Amount))))
			b.WriteString("\n")
		}
	}

	return b.String()
}
