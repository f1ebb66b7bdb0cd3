package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kanyini-os/kanyini/internal/cli"
	"github.com/kanyini-os/kanyini/internal/model"
	"github.com/kanyini-os/kanyini/internal/pipeline"
	"github.com/kanyini-os/kanyini/internal/tui/components"
	"github.com/kanyini-os/kanyini/internal/tui/theme"
)

const endingSoonLimit = 5

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	totals := a.totals
	cur, prev := a.summary, a.prevSummary
	var b strings.Builder

	// Row 1: headline metrics
	avgGift := 0.0
	if totals.TotalDonors > 0 {
		avgGift = totals.TotalRaised / float64(totals.TotalDonors)
	}
	windowDelta := cli.FormatNumber(cur.Count) + " gifts"
	if prev.Count > 0 {
		windowDelta += " (" + cli.FormatDelta(cur.Total, prev.Total) + ")"
	}

	b.WriteString(components.MetricCardRow([]components.Metric{
		{
			Label: "Raised",
			Value: cli.FormatMoneyCompact(totals.TotalRaised),
			Delta: fmt.Sprintf("%s of %s", cli.FormatPercent(totals.OverallProgress), cli.FormatMoneyCompact(totals.TotalGoal)),
		},
		{
			Label: "Campaigns",
			Value: fmt.Sprintf("%d active", len(a.partition.Active)),
			Delta: fmt.Sprintf("%d completed", len(a.partition.Completed)),
		},
		{
			Label: "Donors",
			Value: cli.FormatNumber(totals.TotalDonors),
			Delta: "avg gift " + cli.FormatMoney(avgGift),
		},
		{
			Label: fmt.Sprintf("Last %dd", a.days),
			Value: cli.FormatMoney(cur.Total),
			Delta: windowDelta,
		},
	}, cw))
	b.WriteString("\n")

	// Row 2: daily donations chart
	if len(a.daily) > 0 {
		vals := make([]float64, len(a.daily))
		for i, d := range a.daily {
			vals[len(a.daily)-1-i] = d.Total
		}
		chartH := 10
		if a.isCompactLayout() {
			chartH = 7
		}
		b.WriteString(components.ContentCard(
			fmt.Sprintf("Daily Donations (%dd)", a.days),
			components.BarChart(vals, chartDateLabels(a.daily), t.Accent, components.CardInnerWidth(cw), chartH),
			cw,
		))
		b.WriteString("\n")
	}

	// Row 3: ending soon + payment methods
	halves := components.LayoutRow(cw, 2)
	if a.isCompactLayout() {
		halves = []int{cw, cw}
	}
	endingCard := components.ContentCard("Ending Soon", a.endingSoonBody(halves[0]), halves[0])
	methodCard := components.ContentCard("Payment Methods", a.methodsBody(halves[1]), halves[1])

	if a.isCompactLayout() {
		b.WriteString(endingCard + "\n" + methodCard + "\n")
	} else {
		b.WriteString(components.CardRow([]string{endingCard, methodCard}))
		b.WriteString("\n")
	}

	// Row 4: where the money went
	b.WriteString(components.ContentCard("Attribution", a.attributionBody(cw), cw))

	return b.String()
}

// endingSoonBody lists active campaigns closest to their end date.
func (a App) endingSoonBody(outerW int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(outerW)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	name := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	if len(a.partition.Active) == 0 {
		return muted.Render("No active campaigns")
	}

	rows := pipeline.BuildProgress(a.partition.Active, a.now())
	pipeline.SortProgress(rows, pipeline.SortByEnding)
	if len(rows) > endingSoonLimit {
		rows = rows[:endingSoonLimit]
	}

	daysW := 12
	nameW := max(10, innerW/3)
	barW := max(4, innerW-nameW-daysW-8)

	var body strings.Builder
	for _, p := range rows {
		fmt.Fprintf(&body, "%s %s %s\n",
			name.Render(fmt.Sprintf("%-*s", nameW, truncStr(p.Campaign.Name, nameW))),
			components.FundingBar(p.Percent, p.Tier, barW),
			muted.Render(fmt.Sprintf("%*s", daysW, cli.FormatDaysLeft(p.DaysLeft))))
	}
	return body.String()
}

func (a App) methodsBody(outerW int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(outerW)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	bar := lipgloss.NewStyle().Foreground(t.Sand).Background(t.Surface)

	if len(a.methods) == 0 {
		return muted.Render("No donations in this window")
	}

	labelW := 14
	barMax := max(1, innerW-labelW-16)
	var body strings.Builder
	for _, m := range a.methods {
		barLen := int(m.SharePercent / 100 * float64(barMax))
		fmt.Fprintf(&body, "%s %s %s\n",
			muted.Render(fmt.Sprintf("%-*s", labelW, truncStr(cli.FormatLabel(m.Method), labelW))),
			bar.Render(fmt.Sprintf("%-*s", barMax, strings.Repeat("█", barLen))),
			muted.Render(fmt.Sprintf("%6s %8s", cli.FormatShare(m.SharePercent), cli.FormatMoneyCompact(m.Total))))
	}
	return body.String()
}

func (a App) attributionBody(outerW int) string {
	t := theme.Active
	s := a.summary
	label := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)
	warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)

	parts := []struct {
		name   string
		amount float64
	}{
		{model.AttributionCampaign.String(), s.CampaignTotal},
		{model.AttributionProject.String(), s.ProjectTotal},
		{model.AttributionGeneral.String(), s.GeneralTotal},
	}
	cols := components.LayoutRow(components.CardInnerWidth(outerW), len(parts))

	var line strings.Builder
	for i, p := range parts {
		cell := label.Render(cli.FormatLabel(p.name)+" ") + value.Render(cli.FormatMoney(p.amount))
		line.WriteString(lipgloss.PlaceHorizontal(cols[i], lipgloss.Left, cell,
			lipgloss.WithWhitespaceBackground(t.Surface)))
	}

	out := line.String()
	if s.ConflictCount > 0 {
		out += "\n" + warn.Render(fmt.Sprintf("%d donation(s) name both a campaign and a project; counted toward the campaign", s.ConflictCount))
	}
	if a.parseErrors > 0 {
		out += "\n" + warn.Render(fmt.Sprintf("%d fixture line(s) could not be parsed", a.parseErrors))
	}
	return out
}
