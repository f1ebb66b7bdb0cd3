// Package report renders a campaign and donation digest as Markdown.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/kanyini-os/kanyini/internal/cli"
	"github.com/kanyini-os/kanyini/internal/model"
	"github.com/kanyini-os/kanyini/internal/pipeline"
)

// Input is the data a report is built from.
type Input struct {
	Campaigns []model.Campaign
	Donations []model.Donation
	Since     time.Time
	Until     time.Time
	Days      int
	Title     string
}

// Markdown builds the digest. Campaign figures are evaluated at in.Until;
// donation figures cover [in.Since, in.Until).
func Markdown(in Input) string {
	title := in.Title
	if title == "" {
		title = "Kanyini Campaign Report"
	}

	part := pipeline.PartitionCampaigns(in.Campaigns, in.Until)
	totals := pipeline.AggregateCampaigns(in.Campaigns)
	sum := pipeline.AggregateDonations(in.Donations, in.Since, in.Until)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "_As of %s, donations over the last %d days._\n\n", cli.FormatDate(in.Until), in.Days)

	b.WriteString("## Overview\n\n")
	fmt.Fprintf(&b, "- **%s** raised of **%s** goal (%s)\n",
		cli.FormatMoney(totals.TotalRaised), cli.FormatMoney(totals.TotalGoal), cli.FormatPercent(totals.OverallProgress))
	fmt.Fprintf(&b, "- %d active and %d completed campaigns, %s donors\n",
		len(part.Active), len(part.Completed), cli.FormatNumber(totals.TotalDonors))
	fmt.Fprintf(&b, "- %s donations totalling %s in the window (average %s)\n\n",
		cli.FormatNumber(sum.Count), cli.FormatMoney(sum.Total), cli.FormatMoney(sum.Average))

	if len(part.Active) > 0 {
		rows := pipeline.BuildProgress(part.Active, in.Until)
		pipeline.SortProgress(rows, pipeline.SortByEnding)
		b.WriteString("## Active campaigns\n\n")
		b.WriteString("| Campaign | Raised | Goal | Progress | Remaining |\n")
		b.WriteString("|---|---:|---:|---:|---|\n")
		for _, r := range rows {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				escapeCell(r.Campaign.Name),
				cli.FormatMoney(r.Campaign.Raised),
				cli.FormatMoney(r.Campaign.Goal),
				cli.FormatPercent(r.Percent),
				cli.FormatDaysLeft(r.DaysLeft))
		}
		b.WriteString("\n")
	}

	if len(part.Completed) > 0 {
		rows := pipeline.BuildProgress(part.Completed, in.Until)
		pipeline.SortProgress(rows, pipeline.SortByProgress)
		b.WriteString("## Completed campaigns\n\n")
		for _, r := range rows {
			mark := ""
			if r.Percent >= 100 {
				mark = " (goal met)"
			}
			fmt.Fprintf(&b, "- %s: %s of %s, %s%s\n",
				r.Campaign.Name,
				cli.FormatMoney(r.Campaign.Raised),
				cli.FormatMoney(r.Campaign.Goal),
				cli.FormatPercent(r.Percent), mark)
		}
		b.WriteString("\n")
	}

	if methods := pipeline.AggregateMethods(in.Donations, in.Since, in.Until); len(methods) > 0 {
		b.WriteString("## Payment methods\n\n")
		for _, m := range methods {
			fmt.Fprintf(&b, "- %s: %s (%s)\n", cli.FormatLabel(m.Method), cli.FormatMoney(m.Total), cli.FormatShare(m.SharePercent))
		}
		b.WriteString("\n")
	}

	var unbalanced []model.Reconciliation
	for _, r := range pipeline.ReconcileCampaigns(in.Campaigns, in.Donations) {
		if r.Delta != 0 {
			unbalanced = append(unbalanced, r)
		}
	}
	if len(unbalanced) > 0 || sum.ConflictCount > 0 {
		b.WriteString("## Follow-up\n\n")
		for _, r := range unbalanced {
			fmt.Fprintf(&b, "- %s records %s but donation records sum to %s\n",
				r.CampaignName, cli.FormatMoney(r.Recorded), cli.FormatMoney(r.Donated))
		}
		if sum.ConflictCount > 0 {
			fmt.Fprintf(&b, "- %d donations name both a campaign and a project\n", sum.ConflictCount)
		}
	}

	return b.String()
}

// Render renders markdown for the terminal at the given wrap width.
func Render(md string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}
	return out, nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
