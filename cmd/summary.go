package cmd

import (
	"fmt"

	"github.com/kanyini-os/kanyini/internal/cli"
	"github.com/kanyini-os/kanyini/internal/pipeline"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Campaign and donation summary",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, _ []string) error {
	result, err := loadData()
	if err != nil {
		return err
	}

	campaigns, donations, since, until := applyFilters(result)
	if len(campaigns) == 0 && len(donations) == 0 {
		fmt.Println("\n  No campaigns or donations match the current filters.")
		return nil
	}

	part := pipeline.PartitionCampaigns(campaigns, until)
	totals := pipeline.AggregateCampaigns(campaigns)
	cmp := pipeline.ComparePeriods(donations, since, until)
	cur, prev := cmp.Current, cmp.Previous

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("KANYINI CAMPAIGNS  Last %dd", flagDays)))
	fmt.Println()

	rows := [][]string{
		{"Campaigns", cli.FormatNumber(totals.Campaigns)},
		{"Active", cli.FormatNumber(len(part.Active))},
		{"Completed", cli.FormatNumber(len(part.Completed))},
		{"---"},
		{"Total Goal", cli.FormatMoney(totals.TotalGoal)},
		{"Total Raised", cli.FormatMoney(totals.TotalRaised)},
		{"Overall Progress", cli.FormatPercent(totals.OverallProgress)},
		{"Donors", cli.FormatNumber(totals.TotalDonors)},
		{"---"},
		{"Donations", cli.FormatNumber(cur.Count)},
		{"Donated", cli.FormatMoney(cur.Total)},
		{"Average Gift", cli.FormatMoney(cur.Average)},
		{"Largest Gift", cli.FormatMoney(cur.Largest)},
		{"Unique Donors", cli.FormatNumber(cur.UniqueDonors)},
		{"---"},
		{"To Campaigns", cli.FormatMoney(cur.CampaignTotal)},
		{"To Projects", cli.FormatMoney(cur.ProjectTotal)},
		{"General Fund", cli.FormatMoney(cur.GeneralTotal)},
		{"---"},
	}

	perDay := fmt.Sprintf("%s/day", cli.FormatMoney(cur.TotalPerDay))
	if prev.TotalPerDay > 0 {
		perDay += fmt.Sprintf("  (%s vs prev %dd)", cli.FormatDelta(cur.TotalPerDay, prev.TotalPerDay), flagDays)
	}
	rows = append(rows, []string{"Donated/day", perDay})
	rows = append(rows, []string{"Active Days", cli.FormatNumber(cur.ActiveDays)})

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	if cur.ConflictCount > 0 {
		fmt.Println()
		fmt.Println(cli.RenderWarning(fmt.Sprintf(
			"%d donations name both a campaign and a project; counted toward the campaign", cur.ConflictCount)))
	}
	printParseWarnings(result)
	return nil
}
