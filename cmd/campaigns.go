package cmd

import (
	"errors"
	"fmt"

	"github.com/kanyini-os/kanyini/internal/cli"
	"github.com/kanyini-os/kanyini/internal/model"
	"github.com/kanyini-os/kanyini/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	flagCampaignSort      string
	flagCampaignActive    bool
	flagCampaignCompleted bool
)

var campaignsCmd = &cobra.Command{
	Use:   "campaigns",
	Short: "Campaign progress table",
	RunE:  runCampaigns,
}

func init() {
	campaignsCmd.Flags().StringVar(&flagCampaignSort, "sort", "",
		"Sort by progress, raised, ending or name (default: file order)")
	campaignsCmd.Flags().BoolVar(&flagCampaignActive, "active", false, "Only campaigns with days left")
	campaignsCmd.Flags().BoolVar(&flagCampaignCompleted, "completed", false, "Only campaigns that have ended")
	rootCmd.AddCommand(campaignsCmd)
}

func runCampaigns(_ *cobra.Command, _ []string) error {
	switch flagCampaignSort {
	case "", pipeline.SortByProgress, pipeline.SortByRaised, pipeline.SortByEnding, pipeline.SortByName:
	default:
		return fmt.Errorf("unknown --sort %q", flagCampaignSort)
	}
	if flagCampaignActive && flagCampaignCompleted {
		return errors.New("--active and --completed are mutually exclusive")
	}

	result, err := loadData()
	if err != nil {
		return err
	}
	campaigns, _, _, until := applyFilters(result)
	if len(campaigns) == 0 {
		fmt.Println("\n  No campaigns found.")
		return nil
	}

	part := pipeline.PartitionCampaigns(campaigns, until)
	switch {
	case flagCampaignActive:
		campaigns = part.Active
	case flagCampaignCompleted:
		campaigns = part.Completed
	}

	rows := pipeline.BuildProgress(campaigns, until)
	pipeline.SortProgress(rows, flagCampaignSort)

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("CAMPAIGNS  %d active / %d completed", len(part.Active), len(part.Completed))))
	fmt.Println()

	if len(rows) == 0 {
		fmt.Println("  No campaigns in this group.")
		return nil
	}

	fmt.Print(cli.RenderTable(campaignTable(rows)))

	totals := pipeline.AggregateCampaigns(campaigns)
	fmt.Printf("\n  %s raised of %s (%s) from %s donors\n",
		cli.FormatMoney(totals.TotalRaised),
		cli.FormatMoney(totals.TotalGoal),
		cli.FormatPercent(totals.OverallProgress),
		cli.FormatNumber(totals.TotalDonors),
	)
	return nil
}

func campaignTable(rows []model.CampaignProgress) cli.Table {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		category := r.Campaign.Category
		if category == "" {
			category = "-"
		}
		out = append(out, []string{
			r.Campaign.Name,
			category,
			cli.RenderFundingBar(r.Percent, r.Tier, 20),
			cli.FormatMoneyCompact(r.Campaign.Raised),
			cli.FormatMoneyCompact(r.Campaign.Goal),
			cli.FormatNumber(r.Campaign.Donors),
			cli.FormatMoney(r.AverageGift),
			cli.FormatDaysLeft(r.DaysLeft),
		})
	}
	return cli.Table{
		Headers: []string{"Campaign", "Category", "Progress", "Raised", "Goal", "Donors", "Avg Gift", "Remaining"},
		Rows:    out,
	}
}
