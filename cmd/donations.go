package cmd

import (
	"fmt"

	"github.com/kanyini-os/kanyini/internal/cli"
	"github.com/kanyini-os/kanyini/internal/model"
	"github.com/kanyini-os/kanyini/internal/pipeline"

	"github.com/spf13/cobra"
)

var donationsCmd = &cobra.Command{
	Use:   "donations",
	Short: "Recent donations with attribution",
	RunE:  runDonations,
}

var (
	donationsLimit    int
	donationsCampaign string
	donationsMethod   string
)

func init() {
	donationsCmd.Flags().IntVarP(&donationsLimit, "limit", "l", 20, "Number of donations to show")
	donationsCmd.Flags().StringVar(&donationsCampaign, "campaign", "", "Only donations to this campaign ID")
	donationsCmd.Flags().StringVar(&donationsMethod, "method", "", "Filter by payment method (substring match)")
	rootCmd.AddCommand(donationsCmd)
}

func runDonations(_ *cobra.Command, _ []string) error {
	result, err := loadData()
	if err != nil {
		return err
	}
	if len(result.Donations) == 0 {
		fmt.Println("\n  No donations found.")
		return nil
	}

	_, filtered, since, until := applyFilters(result)
	filtered = pipeline.FilterDonationsByCampaign(filtered, donationsCampaign)
	filtered = pipeline.FilterDonationsByMethod(filtered, donationsMethod)
	donations := pipeline.FilterDonationsByTime(filtered, since, until)
	if len(donations) == 0 {
		fmt.Println("\n  No donations in the selected time range.")
		return nil
	}

	// FilterDonationsByTime may hand back the input slice; sort a copy.
	donations = append([]model.Donation(nil), donations...)
	pipeline.SortDonationsByDate(donations)
	total := len(donations)
	if donationsLimit > 0 && len(donations) > donationsLimit {
		donations = donations[:donationsLimit]
	}

	names := make(map[string]string, len(result.Campaigns))
	for _, c := range result.Campaigns {
		names[c.ID] = c.Name
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("DONATIONS  Last %dd (showing %d of %d)", flagDays, len(donations), total)))
	fmt.Println()

	conflicts := 0
	rows := make([][]string, 0, len(donations))
	for _, d := range donations {
		attr := model.AttributionOf(d)
		target := attributionLabel(d, attr, names)
		if attr == model.AttributionConflict {
			conflicts++
			target += " !"
		}
		rows = append(rows, []string{
			d.Date.Local().Format("Jan 02 15:04"),
			truncate(d.DonorID, 14),
			cli.FormatMoney(d.Amount),
			cli.FormatLabel(d.Method),
			truncate(target, 28),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Date", "Donor", "Amount", "Method", "Attributed To"},
		Rows:    rows,
	}))

	if conflicts > 0 {
		fmt.Println()
		fmt.Println(cli.RenderWarning(fmt.Sprintf("%d donations marked ! name both a campaign and a project", conflicts)))
	}
	return nil
}

func attributionLabel(d model.Donation, attr model.Attribution, names map[string]string) string {
	switch attr {
	case model.AttributionCampaign, model.AttributionConflict:
		if n, ok := names[d.CampaignID]; ok {
			return n
		}
		return d.CampaignID
	case model.AttributionProject:
		return "project " + d.ProjectID
	default:
		return "general fund"
	}
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-1]) + "…"
}
