package cmd

import (
	"fmt"

	"github.com/kanyini-os/kanyini/internal/cli"
	"github.com/kanyini-os/kanyini/internal/model"
	"github.com/kanyini-os/kanyini/internal/pipeline"

	"github.com/spf13/cobra"
)

var flagReconcileAll bool

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Compare recorded campaign totals with donation records and list data issues",
	RunE:  runReconcile,
}

func init() {
	reconcileCmd.Flags().BoolVar(&flagReconcileAll, "all", false, "Show campaigns that already balance")
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(_ *cobra.Command, _ []string) error {
	result, err := loadData()
	if err != nil {
		return err
	}

	// Reconciliation is all-time; --days does not apply.
	campaigns, donations, _, _ := applyFilters(result)
	if len(campaigns) == 0 {
		fmt.Println("\n  No campaigns found.")
		return nil
	}

	rows := pipeline.ReconcileCampaigns(campaigns, donations)

	fmt.Println()
	fmt.Println(cli.RenderTitle("RECONCILIATION"))
	fmt.Println()

	out := make([][]string, 0, len(rows))
	balanced := 0
	for _, r := range rows {
		if r.Delta == 0 {
			balanced++
			if !flagReconcileAll {
				continue
			}
		}
		out = append(out, []string{
			truncate(r.CampaignName, 28),
			cli.FormatMoney(r.Recorded),
			cli.FormatMoney(r.Donated),
			cli.FormatNumber(r.Donations),
			cli.FormatDelta(r.Recorded, r.Donated),
		})
	}

	if len(out) > 0 {
		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Campaign", "Recorded", "Donation Records", "Gifts", "Difference"},
			Rows:    out,
		}))
	}
	fmt.Printf("\n  %d of %d campaigns balance against their donation records\n", balanced, len(rows))

	issues := append(pipeline.ValidateCampaigns(campaigns), pipeline.ValidateDonations(donations, result.Campaigns)...)
	printIssues(issues)
	printParseWarnings(result)
	return nil
}

func printIssues(issues []model.Issue) {
	if len(issues) == 0 {
		fmt.Println(cli.RenderMuted("  No data issues found."))
		return
	}
	fmt.Println()
	rows := make([][]string, 0, len(issues))
	for _, is := range issues {
		rows = append(rows, []string{truncate(is.RecordID, 20), is.Field, is.Message})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("Data Issues (%d)", len(issues)),
		Headers: []string{"Record", "Field", "Problem"},
		Rows:    rows,
	}))
}
