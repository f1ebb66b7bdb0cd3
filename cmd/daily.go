package cmd

import (
	"fmt"

	"github.com/kanyini-os/kanyini/internal/cli"
	"github.com/kanyini-os/kanyini/internal/pipeline"

	"github.com/spf13/cobra"
)

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Daily donations table",
	RunE:  runDaily,
}

func init() {
	rootCmd.AddCommand(dailyCmd)
}

func runDaily(_ *cobra.Command, _ []string) error {
	result, err := loadData()
	if err != nil {
		return err
	}
	if len(result.Donations) == 0 {
		fmt.Println("\n  No donations found.")
		return nil
	}

	_, donations, since, until := applyFilters(result)
	days := pipeline.AggregateDonationDays(donations, since, until)
	if len(days) == 0 {
		fmt.Println("\n  No data for the selected period.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("DAILY DONATIONS  Last %dd", flagDays)))
	fmt.Println()

	// Oldest first for the sparkline, newest first for the table.
	series := make([]float64, len(days))
	for i, d := range days {
		series[len(days)-1-i] = d.Total
	}
	fmt.Printf("  %s\n\n", cli.RenderSparkline(series))

	rows := make([][]string, 0, len(days))
	for _, d := range days {
		if d.Donations == 0 {
			continue
		}
		rows = append(rows, []string{
			d.Date.Format("2006-01-02"),
			cli.FormatDayOfWeek(int(d.Date.Weekday())),
			cli.FormatNumber(d.Donations),
			cli.FormatNumber(d.Donors),
			cli.FormatMoney(d.Total),
		})
	}
	if len(rows) == 0 {
		fmt.Println("  No donations in the selected period.")
		return nil
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Date", "Day", "Donations", "Donors", "Total"},
		Rows:    rows,
	}))
	return nil
}
