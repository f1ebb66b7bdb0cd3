package cmd

import (
	"fmt"
	"os"

	"github.com/kanyini-os/kanyini/internal/report"

	"github.com/spf13/cobra"
)

var (
	flagReportRaw   bool
	flagReportOut   string
	flagReportWidth int
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Campaign digest as Markdown",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().BoolVar(&flagReportRaw, "raw", false, "Print Markdown source instead of rendering it")
	reportCmd.Flags().StringVarP(&flagReportOut, "output", "o", "", "Write Markdown to a file")
	reportCmd.Flags().IntVar(&flagReportWidth, "width", 100, "Wrap width for rendered output")
	rootCmd.AddCommand(reportCmd)
}

func runReport(_ *cobra.Command, _ []string) error {
	result, err := loadData()
	if err != nil {
		return err
	}

	campaigns, donations, since, until := applyFilters(result)
	md := report.Markdown(report.Input{
		Campaigns: campaigns,
		Donations: donations,
		Since:     since,
		Until:     until,
		Days:      flagDays,
	})

	if flagReportOut != "" {
		if err := os.WriteFile(flagReportOut, []byte(md), 0o644); err != nil { //nolint:gosec // user-chosen output path
			return fmt.Errorf("writing report: %w", err)
		}
		fmt.Printf("  Wrote %s\n", flagReportOut)
		return nil
	}

	if flagReportRaw {
		fmt.Print(md)
		return nil
	}

	out, err := report.Render(md, flagReportWidth)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}
