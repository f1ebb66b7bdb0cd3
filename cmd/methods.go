package cmd

import (
	"fmt"

	"github.com/kanyini-os/kanyini/internal/cli"
	"github.com/kanyini-os/kanyini/internal/pipeline"

	"github.com/spf13/cobra"
)

var methodsCmd = &cobra.Command{
	Use:   "methods",
	Short: "Donations by payment method",
	RunE:  runMethods,
}

func init() {
	rootCmd.AddCommand(methodsCmd)
}

func runMethods(_ *cobra.Command, _ []string) error {
	result, err := loadData()
	if err != nil {
		return err
	}
	if len(result.Donations) == 0 {
		fmt.Println("\n  No donations found.")
		return nil
	}

	_, donations, since, until := applyFilters(result)
	methods := pipeline.AggregateMethods(donations, since, until)
	if len(methods) == 0 {
		fmt.Println("\n  No donations in the selected time range.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("PAYMENT METHODS  Last %dd", flagDays)))
	fmt.Println()

	rows := make([][]string, 0, len(methods))
	for _, ms := range methods {
		rows = append(rows, []string{
			cli.FormatLabel(ms.Method),
			cli.FormatNumber(ms.Donations),
			cli.FormatMoney(ms.Total),
			cli.FormatShare(ms.SharePercent),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Method", "Donations", "Total", "Share"},
		Rows:    rows,
	}))

	fmt.Println()
	top := methods[0].Total
	for _, ms := range methods {
		fmt.Println(cli.RenderHorizontalBar(fmt.Sprintf("%-14s", truncate(cli.FormatLabel(ms.Method), 14)), ms.Total, top, 30))
	}
	return nil
}
