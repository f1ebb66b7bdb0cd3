package cmd

import (
	"fmt"

	"github.com/kanyini-os/kanyini/internal/source"

	"github.com/spf13/cobra"
)

var flagSeedForce bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write the built-in demo fixtures into the data directory",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().BoolVar(&flagSeedForce, "force", false, "Overwrite existing fixture files")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(_ *cobra.Command, _ []string) error {
	written, err := source.WriteDefaults(flagDataDir, flagSeedForce)
	if err != nil {
		return err
	}

	fmt.Println()
	if len(written) == 0 {
		fmt.Printf("  Fixtures already present in %s (use --force to overwrite)\n\n", flagDataDir)
		return nil
	}
	for _, p := range written {
		fmt.Printf("  Wrote %s\n", p)
	}
	fmt.Println("\n  Run `kanyini` to see the summary.")
	fmt.Println()
	return nil
}
