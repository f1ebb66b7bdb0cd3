package cmd

import (
	"errors"
	"fmt"

	"github.com/kanyini-os/kanyini/internal/config"
	"github.com/kanyini-os/kanyini/internal/pipeline"
	"github.com/kanyini-os/kanyini/internal/tui"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	cfg := appCfg

	campaigns, donations := 0, 0
	if r, err := pipeline.Load(flagDataDir, nil); err == nil && !r.UsedDefaults {
		campaigns, donations = len(r.Campaigns), len(r.Donations)
	}

	vals := tui.DefaultSetupValues(cfg, flagDataDir)
	form := tui.NewSetupForm(&vals, campaigns, donations)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled, nothing saved.")
			return nil
		}
		return fmt.Errorf("setup form: %w", err)
	}

	tui.ApplySetup(&cfg, vals)
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.Path())
	fmt.Println("  Run `kanyini setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
