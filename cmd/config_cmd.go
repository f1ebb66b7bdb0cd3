package cmd

import (
	"fmt"

	"github.com/kanyini-os/kanyini/internal/config"
	"github.com/kanyini-os/kanyini/internal/pipeline"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg := appCfg

	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Data directory: %s\n", flagDataDir)
	fmt.Printf("    Default days:   %d\n", cfg.General.DefaultDays)
	fmt.Printf("    Currency:       %s (%s)\n", cfg.General.Currency, cfg.General.Locale)
	fmt.Printf("    Cache:          %s\n", pipeline.CachePath())
	fmt.Println()

	fmt.Println("  [Remote]")
	if cfg.Remote.BaseURL != "" {
		fmt.Printf("    Base URL: %s\n", cfg.Remote.BaseURL)
	} else {
		fmt.Println("    Base URL: not configured")
	}
	if key := config.GetAPIKey(cfg); key != "" {
		fmt.Printf("    API key:  %s\n", maskAPIKey(key))
	} else {
		fmt.Println("    API key:  not configured")
	}
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:  %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval: %ds\n", cfg.Daemon.IntervalSec)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [TUI]")
	fmt.Printf("    Auto refresh: %v (every %ds)\n", cfg.TUI.AutoRefresh, cfg.TUI.RefreshIntervalSec)
	fmt.Println()

	fmt.Println("  Run `kanyini setup` to reconfigure.")
	return nil
}

func maskAPIKey(key string) string {
	if len(key) > 16 {
		return key[:8] + "..." + key[len(key)-4:]
	}
	if len(key) > 4 {
		return key[:4] + "..."
	}
	return "****"
}
