package cmd

import (
	"fmt"

	"github.com/kanyini-os/kanyini/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	// Force TrueColor so background fills render even when the profile probe says Ascii.
	lipgloss.SetColorProfile(termenv.TrueColor)

	asOfTime, _ := asOf()
	app := tui.NewApp(tui.Options{
		DataDir:  flagDataDir,
		Days:     flagDays,
		Category: flagCategory,
		Project:  flagProject,
		AsOf:     asOfTime,
		UseCache: !flagNoCache,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
