// Package cmd implements the kanyini CLI commands.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/kanyini-os/kanyini/internal/cli"
	"github.com/kanyini-os/kanyini/internal/config"
	"github.com/kanyini-os/kanyini/internal/model"
	"github.com/kanyini-os/kanyini/internal/pipeline"
	"github.com/kanyini-os/kanyini/internal/session"
	"github.com/kanyini-os/kanyini/internal/store"
	"github.com/kanyini-os/kanyini/internal/tui/theme"

	"github.com/spf13/cobra"
)

const asOfLayout = "2006-01-02"

var (
	flagDays     int
	flagCategory string
	flagProject  string
	flagAsOf     string
	flagNoCache  bool
	flagDataDir  string
	flagQuiet    bool
)

// appCfg is the config loaded before every command runs.
var appCfg = config.DefaultConfig()

// cliSession identifies this invocation in intake records and logs.
var cliSession *session.Session

var rootCmd = &cobra.Command{
	Use:               "kanyini",
	Short:             "Kanyini campaign metrics CLI",
	Long:              "Campaign progress, donation totals and reconciliation for Kanyini OS fundraising data.",
	PersistentPreRunE: setup,
	RunE:              runSummary,
	SilenceUsage:      true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	err := rootCmd.Execute()
	if cliSession != nil {
		cliSession.Close()
	}
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().IntVarP(&flagDays, "days", "n", 30, "Time window in days")
	rootCmd.PersistentFlags().StringVarP(&flagCategory, "category", "c", "", "Filter campaigns by category (substring match)")
	rootCmd.PersistentFlags().StringVarP(&flagProject, "project", "p", "", "Filter to a linked project (substring match)")
	rootCmd.PersistentFlags().StringVar(&flagAsOf, "as-of", "", "Evaluate as of this date (YYYY-MM-DD) instead of now")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Skip SQLite cache, reparse everything")
	rootCmd.PersistentFlags().StringVarP(&flagDataDir, "data-dir", "d", "", "Fixture directory (default from config or "+pipeline.DefaultDataDir()+")")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
}

// setup loads .env and config, then applies config defaults to flags the user left unset.
func setup(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "  %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "  %v (using defaults)\n", err)
		cfg = config.DefaultConfig()
	}
	appCfg = cfg

	flags := cmd.Flags()
	if !flags.Changed("days") && cfg.General.DefaultDays > 0 {
		flagDays = cfg.General.DefaultDays
	}
	if flagDataDir == "" {
		flagDataDir = config.GetDataDir(cfg, pipeline.DefaultDataDir())
	}
	if flagDays <= 0 {
		return fmt.Errorf("--days must be positive, got %d", flagDays)
	}
	if _, err := asOf(); err != nil {
		return err
	}

	if f, err := cli.NewFormatter(cfg.General.Locale, cfg.General.Currency); err == nil {
		cli.SetDefault(f)
	} else {
		fmt.Fprintf(os.Stderr, "  %v (using default currency)\n", err)
	}
	theme.SetActive(cfg.Appearance.Theme)

	if cliSession == nil {
		cliSession = session.New(operatorName())
	}
	return nil
}

// asOf parses --as-of. The zero time means "use the clock".
func asOf() (time.Time, error) {
	if flagAsOf == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(asOfLayout, flagAsOf, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --as-of %q: want YYYY-MM-DD", flagAsOf)
	}
	return t, nil
}

// now returns the evaluation time for every metric in this run.
func now() time.Time {
	if t, err := asOf(); err == nil && !t.IsZero() {
		return t
	}
	return time.Now()
}

func operatorName() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "cli"
}

// loadData is the shared data loading path used by all commands.
// Uses SQLite cache when available for fast subsequent runs.
func loadData() (*pipeline.LoadResult, error) {
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Scanning %s...\n", flagDataDir)
	}

	progressFn := func(current, total int) {
		if flagQuiet {
			return
		}
		if current%25 == 0 || current == total {
			fmt.Fprintf(os.Stderr, "\r  Parsing %s", cli.RenderProgressBar(current, total, 20))
		}
	}

	if !flagNoCache {
		cache, err := store.Open(pipeline.CachePath())
		if err != nil {
			if !flagQuiet {
				fmt.Fprintf(os.Stderr, "  Cache unavailable, doing full parse\n")
			}
		} else {
			defer func() { _ = cache.Close() }()

			cr, err := pipeline.LoadWithCache(flagDataDir, cache, progressFn)
			if err != nil {
				if !flagQuiet {
					fmt.Fprintf(os.Stderr, "\n  Cache error, falling back to full parse\n")
				}
			} else {
				if !flagQuiet {
					reportCached(cr)
				}
				return &cr.LoadResult, nil
			}
		}
	}

	result, err := pipeline.Load(flagDataDir, progressFn)
	if err != nil {
		return nil, err
	}
	if !flagQuiet {
		reportLoaded(result)
	}
	return result, nil
}

func reportCached(cr *pipeline.CachedLoadResult) {
	switch {
	case cr.UsedDefaults:
		fmt.Fprintf(os.Stderr, "  No fixtures found, showing built-in demo data (run `kanyini seed`)\n")
	case cr.Reparsed == 0:
		fmt.Fprintf(os.Stderr, "\r  Loaded %s campaigns, %s donations from cache    \n",
			cli.FormatNumber(len(cr.Campaigns)), cli.FormatNumber(len(cr.Donations)))
	default:
		fmt.Fprintf(os.Stderr, "\r  %d cached + %d reparsed files    \n", cr.CacheHits, cr.Reparsed)
	}
	if cr.Intake > 0 {
		fmt.Fprintf(os.Stderr, "  Including %d donations recorded through intake\n", cr.Intake)
	}
}

func reportLoaded(r *pipeline.LoadResult) {
	if r.UsedDefaults {
		fmt.Fprintf(os.Stderr, "  No fixtures found, showing built-in demo data (run `kanyini seed`)\n")
		return
	}
	fmt.Fprintf(os.Stderr, "\r  Parsed %d files: %s campaigns, %s donations    \n",
		r.ParsedFiles, cli.FormatNumber(len(r.Campaigns)), cli.FormatNumber(len(r.Donations)))
}

// applyFilters narrows campaigns and donations by --category/--project and
// returns the [since, until) window for --days.
func applyFilters(r *pipeline.LoadResult) ([]model.Campaign, []model.Donation, time.Time, time.Time) {
	until := now()
	since := until.AddDate(0, 0, -flagDays)

	campaigns, donations := pipeline.FilterScope(r.Campaigns, r.Donations, flagCategory, flagProject)
	return campaigns, donations, since, until
}

func printParseWarnings(r *pipeline.LoadResult) {
	if r.FileErrors > 0 {
		fmt.Fprintf(os.Stderr, "\n  %d files could not be read\n", r.FileErrors)
	}
	if r.ParseErrors > 0 {
		fmt.Fprintf(os.Stderr, "  %d records skipped as malformed\n", r.ParseErrors)
	}
}
