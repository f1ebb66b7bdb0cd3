package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/kanyini-os/kanyini/internal/cli"
	"github.com/kanyini-os/kanyini/internal/config"
	"github.com/kanyini-os/kanyini/internal/intake"
	"github.com/kanyini-os/kanyini/internal/logging"
	"github.com/kanyini-os/kanyini/internal/pipeline"
	"github.com/kanyini-os/kanyini/internal/remote"
	"github.com/kanyini-os/kanyini/internal/session"
	"github.com/kanyini-os/kanyini/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagDonateDonor    string
	flagDonateAmount   float64
	flagDonateCampaign string
	flagDonateProject  string
	flagDonateMethod   string
	flagDonateDate     string
	flagDonateRemote   bool
)

var donateCmd = &cobra.Command{
	Use:   "donate",
	Short: "Record a donation",
	Long: "Record a donation in the local intake store, or post it to the donation platform with --remote.\n" +
		"A donation goes to a campaign, a project, or (with neither) the general fund.",
	RunE: runDonate,
}

func init() {
	donateCmd.Flags().StringVar(&flagDonateDonor, "donor", "", "Donor ID (required)")
	donateCmd.Flags().Float64Var(&flagDonateAmount, "amount", 0, "Amount in the configured currency (required)")
	donateCmd.Flags().StringVar(&flagDonateCampaign, "campaign", "", "Campaign ID")
	donateCmd.Flags().StringVar(&flagDonateProject, "project-id", "", "Project ID for a direct project gift")
	donateCmd.Flags().StringVar(&flagDonateMethod, "method", "card", "Payment method")
	donateCmd.Flags().StringVar(&flagDonateDate, "date", "", "Donation date YYYY-MM-DD (default: now)")
	donateCmd.Flags().BoolVar(&flagDonateRemote, "remote", false, "Submit to the remote donation platform")
	rootCmd.AddCommand(donateCmd)
}

func runDonate(cmd *cobra.Command, _ []string) error {
	sub := intake.Submission{
		DonorID:    flagDonateDonor,
		Amount:     flagDonateAmount,
		CampaignID: flagDonateCampaign,
		ProjectID:  flagDonateProject,
		Method:     flagDonateMethod,
	}
	if flagDonateDate != "" {
		d, err := time.ParseInLocation(asOfLayout, flagDonateDate, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --date %q: want YYYY-MM-DD", flagDonateDate)
		}
		sub.Date = d
	}

	var submitter intake.Submitter
	if flagDonateRemote {
		logger := logging.New(config.AppEnv())
		client, err := remote.NewClient(appCfg.Remote.BaseURL, config.GetAPIKey(appCfg),
			remote.WithLogger(cliSession.Logger(logger)))
		if err != nil {
			return err
		}
		submitter = client
	} else {
		cache, err := store.Open(pipeline.CachePath())
		if err != nil {
			return fmt.Errorf("opening intake store: %w", err)
		}
		defer func() { _ = cache.Close() }()
		submitter = cache
	}

	var opts []intake.Option
	if sub.CampaignID != "" {
		// Check the campaign against loaded fixtures so typos fail fast.
		quiet := flagQuiet
		flagQuiet = true
		result, err := loadData()
		flagQuiet = quiet
		if err == nil {
			opts = append(opts, intake.WithCampaigns(result.Campaigns))
		}
	}

	svc := intake.NewService(submitter, opts...)
	ctx := session.NewContext(cmd.Context(), cliSession)
	res := svc.Submit(ctx, sub)

	fmt.Println()
	if !res.OK() {
		fmt.Println(cli.RenderWarning(res.Summary()))
		fmt.Println()
		return errors.New(res.Kind.String())
	}

	d := res.Donation
	fmt.Printf("  %s\n", res.Summary())
	fmt.Printf("  %s from %s on %s via %s\n",
		cli.FormatMoney(d.Amount), d.DonorID, cli.FormatDate(d.Date), cli.FormatLabel(d.Method))
	if !flagDonateRemote {
		fmt.Println(cli.RenderMuted("  Stored locally; it appears in reports unless --no-cache is set."))
	}
	fmt.Println()
	return nil
}
