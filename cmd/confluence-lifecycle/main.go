package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"confluence-lifecycle/internal/common"
	"confluence-lifecycle/internal/interfaces"
	"confluence-lifecycle/internal/models"
	"confluence-lifecycle/internal/services"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
)

const appName = "confluence-lifecycle"

var (
	configPath      string
	username        string
	apiToken        string
	hostname        string
	space           string
	maxPages        int
	updateReport    bool
	reportPageID    string
	reportPageTitle string
	cloud           bool
	debug           bool
	staleDays       int
	rottenDays      int
	freshLabel      string
	staleLabel      string
	rottenLabel     string
	readOnly        bool
	quiet           bool
	showVersion     bool
	validateConfig  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   appName,
		Short: "Manage lifecycle labels on Confluence pages",
		Long: `confluence-lifecycle walks the pages of a Confluence space, classifies
each page as fresh, stale or rotten from its last-modified age, and
replaces the page's lifecycle label accordingly. It can also publish a
summary report page back to Confluence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	flags := rootCmd.Flags()
	flags.StringVar(&configPath, "config", "", "Path to TOML configuration file")
	flags.StringVarP(&username, "username", "u", "", "Atlassian user to authenticate as")
	flags.StringVarP(&apiToken, "token", "p", "", "Atlassian API token (or password) to authenticate with")
	flags.StringVarP(&hostname, "hostname", "H", "", "Atlassian URL to authenticate to")
	flags.StringVarP(&space, "space", "s", "", "Confluence space key to walk")
	flags.IntVarP(&maxPages, "max-pages", "m", 2500, "Maximum number of pages to process")
	flags.BoolVarP(&updateReport, "update-report", "U", false, "Update the lifecycle report page in Confluence")
	flags.StringVarP(&reportPageID, "report-page-id", "I", "", "Lifecycle report page ID")
	flags.StringVarP(&reportPageTitle, "report-page-title", "T", "Confluence Page Lifecycle Report", "Lifecycle report page title")
	flags.BoolVarP(&cloud, "cloud", "c", true, "Whether the Atlassian instance is cloud based")
	flags.BoolVarP(&debug, "debug", "d", false, "Enable debug output")
	flags.IntVarP(&staleDays, "stale-days", "S", 90, "Days since last update until a page is considered stale")
	flags.IntVarP(&rottenDays, "rotten-days", "R", 180, "Days since last update until a page is considered rotten")
	flags.StringVar(&freshLabel, "fresh-label", "lifecycle_phase=fresh", "Label for a fresh page")
	flags.StringVar(&staleLabel, "stale-label", "lifecycle_phase=stale", "Label for a stale page")
	flags.StringVar(&rottenLabel, "rotten-label", "lifecycle_phase=rotten", "Label for a rotten page")
	flags.BoolVarP(&readOnly, "read-only", "r", false, "Classify and report only, never apply labels")
	flags.BoolVarP(&quiet, "quiet", "q", false, "Suppress banner and spinner output")
	flags.BoolVarP(&showVersion, "version", "v", false, "Show version information")
	flags.BoolVar(&validateConfig, "validate", false, "Validate configuration and exit")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if showVersion {
		fmt.Printf("%s v%s (build: %s)\n", appName, common.GetVersion(), common.GetBuild())
		return nil
	}

	cfg, err := common.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	applyFlagOverrides(cmd, cfg)

	if debug {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return common.WrapError(err, common.ErrorTypeConfiguration, "VALIDATE", "invalid configuration")
	}

	if validateConfig {
		fmt.Println("Configuration is valid")
		return nil
	}

	if err := common.InitLogger(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger := common.GetLogger()

	logger.Info().
		Str("version", common.GetVersion()).
		Str("space", cfg.Lifecycle.Space).
		Str("hostname", cfg.Confluence.Hostname).
		Msg("Starting Confluence lifecycle run")

	if !quiet {
		common.PrintBanner(cfg.Confluence.Hostname, cfg.Lifecycle.Space,
			cfg.Lifecycle.ReadOnly, common.GetLogFilePath())
	}

	ctx := context.Background()
	client := services.NewConfluenceClient(&cfg.Confluence)

	user, err := client.CurrentUser(ctx)
	if err != nil {
		return err
	}
	logger.Info().
		Str("user", cfg.Confluence.Username).
		Str("account", user.AccountID).
		Msg("Authenticated against Confluence")

	var store interfaces.RunStore
	var prev *models.RunRecord
	if cfg.Storage.DatabasePath != "" {
		store, err = services.NewRunStore(&cfg.Storage)
		if err != nil {
			logger.Warn().Err(err).Msg("Run history unavailable, continuing without it")
		} else {
			defer store.Close()
			if prev, err = store.LastRun(cfg.Lifecycle.Space); err != nil {
				logger.Warn().Err(err).Msg("Failed to load previous run")
			}
		}
	}

	var spin *spinner.Spinner
	if !quiet && !debug {
		spin = spinner.New(spinner.CharSets[9], 200*time.Millisecond)
		spin.Suffix = fmt.Sprintf(" Scanning space %s ...", cfg.Lifecycle.Space)
		spin.Start()
	}

	walker := services.NewSpaceWalker(cfg, client)
	record, err := walker.Walk(ctx)

	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return err
	}

	if store != nil {
		if err := store.SaveRun(record); err != nil {
			logger.Warn().Err(err).Msg("Failed to save run history")
		}
	}

	renderer := services.NewReportRenderer(client)

	if cfg.Report.Update && !cfg.Lifecycle.ReadOnly {
		body, err := renderer.Render(record, prev)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to render report")
		} else if err := renderer.Publish(ctx, cfg.Report.PageID, cfg.Report.PageTitle, body); err != nil {
			// Label updates already made stand; a report failure is not fatal.
			logger.Warn().Err(err).Msg("Failed to publish report page")
			common.PrintWarning("Report page update failed")
		}
	} else {
		services.RenderTable(os.Stdout, record)
	}

	if !quiet {
		common.PrintSuccess(fmt.Sprintf("Processed %d pages (%d fresh, %d stale, %d rotten, %d errors)",
			len(record.Results),
			record.Stats.Pages.Fresh,
			record.Stats.Pages.Stale,
			record.Stats.Pages.Rotten,
			record.Stats.Errors))
	}

	logger.Info().Msg("Confluence lifecycle run complete")
	return nil
}

// applyFlagOverrides lets explicit CLI flags win over the config file.
func applyFlagOverrides(cmd *cobra.Command, cfg *common.Config) {
	flags := cmd.Flags()

	if flags.Changed("username") {
		cfg.Confluence.Username = username
	}
	if flags.Changed("token") {
		cfg.Confluence.APIToken = apiToken
	}
	if flags.Changed("hostname") {
		cfg.Confluence.Hostname = hostname
	}
	if flags.Changed("cloud") {
		cfg.Confluence.Cloud = cloud
	}
	if flags.Changed("space") {
		cfg.Lifecycle.Space = space
	}
	if flags.Changed("max-pages") {
		cfg.Lifecycle.MaxPages = maxPages
	}
	if flags.Changed("stale-days") {
		cfg.Lifecycle.StaleDays = staleDays
	}
	if flags.Changed("rotten-days") {
		cfg.Lifecycle.RottenDays = rottenDays
	}
	if flags.Changed("fresh-label") {
		cfg.Lifecycle.FreshLabel = freshLabel
	}
	if flags.Changed("stale-label") {
		cfg.Lifecycle.StaleLabel = staleLabel
	}
	if flags.Changed("rotten-label") {
		cfg.Lifecycle.RottenLabel = rottenLabel
	}
	if flags.Changed("read-only") {
		cfg.Lifecycle.ReadOnly = readOnly
	}
	if flags.Changed("update-report") {
		cfg.Report.Update = updateReport
	}
	if flags.Changed("report-page-id") {
		cfg.Report.PageID = reportPageID
	}
	if flags.Changed("report-page-title") {
		cfg.Report.PageTitle = reportPageTitle
	}
}
