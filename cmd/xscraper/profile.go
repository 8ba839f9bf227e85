package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"xscraper/pkg/browser"
	"xscraper/pkg/logger"
	"xscraper/pkg/scraper"
	"xscraper/pkg/ui"
)

var (
	profileTab string
	profileTUI bool
)

var profileCmd = &cobra.Command{
	Use:   "profile <username>",
	Short: "Collect a user's profile and timeline tabs",
	Long: `Read a user's profile header and collect posts from one or more of the
posts, with_replies and media tabs.

Each tab is saved to its own JSON file next to the profile document, which
also carries per-tab word frequencies. A stopped tab ends the run; the
profile document is still written with what was collected.`,
	Example: `  # Posts tab only
  xscraper profile gopher --limit 100

  # All three tabs, sentiment scores included
  xscraper profile @gopher --tab all --sentiment`,
	Args: cobra.ExactArgs(1),
	RunE: runProfile,
}

func init() {
	rootCmd.AddCommand(profileCmd)

	profileCmd.Flags().StringVar(&profileTab, "tab", browser.ProfilePosts, "posts, with_replies, media or all")
	addCollectionFlags(profileCmd)
	profileCmd.Flags().BoolVar(&profileTUI, "tui", false, "use the full screen monitor")
}

func runProfile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, "tab")
	if err != nil {
		return err
	}
	if !profileTUI {
		ui.PrintLogo()
		ui.PrintInfo("Profile", args[0])
	}

	// The default output is a per-user document, not the search file
	var output string
	if cmd.Flags().Changed("outfile") {
		output = cfg.OutputPath()
	}

	var report scraper.ProfileReport
	err = runForeground(cfg, profileTUI, func(ctx context.Context, s *scraper.Scraper) {
		var runErr error
		report, runErr = s.RunProfile(ctx, scraper.ProfileTarget{
			Handle: args[0],
			Tab:    profileTab,
			Limit:  cfg.Collection.MaxRecords,
			Output: output,
		})
		if runErr != nil {
			logger.WithError(runErr).Debug("Profile run ended with error")
		}
	})
	if err != nil {
		return err
	}

	for _, tab := range report.Tabs {
		printReport(tab)
	}
	if report.Document != nil && report.Output != "" {
		ui.PrintInfo("Profile document", fmt.Sprintf("%s (%d posts)", report.Output, report.Document.TotalTweets()))
	}
	if len(report.Tabs) == 0 && report.Outcome.Err != nil {
		ui.PrintError(report.Outcome.Err.Error())
	}

	if code := report.ExitCode(); code != 0 {
		return exitError{code: code}
	}
	return nil
}
