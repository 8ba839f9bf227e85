package main

import (
	"context"

	"github.com/spf13/cobra"

	"xscraper/pkg/browser"
	"xscraper/pkg/interrupt"
	"xscraper/pkg/logger"
	"xscraper/pkg/scraper"
	"xscraper/pkg/ui"
)

var (
	searchUser  string
	searchQuery string
	searchSince string
	searchUntil string
	searchTUI   bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Collect the results of an advanced search",
	Long: `Collect posts from an X advanced search into a JSON file.

At least one of --user or --query is required. The file is rewritten after
every scroll, so an interrupted run keeps everything it saw.`,
	Example: `  # Latest posts mentioning golang
  xscraper search --query golang --limit 200

  # Everything a user posted in January, top tab
  xscraper search --user gopher --since 2024-01-01 --until 2024-02-01 --tab top

  # Run with the full screen monitor
  xscraper search --query "rust OR zig" --lang en --tui`,
	Args: cobra.NoArgs,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	f := searchCmd.Flags()
	f.StringVar(&searchUser, "user", "", "only posts from this account")
	f.StringVar(&searchQuery, "query", "", "search terms")
	f.StringVar(&searchSince, "since", "", "earliest date (YYYY-MM-DD)")
	f.StringVar(&searchUntil, "until", "", "latest date (YYYY-MM-DD)")
	f.String("tab", browser.TabLatest, "results tab: latest, top or media")
	f.String("lang", "", "language code, e.g. en")
	addCollectionFlags(searchCmd)
	f.BoolVar(&searchTUI, "tui", false, "use the full screen monitor")
}

// addCollectionFlags registers the flags shared by search and profile runs
func addCollectionFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("limit", 0, "stop after this many posts (0 means until the feed ends)")
	f.String("outfile", "", "output file (default tweets.json in the output directory)")
	f.String("output", "", "output directory")
	f.Int("max-no-new", 0, "stop after this many scrolls without new posts")
	f.Int("scroll-delay", 0, "pause between scrolls in milliseconds")
	f.Bool("headless", true, "run Chrome without a window")
	f.String("cookies", "", "cookie jar file")
	f.String("remote-url", "", "connect to a running Chrome instead of launching one")
	f.Bool("sentiment", true, "score each post's sentiment")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	query := browser.SearchQuery{
		Language: cfg.Collection.Language,
		From:     searchUser,
		Query:    searchQuery,
		Since:    searchSince,
		Until:    searchUntil,
		Tab:      cfg.Collection.Tab,
	}
	if !searchTUI {
		ui.PrintLogo()
		ui.PrintInfo("Search", query.Terms())
	}

	var report scraper.Report
	err = runForeground(cfg, searchTUI, func(ctx context.Context, s *scraper.Scraper) {
		var runErr error
		report, runErr = s.RunSearch(ctx, scraper.SearchTarget{
			Query: query,
			Limit: cfg.Collection.MaxRecords,
		})
		if runErr != nil {
			logger.WithError(runErr).Debug("Search run ended with error")
		}
	})
	if err != nil {
		return err
	}

	printReport(report)
	if code := report.ExitCode(); code != 0 {
		return exitError{code: code}
	}
	return nil
}

func printReport(r scraper.Report) {
	switch {
	case r.Outcome.State == interrupt.StateCompleted && r.Exhausted():
		ui.PrintWarning(r.Summary())
	case r.Outcome.State == interrupt.StateCompleted:
		ui.PrintSuccess(r.Summary())
	case r.Outcome.State == interrupt.StateStopped:
		ui.PrintWarning(r.Summary())
	default:
		ui.PrintError(r.Summary())
	}
	if r.Output != "" {
		ui.PrintInfo("Saved to", r.Output)
	}
}
