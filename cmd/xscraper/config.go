package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"xscraper/pkg/config"
	"xscraper/pkg/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage xscraper configuration files.

Configuration is resolved from, highest priority first:
  - Command line flags
  - Environment variables (XSCRAPER_*, TWITTER_USER, TWITTER_PASS)
  - A .env file in the working directory
  - The configuration file
  - Default values`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with every available option.

The file is written to .xscraper.yaml in the current directory unless a
different path is given with --config.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# xscraper configuration
#
# Login credentials never go in this file. Set TWITTER_USER and
# TWITTER_PASS (a .env file works) or run 'xscraper auth login'.

browser:
  # Run Chrome without a window
  headless: true
  # Connect to an already running Chrome (ws:// or http:// debugger URL)
  remote_url: ""
  user_agent: ""
  accept_language: "en-US,en;q=0.9"
  # Session cookies are saved here after login
  cookie_file: "x_cookies.json"
  navigation_timeout: 60s
  navigation_retries: 3

collection:
  # 0 collects until the feed stops growing
  max_records: 0
  # Scrolls in a row without new posts before the feed counts as exhausted
  max_no_growth_streak: 3
  scroll_delay: 500ms
  # Backoff after a failed extraction
  retry_delay: 3s
  max_retry_delay: 30s
  # Search tab: latest, top or media
  tab: latest
  language: ""

output:
  directory: "out"
  file: "tweets.json"

analysis:
  sentiment: true
  language: "en"
  min_word_length: 2
  exclude_stop_words: true
  top_words: 100

server:
  addr: ":3000"
  # Each worker drives its own Chrome session (1-8)
  workers: 2
  jobs_database: "out/jobs.db"
  log_lines: 200
  shutdown_timeout: 15s

rate_limit:
  jobs_per_minute: 6
  burst: 2

notifications:
  enabled: true
  on_complete: true
  on_error: true
  on_exhausted: true
  # terminal, desktop or none
  notification_type: terminal

logging:
  # debug, info, warn or error
  level: info
  file: ""
  no_color: false
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = ".xscraper.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s", path)
	}
	if err := os.WriteFile(path, []byte(exampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + path)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Store your X login with 'xscraper auth login'")
	fmt.Println("2. Run 'xscraper config validate' to check the file")
	fmt.Println("3. Start collecting with 'xscraper search --query <terms>'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	login := "(none)"
	if cfg.Browser.Username != "" {
		login = cfg.Browser.Username + " (from environment)"
	}
	fmt.Printf("\nLogin: %s\n", login)
	if configFile != "" {
		fmt.Printf("Configuration file: %s\n", configFile)
	}
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	var warnings []string
	if cfg.Browser.Username == "" || cfg.Browser.Password == "" {
		warnings = append(warnings, "no login in the environment; stored credentials or the cookie jar will be used")
	}
	if cfg.Browser.CookieFile == "" {
		warnings = append(warnings, "no cookie jar; every run will log in again")
	}
	if err := os.MkdirAll(cfg.Output.Directory, 0755); err != nil {
		return fmt.Errorf("cannot create output directory: %w", err)
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")
	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Output: %s\n", cfg.OutputPath())
	fmt.Printf("  Limit: %d (0 is unbounded)\n", cfg.Collection.MaxRecords)
	fmt.Printf("  No-growth streak: %d\n", cfg.Collection.MaxNoGrowthStreak)
	fmt.Printf("  Scroll delay: %s\n", cfg.Collection.ScrollDelay)
	fmt.Printf("  Server: %s with %d workers\n", cfg.Server.Addr, cfg.Server.Workers)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
	return nil
}
