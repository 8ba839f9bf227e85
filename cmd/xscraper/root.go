package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"xscraper/pkg/auth"
	"xscraper/pkg/config"
	"xscraper/pkg/interrupt"
	"xscraper/pkg/logger"
	"xscraper/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile    string
	logLevel      string
	noColor       bool
	notifications bool
	quiet         bool
	verbose       bool
)

// exitError carries a process exit status out of a command
type exitError struct {
	code int
}

func (e exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

var rootCmd = &cobra.Command{
	Use:   "xscraper",
	Short: "Collect posts from X searches and profiles",
	Long: `xscraper drives a real Chrome session through X search results and
profile timelines, saving every post it sees to a JSON file as it scrolls.

Collection stops when the limit is reached or the feed stops growing. Press
q or Ctrl+C at any time: everything collected so far is written to disk
before the process exits.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			ui.SetQuietMode(true)
		}
		if noColor {
			ui.SetColors(false)
		}
	},
}

// Execute runs the root command and exits with the run's status
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	if e, ok := err.(exitError); ok {
		os.Exit(e.code)
	}
	ui.PrintError(err.Error())
	os.Exit(1)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.xscraper.yaml or ~/.config/xscraper/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&notifications, "notifications", true, "enable desktop notifications")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print one progress line per flush")

	rootCmd.SetVersionTemplate(`xscraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// changedFlags collects the flags the user actually set, keyed by flag name
func changedFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	cmd.Flags().Visit(func(f *pflag.Flag) {
		switch f.Value.Type() {
		case "bool":
			v, _ := cmd.Flags().GetBool(f.Name)
			flags[f.Name] = v
		case "int":
			v, _ := cmd.Flags().GetInt(f.Name)
			flags[f.Name] = v
		default:
			flags[f.Name] = f.Value.String()
		}
	})
	return flags
}

// loadConfig resolves configuration for a run command and fills the login
// from the credential stores when the environment did not provide one.
// Flags named in skip are handled by the command itself.
func loadConfig(cmd *cobra.Command, skip ...string) (*config.Config, error) {
	flags := changedFlags(cmd)
	for _, name := range skip {
		delete(flags, name)
	}
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if manager, err := auth.NewManager(); err == nil {
		manager.Fill(&cfg.Browser)
	}
	return cfg, nil
}

// stdinIsTerminal reports whether the quit key can be read from stdin
func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// setupConsole initializes logging for a foreground run. When stdin is a
// terminal it returns the quit key option and switches console output to
// raw-mode safe line endings.
func setupConsole(cfg *config.Config) ([]interrupt.Option, error) {
	var logOut io.Writer = os.Stderr
	var opts []interrupt.Option
	if stdinIsTerminal() {
		logOut = interrupt.RawModeWriter(os.Stderr)
		ui.SetOutput(interrupt.RawModeWriter(os.Stdout))
		opts = append(opts, interrupt.WithQuitKey(os.Stdin))
	}
	if err := logger.InitializeWithWriter(&cfg.Logging, logOut); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return opts, nil
}

// restoreConsole undoes setupConsole once the terminal has left raw mode
func restoreConsole() {
	ui.SetOutput(nil)
}
