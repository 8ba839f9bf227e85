package main

import (
	"context"

	"xscraper/pkg/config"
	"xscraper/pkg/logger"
	"xscraper/pkg/scraper"
	"xscraper/pkg/ui"
	"xscraper/pkg/ui/tui"
)

// runFunc performs one foreground collection
type runFunc func(ctx context.Context, s *scraper.Scraper)

// runForeground builds a Scraper for an interactive run and calls fn with
// it, either behind the full screen monitor or on the console
func runForeground(cfg *config.Config, useTUI bool, fn runFunc) error {
	notifier := ui.NewNotifier(cfg.Notifications)

	if useTUI {
		return runWithTUI(cfg, notifier, fn)
	}

	opts, err := setupConsole(cfg)
	if err != nil {
		return err
	}
	defer restoreConsole()

	s := scraper.New(cfg,
		scraper.WithMonitor(ui.NewConsoleMonitor(verbose)),
		scraper.WithNotifier(notifier),
		scraper.WithInterruptOptions(opts...),
	)
	fn(context.Background(), s)
	return nil
}

// runWithTUI owns the terminal for the monitor. Pressing q cancels the run
// context, which the interrupt handler reports as an operator stop.
func runWithTUI(cfg *config.Config, notifier *ui.Notifier, fn runFunc) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	terminal := tui.NewTUI(cancel)

	logCfg := cfg.Logging
	logCfg.NoColor = true
	if err := logger.InitializeWithWriter(&logCfg, terminal.LogWriter()); err != nil {
		return err
	}

	tuiDone := make(chan error, 1)
	go func() {
		tuiDone <- terminal.Start()
	}()

	s := scraper.New(cfg,
		scraper.WithMonitor(terminal),
		scraper.WithNotifier(notifier),
	)
	fn(ctx, s)

	terminal.Stop()
	if err := <-tuiDone; err != nil {
		logger.WithError(err).Error("TUI failed")
	}
	return nil
}
