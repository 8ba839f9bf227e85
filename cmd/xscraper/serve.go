package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"xscraper/internal/worker"
	"xscraper/pkg/jobs"
	"xscraper/pkg/logger"
	"xscraper/pkg/ratelimit"
	"xscraper/pkg/server"
	"xscraper/pkg/ui"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the job API",
	Long: `Serve the HTTP job API. Each submitted search runs as a background job
on a small worker pool; job history is kept in a SQLite database so it
survives restarts.

On SIGINT or SIGTERM every running job is stopped and saves what it has
collected before the server exits.`,
	Example: `  xscraper serve --addr :3000 --workers 2

  curl -XPOST localhost:3000/api/scrape -d '{"query":"golang","limit":100}'`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default :3000)")
	serveCmd.Flags().Int("workers", 0, "concurrent jobs (default 2)")
	serveCmd.Flags().String("output", "", "directory for job output files")
	serveCmd.Flags().Bool("headless", true, "run Chrome without a window")
	serveCmd.Flags().String("cookies", "", "cookie jar file")
	serveCmd.Flags().String("remote-url", "", "connect to a running Chrome instead of launching one")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()

	store, err := jobs.OpenStore(cfg.Server.JobsDatabase)
	if err != nil {
		return err
	}
	defer store.Close()

	// The pool paces job starts; the bucket rejects bursts of submissions
	pool := worker.NewPool(
		cfg.Server.Workers,
		cfg.Server.Workers*10,
		ratelimit.NewSlidingWindow(cfg.RateLimit.JobsPerMinute, time.Minute),
		log,
	)
	manager, err := jobs.NewManager(
		store,
		pool,
		ratelimit.NewJobBucket(cfg.RateLimit.JobsPerMinute, cfg.RateLimit.Burst),
		jobs.ScraperRunner(cfg),
		jobs.Options{OutputDir: cfg.Output.Directory, LogLines: cfg.Server.LogLines},
		log,
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ui.PrintLogo()
	ui.PrintInfo("Listening", cfg.Server.Addr)

	srv := server.New(manager, log)
	serveErr := srv.ListenAndServe(ctx, cfg.Server.Addr, cfg.Server.ShutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := manager.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Jobs did not stop in time")
	}

	if serveErr != nil {
		return fmt.Errorf("server error: %w", serveErr)
	}
	return nil
}
