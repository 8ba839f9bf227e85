package scraper

import (
	"context"
	"fmt"
	"strings"

	"xscraper/pkg/analysis"
	"xscraper/pkg/browser"
	"xscraper/pkg/collector"
	"xscraper/pkg/config"
	errs "xscraper/pkg/errors"
	"xscraper/pkg/interrupt"
	"xscraper/pkg/logger"
	"xscraper/pkg/metadata"
	"xscraper/pkg/retry"
	"xscraper/pkg/store"
	"xscraper/pkg/ui"
)

// Scraper runs collections against X feeds, one engine run per target
type Scraper struct {
	config      *config.Config
	logger      logger.Logger
	newBrowser  BrowserFactory
	monitor     ui.Monitor
	notifier    *ui.Notifier
	handlerOpts []interrupt.Option
	progress    func(target string, p collector.Progress)
}

// Option configures a Scraper
type Option func(*Scraper)

// WithBrowserFactory replaces the Chrome session factory
func WithBrowserFactory(f BrowserFactory) Option {
	return func(s *Scraper) { s.newBrowser = f }
}

// WithMonitor sets the display receiving run events
func WithMonitor(m ui.Monitor) Option {
	return func(s *Scraper) { s.monitor = m }
}

// WithNotifier sets the notifier used when a run ends
func WithNotifier(n *ui.Notifier) Option {
	return func(s *Scraper) { s.notifier = n }
}

// WithInterruptOptions is passed to every run's interrupt handler, e.g. to
// enable the quit key or to disable signal handling in the job server
func WithInterruptOptions(opts ...interrupt.Option) Option {
	return func(s *Scraper) { s.handlerOpts = append(s.handlerOpts, opts...) }
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(s *Scraper) { s.logger = l }
}

// WithProgress registers an observer called after every flush
func WithProgress(fn func(target string, p collector.Progress)) Option {
	return func(s *Scraper) { s.progress = fn }
}

// New creates a Scraper. Without WithBrowserFactory it launches Chrome
// with the browser section of cfg.
func New(cfg *config.Config, opts ...Option) *Scraper {
	s := &Scraper{
		config: cfg,
		logger: logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.newBrowser == nil {
		s.newBrowser = ChromeFactory(browser.OptionsFromConfig(cfg.Browser), s.logger)
	}
	return s
}

// SearchTarget is one advanced search to collect
type SearchTarget struct {
	Query browser.SearchQuery
	// Limit caps the records collected (0 means unbounded)
	Limit int
	// Output is the record store path; empty means the configured default
	Output string
}

// Report describes how one collection run ended
type Report struct {
	Target  string
	Output  string
	Outcome interrupt.Outcome
	Result  collector.Result
}

// Exhausted reports a finite limit the feed could not satisfy
func (r Report) Exhausted() bool {
	return r.Result.ExhaustedBeforeLimit()
}

// ExitCode maps the terminal state to a process exit status
func (r Report) ExitCode() int {
	return r.Outcome.ExitCode()
}

// Summary is a one-line description of the run for operators
func (r Report) Summary() string {
	switch r.Outcome.State {
	case interrupt.StateCompleted:
		return fmt.Sprintf("%s, %d records saved", r.Result.Summary(), r.Outcome.Persisted)
	case interrupt.StateStopped:
		return fmt.Sprintf("stopped (%s): %d records saved", r.Outcome.Reason, r.Outcome.Persisted)
	default:
		return fmt.Sprintf("failed: %v (%d records saved)", r.Outcome.Err, r.Outcome.Persisted)
	}
}

// RunSearch collects the results of one search into its record store
func (s *Scraper) RunSearch(ctx context.Context, t SearchTarget) (Report, error) {
	target := t.Query.Terms()
	searchURL, err := browser.SearchURL(t.Query)
	if err != nil {
		return s.failSearch(target, t.Output, errs.New(errs.ErrorTypeConfig, "search", err))
	}

	output := t.Output
	if output == "" {
		output = s.config.OutputPath()
	}

	b, err := s.openBrowser(ctx)
	if err != nil {
		return s.failSearch(target, output, err)
	}
	defer s.closeBrowser(b)

	lang := t.Query.Language
	if lang == "" {
		lang = s.config.Analysis.Language
	}

	return s.collect(ctx, b, runSpec{
		target: target,
		url:    searchURL,
		output: output,
		limit:  t.Limit,
		lang:   lang,
	})
}

// ProfileTarget is one user page to collect
type ProfileTarget struct {
	Handle string
	// Tab is posts, with_replies, media or all
	Tab    string
	Limit  int
	Output string
}

// ProfileReport describes a profile collection. Tabs holds one report per
// tab attempted; Outcome is the outcome of the last one.
type ProfileReport struct {
	Username string
	Output   string
	Document *metadata.ProfileDocument
	Tabs     []Report
	Outcome  interrupt.Outcome
}

// ExitCode maps the terminal state to a process exit status
func (r ProfileReport) ExitCode() int {
	return r.Outcome.ExitCode()
}

// RunProfile reads a user's profile header and collects each requested tab.
// Every tab is its own engine run with its own record store next to the
// profile document. A stopped or failed tab ends the profile run; the
// document is written with the tabs collected so far.
func (s *Scraper) RunProfile(ctx context.Context, t ProfileTarget) (ProfileReport, error) {
	handle := strings.TrimPrefix(strings.TrimSpace(t.Handle), "@")
	report := ProfileReport{Username: handle, Output: t.Output}
	if handle == "" {
		return s.failProfile(report, errs.New(errs.ErrorTypeConfig, "profile", fmt.Errorf("username is required")))
	}
	tabs, err := browser.ProfileTabs(t.Tab)
	if err != nil {
		return s.failProfile(report, errs.New(errs.ErrorTypeConfig, "profile", err))
	}
	if report.Output == "" {
		report.Output = metadata.DefaultPath(s.config.Output.Directory, handle)
	}

	b, err := s.openBrowser(ctx)
	if err != nil {
		return s.failProfile(report, err)
	}
	defer s.closeBrowser(b)

	log := s.logger.WithField("username", handle)
	doc := metadata.NewProfileDocument(handle)
	report.Document = doc

	if err := b.Open(ctx, browser.ProfileTabURL(handle, browser.ProfilePosts)); err != nil {
		if ctx.Err() != nil {
			return s.failProfile(report, errs.New(errs.ErrorTypeInterrupted, "open profile", ctx.Err()))
		}
		return s.failProfile(report, errs.New(errs.ErrorTypeEngineFault, "open profile", err))
	}
	profile, stats, err := b.ReadProfile(ctx, handle)
	if err != nil {
		log.WithError(err).Warn("Could not read profile header")
	} else {
		doc.Profile = profile
		doc.Stats = stats
	}

	wordOpts := analysis.WordOptions{
		MinWordLength:    s.config.Analysis.MinWordLength,
		ExcludeStopWords: s.config.Analysis.ExcludeStopWords,
		Language:         s.config.Analysis.Language,
	}

	var runErr error
	for _, tab := range tabs {
		tabReport, err := s.collect(ctx, b, runSpec{
			target: "@" + handle + "/" + tab,
			url:    browser.ProfileTabURL(handle, tab),
			output: metadata.TabStorePath(report.Output, tab),
			limit:  t.Limit,
			lang:   s.config.Analysis.Language,
		})
		report.Tabs = append(report.Tabs, tabReport)
		report.Outcome = tabReport.Outcome
		doc.AddTab(tab, tabReport.Result.Records, analysis.WordFrequency(tabReport.Result.Records, wordOpts))
		if tabReport.Outcome.State != interrupt.StateCompleted {
			runErr = err
			break
		}
	}

	if err := doc.Save(report.Output); err != nil {
		log.WithError(err).Error("Failed to write profile document")
		report.Outcome.State = interrupt.StateFailed
		report.Outcome.Err = err
		return report, err
	}
	log.InfoWithFields("Profile document written", map[string]interface{}{
		"output": report.Output,
		"tweets": doc.TotalTweets(),
	})
	return report, runErr
}

type runSpec struct {
	target string
	url    string
	output string
	limit  int
	lang   string
}

// collect runs one engine loop under an interrupt handler. The final flush
// runs however the loop ends.
func (s *Scraper) collect(ctx context.Context, b Browser, spec runSpec) (Report, error) {
	log := s.logger.WithFields(map[string]interface{}{
		"target": spec.target,
		"output": spec.output,
	})
	fs := store.NewFileStore(spec.output, log)

	opts := []collector.Option{
		collector.WithLogger(log),
		collector.WithProgress(func(p collector.Progress) {
			if s.monitor != nil {
				s.monitor.UpdateProgress(spec.target, p)
			}
			if s.progress != nil {
				s.progress(spec.target, p)
			}
		}),
	}
	if s.config.Analysis.Sentiment {
		opts = append(opts, collector.WithAnnotator(analysis.Annotate(spec.lang)))
	}
	run := collector.New(b.Extractor(), b.Scroller(), fs, s.collectorConfig(spec.limit), opts...)

	flush := func(ctx context.Context, reason interrupt.Reason) (int, error) {
		res, err := fs.Flush(ctx, run.Snapshot())
		if err != nil {
			// the store still holds what the last periodic flush wrote
			return run.Persisted(), err
		}
		return res.Total, nil
	}
	h := interrupt.New(ctx, flush, append([]interrupt.Option{interrupt.WithLogger(log)}, s.handlerOpts...)...)
	if err := h.Start(); err != nil {
		log.WithError(err).Warn("Quit key unavailable, use Ctrl+C to stop")
	}

	if s.monitor != nil {
		s.monitor.StartRun(spec.target, spec.limit)
	}
	log.InfoWithFields("Collection started", map[string]interface{}{
		"url":   spec.url,
		"limit": spec.limit,
	})

	var result collector.Result
	runErr := h.Guard(func(ctx context.Context) error {
		if err := b.Open(ctx, spec.url); err != nil {
			if ctx.Err() != nil {
				return errs.New(errs.ErrorTypeInterrupted, "open", ctx.Err())
			}
			return errs.New(errs.ErrorTypeEngineFault, "open", err)
		}
		var err error
		result, err = run.Collect(ctx)
		return err
	})
	outcome := h.Finalize(runErr)
	if result.Records == nil {
		result.Records = run.Snapshot()
	}

	report := Report{
		Target:  spec.target,
		Output:  spec.output,
		Outcome: outcome,
		Result:  result,
	}
	logger.LogRunOutcome(log, spec.target, string(outcome.State), outcome.Persisted, outcome.Err)
	s.announce(report)
	return report, outcome.Err
}

// collectorConfig maps the collection section onto the engine config
func (s *Scraper) collectorConfig(limit int) collector.Config {
	c := s.config.Collection
	cfg := collector.Config{
		MaxRecords:        limit,
		MaxNoGrowthStreak: c.MaxNoGrowthStreak,
		ScrollDelay:       c.ScrollDelay,
	}
	if c.RetryDelay > 0 {
		cfg.RetryBackoff = &retry.ExponentialBackoff{
			BaseDelay:  c.RetryDelay,
			MaxDelay:   c.MaxRetryDelay,
			Multiplier: 1.5,
		}
	}
	return cfg
}

func (s *Scraper) announce(r Report) {
	summary := r.Summary()
	if s.monitor != nil {
		s.monitor.FinishRun(r.Target, string(r.Outcome.State), r.Outcome.Persisted, summary, r.Outcome.Err)
	}
	if s.notifier == nil {
		return
	}
	switch {
	case r.Outcome.State == interrupt.StateFailed:
		s.notifier.Failed(r.Target, r.Outcome.Err)
	case r.Exhausted():
		s.notifier.Exhausted(r.Target, summary)
	case r.Outcome.State == interrupt.StateCompleted:
		s.notifier.Completed(r.Target, summary)
	}
}

func (s *Scraper) openBrowser(ctx context.Context) (Browser, error) {
	b, err := s.newBrowser(ctx)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeEngineFault, "launch browser", err)
	}
	if err := b.EnsureLogin(ctx); err != nil {
		s.closeBrowser(b)
		return nil, errs.New(errs.ErrorTypeEngineFault, "login", err)
	}
	return b, nil
}

func (s *Scraper) closeBrowser(b Browser) {
	if err := b.Close(); err != nil {
		s.logger.WithError(err).Warn("Failed to close browser")
	}
}

func (s *Scraper) failProfile(r ProfileReport, err error) (ProfileReport, error) {
	r.Outcome = interrupt.Outcome{State: interrupt.StateFailed, Err: err}
	if s.monitor != nil {
		s.monitor.LogError("@%s: %v", r.Username, err)
	}
	if s.notifier != nil {
		s.notifier.Failed("@"+r.Username, err)
	}
	return r, err
}

func (s *Scraper) failSearch(target, output string, err error) (Report, error) {
	s.logger.WithError(err).WithField("target", target).Error("Search could not start")
	if s.monitor != nil {
		s.monitor.LogError("%s: %v", target, err)
	}
	if s.notifier != nil {
		s.notifier.Failed(target, err)
	}
	return Report{
		Target:  target,
		Output:  output,
		Outcome: interrupt.Outcome{State: interrupt.StateFailed, Err: err},
	}, err
}
