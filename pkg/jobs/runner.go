package jobs

import (
	"context"
	"time"

	"xscraper/pkg/collector"
	"xscraper/pkg/config"
	"xscraper/pkg/interrupt"
	"xscraper/pkg/logger"
	"xscraper/pkg/scraper"
)

// ScraperRunner runs jobs with a Scraper built from cfg. Per-job parameters
// override the collection and browser sections. Signal handling stays with
// the server, so job handlers do not subscribe to signals.
func ScraperRunner(cfg *config.Config, opts ...scraper.Option) Runner {
	return func(ctx context.Context, p Params, output string, hooks Hooks) (scraper.Report, error) {
		c := *cfg
		if p.MaxNoNew > 0 {
			c.Collection.MaxNoGrowthStreak = p.MaxNoNew
		}
		if p.ScrollDelay > 0 {
			c.Collection.ScrollDelay = time.Duration(p.ScrollDelay) * time.Millisecond
		}
		if p.Headless != nil {
			c.Browser.Headless = *p.Headless
		}
		if p.Lang != "" {
			c.Analysis.Language = p.Lang
		}

		log := hooks.Logger
		if log == nil {
			log = logger.NewNopLogger()
		}
		all := []scraper.Option{
			scraper.WithLogger(log),
			scraper.WithInterruptOptions(interrupt.WithSignals()),
			scraper.WithProgress(func(_ string, pr collector.Progress) {
				if hooks.Progress != nil {
					hooks.Progress(pr)
				}
			}),
		}
		all = append(all, opts...)

		return scraper.New(&c, all...).RunSearch(ctx, scraper.SearchTarget{
			Query:  p.SearchQuery(),
			Limit:  p.Limit,
			Output: output,
		})
	}
}
