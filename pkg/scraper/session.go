package scraper

import (
	"context"

	"xscraper/pkg/browser"
	"xscraper/pkg/collector"
	"xscraper/pkg/logger"
	"xscraper/pkg/models"
)

type chromeBrowser struct {
	*browser.Session
	extractor *browser.Extractor
	scroller  *browser.Scroller
	profile   *browser.ProfileReader
}

// ChromeFactory returns a factory launching a go-rod session per scrape
func ChromeFactory(opts browser.Options, log logger.Logger) BrowserFactory {
	return func(ctx context.Context) (Browser, error) {
		session, err := browser.NewSession(ctx, opts, log)
		if err != nil {
			return nil, err
		}
		return &chromeBrowser{
			Session:   session,
			extractor: browser.NewExtractor(session),
			scroller:  browser.NewScroller(session),
			profile:   browser.NewProfileReader(session),
		}, nil
	}
}

func (c *chromeBrowser) Extractor() collector.PageExtractor { return c.extractor }

func (c *chromeBrowser) Scroller() collector.ScrollDriver { return c.scroller }

func (c *chromeBrowser) ReadProfile(ctx context.Context, handle string) (models.Profile, models.ProfileStats, error) {
	return c.profile.Read(ctx, handle)
}
