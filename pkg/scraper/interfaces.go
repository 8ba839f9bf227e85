package scraper

import (
	"context"

	"xscraper/pkg/collector"
	"xscraper/pkg/models"
)

// Browser is the page surface one scrape drives
type Browser interface {
	Open(ctx context.Context, url string) error
	EnsureLogin(ctx context.Context) error
	Extractor() collector.PageExtractor
	Scroller() collector.ScrollDriver
	ReadProfile(ctx context.Context, handle string) (models.Profile, models.ProfileStats, error)
	Close() error
}

// BrowserFactory starts a browser for one scrape
type BrowserFactory func(ctx context.Context) (Browser, error)
