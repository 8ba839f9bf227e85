package collector

import (
	"context"

	"xscraper/pkg/models"
	"xscraper/pkg/store"
)

// PageExtractor reads the post candidates currently rendered on the page.
// Candidates may lack an ID. A momentarily unavailable page context is
// reported with an error matching errors.ErrTransientExtraction.
type PageExtractor interface {
	Extract(ctx context.Context) ([]models.Record, error)
}

// ScrollDriver advances the feed and reports its content height
type ScrollDriver interface {
	Advance(ctx context.Context) error
	CurrentHeight(ctx context.Context) (int64, error)
}

// Flusher durably merges the accumulator into the run's output store
type Flusher interface {
	Flush(ctx context.Context, records []models.Record) (store.FlushResult, error)
}

// Annotator decorates a record the first time it is accepted
type Annotator func(*models.Record)
