package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"xscraper/pkg/models"
	"xscraper/pkg/store"
)

type extractStep struct {
	records []models.Record
	err     error
}

// scriptedExtractor replays steps in order and then repeats the last one,
// the way an overlapping feed keeps showing the same posts.
type scriptedExtractor struct {
	steps []extractStep
	calls int
}

func (e *scriptedExtractor) Extract(ctx context.Context) ([]models.Record, error) {
	if len(e.steps) == 0 {
		return nil, nil
	}
	i := e.calls
	if i >= len(e.steps) {
		i = len(e.steps) - 1
	}
	e.calls++
	return e.steps[i].records, e.steps[i].err
}

// heightDriver reports heights in order and then repeats the last one
type heightDriver struct {
	heights    []int64
	reads      int
	advances   int
	advanceErr error
}

func (d *heightDriver) Advance(ctx context.Context) error {
	d.advances++
	return d.advanceErr
}

func (d *heightDriver) CurrentHeight(ctx context.Context) (int64, error) {
	i := d.reads
	if i >= len(d.heights) {
		i = len(d.heights) - 1
	}
	d.reads++
	return d.heights[i], nil
}

// memoryFlusher merges into an in-memory store
type memoryFlusher struct {
	mu      sync.Mutex
	stored  []models.Record
	calls   int
	failFor int
}

func (f *memoryFlusher) Flush(ctx context.Context, records []models.Record) (store.FlushResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.calls <= f.failFor {
		return store.FlushResult{}, errors.New("disk full")
	}
	before := len(f.stored)
	f.stored = store.Merge(f.stored, records)
	return store.FlushResult{Added: len(f.stored) - before, Total: len(f.stored)}, nil
}

func post(id string) models.Record {
	return models.Record{
		ID:           id,
		AuthorHandle: "@author",
		Body:         "body of " + id,
		Permalink:    "https://twitter.com/author/status/" + id,
	}
}

func posts(ids ...string) []models.Record {
	out := make([]models.Record, len(ids))
	for i, id := range ids {
		out[i] = post(id)
	}
	return out
}

func numbered(from, to int) []models.Record {
	var out []models.Record
	for i := from; i < to; i++ {
		out = append(out, post(fmt.Sprintf("%d", i)))
	}
	return out
}

// growing returns n+1 strictly increasing heights
func growing(n int) []int64 {
	h := make([]int64, n+1)
	for i := range h {
		h[i] = int64(1000 + i*800)
	}
	return h
}

func recordIDs(records []models.Record) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}
