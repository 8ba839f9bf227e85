package interrupt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"xscraper/pkg/collector"
	errs "xscraper/pkg/errors"
	"xscraper/pkg/models"
	"xscraper/pkg/retry"
	"xscraper/pkg/store"
)

type flushRecorder struct {
	calls     int
	reasons   []Reason
	persisted int
	err       error
}

func (f *flushRecorder) flush(ctx context.Context, reason Reason) (int, error) {
	f.calls++
	f.reasons = append(f.reasons, reason)
	if ctx.Err() != nil {
		return 0, fmt.Errorf("flush saw a cancelled context: %w", ctx.Err())
	}
	return f.persisted, f.err
}

func TestFinalizeCompleted(t *testing.T) {
	rec := &flushRecorder{persisted: 12}
	h := New(context.Background(), rec.flush, WithSignals())
	require.NoError(t, h.Start())

	out := h.Finalize(nil)
	again := h.Finalize(errors.New("ignored"))

	assert.Equal(t, StateCompleted, out.State)
	assert.Equal(t, 0, out.ExitCode())
	assert.Equal(t, 12, out.Persisted)
	assert.NoError(t, out.Err)
	assert.Equal(t, out, again)
	assert.Equal(t, 1, rec.calls)
}

func TestTriggerStopsRun(t *testing.T) {
	rec := &flushRecorder{persisted: 3}
	h := New(context.Background(), rec.flush, WithSignals())

	h.Trigger(ReasonStop)
	h.Trigger(ReasonSignal)

	select {
	case <-h.Context().Done():
	default:
		t.Fatal("context not cancelled by trigger")
	}

	out := h.Finalize(errs.New(errs.ErrorTypeInterrupted, "collect", context.Canceled))
	assert.Equal(t, StateStopped, out.State)
	assert.Equal(t, ReasonStop, out.Reason)
	assert.Equal(t, 130, out.ExitCode())
	assert.NoError(t, out.Err)
	assert.Equal(t, []Reason{ReasonStop}, rec.reasons)
}

func TestEngineFaultFails(t *testing.T) {
	rec := &flushRecorder{persisted: 7}
	h := New(context.Background(), rec.flush, WithSignals())

	fault := errs.New(errs.ErrorTypeEngineFault, "scroll", errors.New("target closed"))
	out := h.Finalize(fault)

	assert.Equal(t, StateFailed, out.State)
	assert.Equal(t, 1, out.ExitCode())
	assert.Equal(t, 7, out.Persisted)
	assert.ErrorIs(t, out.Err, fault)
	assert.Equal(t, 1, rec.calls)
}

func TestFinalFlushFailureFails(t *testing.T) {
	corrupt := errs.Corrupt("out/tweets.json", errors.New("unexpected EOF"))
	rec := &flushRecorder{err: corrupt}
	h := New(context.Background(), rec.flush, WithSignals())

	out := h.Finalize(nil)
	assert.Equal(t, StateFailed, out.State)
	assert.True(t, errs.IsStoreCorrupt(out.FlushErr))
	assert.True(t, errs.IsStoreCorrupt(out.Err))
}

func TestGuardRecoversPanic(t *testing.T) {
	rec := &flushRecorder{persisted: 2}
	h := New(context.Background(), rec.flush, WithSignals())

	err := h.Guard(func(ctx context.Context) error {
		var m map[string]int
		m["boom"]++
		return nil
	})

	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.NotEmpty(t, pe.Stack)
	assert.Equal(t, ReasonPanic, h.Reason())

	out := h.Finalize(err)
	assert.Equal(t, StateFailed, out.State)
	assert.Equal(t, 1, rec.calls)
	assert.Equal(t, 2, out.Persisted)
}

func TestParentCancellationIsStopped(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	rec := &flushRecorder{}
	h := New(parent, rec.flush, WithSignals())

	cancel()
	<-h.Context().Done()

	out := h.Finalize(errs.New(errs.ErrorTypeInterrupted, "collect", context.Canceled))
	assert.Equal(t, StateStopped, out.State)
	assert.Equal(t, ReasonCancelled, out.Reason)
	assert.Equal(t, 1, rec.calls)
}

func TestSignalTriggersHandler(t *testing.T) {
	rec := &flushRecorder{}
	h := New(context.Background(), rec.flush, WithSignals(syscall.SIGUSR1))
	require.NoError(t, h.Start())

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR1))

	select {
	case <-h.Context().Done():
	case <-time.After(5 * time.Second):
		t.Fatal("signal did not trigger the handler")
	}
	assert.Equal(t, ReasonSignal, h.Reason())
	assert.Equal(t, StateStopped, h.Finalize(nil).State)
}

func TestQuitKeyNeedsTerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "stdin")
	require.NoError(t, err)
	defer f.Close()

	h := New(context.Background(), (&flushRecorder{}).flush, WithSignals(), WithQuitKey(f))
	assert.Error(t, h.Start())
	h.Finalize(nil)
}

func TestRawModeWriter(t *testing.T) {
	var buf bytes.Buffer
	w := RawModeWriter(&buf)

	n, err := w.Write([]byte("one\ntwo\r\nthree\n"))
	require.NoError(t, err)
	assert.Equal(t, 15, n)
	assert.Equal(t, "one\r\ntwo\r\nthree\r\n", buf.String())
}

// pagedFeed serves five new posts per extraction and grows forever
type pagedFeed struct {
	calls  int
	height int64
}

func (f *pagedFeed) Extract(ctx context.Context) ([]models.Record, error) {
	var out []models.Record
	for i := 0; i < 5; i++ {
		out = append(out, models.Record{ID: fmt.Sprintf("%d-%d", f.calls, i)})
	}
	f.calls++
	return out, nil
}

func (f *pagedFeed) Advance(ctx context.Context) error { f.height += 100; return nil }

func (f *pagedFeed) CurrentHeight(ctx context.Context) (int64, error) { return f.height, nil }

// failingStore rejects every periodic flush but accepts the final one
type failingStore struct {
	inner   *store.FileStore
	reject  bool
	flushes int
}

func (s *failingStore) Flush(ctx context.Context, records []models.Record) (store.FlushResult, error) {
	s.flushes++
	if s.reject {
		return store.FlushResult{}, errors.New("read-only file system")
	}
	return s.inner.Flush(ctx, records)
}

func TestFinalFlushRunsAfterPeriodicFailures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tweets.json")
	fs := &failingStore{inner: store.NewFileStore(path, nil), reject: true}
	feed := &pagedFeed{}

	var run *collector.Run
	h := New(context.Background(), func(ctx context.Context, reason Reason) (int, error) {
		fs.reject = false
		res, err := fs.Flush(ctx, run.Snapshot())
		return res.Total, err
	}, WithSignals())

	run = collector.New(feed, feed, fs, collector.Config{
		MaxNoGrowthStreak: 3,
		RetryBackoff:      &retry.ConstantBackoff{},
	}, collector.WithProgress(func(p collector.Progress) {
		if p.Iteration == 3 {
			h.Trigger(ReasonStop)
		}
	}))

	var res collector.Result
	err := h.Guard(func(ctx context.Context) error {
		var err error
		res, err = run.Collect(ctx)
		return err
	})
	out := h.Finalize(err)

	assert.Equal(t, 3, res.FlushFailures)
	assert.Equal(t, StateStopped, out.State)
	assert.Equal(t, 15, out.Persisted)

	persisted, err := store.Load(path)
	require.NoError(t, err)
	assert.Len(t, persisted, 15)
}
