package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xscraper/internal/worker"
	"xscraper/pkg/jobs"
	"xscraper/pkg/logger"
)

type fakeJobs struct {
	jobs      map[string]jobs.Job
	submitErr error
	submitted []jobs.Params
	stopErr   error
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{jobs: make(map[string]jobs.Job)}
}

func (f *fakeJobs) Submit(ctx context.Context, p jobs.Params) (jobs.Job, error) {
	if err := p.Validate(); err != nil {
		return jobs.Job{}, err
	}
	if f.submitErr != nil {
		return jobs.Job{}, f.submitErr
	}
	f.submitted = append(f.submitted, p)
	job := jobs.Job{ID: "job-1", Status: jobs.StatusQueued, Params: p}
	f.jobs[job.ID] = job
	return job, nil
}

func (f *fakeJobs) Get(ctx context.Context, id string) (jobs.Job, error) {
	job, ok := f.jobs[id]
	if !ok {
		return jobs.Job{}, jobs.ErrNotFound
	}
	return job, nil
}

func (f *fakeJobs) List(ctx context.Context) ([]jobs.Job, error) {
	out := []jobs.Job{}
	for _, j := range f.jobs {
		out = append(out, j)
	}
	return out, nil
}

func (f *fakeJobs) Stop(ctx context.Context, id string) (jobs.Job, error) {
	job, ok := f.jobs[id]
	if !ok {
		return jobs.Job{}, jobs.ErrNotFound
	}
	if f.stopErr != nil {
		return job, f.stopErr
	}
	job.Status = jobs.StatusStopped
	job.Persisted = 12
	f.jobs[id] = job
	return job, nil
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestScrape(t *testing.T) {
	svc := newFakeJobs()
	s := New(svc, logger.NewNopLogger())

	rec := do(t, s, http.MethodPost, "/api/scrape", `{"query":"golang","limit":50,"lang":"en","headless":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "job-1", decode(t, rec)["jobId"])

	require.Len(t, svc.submitted, 1)
	assert.Equal(t, 50, svc.submitted[0].Limit)
	require.NotNil(t, svc.submitted[0].Headless)
	assert.False(t, *svc.submitted[0].Headless)
}

func TestScrapeErrors(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		submitErr error
		want      int
	}{
		{name: "malformed body", body: `{"query":`, want: http.StatusBadRequest},
		{name: "no query or user", body: `{}`, want: http.StatusBadRequest},
		{name: "rate limited", body: `{"query":"go"}`, submitErr: jobs.ErrRateLimited, want: http.StatusTooManyRequests},
		{name: "queue full", body: `{"query":"go"}`, submitErr: worker.ErrQueueFull, want: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFakeJobs()
			svc.submitErr = tt.submitErr
			s := New(svc, logger.NewNopLogger())

			rec := do(t, s, http.MethodPost, "/api/scrape", tt.body)
			assert.Equal(t, tt.want, rec.Code)
			assert.NotEmpty(t, decode(t, rec)["error"])
		})
	}
}

func TestStatusAndJobs(t *testing.T) {
	svc := newFakeJobs()
	svc.jobs["abc"] = jobs.Job{ID: "abc", Status: jobs.StatusRunning, Collected: 7}
	s := New(svc, logger.NewNopLogger())

	rec := do(t, s, http.MethodGet, "/api/status/abc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "running", body["status"])
	assert.Equal(t, float64(7), body["collected"])
	assert.Nil(t, body["endTime"])

	rec = do(t, s, http.MethodGet, "/api/status/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Job not found", decode(t, rec)["error"])

	rec = do(t, s, http.MethodGet, "/api/jobs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "abc", list[0]["jobId"])
}

func TestStop(t *testing.T) {
	svc := newFakeJobs()
	svc.jobs["abc"] = jobs.Job{ID: "abc", Status: jobs.StatusRunning}
	s := New(svc, logger.NewNopLogger())

	rec := do(t, s, http.MethodPost, "/api/stop/abc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "stopped", body["status"])
	assert.Equal(t, float64(12), body["persisted"])

	rec = do(t, s, http.MethodPost, "/api/stop/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	svc.stopErr = jobs.ErrNotActive
	rec = do(t, s, http.MethodPost, "/api/stop/abc", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestTweets(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good_tweets.json")
	corrupt := filepath.Join(dir, "corrupt_tweets.json")
	blank := filepath.Join(dir, "blank_tweets.json")
	require.NoError(t, os.WriteFile(good, []byte(`[{"tweetId":"1","content":"hello"}]`), 0644))
	require.NoError(t, os.WriteFile(corrupt, []byte(`[{"tweetId":`), 0644))
	require.NoError(t, os.WriteFile(blank, []byte("  \n"), 0644))

	svc := newFakeJobs()
	svc.jobs["good"] = jobs.Job{ID: "good", OutFile: good}
	svc.jobs["corrupt"] = jobs.Job{ID: "corrupt", OutFile: corrupt}
	svc.jobs["blank"] = jobs.Job{ID: "blank", OutFile: blank}
	svc.jobs["missing"] = jobs.Job{ID: "missing", OutFile: filepath.Join(dir, "missing.json")}
	s := New(svc, logger.NewNopLogger())

	rec := do(t, s, http.MethodGet, "/api/tweets/good", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Tweets []map[string]interface{} `json:"tweets"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Tweets, 1)
	assert.Equal(t, "hello", body.Tweets[0]["content"])

	rec = do(t, s, http.MethodGet, "/api/tweets/corrupt", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	errBody := decode(t, rec)
	assert.Equal(t, "Failed to parse tweets file", errBody["error"])
	assert.NotEmpty(t, errBody["details"])

	rec = do(t, s, http.MethodGet, "/api/tweets/blank", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"tweets":[]}`, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/tweets/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Tweets file not found", decode(t, rec)["error"])

	rec = do(t, s, http.MethodGet, "/api/tweets/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Job not found", decode(t, rec)["error"])
}

func TestDownload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "abc_tweets.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0644))

	svc := newFakeJobs()
	svc.jobs["abc"] = jobs.Job{ID: "abc", OutFile: path}
	svc.jobs["empty"] = jobs.Job{ID: "empty", OutFile: filepath.Join(dir, "none.json")}
	s := New(svc, logger.NewNopLogger())

	rec := do(t, s, http.MethodGet, "/api/download/abc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="abc_tweets.json"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "[]", rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/download/empty", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthz(t *testing.T) {
	s := New(newFakeJobs(), logger.NewNopLogger())
	rec := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}
