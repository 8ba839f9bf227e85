package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"xscraper/internal/worker"
	errs "xscraper/pkg/errors"
	"xscraper/pkg/jobs"
	"xscraper/pkg/logger"
	"xscraper/pkg/models"
	"xscraper/pkg/store"
)

// JobService is the job manager surface the API needs
type JobService interface {
	Submit(ctx context.Context, p jobs.Params) (jobs.Job, error)
	Get(ctx context.Context, id string) (jobs.Job, error)
	List(ctx context.Context) ([]jobs.Job, error)
	Stop(ctx context.Context, id string) (jobs.Job, error)
}

// Server exposes the job API over HTTP
type Server struct {
	jobs        JobService
	logger      logger.Logger
	router      *chi.Mux
	stopTimeout time.Duration
}

// New builds the router
func New(svc JobService, log logger.Logger) *Server {
	if log == nil {
		log = logger.GetLogger()
	}
	s := &Server{
		jobs:        svc,
		logger:      log.WithField("component", "server"),
		router:      chi.NewRouter(),
		stopTimeout: 30 * time.Second,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Route("/api", func(r chi.Router) {
		r.Post("/scrape", s.handleScrape)
		r.Get("/status/{jobID}", s.handleStatus)
		r.Post("/stop/{jobID}", s.handleStop)
		r.Get("/jobs", s.handleJobs)
		r.Get("/tweets/{jobID}", s.handleTweets)
		r.Get("/download/{jobID}", s.handleDownload)
	})
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves addr until ctx is done, then shuts the listener
// down within shutdownTimeout
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.LogComponentStart("server", map[string]interface{}{"addr": addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	logger.LogComponentStop("server", "shutdown")
	return err
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		fields := map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status_code": ww.Status(),
			"duration_ms": float64(time.Since(start).Microseconds()) / 1000,
			"request_id":  middleware.GetReqID(r.Context()),
			"remote":      r.RemoteAddr,
		}
		if ww.Status() >= http.StatusInternalServerError {
			s.logger.ErrorWithFields("HTTP request failed", fields)
			return
		}
		s.logger.DebugWithFields("HTTP request completed", fields)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var params jobs.Params
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	job, err := s.jobs.Submit(r.Context(), params)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"jobId": job.ID})
	case errors.Is(err, jobs.ErrInvalidParams):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, jobs.ErrRateLimited):
		logger.LogRateLimit(r.RemoteAddr)
		w.Header().Set("Retry-After", "60")
		writeError(w, http.StatusTooManyRequests, err.Error(), nil)
	case errors.Is(err, worker.ErrQueueFull), errors.Is(err, worker.ErrStopped):
		writeError(w, http.StatusServiceUnavailable, "Job queue unavailable", err)
	default:
		s.logger.WithError(err).Error("Failed to start job")
		writeError(w, http.StatusInternalServerError, "Failed to start scraper job", err)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := s.job(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.stopTimeout)
	defer cancel()

	job, err := s.jobs.Stop(ctx, chi.URLParam(r, "jobID"))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":    job.Status,
			"persisted": job.Persisted,
		})
	case errors.Is(err, jobs.ErrNotFound):
		writeError(w, http.StatusNotFound, "Job not found", nil)
	case errors.Is(err, jobs.ErrNotActive):
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error":  "Job is not running",
			"status": job.Status,
		})
	default:
		writeError(w, http.StatusInternalServerError, "Failed to stop job", err)
	}
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	list, err := s.jobs.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list jobs", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleTweets(w http.ResponseWriter, r *http.Request) {
	job, ok := s.job(w, r)
	if !ok {
		return
	}

	var tweets []models.Record
	err := store.ReadJSON(job.OutFile, &tweets)
	switch {
	case err == nil:
		if tweets == nil {
			tweets = []models.Record{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"tweets": tweets})
	case errors.Is(err, os.ErrNotExist):
		writeError(w, http.StatusNotFound, "Tweets file not found", nil)
	case errs.IsStoreCorrupt(err):
		s.logger.WithError(err).WithField("job_id", job.ID).Error("Tweets file is corrupt")
		writeError(w, http.StatusInternalServerError, "Failed to parse tweets file", err)
	default:
		writeError(w, http.StatusInternalServerError, "Failed to read tweets file", err)
	}
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	job, ok := s.job(w, r)
	if !ok {
		return
	}
	if _, err := os.Stat(job.OutFile); err != nil {
		writeError(w, http.StatusNotFound, "Tweets file not found", nil)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(job.OutFile)+`"`)
	http.ServeFile(w, r, job.OutFile)
}

// job loads the job named in the URL or writes the error response
func (s *Server) job(w http.ResponseWriter, r *http.Request) (jobs.Job, bool) {
	job, err := s.jobs.Get(r.Context(), chi.URLParam(r, "jobID"))
	if err == nil {
		return job, true
	}
	if errors.Is(err, jobs.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Job not found", nil)
	} else {
		writeError(w, http.StatusInternalServerError, "Failed to load job", err)
	}
	return jobs.Job{}, false
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	body := map[string]string{"error": msg}
	if err != nil {
		body["details"] = err.Error()
	}
	writeJSON(w, status, body)
}
