package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	errs "xscraper/pkg/errors"
	"xscraper/pkg/logger"
	"xscraper/pkg/models"
)

// FlushResult reports the outcome of one read-merge-write cycle
type FlushResult struct {
	Added int
	Total int
}

// FileStore persists records as one indented JSON array at a fixed path
type FileStore struct {
	path   string
	lock   *sync.Mutex
	logger logger.Logger
}

// pathLocks serializes read-merge-write cycles per path within this process
var pathLocks sync.Map

func lockFor(path string) *sync.Mutex {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	mu, _ := pathLocks.LoadOrStore(abs, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// NewFileStore creates a store at path. The directory is created on first flush.
func NewFileStore(path string, log logger.Logger) *FileStore {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &FileStore{
		path:   path,
		lock:   lockFor(path),
		logger: log.WithField("store", path),
	}
}

// Path returns the store location
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the persisted records. A missing store is empty.
func (s *FileStore) Load() ([]models.Record, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return Load(s.path)
}

// Flush merges records into the persisted store and atomically replaces it.
// A store that cannot be parsed is reported as corrupt and left untouched.
func (s *FileStore) Flush(ctx context.Context, records []models.Record) (FlushResult, error) {
	if err := ctx.Err(); err != nil {
		return FlushResult{}, err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	existing, err := Load(s.path)
	if err != nil {
		return FlushResult{}, err
	}

	merged := Merge(existing, records)
	if err := WriteJSON(s.path, merged); err != nil {
		return FlushResult{}, err
	}

	result := FlushResult{Added: len(merged) - len(existing), Total: len(merged)}
	logger.LogFlush(s.logger, s.path, result.Added, result.Total, nil)
	return result, nil
}

// Load reads the records stored at path. A missing or blank file yields an
// empty slice; anything else that does not decode is a corrupt store.
func Load(path string) ([]models.Record, error) {
	var records []models.Record
	if err := ReadJSON(path, &records); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return records, nil
}

// ReadJSON decodes the document at path into v. A blank file leaves v
// untouched. Read errors wrap the underlying os error; decode errors are
// reported as a corrupt store.
func ReadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read store: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errs.Corrupt(path, err)
	}
	return nil
}

// WriteJSON atomically replaces path with the indented JSON encoding of v.
// The document is written to a temporary file in the same directory,
// synced, and renamed over the target.
func WriteJSON(path string, v interface{}) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	file, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary store file: %w", err)
	}
	tempPath := file.Name()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode store: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync store file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close store file: %w", err)
	}

	if err := os.Chmod(tempPath, 0644); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to set store permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace store file: %w", err)
	}

	return nil
}
