package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const (
	// readAttempts bounds the retry loop on transient read failures.
	readAttempts = 3
	// retryDelay is the pause between retry attempts.
	retryDelay = 25 * time.Millisecond
)

// FileWeightStore persists attention weights as a single JSON document.
type FileWeightStore struct {
	path   string
	logger *slog.Logger
}

// NewFileWeightStore creates a file-backed WeightStore at the given path.
func NewFileWeightStore(path string, logger *slog.Logger) *FileWeightStore {
	return &FileWeightStore{path: path, logger: pickLogger(logger)}
}

// Load reads the full weight map. A missing or corrupt file yields an empty
// map: persisted-state corruption is recoverable, never fatal.
func (s *FileWeightStore) Load() (map[string]float64, error) {
	weights := make(map[string]float64)
	loadJSON(s.path, &weights, s.logger)
	return weights, nil
}

// Save atomically replaces the persisted weight map.
func (s *FileWeightStore) Save(weights map[string]float64) error {
	return saveJSON(s.path, weights)
}

// FileHashStore persists the previous compilation's hashes as JSON.
type FileHashStore struct {
	path   string
	logger *slog.Logger
}

// NewFileHashStore creates a file-backed HashStore at the given path.
func NewFileHashStore(path string, logger *slog.Logger) *FileHashStore {
	return &FileHashStore{path: path, logger: pickLogger(logger)}
}

// Load reads the full hash map, treating missing or corrupt state as empty.
func (s *FileHashStore) Load() (map[string]string, error) {
	hashes := make(map[string]string)
	loadJSON(s.path, &hashes, s.logger)
	return hashes, nil
}

// Save atomically replaces the persisted hash map.
func (s *FileHashStore) Save(hashes map[string]string) error {
	return saveJSON(s.path, hashes)
}

// FileBaselineStore persists the integrity baseline. Hashes and backups live
// in one document so the pair is written atomically by construction.
type FileBaselineStore struct {
	path   string
	logger *slog.Logger
}

// NewFileBaselineStore creates a file-backed BaselineStore at the given path.
func NewFileBaselineStore(path string, logger *slog.Logger) *FileBaselineStore {
	return &FileBaselineStore{path: path, logger: pickLogger(logger)}
}

// Load reads the baseline, treating missing or corrupt state as no baseline.
func (s *FileBaselineStore) Load() (Baseline, error) {
	var b Baseline
	loadJSON(s.path, &b, s.logger)
	if b.Hashes == nil {
		b.Hashes = make(map[string]string)
	}
	if b.Backups == nil {
		b.Backups = make(map[string]string)
	}
	return b, nil
}

// Save atomically replaces the persisted baseline pair.
func (s *FileBaselineStore) Save(b Baseline) error {
	return saveJSON(s.path, b)
}

// loadJSON reads and unmarshals the file at path into v. Transient read
// errors are retried a bounded number of times; a missing file or corrupt
// document leaves v untouched. Never returns an error: absent state is the
// fallback.
func loadJSON(path string, v any, logger *slog.Logger) {
	var (
		data []byte
		err  error
	)
	for attempt := 0; attempt < readAttempts; attempt++ {
		data, err = os.ReadFile(path)
		if err == nil {
			break
		}
		if errors.Is(err, fs.ErrNotExist) {
			return
		}
		time.Sleep(retryDelay)
	}
	if err != nil {
		logger.Warn("state: read failed, treating as empty", "path", path, "error", err)
		return
	}

	if err := json.Unmarshal(data, v); err != nil {
		logger.Warn("state: corrupt state file, treating as empty", "path", path, "error", err)
	}
}

// saveJSON marshals v and writes it via temp-file-plus-rename so a concurrent
// reader never observes a partial document.
func saveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("state: marshal %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("state: create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("state: create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("state: write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("state: close %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("state: rename %s: %w", path, err)
	}
	return nil
}

func pickLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
