package worktime

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the name of the log file inside the data directory.
const FileName = "timelogs.json"

// ErrLogCorrupted is returned when the log file cannot be decoded.
var ErrLogCorrupted = errors.New("worktime log is corrupted")

// Store persists the Log as a JSON file.
type Store struct {
	filePath string
}

// NewStore creates a store for the log file in dir.
func NewStore(dir string) *Store {
	return &Store{
		filePath: filepath.Join(dir, FileName),
	}
}

// Path returns the location of the log file.
func (s *Store) Path() string {
	return s.filePath
}

// Load reads the log. A missing file results in an empty Log.
func (s *Store) Load() (Log, error) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Log{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", s.filePath, err)
	}

	log := Log{}
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLogCorrupted, s.filePath, err)
	}
	return log, nil
}

// Save writes the log. The file is replaced atomically.
func (s *Store) Save(log Log) error {
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling worktime log: %w", err)
	}

	tmp, err := os.CreateTemp(dir, FileName+".*")
	if err != nil {
		return fmt.Errorf("writing %s: %w", s.filePath, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", s.filePath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", s.filePath, err)
	}
	if err := os.Rename(tmp.Name(), s.filePath); err != nil {
		return fmt.Errorf("writing %s: %w", s.filePath, err)
	}
	return nil
}
