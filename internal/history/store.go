// Package history keeps past benchmark results in a flat, pipe-delimited file.
//
// The file is read once with Load and rewritten in full with Save. There is
// no locking: two processes saving the same file lose one of the updates.
package history

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/violenttestpen/mesa/internal/config"
)

// Header is the first line of every history file.
const Header = "mesa database|mesa|version=1.1"

var (
	ErrVersion   = errors.New("unsupported database version")
	ErrMalformed = errors.New("malformed record")
)

// Store is the in-memory history, oldest record first.
type Store struct {
	path    string
	records []Record
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used to timestamp inserted records.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore returns an empty store backed by the file at path.
func NewStore(path string, opts ...Option) *Store {
	s := &Store{
		path:   path,
		now:    time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Len returns the number of records.
func (s *Store) Len() int { return len(s.records) }

// Records returns a copy of all records, oldest first.
func (s *Store) Records() []Record {
	return append([]Record(nil), s.records...)
}

// Load replaces the in-memory history with the contents of the backing file.
// A missing file yields an empty history. A wrong header or any malformed
// row fails the whole load and leaves the history empty.
func (s *Store) Load() error {
	s.records = nil

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("no history file yet", "path", s.path)
		return nil
	}
	if err != nil {
		return &LoadError{Path: s.path, Err: err}
	}

	lines := strings.Split(string(data), "\n")
	if n := len(lines); lines[n-1] == "" {
		lines = lines[:n-1]
	}
	if len(lines) == 0 {
		return &LoadError{Path: s.path, Line: 1, Err: fmt.Errorf("%w: missing header", ErrVersion)}
	}

	if header := strings.TrimSuffix(lines[0], "\r"); header != Header {
		return &LoadError{Path: s.path, Line: 1, Err: fmt.Errorf("%w: %q", ErrVersion, header)}
	}

	records := make([]Record, 0, len(lines)-1)
	for i, line := range lines[1:] {
		r, err := ParseRecord(strings.TrimSuffix(line, "\r"))
		if err != nil {
			return &LoadError{Path: s.path, Line: i + 2, Err: err}
		}
		records = append(records, r)
	}

	s.records = records
	s.logger.Debug("loaded history", "path", s.path, "records", len(records))
	return nil
}

// Insert appends a record for the run described by cfg. It does not touch
// the backing file.
func (s *Store) Insert(cfg config.Run, mean, stddev float64) Record {
	r := Record{
		Timestamp:  s.now().Unix(),
		Executable: cfg.Executable,
		Arguments:  cfg.FlatArguments(),
		Runs:       cfg.Runs,
		Mean:       mean,
		StdDev:     stddev,
		Note:       cfg.Note,
	}
	s.records = append(s.records, r)
	return r
}

// Save writes the header and every record to the backing file, replacing it
// atomically.
func (s *Store) Save() error {
	var b strings.Builder
	b.WriteString(Header)
	b.WriteByte('\n')
	for _, r := range s.records {
		b.WriteString(r.String())
		b.WriteByte('\n')
	}

	perm := fs.FileMode(0o644)
	if fi, err := os.Stat(s.path); err == nil {
		perm = fi.Mode().Perm()
	}
	if err := atomicWriteFile(s.path, []byte(b.String()), perm); err != nil {
		return &SaveError{Path: s.path, Err: err}
	}
	s.logger.Debug("saved history", "path", s.path, "records", len(s.records))
	return nil
}

// Search returns up to cfg.Show records, newest first, filtered by
// cfg.Filter against the executable and flattened arguments of cfg.
func (s *Store) Search(cfg config.Run) []Record {
	args := cfg.FlatArguments()

	var found []Record
	for i := len(s.records) - 1; i >= 0 && len(found) < cfg.Show; i-- {
		r := s.records[i]
		switch cfg.Filter {
		case config.FilterExe:
			if r.Executable != cfg.Executable {
				continue
			}
		case config.FilterExact:
			if r.Executable != cfg.Executable || r.Arguments != args {
				continue
			}
		}
		found = append(found, r)
	}
	return found
}

// atomicWriteFile writes content to a temp file next to path and renames it
// over path, so readers see either the old or the new file.
func atomicWriteFile(path string, content []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".mesa-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("writing content: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing to disk: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	success = true
	return nil
}

// LoadError means an existing history file could not be used. Line is
// 1-based and zero when the failure is not tied to a line.
type LoadError struct {
	Path string
	Line int
	Err  error
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("loading history %s: line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("loading history %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// SaveError means the history file could not be rewritten. The result of
// the current run is lost.
type SaveError struct {
	Path string
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("saving history %s: %v", e.Path, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }
