// Package logstore implements the append-only care log: one UTF-8 line per
// event, fields separated by ", ".
package logstore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/remember-me/care-monitor/internal/models"
)

// Separator splits the fields of a log line.
const Separator = ", "

// Store is a line-oriented log file. Writes are serialised so concurrent
// appends never interleave within a line.
type Store struct {
	path string
	mu   sync.RWMutex
}

// Open returns a Store for path, creating an empty file (and its directory) if missing.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	return &Store{path: path}, nil
}

// Path returns the location of the log file.
func (s *Store) Path() string {
	return s.path
}

// Append writes a single "receiver, timestamp, status" line. The separator is
// collapsed to "," inside receiver and timestamp so the fields split back the
// way they were written.
func (s *Store) Append(receiver, timestamp, status string) error {
	line := field(receiver) + Separator + field(timestamp) + Separator + flatten(status) + "\n"

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return fmt.Errorf("append to log file: %w", err)
	}
	return f.Close()
}

// ReadAll parses every line of the log in file order. Lines with fewer than
// three segments are skipped.
func (s *Store) ReadAll() ([]models.LogRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.LogRecord{}, nil
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	records := []models.LogRecord{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if record, ok := ParseLine(scanner.Text()); ok {
			records = append(records, record)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}
	return records, nil
}

// Size reports the current size of the log file in bytes.
func (s *Store) Size() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, err := os.Stat(s.path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// ParseLine splits a log line into a record. Anything after the second
// separator belongs to the status, so statuses may themselves contain ", ".
func ParseLine(line string) (models.LogRecord, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return models.LogRecord{}, false
	}
	parts := strings.SplitN(line, Separator, 3)
	if len(parts) < 3 {
		return models.LogRecord{}, false
	}
	return models.LogRecord{
		Receiver: parts[0],
		Time:     parts[1],
		Status:   parts[2],
	}, true
}

func field(value string) string {
	return strings.ReplaceAll(flatten(value), Separator, ",")
}

func flatten(value string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(strings.TrimSpace(value))
}
