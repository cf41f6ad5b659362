package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"arxivdigest/internal/domain"
	"arxivdigest/internal/ports"
)

var dateNameExpr = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// DailyFileStore keeps one indented JSON array per listing date under a data
// directory. The file layout and field names are read directly by the web
// front, so both are a stable contract.
type DailyFileStore struct {
	dir string
}

var _ ports.DailyStore = (*DailyFileStore)(nil)

// NewDailyFileStore roots the store at dir; the directory is created lazily
// on first save.
func NewDailyFileStore(dir string) *DailyFileStore {
	return &DailyFileStore{dir: dir}
}

// Save writes the document via a temp file and rename, so a concurrent reader
// never sees a partial file. An existing document for the date is replaced.
func (s *DailyFileStore) Save(date string, papers []domain.Paper) error {
	if !dateNameExpr.MatchString(date) {
		return fmt.Errorf("invalid date key %q", date)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	data, err := json.MarshalIndent(papers, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal papers: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, date+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path(date)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace document: %w", err)
	}

	return nil
}

// Load returns the papers for a date, or nil without error when the document
// is absent.
func (s *DailyFileStore) Load(date string) ([]domain.Paper, error) {
	data, err := os.ReadFile(s.path(date))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	var papers []domain.Paper
	if err := json.Unmarshal(data, &papers); err != nil {
		return nil, fmt.Errorf("parse document %s: %w", date, err)
	}
	return papers, nil
}

// Exists reports whether a document for the date has been stored.
func (s *DailyFileStore) Exists(date string) bool {
	_, err := os.Stat(s.path(date))
	return err == nil
}

// Dates lists stored dates, newest first. Files not named after a date are
// ignored.
func (s *DailyFileStore) Dates() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	var dates []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		date := strings.TrimSuffix(name, ".json")
		if dateNameExpr.MatchString(date) {
			dates = append(dates, date)
		}
	}

	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}

// Rename re-keys a document to another date, replacing any existing target.
func (s *DailyFileStore) Rename(from, to string) error {
	if !dateNameExpr.MatchString(from) || !dateNameExpr.MatchString(to) {
		return fmt.Errorf("invalid date keys %q -> %q", from, to)
	}
	if err := os.Rename(s.path(from), s.path(to)); err != nil {
		return fmt.Errorf("rename document: %w", err)
	}
	return nil
}

func (s *DailyFileStore) path(date string) string {
	return filepath.Join(s.dir, date+".json")
}
