package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tommyengstrom/haskell-agent-tooling/internal/domain"
)

// FileReportStore implements domain.ReportStore over the report file
// ghcid writes via --outputfile. The store is strictly read-only: the
// hook never creates, truncates, or deletes the report.
type FileReportStore struct {
	path string
}

// NewReportStore creates a report store for the named project, stored
// under stateDir.
func NewReportStore(stateDir, project string) domain.ReportStore {
	return &FileReportStore{
		path: filepath.Join(stateDir, fmt.Sprintf("ghcid_feedback-%s.log", project)),
	}
}

// NewReportStoreWithPath creates a store at a specific path (for testing).
func NewReportStoreWithPath(path string) domain.ReportStore {
	return &FileReportStore{path: path}
}

// ModTime returns the report's last-modified time. Any stat failure,
// including the file vanishing mid-check, reads as "no report".
func (s *FileReportStore) ModTime() (time.Time, bool) {
	info, err := os.Stat(s.path)
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// Read returns the report's trimmed content, or "" if unreadable.
func (s *FileReportStore) Read() string {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Path returns the report file location.
func (s *FileReportStore) Path() string {
	return s.path
}

// Ensure FileReportStore implements domain.ReportStore.
var _ domain.ReportStore = (*FileReportStore)(nil)
