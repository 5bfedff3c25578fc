package infra

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/tommyengstrom/haskell-agent-tooling/internal/domain"
)

// skipDirs are build and VCS directories that never hold watched
// sources. Pruning them keeps the walk cheap on large projects.
var skipDirs = map[string]bool{
	".git":          true,
	".stack-work":   true,
	"dist-newstyle": true,
	"dist":          true,
}

// TreeScanner implements domain.SourceScanner with a recursive
// directory walk matching file extensions.
type TreeScanner struct {
	extensions []string
}

// NewSourceScanner creates a scanner for the given extensions
// (e.g. ".hs", ".lhs").
func NewSourceScanner(extensions []string) domain.SourceScanner {
	return &TreeScanner{extensions: extensions}
}

// Scan walks root recursively and returns matching files with their
// modification times. Unreadable entries are skipped silently; for
// staleness purposes a file we cannot stat does not exist.
func (s *TreeScanner) Scan(root string) ([]domain.SourceFile, error) {
	var files []domain.SourceFile

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		if !s.matches(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil // vanished between readdir and stat
		}

		files = append(files, domain.SourceFile{
			Path:    path,
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (s *TreeScanner) matches(name string) bool {
	for _, ext := range s.extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// Ensure TreeScanner implements domain.SourceScanner.
var _ domain.SourceScanner = (*TreeScanner)(nil)
