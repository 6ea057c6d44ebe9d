// Package artifact persists job result files under the configured
// output folder.
package artifact

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Store writes result artifacts into a single output directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir. The directory is created on
// first save, not here, so constructing a store never touches disk.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the output directory the store writes into.
func (s *Store) Dir() string {
	return s.dir
}

// Save streams r into a file named name inside the store directory and
// returns the path actually written. If name already exists the job ID
// is inserted before the extension so earlier results are never
// overwritten. The bytes are written exactly as read.
func (s *Store) Save(name, jobID string, r io.Reader) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", s.dir, err)
	}

	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err == nil {
		path = filepath.Join(s.dir, insertID(name, jobID))
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create artifact %s: %w", path, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write artifact %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close artifact %s: %w", path, err)
	}
	return path, nil
}

// insertID places the job ID between the base name and the extension,
// e.g. "blast_result.xml" becomes "blast_result_<id>.xml".
func insertID(name, jobID string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return base + "_" + jobID + ext
}
