// Package storage persists uploaded supplier documents on the local
// filesystem, keyed by application tracking code and requirement code.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Store abstracts document persistence so services stay testable without a
// real filesystem.
type Store interface {
	// Save writes the upload and returns the stored relative path.
	Save(trackingCode, requirementCode, filename string, r io.Reader) (string, error)
	// Open returns a reader for a previously stored path.
	Open(relPath string) (io.ReadCloser, error)
	// Remove deletes a previously stored path, ignoring missing files.
	Remove(relPath string) error
}

// LocalStore writes files under a root directory.
type LocalStore struct {
	root string
}

// NewLocalStore creates the root directory if needed.
func NewLocalStore(root string) (*LocalStore, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root must not be empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &LocalStore{root: root}, nil
}

// Save stores the file at <root>/<tracking_code>/<requirement_code><ext>.
// Re-uploads of the same requirement overwrite the previous file, matching
// the one-upload-per-requirement rule on the database side.
func (s *LocalStore) Save(trackingCode, requirementCode, filename string, r io.Reader) (string, error) {
	if strings.ContainsAny(trackingCode, "/\\") || strings.ContainsAny(requirementCode, "/\\") {
		return "", fmt.Errorf("invalid storage key")
	}

	dir := filepath.Join(s.root, trackingCode)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create application directory: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	relPath := filepath.Join(trackingCode, requirementCode+ext)
	absPath := filepath.Join(s.root, relPath)

	f, err := os.Create(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(absPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return relPath, nil
}

// Open returns a reader for a stored path.
func (s *LocalStore) Open(relPath string) (io.ReadCloser, error) {
	clean := filepath.Clean(relPath)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return nil, fmt.Errorf("invalid storage path")
	}
	f, err := os.Open(filepath.Join(s.root, clean))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

// Remove deletes a stored path. Missing files are not an error.
func (s *LocalStore) Remove(relPath string) error {
	clean := filepath.Clean(relPath)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return fmt.Errorf("invalid storage path")
	}
	err := os.Remove(filepath.Join(s.root, clean))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
