// Package uploads stores service-invoice PDFs on the local filesystem.
package uploads

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Store writes uploaded invoice PDFs under a base directory and returns the
// relative path recorded on the purchase order. File contents are not
// validated.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore constructs a Store rooted at dir, creating it when missing.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("uploads: create dir: %w", err)
	}
	return &Store{dir: dir, now: time.Now}, nil
}

// SavePDF persists the invoice PDF for an order under a deterministic name
// and returns its path relative to the base directory.
func (s *Store) SavePDF(orderID int64, src io.Reader) (string, error) {
	name := fmt.Sprintf("nfs_pc%d_%d.pdf", orderID, s.now().Unix())
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("uploads: create file: %w", err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("uploads: write file: %w", err)
	}
	return name, nil
}

// Open returns a reader over a previously stored file.
func (s *Store) Open(name string) (io.ReadCloser, error) {
	clean := filepath.Base(name)
	return os.Open(filepath.Join(s.dir, clean))
}

// Remove deletes a previously stored file.
func (s *Store) Remove(name string) error {
	clean := filepath.Base(name)
	if err := os.Remove(filepath.Join(s.dir, clean)); err != nil {
		return fmt.Errorf("uploads: remove file: %w", err)
	}
	return nil
}
