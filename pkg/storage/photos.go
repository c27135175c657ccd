package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// PhotoRef points at a stored photo and its public URL.
type PhotoRef struct {
	Filename string
	URL      string
}

// PhotoStorage persists uploaded photos on disk under a base directory and
// serves them through a public base URL.
type PhotoStorage struct {
	baseDir     string
	baseURL     string
	maxSize     int64
	allowedExts map[string]struct{}
}

// NewPhotoStorage ensures the base directory exists and returns a handle.
func NewPhotoStorage(baseDir, baseURL string, maxSize int64, allowedExts []string) (*PhotoStorage, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}

	exts := make(map[string]struct{}, len(allowedExts))
	for _, ext := range allowedExts {
		exts[strings.ToLower(ext)] = struct{}{}
	}

	return &PhotoStorage{
		baseDir:     baseDir,
		baseURL:     strings.TrimRight(baseURL, "/"),
		maxSize:     maxSize,
		allowedExts: exts,
	}, nil
}

// Allowed reports whether the original filename carries an accepted extension.
func (s *PhotoStorage) Allowed(filename string) bool {
	if len(s.allowedExts) == 0 {
		return true
	}
	_, ok := s.allowedExts[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// MaxSize returns the upload size cap in bytes.
func (s *PhotoStorage) MaxSize() int64 {
	return s.maxSize
}

// Store writes the photo under a generated name and returns its reference.
func (s *PhotoStorage) Store(originalName string, r io.Reader) (PhotoRef, error) {
	name := uuid.NewString() + strings.ToLower(filepath.Ext(originalName))
	path := filepath.Join(s.baseDir, name)

	file, err := os.Create(path)
	if err != nil {
		return PhotoRef{}, fmt.Errorf("create photo file: %w", err)
	}
	defer file.Close() //nolint:errcheck

	if _, err := io.Copy(file, r); err != nil {
		_ = os.Remove(path)
		return PhotoRef{}, fmt.Errorf("write photo file: %w", err)
	}

	return PhotoRef{Filename: name, URL: s.baseURL + "/uploads/" + name}, nil
}

// Remove deletes a stored photo if present.
func (s *PhotoStorage) Remove(filename string) error {
	path := filepath.Join(s.baseDir, filepath.Base(filename))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete photo file: %w", err)
	}
	return nil
}

// Dir exposes the base directory (used for static file serving).
func (s *PhotoStorage) Dir() string {
	return s.baseDir
}
