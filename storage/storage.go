package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	kindContent = "content"
	kindReports = "reports"
)

// Store persists linked documents and their injection reports. Paths
// returned by the Save methods are relative to the store root.
type Store interface {
	SaveContent(ctx context.Context, content, slug string) (string, error)
	SaveReport(ctx context.Context, report []byte, slug string) (string, error)
	ReadContent(ctx context.Context, path string) (string, error)
	DeleteContent(ctx context.Context, path string) error
	GetFullPath(path string) string
}

// Config contains storage configuration
type Config struct {
	BasePath string // Base directory for all stored files
}

// DefaultConfig returns default storage configuration
func DefaultConfig() Config {
	return Config{
		BasePath: "./storage",
	}
}

// Storage handles filesystem storage operations
type Storage struct {
	config Config
}

// New creates a new Storage instance
func New(config Config) (*Storage, error) {
	if err := os.MkdirAll(config.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base storage directory: %w", err)
	}

	return &Storage{
		config: config,
	}, nil
}

// datedDir returns kind/YYYY/MM for the given time
func datedDir(kind string, now time.Time) string {
	return filepath.Join(kind, fmt.Sprintf("%04d", now.Year()), fmt.Sprintf("%02d", int(now.Month())))
}

// SaveContent saves a linked HTML document under content/YYYY/MM/
func (s *Storage) SaveContent(_ context.Context, content, slug string) (string, error) {
	return s.write(kindContent, slug, ".html", []byte(content))
}

// SaveReport saves a JSON injection report under reports/YYYY/MM/
func (s *Storage) SaveReport(_ context.Context, report []byte, slug string) (string, error) {
	return s.write(kindReports, slug, ".json", report)
}

// write stores data as slug+ext, adding a counter suffix when the name is taken
func (s *Storage) write(kind, slug, ext string, data []byte) (string, error) {
	dirPath := filepath.Join(s.config.BasePath, datedDir(kind, time.Now()))
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s directory: %w", kind, err)
	}

	filePath := filepath.Join(dirPath, slug+ext)
	for counter := 1; fileExists(filePath); counter++ {
		filePath = filepath.Join(dirPath, fmt.Sprintf("%s-%d%s", slug, counter, ext))
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", kind, err)
	}

	relPath, err := filepath.Rel(s.config.BasePath, filePath)
	if err != nil {
		return "", fmt.Errorf("failed to get relative path: %w", err)
	}
	return relPath, nil
}

// ReadContent reads a stored document
func (s *Storage) ReadContent(_ context.Context, relPath string) (string, error) {
	data, err := os.ReadFile(s.GetFullPath(relPath))
	if err != nil {
		return "", fmt.Errorf("failed to read content file: %w", err)
	}
	return string(data), nil
}

// DeleteContent removes a stored file. Missing files are not an error.
func (s *Storage) DeleteContent(_ context.Context, relPath string) error {
	if err := os.Remove(s.GetFullPath(relPath)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete content file: %w", err)
	}
	return nil
}

// GetFullPath returns the full filesystem path for a relative path
func (s *Storage) GetFullPath(relPath string) string {
	return filepath.Join(s.config.BasePath, relPath)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
