package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Storage writes run artifacts under a base directory
type Storage interface {
	// Write stores data at the given path
	Write(ctx context.Context, path string, data []byte) error

	// WriteJSON stores data as indented JSON
	WriteJSON(ctx context.Context, path string, data interface{}) error

	// WriteLines stores one entry per line
	WriteLines(ctx context.Context, path string, lines []string) error

	// Exists checks if a path exists
	Exists(ctx context.Context, path string) (bool, error)

	// BaseDir returns the root storage directory
	BaseDir() string
}

// LocalStorage implements Storage on the local filesystem
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage creates a new local storage instance
func NewLocalStorage(baseDir string) *LocalStorage {
	return &LocalStorage{baseDir: expandHome(baseDir)}
}

// BaseDir returns the root storage directory
func (s *LocalStorage) BaseDir() string {
	return s.baseDir
}

// Write stores data at the given path
func (s *LocalStorage) Write(ctx context.Context, path string, data []byte) error {
	fullPath := filepath.Join(s.baseDir, path)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(fullPath, data, 0644)
}

// WriteJSON stores data as indented JSON
func (s *LocalStorage) WriteJSON(ctx context.Context, path string, data interface{}) error {
	fullPath := filepath.Join(s.baseDir, path)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// WriteLines writes one entry per line. An empty list still creates the file
// so every run has the same set of artifacts.
func (s *LocalStorage) WriteLines(ctx context.Context, path string, lines []string) error {
	var content string
	if len(lines) > 0 {
		content = strings.Join(lines, "\n") + "\n"
	}
	return s.Write(ctx, path, []byte(content))
}

// Exists checks if a path exists
func (s *LocalStorage) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(filepath.Join(s.baseDir, path))
	if os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, err
}

// GenerateRunID creates a unique run identifier
func GenerateRunID() string {
	return uuid.NewString()
}

func expandHome(dir string) string {
	if strings.HasPrefix(dir, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, dir[2:])
	}
	return dir
}
