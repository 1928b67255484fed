// Package storage writes exported text to the local filesystem
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"psycdata/domain/core"
)

// FileStore saves text files. Relative paths are resolved against BaseDir
// when one is set.
type FileStore struct {
	BaseDir string
}

// NewFileStore creates a file store rooted at baseDir ("" means the
// working directory)
func NewFileStore(baseDir string) *FileStore {
	return &FileStore{BaseDir: baseDir}
}

// Resolve returns the absolute-or-relative path a save would write to
func (s *FileStore) Resolve(path string) string {
	if filepath.IsAbs(path) || s.BaseDir == "" {
		return filepath.Clean(path)
	}
	return filepath.Join(s.BaseDir, path)
}

// SaveTextFile writes content as UTF-8, creating parent directories and
// replacing any existing file
func (s *FileStore) SaveTextFile(ctx context.Context, path, content string) error {
	if strings.TrimSpace(path) == "" {
		return core.ErrEmptyPath
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	target := s.Resolve(path)
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(target, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	return nil
}
