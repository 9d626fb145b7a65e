package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Store places run outputs under a single base directory. Resolved
// paths never escape the base: callers hand over relative names, not
// absolute paths.
type Store struct {
	basePath string
}

func New(basePath string) (*Store, error) {
	if basePath == "" {
		basePath = "./data/output"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Store{basePath: basePath}, nil
}

func (s *Store) BasePath() string { return s.basePath }

// Resolve maps a relative output name to its absolute path.
func (s *Store) Resolve(rel string) string {
	return filepath.Join(s.basePath, rel)
}

// EnsureDir creates a subdirectory under the base, if missing, and
// returns its absolute path.
func (s *Store) EnsureDir(rel string) (string, error) {
	path := filepath.Join(s.basePath, rel)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("create dir: %w", err)
	}
	return path, nil
}

// CopyIn copies an external file into a subdirectory of the base,
// keeping its filename.
func (s *Store) CopyIn(_ context.Context, srcPath, rel string) (string, error) {
	dir, err := s.EnsureDir(rel)
	if err != nil {
		return "", err
	}
	src, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("open source file: %w", err)
	}
	defer src.Close()

	destPath := filepath.Join(dir, filepath.Base(srcPath))
	dest, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer dest.Close()

	if _, err := io.Copy(dest, src); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return destPath, nil
}
