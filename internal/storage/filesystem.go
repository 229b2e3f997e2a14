/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// FilesystemStorage implements Storage using the local filesystem.
type FilesystemStorage struct {
	rootDir string
	logger  zerolog.Logger
}

// NewFilesystemStorage creates a filesystem backend. Relative paths are
// resolved against rootDir; an empty rootDir uses paths as given.
func NewFilesystemStorage(rootDir string, logger zerolog.Logger) *FilesystemStorage {
	return &FilesystemStorage{
		rootDir: rootDir,
		logger:  logger.With().Str("component", "storage_fs").Logger(),
	}
}

func (s *FilesystemStorage) resolve(path string) string {
	if s.rootDir == "" || filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(s.rootDir, filepath.FromSlash(path))
}

// Exists reports whether path names a regular file.
func (s *FilesystemStorage) Exists(ctx context.Context, path string) (bool, error) {
	if _, err := s.Stat(ctx, path); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Stat returns size and modification time.
func (s *FilesystemStorage) Stat(_ context.Context, path string) (FileInfo, error) {
	full := s.resolve(path)
	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return FileInfo{}, fmt.Errorf("stat %s: %w", path, ErrNotFound)
		}
		return FileInfo{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return FileInfo{}, fmt.Errorf("stat %s: is a directory: %w", path, ErrNotFound)
	}
	return FileInfo{Path: path, Size: info.Size(), ModTime: info.ModTime()}, nil
}

// Open opens path for reading.
func (s *FilesystemStorage) Open(_ context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(s.resolve(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("open %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

// List walks the directory at prefix. Reported paths are joined with the
// prefix the way they would be passed back to Open.
func (s *FilesystemStorage) List(ctx context.Context, prefix string, fn func(FileInfo) error) error {
	root := s.resolve(prefix)
	return filepath.WalkDir(root, func(full string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, full)
		if err != nil {
			return err
		}
		return fn(FileInfo{
			Path:    filepath.Join(prefix, rel),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	})
}

// CheckAccess verifies the storage directory exists and is accessible.
func (s *FilesystemStorage) CheckAccess(_ context.Context) error {
	if s.rootDir == "" {
		return nil
	}
	info, err := os.Stat(s.rootDir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("storage root directory does not exist: %s", s.rootDir)
		}
		return fmt.Errorf("cannot access storage root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("storage root is not a directory: %s", s.rootDir)
	}
	return nil
}
