/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package storage gives the catalog read access to ROM images and support
// files, either on the local filesystem or in an S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/romcatalog/internal/config"
)

// ErrNotFound is returned when a path does not exist.
var ErrNotFound = errors.New("storage: not found")

// FileInfo describes a stored file.
type FileInfo struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Storage abstracts read access to stored files. Paths are slash separated
// and relative to the backend root unless absolute on the filesystem.
type Storage interface {
	Exists(ctx context.Context, path string) (bool, error)
	Stat(ctx context.Context, path string) (FileInfo, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	// List calls fn for every file below prefix.
	List(ctx context.Context, prefix string, fn func(FileInfo) error) error
	CheckAccess(ctx context.Context) error
}

// New selects S3 storage when a bucket is configured, the filesystem
// otherwise.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (Storage, error) {
	if cfg.S3Bucket != "" {
		if cfg.S3AccessKeyID == "" || cfg.S3SecretAccessKey == "" {
			logger.Warn().Msg("S3 credentials not configured, falling back to the default credential chain")
		}
		s, err := NewS3Storage(ctx, S3Config{
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			Endpoint:        cfg.S3Endpoint,
			UsePathStyle:    cfg.S3UsePathStyle,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("initialize S3 storage: %w", err)
		}
		return s, nil
	}
	return NewFilesystemStorage(cfg.StorageRoot, logger), nil
}
