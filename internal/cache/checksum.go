/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package cache

import (
	"context"

	"github.com/friendsincode/romcatalog/internal/storage"
	"github.com/friendsincode/romcatalog/internal/support"
	"github.com/friendsincode/romcatalog/internal/telemetry"
)

// Checksummer memoizes checksums by path, size and modification time.
type Checksummer struct {
	cache *Cache
	store storage.Storage
	inner support.Checksummer
}

// NewChecksummer wraps inner. Cache misses and failures fall through to it.
func NewChecksummer(c *Cache, store storage.Storage, inner support.Checksummer) *Checksummer {
	return &Checksummer{cache: c, store: store, inner: inner}
}

// Crc32 implements support.Checksummer.
func (cs *Checksummer) Crc32(ctx context.Context, path string) (uint32, error) {
	if !cs.cache.IsAvailable() {
		return cs.inner.Crc32(ctx, path)
	}

	info, err := cs.store.Stat(ctx, path)
	if err != nil {
		return 0, err
	}
	if crc, ok := cs.cache.GetCrc(ctx, path, info.Size, info.ModTime); ok {
		telemetry.CrcComputationsTotal.WithLabelValues("cached").Inc()
		return crc, nil
	}

	crc, err := cs.inner.Crc32(ctx, path)
	if err != nil {
		return 0, err
	}
	if err := cs.cache.SetCrc(ctx, path, info.Size, info.ModTime, crc); err != nil {
		cs.cache.logger.Debug().Err(err).Str("path", path).Msg("crc not cached")
	}
	return crc, nil
}
