/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package storage

import (
	"context"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/friendsincode/romcatalog/internal/telemetry"
)

// Checksummer computes CRC-32 (IEEE) checksums of stored files.
type Checksummer struct {
	store Storage
}

// NewChecksummer hashes files read from store.
func NewChecksummer(store Storage) *Checksummer {
	return &Checksummer{store: store}
}

// Crc32 reads the whole file.
func (c *Checksummer) Crc32(ctx context.Context, path string) (uint32, error) {
	rc, err := c.store.Open(ctx, path)
	if err != nil {
		telemetry.CrcComputationsTotal.WithLabelValues("error").Inc()
		return 0, err
	}
	defer rc.Close()

	h := crc32.NewIEEE()
	if _, err := io.Copy(h, rc); err != nil {
		telemetry.CrcComputationsTotal.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("checksum %s: %w", path, err)
	}
	telemetry.CrcComputationsTotal.WithLabelValues("computed").Inc()
	return h.Sum32(), nil
}
