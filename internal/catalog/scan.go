/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/friendsincode/romcatalog/internal/events"
	"github.com/friendsincode/romcatalog/internal/models"
	"github.com/friendsincode/romcatalog/internal/program"
	"github.com/friendsincode/romcatalog/internal/storage"
	"github.com/friendsincode/romcatalog/internal/telemetry"
)

// ScanOptions control a library scan.
type ScanOptions struct {
	// Root is the storage prefix to walk.
	Root string
	// Workers bounds the number of images hashed and described at once.
	Workers int
	// Rescan describes images whose CRC is already catalogued. Cached
	// checksums below Root are dropped first so every image is hashed again.
	Rescan bool
}

// Scan walks storage below opts.Root and describes every ROM image it
// finds. Failures of single images are counted, not returned; the error is
// non-nil only when the walk itself fails or ctx is cancelled.
func (s *Service) Scan(ctx context.Context, opts ScanOptions) (*models.ScanRun, error) {
	if opts.Workers < 1 {
		opts.Workers = 1
	}

	run := &models.ScanRun{
		ID:        uuid.NewString(),
		Root:      opts.Root,
		Status:    models.ScanRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, fmt.Errorf("start scan: %w", err)
	}
	logger := s.logger.With().Str("scan_id", run.ID).Str("root", opts.Root).Logger()
	logger.Info().Int("workers", opts.Workers).Bool("rescan", opts.Rescan).Msg("scan started")

	if opts.Rescan {
		if err := s.cache.InvalidateCrcs(ctx, opts.Root); err != nil {
			logger.Warn().Err(err).Msg("drop cached checksums")
		}
	}

	var mu sync.Mutex
	count := func(field *int, result string) {
		mu.Lock()
		*field++
		mu.Unlock()
		telemetry.ScanFilesTotal.WithLabelValues(result).Inc()
	}

	// Byte-identical copies share a CRC; only the first one found is described.
	var claimed sync.Map
	claim := func(crc uint32) bool {
		_, taken := claimed.LoadOrStore(crc, struct{}{})
		return !taken
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	walkErr := s.store.List(gctx, opts.Root, func(fi storage.FileInfo) error {
		format := program.FormatFromPath(fi.Path)
		if format == program.FormatNone {
			return nil
		}
		mu.Lock()
		run.FilesSeen++
		mu.Unlock()

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			described, err := s.scanOne(gctx, fi.Path, opts.Rescan, claim)
			switch {
			case err != nil && gctx.Err() != nil:
				return gctx.Err()
			case err != nil:
				logger.Warn().Err(err).Str("path", fi.Path).Msg("describe failed")
				count(&run.Failed, "failed")
			case described:
				count(&run.Described, "described")
			default:
				count(&run.Skipped, "skipped")
			}
			return nil
		})
		return nil
	})
	groupErr := g.Wait()

	err := errors.Join(walkErr, groupErr)
	finished := time.Now().UTC()
	run.FinishedAt = &finished
	run.Status = models.ScanCompleted
	if err != nil {
		run.Status = models.ScanFailed
		run.Error = err.Error()
	}
	// The scan context may be cancelled; record the outcome regardless.
	if dbErr := s.db.WithContext(context.WithoutCancel(ctx)).Save(run).Error; dbErr != nil {
		logger.Error().Err(dbErr).Msg("save scan run")
	}

	logger.Info().
		Int("files", run.FilesSeen).
		Int("described", run.Described).
		Int("skipped", run.Skipped).
		Int("failed", run.Failed).
		Dur("elapsed", finished.Sub(run.StartedAt)).
		Msg("scan finished")
	s.bus.Publish(events.EventScanCompleted, events.Payload{
		"scan_id":   run.ID,
		"status":    string(run.Status),
		"described": run.Described,
		"failed":    run.Failed,
	})

	if err != nil {
		return run, fmt.Errorf("scan %s: %w", opts.Root, err)
	}
	return run, nil
}

// scanOne describes the image at p unless it is already catalogued and
// rescan is off, or another image of this scan has the same CRC. It reports
// whether a description was written.
func (s *Service) scanOne(ctx context.Context, p string, rescan bool, claim func(uint32) bool) (bool, error) {
	rom := program.NewRom(p, "")
	crc, err := s.checksum.Crc32(ctx, p)
	if err != nil {
		return false, err
	}
	rom.Crc = crc

	if !claim(crc) {
		s.logger.Debug().Str("path", p).Str("crc", crcString(crc)).Msg("duplicate image")
		return false, nil
	}

	if !rescan {
		exists, err := s.Exists(ctx, crc)
		if err != nil {
			return false, err
		}
		if exists {
			return false, nil
		}
	}
	if _, err := s.Describe(ctx, rom); err != nil {
		return false, err
	}
	return true, nil
}

// ScanRuns returns the most recent scans, newest first.
func (s *Service) ScanRuns(ctx context.Context, limit int) ([]models.ScanRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []models.ScanRun
	if err := s.db.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("list scan runs: %w", err)
	}
	return runs, nil
}
