/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/friendsincode/romcatalog/internal/description"
	"github.com/friendsincode/romcatalog/internal/events"
	"github.com/friendsincode/romcatalog/internal/models"
	"github.com/friendsincode/romcatalog/internal/support"
	"github.com/friendsincode/romcatalog/internal/telemetry"
)

// Validate checks one kind of support file of the stored description for
// crc and records the outcome.
func (s *Service) Validate(ctx context.Context, crc uint32, kind support.Kind, opts support.Options) (state support.State, err error) {
	ctx, span := telemetry.StartSpan(ctx, "catalog", "Validate", telemetry.CrcAttr(crc))
	defer func() { telemetry.EndSpan(span, err) }()

	d, err := s.Get(ctx, crc)
	if err != nil {
		return support.StateNone, err
	}
	return s.validate(ctx, d, kind, opts)
}

func (s *Service) validate(ctx context.Context, d *description.Description, kind support.Kind, opts support.Options) (support.State, error) {
	state, err := d.Validate(ctx, s.resolver, kind, opts)
	if err != nil {
		return support.StateNone, fmt.Errorf("validate %s %s: %w", crcString(d.Crc()), kind, err)
	}
	telemetry.ValidationStatesTotal.WithLabelValues(kind.String(), state.String()).Inc()
	if state == support.StateNone {
		return state, nil
	}

	path, _ := d.Files().DefaultPath(kind)
	changed, err := s.recordStatus(ctx, d.Crc(), kind, path, state)
	if err != nil {
		return state, err
	}
	if changed {
		s.bus.Publish(events.EventFileValidated, events.Payload{
			"crc":   crcString(d.Crc()),
			"kind":  kind.String(),
			"state": state.String(),
			"path":  path,
		})
	}
	return state, nil
}

// recordStatus upserts the file status and reports whether the state
// differs from the one recorded before.
func (s *Service) recordStatus(ctx context.Context, crc uint32, kind support.Kind, path string, state support.State) (bool, error) {
	changed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var st models.FileStatus
		err := tx.Where("program_crc = ? AND kind = ?", int64(crc), kind.String()).First(&st).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			changed = true
			st = models.FileStatus{ID: uuid.NewString(), ProgramCrc: int64(crc), Kind: kind.String()}
		case err != nil:
			return err
		default:
			changed = st.State != state.String()
		}
		st.Path = path
		st.State = state.String()
		st.CheckedAt = time.Now().UTC()
		return tx.Save(&st).Error
	})
	if err != nil {
		return false, fmt.Errorf("record %s status of %s: %w", kind, crcString(crc), err)
	}
	return changed, nil
}

// FileStatuses returns the recorded validation outcomes for crc.
func (s *Service) FileStatuses(ctx context.Context, crc uint32) ([]models.FileStatus, error) {
	if _, err := s.row(ctx, crc); err != nil {
		return nil, err
	}
	var out []models.FileStatus
	if err := s.db.WithContext(ctx).Where("program_crc = ?", int64(crc)).Order("kind").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("load file statuses of %s: %w", crcString(crc), err)
	}
	return out, nil
}

// Summary counts validation outcomes by state.
type Summary map[support.State]int

// Total is the number of files validated.
func (s Summary) Total() int {
	n := 0
	for _, c := range s {
		n += c
	}
	return n
}

// ValidateAll validates every support file of every stored description.
// Kinds without any recorded path are skipped. fn, if not nil, is called
// for each validated file.
func (s *Service) ValidateAll(ctx context.Context, opts support.Options, fn func(crc uint32, kind support.Kind, state support.State)) (Summary, error) {
	summary := Summary{}
	var rows []models.Program
	res := s.db.WithContext(ctx).FindInBatches(&rows, 100, func(_ *gorm.DB, _ int) error {
		for _, row := range rows {
			if err := ctx.Err(); err != nil {
				return err
			}
			d, err := description.FromRecord(row.Record)
			if err != nil {
				s.logger.Warn().Err(err).Str("crc", crcString(row.CrcValue())).Msg("skipping unreadable description")
				continue
			}
			for _, kind := range support.Kinds() {
				state, err := s.validate(ctx, d, kind, opts)
				if err != nil {
					s.logger.Warn().Err(err).Str("crc", crcString(d.Crc())).Str("kind", kind.String()).Msg("validation failed")
					continue
				}
				if state == support.StateNone {
					continue
				}
				summary[state]++
				if fn != nil {
					fn(d.Crc(), kind, state)
				}
			}
		}
		return nil
	})
	if res.Error != nil {
		return summary, fmt.Errorf("validate all: %w", res.Error)
	}
	return summary, nil
}
