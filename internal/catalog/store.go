/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/friendsincode/romcatalog/internal/catalogerr"
	"github.com/friendsincode/romcatalog/internal/description"
	"github.com/friendsincode/romcatalog/internal/events"
	"github.com/friendsincode/romcatalog/internal/features"
	"github.com/friendsincode/romcatalog/internal/models"
	"github.com/friendsincode/romcatalog/internal/program"
)

// save upserts the description's row, keyed by CRC. An existing row keeps
// its id and creation time.
func (s *Service) save(ctx context.Context, d *description.Description, origin program.Origin) error {
	row := programRow(d, origin)
	row.ID = uuid.NewString()

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "crc"}},
		DoUpdates: clause.AssignmentColumns(programUpsertColumns),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save program %s: %w", crcString(d.Crc()), err)
	}

	if err := s.cache.SetDescription(ctx, d.Crc(), row.Record); err != nil {
		s.logger.Debug().Err(err).Str("crc", crcString(d.Crc())).Msg("cache description")
	}
	return nil
}

var programUpsertColumns = []string{"code", "title", "vendor", "year", "rom_path", "format", "origin", "record", "updated_at"}

func programRow(d *description.Description, origin program.Origin) models.Program {
	row := models.Program{
		Crc:    int64(d.Crc()),
		Code:   d.Information().Code,
		Title:  d.Name(),
		Vendor: d.Vendor(),
		Year:   d.Year(),
		Origin: string(origin),
		Record: d.Record(),
	}
	if rom := d.Rom(); rom != nil {
		row.RomPath = rom.RomPath
		row.Format = rom.Format.String()
	}
	return row
}

// Exists reports whether a description is stored for crc.
func (s *Service) Exists(ctx context.Context, crc uint32) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Program{}).Where("crc = ?", int64(crc)).Count(&n).Error; err != nil {
		return false, fmt.Errorf("lookup program %s: %w", crcString(crc), err)
	}
	return n > 0, nil
}

// Get loads the stored description for crc.
func (s *Service) Get(ctx context.Context, crc uint32) (*description.Description, error) {
	if rec, ok := s.cache.GetDescription(ctx, crc); ok {
		d, err := description.FromRecord(*rec)
		if err == nil {
			return d, nil
		}
		s.logger.Warn().Err(err).Str("crc", crcString(crc)).Msg("discarding unreadable cached description")
		_ = s.cache.InvalidateDescription(ctx, crc)
	}

	row, err := s.row(ctx, crc)
	if err != nil {
		return nil, err
	}
	d, err := description.FromRecord(row.Record)
	if err != nil {
		return nil, fmt.Errorf("load program %s: %w", crcString(crc), err)
	}
	if err := s.cache.SetDescription(ctx, crc, row.Record); err != nil {
		s.logger.Debug().Err(err).Str("crc", crcString(crc)).Msg("cache description")
	}
	return d, nil
}

func (s *Service) row(ctx context.Context, crc uint32) (*models.Program, error) {
	var row models.Program
	err := s.db.WithContext(ctx).Where("crc = ?", int64(crc)).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("program %s: %w", crcString(crc), ErrProgramNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load program %s: %w", crcString(crc), err)
	}
	return &row, nil
}

// ListOptions filter and page List.
type ListOptions struct {
	// Query matches titles case-insensitively by substring.
	Query  string
	Vendor string
	Limit  int
	Offset int
}

// List returns stored programs ordered by title, and the total number of
// programs matching the filter.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]models.Program, int64, error) {
	if opts.Limit <= 0 || opts.Limit > 500 {
		opts.Limit = 100
	}
	if opts.Offset < 0 {
		return nil, 0, fmt.Errorf("list programs: negative offset: %w", catalogerr.ErrInvalidArgument)
	}

	q := s.db.WithContext(ctx).Model(&models.Program{})
	if opts.Query != "" {
		q = q.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(opts.Query)+"%")
	}
	if opts.Vendor != "" {
		q = q.Where("vendor = ?", opts.Vendor)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count programs: %w", err)
	}
	var rows []models.Program
	if err := q.Order("title").Order("crc").Limit(opts.Limit).Offset(opts.Offset).Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list programs: %w", err)
	}
	return rows, total, nil
}

// Edit is a partial update of a description. Nil fields are left alone.
// Text fields are normalized and cut to description.MaxFieldLength
// characters.
type Edit struct {
	Name      *string `json:"name,omitempty"`
	ShortName *string `json:"short_name,omitempty"`
	Vendor    *string `json:"vendor,omitempty"`
	Year      *string `json:"year,omitempty"`

	// Features maps category names to textual values, as accepted by
	// features.Decode.
	Features map[string]string `json:"features,omitempty"`
}

// Update applies edit to the stored description for crc. Edited
// descriptions are attributed to the user.
func (s *Service) Update(ctx context.Context, crc uint32, edit Edit) (*description.Description, error) {
	d, err := s.Get(ctx, crc)
	if err != nil {
		return nil, err
	}

	if edit.Name != nil {
		d.SetName(*edit.Name)
	}
	if edit.ShortName != nil {
		d.SetShortName(*edit.ShortName)
	}
	if edit.Vendor != nil {
		d.SetVendor(*edit.Vendor)
	}
	if edit.Year != nil {
		d.SetYear(*edit.Year)
	}
	if len(edit.Features) > 0 {
		fs := d.Features()
		if fs == nil {
			fs = features.Default()
		} else {
			fs = fs.Clone()
		}
		for name, value := range edit.Features {
			c, err := features.ParseCategory(name)
			if err != nil {
				return nil, fmt.Errorf("update program %s: %w: %w", crcString(crc), catalogerr.ErrInvalidArgument, err)
			}
			if err := fs.DecodeInto(c, value); err != nil {
				return nil, fmt.Errorf("update program %s: %w", crcString(crc), err)
			}
		}
		d.SetFeatures(fs)
	}
	d.Information().Origin = program.OriginUser

	if err := s.save(ctx, d, program.OriginUser); err != nil {
		return nil, err
	}
	s.bus.Publish(events.EventProgramUpdated, events.Payload{"crc": crcString(crc), "title": d.Name()})
	return d, nil
}

// Delete removes the stored description and its file statuses.
func (s *Service) Delete(ctx context.Context, crc uint32) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("crc = ?", int64(crc)).Delete(&models.Program{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("program %s: %w", crcString(crc), ErrProgramNotFound)
		}
		return tx.Where("program_crc = ?", int64(crc)).Delete(&models.FileStatus{}).Error
	})
	if err != nil {
		if errors.Is(err, ErrProgramNotFound) {
			return err
		}
		return fmt.Errorf("delete program %s: %w", crcString(crc), err)
	}
	if err := s.cache.InvalidateDescription(ctx, crc); err != nil {
		s.logger.Debug().Err(err).Str("crc", crcString(crc)).Msg("invalidate description")
	}
	return nil
}
