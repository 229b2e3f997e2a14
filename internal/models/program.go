/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package models holds the gorm-persisted rows of the catalog.
package models

import (
	"time"

	"github.com/friendsincode/romcatalog/internal/description"
)

// Program is a described program, keyed by the CRC it was described for.
// The searchable columns duplicate fields of Record.
type Program struct {
	ID        string             `gorm:"type:uuid;primaryKey" json:"id"`
	Crc       int64              `gorm:"uniqueIndex" json:"-"`
	Code      string             `gorm:"type:varchar(32);index" json:"code,omitempty"`
	Title     string             `gorm:"index" json:"title"`
	Vendor    string             `gorm:"index" json:"vendor,omitempty"`
	Year      string             `gorm:"type:varchar(64)" json:"year,omitempty"`
	RomPath   string             `json:"rom_path,omitempty"`
	Format    string             `gorm:"type:varchar(32)" json:"format"`
	Origin    string             `gorm:"type:varchar(16);index" json:"origin"`
	Record    description.Record `gorm:"type:text;serializer:json" json:"-"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// CrcValue returns the CRC as stored by the catalog.
func (p *Program) CrcValue() uint32 {
	return uint32(p.Crc)
}

// FileStatus is the latest validation outcome for one support file kind of
// a program.
type FileStatus struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	ProgramCrc int64     `gorm:"uniqueIndex:idx_file_status_program_kind" json:"-"`
	Kind       string    `gorm:"type:varchar(16);uniqueIndex:idx_file_status_program_kind" json:"kind"`
	Path       string    `json:"path,omitempty"`
	State      string    `gorm:"type:varchar(32);index" json:"state"`
	CheckedAt  time.Time `json:"checked_at"`
}
