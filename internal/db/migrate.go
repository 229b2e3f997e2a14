/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package db

import (
	"fmt"

	"github.com/friendsincode/romcatalog/internal/models"
	"gorm.io/gorm"
)

// Migrate applies database schema migrations using GORM auto-migrate.
func Migrate(database *gorm.DB) error {
	if err := database.AutoMigrate(
		&models.Program{},
		&models.FileStatus{},
		&models.ScanRun{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	if err := failAbandonedScans(database); err != nil {
		return err
	}
	return nil
}

// failAbandonedScans marks scans left running by a crashed process.
func failAbandonedScans(database *gorm.DB) error {
	err := database.Model(&models.ScanRun{}).
		Where("status = ?", models.ScanRunning).
		Updates(map[string]any{"status": models.ScanFailed, "error": "interrupted"}).Error
	if err != nil {
		return fmt.Errorf("fail abandoned scans: %w", err)
	}
	return nil
}
