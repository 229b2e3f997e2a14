/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/friendsincode/romcatalog/internal/config"
	"github.com/friendsincode/romcatalog/internal/models"
	"github.com/google/uuid"
)

func TestConnectAndMigrate(t *testing.T) {
	cfg := &config.Config{
		Environment:    "test",
		DBBackend:      config.DatabaseSQLite,
		DBDSN:          filepath.Join(t.TempDir(), "catalog.db"),
		MetricsEnabled: true,
	}
	database, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = Close(database) })

	stale := models.ScanRun{ID: uuid.NewString(), Root: "/roms", Status: models.ScanRunning, StartedAt: time.Now()}
	if err := database.AutoMigrate(&models.ScanRun{}); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	if err := database.Create(&stale).Error; err != nil {
		t.Fatalf("create scan run: %v", err)
	}

	if err := Migrate(database); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	for _, table := range []string{"programs", "file_statuses", "scan_runs"} {
		if !database.Migrator().HasTable(table) {
			t.Errorf("table %s missing", table)
		}
	}

	var got models.ScanRun
	if err := database.First(&got, "id = ?", stale.ID).Error; err != nil {
		t.Fatalf("reload scan run: %v", err)
	}
	if got.Status != models.ScanFailed || got.Error != "interrupted" {
		t.Errorf("abandoned scan = %s/%q, want failed/interrupted", got.Status, got.Error)
	}

	UpdateConnectionMetrics(database)
}

func TestConnectUnknownBackend(t *testing.T) {
	if _, err := Connect(&config.Config{DBBackend: "oracle"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
