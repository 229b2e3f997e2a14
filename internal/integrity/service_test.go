/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package integrity

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/friendsincode/romcatalog/internal/catalogerr"
	catalogdb "github.com/friendsincode/romcatalog/internal/db"
	"github.com/friendsincode/romcatalog/internal/description"
	"github.com/friendsincode/romcatalog/internal/models"
	"github.com/friendsincode/romcatalog/internal/program"
)

func TestScanDetectsFindings(t *testing.T) {
	db := openIntegrityTestDB(t)
	seedIntegrityFixtures(t, db)

	svc := NewService(db, zerolog.Nop())
	report, err := svc.Scan(context.Background())
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	want := map[FindingType]int{
		FindingOrphanFileStatus: 1,
		FindingUnreadableRecord: 1,
		FindingCrcMismatch:      1,
		FindingColumnDrift:      1,
		FindingStaleScan:        1,
	}
	if report.Total != 5 {
		t.Fatalf("expected 5 findings, got %d: %+v", report.Total, report.Findings)
	}
	for ft, n := range want {
		if report.ByType[ft] != n {
			t.Errorf("%s findings = %d, want %d", ft, report.ByType[ft], n)
		}
	}
	for _, f := range report.Findings {
		if f.Type == FindingColumnDrift && f.Details["title"] != "Astrosmash" {
			t.Errorf("drift details = %v, want title Astrosmash", f.Details)
		}
	}
}

func TestRepairActionsAreIdempotent(t *testing.T) {
	tests := []struct {
		name       string
		finding    FindingType
		resourceID string
		verify     func(t *testing.T, db *gorm.DB)
	}{
		{
			name:       "orphan_file_status",
			finding:    FindingOrphanFileStatus,
			resourceID: "orphan-status",
			verify: func(t *testing.T, db *gorm.DB) {
				var count int64
				if err := db.Model(&models.FileStatus{}).Where("id = ?", "orphan-status").Count(&count).Error; err != nil {
					t.Fatalf("count file statuses: %v", err)
				}
				if count != 0 {
					t.Fatalf("expected orphan file status deleted")
				}
			},
		},
		{
			name:       "column_drift",
			finding:    FindingColumnDrift,
			resourceID: "program-drift",
			verify: func(t *testing.T, db *gorm.DB) {
				var p models.Program
				if err := db.First(&p, "id = ?", "program-drift").Error; err != nil {
					t.Fatalf("load program: %v", err)
				}
				if p.Title != "Astrosmash" {
					t.Fatalf("expected title Astrosmash, got %s", p.Title)
				}
			},
		},
		{
			name:       "stale_scan",
			finding:    FindingStaleScan,
			resourceID: "scan-stale",
			verify: func(t *testing.T, db *gorm.DB) {
				var run models.ScanRun
				if err := db.First(&run, "id = ?", "scan-stale").Error; err != nil {
					t.Fatalf("load scan: %v", err)
				}
				if run.Status != models.ScanFailed || run.FinishedAt == nil {
					t.Fatalf("expected failed scan with finish time, got %s", run.Status)
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db := openIntegrityTestDB(t)
			seedIntegrityFixtures(t, db)
			svc := NewService(db, zerolog.Nop())

			first, err := svc.Repair(context.Background(), RepairInput{
				Type:       tc.finding,
				ResourceID: tc.resourceID,
			})
			if err != nil {
				t.Fatalf("repair failed: %v", err)
			}
			if !first.Changed {
				t.Fatalf("expected first repair to change state, message=%s", first.Message)
			}

			second, err := svc.Repair(context.Background(), RepairInput{
				Type:       tc.finding,
				ResourceID: tc.resourceID,
			})
			if err != nil {
				t.Fatalf("second repair failed: %v", err)
			}
			if second.Changed {
				t.Fatalf("expected second repair to be idempotent no-op")
			}

			tc.verify(t, db)
		})
	}
}

func TestRepairRejectsUnrepairable(t *testing.T) {
	svc := NewService(openIntegrityTestDB(t), zerolog.Nop())

	_, err := svc.Repair(context.Background(), RepairInput{Type: FindingCrcMismatch, ResourceID: "x"})
	if !errors.Is(err, catalogerr.ErrInvalidOperation) {
		t.Errorf("crc mismatch: err = %v, want ErrInvalidOperation", err)
	}
	_, err = svc.Repair(context.Background(), RepairInput{Type: "bogus", ResourceID: "x"})
	if !errors.Is(err, catalogerr.ErrInvalidArgument) {
		t.Errorf("unknown type: err = %v, want ErrInvalidArgument", err)
	}
}

func openIntegrityTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "integrity.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := catalogdb.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testRecord(t *testing.T, crc uint32, title string) description.Record {
	t.Helper()
	info := &program.Information{Origin: program.OriginDatabase, Title: title, Vendor: "Mattel", Year: "1981"}
	if _, err := info.AddCrc(crc, "", program.IncompatibleNone); err != nil {
		t.Fatalf("AddCrc: %v", err)
	}
	d, err := description.New(crc, program.NewRom("/roms/astro.rom", ""), info)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d.Record()
}

func seedIntegrityFixtures(t *testing.T, db *gorm.DB) {
	t.Helper()

	unreadable := testRecord(t, 0x5555, "Broken")
	unreadable.Crc = "not hex"

	programs := []models.Program{
		{ID: "program-good", Crc: 0x1111, Title: "Astrosmash", Vendor: "Mattel", Year: "1981", Record: testRecord(t, 0x1111, "Astrosmash")},
		{ID: "program-drift", Crc: 0x2222, Title: "Astrosmsh", Vendor: "Mattel", Year: "1981", Record: testRecord(t, 0x2222, "Astrosmash")},
		{ID: "program-mismatch", Crc: 0x3333, Title: "Astrosmash", Vendor: "Mattel", Year: "1981", Record: testRecord(t, 0x4444, "Astrosmash")},
		{ID: "program-unreadable", Crc: 0x5555, Title: "Broken", Vendor: "Mattel", Year: "1981", Record: unreadable},
	}
	for _, p := range programs {
		if err := db.Create(&p).Error; err != nil {
			t.Fatalf("seed program: %v", err)
		}
	}

	now := time.Now().UTC()
	statuses := []models.FileStatus{
		{ID: "status-good", ProgramCrc: 0x1111, Kind: "rom", State: "present_and_unchanged", CheckedAt: now},
		{ID: "orphan-status", ProgramCrc: 0x9999, Kind: "rom", State: "missing", CheckedAt: now},
	}
	for _, st := range statuses {
		if err := db.Create(&st).Error; err != nil {
			t.Fatalf("seed file status: %v", err)
		}
	}

	runs := []models.ScanRun{
		{ID: "scan-stale", Root: "roms", Status: models.ScanRunning, StartedAt: now.Add(-48 * time.Hour)},
		{ID: "scan-fresh", Root: "roms", Status: models.ScanRunning, StartedAt: now.Add(-time.Minute)},
		{ID: "scan-done", Root: "roms", Status: models.ScanCompleted, StartedAt: now.Add(-72 * time.Hour)},
	}
	for _, run := range runs {
		if err := db.Create(&run).Error; err != nil {
			t.Fatalf("seed scan: %v", err)
		}
	}
}
