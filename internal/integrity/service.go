/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package integrity finds and repairs inconsistencies in the stored catalog:
// rows that no longer agree with their serialized descriptions, validation
// results left behind by deleted programs and scans that never finished.
package integrity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/romcatalog/internal/catalogerr"
	"github.com/friendsincode/romcatalog/internal/description"
	"github.com/friendsincode/romcatalog/internal/models"
)

// StaleScanAge is how long a scan may stay running before it is reported.
const StaleScanAge = 24 * time.Hour

type FindingType string

const (
	FindingOrphanFileStatus FindingType = "orphan_file_status"
	FindingUnreadableRecord FindingType = "unreadable_record"
	FindingCrcMismatch      FindingType = "crc_mismatch"
	FindingColumnDrift      FindingType = "column_drift"
	FindingStaleScan        FindingType = "stale_scan"
)

type Finding struct {
	ID         string
	Type       FindingType
	Severity   string
	Summary    string
	ResourceID string
	Repairable bool
	Details    map[string]any
}

type Report struct {
	GeneratedAt time.Time
	Total       int
	ByType      map[FindingType]int
	Findings    []Finding
}

type RepairInput struct {
	Type       FindingType
	ResourceID string
}

type RepairResult struct {
	Changed bool
	Message string
	Details map[string]any
}

type Service struct {
	db     *gorm.DB
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(db *gorm.DB, logger zerolog.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger.With().Str("component", "integrity").Logger(),
		now:    time.Now,
	}
}

func (s *Service) Scan(ctx context.Context) (*Report, error) {
	findings := make([]Finding, 0, 32)

	added, err := s.scanOrphanFileStatuses(ctx)
	if err != nil {
		return nil, err
	}
	findings = append(findings, added...)

	added, err = s.scanProgramRecords(ctx)
	if err != nil {
		return nil, err
	}
	findings = append(findings, added...)

	added, err = s.scanStaleScans(ctx)
	if err != nil {
		return nil, err
	}
	findings = append(findings, added...)

	byType := make(map[FindingType]int)
	for _, f := range findings {
		byType[f.Type]++
	}

	report := &Report{
		GeneratedAt: s.now().UTC(),
		Total:       len(findings),
		ByType:      byType,
		Findings:    findings,
	}

	if report.Total > 0 {
		s.logger.Warn().Int("total_findings", report.Total).Interface("by_type", byType).Msg("integrity scan completed with findings")
	} else {
		s.logger.Info().Msg("integrity scan completed with no findings")
	}

	return report, nil
}

func (s *Service) Repair(ctx context.Context, input RepairInput) (RepairResult, error) {
	switch input.Type {
	case FindingOrphanFileStatus:
		return s.repairOrphanFileStatus(ctx, input)
	case FindingColumnDrift:
		return s.repairColumnDrift(ctx, input)
	case FindingStaleScan:
		return s.repairStaleScan(ctx, input)
	case FindingUnreadableRecord, FindingCrcMismatch:
		return RepairResult{}, fmt.Errorf("finding type %s is not repairable: %w", input.Type, catalogerr.ErrInvalidOperation)
	default:
		return RepairResult{}, fmt.Errorf("unsupported finding type %q: %w", input.Type, catalogerr.ErrInvalidArgument)
	}
}

func (s *Service) scanOrphanFileStatuses(ctx context.Context) ([]Finding, error) {
	type row struct {
		ID         string
		ProgramCrc int64
		Kind       string
	}
	var rows []row
	if err := s.db.WithContext(ctx).
		Table("file_statuses").
		Select("file_statuses.id, file_statuses.program_crc, file_statuses.kind").
		Joins("LEFT JOIN programs ON programs.crc = file_statuses.program_crc").
		Where("programs.id IS NULL").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	findings := make([]Finding, 0, len(rows))
	for _, r := range rows {
		findings = append(findings, Finding{
			ID:         findingID(FindingOrphanFileStatus, r.ID),
			Type:       FindingOrphanFileStatus,
			Severity:   "low",
			Summary:    "Validation result refers to a program that is no longer stored",
			ResourceID: r.ID,
			Repairable: true,
			Details: map[string]any{
				"crc":  description.FormatCrc(uint32(r.ProgramCrc)),
				"kind": r.Kind,
			},
		})
	}
	return findings, nil
}

func (s *Service) scanProgramRecords(ctx context.Context) ([]Finding, error) {
	var findings []Finding
	var rows []models.Program
	res := s.db.WithContext(ctx).FindInBatches(&rows, 100, func(_ *gorm.DB, _ int) error {
		for _, row := range rows {
			if f, ok := checkProgram(row); ok {
				findings = append(findings, f)
			}
		}
		return nil
	})
	if res.Error != nil {
		return nil, res.Error
	}
	return findings, nil
}

// checkProgram compares a row with the description it stores. Only the most
// serious problem of a row is reported.
func checkProgram(row models.Program) (Finding, bool) {
	crc := description.FormatCrc(row.CrcValue())

	d, err := description.FromRecord(row.Record)
	if err != nil {
		return Finding{
			ID:         findingID(FindingUnreadableRecord, row.ID),
			Type:       FindingUnreadableRecord,
			Severity:   "high",
			Summary:    "Stored description cannot be decoded",
			ResourceID: row.ID,
			Details:    map[string]any{"crc": crc, "error": err.Error()},
		}, true
	}

	if d.Crc() != row.CrcValue() {
		return Finding{
			ID:         findingID(FindingCrcMismatch, row.ID),
			Type:       FindingCrcMismatch,
			Severity:   "high",
			Summary:    "Row CRC differs from the CRC of its description",
			ResourceID: row.ID,
			Details:    map[string]any{"crc": crc, "record_crc": description.FormatCrc(d.Crc())},
		}, true
	}

	drift := map[string]any{}
	for column, pair := range map[string][2]string{
		"code":   {row.Code, d.Information().Code},
		"title":  {row.Title, d.Name()},
		"vendor": {row.Vendor, d.Vendor()},
		"year":   {row.Year, d.Year()},
	} {
		if pair[0] != pair[1] {
			drift[column] = pair[1]
		}
	}
	if len(drift) == 0 {
		return Finding{}, false
	}
	drift["crc"] = crc
	return Finding{
		ID:         findingID(FindingColumnDrift, row.ID),
		Type:       FindingColumnDrift,
		Severity:   "low",
		Summary:    "Search columns are out of date with the stored description",
		ResourceID: row.ID,
		Repairable: true,
		Details:    drift,
	}, true
}

func (s *Service) scanStaleScans(ctx context.Context) ([]Finding, error) {
	var runs []models.ScanRun
	cutoff := s.now().UTC().Add(-StaleScanAge)
	if err := s.db.WithContext(ctx).
		Where("status = ? AND started_at < ?", models.ScanRunning, cutoff).
		Find(&runs).Error; err != nil {
		return nil, err
	}

	findings := make([]Finding, 0, len(runs))
	for _, run := range runs {
		findings = append(findings, Finding{
			ID:         findingID(FindingStaleScan, run.ID),
			Type:       FindingStaleScan,
			Severity:   "medium",
			Summary:    "Scan has been running for more than a day",
			ResourceID: run.ID,
			Repairable: true,
			Details: map[string]any{
				"root":       run.Root,
				"started_at": run.StartedAt,
			},
		})
	}
	return findings, nil
}

func (s *Service) repairOrphanFileStatus(ctx context.Context, input RepairInput) (RepairResult, error) {
	var st models.FileStatus
	if err := s.db.WithContext(ctx).First(&st, "id = ?", input.ResourceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RepairResult{Changed: false, Message: "file status already removed"}, nil
		}
		return RepairResult{}, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Program{}).Where("crc = ?", st.ProgramCrc).Count(&count).Error; err != nil {
		return RepairResult{}, err
	}
	if count > 0 {
		return RepairResult{Changed: false, Message: "program exists; finding already resolved"}, nil
	}

	if err := s.db.WithContext(ctx).Delete(&st).Error; err != nil {
		return RepairResult{}, err
	}
	return RepairResult{Changed: true, Message: "deleted orphan file status"}, nil
}

func (s *Service) repairColumnDrift(ctx context.Context, input RepairInput) (RepairResult, error) {
	var row models.Program
	if err := s.db.WithContext(ctx).First(&row, "id = ?", input.ResourceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RepairResult{Changed: false, Message: "program not found"}, nil
		}
		return RepairResult{}, err
	}

	f, ok := checkProgram(row)
	if !ok || f.Type != FindingColumnDrift {
		return RepairResult{Changed: false, Message: "columns already consistent"}, nil
	}

	d, err := description.FromRecord(row.Record)
	if err != nil {
		return RepairResult{}, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Program{}).
		Where("id = ?", row.ID).
		Updates(map[string]any{
			"code":   d.Information().Code,
			"title":  d.Name(),
			"vendor": d.Vendor(),
			"year":   d.Year(),
		}).Error; err != nil {
		return RepairResult{}, err
	}

	delete(f.Details, "crc")
	return RepairResult{
		Changed: true,
		Message: "refreshed search columns from the stored description",
		Details: f.Details,
	}, nil
}

func (s *Service) repairStaleScan(ctx context.Context, input RepairInput) (RepairResult, error) {
	finished := s.now().UTC()
	res := s.db.WithContext(ctx).Model(&models.ScanRun{}).
		Where("id = ? AND status = ?", input.ResourceID, models.ScanRunning).
		Updates(map[string]any{
			"status":      models.ScanFailed,
			"error":       "abandoned",
			"finished_at": &finished,
		})
	if res.Error != nil {
		return RepairResult{}, res.Error
	}
	if res.RowsAffected == 0 {
		return RepairResult{Changed: false, Message: "scan is no longer running"}, nil
	}
	return RepairResult{Changed: true, Message: "marked scan as failed"}, nil
}

func findingID(t FindingType, resourceID string) string {
	return fmt.Sprintf("%s|%s", t, resourceID)
}
