/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import "time"

// ScanRunStatus tracks the lifecycle of a library scan.
type ScanRunStatus string

const (
	ScanRunning   ScanRunStatus = "running"
	ScanCompleted ScanRunStatus = "completed"
	ScanFailed    ScanRunStatus = "failed"
)

// ScanRun records one pass of the scanner over a storage prefix.
type ScanRun struct {
	ID         string        `gorm:"type:uuid;primaryKey" json:"id"`
	Root       string        `json:"root"`
	Status     ScanRunStatus `gorm:"type:varchar(16);index" json:"status"`
	FilesSeen  int           `json:"files_seen"`
	Described  int           `json:"described"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
	Error      string        `gorm:"type:text" json:"error,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
}
