/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ROMCAT_DB_BACKEND", "")
	t.Setenv("ROMCAT_DB_DSN", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.DBBackend != DatabaseSQLite {
		t.Fatalf("unexpected backend: %q", cfg.DBBackend)
	}
	if cfg.DBDSN != "romcatalog.db" {
		t.Fatalf("unexpected sqlite dsn: %q", cfg.DBDSN)
	}
	if cfg.ListenAddr() != "0.0.0.0:8080" {
		t.Fatalf("unexpected listen addr: %q", cfg.ListenAddr())
	}
	if cfg.CrcCacheTTL != 7*24*time.Hour {
		t.Fatalf("unexpected cache ttl: %v", cfg.CrcCacheTTL)
	}
	if cfg.TracingEnabled || cfg.TracingSampleRate != 1.0 {
		t.Fatalf("unexpected tracing defaults: %v %v", cfg.TracingEnabled, cfg.TracingSampleRate)
	}
	if cfg.ScanInterval != 0 || cfg.LeaderElectionEnabled || cfg.InstanceID == "" {
		t.Fatalf("unexpected maintenance defaults: %v %v %q", cfg.ScanInterval, cfg.LeaderElectionEnabled, cfg.InstanceID)
	}
}

func TestScanIntervalFormats(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{value: "30m", want: 30 * time.Minute},
		{value: "90", want: 90 * time.Second},
		{value: "soon", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("ROMCAT_SCAN_INTERVAL", tt.value)
			cfg, err := Load()
			if err != nil {
				t.Fatalf("load config: %v", err)
			}
			if cfg.ScanInterval != tt.want {
				t.Fatalf("ScanInterval = %v, want %v", cfg.ScanInterval, tt.want)
			}
		})
	}
}

func TestLoadReadsEnvKeys(t *testing.T) {
	t.Setenv("ROMCAT_DB_BACKEND", "postgres")
	t.Setenv("ROMCAT_DB_DSN", "host=localhost user=test dbname=test sslmode=disable")
	t.Setenv("ROMCAT_ROMDB_PATH", "/data/romdb.xml")
	t.Setenv("ROMCAT_S3_BUCKET", "roms")
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("ROMCAT_S3_USE_PATH_STYLE", "yes")
	t.Setenv("ROMCAT_SCAN_WORKERS", "8")
	t.Setenv("ROMCAT_TRACING_SAMPLE_RATE", "0.25")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.RomDatabasePath != "/data/romdb.xml" {
		t.Fatalf("unexpected romdb path: %q", cfg.RomDatabasePath)
	}
	if cfg.S3Region != "eu-west-1" || !cfg.S3UsePathStyle {
		t.Fatalf("unexpected s3 settings: %q %v", cfg.S3Region, cfg.S3UsePathStyle)
	}
	if cfg.ScanWorkers != 8 {
		t.Fatalf("unexpected worker count: %d", cfg.ScanWorkers)
	}
	if cfg.TracingSampleRate != 0.25 {
		t.Fatalf("unexpected sample rate: %v", cfg.TracingSampleRate)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown backend", env: map[string]string{"ROMCAT_DB_BACKEND": "oracle"}},
		{name: "postgres without dsn", env: map[string]string{"ROMCAT_DB_BACKEND": "postgres", "ROMCAT_DB_DSN": ""}},
		{name: "bad port", env: map[string]string{"ROMCAT_HTTP_PORT": "70000"}},
		{name: "no workers", env: map[string]string{"ROMCAT_SCAN_WORKERS": "0"}},
		{name: "negative scan interval", env: map[string]string{"ROMCAT_SCAN_INTERVAL": "-5m"}},
		{name: "sample rate above one", env: map[string]string{"ROMCAT_TRACING_SAMPLE_RATE": "1.5"}},
		{name: "production s3 without credentials", env: map[string]string{
			"ROMCAT_ENV":                  "production",
			"ROMCAT_S3_BUCKET":            "roms",
			"ROMCAT_S3_ACCESS_KEY_ID":     "",
			"ROMCAT_S3_SECRET_ACCESS_KEY": "",
			"AWS_ACCESS_KEY_ID":           "",
			"AWS_SECRET_ACCESS_KEY":       "",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected config load to fail")
			}
		})
	}
}
