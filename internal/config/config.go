/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Database backend selection.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
	DatabaseSQLite   DatabaseBackend = "sqlite"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string
	HTTPBind    string
	HTTPPort    int
	DBBackend   DatabaseBackend
	DBDSN       string

	// Metadata sources
	RomDatabasePath string // XML export of the ROM database
	OverridesPath   string // user overrides YAML; missing file is not an error

	// Storage holding ROM images and support files
	StorageRoot string

	// S3 Object Storage configuration
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Region          string
	S3Bucket          string
	S3Prefix          string
	S3Endpoint        string // For S3-compatible services (MinIO, Spaces, etc.)
	S3UsePathStyle    bool   // Required for MinIO

	// CRC cache
	CrcCacheEnabled bool
	CrcCacheTTL     time.Duration
	RedisAddr       string
	RedisPassword   string
	RedisDB         int

	// Event fan-out; empty URL keeps events in-process
	NATSURL   string
	NATSToken string

	MetricsEnabled bool

	// OpenTelemetry tracing
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64

	// Scanning and validation
	ScanWorkers      int
	ReportIfModified bool

	// Scheduled maintenance: a scan of ScanRoot followed by validation every
	// ScanInterval. Zero disables it.
	ScanInterval time.Duration
	ScanRoot     string

	// Leader election restricts scheduled maintenance to one instance
	LeaderElectionEnabled bool
	InstanceID            string
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnvAny([]string{"ROMCAT_ENV"}, "development"),
		HTTPBind:    getEnvAny([]string{"ROMCAT_HTTP_BIND"}, "0.0.0.0"),
		HTTPPort:    getEnvIntAny([]string{"ROMCAT_HTTP_PORT"}, 8080),
		DBBackend:   DatabaseBackend(getEnvAny([]string{"ROMCAT_DB_BACKEND"}, string(DatabaseSQLite))),
		DBDSN:       getEnvAny([]string{"ROMCAT_DB_DSN"}, ""),

		RomDatabasePath: getEnvAny([]string{"ROMCAT_ROMDB_PATH"}, ""),
		OverridesPath:   getEnvAny([]string{"ROMCAT_OVERRIDES_PATH"}, "./overrides.yaml"),
		StorageRoot:     getEnvAny([]string{"ROMCAT_STORAGE_ROOT"}, ""),

		S3AccessKeyID:     getEnvAny([]string{"ROMCAT_S3_ACCESS_KEY_ID", "AWS_ACCESS_KEY_ID"}, ""),
		S3SecretAccessKey: getEnvAny([]string{"ROMCAT_S3_SECRET_ACCESS_KEY", "AWS_SECRET_ACCESS_KEY"}, ""),
		S3Region:          getEnvAny([]string{"ROMCAT_S3_REGION", "AWS_REGION"}, "us-east-1"),
		S3Bucket:          getEnvAny([]string{"ROMCAT_S3_BUCKET", "S3_BUCKET"}, ""),
		S3Prefix:          getEnvAny([]string{"ROMCAT_S3_PREFIX"}, ""),
		S3Endpoint:        getEnvAny([]string{"ROMCAT_S3_ENDPOINT", "S3_ENDPOINT"}, ""),
		S3UsePathStyle:    getEnvBoolAny([]string{"ROMCAT_S3_USE_PATH_STYLE", "S3_USE_PATH_STYLE"}, false),

		CrcCacheEnabled: getEnvBoolAny([]string{"ROMCAT_CRC_CACHE_ENABLED"}, false),
		CrcCacheTTL:     time.Duration(getEnvIntAny([]string{"ROMCAT_CRC_CACHE_TTL_HOURS"}, 24*7)) * time.Hour,
		RedisAddr:       getEnvAny([]string{"ROMCAT_REDIS_ADDR"}, "localhost:6379"),
		RedisPassword:   getEnvAny([]string{"ROMCAT_REDIS_PASSWORD"}, ""),
		RedisDB:         getEnvIntAny([]string{"ROMCAT_REDIS_DB"}, 0),

		NATSURL:   getEnvAny([]string{"ROMCAT_NATS_URL", "NATS_URL"}, ""),
		NATSToken: getEnvAny([]string{"ROMCAT_NATS_TOKEN", "NATS_TOKEN"}, ""),

		MetricsEnabled: getEnvBoolAny([]string{"ROMCAT_METRICS_ENABLED"}, true),

		TracingEnabled:    getEnvBoolAny([]string{"ROMCAT_TRACING_ENABLED", "TRACING_ENABLED"}, false),
		OTLPEndpoint:      getEnvAny([]string{"ROMCAT_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT"}, "localhost:4317"),
		TracingSampleRate: getEnvFloatAny([]string{"ROMCAT_TRACING_SAMPLE_RATE"}, 1.0),

		ScanWorkers:      getEnvIntAny([]string{"ROMCAT_SCAN_WORKERS"}, 4),
		ReportIfModified: getEnvBoolAny([]string{"ROMCAT_REPORT_IF_MODIFIED"}, true),

		ScanInterval: getEnvDurationAny([]string{"ROMCAT_SCAN_INTERVAL"}, 0),
		ScanRoot:     getEnvAny([]string{"ROMCAT_SCAN_ROOT"}, ""),

		LeaderElectionEnabled: getEnvBoolAny([]string{"ROMCAT_LEADER_ELECTION_ENABLED", "LEADER_ELECTION_ENABLED"}, false),
		InstanceID:            getEnvAny([]string{"ROMCAT_INSTANCE_ID", "INSTANCE_ID"}, defaultInstanceID()),
	}

	switch cfg.DBBackend {
	case DatabasePostgres, DatabaseMySQL:
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("ROMCAT_DB_DSN must be provided for the %s backend", cfg.DBBackend)
		}
	case DatabaseSQLite:
		if cfg.DBDSN == "" {
			cfg.DBDSN = "romcatalog.db"
		}
	default:
		return nil, fmt.Errorf("unsupported database backend %q", cfg.DBBackend)
	}

	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("ROMCAT_HTTP_PORT out of range: %d", cfg.HTTPPort)
	}

	if cfg.ScanWorkers < 1 {
		return nil, fmt.Errorf("ROMCAT_SCAN_WORKERS must be at least 1, got %d", cfg.ScanWorkers)
	}

	if cfg.CrcCacheTTL < 0 {
		return nil, fmt.Errorf("ROMCAT_CRC_CACHE_TTL_HOURS must not be negative")
	}

	if cfg.ScanInterval < 0 {
		return nil, fmt.Errorf("ROMCAT_SCAN_INTERVAL must not be negative")
	}

	if cfg.TracingSampleRate < 0 || cfg.TracingSampleRate > 1 {
		return nil, fmt.Errorf("ROMCAT_TRACING_SAMPLE_RATE must be between 0 and 1, got %v", cfg.TracingSampleRate)
	}

	if cfg.S3Bucket != "" && cfg.S3Region == "" {
		return nil, fmt.Errorf("ROMCAT_S3_REGION or AWS_REGION must be set when ROMCAT_S3_BUCKET is used")
	}

	if strings.EqualFold(cfg.Environment, "production") && cfg.S3Bucket != "" {
		if cfg.S3AccessKeyID == "" || cfg.S3SecretAccessKey == "" {
			return nil, fmt.Errorf("ROMCAT_S3_ACCESS_KEY_ID and ROMCAT_S3_SECRET_ACCESS_KEY are required for S3 storage in production")
		}
	}

	return cfg, nil
}

// ListenAddr is the HTTP bind address and port.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.HTTPBind, c.HTTPPort)
}

// getEnvAny returns the first non-empty environment variable value from keys, or def if none set.
func getEnvAny(keys []string, def string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

// getEnvIntAny returns the first set integer environment variable value from keys, or def.
func getEnvIntAny(keys []string, def int) int {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				return parsed
			}
		}
	}
	return def
}

// getEnvFloatAny returns the first set float environment variable value from keys, or def.
func getEnvFloatAny(keys []string, def float64) float64 {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				return parsed
			}
		}
	}
	return def
}

// getEnvDurationAny returns the first set duration environment variable value
// from keys, or def. Bare integers are read as seconds.
func getEnvDurationAny(keys []string, def time.Duration) time.Duration {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := time.ParseDuration(v); err == nil {
				return parsed
			}
			if secs, err := strconv.Atoi(v); err == nil {
				return time.Duration(secs) * time.Second
			}
		}
	}
	return def
}

func defaultInstanceID() string {
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "romcatalog"
}

// getEnvBoolAny returns the first set boolean environment variable value from keys, or def.
func getEnvBoolAny(keys []string, def bool) bool {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "true" || v == "1" || v == "yes" {
				return true
			}
			if v == "false" || v == "0" || v == "no" {
				return false
			}
		}
	}
	return def
}
