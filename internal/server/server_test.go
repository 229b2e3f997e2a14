/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/romcatalog/internal/catalog"
	"github.com/friendsincode/romcatalog/internal/config"
	"github.com/friendsincode/romcatalog/internal/events"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	roms := filepath.Join(dir, "roms")
	if err := os.MkdirAll(roms, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(roms, "Astrosmash (1981) (Mattel).rom"), []byte("astrosmash image"), 0o644); err != nil {
		t.Fatal(err)
	}
	return &config.Config{
		Environment:       "test",
		HTTPBind:          "127.0.0.1",
		HTTPPort:          8080,
		DBBackend:         config.DatabaseSQLite,
		DBDSN:             filepath.Join(dir, "catalog.db"),
		OverridesPath:     filepath.Join(dir, "missing.yaml"),
		StorageRoot:       roms,
		MetricsEnabled:    true,
		TracingSampleRate: 1,
		ScanWorkers:       2,
		ReportIfModified:  true,
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	srv, err := New(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		if err := srv.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return srv
}

func TestServerRoutes(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{path: "/healthz", wantStatus: http.StatusOK, wantBody: `"status":"ok"`},
		{path: "/api/v1/health", wantStatus: http.StatusOK, wantBody: `"database":"ok"`},
		{path: "/api/v1/programs", wantStatus: http.StatusOK, wantBody: `"total":0`},
		{path: "/metrics", wantStatus: http.StatusOK, wantBody: "romcatalog_"},
		{path: "/nowhere", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			srv.HTTPServer().Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rr.Code, tt.wantStatus, rr.Body.String())
			}
			if !strings.Contains(rr.Body.String(), tt.wantBody) {
				t.Errorf("body %q does not contain %q", rr.Body.String(), tt.wantBody)
			}
			if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
				t.Error("security headers missing")
			}
		})
	}
}

func TestServerWithoutMetrics(t *testing.T) {
	cfg := testConfig(t)
	cfg.MetricsEnabled = false
	srv := newTestServer(t, cfg)

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestServerPublishesDescribeEvents(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	sub := srv.Events().Subscribe(events.EventProgramDescribed)
	defer srv.Events().Unsubscribe(events.EventProgramDescribed, sub)

	body := strings.NewReader(`{"rom_path":"Astrosmash (1981) (Mattel).rom"}`)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/programs/describe", body))
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rr.Code, rr.Body.String())
	}

	select {
	case payload := <-sub:
		if payload["title"] != "Astrosmash" {
			t.Errorf("title = %v, want Astrosmash", payload["title"])
		}
	case <-time.After(time.Second):
		t.Fatal("no program.described event")
	}
}

func TestNewFailsOnMissingStorage(t *testing.T) {
	cfg := testConfig(t)
	cfg.StorageRoot = filepath.Join(t.TempDir(), "absent")
	if _, err := New(context.Background(), cfg, zerolog.Nop()); err == nil {
		t.Fatal("expected error for missing storage root")
	}
}

func TestScheduledMaintenance(t *testing.T) {
	cfg := testConfig(t)
	cfg.ScanInterval = 20 * time.Millisecond
	srv := newTestServer(t, cfg)
	sub := srv.Events().Subscribe(events.EventScanCompleted)
	defer srv.Events().Unsubscribe(events.EventScanCompleted, sub)

	select {
	case <-sub:
	case <-time.After(5 * time.Second):
		t.Fatal("no scheduled scan completed")
	}

	if _, total, err := srv.Catalog().List(context.Background(), catalog.ListOptions{}); err != nil || total != 1 {
		t.Fatalf("List: total = %d, err = %v; want 1", total, err)
	}
}
