/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package api exposes the catalog over HTTP.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/friendsincode/romcatalog/internal/catalog"
	"github.com/friendsincode/romcatalog/internal/catalogerr"
	"github.com/friendsincode/romcatalog/internal/description"
	"github.com/friendsincode/romcatalog/internal/integrity"
	"github.com/friendsincode/romcatalog/internal/models"
	"github.com/friendsincode/romcatalog/internal/program"
	"github.com/friendsincode/romcatalog/internal/storage"
	"github.com/friendsincode/romcatalog/internal/support"
)

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(r *http.Request) error

// API exposes HTTP handlers.
type API struct {
	catalog          *catalog.Service
	integritySvc     *integrity.Service
	checks           map[string]HealthCheck
	reportIfModified bool
	logger           zerolog.Logger
}

// New creates the API router wrapper. reportIfModified is the default for
// status requests that do not say.
func New(svc *catalog.Service, reportIfModified bool, logger zerolog.Logger) *API {
	return &API{
		catalog:          svc,
		checks:           make(map[string]HealthCheck),
		reportIfModified: reportIfModified,
		logger:           logger.With().Str("component", "api").Logger(),
	}
}

// SetIntegrity enables the integrity report and repair endpoints.
func (a *API) SetIntegrity(svc *integrity.Service) {
	a.integritySvc = svc
}

// AddHealthCheck registers a named dependency check for /health.
func (a *API) AddHealthCheck(name string, check HealthCheck) {
	a.checks[name] = check
}

// Routes registers the API routes.
func (a *API) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", a.handleHealth)

		r.Route("/programs", func(r chi.Router) {
			r.Get("/", a.handleProgramsList)
			r.Post("/describe", a.handleProgramsDescribe)
			r.Route("/{crc}", func(r chi.Router) {
				r.Get("/", a.handleProgramsGet)
				r.Patch("/", a.handleProgramsUpdate)
				r.Delete("/", a.handleProgramsDelete)
				r.Get("/files", a.handleFilesList)
				r.Get("/files/{kind}/status", a.handleFileStatus)
			})
		})

		r.Get("/scans", a.handleScansList)

		r.Route("/integrity", func(r chi.Router) {
			r.Get("/", a.handleIntegrityReport)
			r.Post("/repair", a.handleIntegrityRepair)
		})
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	components := make(map[string]string, len(a.checks))
	for name, check := range a.checks {
		if err := check(r); err != nil {
			a.logger.Warn().Err(err).Str("check", name).Msg("health check failed")
			components[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		components[name] = "ok"
	}
	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	writeJSON(w, status, map[string]any{"status": overall, "components": components})
}

func (a *API) handleProgramsList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := catalog.ListOptions{Query: q.Get("q"), Vendor: q.Get("vendor")}
	var err error
	if opts.Limit, err = intParam(q.Get("limit")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_limit")
		return
	}
	if opts.Offset, err = intParam(q.Get("offset")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_offset")
		return
	}

	programs, total, err := a.catalog.List(r.Context(), opts)
	if err != nil {
		a.writeCatalogError(w, err)
		return
	}

	type item struct {
		Crc     string `json:"crc"`
		Code    string `json:"code,omitempty"`
		Title   string `json:"title"`
		Vendor  string `json:"vendor,omitempty"`
		Year    string `json:"year,omitempty"`
		Format  string `json:"format"`
		RomPath string `json:"rom_path,omitempty"`
		Origin  string `json:"origin"`
	}
	items := make([]item, 0, len(programs))
	for _, p := range programs {
		items = append(items, item{
			Crc:     description.FormatCrc(p.CrcValue()),
			Code:    p.Code,
			Title:   p.Title,
			Vendor:  p.Vendor,
			Year:    p.Year,
			Format:  p.Format,
			RomPath: p.RomPath,
			Origin:  p.Origin,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"programs": items, "total": total})
}

func (a *API) handleProgramsDescribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RomPath    string `json:"rom_path"`
		ConfigPath string `json:"config_path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.RomPath == "" {
		writeError(w, http.StatusBadRequest, "rom_path_required")
		return
	}

	d, err := a.catalog.Describe(r.Context(), program.NewRom(req.RomPath, req.ConfigPath))
	if err != nil {
		a.writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d.Record())
}

func (a *API) handleProgramsGet(w http.ResponseWriter, r *http.Request) {
	crc, ok := crcParam(w, r)
	if !ok {
		return
	}
	d, err := a.catalog.Get(r.Context(), crc)
	if err != nil {
		a.writeCatalogError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "xml" {
		var buf bytes.Buffer
		if err := description.Encode(&buf, d); err != nil {
			a.writeCatalogError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
		return
	}
	writeJSON(w, http.StatusOK, d.Record())
}

func (a *API) handleProgramsUpdate(w http.ResponseWriter, r *http.Request) {
	crc, ok := crcParam(w, r)
	if !ok {
		return
	}
	var edit catalog.Edit
	if err := json.NewDecoder(r.Body).Decode(&edit); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	d, err := a.catalog.Update(r.Context(), crc, edit)
	if err != nil {
		a.writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d.Record())
}

func (a *API) handleProgramsDelete(w http.ResponseWriter, r *http.Request) {
	crc, ok := crcParam(w, r)
	if !ok {
		return
	}
	if err := a.catalog.Delete(r.Context(), crc); err != nil {
		a.writeCatalogError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleFilesList(w http.ResponseWriter, r *http.Request) {
	crc, ok := crcParam(w, r)
	if !ok {
		return
	}
	statuses, err := a.catalog.FileStatuses(r.Context(), crc)
	if err != nil {
		a.writeCatalogError(w, err)
		return
	}
	if statuses == nil {
		statuses = []models.FileStatus{}
	}
	writeJSON(w, http.StatusOK, statuses)
}

func (a *API) handleFileStatus(w http.ResponseWriter, r *http.Request) {
	crc, ok := crcParam(w, r)
	if !ok {
		return
	}
	kind, err := support.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_kind")
		return
	}

	opts := support.Options{ReportIfModified: a.reportIfModified}
	if v := r.URL.Query().Get("report_modified"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_report_modified")
			return
		}
		opts.ReportIfModified = b
	}
	if device := r.URL.Query().Get("peripheral"); device != "" {
		opts.Attached = []support.Peripheral{peripheral(device)}
	}

	state, err := a.catalog.Validate(r.Context(), crc, kind, opts)
	if err != nil {
		a.writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"crc":   description.FormatCrc(crc),
		"kind":  kind.String(),
		"state": state.String(),
	})
}

func (a *API) handleScansList(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_limit")
		return
	}
	runs, err := a.catalog.ScanRuns(r.Context(), limit)
	if err != nil {
		a.writeCatalogError(w, err)
		return
	}
	if runs == nil {
		runs = []models.ScanRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// peripheral is an attached device identified by its unique id.
type peripheral string

func (p peripheral) UniqueID() string { return string(p) }

func crcParam(w http.ResponseWriter, r *http.Request) (uint32, bool) {
	crc, err := description.ParseCrc(chi.URLParam(r, "crc"))
	if err != nil || crc == 0 {
		writeError(w, http.StatusBadRequest, "invalid_crc")
		return 0, false
	}
	return crc, true
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

// writeCatalogError maps the catalog error taxonomy onto HTTP statuses.
func (a *API) writeCatalogError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "file_not_found")
		return
	}
	switch kind := catalogerr.Kind(err); kind {
	case "null_subject", "key_not_found":
		writeError(w, http.StatusNotFound, "not_found")
	case "invalid_argument", "format_error":
		writeError(w, http.StatusBadRequest, kind)
	case "invalid_operation":
		writeError(w, http.StatusConflict, kind)
	default:
		a.logger.Error().Err(err).Msg("catalog request failed")
		writeError(w, http.StatusInternalServerError, "internal_error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
