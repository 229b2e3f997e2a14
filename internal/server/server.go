/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"gorm.io/gorm"

	"github.com/friendsincode/romcatalog/internal/api"
	"github.com/friendsincode/romcatalog/internal/cache"
	"github.com/friendsincode/romcatalog/internal/catalog"
	"github.com/friendsincode/romcatalog/internal/config"
	"github.com/friendsincode/romcatalog/internal/db"
	"github.com/friendsincode/romcatalog/internal/eventbus"
	"github.com/friendsincode/romcatalog/internal/events"
	"github.com/friendsincode/romcatalog/internal/integrity"
	"github.com/friendsincode/romcatalog/internal/leadership"
	"github.com/friendsincode/romcatalog/internal/overrides"
	"github.com/friendsincode/romcatalog/internal/romdb"
	"github.com/friendsincode/romcatalog/internal/storage"
	"github.com/friendsincode/romcatalog/internal/support"
	"github.com/friendsincode/romcatalog/internal/telemetry"
)

// connectionMetricsInterval is how often the database pool gauge is refreshed.
const connectionMetricsInterval = 15 * time.Second

// Server bundles HTTP and supporting services.
type Server struct {
	cfg        *config.Config
	logger     zerolog.Logger
	router     chi.Router
	httpServer *http.Server
	closers    []func() error

	db        *gorm.DB
	cache     *cache.Cache
	store     storage.Storage
	bus       *events.Bus
	nats      *eventbus.NATSBus
	catalog   *catalog.Service
	integrity *integrity.Service
	api       *api.API
	election  *leadership.Election

	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

// New constructs the server and wires dependencies.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(securityHeadersMiddleware)
	if cfg.MetricsEnabled {
		router.Use(telemetry.MetricsMiddleware)
	}
	router.Use(middleware.Timeout(60 * time.Second))

	srv := &Server{
		cfg:    cfg,
		logger: logger,
		router: router,
		bus:    events.NewBus(64),
	}

	if err := srv.initDependencies(ctx); err != nil {
		_ = srv.Close()
		return nil, err
	}

	srv.configureRoutes()
	srv.startBackgroundWorkers()

	srv.httpServer = &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           otelhttp.NewHandler(srv.router, "romcatalog-api"),
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return srv, nil
}

func (s *Server) initDependencies(ctx context.Context) error {
	database, err := db.Connect(s.cfg)
	if err != nil {
		return err
	}
	s.DeferClose(func() error { return db.Close(database) })
	if err := db.Migrate(database); err != nil {
		return err
	}
	s.db = database

	store, err := storage.New(ctx, s.cfg, s.logger)
	if err != nil {
		return err
	}
	if err := store.CheckAccess(ctx); err != nil {
		return fmt.Errorf("storage not accessible: %w", err)
	}
	s.store = store

	s.cache = cache.Disabled(s.logger)
	if s.cfg.CrcCacheEnabled {
		cacheCfg := cache.DefaultConfig()
		cacheCfg.RedisAddr = s.cfg.RedisAddr
		cacheCfg.RedisPassword = s.cfg.RedisPassword
		cacheCfg.RedisDB = s.cfg.RedisDB
		cacheCfg.CrcTTL = s.cfg.CrcCacheTTL
		c, err := cache.New(cacheCfg, s.logger)
		if err != nil {
			s.logger.Warn().Err(err).Msg("cache initialization failed, continuing without cache")
		} else {
			s.cache = c
			s.DeferClose(c.Close)
		}
	}

	var rdb *romdb.Database
	if s.cfg.RomDatabasePath != "" {
		rdb, err = romdb.LoadFile(s.cfg.RomDatabasePath)
		if err != nil {
			return fmt.Errorf("load rom database: %w", err)
		}
		s.logger.Info().Str("path", s.cfg.RomDatabasePath).Int("entries", rdb.Len()).Msg("rom database loaded")
	}

	ovr, err := overrides.LoadFile(s.cfg.OverridesPath)
	if err != nil {
		return fmt.Errorf("load overrides: %w", err)
	}
	if ovr.Len() > 0 {
		s.logger.Info().Str("path", s.cfg.OverridesPath).Int("entries", ovr.Len()).Msg("overrides loaded")
	}

	var publisher events.Publisher = s.bus
	if s.cfg.NATSURL != "" {
		natsCfg := eventbus.DefaultNATSConfig()
		natsCfg.URL = s.cfg.NATSURL
		natsCfg.Token = s.cfg.NATSToken
		nb, err := eventbus.NewNATSBus(natsCfg, s.bus, s.logger)
		if err != nil {
			return fmt.Errorf("connect event bus: %w", err)
		}
		s.nats = nb
		s.DeferClose(nb.Close)
		publisher = nb
	}

	svc, err := catalog.NewService(catalog.Deps{
		DB:          database,
		Storage:     store,
		Checksummer: cache.NewChecksummer(s.cache, store, storage.NewChecksummer(store)),
		RomDB:       rdb,
		Overrides:   ovr,
		Cache:       s.cache,
		Events:      publisher,
		Logger:      s.logger,
	})
	if err != nil {
		return err
	}
	s.catalog = svc

	s.integrity = integrity.NewService(database, s.logger)

	if s.cfg.LeaderElectionEnabled {
		electionCfg := leadership.DefaultConfig()
		electionCfg.RedisAddr = s.cfg.RedisAddr
		electionCfg.RedisPassword = s.cfg.RedisPassword
		electionCfg.RedisDB = s.cfg.RedisDB
		electionCfg.InstanceID = s.cfg.InstanceID
		election, err := leadership.NewElection(electionCfg, s.logger)
		if err != nil {
			return fmt.Errorf("create leader election: %w", err)
		}
		s.election = election
		s.DeferClose(election.Stop)
	}

	s.api = api.New(svc, s.cfg.ReportIfModified, s.logger)
	s.api.SetIntegrity(s.integrity)
	s.api.AddHealthCheck("database", func(r *http.Request) error {
		sqlDB, err := database.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(r.Context())
	})
	s.api.AddHealthCheck("storage", func(r *http.Request) error {
		return store.CheckAccess(r.Context())
	})

	return nil
}

// HTTPServer exposes the underlying net/http server.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Handler returns the routed handler without the tracing wrapper.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Catalog returns the wired catalog service.
func (s *Server) Catalog() *catalog.Service {
	return s.catalog
}

// Integrity returns the catalog consistency checker.
func (s *Server) Integrity() *integrity.Service {
	return s.integrity
}

// Events returns the in-process bus every catalog event reaches.
func (s *Server) Events() *events.Bus {
	return s.bus
}

// Close releases owned resources in reverse order.
func (s *Server) Close() error {
	s.stopBackgroundWorkers()
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.closers = nil
	return firstErr
}

// DeferClose registers a cleanup hook.
func (s *Server) DeferClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

func (s *Server) startBackgroundWorkers() {
	ctx, cancel := context.WithCancel(context.Background())
	s.bgCancel = cancel

	if s.cfg.MetricsEnabled && s.db != nil {
		s.bgWG.Add(1)
		go func() {
			defer s.bgWG.Done()
			ticker := time.NewTicker(connectionMetricsInterval)
			defer ticker.Stop()
			db.UpdateConnectionMetrics(s.db)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					db.UpdateConnectionMetrics(s.db)
				}
			}
		}()
	}

	if s.election != nil {
		s.election.Start(ctx)
	}

	if s.cfg.ScanInterval > 0 && s.catalog != nil {
		s.bgWG.Add(1)
		go func() {
			defer s.bgWG.Done()
			s.runMaintenance(ctx)
		}()
	}

	for _, et := range events.Types() {
		sub := s.bus.Subscribe(et)
		s.bgWG.Add(1)
		go func(et events.EventType, sub events.Subscriber) {
			defer s.bgWG.Done()
			defer s.bus.Unsubscribe(et, sub)
			s.logEvents(ctx, et, sub)
		}(et, sub)
	}
}

func (s *Server) logEvents(ctx context.Context, et events.EventType, sub events.Subscriber) {
	logger := s.logger.With().Str("component", "events").Str("event", string(et)).Logger()
	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-sub:
			if !ok {
				return
			}
			logger.Debug().Fields(map[string]any(payload)).Msg("catalog event")
		}
	}
}

// runMaintenance scans and validates the catalog every ScanInterval. With
// leader election enabled only the leader does the work.
func (s *Server) runMaintenance(ctx context.Context) {
	logger := s.logger.With().Str("component", "maintenance").Logger()
	ticker := time.NewTicker(s.cfg.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if s.election != nil && !s.election.IsLeader() {
			logger.Debug().Msg("not the leader, skipping scheduled maintenance")
			continue
		}

		run, err := s.catalog.Scan(ctx, catalog.ScanOptions{Root: s.cfg.ScanRoot, Workers: s.cfg.ScanWorkers})
		if err != nil {
			if ctx.Err() == nil {
				logger.Error().Err(err).Msg("scheduled scan failed")
			}
			continue
		}
		summary, err := s.catalog.ValidateAll(ctx, support.Options{ReportIfModified: s.cfg.ReportIfModified}, nil)
		if err != nil {
			if ctx.Err() == nil {
				logger.Error().Err(err).Msg("scheduled validation failed")
			}
			continue
		}
		logger.Info().
			Int("described", run.Described).
			Int("failed", run.Failed).
			Int("validated", summary.Total()).
			Msg("scheduled maintenance complete")
	}
}

func (s *Server) stopBackgroundWorkers() {
	if s.bgCancel == nil {
		return
	}
	s.bgCancel()
	s.bgWG.Wait()
	s.bgCancel = nil
}

func (s *Server) configureRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		response := `{"status":"ok"`
		if s.election != nil {
			if s.election.IsLeader() {
				response += `,"leader":true`
			} else {
				response += `,"leader":false`
			}
		}
		response += `}`
		_, _ = w.Write([]byte(response))
	})

	if s.cfg.MetricsEnabled {
		s.router.Handle("/metrics", telemetry.Handler())
	}

	s.api.Routes(s.router)
}

// requestLogger logs each request through zerolog.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	logger = logger.With().Str("component", "http").Logger()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			event := logger.Debug()
			if status >= http.StatusInternalServerError {
				event = logger.Warn()
			}
			event.
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'; base-uri 'none'")

		// Only advertise HSTS for requests served over HTTPS.
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.httpServer.Addr).Msg("HTTP server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
