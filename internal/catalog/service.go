/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package catalog builds program descriptions from the available metadata
// sources, stores them and validates their support files against storage.
package catalog

import (
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/romcatalog/internal/cache"
	"github.com/friendsincode/romcatalog/internal/catalogerr"
	"github.com/friendsincode/romcatalog/internal/description"
	"github.com/friendsincode/romcatalog/internal/events"
	"github.com/friendsincode/romcatalog/internal/overrides"
	"github.com/friendsincode/romcatalog/internal/romdb"
	"github.com/friendsincode/romcatalog/internal/storage"
	"github.com/friendsincode/romcatalog/internal/support"
)

// ErrProgramNotFound is returned when no description is stored for a CRC.
var ErrProgramNotFound = fmt.Errorf("program: %w", catalogerr.ErrKeyNotFound)

// Deps are the collaborators of a Service. DB and Storage are required;
// every other field may be left zero.
type Deps struct {
	DB          *gorm.DB
	Storage     storage.Storage
	Checksummer support.Checksummer
	RomDB       *romdb.Database
	Overrides   *overrides.Overrides
	Hints       HintSource
	Cache       *cache.Cache
	Events      events.Publisher
	Logger      zerolog.Logger
}

// Service is the catalog. It is safe for concurrent use.
type Service struct {
	db        *gorm.DB
	store     storage.Storage
	checksum  support.Checksummer
	resolver  *support.Resolver
	romdb     *romdb.Database
	overrides *overrides.Overrides
	hints     HintSource
	cache     *cache.Cache
	bus       events.Publisher
	logger    zerolog.Logger
}

// NewService wires a catalog.
func NewService(deps Deps) (*Service, error) {
	if deps.DB == nil {
		return nil, fmt.Errorf("catalog: no database: %w", catalogerr.ErrNullSubject)
	}
	if deps.Storage == nil {
		return nil, fmt.Errorf("catalog: no storage: %w", catalogerr.ErrNullSubject)
	}

	s := &Service{
		db:        deps.DB,
		store:     deps.Storage,
		checksum:  deps.Checksummer,
		romdb:     deps.RomDB,
		overrides: deps.Overrides,
		hints:     deps.Hints,
		cache:     deps.Cache,
		bus:       deps.Events,
		logger:    deps.Logger.With().Str("component", "catalog").Logger(),
	}
	if s.checksum == nil {
		s.checksum = storage.NewChecksummer(deps.Storage)
	}
	if s.hints == nil {
		s.hints = FilenameHints{}
	}
	if s.cache == nil {
		s.cache = cache.Disabled(deps.Logger)
	}
	if s.bus == nil {
		s.bus = events.Discard{}
	}
	s.resolver = support.NewResolver(deps.Storage, s.checksum)
	return s, nil
}

func crcString(crc uint32) string {
	return description.FormatCrc(crc)
}
