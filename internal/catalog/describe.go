/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package catalog

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/friendsincode/romcatalog/internal/catalogerr"
	"github.com/friendsincode/romcatalog/internal/description"
	"github.com/friendsincode/romcatalog/internal/events"
	"github.com/friendsincode/romcatalog/internal/features"
	"github.com/friendsincode/romcatalog/internal/program"
	"github.com/friendsincode/romcatalog/internal/romdb"
	"github.com/friendsincode/romcatalog/internal/support"
	"github.com/friendsincode/romcatalog/internal/telemetry"
)

// supportSuffixes are the names, relative to the image path without its
// extension, under which support files are picked up.
var supportSuffixes = []struct {
	kind   support.Kind
	suffix string
}{
	{support.KindBoxArt, "_box.png"},
	{support.KindBoxArt, "_box.jpg"},
	{support.KindOverlayArt, "_overlay.png"},
	{support.KindOverlayArt, "_overlay.jpg"},
	{support.KindLabelArt, "_label.png"},
	{support.KindManualText, ".txt"},
	{support.KindManualCover, "_manual.png"},
	{support.KindSaveData, ".jlp"},
	{support.KindVignette, "_vignette.png"},
}

// Describe builds the description of rom, stores it and returns it.
//
// Missing CRCs are computed from storage. Metadata comes from, in order of
// precedence, the user overrides, the ROM database and the hint source. A
// ROM no source recognizes gets the Unrecognized feature preset and a title
// taken from its file name.
func (s *Service) Describe(ctx context.Context, rom *program.Rom) (d *description.Description, err error) {
	if rom == nil {
		return nil, fmt.Errorf("describe: no rom: %w", catalogerr.ErrNullSubject)
	}
	if rom.IsInvalid() {
		return nil, fmt.Errorf("describe: rom has no image path: %w", catalogerr.ErrInvalidArgument)
	}

	ctx, span := telemetry.StartSpan(ctx, "catalog", "Describe")
	defer func() {
		result := "described"
		if err != nil {
			result = "failed"
		}
		telemetry.DescriptionsTotal.WithLabelValues(result).Inc()
		telemetry.EndSpan(span, err)
	}()

	rom, err = s.prepareRom(ctx, rom)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(telemetry.CrcAttr(rom.Crc))

	info, origin, err := s.merge(ctx, rom)
	if err != nil {
		return nil, err
	}

	d, err = description.New(rom.Crc, rom, info)
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", crcString(rom.Crc), err)
	}
	// Route through the setters so stored text is normalized and bounded.
	d.SetName(info.Title)
	d.SetShortName(info.ShortName)
	d.SetVendor(info.Vendor)
	d.SetYear(info.Year)

	if err := s.attachSupportFiles(ctx, d); err != nil {
		return nil, err
	}

	if err := s.save(ctx, d, origin); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("crc", crcString(rom.Crc)).
		Str("title", d.Name()).
		Str("origin", string(origin)).
		Msg("program described")
	s.bus.Publish(events.EventProgramDescribed, events.Payload{
		"crc":    crcString(rom.Crc),
		"title":  d.Name(),
		"origin": string(origin),
		"path":   rom.RomPath,
	})
	return d, nil
}

// prepareRom returns a copy of rom with its configuration file and CRCs
// filled in.
func (s *Service) prepareRom(ctx context.Context, rom *program.Rom) (*program.Rom, error) {
	rom = rom.Clone()
	if rom.Format == program.FormatNone {
		rom.Format = program.FormatFromPath(rom.RomPath)
	}

	if rom.Format.HasConfig() && rom.ConfigPath == "" {
		cfg := program.ConfigPathFor(rom.RomPath)
		ok, err := s.store.Exists(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("describe %s: %w", rom.RomPath, err)
		}
		if ok {
			rom.ConfigPath = cfg
		}
	}

	if rom.Crc == 0 {
		crc, err := s.checksum.Crc32(ctx, rom.RomPath)
		if err != nil {
			return nil, fmt.Errorf("describe %s: %w", rom.RomPath, err)
		}
		rom.Crc = crc
	}
	if rom.ConfigPath != "" && rom.CfgCrc == 0 {
		crc, err := s.checksum.Crc32(ctx, rom.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("describe %s: %w", rom.ConfigPath, err)
		}
		rom.CfgCrc = crc
	}
	if rom.Crc == 0 {
		return nil, fmt.Errorf("describe %s: image has a zero crc: %w", rom.RomPath, catalogerr.ErrInvalidArgument)
	}
	return rom, nil
}

// merge collects every source that knows rom and merges them. The returned
// origin is that of the highest-precedence source that matched.
func (s *Service) merge(ctx context.Context, rom *program.Rom) (*program.Information, program.Origin, error) {
	var sources []program.Source

	if s.overrides != nil {
		if src, ok := s.overrides.Lookup(rom.Crc); ok {
			sources = append(sources, src)
		}
	}

	if s.romdb != nil {
		info, err := s.romdb.Find(rom.Identifier(), rom.Format, false)
		switch {
		case err == nil:
			sources = append(sources, program.Source{Info: info, Fields: program.FieldsAll})
		case !romdb.IsNotFound(err):
			return nil, "", fmt.Errorf("describe %s: %w", crcString(rom.Crc), err)
		}
	}

	if src, ok, err := s.hints.Hints(ctx, rom); err != nil {
		return nil, "", fmt.Errorf("describe %s: hints: %w", crcString(rom.Crc), err)
	} else if ok {
		sources = append(sources, src)
	}

	origin := program.OriginUnknown
	for _, src := range sources {
		telemetry.MetadataSourcesTotal.WithLabelValues(string(src.Info.Origin)).Inc()
		if origin == program.OriginUnknown {
			origin = src.Info.Origin
		}
	}

	merged, err := (&program.Information{}).Merge(program.FieldsNone, sources...)
	if err != nil {
		return nil, "", fmt.Errorf("describe %s: %w", crcString(rom.Crc), err)
	}

	// Code is not a merged field; the database is its only provider.
	for _, src := range sources {
		if src.Info.Code != "" {
			merged.Code = src.Info.Code
			break
		}
	}
	for _, src := range sources {
		if src.Info.Metadata != nil {
			merged.Metadata = src.Info.Metadata.Clone()
			break
		}
	}

	if merged.Features == nil {
		merged.Features = features.Unrecognized()
	}
	if merged.Title == "" {
		merged.Title = fallbackTitle(rom.RomPath)
	}
	if _, err := merged.AddCrc(rom.Crc, "", program.IncompatibleNone); err != nil {
		return nil, "", fmt.Errorf("describe %s: %w", crcString(rom.Crc), err)
	}
	return merged, origin, nil
}

// attachSupportFiles records support files stored next to the image.
func (s *Service) attachSupportFiles(ctx context.Context, d *description.Description) error {
	rom := d.Rom()
	stem := strings.TrimSuffix(rom.RomPath, path.Ext(rom.RomPath))
	for _, sf := range supportSuffixes {
		p := stem + sf.suffix
		ok, err := s.store.Exists(ctx, p)
		if err != nil {
			return fmt.Errorf("describe %s: support file %s: %w", crcString(d.Crc()), p, err)
		}
		if !ok {
			continue
		}
		if err := d.Files().Add(sf.kind, p); err != nil {
			return fmt.Errorf("describe %s: %w", crcString(d.Crc()), err)
		}
	}
	return nil
}

func fallbackTitle(p string) string {
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}
