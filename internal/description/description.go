/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package description binds a program's merged information to one ROM
// identity and its support files. A Description is the unit the catalog
// stores, edits and displays.
package description

import (
	"context"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/friendsincode/romcatalog/internal/catalogerr"
	"github.com/friendsincode/romcatalog/internal/features"
	"github.com/friendsincode/romcatalog/internal/program"
	"github.com/friendsincode/romcatalog/internal/support"
)

// MaxFieldLength is the number of characters kept by the text setters.
const MaxFieldLength = 64

// Description is a program's information bound to one CRC.
type Description struct {
	crc   uint32
	info  *program.Information
	files *support.Files
}

// New creates a description for crc. The information is copied; crc must be
// one of its CRC records.
func New(crc uint32, rom *program.Rom, info *program.Information) (*Description, error) {
	if info == nil {
		return nil, fmt.Errorf("description 0x%08X: no information: %w", crc, catalogerr.ErrNullSubject)
	}
	if !info.Crcs.Contains(crc) {
		return nil, fmt.Errorf("description 0x%08X: crc not in program information: %w", crc, catalogerr.ErrInvalidOperation)
	}
	return &Description{
		crc:   crc,
		info:  info.Clone(),
		files: support.NewFiles(rom),
	}, nil
}

// Crc is the identity the description was created for.
func (d *Description) Crc() uint32 { return d.crc }

// SetCrc changes the identity. Membership in the information's CRC records
// is only checked by New.
func (d *Description) SetCrc(crc uint32) { d.crc = crc }

// Information returns the bound information.
func (d *Description) Information() *program.Information { return d.info }

// Name is the program title.
func (d *Description) Name() string { return d.info.Title }

// SetName stores the title, truncated to MaxFieldLength characters.
func (d *Description) SetName(name string) { d.info.Title = truncate(name) }

// ShortName is the abbreviated title.
func (d *Description) ShortName() string { return d.info.ShortName }

// SetShortName stores the short name, truncated to MaxFieldLength characters.
func (d *Description) SetShortName(name string) { d.info.ShortName = truncate(name) }

// Vendor is the publisher.
func (d *Description) Vendor() string { return d.info.Vendor }

// SetVendor stores the vendor, truncated to MaxFieldLength characters.
func (d *Description) SetVendor(vendor string) { d.info.Vendor = truncate(vendor) }

// Year is the free-text release year.
func (d *Description) Year() string { return d.info.Year }

// SetYear stores the year, truncated to MaxFieldLength characters.
func (d *Description) SetYear(year string) { d.info.Year = truncate(year) }

// Features returns the feature set; nil if unknown.
func (d *Description) Features() *features.Set { return d.info.Features }

// SetFeatures stores a copy of fs.
func (d *Description) SetFeatures(fs *features.Set) { d.info.Features = fs.Clone() }

// Rom returns the ROM reference as configured.
func (d *Description) Rom() *program.Rom { return d.files.Rom }

// SetRom replaces the ROM reference.
func (d *Description) SetRom(rom *program.Rom) { d.files.Rom = rom }

// Files returns the support files.
func (d *Description) Files() *support.Files { return d.files }

// SetFiles replaces the support files. A nil bundle is replaced with an
// empty one for the current ROM.
func (d *Description) SetFiles(files *support.Files) {
	if files == nil {
		files = support.NewFiles(d.files.Rom)
	}
	d.files = files
}

// GetRom returns a usable ROM reference. If the configured image (and
// configuration file, when set) exist the configured reference is returned.
// Otherwise the alternate image and configuration paths are tried pairwise
// by index and a new reference is returned for the first pair that exists.
// If none exists the configured reference is returned unchanged.
//
// Configuration alternates, when present, must pair one-to-one with image
// alternates.
func (d *Description) GetRom(ctx context.Context, fs support.FileSystem) (*program.Rom, error) {
	rom := d.files.Rom
	if rom == nil {
		return nil, fmt.Errorf("get rom 0x%08X: %w", d.crc, catalogerr.ErrNullSubject)
	}

	ok, err := romExists(ctx, fs, rom.RomPath, rom.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("get rom 0x%08X: %w", d.crc, err)
	}
	if ok {
		return rom, nil
	}

	romAlts, _ := d.files.Alternates(support.KindRomImage)
	cfgAlts, _ := d.files.Alternates(support.KindCfgFile)
	if len(cfgAlts) > 0 && len(cfgAlts) != len(romAlts) {
		return nil, fmt.Errorf("get rom 0x%08X: %d alternate images but %d alternate configurations: %w",
			d.crc, len(romAlts), len(cfgAlts), catalogerr.ErrInvalidOperation)
	}

	for i, romPath := range romAlts {
		var cfgPath string
		if i < len(cfgAlts) {
			cfgPath = cfgAlts[i]
		}
		ok, err := romExists(ctx, fs, romPath, cfgPath)
		if err != nil {
			return nil, fmt.Errorf("get rom 0x%08X: %w", d.crc, err)
		}
		if !ok {
			continue
		}
		alt := rom.Clone()
		alt.RomPath = romPath
		alt.ConfigPath = cfgPath
		if f := program.FormatFromPath(romPath); f != program.FormatNone {
			alt.Format = f
		}
		return alt, nil
	}

	return rom, nil
}

// Validate checks one kind of support file with the resolver. The expected
// CRC of the ROM image is taken from the ROM reference.
func (d *Description) Validate(ctx context.Context, r *support.Resolver, kind support.Kind, opts support.Options) (support.State, error) {
	if kind == support.KindRomImage && opts.ExpectedCrc == 0 && d.files.Rom != nil {
		opts.ExpectedCrc = d.files.Rom.CombinedCrc()
	}
	if kind == support.KindCfgFile && opts.ExpectedCrc == 0 && d.files.Rom != nil {
		opts.ExpectedCrc = d.files.Rom.CfgCrc
	}
	return r.Validate(ctx, d.files, kind, opts)
}

func romExists(ctx context.Context, fs support.FileSystem, romPath, cfgPath string) (bool, error) {
	if romPath == "" {
		return false, nil
	}
	ok, err := fs.Exists(ctx, romPath)
	if err != nil || !ok {
		return false, err
	}
	if cfgPath == "" {
		return true, nil
	}
	return fs.Exists(ctx, cfgPath)
}

func truncate(s string) string {
	s = norm.NFC.String(s)
	if utf8.RuneCountInString(s) <= MaxFieldLength {
		return s
	}
	r := []rune(s)
	return string(r[:MaxFieldLength])
}
