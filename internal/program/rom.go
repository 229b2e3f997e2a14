/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package program

import (
	"encoding/binary"
	"hash/crc32"
	"path/filepath"
	"strings"
)

// RomFormat is the container format of a ROM image.
type RomFormat int

const (
	FormatNone RomFormat = iota
	FormatBin
	FormatRom
	FormatCuttleCart3
	FormatCuttleCart3Advanced
	FormatLuigi
)

var formatNames = map[RomFormat]string{
	FormatNone:                "None",
	FormatBin:                 "Bin",
	FormatRom:                 "Rom",
	FormatCuttleCart3:         "CuttleCart3",
	FormatCuttleCart3Advanced: "CuttleCart3Advanced",
	FormatLuigi:               "Luigi",
}

func (f RomFormat) String() string {
	if n, ok := formatNames[f]; ok {
		return n
	}
	return "None"
}

// ParseRomFormat is the inverse of String. Unknown names yield FormatNone.
func ParseRomFormat(name string) RomFormat {
	for f, n := range formatNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return f
		}
	}
	return FormatNone
}

// HasConfig reports whether the format keeps its memory map in a separate
// configuration file.
func (f RomFormat) HasConfig() bool {
	return f == FormatBin
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) RomFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bin", ".int", ".itv":
		return FormatBin
	case ".rom":
		return FormatRom
	case ".cc3":
		return FormatCuttleCart3
	case ".luigi":
		return FormatLuigi
	}
	return FormatNone
}

// ConfigPathFor returns the conventional .cfg path for a .bin style image.
func ConfigPathFor(romPath string) string {
	return strings.TrimSuffix(romPath, filepath.Ext(romPath)) + ".cfg"
}

// AnyDevice is the scramble target of a ROM that runs on any device of the
// class it was encoded for.
const AnyDevice = "*"

// Rom is a reference to a ROM image on storage.
type Rom struct {
	Format     RomFormat
	RomPath    string
	ConfigPath string
	Crc        uint32
	CfgCrc     uint32

	// TargetDevice is set for images scrambled for a specific peripheral, or
	// AnyDevice. Empty for ordinary images.
	TargetDevice string
}

// NewRom builds a reference, inferring the format from the image path.
func NewRom(romPath, configPath string) *Rom {
	return &Rom{
		Format:     FormatFromPath(romPath),
		RomPath:    romPath,
		ConfigPath: configPath,
	}
}

// IsInvalid reports whether the reference was never given an image path.
func (r *Rom) IsInvalid() bool {
	return r.RomPath == ""
}

// IsScrambled reports whether the image only runs with a specific peripheral.
func (r *Rom) IsScrambled() bool {
	return r.TargetDevice != ""
}

// Identifier returns the identity of the referenced image.
func (r *Rom) Identifier() Identifier {
	return Identifier{DataCrc: r.Crc, OtherData: r.CfgCrc}
}

// CombinedCrc is the CRC used to detect modification of the image. For
// formats with a configuration file both CRCs contribute.
func (r *Rom) CombinedCrc() uint32 {
	return CombineCrcs(r.Format, r.Crc, r.CfgCrc)
}

// CombineCrcs folds an image CRC and a configuration CRC together by taking
// the CRC-32 of both values in little-endian order. Formats without a
// configuration file use the image CRC unchanged.
func CombineCrcs(format RomFormat, crc, cfgCrc uint32) uint32 {
	if !format.HasConfig() {
		return crc
	}
	var b [8]byte
	binary.LittleEndian.PutUint32(b[0:4], crc)
	binary.LittleEndian.PutUint32(b[4:8], cfgCrc)
	return crc32.ChecksumIEEE(b[:])
}

// Clone returns a copy of the reference.
func (r *Rom) Clone() *Rom {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
