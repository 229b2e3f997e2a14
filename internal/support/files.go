/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package support tracks the files associated with a program (the ROM image
// itself, its configuration, artwork, manuals, save data) and determines
// whether each one is present and unchanged on storage.
package support

import (
	"fmt"
	"slices"

	"github.com/friendsincode/romcatalog/internal/catalogerr"
	"github.com/friendsincode/romcatalog/internal/program"
)

// Kind is the role a file plays for a program.
type Kind int

const (
	KindRomImage Kind = iota
	KindCfgFile
	KindBoxArt
	KindOverlayArt
	KindManualText
	KindManualCover
	KindLabelArt
	KindSaveData
	KindLtoFlashRom
	KindVignette
	KindGeneric

	numKinds
)

var kindNames = [numKinds]string{
	KindRomImage:    "rom",
	KindCfgFile:     "cfg",
	KindBoxArt:      "box",
	KindOverlayArt:  "overlay",
	KindManualText:  "manual",
	KindManualCover: "manual-cover",
	KindLabelArt:    "label",
	KindSaveData:    "save",
	KindLtoFlashRom: "lto",
	KindVignette:    "vignette",
	KindGeneric:     "generic",
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k >= 0 && k < numKinds
}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Kinds lists every kind in declaration order.
func Kinds() []Kind {
	k := make([]Kind, 0, numKinds)
	for i := Kind(0); i < numKinds; i++ {
		k = append(k, i)
	}
	return k
}

// ParseKind looks up a kind by name.
func ParseKind(name string) (Kind, error) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("support file kind %q: %w", name, catalogerr.ErrKeyNotFound)
}

func checkKind(k Kind) error {
	if !k.Valid() {
		return fmt.Errorf("support file kind %d: %w", int(k), catalogerr.ErrKeyNotFound)
	}
	return nil
}

// Files holds, for every kind, an optional default path and an ordered list
// of alternate paths. The default paths of the ROM image and its
// configuration file belong to the ROM reference.
type Files struct {
	Rom *program.Rom

	defaults   map[Kind]string
	alternates map[Kind][]string
}

// NewFiles creates an empty bundle for rom, which may be nil.
func NewFiles(rom *program.Rom) *Files {
	return &Files{
		Rom:        rom,
		defaults:   make(map[Kind]string),
		alternates: make(map[Kind][]string),
	}
}

// DefaultPath returns the primary path for a kind, or the empty string.
func (f *Files) DefaultPath(k Kind) (string, error) {
	if err := checkKind(k); err != nil {
		return "", err
	}
	switch k {
	case KindRomImage:
		if f.Rom == nil {
			return "", nil
		}
		return f.Rom.RomPath, nil
	case KindCfgFile:
		if f.Rom == nil {
			return "", nil
		}
		return f.Rom.ConfigPath, nil
	}
	return f.defaults[k], nil
}

// Alternates returns a copy of the alternate paths for a kind. The result
// is never nil.
func (f *Files) Alternates(k Kind) ([]string, error) {
	if err := checkKind(k); err != nil {
		return nil, err
	}
	alts := f.alternates[k]
	if alts == nil {
		return []string{}, nil
	}
	return slices.Clone(alts), nil
}

// Add records path for a kind. The first path for a kind becomes its
// default; later different paths accumulate as alternates. For the ROM image
// the default is the ROM reference's image path, and a reference is created
// if there is none. The configuration file requires a ROM reference.
func (f *Files) Add(k Kind, path string) error {
	if err := checkKind(k); err != nil {
		return err
	}
	if path == "" {
		return fmt.Errorf("support file %s: empty path: %w", k, catalogerr.ErrInvalidArgument)
	}

	switch k {
	case KindRomImage:
		if f.Rom == nil {
			f.Rom = program.NewRom(path, "")
			return nil
		}
		if f.Rom.RomPath == "" {
			f.Rom.RomPath = path
			f.Rom.Format = program.FormatFromPath(path)
			return nil
		}
		if f.Rom.RomPath != path {
			f.appendAlternate(k, path)
		}
		return nil

	case KindCfgFile:
		if f.Rom == nil {
			return fmt.Errorf("support file %s: no rom: %w", k, catalogerr.ErrNullSubject)
		}
		if f.Rom.ConfigPath == "" {
			f.Rom.ConfigPath = path
			return nil
		}
		if f.Rom.ConfigPath != path {
			f.appendAlternate(k, path)
		}
		return nil
	}

	if cur := f.defaults[k]; cur == "" {
		f.defaults[k] = path
	} else if cur != path {
		f.appendAlternate(k, path)
	}
	return nil
}

// AddAlternate appends path to the alternates of a kind without touching the
// default. Paths are kept in the order given, duplicates included, so that
// ROM and configuration alternates stay paired by index.
func (f *Files) AddAlternate(k Kind, path string) error {
	if err := checkKind(k); err != nil {
		return err
	}
	f.alternates[k] = append(f.alternates[k], path)
	return nil
}

func (f *Files) appendAlternate(k Kind, path string) {
	if !slices.Contains(f.alternates[k], path) {
		f.alternates[k] = append(f.alternates[k], path)
	}
}

// Clone returns a deep copy, including the ROM reference.
func (f *Files) Clone() *Files {
	c := NewFiles(f.Rom.Clone())
	for k, v := range f.defaults {
		c.defaults[k] = v
	}
	for k, v := range f.alternates {
		c.alternates[k] = slices.Clone(v)
	}
	return c
}
