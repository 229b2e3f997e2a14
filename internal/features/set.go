/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package features models the hardware compatibility of a program as one
// value per capability category, and the rules for combining the values
// reported by several metadata sources.
package features

import (
	"fmt"

	"github.com/friendsincode/romcatalog/internal/catalogerr"
)

// Category is one hardware-capability axis.
type Category int

const (
	CategoryNtsc Category = iota
	CategoryPal
	CategoryGeneral
	CategoryKeyboardComponent
	CategorySuperVideoArcade
	CategoryIntellivoice
	CategoryIntellivisionII
	CategoryEcs
	CategoryTutorvision
	CategoryIntellicart
	CategoryCuttleCart3
	CategoryJlp
	CategoryLtoFlash
	CategoryBee3
	CategoryHive

	numCategories
)

type categoryKind int

const (
	kindOrdinal categoryKind = iota
	kindFlags
	kindGeneral
)

type categoryInfo struct {
	name     string
	kind     categoryKind
	valid    uint32
	platform bool
}

var categories = [numCategories]categoryInfo{
	CategoryNtsc:              {name: "Ntsc", kind: kindOrdinal, valid: compatibilityMask, platform: true},
	CategoryPal:               {name: "Pal", kind: kindOrdinal, valid: compatibilityMask, platform: true},
	CategoryGeneral:           {name: "General", kind: kindGeneral, valid: uint32(generalValid)},
	CategoryKeyboardComponent: {name: "KeyboardComponent", kind: kindFlags, valid: uint32(keyboardComponentValid)},
	CategorySuperVideoArcade:  {name: "SuperVideoArcade", kind: kindOrdinal, valid: compatibilityMask, platform: true},
	CategoryIntellivoice:      {name: "Intellivoice", kind: kindOrdinal, valid: compatibilityMask},
	CategoryIntellivisionII:   {name: "IntellivisionII", kind: kindOrdinal, valid: compatibilityMask, platform: true},
	CategoryEcs:               {name: "Ecs", kind: kindFlags, valid: uint32(ecsValid)},
	CategoryTutorvision:       {name: "Tutorvision", kind: kindOrdinal, valid: compatibilityMask, platform: true},
	CategoryIntellicart:       {name: "Intellicart", kind: kindFlags, valid: uint32(intellicartValid)},
	CategoryCuttleCart3:       {name: "CuttleCart3", kind: kindFlags, valid: uint32(cuttleCart3Valid)},
	CategoryJlp:               {name: "Jlp", kind: kindFlags, valid: uint32(jlpValid)},
	CategoryLtoFlash:          {name: "LtoFlash", kind: kindFlags, valid: uint32(ltoFlashValid)},
	CategoryBee3:              {name: "Bee3", kind: kindFlags, valid: uint32(bee3Valid)},
	CategoryHive:              {name: "Hive", kind: kindFlags, valid: uint32(hiveValid)},
}

// Categories lists every known category in declaration order.
func Categories() []Category {
	c := make([]Category, 0, numCategories)
	for i := Category(0); i < numCategories; i++ {
		c = append(c, i)
	}
	return c
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c >= 0 && c < numCategories
}

func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categories[c].name
}

// ParseCategory looks up a category by its String() name.
func ParseCategory(name string) (Category, error) {
	for i, info := range categories {
		if info.name == name {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("feature category %q: %w", name, catalogerr.ErrKeyNotFound)
}

// Set is a mutable feature value. It is a plain value: copying a Set copies
// every field and assignment never aliases.
type Set struct {
	Ntsc              Compatibility
	Pal               Compatibility
	General           General
	KeyboardComponent KeyboardComponent
	SuperVideoArcade  Compatibility
	Intellivoice      Compatibility
	IntellivisionII   Compatibility
	Ecs               Ecs
	Tutorvision       Compatibility
	Intellicart       Intellicart
	CuttleCart3       CuttleCart3
	Jlp               Jlp

	JlpHardwareVersion         JlpHardwareVersion
	JlpFlashMinimumSaveSectors uint16

	LtoFlash LtoFlash
	Bee3     Bee3
	Hive     Hive
}

// the sentinels are never handed out directly. Empty() and Default() return
// clones so the originals cannot be written through.
var (
	emptySet = Set{}

	defaultSet = Set{
		Ntsc:              Tolerates,
		Pal:               Tolerates,
		KeyboardComponent: KeyboardComponent(Tolerates),
		SuperVideoArcade:  Tolerates,
		Intellivoice:      Tolerates,
		IntellivisionII:   Tolerates,
		Ecs:               Ecs(Tolerates),
		Tutorvision:       Tolerates,
		Intellicart:       Intellicart(Tolerates),
		CuttleCart3:       CuttleCart3(Tolerates),
		Jlp:               Jlp(Tolerates),
		LtoFlash:          LtoFlash(Tolerates),
		Bee3:              Bee3(Tolerates),
		Hive:              Hive(Tolerates),
	}
)

// Empty returns a new Set with every category Incompatible and zero counts.
func Empty() *Set {
	s := emptySet
	return &s
}

// Default returns a new Set describing a program that runs on stock hardware
// and tolerates every peripheral.
func Default() *Set {
	s := defaultSet
	return &s
}

// Unrecognized returns the preset used for a ROM no source knows anything
// about.
func Unrecognized() *Set {
	s := defaultSet
	s.Ntsc = Enhances
	s.Pal = Enhances
	s.General |= UnrecognizedRom
	return &s
}

// IsEmpty reports whether s equals the Empty sentinel.
func (s *Set) IsEmpty() bool {
	return s != nil && *s == emptySet
}

// IsDefault reports whether s equals the Default sentinel.
func (s *Set) IsDefault() bool {
	return s != nil && *s == defaultSet
}

// Clone returns a field-by-field copy. A nil Set clones to nil.
func (s *Set) Clone() *Set {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// Equal compares two sets field by field. Two nil sets are equal.
func (s *Set) Equal(o *Set) bool {
	if s == nil || o == nil {
		return s == o
	}
	return *s == *o
}

// Raw returns the numeric encoding of a category.
func (s *Set) Raw(c Category) (uint32, error) {
	switch c {
	case CategoryNtsc:
		return uint32(s.Ntsc), nil
	case CategoryPal:
		return uint32(s.Pal), nil
	case CategoryGeneral:
		return uint32(s.General), nil
	case CategoryKeyboardComponent:
		return uint32(s.KeyboardComponent), nil
	case CategorySuperVideoArcade:
		return uint32(s.SuperVideoArcade), nil
	case CategoryIntellivoice:
		return uint32(s.Intellivoice), nil
	case CategoryIntellivisionII:
		return uint32(s.IntellivisionII), nil
	case CategoryEcs:
		return uint32(s.Ecs), nil
	case CategoryTutorvision:
		return uint32(s.Tutorvision), nil
	case CategoryIntellicart:
		return uint32(s.Intellicart), nil
	case CategoryCuttleCart3:
		return uint32(s.CuttleCart3), nil
	case CategoryJlp:
		return uint32(s.Jlp), nil
	case CategoryLtoFlash:
		return uint32(s.LtoFlash), nil
	case CategoryBee3:
		return uint32(s.Bee3), nil
	case CategoryHive:
		return uint32(s.Hive), nil
	}
	return 0, fmt.Errorf("feature category %d: %w", int(c), catalogerr.ErrKeyNotFound)
}

// SetRaw stores a numeric encoding into a category. Bits outside the
// category's valid mask are rejected.
func (s *Set) SetRaw(c Category, v uint32) error {
	if !c.Valid() {
		return fmt.Errorf("feature category %d: %w", int(c), catalogerr.ErrKeyNotFound)
	}
	if v&^categories[c].valid != 0 {
		return fmt.Errorf("feature category %s value %#x: %w", c, v, catalogerr.ErrInvalidArgument)
	}
	switch c {
	case CategoryNtsc:
		s.Ntsc = Compatibility(v)
	case CategoryPal:
		s.Pal = Compatibility(v)
	case CategoryGeneral:
		s.General = General(v)
	case CategoryKeyboardComponent:
		s.KeyboardComponent = KeyboardComponent(v)
	case CategorySuperVideoArcade:
		s.SuperVideoArcade = Compatibility(v)
	case CategoryIntellivoice:
		s.Intellivoice = Compatibility(v)
	case CategoryIntellivisionII:
		s.IntellivisionII = Compatibility(v)
	case CategoryEcs:
		s.Ecs = Ecs(v)
	case CategoryTutorvision:
		s.Tutorvision = Compatibility(v)
	case CategoryIntellicart:
		s.Intellicart = Intellicart(v)
	case CategoryCuttleCart3:
		s.CuttleCart3 = CuttleCart3(v)
	case CategoryJlp:
		s.Jlp = Jlp(v)
	case CategoryLtoFlash:
		s.LtoFlash = LtoFlash(v)
	case CategoryBee3:
		s.Bee3 = Bee3(v)
	case CategoryHive:
		s.Hive = Hive(v)
	}
	return nil
}

// Compatibility returns the ordinal compatibility of a category. The
// General category carries no compatibility and reports ErrKeyNotFound.
func (s *Set) Compatibility(c Category) (Compatibility, error) {
	if c == CategoryGeneral {
		return Incompatible, fmt.Errorf("feature category %s has no compatibility: %w", c, catalogerr.ErrKeyNotFound)
	}
	v, err := s.Raw(c)
	if err != nil {
		return Incompatible, err
	}
	return Compatibility(v & compatibilityMask), nil
}

// SetCompatibility replaces the compatibility of a category, leaving any
// capability bits untouched.
func (s *Set) SetCompatibility(c Category, level Compatibility) error {
	if c == CategoryGeneral {
		return fmt.Errorf("feature category %s has no compatibility: %w", c, catalogerr.ErrKeyNotFound)
	}
	if !level.Valid() {
		return fmt.Errorf("compatibility %d: %w", level, catalogerr.ErrInvalidArgument)
	}
	v, err := s.Raw(c)
	if err != nil {
		return err
	}
	return s.SetRaw(c, v&^compatibilityMask|uint32(level))
}
