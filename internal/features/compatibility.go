/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package features

import "strings"

// Compatibility is the ordinal level at which a program works with a piece
// of hardware. Levels are ordered: Incompatible < Tolerates < Enhances < Requires.
type Compatibility uint8

const (
	Incompatible Compatibility = iota
	Tolerates
	Enhances
	Requires
)

// compatibilityMask selects the compatibility sub-field of a flag category.
const compatibilityMask = 0x3

var compatibilityNames = [...]string{"Incompatible", "Tolerates", "Enhances", "Requires"}

func (c Compatibility) String() string {
	if int(c) < len(compatibilityNames) {
		return compatibilityNames[c]
	}
	return "Unknown"
}

// Valid reports whether c is one of the four defined levels.
func (c Compatibility) Valid() bool {
	return c <= Requires
}

// ParseCompatibility accepts a level name, case-insensitive.
func ParseCompatibility(s string) (Compatibility, bool) {
	for i, n := range compatibilityNames {
		if strings.EqualFold(strings.TrimSpace(s), n) {
			return Compatibility(i), true
		}
	}
	return Incompatible, false
}

func maxCompatibility(a, b Compatibility) Compatibility {
	if a > b {
		return a
	}
	return b
}

// flags is the constraint satisfied by every bit-flag category.
type flags interface {
	~uint32
}

func compatibilityOf[F flags](f F) Compatibility {
	return Compatibility(uint32(f) & compatibilityMask)
}

func withCompatibility[F flags](f F, c Compatibility) F {
	return F(uint32(f)&^compatibilityMask | uint32(c)&compatibilityMask)
}

// combineFlags takes the greater compatibility of a and b and ORs every
// other capability bit.
func combineFlags[F flags](a, b F) F {
	c := maxCompatibility(compatibilityOf(a), compatibilityOf(b))
	return withCompatibility(a|b, c)
}

// General holds platform-independent program traits.
type General uint32

const (
	UnrecognizedRom General = 1 << iota
	PageFlipping
	OnboardRam
	SystemRom

	generalValid = UnrecognizedRom | PageFlipping | OnboardRam | SystemRom
)

// KeyboardComponent describes use of the Keyboard Component.
type KeyboardComponent uint32

const (
	KeyboardComponentMicrophone KeyboardComponent = 1 << (iota + 2)
	KeyboardComponentPrinter
	KeyboardComponentBasicRequired
	KeyboardComponentBasicIncompatible
	KeyboardComponentTapeOptional
	KeyboardComponentTapeRequired

	keyboardComponentValid = compatibilityMask | KeyboardComponentMicrophone | KeyboardComponentPrinter |
		KeyboardComponentBasicRequired | KeyboardComponentBasicIncompatible |
		KeyboardComponentTapeOptional | KeyboardComponentTapeRequired
)

// Compatibility returns the compatibility sub-field.
func (f KeyboardComponent) Compatibility() Compatibility { return compatibilityOf(f) }

// Ecs describes use of the Entertainment Computer System.
type Ecs uint32

const (
	EcsSynthesizer Ecs = 1 << (iota + 2)
	EcsTape
	EcsPrinter
	EcsSerialPortEnhanced
	EcsSerialPortRequired

	ecsValid = compatibilityMask | EcsSynthesizer | EcsTape | EcsPrinter | EcsSerialPortEnhanced | EcsSerialPortRequired
)

// Compatibility returns the compatibility sub-field.
func (f Ecs) Compatibility() Compatibility { return compatibilityOf(f) }

// Intellicart describes use of the Intellicart.
type Intellicart uint32

const (
	IntellicartBankswitching Intellicart = 1 << (iota + 2)
	IntellicartSixteenBitRam
	IntellicartSerialPortEnhanced
	IntellicartSerialPortRequired

	intellicartValid = compatibilityMask | IntellicartBankswitching | IntellicartSixteenBitRam |
		IntellicartSerialPortEnhanced | IntellicartSerialPortRequired
)

// Compatibility returns the compatibility sub-field.
func (f Intellicart) Compatibility() Compatibility { return compatibilityOf(f) }

// CuttleCart3 describes use of the Cuttle Cart 3.
type CuttleCart3 uint32

const (
	CuttleCart3Bankswitching CuttleCart3 = 1 << (iota + 2)
	CuttleCart3SixteenBitRam
	CuttleCart3MattelBankswitching
	CuttleCart3SerialPortEnhanced
	CuttleCart3SerialPortRequired

	cuttleCart3Valid = compatibilityMask | CuttleCart3Bankswitching | CuttleCart3SixteenBitRam |
		CuttleCart3MattelBankswitching | CuttleCart3SerialPortEnhanced | CuttleCart3SerialPortRequired
)

// Compatibility returns the compatibility sub-field.
func (f CuttleCart3) Compatibility() Compatibility { return compatibilityOf(f) }

// Jlp describes use of the JLP cartridge board.
type Jlp uint32

const (
	JlpSaveDataOptional Jlp = 1 << (iota + 2)
	JlpSaveDataRequired
	JlpBankswitching
	JlpSixteenBitRam
	JlpSerialPortEnhanced
	JlpSerialPortRequired
	JlpUsesLeds

	jlpValid = compatibilityMask | JlpSaveDataOptional | JlpSaveDataRequired | JlpBankswitching |
		JlpSixteenBitRam | JlpSerialPortEnhanced | JlpSerialPortRequired | JlpUsesLeds
)

// Compatibility returns the compatibility sub-field.
func (f Jlp) Compatibility() Compatibility { return compatibilityOf(f) }

// LtoFlash describes use of the LTO Flash! cartridge.
type LtoFlash uint32

const (
	LtoFlashSaveDataOptional LtoFlash = 1 << (iota + 2)
	LtoFlashSaveDataRequired
	LtoFlashBankswitching
	LtoFlashSixteenBitRam
	LtoFlashSerialPortEnhanced
	LtoFlashSerialPortRequired
	LtoFlashMemoryMapped
	LtoFlashUsesLeds

	ltoFlashValid = compatibilityMask | LtoFlashSaveDataOptional | LtoFlashSaveDataRequired |
		LtoFlashBankswitching | LtoFlashSixteenBitRam | LtoFlashSerialPortEnhanced |
		LtoFlashSerialPortRequired | LtoFlashMemoryMapped | LtoFlashUsesLeds
)

// Compatibility returns the compatibility sub-field.
func (f LtoFlash) Compatibility() Compatibility { return compatibilityOf(f) }

// Bee3 describes use of the Bee3 cartridge.
type Bee3 uint32

const (
	Bee3SaveDataOptional Bee3 = 1 << (iota + 2)
	Bee3SaveDataRequired
	Bee3SixteenBitRam

	bee3Valid = compatibilityMask | Bee3SaveDataOptional | Bee3SaveDataRequired | Bee3SixteenBitRam
)

// Compatibility returns the compatibility sub-field.
func (f Bee3) Compatibility() Compatibility { return compatibilityOf(f) }

// Hive describes use of the Hive multicart.
type Hive uint32

const (
	HiveSaveDataOptional Hive = 1 << (iota + 2)
	HiveSaveDataRequired
	HiveSixteenBitRam

	hiveValid = compatibilityMask | HiveSaveDataOptional | HiveSaveDataRequired | HiveSixteenBitRam
)

// Compatibility returns the compatibility sub-field.
func (f Hive) Compatibility() Compatibility { return compatibilityOf(f) }

// JlpHardwareVersion is the revision of the JLP board a program targets.
// Later revisions order after earlier ones.
type JlpHardwareVersion uint8

const (
	JlpNone JlpHardwareVersion = iota
	Jlp03
	Jlp04
	Jlp05
)

func (v JlpHardwareVersion) String() string {
	switch v {
	case Jlp03:
		return "Jlp03"
	case Jlp04:
		return "Jlp04"
	case Jlp05:
		return "Jlp05"
	}
	return "None"
}
