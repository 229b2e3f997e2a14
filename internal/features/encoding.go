/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package features

import (
	"strconv"
	"strings"
)

// DefaultValue is the value a category falls back to when external data for
// it cannot be used. Platform categories default to Tolerates, peripheral
// categories to Incompatible and General to no features.
func DefaultValue(c Category) uint32 {
	if !c.Valid() {
		return 0
	}
	if categories[c].platform {
		return uint32(Tolerates)
	}
	return uint32(Incompatible)
}

// Coerce maps an externally supplied numeric value onto a legal value for
// the category. Values outside the category's valid bits become the
// category default. NTSC and PAL never report Requires; it is lowered to
// Enhances.
func Coerce(c Category, v uint32) uint32 {
	v = Mask(c, v)
	if (c == CategoryNtsc || c == CategoryPal) && Compatibility(v) == Requires {
		return uint32(Enhances)
	}
	return v
}

// Mask returns v unchanged when every bit is valid for the category and the
// category default otherwise. Unlike Coerce it keeps every legal value, so a
// stored set reads back exactly as it was written.
func Mask(c Category, v uint32) uint32 {
	if !c.Valid() {
		return 0
	}
	if v&^categories[c].valid != 0 {
		return DefaultValue(c)
	}
	return v
}

// Decode parses the textual encoding of a category value. Both decimal
// integers and compatibility names are accepted; anything else decodes to
// the category default.
func Decode(c Category, text string) uint32 {
	text = strings.TrimSpace(text)
	if text == "" {
		return DefaultValue(c)
	}
	if level, ok := ParseCompatibility(text); ok && c != CategoryGeneral {
		return Coerce(c, uint32(level))
	}
	v, err := strconv.ParseUint(text, 10, 32)
	if err != nil {
		return DefaultValue(c)
	}
	return Coerce(c, uint32(v))
}

// Encode returns the textual encoding of a category value, the inverse of
// Decode.
func (s *Set) Encode(c Category) (string, error) {
	v, err := s.Raw(c)
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(uint64(v), 10), nil
}

// DecodeInto decodes text and stores the result in the category.
func (s *Set) DecodeInto(c Category, text string) error {
	if !c.Valid() {
		_, err := s.Raw(c)
		return err
	}
	return s.SetRaw(c, Decode(c, text))
}

// DecodeJlpHardwareVersion parses a revision number; out of range or
// unparseable text yields JlpNone.
func DecodeJlpHardwareVersion(text string) JlpHardwareVersion {
	v, err := strconv.ParseUint(strings.TrimSpace(text), 10, 8)
	if err != nil || JlpHardwareVersion(v) > Jlp05 {
		return JlpNone
	}
	return JlpHardwareVersion(v)
}

// DecodeSaveSectors parses a 16-bit sector count; unparseable text yields 0.
func DecodeSaveSectors(text string) uint16 {
	v, err := strconv.ParseUint(strings.TrimSpace(text), 10, 16)
	if err != nil {
		return 0
	}
	return uint16(v)
}
