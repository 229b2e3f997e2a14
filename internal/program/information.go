/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package program holds the source-of-truth metadata for a program: its
// identity, the CRC records of its ROM variants, descriptive fields and the
// rules for merging several metadata sources into one.
package program

import (
	"slices"
	"time"

	"github.com/friendsincode/romcatalog/internal/features"
)

// Origin names the provider a record came from.
type Origin string

const (
	OriginUnknown  Origin = ""
	OriginDatabase Origin = "database"
	OriginRom      Origin = "rom"
	OriginUser     Origin = "user"
	OriginMerged   Origin = "merged"
)

// Information is the metadata one source knows about a program.
type Information struct {
	Origin    Origin
	Code      string
	Title     string
	Vendor    string
	Year      string
	ShortName string

	// Features is nil when the source says nothing about hardware.
	Features *features.Set
	Crcs     CrcList

	// Metadata is nil for sources without extended metadata.
	Metadata *Metadata
}

// Metadata holds open-ended descriptive sequences. Every sequence preserves
// insertion order.
type Metadata struct {
	Descriptions          []string
	Publishers            []string
	Programmers           []string
	Designers             []string
	Graphics              []string
	Music                 []string
	SoundEffects          []string
	Voices                []string
	Documentation         []string
	Artwork               []string
	ReleaseDates          []time.Time
	Licenses              []string
	ContactInformation    []string
	Versions              []string
	BuildDates            []time.Time
	AdditionalInformation []string
}

// HasMetadata reports whether the source carries extended metadata.
func (info *Information) HasMetadata() bool {
	return info.Metadata != nil
}

// AddCrc builds a record and adds it. It reports whether a record was added.
func (info *Information) AddCrc(crc uint32, description string, incompatibilities Incompatibilities) (bool, error) {
	r, err := NewCrcRecord(crc, description, incompatibilities, nil)
	if err != nil {
		return false, err
	}
	return info.Crcs.Add(r), nil
}

// Clone returns a deep copy.
func (info *Information) Clone() *Information {
	if info == nil {
		return nil
	}
	c := *info
	c.Features = info.Features.Clone()
	c.Crcs = info.Crcs.Clone()
	c.Metadata = info.Metadata.Clone()
	return &c
}

// Clone returns a deep copy.
func (m *Metadata) Clone() *Metadata {
	if m == nil {
		return nil
	}
	return &Metadata{
		Descriptions:          slices.Clone(m.Descriptions),
		Publishers:            slices.Clone(m.Publishers),
		Programmers:           slices.Clone(m.Programmers),
		Designers:             slices.Clone(m.Designers),
		Graphics:              slices.Clone(m.Graphics),
		Music:                 slices.Clone(m.Music),
		SoundEffects:          slices.Clone(m.SoundEffects),
		Voices:                slices.Clone(m.Voices),
		Documentation:         slices.Clone(m.Documentation),
		Artwork:               slices.Clone(m.Artwork),
		ReleaseDates:          slices.Clone(m.ReleaseDates),
		Licenses:              slices.Clone(m.Licenses),
		ContactInformation:    slices.Clone(m.ContactInformation),
		Versions:              slices.Clone(m.Versions),
		BuildDates:            slices.Clone(m.BuildDates),
		AdditionalInformation: slices.Clone(m.AdditionalInformation),
	}
}
