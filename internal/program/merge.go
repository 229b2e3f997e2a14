/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package program

import (
	"fmt"

	"github.com/friendsincode/romcatalog/internal/catalogerr"
	"github.com/friendsincode/romcatalog/internal/features"
)

// FieldMask selects the fields a source contributes to a merge.
type FieldMask uint32

const (
	FieldTitle FieldMask = 1 << iota
	FieldVendor
	FieldYear
	FieldFeatures
	FieldShortName
	FieldCrcs

	FieldsNone FieldMask = 0
	FieldsAll            = FieldTitle | FieldVendor | FieldYear | FieldFeatures | FieldShortName | FieldCrcs
)

// Valid reports whether m only uses recognized field bits.
func (m FieldMask) Valid() bool {
	return m&^FieldsAll == 0
}

// Source pairs metadata with the fields it may contribute.
type Source struct {
	Info   *Information
	Fields FieldMask
}

// Merge combines info, restricted to fields, with sources in order and
// returns a new Information. Neither info nor any source is modified.
//
// For title, vendor, year and short name the first non-empty value in order
// wins. Feature sets from every source that offers them are folded with
// features.Combine; if no source offers features the result has none. CRC
// records from every source that offers them are unioned in first-seen
// order.
func (info *Information) Merge(fields FieldMask, sources ...Source) (*Information, error) {
	if info == nil {
		return nil, fmt.Errorf("merge: no target: %w: %w", catalogerr.ErrNullSubject, catalogerr.ErrInvalidArgument)
	}
	if !fields.Valid() {
		return nil, fmt.Errorf("merge: field mask %#x: %w", uint32(fields), catalogerr.ErrInvalidArgument)
	}
	for i, src := range sources {
		if !src.Fields.Valid() {
			return nil, fmt.Errorf("merge: source %d field mask %#x: %w", i, uint32(src.Fields), catalogerr.ErrInvalidArgument)
		}
		if src.Info == nil {
			return nil, fmt.Errorf("merge: source %d: %w", i, catalogerr.ErrNullSubject)
		}
	}

	all := make([]Source, 0, len(sources)+1)
	all = append(all, Source{Info: info, Fields: fields})
	all = append(all, sources...)

	merged := &Information{Origin: OriginMerged}
	haveFeatures := false

	for _, src := range all {
		s := src.Info
		if src.Fields&FieldTitle != 0 && merged.Title == "" {
			merged.Title = s.Title
		}
		if src.Fields&FieldVendor != 0 && merged.Vendor == "" {
			merged.Vendor = s.Vendor
		}
		if src.Fields&FieldYear != 0 && merged.Year == "" {
			merged.Year = s.Year
		}
		if src.Fields&FieldShortName != 0 && merged.ShortName == "" {
			merged.ShortName = s.ShortName
		}
		if src.Fields&FieldFeatures != 0 {
			if haveFeatures {
				merged.Features = features.Combine(merged.Features, s.Features)
			} else {
				merged.Features = s.Features.Clone()
				haveFeatures = true
			}
		}
		if src.Fields&FieldCrcs != 0 {
			for _, r := range s.Crcs.Records() {
				merged.Crcs.Add(r)
			}
		}
	}

	return merged, nil
}
