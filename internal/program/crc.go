/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package program

import (
	"bytes"
	"fmt"

	"github.com/friendsincode/romcatalog/internal/catalogerr"
)

// Incompatibilities flags hardware a specific ROM variant is known not to
// run on, even if the program in general does.
type Incompatibilities uint32

const (
	IncompatibleNtsc Incompatibilities = 1 << iota
	IncompatiblePal
	IncompatibleKeyboardComponent
	IncompatibleSuperVideoArcade
	IncompatibleIntellivoice
	IncompatibleIntellivisionII
	IncompatibleEcs
	IncompatibleTutorvision
	IncompatibleIntellicart
	IncompatibleCuttleCart3
	IncompatibleJlp
	IncompatibleLtoFlash
	IncompatibleBee3
	IncompatibleHive

	IncompatibleNone Incompatibilities = 0
)

// CrcRecord identifies one ROM variant of a program. It is immutable once
// constructed.
type CrcRecord struct {
	crc               uint32
	description       string
	incompatibilities Incompatibilities
	binConfigTemplate []byte
}

// NewCrcRecord validates and builds a CrcRecord. A zero crc is rejected.
// The template is copied.
func NewCrcRecord(crc uint32, description string, incompatibilities Incompatibilities, binConfigTemplate []byte) (CrcRecord, error) {
	if crc == 0 {
		return CrcRecord{}, fmt.Errorf("crc record: zero crc: %w", catalogerr.ErrInvalidArgument)
	}
	r := CrcRecord{
		crc:               crc,
		description:       description,
		incompatibilities: incompatibilities,
	}
	if binConfigTemplate != nil {
		r.binConfigTemplate = bytes.Clone(binConfigTemplate)
	}
	return r, nil
}

// Crc is the CRC-32 of the ROM image.
func (r CrcRecord) Crc() uint32 { return r.crc }

// Description names the variant, e.g. "(PAL)". It may be empty.
func (r CrcRecord) Description() string { return r.description }

// Incompatibilities returns the variant's hardware incompatibilities.
func (r CrcRecord) Incompatibilities() Incompatibilities { return r.incompatibilities }

// HasBinConfigTemplate reports whether the record carries a .cfg template.
func (r CrcRecord) HasBinConfigTemplate() bool { return r.binConfigTemplate != nil }

// BinConfigTemplate returns a copy of the .cfg template, or nil.
func (r CrcRecord) BinConfigTemplate() []byte {
	if r.binConfigTemplate == nil {
		return nil
	}
	return bytes.Clone(r.binConfigTemplate)
}

func (r CrcRecord) String() string {
	if r.description == "" {
		return fmt.Sprintf("0x%08X", r.crc)
	}
	return fmt.Sprintf("0x%08X %s", r.crc, r.description)
}

// CrcList is an order-preserving set of CRC records, unique by crc.
type CrcList struct {
	records []CrcRecord
}

// Add appends r unless a record with the same crc is already present.
// It reports whether r was added.
func (l *CrcList) Add(r CrcRecord) bool {
	if l.Contains(r.crc) {
		return false
	}
	l.records = append(l.records, r)
	return true
}

// Len returns the number of records.
func (l *CrcList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.records)
}

// Contains reports whether a record for crc is present.
func (l *CrcList) Contains(crc uint32) bool {
	_, ok := l.Find(crc)
	return ok
}

// Find returns the record for crc.
func (l *CrcList) Find(crc uint32) (CrcRecord, bool) {
	if l == nil {
		return CrcRecord{}, false
	}
	for _, r := range l.records {
		if r.crc == crc {
			return r, true
		}
	}
	return CrcRecord{}, false
}

// Records returns the records in insertion order. The slice is a copy.
func (l *CrcList) Records() []CrcRecord {
	if l == nil || len(l.records) == 0 {
		return []CrcRecord{}
	}
	return append([]CrcRecord(nil), l.records...)
}

// Clone returns an independent copy of the list.
func (l *CrcList) Clone() CrcList {
	return CrcList{records: l.Records()}
}
