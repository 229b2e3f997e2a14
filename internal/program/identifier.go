/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package program

import (
	"fmt"

	"github.com/friendsincode/romcatalog/internal/catalogerr"
)

// Identifier is the identity of a program across ROM formats: the image CRC,
// a secondary discriminator (the .cfg CRC for formats that carry one) and an
// optional database code.
type Identifier struct {
	DataCrc   uint32
	OtherData uint32
	Code      string
}

// InvalidIdentifier is the unset identifier.
var InvalidIdentifier = Identifier{}

// Valid reports whether the identifier has a data CRC.
func (id Identifier) Valid() bool {
	return id.DataCrc != 0
}

func (id Identifier) String() string {
	s := fmt.Sprintf("0x%08X:0x%08X", id.DataCrc, id.OtherData)
	if id.Code != "" {
		s += "/" + id.Code
	}
	return s
}

// Matches reports whether candidate identifies the same program as id.
//
// The data CRCs must be equal. OtherData is compared only for formats that
// carry a configuration file and only when cfgCrcMustMatch is set. If code
// is not empty, id must carry exactly that database code.
//
// Probing with the invalid identifier on either side is a caller error.
func (id Identifier) Matches(candidate Identifier, format RomFormat, cfgCrcMustMatch bool, code string) (bool, error) {
	if !id.Valid() || !candidate.Valid() {
		return false, fmt.Errorf("match identifier %s against %s: %w", id, candidate, catalogerr.ErrInvalidArgument)
	}
	if id.DataCrc != candidate.DataCrc {
		return false, nil
	}
	if format.HasConfig() && cfgCrcMustMatch && id.OtherData != candidate.OtherData {
		return false, nil
	}
	if code != "" && id.Code != code {
		return false, nil
	}
	return true, nil
}

// Equal compares identifiers for a given format. OtherData is ignored for
// formats without a configuration file, and Code is compared only when both
// sides have one.
func (id Identifier) Equal(o Identifier, format RomFormat) bool {
	if id.DataCrc != o.DataCrc {
		return false
	}
	if format.HasConfig() && id.OtherData != o.OtherData {
		return false
	}
	if id.Code != "" && o.Code != "" && id.Code != o.Code {
		return false
	}
	return true
}
