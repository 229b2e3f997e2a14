/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package catalog

import (
	"context"
	"path"
	"regexp"
	"strings"

	"github.com/friendsincode/romcatalog/internal/program"
)

// HintSource supplies metadata read from the ROM itself. It is consulted
// after user overrides and the ROM database. ok is false when the ROM
// carries nothing useful.
type HintSource interface {
	Hints(ctx context.Context, rom *program.Rom) (src program.Source, ok bool, err error)
}

// FilenameHints derives a title, year and vendor from file names in the
// common "Title (Year) (Vendor)" layout.
type FilenameHints struct{}

var (
	trailingGroup = regexp.MustCompile(`\s*[\(\[]([^\)\]]*)[\)\]]\s*$`)
	yearPattern   = regexp.MustCompile(`^(19|20)\d{2}$`)
)

// Hints implements HintSource.
func (FilenameHints) Hints(_ context.Context, rom *program.Rom) (program.Source, bool, error) {
	if rom == nil || rom.RomPath == "" {
		return program.Source{}, false, nil
	}
	title, year, vendor := parseFilename(rom.RomPath)
	if title == "" {
		return program.Source{}, false, nil
	}

	info := &program.Information{Origin: program.OriginRom, Title: title, Year: year, Vendor: vendor}
	fields := program.FieldTitle
	if year != "" {
		fields |= program.FieldYear
	}
	if vendor != "" {
		fields |= program.FieldVendor
	}
	if rom.Crc != 0 {
		if _, err := info.AddCrc(rom.Crc, "", program.IncompatibleNone); err != nil {
			return program.Source{}, false, err
		}
		fields |= program.FieldCrcs
	}
	return program.Source{Info: info, Fields: fields}, true, nil
}

// parseFilename splits trailing parenthesized groups off the base name.
// The first four digit group is the year, the first other group the
// vendor. Anything after that is ignored.
func parseFilename(p string) (title, year, vendor string) {
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	base = strings.TrimSuffix(base, path.Ext(base))

	var groups []string
	for {
		m := trailingGroup.FindStringSubmatchIndex(base)
		if m == nil {
			break
		}
		groups = append([]string{strings.TrimSpace(base[m[2]:m[3]])}, groups...)
		base = base[:m[0]]
	}
	for _, g := range groups {
		switch {
		case year == "" && yearPattern.MatchString(g):
			year = g
		case vendor == "" && g != "" && !yearPattern.MatchString(g):
			vendor = g
		}
	}

	title = strings.Join(strings.Fields(strings.ReplaceAll(base, "_", " ")), " ")
	return title, year, vendor
}
