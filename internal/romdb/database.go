/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package romdb reads the ROM database export: one XML row per ROM variant,
// each column holding one field of program information.
package romdb

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/friendsincode/romcatalog/internal/catalogerr"
	"github.com/friendsincode/romcatalog/internal/features"
	"github.com/friendsincode/romcatalog/internal/program"
)

// ErrNotFound is returned by lookups with no matching entry.
var ErrNotFound = fmt.Errorf("rom database: %w", catalogerr.ErrKeyNotFound)

// Entry is one database row.
type Entry struct {
	ID     program.Identifier
	Format program.RomFormat
	Source string
	Info   *program.Information
}

// Database is an in-memory, read-only copy of the export.
type Database struct {
	entries []Entry
}

type xmlRows struct {
	XMLName xml.Name `xml:"rows"`
	Rows    []xmlRow `xml:"row"`
}

type xmlRow struct {
	Cells []xmlCell `xml:",any"`
}

type xmlCell struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

// LoadFile reads the export at path.
func LoadFile(path string) (*Database, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rom database: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses an export. A row without a usable CRC, or with a malformed
// configuration cell, fails the load.
func Load(r io.Reader) (*Database, error) {
	var doc xmlRows
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse rom database: %w: %w", catalogerr.ErrFormat, err)
	}

	db := &Database{entries: make([]Entry, 0, len(doc.Rows))}
	for i, row := range doc.Rows {
		cells := make(map[string]string, len(row.Cells))
		for _, c := range row.Cells {
			cells[c.XMLName.Local] = c.Value
		}
		e, err := parseRow(cells)
		if err != nil {
			return nil, fmt.Errorf("rom database row %d: %w", i+1, err)
		}
		db.entries = append(db.entries, e)
	}
	return db, nil
}

func parseCrc(text string) (uint32, error) {
	text = strings.TrimSpace(text)
	base := 10
	if t := strings.TrimPrefix(strings.TrimPrefix(text, "0x"), "0X"); t != text {
		text, base = t, 16
	}
	v, err := strconv.ParseUint(text, base, 32)
	if err != nil {
		return 0, fmt.Errorf("crc %q: %w", text, catalogerr.ErrFormat)
	}
	return uint32(v), nil
}

func parseRow(cells map[string]string) (Entry, error) {
	crc, err := parseCrc(cells[ColCrc])
	if err != nil {
		return Entry{}, err
	}
	var cfgCrc uint32
	if s := strings.TrimSpace(cells[ColCfgCrc]); s != "" {
		if cfgCrc, err = parseCrc(s); err != nil {
			return Entry{}, err
		}
	}

	var tmpl []byte
	if s, ok := cells[ColBinCfg]; ok && strings.TrimSpace(s) != "" {
		if tmpl, err = ParseBinConfig(s); err != nil {
			return Entry{}, err
		}
	}

	code := strings.TrimSpace(cells[ColCode])
	info := &program.Information{
		Origin:    program.OriginDatabase,
		Code:      code,
		Title:     strings.TrimSpace(cells[ColTitle]),
		ShortName: strings.TrimSpace(cells[ColShortName]),
		Vendor:    firstOf(cells[ColVendor]),
		Year:      strings.TrimSpace(cells[ColYear]),
		Features:  parseFeatures(cells),
		Metadata:  parseMetadata(cells),
	}
	if info.Year == "" && info.Metadata != nil && len(info.Metadata.ReleaseDates) > 0 {
		info.Year = strconv.Itoa(info.Metadata.ReleaseDates[0].Year())
	}

	rec, err := program.NewCrcRecord(crc, strings.TrimSpace(cells[ColVariantName]), program.IncompatibleNone, tmpl)
	if err != nil {
		return Entry{}, err
	}
	info.Crcs.Add(rec)

	format := program.ParseRomFormat(cells[ColFormat])
	if format == program.FormatNone && cfgCrc != 0 {
		format = program.FormatBin
	}

	return Entry{
		ID:     program.Identifier{DataCrc: crc, OtherData: cfgCrc, Code: code},
		Format: format,
		Source: strings.TrimSpace(cells[ColOrigin]),
		Info:   info,
	}, nil
}

func firstOf(text string) string {
	if vals := splitList(text); len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// parseFeatures returns nil when the row has no feature columns at all.
// Missing categories keep their default.
func parseFeatures(cells map[string]string) *features.Set {
	var fs *features.Set
	ensure := func() *features.Set {
		if fs == nil {
			fs = features.Default()
		}
		return fs
	}
	for col, cat := range featureColumns {
		text, ok := cells[col]
		if !ok {
			continue
		}
		// Decode always yields a legal value for the category.
		_ = ensure().SetRaw(cat, features.Decode(cat, text))
	}
	if text, ok := cells[ColJlpVersion]; ok {
		ensure().JlpHardwareVersion = features.DecodeJlpHardwareVersion(text)
	}
	if text, ok := cells[ColJlpSaveSectors]; ok {
		ensure().JlpFlashMinimumSaveSectors = features.DecodeSaveSectors(text)
	}
	return fs
}

func parseMetadata(cells map[string]string) *program.Metadata {
	md := &program.Metadata{}
	found := false
	for _, mc := range metadataColumns {
		vals := splitList(cells[mc.column])
		if len(vals) == 0 {
			continue
		}
		p := mc.field(md)
		*p = append(*p, vals...)
		found = true
	}
	for _, d := range splitList(cells[ColReleaseDate]) {
		if t, ok := parseDate(d); ok {
			md.ReleaseDates = append(md.ReleaseDates, t)
			found = true
		}
	}
	for _, d := range splitList(cells[ColBuildDate]) {
		if t, ok := parseDate(d); ok {
			md.BuildDates = append(md.BuildDates, t)
			found = true
		}
	}
	if !found {
		return nil
	}
	return md
}

// Len is the number of entries.
func (db *Database) Len() int { return len(db.entries) }

// Entries returns the rows in file order. Entries share information with
// the database; clone before modifying.
func (db *Database) Entries() []Entry {
	out := make([]Entry, len(db.entries))
	copy(out, db.entries)
	return out
}

// Find returns a copy of the information of the first entry matching id.
func (db *Database) Find(id program.Identifier, format program.RomFormat, cfgCrcMustMatch bool) (*program.Information, error) {
	for _, e := range db.entries {
		ok, err := e.ID.Matches(id, format, cfgCrcMustMatch, id.Code)
		if err != nil {
			return nil, err
		}
		if ok {
			return e.Info.Clone(), nil
		}
	}
	return nil, fmt.Errorf("find %s: %w", id, ErrNotFound)
}

// IsNotFound reports whether err is a failed lookup.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
