/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package romdb

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/friendsincode/romcatalog/internal/catalogerr"
	"github.com/friendsincode/romcatalog/internal/features"
	"github.com/friendsincode/romcatalog/internal/program"
)

const sampleDB = `<?xml version="1.0"?>
<rows>
  <row>
    <crc>0xFAB00001</crc>
    <code>astro</code>
    <title>Astrosmash</title>
    <short_name>Astro</short_name>
    <vendor>Mattel|INTV Corp</vendor>
    <format>Rom</format>
    <ntsc>2</ntsc>
    <pal>3</pal>
    <ivoice>Enhances</ivoice>
    <ecs>garbage</ecs>
    <release_date>1981-10-01</release_date>
    <build_date>1981</build_date>
    <program>John Sohl</program>
    <source>INTV Funhouse</source>
    <other>Also known as Meteor!</other>
    <origin>funhouse</origin>
  </row>
  <row>
    <crc>3735928559</crc>
    <crc_2>0x0000C0DE</crc_2>
    <title>Homebrew</title>
    <year>2010</year>
    <bin_cfg>3</bin_cfg>
    <jlp>6</jlp>
    <jlp_version>2</jlp_version>
    <jlp_savegame>40</jlp_savegame>
  </row>
  <row>
    <crc>0x12345678</crc>
    <title>Custom map</title>
    <bin_cfg>[mapping]
$0000 - $0FFF = $5000</bin_cfg>
  </row>
</rows>`

func loadSample(t *testing.T) *Database {
	t.Helper()
	db, err := Load(strings.NewReader(sampleDB))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return db
}

func TestLoad(t *testing.T) {
	db := loadSample(t)
	if db.Len() != 3 {
		t.Fatalf("Len = %d, want 3", db.Len())
	}

	e := db.Entries()[0]
	if e.ID.DataCrc != 0xFAB00001 || e.ID.Code != "astro" || e.Format != program.FormatRom || e.Source != "funhouse" {
		t.Errorf("entry = %+v", e)
	}
	info := e.Info
	if info.Title != "Astrosmash" || info.ShortName != "Astro" || info.Vendor != "Mattel" || info.Year != "1981" {
		t.Errorf("info = %+v", info)
	}
	if info.Origin != program.OriginDatabase {
		t.Errorf("origin = %q", info.Origin)
	}

	fs := info.Features
	if fs == nil {
		t.Fatal("features not parsed")
	}
	if fs.Ntsc != features.Enhances {
		t.Errorf("Ntsc = %v, want Enhances", fs.Ntsc)
	}
	if fs.Pal != features.Enhances {
		t.Errorf("Pal = %v, want Enhances (Requires is lowered)", fs.Pal)
	}
	if fs.Intellivoice != features.Enhances {
		t.Errorf("Intellivoice = %v, want Enhances", fs.Intellivoice)
	}
	if fs.Ecs != 0 {
		t.Errorf("Ecs = %v, want device default", fs.Ecs)
	}

	md := info.Metadata
	if md == nil {
		t.Fatal("metadata not parsed")
	}
	if !slices.Equal(md.Publishers, []string{"Mattel", "INTV Corp"}) {
		t.Errorf("Publishers = %v", md.Publishers)
	}
	if !slices.Equal(md.AdditionalInformation, []string{"INTV Funhouse", "Also known as Meteor!"}) {
		t.Errorf("AdditionalInformation = %v", md.AdditionalInformation)
	}
	if len(md.ReleaseDates) != 1 || md.ReleaseDates[0].Month() != 10 {
		t.Errorf("ReleaseDates = %v", md.ReleaseDates)
	}
	if len(md.BuildDates) != 0 {
		t.Errorf("partial build date kept: %v", md.BuildDates)
	}

	hb := db.Entries()[1]
	if hb.ID.DataCrc != 0xDEADBEEF || hb.ID.OtherData != 0xC0DE || hb.Format != program.FormatBin {
		t.Errorf("homebrew entry = %+v", hb)
	}
	if hb.Info.Features.Jlp != features.Jlp(features.Enhances)|features.JlpSaveDataOptional {
		t.Errorf("Jlp = %#x", hb.Info.Features.Jlp)
	}
	if hb.Info.Features.JlpHardwareVersion != features.Jlp04 || hb.Info.Features.JlpFlashMinimumSaveSectors != 40 {
		t.Errorf("jlp version/sectors = %v/%d", hb.Info.Features.JlpHardwareVersion, hb.Info.Features.JlpFlashMinimumSaveSectors)
	}
	rec, ok := hb.Info.Crcs.Find(0xDEADBEEF)
	if !ok {
		t.Fatal("crc record missing")
	}
	stock, _ := StockConfig(3)
	if string(rec.BinConfigTemplate()) != string(stock) {
		t.Errorf("template = %q", rec.BinConfigTemplate())
	}
	if hb.Info.Metadata != nil {
		t.Errorf("metadata = %+v, want nil", hb.Info.Metadata)
	}

	custom, _ := db.Entries()[2].Info.Crcs.Find(0x12345678)
	if !strings.HasPrefix(string(custom.BinConfigTemplate()), "[mapping]") {
		t.Errorf("custom template = %q", custom.BinConfigTemplate())
	}
	if db.Entries()[2].Info.Features != nil {
		t.Error("row without feature columns has features")
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "not xml", doc: "<rows><row>"},
		{name: "missing crc", doc: "<rows><row><title>x</title></row></rows>"},
		{name: "bad crc", doc: "<rows><row><crc>0xZZ</crc></row></rows>"},
		{name: "zero crc", doc: "<rows><row><crc>0</crc></row></rows>"},
		{name: "garbled bin cfg", doc: "<rows><row><crc>1</crc><bin_cfg>not a config</bin_cfg></row></rows>"},
		{name: "stock map out of range", doc: "<rows><row><crc>1</crc><bin_cfg>42</bin_cfg></row></rows>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.doc))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, catalogerr.ErrFormat) && !errors.Is(err, catalogerr.ErrInvalidArgument) {
				t.Errorf("err = %v, want format or invalid argument", err)
			}
		})
	}
}

func TestFind(t *testing.T) {
	db := loadSample(t)

	tests := []struct {
		name      string
		id        program.Identifier
		format    program.RomFormat
		cfgMust   bool
		wantTitle string
		wantErr   error
	}{
		{name: "by crc", id: program.Identifier{DataCrc: 0xFAB00001}, format: program.FormatRom, wantTitle: "Astrosmash"},
		{name: "cfg ignored", id: program.Identifier{DataCrc: 0xDEADBEEF, OtherData: 1}, format: program.FormatBin, wantTitle: "Homebrew"},
		{name: "cfg must match", id: program.Identifier{DataCrc: 0xDEADBEEF, OtherData: 1}, format: program.FormatBin, cfgMust: true, wantErr: ErrNotFound},
		{name: "cfg matches", id: program.Identifier{DataCrc: 0xDEADBEEF, OtherData: 0xC0DE}, format: program.FormatBin, cfgMust: true, wantTitle: "Homebrew"},
		{name: "code mismatch", id: program.Identifier{DataCrc: 0xFAB00001, Code: "other"}, format: program.FormatRom, wantErr: ErrNotFound},
		{name: "unknown", id: program.Identifier{DataCrc: 0x1}, format: program.FormatRom, wantErr: catalogerr.ErrKeyNotFound},
		{name: "invalid", id: program.InvalidIdentifier, format: program.FormatRom, wantErr: catalogerr.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := db.Find(tt.id, tt.format, tt.cfgMust)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Find: %v", err)
			}
			if info.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", info.Title, tt.wantTitle)
			}
		})
	}

	info, err := db.Find(program.Identifier{DataCrc: 0xFAB00001}, program.FormatRom, false)
	if err != nil {
		t.Fatal(err)
	}
	info.Title = "changed"
	again, _ := db.Find(program.Identifier{DataCrc: 0xFAB00001}, program.FormatRom, false)
	if again.Title != "Astrosmash" {
		t.Error("Find returned shared information")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "romdb.xml")
	if err := os.WriteFile(path, []byte(sampleDB), 0o644); err != nil {
		t.Fatal(err)
	}
	db, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if db.Len() != 3 {
		t.Errorf("Len = %d", db.Len())
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.xml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseBinConfig(t *testing.T) {
	for n := 0; n < NumStockConfigs; n++ {
		cfg, err := ParseBinConfig(strings.Repeat(" ", n%2) + string(rune('0'+n)))
		if err != nil {
			t.Fatalf("stock %d: %v", n, err)
		}
		if !strings.HasPrefix(string(cfg), "[mapping]") {
			t.Errorf("stock %d = %q", n, cfg)
		}
	}
	if _, err := ParseBinConfig(""); !errors.Is(err, catalogerr.ErrFormat) {
		t.Errorf("empty: err = %v", err)
	}
}
