/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package description

import (
	"bytes"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/friendsincode/romcatalog/internal/catalogerr"
	"github.com/friendsincode/romcatalog/internal/features"
	"github.com/friendsincode/romcatalog/internal/program"
	"github.com/friendsincode/romcatalog/internal/support"
)

func sampleDescription(t *testing.T) *Description {
	t.Helper()

	info := &program.Information{
		Origin: program.OriginMerged,
		Code:   "astro",
		Title:  "Astrosmash",
		Vendor: "Mattel",
		Year:   "1981",
		Metadata: &program.Metadata{
			Programmers:  []string{"John Sohl"},
			ReleaseDates: []time.Time{time.Date(1981, 10, 1, 0, 0, 0, 0, time.UTC)},
		},
	}
	if _, err := info.AddCrc(0xFAB00001, "", program.IncompatibleNone); err != nil {
		t.Fatal(err)
	}
	if _, err := info.AddCrc(0xFAB00002, "PAL", program.IncompatibleNtsc); err != nil {
		t.Fatal(err)
	}

	fs := features.Default()
	fs.Intellivoice = features.Enhances
	fs.Ecs = features.Ecs(features.Requires) | features.EcsSynthesizer
	fs.JlpHardwareVersion = features.Jlp04
	fs.JlpFlashMinimumSaveSectors = 12
	info.Features = fs

	rom := program.NewRom("/roms/astro.bin", "/roms/astro.cfg")
	rom.Crc = 0xFAB00001
	rom.CfgCrc = 0x00C0FFEE

	d, err := New(0xFAB00001, rom, info)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	files := d.Files()
	for _, p := range []string{"/alt/1.bin", "/alt/2.bin", "/alt/2.bin"} {
		if err := files.AddAlternate(support.KindRomImage, p); err != nil {
			t.Fatal(err)
		}
	}
	if err := files.AddAlternate(support.KindCfgFile, "/alt/1.cfg"); err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{"/art/box.png", "/art/box-back.png"} {
		if err := files.Add(support.KindBoxArt, p); err != nil {
			t.Fatal(err)
		}
	}
	if err := files.Add(support.KindManualText, "/doc/astro.txt"); err != nil {
		t.Fatal(err)
	}
	return d
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	d := sampleDescription(t)

	var buf bytes.Buffer
	if err := Encode(&buf, d); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(buf.String(), `crc="0xFAB00001"`) {
		t.Errorf("document is not keyed by crc:\n%s", buf.String())
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if got.Crc() != d.Crc() {
		t.Errorf("Crc = %#x, want %#x", got.Crc(), d.Crc())
	}
	if got.Name() != d.Name() || got.Vendor() != d.Vendor() || got.Year() != d.Year() {
		t.Errorf("got %q/%q/%q", got.Name(), got.Vendor(), got.Year())
	}
	if !got.Features().Equal(d.Features()) {
		t.Errorf("features = %+v, want %+v", got.Features(), d.Features())
	}
	if *got.Rom() != *d.Rom() {
		t.Errorf("rom = %+v, want %+v", got.Rom(), d.Rom())
	}
	if got.Information().Crcs.Len() != 2 {
		t.Errorf("crc records = %d, want 2", got.Information().Crcs.Len())
	}
	if r, ok := got.Information().Crcs.Find(0xFAB00002); !ok || r.Description() != "PAL" || r.Incompatibilities() != program.IncompatibleNtsc {
		t.Errorf("crc record = %v, %v", r, ok)
	}
	if got.Information().Origin != program.OriginMerged || got.Information().Code != "astro" {
		t.Errorf("origin/code = %q/%q", got.Information().Origin, got.Information().Code)
	}
	md := got.Information().Metadata
	if md == nil || !slices.Equal(md.Programmers, []string{"John Sohl"}) || len(md.ReleaseDates) != 1 || md.ReleaseDates[0].Year() != 1981 {
		t.Errorf("metadata = %+v", md)
	}

	for _, k := range support.Kinds() {
		wantDef, _ := d.Files().DefaultPath(k)
		gotDef, _ := got.Files().DefaultPath(k)
		if gotDef != wantDef {
			t.Errorf("%s default = %q, want %q", k, gotDef, wantDef)
		}
		wantAlts, _ := d.Files().Alternates(k)
		gotAlts, _ := got.Files().Alternates(k)
		if !slices.Equal(gotAlts, wantAlts) {
			t.Errorf("%s alternates = %v, want %v", k, gotAlts, wantAlts)
		}
	}
}

func TestDecodeEmptyCollections(t *testing.T) {
	doc := `<ProgramDescription crc="0x00000042">
  <Name>Bare</Name>
  <Crcs><Crc value="0x42"/></Crcs>
</ProgramDescription>`

	d, err := Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if d.Rom() != nil {
		t.Errorf("rom = %+v, want nil", d.Rom())
	}
	if d.Features() != nil {
		t.Errorf("features = %+v, want nil", d.Features())
	}
	for _, k := range support.Kinds() {
		alts, err := d.Files().Alternates(k)
		if err != nil {
			t.Fatal(err)
		}
		if alts == nil {
			t.Errorf("%s alternates are nil", k)
		}
	}

	rec := d.Record()
	if rec.Crcs == nil || rec.Files.SupportFiles == nil || rec.Files.AlternateRomImagePaths == nil {
		t.Errorf("record has nil collections: %+v", rec)
	}
}

func TestFeaturesRoundTripExactly(t *testing.T) {
	tests := []struct {
		name  string
		apply func(fs *features.Set)
	}{
		{name: "ntsc requires", apply: func(fs *features.Set) { fs.Ntsc = features.Requires }},
		{name: "pal requires", apply: func(fs *features.Set) { fs.Pal = features.Requires }},
		{name: "both requires", apply: func(fs *features.Set) {
			fs.Ntsc = features.Requires
			fs.Pal = features.Requires
		}},
		{name: "set through compatibility", apply: func(fs *features.Set) {
			if err := fs.SetCompatibility(features.CategoryPal, features.Requires); err != nil {
				t.Fatal(err)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := sampleDescription(t)
			fs := d.Features().Clone()
			tt.apply(fs)
			d.SetFeatures(fs)

			var buf bytes.Buffer
			if err := Encode(&buf, d); err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got, err := Decode(&buf)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !got.Features().Equal(fs) {
				t.Errorf("features = %+v, want %+v", *got.Features(), *fs)
			}
		})
	}
}

func TestDecodeMetadataSequencesNeverNil(t *testing.T) {
	doc := `<ProgramDescription crc="0x00000042">
  <Crcs><Crc value="0x42"/></Crcs>
  <Metadata><Programmer>Jane</Programmer></Metadata>
</ProgramDescription>`

	d, err := Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	md := d.Information().Metadata
	if md == nil {
		t.Fatal("metadata is nil")
	}
	if !slices.Equal(md.Programmers, []string{"Jane"}) {
		t.Errorf("programmers = %v", md.Programmers)
	}
	for name, seq := range map[string][]string{
		"descriptions":           md.Descriptions,
		"publishers":             md.Publishers,
		"designers":              md.Designers,
		"graphics":               md.Graphics,
		"music":                  md.Music,
		"sound effects":          md.SoundEffects,
		"voices":                 md.Voices,
		"documentation":          md.Documentation,
		"artwork":                md.Artwork,
		"licenses":               md.Licenses,
		"contact information":    md.ContactInformation,
		"versions":               md.Versions,
		"additional information": md.AdditionalInformation,
	} {
		if seq == nil {
			t.Errorf("%s is nil", name)
		}
	}
	if md.ReleaseDates == nil || md.BuildDates == nil {
		t.Errorf("dates are nil: %v / %v", md.ReleaseDates, md.BuildDates)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{name: "not xml", doc: "garbage", want: catalogerr.ErrFormat},
		{name: "bad crc", doc: `<ProgramDescription crc="zz"><Crcs><Crc value="0x1"/></Crcs></ProgramDescription>`, want: catalogerr.ErrFormat},
		{name: "crc not listed", doc: `<ProgramDescription crc="0x2"><Crcs><Crc value="0x1"/></Crcs></ProgramDescription>`, want: catalogerr.ErrInvalidOperation},
		{name: "unknown kind", doc: `<ProgramDescription crc="0x1"><Files><SupportFile kind="poster"><Default>/p.png</Default></SupportFile></Files><Crcs><Crc value="0x1"/></Crcs></ProgramDescription>`, want: catalogerr.ErrKeyNotFound},
		{name: "bad date", doc: `<ProgramDescription crc="0x1"><Crcs><Crc value="0x1"/></Crcs><Metadata><ReleaseDate>1981</ReleaseDate></Metadata></ProgramDescription>`, want: catalogerr.ErrFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc))
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}
