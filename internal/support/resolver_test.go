/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package support

import (
	"context"
	"errors"
	"hash/crc32"
	"testing"

	"github.com/friendsincode/romcatalog/internal/catalogerr"
	"github.com/friendsincode/romcatalog/internal/program"
)

// memStorage is a map of path to contents.
type memStorage struct {
	files  map[string][]byte
	hashed []string
}

func newMemStorage(files map[string]string) *memStorage {
	m := &memStorage{files: make(map[string][]byte)}
	for k, v := range files {
		m.files[k] = []byte(v)
	}
	return m
}

func (m *memStorage) Exists(_ context.Context, path string) (bool, error) {
	_, ok := m.files[path]
	return ok, nil
}

func (m *memStorage) Crc32(_ context.Context, path string) (uint32, error) {
	data, ok := m.files[path]
	if !ok {
		return 0, errors.New("no such file")
	}
	m.hashed = append(m.hashed, path)
	return crc32.ChecksumIEEE(data), nil
}

type device string

func (d device) UniqueID() string { return string(d) }

func crcOf(s string) uint32 { return crc32.ChecksumIEEE([]byte(s)) }

func TestValidateRomImage(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		files      map[string]string
		rom        *program.Rom
		alternates []string
		opts       Options
		want       State
	}{
		{
			name:  "present and unchanged",
			files: map[string]string{"/roms/a.rom": "AAAA"},
			rom:   &program.Rom{Format: program.FormatRom, RomPath: "/roms/a.rom"},
			opts:  Options{ExpectedCrc: crcOf("AAAA"), ReportIfModified: true},
			want:  StatePresentAndUnchanged,
		},
		{
			name:  "present but modified",
			files: map[string]string{"/roms/a.rom": "AAAB"},
			rom:   &program.Rom{Format: program.FormatRom, RomPath: "/roms/a.rom"},
			opts:  Options{ExpectedCrc: crcOf("AAAA"), ReportIfModified: true},
			want:  StatePresentButModified,
		},
		{
			name:  "modification not requested",
			files: map[string]string{"/roms/a.rom": "AAAB"},
			rom:   &program.Rom{Format: program.FormatRom, RomPath: "/roms/a.rom"},
			opts:  Options{ExpectedCrc: crcOf("AAAA")},
			want:  StatePresentAndUnchanged,
		},
		{
			name:  "zero expected crc",
			files: map[string]string{"/roms/a.rom": "AAAB"},
			rom:   &program.Rom{Format: program.FormatRom, RomPath: "/roms/a.rom"},
			opts:  Options{ReportIfModified: true},
			want:  StatePresentAndUnchanged,
		},
		{
			name:  "missing",
			files: map[string]string{},
			rom:   &program.Rom{Format: program.FormatRom, RomPath: "/roms/a.rom"},
			want:  StateMissing,
		},
		{
			name:       "missing with unusable alternates",
			files:      map[string]string{},
			rom:        &program.Rom{Format: program.FormatRom, RomPath: "/roms/a.rom"},
			alternates: []string{"/backup/a.rom"},
			want:       StateMissing,
		},
		{
			name:       "missing with alternate found",
			files:      map[string]string{"/backup/b.rom": "AAAA"},
			rom:        &program.Rom{Format: program.FormatRom, RomPath: "/roms/a.rom"},
			alternates: []string{"/backup/a.rom", "/backup/b.rom"},
			want:       StateMissingWithAlternateFound,
		},
		{
			name:  "bin with config unchanged",
			files: map[string]string{"/roms/a.bin": "BIN", "/roms/a.cfg": "CFG"},
			rom:   &program.Rom{Format: program.FormatBin, RomPath: "/roms/a.bin", ConfigPath: "/roms/a.cfg"},
			opts: Options{
				ExpectedCrc:      program.CombineCrcs(program.FormatBin, crcOf("BIN"), crcOf("CFG")),
				ReportIfModified: true,
			},
			want: StatePresentAndUnchanged,
		},
		{
			name:  "bin with config modified",
			files: map[string]string{"/roms/a.bin": "BIN", "/roms/a.cfg": "CFG2"},
			rom:   &program.Rom{Format: program.FormatBin, RomPath: "/roms/a.bin", ConfigPath: "/roms/a.cfg"},
			opts: Options{
				ExpectedCrc:      program.CombineCrcs(program.FormatBin, crcOf("BIN"), crcOf("CFG")),
				ReportIfModified: true,
			},
			want: StatePresentButModified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStorage(tt.files)
			files := NewFiles(tt.rom)
			for _, alt := range tt.alternates {
				if err := files.AddAlternate(KindRomImage, alt); err != nil {
					t.Fatal(err)
				}
			}

			got, err := NewResolver(store, store).Validate(ctx, files, KindRomImage, tt.opts)
			if err != nil {
				t.Fatalf("validate: %v", err)
			}
			if got != tt.want {
				t.Errorf("state = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestValidateSkipsCrcWhenNotNeeded(t *testing.T) {
	store := newMemStorage(map[string]string{"/roms/a.rom": "AAAA"})
	files := NewFiles(&program.Rom{Format: program.FormatRom, RomPath: "/roms/a.rom"})

	if _, err := NewResolver(store, store).Validate(context.Background(), files, KindRomImage, Options{ReportIfModified: false, ExpectedCrc: 1}); err != nil {
		t.Fatal(err)
	}
	if len(store.hashed) != 0 {
		t.Fatalf("expected no crc computation, hashed %v", store.hashed)
	}
}

func TestValidateScrambledRom(t *testing.T) {
	ctx := context.Background()
	store := newMemStorage(map[string]string{"/roms/a.luigi": "LUIGI"})

	tests := []struct {
		name     string
		target   string
		attached []Peripheral
		history  []string
		want     State
	}{
		{name: "attached and matching", target: "dev1", attached: []Peripheral{device("dev0"), device("dev1")}, want: StateRequiredPeripheralAvailable},
		{name: "attached but different", target: "dev1", attached: []Peripheral{device("dev2")}, history: []string{"dev1"}, want: StateRequiredPeripheralIncompatible},
		{name: "seen before", target: "dev1", history: []string{"dev0", "dev1"}, want: StateRequiredPeripheralNotAttached},
		{name: "never seen", target: "dev1", history: []string{"dev0"}, want: StateRequiredPeripheralUnknown},
		{name: "any device attached", target: program.AnyDevice, attached: []Peripheral{device("dev9")}, want: StateRequiredPeripheralAvailable},
		{name: "any device with history", target: program.AnyDevice, history: []string{"dev9"}, want: StateRequiredPeripheralNotAttached},
		{name: "any device no history", target: program.AnyDevice, want: StateRequiredPeripheralUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := NewFiles(&program.Rom{Format: program.FormatLuigi, RomPath: "/roms/a.luigi", TargetDevice: tt.target})
			got, err := NewResolver(store, store).Validate(ctx, files, KindRomImage, Options{
				ExpectedCrc:      crcOf("something else"),
				ReportIfModified: true,
				Attached:         tt.attached,
				History:          tt.history,
			})
			if err != nil {
				t.Fatalf("validate: %v", err)
			}
			if got != tt.want {
				t.Errorf("state = %s, want %s", got, tt.want)
			}
		})
	}

	t.Run("missing scrambled image", func(t *testing.T) {
		files := NewFiles(&program.Rom{Format: program.FormatLuigi, RomPath: "/roms/gone.luigi", TargetDevice: "dev1"})
		got, err := NewResolver(store, store).Validate(ctx, files, KindRomImage, Options{})
		if err != nil {
			t.Fatal(err)
		}
		if got != StateMissing {
			t.Errorf("state = %s, want %s", got, StateMissing)
		}
	})
}

func TestValidateOtherKinds(t *testing.T) {
	ctx := context.Background()
	store := newMemStorage(map[string]string{"/art/box.png": "PNG", "/art/box2.png": "PNG2"})
	files := NewFiles(&program.Rom{Format: program.FormatRom, RomPath: "/roms/a.rom"})
	r := NewResolver(store, store)

	got, err := r.Validate(ctx, files, KindManualText, Options{})
	if err != nil || got != StateNone {
		t.Fatalf("no manual: state = %s, err = %v", got, err)
	}

	got, err = r.Validate(ctx, files, KindCfgFile, Options{})
	if err != nil || got != StateNone {
		t.Fatalf("no cfg: state = %s, err = %v", got, err)
	}

	if err := files.Add(KindBoxArt, "/art/box.png"); err != nil {
		t.Fatal(err)
	}
	got, err = r.Validate(ctx, files, KindBoxArt, Options{ExpectedCrc: crcOf("PNG"), ReportIfModified: true})
	if err != nil || got != StatePresentAndUnchanged {
		t.Fatalf("box art: state = %s, err = %v", got, err)
	}

	got, err = r.Validate(ctx, files, KindBoxArt, Options{ExpectedCrc: crcOf("other"), ReportIfModified: true})
	if err != nil || got != StatePresentButModified {
		t.Fatalf("box art modified: state = %s, err = %v", got, err)
	}
}

func TestValidateErrors(t *testing.T) {
	ctx := context.Background()
	store := newMemStorage(nil)
	r := NewResolver(store, store)

	if _, err := r.Validate(ctx, NewFiles(nil), KindRomImage, Options{}); !errors.Is(err, catalogerr.ErrNullSubject) {
		t.Errorf("no rom: expected ErrNullSubject, got %v", err)
	}
	if _, err := r.Validate(ctx, NewFiles(nil), KindCfgFile, Options{}); !errors.Is(err, catalogerr.ErrNullSubject) {
		t.Errorf("no rom cfg: expected ErrNullSubject, got %v", err)
	}
	if _, err := r.Validate(ctx, NewFiles(&program.Rom{}), KindRomImage, Options{}); !errors.Is(err, catalogerr.ErrInvalidArgument) {
		t.Errorf("invalid rom: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := r.Validate(ctx, NewFiles(&program.Rom{RomPath: "x"}), Kind(42), Options{}); !errors.Is(err, catalogerr.ErrKeyNotFound) {
		t.Errorf("unknown kind: expected ErrKeyNotFound, got %v", err)
	}
}
