/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package program

import (
	"errors"
	"testing"

	"github.com/friendsincode/romcatalog/internal/catalogerr"
)

func TestCrcListRejectsDuplicates(t *testing.T) {
	var info Information

	added, err := info.AddCrc(0x44556677, "", IncompatibleNone)
	if err != nil || !added {
		t.Fatalf("first add: added=%v err=%v", added, err)
	}

	added, err = info.AddCrc(0x44556677, "(duplicate)", IncompatiblePal)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if added {
		t.Fatal("expected duplicate crc not to be added")
	}
	if info.Crcs.Len() != 1 {
		t.Fatalf("expected 1 record, got %d", info.Crcs.Len())
	}
	if r, _ := info.Crcs.Find(0x44556677); r.Description() != "" {
		t.Fatalf("duplicate add replaced the original record: %q", r.Description())
	}
}

func TestCrcRecordRejectsZero(t *testing.T) {
	if _, err := NewCrcRecord(0, "", IncompatibleNone, nil); !errors.Is(err, catalogerr.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestCrcRecordTemplateIsCopied(t *testing.T) {
	tmpl := []byte("[mapping]\n$0000 - $1FFF = $5000\n")
	r, err := NewCrcRecord(0x1234, "", IncompatibleNone, tmpl)
	if err != nil {
		t.Fatal(err)
	}
	tmpl[0] = 'X'
	got := r.BinConfigTemplate()
	if got[0] != '[' {
		t.Fatal("record aliases the caller's template")
	}
	got[0] = 'Y'
	if r.BinConfigTemplate()[0] != '[' {
		t.Fatal("record exposes its template")
	}
}

func TestCrcListPreservesOrder(t *testing.T) {
	var l CrcList
	for _, crc := range []uint32{3, 1, 2, 1, 3} {
		r, err := NewCrcRecord(crc, "", IncompatibleNone, nil)
		if err != nil {
			t.Fatal(err)
		}
		l.Add(r)
	}
	want := []uint32{3, 1, 2}
	got := l.Records()
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Crc() != want[i] {
			t.Errorf("record %d = %d, want %d", i, got[i].Crc(), want[i])
		}
	}
}
