/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package features

import "testing"

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		category Category
		text     string
		want     uint32
	}{
		{name: "ntsc enhances", category: CategoryNtsc, text: "2", want: uint32(Enhances)},
		{name: "ntsc requires lowered", category: CategoryNtsc, text: "3", want: uint32(Enhances)},
		{name: "pal requires by name", category: CategoryPal, text: "requires", want: uint32(Enhances)},
		{name: "platform garbage", category: CategoryIntellivisionII, text: "abc", want: uint32(Tolerates)},
		{name: "platform out of range", category: CategoryTutorvision, text: "7", want: uint32(Tolerates)},
		{name: "device garbage", category: CategoryIntellivoice, text: "-1", want: uint32(Incompatible)},
		{name: "device requires", category: CategoryIntellivoice, text: "3", want: uint32(Requires)},
		{name: "ecs flags", category: CategoryEcs, text: "9", want: uint32(EcsTape | Ecs(Tolerates))},
		{name: "ecs invalid bits", category: CategoryEcs, text: "4096", want: uint32(Incompatible)},
		{name: "general flags", category: CategoryGeneral, text: "6", want: uint32(PageFlipping | OnboardRam)},
		{name: "empty text", category: CategoryPal, text: "", want: uint32(Tolerates)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decode(tt.category, tt.text); got != tt.want {
				t.Errorf("Decode(%s, %q) = %d, want %d", tt.category, tt.text, got, tt.want)
			}
		})
	}
}

func TestMaskKeepsLegalValues(t *testing.T) {
	tests := []struct {
		name     string
		category Category
		value    uint32
		want     uint32
	}{
		{name: "ntsc requires kept", category: CategoryNtsc, value: uint32(Requires), want: uint32(Requires)},
		{name: "pal requires kept", category: CategoryPal, value: uint32(Requires), want: uint32(Requires)},
		{name: "platform invalid bits", category: CategoryPal, value: 7, want: uint32(Tolerates)},
		{name: "device invalid bits", category: CategoryEcs, value: 4096, want: uint32(Incompatible)},
		{name: "unknown category", category: Category(99), value: 1, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Mask(tt.category, tt.value); got != tt.want {
				t.Errorf("Mask(%s, %d) = %d, want %d", tt.category, tt.value, got, tt.want)
			}
		})
	}
	if got := Coerce(CategoryNtsc, uint32(Requires)); got != uint32(Enhances) {
		t.Errorf("Coerce(ntsc, requires) = %d, want %d", got, Enhances)
	}
}

func TestEncodeDecodeAllCategories(t *testing.T) {
	s := Default()
	s.Ntsc = Enhances
	s.General = PageFlipping
	s.LtoFlash = LtoFlashSaveDataRequired | LtoFlash(Requires)

	d := Empty()
	for _, c := range Categories() {
		text, err := s.Encode(c)
		if err != nil {
			t.Fatalf("encode %s: %v", c, err)
		}
		if err := d.DecodeInto(c, text); err != nil {
			t.Fatalf("decode %s: %v", c, err)
		}
	}
	d.JlpHardwareVersion = s.JlpHardwareVersion
	d.JlpFlashMinimumSaveSectors = s.JlpFlashMinimumSaveSectors

	if !d.Equal(s) {
		t.Fatalf("decoded set %+v differs from %+v", *d, *s)
	}
}

func TestDecodeJlpFields(t *testing.T) {
	if v := DecodeJlpHardwareVersion("2"); v != Jlp04 {
		t.Errorf("got %s, want Jlp04", v)
	}
	if v := DecodeJlpHardwareVersion("9"); v != JlpNone {
		t.Errorf("got %s, want None", v)
	}
	if n := DecodeSaveSectors("40"); n != 40 {
		t.Errorf("got %d, want 40", n)
	}
	if n := DecodeSaveSectors("70000"); n != 0 {
		t.Errorf("got %d, want 0", n)
	}
}
