/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package romdb

import (
	"strings"
	"time"

	"github.com/friendsincode/romcatalog/internal/features"
	"github.com/friendsincode/romcatalog/internal/program"
)

// Column names of the database export.
const (
	ColCrc          = "crc"
	ColCfgCrc       = "crc_2"
	ColOrigin       = "origin"
	ColCode         = "code"
	ColTitle        = "title"
	ColShortName    = "short_name"
	ColVendor       = "vendor"
	ColYear         = "year"
	ColVariantName  = "name"
	ColFormat       = "format"
	ColDescription  = "description"
	ColReleaseDate  = "release_date"
	ColBuildDate    = "build_date"
	ColProgrammer   = "program"
	ColDesigner     = "concept"
	ColGraphics     = "game_graphics"
	ColMusic        = "music"
	ColSoundEffects = "soundfx"
	ColVoices       = "voices"
	ColDocs         = "game_docs"
	ColArt          = "box_art"
	ColLicense      = "license"
	ColContactInfo  = "contact_info"
	ColVersion      = "version"
	ColSource       = "source"
	ColOther        = "other"
	ColBinCfg       = "bin_cfg"

	ColGeneral           = "type"
	ColNtsc              = "ntsc"
	ColPal               = "pal"
	ColKeyboardComponent = "kc"
	ColSuperVideoArcade  = "sva"
	ColIntellivoice      = "ivoice"
	ColIntellivisionII   = "intyii"
	ColEcs               = "ecs"
	ColTutorvision       = "tutor"
	ColIntellicart       = "icart"
	ColCuttleCart3       = "cc3"
	ColJlp               = "jlp"
	ColJlpVersion        = "jlp_version"
	ColJlpSaveSectors    = "jlp_savegame"
	ColLtoFlash          = "lto_flash"
	ColBee3              = "bee3"
	ColHive              = "hive"
)

var featureColumns = map[string]features.Category{
	ColGeneral:           features.CategoryGeneral,
	ColNtsc:              features.CategoryNtsc,
	ColPal:               features.CategoryPal,
	ColKeyboardComponent: features.CategoryKeyboardComponent,
	ColSuperVideoArcade:  features.CategorySuperVideoArcade,
	ColIntellivoice:      features.CategoryIntellivoice,
	ColIntellivisionII:   features.CategoryIntellivisionII,
	ColEcs:               features.CategoryEcs,
	ColTutorvision:       features.CategoryTutorvision,
	ColIntellicart:       features.CategoryIntellicart,
	ColCuttleCart3:       features.CategoryCuttleCart3,
	ColJlp:               features.CategoryJlp,
	ColLtoFlash:          features.CategoryLtoFlash,
	ColBee3:              features.CategoryBee3,
	ColHive:              features.CategoryHive,
}

// metadataColumns maps list-valued columns onto the metadata sequence they
// feed. Source and other both land in AdditionalInformation, in that order.
var metadataColumns = []struct {
	column string
	field  func(*program.Metadata) *[]string
}{
	{ColDescription, func(m *program.Metadata) *[]string { return &m.Descriptions }},
	{ColVendor, func(m *program.Metadata) *[]string { return &m.Publishers }},
	{ColProgrammer, func(m *program.Metadata) *[]string { return &m.Programmers }},
	{ColDesigner, func(m *program.Metadata) *[]string { return &m.Designers }},
	{ColGraphics, func(m *program.Metadata) *[]string { return &m.Graphics }},
	{ColMusic, func(m *program.Metadata) *[]string { return &m.Music }},
	{ColSoundEffects, func(m *program.Metadata) *[]string { return &m.SoundEffects }},
	{ColVoices, func(m *program.Metadata) *[]string { return &m.Voices }},
	{ColDocs, func(m *program.Metadata) *[]string { return &m.Documentation }},
	{ColArt, func(m *program.Metadata) *[]string { return &m.Artwork }},
	{ColLicense, func(m *program.Metadata) *[]string { return &m.Licenses }},
	{ColContactInfo, func(m *program.Metadata) *[]string { return &m.ContactInformation }},
	{ColVersion, func(m *program.Metadata) *[]string { return &m.Versions }},
	{ColSource, func(m *program.Metadata) *[]string { return &m.AdditionalInformation }},
	{ColOther, func(m *program.Metadata) *[]string { return &m.AdditionalInformation }},
}

// listSeparator splits multi-valued cells.
const listSeparator = "|"

func splitList(text string) []string {
	var out []string
	for _, s := range strings.Split(text, listSeparator) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// parseDate accepts YYYY-MM-DD only. Partial or invalid dates report false.
func parseDate(text string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(text))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
