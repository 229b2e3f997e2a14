/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package description

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/friendsincode/romcatalog/internal/catalogerr"
	"github.com/friendsincode/romcatalog/internal/features"
	"github.com/friendsincode/romcatalog/internal/program"
	"github.com/friendsincode/romcatalog/internal/support"
)

// Record is the serialized form of a Description. It is written as XML by
// Encode and stored as JSON by the catalog.
type Record struct {
	XMLName   xml.Name        `xml:"ProgramDescription" json:"-"`
	Crc       string          `xml:"crc,attr" json:"crc"`
	Origin    string          `xml:"origin,attr,omitempty" json:"origin,omitempty"`
	Code      string          `xml:"Code,omitempty" json:"code,omitempty"`
	Name      string          `xml:"Name" json:"name"`
	ShortName string          `xml:"ShortName,omitempty" json:"short_name,omitempty"`
	Vendor    string          `xml:"Vendor" json:"vendor"`
	Year      string          `xml:"Year" json:"year"`
	Features  *FeaturesRecord `xml:"Features,omitempty" json:"features,omitempty"`
	Files     FilesRecord     `xml:"Files" json:"files"`
	Crcs      []CrcRecord     `xml:"Crcs>Crc" json:"crcs"`
	Metadata  *MetadataRecord `xml:"Metadata,omitempty" json:"metadata,omitempty"`
}

// MetadataRecord holds the extended metadata sequences. Dates are written as
// YYYY-MM-DD.
type MetadataRecord struct {
	Descriptions          []string `xml:"Description" json:"descriptions,omitempty"`
	Publishers            []string `xml:"Publisher" json:"publishers,omitempty"`
	Programmers           []string `xml:"Programmer" json:"programmers,omitempty"`
	Designers             []string `xml:"Designer" json:"designers,omitempty"`
	Graphics              []string `xml:"Graphics" json:"graphics,omitempty"`
	Music                 []string `xml:"Music" json:"music,omitempty"`
	SoundEffects          []string `xml:"SoundEffects" json:"sound_effects,omitempty"`
	Voices                []string `xml:"Voices" json:"voices,omitempty"`
	Documentation         []string `xml:"Documentation" json:"documentation,omitempty"`
	Artwork               []string `xml:"Artwork" json:"artwork,omitempty"`
	ReleaseDates          []string `xml:"ReleaseDate" json:"release_dates,omitempty"`
	Licenses              []string `xml:"License" json:"licenses,omitempty"`
	ContactInformation    []string `xml:"ContactInformation" json:"contact_information,omitempty"`
	Versions              []string `xml:"Version" json:"versions,omitempty"`
	BuildDates            []string `xml:"BuildDate" json:"build_dates,omitempty"`
	AdditionalInformation []string `xml:"AdditionalInformation" json:"additional_information,omitempty"`
}

// DateLayout is the layout of metadata dates.
const DateLayout = "2006-01-02"

// FeaturesRecord holds the raw value of every feature category.
type FeaturesRecord struct {
	Ntsc                       uint32 `xml:"Ntsc" json:"ntsc"`
	Pal                        uint32 `xml:"Pal" json:"pal"`
	General                    uint32 `xml:"General" json:"general"`
	KeyboardComponent          uint32 `xml:"KeyboardComponent" json:"keyboard_component"`
	SuperVideoArcade           uint32 `xml:"SuperVideoArcade" json:"super_video_arcade"`
	Intellivoice               uint32 `xml:"Intellivoice" json:"intellivoice"`
	IntellivisionII            uint32 `xml:"IntellivisionII" json:"intellivision_ii"`
	Ecs                        uint32 `xml:"Ecs" json:"ecs"`
	Tutorvision                uint32 `xml:"Tutorvision" json:"tutorvision"`
	Intellicart                uint32 `xml:"Intellicart" json:"intellicart"`
	CuttleCart3                uint32 `xml:"CuttleCart3" json:"cuttle_cart_3"`
	Jlp                        uint32 `xml:"Jlp" json:"jlp"`
	JlpHardwareVersion         uint8  `xml:"JlpHardwareVersion" json:"jlp_hardware_version"`
	JlpFlashMinimumSaveSectors uint16 `xml:"JlpFlashMinimumSaveSectors" json:"jlp_flash_minimum_save_sectors"`
	LtoFlash                   uint32 `xml:"LtoFlash" json:"lto_flash"`
	Bee3                       uint32 `xml:"Bee3" json:"bee3"`
	Hive                       uint32 `xml:"Hive" json:"hive"`
}

// FilesRecord holds the ROM reference and every support file path.
type FilesRecord struct {
	RomFormat                          string              `xml:"RomFormat" json:"rom_format"`
	RomImagePath                       string              `xml:"RomImagePath" json:"rom_image_path"`
	RomConfigurationFilePath           string              `xml:"RomConfigurationFilePath" json:"rom_configuration_file_path"`
	RomCrc                             string              `xml:"RomCrc,omitempty" json:"rom_crc,omitempty"`
	CfgCrc                             string              `xml:"CfgCrc,omitempty" json:"cfg_crc,omitempty"`
	TargetDevice                       string              `xml:"TargetDevice,omitempty" json:"target_device,omitempty"`
	AlternateRomImagePaths             []string            `xml:"AlternateRomImagePaths>Path" json:"alternate_rom_image_paths"`
	AlternateRomConfigurationFilePaths []string            `xml:"AlternateRomConfigurationFilePaths>Path" json:"alternate_rom_configuration_file_paths"`
	SupportFiles                       []SupportFileRecord `xml:"SupportFile" json:"support_files"`
}

// SupportFileRecord holds the paths of one kind of support file.
type SupportFileRecord struct {
	Kind       string   `xml:"kind,attr" json:"kind"`
	Default    string   `xml:"Default,omitempty" json:"default,omitempty"`
	Alternates []string `xml:"Alternate" json:"alternates"`
}

// CrcRecord is one entry of the program's CRC list.
type CrcRecord struct {
	Value             string `xml:"value,attr" json:"value"`
	Description       string `xml:"description,attr,omitempty" json:"description,omitempty"`
	Incompatibilities uint32 `xml:"incompatibilities,attr,omitempty" json:"incompatibilities,omitempty"`
	BinConfigTemplate string `xml:",chardata" json:"bin_config_template,omitempty"`
}

// FormatCrc renders a CRC the way records store it.
func FormatCrc(crc uint32) string {
	return fmt.Sprintf("0x%08X", crc)
}

// ParseCrc accepts hexadecimal with or without a 0x prefix.
func ParseCrc(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("parse crc %q: %w", s, catalogerr.ErrFormat)
	}
	return uint32(v), nil
}

func parseOptionalCrc(s string) (uint32, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	return ParseCrc(s)
}

// Record returns the serialized form of d.
func (d *Description) Record() Record {
	rec := Record{
		Crc:       FormatCrc(d.crc),
		Origin:    string(d.info.Origin),
		Metadata:  metadataRecord(d.info.Metadata),
		Code:      d.info.Code,
		Name:      d.info.Title,
		ShortName: d.info.ShortName,
		Vendor:    d.info.Vendor,
		Year:      d.info.Year,
		Features:  featuresRecord(d.info.Features),
		Crcs:      []CrcRecord{},
	}

	for _, r := range d.info.Crcs.Records() {
		rec.Crcs = append(rec.Crcs, CrcRecord{
			Value:             FormatCrc(r.Crc()),
			Description:       r.Description(),
			Incompatibilities: uint32(r.Incompatibilities()),
			BinConfigTemplate: string(r.BinConfigTemplate()),
		})
	}

	files := FilesRecord{SupportFiles: []SupportFileRecord{}}
	if rom := d.files.Rom; rom != nil {
		files.RomFormat = rom.Format.String()
		files.RomImagePath = rom.RomPath
		files.RomConfigurationFilePath = rom.ConfigPath
		if rom.Crc != 0 {
			files.RomCrc = FormatCrc(rom.Crc)
		}
		if rom.CfgCrc != 0 {
			files.CfgCrc = FormatCrc(rom.CfgCrc)
		}
		files.TargetDevice = rom.TargetDevice
	}
	files.AlternateRomImagePaths, _ = d.files.Alternates(support.KindRomImage)
	files.AlternateRomConfigurationFilePaths, _ = d.files.Alternates(support.KindCfgFile)

	for _, k := range support.Kinds() {
		if k == support.KindRomImage || k == support.KindCfgFile {
			continue
		}
		def, _ := d.files.DefaultPath(k)
		alts, _ := d.files.Alternates(k)
		if def == "" && len(alts) == 0 {
			continue
		}
		files.SupportFiles = append(files.SupportFiles, SupportFileRecord{
			Kind:       k.String(),
			Default:    def,
			Alternates: alts,
		})
	}
	rec.Files = files
	return rec
}

// FromRecord rebuilds a description. The record's CRC must appear in its
// CRC list.
func FromRecord(rec Record) (*Description, error) {
	crc, err := ParseCrc(rec.Crc)
	if err != nil {
		return nil, err
	}

	md, err := rec.Metadata.metadata()
	if err != nil {
		return nil, err
	}
	info := &program.Information{
		Origin:    program.Origin(rec.Origin),
		Metadata:  md,
		Code:      rec.Code,
		Title:     rec.Name,
		ShortName: rec.ShortName,
		Vendor:    rec.Vendor,
		Year:      rec.Year,
		Features:  rec.Features.set(),
	}
	for _, c := range rec.Crcs {
		v, err := ParseCrc(c.Value)
		if err != nil {
			return nil, err
		}
		var tmpl []byte
		if c.BinConfigTemplate != "" {
			tmpl = []byte(c.BinConfigTemplate)
		}
		r, err := program.NewCrcRecord(v, c.Description, program.Incompatibilities(c.Incompatibilities), tmpl)
		if err != nil {
			return nil, err
		}
		info.Crcs.Add(r)
	}

	var rom *program.Rom
	f := rec.Files
	if f.RomImagePath != "" || f.RomConfigurationFilePath != "" || f.RomFormat != "" {
		rom = program.NewRom(f.RomImagePath, f.RomConfigurationFilePath)
		if f.RomFormat != "" {
			rom.Format = program.ParseRomFormat(f.RomFormat)
		}
		if rom.Crc, err = parseOptionalCrc(f.RomCrc); err != nil {
			return nil, err
		}
		if rom.CfgCrc, err = parseOptionalCrc(f.CfgCrc); err != nil {
			return nil, err
		}
		rom.TargetDevice = f.TargetDevice
	}

	d, err := New(crc, rom, info)
	if err != nil {
		return nil, err
	}

	for _, p := range f.AlternateRomImagePaths {
		if err := d.files.AddAlternate(support.KindRomImage, p); err != nil {
			return nil, err
		}
	}
	for _, p := range f.AlternateRomConfigurationFilePaths {
		if err := d.files.AddAlternate(support.KindCfgFile, p); err != nil {
			return nil, err
		}
	}
	for _, sf := range f.SupportFiles {
		k, err := support.ParseKind(sf.Kind)
		if err != nil {
			return nil, err
		}
		if sf.Default != "" {
			if err := d.files.Add(k, sf.Default); err != nil {
				return nil, err
			}
		}
		for _, p := range sf.Alternates {
			if err := d.files.AddAlternate(k, p); err != nil {
				return nil, err
			}
		}
	}
	return d, nil
}

// Encode writes d as an indented XML document.
func Encode(w io.Writer, d *Description) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(d.Record()); err != nil {
		return fmt.Errorf("encode description %s: %w", FormatCrc(d.crc), err)
	}
	return enc.Flush()
}

// Decode reads a description written by Encode.
func Decode(r io.Reader) (*Description, error) {
	var rec Record
	if err := xml.NewDecoder(r).Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode description: %w: %w", catalogerr.ErrFormat, err)
	}
	return FromRecord(rec)
}

func featuresRecord(fs *features.Set) *FeaturesRecord {
	if fs == nil {
		return nil
	}
	return &FeaturesRecord{
		Ntsc:                       uint32(fs.Ntsc),
		Pal:                        uint32(fs.Pal),
		General:                    uint32(fs.General),
		KeyboardComponent:          uint32(fs.KeyboardComponent),
		SuperVideoArcade:           uint32(fs.SuperVideoArcade),
		Intellivoice:               uint32(fs.Intellivoice),
		IntellivisionII:            uint32(fs.IntellivisionII),
		Ecs:                        uint32(fs.Ecs),
		Tutorvision:                uint32(fs.Tutorvision),
		Intellicart:                uint32(fs.Intellicart),
		CuttleCart3:                uint32(fs.CuttleCart3),
		Jlp:                        uint32(fs.Jlp),
		JlpHardwareVersion:         uint8(fs.JlpHardwareVersion),
		JlpFlashMinimumSaveSectors: fs.JlpFlashMinimumSaveSectors,
		LtoFlash:                   uint32(fs.LtoFlash),
		Bee3:                       uint32(fs.Bee3),
		Hive:                       uint32(fs.Hive),
	}
}

// set converts the record back. Values with bits outside a category's mask
// fall back to the category default; legal values are kept as stored.
func (r *FeaturesRecord) set() *features.Set {
	if r == nil {
		return nil
	}
	c := features.Mask
	fs := &features.Set{
		Ntsc:                       features.Compatibility(c(features.CategoryNtsc, r.Ntsc)),
		Pal:                        features.Compatibility(c(features.CategoryPal, r.Pal)),
		General:                    features.General(c(features.CategoryGeneral, r.General)),
		KeyboardComponent:          features.KeyboardComponent(c(features.CategoryKeyboardComponent, r.KeyboardComponent)),
		SuperVideoArcade:           features.Compatibility(c(features.CategorySuperVideoArcade, r.SuperVideoArcade)),
		Intellivoice:               features.Compatibility(c(features.CategoryIntellivoice, r.Intellivoice)),
		IntellivisionII:            features.Compatibility(c(features.CategoryIntellivisionII, r.IntellivisionII)),
		Ecs:                        features.Ecs(c(features.CategoryEcs, r.Ecs)),
		Tutorvision:                features.Compatibility(c(features.CategoryTutorvision, r.Tutorvision)),
		Intellicart:                features.Intellicart(c(features.CategoryIntellicart, r.Intellicart)),
		CuttleCart3:                features.CuttleCart3(c(features.CategoryCuttleCart3, r.CuttleCart3)),
		Jlp:                        features.Jlp(c(features.CategoryJlp, r.Jlp)),
		JlpHardwareVersion:         features.JlpHardwareVersion(r.JlpHardwareVersion),
		JlpFlashMinimumSaveSectors: r.JlpFlashMinimumSaveSectors,
		LtoFlash:                   features.LtoFlash(c(features.CategoryLtoFlash, r.LtoFlash)),
		Bee3:                       features.Bee3(c(features.CategoryBee3, r.Bee3)),
		Hive:                       features.Hive(c(features.CategoryHive, r.Hive)),
	}
	if fs.JlpHardwareVersion > features.Jlp05 {
		fs.JlpHardwareVersion = features.JlpNone
	}
	return fs
}

func metadataRecord(m *program.Metadata) *MetadataRecord {
	if m == nil {
		return nil
	}
	m = m.Clone()
	return &MetadataRecord{
		Descriptions:          m.Descriptions,
		Publishers:            m.Publishers,
		Programmers:           m.Programmers,
		Designers:             m.Designers,
		Graphics:              m.Graphics,
		Music:                 m.Music,
		SoundEffects:          m.SoundEffects,
		Voices:                m.Voices,
		Documentation:         m.Documentation,
		Artwork:               m.Artwork,
		ReleaseDates:          formatDates(m.ReleaseDates),
		Licenses:              m.Licenses,
		ContactInformation:    m.ContactInformation,
		Versions:              m.Versions,
		BuildDates:            formatDates(m.BuildDates),
		AdditionalInformation: m.AdditionalInformation,
	}
}

func (r *MetadataRecord) metadata() (*program.Metadata, error) {
	if r == nil {
		return nil, nil
	}
	releases, err := parseDates(r.ReleaseDates)
	if err != nil {
		return nil, err
	}
	builds, err := parseDates(r.BuildDates)
	if err != nil {
		return nil, err
	}
	return &program.Metadata{
		Descriptions:          texts(r.Descriptions),
		Publishers:            texts(r.Publishers),
		Programmers:           texts(r.Programmers),
		Designers:             texts(r.Designers),
		Graphics:              texts(r.Graphics),
		Music:                 texts(r.Music),
		SoundEffects:          texts(r.SoundEffects),
		Voices:                texts(r.Voices),
		Documentation:         texts(r.Documentation),
		Artwork:               texts(r.Artwork),
		ReleaseDates:          releases,
		Licenses:              texts(r.Licenses),
		ContactInformation:    texts(r.ContactInformation),
		Versions:              texts(r.Versions),
		BuildDates:            builds,
		AdditionalInformation: texts(r.AdditionalInformation),
	}, nil
}

// texts copies a decoded sequence; an absent one becomes empty, not nil.
func texts(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func formatDates(dates []time.Time) []string {
	if len(dates) == 0 {
		return nil
	}
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format(DateLayout)
	}
	return out
}

func parseDates(text []string) ([]time.Time, error) {
	out := make([]time.Time, 0, len(text))
	for _, s := range text {
		t, err := time.Parse(DateLayout, strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", s, catalogerr.ErrFormat)
		}
		out = append(out, t)
	}
	return out, nil
}
