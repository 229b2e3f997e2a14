/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package overrides loads user-maintained corrections to program
// information from a YAML file.
package overrides

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/friendsincode/romcatalog/internal/catalogerr"
	"github.com/friendsincode/romcatalog/internal/features"
	"github.com/friendsincode/romcatalog/internal/program"
)

// Entry is one override as written in the file. Only the fields present
// take part in merging.
type Entry struct {
	Crc            string            `yaml:"crc"`
	Title          string            `yaml:"title,omitempty"`
	ShortName      string            `yaml:"short_name,omitempty"`
	Vendor         string            `yaml:"vendor,omitempty"`
	Year           string            `yaml:"year,omitempty"`
	Features       map[string]string `yaml:"features,omitempty"`
	JlpVersion     string            `yaml:"jlp_version,omitempty"`
	JlpSaveSectors string            `yaml:"jlp_save_sectors,omitempty"`
}

type file struct {
	Programs []Entry `yaml:"programs"`
}

// Overrides is the loaded file, indexed by CRC.
type Overrides struct {
	sources map[uint32]program.Source
}

// LoadFile reads overrides from path. A missing file yields an empty set.
func LoadFile(path string) (*Overrides, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return &Overrides{sources: map[uint32]program.Source{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open overrides: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses an overrides document.
func Load(r io.Reader) (*Overrides, error) {
	var doc file
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse overrides: %w: %w", catalogerr.ErrFormat, err)
	}

	o := &Overrides{sources: make(map[uint32]program.Source, len(doc.Programs))}
	for i, e := range doc.Programs {
		crc, src, err := e.source()
		if err != nil {
			return nil, fmt.Errorf("override %d: %w", i+1, err)
		}
		if _, dup := o.sources[crc]; dup {
			return nil, fmt.Errorf("override %d: crc 0x%08X listed twice: %w", i+1, crc, catalogerr.ErrInvalidArgument)
		}
		o.sources[crc] = src
	}
	return o, nil
}

// Len is the number of overridden programs.
func (o *Overrides) Len() int { return len(o.sources) }

// Lookup returns the merge source for crc. The information is a copy.
func (o *Overrides) Lookup(crc uint32) (program.Source, bool) {
	src, ok := o.sources[crc]
	if !ok {
		return program.Source{}, false
	}
	return program.Source{Info: src.Info.Clone(), Fields: src.Fields}, true
}

// ParseCrc accepts 0x-prefixed hexadecimal or decimal.
func ParseCrc(text string) (uint32, error) {
	text = strings.TrimSpace(text)
	v, err := strconv.ParseUint(text, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("crc %q: %w", text, catalogerr.ErrFormat)
	}
	return uint32(v), nil
}

func (e Entry) source() (uint32, program.Source, error) {
	crc, err := ParseCrc(e.Crc)
	if err != nil {
		return 0, program.Source{}, err
	}

	info := &program.Information{
		Origin:    program.OriginUser,
		Title:     e.Title,
		ShortName: e.ShortName,
		Vendor:    e.Vendor,
		Year:      e.Year,
	}
	if _, err := info.AddCrc(crc, "", program.IncompatibleNone); err != nil {
		return 0, program.Source{}, err
	}

	fields := program.FieldCrcs
	if e.Title != "" {
		fields |= program.FieldTitle
	}
	if e.ShortName != "" {
		fields |= program.FieldShortName
	}
	if e.Vendor != "" {
		fields |= program.FieldVendor
	}
	if e.Year != "" {
		fields |= program.FieldYear
	}

	if len(e.Features) > 0 || e.JlpVersion != "" || e.JlpSaveSectors != "" {
		fs := features.Default()
		for name, text := range e.Features {
			cat, err := features.ParseCategory(name)
			if err != nil {
				return 0, program.Source{}, err
			}
			if err := fs.DecodeInto(cat, text); err != nil {
				return 0, program.Source{}, err
			}
		}
		if e.JlpVersion != "" {
			fs.JlpHardwareVersion = features.DecodeJlpHardwareVersion(e.JlpVersion)
		}
		if e.JlpSaveSectors != "" {
			fs.JlpFlashMinimumSaveSectors = features.DecodeSaveSectors(e.JlpSaveSectors)
		}
		info.Features = fs
		fields |= program.FieldFeatures
	}

	return crc, program.Source{Info: info, Fields: fields}, nil
}
