/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package support

import (
	"context"
	"fmt"
	"slices"

	"github.com/friendsincode/romcatalog/internal/catalogerr"
	"github.com/friendsincode/romcatalog/internal/program"
)

// State is the outcome of validating a support file.
type State int

const (
	StateNone State = iota
	StateMissing
	StateMissingWithAlternateFound
	StatePresentAndUnchanged
	StatePresentButModified
	StateRequiredPeripheralAvailable
	StateRequiredPeripheralNotAttached
	StateRequiredPeripheralIncompatible
	StateRequiredPeripheralUnknown
)

var stateNames = map[State]string{
	StateNone:                           "none",
	StateMissing:                        "missing",
	StateMissingWithAlternateFound:      "missing_with_alternate_found",
	StatePresentAndUnchanged:            "present_and_unchanged",
	StatePresentButModified:             "present_but_modified",
	StateRequiredPeripheralAvailable:    "required_peripheral_available",
	StateRequiredPeripheralNotAttached:  "required_peripheral_not_attached",
	StateRequiredPeripheralIncompatible: "required_peripheral_incompatible",
	StateRequiredPeripheralUnknown:      "required_peripheral_unknown",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// States lists every state in declaration order.
func States() []State {
	out := make([]State, 0, len(stateNames))
	for s := StateNone; s <= StateRequiredPeripheralUnknown; s++ {
		out = append(out, s)
	}
	return out
}

// FileSystem answers whether a path exists on storage.
type FileSystem interface {
	Exists(ctx context.Context, path string) (bool, error)
}

// Checksummer computes the CRC-32 of a stored file.
type Checksummer interface {
	Crc32(ctx context.Context, path string) (uint32, error)
}

// Peripheral is a device a scrambled ROM may be bound to.
type Peripheral interface {
	UniqueID() string
}

// Options tune a single validation.
type Options struct {
	// ExpectedCrc is the CRC the file is expected to have. Zero skips the
	// modification check.
	ExpectedCrc uint32

	// ReportIfModified enables the modification check.
	ReportIfModified bool

	// Attached are the peripherals connected right now.
	Attached []Peripheral

	// History lists the unique IDs of peripherals seen before.
	History []string
}

// Resolver validates support files against storage.
type Resolver struct {
	fs  FileSystem
	crc Checksummer
}

// NewResolver creates a resolver.
func NewResolver(fs FileSystem, crc Checksummer) *Resolver {
	return &Resolver{fs: fs, crc: crc}
}

// Validate determines the state of the file of the given kind.
//
// The primary path is checked first, then alternates in order. A present
// file is compared against opts.ExpectedCrc when opts.ReportIfModified is
// set. A ROM image scrambled for a peripheral is classified by the attached
// and historical peripherals instead of by CRC.
func (r *Resolver) Validate(ctx context.Context, files *Files, kind Kind, opts Options) (State, error) {
	if err := checkKind(kind); err != nil {
		return StateNone, err
	}
	if files == nil {
		return StateNone, fmt.Errorf("validate %s: no support files: %w", kind, catalogerr.ErrNullSubject)
	}

	rom := files.Rom
	switch kind {
	case KindRomImage, KindCfgFile:
		if rom == nil {
			return StateNone, fmt.Errorf("validate %s: no rom: %w", kind, catalogerr.ErrNullSubject)
		}
		if kind == KindRomImage && rom.IsInvalid() {
			return StateNone, fmt.Errorf("validate %s: rom path never set: %w", kind, catalogerr.ErrInvalidArgument)
		}
	}

	primary, err := files.DefaultPath(kind)
	if err != nil {
		return StateNone, err
	}
	alternates, err := files.Alternates(kind)
	if err != nil {
		return StateNone, err
	}
	if primary == "" && len(alternates) == 0 {
		return StateNone, nil
	}

	present := false
	if primary != "" {
		if present, err = r.fs.Exists(ctx, primary); err != nil {
			return StateNone, fmt.Errorf("validate %s: %w", kind, err)
		}
	}
	if !present {
		for _, alt := range alternates {
			ok, err := r.fs.Exists(ctx, alt)
			if err != nil {
				return StateNone, fmt.Errorf("validate %s: %w", kind, err)
			}
			if ok {
				return StateMissingWithAlternateFound, nil
			}
		}
		return StateMissing, nil
	}

	if kind == KindRomImage && rom.IsScrambled() {
		return classifyScrambled(rom.TargetDevice, opts.Attached, opts.History), nil
	}

	if opts.ExpectedCrc == 0 || !opts.ReportIfModified {
		return StatePresentAndUnchanged, nil
	}

	current, err := r.currentCrc(ctx, files, kind, primary)
	if err != nil {
		return StateNone, fmt.Errorf("validate %s: %w", kind, err)
	}
	if current != opts.ExpectedCrc {
		return StatePresentButModified, nil
	}
	return StatePresentAndUnchanged, nil
}

func (r *Resolver) currentCrc(ctx context.Context, files *Files, kind Kind, path string) (uint32, error) {
	crc, err := r.crc.Crc32(ctx, path)
	if err != nil {
		return 0, err
	}
	if kind != KindRomImage || !files.Rom.Format.HasConfig() {
		return crc, nil
	}

	var cfgCrc uint32
	if cfg := files.Rom.ConfigPath; cfg != "" {
		ok, err := r.fs.Exists(ctx, cfg)
		if err != nil {
			return 0, err
		}
		if ok {
			if cfgCrc, err = r.crc.Crc32(ctx, cfg); err != nil {
				return 0, err
			}
		}
	}
	return program.CombineCrcs(files.Rom.Format, crc, cfgCrc), nil
}

func classifyScrambled(target string, attached []Peripheral, history []string) State {
	if len(attached) > 0 {
		for _, p := range attached {
			if target == program.AnyDevice || p.UniqueID() == target {
				return StateRequiredPeripheralAvailable
			}
		}
		return StateRequiredPeripheralIncompatible
	}
	if (target == program.AnyDevice && len(history) > 0) || slices.Contains(history, target) {
		return StateRequiredPeripheralNotAttached
	}
	return StateRequiredPeripheralUnknown
}
