/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package features

// Combine merges two feature sets category by category and returns a new
// Set; neither input is modified.
//
// Ordinal categories take the greater compatibility. Flag categories take
// the greater compatibility sub-field and OR the remaining capability bits.
// General features are ORed. The later JLP hardware revision wins, and the
// larger nonzero minimum save sector count wins.
//
// If only one input is non-nil a clone of it is returned. If both are nil
// the Unrecognized preset is returned.
func Combine(a, b *Set) *Set {
	switch {
	case a == nil && b == nil:
		return Unrecognized()
	case a == nil:
		return b.Clone()
	case b == nil:
		return a.Clone()
	}

	r := &Set{
		Ntsc:              maxCompatibility(a.Ntsc, b.Ntsc),
		Pal:               maxCompatibility(a.Pal, b.Pal),
		General:           a.General | b.General,
		KeyboardComponent: combineFlags(a.KeyboardComponent, b.KeyboardComponent),
		SuperVideoArcade:  maxCompatibility(a.SuperVideoArcade, b.SuperVideoArcade),
		Intellivoice:      maxCompatibility(a.Intellivoice, b.Intellivoice),
		IntellivisionII:   maxCompatibility(a.IntellivisionII, b.IntellivisionII),
		Ecs:               combineFlags(a.Ecs, b.Ecs),
		Tutorvision:       maxCompatibility(a.Tutorvision, b.Tutorvision),
		Intellicart:       combineFlags(a.Intellicart, b.Intellicart),
		CuttleCart3:       combineFlags(a.CuttleCart3, b.CuttleCart3),
		Jlp:               combineFlags(a.Jlp, b.Jlp),
		LtoFlash:          combineFlags(a.LtoFlash, b.LtoFlash),
		Bee3:              combineFlags(a.Bee3, b.Bee3),
		Hive:              combineFlags(a.Hive, b.Hive),
	}

	r.JlpHardwareVersion = a.JlpHardwareVersion
	if b.JlpHardwareVersion > r.JlpHardwareVersion {
		r.JlpHardwareVersion = b.JlpHardwareVersion
	}

	// zero means "unspecified", so max() already prefers the nonzero side
	r.JlpFlashMinimumSaveSectors = a.JlpFlashMinimumSaveSectors
	if b.JlpFlashMinimumSaveSectors > r.JlpFlashMinimumSaveSectors {
		r.JlpFlashMinimumSaveSectors = b.JlpFlashMinimumSaveSectors
	}

	return r
}

// CombineAll folds Combine over sets from left to right. It returns nil
// when sets is empty.
func CombineAll(sets ...*Set) *Set {
	if len(sets) == 0 {
		return nil
	}
	r := sets[0].Clone()
	for _, s := range sets[1:] {
		r = Combine(r, s)
	}
	if r == nil {
		return Unrecognized()
	}
	return r
}
